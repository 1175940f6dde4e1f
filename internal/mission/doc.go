// Package mission implements MissionPlanner (C10): it expands the
// declarative mission config (single or series) into concrete title runs,
// resolves parameter-template and segment-config references, validates
// everything up front, and hands the result to title.Pipeline. Grounded on
// the batch-driving cadence of internal/pipeline/runner.go, generalized
// from "one file per directory walk" to "one or more titles per declared
// mission."
package mission
