// Package check runs the CLI's preflight external-tool availability sweep
// (§4.1 C1 ToolInvoker's search-dirs-then-PATH resolution, exercised once
// up front rather than discovered mid-pipeline on the first missing tool).
// A missing tool here is what the CLI surface (§6) maps to exit code 3.
package check

import (
	"fmt"

	"github.com/coilpress/muxctl/internal/toolrun"
)

// Logger is the minimal logging interface Run needs.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// requiredTools lists every external tool role a title run can invoke: the
// prober (mediainfo, internal/probe), the generic transcoder (ffmpeg,
// internal/remux, internal/audiotranscode), and the Matroska toolchain
// (mkvmerge, mkvextract, internal/mux, internal/extract). Video encoders
// (x264/x265/etc.) are resolved per-mission from templated argv and are not
// known ahead of a mission document, so Mission validation (§4.10) is
// where those are caught instead.
var requiredTools = []string{"ffmpeg", "mediainfo", "mkvmerge", "mkvextract"}

// MissingToolError reports that a required external tool could not be
// located in any configured search directory or on PATH.
type MissingToolError struct {
	Tool string
}

func (e *MissingToolError) Error() string {
	return fmt.Sprintf("required tool %q not found in search directories or PATH", e.Tool)
}

// Run resolves every tool in requiredTools via inv, logging each as it
// goes, and returns the first MissingToolError encountered (nil if every
// tool resolved).
func Run(inv *toolrun.Invoker, log Logger) error {
	log.Info("=== Tool check ===")
	var firstErr error
	for _, tool := range requiredTools {
		path, err := inv.Locate(tool)
		if err != nil {
			log.Error("%s: not found", tool)
			if firstErr == nil {
				firstErr = &MissingToolError{Tool: tool}
			}
			continue
		}
		log.Success("%s: %s", tool, path)
	}
	return firstErr
}
