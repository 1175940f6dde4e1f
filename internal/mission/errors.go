package mission

import "fmt"

// ConfigError reports a validation, range, or missing-template failure
// found before any transcoding starts (§4.10 Validation, §7 error kinds).
// ConfigError is always fatal to the whole batch.
type ConfigError struct {
	Path   string // dotted location within the mission document, e.g. "all_mission_config[2].universal_config.audio_related_config"
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %s", e.Reason)
	}
	return fmt.Sprintf("config: %s: %s", e.Path, e.Reason)
}

// RangeError reports a numeric or enum value outside its allowed set,
// carrying both the offending value and the allowed range/set (§7).
type RangeError struct {
	Path     string
	Value    interface{}
	Allowed  string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("config: %s: value %v not in %s", e.Path, e.Value, e.Allowed)
}

// NotFoundError reports a file or directory a mission references that does
// not exist and cannot be produced by an earlier mission in the batch
// (§4.10 Validation, §7 error kinds).
type NotFoundError struct {
	Path string
	Kind string // "file" or "dir"
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("config: %s not found: %s", e.Kind, e.Path)
}
