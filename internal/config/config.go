// Package config holds the ambient, out-of-core configuration surface
// spec.md §6 describes only by contract: the global config document (tool
// search directories, logging, color), plus the loader that picks a
// decoder for the mission/templates/global documents by file extension
// (JSON, YAML, HOCON). Mission semantics themselves (basic_config,
// all_mission_config[]) live in internal/mission; this package is the
// thing the CLI parses before internal/mission ever sees a byte.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl"
	"gopkg.in/yaml.v3"
)

// ColorMode controls ANSI color output, shared by internal/term and
// internal/logging.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// GlobalConfig is the third of the three documents the CLI surface
// accepts (§6 "a single command that accepts the three config paths
// (mission, templates, global)"). It carries everything that is not
// title-specific: where to look for external tools before falling back
// to PATH (§4.1), and how this run should log.
type GlobalConfig struct {
	ToolSearchDirs []string  `json:"tool_search_dirs" yaml:"tool_search_dirs"`
	ColorMode      ColorMode `json:"color_mode" yaml:"color_mode"`
	LogFile        string    `json:"log_file" yaml:"log_file"`
	Verbose        bool      `json:"verbose" yaml:"verbose"`
	LogRotateBytes int64     `json:"log_rotate_bytes" yaml:"log_rotate_bytes"`
}

// DefaultGlobalConfig returns the zero-configuration baseline: no extra
// search directories (PATH only), auto color, no log file.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		ColorMode:      ColorAuto,
		LogRotateBytes: 64 << 20, // 64MiB, matches the teacher's own rotate threshold order of magnitude
	}
}

// Validate checks the enumerated ColorMode field.
func (c *GlobalConfig) Validate() error {
	switch c.ColorMode {
	case "", ColorAuto, ColorAlways, ColorNever:
		if c.ColorMode == "" {
			c.ColorMode = ColorAuto
		}
	default:
		return fmt.Errorf("config: invalid color_mode %q (use auto, always, or never)", c.ColorMode)
	}
	return nil
}

// LoadGlobalConfig reads and decodes a global config document, dispatched
// by extension (§6 "Accepted file formats").
func LoadGlobalConfig(path string) (GlobalConfig, error) {
	cfg := DefaultGlobalConfig()
	data, decode, err := readAndPickDecoder(path)
	if err != nil {
		return cfg, err
	}
	if err := decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: decode global config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ReadGenericDocument reads path and decodes it into the format-agnostic
// interface{} tree, for callers (internal/mission) that need to run
// parameter-template substitution before committing to a typed shape.
func ReadGenericDocument(path string) (interface{}, error) {
	data, decode, err := readAndPickDecoder(path)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := decode(data, &generic); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return generic, nil
}

func readAndPickDecoder(path string) ([]byte, genericDecoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	decode, err := DecoderFor(path)
	if err != nil {
		return nil, nil, err
	}
	return data, decode, nil
}

// genericDecoder turns raw document bytes into the format-agnostic
// interface{} tree internal/mission's template resolution walks
// (json.Unmarshal's own output shape: map[string]interface{}, []interface{},
// plain scalars). YAML and HCL are both normalized to that same shape so
// one substitution pass serves all three input formats (§6 "Accepted
// file formats for config: JSON ... YAML ... HOCON").
type genericDecoder func(data []byte, v interface{}) error

// ErrUnsupportedFormat is returned when a config path's extension isn't
// one of the three accepted formats.
var ErrUnsupportedFormat = errors.New("config: unsupported file extension (use .json, .yml/.yaml, or .conf)")

// DecoderFor resolves a genericDecoder from a file extension (§6).
func DecoderFor(path string) (genericDecoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return decodeJSON, nil
	case ".yml", ".yaml":
		return decodeYAML, nil
	case ".conf":
		return decodeHCL, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

func decodeJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// decodeYAML decodes then re-marshals through JSON so downstream callers
// always see JSON-shaped maps (map[string]interface{} with string keys)
// instead of yaml.v3's map[interface{}]interface{}/map[string]interface{}
// mix, which internal/mission's generic template-substitution walk isn't
// written to distinguish between.
func decodeYAML(data []byte, v interface{}) error {
	var generic interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return err
	}
	return roundTripJSON(generic, v)
}

// decodeHCL decodes a HOCON/HCL document the same way: hcl.Unmarshal
// already produces JSON-compatible map[string]interface{} trees, but we
// still round-trip it so the caller gets exactly the type it asked for
// (a concrete struct) rather than the generic tree hcl.Unmarshal fills
// when given an interface{} target.
func decodeHCL(data []byte, v interface{}) error {
	var generic map[string]interface{}
	if err := hcl.Unmarshal(data, &generic); err != nil {
		return err
	}
	return roundTripJSON(generic, v)
}

func roundTripJSON(generic interface{}, v interface{}) error {
	b, err := json.Marshal(generic)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
