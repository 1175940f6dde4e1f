package mission

import (
	"encoding/json"
	"fmt"

	"github.com/coilpress/muxctl/internal/config"
)

// LoadTemplates decodes a parameter-templates document already in the
// generic JSON-shaped tree form (see LoadTemplatesFile for the
// format-dispatching entry point used by cmd/muxctl).
func LoadTemplates(data []byte) (ParameterTemplates, error) {
	var t ParameterTemplates
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("mission: decode parameter templates: %w", err)
	}
	return t, nil
}

// LoadTemplatesFile reads and decodes a parameter-templates document from
// path, dispatching on its extension the same way config.LoadGlobalConfig
// does (§6 "Accepted file formats for config: JSON, YAML, HOCON").
func LoadTemplatesFile(path string) (ParameterTemplates, error) {
	generic, err := config.ReadGenericDocument(path)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("mission: re-encode parameter templates %s: %w", path, err)
	}
	return LoadTemplates(b)
}

// Resolve runs §4.10 resolution rules 1, 3, and 4 over a mission document
// and returns the typed result plus any non-fatal warnings (currently:
// cache_dir values that had non-printable characters stripped).
//
// Decoding happens in two passes: first into a generic tree so template
// references can be substituted regardless of where in the document they
// appear, then a re-marshal/unmarshal into the typed Document now that
// every field holds its final shape.
func Resolve(missionData []byte, templates ParameterTemplates) (*Document, []string, error) {
	raw, err := DecodeGeneric(missionData)
	if err != nil {
		return nil, nil, fmt.Errorf("mission: decode document: %w", err)
	}

	resolved, err := ResolveTemplates(raw, templates)
	if err != nil {
		return nil, nil, err
	}

	resolvedJSON, err := json.Marshal(resolved)
	if err != nil {
		return nil, nil, fmt.Errorf("mission: re-encode resolved document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(resolvedJSON, &doc); err != nil {
		return nil, nil, fmt.Errorf("mission: decode resolved document: %w", err)
	}

	var warnings []string
	for i := range doc.AllMissionConfig {
		cleaned, stripped := StripNonPrintable(doc.AllMissionConfig[i].UniversalConfig.CacheDir)
		doc.AllMissionConfig[i].UniversalConfig.CacheDir = cleaned
		if stripped {
			warnings = append(warnings, fmt.Sprintf("mission[%d]: cache_dir had non-printable characters stripped", i))
		}
	}

	return &doc, warnings, nil
}

// ResolveFile is the format-dispatching counterpart of Resolve, reading the
// mission document from missionPath (any of the three accepted formats)
// rather than assuming JSON bytes.
func ResolveFile(missionPath string, templates ParameterTemplates) (*Document, []string, error) {
	raw, err := config.ReadGenericDocument(missionPath)
	if err != nil {
		return nil, nil, err
	}

	resolved, err := ResolveTemplates(raw, templates)
	if err != nil {
		return nil, nil, err
	}

	resolvedJSON, err := json.Marshal(resolved)
	if err != nil {
		return nil, nil, fmt.Errorf("mission: re-encode resolved document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(resolvedJSON, &doc); err != nil {
		return nil, nil, fmt.Errorf("mission: decode resolved document: %w", err)
	}

	var warnings []string
	for i := range doc.AllMissionConfig {
		cleaned, stripped := StripNonPrintable(doc.AllMissionConfig[i].UniversalConfig.CacheDir)
		doc.AllMissionConfig[i].UniversalConfig.CacheDir = cleaned
		if stripped {
			warnings = append(warnings, fmt.Sprintf("mission[%d]: cache_dir had non-printable characters stripped", i))
		}
	}

	return &doc, warnings, nil
}
