package mission

import (
	"encoding/json"
	"strings"
	"unicode"
)

// ResolveTemplates walks raw (the mission document decoded generically,
// i.e. with json.Unmarshal into interface{}) and replaces every string
// value whose containing key matches a known parameter-template namespace
// with the referenced preset (§4.10 resolution rules 1 and 3: parameter
// templates and segment-config references resolve identically, since both
// are just "a string naming a preset under this field's key").
func ResolveTemplates(raw interface{}, templates ParameterTemplates) (interface{}, error) {
	switch v := raw.(type) {
	case map[string]interface{}:
		for key, val := range v {
			if s, ok := val.(string); ok {
				if presets, known := templates[key]; known {
					preset, ok := presets[s]
					if !ok {
						return nil, &ConfigError{Path: key, Reason: "unknown parameter template preset " + s}
					}
					v[key] = preset
					continue
				}
			}
			resolved, err := ResolveTemplates(val, templates)
			if err != nil {
				return nil, err
			}
			v[key] = resolved
		}
		return v, nil
	case []interface{}:
		for i, item := range v {
			resolved, err := ResolveTemplates(item, templates)
			if err != nil {
				return nil, err
			}
			v[i] = resolved
		}
		return v, nil
	default:
		return raw, nil
	}
}

// DecodeGeneric unmarshals data into the generic tree ResolveTemplates
// expects.
func DecodeGeneric(data []byte) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// StripNonPrintable removes non-printable characters from a cache_dir
// value, returning the cleaned string and whether anything was stripped
// (§4.10 resolution rule 4: a warning is emitted if any were present).
func StripNonPrintable(s string) (string, bool) {
	var b strings.Builder
	stripped := false
	for _, r := range s {
		if unicode.IsPrint(r) {
			b.WriteRune(r)
		} else {
			stripped = true
		}
	}
	return b.String(), stripped
}
