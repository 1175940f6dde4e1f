package mission

import (
	"encoding/json"
	"fmt"

	"github.com/coilpress/muxctl/internal/state"
)

// Document is the top-level mission config: "a top-level document with
// basic_config and all_mission_config[]" (§6).
type Document struct {
	BasicConfig      BasicConfig `json:"basic_config"`
	AllMissionConfig []RawConfig `json:"all_mission_config"`
}

// BasicConfig holds batch-wide defaults and switches that are not
// per-title (§5 Cancellation semantics: "unless a fail-fast option is
// set").
type BasicConfig struct {
	FailFast bool `json:"fail_fast"`
}

// RawConfig is one mission entry before its type_related_config has been
// decoded into SingleConfig or SeriesConfig.
type RawConfig struct {
	Type              state.MissionType `json:"type"`
	TypeRelatedConfig json.RawMessage   `json:"type_related_config"`
	UniversalConfig   state.TitleOptions `json:"universal_config"`
}

// ParameterTemplates is the named-preset document: each top-level key is a
// namespace (matched against mission-config field names), each nested key
// a preset name whose value substitutes wherever that namespace's field
// holds the matching string (§4.10 resolution rule 1, rule 3).
type ParameterTemplates map[string]map[string]interface{}

// Single decodes a RawConfig's type_related_config as a SingleConfig.
func (r RawConfig) Single() (state.SingleConfig, error) {
	var c state.SingleConfig
	if err := json.Unmarshal(r.TypeRelatedConfig, &c); err != nil {
		return state.SingleConfig{}, fmt.Errorf("mission: decode single config: %w", err)
	}
	return c, nil
}

// Series decodes a RawConfig's type_related_config as a SeriesConfig.
// Its episode_list field is left as decoded (string shorthand or explicit
// array); ResolvedEpisodeList expands it into a []int.
func (r RawConfig) Series() (state.SeriesConfig, error) {
	var c state.SeriesConfig
	if err := json.Unmarshal(r.TypeRelatedConfig, &c); err != nil {
		return state.SeriesConfig{}, fmt.Errorf("mission: decode series config: %w", err)
	}
	return c, nil
}

// ResolvedEpisodeList returns c.EpisodeList expanded to an explicit list
// in declared order; a descending shorthand such as "3~1" yields
// [3, 2, 1] (§4.10 resolution rule 2).
func ResolvedEpisodeList(c state.SeriesConfig) ([]int, error) {
	switch v := c.EpisodeList.(type) {
	case string:
		return state.ExpandEpisodeList(v)
	case []interface{}:
		out := make([]int, 0, len(v))
		for _, item := range v {
			n, ok := item.(float64)
			if !ok {
				return nil, fmt.Errorf("mission: episode_list entry %v is not a number", item)
			}
			out = append(out, int(n))
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("mission: episode_list is required for a series mission")
	default:
		return nil, fmt.Errorf("mission: episode_list has unsupported shape %T", v)
	}
}
