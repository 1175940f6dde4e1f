package segment

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Status is the durable per-interval status file (§6 persisted state):
// two parallel maps keyed by shard id, reproducing the legacy on-disk
// shape rather than state.ShardStatus's single combined struct. Extra
// preserves any unrecognized top-level keys verbatim across rewrites
// (§6 "forward-compatible: unknown keys are preserved on rewrite").
type Status struct {
	GopFrameCnt              int             `json:"gop_frame_cnt"`
	SegmentTranscodeBoolDict map[string]bool `json:"segment_transcode_bool_dict"`
	GopFilepathDict          map[string]string `json:"gop_filepath_dict"`
	Extra                    map[string]json.RawMessage `json:"-"`
}

// NewStatus creates an empty status for a plan with the given shard size.
func NewStatus(gopFrameCnt int) *Status {
	return &Status{
		GopFrameCnt:              gopFrameCnt,
		SegmentTranscodeBoolDict: map[string]bool{},
		GopFilepathDict:          map[string]string{},
	}
}

// Done reports whether shardID is marked done and its output file still
// exists on disk (§4.8 step 5 resumability).
func (s *Status) Done(shardID string) bool {
	if !s.SegmentTranscodeBoolDict[shardID] {
		return false
	}
	path, ok := s.GopFilepathDict[shardID]
	if !ok {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// MarkDone records a shard's completion and output path.
func (s *Status) MarkDone(shardID, outputPath string) {
	s.SegmentTranscodeBoolDict[shardID] = true
	s.GopFilepathDict[shardID] = outputPath
}

// LoadStatus reads a status file, or returns a fresh empty status if path
// does not exist yet (first run of this title).
func LoadStatus(path string, gopFrameCnt int) (*Status, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewStatus(gopFrameCnt), nil
	}
	if err != nil {
		return nil, fmt.Errorf("segment: read status %s: %w", path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("segment: parse status %s: %w", path, err)
	}

	s := NewStatus(gopFrameCnt)
	s.Extra = map[string]json.RawMessage{}
	for k, v := range raw {
		switch k {
		case "gop_frame_cnt":
			json.Unmarshal(v, &s.GopFrameCnt)
		case "segment_transcode_bool_dict":
			json.Unmarshal(v, &s.SegmentTranscodeBoolDict)
		case "gop_filepath_dict":
			json.Unmarshal(v, &s.GopFilepathDict)
		default:
			s.Extra[k] = v
		}
	}
	return s, nil
}

// SaveStatus persists s to path atomically: write to a temp file in the
// same directory, then rename over the destination (§5 "writes are
// atomic (write-then-rename)").
func SaveStatus(path string, s *Status) error {
	merged := map[string]json.RawMessage{}
	for k, v := range s.Extra {
		merged[k] = v
	}
	for key, val := range map[string]any{
		"gop_frame_cnt":               s.GopFrameCnt,
		"segment_transcode_bool_dict": s.SegmentTranscodeBoolDict,
		"gop_filepath_dict":           s.GopFilepathDict,
	} {
		enc, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("segment: marshal status field %s: %w", key, err)
		}
		merged[key] = enc
	}

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("segment: marshal status %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("segment: create status dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".status-*.tmp")
	if err != nil {
		return fmt.Errorf("segment: create temp status file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("segment: write temp status file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("segment: close temp status file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("segment: rename temp status file to %s: %w", path, err)
	}
	return nil
}
