package segment

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/coilpress/muxctl/internal/state"
)

// Config is the input to BuildPlan (§4.8 steps 1-3, §3 SegmentationPlan).
type Config struct {
	First, Last int // total frame range, inclusive

	// Intervals are the caller-configured config intervals; gaps between
	// them (including the prefix before the first and the suffix after
	// the last) are filled with Default. Intervals need not be sorted.
	Intervals []state.SegmentConfigInterval
	Default   state.SegmentConfigInterval

	GopFrameCnt int

	// Set when the configured interval boundaries are expressed against
	// the source frame rate but the output is a different CFR (§4.8 step
	// 2 frame-index mapping). When OutputIsCFR is false, no rescale is
	// applied.
	OutputIsCFR bool
	SourceFPS   state.Rational
	OutputFPS   state.Rational
}

// overlapError reports two config intervals whose frame ranges intersect.
type overlapError struct{ a, b state.SegmentConfigInterval }

func (e *overlapError) Error() string {
	return fmt.Sprintf("segment: config intervals [%d,%d] and [%d,%d] overlap",
		e.a.FirstFrameIndex, e.a.LastFrameIndex, e.b.FirstFrameIndex, e.b.LastFrameIndex)
}

// BuildPlan constructs the SegmentationPlan: sorts intervals, fills gaps
// with the default config, rejects overlaps, rescales indices for a CFR
// output driven by source-fps-relative boundaries, and subdivides every
// config interval into GopFrameCnt-frame shards (§4.8 steps 1-3).
func BuildPlan(cfg Config) (*state.SegmentationPlan, error) {
	if cfg.GopFrameCnt <= 0 {
		return nil, fmt.Errorf("segment: gop_frame_cnt must be positive")
	}
	if cfg.First > cfg.Last {
		return nil, fmt.Errorf("segment: first frame %d > last frame %d", cfg.First, cfg.Last)
	}

	intervals := make([]state.SegmentConfigInterval, len(cfg.Intervals))
	copy(intervals, cfg.Intervals)
	if cfg.OutputIsCFR {
		for i := range intervals {
			intervals[i].FirstFrameIndex = state.RescaleFPS(intervals[i].FirstFrameIndex, cfg.SourceFPS, cfg.OutputFPS)
			intervals[i].LastFrameIndex = state.RescaleFPS(intervals[i].LastFrameIndex, cfg.SourceFPS, cfg.OutputFPS)
		}
	}
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].FirstFrameIndex < intervals[j].FirstFrameIndex
	})
	for i := 1; i < len(intervals); i++ {
		if intervals[i].FirstFrameIndex <= intervals[i-1].LastFrameIndex {
			return nil, &overlapError{intervals[i-1], intervals[i]}
		}
	}

	filled := fillGaps(intervals, cfg.Default, cfg.First, cfg.Last)

	plan := &state.SegmentationPlan{First: cfg.First, Last: cfg.Last}
	for _, iv := range filled {
		plan.Shards = append(plan.Shards, shardify(iv, cfg.GopFrameCnt)...)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

// fillGaps inserts Default-configured intervals covering the prefix,
// inter-interval gaps, and suffix of [first, last] not already claimed by
// an explicit interval.
func fillGaps(sorted []state.SegmentConfigInterval, def state.SegmentConfigInterval, first, last int) []state.SegmentConfigInterval {
	var out []state.SegmentConfigInterval
	cursor := first
	for _, iv := range sorted {
		if iv.FirstFrameIndex > cursor {
			gap := def
			gap.FirstFrameIndex, gap.LastFrameIndex = cursor, iv.FirstFrameIndex-1
			out = append(out, gap)
		}
		out = append(out, iv)
		cursor = iv.LastFrameIndex + 1
	}
	if cursor <= last {
		gap := def
		gap.FirstFrameIndex, gap.LastFrameIndex = cursor, last
		out = append(out, gap)
	}
	return out
}

// shardify subdivides one config interval into gopFrameCnt-frame shards,
// truncating the last shard to the interval end (§4.8 step 3).
func shardify(iv state.SegmentConfigInterval, gopFrameCnt int) []state.Shard {
	var shards []state.Shard
	for start := iv.FirstFrameIndex; start <= iv.LastFrameIndex; start += gopFrameCnt {
		end := start + gopFrameCnt - 1
		if end > iv.LastFrameIndex {
			end = iv.LastFrameIndex
		}
		shards = append(shards, state.Shard{
			ID:                  state.NewShardID(start, end),
			FirstFrame:          start,
			LastFrame:           end,
			EncoderTemplate:     iv.EncoderTemplate,
			FrameServerTemplate: iv.FrameServerTemplate,
		})
	}
	return shards
}

// Per-OS hard limits checked at plan time, not runtime (§4.8 "Hard limits
// to check at plan time").
const (
	maxCommandLineLengthWindows = 8191
	maxCommandLineLengthPOSIX   = 131072
	maxPathLengthWindows        = 260
	maxPathLengthPOSIX          = 4096
)

// CheckLimits verifies that the cache directory path and every shard's
// rendered command line (when argvLen is non-nil) stay within the host
// OS's hard limits, reporting the first violation as a plan-time error
// rather than a runtime failure. Per-shard file paths are not checked.
func CheckLimits(plan *state.SegmentationPlan, cacheDir string, argvLen func(state.Shard) int) error {
	maxCmd, maxPath := maxCommandLineLengthPOSIX, maxPathLengthPOSIX
	if runtime.GOOS == "windows" {
		maxCmd, maxPath = maxCommandLineLengthWindows, maxPathLengthWindows
	}
	if len(cacheDir) > maxPath {
		return fmt.Errorf("segment: cache directory path %q exceeds max path length %d", cacheDir, maxPath)
	}
	for _, s := range plan.Shards {
		if argvLen != nil {
			if n := argvLen(s); n > maxCmd {
				return fmt.Errorf("segment: shard %s command line length %d exceeds max %d", s.ID, n, maxCmd)
			}
		}
	}
	return nil
}
