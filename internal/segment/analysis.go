package segment

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/coilpress/muxctl/internal/state"
)

// SegmentBoundary is one bitrate-weighted interval boundary emitted by the
// external GOP analysis tool (analysis/gop_analysis.py in original_source;
// out of scope per spec.md §1, consumed here per SPEC_FULL.md's
// supplemented-feature #4). FrameIndex is where the boundary falls;
// BitrateWeight is the analyzer's relative-complexity score for the
// interval starting there.
type SegmentBoundary struct {
	FrameIndex    int
	BitrateWeight float64
}

// LoadGOPAnalysis parses the analyzer's output format: one
// "<frame_index> <bitrate_weight>" pair per line, blank lines and lines
// starting with "#" ignored.
func LoadGOPAnalysis(path string) ([]SegmentBoundary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("segment: open gop analysis %s: %w", path, err)
	}
	defer f.Close()

	var out []SegmentBoundary
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("segment: gop analysis %s line %d: want \"<frame> <weight>\", got %q", path, lineNo, line)
		}
		frame, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("segment: gop analysis %s line %d: invalid frame index %q", path, lineNo, fields[0])
		}
		weight, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("segment: gop analysis %s line %d: invalid bitrate weight %q", path, lineNo, fields[1])
		}
		out = append(out, SegmentBoundary{FrameIndex: frame, BitrateWeight: weight})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("segment: scan gop analysis %s: %w", path, err)
	}
	return out, nil
}

// BoundariesToIntervals converts analyzer boundaries into config intervals
// spanning [first, last], applying the same (encoder, frame-server)
// template pair to every resulting interval — closing the loop the spec
// leaves implicit ("GOP analysis tool... output the core consumes"), one
// level before BuildPlan further subdivides each interval into
// GopFrameCnt-frame shards. A boundary at or before first, or at/after
// last, is dropped since it creates no usable split point.
func BoundariesToIntervals(boundaries []SegmentBoundary, first, last int, encoderTemplate []string, frameServerTemplate string) []state.SegmentConfigInterval {
	var points []int
	seen := map[int]bool{}
	for _, b := range boundaries {
		if b.FrameIndex <= first || b.FrameIndex >= last || seen[b.FrameIndex] {
			continue
		}
		seen[b.FrameIndex] = true
		points = append(points, b.FrameIndex)
	}
	sort.Ints(points)

	var out []state.SegmentConfigInterval
	cursor := first
	for _, p := range points {
		out = append(out, state.SegmentConfigInterval{
			FirstFrameIndex: cursor, LastFrameIndex: p - 1,
			EncoderTemplate: encoderTemplate, FrameServerTemplate: frameServerTemplate,
		})
		cursor = p
	}
	out = append(out, state.SegmentConfigInterval{
		FirstFrameIndex: cursor, LastFrameIndex: last,
		EncoderTemplate: encoderTemplate, FrameServerTemplate: frameServerTemplate,
	})
	return out
}
