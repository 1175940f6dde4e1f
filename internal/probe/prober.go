package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/coilpress/muxctl/internal/state"
	"github.com/coilpress/muxctl/internal/toolrun"
)

// ToolName is the external probe tool's role, used both as the argv[0]
// and the ToolRole passed to the invoker for exit-code classification.
const ToolName = "mediainfo"

// Prober runs the external probe tool and normalizes its output.
type Prober struct {
	Invoker *toolrun.Invoker
}

// New creates a Prober backed by inv.
func New(inv *toolrun.Invoker) *Prober {
	return &Prober{Invoker: inv}
}

// Probe runs a single structured-output call against path and returns the
// normalized ContainerInfo (§4.2).
func (p *Prober) Probe(ctx context.Context, path string) (*ContainerInfo, error) {
	var stdout []string
	info := p.Invoker.Run(ctx, []string{ToolName, "--Output=JSON", "--Full", path}, toolrun.Options{
		ToolRole: ToolName,
		Handlers: []toolrun.LineHandler{func(s toolrun.Stream, line string) {
			if s == toolrun.Stdout {
				stdout = append(stdout, line)
			}
		}},
	})
	if info.Class == toolrun.ExitFail {
		return nil, fmt.Errorf("probe %s: %w (stderr: %s)", path, info.Err, info.StderrTail)
	}
	return ParseJSON(path, []byte(strings.Join(stdout, "\n")))
}

type wireOutput struct {
	Media struct {
		Track []map[string]any `json:"track"`
	} `json:"media"`
}

// ParseJSON converts the probe tool's raw JSON output into a ContainerInfo,
// applying every §4.2 normalization rule. Exported for testing without a
// real probe binary.
func ParseJSON(path string, data []byte) (*ContainerInfo, error) {
	var raw wireOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse probe output for %s: %w", path, err)
	}

	c := &ContainerInfo{Path: path, Ext: extOf(path)}
	for _, tr := range raw.Media.Track {
		switch getStr(tr, "@type", "track_type") {
		case "General":
			c.WritingApplication = getStr(tr, "writing_application")
			for _, name := range splitList(getStr(tr, "attachments")) {
				c.AttachmentFilenames = append(c.AttachmentFilenames, name)
			}
		case "Video":
			c.Tracks = append(c.Tracks, buildVideoTrack(tr))
		case "Audio":
			c.Tracks = append(c.Tracks, buildAudioTrack(tr))
		case "Text":
			c.Tracks = append(c.Tracks, buildSubtitleTrack(tr))
		case "Menu":
			c.Tracks = append(c.Tracks, buildMenuTrack(tr))
		}
	}
	return c, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var streamOrderTail = regexp.MustCompile(`(\d+)$`)

// parseStreamOrder extracts the track id from a "streamorder" field, which
// may be "N" (a single track of its kind) or "X-N" (the Nth track sharing
// physical stream X). The id is always the last integer component (§4.2).
func parseStreamOrder(raw string) int {
	m := streamOrderTail.FindString(raw)
	if m == "" {
		return 0
	}
	n, _ := strconv.Atoi(m)
	return n
}

func commonFields(tr map[string]any) state.TrackInfo {
	return state.TrackInfo{
		TrackID:         parseStreamOrder(getStr(tr, "streamorder", "track_id", "id")),
		Format:          strings.ToLower(getStr(tr, "format")),
		DurationMs:      getDurationMs(tr),
		BitrateBps:      getInt64OrMinusOne(tr, "bit_rate"),
		DelayMs:         getInt64(tr, "delay"),
		StreamSizeBytes: getInt64OrMinusOne(tr, "stream_size"),
		Title:           getStr(tr, "title"),
		Language:        getStr(tr, "language"),
		Default:         getBool(tr, "default"),
		Forced:          getBool(tr, "forced"),
	}
}

func buildVideoTrack(tr map[string]any) state.TrackInfo {
	t := commonFields(tr)
	t.Kind = state.TrackVideo

	width := getInt(tr, "width")
	height := getInt(tr, "height")
	bitDepth := getInt(tr, "bit_depth")
	hdrFormat := getStr(tr, "hdr_format")
	hasHDR := hdrFormat != ""

	rawMatrix := getStr(tr, "matrix_coefficients")
	rawPrimaries := getStr(tr, "colour_primaries")
	rawTransfer := getStr(tr, "transfer_characteristics")

	matrix := state.ProbeToEncoderColorMatrix(rawMatrix)
	primaries := state.ProbeToEncoderColorPrimaries(rawPrimaries)
	transfer := state.ProbeToEncoderTransfer(rawTransfer)
	if matrix == "" || primaries == "" || transfer == "" {
		// §4.2 derives each missing tag individually: an unrecognized
		// matrix doesn't discard a recognized primaries/transfer.
		derivedMatrix, derivedPrimaries, derivedTransfer := state.DeriveColorTags(width, height, bitDepth, hasHDR)
		if matrix == "" {
			matrix = derivedMatrix
		}
		if primaries == "" {
			primaries = derivedPrimaries
		}
		if transfer == "" {
			transfer = derivedTransfer
		}
	}

	colorRange := state.ColorRangeLimited
	if strings.EqualFold(getStr(tr, "color_range"), "Full") {
		colorRange = state.ColorRangeFull
	}

	mode := state.FrameRateCFR
	if strings.EqualFold(getStr(tr, "frame_rate_mode"), "VFR") {
		mode = state.FrameRateVFR
	}

	t.Video = &state.VideoAttrs{
		Width:             width,
		Height:            height,
		FrameRateMode:     mode,
		FrameRate:         selectFrameRate(tr, ""),
		OriginalFrameRate: selectFrameRate(tr, "original_"),
		FrameCount:        getInt(tr, "frame_count"),
		ColorRange:        colorRange,
		ColorMatrix:       matrix,
		ColorPrimaries:    primaries,
		Transfer:          transfer,
		ChromaSubsampling: getStr(tr, "chroma_subsampling"),
		BitDepth:          bitDepth,
		SampleAspectRatio: sampleAspectRatio(tr),
		HDR:               hdr10Metadata(tr, hasHDR),
	}
	return t
}

// selectFrameRate prefers the *_num/*_den pair over the scalar field and
// applies the NTSC fixups (§4.2). prefix is "" for the play frame rate or
// "original_" for the source frame rate.
func selectFrameRate(tr map[string]any, prefix string) state.Rational {
	numKey, denKey, scalarKey := prefix+"framerate_num", prefix+"framerate_den", prefix+"frame_rate"
	if _, ok := tr[numKey]; ok {
		if _, ok := tr[denKey]; ok {
			return state.Rational{Num: getInt(tr, numKey), Den: getInt(tr, denKey)}.Reduce()
		}
	}
	if raw := getStr(tr, scalarKey); raw != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return state.RationalFromScalar(f)
		}
	}
	return state.Rational{}
}

func sampleAspectRatio(tr map[string]any) state.Rational {
	if raw := getStr(tr, "pixel_aspect_ratio"); raw != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return state.Rational{Num: int(f*1000 + 0.5), Den: 1000}.Reduce()
		}
	}
	return state.Rational{Num: 1, Den: 1}
}

var mdlRe = regexp.MustCompile(`min:\s*([\d.]+)\s*cd/m2,\s*max:\s*([\d.]+)\s*cd/m2`)
var lightRe = regexp.MustCompile(`([\d.]+)\s*cd/m2`)

func hdr10Metadata(tr map[string]any, hasHDR bool) *state.HDR10Metadata {
	if !hasHDR {
		return nil
	}
	h := &state.HDR10Metadata{
		MinMasteringDisplayLuminance: -1,
		MaxMasteringDisplayLuminance: -1,
		MaxContentLightLevel:         -1,
		MaxFrameAverageLightLevel:    -1,
	}
	if m := mdlRe.FindStringSubmatch(getStr(tr, "mastering_display_luminance")); m != nil {
		h.MinMasteringDisplayLuminance, _ = strconv.ParseFloat(m[1], 64)
		h.MaxMasteringDisplayLuminance, _ = strconv.ParseFloat(m[2], 64)
	}
	if m := lightRe.FindStringSubmatch(getStr(tr, "maximum_content_light_level")); m != nil {
		h.MaxContentLightLevel, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := lightRe.FindStringSubmatch(getStr(tr, "maximum_frameaverage_light_level")); m != nil {
		h.MaxFrameAverageLightLevel, _ = strconv.ParseFloat(m[1], 64)
	}
	return h
}

func buildAudioTrack(tr map[string]any) state.TrackInfo {
	t := commonFields(tr)
	t.Kind = state.TrackAudio
	depth := getInt(tr, "bit_depth")
	if depth == 0 {
		depth = -1
	}
	t.Audio = &state.AudioAttrs{BitDepth: depth}
	return t
}

func buildSubtitleTrack(tr map[string]any) state.TrackInfo {
	t := commonFields(tr)
	t.Kind = state.TrackSubtitle
	t.Subtitle = &state.SubtitleAttrs{}
	return t
}

func buildMenuTrack(tr map[string]any) state.TrackInfo {
	t := commonFields(tr)
	t.Kind = state.TrackMenu
	t.Menu = &state.MenuAttrs{}
	return t
}

// --- generic field extraction from the probe tool's loosely typed JSON ---

func getStr(tr map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := tr[k]; ok {
			switch x := v.(type) {
			case string:
				if x != "" {
					return x
				}
			case float64:
				return strconv.FormatFloat(x, 'f', -1, 64)
			}
		}
	}
	return ""
}

func getInt(tr map[string]any, key string) int {
	v, ok := tr[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case float64:
		return int(x)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(x))
		return n
	}
	return 0
}

func getInt64(tr map[string]any, key string) int64 {
	v, ok := tr[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case float64:
		return int64(x)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n
	}
	return 0
}

func getInt64OrMinusOne(tr map[string]any, key string) int64 {
	if _, ok := tr[key]; !ok {
		return -1
	}
	n := getInt64(tr, key)
	if n <= 0 {
		return -1
	}
	return n
}

func getDurationMs(tr map[string]any) int64 {
	raw := getStr(tr, "duration")
	if raw == "" {
		return -1
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f <= 0 {
		return -1
	}
	return int64(f)
}

func getBool(tr map[string]any, key string) bool {
	switch strings.ToLower(getStr(tr, key)) {
	case "yes", "true", "1":
		return true
	}
	return false
}
