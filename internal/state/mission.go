package state

import (
	"fmt"
	"sort"
)

// MissionType distinguishes a single-title mission from a series mission.
type MissionType string

const (
	MissionSingle MissionType = "single"
	MissionSeries MissionType = "series"
)

// SingleConfig describes a one-input, one-output mission.
type SingleConfig struct {
	InputPath  string `json:"input_path"`
	OutputDir  string `json:"output_dir"`
	OutputName string `json:"output_name"`
	// SegmentedTranscodeConfigList optionally drives C8 instead of a
	// single-shot C7 encode.
	SegmentedTranscodeConfigList []SegmentConfigInterval `json:"segmented_transcode_config_list,omitempty"`
}

// SeriesConfig describes a directory-of-episodes mission.
type SeriesConfig struct {
	InputDir       string `json:"input_dir"`
	FilenameRegexp string `json:"filename_regexp"` // first capture group is the episode number
	OutputTemplate string `json:"output_template"` // contains "{episode}"
	// EpisodeList is either "first~last" shorthand or an explicit array;
	// see mission.ResolvedEpisodeList.
	EpisodeList interface{} `json:"episode_list"`
	// SegmentedTranscodeConfig is a per-episode override, keyed by the
	// episode number formatted as a decimal string (JSON object keys are
	// always strings).
	SegmentedTranscodeConfig map[string][]SegmentConfigInterval `json:"segmented_transcode_config,omitempty"`
}

// ExpandEpisodeList expands a "first~last" shorthand into an explicit,
// inclusive list with the step sign inferred from sign(last-first) (§4.10
// rule 2, acceptance scenario S3).
func ExpandEpisodeList(spec string) ([]int, error) {
	var first, last int
	if n, err := fmt.Sscanf(spec, "%d~%d", &first, &last); err != nil || n != 2 {
		return nil, fmt.Errorf("invalid episode_list shorthand %q", spec)
	}
	step := 1
	if last < first {
		step = -1
	}
	var out []int
	for v := first; ; v += step {
		out = append(out, v)
		if v == last {
			break
		}
	}
	return out, nil
}

// SegmentConfigInterval binds a frame sub-range to an encoder/frame-server
// template pair for the segmented encoder (§3 SegmentationPlan, §4.8).
type SegmentConfigInterval struct {
	FirstFrameIndex     int      `json:"first_frame_index"`
	LastFrameIndex      int      `json:"last_frame_index"`
	EncoderTemplate     []string `json:"encoder_argv_template"`
	FrameServerTemplate string   `json:"frame_server_script_template,omitempty"`
}

// AudioRelatedConfig is the per-title audio handling configuration.
type AudioRelatedConfig struct {
	InternalProcessOption ProcessOption `json:"internal_process_option"`
	ExternalProcessOption ProcessOption `json:"external_process_option"`
	// Codec selects which C6 codec-specific encoder a transcode dispatches
	// to (§4.6); applies to both sides when either ProcessOption is
	// transcode.
	Codec AudioCodec `json:"codec,omitempty"`
	// EncoderExe/DecoderExe resolve the {{encoder_exe}}/{{decoder_exe}}
	// placeholders §4.6 reserves in every codec argv template; DecoderExe
	// is also what Codec==opus's mandatory decode-then-reencode stage
	// spawns when the source is already Opus.
	EncoderExe string `json:"encoder_exe,omitempty"`
	DecoderExe string `json:"decoder_exe,omitempty"`
	// InternalArgvTemplate/ExternalArgvTemplate carry the resolved
	// audio_transcoding_cmd_param_template preset (§4.10 resolution rule
	// 1) for each side, used only when the matching ProcessOption is
	// transcode.
	InternalArgvTemplate []string                `json:"audio_transcoding_cmd_param_template,omitempty"`
	ExternalArgvTemplate []string                `json:"external_audio_transcoding_cmd_param_template,omitempty"`
	Prior                PriorOption             `json:"prior"`
	TrackOrder           []int                   `json:"track_order,omitempty"` // permutation of positions in the merged, prior-ordered track list; §9 resort semantics
	DelayDeltaMs         map[int]int64           `json:"delay_delta_ms,omitempty"`
	ExternalFiles        []ExternalCompanionFile `json:"external_files,omitempty"`
}

// SubtitleRelatedConfig is the per-title subtitle handling configuration.
type SubtitleRelatedConfig struct {
	ProcessOption ProcessOption           `json:"process_option"`
	Prior         PriorOption             `json:"prior"`
	TrackOrder    []int                   `json:"track_order,omitempty"`
	ExternalFiles []ExternalCompanionFile `json:"external_files,omitempty"`
}

// ExternalCompanionFile is an external track source (subtitle or audio)
// attached to a title, optionally restricted to specific internal track
// indices when the external file is itself a multi-track container.
type ExternalCompanionFile struct {
	Path           string `json:"path"`
	TrackIndexList []int  `json:"track_index_list,omitempty"` // empty means "treat as a single track"
	Language       string `json:"language,omitempty"`
}

// ChapterRelatedConfig is the per-title chapter handling configuration.
type ChapterRelatedConfig struct {
	ProcessOption ProcessOption `json:"process_option"`
	ExternalFile  string        `json:"external_file,omitempty"` // already in a known chapter format, or a container to extract from
}

// AttachmentRelatedConfig is the per-title attachment handling configuration.
type AttachmentRelatedConfig struct {
	Include       bool     `json:"include"`
	ExternalFiles []string `json:"external_files,omitempty"`
}

// VideoRelatedConfig is the per-title video handling configuration.
type VideoRelatedConfig struct {
	ProcessOption          ProcessOption          `json:"process_option"` // copy|transcode (skip is not meaningful for video)
	Method                 VideoTranscodingMethod `json:"method,omitempty"`
	OutputFrameRateMode    OutputFrameRateMode    `json:"output_frame_rate_mode,omitempty"`
	OutputFPS              string                 `json:"output_fps,omitempty"` // "" (source fps) or "Nfps"
	OutputSAR              string                 `json:"output_sar,omitempty"` // "", "unchange", or an explicit rational string
	OutputDynamicRangeMode OutputDynamicRangeMode `json:"output_dynamic_range_mode,omitempty"`
	OutputFullRange        bool                   `json:"output_full_range,omitempty"`
	EncoderTemplate        []string               `json:"encoder_argv_template,omitempty"`
	FrameServerTemplate    string                 `json:"frame_server_script_template,omitempty"`
	// FrameServerExe names the frame-server process (a VapourSynth or
	// AviSynth host binary) that `runFrameServerPiped` spawns against the
	// rendered script; only consulted when Method routes through a
	// frame-server pipeline (§4.7).
	FrameServerExe               string                   `json:"frame_server_exe,omitempty"`
	SegmentedTranscodeConfigList []SegmentConfigInterval  `json:"segmented_transcode_config_list,omitempty"`
	// GopFrameCnt sizes C8's shards; only consulted when
	// SegmentedTranscodeConfigList is non-empty (§4.8 step 1).
	GopFrameCnt int `json:"gop_frame_cnt,omitempty"`
}

// TitleOptions groups the universal per-title configuration (§6
// universal_config).
type TitleOptions struct {
	Video         VideoRelatedConfig      `json:"video_related_config"`
	Audio         AudioRelatedConfig      `json:"audio_related_config"`
	Subtitle      SubtitleRelatedConfig   `json:"subtitle_related_config"`
	Chapter       ChapterRelatedConfig    `json:"chapter_related_config"`
	Attachment    AttachmentRelatedConfig `json:"attachment_related_config"`
	CacheDir      string                  `json:"cache_dir"`
	PackageFormat PackageFormat           `json:"package_format"`
	ThreadBool    bool                    `json:"thread_bool"`
}

// Resort reorders items by order, a permutation of a prefix of indices
// into items. Positions not named by order preserve source order at the
// tail (§9 Open Questions: legacy "resort" behavior when order is shorter
// than items).
func Resort[T any](items []T, order []int) []T {
	used := make(map[int]bool, len(order))
	out := make([]T, 0, len(items))
	for _, idx := range order {
		if idx < 0 || idx >= len(items) || used[idx] {
			continue
		}
		out = append(out, items[idx])
		used[idx] = true
	}
	for i, item := range items {
		if !used[i] {
			out = append(out, item)
		}
	}
	return out
}

// SortedEpisodeList returns a copy of episodes sorted ascending,
// regardless of the configured expansion direction.
func SortedEpisodeList(episodes []int) []int {
	out := make([]int, len(episodes))
	copy(out, episodes)
	sort.Ints(out)
	return out
}
