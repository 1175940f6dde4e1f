// Package state holds the closed enumerations, reduced-rational helpers,
// color-tag tables, and pure data types shared by every other package in
// this module (§4.11 StateModel). Everything here is pure data and pure
// functions; it has no I/O and no dependency on any other internal package.
package state

// PackageFormat is the output container kind.
type PackageFormat string

const (
	PackageMKV PackageFormat = "mkv"
	PackageMP4 PackageFormat = "mp4"
)

// FrameServer selects the frame-server script dialect used to pipe raw
// frames into an external encoder (§4.7).
type FrameServer string

const (
	FrameServerVapourSynth FrameServer = "vapoursynth"
	FrameServerAvisynth    FrameServer = "avisynth"
	FrameServerNone        FrameServer = "" // direct hardware encode, no frame server
)

// VideoTranscodingMethod selects the encoding backend for C7.
type VideoTranscodingMethod string

const (
	MethodDirectNVENC       VideoTranscodingMethod = "direct_nvenc"
	MethodFrameServerX264   VideoTranscodingMethod = "frame_server_x264"
	MethodFrameServerX265   VideoTranscodingMethod = "frame_server_x265"
	MethodFrameServerNVENC  VideoTranscodingMethod = "frame_server_nvenc"
)

// OutputFrameRateMode is the target frame-rate mode for an encode.
type OutputFrameRateMode string

const (
	OutputFrameRateCFR OutputFrameRateMode = "cfr"
	OutputFrameRateVFR OutputFrameRateMode = "vfr"
)

// OutputDynamicRangeMode controls HDR handling on the encode path.
type OutputDynamicRangeMode string

const (
	DynamicRangePreserve OutputDynamicRangeMode = "preserve"
	DynamicRangeSDR      OutputDynamicRangeMode = "sdr"
)

// ProcessOption is the per-stream-class handling choice (audio/subtitle).
type ProcessOption string

const (
	ProcessCopy      ProcessOption = "copy"
	ProcessTranscode ProcessOption = "transcode"
	ProcessSkip      ProcessOption = "skip"
)

// PriorOption chooses which side of a paired (internal vs external) track
// set is ordered first in the output.
type PriorOption string

const (
	PriorInternal PriorOption = "internal"
	PriorExternal PriorOption = "external"
)

// AudioCodec selects which of C6's codec-specific encoders AUDIO
// dispatches a transcode to (§4.6).
type AudioCodec string

const (
	AudioCodecOpus        AudioCodec = "opus"
	AudioCodecAAC         AudioCodec = "aac"
	AudioCodecFLAC        AudioCodec = "flac"
	AudioCodecPassthrough AudioCodec = "passthrough"
)

// ChapterFormat is the target format for chapter extraction/conversion.
type ChapterFormat string

const (
	ChapterMatroska ChapterFormat = "matroska"
	ChapterOGM      ChapterFormat = "ogm"
	ChapterPOT      ChapterFormat = "pot"
	ChapterSimple   ChapterFormat = "simple"
	ChapterTab      ChapterFormat = "tab"
)

// FrameRateMode is the track-level CFR/VFR classification (§3).
type FrameRateMode string

const (
	FrameRateCFR FrameRateMode = "cfr"
	FrameRateVFR FrameRateMode = "vfr"
)

// ColorRange is the track-level luma/chroma range.
type ColorRange string

const (
	ColorRangeFull    ColorRange = "full"
	ColorRangeLimited ColorRange = "limited"
)

// TrackType selects which demux/mux operation a track participates in.
type TrackType string

const (
	TrackVideo       TrackType = "video"
	TrackAudio       TrackType = "audio"
	TrackSubtitle    TrackType = "subtitle"
	TrackMenu        TrackType = "menu"
	TrackAttachment  TrackType = "attachment"
	TrackTimecodes   TrackType = "timecodes"
)
