package state

import (
	"fmt"
	"os"
)

// TrackInfo describes one elementary stream (§3). It is a tagged-variant
// record rather than a class hierarchy: Kind selects which of Video,
// Audio, Subtitle, or Menu is populated. Common attributes always apply;
// variant-specific attributes live on the matching pointer and are nil
// for every other kind.
type TrackInfo struct {
	TrackID         int
	Format          string
	DurationMs      int64 // -1 when unknown
	BitrateBps      int64 // -1 when unknown
	DelayMs         int64 // signed; offset relative to container zero
	StreamSizeBytes int64 // -1 when unknown
	Title           string
	Language        string
	Default         bool
	Forced          bool

	Kind     TrackType
	Video    *VideoAttrs
	Audio    *AudioAttrs
	Subtitle *SubtitleAttrs
	Menu     *MenuAttrs
}

// VideoAttrs holds the video-specific fields of a TrackInfo.
type VideoAttrs struct {
	Width              int
	Height             int
	FrameRateMode      FrameRateMode
	FrameRate          Rational
	OriginalFrameRate  Rational
	FrameCount         int
	ColorRange         ColorRange
	ColorMatrix        string
	ColorPrimaries     string
	Transfer           string
	ChromaSubsampling  string
	BitDepth           int
	SampleAspectRatio  Rational
	HDR                *HDR10Metadata // nil when SDR
}

// AudioAttrs holds the audio-specific fields of a TrackInfo.
type AudioAttrs struct {
	BitDepth int // -1 when unknown
}

// SubtitleAttrs holds the subtitle-specific fields (none beyond common).
type SubtitleAttrs struct{}

// ChapterEntry is one entry in a Menu (chapters) track.
type ChapterEntry struct {
	StartTime string // "HH:MM:SS.mmm"
	EndTime   string // optional, "" when absent
	Title     string
	Language  string // optional, "" when absent
}

// MenuAttrs holds the chapter list of a Menu track.
type MenuAttrs struct {
	Chapters []ChapterEntry
}

// Validate checks the invariants from §3: track_id >= 0, and -1 is the
// only permitted non-positive sentinel for size/bitrate/duration.
func (t *TrackInfo) Validate() error {
	if t.TrackID < 0 {
		return fmt.Errorf("track %d: track_id must be >= 0", t.TrackID)
	}
	for name, v := range map[string]int64{
		"duration_ms":        t.DurationMs,
		"bitrate_bps":        t.BitrateBps,
		"stream_size_bytes":  t.StreamSizeBytes,
	} {
		if v <= 0 && v != -1 {
			return fmt.Errorf("track %d: %s must be positive or -1, got %d", t.TrackID, name, v)
		}
	}
	if t.Kind == TrackMenu && t.Menu != nil {
		var prevHMS string
		for i, c := range t.Menu.Chapters {
			if i > 0 && c.StartTime < prevHMS {
				return fmt.Errorf("menu track %d: chapter %d start_time is not non-decreasing", t.TrackID, i)
			}
			prevHMS = c.StartTime
		}
	}
	return nil
}

// TrackFile binds a TrackInfo to a filesystem path (§3). filepath must
// exist at the moment of binding; callers use NewTrackFile to enforce
// this rather than constructing the struct literal directly.
type TrackFile struct {
	Info     TrackInfo
	Filepath string
}

// NewTrackFile binds info to path, verifying the file exists.
func NewTrackFile(info TrackInfo, path string) (TrackFile, error) {
	if _, err := os.Stat(path); err != nil {
		return TrackFile{}, fmt.Errorf("track file does not exist: %w", err)
	}
	return TrackFile{Info: info, Filepath: path}, nil
}

// TrackExtensionFor returns the file extension to use for a demuxed track
// file, keyed by codec short name (§4.4).
func TrackExtensionFor(format string) string {
	switch format {
	case "hevc":
		return ".265"
	case "avc":
		return ".264"
	case "mpeg-4 visual":
		return ".263"
	case "mpeg video":
		return ".mpeg"
	case "pgs":
		return ".sup"
	case "vobsub":
		return ".idx"
	case "utf-8":
		return ".srt"
	case "mpeg audio layer 3":
		return ".mp3"
	case "layer 2":
		return ".mp2"
	case "e-ac-3":
		return ".ec3"
	case "ac-3":
		return ".ac3"
	case "pcm":
		return ".wav"
	case "mlp fba":
		return ".thd"
	case "wma":
		return ".wma"
	default:
		return ".bin"
	}
}
