package probe

import (
	"path/filepath"
	"strings"

	"github.com/coilpress/muxctl/internal/state"
)

// ContainerInfo is the result of a single probe call: a flat list of
// TrackInfos plus attachment filenames and the writing_application string
// (§4.2).
type ContainerInfo struct {
	Path                string
	Ext                 string // lowercased, including the dot
	Tracks              []state.TrackInfo
	AttachmentFilenames []string
	WritingApplication  string
}

// PrimaryVideo returns the first video track, or nil.
func (c *ContainerInfo) PrimaryVideo() *state.TrackInfo {
	for i := range c.Tracks {
		if c.Tracks[i].Kind == state.TrackVideo {
			return &c.Tracks[i]
		}
	}
	return nil
}

// AudioTracks returns every audio track in container order.
func (c *ContainerInfo) AudioTracks() []state.TrackInfo {
	return c.tracksOfKind(state.TrackAudio)
}

// SubtitleTracks returns every subtitle track in container order.
func (c *ContainerInfo) SubtitleTracks() []state.TrackInfo {
	return c.tracksOfKind(state.TrackSubtitle)
}

// MenuTrack returns the chapter/menu track, or nil.
func (c *ContainerInfo) MenuTrack() *state.TrackInfo {
	for i := range c.Tracks {
		if c.Tracks[i].Kind == state.TrackMenu {
			return &c.Tracks[i]
		}
	}
	return nil
}

func (c *ContainerInfo) tracksOfKind(kind state.TrackType) []state.TrackInfo {
	var out []state.TrackInfo
	for _, t := range c.Tracks {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// HasBitmapSubtitle reports whether any subtitle track is an image-based
// format (PGS/VobSub), which cannot be muxed into an MP4 output (§4.5).
func (c *ContainerInfo) HasBitmapSubtitle() bool {
	for _, t := range c.SubtitleTracks() {
		switch strings.ToLower(t.Format) {
		case "pgs", "vobsub":
			return true
		}
	}
	return false
}

func extOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
