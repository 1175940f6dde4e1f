package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/coilpress/muxctl/internal/probe"
	"github.com/coilpress/muxctl/internal/state"
	"github.com/coilpress/muxctl/internal/toolrun"
)

// Extractor demuxes tracks from a probed container into CacheDir, which
// is owned exclusively by the title pipeline for the title's lifetime
// (§3 Lifecycle).
type Extractor struct {
	Invoker  *toolrun.Invoker
	CacheDir string
}

// New creates an Extractor writing demuxed files under cacheDir.
func New(inv *toolrun.Invoker, cacheDir string) *Extractor {
	return &Extractor{Invoker: inv, CacheDir: cacheDir}
}

func isMatroska(ext string) bool {
	switch ext {
	case ".mkv", ".mka", ".mks":
		return true
	}
	return false
}

func findTrack(tracks []state.TrackInfo, id int) *state.TrackInfo {
	for i := range tracks {
		if tracks[i].TrackID == id {
			return &tracks[i]
		}
	}
	return nil
}

// runMatroska invokes mkvextract and treats its warning exit (code 1) as
// success-with-warnings, per §4.4.
func (e *Extractor) runMatroska(ctx context.Context, argv []string) (toolrun.ExitInfo, error) {
	info := e.Invoker.Run(ctx, argv, toolrun.Options{ToolRole: "mkvextract"})
	if info.Class == toolrun.ExitFail {
		return info, fmt.Errorf("mkvextract failed: %w (stderr: %s)", info.Err, info.StderrTail)
	}
	return info, nil
}

func (e *Extractor) runGeneric(ctx context.Context, argv []string) (toolrun.ExitInfo, error) {
	info := e.Invoker.Run(ctx, argv, toolrun.Options{})
	if info.Class == toolrun.ExitFail {
		return info, fmt.Errorf("ffmpeg extract failed: %w (stderr: %s)", info.Err, info.StderrTail)
	}
	return info, nil
}

// ExtractVideo demuxes the container's video track (there is exactly one
// per §3) into CacheDir and returns a bound TrackFile.
func (e *Extractor) ExtractVideo(ctx context.Context, c *probe.ContainerInfo) (state.TrackFile, error) {
	track := c.PrimaryVideo()
	if track == nil {
		return state.TrackFile{}, fmt.Errorf("extract video: container has no video track")
	}
	out := filepath.Join(e.CacheDir, fmt.Sprintf("video_%d%s", track.TrackID, state.TrackExtensionFor(track.Format)))

	var err error
	if isMatroska(c.Ext) {
		_, err = e.runMatroska(ctx, []string{"mkvextract", "tracks", c.Path,
			fmt.Sprintf("%d:%s", track.TrackID, out)})
	} else {
		_, err = e.runGeneric(ctx, []string{"ffmpeg", "-y", "-i", c.Path,
			"-map", fmt.Sprintf("0:%d", track.TrackID), "-c", "copy", out})
	}
	if err != nil {
		return state.TrackFile{}, err
	}
	return state.NewTrackFile(*track, out)
}

// AudioSelector picks which audio track(s) ExtractAudio demuxes: a
// specific track id, the container's default track, or every audio
// track.
type AudioSelector struct {
	All     bool
	Default bool
	TrackID int
}

// ExtractAudio demuxes the selected audio track(s).
func (e *Extractor) ExtractAudio(ctx context.Context, c *probe.ContainerInfo, sel AudioSelector) ([]state.TrackFile, error) {
	all := c.AudioTracks()
	var picked []state.TrackInfo
	switch {
	case sel.All:
		picked = all
	case sel.Default:
		for _, t := range all {
			if t.Default {
				picked = append(picked, t)
				break
			}
		}
		if len(picked) == 0 && len(all) > 0 {
			picked = all[:1]
		}
	default:
		if t := findTrack(all, sel.TrackID); t != nil {
			picked = append(picked, *t)
		}
	}
	if len(picked) == 0 {
		return nil, fmt.Errorf("extract audio: no matching track for selector %+v", sel)
	}

	out := make([]state.TrackFile, 0, len(picked))
	for _, t := range picked {
		path := filepath.Join(e.CacheDir, fmt.Sprintf("audio_%d%s", t.TrackID, state.TrackExtensionFor(t.Format)))
		var err error
		if isMatroska(c.Ext) {
			_, err = e.runMatroska(ctx, []string{"mkvextract", "tracks", c.Path,
				fmt.Sprintf("%d:%s", t.TrackID, path)})
		} else {
			_, err = e.runGeneric(ctx, []string{"ffmpeg", "-y", "-i", c.Path,
				"-map", fmt.Sprintf("0:%d", t.TrackID), "-c", "copy", path})
		}
		if err != nil {
			return nil, err
		}
		tf, err := state.NewTrackFile(t, path)
		if err != nil {
			return nil, err
		}
		out = append(out, tf)
	}
	return out, nil
}

// ExtractSubtitles demuxes every subtitle track in the container.
func (e *Extractor) ExtractSubtitles(ctx context.Context, c *probe.ContainerInfo) ([]state.TrackFile, error) {
	subs := c.SubtitleTracks()
	out := make([]state.TrackFile, 0, len(subs))
	for _, t := range subs {
		path := filepath.Join(e.CacheDir, fmt.Sprintf("subtitle_%d%s", t.TrackID, state.TrackExtensionFor(t.Format)))
		var err error
		if isMatroska(c.Ext) {
			_, err = e.runMatroska(ctx, []string{"mkvextract", "tracks", c.Path,
				fmt.Sprintf("%d:%s", t.TrackID, path)})
		} else {
			_, err = e.runGeneric(ctx, []string{"ffmpeg", "-y", "-i", c.Path,
				"-map", fmt.Sprintf("0:%d", t.TrackID), path})
		}
		if err != nil {
			return nil, err
		}
		tf, err := state.NewTrackFile(t, path)
		if err != nil {
			return nil, err
		}
		out = append(out, tf)
	}
	return out, nil
}

// ExtractChapters demuxes the chapter (menu) track, returning ok=false
// when the container carries none. ChapterMatroska yields Matroska XML;
// every other format value yields mkvextract's simple (OGM-style) text,
// so pot and tab output is not produced.
func (e *Extractor) ExtractChapters(ctx context.Context, c *probe.ContainerInfo, format state.ChapterFormat) (state.TrackFile, bool, error) {
	menu := c.MenuTrack()
	if menu == nil {
		return state.TrackFile{}, false, nil
	}
	path := filepath.Join(e.CacheDir, "chapters."+string(format))
	if !isMatroska(c.Ext) {
		return state.TrackFile{}, false, fmt.Errorf("extract chapters: only Matroska sources carry a chapters track")
	}
	argv := []string{"mkvextract", c.Path, "chapters"}
	if format != state.ChapterMatroska {
		argv = append(argv, "--simple")
	}
	if _, err := e.runMatroska(ctx, append(argv, path)); err != nil {
		return state.TrackFile{}, false, err
	}
	tf, err := state.NewTrackFile(*menu, path)
	if err != nil {
		return state.TrackFile{}, false, err
	}
	return tf, true, nil
}

// ExtractAttachments demuxes every attachment into CacheDir, returning
// their paths in container order.
func (e *Extractor) ExtractAttachments(ctx context.Context, c *probe.ContainerInfo) ([]string, error) {
	if len(c.AttachmentFilenames) == 0 {
		return nil, nil
	}
	if !isMatroska(c.Ext) {
		return nil, fmt.Errorf("extract attachments: only Matroska sources carry attachments")
	}
	argv := []string{"mkvextract", "attachments", c.Path}
	paths := make([]string, len(c.AttachmentFilenames))
	for i, name := range c.AttachmentFilenames {
		path := filepath.Join(e.CacheDir, fmt.Sprintf("attachment_%d_%s", i+1, name))
		paths[i] = path
		argv = append(argv, fmt.Sprintf("%d:%s", i+1, path))
	}
	if _, err := e.runMatroska(ctx, argv); err != nil {
		return nil, err
	}
	return paths, nil
}

// ExtractVideoTimecodes demuxes the Matroska timestamps v2 file for the
// primary video track, normalizing the legacy "timestamp format" header
// to the current "timecode format" (§4.4).
func (e *Extractor) ExtractVideoTimecodes(ctx context.Context, c *probe.ContainerInfo) (string, error) {
	if !isMatroska(c.Ext) {
		return "", fmt.Errorf("extract video timecodes: only Matroska sources carry timestamps")
	}
	track := c.PrimaryVideo()
	if track == nil {
		return "", fmt.Errorf("extract video timecodes: container has no video track")
	}
	path := filepath.Join(e.CacheDir, "timecodes_"+strconv.Itoa(track.TrackID)+".tc")
	if _, err := e.runMatroska(ctx, []string{"mkvextract", "timestamps_v2", c.Path,
		fmt.Sprintf("%d:%s", track.TrackID, path)}); err != nil {
		return "", err
	}
	if err := normalizeTimecodeHeader(path); err != nil {
		return "", err
	}
	return path, nil
}

// normalizeTimecodeHeader rewrites a legacy "# timestamp format vN" header
// line to "# timecode format vN" in place (§4.4).
func normalizeTimecodeHeader(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text := string(data)
	nl := strings.IndexByte(text, '\n')
	if nl < 0 {
		nl = len(text)
	}
	header := text[:nl]
	if strings.Contains(header, "timestamp format") {
		fixed := strings.Replace(header, "timestamp format", "timecode format", 1) + text[nl:]
		return os.WriteFile(path, []byte(fixed), 0o644)
	}
	return nil
}
