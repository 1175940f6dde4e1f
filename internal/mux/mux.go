package mux

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/coilpress/muxctl/internal/probe"
	"github.com/coilpress/muxctl/internal/state"
	"github.com/coilpress/muxctl/internal/toolrun"
)

// validMarkSuffix is appended to the output basename once a mux succeeds
// (§4.5 add_valid_mark).
const validMarkSuffix = ".done"

// TrackInput describes one track contributed to a mux (§4.5). TrackID of
// -1 means "all default tracks of this file"; anything below -1 is an
// error. TrackType, when empty, is resolved by re-probing Path.
type TrackInput struct {
	Path          string
	TrackID       int
	TrackType     state.TrackType
	DelayMs       int64
	TrackName     string
	Language      string
	TimestampPath string // set only for VFR tracks
}

// Request is a single mux call's full input (§4.5).
type Request struct {
	Tracks       []TrackInput
	OutputDir    string
	Name         string
	Kind         state.PackageFormat
	Title        string
	Chapters     string
	Attachments  []string
	AddValidMark bool
}

// Muxer combines track inputs into a single output container.
type Muxer struct {
	Invoker *toolrun.Invoker
	Prober  *probe.Prober
}

// New creates a Muxer.
func New(inv *toolrun.Invoker, prober *probe.Prober) *Muxer {
	return &Muxer{Invoker: inv, Prober: prober}
}

// Mux produces the final output and returns its path.
func (m *Muxer) Mux(ctx context.Context, req Request) (string, error) {
	for _, t := range req.Tracks {
		if t.TrackID < -1 {
			return "", fmt.Errorf("mux: track_id %d < -1 is invalid for %s", t.TrackID, t.Path)
		}
	}
	if err := m.resolveMissingTrackTypes(ctx, req.Tracks); err != nil {
		return "", err
	}

	switch req.Kind {
	case state.PackageMKV:
		return m.muxMKV(ctx, req)
	case state.PackageMP4:
		return m.muxMP4(ctx, req)
	default:
		return "", fmt.Errorf("mux: unknown package format %q", req.Kind)
	}
}

func (m *Muxer) resolveMissingTrackTypes(ctx context.Context, tracks []TrackInput) error {
	for i := range tracks {
		if tracks[i].TrackType != "" {
			continue
		}
		if m.Prober == nil {
			return fmt.Errorf("mux: track_type missing for %s and no prober available to resolve it", tracks[i].Path)
		}
		c, err := m.Prober.Probe(ctx, tracks[i].Path)
		if err != nil {
			return fmt.Errorf("mux: resolve track_type for %s: %w", tracks[i].Path, err)
		}
		if v := c.PrimaryVideo(); v != nil {
			tracks[i].TrackType = state.TrackVideo
			continue
		}
		if len(c.Tracks) > 0 {
			tracks[i].TrackType = c.Tracks[0].Kind
		}
	}
	return nil
}

type fileGroup struct {
	path   string
	tracks []TrackInput
}

func groupByPath(tracks []TrackInput) []fileGroup {
	order := make([]string, 0, len(tracks))
	byPath := map[string][]TrackInput{}
	for _, t := range tracks {
		if _, ok := byPath[t.Path]; !ok {
			order = append(order, t.Path)
		}
		byPath[t.Path] = append(byPath[t.Path], t)
	}
	groups := make([]fileGroup, 0, len(order))
	for _, p := range order {
		groups = append(groups, fileGroup{path: p, tracks: byPath[p]})
	}
	return groups
}

func (m *Muxer) outputPath(req Request, ext string) string {
	return filepath.Join(req.OutputDir, req.Name+ext)
}

func (m *Muxer) muxMKV(ctx context.Context, req Request) (string, error) {
	out := m.outputPath(req, ".mkv")
	argv := []string{"mkvmerge", "-o", out}
	if req.Title != "" {
		argv = append(argv, "--title", req.Title)
	}

	for _, g := range groupByPath(req.Tracks) {
		argv = append(argv, mkvTrackSelectFlags(g.tracks)...)
		for _, t := range g.tracks {
			if t.TrackID < 0 {
				continue
			}
			if t.DelayMs != 0 {
				argv = append(argv, "--sync", fmt.Sprintf("%d:%d", t.TrackID, t.DelayMs))
			}
			if t.TrackName != "" {
				argv = append(argv, "--track-name", fmt.Sprintf("%d:%s", t.TrackID, t.TrackName))
			}
			if t.Language != "" {
				argv = append(argv, "--language", fmt.Sprintf("%d:%s", t.TrackID, t.Language))
			}
			if t.TimestampPath != "" {
				argv = append(argv, "--timestamps", fmt.Sprintf("%d:%s", t.TrackID, t.TimestampPath))
			}
		}
		argv = append(argv, g.path)
	}

	if req.Chapters != "" {
		argv = append(argv, "--chapters", req.Chapters)
	}
	for _, a := range req.Attachments {
		argv = append(argv, "--attach-file", a)
	}

	info := m.Invoker.Run(ctx, argv, toolrun.Options{ToolRole: "mkvmerge"})
	if info.Class == toolrun.ExitFail {
		return "", fmt.Errorf("mkvmerge mux failed: %w (stderr: %s)", info.Err, info.StderrTail)
	}
	return m.finish(out, req.AddValidMark)
}

// mkvTrackSelectFlags emits --audio-tracks/--video-tracks/--subtitle-tracks
// for a single source file, one flag per kind present with an explicit
// (non-sentinel) track id. A file contributing only sentinel (-1, "all
// default tracks") entries gets no select flags at all.
func mkvTrackSelectFlags(tracks []TrackInput) []string {
	byKind := map[state.TrackType][]string{}
	for _, t := range tracks {
		if t.TrackID < 0 {
			continue
		}
		byKind[t.TrackType] = append(byKind[t.TrackType], strconv.Itoa(t.TrackID))
	}
	var out []string
	if ids, ok := byKind[state.TrackVideo]; ok {
		out = append(out, "--video-tracks", joinComma(ids))
	}
	if ids, ok := byKind[state.TrackAudio]; ok {
		out = append(out, "--audio-tracks", joinComma(ids))
	}
	if ids, ok := byKind[state.TrackSubtitle]; ok {
		out = append(out, "--subtitle-tracks", joinComma(ids))
	}
	return out
}

func joinComma(ids []string) string {
	s := ids[0]
	for _, id := range ids[1:] {
		s += "," + id
	}
	return s
}

func (m *Muxer) muxMP4(ctx context.Context, req Request) (string, error) {
	for _, t := range req.Tracks {
		if t.TrackType == state.TrackSubtitle {
			return "", fmt.Errorf("mux: subtitles may not appear in MP4 outputs (%s)", t.Path)
		}
	}
	out := m.outputPath(req, ".mp4")
	argv := []string{"mp4box"}
	for _, t := range req.Tracks {
		spec := t.Path
		var opts []string
		if t.TrackID >= 0 {
			spec += fmt.Sprintf("#trackID=%d", t.TrackID)
		}
		if t.TrackName != "" {
			opts = append(opts, "name="+t.TrackName)
		}
		if t.DelayMs != 0 {
			opts = append(opts, fmt.Sprintf("delay=%d", t.DelayMs))
		}
		if t.Language != "" {
			opts = append(opts, "lang="+t.Language)
		}
		for _, o := range opts {
			spec += ":" + o
		}
		argv = append(argv, "-add", spec)
	}
	if req.Chapters != "" {
		argv = append(argv, "-chap", req.Chapters)
	}
	argv = append(argv, "-new", out)

	info := m.Invoker.Run(ctx, argv, toolrun.Options{ToolRole: "mp4box"})
	if info.Class == toolrun.ExitFail {
		return "", fmt.Errorf("mp4box mux failed: %w (stderr: %s)", info.Err, info.StderrTail)
	}
	return m.finish(out, req.AddValidMark)
}

// finish applies add_valid_mark: any existing non-marked file at the
// marked path is removed first so a half-finished previous run can never
// masquerade as complete, then out is renamed to carry the mark (§4.5).
func (m *Muxer) finish(out string, addValidMark bool) (string, error) {
	if !addValidMark {
		return out, nil
	}
	marked := out + validMarkSuffix
	if _, err := os.Stat(marked); err == nil {
		if err := os.Remove(marked); err != nil {
			return "", fmt.Errorf("mux: remove stale marked output %s: %w", marked, err)
		}
	}
	if err := os.Rename(out, marked); err != nil {
		return "", fmt.Errorf("mux: apply valid mark to %s: %w", out, err)
	}
	return marked, nil
}
