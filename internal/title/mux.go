package title

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/coilpress/muxctl/internal/mux"
	"github.com/coilpress/muxctl/internal/remux"
	"github.com/coilpress/muxctl/internal/state"
)

// muxTitle implements §4.9 MUX: assemble with C5 in the order video,
// audios (prior-ordered), subtitles (prior-ordered) (§5 ordering
// guarantee). MP4 with a VFR video track takes the first-pass-MKV route:
// mux into a cache MKV to carry timestamps, then re-mux that into the
// final MP4 with the generic transcoder.
func (p *Pipeline) muxTitle(ctx context.Context, req Request, video videoIOResult, audioTracks, subs []state.TrackFile, chapters string, hasChapters bool, attachments []string, rm *cleanupSet) (string, error) {
	videoInput := mux.TrackInput{
		Path:          video.Track.Filepath,
		TrackID:       referenceTrackID(video.Track, req),
		TrackType:     state.TrackVideo,
		TimestampPath: video.TimecodePath,
	}

	var audioInputs []mux.TrackInput
	for _, tf := range audioTracks {
		audioInputs = append(audioInputs, mux.TrackInput{
			Path: tf.Filepath, TrackID: -1, TrackType: state.TrackAudio,
			DelayMs: tf.Info.DelayMs, Language: tf.Info.Language, TrackName: tf.Info.Title,
		})
	}

	isVFRMP4 := req.Options.PackageFormat == state.PackageMP4 && video.TimecodePath != ""
	if isVFRMP4 {
		return p.muxVFRToMP4(ctx, req, videoInput, audioInputs, chapters, hasChapters, attachments, rm)
	}

	tracks := append([]mux.TrackInput{videoInput}, audioInputs...)
	if req.Options.PackageFormat == state.PackageMKV {
		for _, tf := range subs {
			tracks = append(tracks, mux.TrackInput{
				Path: tf.Filepath, TrackID: -1, TrackType: state.TrackSubtitle,
				Language: tf.Info.Language, TrackName: tf.Info.Title,
			})
		}
	}

	chapterPath := ""
	if hasChapters {
		chapterPath = chapters
	}
	return p.Muxer.Mux(ctx, mux.Request{
		Tracks:       tracks,
		OutputDir:    req.OutputDir,
		Name:         req.OutputName,
		Kind:         req.Options.PackageFormat,
		Title:        req.ContainerTitle,
		Chapters:     chapterPath,
		Attachments:  attachments,
		AddValidMark: true,
	})
}

// muxVFRToMP4 runs the two-hop route: MKV carrying timestamps, then a
// codec-copy remux into the final MP4 (§4.9 MUX, §4.5 MP4 mux contract).
func (p *Pipeline) muxVFRToMP4(ctx context.Context, req Request, videoInput mux.TrackInput, audioInputs []mux.TrackInput, chapters string, hasChapters bool, attachments []string, rm *cleanupSet) (string, error) {
	chapterPath := ""
	if hasChapters {
		chapterPath = chapters
	}
	intermediate, err := p.Muxer.Mux(ctx, mux.Request{
		Tracks:       append([]mux.TrackInput{videoInput}, audioInputs...),
		OutputDir:    req.CacheDir,
		Name:         "premux_final",
		Kind:         state.PackageMKV,
		Title:        req.ContainerTitle,
		Chapters:     chapterPath,
		Attachments:  attachments,
		AddValidMark: false,
	})
	if err != nil {
		return "", fmt.Errorf("mux: first-pass mkv: %w", err)
	}
	rm.add(intermediate)

	out := filepath.Join(req.OutputDir, req.OutputName+".mp4")
	if err := p.Remuxer.Remux(ctx, remux.Request{InputPath: intermediate, OutputPath: out}); err != nil {
		return "", fmt.Errorf("mux: mp4 remux: %w", err)
	}
	return out, nil
}

// referenceTrackID returns the in-container track id when the video
// track was bound in place (MKV, copy), or -1 (all default tracks) for
// every standalone extracted/encoded elementary file.
func referenceTrackID(tf state.TrackFile, req Request) int {
	if req.Options.Video.ProcessOption == state.ProcessCopy && req.Options.PackageFormat == state.PackageMKV {
		return tf.Info.TrackID
	}
	return -1
}
