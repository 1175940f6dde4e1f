package title

import (
	"context"
	"fmt"

	"github.com/coilpress/muxctl/internal/extract"
	"github.com/coilpress/muxctl/internal/probe"
	"github.com/coilpress/muxctl/internal/state"
)

// subs implements §4.9 SUBS: internal tracks are optionally copied,
// external subtitle files are expanded per their track_index_list (or
// treated as a single track when the list is empty), and both sets are
// ordered by subtitle_prior_option.
func (p *Pipeline) subs(ctx context.Context, ex *extract.Extractor, c *probe.ContainerInfo, req Request, rm *cleanupSet) ([]state.TrackFile, error) {
	cfg := req.Options.Subtitle
	if cfg.ProcessOption == state.ProcessSkip {
		return nil, nil
	}

	var internal []state.TrackFile
	if cfg.ProcessOption == state.ProcessCopy {
		var err error
		internal, err = ex.ExtractSubtitles(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("subs: extract internal: %w", err)
		}
		for _, tf := range internal {
			rm.add(tf.Filepath)
		}
	}

	var external []state.TrackFile
	for _, ef := range cfg.ExternalFiles {
		tracks, err := externalCompanionTracks(ctx, p.Prober, ef, state.TrackSubtitle)
		if err != nil {
			return nil, fmt.Errorf("subs: external %s: %w", ef.Path, err)
		}
		external = append(external, tracks...)
	}

	if cfg.Prior == state.PriorExternal {
		internal, external = external, internal
	}
	merged := append(append([]state.TrackFile{}, internal...), external...)
	if len(cfg.TrackOrder) > 0 {
		merged = state.Resort(merged, cfg.TrackOrder)
	}
	return merged, nil
}

// chapters implements §4.9 CHAPTERS: a configured external chapter file
// is handed to the muxer as-is, without any format conversion; otherwise
// chapters are extracted from the container directly in the target
// format selected by the output package format (Matroska XML for MKV,
// OGM text for MP4).
func (p *Pipeline) chapters(ctx context.Context, ex *extract.Extractor, c *probe.ContainerInfo, req Request, rm *cleanupSet) (string, bool, error) {
	cfg := req.Options.Chapter
	if cfg.ProcessOption == state.ProcessSkip {
		return "", false, nil
	}

	format := state.ChapterOGM
	if req.Options.PackageFormat == state.PackageMKV {
		format = state.ChapterMatroska
	}

	if cfg.ExternalFile != "" {
		return cfg.ExternalFile, true, nil
	}

	tf, ok, err := ex.ExtractChapters(ctx, c, format)
	if err != nil {
		return "", false, fmt.Errorf("chapters: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	rm.add(tf.Filepath)
	return tf.Filepath, true, nil
}

// attach implements §4.9 ATTACH: attachments extracted from the source
// container, unioned with any externally configured attachment files.
func (p *Pipeline) attach(ctx context.Context, ex *extract.Extractor, c *probe.ContainerInfo, req Request) ([]string, error) {
	cfg := req.Options.Attachment
	if !cfg.Include {
		return nil, nil
	}

	paths, err := ex.ExtractAttachments(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	return append(paths, cfg.ExternalFiles...), nil
}

// externalCompanionTracks binds an ExternalCompanionFile to one or more
// TrackFiles: when TrackIndexList is empty the whole file is treated as
// a single track of kind; otherwise the file is itself probed and the
// listed internal tracks are selected.
func externalCompanionTracks(ctx context.Context, prober *probe.Prober, ef state.ExternalCompanionFile, kind state.TrackType) ([]state.TrackFile, error) {
	if len(ef.TrackIndexList) == 0 {
		info := state.TrackInfo{Kind: kind, Language: ef.Language}
		tf, err := state.NewTrackFile(info, ef.Path)
		if err != nil {
			return nil, err
		}
		return []state.TrackFile{tf}, nil
	}

	c, err := prober.Probe(ctx, ef.Path)
	if err != nil {
		return nil, fmt.Errorf("probe external companion %s: %w", ef.Path, err)
	}
	var out []state.TrackFile
	for _, idx := range ef.TrackIndexList {
		for _, t := range c.Tracks {
			if t.TrackID == idx {
				if ef.Language != "" {
					t.Language = ef.Language
				}
				tf, err := state.NewTrackFile(t, ef.Path)
				if err != nil {
					return nil, err
				}
				out = append(out, tf)
			}
		}
	}
	return out, nil
}
