package title

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/coilpress/muxctl/internal/audiotranscode"
	"github.com/coilpress/muxctl/internal/extract"
	"github.com/coilpress/muxctl/internal/probe"
	"github.com/coilpress/muxctl/internal/state"
)

// audio implements §4.9 AUDIO: demux internal and external audio
// (already gated on the §5 barrier by the caller), optionally re-encode
// each side per its own process option, apply per-track delay deltas,
// and order the merged result by audio_prior_option.
func (p *Pipeline) audio(ctx context.Context, ex *extract.Extractor, c *probe.ContainerInfo, req Request, rm *cleanupSet) ([]state.TrackFile, error) {
	cfg := req.Options.Audio

	var internal []state.TrackFile
	if cfg.InternalProcessOption != state.ProcessSkip {
		tracks, err := ex.ExtractAudio(ctx, c, extract.AudioSelector{All: true})
		if err != nil {
			return nil, fmt.Errorf("audio: extract internal: %w", err)
		}
		for _, tf := range tracks {
			rm.add(tf.Filepath)
		}
		if cfg.InternalProcessOption == state.ProcessTranscode {
			tracks, err = p.reencodeAll(ctx, tracks, cfg, cfg.InternalArgvTemplate, req.CacheDir, rm)
			if err != nil {
				return nil, fmt.Errorf("audio: transcode internal: %w", err)
			}
		}
		internal = applyDelayDeltas(tracks, cfg.DelayDeltaMs)
	}

	var external []state.TrackFile
	for _, ef := range cfg.ExternalFiles {
		tracks, err := externalCompanionTracks(ctx, p.Prober, ef, state.TrackAudio)
		if err != nil {
			return nil, fmt.Errorf("audio: external %s: %w", ef.Path, err)
		}
		if cfg.ExternalProcessOption == state.ProcessTranscode {
			tracks, err = p.reencodeAll(ctx, tracks, cfg, cfg.ExternalArgvTemplate, req.CacheDir, rm)
			if err != nil {
				return nil, fmt.Errorf("audio: transcode external %s: %w", ef.Path, err)
			}
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

// reencodeAll re-encodes every track through the audio transcoder,
// dispatching to the C6 method named by cfg.Codec (§4.6). argvTemplate is
// the resolved audio_transcoding_cmd_param_template preset for whichever
// side (internal/external) called this; cfg.EncoderExe/DecoderExe resolve
// the {{encoder_exe}}/{{decoder_exe}} placeholders every codec template
// reserves.
func (p *Pipeline) reencodeAll(ctx context.Context, tracks []state.TrackFile, cfg state.AudioRelatedConfig, argvTemplate []string, cacheDir string, rm *cleanupSet) ([]state.TrackFile, error) {
	if len(argvTemplate) == 0 {
		return tracks, nil
	}
	out := make([]state.TrackFile, len(tracks))
	for i, tf := range tracks {
		outPath := filepath.Join(cacheDir, fmt.Sprintf("audio_reencoded_%d.out", tf.Info.TrackID))
		bitDepth := 16
		if tf.Info.Audio != nil && tf.Info.Audio.BitDepth > 0 {
			bitDepth = tf.Info.Audio.BitDepth
		}
		req := audiotranscode.Request{
			ArgvTemplate: argvTemplate,
			EncoderExe:   cfg.EncoderExe,
			DecoderExe:   cfg.DecoderExe,
			InputPath:    tf.Filepath,
			OutputPath:   outPath,
			BitDepth:     bitDepth,
		}
		var err error
		switch cfg.Codec {
		case state.AudioCodecOpus:
			err = p.AudioTranscoder.ToOpus(ctx, req, nil)
		case state.AudioCodecFLAC:
			err = p.AudioTranscoder.ToFlac(ctx, req)
		case state.AudioCodecPassthrough:
			err = p.AudioTranscoder.PassthroughConvert(ctx, req)
		default:
			err = p.AudioTranscoder.ToAac(ctx, req)
		}
		if err != nil {
			return nil, err
		}
		rm.add(outPath)
		newTF, err := state.NewTrackFile(tf.Info, outPath)
		if err != nil {
			return nil, err
		}
		out[i] = newTF
	}
	return out, nil
}

// applyDelayDeltas adds the configured per-track-index delay delta to the
// probed delay (§4.9 AUDIO).
func applyDelayDeltas(tracks []state.TrackFile, deltas map[int]int64) []state.TrackFile {
	if len(deltas) == 0 {
		return tracks
	}
	for i := range tracks {
		if d, ok := deltas[tracks[i].Info.TrackID]; ok {
			tracks[i].Info.DelayMs += d
		}
	}
	return tracks
}
