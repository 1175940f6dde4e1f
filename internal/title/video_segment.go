package title

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/coilpress/muxctl/internal/segment"
	"github.com/coilpress/muxctl/internal/state"
	"github.com/coilpress/muxctl/internal/videoencode"
)

// segmentedEncode drives C8 instead of a single-shot C7 call when the
// title's video configuration carries a non-empty
// segmented_transcode_config_list (§4.9 VIDEO_IO).
func (p *Pipeline) segmentedEncode(ctx context.Context, req Request, vo state.VideoRelatedConfig, track *state.TrackInfo, base videoencode.Request) (videoencode.Result, error) {
	if req.GopFrameCnt <= 0 {
		return videoencode.Result{}, fmt.Errorf("segmented encode: gop_frame_cnt must be configured")
	}
	if track.Video == nil || track.Video.FrameCount <= 0 {
		return videoencode.Result{}, fmt.Errorf("segmented encode: source frame count unknown")
	}

	cfg := segment.Config{
		First:       0,
		Last:        track.Video.FrameCount - 1,
		Intervals:   vo.SegmentedTranscodeConfigList,
		GopFrameCnt: req.GopFrameCnt,
		Default: state.SegmentConfigInterval{
			EncoderTemplate:     vo.EncoderTemplate,
			FrameServerTemplate: vo.FrameServerTemplate,
		},
	}
	plan, err := segment.BuildPlan(cfg)
	if err != nil {
		return videoencode.Result{}, fmt.Errorf("segmented encode: %w", err)
	}

	shardRange := fmt.Sprintf("%d_%d", cfg.First, cfg.Last)
	enc := p.segmentEncoderFor(req, shardRange)

	build := func(shard state.Shard) videoencode.Request {
		r := base
		r.EncoderArgvTemplate = shard.EncoderTemplate
		r.FrameServerScriptTemplate = shard.FrameServerTemplate
		// Each shard gets its own frame-server script file, not a shared
		// one overwritten per shard: §4.8 step 7 preserves frame-server
		// scripts across the final cleanup pass, alongside shard logs.
		r.FrameServerScriptPath = filepath.Join(enc.ShardDir, shard.ID+".script")
		r.FirstFrameIndex = shard.FirstFrame
		r.LastFrameIndex = shard.LastFrame
		r.OutputPath = filepath.Join(enc.ShardDir, shard.ID+state.TrackExtensionFor(track.Format))
		return r
	}

	var onProgress segment.ShardProgressHandler
	if p.Progress != nil {
		onProgress = func(shardID string, pr videoencode.Progress) {
			p.Progress.Handler(req.ContainerTitle + " [" + shardID + "]")(pr)
		}
	}
	outPath, err := enc.Run(ctx, plan, req.GopFrameCnt, build, base.OutputPath, onProgress)
	if err != nil {
		return videoencode.Result{}, fmt.Errorf("segmented encode: %w", err)
	}
	return videoencode.Result{OutputPath: outPath}, nil
}
