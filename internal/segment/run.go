package segment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/coilpress/muxctl/internal/state"
	"github.com/coilpress/muxctl/internal/toolrun"
	"github.com/coilpress/muxctl/internal/videoencode"
)

// StitcherTool is the external GOP-muxer role name, invoked as
// "<tool> <shard1> <shard2> … <out>" (§6 external tool contracts).
const StitcherTool = "gopmux"

// RequestBuilder renders a shard's videoencode.Request, including its
// OutputPath (which must live under the Encoder's ShardDir so status and
// output stay together).
type RequestBuilder func(shard state.Shard) videoencode.Request

// ShardProgressHandler is invoked once per parsed progress line for the
// shard currently encoding.
type ShardProgressHandler func(shardID string, p videoencode.Progress)

// Encoder drives one title's segmented video encode end to end: resume,
// sequential per-shard encode, stitch, cleanup (§4.8).
type Encoder struct {
	Invoker      *toolrun.Invoker
	VideoEncoder *videoencode.Encoder

	// ShardDir holds shard output files and the status.json for this
	// title's segmented encode. Callers derive it via
	// state.HashedCacheDir(titleName, shardRange) per §4.8 step 4.
	ShardDir string
}

func (e *Encoder) statusPath() string {
	return filepath.Join(e.ShardDir, "status.json")
}

// Run encodes every not-yet-done shard of plan sequentially (§5: shards
// are never encoded concurrently), persisting status after each success,
// then stitches the finished shards into outputPath via the GOP-muxer
// tool and deletes the intermediate shard files.
func (e *Encoder) Run(ctx context.Context, plan *state.SegmentationPlan, gopFrameCnt int, build RequestBuilder, outputPath string, onProgress ShardProgressHandler) (string, error) {
	if err := os.MkdirAll(e.ShardDir, 0o755); err != nil {
		return "", fmt.Errorf("segment: create shard dir %s: %w", e.ShardDir, err)
	}

	status, err := LoadStatus(e.statusPath(), gopFrameCnt)
	if err != nil {
		return "", err
	}

	for _, shard := range plan.Shards {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if status.Done(shard.ID) {
			continue
		}

		req := build(shard)
		var handler videoencode.ProgressHandler
		if onProgress != nil {
			handler = func(p videoencode.Progress) { onProgress(shard.ID, p) }
		}
		if _, err := e.VideoEncoder.Encode(ctx, req, handler); err != nil {
			return "", fmt.Errorf("segment: shard %s: %w", shard.ID, err)
		}

		status.MarkDone(shard.ID, req.OutputPath)
		if err := SaveStatus(e.statusPath(), status); err != nil {
			return "", fmt.Errorf("segment: shard %s succeeded but status save failed: %w", shard.ID, err)
		}
	}

	shardPaths := make([]string, len(plan.Shards))
	for i, shard := range plan.Shards {
		path, ok := status.GopFilepathDict[shard.ID]
		if !ok {
			return "", fmt.Errorf("segment: shard %s has no recorded output path after encode pass", shard.ID)
		}
		shardPaths[i] = path
	}

	if err := e.stitch(ctx, shardPaths, outputPath); err != nil {
		return "", err
	}

	for _, p := range shardPaths {
		os.Remove(p)
	}
	return outputPath, nil
}

// stitch invokes the GOP-muxer tool with the ordered shard file list,
// producing one contiguous elementary stream at outputPath (§4.8 step 6).
func (e *Encoder) stitch(ctx context.Context, shardPaths []string, outputPath string) error {
	argv := append([]string{StitcherTool}, shardPaths...)
	argv = append(argv, outputPath)
	info := e.Invoker.Run(ctx, argv, toolrun.Options{})
	if info.Class == toolrun.ExitFail {
		return fmt.Errorf("segment: gop stitch failed: %w (stderr: %s)", info.Err, info.StderrTail)
	}
	return nil
}
