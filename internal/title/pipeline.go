package title

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/coilpress/muxctl/internal/audiotranscode"
	"github.com/coilpress/muxctl/internal/display"
	"github.com/coilpress/muxctl/internal/extract"
	"github.com/coilpress/muxctl/internal/mux"
	"github.com/coilpress/muxctl/internal/probe"
	"github.com/coilpress/muxctl/internal/remux"
	"github.com/coilpress/muxctl/internal/segment"
	"github.com/coilpress/muxctl/internal/state"
	"github.com/coilpress/muxctl/internal/toolrun"
	"github.com/coilpress/muxctl/internal/videoencode"
)

// maxInputPathLength triggers the §4.9 path-length-shortening step.
const maxInputPathLength = 255

// unsupportedInputExts lists extensions whose containers are unreliable
// enough that they are remuxed once through the generic transcoder
// before being wrapped into MKV (§4.9 PRE_MUX).
var unsupportedInputExts = map[string]bool{".wmv": true}

// Pipeline holds the stateless, shareable component handles a title run
// is built from. Per-title state (cache directory, removal set) lives on
// the run, not here, so one Pipeline serves every title in a mission.
type Pipeline struct {
	Invoker         *toolrun.Invoker
	Prober          *probe.Prober
	Muxer           *mux.Muxer
	AudioTranscoder *audiotranscode.Transcoder
	VideoEncoder    *videoencode.Encoder
	Remuxer         *remux.Remuxer

	// Progress renders live bars for C7/C8 encodes. Nil disables progress
	// output entirely (e.g. non-interactive/log-only runs).
	Progress *display.TitleProgress
}

// New creates a Pipeline from its component dependencies.
func New(inv *toolrun.Invoker, prober *probe.Prober, muxer *mux.Muxer, at *audiotranscode.Transcoder, ve *videoencode.Encoder, rm *remux.Remuxer) *Pipeline {
	return &Pipeline{Invoker: inv, Prober: prober, Muxer: muxer, AudioTranscoder: at, VideoEncoder: ve, Remuxer: rm}
}

// progressHandler returns the ProgressHandler a video encode (single-shot
// or segmented shard) should pass to videoencode.Encoder, or nil when no
// renderer is attached.
func (p *Pipeline) progressHandler(label string) videoencode.ProgressHandler {
	if p.Progress == nil {
		return nil
	}
	return p.Progress.Handler(label)
}

// Request is one title's full configuration (§6 universal_config plus
// the per-title I/O paths MissionPlanner resolves before enqueueing).
type Request struct {
	InputPath      string
	CacheDir       string // owned exclusively by this run, §3 Lifecycle
	OutputDir      string
	OutputName     string
	ContainerTitle string
	Options        state.TitleOptions

	// GopFrameCnt is the segmented encoder's shard size; only consulted
	// when Options.Video.SegmentedTranscodeConfigList is non-empty.
	GopFrameCnt int
}

// Result is what one successful title run produced.
type Result struct {
	OutputPath string
}

// cleanupSet accumulates cache files produced along the way so CLEAN can
// remove exactly the remove-set and nothing else (§4.9 CLEAN, §3
// Lifecycle: outputs and logs are always kept).
type cleanupSet struct {
	mu    sync.Mutex
	paths []string
}

func (c *cleanupSet) add(paths ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, paths...)
}

func (c *cleanupSet) removeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.paths {
		if p != "" {
			os.Remove(p)
		}
	}
}

// Run drives req through the full state machine and returns the final
// output path.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	if err := os.MkdirAll(req.CacheDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("title: create cache dir %s: %w", req.CacheDir, err)
	}
	rm := &cleanupSet{}
	defer rm.removeAll()

	if err := shortenIfNeeded(&req, rm); err != nil {
		return Result{}, err
	}

	// --- PRE_MUX ---
	container, err := p.preMux(ctx, req, rm)
	if err != nil {
		return Result{}, fmt.Errorf("title: pre_mux: %w", err)
	}

	extractor := extract.New(p.Invoker, req.CacheDir)

	var subs []state.TrackFile
	var chapters string
	var hasChapters bool
	var attachments []string
	var video videoIOResult
	var audioTracks []state.TrackFile

	if req.Options.ThreadBool {
		// Fan-out: SUBS ∥ CHAPTERS ∥ ATTACH ∥ VIDEO_IO, with AUDIO behind
		// the barrier (§5).
		ioComplete := make(chan struct{})
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			subs, err = p.subs(gctx, extractor, container, req, rm)
			return err
		})
		g.Go(func() error {
			var err error
			chapters, hasChapters, err = p.chapters(gctx, extractor, container, req, rm)
			return err
		})
		g.Go(func() error {
			var err error
			attachments, err = p.attach(gctx, extractor, container, req)
			return err
		})
		g.Go(func() error {
			var err error
			video, err = p.videoIO(gctx, extractor, container, req, rm, ioComplete)
			return err
		})
		g.Go(func() error {
			// Barrier: observe io_complete before any audio demux begins
			// (§5 "audio must observe io_complete == true before any demux
			// begins"), even if video_io itself goes on to fail — a video
			// extraction failure still closes the channel so this goroutine
			// is never stuck.
			select {
			case <-ioComplete:
			case <-gctx.Done():
				return gctx.Err()
			}
			var err error
			audioTracks, err = p.audio(gctx, extractor, container, req, rm)
			return err
		})

		if err := g.Wait(); err != nil {
			return Result{}, fmt.Errorf("title: %w", err)
		}
	} else {
		// thread_bool = false: run every stage sequentially on the caller's
		// goroutine. The barrier is trivially satisfied since video_io has
		// already returned before audio starts.
		ioComplete := make(chan struct{})
		var err error
		if subs, err = p.subs(ctx, extractor, container, req, rm); err != nil {
			return Result{}, fmt.Errorf("title: %w", err)
		}
		if chapters, hasChapters, err = p.chapters(ctx, extractor, container, req, rm); err != nil {
			return Result{}, fmt.Errorf("title: %w", err)
		}
		if attachments, err = p.attach(ctx, extractor, container, req); err != nil {
			return Result{}, fmt.Errorf("title: %w", err)
		}
		if video, err = p.videoIO(ctx, extractor, container, req, rm, ioComplete); err != nil {
			return Result{}, fmt.Errorf("title: %w", err)
		}
		if audioTracks, err = p.audio(ctx, extractor, container, req, rm); err != nil {
			return Result{}, fmt.Errorf("title: %w", err)
		}
	}

	// --- MUX ---
	outputPath, err := p.muxTitle(ctx, req, video, audioTracks, subs, chapters, hasChapters, attachments, rm)
	if err != nil {
		return Result{}, fmt.Errorf("title: mux: %w", err)
	}

	return Result{OutputPath: outputPath}, nil
}

// shortenIfNeeded copies an overlong input path into the cache directory
// under a short name, scheduling the copy for cleanup (§4.9 Path-length
// shortening).
func shortenIfNeeded(req *Request, rm *cleanupSet) error {
	if len(req.InputPath) <= maxInputPathLength {
		return nil
	}
	short := filepath.Join(req.CacheDir, "input"+strings.ToLower(filepath.Ext(req.InputPath)))
	if err := copyFile(req.InputPath, short); err != nil {
		return fmt.Errorf("title: shorten input path: %w", err)
	}
	rm.add(short)
	req.InputPath = short
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// preMux implements §4.9 PRE_MUX: non-MKV inputs are wrapped into a cache
// MKV so every later demux goes through one container type; known-
// unsupported inputs take one extra remux hop first.
func (p *Pipeline) preMux(ctx context.Context, req Request, rm *cleanupSet) (*probe.ContainerInfo, error) {
	ext := strings.ToLower(filepath.Ext(req.InputPath))
	if ext == ".mkv" {
		return p.Prober.Probe(ctx, req.InputPath)
	}

	working := req.InputPath
	if unsupportedInputExts[ext] {
		stage1 := filepath.Join(req.CacheDir, "premux_stage1.mp4")
		if err := p.Remuxer.Remux(ctx, remux.Request{InputPath: working, OutputPath: stage1}); err != nil {
			return nil, fmt.Errorf("pre-mux stage1 remux: %w", err)
		}
		rm.add(stage1)
		working = stage1
	}

	premuxPath := filepath.Join(req.CacheDir, "premux.mkv")
	if err := p.Remuxer.Remux(ctx, remux.Request{InputPath: working, OutputPath: premuxPath}); err != nil {
		return nil, fmt.Errorf("pre-mux to mkv: %w", err)
	}
	rm.add(premuxPath)

	return p.Prober.Probe(ctx, premuxPath)
}

// segmentEncoderFor builds a segment.Encoder rooted at this title's own
// shard cache subdirectory, named by a content hash so two titles never
// collide (§4.8 step 4).
func (p *Pipeline) segmentEncoderFor(req Request, shardRange string) *segment.Encoder {
	dir := filepath.Join(req.CacheDir, "shards_"+state.HashedCacheDir(req.OutputName, shardRange))
	return &segment.Encoder{Invoker: p.Invoker, VideoEncoder: p.VideoEncoder, ShardDir: dir}
}
