// Package remux implements the §6 "Generic transcode" external tool
// contract: a codec-copy container remux, with an optional PCM bit-depth
// override for WAV outputs. It is used by the title pipeline both to
// pre-mux an unsupported input into MKV (§4.9 PRE_MUX) and to carry a
// first-pass MKV with VFR timestamps into a final MP4 (§4.9 MUX).
//
// Grounded on the teacher's internal/ffmpeg package: the stderr
// classification regexes and retry-one-fix-per-attempt loop are lifted
// from errors.go/retry.go almost verbatim, narrowed to the subset of
// fixes that apply to a codec-copy remux (mux queue size, timestamp
// discontinuities) rather than the teacher's full encode-path retry set.
package remux

import (
	"bytes"
	"context"
	"fmt"
	"regexp"

	"github.com/coilpress/muxctl/internal/toolrun"
)

// Request is one remux call's configuration.
type Request struct {
	InputPath  string
	OutputPath string

	// WavPCMDepth, when non-zero, selects the output as a WAV container
	// with this PCM bit depth instead of a straight codec-copy remux
	// (§6 "wav pcm depth override").
	WavPCMDepth int
}

// Remuxer runs codec-copy remuxes through ToolInvoker, retrying the
// fixable subset of ffmpeg failures.
type Remuxer struct {
	Invoker *toolrun.Invoker
}

// New creates a Remuxer.
func New(inv *toolrun.Invoker) *Remuxer {
	return &Remuxer{Invoker: inv}
}

func wavCodecFor(bitDepth int) string {
	if bitDepth <= 16 {
		return "pcm_s16le"
	}
	return fmt.Sprintf("pcm_s%dle", bitDepth)
}

func buildArgv(req Request, muxQueueSize int, timestampFix bool) []string {
	argv := []string{"ffmpeg", "-hide_banner", "-nostdin", "-y"}
	if timestampFix {
		argv = append(argv, "-fflags", "+genpts+discardcorrupt")
	}
	argv = append(argv, "-i", req.InputPath)

	if req.WavPCMDepth > 0 {
		argv = append(argv, "-vn", "-c:a", wavCodecFor(req.WavPCMDepth))
	} else {
		argv = append(argv, "-map", "0", "-c", "copy", "-map_metadata", "0", "-map_chapters", "0")
	}

	argv = append(argv, "-max_muxing_queue_size", fmt.Sprintf("%d", muxQueueSize))
	if timestampFix {
		argv = append(argv, "-avoid_negative_ts", "make_zero")
	}
	argv = append(argv, req.OutputPath)
	return argv
}

var (
	reMuxQueueOverflow = regexp.MustCompile(`Too many packets buffered for output stream`)
	reTimestampIssue   = regexp.MustCompile(`(?i)Non-monotonous DTS|non monotonically increasing dts|` +
		`invalid, non monotonically increasing dts|DTS .*out of order|PTS .*out of order|` +
		`pts has no value|missing PTS|Timestamps are unset`)
)

const (
	maxAttempts      = 3
	muxQueueDefault  = 4096
	muxQueueEscalate = 16384
)

// Remux runs the generic transcoder, retrying once on a mux-queue
// overflow (raises max_muxing_queue_size) and once on a timestamp
// discontinuity (enables genpts+discardcorrupt), matching the teacher's
// one-fix-per-attempt cadence.
func (r *Remuxer) Remux(ctx context.Context, req Request) error {
	muxQueueSize := muxQueueDefault
	timestampFix := false

	for attempt := 0; attempt < maxAttempts; attempt++ {
		argv := buildArgv(req, muxQueueSize, timestampFix)
		var stderr bytes.Buffer
		info := r.Invoker.Run(ctx, argv, toolrun.Options{Handlers: []toolrun.LineHandler{
			func(stream toolrun.Stream, line string) {
				if stream == toolrun.Stderr {
					stderr.WriteString(line)
					stderr.WriteByte('\n')
				}
			},
		}})
		if info.Class != toolrun.ExitFail {
			return nil
		}

		text := stderr.String()
		switch {
		case muxQueueSize < muxQueueEscalate && reMuxQueueOverflow.MatchString(text):
			muxQueueSize = muxQueueEscalate
			continue
		case !timestampFix && reTimestampIssue.MatchString(text):
			timestampFix = true
			continue
		default:
			return fmt.Errorf("remux: generic transcode failed: %w (stderr: %s)", info.Err, info.StderrTail)
		}
	}
	return fmt.Errorf("remux: generic transcode failed after %d attempts", maxAttempts)
}
