package videoencode

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"github.com/coilpress/muxctl/internal/state"
	"github.com/coilpress/muxctl/internal/template"
	"github.com/coilpress/muxctl/internal/toolrun"
)

// maxAnomalousRetries bounds how many times an encode that exits 0 but
// produced the wrong frame count is restarted before giving up (§4.7).
const maxAnomalousRetries = 2

// Request configures a single video encode run (§4.7).
type Request struct {
	Method     state.VideoTranscodingMethod
	InputPath  string
	OutputPath string

	// EncoderArgvTemplate's argv[0] names the encoder tool (x265, x264,
	// or an NVENC-capable ffmpeg build); its tokens carry {{...}}
	// placeholders substituted from the resolved environment below.
	EncoderArgvTemplate []string

	// Frame-server fields, used only for the frame_server_* methods.
	FrameServerExe            string
	FrameServerScriptTemplate string
	FrameServerScriptPath     string

	Source                  state.VideoAttrs
	OutputFrameRateMode     state.OutputFrameRateMode
	OutputFPS               string
	OutputSAR               string
	OutputDynamicRangeMode  state.OutputDynamicRangeMode
	OutputFullRange         bool
	HDR                     *state.HDR10Metadata
	TimecodePath            string
	FirstFrameIndex         int // -1 means "no trim"
	LastFrameIndex          int
}

// Result is the §4.7 return contract.
type Result struct {
	OutputPath     string
	AvgFPS         float64
	AvgBitrateKbps float64
	// Warnings carries non-fatal §4.7 color-range contradiction notices:
	// the user's argv already set the range flag to a value that
	// disagrees with OutputFullRange, so the user's flag was kept as-is.
	Warnings []string
}

// Progress is one parsed encoder progress line.
type Progress struct {
	EncodedFrames int
	TotalFrames   int
	FPS           float64
	BitrateKbps   float64
	ETA           string
	Size          string
	EstSize       string
	QP            float64
}

// ProgressHandler is invoked once per parsed progress line.
type ProgressHandler func(Progress)

// Encoder runs direct and frame-server-piped encodes.
type Encoder struct {
	Invoker *toolrun.Invoker
}

// New creates an Encoder.
func New(inv *toolrun.Invoker) *Encoder {
	return &Encoder{Invoker: inv}
}

// Encode runs req to completion, retrying on anomalous completion
// (§4.7), and returns the output path plus average fps/bitrate observed
// from the final successful attempt's progress stream.
func (e *Encoder) Encode(ctx context.Context, req Request, onProgress ProgressHandler) (Result, error) {
	env, colorRes, err := e.buildEnv(req)
	if err != nil {
		return Result{}, err
	}

	if req.Method == state.MethodFrameServerX264 && req.HDR != nil && !req.HDR.IsSDR() {
		return Result{}, fmt.Errorf("videoencode: AVC (x264) encoding rejects HDR input")
	}

	var last Progress
	var warnings []string
	var attempts int
	for {
		attempts++
		var mu sync.Mutex
		onLine := func(p Progress) {
			mu.Lock()
			last = p
			mu.Unlock()
			if onProgress != nil {
				onProgress(p)
			}
		}

		var runErr error
		var runWarnings []string
		switch req.Method {
		case state.MethodDirectNVENC:
			runWarnings, runErr = e.runDirect(ctx, req, env, colorRes, onLine)
		default:
			runWarnings, runErr = e.runFrameServerPiped(ctx, req, env, colorRes, onLine)
		}
		warnings = runWarnings
		if runErr != nil {
			return Result{}, runErr
		}

		if last.TotalFrames == 0 || last.EncodedFrames == last.TotalFrames {
			break
		}
		if attempts > maxAnomalousRetries {
			return Result{}, fmt.Errorf("videoencode: anomalous completion persisted after %d attempts (encoded %d of %d frames)",
				attempts, last.EncodedFrames, last.TotalFrames)
		}
	}

	return Result{OutputPath: req.OutputPath, AvgFPS: last.FPS, AvgBitrateKbps: last.BitrateKbps, Warnings: warnings}, nil
}

// colorResolution is the §4.7 color-matrix triple plus the output range
// flag, resolved once per request and reused both as template placeholder
// values and as the argv flags injectColorFlags appends.
type colorResolution struct {
	Matrix, Primaries, Transfer string
	FullRange                   bool
}

func (e *Encoder) buildEnv(req Request) (map[string]string, colorResolution, error) {
	outputFPS, err := ResolveOutputFPS(req.Source, req.OutputFrameRateMode, req.OutputFPS)
	if err != nil {
		return nil, colorResolution{}, err
	}
	sar, sarOK, err := ResolveSAR(req.Source, req.OutputSAR)
	if err != nil {
		return nil, colorResolution{}, err
	}

	hdr := req.HDR != nil && !req.HDR.IsSDR() && req.OutputDynamicRangeMode == state.DynamicRangePreserve
	matrix, primaries, transfer := ResolveColorTags(req.Source.Width, req.Source.Height, req.Source.BitDepth, hdr)
	colorRes := colorResolution{Matrix: matrix, Primaries: primaries, Transfer: transfer, FullRange: req.OutputFullRange}

	env := map[string]string{
		"input_filepath":          req.InputPath,
		"output_path":             req.OutputPath,
		"input_full_range_bool":   boolStr(req.Source.ColorRange == state.ColorRangeFull),
		"output_full_range_bool":  boolStr(req.OutputFullRange),
		"input_color_matrix":      req.Source.ColorMatrix,
		"input_color_primaries":   req.Source.ColorPrimaries,
		"input_transfer":          req.Source.Transfer,
		"fps_num":                 strconv.Itoa(req.Source.FrameRate.Num),
		"fps_den":                 strconv.Itoa(req.Source.FrameRate.Den),
		"output_fps_num":          strconv.Itoa(outputFPS.Num),
		"output_fps_den":          strconv.Itoa(outputFPS.Den),
		"vfr_bool":                boolStr(req.OutputFrameRateMode == state.OutputFrameRateVFR),
		"timecode_filepath":       req.TimecodePath,
		"input_video_width":       strconv.Itoa(req.Source.Width),
		"input_video_height":      strconv.Itoa(req.Source.Height),
		"2x_input_video_width":    strconv.Itoa(req.Source.Width * 2),
		"2x_input_video_height":   strconv.Itoa(req.Source.Height * 2),
		"4x_input_video_width":    strconv.Itoa(req.Source.Width * 4),
		"4x_input_video_height":   strconv.Itoa(req.Source.Height * 4),
		"first_frame_index":       strconv.Itoa(req.FirstFrameIndex),
		"last_frame_index":        strconv.Itoa(req.LastFrameIndex),
		"output_color_matrix":     matrix,
		"output_color_primaries":  primaries,
		"output_transfer":         transfer,
	}
	if sarOK {
		env["output_sar"] = fmt.Sprintf("%d:%d", sar.Num, sar.Den)
	}
	if hdr {
		masterDisplay, maxCLL := BuildHDR10Flags(primaries, *req.HDR)
		env["master_display"] = masterDisplay
		env["max_cll"] = maxCLL
	}
	return env, colorRes, nil
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// runDirect spawns the encoder (typically NVENC) directly on the
// container, with no frame server in between.
func (e *Encoder) runDirect(ctx context.Context, req Request, env map[string]string, colorRes colorResolution, onLine func(Progress)) ([]string, error) {
	argv, err := template.SubstituteList(req.EncoderArgvTemplate, env)
	if err != nil {
		return nil, fmt.Errorf("videoencode: %w", err)
	}
	argv, warnings := injectColorFlags(argv, req.Method, colorRes.FullRange, colorRes.Matrix, colorRes.Primaries, colorRes.Transfer)
	info := e.Invoker.Run(ctx, argv, toolrun.Options{
		Handlers: []toolrun.LineHandler{progressHandler(onLine)},
	})
	if info.Class == toolrun.ExitFail {
		return warnings, fmt.Errorf("videoencode: encoder failed: %w (stderr: %s)", info.Err, info.StderrTail)
	}
	return warnings, nil
}

// runFrameServerPiped renders the frame-server script, then spawns the
// frame-server process piped directly into the encoder's stdin. This
// bypasses ToolInvoker's single-process contract (C1) because the two
// processes must be connected by a live pipe, not run independently.
func (e *Encoder) runFrameServerPiped(ctx context.Context, req Request, env map[string]string, colorRes colorResolution, onLine func(Progress)) ([]string, error) {
	script, err := template.SubstituteText(req.FrameServerScriptTemplate, env)
	if err != nil {
		return nil, fmt.Errorf("videoencode: %w", err)
	}
	if err := os.WriteFile(req.FrameServerScriptPath, []byte(script), 0o644); err != nil {
		return nil, fmt.Errorf("videoencode: write frame server script: %w", err)
	}

	encoderArgv, err := template.SubstituteList(req.EncoderArgvTemplate, env)
	if err != nil {
		return nil, fmt.Errorf("videoencode: %w", err)
	}
	encoderArgv, warnings := injectColorFlags(encoderArgv, req.Method, colorRes.FullRange, colorRes.Matrix, colorRes.Primaries, colorRes.Transfer)

	fsPath, err := e.Invoker.Locate(req.FrameServerExe)
	if err != nil {
		return warnings, err
	}
	encPath, err := e.Invoker.Locate(encoderArgv[0])
	if err != nil {
		return warnings, err
	}

	fsCmd := exec.CommandContext(ctx, fsPath, req.FrameServerScriptPath, "-")
	encCmd := exec.CommandContext(ctx, encPath, encoderArgv[1:]...)

	fsOut, err := fsCmd.StdoutPipe()
	if err != nil {
		return warnings, err
	}
	encCmd.Stdin = fsOut

	encStderr, err := encCmd.StderrPipe()
	if err != nil {
		return warnings, err
	}

	if err := fsCmd.Start(); err != nil {
		return warnings, fmt.Errorf("videoencode: start frame server: %w", err)
	}
	if err := encCmd.Start(); err != nil {
		return warnings, fmt.Errorf("videoencode: start encoder: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(encStderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if p, ok := parseProgress(scanner.Text()); ok {
				onLine(p)
			}
		}
	}()

	wg.Wait()
	encErr := encCmd.Wait()
	fsErr := fsCmd.Wait()

	if encErr != nil {
		return warnings, fmt.Errorf("videoencode: encoder failed: %w", encErr)
	}
	if fsErr != nil {
		return warnings, fmt.Errorf("videoencode: frame server failed: %w", fsErr)
	}
	return warnings, nil
}

func progressHandler(onLine func(Progress)) toolrun.LineHandler {
	return func(stream toolrun.Stream, line string) {
		if stream != toolrun.Stderr {
			return
		}
		if p, ok := parseProgress(line); ok {
			onLine(p)
		}
	}
}
