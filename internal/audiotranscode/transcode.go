package audiotranscode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/coilpress/muxctl/internal/template"
	"github.com/coilpress/muxctl/internal/toolrun"
)

// Request is one codec run's full configuration (§4.6). ArgvTemplate
// tokens may reference {{encoder_exe}}, {{decoder_exe}},
// {{input_audio_path}}, {{output_path}}, and {{ffmpeg_wav_audio_codec}}.
type Request struct {
	ArgvTemplate []string
	EncoderExe   string
	DecoderExe   string
	InputPath    string
	OutputPath   string
	BitDepth     int // source PCM bit depth, for the intermediate wav codec
	DeleteInput  bool
}

// Progress is one parsed line of Opus encode progress.
type Progress struct {
	Percent     float64
	Time        string
	BitrateKbps float64
}

// ProgressHandler is invoked once per parsed progress line.
type ProgressHandler func(Progress)

// Transcoder runs audio codec conversions through ToolInvoker.
type Transcoder struct {
	Invoker *toolrun.Invoker
}

// New creates a Transcoder.
func New(inv *toolrun.Invoker) *Transcoder {
	return &Transcoder{Invoker: inv}
}

func wavCodecFor(bitDepth int) string {
	if bitDepth <= 16 {
		return "pcm_s16le"
	}
	return fmt.Sprintf("pcm_s%dle", bitDepth)
}

func (t *Transcoder) buildEnv(req Request, inputPath string) map[string]string {
	return map[string]string{
		"encoder_exe":            req.EncoderExe,
		"decoder_exe":            req.DecoderExe,
		"input_audio_path":       inputPath,
		"output_path":            req.OutputPath,
		"ffmpeg_wav_audio_codec": wavCodecFor(req.BitDepth),
	}
}

func (t *Transcoder) run(ctx context.Context, argvTemplate []string, env map[string]string, toolRole string, onLine toolrun.LineHandler) error {
	argv, err := template.SubstituteList(argvTemplate, env)
	if err != nil {
		return fmt.Errorf("audiotranscode: %w", err)
	}
	var handlers []toolrun.LineHandler
	if onLine != nil {
		handlers = append(handlers, onLine)
	}
	info := t.Invoker.Run(ctx, argv, toolrun.Options{ToolRole: toolRole, Handlers: handlers})
	if info.Class == toolrun.ExitFail {
		return fmt.Errorf("audiotranscode: %s failed: %w (stderr: %s)", argv[0], info.Err, info.StderrTail)
	}
	return nil
}

func (t *Transcoder) maybeDeleteInput(req Request) {
	if req.DeleteInput && req.InputPath != req.OutputPath {
		os.Remove(req.InputPath)
	}
}

// ToFlac converts the source to FLAC. 16-bit sources are piped through
// PCM s16le, higher bit depths through pcm_s{depth}le (§4.6).
func (t *Transcoder) ToFlac(ctx context.Context, req Request) error {
	if err := t.run(ctx, req.ArgvTemplate, t.buildEnv(req, req.InputPath), "", nil); err != nil {
		return err
	}
	t.maybeDeleteInput(req)
	return nil
}

// ToAac converts the source to AAC, same PCM intermediate rule as ToFlac.
func (t *Transcoder) ToAac(ctx context.Context, req Request) error {
	if err := t.run(ctx, req.ArgvTemplate, t.buildEnv(req, req.InputPath), "", nil); err != nil {
		return err
	}
	t.maybeDeleteInput(req)
	return nil
}

// PassthroughConvert remuxes the source into another container (e.g. WAV)
// with the generic tool, without touching codec parameters.
func (t *Transcoder) PassthroughConvert(ctx context.Context, req Request) error {
	if err := t.run(ctx, req.ArgvTemplate, t.buildEnv(req, req.InputPath), "", nil); err != nil {
		return err
	}
	t.maybeDeleteInput(req)
	return nil
}

var progressRe = regexp.MustCompile(`(?i)\[\s*(\d+(?:\.\d+)?)%\]\s+time=(\S+)\s+bitrate=(\d+(?:\.\d+)?)kbit/s`)

func parseProgress(line string) (Progress, bool) {
	m := progressRe.FindStringSubmatch(line)
	if m == nil {
		return Progress{}, false
	}
	pct, _ := strconv.ParseFloat(m[1], 64)
	kbps, _ := strconv.ParseFloat(m[3], 64)
	return Progress{Percent: pct, Time: m[2], BitrateKbps: kbps}, true
}

// ToOpus converts the source to Opus (§4.6). Non {.opus,.flac,.wav}
// sources are first converted to FLAC so the encoder always sees a
// lossless or already-Opus source; an Opus source is decoded to an
// intermediate wav and re-encoded so the new encode options actually
// take effect (re-muxing an existing Opus stream would otherwise silently
// ignore them).
func (t *Transcoder) ToOpus(ctx context.Context, req Request, onProgress ProgressHandler) error {
	ext := strings.ToLower(filepath.Ext(req.InputPath))
	workingInput := req.InputPath
	var intermediate string

	switch ext {
	case ".opus":
		decoded := req.OutputPath + ".decode.wav"
		decodeArgv := []string{"{{decoder_exe}}", "{{input_audio_path}}", decoded}
		if err := t.run(ctx, decodeArgv, t.buildEnv(req, req.InputPath), "", nil); err != nil {
			return fmt.Errorf("audiotranscode: opus decode stage: %w", err)
		}
		workingInput = decoded
		intermediate = decoded
	case ".flac", ".wav":
		// already an acceptable source for the opus encoder
	default:
		flacPath := req.OutputPath + ".intermediate.flac"
		flacReq := req
		flacReq.OutputPath = flacPath
		flacReq.DeleteInput = false
		if err := t.ToFlac(ctx, flacReq); err != nil {
			return fmt.Errorf("audiotranscode: intermediate flac stage: %w", err)
		}
		workingInput = flacPath
		intermediate = flacPath
	}

	var onLine toolrun.LineHandler
	if onProgress != nil {
		onLine = func(stream toolrun.Stream, line string) {
			if stream != toolrun.Stderr {
				return
			}
			if p, ok := parseProgress(line); ok {
				onProgress(p)
			}
		}
	}

	err := t.run(ctx, req.ArgvTemplate, t.buildEnv(req, workingInput), "", onLine)
	if intermediate != "" {
		os.Remove(intermediate)
	}
	if err != nil {
		return err
	}
	t.maybeDeleteInput(req)
	return nil
}
