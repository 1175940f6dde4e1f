package videoencode

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/coilpress/muxctl/internal/state"
	"github.com/coilpress/muxctl/internal/toolrun"
)

func directRequest(argv []string) Request {
	return Request{
		Method:              state.MethodDirectNVENC,
		InputPath:           "in.mkv",
		OutputPath:          "out.265",
		EncoderArgvTemplate: argv,
		Source: state.VideoAttrs{
			Width: 1920, Height: 1080, BitDepth: 8,
			FrameRateMode: state.FrameRateCFR,
			FrameRate:     state.Rational{Num: 24000, Den: 1001},
		},
		OutputFrameRateMode: state.OutputFrameRateCFR,
		FirstFrameIndex:     -1,
		LastFrameIndex:      -1,
	}
}

func TestEncodeDirectSucceedsOnFirstAttempt(t *testing.T) {
	e := New(toolrun.New())
	argv := []string{"sh", "-c", "echo '5/5 frames, 30.0 fps, 1000.0 kb/s, eta 0:00:00, 1MB, est. 1MB, qp 20.0' 1>&2"}
	req := directRequest(argv)

	var progresses []Progress
	res, err := e.Encode(context.Background(), req, func(p Progress) { progresses = append(progresses, p) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OutputPath != req.OutputPath {
		t.Errorf("got output path %q, want %q", res.OutputPath, req.OutputPath)
	}
	if len(progresses) != 1 || progresses[0].EncodedFrames != 5 {
		t.Errorf("got progresses %+v", progresses)
	}
}

func TestEncodeAnomalousCompletionRetriesThenFails(t *testing.T) {
	e := New(toolrun.New())
	argv := []string{"sh", "-c", "echo '3/5 frames, 30.0 fps, 1000.0 kb/s, eta 0:00:00, 1MB, est. 1MB, qp 20.0' 1>&2"}
	req := directRequest(argv)

	_, err := e.Encode(context.Background(), req, nil)
	if err == nil {
		t.Fatal("expected an error after exhausting anomalous-completion retries")
	}
}

func TestEncodeRejectsHDRForX264(t *testing.T) {
	e := New(toolrun.New())
	req := directRequest([]string{"sh", "-c", "true"})
	req.Method = state.MethodFrameServerX264
	req.HDR = &state.HDR10Metadata{MinMasteringDisplayLuminance: 0.005, MaxMasteringDisplayLuminance: 1000, MaxContentLightLevel: 1000, MaxFrameAverageLightLevel: 400}

	_, err := e.Encode(context.Background(), req, nil)
	if err == nil {
		t.Fatal("expected an error rejecting HDR input for x264")
	}
}

func TestEncodeFrameServerPipedSucceeds(t *testing.T) {
	e := New(toolrun.New())
	req := directRequest([]string{"sh", "-c", "cat >/dev/null; echo '5/5 frames, 30.0 fps, 1000.0 kb/s, eta 0:00:00, 1MB, est. 1MB, qp 20.0' 1>&2"})
	req.Method = state.MethodFrameServerX265
	req.FrameServerExe = "sh"
	req.FrameServerScriptTemplate = "exit 0\n"
	req.FrameServerScriptPath = filepath.Join(t.TempDir(), "frameserver.script")

	var progresses []Progress
	res, err := e.Encode(context.Background(), req, func(p Progress) { progresses = append(progresses, p) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OutputPath != req.OutputPath {
		t.Errorf("got output path %q, want %q", res.OutputPath, req.OutputPath)
	}
	if len(progresses) != 1 || progresses[0].EncodedFrames != 5 {
		t.Errorf("got progresses %+v", progresses)
	}
}

func TestEncodeFrameServerMissingScriptPathFails(t *testing.T) {
	e := New(toolrun.New())
	req := directRequest([]string{"sh", "-c", "true"})
	req.Method = state.MethodFrameServerX265
	req.FrameServerExe = "sh"
	req.FrameServerScriptTemplate = "exit 0\n"
	// FrameServerScriptPath left empty: os.WriteFile("", ...) must fail
	// rather than silently succeeding against the wrong path.

	_, err := e.Encode(context.Background(), req, nil)
	if err == nil {
		t.Fatal("expected an error for a missing frame server script path")
	}
}

func TestEncodeMissingToolFails(t *testing.T) {
	e := New(toolrun.New())
	req := directRequest([]string{"definitely-not-a-real-encoder-xyz"})

	_, err := e.Encode(context.Background(), req, nil)
	if err == nil {
		t.Fatal("expected an error for a missing encoder tool")
	}
}
