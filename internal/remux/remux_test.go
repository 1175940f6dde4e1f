package remux

import (
	"context"
	"testing"

	"github.com/coilpress/muxctl/internal/toolrun"
)

func TestWavCodecForBitDepth(t *testing.T) {
	cases := map[int]string{16: "pcm_s16le", 8: "pcm_s16le", 24: "pcm_s24le", 32: "pcm_s32le"}
	for depth, want := range cases {
		if got := wavCodecFor(depth); got != want {
			t.Errorf("wavCodecFor(%d) = %q, want %q", depth, got, want)
		}
	}
}

func TestBuildArgvCodecCopy(t *testing.T) {
	req := Request{InputPath: "in.mkv", OutputPath: "out.mkv"}
	argv := buildArgv(req, muxQueueDefault, false)
	if !contains(argv, "-c") || !contains(argv, "copy") {
		t.Errorf("expected a codec-copy remux, got %v", argv)
	}
	if contains(argv, "-fflags") {
		t.Errorf("expected no timestamp fix flags when timestampFix is false, got %v", argv)
	}
	if argv[len(argv)-1] != req.OutputPath {
		t.Errorf("expected output path last, got %v", argv)
	}
}

func TestBuildArgvWavOverride(t *testing.T) {
	req := Request{InputPath: "in.mka", OutputPath: "out.wav", WavPCMDepth: 24}
	argv := buildArgv(req, muxQueueDefault, false)
	if !contains(argv, "pcm_s24le") {
		t.Errorf("expected pcm_s24le codec, got %v", argv)
	}
	if !contains(argv, "-vn") {
		t.Errorf("expected -vn for an audio-only wav output, got %v", argv)
	}
}

func TestBuildArgvTimestampFixAddsFlags(t *testing.T) {
	req := Request{InputPath: "in.mkv", OutputPath: "out.mkv"}
	argv := buildArgv(req, muxQueueDefault, true)
	if !contains(argv, "+genpts+discardcorrupt") || !contains(argv, "make_zero") {
		t.Errorf("expected timestamp fix flags, got %v", argv)
	}
}

func contains(argv []string, tok string) bool {
	for _, a := range argv {
		if a == tok {
			return true
		}
	}
	return false
}

func TestRemuxOnNonexistentInputFailsWithoutLooping(t *testing.T) {
	r := New(toolrun.New())
	req := Request{InputPath: "does-not-exist.mkv", OutputPath: "out.mkv"}
	// Neither a missing ffmpeg binary nor a real ffmpeg invoked against a
	// nonexistent input matches the two fixable failure regexes, so the
	// retry loop must terminate (not loop forever) and report an error.
	err := r.Remux(context.Background(), req)
	if err == nil {
		t.Fatal("expected an error for a nonexistent input file")
	}
}
