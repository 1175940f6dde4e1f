package videoencode

import (
	"testing"

	"github.com/coilpress/muxctl/internal/state"
)

func TestInjectColorFlagsAppendsRangeWhenAbsent(t *testing.T) {
	argv := []string{"x265", "--input", "-"}
	out, warnings := injectColorFlags(argv, state.MethodFrameServerX265, false, "bt709", "bt709", "bt709")
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if idx := flagIndex(out, "--range"); idx < 0 || out[idx+1] != "limited" {
		t.Errorf("expected --range limited appended, got %v", out)
	}
}

func TestInjectColorFlagsFullRangeValue(t *testing.T) {
	argv := []string{"x265", "--input", "-"}
	out, _ := injectColorFlags(argv, state.MethodFrameServerX265, true, "bt709", "bt709", "bt709")
	if idx := flagIndex(out, "--range"); idx < 0 || out[idx+1] != "full" {
		t.Errorf("expected --range full appended, got %v", out)
	}
}

func TestInjectColorFlagsWarnsOnContradictionButKeepsUserFlag(t *testing.T) {
	argv := []string{"x265", "--range", "full", "--input", "-"}
	out, warnings := injectColorFlags(argv, state.MethodFrameServerX265, false, "bt709", "bt709", "bt709")
	if len(warnings) != 1 {
		t.Fatalf("expected exactly one contradiction warning, got %v", warnings)
	}
	if idx := flagIndex(out, "--range"); idx < 0 || out[idx+1] != "full" {
		t.Errorf("expected the user's --range full to survive untouched, got %v", out)
	}
}

func TestInjectColorFlagsNoWarningWhenAgreeing(t *testing.T) {
	argv := []string{"x265", "--range", "limited"}
	_, warnings := injectColorFlags(argv, state.MethodFrameServerX265, false, "bt709", "bt709", "bt709")
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}

func TestInjectColorFlagsMatrixTripleAlwaysInjected(t *testing.T) {
	argv := []string{"x265", "--colormatrix", "bt2020nc", "--input", "-"}
	out, _ := injectColorFlags(argv, state.MethodFrameServerX265, false, "bt709", "bt709", "bt709")
	count := 0
	for _, a := range out {
		if a == "--colormatrix" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected the matrix flag to be appended unconditionally even when already present, got argv %v", out)
	}
	if idx := flagIndex(out, "--colorprim"); idx < 0 || out[idx+1] != "bt709" {
		t.Errorf("expected --colorprim bt709 appended, got %v", out)
	}
	if idx := flagIndex(out, "--transfer"); idx < 0 || out[idx+1] != "bt709" {
		t.Errorf("expected --transfer bt709 appended, got %v", out)
	}
}

func TestInjectColorFlagsNVENCVocabulary(t *testing.T) {
	argv := []string{"ffmpeg", "-i", "-"}
	out, _ := injectColorFlags(argv, state.MethodFrameServerNVENC, true, "bt709", "bt709", "bt709")
	if idx := flagIndex(out, "-color_range"); idx < 0 || out[idx+1] != "pc" {
		t.Errorf("expected -color_range pc appended, got %v", out)
	}
	if idx := flagIndex(out, "-colorspace"); idx < 0 || out[idx+1] != "bt709" {
		t.Errorf("expected -colorspace bt709 appended, got %v", out)
	}
}

func TestInjectColorFlagsUnknownMethodPassesThrough(t *testing.T) {
	argv := []string{"ffmpeg", "-i", "-"}
	out, warnings := injectColorFlags(argv, state.VideoTranscodingMethod("unknown"), false, "bt709", "bt709", "bt709")
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(out) != len(argv) {
		t.Errorf("expected argv unchanged for an unrecognized method, got %v", out)
	}
}
