package videoencode

import (
	"testing"

	"github.com/coilpress/muxctl/internal/state"
)

func TestResolveOutputFPSVFRToVFRPassesSourceRate(t *testing.T) {
	src := state.VideoAttrs{FrameRateMode: state.FrameRateVFR, FrameRate: state.Rational{Num: 30, Den: 1}}
	got, err := ResolveOutputFPS(src, state.OutputFrameRateVFR, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != src.FrameRate {
		t.Errorf("got %+v, want %+v", got, src.FrameRate)
	}
}

func TestResolveOutputFPSCFRToVFRRejected(t *testing.T) {
	src := state.VideoAttrs{FrameRateMode: state.FrameRateCFR, FrameRate: state.Rational{Num: 24, Den: 1}}
	_, err := ResolveOutputFPS(src, state.OutputFrameRateVFR, "")
	if err != ErrCFRToVFR {
		t.Fatalf("expected ErrCFRToVFR, got %v", err)
	}
}

func TestResolveOutputFPSCFREmptySpecKeepsSourceRate(t *testing.T) {
	src := state.VideoAttrs{FrameRateMode: state.FrameRateCFR, FrameRate: state.Rational{Num: 24000, Den: 1001}}
	got, err := ResolveOutputFPS(src, state.OutputFrameRateCFR, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != src.FrameRate {
		t.Errorf("got %+v, want %+v", got, src.FrameRate)
	}
}

func TestResolveOutputFPSCFRRescalesAgainstNTSCDenominator(t *testing.T) {
	src := state.VideoAttrs{FrameRateMode: state.FrameRateCFR, FrameRate: state.Rational{Num: 24000, Den: 1001}}
	got, err := ResolveOutputFPS(src, state.OutputFrameRateCFR, "30fps")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := state.Rational{Num: 30000, Den: 1001}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestResolveOutputFPSVFRToCFRUsesOriginalRate(t *testing.T) {
	src := state.VideoAttrs{
		FrameRateMode:     state.FrameRateVFR,
		FrameRate:         state.Rational{Num: 24000, Den: 1001},
		OriginalFrameRate: state.Rational{Num: 30000, Den: 1001},
	}
	got, err := ResolveOutputFPS(src, state.OutputFrameRateCFR, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != src.OriginalFrameRate.Reduce() {
		t.Errorf("got %+v, want %+v", got, src.OriginalFrameRate.Reduce())
	}
}

func TestResolveOutputFPSInvalidSpec(t *testing.T) {
	src := state.VideoAttrs{FrameRateMode: state.FrameRateCFR, FrameRate: state.Rational{Num: 24, Den: 1}}
	if _, err := ResolveOutputFPS(src, state.OutputFrameRateCFR, "bogus"); err == nil {
		t.Fatal("expected error for malformed output_fps spec")
	}
}

func TestResolveSARUnchangePassesNonUnitySource(t *testing.T) {
	src := state.VideoAttrs{SampleAspectRatio: state.Rational{Num: 4, Den: 3}}
	sar, ok, err := ResolveSAR(src, "unchange")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || sar != src.SampleAspectRatio {
		t.Errorf("got sar=%+v ok=%v, want %+v true", sar, ok, src.SampleAspectRatio)
	}
}

func TestResolveSARUnchangeSkipsUnitySource(t *testing.T) {
	src := state.VideoAttrs{SampleAspectRatio: state.Rational{Num: 1, Den: 1}}
	_, ok, err := ResolveSAR(src, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected ok=false for unity source SAR with empty output_sar")
	}
}

func TestResolveSARExplicitOverridesSource(t *testing.T) {
	src := state.VideoAttrs{SampleAspectRatio: state.Rational{Num: 1, Den: 1}}
	sar, ok, err := ResolveSAR(src, "16:9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := state.Rational{Num: 16, Den: 9}
	if !ok || sar != want {
		t.Errorf("got sar=%+v ok=%v, want %+v true", sar, ok, want)
	}
}

func TestResolveColorTagsDerivesFromResolution(t *testing.T) {
	matrix, primaries, transfer := ResolveColorTags(1920, 1080, 8, false)
	if matrix != state.ColorMatrixBT709 || primaries != state.ColorPrimariesBT709 || transfer != state.TransferBT709 {
		t.Errorf("got %s/%s/%s", matrix, primaries, transfer)
	}
}

func TestBuildHDR10FlagsSelectsTemplateByPrimaries(t *testing.T) {
	hdr := state.HDR10Metadata{MinMasteringDisplayLuminance: 0.005, MaxMasteringDisplayLuminance: 1000, MaxContentLightLevel: 1000, MaxFrameAverageLightLevel: 400}
	md, cll := BuildHDR10Flags(state.ColorPrimariesBT2020, hdr)
	if md == "" || cll != "1000,400" {
		t.Errorf("got master_display=%q max_cll=%q", md, cll)
	}
	if md[:1] != "G" {
		t.Errorf("master_display should start with the green primary: %q", md)
	}
}
