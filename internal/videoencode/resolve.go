package videoencode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coilpress/muxctl/internal/state"
)

// ErrCFRToVFR is returned when an output_frame_rate_mode of vfr is
// requested against a CFR source; the §4.7 resolution table rejects that
// combination outright.
var ErrCFRToVFR = fmt.Errorf("videoencode: cfr source cannot be converted to a vfr output")

// ResolveOutputFPS implements the §4.7 output-FPS resolution table.
func ResolveOutputFPS(source state.VideoAttrs, mode state.OutputFrameRateMode, outputFPSSpec string) (state.Rational, error) {
	if mode == state.OutputFrameRateVFR {
		if source.FrameRateMode != state.FrameRateVFR {
			return state.Rational{}, ErrCFRToVFR
		}
		return source.FrameRate, nil
	}

	// mode == cfr
	if source.FrameRateMode == state.FrameRateCFR {
		if outputFPSSpec == "" {
			return source.FrameRate, nil
		}
		n, err := parseNfps(outputFPSSpec)
		if err != nil {
			return state.Rational{}, err
		}
		return state.RescaleOutputFPS(n, source.FrameRate), nil
	}

	// source is vfr, output is cfr: base off the source's original fps.
	base := source.OriginalFrameRate
	if outputFPSSpec == "" {
		return base.Reduce(), nil
	}
	n, err := parseNfps(outputFPSSpec)
	if err != nil {
		return state.Rational{}, err
	}
	return state.RescaleOutputFPS(n, base), nil
}

func parseNfps(spec string) (int, error) {
	trimmed := strings.TrimSuffix(spec, "fps")
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("videoencode: invalid output_fps %q, want \"Nfps\"", spec)
	}
	return n, nil
}

// ResolveSAR implements the §4.7 SAR handling rule: an empty or
// "unchange" output_sar passes the source SAR only when it is non-unity;
// any other value is parsed as the user's explicit choice. ok is false
// when no SAR flag should be emitted at all.
func ResolveSAR(source state.VideoAttrs, outputSAR string) (sar state.Rational, ok bool, err error) {
	if outputSAR == "" || outputSAR == "unchange" {
		if source.SampleAspectRatio.IsUnity() {
			return state.Rational{}, false, nil
		}
		return source.SampleAspectRatio, true, nil
	}
	r, err := parseRational(outputSAR)
	if err != nil {
		return state.Rational{}, false, err
	}
	return r, true, nil
}

func parseRational(s string) (state.Rational, error) {
	s = strings.TrimSpace(s)
	sep := ":"
	if strings.Contains(s, "/") {
		sep = "/"
	}
	parts := strings.SplitN(s, sep, 2)
	if len(parts) != 2 {
		return state.Rational{}, fmt.Errorf("videoencode: invalid rational %q", s)
	}
	num, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	den, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || den == 0 {
		return state.Rational{}, fmt.Errorf("videoencode: invalid rational %q", s)
	}
	return state.Rational{Num: num, Den: den}, nil
}

// ResolveColorTags derives the color-matrix triple unconditionally from
// output width/height/bit-depth, using the same resolution rule as §4.2.
func ResolveColorTags(width, height, bitDepth int, hdr bool) (matrix, primaries, transfer string) {
	return state.DeriveColorTags(width, height, bitDepth, hdr)
}

// BuildHDR10Flags renders --master-display and --max-cll argument values
// for h, selecting the fixed mastering-display primary template (BT.2020
// or DCI-P3) from the resolved output color primaries tag.
func BuildHDR10Flags(primaries string, h state.HDR10Metadata) (masterDisplay, maxCLL string) {
	primary := state.MasterDisplayP3
	if primaries == state.ColorPrimariesBT2020 {
		primary = state.MasterDisplayBT2020
	}
	return state.BuildMasterDisplay(primary, h), state.BuildMaxCLL(h)
}
