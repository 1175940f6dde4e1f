package videoencode

import (
	"fmt"

	"github.com/coilpress/muxctl/internal/state"
)

// colorFlagSpec names the encoder-specific argv flags for range and the
// color-matrix triple. Flag syntax differs across x264, x265, and the
// ffmpeg-driven NVENC path, so the spec is keyed by transcoding method.
type colorFlagSpec struct {
	RangeFlag       string
	RangeLimitedVal string
	RangeFullVal    string
	MatrixFlag      string
	PrimariesFlag   string
	TransferFlag    string
}

var colorFlagSpecs = map[state.VideoTranscodingMethod]colorFlagSpec{
	state.MethodFrameServerX264: {
		RangeFlag: "--fullrange", RangeLimitedVal: "off", RangeFullVal: "on",
		MatrixFlag: "--colormatrix", PrimariesFlag: "--colorprim", TransferFlag: "--transfer",
	},
	state.MethodFrameServerX265: {
		RangeFlag: "--range", RangeLimitedVal: "limited", RangeFullVal: "full",
		MatrixFlag: "--colormatrix", PrimariesFlag: "--colorprim", TransferFlag: "--transfer",
	},
	state.MethodFrameServerNVENC: {
		RangeFlag: "-color_range", RangeLimitedVal: "tv", RangeFullVal: "pc",
		MatrixFlag: "-colorspace", PrimariesFlag: "-color_primaries", TransferFlag: "-color_trc",
	},
	state.MethodDirectNVENC: {
		RangeFlag: "-color_range", RangeLimitedVal: "tv", RangeFullVal: "pc",
		MatrixFlag: "-colorspace", PrimariesFlag: "-color_primaries", TransferFlag: "-color_trc",
	},
}

// injectColorFlags implements §4.7's two color-tag rules against the
// already-templated encoder argv:
//
//   - "Color-range flag handling": the encoder-specific range flag is
//     appended if absent from argv; if present and its value contradicts
//     outputFullRange, a warning is returned but the user's flag is left
//     untouched (it wins).
//   - "Color-matrix triple is injected unconditionally": primaries,
//     matrix, and transfer flags are always appended, regardless of
//     whether argv already names them.
func injectColorFlags(argv []string, method state.VideoTranscodingMethod, outputFullRange bool, matrix, primaries, transfer string) (out []string, warnings []string) {
	spec, ok := colorFlagSpecs[method]
	if !ok {
		return argv, nil
	}

	out = append([]string{}, argv...)

	wantRangeVal := spec.RangeLimitedVal
	if outputFullRange {
		wantRangeVal = spec.RangeFullVal
	}
	if idx := flagIndex(out, spec.RangeFlag); idx >= 0 {
		if idx+1 < len(out) && out[idx+1] != wantRangeVal {
			warnings = append(warnings, fmt.Sprintf(
				"videoencode: argv already sets %s %s, which contradicts output_full_range=%v (expected %s); keeping the user's flag",
				spec.RangeFlag, out[idx+1], outputFullRange, wantRangeVal))
		}
	} else {
		out = append(out, spec.RangeFlag, wantRangeVal)
	}

	out = append(out, spec.MatrixFlag, matrix, spec.PrimariesFlag, primaries, spec.TransferFlag, transfer)
	return out, warnings
}

// flagIndex returns the index of tok within argv, or -1 when absent.
func flagIndex(argv []string, tok string) int {
	for i, a := range argv {
		if a == tok {
			return i
		}
	}
	return -1
}
