package state

import "fmt"

// Encoder-side color tags (x265/x264 --colormatrix/--colorprim/--transfer
// argument values). Probe tools and container metadata report a separate,
// looser vocabulary (§4.2); ProbeToEncoderColorMatrix and friends bridge
// the two, grounded on original_source util/constant.py's
// mediainfo_encoder_*_dict tables.
const (
	ColorMatrixBT709    = "bt709"
	ColorMatrixSMPTE170 = "smpte170m"
	ColorMatrixBT2020NC = "bt2020nc"
	ColorMatrixBT2020C  = "bt2020c"

	ColorPrimariesBT709 = "bt709"
	ColorPrimariesSMPTE170 = "smpte170m"
	ColorPrimariesBT2020   = "bt2020"
	ColorPrimariesP3       = "p3"

	TransferBT709     = "bt709"
	TransferSMPTE170  = "smpte170m"
	TransferBT2020_10 = "bt2020-10"
	TransferBT2020_12 = "bt2020-12"
	TransferSMPTE2084 = "smpte2084"
)

// probeColorMatrixTable maps container/prober-reported color matrix names
// to encoder tags.
var probeColorMatrixTable = map[string]string{
	"BT.709":              ColorMatrixBT709,
	"BT.601":              ColorMatrixSMPTE170,
	"BT.2020 non-constant": ColorMatrixBT2020NC,
	"BT.2020 constant":     ColorMatrixBT2020C,
}

var probeColorPrimariesTable = map[string]string{
	"BT.709":      ColorPrimariesBT709,
	"BT.601 NTSC": ColorPrimariesSMPTE170,
	"BT.2020":     ColorPrimariesBT2020,
	"Display P3":  ColorPrimariesP3,
}

var probeTransferTable = map[string]string{
	"BT.709":             TransferBT709,
	"BT.601":             TransferSMPTE170,
	"BT.2020 (10-bit)":   TransferBT2020_10,
	"BT.2020 (12-bit)":   TransferBT2020_12,
	"PQ":                 TransferSMPTE2084,
}

// ProbeToEncoderColorMatrix translates a prober-reported matrix string to
// the encoder tag vocabulary. Returns "" when unrecognized.
func ProbeToEncoderColorMatrix(raw string) string { return probeColorMatrixTable[raw] }

// ProbeToEncoderColorPrimaries translates a prober-reported primaries
// string to the encoder tag vocabulary. Returns "" when unrecognized.
func ProbeToEncoderColorPrimaries(raw string) string { return probeColorPrimariesTable[raw] }

// ProbeToEncoderTransfer translates a prober-reported transfer string to
// the encoder tag vocabulary. Returns "" when unrecognized.
func ProbeToEncoderTransfer(raw string) string { return probeTransferTable[raw] }

// DeriveColorTags implements the §4.2 fallback rule for missing
// color_matrix/primaries/transfer: derive from picture size and bit depth.
func DeriveColorTags(width, height, bitDepth int, hdr bool) (matrix, primaries, transfer string) {
	switch {
	case width <= 1024 && height <= 576:
		return ColorMatrixSMPTE170, ColorPrimariesSMPTE170, TransferSMPTE170
	case width <= 2048 && height <= 1536:
		return ColorMatrixBT709, ColorPrimariesBT709, TransferBT709
	default:
		if hdr {
			return ColorMatrixBT2020NC, ColorPrimariesBT2020, TransferSMPTE2084
		}
		return ColorMatrixBT2020NC, ColorPrimariesBT2020, TransferBT709
	}
}

// HDR10Metadata is the static mastering-display + light-level block (§3).
// All fields are -1 when the track is SDR.
type HDR10Metadata struct {
	MinMasteringDisplayLuminance float64 // cd/m^2
	MaxMasteringDisplayLuminance float64 // cd/m^2
	MaxContentLightLevel         float64 // cd/m^2
	MaxFrameAverageLightLevel    float64 // cd/m^2
}

// IsSDR reports whether the block carries no HDR10 metadata.
func (h HDR10Metadata) IsSDR() bool {
	return h.MinMasteringDisplayLuminance == -1 && h.MaxMasteringDisplayLuminance == -1 &&
		h.MaxContentLightLevel == -1 && h.MaxFrameAverageLightLevel == -1
}

// masterDisplayPrimary selects which fixed primary template to encode the
// mastering-display chromaticity with: BT.2020 when the resolved output
// primaries are BT.2020, DCI-P3 otherwise.
type masterDisplayPrimary int

const (
	MasterDisplayBT2020 masterDisplayPrimary = iota
	MasterDisplayP3
)

// BuildMasterDisplay renders the --master-display argument value, encoding
// luminance in units of 1e-4 cd/m^2, per §4.7 and original_source
// util/constant.py's encoder_master_display_prim_*_format_str templates.
func BuildMasterDisplay(primary masterDisplayPrimary, h HDR10Metadata) string {
	maxL := h.MaxMasteringDisplayLuminance * 10000
	minL := h.MinMasteringDisplayLuminance * 10000
	switch primary {
	case MasterDisplayP3:
		return fmt.Sprintf("G(13250,34500)B(7500,3000)R(34000,16000)WP(15635,16450)L(%.0f,%.0f)", maxL, minL)
	default:
		return fmt.Sprintf("G(8500,39850)B(6550,2300)R(35400,14600)WP(15635,16450)L(%.0f,%.0f)", maxL, minL)
	}
}

// BuildMaxCLL renders the --max-cll argument value.
func BuildMaxCLL(h HDR10Metadata) string {
	return fmt.Sprintf("%.0f,%.0f", h.MaxContentLightLevel, h.MaxFrameAverageLightLevel)
}
