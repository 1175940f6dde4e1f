package state

import "math"

// Rational is a reduced num/den pair used for frame rate and SAR.
type Rational struct {
	Num int
	Den int
}

// fpsFixups maps raw (num,den) pairs to their canonical NTSC-rate form.
// Mirrors the three fixups in spec §4.2/§3: 23976/1000, 29970/1000,
// 59940/1000 all collapse to the exact 1001-denominator rate.
var fpsFixups = map[Rational]Rational{
	{23976, 1000}: {24000, 1001},
	{29970, 1000}: {30000, 1001},
	{59940, 1000}: {60000, 1001},
}

// gcd returns the greatest common divisor of a and b (both non-negative).
func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// Reduce returns r in lowest terms, applying the known NTSC fixups first.
// Reduce is idempotent: Reduce(Reduce(x)) == Reduce(x) for every supported
// representation, since a fraction already in lowest terms (or already a
// fixup target) reduces to itself.
func (r Rational) Reduce() Rational {
	if r.Den == 0 {
		return Rational{}
	}
	if fixed, ok := fpsFixups[r]; ok {
		return fixed
	}
	g := gcd(abs(r.Num), abs(r.Den))
	reduced := Rational{r.Num / g, r.Den / g}
	if fixed, ok := fpsFixups[reduced]; ok {
		return fixed
	}
	return reduced
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Float returns the rational as a float64, or 0 when Den is 0.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// IsUnity reports whether the rational reduces to 1/1 (used for SAR).
func (r Rational) IsUnity() bool {
	red := r.Reduce()
	return red.Num == red.Den && red.Den != 0
}

// RescaleFPS rescales a frame index expressed against sourceFPS to the
// equivalent index at outputFPS, rounding to the nearest integer. Used by
// SegmentedEncoder (§4.8 step 2) when config-interval boundaries are given
// against the source frame rate but the encode output is a different CFR.
func RescaleFPS(frameIndex int, sourceFPS, outputFPS Rational) int {
	sf, of := sourceFPS.Float(), outputFPS.Float()
	if sf == 0 || of == 0 {
		return frameIndex
	}
	scaled := float64(frameIndex) * of / sf
	if scaled >= 0 {
		return int(scaled + 0.5)
	}
	return -int(-scaled + 0.5)
}

// RationalFromScalar converts a decimal frame rate (e.g. the mediainfo
// scalar "frame_rate" field) to a Rational, applying the same NTSC
// fixups as Reduce so that "23.976" and "24000/1001" normalize
// identically (§4.2 frame rate selection).
func RationalFromScalar(f float64) Rational {
	return Rational{int(math.Round(f * 1000)), 1000}.Reduce()
}

// RescaleOutputFPS implements the §4.7 output-FPS resolution table's
// "Nfps" rescale rule: N*1000/1001 when the source denominator is 1001,
// otherwise N/1 exactly.
func RescaleOutputFPS(n int, source Rational) Rational {
	if source.Den == 1001 {
		return Rational{n * 1000, 1001}.Reduce()
	}
	return Rational{n, 1}
}
