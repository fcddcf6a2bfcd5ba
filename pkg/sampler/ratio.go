package sampler

import "github.com/chewxy/math32"

// ratioScale is the resolution used when converting a float alpha.
const ratioScale = 1000

// MaxRatioDen keeps Blend within uint32 for any pair of uint16 inputs.
const MaxRatioDen = 1 << 16

// Ratio is an exact smoothing factor Num/Den in [0, 1].
// Integer arithmetic keeps the filter output identical on every target,
// with or without an FPU.
type Ratio struct {
	Num uint32
	Den uint32
}

// Valid reports whether r is a usable factor: Num <= Den and
// 0 < Den <= MaxRatioDen.
func (r Ratio) Valid() bool {
	return r.Den > 0 && r.Den <= MaxRatioDen && r.Num <= r.Den
}

// Blend returns floor(r*x + (1-r)*prev). r must be Valid.
func (r Ratio) Blend(x, prev uint16) uint16 {
	v := (r.Num*uint32(x) + (r.Den-r.Num)*uint32(prev)) / r.Den
	return uint16(v)
}

// Float returns the factor as a float32.
func (r Ratio) Float() float32 {
	if r.Den == 0 {
		return 0
	}
	return float32(r.Num) / float32(r.Den)
}

// RatioFromFloat converts alpha to a reduced ratio with thousandths resolution.
// Values outside [0, 1] are clamped.
func RatioFromFloat(alpha float32) Ratio {
	if math32.IsNaN(alpha) {
		return DefaultConfig().Alpha
	}
	alpha = math32.Max(0, math32.Min(1, alpha))

	num := uint32(math32.Round(alpha * ratioScale))
	den := uint32(ratioScale)
	if g := gcd(num, den); g > 1 {
		num /= g
		den /= g
	}
	return Ratio{Num: num, Den: den}
}

func gcd(a, b uint32) uint32 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
