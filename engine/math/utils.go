package math

import (
	m "math"

	"golang.org/x/exp/constraints"
)

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// Min returns the smaller of a and b.
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Saturate clamps f to [0, 1].
func Saturate[T constraints.Float](f T) T {
	return Clamp(f, 0, 1)
}

// Fract returns the fractional part of x, always in [0, 1).
func Fract(x float64) float64 {
	f := x - m.Floor(x)
	if f >= 1 {
		return 0
	}
	return f
}

// Luminance returns the Rec. 709 relative luminance of a linear RGB colour.
func Luminance(r, g, b float32) float32 {
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// Abs returns |x| for any signed number.
func Abs[T constraints.Signed | constraints.Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// Exp is a float32 shorthand for math.Exp.
func Exp(x float32) float32 {
	return float32(m.Exp(float64(x)))
}

// Log1p returns log(1 + x) in float32.
func Log1p(x float32) float32 {
	return float32(m.Log1p(float64(x)))
}

// Expm1 returns exp(x) - 1 in float32.
func Expm1(x float32) float32 {
	return float32(m.Expm1(float64(x)))
}

// Sqrt is a float32 shorthand for math.Sqrt.
func Sqrt(x float32) float32 {
	return ksqrt(x)
}

// Acos returns the arc cosine of x, clamping x into [-1, 1] first.
func Acos(x float32) float32 {
	return kacos(Clamp(x, -1, 1))
}
