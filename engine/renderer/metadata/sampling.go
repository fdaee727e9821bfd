package metadata

import (
	m "math"
)

/** @brief How history buffers are reconstructed at sub-pixel positions. */
type SamplingMode int

const (
	SamplingNearest SamplingMode = iota
	SamplingBilinear
	/** @brief 4x4 Catmull-Rom reconstruction; keeps history sharp across frames. */
	SamplingCatmullRom
)

func (s SamplingMode) String() string {
	switch s {
	case SamplingNearest:
		return "nearest"
	case SamplingBilinear:
		return "bilinear"
	case SamplingCatmullRom:
		return "catmull-rom"
	default:
		return "unknown"
	}
}

// Sample reconstructs the first len(dst) channels of b at the continuous
// pixel-space position (px, py), where pixel (x, y) covers [x, x+1).
// Out-of-range taps clamp to the edge.
func (b *Buffer) Sample(mode SamplingMode, px, py float32, dst []float32) {
	switch mode {
	case SamplingBilinear:
		b.sampleBilinear(px, py, dst)
	case SamplingCatmullRom:
		b.sampleCatmullRom(px, py, dst)
	default:
		b.sampleNearest(px, py, dst)
	}
}

func (b *Buffer) sampleNearest(px, py float32, dst []float32) {
	x := int(m.Floor(float64(px)))
	y := int(m.Floor(float64(py)))
	for c := range dst {
		dst[c] = b.At(x, y, c)
	}
}

func (b *Buffer) sampleBilinear(px, py float32, dst []float32) {
	fx := float64(px) - 0.5
	fy := float64(py) - 0.5
	x0 := int(m.Floor(fx))
	y0 := int(m.Floor(fy))
	tx := float32(fx - m.Floor(fx))
	ty := float32(fy - m.Floor(fy))

	for c := range dst {
		a := b.At(x0, y0, c)*(1-tx) + b.At(x0+1, y0, c)*tx
		d := b.At(x0, y0+1, c)*(1-tx) + b.At(x0+1, y0+1, c)*tx
		dst[c] = a*(1-ty) + d*ty
	}
}

// catmullRomWeights returns the four cubic weights for taps at -1, 0, 1, 2
// relative to the sample's base texel.
func catmullRomWeights(t float32) [4]float32 {
	t2 := t * t
	t3 := t2 * t
	return [4]float32{
		-0.5*t3 + t2 - 0.5*t,
		1.5*t3 - 2.5*t2 + 1,
		-1.5*t3 + 2*t2 + 0.5*t,
		0.5*t3 - 0.5*t2,
	}
}

func (b *Buffer) sampleCatmullRom(px, py float32, dst []float32) {
	fx := float64(px) - 0.5
	fy := float64(py) - 0.5
	x0 := int(m.Floor(fx))
	y0 := int(m.Floor(fy))
	wx := catmullRomWeights(float32(fx - m.Floor(fx)))
	wy := catmullRomWeights(float32(fy - m.Floor(fy)))

	for c := range dst {
		sum := float32(0)
		for j := 0; j < 4; j++ {
			row := float32(0)
			for i := 0; i < 4; i++ {
				row += wx[i] * b.At(x0-1+i, y0-1+j, c)
			}
			sum += wy[j] * row
		}
		dst[c] = sum
	}
}
