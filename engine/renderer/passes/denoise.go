package passes

import (
	"fmt"

	"github.com/spaghettifunk/anima-temporal/engine/math"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/metadata"
)

const (
	// taps below this weight are skipped and totals below it fall back to
	// the centre sample
	minTapWeight = 1e-6
	// keeps the luminance stop finite on noise-free regions
	lumaEpsilon = 1e-4
	// pixels with fewer accumulated frames estimate variance spatially
	minMomentsFrames = 4
)

// B3 spline taps at offsets -2..2 times the step.
var atrousKernel = [5]float32{1.0 / 16, 1.0 / 4, 3.0 / 8, 1.0 / 4, 1.0 / 16}

// DenoisePass is a separable, edge-aware à-trous wavelet filter. Horizontal
// half-passes write A, vertical half-passes read A and write B, so the result
// always ends up in B.
type DenoisePass struct {
	width      int
	height     int
	dispatcher metadata.Dispatcher
	cfg        metadata.DenoiseConfig
	pp         *metadata.PingPong
}

func NewDenoisePass(width, height int, dispatcher metadata.Dispatcher) *DenoisePass {
	if dispatcher == nil {
		dispatcher = metadata.SerialDispatcher{}
	}
	return &DenoisePass{
		width:      width,
		height:     height,
		dispatcher: dispatcher,
		cfg:        metadata.DefaultDenoiseConfig(),
		pp:         metadata.NewPingPong(metadata.BufferRoleColor, width, height, 3),
	}
}

// Configure sets the number of iterations. Each iteration is one horizontal
// and one vertical half-pass.
func (dp *DenoisePass) Configure(iterations int) {
	dp.cfg.Iterations = iterations
}

// SetConfig replaces the iteration count and edge-stop parameters.
func (dp *DenoisePass) SetConfig(cfg metadata.DenoiseConfig) {
	dp.cfg = cfg
}

func (dp *DenoisePass) Config() metadata.DenoiseConfig {
	return dp.cfg
}

func (dp *DenoisePass) Resize(width, height int) {
	dp.width = width
	dp.height = height
	dp.pp.Reset(width, height, 3)
}

// Output is the buffer every Run writes its result into.
func (dp *DenoisePass) Output() *metadata.Buffer {
	return dp.pp.B
}

// Denoise configures the iteration count and runs the filter.
func (dp *DenoisePass) Denoise(color *metadata.Buffer, aux metadata.DenoiseAux, iterations int) (*metadata.Buffer, error) {
	dp.Configure(iterations)
	return dp.Run(color, aux)
}

// Run filters the first three channels of color. color is never written.
// Depth and normal guides are required, moments are optional. With a history
// guide, moments are only trusted where at least four frames were
// accumulated.
func (dp *DenoisePass) Run(color *metadata.Buffer, aux metadata.DenoiseAux) (*metadata.Buffer, error) {
	if err := color.CheckSize(dp.width, dp.height); err != nil {
		return nil, fmt.Errorf("denoise color: %w", err)
	}
	if color.Channels < 3 {
		return nil, fmt.Errorf("denoise color has %d channels, need 3", color.Channels)
	}
	if err := aux.Depth.CheckSize(dp.width, dp.height); err != nil {
		return nil, fmt.Errorf("denoise depth: %w", err)
	}
	if err := aux.Normal.CheckSize(dp.width, dp.height); err != nil {
		return nil, fmt.Errorf("denoise normal: %w", err)
	}
	if aux.Moments != nil {
		if err := aux.Moments.CheckSize(dp.width, dp.height); err != nil {
			return nil, fmt.Errorf("denoise moments: %w", err)
		}
	}
	if aux.History != nil {
		if err := aux.History.CheckSize(dp.width, dp.height); err != nil {
			return nil, fmt.Errorf("denoise history: %w", err)
		}
		if aux.History.Channels < 4 {
			return nil, fmt.Errorf("denoise history has %d channels, need 4", aux.History.Channels)
		}
	}

	if dp.cfg.Iterations <= 0 {
		copyColor(dp.pp.B, color)
		return dp.pp.B, nil
	}

	src := color
	for pass := 0; pass < 2*dp.cfg.Iterations; pass++ {
		step := 1 << (pass / 2)
		if pass%2 == 0 {
			dp.halfPass(src, dp.pp.A, aux, step, 1, 0)
			src = dp.pp.A
		} else {
			dp.halfPass(src, dp.pp.B, aux, step, 0, 1)
			src = dp.pp.B
		}
	}
	return dp.pp.B, nil
}

// halfPass runs the 1D filter along (dirX, dirY) from src into dst.
func (dp *DenoisePass) halfPass(src, dst *metadata.Buffer, aux metadata.DenoiseAux, step, dirX, dirY int) {
	cfg := dp.cfg
	dp.dispatcher.Dispatch(dp.height, func(y int) {
		for x := 0; x < dp.width; x++ {
			centre := src.Pixel(x, y)
			cLuma := math.Luminance(centre[0], centre[1], centre[2])
			cDepth := aux.Depth.At(x, y, 0)
			cNormal := aux.Normal.Pixel(x, y)
			sigma := localSigma(src, aux, x, y)

			var sum [3]float32
			total := float32(0)
			for k := -2; k <= 2; k++ {
				sx, sy := x+k*step*dirX, y+k*step*dirY
				if !src.InBounds(sx, sy) {
					continue
				}
				w := atrousKernel[k+2]
				if k != 0 {
					tap := src.Pixel(sx, sy)
					w *= depthStop(cDepth, aux.Depth.At(sx, sy, 0), cfg.DepthPhi)
					w *= normalStop(cNormal, aux.Normal.Pixel(sx, sy), cfg.NormalPhi)
					w *= lumaStop(cLuma, math.Luminance(tap[0], tap[1], tap[2]), sigma, cfg.LumaPhi)
				}
				if w < minTapWeight {
					continue
				}
				tap := src.Pixel(sx, sy)
				sum[0] += tap[0] * w
				sum[1] += tap[1] * w
				sum[2] += tap[2] * w
				total += w
			}

			if total < minTapWeight {
				dst.Set(x, y, centre[0], centre[1], centre[2])
				continue
			}
			dst.Set(x, y, sum[0]/total, sum[1]/total, sum[2]/total)
		}
	})
}

// localSigma is the luminance standard deviation at (x, y), from the moments
// buffer when it holds enough frames, else from the 3x3 neighbourhood of src.
func localSigma(src *metadata.Buffer, aux metadata.DenoiseAux, x, y int) float32 {
	if aux.Moments != nil && (aux.History == nil || aux.History.At(x, y, 3) >= minMomentsFrames) {
		m1 := aux.Moments.At(x, y, 0)
		m2 := aux.Moments.At(x, y, 1)
		return math.Sqrt(math.Max(0, m2-m1*m1))
	}
	var s1, s2 float32
	n := float32(0)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if !src.InBounds(x+dx, y+dy) {
				continue
			}
			p := src.Pixel(x+dx, y+dy)
			l := math.Luminance(p[0], p[1], p[2])
			s1 += l
			s2 += l * l
			n++
		}
	}
	mean := s1 / n
	return math.Sqrt(math.Max(0, s2/n-mean*mean))
}

func depthStop(a, b, phi float32) float32 {
	d := math.Abs(a - b)
	if phi <= 0 {
		return hardStop(d == 0)
	}
	return math.Exp(-d / phi)
}

func normalStop(a, b []float32, phi float32) float32 {
	na := math.NewVec3(a[0], a[1], a[2])
	nb := math.NewVec3(b[0], b[1], b[2])
	dot := na.Dot(nb)
	if na.LengthSquared() == 0 && nb.LengthSquared() == 0 {
		dot = 1
	}
	d := math.Max(0, 1-dot)
	if phi <= 0 {
		return hardStop(d <= minTapWeight)
	}
	return math.Exp(-d / phi)
}

func lumaStop(a, b, sigma, phi float32) float32 {
	d := math.Abs(a - b)
	if phi <= 0 {
		return hardStop(d == 0)
	}
	return math.Exp(-d / (phi*sigma + lumaEpsilon))
}

func hardStop(pass bool) float32 {
	if pass {
		return 1
	}
	return 0
}

// copyColor writes the first three channels of src into dst.
func copyColor(dst, src *metadata.Buffer) {
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			p := src.Pixel(x, y)
			dst.Set(x, y, p[0], p[1], p[2])
		}
	}
}
