package passes

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/metadata"
)

func uniformGuides(width, height int) metadata.DenoiseAux {
	depth := metadata.NewBuffer(metadata.BufferRoleDepth, width, height)
	depth.Fill(2)
	normal := metadata.NewBuffer(metadata.BufferRoleNormal, width, height)
	normal.Fill(0, 1, 0)
	return metadata.DenoiseAux{Depth: depth, Normal: normal}
}

// checker returns base plus or minus amp in a checkerboard.
func checker(x, y int, base, amp float32) float32 {
	if (x+y)%2 == 0 {
		return base + amp
	}
	return base - amp
}

func TestDenoiseUniformInputUnchanged(t *testing.T) {
	const w, h = 9, 7
	color := metadata.NewBuffer(metadata.BufferRoleColor, w, h)
	color.Fill(0.25, 0.5, 0.75)

	withMoments := uniformGuides(w, h)
	withMoments.Moments = metadata.NewBuffer(metadata.BufferRoleMoments, w, h)
	withMoments.Moments.Fill(0.5, 0.25)

	for _, aux := range []metadata.DenoiseAux{uniformGuides(w, h), withMoments} {
		for iterations := 0; iterations <= 4; iterations++ {
			dp := NewDenoisePass(w, h, nil)
			out, err := dp.Denoise(color, aux, iterations)
			if err != nil {
				t.Fatalf("Denoise(%d): %v", iterations, err)
			}
			for i, v := range out.Pix {
				want := color.Pix[i]
				if !approx(v, want, 1e-5) {
					t.Fatalf("iterations=%d moments=%v: pix[%d] = %v, want %v",
						iterations, aux.Moments != nil, i, v, want)
				}
			}
		}
	}
}

func TestDenoisePreservesDepthEdges(t *testing.T) {
	const w, h = 16, 8
	color := metadata.NewBuffer(metadata.BufferRoleColor, w, h)
	aux := uniformGuides(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				v := checker(x, y, 0.1, 0.05)
				color.Set(x, y, v, v, v)
				aux.Depth.Set(x, y, 1)
			} else {
				v := checker(x, y, 0.9, 0.05)
				color.Set(x, y, v, v, v)
				aux.Depth.Set(x, y, 50)
			}
		}
	}

	for _, phi := range []float32{0, 0.01, 0.1, 1, 2} {
		dp := NewDenoisePass(w, h, nil)
		dp.SetConfig(metadata.DenoiseConfig{Iterations: 4, LumaPhi: 1e6, DepthPhi: phi, NormalPhi: 1})
		out, err := dp.Run(color, aux)
		if err != nil {
			t.Fatal(err)
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				lo, hi := float32(0.05), float32(0.15)
				if x >= w/2 {
					lo, hi = 0.85, 0.95
				}
				if v := out.At(x, y, 0); v < lo-1e-4 || v > hi+1e-4 {
					t.Fatalf("depthPhi=%v: pixel (%d,%d) = %v bled across the edge", phi, x, y, v)
				}
			}
		}
	}
}

func TestDenoiseReducesNoise(t *testing.T) {
	const w, h = 16, 16
	color := metadata.NewBuffer(metadata.BufferRoleColor, w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := checker(x, y, 0.5, 0.2)
			color.Set(x, y, v, v, v)
		}
	}
	dp := NewDenoisePass(w, h, nil)
	dp.SetConfig(metadata.DenoiseConfig{Iterations: 2, LumaPhi: 10, DepthPhi: 1, NormalPhi: 0.1})
	out, err := dp.Run(color, uniformGuides(w, h))
	if err != nil {
		t.Fatal(err)
	}
	if v := out.At(8, 8, 0); !approx(v, 0.5, 0.1) {
		t.Errorf("centre = %v, want close to 0.5", v)
	}
}

func TestDenoiseOutputHandleParity(t *testing.T) {
	const w, h = 6, 6
	color := metadata.NewBuffer(metadata.BufferRoleColor, w, h)
	color.Fill(1, 0, 0)
	aux := uniformGuides(w, h)

	dp := NewDenoisePass(w, h, nil)
	want := dp.Output()
	for _, iterations := range []int{0, 1, 2, 3, 4, 5} {
		out, err := dp.Denoise(color, aux, iterations)
		if err != nil {
			t.Fatal(err)
		}
		if out != want || out != dp.Output() {
			t.Errorf("iterations=%d returned a different buffer", iterations)
		}
		if out == color {
			t.Errorf("iterations=%d returned the input", iterations)
		}
	}
}

func TestDenoiseLeavesInputUntouched(t *testing.T) {
	const w, h = 8, 8
	color := metadata.NewBuffer(metadata.BufferRoleAccumulation, w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := checker(x, y, 0.5, 0.3)
			color.Set(x, y, v, v, v, float32(x))
		}
	}
	before := color.Clone()
	dp := NewDenoisePass(w, h, nil)
	if _, err := dp.Denoise(color, uniformGuides(w, h), 3); err != nil {
		t.Fatal(err)
	}
	for i := range color.Pix {
		if color.Pix[i] != before.Pix[i] {
			t.Fatalf("input pix[%d] changed", i)
		}
	}
}

func TestDenoiseZeroIterationsCopiesInput(t *testing.T) {
	const w, h = 3, 2
	color := metadata.NewBuffer(metadata.BufferRoleAccumulation, w, h)
	color.Fill(0.1, 0.2, 0.3, 9)
	dp := NewDenoisePass(w, h, nil)
	out, err := dp.Denoise(color, uniformGuides(w, h), 0)
	if err != nil {
		t.Fatal(err)
	}
	if out.Channels != 3 {
		t.Fatalf("output channels = %d", out.Channels)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := out.Pixel(x, y)
			if p[0] != 0.1 || p[1] != 0.2 || p[2] != 0.3 {
				t.Fatalf("pixel (%d,%d) = %v", x, y, p)
			}
		}
	}
}

func TestDenoiseEdgeStops(t *testing.T) {
	if got := depthStop(1, 1, 0); got != 1 {
		t.Errorf("hard depth stop on equal = %v", got)
	}
	if got := depthStop(1, 1.5, 0); got != 0 {
		t.Errorf("hard depth stop on step = %v", got)
	}
	if got := normalStop([]float32{0, 0, 0}, []float32{0, 0, 0}, 0.1); got != 1 {
		t.Errorf("empty normals = %v", got)
	}
	if got := normalStop([]float32{1, 0, 0}, []float32{0, 1, 0}, 0.1); got > 1e-4 {
		t.Errorf("perpendicular normals = %v", got)
	}
	if got := lumaStop(0.5, 0.5, 0, 4); got != 1 {
		t.Errorf("equal luma = %v", got)
	}
	if got := lumaStop(0.5, 0.6, 0, 0); got != 0 {
		t.Errorf("hard luma stop = %v", got)
	}
}

func TestDenoiseSizeMismatch(t *testing.T) {
	dp := NewDenoisePass(4, 4, nil)
	color := metadata.NewBuffer(metadata.BufferRoleColor, 4, 4)
	if _, err := dp.Run(metadata.NewBuffer(metadata.BufferRoleColor, 3, 4), uniformGuides(4, 4)); !errors.Is(err, core.ErrResolutionMismatch) {
		t.Errorf("color mismatch: %v", err)
	}
	if _, err := dp.Run(color, uniformGuides(4, 5)); !errors.Is(err, core.ErrResolutionMismatch) {
		t.Errorf("guide mismatch: %v", err)
	}
	if _, err := dp.Run(color, metadata.DenoiseAux{}); !errors.Is(err, core.ErrMissingInput) {
		t.Errorf("missing guides: %v", err)
	}

	dp.Resize(3, 4)
	if _, err := dp.Run(metadata.NewBuffer(metadata.BufferRoleColor, 3, 4), uniformGuides(3, 4)); err != nil {
		t.Errorf("after resize: %v", err)
	}
	if !dp.Output().HasSize(3, 4) {
		t.Error("output was not resized")
	}
}

func lumaVariance(b *metadata.Buffer) float64 {
	var s1, s2 float64
	n := float64(b.Width * b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			v := float64(b.At(x, y, 0))
			s1 += v
			s2 += v * v
		}
	}
	mean := s1 / n
	return s2/n - mean*mean
}

func TestDenoiseFiltersFreshHistory(t *testing.T) {
	const w, h = 32, 32
	in := flatFrame(w, h, 0, 0, 0)
	rng := rand.New(rand.NewSource(7))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := 0.5 + 0.3*(rng.Float32()-0.5)
			in.Color.Set(x, y, v, v, v)
		}
	}

	tp := NewTemporalResolvePass(w, h, nil)
	out := mustResolve(t, tp, in, metadata.DefaultTemporalConfig())

	dp := NewDenoisePass(w, h, nil)
	denoised, err := dp.Run(out.Accumulated, metadata.DenoiseAux{
		Depth:   in.Depth,
		Normal:  in.Normal,
		Moments: out.Moments,
		History: out.Accumulated,
	})
	if err != nil {
		t.Fatal(err)
	}

	raw := lumaVariance(in.Color)
	got := lumaVariance(denoised)
	if got > raw/4 {
		t.Errorf("variance %v after denoising, raw %v", got, raw)
	}
}

func TestDenoiseTrustsMomentsOnceAccumulated(t *testing.T) {
	const w, h = 8, 8
	color := metadata.NewBuffer(metadata.BufferRoleColor, w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := checker(x, y, 0.5, 0.2)
			color.Set(x, y, v, v, v)
		}
	}
	aux := uniformGuides(w, h)
	// zero variance: every luminance difference is an edge
	aux.Moments = metadata.NewBuffer(metadata.BufferRoleMoments, w, h)
	aux.Moments.Fill(0.5, 0.25)
	aux.History = metadata.NewBuffer(metadata.BufferRoleAccumulation, w, h)

	for _, tt := range []struct {
		frames   float32
		filtered bool
	}{
		{1, true},
		{3, true},
		{4, false},
		{16, false},
	} {
		aux.History.Fill(0, 0, 0, tt.frames)
		dp := NewDenoisePass(w, h, nil)
		out, err := dp.Denoise(color, aux, 2)
		if err != nil {
			t.Fatal(err)
		}
		unchanged := approx(out.At(3, 3, 0), color.At(3, 3, 0), 1e-5)
		if unchanged == tt.filtered {
			t.Errorf("frames=%v: centre %v from %v, filtered=%v", tt.frames, out.At(3, 3, 0), color.At(3, 3, 0), tt.filtered)
		}
	}
}

func TestDenoiseRejectsShallowHistory(t *testing.T) {
	const w, h = 4, 4
	color := metadata.NewBuffer(metadata.BufferRoleColor, w, h)
	aux := uniformGuides(w, h)
	aux.History = metadata.NewBuffer(metadata.BufferRoleColor, w, h)
	if _, err := NewDenoisePass(w, h, nil).Run(color, aux); err == nil {
		t.Error("three-channel history accepted")
	}
}
