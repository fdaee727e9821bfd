package metadata

import (
	"errors"
	m "math"
	"testing"

	"github.com/spaghettifunk/anima-temporal/engine/core"
)

func TestBufferChannelsPerRole(t *testing.T) {
	want := map[BufferRole]int{
		BufferRoleColor:        3,
		BufferRoleDepth:        1,
		BufferRoleNormal:       3,
		BufferRoleVelocity:     2,
		BufferRoleMoments:      2,
		BufferRoleAccumulation: 4,
	}
	for role, channels := range want {
		b := NewBuffer(role, 3, 2)
		if b.Channels != channels || len(b.Pix) != 3*2*channels {
			t.Errorf("%s: channels=%d len=%d", role, b.Channels, len(b.Pix))
		}
	}
}

func TestBufferAtClampsToEdge(t *testing.T) {
	b := NewBuffer(BufferRoleDepth, 2, 2)
	b.Set(0, 0, 1)
	b.Set(1, 1, 4)
	if got := b.At(-5, -5, 0); got != 1 {
		t.Errorf("At(-5,-5) = %v, want 1", got)
	}
	if got := b.At(10, 10, 0); got != 4 {
		t.Errorf("At(10,10) = %v, want 4", got)
	}
}

func TestBufferCopyFrom(t *testing.T) {
	a := NewBuffer(BufferRoleColor, 2, 2)
	a.Fill(0.5, 0.25, 1)
	b := NewBuffer(BufferRoleColor, 2, 2)
	if err := b.CopyFrom(a); err != nil {
		t.Fatal(err)
	}
	if b.At(1, 0, 1) != 0.25 {
		t.Error("copy lost data")
	}
	if err := b.CopyFrom(b); !errors.Is(err, core.ErrAliasedSnapshot) {
		t.Errorf("self copy: got %v", err)
	}
	if err := b.CopyFrom(NewBuffer(BufferRoleDepth, 2, 2)); !errors.Is(err, core.ErrResolutionMismatch) {
		t.Errorf("channel mismatch: got %v", err)
	}
}

func TestBufferCheckSize(t *testing.T) {
	var missing *Buffer
	if err := missing.CheckSize(1, 1); !errors.Is(err, core.ErrMissingInput) {
		t.Errorf("nil buffer: got %v", err)
	}
	b := NewBuffer(BufferRoleColor, 4, 2)
	if err := b.CheckSize(4, 2); err != nil {
		t.Errorf("matching size: %v", err)
	}
	if err := b.CheckSize(2, 4); !errors.Is(err, core.ErrResolutionMismatch) {
		t.Errorf("mismatch: got %v", err)
	}
}

func TestSampleAtPixelCentres(t *testing.T) {
	b := NewBuffer(BufferRoleDepth, 4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			b.Set(x, y, float32(x*10+y))
		}
	}
	dst := make([]float32, 1)
	for _, mode := range []SamplingMode{SamplingNearest, SamplingBilinear, SamplingCatmullRom} {
		b.Sample(mode, 2.5, 1.5, dst)
		if m.Abs(float64(dst[0]-21)) > 1e-5 {
			t.Errorf("%s at centre = %v, want 21", mode, dst[0])
		}
	}
}

func TestSampleBilinearMidpoint(t *testing.T) {
	b := NewBuffer(BufferRoleDepth, 2, 1)
	b.Set(0, 0, 0)
	b.Set(1, 0, 1)
	dst := make([]float32, 1)
	b.Sample(SamplingBilinear, 1.0, 0.5, dst)
	if m.Abs(float64(dst[0]-0.5)) > 1e-6 {
		t.Errorf("bilinear midpoint = %v, want 0.5", dst[0])
	}
}

func TestSampleCatmullRomReproducesLinearRamp(t *testing.T) {
	b := NewBuffer(BufferRoleDepth, 8, 1)
	for x := 0; x < 8; x++ {
		b.Set(x, 0, float32(x))
	}
	dst := make([]float32, 1)
	// away from the edges a cubic through a ramp is exact
	b.Sample(SamplingCatmullRom, 3.8, 0.5, dst)
	if m.Abs(float64(dst[0]-3.3)) > 1e-4 {
		t.Errorf("catmull-rom ramp = %v, want 3.3", dst[0])
	}
}

func TestCatmullRomWeightsSumToOne(t *testing.T) {
	for _, f := range []float32{0, 0.1, 0.5, 0.77, 0.99} {
		w := catmullRomWeights(f)
		sum := w[0] + w[1] + w[2] + w[3]
		if m.Abs(float64(sum-1)) > 1e-6 {
			t.Errorf("weights(%v) sum = %v", f, sum)
		}
	}
}
