package renderer

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/components"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/metadata"
)

type flatSource struct {
	value    float32
	jittered []bool
}

func (s *flatSource) Render(camera *components.Camera, frameNumber uint64, dst *metadata.Buffer) error {
	s.jittered = append(s.jittered, camera.HasViewOffset())
	dst.Fill(s.value, s.value, s.value)
	return nil
}

type flatExtractor struct {
	currentJittered []bool
	previousValid   []bool
	fail            error
}

func (e *flatExtractor) Extract(current, previous components.CameraState, frameNumber uint64, dst *metadata.GeometryBuffers) error {
	if e.fail != nil {
		return e.fail
	}
	e.currentJittered = append(e.currentJittered, current.Jittered)
	e.previousValid = append(e.previousValid, previous.Valid)
	dst.Depth.Fill(1)
	dst.Normal.Fill(0, 0, 1)
	dst.Velocity.Fill(0, 0)
	return nil
}

func newTestRenderer(t *testing.T, cfg metadata.PipelineConfig) (*Renderer, *flatSource, *flatExtractor) {
	t.Helper()
	backend, err := NewBackend(CPU, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := backend.Initialize("renderer-test", 8, 6); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { backend.Shutdown() })

	source := &flatSource{value: 0.5}
	extractor := &flatExtractor{}
	r, err := New(8, 6, backend, source, extractor, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return r, source, extractor
}

func TestDrawFrameJittersBeautyOnly(t *testing.T) {
	r, source, extractor := newTestRenderer(t, metadata.DefaultPipelineConfig())
	for i := uint64(0); i < 3; i++ {
		if _, err := r.DrawFrame(&metadata.RenderPacket{DeltaTime: 0.016, FrameNumber: i}); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	for i := range source.jittered {
		if !source.jittered[i] {
			t.Errorf("frame %d beauty pass was not jittered", i)
		}
		if extractor.currentJittered[i] {
			t.Errorf("frame %d extraction saw a jittered camera", i)
		}
	}
	if extractor.previousValid[0] || !extractor.previousValid[1] {
		t.Errorf("previous camera validity = %v", extractor.previousValid)
	}
	if !r.Camera().HasViewOffset() {
		t.Error("jitter for the next frame should be installed")
	}
}

func TestDrawFrameFirstFrameMatchesRaw(t *testing.T) {
	cfg := metadata.DefaultPipelineConfig()
	cfg.Jitter.Enabled = false
	r, source, _ := newTestRenderer(t, cfg)
	res, err := r.DrawFrame(&metadata.RenderPacket{FrameNumber: 1})
	if err != nil {
		t.Fatal(err)
	}
	if source.jittered[0] {
		t.Error("jitter disabled but beauty pass was jittered")
	}
	if got := res.Resolved.At(3, 3, 0); got != 0.5 {
		t.Errorf("resolved = %v, want 0.5", got)
	}
	if got := res.Denoised.At(3, 3, 0); !(got > 0.4999 && got < 0.5001) {
		t.Errorf("denoised = %v, want 0.5", got)
	}
	if res.FrameNumber != 1 || res.Raw.At(0, 0, 0) != 0.5 {
		t.Errorf("result = %+v", res)
	}
}

func TestOnResizeDropsHistory(t *testing.T) {
	r, _, extractor := newTestRenderer(t, metadata.DefaultPipelineConfig())
	for i := uint64(0); i < 2; i++ {
		if _, err := r.DrawFrame(&metadata.RenderPacket{FrameNumber: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.OnResize(4, 5); err != nil {
		t.Fatal(err)
	}
	res, err := r.DrawFrame(&metadata.RenderPacket{FrameNumber: 2})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Resolved.HasSize(4, 5) || !res.Denoised.HasSize(4, 5) {
		t.Errorf("output not resized")
	}
	if extractor.previousValid[2] {
		t.Error("extractor saw a previous camera after resize")
	}
	if got := res.Resolved.At(0, 0, 3); got != 1 {
		t.Errorf("frame count after resize = %v, want 1", got)
	}
	if err := r.OnResize(0, 5); !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("zero resize: %v", err)
	}
}

func TestSetConfigRejectsInvalid(t *testing.T) {
	r, _, _ := newTestRenderer(t, metadata.DefaultPipelineConfig())
	bad := metadata.DefaultPipelineConfig()
	bad.Temporal.Blend = 2
	if err := r.SetConfig(bad); !errors.Is(err, core.ErrInvalidConfig) {
		t.Fatalf("got %v, want ErrInvalidConfig", err)
	}
	if r.Config().Temporal.Blend != metadata.DefaultTemporalConfig().Blend {
		t.Error("invalid config replaced the current one")
	}

	good := metadata.DefaultPipelineConfig()
	good.Denoise.Iterations = 1
	good.Jitter.Enabled = false
	if err := r.SetConfig(good); err != nil {
		t.Fatal(err)
	}
	if r.Config().Denoise.Iterations != 1 || r.Camera().HasViewOffset() {
		t.Error("config not applied")
	}
}

func TestDrawFrameReportsExtractorFailure(t *testing.T) {
	r, _, extractor := newTestRenderer(t, metadata.DefaultPipelineConfig())
	extractor.fail = core.ErrMissingInput
	if _, err := r.DrawFrame(&metadata.RenderPacket{}); !errors.Is(err, core.ErrMissingInput) {
		t.Fatalf("got %v", err)
	}
	// the backend frame was closed, so the next frame can start
	extractor.fail = nil
	if _, err := r.DrawFrame(&metadata.RenderPacket{FrameNumber: 1}); err != nil {
		t.Fatal(err)
	}
}

func TestNewValidatesArguments(t *testing.T) {
	backend, _ := NewBackend(Serial, 0)
	if _, err := New(0, 4, backend, &flatSource{}, &flatExtractor{}, metadata.DefaultPipelineConfig()); !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("zero width: %v", err)
	}
	if _, err := New(4, 4, backend, nil, &flatExtractor{}, metadata.DefaultPipelineConfig()); !errors.Is(err, core.ErrMissingInput) {
		t.Errorf("nil source: %v", err)
	}
	if _, err := NewBackend(RendererType(7), 1); err == nil {
		t.Error("unknown backend type accepted")
	}
}
