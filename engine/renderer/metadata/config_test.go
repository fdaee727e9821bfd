package metadata

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/anima-temporal/engine/core"
)

func TestDefaultPipelineConfigIsValid(t *testing.T) {
	cfg := DefaultPipelineConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Temporal.Sampling != SamplingCatmullRom {
		t.Errorf("default sampling = %v", cfg.Temporal.Sampling)
	}
}

func TestPipelineConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *PipelineConfig)
	}{
		{"blend above one", func(c *PipelineConfig) { c.Temporal.Blend = 1.5 }},
		{"negative blend", func(c *PipelineConfig) { c.Temporal.Blend = -0.1 }},
		{"bad sampling", func(c *PipelineConfig) { c.Temporal.Sampling = SamplingMode(9) }},
		{"bad dilation", func(c *PipelineConfig) { c.Temporal.DilationMode = DilationMode(-1) }},
		{"negative cap", func(c *PipelineConfig) { c.Temporal.MaxAccumulatedFrames = -1 }},
		{"negative iterations", func(c *PipelineConfig) { c.Denoise.Iterations = -1 }},
		{"too many iterations", func(c *PipelineConfig) { c.Denoise.Iterations = 17 }},
		{"negative jitter", func(c *PipelineConfig) { c.Jitter.Scale = -1 }},
		{"bad log level", func(c *PipelineConfig) { c.LogLevel = "chatty" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPipelineConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, core.ErrInvalidConfig) {
				t.Errorf("got %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestModeTextRoundTrip(t *testing.T) {
	for _, mode := range []SamplingMode{SamplingNearest, SamplingBilinear, SamplingCatmullRom} {
		text, _ := mode.MarshalText()
		var got SamplingMode
		if err := got.UnmarshalText(text); err != nil || got != mode {
			t.Errorf("sampling %v -> %q -> %v (%v)", mode, text, got, err)
		}
	}
	var d DilationMode
	if err := d.UnmarshalText([]byte("largest-motion")); err != nil || d != DilationLargestMotion {
		t.Errorf("dilation = %v (%v)", d, err)
	}
	if err := d.UnmarshalText([]byte("sideways")); !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("got %v, want ErrInvalidConfig", err)
	}
}
