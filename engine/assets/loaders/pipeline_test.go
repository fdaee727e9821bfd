package loaders

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/metadata"
)

func TestDecodePipelineConfigOverridesDefaults(t *testing.T) {
	const doc = `
log_level = "debug"

[temporal]
blend = 0.8
sampling = "bilinear"
dilation = true
dilation_mode = "largest-motion"

[denoise]
iterations = 5
`
	cfg, err := DecodePipelineConfig(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" || cfg.Temporal.Blend != 0.8 || cfg.Denoise.Iterations != 5 {
		t.Errorf("decoded = %+v", cfg)
	}
	if cfg.Temporal.Sampling != metadata.SamplingBilinear || cfg.Temporal.DilationMode != metadata.DilationLargestMotion {
		t.Errorf("modes = %v %v", cfg.Temporal.Sampling, cfg.Temporal.DilationMode)
	}
	// untouched keys keep their default
	def := metadata.DefaultPipelineConfig()
	if cfg.Denoise.LumaPhi != def.Denoise.LumaPhi || cfg.Jitter != def.Jitter {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestDecodePipelineConfigRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":   "[temporal]\nblur = 1\n",
		"bad syntax":    "[temporal\n",
		"invalid value": "[temporal]\nblend = 3.0\n",
		"bad mode":      "[temporal]\nsampling = \"lanczos\"\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodePipelineConfig(strings.NewReader(doc)); !errors.Is(err, core.ErrInvalidConfig) {
				t.Errorf("got %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestPipelineConfigEncodeDecode(t *testing.T) {
	cfg := metadata.DefaultPipelineConfig()
	cfg.Temporal.FullAccumulate = true
	cfg.Temporal.Sampling = metadata.SamplingNearest
	cfg.Jitter.Scale = 0.5

	var buf bytes.Buffer
	if err := EncodePipelineConfig(&buf, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := DecodePipelineConfig(&buf)
	if err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if got.Temporal.FullAccumulate != true || got.Temporal.Sampling != metadata.SamplingNearest || got.Jitter.Scale != 0.5 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestPipelineConfigLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.toml")
	if err := os.WriteFile(path, []byte("[denoise]\niterations = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := (&PipelineConfigLoader{}).Load(path, metadata.ResourceTypePipelineConfig, nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg := res.Data.(metadata.PipelineConfig)
	if cfg.Denoise.Iterations != 2 || res.Name != "pipeline.toml" || res.Type != metadata.ResourceTypePipelineConfig {
		t.Errorf("resource = %+v", res)
	}
	if _, err := (&PipelineConfigLoader{}).Load(filepath.Join(t.TempDir(), "missing.toml"), metadata.ResourceTypePipelineConfig, nil); err == nil {
		t.Error("missing file loaded")
	}
}
