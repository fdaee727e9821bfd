package loaders

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/metadata"
)

// PipelineConfigLoader reads TOML pipeline configuration. Keys missing from
// the file keep their default value and unknown keys are rejected.
type PipelineConfigLoader struct{}

func (pl *PipelineConfigLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := DecodePipelineConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &metadata.Resource{
		Type:     metadata.ResourceTypePipelineConfig,
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(data)),
		Data:     cfg,
	}, nil
}

func (pl *PipelineConfigLoader) Unload(*metadata.Resource) error {
	return nil
}

// DecodePipelineConfig decodes r over DefaultPipelineConfig and validates
// the result.
func DecodePipelineConfig(r io.Reader) (metadata.PipelineConfig, error) {
	cfg := metadata.DefaultPipelineConfig()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, fmt.Errorf("%s: %w", strict.String(), core.ErrInvalidConfig)
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return cfg, fmt.Errorf("line %d column %d: %s: %w", row, col, decodeErr.Error(), core.ErrInvalidConfig)
		}
		return cfg, fmt.Errorf("%v: %w", err, core.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// EncodePipelineConfig writes cfg as TOML.
func EncodePipelineConfig(w io.Writer, cfg metadata.PipelineConfig) error {
	enc := toml.NewEncoder(w)
	return enc.Encode(cfg)
}
