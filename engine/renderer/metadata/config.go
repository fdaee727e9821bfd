package metadata

import (
	"fmt"

	"github.com/spaghettifunk/anima-temporal/engine/core"
)

/** @brief How the resolver picks the motion vector of a pixel when dilation is on. */
type DilationMode int

const (
	/** @brief Use the motion of the nearest-depth pixel in the 3x3 neighbourhood. */
	DilationClosestDepth DilationMode = iota
	/** @brief Use the longest motion vector in the 3x3 neighbourhood. */
	DilationLargestMotion
)

func (m DilationMode) String() string {
	switch m {
	case DilationClosestDepth:
		return "closest-depth"
	case DilationLargestMotion:
		return "largest-motion"
	default:
		return fmt.Sprintf("dilation(%d)", int(m))
	}
}

func (m DilationMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *DilationMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "closest-depth", "":
		*m = DilationClosestDepth
	case "largest-motion":
		*m = DilationLargestMotion
	default:
		return fmt.Errorf("dilation mode %q: %w", string(text), core.ErrInvalidConfig)
	}
	return nil
}

func (m SamplingMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *SamplingMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "nearest":
		*m = SamplingNearest
	case "bilinear":
		*m = SamplingBilinear
	case "catmull-rom", "":
		*m = SamplingCatmullRom
	default:
		return fmt.Errorf("sampling mode %q: %w", string(text), core.ErrInvalidConfig)
	}
	return nil
}

// ComposeSample is what a custom composition receives for one pixel with
// validated history. Colours are already in the blend domain (log space when
// the log transform is on) and History is already clamped when neighbourhood
// clamping is on. Alpha is the weight the built-in blend would give History.
type ComposeSample struct {
	History    [3]float32
	Current    [3]float32
	Alpha      float32
	FrameCount float32
}

// ComposeFunc replaces the history/current blend. It must be safe to call
// from several goroutines at once.
type ComposeFunc func(s ComposeSample) [3]float32

/** @brief Temporal resolver settings. */
type TemporalConfig struct {
	/** @brief History weight limit in [0, 1]. */
	Blend float32 `toml:"blend"`
	/** @brief Use Blend as a fixed weight regardless of the frame count. */
	ConstantBlend bool `toml:"constant_blend"`
	/** @brief Running mean over every accumulated frame. */
	FullAccumulate bool `toml:"full_accumulate"`
	/** @brief History colour reconstruction filter. */
	Sampling SamplingMode `toml:"sampling"`
	/** @brief Pick motion from the 3x3 neighbourhood. */
	Dilation     bool         `toml:"dilation"`
	DilationMode DilationMode `toml:"dilation_mode"`
	/** @brief Clamp history into the current-frame 3x3 colour range. */
	NeighborhoodClamp bool `toml:"neighborhood_clamp"`
	/** @brief Blend in log(1+c) space. */
	LogTransform bool `toml:"log_transform"`
	/** @brief Absolute linear depth difference. Zero or less disables. */
	DepthDistance float32 `toml:"depth_distance"`
	/** @brief Normal angle in radians. Zero or less disables. */
	NormalDistance float32 `toml:"normal_distance"`
	/** @brief World-space distance between reconstructed positions. Zero or less disables. */
	WorldDistance float32 `toml:"world_distance"`
	/** @brief Read the velocity buffer. When false motion is reconstructed from depth and cameras. */
	UseVelocity bool `toml:"use_velocity"`
	/** @brief Cap of the per-pixel frame count. Zero means no cap. */
	MaxAccumulatedFrames float32 `toml:"max_accumulated_frames"`
	/** @brief Optional blend replacement. Not read from files. */
	Compose ComposeFunc `toml:"-"`
}

/** @brief Spatial denoiser settings. */
type DenoiseConfig struct {
	Iterations int     `toml:"iterations"`
	LumaPhi    float32 `toml:"luma_phi"`
	DepthPhi   float32 `toml:"depth_phi"`
	NormalPhi  float32 `toml:"normal_phi"`
}

/** @brief Sub-pixel jitter settings. */
type JitterConfig struct {
	Enabled bool    `toml:"enabled"`
	Scale   float32 `toml:"scale"`
}

// PipelineConfig is the whole per-frame configuration. It is passed by value
// and replaced only between frames.
type PipelineConfig struct {
	// Empty leaves the logger at the application level.
	LogLevel string         `toml:"log_level"`
	Temporal TemporalConfig `toml:"temporal"`
	Denoise  DenoiseConfig  `toml:"denoise"`
	Jitter   JitterConfig   `toml:"jitter"`
}

func DefaultTemporalConfig() TemporalConfig {
	return TemporalConfig{
		Blend:             0.9,
		Sampling:          SamplingCatmullRom,
		DilationMode:      DilationClosestDepth,
		NeighborhoodClamp: false,
		DepthDistance:     0.5,
		NormalDistance:    0.5,
		WorldDistance:     0,
		UseVelocity:       true,
	}
}

func DefaultDenoiseConfig() DenoiseConfig {
	return DenoiseConfig{
		Iterations: 3,
		LumaPhi:    4,
		DepthPhi:   1,
		NormalPhi:  0.1,
	}
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Temporal: DefaultTemporalConfig(),
		Denoise:  DefaultDenoiseConfig(),
		Jitter: JitterConfig{
			Enabled: true,
			Scale:   1,
		},
	}
}

func (c TemporalConfig) Validate() error {
	if c.Blend < 0 || c.Blend > 1 {
		return fmt.Errorf("temporal blend %v outside [0, 1]: %w", c.Blend, core.ErrInvalidConfig)
	}
	if c.Sampling < SamplingNearest || c.Sampling > SamplingCatmullRom {
		return fmt.Errorf("temporal sampling %v: %w", c.Sampling, core.ErrInvalidConfig)
	}
	if c.DilationMode < DilationClosestDepth || c.DilationMode > DilationLargestMotion {
		return fmt.Errorf("temporal dilation mode %v: %w", c.DilationMode, core.ErrInvalidConfig)
	}
	if c.MaxAccumulatedFrames < 0 {
		return fmt.Errorf("max accumulated frames %v is negative: %w", c.MaxAccumulatedFrames, core.ErrInvalidConfig)
	}
	return nil
}

func (c DenoiseConfig) Validate() error {
	if c.Iterations < 0 {
		return fmt.Errorf("denoise iterations %d is negative: %w", c.Iterations, core.ErrInvalidConfig)
	}
	// each iteration doubles the tap spacing twice; beyond this the step overflows any real frame
	if c.Iterations > 16 {
		return fmt.Errorf("denoise iterations %d above 16: %w", c.Iterations, core.ErrInvalidConfig)
	}
	return nil
}

func (c JitterConfig) Validate() error {
	if c.Scale < 0 {
		return fmt.Errorf("jitter scale %v is negative: %w", c.Scale, core.ErrInvalidConfig)
	}
	return nil
}

// Validate checks every section and the log level name.
func (c PipelineConfig) Validate() error {
	if c.LogLevel != "" {
		if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
			return fmt.Errorf("log level %q: %w", c.LogLevel, core.ErrInvalidConfig)
		}
	}
	if err := c.Temporal.Validate(); err != nil {
		return err
	}
	if err := c.Denoise.Validate(); err != nil {
		return err
	}
	return c.Jitter.Validate()
}
