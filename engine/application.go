package engine

import (
	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/renderer"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/metadata"
)

type ApplicationConfig struct {
	// Starting width of the output frames.
	StartWidth uint32
	// Starting height of the output frames.
	StartHeight uint32
	// The application name, used in logs.
	Name     string
	LogLevel core.LogLevel
	// Number of frames to run. Zero runs until quit.
	FrameCount uint64
	// Minimum wall time per frame in seconds. Zero does not limit.
	TargetFrameSeconds float64
	// Assets directory to index and watch. Optional.
	AssetsDir string
	// Pipeline TOML file. Loaded at start and reloaded when it changes. Optional.
	ConfigPath string
	// Pipeline configuration used when ConfigPath is empty.
	Pipeline metadata.PipelineConfig
	Backend  renderer.RendererType
	// Worker goroutines for the cpu backend. Zero uses one per CPU.
	Workers int
}
