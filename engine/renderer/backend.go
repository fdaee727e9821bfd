package renderer

import "github.com/spaghettifunk/anima-temporal/engine/renderer/metadata"

// RendererBackend owns the compute resources the passes run on.
type RendererBackend interface {
	metadata.Dispatcher
	Initialize(appName string, appWidth, appHeight uint32) error
	Shutdown() error
	Resized(width, height uint32) error
	BeginFrame(deltaTime float64) error
	EndFrame(deltaTime float64) error
	IsMultithreaded() bool
}

type RendererType uint8

const (
	CPU RendererType = iota
	Serial
)

func (t RendererType) String() string {
	switch t {
	case CPU:
		return "cpu"
	case Serial:
		return "serial"
	default:
		return "unknown"
	}
}
