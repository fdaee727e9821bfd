package cpu

import (
	"fmt"
	"runtime"

	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/systems"
)

// Backend runs pass kernels on a pool of worker goroutines. With one worker
// every row runs on the calling goroutine.
type Backend struct {
	workers     int
	jobs        *systems.JobSystem
	width       uint32
	height      uint32
	frameNumber uint64
	inFrame     bool
}

// New creates a backend with the given number of workers. Zero or less uses
// one worker per CPU.
func New(workers int) *Backend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Backend{workers: workers}
}

func (b *Backend) Initialize(appName string, appWidth, appHeight uint32) error {
	if b.jobs != nil {
		return fmt.Errorf("cpu backend already initialized")
	}
	if b.workers > 1 {
		js, err := systems.NewJobSystem(b.workers, b.workers*4)
		if err != nil {
			return err
		}
		b.jobs = js
	}
	b.width = appWidth
	b.height = appHeight
	core.LogInfo("cpu backend initialized", "app", appName, "workers", b.workers, "width", appWidth, "height", appHeight)
	return nil
}

func (b *Backend) Shutdown() error {
	if b.jobs == nil {
		return nil
	}
	err := b.jobs.Shutdown()
	b.jobs = nil
	return err
}

func (b *Backend) Resized(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("cpu backend resize to %dx%d: %w", width, height, core.ErrResolutionMismatch)
	}
	b.width = width
	b.height = height
	core.LogDebug("cpu backend resized", "width", width, "height", height)
	return nil
}

func (b *Backend) BeginFrame(deltaTime float64) error {
	if b.inFrame {
		return fmt.Errorf("cpu backend: frame %d already in flight", b.frameNumber)
	}
	b.inFrame = true
	return nil
}

func (b *Backend) EndFrame(deltaTime float64) error {
	if !b.inFrame {
		return fmt.Errorf("cpu backend: EndFrame without BeginFrame")
	}
	b.inFrame = false
	b.frameNumber++
	return nil
}

func (b *Backend) IsMultithreaded() bool {
	return b.jobs != nil
}

// Dispatch runs kernel for every row and returns when all rows are done, so
// one stage's writes are complete before the next stage reads them.
func (b *Backend) Dispatch(rows int, kernel func(row int)) {
	if b.jobs == nil {
		for y := 0; y < rows; y++ {
			kernel(y)
		}
		return
	}
	b.jobs.Dispatch(rows, kernel)
}

func (b *Backend) FrameNumber() uint64 {
	return b.frameNumber
}

func (b *Backend) Size() (uint32, uint32) {
	return b.width, b.height
}
