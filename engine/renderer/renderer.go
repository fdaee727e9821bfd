package renderer

import (
	"fmt"
	"time"

	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/components"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/cpu"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/passes"
)

// FrameSource produces the noisy beauty signal with the jittered camera.
type FrameSource interface {
	Render(camera *components.Camera, frameNumber uint64, dst *metadata.Buffer) error
}

// GeometryExtractor fills depth, normal and velocity for the current frame.
// current is never jittered. previous is the zero state on the first frame
// and after a resize.
type GeometryExtractor interface {
	Extract(current, previous components.CameraState, frameNumber uint64, dst *metadata.GeometryBuffers) error
}

// pipeline stage names used for metrics
const (
	StageBeauty   = "beauty"
	StageGeometry = "geometry"
	StageTemporal = "temporal"
	StageDenoise  = "denoise"
)

type Renderer struct {
	backend   RendererBackend
	source    FrameSource
	extractor GeometryExtractor

	camera   *components.Camera
	jitter   *passes.JitterSequencer
	temporal *passes.TemporalResolvePass
	denoise  *passes.DenoisePass

	cfg      metadata.PipelineConfig
	width    int
	height   int
	color    *metadata.Buffer
	geometry metadata.GeometryBuffers
	previous components.CameraState
}

// NewBackend creates the backend for t.
func NewBackend(t RendererType, workers int) (RendererBackend, error) {
	switch t {
	case CPU:
		return cpu.New(workers), nil
	case Serial:
		return cpu.New(1), nil
	default:
		return nil, fmt.Errorf("unsupported renderer type %s", t)
	}
}

// New wires the pipeline around an initialized backend.
func New(width, height int, backend RendererBackend, source FrameSource, extractor GeometryExtractor, cfg metadata.PipelineConfig) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("renderer size %dx%d: %w", width, height, core.ErrInvalidConfig)
	}
	if backend == nil || source == nil || extractor == nil {
		return nil, core.ErrMissingInput
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	camera := components.NewCamera(uint32(width), uint32(height))
	r := &Renderer{
		backend:   backend,
		source:    source,
		extractor: extractor,
		camera:    camera,
		jitter:    passes.NewJitterSequencer(camera),
		temporal:  passes.NewTemporalResolvePass(width, height, backend),
		denoise:   passes.NewDenoisePass(width, height, backend),
		cfg:       cfg,
	}
	r.allocate(width, height)
	return r, nil
}

func (r *Renderer) allocate(width, height int) {
	r.width = width
	r.height = height
	r.color = metadata.NewBuffer(metadata.BufferRoleColor, width, height)
	r.geometry = metadata.GeometryBuffers{
		Depth:    metadata.NewBuffer(metadata.BufferRoleDepth, width, height),
		Normal:   metadata.NewBuffer(metadata.BufferRoleNormal, width, height),
		Velocity: metadata.NewBuffer(metadata.BufferRoleVelocity, width, height),
	}
}

func (r *Renderer) Camera() *components.Camera {
	return r.camera
}

func (r *Renderer) Config() metadata.PipelineConfig {
	return r.cfg
}

func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

// SetConfig replaces the pipeline configuration. It must only be called
// between frames. An invalid configuration is rejected and the current one
// stays in use.
func (r *Renderer) SetConfig(cfg metadata.PipelineConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.LogLevel != "" && cfg.LogLevel != r.cfg.LogLevel {
		level, _ := core.ParseLogLevel(cfg.LogLevel)
		core.SetLogLevel(level)
	}
	if !cfg.Jitter.Enabled {
		r.jitter.Clear()
	}
	r.cfg = cfg
	return nil
}

// OnResize reallocates every buffer and drops all history.
func (r *Renderer) OnResize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize to %dx%d: %w", width, height, core.ErrInvalidConfig)
	}
	if err := r.backend.Resized(uint32(width), uint32(height)); err != nil {
		return err
	}
	r.camera.SetViewport(uint32(width), uint32(height))
	r.temporal.Resize(width, height)
	r.denoise.Resize(width, height)
	r.allocate(width, height)
	r.previous = components.CameraState{}
	core.LogInfo("renderer resized", "width", width, "height", height)
	return nil
}

// DrawFrame runs beauty, extraction, temporal resolve and denoise for one
// frame. The returned buffers are owned by the renderer and stay valid until
// the next DrawFrame or OnResize.
func (r *Renderer) DrawFrame(packet *metadata.RenderPacket) (*metadata.FrameResult, error) {
	if err := r.backend.BeginFrame(packet.DeltaTime); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	result, err := r.drawFrame(packet)
	if endErr := r.backend.EndFrame(packet.DeltaTime); endErr != nil && err == nil {
		err = endErr
	}
	if err != nil {
		core.LogError("frame failed", "frame", packet.FrameNumber, "err", err)
		return nil, err
	}
	return result, nil
}

func (r *Renderer) drawFrame(packet *metadata.RenderPacket) (*metadata.FrameResult, error) {
	cfg := r.cfg

	if cfg.Jitter.Enabled && !r.camera.HasViewOffset() {
		r.jitter.Next(cfg.Jitter.Scale)
	}

	start := time.Now()
	if err := r.source.Render(r.camera, packet.FrameNumber, r.color); err != nil {
		return nil, fmt.Errorf("beauty render: %w", err)
	}
	if err := r.color.CheckSize(r.width, r.height); err != nil {
		return nil, fmt.Errorf("beauty render: %w", err)
	}
	core.MetricsRecordStage(StageBeauty, time.Since(start))

	r.jitter.Clear()
	if r.camera.HasViewOffset() {
		return nil, core.ErrJitterActive
	}

	start = time.Now()
	current := r.camera.State()
	if err := r.extractor.Extract(current, r.previous, packet.FrameNumber, &r.geometry); err != nil {
		return nil, fmt.Errorf("geometry extraction: %w", err)
	}
	core.MetricsRecordStage(StageGeometry, time.Since(start))

	start = time.Now()
	temporal, err := r.temporal.Resolve(&metadata.FrameInputs{
		Color:    r.color,
		Depth:    r.geometry.Depth,
		Normal:   r.geometry.Normal,
		Velocity: r.geometry.Velocity,
		Current:  current,
		Previous: r.previous,
	}, cfg.Temporal)
	if err != nil {
		return nil, err
	}
	core.MetricsRecordStage(StageTemporal, time.Since(start))

	start = time.Now()
	r.denoise.SetConfig(cfg.Denoise)
	denoised, err := r.denoise.Run(temporal.Accumulated, metadata.DenoiseAux{
		Depth:   r.geometry.Depth,
		Normal:  r.geometry.Normal,
		Moments: temporal.Moments,
		History: temporal.Accumulated,
	})
	if err != nil {
		return nil, err
	}
	core.MetricsRecordStage(StageDenoise, time.Since(start))

	if cfg.Jitter.Enabled {
		r.jitter.Next(cfg.Jitter.Scale)
	}
	r.previous = current

	return &metadata.FrameResult{
		FrameNumber: packet.FrameNumber,
		Raw:         r.color,
		Resolved:    temporal.Accumulated,
		Denoised:    denoised,
	}, nil
}

// Invalidate drops temporal history, for example after a camera cut.
func (r *Renderer) Invalidate() {
	r.temporal.Invalidate()
	r.previous = components.CameraState{}
}

func (r *Renderer) Shutdown() error {
	r.jitter.Clear()
	return r.backend.Shutdown()
}
