package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/spaghettifunk/anima-temporal/engine/assets"
	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/renderer"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/metadata"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// frames between two metric log lines
const metricsLogInterval = 60

// suspendedPoll is how long a suspended engine sleeps before looking for
// events again.
const suspendedPoll = 10 * time.Millisecond

type Engine struct {
	currentStage Stage
	gameInstance *Game
	isRunning    bool
	isSuspended  bool
	assetManager *assets.AssetManager
	backend      renderer.RendererBackend
	renderer     *renderer.Renderer
	width        uint32
	height       uint32
	clock        *core.Clock
	lastTime     float64
	frameNumber  uint64
	failedFrames uint64
}

// New boots the game and builds the asset manager, backend and renderer.
func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, fmt.Errorf("engine needs a game with an application config: %w", core.ErrMissingInput)
	}
	appCfg := g.ApplicationConfig
	core.SetLogLevel(appCfg.LogLevel)

	e := &Engine{
		currentStage: EngineStageBooting,
		gameInstance: g,
		clock:        core.NewClock(),
		width:        appCfg.StartWidth,
		height:       appCfg.StartHeight,
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	e.assetManager = am
	g.AssetManager = am

	pipeline := appCfg.Pipeline
	if appCfg.ConfigPath != "" {
		if pipeline, err = am.LoadPipelineConfig(appCfg.ConfigPath); err != nil {
			am.Shutdown()
			return nil, err
		}
	}
	if pipeline.LogLevel != "" {
		level, _ := core.ParseLogLevel(pipeline.LogLevel)
		core.SetLogLevel(level)
	}

	if g.FnBoot != nil {
		if err := g.FnBoot(); err != nil {
			am.Shutdown()
			return nil, err
		}
	}
	e.currentStage = EngineStageBootComplete

	backend, err := renderer.NewBackend(appCfg.Backend, appCfg.Workers)
	if err != nil {
		am.Shutdown()
		return nil, err
	}
	if err := backend.Initialize(appCfg.Name, e.width, e.height); err != nil {
		am.Shutdown()
		return nil, err
	}
	e.backend = backend

	r, err := renderer.New(int(e.width), int(e.height), backend, g.Source, g.Extractor, pipeline)
	if err != nil {
		backend.Shutdown()
		am.Shutdown()
		return nil, err
	}
	e.renderer = r
	return e, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	// initialize events
	if !core.EventSystemInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}
	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	// register some events
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	core.EventRegister(core.EVENT_CODE_RESIZED, e, e.onResized)
	core.EventRegister(core.EVENT_CODE_CONFIG_RELOADED, e, e.onConfigReloaded)

	appCfg := e.gameInstance.ApplicationConfig
	if err := e.assetManager.Initialize(appCfg.AssetsDir); err != nil {
		return err
	}
	if appCfg.ConfigPath != "" {
		if err := e.assetManager.WatchConfig(appCfg.ConfigPath); err != nil {
			return err
		}
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e.renderer.Camera()); err != nil {
			return err
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// Run draws frames until the configured frame count is reached or a quit
// event arrives. Posted events are delivered at the top of every frame, so
// resizes and configuration reloads never land in the middle of one.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return errors.New("engine must be initialized before running")
	}
	e.currentStage = EngineStageRunning
	e.isRunning = true

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	appCfg := e.gameInstance.ApplicationConfig
	core.LogInfo("engine running", "name", appCfg.Name, "width", e.width, "height", e.height, "backend", appCfg.Backend)

	for e.isRunning {
		core.EventProcessPending()
		if !e.isRunning {
			break
		}
		if e.isSuspended {
			time.Sleep(suspendedPoll)
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStartTime := time.Now()

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta, e.renderer.Camera()); err != nil {
				core.LogError("game update failed, shutting down", "err", err)
				return err
			}
		}

		packet := &metadata.RenderPacket{
			DeltaTime:   delta,
			FrameNumber: e.frameNumber,
		}
		result, err := e.renderer.DrawFrame(packet)
		if err != nil {
			// the renderer already logged it; the next frame starts clean
			e.failedFrames++
		} else if e.gameInstance.FnRender != nil {
			if err := e.gameInstance.FnRender(result); err != nil {
				core.LogError("game render failed, shutting down", "err", err)
				return err
			}
		}
		e.frameNumber++

		// Figure out how long the frame took and, if below the target, give
		// the rest back to the OS.
		frameElapsedTime := time.Since(frameStartTime).Seconds()
		core.MetricsUpdate(frameElapsedTime)
		if e.frameNumber%metricsLogInterval == 0 {
			e.logMetrics()
		}
		if remaining := appCfg.TargetFrameSeconds - frameElapsedTime; remaining > 0 {
			time.Sleep(time.Duration(remaining * float64(time.Second)))
		}

		e.lastTime = currentTime

		if appCfg.FrameCount > 0 && e.frameNumber >= appCfg.FrameCount {
			e.isRunning = false
		}
	}

	core.LogInfo("engine stopped", "frames", e.frameNumber, "failed", e.failedFrames)
	return nil
}

func (e *Engine) logMetrics() {
	fps, frameMS := core.MetricsFrame()
	core.LogDebug("frame metrics", "frame", e.frameNumber, "fps", fps, "ms", frameMS)
	for _, stage := range core.MetricsStages() {
		core.LogDebug("stage metrics", "stage", stage, "ms", core.MetricsStageAverage(stage))
	}
}

// Stop asks a running engine to finish after the current frame. It is safe
// to call from any goroutine.
func (e *Engine) Stop() {
	core.EventPost(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{
		Type: core.EVENT_CODE_APPLICATION_QUIT,
	})
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	core.EventUnregister(core.EVENT_CODE_APPLICATION_QUIT, e)
	core.EventUnregister(core.EVENT_CODE_RESIZED, e)
	core.EventUnregister(core.EVENT_CODE_CONFIG_RELOADED, e)

	var errs []error
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	errs = append(errs, e.renderer.Shutdown(), e.assetManager.Shutdown())
	e.currentStage = EngineStageUninitialized
	return errors.Join(errs...)
}

// GetFramebufferSize returns the width and height (in this order)
// of the frames being produced
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) Renderer() *renderer.Renderer {
	return e.renderer
}

// FrameNumber is the number of frames drawn so far, failed frames included.
func (e *Engine) FrameNumber() uint64 {
	return e.frameNumber
}

func (e *Engine) IsSuspended() bool {
	return e.isSuspended
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down")
		e.isRunning = false
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	if code != core.EVENT_CODE_RESIZED {
		return false
	}
	width := context.Data.U32[0]
	height := context.Data.U32[1]

	// Check if different. If so, trigger a resize.
	if width == e.width && height == e.height && !e.isSuspended {
		return false
	}
	core.LogDebug("resize", "width", width, "height", height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("zero sized output, suspending application")
		e.isSuspended = true
		return false
	}
	if err := e.renderer.OnResize(int(width), int(height)); err != nil {
		core.LogError("resize rejected", "width", width, "height", height, "err", err)
		return false
	}
	if e.isSuspended {
		core.LogInfo("output restored, resuming application")
		e.isSuspended = false
	}
	e.width = width
	e.height = height
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError(err.Error())
		}
	}
	return false
}

func (e *Engine) onConfigReloaded(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	cfg, ok := context.Payload.(metadata.PipelineConfig)
	if !ok {
		core.LogError("wrong payload associated with the event type", "code", code)
		return false
	}
	if err := e.renderer.SetConfig(cfg); err != nil {
		core.LogError("pipeline config rejected, keeping the previous one", "err", err)
		return false
	}
	core.LogInfo("pipeline config applied", "frame", e.frameNumber)
	return false
}
