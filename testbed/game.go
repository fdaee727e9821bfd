package testbed

import (
	"fmt"
	m "math"

	"github.com/spaghettifunk/anima-temporal/engine"
	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/math"
	"github.com/spaghettifunk/anima-temporal/engine/renderer"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/components"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/velocity"
	"github.com/spaghettifunk/anima-temporal/engine/systems"
)

// Options configures a testbed run.
type Options struct {
	Width       uint32
	Height      uint32
	Frames      uint64
	ConfigPath  string
	AssetsDir   string
	TexturePath string
	// Directory for frame images. Empty writes nothing.
	OutputDir string
	// Write every SaveEvery-th frame as well as the last one. Zero writes
	// only the last frame.
	SaveEvery    uint64
	PreviewScale float64
	// Resize to ResizeWidth x ResizeHeight once ResizeAt frames were drawn.
	ResizeAt     uint64
	ResizeWidth  uint32
	ResizeHeight uint32
	Workers      int
	Backend      renderer.RendererType
	LogLevel     core.LogLevel
	// Fixed simulation step in seconds. Zero uses wall time.
	FixedStep float64
	Noise     float32
	Seed      uint64
}

func DefaultOptions() Options {
	return Options{
		Width:        320,
		Height:       180,
		Frames:       64,
		PreviewScale: 2,
		ResizeWidth:  240,
		ResizeHeight: 135,
		Backend:      renderer.CPU,
		LogLevel:     core.InfoLevel,
		FixedStep:    1.0 / 60.0,
		Noise:        0.5,
		Seed:         42,
	}
}

type TestGame struct {
	*engine.Game
}

type gameState struct {
	opts Options

	scene     *Scene
	source    *NoisySource
	extractor *SceneExtractor
	jobs      *systems.JobSystem

	orbitAngle  float32
	orbitRadius float32
	orbitHeight float32
	// radians per second
	orbitSpeed float32
	target     math.Vec3

	width  uint32
	height uint32
	frames uint64
	last   *metadata.FrameResult
	saved  uint64
	// output files written so far
	written []string
}

func NewTestGame(opts Options) *TestGame {
	state := &gameState{
		opts:        opts,
		orbitRadius: 6,
		orbitHeight: 2.5,
		orbitSpeed:  0.3,
		target:      math.NewVec3(0, 0.75, 0),
	}
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				StartWidth:  opts.Width,
				StartHeight: opts.Height,
				Name:        "Anima Temporal Testbed",
				LogLevel:    opts.LogLevel,
				FrameCount:  opts.Frames,
				AssetsDir:   opts.AssetsDir,
				ConfigPath:  opts.ConfigPath,
				Pipeline:    metadata.DefaultPipelineConfig(),
				Backend:     opts.Backend,
				Workers:     opts.Workers,
			},
			State: state,
		},
	}
	tg.FnBoot = tg.boot
	tg.FnInitialize = tg.initialize
	tg.FnUpdate = tg.update
	tg.FnRender = tg.render
	tg.FnOnResize = tg.onResize
	tg.FnShutdown = tg.shutdown
	return tg
}

func (tg *TestGame) state() *gameState {
	return tg.State.(*gameState)
}

// Written lists the image files produced so far.
func (tg *TestGame) Written() []string {
	return tg.state().written
}

func (tg *TestGame) boot() error {
	state := tg.state()

	workers := state.opts.Workers
	if workers <= 0 {
		workers = 1
	}
	jobs, err := systems.NewJobSystem(workers, 0)
	if err != nil {
		return err
	}
	state.jobs = jobs

	state.scene = NewScene()
	state.source = NewNoisySource(state.scene, jobs)
	state.source.Noise = state.opts.Noise
	state.source.Seed = state.opts.Seed
	state.extractor = NewSceneExtractor(state.scene, velocity.NewCache(), jobs)

	tg.Source = state.source
	tg.Extractor = state.extractor
	return nil
}

func (tg *TestGame) initialize(camera *components.Camera) error {
	state := tg.state()

	texture := state.opts.TexturePath
	if texture == "" {
		if images := tg.AssetManager.Assets(metadata.ResourceTypeImage); len(images) > 0 {
			texture = images[0]
		}
	}
	if texture != "" {
		albedo, err := tg.AssetManager.LoadTexture(texture)
		if err != nil {
			return fmt.Errorf("ground texture: %w", err)
		}
		state.scene.SetAlbedo(albedo)
		core.LogInfo("ground texture loaded", "path", texture, "width", albedo.Width, "height", albedo.Height)
	}

	state.placeCamera(camera)
	return nil
}

func (state *gameState) placeCamera(camera *components.Camera) {
	x := state.orbitRadius * float32(m.Sin(float64(state.orbitAngle)))
	z := state.orbitRadius * float32(m.Cos(float64(state.orbitAngle)))
	camera.SetPosition(math.NewVec3(x, state.orbitHeight, z))
	camera.LookAt(state.target)
}

func (tg *TestGame) update(deltaTime float64, camera *components.Camera) error {
	state := tg.state()
	if state.opts.FixedStep > 0 {
		deltaTime = state.opts.FixedStep
	}

	state.orbitAngle += state.orbitSpeed * float32(deltaTime)
	state.placeCamera(camera)
	state.scene.Advance(deltaTime)

	if state.opts.ResizeAt > 0 && state.frames == state.opts.ResizeAt && state.opts.ResizeWidth > 0 && state.opts.ResizeHeight > 0 {
		ctx := core.EventContext{}
		ctx.Data.U32[0] = state.opts.ResizeWidth
		ctx.Data.U32[1] = state.opts.ResizeHeight
		core.EventPost(core.EVENT_CODE_RESIZED, tg, ctx)
	}
	return nil
}

func (tg *TestGame) render(result *metadata.FrameResult) error {
	state := tg.state()
	state.frames++
	state.last = result

	if state.opts.OutputDir == "" || state.opts.SaveEvery == 0 {
		return nil
	}
	if state.frames%state.opts.SaveEvery == 0 {
		return tg.save(result)
	}
	return nil
}

func (tg *TestGame) save(result *metadata.FrameResult) error {
	state := tg.state()
	paths, err := WriteFrame(state.opts.OutputDir, result, state.opts.PreviewScale)
	state.written = append(state.written, paths...)
	if err != nil {
		return err
	}
	state.saved = result.FrameNumber + 1
	core.LogDebug("frame written", "frame", result.FrameNumber, "files", len(paths))
	return nil
}

func (tg *TestGame) onResize(width uint32, height uint32) error {
	state := tg.state()
	state.width = width
	state.height = height
	return nil
}

func (tg *TestGame) shutdown() error {
	state := tg.state()
	var err error
	if state.opts.OutputDir != "" && state.last != nil && state.saved != state.last.FrameNumber+1 {
		err = tg.save(state.last)
	}
	if state.jobs != nil {
		if jerr := state.jobs.Shutdown(); err == nil {
			err = jerr
		}
	}
	return err
}
