package engine

import (
	"github.com/spaghettifunk/anima-temporal/engine/assets"
	"github.com/spaghettifunk/anima-temporal/engine/renderer"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/components"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/metadata"
)

// Game is what an application plugs into the engine. Boot must set Source
// and Extractor.
type Game struct {
	ApplicationConfig *ApplicationConfig
	AssetManager      *assets.AssetManager
	Source            renderer.FrameSource
	Extractor         renderer.GeometryExtractor
	State             interface{}
	FnBoot            Boot
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

type Boot func() error
type Initialize func(camera *components.Camera) error
type Update func(deltaTime float64, camera *components.Camera) error
type Render func(result *metadata.FrameResult) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
