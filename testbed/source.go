package testbed

import (
	"golang.org/x/exp/rand"

	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/math"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/components"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/metadata"
)

// NoisySource shades the scene through the (jittered) camera and multiplies
// every pixel by uniform noise in [1-Noise, 1+Noise]. The noise only depends
// on Seed, the frame number and the pixel, so a frame renders the same on
// any number of workers.
type NoisySource struct {
	Noise float32
	Seed  uint64

	scene      *Scene
	dispatcher metadata.Dispatcher
}

func NewNoisySource(scene *Scene, dispatcher metadata.Dispatcher) *NoisySource {
	if dispatcher == nil {
		dispatcher = metadata.SerialDispatcher{}
	}
	return &NoisySource{
		Noise:      0.5,
		Seed:       42,
		scene:      scene,
		dispatcher: dispatcher,
	}
}

func (s *NoisySource) Render(camera *components.Camera, frameNumber uint64, dst *metadata.Buffer) error {
	if dst == nil {
		return core.ErrMissingInput
	}
	state := camera.State()
	w, h := dst.Width, dst.Height
	s.dispatcher.Dispatch(h, func(y int) {
		rng := rand.New(rand.NewSource(s.rowSeed(frameNumber, y)))
		for x := 0; x < w; x++ {
			uv := math.NewVec2((float32(x)+0.5)/float32(w), (float32(y)+0.5)/float32(h))
			origin, dir := state.WorldRay(uv)
			c := s.scene.shade(origin, dir)
			n := 1 + s.Noise*(2*rng.Float32()-1)
			dst.Set(x, y, math.Max(0, c[0]*n), math.Max(0, c[1]*n), math.Max(0, c[2]*n))
		}
	})
	return nil
}

func (s *NoisySource) rowSeed(frameNumber uint64, row int) uint64 {
	// splitmix style mixing so neighbouring rows and frames decorrelate
	z := s.Seed + frameNumber*0x9E3779B97F4A7C15 + uint64(row+1)*0xBF58476D1CE4E5B9
	z ^= z >> 31
	return z
}
