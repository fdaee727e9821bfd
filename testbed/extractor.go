package testbed

import (
	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/math"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/components"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/velocity"
)

// offscreenMotion sends the reprojection outside the frame for points the
// previous camera could not see.
var offscreenMotion = math.NewVec2(2, 2)

// SceneExtractor ray-casts depth and normals at pixel centres of the
// unjittered camera. Motion is the UV difference between this frame and
// where the same surface point was last frame, using the velocity cache for
// the sphere's previous model matrix.
type SceneExtractor struct {
	scene      *Scene
	cache      *velocity.Cache
	dispatcher metadata.Dispatcher
}

func NewSceneExtractor(scene *Scene, cache *velocity.Cache, dispatcher metadata.Dispatcher) *SceneExtractor {
	if dispatcher == nil {
		dispatcher = metadata.SerialDispatcher{}
	}
	if cache == nil {
		cache = velocity.NewCache()
	}
	return &SceneExtractor{
		scene:      scene,
		cache:      cache,
		dispatcher: dispatcher,
	}
}

func (e *SceneExtractor) Cache() *velocity.Cache {
	return e.cache
}

func (e *SceneExtractor) Extract(current, previous components.CameraState, frameNumber uint64, dst *metadata.GeometryBuffers) error {
	if dst == nil || dst.Depth == nil || dst.Normal == nil || dst.Velocity == nil {
		return core.ErrMissingInput
	}

	sphereID := e.scene.SphereID
	model := e.scene.SphereModel()
	// a sphere seen for the first time has no motion of its own
	toPrevious := math.NewMat4Identity()
	if entry, ok := e.cache.Lookup(sphereID); ok {
		toPrevious = model.Inverse().Mul(entry.PrevModel)
	}

	w, h := dst.Depth.Width, dst.Depth.Height
	e.dispatcher.Dispatch(h, func(y int) {
		for x := 0; x < w; x++ {
			uv := math.NewVec2((float32(x)+0.5)/float32(w), (float32(y)+0.5)/float32(h))
			origin, dir := current.WorldRay(uv)
			surf := e.scene.intersect(origin, dir)

			var point, normal math.Vec3
			depth := float32(skyDepth)
			if surf.ok {
				point = surf.point
				normal = surf.normal
				if _, d, ok := current.Project(point); ok {
					depth = d
				}
			} else {
				point = current.Unproject(uv, skyDepth)
			}
			dst.Depth.Set(x, y, depth)
			dst.Normal.Set(x, y, normal.X, normal.Y, normal.Z)

			if !previous.Valid {
				dst.Velocity.Set(x, y, 0, 0)
				continue
			}
			if surf.ok && surf.object == sphereID {
				point = point.Transform(toPrevious)
			}
			prevUV, _, ok := previous.Project(point)
			if !ok {
				dst.Velocity.Set(x, y, offscreenMotion.X, offscreenMotion.Y)
				continue
			}
			mv := uv.Sub(prevUV)
			dst.Velocity.Set(x, y, mv.X, mv.Y)
		}
	})

	e.cache.Store(sphereID, model, frameNumber)
	if dropped := e.cache.Retain([]core.ObjectID{sphereID}); dropped > 0 {
		core.LogDebug("velocity cache pruned", "dropped", dropped)
	}
	return nil
}
