package components

import "github.com/spaghettifunk/anima-temporal/engine/math"

// CameraState is the per-frame camera transform consumed by reprojection.
// It is a value type: the resolver keeps the previous frame's copy.
type CameraState struct {
	Position              math.Vec3
	View                  math.Mat4
	Projection            math.Mat4
	InverseView           math.Mat4
	InverseProjection     math.Mat4
	ViewProjection        math.Mat4
	InverseViewProjection math.Mat4
	Width                 uint32
	Height                uint32
	Jitter                math.Vec2
	Jittered              bool
	Valid                 bool
}

func NewCameraState(position math.Vec3, view, projection math.Mat4, width, height uint32, jitter math.Vec2, jittered bool) CameraState {
	viewProjection := view.Mul(projection)
	return CameraState{
		Position:              position,
		View:                  view,
		Projection:            projection,
		InverseView:           view.Inverse(),
		InverseProjection:     projection.Inverse(),
		ViewProjection:        viewProjection,
		InverseViewProjection: viewProjection.Inverse(),
		Width:                 width,
		Height:                height,
		Jitter:                jitter,
		Jittered:              jittered,
		Valid:                 true,
	}
}

// Project maps a world-space point to texture coordinates (origin top-left)
// and linear view depth. ok is false for points behind the camera.
func (cs CameraState) Project(world math.Vec3) (uv math.Vec2, depth float32, ok bool) {
	clip := world.ToVec4(1).Transform(cs.ViewProjection)
	if clip.W <= 0 {
		return math.Vec2{}, 0, false
	}
	ndc, ok := clip.PerspectiveDivide()
	if !ok {
		return math.Vec2{}, 0, false
	}
	uv = math.NewVec2(ndc.X*0.5+0.5, 0.5-ndc.Y*0.5)
	return uv, clip.W, true
}

// ViewRay returns the view-space direction through uv, scaled so its z is -1.
func (cs CameraState) ViewRay(uv math.Vec2) math.Vec3 {
	ndc := math.NewVec4(uv.X*2-1, 1-uv.Y*2, 1, 1)
	p := ndc.Transform(cs.InverseProjection)
	dir, ok := p.PerspectiveDivide()
	if !ok || dir.Z == 0 {
		return math.NewVec3Forward()
	}
	return dir.MulScalar(-1 / dir.Z)
}

// Unproject reconstructs the world-space point at uv with the given linear
// view depth.
func (cs CameraState) Unproject(uv math.Vec2, depth float32) math.Vec3 {
	viewPos := cs.ViewRay(uv).MulScalar(depth)
	return viewPos.Transform(cs.InverseView)
}

// WorldRay returns the camera position and normalised world direction of
// the primary ray through uv.
func (cs CameraState) WorldRay(uv math.Vec2) (math.Vec3, math.Vec3) {
	dir := cs.ViewRay(uv).TransformDirection(cs.InverseView).Normalize()
	origin := math.NewVec3Zero().Transform(cs.InverseView)
	return origin, dir
}

// SameResolution reports whether both states were captured at one size.
func (cs CameraState) SameResolution(other CameraState) bool {
	return cs.Width == other.Width && cs.Height == other.Height
}
