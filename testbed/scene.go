package testbed

import (
	m "math"

	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/math"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/metadata"
)

const (
	// linear depth written for rays that leave the scene
	skyDepth = 1000
	// offset along the normal for shadow rays
	shadowBias = 1e-3
	// world units covered by one checker cell or one texture repeat
	checkerSize = 1
	textureSize = 4
)

var (
	skyColor    = [3]float32{0.5, 0.7, 1.0}
	sphereColor = [3]float32{0.8, 0.3, 0.2}
)

// Scene is a ground plane at y = 0 under one sphere that slides along x.
type Scene struct {
	SphereID     core.ObjectID
	SphereRadius float32
	// world units the sphere travels either side of its base position
	SlideAmplitude float32
	// radians per second
	SlideSpeed float32
	Ambient    float32

	sphereBase  math.Vec3
	sphereModel math.Mat4
	lightDir    math.Vec3
	albedo      *metadata.Buffer
	time        float64
}

type hit struct {
	ok     bool
	t      float32
	point  math.Vec3
	normal math.Vec3
	albedo [3]float32
	object core.ObjectID
}

func NewScene() *Scene {
	s := &Scene{
		SphereID:       core.NewObjectID(),
		SphereRadius:   1,
		SlideAmplitude: 1.5,
		SlideSpeed:     1,
		Ambient:        0.1,
		sphereBase:     math.NewVec3(0, 1, 0),
		lightDir:       math.NewVec3(0.4, 1, 0.3).Normalize(),
	}
	s.sphereModel = math.NewMat4Translation(s.sphereBase)
	return s
}

// SetAlbedo textures the ground plane. nil restores the checkerboard.
func (s *Scene) SetAlbedo(albedo *metadata.Buffer) {
	s.albedo = albedo
}

// Advance moves the sphere to its position at the scene time plus dt.
func (s *Scene) Advance(dt float64) {
	s.time += dt
	offset := s.SlideAmplitude * float32(m.Sin(s.time*float64(s.SlideSpeed)))
	s.sphereModel = math.NewMat4Translation(s.sphereBase.Add(math.NewVec3(offset, 0, 0)))
}

func (s *Scene) Time() float64 {
	return s.time
}

func (s *Scene) SphereModel() math.Mat4 {
	return s.sphereModel
}

func (s *Scene) SphereCenter() math.Vec3 {
	return math.NewVec3Zero().Transform(s.sphereModel)
}

// intersect returns the closest hit along the normalised direction dir.
func (s *Scene) intersect(origin, dir math.Vec3) hit {
	closest := hit{t: float32(m.Inf(1))}

	if t, ok := s.intersectSphere(origin, dir); ok {
		p := origin.Add(dir.MulScalar(t))
		closest = hit{
			ok:     true,
			t:      t,
			point:  p,
			normal: p.Sub(s.SphereCenter()).Normalize(),
			albedo: sphereColor,
			object: s.SphereID,
		}
	}

	if dir.Y < 0 {
		t := -origin.Y / dir.Y
		if t > 0 && t < closest.t {
			p := origin.Add(dir.MulScalar(t))
			closest = hit{
				ok:     true,
				t:      t,
				point:  p,
				normal: math.NewVec3Up(),
				albedo: s.planeAlbedo(p),
				object: core.InvalidObjectID,
			}
		}
	}
	return closest
}

func (s *Scene) intersectSphere(origin, dir math.Vec3) (float32, bool) {
	oc := origin.Sub(s.SphereCenter())
	b := oc.Dot(dir)
	c := oc.Dot(oc) - s.SphereRadius*s.SphereRadius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	if t := -b - sq; t > shadowBias {
		return t, true
	}
	if t := -b + sq; t > shadowBias {
		return t, true
	}
	return 0, false
}

func (s *Scene) planeAlbedo(p math.Vec3) [3]float32 {
	if s.albedo != nil {
		u := float32(math.Fract(float64(p.X / textureSize)))
		v := float32(math.Fract(float64(p.Z / textureSize)))
		var c [3]float32
		s.albedo.Sample(metadata.SamplingBilinear, u*float32(s.albedo.Width), v*float32(s.albedo.Height), c[:])
		return c
	}
	cx := int(m.Floor(float64(p.X / checkerSize)))
	cz := int(m.Floor(float64(p.Z / checkerSize)))
	if (cx+cz)&1 == 0 {
		return [3]float32{0.8, 0.8, 0.8}
	}
	return [3]float32{0.2, 0.2, 0.2}
}

// shade returns the noise-free Lambert radiance along a primary ray.
func (s *Scene) shade(origin, dir math.Vec3) [3]float32 {
	h := s.intersect(origin, dir)
	if !h.ok {
		return skyColor
	}
	light := math.Max(0, h.normal.Dot(s.lightDir))
	if light > 0 && h.object != s.SphereID {
		if _, blocked := s.intersectSphere(h.point.Add(h.normal.MulScalar(shadowBias)), s.lightDir); blocked {
			light = 0
		}
	}
	k := s.Ambient + (1-s.Ambient)*light
	return [3]float32{h.albedo[0] * k, h.albedo[1] * k, h.albedo[2] * k}
}
