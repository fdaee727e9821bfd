package passes

import (
	"fmt"

	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/math"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/components"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/metadata"
)

// history slots owned by the resolver
const (
	historyAccumulation = iota
	historyMoments
	historyDepth
	historyNormal
)

// TemporalResolvePass reprojects last frame's accumulated colour onto the
// current frame and blends it with the new sample.
type TemporalResolvePass struct {
	width      int
	height     int
	dispatcher metadata.Dispatcher
	history    *metadata.History
	previous   components.CameraState
}

// NewTemporalResolvePass allocates history for a width x height target. A nil
// dispatcher runs every row on the calling goroutine.
func NewTemporalResolvePass(width, height int, dispatcher metadata.Dispatcher) *TemporalResolvePass {
	if dispatcher == nil {
		dispatcher = metadata.SerialDispatcher{}
	}
	return &TemporalResolvePass{
		width:      width,
		height:     height,
		dispatcher: dispatcher,
		history: metadata.NewHistory(width, height,
			metadata.BufferRoleAccumulation,
			metadata.BufferRoleMoments,
			metadata.BufferRoleDepth,
			metadata.BufferRoleNormal,
		),
	}
}

func (tp *TemporalResolvePass) Width() int {
	return tp.width
}

func (tp *TemporalResolvePass) Height() int {
	return tp.height
}

// Resize reallocates history at the new resolution. The next frame resolves
// exactly like a first frame.
func (tp *TemporalResolvePass) Resize(width, height int) {
	tp.width = width
	tp.height = height
	tp.history.Resize(width, height)
	tp.previous = components.CameraState{}
}

// Invalidate drops the history without reallocating.
func (tp *TemporalResolvePass) Invalidate() {
	tp.history.Invalidate()
	tp.previous = components.CameraState{}
}

func (tp *TemporalResolvePass) HistoryValid() bool {
	return tp.history.Valid()
}

// PreviousCamera is the camera of the last resolved frame.
func (tp *TemporalResolvePass) PreviousCamera() components.CameraState {
	return tp.previous
}

// resolveFrame is the per-frame state shared by every row kernel.
type resolveFrame struct {
	cfg      metadata.TemporalConfig
	in       *metadata.FrameInputs
	current  components.CameraState
	previous components.CameraState
	valid    bool
	velocity bool

	prevAccum   *metadata.Buffer
	prevMoments *metadata.Buffer
	prevDepth   *metadata.Buffer
	prevNormal  *metadata.Buffer
	outAccum    *metadata.Buffer
	outMoments  *metadata.Buffer
}

// Resolve runs one frame. The returned buffers stay valid until the next call
// to Resolve or Resize. Inputs whose size differs from the pass size fail
// with core.ErrResolutionMismatch, an invalid cfg with core.ErrInvalidConfig.
func (tp *TemporalResolvePass) Resolve(in *metadata.FrameInputs, cfg metadata.TemporalConfig) (*metadata.TemporalOutput, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, core.ErrMissingInput
	}
	for _, b := range []*metadata.Buffer{in.Color, in.Depth, in.Normal} {
		if err := b.CheckSize(tp.width, tp.height); err != nil {
			return nil, fmt.Errorf("temporal resolve: %w", err)
		}
	}
	useVelocity := cfg.UseVelocity && in.Velocity != nil
	if useVelocity {
		if err := in.Velocity.CheckSize(tp.width, tp.height); err != nil {
			return nil, fmt.Errorf("temporal resolve: %w", err)
		}
	}

	previous := in.Previous
	if !previous.Valid {
		previous = tp.previous
	}

	f := &resolveFrame{
		cfg:         cfg,
		in:          in,
		current:     in.Current,
		previous:    previous,
		velocity:    useVelocity,
		valid:       tp.history.Valid() && (useVelocity || previous.Valid),
		prevAccum:   tp.history.Front(historyAccumulation),
		prevMoments: tp.history.Front(historyMoments),
		prevDepth:   tp.history.Front(historyDepth),
		prevNormal:  tp.history.Front(historyNormal),
		outAccum:    tp.history.Back(historyAccumulation),
		outMoments:  tp.history.Back(historyMoments),
	}

	tp.dispatcher.Dispatch(tp.height, func(y int) {
		for x := 0; x < tp.width; x++ {
			f.resolvePixel(x, y)
		}
	})

	if err := tp.history.Snapshot(nil, nil, in.Depth, in.Normal); err != nil {
		return nil, fmt.Errorf("temporal history: %w", err)
	}
	tp.previous = in.Current

	return &metadata.TemporalOutput{
		Accumulated: tp.history.Front(historyAccumulation),
		Moments:     tp.history.Front(historyMoments),
	}, nil
}

func (f *resolveFrame) resolvePixel(x, y int) {
	color := f.in.Color.Pixel(x, y)
	cur := [3]float32{color[0], color[1], color[2]}
	luma := math.Luminance(cur[0], cur[1], cur[2])

	hs, ok := f.fetchHistory(x, y)
	if !ok {
		f.outAccum.Set(x, y, cur[0], cur[1], cur[2], 1)
		f.outMoments.Set(x, y, luma, luma*luma)
		return
	}

	n := hs.count
	alpha := f.alpha(n)
	cb, hb := cur, hs.color
	if f.cfg.LogTransform {
		cb = logColor(cur)
		hb = logColor(hs.color)
	}
	if f.cfg.NeighborhoodClamp {
		lo, hi := f.neighborhood(x, y)
		for c := 0; c < 3; c++ {
			hb[c] = math.Clamp(hb[c], lo[c], hi[c])
		}
	}

	var out [3]float32
	if f.cfg.Compose != nil {
		out = f.cfg.Compose(metadata.ComposeSample{
			History:    hb,
			Current:    cb,
			Alpha:      alpha,
			FrameCount: n,
		})
	} else {
		for c := 0; c < 3; c++ {
			out[c] = hb[c]*alpha + cb[c]*(1-alpha)
		}
	}
	if f.cfg.LogTransform {
		for c := 0; c < 3; c++ {
			out[c] = math.Expm1(out[c])
		}
	}

	count := n + 1
	if f.cfg.MaxAccumulatedFrames > 0 {
		count = math.Min(count, f.cfg.MaxAccumulatedFrames)
	}
	f.outAccum.Set(x, y, out[0], out[1], out[2], count)

	var m [2]float32
	sampleMode := metadata.SamplingBilinear
	if f.cfg.Sampling == metadata.SamplingNearest {
		sampleMode = metadata.SamplingNearest
	}
	f.prevMoments.Sample(sampleMode, hs.px, hs.py, m[:])
	f.outMoments.Set(x, y,
		m[0]*alpha+luma*(1-alpha),
		m[1]*alpha+luma*luma*(1-alpha),
	)
}

// historySample is the validated history found for one pixel.
type historySample struct {
	color [3]float32
	count float32
	px    float32
	py    float32
}

// fetchHistory reprojects pixel (x, y) and validates the history found there.
// ok is false on a disocclusion.
func (f *resolveFrame) fetchHistory(x, y int) (hs historySample, ok bool) {
	if !f.valid {
		return hs, false
	}
	mv, ok := f.motion(x, y)
	if !ok {
		return hs, false
	}
	px, py := f.reprojected(x, y, mv)
	w, h := float32(f.prevAccum.Width), float32(f.prevAccum.Height)
	if !(px >= 0 && px < w && py >= 0 && py < h) {
		return hs, false
	}
	ix, iy := int(px), int(py)

	depth := f.in.Depth.At(x, y, 0)
	prevDepth := f.prevDepth.At(ix, iy, 0)
	if f.cfg.DepthDistance > 0 && math.Abs(depth-prevDepth) > f.cfg.DepthDistance {
		return hs, false
	}
	if f.cfg.NormalDistance > 0 && !normalsAgree(f.in.Normal.Pixel(x, y), f.prevNormal.Pixel(ix, iy), f.cfg.NormalDistance) {
		return hs, false
	}
	if f.cfg.WorldDistance > 0 {
		p := f.current.Unproject(pixelUV(float32(x)+0.5, float32(y)+0.5, f.in.Color), depth)
		q := f.previous.Unproject(pixelUV(px, py, f.prevAccum), prevDepth)
		if p.Distance(q) > f.cfg.WorldDistance {
			return hs, false
		}
	}

	var sample [3]float32
	f.prevAccum.Sample(f.cfg.Sampling, px, py, sample[:])
	for c := 0; c < 3; c++ {
		// cubic reconstruction may overshoot below zero next to bright edges
		hs.color[c] = math.Max(sample[c], 0)
	}
	hs.count = f.prevAccum.At(ix, iy, 3)
	hs.px, hs.py = px, py
	return hs, true
}

// motion returns the uv-space motion used for pixel (x, y), dilated when
// configured.
func (f *resolveFrame) motion(x, y int) (math.Vec2, bool) {
	if !f.cfg.Dilation {
		return f.pixelMotion(x, y)
	}
	bx, by := x, y
	switch f.cfg.DilationMode {
	case metadata.DilationLargestMotion:
		best := float32(-1)
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				sx, sy := x+dx, y+dy
				if !f.in.Depth.InBounds(sx, sy) {
					continue
				}
				mv, ok := f.pixelMotion(sx, sy)
				if !ok {
					continue
				}
				if l := mv.LengthSquared(); l > best {
					best = l
					bx, by = sx, sy
				}
			}
		}
	default:
		best := f.in.Depth.At(x, y, 0)
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				sx, sy := x+dx, y+dy
				if !f.in.Depth.InBounds(sx, sy) {
					continue
				}
				if d := f.in.Depth.At(sx, sy, 0); d < best {
					best = d
					bx, by = sx, sy
				}
			}
		}
	}
	return f.pixelMotion(bx, by)
}

// pixelMotion reads the velocity buffer or, without one, reconstructs motion
// from depth and both camera states.
func (f *resolveFrame) pixelMotion(x, y int) (math.Vec2, bool) {
	if f.velocity {
		v := f.in.Velocity.Pixel(x, y)
		return math.NewVec2(v[0], v[1]), true
	}
	uv := pixelUV(float32(x)+0.5, float32(y)+0.5, f.in.Depth)
	world := f.current.Unproject(uv, f.in.Depth.At(x, y, 0))
	prev, _, ok := f.previous.Project(world)
	if !ok {
		return math.Vec2{}, false
	}
	return uv.Sub(prev), true
}

// reprojected returns the previous-frame pixel-space position of pixel
// (x, y)'s centre moved back along mv.
func (f *resolveFrame) reprojected(x, y int, mv math.Vec2) (float32, float32) {
	return float32(x) + 0.5 - mv.X*float32(f.prevAccum.Width),
		float32(y) + 0.5 - mv.Y*float32(f.prevAccum.Height)
}

func (f *resolveFrame) alpha(n float32) float32 {
	if f.cfg.ConstantBlend {
		return f.cfg.Blend
	}
	running := n / (n + 1)
	if f.cfg.FullAccumulate {
		return running
	}
	return math.Min(f.cfg.Blend, running)
}

// neighborhood returns the per-channel range of the current frame's 3x3
// neighbourhood in the blend domain.
func (f *resolveFrame) neighborhood(x, y int) (lo, hi [3]float32) {
	for c := 0; c < 3; c++ {
		lo[c] = math.K_INFINITY
		hi[c] = -math.K_INFINITY
	}
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			p := f.in.Color.Pixel(math.Clamp(x+dx, 0, f.in.Color.Width-1), math.Clamp(y+dy, 0, f.in.Color.Height-1))
			s := [3]float32{p[0], p[1], p[2]}
			if f.cfg.LogTransform {
				s = logColor(s)
			}
			for c := 0; c < 3; c++ {
				lo[c] = math.Min(lo[c], s[c])
				hi[c] = math.Max(hi[c], s[c])
			}
		}
	}
	return lo, hi
}

func logColor(c [3]float32) [3]float32 {
	return [3]float32{
		math.Log1p(math.Max(c[0], 0)),
		math.Log1p(math.Max(c[1], 0)),
		math.Log1p(math.Max(c[2], 0)),
	}
}

// normalsAgree reports whether the angle between a and b is within limit.
// Two empty normals (no geometry) agree; one empty normal never does.
func normalsAgree(a, b []float32, limit float32) bool {
	na := math.NewVec3(a[0], a[1], a[2])
	nb := math.NewVec3(b[0], b[1], b[2])
	la, lb := na.LengthSquared(), nb.LengthSquared()
	if la == 0 || lb == 0 {
		return la == lb
	}
	cos := na.Dot(nb) / math.Sqrt(la*lb)
	return math.Acos(cos) <= limit
}

// pixelUV converts a pixel-space position to texture coordinates of b.
func pixelUV(px, py float32, b *metadata.Buffer) math.Vec2 {
	return math.NewVec2(px/float32(b.Width), py/float32(b.Height))
}
