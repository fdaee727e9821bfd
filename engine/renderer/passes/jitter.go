package passes

import (
	"sync"

	"github.com/spaghettifunk/anima-temporal/engine/math"
)

const (
	// JitterSequenceLength is the number of distinct offsets before the
	// sequence repeats.
	JitterSequenceLength = 256

	// plastic number, the unique real root of x^3 = x + 1
	r2G  = 1.32471795724474602596
	r2A1 = 1.0 / r2G
	r2A2 = 1.0 / (r2G * r2G)
)

var (
	r2Once     sync.Once
	r2Sequence [JitterSequenceLength]math.Vec2
)

// r2Offsets returns the unit R2 sequence centred on zero. Entry i holds
// point n = i+1.
func r2Offsets() *[JitterSequenceLength]math.Vec2 {
	r2Once.Do(func() {
		for i := range r2Sequence {
			n := float64(i + 1)
			r2Sequence[i] = math.NewVec2(
				float32(math.Fract(n*r2A1)-0.5),
				float32(math.Fract(n*r2A2)-0.5),
			)
		}
	})
	return &r2Sequence
}

// ViewOffsetter receives the sub-pixel projection offset.
type ViewOffsetter interface {
	SetViewOffset(dx, dy float32)
	ClearViewOffset()
}

// JitterSequencer walks the R2 low-discrepancy sequence and applies each
// offset, in pixels, to its target camera.
type JitterSequencer struct {
	target ViewOffsetter
	index  int
}

// NewJitterSequencer creates a sequencer for target. A nil target only
// produces offsets.
func NewJitterSequencer(target ViewOffsetter) *JitterSequencer {
	return &JitterSequencer{target: target}
}

func (js *JitterSequencer) SetTarget(target ViewOffsetter) {
	js.target = target
}

// Next returns the next offset scaled by scale and installs it on the
// target. Each component lies in [-scale/2, scale/2).
func (js *JitterSequencer) Next(scale float32) math.Vec2 {
	offset := r2Offsets()[js.index].MulScalar(scale)
	js.index = (js.index + 1) % JitterSequenceLength
	if js.target != nil {
		js.target.SetViewOffset(offset.X, offset.Y)
	}
	return offset
}

// Clear removes any offset from the target. The sequence position is kept.
func (js *JitterSequencer) Clear() {
	if js.target != nil {
		js.target.ClearViewOffset()
	}
}

// Index is the position of the offset the next call to Next returns.
func (js *JitterSequencer) Index() int {
	return js.index
}

func (js *JitterSequencer) Len() int {
	return JitterSequenceLength
}

func (js *JitterSequencer) Reset() {
	js.index = 0
}
