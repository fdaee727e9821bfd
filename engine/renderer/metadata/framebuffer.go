package metadata

import (
	"fmt"

	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/math"
)

/** @brief The role a frame buffer plays in the pipeline. */
type BufferRole int

const (
	/** @brief Linear RGB colour, 3 channels. */
	BufferRoleColor BufferRole = iota
	/** @brief Linear view-space depth, 1 channel. */
	BufferRoleDepth
	/** @brief World-space unit normal, 3 channels. */
	BufferRoleNormal
	/** @brief Texture-space motion (current uv - previous uv), 2 channels. */
	BufferRoleVelocity
	/** @brief First and second luminance moments, 2 channels. */
	BufferRoleMoments
	/** @brief Accumulated RGB plus the accumulated frame count, 4 channels. */
	BufferRoleAccumulation
)

func (r BufferRole) String() string {
	switch r {
	case BufferRoleColor:
		return "color"
	case BufferRoleDepth:
		return "depth"
	case BufferRoleNormal:
		return "normal"
	case BufferRoleVelocity:
		return "velocity"
	case BufferRoleMoments:
		return "moments"
	case BufferRoleAccumulation:
		return "accumulation"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Channels returns the channel count a buffer with this role carries.
func (r BufferRole) Channels() int {
	switch r {
	case BufferRoleDepth:
		return 1
	case BufferRoleVelocity, BufferRoleMoments:
		return 2
	case BufferRoleAccumulation:
		return 4
	default:
		return 3
	}
}

// Buffer is a 2D grid of float pixels stored row-major with interleaved
// channels.
type Buffer struct {
	Role     BufferRole
	Width    int
	Height   int
	Channels int
	Pix      []float32
}

// NewBuffer allocates a zeroed buffer sized for the role's channel count.
func NewBuffer(role BufferRole, width, height int) *Buffer {
	return NewBufferChannels(role, width, height, role.Channels())
}

func NewBufferChannels(role BufferRole, width, height, channels int) *Buffer {
	if width < 0 || height < 0 || channels <= 0 {
		panic(fmt.Sprintf("invalid buffer dimensions %dx%dx%d", width, height, channels))
	}
	return &Buffer{
		Role:     role,
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]float32, width*height*channels),
	}
}

// Offset returns the index of channel 0 of pixel (x, y).
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * b.Channels
}

func (b *Buffer) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// At returns channel c of pixel (x, y), clamping coordinates to the edge.
func (b *Buffer) At(x, y, c int) float32 {
	x = math.Clamp(x, 0, b.Width-1)
	y = math.Clamp(y, 0, b.Height-1)
	return b.Pix[b.Offset(x, y)+c]
}

// Pixel returns a slice aliasing the channels of pixel (x, y).
func (b *Buffer) Pixel(x, y int) []float32 {
	o := b.Offset(x, y)
	return b.Pix[o : o+b.Channels]
}

func (b *Buffer) Set(x, y int, values ...float32) {
	copy(b.Pix[b.Offset(x, y):b.Offset(x, y)+b.Channels], values)
}

// Fill sets every pixel to values.
func (b *Buffer) Fill(values ...float32) {
	for i := 0; i < len(b.Pix); i += b.Channels {
		copy(b.Pix[i:i+b.Channels], values)
	}
}

func (b *Buffer) SameSize(other *Buffer) bool {
	return other != nil && b.Width == other.Width && b.Height == other.Height
}

func (b *Buffer) HasSize(width, height int) bool {
	return b.Width == width && b.Height == height
}

// CopyFrom overwrites b with src. Both must share size and channel count.
func (b *Buffer) CopyFrom(src *Buffer) error {
	if src == b {
		return core.ErrAliasedSnapshot
	}
	if !b.SameSize(src) || b.Channels != src.Channels {
		return fmt.Errorf("copy %s %dx%dx%d into %s %dx%dx%d: %w",
			src.Role, src.Width, src.Height, src.Channels,
			b.Role, b.Width, b.Height, b.Channels, core.ErrResolutionMismatch)
	}
	copy(b.Pix, src.Pix)
	return nil
}

func (b *Buffer) Clone() *Buffer {
	out := &Buffer{
		Role:     b.Role,
		Width:    b.Width,
		Height:   b.Height,
		Channels: b.Channels,
		Pix:      make([]float32, len(b.Pix)),
	}
	copy(out.Pix, b.Pix)
	return out
}

// CheckSize returns ErrResolutionMismatch when b is not width x height.
func (b *Buffer) CheckSize(width, height int) error {
	if b == nil {
		return core.ErrMissingInput
	}
	if !b.HasSize(width, height) {
		return fmt.Errorf("%s buffer is %dx%d, pass expects %dx%d: %w",
			b.Role, b.Width, b.Height, width, height, core.ErrResolutionMismatch)
	}
	return nil
}
