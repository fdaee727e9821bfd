package metadata

import (
	"fmt"
)

// History keeps the previous frame's copy of a fixed set of buffers. Every
// slot is double-buffered: readers use Front while the current frame writes
// Back, and Snapshot swaps the two only after all writes are complete.
type History struct {
	roles  []BufferRole
	front  []*Buffer
	back   []*Buffer
	width  int
	height int
	valid  bool
}

func NewHistory(width, height int, roles ...BufferRole) *History {
	h := &History{roles: roles}
	h.Resize(width, height)
	return h
}

// Resize reallocates every slot at the new resolution. Old-resolution
// history cannot be reprojected, so the history becomes invalid.
func (h *History) Resize(width, height int) {
	h.width = width
	h.height = height
	h.front = make([]*Buffer, len(h.roles))
	h.back = make([]*Buffer, len(h.roles))
	for i, role := range h.roles {
		h.front[i] = NewBuffer(role, width, height)
		h.back[i] = NewBuffer(role, width, height)
	}
	h.valid = false
}

func (h *History) Len() int {
	return len(h.roles)
}

func (h *History) Width() int {
	return h.width
}

func (h *History) Height() int {
	return h.height
}

// Front returns the readable previous-frame buffer of slot i.
func (h *History) Front(i int) *Buffer {
	return h.front[i]
}

// Back returns the write target of slot i for the frame in flight.
func (h *History) Back(i int) *Buffer {
	return h.back[i]
}

// Valid reports whether the front buffers hold a completed frame.
func (h *History) Valid() bool {
	return h.valid
}

func (h *History) Invalidate() {
	h.valid = false
}

// Snapshot copies current[i] into the back buffer of slot i and then swaps
// front and back for every slot. A nil entry, or the slot's own back
// buffer, means the frame already wrote that slot in place. The front
// buffers are never written.
func (h *History) Snapshot(current ...*Buffer) error {
	if len(current) != len(h.roles) {
		return fmt.Errorf("history snapshot got %d buffers for %d slots", len(current), len(h.roles))
	}
	for i, src := range current {
		if src == nil || src == h.back[i] {
			continue
		}
		if err := src.CheckSize(h.width, h.height); err != nil {
			return fmt.Errorf("history slot %d: %w", i, err)
		}
		if err := h.back[i].CopyFrom(src); err != nil {
			return fmt.Errorf("history slot %d: %w", i, err)
		}
	}
	h.front, h.back = h.back, h.front
	h.valid = true
	return nil
}

// PingPong is a pair of same-sized buffers that alternate as read and write
// targets.
type PingPong struct {
	A *Buffer
	B *Buffer
}

func NewPingPong(role BufferRole, width, height, channels int) *PingPong {
	return &PingPong{
		A: NewBufferChannels(role, width, height, channels),
		B: NewBufferChannels(role, width, height, channels),
	}
}

// Reset reallocates both buffers when the requested shape differs.
func (pp *PingPong) Reset(width, height, channels int) {
	if pp.A != nil && pp.A.HasSize(width, height) && pp.A.Channels == channels {
		return
	}
	role := BufferRoleColor
	if pp.A != nil {
		role = pp.A.Role
	}
	pp.A = NewBufferChannels(role, width, height, channels)
	pp.B = NewBufferChannels(role, width, height, channels)
}
