package velocity

import (
	"sync"

	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/math"
)

// Entry is the per-object state motion extraction needs from the previous
// frame.
type Entry struct {
	PrevModel math.Mat4
	// Generation is the frame the entry was stored in.
	Generation uint64
}

// Cache maps stable object identifiers to last frame's transforms. An object
// that was never stored has no previous state and contributes zero motion on
// its first frame.
type Cache struct {
	mu      sync.RWMutex
	entries map[core.ObjectID]Entry
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[core.ObjectID]Entry),
	}
}

func (c *Cache) Lookup(id core.ObjectID) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e, ok
}

// Store records model as the transform id had in frame generation.
func (c *Cache) Store(id core.ObjectID, model math.Mat4, generation uint64) {
	if !id.IsValid() {
		core.LogWarn("velocity cache ignoring invalid object id")
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = Entry{PrevModel: model, Generation: generation}
}

// Invalidate forgets id, so its next frame has no motion.
func (c *Cache) Invalidate(id core.ObjectID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Retain drops every entry whose id is not in live and returns how many were
// removed.
func (c *Cache) Retain(live []core.ObjectID) int {
	keep := make(map[core.ObjectID]struct{}, len(live))
	for _, id := range live {
		keep[id] = struct{}{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id := range c.entries {
		if _, ok := keep[id]; !ok {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// Clear drops every entry. Used when the whole history is invalidated.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[core.ObjectID]Entry)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
