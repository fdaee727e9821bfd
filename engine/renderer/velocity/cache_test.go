package velocity

import (
	"testing"

	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/math"
)

func TestCacheStoreLookup(t *testing.T) {
	c := NewCache()
	id := core.NewObjectID()
	if _, ok := c.Lookup(id); ok {
		t.Fatal("new id should have no previous state")
	}

	model := math.NewMat4Translation(math.NewVec3(1, 2, 3))
	c.Store(id, model, 7)
	e, ok := c.Lookup(id)
	if !ok {
		t.Fatal("stored id not found")
	}
	if !e.PrevModel.Compare(model, 0) || e.Generation != 7 {
		t.Errorf("entry = %+v", e)
	}
}

func TestCacheIgnoresInvalidID(t *testing.T) {
	c := NewCache()
	c.Store(core.InvalidObjectID, math.NewMat4Identity(), 1)
	if c.Len() != 0 {
		t.Errorf("len = %d, want 0", c.Len())
	}
}

func TestCacheInvalidateAndRetain(t *testing.T) {
	c := NewCache()
	a, b, d := core.NewObjectID(), core.NewObjectID(), core.NewObjectID()
	for _, id := range []core.ObjectID{a, b, d} {
		c.Store(id, math.NewMat4Identity(), 1)
	}

	c.Invalidate(b)
	if _, ok := c.Lookup(b); ok {
		t.Error("invalidated id still cached")
	}

	if removed := c.Retain([]core.ObjectID{a}); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, ok := c.Lookup(d); ok {
		t.Error("dead id survived Retain")
	}
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("len after Clear = %d", c.Len())
	}
}
