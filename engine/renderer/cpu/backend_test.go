package cpu

import (
	"sync/atomic"
	"testing"
)

func TestBackendLifecycle(t *testing.T) {
	b := New(3)
	if err := b.Initialize("test", 8, 4); err != nil {
		t.Fatal(err)
	}
	defer b.Shutdown()
	if !b.IsMultithreaded() {
		t.Error("three workers should be multithreaded")
	}
	if err := b.Initialize("test", 8, 4); err == nil {
		t.Error("second Initialize should fail")
	}

	if err := b.EndFrame(0); err == nil {
		t.Error("EndFrame without BeginFrame should fail")
	}
	if err := b.BeginFrame(0.016); err != nil {
		t.Fatal(err)
	}
	if err := b.BeginFrame(0.016); err == nil {
		t.Error("nested BeginFrame should fail")
	}
	if err := b.EndFrame(0.016); err != nil {
		t.Fatal(err)
	}
	if b.FrameNumber() != 1 {
		t.Errorf("frame number = %d", b.FrameNumber())
	}

	if err := b.Resized(0, 4); err == nil {
		t.Error("zero-sized resize should fail")
	}
	if err := b.Resized(16, 9); err != nil {
		t.Fatal(err)
	}
	if w, h := b.Size(); w != 16 || h != 9 {
		t.Errorf("size = %dx%d", w, h)
	}
}

func TestBackendDispatch(t *testing.T) {
	for _, workers := range []int{1, 4} {
		b := New(workers)
		if err := b.Initialize("test", 1, 1); err != nil {
			t.Fatal(err)
		}
		var sum atomic.Int64
		b.Dispatch(50, func(row int) { sum.Add(int64(row)) })
		if got := sum.Load(); got != 49*50/2 {
			t.Errorf("workers=%d: sum = %d", workers, got)
		}
		if err := b.Shutdown(); err != nil {
			t.Fatal(err)
		}
	}
}
