package systems

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNewJobSystemRejectsBadSizes(t *testing.T) {
	if _, err := NewJobSystem(0, 1); !errors.Is(err, ErrNoWorkers) {
		t.Errorf("got %v, want ErrNoWorkers", err)
	}
	if _, err := NewJobSystem(1, -1); !errors.Is(err, ErrNegativeChannelSize) {
		t.Errorf("got %v, want ErrNegativeChannelSize", err)
	}
}

func TestDispatchVisitsEveryRowOnce(t *testing.T) {
	js, err := NewJobSystem(4, 8)
	if err != nil {
		t.Fatal(err)
	}
	defer js.Shutdown()

	for _, rows := range []int{0, 1, 3, 17, 100} {
		hits := make([]int32, rows)
		js.Dispatch(rows, func(row int) {
			atomic.AddInt32(&hits[row], 1)
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("rows=%d: row %d ran %d times", rows, i, h)
			}
		}
	}
}

func TestSubmitCallbacks(t *testing.T) {
	js, err := NewJobSystem(2, 0)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	var completed, failed atomic.Int32
	wg.Add(2)
	js.Submit(JobTask{
		Run:                  func() error { return nil },
		OnComplete:           func() { completed.Add(1) },
		OnCompletionCallback: wg.Done,
	})
	js.Submit(JobTask{
		Run:                  func() error { return errors.New("boom") },
		OnFailure:            func(error) { failed.Add(1) },
		OnCompletionCallback: wg.Done,
	})
	wg.Wait()

	if completed.Load() != 1 || failed.Load() != 1 {
		t.Errorf("completed=%d failed=%d", completed.Load(), failed.Load())
	}
	if err := js.Shutdown(); err != nil {
		t.Fatal(err)
	}
	// second shutdown is a no-op
	if err := js.Shutdown(); err != nil {
		t.Fatal(err)
	}
}
