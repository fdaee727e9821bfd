package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-temporal/engine/core"
)

// JobTask is one unit of work for the job system.
type JobTask struct {
	// Run does the work. A returned error is logged and passed to OnFailure.
	Run        func() error
	OnComplete func()
	OnFailure  func(err error)
	// OnCompletionCallback runs after OnComplete or OnFailure.
	OnCompletionCallback func()
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job JobTask) {
	if err := job.Run(); err != nil {
		core.LogError(err.Error())
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
	} else if job.OnComplete != nil {
		job.OnComplete()
	}

	if job.OnCompletionCallback != nil {
		job.OnCompletionCallback()
	}
}

/**
 * @brief Shuts the job system down. Queued jobs still run.
 */
func (js *JobSystem) Shutdown() error {
	js.closeOnce.Do(func() {
		close(js.jobQueue)
	})
	js.wg.Wait()
	return nil
}

/**
 * @brief Submits the provided job to be queued for execution.
 * Blocks while the queue is full.
 */
func (js *JobSystem) Submit(jt JobTask) {
	js.jobQueue <- jt
}

// Dispatch splits [0, rows) into contiguous ranges, runs kernel for every row
// on the workers and returns once all rows are done. It must not be called
// from inside a job.
func (js *JobSystem) Dispatch(rows int, kernel func(row int)) {
	if rows <= 0 {
		return
	}
	chunks := js.numWorkers * 4
	if chunks > rows {
		chunks = rows
	}
	size := (rows + chunks - 1) / chunks

	var done sync.WaitGroup
	for start := 0; start < rows; start += size {
		end := start + size
		if end > rows {
			end = rows
		}
		first, last := start, end
		done.Add(1)
		js.Submit(JobTask{
			Run: func() error {
				for y := first; y < last; y++ {
					kernel(y)
				}
				return nil
			},
			OnCompletionCallback: done.Done,
		})
	}
	done.Wait()
}
