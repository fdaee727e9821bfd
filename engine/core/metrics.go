package core

import (
	"sort"
	"sync"
	"time"

	"github.com/spaghettifunk/anima-temporal/engine/containers"
)

const AVG_COUNT int = 30

type MetricsState struct {
	mutex              sync.Mutex
	frameTimes         *containers.RingQueue[float64]
	stageTimes         map[string]*containers.RingQueue[float64]
	MSavg              float64
	Frames             int32
	AccumulatedFrameMS float64
	FPS                float64
	TotalFrames        uint64
}

var onceMetrics sync.Once
var metricsState *MetricsState = nil

func NewMetricsState() *MetricsState {
	return &MetricsState{
		frameTimes: containers.NewRingQueue[float64](AVG_COUNT),
		stageTimes: make(map[string]*containers.RingQueue[float64]),
	}
}

func MetricsInitialize() error {
	onceMetrics.Do(func() {
		metricsState = NewMetricsState()
	})
	return nil
}

func defaultMetrics() *MetricsState {
	_ = MetricsInitialize()
	return metricsState
}

// Update records the duration of one whole frame, in seconds.
func (ms *MetricsState) Update(frameElapsedTime float64) {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	frameMS := frameElapsedTime * 1000.0
	ms.frameTimes.Push(frameMS)
	sum := 0.0
	ms.frameTimes.Each(func(v float64) { sum += v })
	ms.MSavg = sum / float64(ms.frameTimes.Len())

	// Calculate Frames per second.
	ms.AccumulatedFrameMS += frameMS
	ms.Frames++
	if ms.AccumulatedFrameMS > 1000 {
		ms.FPS = float64(ms.Frames)
		ms.AccumulatedFrameMS -= 1000
		ms.Frames = 0
	}
	ms.TotalFrames++
}

// RecordStage records how long one pipeline stage took this frame.
func (ms *MetricsState) RecordStage(name string, d time.Duration) {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	q, ok := ms.stageTimes[name]
	if !ok {
		q = containers.NewRingQueue[float64](AVG_COUNT)
		ms.stageTimes[name] = q
	}
	q.Push(float64(d.Microseconds()) / 1000.0)
}

// StageAverage returns the rolling average of a stage in milliseconds.
func (ms *MetricsState) StageAverage(name string) float64 {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	q, ok := ms.stageTimes[name]
	if !ok || q.IsEmpty() {
		return 0
	}
	sum := 0.0
	q.Each(func(v float64) { sum += v })
	return sum / float64(q.Len())
}

// Stages lists the recorded stage names in sorted order.
func (ms *MetricsState) Stages() []string {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	names := make([]string, 0, len(ms.stageTimes))
	for name := range ms.stageTimes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (ms *MetricsState) FrameTime() float64 {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()
	return ms.MSavg
}

func MetricsUpdate(frame_elapsed_time float64) {
	defaultMetrics().Update(frame_elapsed_time)
}

func MetricsRecordStage(name string, d time.Duration) {
	defaultMetrics().RecordStage(name, d)
}

func MetricsStageAverage(name string) float64 {
	return defaultMetrics().StageAverage(name)
}

func MetricsStages() []string {
	return defaultMetrics().Stages()
}

func MetricsFPS() float64 {
	ms := defaultMetrics()
	ms.mutex.Lock()
	defer ms.mutex.Unlock()
	return ms.FPS
}

func MetricsFrameTime() float64 {
	return defaultMetrics().FrameTime()
}

func MetricsFrame() (float64, float64) {
	return MetricsFPS(), MetricsFrameTime()
}
