package metadata

import (
	"github.com/spaghettifunk/anima-temporal/engine/renderer/components"
)

/** @brief Everything the temporal resolver reads for one frame. */
type FrameInputs struct {
	/** @brief Noisy beauty colour of this frame. */
	Color *Buffer
	/** @brief Linear view depth, unjittered. */
	Depth *Buffer
	/** @brief World-space normals, unjittered. */
	Normal *Buffer
	/** @brief uv_current - uv_previous per pixel. May be nil when velocity is off. */
	Velocity *Buffer
	/** @brief Unjittered camera used for extraction this frame. */
	Current components.CameraState
	/** @brief Camera of the previous frame. May be zero when there was none. */
	Previous components.CameraState
}

/** @brief Output of a geometry extractor. */
type GeometryBuffers struct {
	Depth    *Buffer
	Normal   *Buffer
	Velocity *Buffer
}

type TemporalOutput struct {
	/** @brief RGB plus accumulated frame count. */
	Accumulated *Buffer
	/** @brief Accumulated luminance moments. */
	Moments *Buffer
}

/** @brief Auxiliary guides for the spatial denoiser. Moments and History may be nil. */
type DenoiseAux struct {
	Depth   *Buffer
	Normal  *Buffer
	Moments *Buffer
	/** @brief Accumulated colour whose fourth channel is the per-pixel frame count. */
	History *Buffer
}

type RenderPacket struct {
	DeltaTime   float64
	FrameNumber uint64
}

/** @brief The buffers produced by one call to DrawFrame. */
type FrameResult struct {
	FrameNumber uint64
	Raw         *Buffer
	Resolved    *Buffer
	Denoised    *Buffer
}

// Dispatcher runs kernel once per row in [0, rows) and returns when every
// row is done. Kernels for different rows may run concurrently.
type Dispatcher interface {
	Dispatch(rows int, kernel func(row int))
}

// SerialDispatcher runs every row on the calling goroutine.
type SerialDispatcher struct{}

func (SerialDispatcher) Dispatch(rows int, kernel func(row int)) {
	for y := 0; y < rows; y++ {
		kernel(y)
	}
}
