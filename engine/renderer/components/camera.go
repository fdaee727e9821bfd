package components

import (
	m "math"

	"github.com/spaghettifunk/anima-temporal/engine/math"
)

/**
 * @brief Represents a camera that can be used for
 * a variety of things, especially rendering. The projection carries an
 * optional sub-pixel view offset used for temporal jitter.
 */
type Camera struct {
	/**
	 * @brief The position of this camera.
	 * NOTE: Do not set this directly, use SetPosition() instead
	 * so the view matrix is recalculated when needed.
	 */
	Position math.Vec3
	/**
	 * @brief The rotation of this camera using Euler angles (pitch, yaw, roll).
	 * NOTE: Do not set this directly, use SetEulerRotation() instead
	 * so the view matrix is recalculated when needed.
	 */
	EulerRotation math.Vec3
	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	/**
	 * @brief The view matrix of this camera.
	 * NOTE: IMPORTANT: Do not get this directly, use GetView() instead
	 * so the view matrix is recalculated when needed.
	 */
	ViewMatrix math.Mat4

	FOV      float32
	NearClip float32
	FarClip  float32
	Width    uint32
	Height   uint32

	viewOffset    math.Vec2
	hasViewOffset bool
}

/** @brief The name of the default camera. */
const DEFAULT_CAMERA_NAME string = "default"

func NewCamera(width, height uint32) *Camera {
	camera := &Camera{}
	camera.Reset()
	camera.Width = width
	camera.Height = height
	return camera
}

func (c *Camera) Reset() {
	c.EulerRotation = math.NewVec3Zero()
	c.Position = math.NewVec3Zero()
	c.IsDirty = false
	c.ViewMatrix = math.NewMat4Identity()
	c.FOV = math.DegToRad(60)
	c.NearClip = 0.1
	c.FarClip = 1000
	c.ClearViewOffset()
}

func (c *Camera) GetPosition() math.Vec3 {
	return c.Position
}

func (c *Camera) SetPosition(position math.Vec3) {
	c.Position = position
	c.IsDirty = true
}

func (c *Camera) GetEulerRotation() math.Vec3 {
	return c.EulerRotation
}

func (c *Camera) SetEulerRotation(rotation math.Vec3) {
	c.EulerRotation = rotation
	c.IsDirty = true
}

// LookAt orients the camera towards target without roll.
func (c *Camera) LookAt(target math.Vec3) {
	f := target.Sub(c.Position).Normalize()
	pitch := float32(m.Asin(float64(math.Clamp(f.Y, -1, 1))))
	yaw := float32(m.Atan2(float64(-f.X), float64(-f.Z)))
	c.SetEulerRotation(math.NewVec3(pitch, yaw, 0))
}

func (c *Camera) GetView() math.Mat4 {
	if c.IsDirty {
		rotation := math.NewMat4EulerXYZ(c.EulerRotation.X, c.EulerRotation.Y, c.EulerRotation.Z)
		translation := math.NewMat4Translation(c.Position)

		c.ViewMatrix = rotation.Mul(translation)
		c.ViewMatrix = c.ViewMatrix.Inverse()

		c.IsDirty = false
	}
	return c.ViewMatrix
}

// SetViewport updates the render resolution, and with it the aspect ratio.
func (c *Camera) SetViewport(width, height uint32) {
	c.Width = width
	c.Height = height
}

func (c *Camera) AspectRatio() float32 {
	if c.Height == 0 {
		return 1
	}
	return float32(c.Width) / float32(c.Height)
}

// SetViewOffset shifts the projection by (dx, dy) pixels. Positive dy moves
// the image down, matching buffer row order.
func (c *Camera) SetViewOffset(dx, dy float32) {
	c.viewOffset = math.NewVec2(dx, dy)
	c.hasViewOffset = true
}

// ClearViewOffset removes any sub-pixel offset from the projection.
func (c *Camera) ClearViewOffset() {
	c.viewOffset = math.NewVec2Zero()
	c.hasViewOffset = false
}

func (c *Camera) HasViewOffset() bool {
	return c.hasViewOffset
}

func (c *Camera) ViewOffset() math.Vec2 {
	return c.viewOffset
}

// GetProjection returns the perspective projection including the active
// view offset.
func (c *Camera) GetProjection() math.Mat4 {
	proj := math.NewMat4Perspective(c.FOV, c.AspectRatio(), c.NearClip, c.FarClip)
	if c.hasViewOffset && c.Width > 0 && c.Height > 0 {
		proj.Data[8] -= 2 * c.viewOffset.X / float32(c.Width)
		proj.Data[9] += 2 * c.viewOffset.Y / float32(c.Height)
	}
	return proj
}

func (c *Camera) Forward() math.Vec3 {
	view := c.GetView()
	return view.Forward()
}

func (c *Camera) Right() math.Vec3 {
	view := c.GetView()
	return view.Right()
}

func (c *Camera) MoveForward(amount float32) {
	c.Position = c.Position.Add(c.Forward().MulScalar(amount))
	c.IsDirty = true
}

func (c *Camera) MoveRight(amount float32) {
	c.Position = c.Position.Add(c.Right().MulScalar(amount))
	c.IsDirty = true
}

func (c *Camera) Yaw(amount float32) {
	c.EulerRotation.Y += amount
	c.IsDirty = true
}

func (c *Camera) Pitch(amount float32) {
	c.EulerRotation.X += amount

	// Clamp to avoid Gimbal lock.
	limit := float32(1.55334306) // 89 degrees, or equivalent to deg_to_rad(89.0f);
	c.EulerRotation.X = math.Clamp(c.EulerRotation.X, -limit, limit)

	c.IsDirty = true
}

// State captures an immutable snapshot of the camera for one frame.
func (c *Camera) State() CameraState {
	view := c.GetView()
	proj := c.GetProjection()
	return NewCameraState(c.Position, view, proj, c.Width, c.Height, c.viewOffset, c.hasViewOffset)
}
