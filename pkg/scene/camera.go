package scene

import (
	"math"

	"github.com/taigrr/scanline/pkg/math3d"
)

// Camera is a pinhole camera. It is a plain value so a render pass can work
// on a snapshot while the caller keeps moving the original.
type Camera struct {
	// Position in world space
	Position math3d.Vec3

	// Orientation (Euler angles in radians)
	Pitch float64 // Rotation around X axis (look up/down)
	Yaw   float64 // Rotation around Y axis (look left/right)
	Roll  float64 // Rotation around Z axis (tilt)

	// Aperture is the field of view in radians.
	Aperture float64

	// Zoom scales projected coordinates: a point at view distance 1 and
	// lateral offset tan(Aperture/2) lands Zoom pixels from the image center.
	Zoom float64
}

// NewCamera creates a camera at the origin looking down -Z with a 60 degree
// aperture and unit zoom.
func NewCamera() *Camera {
	return &Camera{
		Aperture: math.Pi / 3,
		Zoom:     1,
	}
}

// FitWidth sets Zoom so that the aperture spans the full image width.
func (c *Camera) FitWidth(width int) {
	c.Zoom = float64(width) / 2
}

// PerspectiveFactor returns the pixels per unit of lateral offset at view
// distance 1.
func (c *Camera) PerspectiveFactor() float64 {
	return c.Zoom / math.Tan(c.Aperture/2)
}

// Forward returns the forward direction vector.
func (c *Camera) Forward() math3d.Vec3 {
	// Forward is -Z in camera space, rotated by yaw and pitch
	return math3d.V3(
		-math.Sin(c.Yaw)*math.Cos(c.Pitch),
		math.Sin(c.Pitch),
		-math.Cos(c.Yaw)*math.Cos(c.Pitch),
	)
}

// Right returns the right direction vector.
func (c *Camera) Right() math3d.Vec3 {
	return math3d.V3(math.Cos(c.Yaw), 0, -math.Sin(c.Yaw))
}

// ViewMatrix returns the world-to-view transform.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	// Inverse of the camera orientation, then move the world opposite to
	// the camera position.
	rot := math3d.RotateZ(-c.Roll).Mul(
		math3d.RotateX(-c.Pitch)).Mul(
		math3d.RotateY(-c.Yaw))

	return rot.Mul(math3d.Translate(c.Position.Negate()))
}

// LookAt makes the camera look at a target point.
func (c *Camera) LookAt(target math3d.Vec3) {
	dir := target.Sub(c.Position).Normalize()

	c.Pitch = math.Asin(dir.Y)
	c.Yaw = math.Atan2(-dir.X, -dir.Z)
	c.Roll = 0
}

// Orbit places the camera distance units from target at the given yaw and
// pitch (radians) and points it at the target.
func (c *Camera) Orbit(target math3d.Vec3, distance, yaw, pitch float64) {
	const maxPitch = math.Pi/2 - 0.01
	pitch = math.Max(-maxPitch, math.Min(maxPitch, pitch))

	offset := math3d.V3(
		math.Sin(yaw)*math.Cos(pitch),
		math.Sin(pitch),
		math.Cos(yaw)*math.Cos(pitch),
	).Scale(distance)

	c.Position = target.Add(offset)
	c.LookAt(target)
}
