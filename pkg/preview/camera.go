package preview

import (
	"math"

	"github.com/taigrr/scenery/pkg/math3d"
)

// Camera orbits a target point. Yaw turns around the world Y axis, pitch
// tilts toward the poles.
type Camera struct {
	Target   math3d.Vec3
	Distance float64
	Yaw      float64 // radians
	Pitch    float64 // radians, clamped just short of the poles

	FOV    float64 // vertical field of view in radians
	Aspect float64 // width / height
	Near   float64
	Far    float64
}

const maxPitch = math.Pi/2 - 0.01

// NewCamera creates a camera looking at the origin from +Z.
func NewCamera() *Camera {
	return &Camera{
		Distance: 5,
		FOV:      math.Pi / 3,
		Aspect:   1,
		Near:     0.1,
		Far:      100,
	}
}

// Fit frames the box [lo, hi]: the camera targets its center from far
// enough away that the bounding sphere fills the vertical field of view.
func (c *Camera) Fit(lo, hi math3d.Vec3) {
	c.Target = lo.Add(hi).Scale(0.5)
	radius := max(hi.Sub(lo).Len()/2, 1e-3)
	c.Distance = radius / math.Sin(c.FOV/2) * 1.1
	c.Near = max(c.Distance-radius*1.5, c.Distance*0.01)
	c.Far = c.Distance + radius*2
}

// Orbit adds to yaw and pitch.
func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw += dYaw
	c.Pitch = math3d.Clamp(c.Pitch+dPitch, -maxPitch, maxPitch)
}

// Eye returns the camera position.
func (c *Camera) Eye() math3d.Vec3 {
	dir := math3d.V3(
		math.Sin(c.Yaw)*math.Cos(c.Pitch),
		math.Sin(c.Pitch),
		math.Cos(c.Yaw)*math.Cos(c.Pitch),
	)
	return c.Target.Add(dir.Scale(c.Distance))
}

// ViewMatrix returns the world-to-camera transform.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	return math3d.LookAt(c.Eye(), c.Target, math3d.V3(0, 1, 0))
}

// ProjectionMatrix returns the perspective projection.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	return math3d.Perspective(c.FOV, c.Aspect, c.Near, c.Far)
}

// ViewProjectionMatrix returns projection * view.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}
