package visual

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-drive/parameter"
	"github.com/lixenwraith/vi-drive/vmath"
)

// FollowCamera orbits a target on a sphere
// Polar angle is measured from +Y; azimuth from +Z toward +X
type FollowCamera struct {
	target   mgl64.Vec3
	eye      mgl64.Vec3
	distance float64
	polar    float64
	azimuth  float64
}

// NewFollowCamera starts from the default offset
func NewFollowCamera() *FollowCamera {
	c := &FollowCamera{}
	c.SetOffset(mgl64.Vec3(parameter.CameraOffset))
	c.Update()
	return c
}

// SetOffset sets the eye position relative to the target
func (c *FollowCamera) SetOffset(off mgl64.Vec3) {
	c.distance = off.Len()
	if c.distance == 0 {
		c.distance = parameter.CameraMinDistance
		c.polar = parameter.CameraMaxPolar
		return
	}
	c.polar = math.Acos(vmath.Clamp(off[1]/c.distance, -1, 1))
	c.azimuth = math.Atan2(off[0], off[2])
}

// SetTarget re-targets the orbit; takes effect on Update
func (c *FollowCamera) SetTarget(p mgl64.Vec3) {
	if vmath.IsFiniteVec(p) {
		c.target = p
	}
}

// Zoom scales distance by factor within limits
func (c *FollowCamera) Zoom(factor float64) {
	if factor > 0 && vmath.IsFinite(factor) {
		c.distance *= factor
	}
}

// Orbit rotates the eye around the target's up axis
func (c *FollowCamera) Orbit(dAzimuth float64) {
	c.azimuth = vmath.WrapAngle(c.azimuth + dAzimuth)
}

// Update clamps the orbit and resolves the eye position
func (c *FollowCamera) Update() {
	c.distance = vmath.Clamp(c.distance, parameter.CameraMinDistance, parameter.CameraMaxDistance)
	c.polar = vmath.Clamp(c.polar, parameter.CameraMinPolar, parameter.CameraMaxPolar)

	sp := math.Sin(c.polar)
	off := mgl64.Vec3{
		c.distance * sp * math.Sin(c.azimuth),
		c.distance * math.Cos(c.polar),
		c.distance * sp * math.Cos(c.azimuth),
	}
	c.eye = c.target.Add(off)
}

func (c *FollowCamera) Target() mgl64.Vec3 { return c.target }
func (c *FollowCamera) Eye() mgl64.Vec3    { return c.eye }
func (c *FollowCamera) Distance() float64  { return c.distance }
func (c *FollowCamera) Azimuth() float64   { return c.azimuth }
func (c *FollowCamera) Polar() float64     { return c.polar }
