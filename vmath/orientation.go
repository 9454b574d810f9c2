package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// YawQuat returns the rotation of angle radians about +Y
func YawQuat(angle float64) mgl64.Quat {
	return mgl64.QuatRotate(angle, AxisY)
}

// Yaw extracts the rotation about +Y from q
func Yaw(q mgl64.Quat) float64 {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.W
	return math.Atan2(2*(w*y+x*z), 1-2*(x*x+y*y))
}

// Heading rotates the canonical forward axis by q
func Heading(q mgl64.Quat) mgl64.Vec3 {
	return q.Rotate(Forward)
}

// TiltOf returns the angle between q's up axis and world up
// Zero for a pure yaw rotation
func TiltOf(q mgl64.Quat) float64 {
	up := q.Rotate(AxisY)
	return math.Atan2(math.Hypot(up[0], up[2]), up[1])
}

// YawOnly projects q onto its yaw component, discarding pitch and roll
func YawOnly(q mgl64.Quat) mgl64.Quat {
	return YawQuat(Yaw(q))
}
