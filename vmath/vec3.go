package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Canonical axes in world space
var (
	AxisX   = mgl64.Vec3{1, 0, 0}
	AxisY   = mgl64.Vec3{0, 1, 0}
	Forward = mgl64.Vec3{0, 0, 1}
)

// IsFiniteVec reports whether every component of v is finite
func IsFiniteVec(v mgl64.Vec3) bool {
	return IsFinite(v[0]) && IsFinite(v[1]) && IsFinite(v[2])
}

// IsFiniteQuat reports whether every component of q is finite
func IsFiniteQuat(q mgl64.Quat) bool {
	return IsFinite(q.W) && IsFiniteVec(q.V)
}

// Horizontal drops the vertical component
func Horizontal(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v[0], 0, v[2]}
}

// HorizontalSpeed returns |v.xz|
func HorizontalSpeed(v mgl64.Vec3) float64 {
	return math.Hypot(v[0], v[2])
}

// ClampHorizontal rescales v.xz to at most limit, leaving v.y untouched
// Returns the input unchanged when already within the limit or limit is non-positive
func ClampHorizontal(v mgl64.Vec3, limit float64) (mgl64.Vec3, bool) {
	if limit <= 0 {
		return v, false
	}
	speed := HorizontalSpeed(v)
	if speed <= limit {
		return v, false
	}
	s := limit / speed
	return mgl64.Vec3{v[0] * s, v[1], v[2] * s}, true
}

// ClampMagnitude rescales v to at most limit
func ClampMagnitude(v mgl64.Vec3, limit float64) mgl64.Vec3 {
	if limit <= 0 {
		return v
	}
	mag := v.Len()
	if mag <= limit || mag == 0 {
		return v
	}
	return v.Mul(limit / mag)
}

// LerpVec interpolates component-wise
func LerpVec(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
