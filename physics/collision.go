package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-drive/vmath"
)

// Collider is a static axis-aligned box
type Collider struct {
	Name        string
	Center      mgl64.Vec3
	HalfExtents mgl64.Vec3
	Friction    float64

	// Drivable top faces carry bodies on wheels: rolling along the heading is free,
	// friction acts only across it
	Drivable bool
}

// Top returns the y coordinate of the collider's upper face
func (c Collider) Top() float64 {
	return c.Center[1] + c.HalfExtents[1]
}

// ContainsXZ reports whether p lies over the collider footprint
func (c Collider) ContainsXZ(p mgl64.Vec3) bool {
	return math.Abs(p[0]-c.Center[0]) <= c.HalfExtents[0] &&
		math.Abs(p[2]-c.Center[2]) <= c.HalfExtents[2]
}

// worldExtents returns the AABB half extents of a yaw-rotated box
func worldExtents(he mgl64.Vec3, rot mgl64.Quat) mgl64.Vec3 {
	yaw := vmath.Yaw(rot)
	c, s := math.Abs(math.Cos(yaw)), math.Abs(math.Sin(yaw))
	return mgl64.Vec3{
		c*he[0] + s*he[2],
		he[1],
		s*he[0] + c*he[2],
	}
}

// combineFriction averages the two coefficients
func combineFriction(a, b float64) float64 {
	return (a + b) / 2
}

// resolve pushes b out of every overlapping collider along the axis of least penetration
// Returns true if velocity was modified
func (w *World) resolve(b *body) bool {
	if !vmath.IsFiniteVec(b.pos) {
		return false
	}
	he := worldExtents(b.cfg.HalfExtents, b.rot)
	touched := false

	for i := range w.colliders {
		c := &w.colliders[i]
		d := b.pos.Sub(c.Center)

		var overlap mgl64.Vec3
		hit := true
		for a := 0; a < 3; a++ {
			overlap[a] = he[a] + c.HalfExtents[a] - math.Abs(d[a])
			if overlap[a] <= 0 {
				hit = false
				break
			}
		}
		if !hit {
			continue
		}

		axis := 0
		if overlap[1] < overlap[axis] {
			axis = 1
		}
		if overlap[2] < overlap[axis] {
			axis = 2
		}
		dir := 1.0
		if d[axis] < 0 {
			dir = -1
		}
		b.pos[axis] += dir * overlap[axis]

		top := axis == 1 && dir > 0
		if top {
			b.grounded = true
		}

		vn := b.linVel[axis] * dir
		if vn >= 0 {
			continue
		}
		b.linVel[axis] = 0
		touched = true

		budget := combineFriction(b.cfg.Friction, c.Friction) * -vn
		if top && c.Drivable {
			applyLateralFriction(&b.linVel, b.rot, budget)
			continue
		}
		applyFriction(&b.linVel, axis, budget)
	}
	return touched
}

// applyFriction reduces the tangential velocity magnitude by at most budget
func applyFriction(v *mgl64.Vec3, normalAxis int, budget float64) {
	t := *v
	t[normalAxis] = 0
	mag := t.Len()
	if mag == 0 || budget <= 0 {
		return
	}
	scale := math.Max(mag-budget, 0) / mag
	for a := 0; a < 3; a++ {
		if a != normalAxis {
			v[a] *= scale
		}
	}
}

// applyLateralFriction reduces velocity across the body's heading by at most budget
func applyLateralFriction(v *mgl64.Vec3, rot mgl64.Quat, budget float64) {
	side := rot.Rotate(vmath.AxisX)
	side[1] = 0
	if side.Len() == 0 || budget <= 0 {
		return
	}
	side = side.Normalize()
	lat := v.Dot(side)
	cut := math.Min(math.Abs(lat), budget) * vmath.Sign(lat)
	*v = v.Sub(side.Mul(cut))
}
