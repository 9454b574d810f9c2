package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-drive/parameter"
	"github.com/lixenwraith/vi-drive/vmath"
)

type body struct {
	cfg   BodyConfig
	gen   uint32
	alive bool

	pos    mgl64.Vec3
	rot    mgl64.Quat
	linVel mgl64.Vec3
	angVel mgl64.Vec3
	force  mgl64.Vec3

	linDamp  float64
	angDamp  float64
	grounded bool
	// held bodies skip integration and stay at rest
	held bool
}

// integrate performs semi-implicit Euler: v += a*dt, damp, p += v*dt, then resolve contacts
func (w *World) integrate(b *body, dt float64) {
	if b.held {
		b.force = mgl64.Vec3{}
		b.linVel = mgl64.Vec3{}
		b.angVel = mgl64.Vec3{}
		return
	}
	accel := w.gravity.Add(b.force.Mul(1 / b.cfg.Mass))
	b.force = mgl64.Vec3{}
	b.linVel = b.linVel.Add(accel.Mul(dt))

	// Implicit damping, stable for any dt
	b.linVel = b.linVel.Mul(DampingFactor(b.linDamp, dt))
	b.angVel = b.angVel.Mul(DampingFactor(b.angDamp, dt))

	b.rot = w.rotate(b, dt)
	w.translate(b, dt)
}

// DampingFactor returns the per-step velocity multiplier for coefficient d
func DampingFactor(d, dt float64) float64 {
	if d <= 0 {
		return 1
	}
	return 1 / (1 + dt*d)
}

func (w *World) rotate(b *body, dt float64) mgl64.Quat {
	if b.cfg.LockPitchRoll {
		b.angVel = mgl64.Vec3{0, b.angVel[1], 0}
		if b.angVel[1] == 0 {
			return b.rot
		}
		return vmath.YawQuat(vmath.Yaw(b.rot) + b.angVel[1]*dt)
	}
	if b.angVel == (mgl64.Vec3{}) {
		return b.rot
	}
	// q' = q + ½·ω·q·dt
	spin := mgl64.Quat{W: 0, V: b.angVel}.Mul(b.rot).Scale(0.5 * dt)
	return b.rot.Add(spin).Normalize()
}

func (w *World) translate(b *body, dt float64) {
	disp := b.linVel.Mul(dt)
	steps := 1
	if b.cfg.CCD && vmath.IsFiniteVec(disp) {
		steps = sweepSteps(disp.Len(), minComponent(b.cfg.HalfExtents))
	}
	step := disp.Mul(1 / float64(steps))

	b.grounded = false
	for i := 0; i < steps; i++ {
		b.pos = b.pos.Add(step)
		if w.resolve(b) {
			// Velocity changed on contact; recompute remaining travel
			remaining := steps - i - 1
			if remaining == 0 {
				break
			}
			step = b.linVel.Mul(dt / float64(steps))
		}
	}
}

func sweepSteps(travel, minHalf float64) int {
	if minHalf <= 0 {
		return 1
	}
	limit := minHalf * parameter.SweepStepFraction
	n := int(math.Ceil(travel / limit))
	if n < 1 {
		return 1
	}
	if n > parameter.MaxSweepSteps {
		return parameter.MaxSweepSteps
	}
	return n
}

func minComponent(v mgl64.Vec3) float64 {
	return math.Min(v[0], math.Min(v[1], v[2]))
}
