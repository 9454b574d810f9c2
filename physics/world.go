package physics

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-drive/vmath"
)

// ErrStaleHandle is returned when a handle refers to a removed or never-allocated body
var ErrStaleHandle = errors.New("physics: stale body handle")

// BodyHandle addresses a body in the world arena
// Generation guards against reuse of a freed slot
type BodyHandle struct {
	index uint32
	gen   uint32
}

// NilBody is the zero handle; never valid
var NilBody BodyHandle

// IsNil reports whether h is the zero handle
func (h BodyHandle) IsNil() bool {
	return h.gen == 0
}

// BodyConfig describes a dynamic body at creation
type BodyConfig struct {
	Mass           float64
	Friction       float64
	LinearDamping  float64
	AngularDamping float64
	HalfExtents    mgl64.Vec3

	// LockPitchRoll leaves only yaw free
	LockPitchRoll bool
	// CCD sub-steps translation so fast bodies cannot pass through thin colliders
	CCD bool

	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// World owns dynamic bodies and static colliders
// Not safe for concurrent use; the session drives it from one goroutine
type World struct {
	gravity   mgl64.Vec3
	bodies    []body
	free      []uint32
	colliders []Collider
}

// NewWorld creates an empty world with the given gravity
func NewWorld(gravity mgl64.Vec3) *World {
	return &World{gravity: gravity}
}

// Gravity returns the world gravity vector
func (w *World) Gravity() mgl64.Vec3 {
	return w.gravity
}

// AddBody inserts a dynamic body and returns its handle
func (w *World) AddBody(cfg BodyConfig) BodyHandle {
	if cfg.Mass <= 0 {
		cfg.Mass = 1
	}
	if cfg.Orientation == (mgl64.Quat{}) {
		cfg.Orientation = mgl64.QuatIdent()
	}

	var idx uint32
	if n := len(w.free); n > 0 {
		idx = w.free[n-1]
		w.free = w.free[:n-1]
	} else {
		w.bodies = append(w.bodies, body{})
		idx = uint32(len(w.bodies) - 1)
	}

	b := &w.bodies[idx]
	gen := b.gen + 1
	*b = body{
		cfg:     cfg,
		gen:     gen,
		alive:   true,
		pos:     cfg.Position,
		rot:     cfg.Orientation.Normalize(),
		linDamp: cfg.LinearDamping,
		angDamp: cfg.AngularDamping,
	}
	return BodyHandle{index: idx, gen: gen}
}

// RemoveBody frees the slot; the handle and any copies become stale
func (w *World) RemoveBody(h BodyHandle) error {
	b := w.get(h)
	if b == nil {
		return ErrStaleHandle
	}
	b.alive = false
	w.free = append(w.free, h.index)
	return nil
}

// Contains reports whether h refers to a live body
func (w *World) Contains(h BodyHandle) bool {
	return w.get(h) != nil
}

// BodyCount returns the number of live bodies
func (w *World) BodyCount() int {
	return len(w.bodies) - len(w.free)
}

func (w *World) get(h BodyHandle) *body {
	if h.gen == 0 || int(h.index) >= len(w.bodies) {
		return nil
	}
	b := &w.bodies[h.index]
	if !b.alive || b.gen != h.gen {
		return nil
	}
	return b
}

// Getters return zero values for unknown handles

func (w *World) Position(h BodyHandle) mgl64.Vec3 {
	if b := w.get(h); b != nil {
		return b.pos
	}
	return mgl64.Vec3{}
}

func (w *World) Orientation(h BodyHandle) mgl64.Quat {
	if b := w.get(h); b != nil {
		return b.rot
	}
	return mgl64.QuatIdent()
}

func (w *World) LinearVelocity(h BodyHandle) mgl64.Vec3 {
	if b := w.get(h); b != nil {
		return b.linVel
	}
	return mgl64.Vec3{}
}

func (w *World) AngularVelocity(h BodyHandle) mgl64.Vec3 {
	if b := w.get(h); b != nil {
		return b.angVel
	}
	return mgl64.Vec3{}
}

func (w *World) Mass(h BodyHandle) float64 {
	if b := w.get(h); b != nil {
		return b.cfg.Mass
	}
	return 0
}

func (w *World) LinearDamping(h BodyHandle) float64 {
	if b := w.get(h); b != nil {
		return b.linDamp
	}
	return 0
}

// Grounded reports whether the body rested on a top face during the last step
func (w *World) Grounded(h BodyHandle) bool {
	if b := w.get(h); b != nil {
		return b.grounded
	}
	return false
}

// Setters no-op for unknown handles

func (w *World) SetPosition(h BodyHandle, p mgl64.Vec3) {
	if b := w.get(h); b != nil {
		b.pos = p
	}
}

// SetOrientation normalizes q; locked bodies keep only its yaw
func (w *World) SetOrientation(h BodyHandle, q mgl64.Quat) {
	b := w.get(h)
	if b == nil {
		return
	}
	if b.cfg.LockPitchRoll && vmath.IsFiniteQuat(q) {
		q = vmath.YawOnly(q)
	}
	b.rot = q.Normalize()
}

func (w *World) SetLinearVelocity(h BodyHandle, v mgl64.Vec3) {
	if b := w.get(h); b != nil {
		b.linVel = v
	}
}

// SetAngularVelocity drops locked axes
func (w *World) SetAngularVelocity(h BodyHandle, v mgl64.Vec3) {
	b := w.get(h)
	if b == nil {
		return
	}
	if b.cfg.LockPitchRoll {
		v = mgl64.Vec3{0, v[1], 0}
	}
	b.angVel = v
}

// SetLinearDamping replaces the body's linear damping coefficient
func (w *World) SetLinearDamping(h BodyHandle, d float64) {
	if b := w.get(h); b != nil && d >= 0 {
		b.linDamp = d
	}
}

// SetHeld pins a body in place; gravity, forces and velocity are ignored until released
func (w *World) SetHeld(h BodyHandle, held bool) {
	if b := w.get(h); b != nil {
		b.held = held
	}
}

// Held reports whether the body is pinned
func (w *World) Held(h BodyHandle) bool {
	if b := w.get(h); b != nil {
		return b.held
	}
	return false
}

// ApplyImpulse changes velocity by impulse/mass immediately
// Bodies are uniform boxes, so the origin is the center of mass and atCenter only documents intent
func (w *World) ApplyImpulse(h BodyHandle, impulse mgl64.Vec3, atCenter bool) {
	if b := w.get(h); b != nil {
		b.linVel = b.linVel.Add(impulse.Mul(1 / b.cfg.Mass))
	}
}

// ApplyForce accumulates a force integrated over the next Step, then cleared
func (w *World) ApplyForce(h BodyHandle, force mgl64.Vec3, atCenter bool) {
	if b := w.get(h); b != nil {
		b.force = b.force.Add(force)
	}
}

// AddCollider registers a static box
func (w *World) AddCollider(c Collider) int {
	w.colliders = append(w.colliders, c)
	return len(w.colliders) - 1
}

// Colliders returns the static colliders; callers must not modify the slice
func (w *World) Colliders() []Collider {
	return w.colliders
}

// Step advances every live body by dt seconds
func (w *World) Step(dt float64) {
	if dt <= 0 || !vmath.IsFinite(dt) {
		return
	}
	for i := range w.bodies {
		b := &w.bodies[i]
		if !b.alive {
			continue
		}
		w.integrate(b, dt)
	}
}
