package vehicle

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-drive/physics"
)

// World is the rigid-body surface the controller drives
// *physics.World satisfies it
type World interface {
	Contains(h physics.BodyHandle) bool
	Position(h physics.BodyHandle) mgl64.Vec3
	Orientation(h physics.BodyHandle) mgl64.Quat
	LinearVelocity(h physics.BodyHandle) mgl64.Vec3
	AngularVelocity(h physics.BodyHandle) mgl64.Vec3
	Mass(h physics.BodyHandle) float64

	SetPosition(h physics.BodyHandle, p mgl64.Vec3)
	SetOrientation(h physics.BodyHandle, q mgl64.Quat)
	SetLinearVelocity(h physics.BodyHandle, v mgl64.Vec3)
	SetAngularVelocity(h physics.BodyHandle, v mgl64.Vec3)

	ApplyImpulse(h physics.BodyHandle, impulse mgl64.Vec3, atCenter bool)
	ApplyForce(h physics.BodyHandle, force mgl64.Vec3, atCenter bool)
	SetLinearDamping(h physics.BodyHandle, d float64)
	SetHeld(h physics.BodyHandle, held bool)
}

var _ World = (*physics.World)(nil)
