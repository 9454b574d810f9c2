package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-drive/parameter"
)

// Body and collider profiles for the default arena

// VehicleBody returns the chassis configuration at the spawn point
func VehicleBody() BodyConfig {
	return BodyConfig{
		Mass:           parameter.VehicleMass,
		Friction:       parameter.VehicleFriction,
		LinearDamping:  parameter.VehicleLinearDamping,
		AngularDamping: parameter.VehicleAngularDamping,
		HalfExtents: mgl64.Vec3{
			parameter.VehicleHalfWidth,
			parameter.VehicleHalfHeight,
			parameter.VehicleHalfLength,
		},
		LockPitchRoll: true,
		CCD:           true,
		Position:      mgl64.Vec3(parameter.SpawnPoint),
		Orientation:   mgl64.QuatIdent(),
	}
}

// GroundSlab returns the drivable floor with its top face at y=0
func GroundSlab(halfExtent float64) Collider {
	return Collider{
		Name:        "ground",
		Center:      mgl64.Vec3{0, -parameter.GroundHalfThickness, 0},
		HalfExtents: mgl64.Vec3{halfExtent, parameter.GroundHalfThickness, halfExtent},
		Friction:    parameter.GroundFriction,
		Drivable:    true,
	}
}

// Block returns a static obstacle resting on the ground
func Block(name string, x, z float64, half mgl64.Vec3) Collider {
	return Collider{
		Name:        name,
		Center:      mgl64.Vec3{x, half[1], z},
		HalfExtents: half,
		Friction:    parameter.ObstacleFriction,
	}
}

// Letter blocks placed ahead of the spawn point
func DefaultObstacles() []Collider {
	half := mgl64.Vec3{0.5, 1, 0.5}
	return []Collider{
		Block("J", -4.5, -10, half),
		Block("O", -1.5, -10, half),
		Block("E", 1.5, -10, half),
		Block("L", 4.5, -10, half),
	}
}
