package parameter

import "time"

// World
const (
	// Gravity is the vertical acceleration, units/s²
	Gravity = -20.0

	// FloorY triggers a respawn when the chassis falls below it
	FloorY = -10.0

	// LockDurationDefault holds a respawned vehicle still before control resumes
	LockDurationDefault = 500 * time.Millisecond
	// LockDurationMax bounds accepted lock duration
	LockDurationMax = 10 * time.Second

	// GroundHalfExtent is the half size of the square ground slab
	GroundHalfExtent = 250.0
	// GroundHalfThickness is the slab half height; its top face is at y=0
	GroundHalfThickness = 0.1
	GroundFriction      = 0.5

	// ObstacleFriction is applied on contact with static blocks
	ObstacleFriction = 0.5
)

// Spawn point
var SpawnPoint = [3]float64{0, 2, 0}

// Integration limits
const (
	// MaxFrameDelta caps dt handed to the simulation after stalls
	MaxFrameDelta = 100 * time.Millisecond

	// SweepStepFraction bounds per-substep travel as a fraction of the smallest half extent
	SweepStepFraction = 0.5
	// MaxSweepSteps bounds substeps per tick
	MaxSweepSteps = 64
)
