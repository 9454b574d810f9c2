package vehicle

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-drive/vmath"
)

// Phase is the recovery state of the vehicle
type Phase uint8

const (
	PhaseDriving Phase = iota
	PhaseLocked
)

func (p Phase) String() string {
	if p == PhaseLocked {
		return "locked"
	}
	return "driving"
}

// RespawnReason records why the vehicle was reset
type RespawnReason uint8

const (
	ReasonFell RespawnReason = iota + 1
	ReasonNonFinite
	ReasonManual
)

func (r RespawnReason) String() string {
	switch r {
	case ReasonFell:
		return "fell"
	case ReasonNonFinite:
		return "non_finite"
	case ReasonManual:
		return "manual"
	}
	return "unknown"
}

// Watchdog detects an unrecoverable body state and holds the vehicle still after a reset
type Watchdog struct {
	floorY    float64
	phase     Phase
	remaining float64
}

// NewWatchdog creates a watchdog in the Driving phase
func NewWatchdog(floorY float64) *Watchdog {
	return &Watchdog{floorY: floorY}
}

// Phase returns the current phase
func (w *Watchdog) Phase() Phase {
	return w.phase
}

// Remaining returns seconds left in the lock window
func (w *Watchdog) Remaining() float64 {
	if w.phase != PhaseLocked {
		return 0
	}
	return w.remaining
}

// Inspect classifies body state; ok is false when a respawn is required
// Non-finite state takes precedence over falling
func (w *Watchdog) Inspect(pos, linVel, angVel mgl64.Vec3, rot mgl64.Quat) (RespawnReason, bool) {
	if !vmath.IsFiniteVec(pos) || !vmath.IsFiniteVec(linVel) ||
		!vmath.IsFiniteVec(angVel) || !vmath.IsFiniteQuat(rot) {
		return ReasonNonFinite, false
	}
	if pos[1] < w.floorY {
		return ReasonFell, false
	}
	return 0, true
}

// Lock enters Locked for d
func (w *Watchdog) Lock(d time.Duration) {
	w.phase = PhaseLocked
	w.remaining = d.Seconds()
}

// Tick consumes dt of the lock window; returns true while the vehicle must stay locked this tick
func (w *Watchdog) Tick(dt float64) bool {
	if w.phase != PhaseLocked {
		return false
	}
	w.remaining -= dt
	if w.remaining <= 0 {
		w.remaining = 0
		w.phase = PhaseDriving
	}
	return true
}
