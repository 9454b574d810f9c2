package vehicle

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/vi-drive/input"
	"github.com/lixenwraith/vi-drive/parameter"
	"github.com/lixenwraith/vi-drive/physics"
	"github.com/lixenwraith/vi-drive/tuning"
	"github.com/lixenwraith/vi-drive/vmath"
)

const tick = 1.0 / 60

// recordingWorld captures engine writes on top of a real world
type recordingWorld struct {
	*physics.World
	forces   []mgl64.Vec3
	impulses []mgl64.Vec3
}

func (r *recordingWorld) ApplyForce(h physics.BodyHandle, f mgl64.Vec3, atCenter bool) {
	r.forces = append(r.forces, f)
	r.World.ApplyForce(h, f, atCenter)
}

func (r *recordingWorld) ApplyImpulse(h physics.BodyHandle, i mgl64.Vec3, atCenter bool) {
	r.impulses = append(r.impulses, i)
	r.World.ApplyImpulse(h, i, atCenter)
}

type rig struct {
	world *recordingWorld
	body  physics.BodyHandle
	ctrl  *Controller
}

func newRig(model tuning.DriveModel) *rig {
	w := physics.NewWorld(mgl64.Vec3{0, parameter.Gravity, 0})
	w.AddCollider(physics.GroundSlab(parameter.GroundHalfExtent))
	h := w.AddBody(physics.VehicleBody())

	rw := &recordingWorld{World: w}
	opts := DefaultOptions()
	opts.Model = model
	c := NewController(rw, opts)
	c.Attach(h)
	return &rig{world: rw, body: h, ctrl: c}
}

// grounded places the body at rest height on the slab
func (r *rig) grounded() *rig {
	r.world.SetPosition(r.body, mgl64.Vec3{0, parameter.VehicleHalfHeight, 0})
	return r
}

func (r *rig) step(dt float64, in input.Snapshot, cfg tuning.Config) VisualState {
	v := r.ctrl.Update(dt, in, cfg)
	r.world.Step(dt)
	r.ctrl.Limit(cfg)
	return v
}

func (r *rig) forwardSpeed() float64 {
	heading := vmath.Heading(r.world.Orientation(r.body))
	return -r.world.LinearVelocity(r.body).Dot(heading)
}

func TestConcreteAccelerationScenario(t *testing.T) {
	r := newRig(tuning.DriveProportional)
	cfg := tuning.Default()
	cfg.EngineForce = 70
	cfg.DragCoefficient = 1
	cfg.MaxSpeed = 40

	crossed := -1.0
	for i := 1; i <= 120; i++ {
		r.step(tick, input.Snapshot{Forward: true}, cfg)
		speed := r.forwardSpeed()
		require.LessOrEqual(t, speed, 40.0, "tick %d", i)
		if crossed < 0 && speed > 20 {
			crossed = float64(i) * tick
		}
	}
	require.Greater(t, crossed, 0.0, "never exceeded 20 units/s")
	assert.Less(t, crossed, 2.0)
}

func TestSpeedBoundImpulse(t *testing.T) {
	r := newRig(tuning.DriveImpulse).grounded()
	cfg := tuning.Default()
	cfg.EngineForce = parameter.EngineForceMax
	cfg.MaxSpeed = 10

	for i := 0; i < 300; i++ {
		r.ctrl.Update(tick, input.Snapshot{Forward: true, SteerLeft: i%50 < 25}, cfg)
		speed := vmath.HorizontalSpeed(r.world.LinearVelocity(r.body))
		require.LessOrEqual(t, speed, cfg.MaxSpeed+1e-9, "tick %d", i)
		r.world.Step(tick)
	}
	assert.NotEmpty(t, r.world.impulses)
}

func TestSpeedBoundHoldsAfterIntegration(t *testing.T) {
	// Airborne: no ground grip bleeds off the engine force
	r := newRig(tuning.DriveProportional)
	r.world.SetPosition(r.body, mgl64.Vec3{0, 2000, 0})
	cfg := tuning.Default()
	cfg.EngineForce = parameter.EngineForceMax
	cfg.MaxSpeed = 10

	for i := 0; i < 600; i++ {
		r.step(tick, input.Snapshot{Forward: true, SteerLeft: true}, cfg)
		speed := vmath.HorizontalSpeed(r.world.LinearVelocity(r.body))
		require.LessOrEqual(t, speed, cfg.MaxSpeed+1e-9, "tick %d", i)
	}
	assert.NotEmpty(t, r.world.forces)
	assert.Equal(t, 0, r.ctrl.Respawns())
}

func TestSpeedLimitPreservesFall(t *testing.T) {
	r := newRig(tuning.DriveProportional)
	r.world.SetPosition(r.body, mgl64.Vec3{0, 50, 0})
	r.world.SetLinearVelocity(r.body, mgl64.Vec3{60, -30, -80})
	cfg := tuning.Default()
	cfg.MaxSpeed = 10

	r.ctrl.Update(tick, input.Snapshot{}, cfg)
	v := r.world.LinearVelocity(r.body)
	assert.InDelta(t, 10, vmath.HorizontalSpeed(v), 1e-9)
	assert.Equal(t, -30.0, v.Y())
}

func TestIdleDecayIsMonotonic(t *testing.T) {
	r := newRig(tuning.DriveProportional).grounded()
	r.world.SetLinearVelocity(r.body, mgl64.Vec3{0, 0, -20})
	cfg := tuning.Default()

	prev := vmath.HorizontalSpeed(r.world.LinearVelocity(r.body))
	for i := 0; i < 600; i++ {
		r.step(tick, input.Snapshot{}, cfg)
		speed := vmath.HorizontalSpeed(r.world.LinearVelocity(r.body))
		require.Less(t, speed, prev, "tick %d", i)
		prev = speed
	}
	assert.Less(t, prev, 0.01)
	assert.Empty(t, r.world.forces)
}

func TestRespawnOnFall(t *testing.T) {
	r := newRig(tuning.DriveProportional)
	var events []RespawnEvent
	r.ctrl.OnRespawn(func(e RespawnEvent) { events = append(events, e) })

	r.world.SetPosition(r.body, mgl64.Vec3{3, -10.5, 7})
	r.world.SetLinearVelocity(r.body, mgl64.Vec3{3, -30, 2})
	r.world.SetAngularVelocity(r.body, mgl64.Vec3{0, 2, 0})
	r.world.SetOrientation(r.body, vmath.YawQuat(1))

	v := r.ctrl.Update(tick, input.Snapshot{Forward: true, SteerLeft: true}, tuning.Default())

	assert.Equal(t, mgl64.Vec3(parameter.SpawnPoint), r.world.Position(r.body))
	assert.Equal(t, mgl64.Vec3{}, r.world.LinearVelocity(r.body))
	assert.Equal(t, mgl64.Vec3{}, r.world.AngularVelocity(r.body))
	assert.InDelta(t, 0, vmath.TiltOf(r.world.Orientation(r.body)), 1e-12)
	assert.InDelta(t, 0, vmath.Yaw(r.world.Orientation(r.body)), 1e-12)
	assert.Equal(t, PhaseLocked, r.ctrl.Phase())
	assert.Equal(t, PhaseLocked, v.Phase)

	require.Len(t, events, 1)
	assert.Equal(t, ReasonFell, events[0].Reason)
	assert.Equal(t, 1, events[0].Count)
	assert.Equal(t, -10.5, events[0].From.Y())
	assert.Empty(t, r.world.forces)
}

func TestRespawnOnNonFiniteState(t *testing.T) {
	for _, bad := range []mgl64.Vec3{
		{math.NaN(), 0, 0},
		{0, math.Inf(-1), 0},
	} {
		r := newRig(tuning.DriveProportional)
		var reason RespawnReason
		r.ctrl.OnRespawn(func(e RespawnEvent) { reason = e.Reason })
		r.world.SetLinearVelocity(r.body, bad)

		r.ctrl.Update(tick, input.Snapshot{}, tuning.Default())
		assert.Equal(t, ReasonNonFinite, reason)
		assert.Equal(t, mgl64.Vec3(parameter.SpawnPoint), r.world.Position(r.body))
		assert.True(t, vmath.IsFiniteVec(r.world.LinearVelocity(r.body)))
	}

	// Corrupt position is caught before the floor check
	r := newRig(tuning.DriveProportional)
	r.world.SetPosition(r.body, mgl64.Vec3{0, math.NaN(), 0})
	var reason RespawnReason
	r.ctrl.OnRespawn(func(e RespawnEvent) { reason = e.Reason })
	r.ctrl.Update(tick, input.Snapshot{}, tuning.Default())
	assert.Equal(t, ReasonNonFinite, reason)
}

func TestLockWindowHoldsVehicle(t *testing.T) {
	r := newRig(tuning.DriveProportional)
	cfg := tuning.Default()
	cfg.LockDuration = 500 * time.Millisecond
	r.world.SetPosition(r.body, mgl64.Vec3{0, -20, 0})

	// 29 ticks fit inside 0.5s at 60 Hz regardless of rounding
	for i := 0; i < 29; i++ {
		r.ctrl.Update(tick, input.Snapshot{Forward: true, SteerRight: true}, cfg)
		require.Equal(t, mgl64.Vec3{}, r.world.LinearVelocity(r.body), "tick %d", i)
		require.Equal(t, mgl64.Vec3{}, r.world.AngularVelocity(r.body), "tick %d", i)
		require.Equal(t, PhaseLocked, r.ctrl.Phase(), "tick %d", i)
		r.world.Step(tick)

		// Gravity must not act between ticks either
		require.Equal(t, mgl64.Vec3{}, r.world.LinearVelocity(r.body), "tick %d after step", i)
		require.Equal(t, parameter.SpawnPoint, [3]float64(r.world.Position(r.body)), "tick %d after step", i)
	}
	assert.Empty(t, r.world.forces)

	for i := 0; i < 3; i++ {
		r.step(tick, input.Snapshot{}, cfg)
	}
	assert.Equal(t, PhaseDriving, r.ctrl.Phase())
	assert.Less(t, r.world.LinearVelocity(r.body).Y(), 0.0)
	assert.Equal(t, 1, r.ctrl.Respawns())
}

func TestLockDurationIsConfigurable(t *testing.T) {
	r := newRig(tuning.DriveProportional)
	cfg := tuning.Default()
	cfg.LockDuration = 0
	r.ctrl.ForceRespawn(ReasonManual)

	r.ctrl.Update(tick, input.Snapshot{}, cfg)
	assert.Equal(t, PhaseDriving, r.ctrl.Phase())

	r.ctrl.Update(tick, input.Snapshot{Forward: true}, cfg)
	assert.Len(t, r.world.forces, 1)
}

func TestManualRespawn(t *testing.T) {
	r := newRig(tuning.DriveProportional).grounded()
	r.world.SetPosition(r.body, mgl64.Vec3{40, 0.55, -90})
	var got RespawnReason
	r.ctrl.OnRespawn(func(e RespawnEvent) { got = e.Reason })

	r.ctrl.ForceRespawn(ReasonManual)
	r.ctrl.Update(tick, input.Snapshot{}, tuning.Default())
	assert.Equal(t, ReasonManual, got)
	assert.Equal(t, mgl64.Vec3(parameter.SpawnPoint), r.world.Position(r.body))

	// Pending flag is consumed
	got = 0
	r.ctrl.Update(tick, input.Snapshot{}, tuning.Default())
	assert.Equal(t, RespawnReason(0), got)
}

func TestSteeringPrecedenceRightWins(t *testing.T) {
	r := newRig(tuning.DriveProportional).grounded()
	cfg := tuning.Default()

	v := r.ctrl.Update(tick, input.Snapshot{SteerLeft: true, SteerRight: true}, cfg)
	assert.Equal(t, -cfg.SteeringRate, r.world.AngularVelocity(r.body).Y())
	assert.Less(t, v.SteerAngle, 0.0)

	r.ctrl.Update(tick, input.Snapshot{SteerLeft: true}, cfg)
	assert.Equal(t, cfg.SteeringRate, r.world.AngularVelocity(r.body).Y())

	r.ctrl.Update(tick, input.Snapshot{}, cfg)
	assert.Equal(t, mgl64.Vec3{}, r.world.AngularVelocity(r.body))
}

func TestVisualSteerApproachesLimit(t *testing.T) {
	r := newRig(tuning.DriveProportional).grounded()
	var v VisualState
	for i := 0; i < 120; i++ {
		v = r.step(tick, input.Snapshot{SteerLeft: true}, tuning.Default())
	}
	assert.InDelta(t, parameter.MaxSteerVisual, v.SteerAngle, 1e-6)
	assert.LessOrEqual(t, v.SteerAngle, parameter.MaxSteerVisual)
}

func TestFrameRateIndependence(t *testing.T) {
	cfg := tuning.Default()
	run := func(dt float64, steps int, in input.Snapshot) (*rig, VisualState) {
		r := newRig(tuning.DriveProportional).grounded()
		var v VisualState
		for i := 0; i < steps; i++ {
			v = r.step(dt, in, cfg)
		}
		return r, v
	}

	// Drive and drag
	fine, vf := run(1.0/60, 60, input.Snapshot{Forward: true})
	coarse, vc := run(1.0/30, 30, input.Snapshot{Forward: true})

	pf, pc := fine.world.Position(fine.body), coarse.world.Position(coarse.body)
	vlf, vlc := fine.world.LinearVelocity(fine.body), coarse.world.LinearVelocity(coarse.body)
	assert.InDelta(t, 0, pf.Sub(pc).Len(), 1.0, "position fine=%v coarse=%v", pf, pc)
	assert.InDelta(t, 0, vlf.Sub(vlc).Len(), 0.5, "velocity fine=%v coarse=%v", vlf, vlc)
	assert.InDelta(t, vf.WheelSpin, vc.WheelSpin, 1.0)

	// Visual steer smoothing is exact across step sizes
	_, sf := run(1.0/60, 20, input.Snapshot{SteerLeft: true})
	_, sc := run(1.0/30, 10, input.Snapshot{SteerLeft: true})
	assert.InDelta(t, sf.SteerAngle, sc.SteerAngle, 1e-9)
}

func TestBrakeAndDrag(t *testing.T) {
	r := newRig(tuning.DriveProportional).grounded()
	r.world.SetLinearVelocity(r.body, mgl64.Vec3{0, 0, -20})
	cfg := tuning.Default()
	cfg.DragSpeedFactor = 0.1

	v := r.ctrl.Update(tick, input.Snapshot{}, cfg)
	assert.InDelta(t, 3, r.world.LinearDamping(r.body), 1e-9)
	assert.Equal(t, 0.0, v.BrakeIntensity)

	v = r.ctrl.Update(tick, input.Snapshot{Brake: true}, cfg)
	assert.Equal(t, cfg.BrakeDragCoefficient, r.world.LinearDamping(r.body))
	assert.Equal(t, 1.0, v.BrakeIntensity)
}

func TestWheelSpinFollowsForwardTravel(t *testing.T) {
	r := newRig(tuning.DriveProportional).grounded()
	r.world.SetLinearVelocity(r.body, mgl64.Vec3{0, 0, -10})

	v := r.ctrl.Update(tick, input.Snapshot{}, tuning.Default())
	assert.InDelta(t, -10, v.ForwardSpeed, 1e-9)
	assert.InDelta(t, 10*tick*parameter.WheelSpinGain, v.WheelSpinDelta, 1e-12)

	v2 := r.ctrl.Update(tick, input.Snapshot{}, tuning.Default())
	assert.InDelta(t, v.WheelSpin+v2.WheelSpinDelta, v2.WheelSpin, 1e-12)
}

func TestReversalGain(t *testing.T) {
	r := newRig(tuning.DriveProportional).grounded()
	// Rolling backward along +heading
	r.world.SetLinearVelocity(r.body, mgl64.Vec3{0, 0, 10})
	cfg := tuning.Default()

	r.ctrl.Update(tick, input.Snapshot{Forward: true}, cfg)
	require.Len(t, r.world.forces, 1)
	want := cfg.EngineForce * parameter.ReversalGain * (-cfg.MaxSpeed - 10)
	assert.InDelta(t, want, r.world.forces[0].Z(), 1e-9)

	// Same direction uses the base gain
	r.world.SetLinearVelocity(r.body, mgl64.Vec3{0, 0, -10})
	r.ctrl.Update(tick, input.Snapshot{Forward: true}, cfg)
	require.Len(t, r.world.forces, 2)
	assert.InDelta(t, cfg.EngineForce*(-cfg.MaxSpeed+10), r.world.forces[1].Z(), 1e-9)
}

func TestNoThrottleNoEngine(t *testing.T) {
	for _, model := range []tuning.DriveModel{tuning.DriveProportional, tuning.DriveImpulse} {
		r := newRig(model).grounded()
		for i := 0; i < 10; i++ {
			r.step(tick, input.Snapshot{SteerLeft: true, Brake: i%2 == 0}, tuning.Default())
		}
		assert.Empty(t, r.world.forces, "model %v", model)
		assert.Empty(t, r.world.impulses, "model %v", model)
	}
}

func TestMissingBodyIsNoOp(t *testing.T) {
	r := newRig(tuning.DriveProportional)
	r.ctrl.Detach()
	before := r.world.Position(r.body)

	assert.NotPanics(t, func() {
		v := r.ctrl.Update(tick, input.Snapshot{Forward: true, SteerLeft: true}, tuning.Default())
		assert.Equal(t, VisualState{}, v)
	})
	assert.Equal(t, before, r.world.Position(r.body))
	assert.Empty(t, r.world.forces)

	nilWorld := NewController(nil, DefaultOptions())
	assert.NotPanics(t, func() { nilWorld.Update(tick, input.Snapshot{Forward: true}, tuning.Default()) })

	// Removed body leaves a stale handle
	r2 := newRig(tuning.DriveProportional)
	require.NoError(t, r2.world.RemoveBody(r2.body))
	assert.NotPanics(t, func() { r2.ctrl.Update(tick, input.Snapshot{Forward: true}, tuning.Default()) })
	assert.Equal(t, 0, r2.ctrl.Respawns())
}

func TestInvalidDeltaIsIgnored(t *testing.T) {
	r := newRig(tuning.DriveProportional).grounded()
	r.ctrl.Update(0, input.Snapshot{Forward: true}, tuning.Default())
	r.ctrl.Update(math.NaN(), input.Snapshot{Forward: true}, tuning.Default())
	r.ctrl.Update(-tick, input.Snapshot{Forward: true}, tuning.Default())
	assert.Empty(t, r.world.forces)
}
