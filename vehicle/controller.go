package vehicle

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-drive/input"
	"github.com/lixenwraith/vi-drive/parameter"
	"github.com/lixenwraith/vi-drive/physics"
	"github.com/lixenwraith/vi-drive/tuning"
	"github.com/lixenwraith/vi-drive/vmath"
)

// Options fixes controller behavior for its lifetime
type Options struct {
	Model  tuning.DriveModel
	FloorY float64
	Spawn  mgl64.Vec3

	MaxSteerVisual  float64
	SteerVisualRate float64
	WheelSpinGain   float64
	ReversalGain    float64
}

// DefaultOptions returns the stock proportional-force setup
func DefaultOptions() Options {
	return Options{
		Model:           tuning.DriveProportional,
		FloorY:          parameter.FloorY,
		Spawn:           mgl64.Vec3(parameter.SpawnPoint),
		MaxSteerVisual:  parameter.MaxSteerVisual,
		SteerVisualRate: parameter.SteerVisualRate,
		WheelSpinGain:   parameter.WheelSpinGain,
		ReversalGain:    parameter.ReversalGain,
	}
}

// RespawnEvent is emitted after the body has been reset to spawn
type RespawnEvent struct {
	Reason RespawnReason
	// From is the last observed position; may be non-finite
	From  mgl64.Vec3
	Count int
}

// Controller turns controls and tuning into forces, damping and visual parameters for one body
type Controller struct {
	world World
	body  physics.BodyHandle
	opts  Options

	watchdog *Watchdog
	visual   VisualState

	pending   RespawnReason
	respawns  int
	onRespawn func(RespawnEvent)
}

// NewController creates a detached controller
func NewController(world World, opts Options) *Controller {
	return &Controller{
		world:    world,
		opts:     opts,
		watchdog: NewWatchdog(opts.FloorY),
	}
}

// Attach binds the controller to a body
func (c *Controller) Attach(h physics.BodyHandle) {
	c.body = h
}

// Detach unbinds the body; Update becomes a no-op
func (c *Controller) Detach() {
	c.body = physics.NilBody
}

// Body returns the attached handle
func (c *Controller) Body() physics.BodyHandle {
	return c.body
}

// Model returns the drive model chosen at construction
func (c *Controller) Model() tuning.DriveModel {
	return c.opts.Model
}

// Phase returns the watchdog phase
func (c *Controller) Phase() Phase {
	return c.watchdog.Phase()
}

// Respawns returns how many resets have happened
func (c *Controller) Respawns() int {
	return c.respawns
}

// Visual returns the last derived visual state
func (c *Controller) Visual() VisualState {
	return c.visual
}

// OnRespawn registers a callback invoked synchronously from Update
func (c *Controller) OnRespawn(fn func(RespawnEvent)) {
	c.onRespawn = fn
}

// ForceRespawn resets the vehicle on the next Update
func (c *Controller) ForceRespawn(reason RespawnReason) {
	c.pending = reason
}

func (c *Controller) attached() bool {
	return c.world != nil && c.world.Contains(c.body)
}

// Update runs one tick against the attached body and returns the new visual state
// Missing body or invalid dt leaves everything untouched
func (c *Controller) Update(dt float64, in input.Snapshot, cfg tuning.Config) VisualState {
	c.visual.WheelSpinDelta = 0
	if !c.attached() || dt <= 0 || !vmath.IsFinite(dt) {
		return c.visual
	}

	h := c.body
	pos := c.world.Position(h)
	rot := c.world.Orientation(h)
	linVel := c.world.LinearVelocity(h)
	angVel := c.world.AngularVelocity(h)

	if c.pending != 0 {
		c.respawn(c.pending, pos, cfg)
	} else if reason, ok := c.watchdog.Inspect(pos, linVel, angVel, rot); !ok {
		c.respawn(reason, pos, cfg)
	}

	if c.watchdog.Tick(dt) {
		c.world.SetLinearVelocity(h, mgl64.Vec3{})
		c.world.SetAngularVelocity(h, mgl64.Vec3{})
		c.world.SetHeld(h, true)
		c.settleVisual(dt)
		return c.visual
	}
	c.world.SetHeld(h, false)

	c.drive(dt, in, cfg, rot, linVel)
	return c.visual
}

// Limit re-applies the horizontal speed bound once the world has integrated engine force
func (c *Controller) Limit(cfg tuning.Config) {
	if !c.attached() {
		return
	}
	if clamped, ok := vmath.ClampHorizontal(c.world.LinearVelocity(c.body), cfg.MaxSpeed); ok {
		c.world.SetLinearVelocity(c.body, clamped)
	}
}

func (c *Controller) respawn(reason RespawnReason, from mgl64.Vec3, cfg tuning.Config) {
	h := c.body
	c.world.SetPosition(h, c.opts.Spawn)
	c.world.SetLinearVelocity(h, mgl64.Vec3{})
	c.world.SetAngularVelocity(h, mgl64.Vec3{})
	c.world.SetOrientation(h, mgl64.QuatIdent())
	c.watchdog.Lock(cfg.LockDuration)

	c.pending = 0
	c.respawns++
	if !vmath.IsFinite(c.visual.WheelSpin) {
		c.visual.WheelSpin = 0
	}
	if c.onRespawn != nil {
		c.onRespawn(RespawnEvent{Reason: reason, From: from, Count: c.respawns})
	}
}

// settleVisual eases visuals to neutral while control is locked
func (c *Controller) settleVisual(dt float64) {
	c.visual.SteerAngle = vmath.Smooth(c.visual.SteerAngle, 0, c.opts.SteerVisualRate, dt)
	c.visual.BrakeIntensity = 0
	c.visual.ForwardSpeed = 0
	c.visual.Phase = PhaseLocked
}

func (c *Controller) drive(dt float64, in input.Snapshot, cfg tuning.Config, rot mgl64.Quat, linVel mgl64.Vec3) {
	h := c.body

	// Steering: rate-controlled, right evaluated last and wins
	yawRate := 0.0
	if in.SteerLeft {
		yawRate = cfg.SteeringRate
	}
	if in.SteerRight {
		yawRate = -cfg.SteeringRate
	}
	c.world.SetAngularVelocity(h, mgl64.Vec3{0, yawRate, 0})

	heading := vmath.Heading(rot)

	// Engine
	switch c.opts.Model {
	case tuning.DriveImpulse:
		if in.Forward {
			c.world.ApplyImpulse(h, heading.Mul(-cfg.EngineForce), true)
		}
		if in.Backward {
			c.world.ApplyImpulse(h, heading.Mul(cfg.EngineForce), true)
		}
		linVel = c.world.LinearVelocity(h)
	default:
		if force, ok := c.proportionalForce(dt, in, cfg, heading, linVel); ok {
			c.world.ApplyForce(h, force, true)
		}
	}

	// Speed limit, horizontal only so falling is never capped
	if clamped, ok := vmath.ClampHorizontal(linVel, cfg.MaxSpeed); ok {
		linVel = clamped
		c.world.SetLinearVelocity(h, linVel)
	}

	// Drag
	damping := cfg.DragCoefficient + cfg.DragSpeedFactor*vmath.HorizontalSpeed(linVel)
	if in.Brake {
		damping = cfg.BrakeDragCoefficient
	}
	c.world.SetLinearDamping(h, damping)

	// Visual steer, same precedence as physics
	target := 0.0
	if in.SteerLeft {
		target = c.opts.MaxSteerVisual
	}
	if in.SteerRight {
		target = -c.opts.MaxSteerVisual
	}
	c.visual.SteerAngle = vmath.Smooth(c.visual.SteerAngle, target, c.opts.SteerVisualRate, dt)

	// Wheel spin
	forwardSpeed := linVel.Dot(heading)
	c.visual.ForwardSpeed = forwardSpeed
	c.visual.WheelSpinDelta = -forwardSpeed * dt * c.opts.WheelSpinGain
	c.visual.WheelSpin += c.visual.WheelSpinDelta

	c.visual.BrakeIntensity = 0
	if in.Brake {
		c.visual.BrakeIntensity = 1
	}
	c.visual.Phase = PhaseDriving
}

// proportionalForce returns the force closing the gap to the desired forward speed
// No throttle means no force; deceleration comes from damping alone
func (c *Controller) proportionalForce(dt float64, in input.Snapshot, cfg tuning.Config, heading, linVel mgl64.Vec3) (mgl64.Vec3, bool) {
	var desired float64
	switch {
	case in.Forward:
		desired = -cfg.MaxSpeed
	case in.Backward:
		desired = cfg.MaxSpeed
	default:
		return mgl64.Vec3{}, false
	}

	current := linVel.Dot(heading)
	gain := cfg.EngineForce
	if desired*current < 0 {
		gain *= c.opts.ReversalGain
	}

	// One tick may close the gap but never overshoot it
	if mass := c.world.Mass(c.body); mass > 0 {
		gain = math.Min(gain, mass/dt)
	}
	return heading.Mul(gain * (desired - current)), true
}
