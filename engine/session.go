package engine

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	opt "github.com/repeale/fp-go/option"
	"github.com/rs/zerolog"
	"github.com/sasha-s/go-deadlock"

	"github.com/lixenwraith/vi-drive/input"
	"github.com/lixenwraith/vi-drive/parameter"
	"github.com/lixenwraith/vi-drive/physics"
	"github.com/lixenwraith/vi-drive/store"
	"github.com/lixenwraith/vi-drive/telemetry"
	"github.com/lixenwraith/vi-drive/tuning"
	"github.com/lixenwraith/vi-drive/vehicle"
	"github.com/lixenwraith/vi-drive/visual"
	"github.com/lixenwraith/vi-drive/vmath"
)

// Sound is the audio surface a session drives
type Sound interface {
	Observe(speed float64, braking bool)
	PlayRespawn()
	ToggleMute() bool
	Muted() bool
}

// RunLog persists respawns and the final run statistics
type RunLog interface {
	RecordRespawn(runID uint, at float64, reason string, pos [3]float64) error
	FinishRun(runID uint, ended time.Time, st store.Stats) error
}

// Options configures a session; zero fields take stock values
type Options struct {
	Gravity          float64
	FloorY           float64
	Spawn            mgl64.Vec3
	GroundHalfExtent float64
	Obstacles        bool

	Tuning     *tuning.Store
	Controls   *input.Controls
	Keys       *input.KeyTable
	HoldWindow time.Duration

	Sinks  telemetry.Sinks
	Sound  Sound
	Runs   RunLog
	RunID  uint
	Time   TimeSource
	Logger zerolog.Logger
}

// DefaultOptions returns the stock world with obstacles
func DefaultOptions() Options {
	return Options{
		Gravity:          parameter.Gravity,
		FloorY:           parameter.FloorY,
		Spawn:            mgl64.Vec3(parameter.SpawnPoint),
		GroundHalfExtent: parameter.GroundHalfExtent,
		Obstacles:        true,
		HoldWindow:       parameter.InputHoldWindow,
	}
}

// Stats accumulate over a session
type Stats struct {
	Frames   int64
	TopSpeed float64
	Distance float64
	Respawns int
}

// Snapshot is a consistent copy of everything a renderer or client needs
type Snapshot struct {
	Frame    telemetry.Frame
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Heading  mgl64.Vec3
	Visual   vehicle.VisualState
	Wheels   [4]visual.Transform

	Brake      visual.Material
	Headlights [2]mgl64.Vec3

	CameraTarget   mgl64.Vec3
	CameraEye      mgl64.Vec3
	CameraAzimuth  float64
	CameraDistance float64

	Tuning tuning.Config
	Model  tuning.DriveModel
	Stats  Stats
	Paused bool
	Muted  bool
}

// Session owns one vehicle in one world and advances both a frame at a time
type Session struct {
	opts Options
	log  zerolog.Logger

	world      *physics.World
	body       physics.BodyHandle
	controls   *input.Controls
	latch      *input.Latch
	keys       *input.KeyTable
	tuning     *tuning.Store
	controller *vehicle.Controller

	rig    *visual.WheelRig
	brake  *visual.BrakeMaterial
	lights visual.TailLights
	camera *visual.FollowCamera

	clock *PausableClock
	time  TimeSource

	// Step, Key and Intent serialize on mu; Snapshot only reads snap
	mu   deadlock.RWMutex
	snap Snapshot

	seq      uint64
	simTime  float64
	stats    Stats
	lastPos  mgl64.Vec3
	phase    vehicle.Phase
	respawn  string
	requests atomic.Bool

	quit     chan struct{}
	quitOnce atomic.Bool
	closed   bool
}

// NewSession builds the world, spawns the vehicle and attaches its controller
func NewSession(opts Options) *Session {
	d := DefaultOptions()
	if opts.Gravity == 0 {
		opts.Gravity = d.Gravity
	}
	if opts.FloorY == 0 {
		opts.FloorY = d.FloorY
	}
	if opts.GroundHalfExtent <= 0 {
		opts.GroundHalfExtent = d.GroundHalfExtent
	}
	if opts.HoldWindow <= 0 {
		opts.HoldWindow = d.HoldWindow
	}
	if !vmath.IsFiniteVec(opts.Spawn) || opts.Spawn == (mgl64.Vec3{}) {
		opts.Spawn = d.Spawn
	}
	if opts.Tuning == nil {
		opts.Tuning = tuning.NewStore(tuning.Default())
	}
	if opts.Controls == nil {
		opts.Controls = input.NewControls()
	}
	if opts.Keys == nil {
		opts.Keys = input.DefaultKeyTable()
	}
	if opts.Time == nil {
		opts.Time = MonotonicTime{}
	}

	s := &Session{
		opts:     opts,
		log:      opts.Logger.With().Str("component", "session").Logger(),
		world:    physics.NewWorld(mgl64.Vec3{0, opts.Gravity, 0}),
		controls: opts.Controls,
		keys:     opts.Keys,
		tuning:   opts.Tuning,
		rig:      visual.DefaultWheelRig(),
		brake:    visual.NewBrakeMaterial(),
		camera:   visual.NewFollowCamera(),
		time:     opts.Time,
		clock:    NewPausableClock(opts.Time),
		quit:     make(chan struct{}),
	}
	s.latch = input.NewLatch(s.controls, opts.HoldWindow)
	s.lights = visual.NewTailLights(s.brake)

	s.world.AddCollider(physics.GroundSlab(opts.GroundHalfExtent))
	if opts.Obstacles {
		for _, c := range physics.DefaultObstacles() {
			s.world.AddCollider(c)
		}
	}

	bodyCfg := physics.VehicleBody()
	bodyCfg.Position = opts.Spawn
	s.body = s.world.AddBody(bodyCfg)
	s.lastPos = opts.Spawn

	s.controller = s.newController(s.tuning.Load().DriveModel)
	s.camera.SetTarget(opts.Spawn)
	s.camera.Update()
	s.publish(telemetry.Frame{})

	s.log.Info().
		Str("model", s.controller.Model().String()).
		Int("colliders", len(s.world.Colliders())).
		Msg("session started")
	return s
}

func (s *Session) newController(model tuning.DriveModel) *vehicle.Controller {
	vo := vehicle.DefaultOptions()
	vo.Model = model
	vo.FloorY = s.opts.FloorY
	vo.Spawn = s.opts.Spawn
	c := vehicle.NewController(s.world, vo)
	c.Attach(s.body)
	c.OnRespawn(s.onRespawn)
	return c
}

func (s *Session) onRespawn(ev vehicle.RespawnEvent) {
	reason := ev.Reason.String()
	s.respawn = reason
	s.stats.Respawns++

	evt := s.log.Info().Str("reason", reason).Int("count", s.stats.Respawns)
	if vmath.IsFiniteVec(ev.From) {
		evt = evt.Float64("x", ev.From.X()).Float64("y", ev.From.Y()).Float64("z", ev.From.Z())
	}
	evt.Msg("vehicle respawned")

	if s.opts.Sound != nil {
		s.opts.Sound.PlayRespawn()
	}
	if s.opts.Runs != nil && s.opts.RunID != 0 {
		from := [3]float64(ev.From)
		if !vmath.IsFiniteVec(ev.From) {
			from = [3]float64{}
		}
		if err := s.opts.Runs.RecordRespawn(s.opts.RunID, s.simTime, reason, from); err != nil {
			s.log.Warn().Err(err).Msg("respawn not recorded")
		}
	}
}

// Step advances one frame of dt seconds
// dt above the frame cap is clamped; non-positive dt and paused sessions only expire keys
func (s *Session) Step(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.time.Now()
	s.latch.Expire(now)
	if s.closed || s.clock.IsPaused() || dt <= 0 || !vmath.IsFinite(dt) {
		return
	}
	if maxDT := parameter.MaxFrameDelta.Seconds(); dt > maxDT {
		dt = maxDT
	}

	cfg := s.tuning.Load()
	if cfg.DriveModel != s.controller.Model() {
		s.switchModel(cfg.DriveModel)
	}
	if s.requests.CompareAndSwap(true, false) {
		s.controller.ForceRespawn(vehicle.ReasonManual)
	}

	in := s.controls.Snapshot()
	vis := s.controller.Update(dt, in, cfg)
	s.world.Step(dt)
	s.controller.Limit(cfg)
	s.simTime += dt
	s.seq++

	if vis.Phase != s.phase {
		if vis.Phase == vehicle.PhaseDriving {
			s.log.Debug().Msg("control restored")
		}
		s.phase = vis.Phase
	}

	pos := s.world.Position(s.body)
	vel := s.world.LinearVelocity(s.body)

	s.rig.Sync(vis.SteerAngle, vis.WheelSpin)
	s.brake.Apply(vis.BrakeIntensity)
	s.camera.SetTarget(pos)
	s.camera.Update()
	if s.opts.Sound != nil {
		s.opts.Sound.Observe(vis.ForwardSpeed, in.Brake)
	}

	s.stats.Frames++
	if speed := vmath.HorizontalSpeed(vel); speed > s.stats.TopSpeed {
		s.stats.TopSpeed = speed
	}
	if s.respawn == "" {
		s.stats.Distance += vmath.HorizontalSpeed(pos.Sub(s.lastPos))
	}
	s.lastPos = pos

	frame := telemetry.Frame{
		Seq:            s.seq,
		Time:           s.simTime,
		DT:             dt,
		Wall:           now,
		Position:       [3]float64(pos),
		Velocity:       [3]float64(vel),
		Yaw:            vmath.Yaw(s.world.Orientation(s.body)),
		Input:          in,
		SteerAngle:     vis.SteerAngle,
		WheelSpin:      vis.WheelSpin,
		BrakeIntensity: vis.BrakeIntensity,
		ForwardSpeed:   vis.ForwardSpeed,
		Locked:         vis.Phase == vehicle.PhaseLocked,
		Respawn:        s.respawn,
		TuningVersion:  s.tuning.Version(),
	}
	s.respawn = ""

	if len(s.opts.Sinks) > 0 {
		if err := s.opts.Sinks.Write(frame); err != nil {
			s.log.Debug().Err(err).Uint64("seq", frame.Seq).Msg("sink write failed")
		}
	}
	s.publish(frame)
}

// switchModel restarts the vehicle under a new drive model
func (s *Session) switchModel(model tuning.DriveModel) {
	s.log.Info().
		Str("from", s.controller.Model().String()).
		Str("to", model.String()).
		Msg("drive model changed; restarting vehicle")
	s.controller.Detach()
	s.controller = s.newController(model)
	s.controller.ForceRespawn(vehicle.ReasonManual)
}

// publish copies the current state into the read snapshot; caller holds mu
func (s *Session) publish(frame telemetry.Frame) {
	rot := s.world.Orientation(s.body)
	pos := s.world.Position(s.body)

	snap := Snapshot{
		Frame:          frame,
		Position:       pos,
		Rotation:       rot,
		Heading:        vmath.Heading(rot),
		Visual:         s.controller.Visual(),
		Brake:          s.brake.Material,
		Headlights:     visual.HeadlightTargets(pos, rot),
		CameraTarget:   s.camera.Target(),
		CameraEye:      s.camera.Eye(),
		CameraAzimuth:  s.camera.Azimuth(),
		CameraDistance: s.camera.Distance(),
		Tuning:         s.tuning.Load(),
		Model:          s.controller.Model(),
		Stats:          s.stats,
		Paused:         s.clock.IsPaused(),
	}
	for i := range snap.Wheels {
		if w := s.rig.Wheel(visual.WheelSlot(i)); opt.IsSome(w) {
			wheel := w.Value
			if opt.IsSome(wheel.Pivot) {
				snap.Wheels[i] = *wheel.Pivot.Value
			}
			if opt.IsSome(wheel.Tire) {
				snap.Wheels[i].Spin = wheel.Tire.Value.Spin
			}
		}
	}
	if s.opts.Sound != nil {
		snap.Muted = s.opts.Sound.Muted()
	}
	s.snap = snap
}

// Snapshot returns the state after the last Step
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Key routes a terminal key event; drive keys latch, system keys become intents
func (s *Session) Key(key tcell.Key, r rune) {
	b, ok := s.keys.Lookup(key, r)
	if !ok {
		return
	}
	if b.Action != input.ActionNone {
		s.mu.Lock()
		s.latch.Touch(b.Action, s.time.Now())
		s.mu.Unlock()
		return
	}
	s.Intent(b.Intent)
}

// Intent applies a system command
func (s *Session) Intent(i input.Intent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch i {
	case input.IntentQuit:
		s.requestQuit()
	case input.IntentPause:
		if s.clock.Toggle() {
			s.latch.ReleaseAll()
			s.log.Info().Msg("paused")
		} else {
			s.log.Info().Msg("resumed")
		}
	case input.IntentRespawn:
		s.requests.Store(true)
	case input.IntentZoomIn:
		s.camera.Zoom(1 / parameter.CameraZoomStep)
		s.camera.Update()
	case input.IntentZoomOut:
		s.camera.Zoom(parameter.CameraZoomStep)
		s.camera.Update()
	case input.IntentOrbitLeft:
		s.camera.Orbit(-parameter.CameraOrbitStep)
		s.camera.Update()
	case input.IntentOrbitRight:
		s.camera.Orbit(parameter.CameraOrbitStep)
		s.camera.Update()
	case input.IntentToggleMute:
		if s.opts.Sound != nil {
			muted := s.opts.Sound.ToggleMute()
			s.log.Info().Bool("muted", muted).Msg("audio toggled")
		}
	default:
		return
	}
	s.publish(s.snap.Frame)
}

// RequestRespawn resets the vehicle on the next Step; safe from any goroutine
func (s *Session) RequestRespawn() {
	s.requests.Store(true)
}

func (s *Session) requestQuit() {
	if s.quitOnce.CompareAndSwap(false, true) {
		close(s.quit)
	}
}

// Done is closed once a quit intent arrives
func (s *Session) Done() <-chan struct{} {
	return s.quit
}

// Controls exposes the live control flags for remote input
func (s *Session) Controls() *input.Controls { return s.controls }

// Tuning exposes the live tuning store
func (s *Session) Tuning() *tuning.Store { return s.tuning }

// Clock exposes the pausable simulation clock
func (s *Session) Clock() *PausableClock { return s.clock }

// Colliders lists the static world geometry
func (s *Session) Colliders() []physics.Collider {
	return s.world.Colliders()
}

// Lights returns the tail lights sharing the brake material
func (s *Session) Lights() visual.TailLights { return s.lights }

// Close finishes the run record and closes every sink
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.requestQuit()

	var errs []error
	if s.opts.Runs != nil && s.opts.RunID != 0 {
		err := s.opts.Runs.FinishRun(s.opts.RunID, s.time.Now(), store.Stats{
			Frames:   s.stats.Frames,
			TopSpeed: s.stats.TopSpeed,
			Distance: s.stats.Distance,
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.opts.Sinks.Close(); err != nil {
		errs = append(errs, err)
	}
	s.log.Info().
		Int64("frames", s.stats.Frames).
		Float64("topSpeed", s.stats.TopSpeed).
		Float64("distance", s.stats.Distance).
		Int("respawns", s.stats.Respawns).
		Msg("session closed")
	return errors.Join(errs...)
}
