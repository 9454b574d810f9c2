package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/vi-drive/input"
	"github.com/lixenwraith/vi-drive/parameter"
	"github.com/lixenwraith/vi-drive/store"
	"github.com/lixenwraith/vi-drive/telemetry"
	"github.com/lixenwraith/vi-drive/tuning"
	"github.com/lixenwraith/vi-drive/visual"
)

const tick = 1.0 / 60

type memSink struct {
	frames []telemetry.Frame
	closed bool
}

func (m *memSink) Write(f telemetry.Frame) error { m.frames = append(m.frames, f); return nil }
func (m *memSink) Close() error                  { m.closed = true; return nil }

type respawnRecord struct {
	runID  uint
	reason string
}

type memRuns struct {
	respawns []respawnRecord
	finished *store.Stats
}

func (m *memRuns) RecordRespawn(runID uint, at float64, reason string, pos [3]float64) error {
	m.respawns = append(m.respawns, respawnRecord{runID, reason})
	return nil
}

func (m *memRuns) FinishRun(runID uint, ended time.Time, st store.Stats) error {
	m.finished = &st
	return nil
}

type fakeSound struct {
	observed int
	respawns int
	muted    bool
}

func (f *fakeSound) Observe(speed float64, braking bool) { f.observed++ }
func (f *fakeSound) PlayRespawn()                        { f.respawns++ }
func (f *fakeSound) ToggleMute() bool                    { f.muted = !f.muted; return f.muted }
func (f *fakeSound) Muted() bool                         { return f.muted }

type fixture struct {
	s     *Session
	sink  *memSink
	runs  *memRuns
	sound *fakeSound
	clock *ManualTime
}

func newFixture(t *testing.T, mutate func(*Options)) *fixture {
	t.Helper()
	f := &fixture{
		sink:  &memSink{},
		runs:  &memRuns{},
		sound: &fakeSound{},
		clock: NewManualTime(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)),
	}
	opts := DefaultOptions()
	opts.Sinks = telemetry.Sinks{f.sink}
	opts.Runs = f.runs
	opts.RunID = 7
	opts.Sound = f.sound
	opts.Time = f.clock
	opts.Logger = zerolog.Nop()
	if mutate != nil {
		mutate(&opts)
	}
	f.s = NewSession(opts)
	return f
}

// step advances manual time alongside the simulation
func (f *fixture) step(n int) {
	for i := 0; i < n; i++ {
		f.clock.Advance(time.Second / 60)
		f.s.Step(tick)
	}
}

func TestNewSessionSpawnsVehicle(t *testing.T) {
	f := newFixture(t, nil)
	snap := f.s.Snapshot()
	assert.Equal(t, mgl64.Vec3{0, 2, 0}, snap.Position)
	assert.Equal(t, tuning.DriveProportional, snap.Model)
	assert.False(t, snap.Paused)
	assert.Len(t, f.s.Colliders(), 5, "ground plus four blocks")
	assert.Equal(t, visual.RGB(parameter.BrakeColorOff), snap.Brake.Color)

	noBlocks := newFixture(t, func(o *Options) { o.Obstacles = false })
	assert.Len(t, noBlocks.s.Colliders(), 1)
}

func TestDriveForward(t *testing.T) {
	f := newFixture(t, nil)
	f.s.Controls().Press(input.ActionForward)
	f.step(120)

	snap := f.s.Snapshot()
	assert.Less(t, snap.Position.Z(), -5.0, "forward is -Z")
	assert.Less(t, snap.Visual.ForwardSpeed, -10.0)
	assert.Equal(t, uint64(120), snap.Frame.Seq)
	assert.InDelta(t, 2.0, snap.Frame.Time, 1e-9)
	assert.Equal(t, int64(120), snap.Stats.Frames)
	assert.Greater(t, snap.Stats.Distance, 5.0)
	assert.Greater(t, snap.Stats.TopSpeed, 10.0)
	assert.True(t, snap.Frame.Input.Forward)
	assert.Len(t, f.sink.frames, 120)
	assert.Equal(t, 120, f.sound.observed)
	assert.InDelta(t, snap.Position.Z(), snap.CameraTarget.Z(), 1e-12, "camera follows")
}

func TestBrakeLightsFollowBrake(t *testing.T) {
	f := newFixture(t, nil)
	f.s.Controls().Press(input.ActionBrake)
	f.step(2)
	assert.Equal(t, visual.RGB(parameter.BrakeColorOn), f.s.Snapshot().Brake.Color)
	assert.Equal(t, visual.RGB(parameter.BrakeColorOn), f.s.Lights().Left.Color)
	assert.Same(t, f.s.Lights().Left, f.s.Lights().Right)

	f.s.Controls().Release(input.ActionBrake)
	f.step(1)
	assert.Equal(t, visual.RGB(parameter.BrakeColorOff), f.s.Snapshot().Brake.Color)
}

func TestManualRespawnIsRecorded(t *testing.T) {
	f := newFixture(t, nil)
	f.step(30)
	f.s.Key(tcell.KeyRune, 'r')
	f.step(1)

	last := f.sink.frames[len(f.sink.frames)-1]
	assert.Equal(t, "manual", last.Respawn)
	assert.True(t, last.Locked)
	assert.Equal(t, 1, f.s.Snapshot().Stats.Respawns)
	assert.Equal(t, 1, f.sound.respawns)
	require.Len(t, f.runs.respawns, 1)
	assert.Equal(t, respawnRecord{7, "manual"}, f.runs.respawns[0])

	f.step(1)
	assert.Empty(t, f.sink.frames[len(f.sink.frames)-1].Respawn, "reason appears on one frame only")
}

func TestLockWindowPinsVehicle(t *testing.T) {
	f := newFixture(t, nil)
	f.step(120)
	f.s.RequestRespawn()

	// 500ms lock covers at least 29 ticks at 60 Hz
	spawn := [3]float64(parameter.SpawnPoint)
	for i := 0; i < 29; i++ {
		f.step(1)
		frame := f.s.Snapshot().Frame
		require.True(t, frame.Locked, "tick %d", i)
		require.Equal(t, [3]float64{}, frame.Velocity, "tick %d", i)
		require.Equal(t, spawn, frame.Position, "tick %d", i)
	}

	f.step(3)
	frame := f.s.Snapshot().Frame
	assert.False(t, frame.Locked)
	assert.Less(t, frame.Velocity[1], 0.0, "gravity resumes after the lock")
}

func TestFallingOffTheEdgeRespawns(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.Spawn = mgl64.Vec3{20, 2, 0}
		o.GroundHalfExtent = 5
		o.Obstacles = false
	})
	f.step(120)

	var reasons []string
	for _, fr := range f.sink.frames {
		if fr.Respawn != "" {
			reasons = append(reasons, fr.Respawn)
		}
	}
	require.NotEmpty(t, reasons)
	assert.Equal(t, "fell", reasons[0])
	assert.Equal(t, "fell", f.runs.respawns[0].reason)
}

func TestTerminalKeysLatch(t *testing.T) {
	f := newFixture(t, nil)
	f.s.Key(tcell.KeyUp, 0)
	assert.True(t, f.s.Controls().Snapshot().Forward)

	// Repeats inside the hold window keep the key held
	f.step(20)
	f.s.Key(tcell.KeyUp, 0)
	f.step(20)
	assert.True(t, f.s.Controls().Snapshot().Forward)

	f.step(40)
	assert.False(t, f.s.Controls().Snapshot().Forward, "released once repeats stop")
}

func TestPauseFreezesSimulation(t *testing.T) {
	f := newFixture(t, nil)
	f.s.Controls().Press(input.ActionForward)
	f.step(10)
	before := f.s.Snapshot()

	f.s.Key(tcell.KeyRune, 'p')
	assert.True(t, f.s.Snapshot().Paused)
	assert.True(t, f.s.Clock().IsPaused())
	assert.False(t, f.s.Controls().Snapshot().Forward, "pause drops held keys")

	f.step(30)
	assert.Equal(t, before.Frame.Seq, f.s.Snapshot().Frame.Seq)
	assert.Equal(t, before.Position, f.s.Snapshot().Position)

	f.s.Intent(input.IntentPause)
	f.step(1)
	assert.Equal(t, before.Frame.Seq+1, f.s.Snapshot().Frame.Seq)
}

func TestCameraIntents(t *testing.T) {
	f := newFixture(t, nil)
	d0 := f.s.Snapshot().CameraDistance

	f.s.Key(tcell.KeyRune, '+')
	assert.Less(t, f.s.Snapshot().CameraDistance, d0)
	f.s.Key(tcell.KeyRune, '-')
	f.s.Key(tcell.KeyRune, '-')
	assert.Greater(t, f.s.Snapshot().CameraDistance, d0)

	a0 := f.s.Snapshot().CameraAzimuth
	f.s.Key(tcell.KeyRune, ']')
	assert.InDelta(t, parameter.CameraOrbitStep, f.s.Snapshot().CameraAzimuth-a0, 1e-12)

	f.s.Key(tcell.KeyCtrlS, 0)
	assert.True(t, f.s.Snapshot().Muted)
}

func TestDriveModelSwitchRestartsVehicle(t *testing.T) {
	f := newFixture(t, nil)
	f.step(5)

	cfg := f.s.Tuning().Load()
	cfg.DriveModel = tuning.DriveImpulse
	_, changed := f.s.Tuning().Update(cfg)
	require.True(t, changed)
	f.step(1)

	snap := f.s.Snapshot()
	assert.Equal(t, tuning.DriveImpulse, snap.Model)
	assert.Equal(t, "manual", snap.Frame.Respawn)
	assert.Equal(t, uint64(1), snap.Frame.TuningVersion)
}

func TestStepClampsAndIgnoresBadDelta(t *testing.T) {
	f := newFixture(t, nil)
	f.s.Step(5)
	assert.InDelta(t, parameter.MaxFrameDelta.Seconds(), f.s.Snapshot().Frame.DT, 1e-12)

	seq := f.s.Snapshot().Frame.Seq
	f.s.Step(0)
	f.s.Step(-1)
	assert.Equal(t, seq, f.s.Snapshot().Frame.Seq)
}

func TestCloseFinishesRun(t *testing.T) {
	f := newFixture(t, nil)
	f.s.Controls().Press(input.ActionForward)
	f.step(60)
	require.NoError(t, f.s.Close())

	require.NotNil(t, f.runs.finished)
	assert.Equal(t, int64(60), f.runs.finished.Frames)
	assert.Greater(t, f.runs.finished.Distance, 0.0)
	assert.True(t, f.sink.closed)

	select {
	case <-f.s.Done():
	default:
		t.Fatal("Done not closed")
	}

	n := len(f.sink.frames)
	f.step(5)
	assert.Len(t, f.sink.frames, n, "closed sessions do not step")
	assert.NoError(t, f.s.Close())
}

func TestRunStopsOnQuit(t *testing.T) {
	s := NewSession(Options{Logger: zerolog.Nop(), Obstacles: true})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var frames atomic.Int32
	err := s.Run(ctx, 120, func(snap Snapshot) {
		if frames.Add(1) == 5 {
			s.Intent(input.IntentQuit)
		}
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, frames.Load(), int32(5))
	assert.Greater(t, s.Snapshot().Frame.Seq, uint64(0))
}

func TestRunStopsOnContext(t *testing.T) {
	s := NewSession(Options{Logger: zerolog.Nop()})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, s.Run(ctx, 60, nil))
}
