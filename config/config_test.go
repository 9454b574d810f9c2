package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/vi-drive/input"
	"github.com/lixenwraith/vi-drive/parameter"
	"github.com/lixenwraith/vi-drive/tuning"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultsMatchStockTuning(t *testing.T) {
	c, err := NewLoader(zerolog.Nop()).Load("")
	require.NoError(t, err)

	tc, err := c.TuningConfig()
	require.NoError(t, err)
	assert.Equal(t, tuning.Default(), tc)
	assert.Equal(t, parameter.InputHoldWindow, c.Input.HoldWindow)
	assert.Equal(t, mgl64.Vec3{0, 2, 0}, c.SpawnPoint())
	assert.Equal(t, parameter.FrameRateDefault, c.FPS())
	assert.True(t, c.World.Obstacles)
	assert.Equal(t, "sqlite", c.Storage.Driver)
}

func TestLoadYAMLOverrides(t *testing.T) {
	path := writeFile(t, "drive.yaml", `
tuning:
  engineForce: 500
  maxSpeed: 25
  driveModel: impulse
world:
  lockDuration: 1s
  spawn: [1, 3, -2]
keys:
  brake: [b]
  none: [space]
frame:
  fps: 1000
`)
	c, err := NewLoader(zerolog.Nop()).Load(path)
	require.NoError(t, err)

	tc, err := c.TuningConfig()
	require.NoError(t, err)
	assert.Equal(t, parameter.EngineForceMax, tc.EngineForce, "engine force clamps at the boundary")
	assert.Equal(t, 25.0, tc.MaxSpeed)
	assert.Equal(t, tuning.DriveImpulse, tc.DriveModel)
	assert.Equal(t, time.Second, tc.LockDuration)
	assert.Equal(t, mgl64.Vec3{1, 3, -2}, c.SpawnPoint())
	assert.Equal(t, parameter.FrameRateMax, c.FPS())

	kt, err := c.KeyTable()
	require.NoError(t, err)
	b, ok := kt.Lookup(tcell.KeyRune, 'b')
	require.True(t, ok)
	assert.Equal(t, input.ActionBrake, b.Action)
	_, ok = kt.Lookup(tcell.KeyRune, ' ')
	assert.False(t, ok, "space unbound by the none override")
	b, ok = kt.Lookup(tcell.KeyUp, 0)
	require.True(t, ok)
	assert.Equal(t, input.ActionForward, b.Action)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("VIDRIVE_TUNING_ENGINEFORCE", "120")
	t.Setenv("VIDRIVE_SERVER_ENABLED", "true")

	c, err := NewLoader(zerolog.Nop()).Load("")
	require.NoError(t, err)
	assert.Equal(t, 120.0, c.Tuning.EngineForce)
	assert.True(t, c.Server.Enabled)
}

func TestInvalidValues(t *testing.T) {
	path := writeFile(t, "bad.yaml", "tuning:\n  driveModel: rocket\n")
	c, err := NewLoader(zerolog.Nop()).Load(path)
	require.NoError(t, err)
	_, err = c.TuningConfig()
	assert.Error(t, err)

	path = writeFile(t, "keys.yaml", "keys:\n  teleport: [t]\n")
	c, err = NewLoader(zerolog.Nop()).Load(path)
	require.NoError(t, err)
	_, err = c.KeyTable()
	assert.ErrorIs(t, err, input.ErrUnknownAction)

	_, err = NewLoader(zerolog.Nop()).Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	c = Default()
	c.World.Spawn = []float64{1, 2}
	assert.Equal(t, mgl64.Vec3{0, 2, 0}, c.SpawnPoint())
}

func TestReloadPushesTuning(t *testing.T) {
	path := writeFile(t, "live.toml", "[tuning]\nengineForce = 70\n")
	l := NewLoader(zerolog.Nop())
	c, err := l.Load(path)
	require.NoError(t, err)
	initial, err := c.TuningConfig()
	require.NoError(t, err)

	store := tuning.NewStore(initial)
	_, changed, err := l.Reload(store)
	require.NoError(t, err)
	assert.False(t, changed, "unchanged file")

	require.NoError(t, os.WriteFile(path, []byte("[tuning]\nengineForce = 150\nsteeringRate = 5\n"), 0o644))
	got, changed, err := l.Reload(store)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 150.0, got.EngineForce)
	assert.Equal(t, 5.0, store.Load().SteeringRate)

	// A broken edit keeps the live tuning
	require.NoError(t, os.WriteFile(path, []byte("[tuning]\ndriveModel = \"warp\"\n"), 0o644))
	_, changed, err = l.Reload(store)
	assert.Error(t, err)
	assert.False(t, changed)
	assert.Equal(t, 150.0, store.Load().EngineForce)
}

func TestReloadWithoutFile(t *testing.T) {
	l := NewLoader(zerolog.Nop())
	_, err := l.Load("")
	require.NoError(t, err)
	_, _, err = l.Reload(tuning.NewStore(tuning.Default()))
	assert.Error(t, err)
}

func TestDefaultYAMLRoundTrip(t *testing.T) {
	out, err := DefaultYAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "engineForce: 70")
	assert.Contains(t, string(out), "lockDuration: 500ms")

	path := writeFile(t, "dump.yaml", string(out))
	c, err := NewLoader(zerolog.Nop()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}
