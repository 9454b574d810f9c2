package vehicle

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestWatchdogTransitions(t *testing.T) {
	w := NewWatchdog(-10)
	assert.Equal(t, PhaseDriving, w.Phase())
	assert.False(t, w.Tick(0.1))

	_, ok := w.Inspect(mgl64.Vec3{0, -9.9, 0}, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.QuatIdent())
	assert.True(t, ok)

	reason, ok := w.Inspect(mgl64.Vec3{0, -10.1, 0}, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.QuatIdent())
	assert.False(t, ok)
	assert.Equal(t, ReasonFell, reason)

	w.Lock(250 * time.Millisecond)
	assert.Equal(t, PhaseLocked, w.Phase())
	assert.True(t, w.Tick(0.1))
	assert.InDelta(t, 0.15, w.Remaining(), 1e-12)
	assert.True(t, w.Tick(0.1))
	assert.True(t, w.Tick(0.1))
	assert.Equal(t, PhaseDriving, w.Phase())
	assert.Equal(t, 0.0, w.Remaining())
	assert.False(t, w.Tick(0.1))
}

func TestWatchdogNonFinitePrecedence(t *testing.T) {
	w := NewWatchdog(-10)
	reason, ok := w.Inspect(mgl64.Vec3{0, -50, 0}, mgl64.Vec3{0, math.NaN(), 0}, mgl64.Vec3{}, mgl64.QuatIdent())
	assert.False(t, ok)
	assert.Equal(t, ReasonNonFinite, reason)

	reason, ok = w.Inspect(mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Quat{W: math.Inf(1)})
	assert.False(t, ok)
	assert.Equal(t, ReasonNonFinite, reason)
}

func TestReasonNames(t *testing.T) {
	assert.Equal(t, "fell", ReasonFell.String())
	assert.Equal(t, "non_finite", ReasonNonFinite.String())
	assert.Equal(t, "manual", ReasonManual.String())
	assert.Equal(t, "locked", PhaseLocked.String())
}
