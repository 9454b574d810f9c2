package tuning

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/vi-drive/parameter"
)

func TestSanitizeClampsAtBoundary(t *testing.T) {
	c := Sanitize(Config{
		EngineForce:          1000,
		DragCoefficient:      -1,
		BrakeDragCoefficient: math.NaN(),
		MaxSpeed:             0,
		SteeringRate:         math.Inf(1),
		LockDuration:         -time.Second,
		DriveModel:           DriveModel(42),
	})

	assert.Equal(t, parameter.EngineForceMax, c.EngineForce)
	assert.Equal(t, 0.0, c.DragCoefficient)
	assert.Equal(t, parameter.BrakeDragCoefficientDefault, c.BrakeDragCoefficient)
	assert.Equal(t, parameter.MaxSpeedMin, c.MaxSpeed)
	assert.Equal(t, parameter.SteeringRateDefault, c.SteeringRate)
	assert.Equal(t, time.Duration(0), c.LockDuration)
	assert.Equal(t, DriveProportional, c.DriveModel)

	// Defaults are already in range
	assert.Equal(t, Default(), Sanitize(Default()))
}

func TestMaxSpeedNeverNonPositive(t *testing.T) {
	for _, v := range []float64{-5, 0, math.NaN(), 1e-9} {
		assert.Greater(t, Sanitize(Config{MaxSpeed: v}).MaxSpeed, 0.0, "input %v", v)
	}
}

func TestParseDriveModel(t *testing.T) {
	m, err := ParseDriveModel("Impulse")
	require.NoError(t, err)
	assert.Equal(t, DriveImpulse, m)

	m, err = ParseDriveModel("")
	require.NoError(t, err)
	assert.Equal(t, DriveProportional, m)

	_, err = ParseDriveModel("rocket")
	assert.Error(t, err)

	var dm DriveModel
	require.NoError(t, dm.UnmarshalText([]byte("impulse")))
	assert.Equal(t, DriveImpulse, dm)
	b, _ := dm.MarshalText()
	assert.Equal(t, "impulse", string(b))
}

func TestFingerprintTracksEveryField(t *testing.T) {
	base := Default()
	seen := map[uint64]bool{base.Fingerprint(): true}

	variants := []func(*Config){
		func(c *Config) { c.EngineForce++ },
		func(c *Config) { c.DragCoefficient++ },
		func(c *Config) { c.DragSpeedFactor++ },
		func(c *Config) { c.BrakeDragCoefficient++ },
		func(c *Config) { c.MaxSpeed++ },
		func(c *Config) { c.SteeringRate++ },
		func(c *Config) { c.LockDuration++ },
		func(c *Config) { c.DriveModel = DriveImpulse },
	}
	for i, mutate := range variants {
		c := base
		mutate(&c)
		fp := c.Fingerprint()
		assert.False(t, seen[fp], "variant %d collides", i)
		seen[fp] = true
	}
}

func TestStoreUpdateAndVersion(t *testing.T) {
	s := NewStore(Default())
	assert.Equal(t, uint64(0), s.Version())

	_, changed := s.Update(Default())
	assert.False(t, changed)

	c := Default()
	c.EngineForce = 120
	got, changed := s.Update(c)
	assert.True(t, changed)
	assert.Equal(t, 120.0, got.EngineForce)
	assert.Equal(t, uint64(1), s.Version())
	assert.Equal(t, 120.0, s.Load().EngineForce)
}

func TestStorePatch(t *testing.T) {
	s := NewStore(Default())
	maxSpeed := -3.0
	model := "impulse"
	lock := int64(250)

	got, changed, err := s.Patch(Patch{MaxSpeed: &maxSpeed, DriveModel: &model, LockDurationMs: &lock})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, parameter.MaxSpeedMin, got.MaxSpeed)
	assert.Equal(t, DriveImpulse, got.DriveModel)
	assert.Equal(t, 250*time.Millisecond, got.LockDuration)
	assert.Equal(t, parameter.EngineForceDefault, got.EngineForce)

	bad := "warp"
	_, changed, err = s.Patch(Patch{DriveModel: &bad})
	assert.Error(t, err)
	assert.False(t, changed)
	assert.Equal(t, DriveImpulse, s.Load().DriveModel)
}

func TestStoreConcurrentReaders(t *testing.T) {
	s := NewStore(Default())
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c := Default()
				c.EngineForce = float64(10 + (i*200+j)%150)
				s.Update(c)
			}
		}(i)
	}
	for j := 0; j < 1000; j++ {
		c := s.Load()
		assert.GreaterOrEqual(t, c.EngineForce, parameter.EngineForceMin)
	}
	wg.Wait()
}
