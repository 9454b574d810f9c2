package tuning

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/lixenwraith/vi-drive/parameter"
	"github.com/lixenwraith/vi-drive/vmath"
)

// DriveModel selects how throttle becomes motion
type DriveModel uint8

const (
	// DriveProportional applies a force proportional to the gap between desired and current forward speed
	DriveProportional DriveModel = iota
	// DriveImpulse applies a flat impulse per tick while throttle is held
	DriveImpulse
	driveModelCount
)

func (m DriveModel) String() string {
	switch m {
	case DriveProportional:
		return "proportional"
	case DriveImpulse:
		return "impulse"
	}
	return fmt.Sprintf("DriveModel(%d)", uint8(m))
}

// ParseDriveModel resolves a config name
func ParseDriveModel(s string) (DriveModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "proportional", "proportional_force", "force":
		return DriveProportional, nil
	case "impulse":
		return DriveImpulse, nil
	}
	return DriveProportional, fmt.Errorf("unknown drive model %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (m DriveModel) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *DriveModel) UnmarshalText(b []byte) error {
	v, err := ParseDriveModel(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Config is the numeric tuning read by the controller each tick
type Config struct {
	EngineForce          float64       `json:"engineForce" yaml:"engineForce"`
	DragCoefficient      float64       `json:"dragCoefficient" yaml:"dragCoefficient"`
	DragSpeedFactor      float64       `json:"dragSpeedFactor" yaml:"dragSpeedFactor"`
	BrakeDragCoefficient float64       `json:"brakeDragCoefficient" yaml:"brakeDragCoefficient"`
	MaxSpeed             float64       `json:"maxSpeed" yaml:"maxSpeed"`
	SteeringRate         float64       `json:"steeringRate" yaml:"steeringRate"`
	LockDuration         time.Duration `json:"lockDuration" yaml:"lockDuration"`
	DriveModel           DriveModel    `json:"driveModel" yaml:"driveModel"`
}

// Default returns the stock tuning
func Default() Config {
	return Config{
		EngineForce:          parameter.EngineForceDefault,
		DragCoefficient:      parameter.DragCoefficientDefault,
		DragSpeedFactor:      parameter.DragSpeedFactorDefault,
		BrakeDragCoefficient: parameter.BrakeDragCoefficientDefault,
		MaxSpeed:             parameter.MaxSpeedDefault,
		SteeringRate:         parameter.SteeringRateDefault,
		LockDuration:         parameter.LockDurationDefault,
		DriveModel:           DriveProportional,
	}
}

// Sanitize clamps every field into its accepted range
// Non-finite values fall back to defaults
func Sanitize(c Config) Config {
	d := Default()
	c.EngineForce = clampOr(c.EngineForce, d.EngineForce, parameter.EngineForceMin, parameter.EngineForceMax)
	c.DragCoefficient = clampOr(c.DragCoefficient, d.DragCoefficient, 0, parameter.DampingMax)
	c.DragSpeedFactor = clampOr(c.DragSpeedFactor, d.DragSpeedFactor, 0, parameter.DampingMax)
	c.BrakeDragCoefficient = clampOr(c.BrakeDragCoefficient, d.BrakeDragCoefficient, 0, parameter.DampingMax)
	c.MaxSpeed = clampOr(c.MaxSpeed, d.MaxSpeed, parameter.MaxSpeedMin, parameter.MaxSpeedCeiling)
	c.SteeringRate = clampOr(c.SteeringRate, d.SteeringRate, 0, parameter.SteeringRateMax)

	if c.LockDuration < 0 {
		c.LockDuration = 0
	}
	if c.LockDuration > parameter.LockDurationMax {
		c.LockDuration = parameter.LockDurationMax
	}
	if c.DriveModel >= driveModelCount {
		c.DriveModel = d.DriveModel
	}
	return c
}

func clampOr(v, fallback, lo, hi float64) float64 {
	if !vmath.IsFinite(v) {
		return fallback
	}
	return vmath.Clamp(v, lo, hi)
}

// Fingerprint hashes every field for change detection
func (c Config) Fingerprint() uint64 {
	buf := make([]byte, 0, 8*8)
	for _, f := range []float64{
		c.EngineForce,
		c.DragCoefficient,
		c.DragSpeedFactor,
		c.BrakeDragCoefficient,
		c.MaxSpeed,
		c.SteeringRate,
	} {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
	}
	buf = binary.LittleEndian.AppendUint64(buf, uint64(c.LockDuration))
	buf = append(buf, byte(c.DriveModel))
	return xxhash.Sum64(buf)
}

// Patch is a sparse update from an external control surface
type Patch struct {
	EngineForce          *float64 `json:"engineForce,omitempty"`
	DragCoefficient      *float64 `json:"dragCoefficient,omitempty"`
	DragSpeedFactor      *float64 `json:"dragSpeedFactor,omitempty"`
	BrakeDragCoefficient *float64 `json:"brakeDragCoefficient,omitempty"`
	MaxSpeed             *float64 `json:"maxSpeed,omitempty"`
	SteeringRate         *float64 `json:"steeringRate,omitempty"`
	LockDurationMs       *int64   `json:"lockDurationMs,omitempty"`
	DriveModel           *string  `json:"driveModel,omitempty"`
}

// Apply overlays p on c; the result is not yet sanitized
func (p Patch) Apply(c Config) (Config, error) {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.EngineForce, p.EngineForce)
	set(&c.DragCoefficient, p.DragCoefficient)
	set(&c.DragSpeedFactor, p.DragSpeedFactor)
	set(&c.BrakeDragCoefficient, p.BrakeDragCoefficient)
	set(&c.MaxSpeed, p.MaxSpeed)
	set(&c.SteeringRate, p.SteeringRate)
	if p.LockDurationMs != nil {
		c.LockDuration = time.Duration(*p.LockDurationMs) * time.Millisecond
	}
	if p.DriveModel != nil {
		m, err := ParseDriveModel(*p.DriveModel)
		if err != nil {
			return c, err
		}
		c.DriveModel = m
	}
	return c, nil
}
