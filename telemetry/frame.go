package telemetry

import (
	"errors"
	"time"

	"github.com/lixenwraith/vi-drive/input"
	"github.com/lixenwraith/vi-drive/tuning"
)

// ErrClosed is returned when writing to a closed sink
var ErrClosed = errors.New("telemetry: sink closed")

// Frame is one simulated tick as seen from outside the session
type Frame struct {
	Seq  uint64    `json:"seq" cbor:"1,keyasint"`
	Time float64   `json:"time" cbor:"2,keyasint"`
	DT   float64   `json:"dt" cbor:"3,keyasint"`
	Wall time.Time `json:"wall" cbor:"4,keyasint"`

	Position [3]float64 `json:"position" cbor:"5,keyasint"`
	Velocity [3]float64 `json:"velocity" cbor:"6,keyasint"`
	Yaw      float64    `json:"yaw" cbor:"7,keyasint"`

	Input input.Snapshot `json:"input" cbor:"8,keyasint"`

	SteerAngle     float64 `json:"steerAngle" cbor:"9,keyasint"`
	WheelSpin      float64 `json:"wheelSpin" cbor:"10,keyasint"`
	BrakeIntensity float64 `json:"brakeIntensity" cbor:"11,keyasint"`
	ForwardSpeed   float64 `json:"forwardSpeed" cbor:"12,keyasint"`

	Locked bool `json:"locked" cbor:"13,keyasint"`
	// Respawn is the reason code when the vehicle was reset this tick, else empty
	Respawn string `json:"respawn,omitempty" cbor:"14,keyasint,omitempty"`
	// TuningVersion changes whenever live tuning was replaced
	TuningVersion uint64 `json:"tuningVersion" cbor:"15,keyasint"`
}

// Header opens a recording
type Header struct {
	Version int           `cbor:"1,keyasint"`
	Started time.Time     `cbor:"2,keyasint"`
	Tuning  tuning.Config `cbor:"3,keyasint"`
	RunID   uint          `cbor:"4,keyasint,omitempty"`
}

// FormatVersion is the current recording layout
const FormatVersion = 1

// Sink consumes frames
type Sink interface {
	Write(f Frame) error
	Close() error
}

// Sinks fans out to every member; errors are joined
type Sinks []Sink

func (s Sinks) Write(f Frame) error {
	var errs []error
	for _, sink := range s {
		if err := sink.Write(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s Sinks) Close() error {
	var errs []error
	for _, sink := range s {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
