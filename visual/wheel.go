package visual

import (
	"github.com/go-gl/mathgl/mgl64"
	opt "github.com/repeale/fp-go/option"

	"github.com/lixenwraith/vi-drive/parameter"
)

// Transform is a node's local pose relative to its parent
type Transform struct {
	Position mgl64.Vec3
	// Yaw about the parent's up axis, radians
	Yaw float64
	// Spin about the wheel's rolling axis, radians
	Spin float64
}

// WheelSlot names the four wheel positions
type WheelSlot uint8

const (
	FrontLeft WheelSlot = iota
	FrontRight
	RearLeft
	RearRight
	wheelSlotCount
)

// Front reports whether the slot steers
func (s WheelSlot) Front() bool {
	return s == FrontLeft || s == FrontRight
}

func (s WheelSlot) String() string {
	switch s {
	case FrontLeft:
		return "front_left"
	case FrontRight:
		return "front_right"
	case RearLeft:
		return "rear_left"
	case RearRight:
		return "rear_right"
	}
	return "unknown"
}

// Wheel groups the pivot and its sub-nodes; any may be absent
type Wheel struct {
	// Pivot carries the steer yaw and the mount offset
	Pivot opt.Option[*Transform]
	// Tire spins with travel
	Tire opt.Option[*Transform]
	// Caliper stays fixed relative to the chassis
	Caliper opt.Option[*Transform]
}

// NewWheel creates a fully populated wheel mounted at offset
func NewWheel(offset mgl64.Vec3) *Wheel {
	return &Wheel{
		Pivot:   opt.Some(&Transform{Position: offset}),
		Tire:    opt.Some(&Transform{}),
		Caliper: opt.Some(&Transform{}),
	}
}

// WheelRig applies derived steer and spin to the wheel nodes
// Slots may be mounted after construction; unmounted slots are skipped
type WheelRig struct {
	wheels [wheelSlotCount]opt.Option[*Wheel]
}

// NewWheelRig creates a rig with no wheels mounted
func NewWheelRig() *WheelRig {
	r := &WheelRig{}
	for i := range r.wheels {
		r.wheels[i] = opt.None[*Wheel]()
	}
	return r
}

// DefaultWheelRig mounts four wheels at the chassis offsets
func DefaultWheelRig() *WheelRig {
	r := NewWheelRig()
	r.Mount(FrontLeft, NewWheel(mgl64.Vec3(parameter.WheelFrontLeft)))
	r.Mount(FrontRight, NewWheel(mgl64.Vec3(parameter.WheelFrontRight)))
	r.Mount(RearLeft, NewWheel(mgl64.Vec3(parameter.WheelRearLeft)))
	r.Mount(RearRight, NewWheel(mgl64.Vec3(parameter.WheelRearRight)))
	return r
}

// Mount attaches w at slot; nil unmounts
func (r *WheelRig) Mount(slot WheelSlot, w *Wheel) {
	if slot >= wheelSlotCount {
		return
	}
	if w == nil {
		r.wheels[slot] = opt.None[*Wheel]()
		return
	}
	r.wheels[slot] = opt.Some(w)
}

// Wheel returns the wheel at slot if mounted
func (r *WheelRig) Wheel(slot WheelSlot) opt.Option[*Wheel] {
	if slot >= wheelSlotCount {
		return opt.None[*Wheel]()
	}
	return r.wheels[slot]
}

// Sync steers the front pivots and spins every tire
func (r *WheelRig) Sync(steerAngle, spinAngle float64) {
	for i := range r.wheels {
		slot := WheelSlot(i)
		if opt.IsNone(r.wheels[i]) {
			continue
		}
		w := r.wheels[i].Value
		if slot.Front() && opt.IsSome(w.Pivot) {
			w.Pivot.Value.Yaw = steerAngle
		}
		if opt.IsSome(w.Tire) {
			w.Tire.Value.Spin = spinAngle
		}
	}
}
