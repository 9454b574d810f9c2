package input

import "sync/atomic"

// Snapshot is the five control flags read once at tick start
type Snapshot struct {
	Forward    bool `json:"forward" cbor:"1,keyasint"`
	Backward   bool `json:"backward" cbor:"2,keyasint"`
	SteerLeft  bool `json:"steerLeft" cbor:"3,keyasint"`
	SteerRight bool `json:"steerRight" cbor:"4,keyasint"`
	Brake      bool `json:"brake" cbor:"5,keyasint"`
}

// Held reports the flag for a
func (s Snapshot) Held(a Action) bool {
	switch a {
	case ActionForward:
		return s.Forward
	case ActionBackward:
		return s.Backward
	case ActionSteerLeft:
		return s.SteerLeft
	case ActionSteerRight:
		return s.SteerRight
	case ActionBrake:
		return s.Brake
	}
	return false
}

// Throttle reports whether either drive key is held
func (s Snapshot) Throttle() bool {
	return s.Forward || s.Backward
}

// Bits packs the flags, one bit per action
func (s Snapshot) Bits() uint32 {
	var b uint32
	for a := ActionForward; a < actionCount; a++ {
		if s.Held(a) {
			b |= bit(a)
		}
	}
	return b
}

// SnapshotFromBits unpacks flags produced by Bits
func SnapshotFromBits(b uint32) Snapshot {
	return Snapshot{
		Forward:    b&bit(ActionForward) != 0,
		Backward:   b&bit(ActionBackward) != 0,
		SteerLeft:  b&bit(ActionSteerLeft) != 0,
		SteerRight: b&bit(ActionSteerRight) != 0,
		Brake:      b&bit(ActionBrake) != 0,
	}
}

func bit(a Action) uint32 {
	return 1 << uint32(a)
}

// Controls holds the live control flags
// Writers (key events, network) and the tick reader may run on different goroutines;
// all five flags live in one word so Snapshot never observes a partial update
type Controls struct {
	bits atomic.Uint32
}

// NewControls creates released controls
func NewControls() *Controls {
	return &Controls{}
}

// Set stores the pressed state of a
func (c *Controls) Set(a Action, pressed bool) {
	if a == ActionNone || a >= actionCount {
		return
	}
	for {
		old := c.bits.Load()
		next := old &^ bit(a)
		if pressed {
			next |= bit(a)
		}
		if old == next || c.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Press sets a
func (c *Controls) Press(a Action) {
	c.Set(a, true)
}

// Release clears a
func (c *Controls) Release(a Action) {
	c.Set(a, false)
}

// Store replaces all flags at once
func (c *Controls) Store(s Snapshot) {
	c.bits.Store(s.Bits())
}

// Snapshot returns a consistent copy of all flags
func (c *Controls) Snapshot() Snapshot {
	return SnapshotFromBits(c.bits.Load())
}

// Reset releases everything
func (c *Controls) Reset() {
	c.bits.Store(0)
}
