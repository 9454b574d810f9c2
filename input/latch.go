package input

import "time"

// Latch turns a terminal key stream into held/released flags
// Terminals report presses and auto-repeats but never releases; a key counts as held
// until no repeat arrives within the hold window
type Latch struct {
	controls *Controls
	window   time.Duration
	lastSeen [actionCount]time.Time
}

// NewLatch wraps controls with the given hold window
func NewLatch(controls *Controls, window time.Duration) *Latch {
	return &Latch{controls: controls, window: window}
}

// Touch marks a as pressed at now
func (l *Latch) Touch(a Action, now time.Time) {
	if a == ActionNone || a >= actionCount {
		return
	}
	l.lastSeen[a] = now
	l.controls.Press(a)
}

// Expire releases actions whose last repeat is older than the window
func (l *Latch) Expire(now time.Time) {
	for a := ActionForward; a < actionCount; a++ {
		seen := l.lastSeen[a]
		if seen.IsZero() {
			continue
		}
		if now.Sub(seen) >= l.window {
			l.lastSeen[a] = time.Time{}
			l.controls.Release(a)
		}
	}
}

// ReleaseAll clears every latched action
func (l *Latch) ReleaseAll() {
	l.lastSeen = [actionCount]time.Time{}
	l.controls.Reset()
}
