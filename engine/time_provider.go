package engine

import (
	"sync"
	"time"
)

// TimeSource supplies wall time to the session and its clock
type TimeSource interface {
	Now() time.Time
}

// MonotonicTime reads the system clock with its monotonic component
type MonotonicTime struct{}

// Now returns time.Now
func (MonotonicTime) Now() time.Time {
	return time.Now()
}

// ManualTime is a controllable time source for tests and replays
type ManualTime struct {
	mu          sync.RWMutex
	currentTime time.Time
}

// NewManualTime starts at startTime
func NewManualTime(startTime time.Time) *ManualTime {
	return &ManualTime{currentTime: startTime}
}

// Now returns the current manual time
func (m *ManualTime) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentTime
}

// Set jumps to t
func (m *ManualTime) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = t
}

// Advance moves time forward by d
func (m *ManualTime) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
}
