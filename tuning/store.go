package tuning

import (
	"sync/atomic"
)

// Store publishes tuning to the simulation goroutine without locks
// Writers replace the whole record; a tick reads one consistent Config
type Store struct {
	cur     atomic.Pointer[Config]
	version atomic.Uint64
}

// NewStore creates a store holding the sanitized initial config
func NewStore(initial Config) *Store {
	s := &Store{}
	c := Sanitize(initial)
	s.cur.Store(&c)
	return s
}

// Load returns the current config
func (s *Store) Load() Config {
	return *s.cur.Load()
}

// Version increments on every effective change
func (s *Store) Version() uint64 {
	return s.version.Load()
}

// Update sanitizes and publishes c; reports whether anything changed
func (s *Store) Update(c Config) (Config, bool) {
	c = Sanitize(c)
	for {
		old := s.cur.Load()
		if old.Fingerprint() == c.Fingerprint() {
			return *old, false
		}
		if s.cur.CompareAndSwap(old, &c) {
			s.version.Add(1)
			return c, true
		}
	}
}

// Patch applies a sparse update on top of the current config
func (s *Store) Patch(p Patch) (Config, bool, error) {
	for {
		old := s.cur.Load()
		next, err := p.Apply(*old)
		if err != nil {
			return *old, false, err
		}
		next = Sanitize(next)
		if old.Fingerprint() == next.Fingerprint() {
			return *old, false, nil
		}
		if s.cur.CompareAndSwap(old, &next) {
			s.version.Add(1)
			return next, true, nil
		}
	}
}
