package engine

import (
	"context"
	"time"

	"github.com/lixenwraith/vi-drive/parameter"
)

// Run steps the session at fps until ctx is done or a quit intent arrives
// onFrame, if set, receives the snapshot after every step on the loop goroutine
func (s *Session) Run(ctx context.Context, fps int, onFrame func(Snapshot)) error {
	if fps <= 0 {
		fps = parameter.FrameRateDefault
	}
	interval := time.Second / time.Duration(fps)

	lastElapsed := s.clock.Elapsed()
	nextDeadline := s.clock.RealTime().Add(interval)

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.quit:
			return nil
		case <-timer.C:
		}

		elapsed := s.clock.Elapsed()
		dt := (elapsed - lastElapsed).Seconds()
		lastElapsed = elapsed

		// Paused clocks report zero elapsed; Step still expires held keys
		s.Step(dt)
		if onFrame != nil {
			onFrame(s.Snapshot())
		}

		var sleepDuration time.Duration
		if s.clock.IsPaused() {
			// Increase sleep interval while paused to save CPU
			sleepDuration = interval * 2
			nextDeadline = s.clock.RealTime().Add(interval)
		} else {
			nextDeadline = nextDeadline.Add(interval)
			realNow := s.clock.RealTime()
			if realNow.Sub(nextDeadline) > interval*2 {
				nextDeadline = realNow.Add(interval)
			}
			sleepDuration = nextDeadline.Sub(realNow)
		}
		if sleepDuration < 0 {
			sleepDuration = 0
		}
		timer.Reset(sleepDuration)
	}
}
