package parameter

import "time"

// Frame loop
const (
	// FrameRateDefault is the simulation/render rate
	FrameRateDefault = 60

	// FrameRateMin and FrameRateMax bound the configured rate
	FrameRateMin = 10
	FrameRateMax = 240

	// InputHoldWindow releases a terminal key when no repeat arrives within it
	InputHoldWindow = 500 * time.Millisecond

	// BroadcastInterval is the websocket state push period
	BroadcastInterval = 50 * time.Millisecond
)
