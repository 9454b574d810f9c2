package parameter

import "time"

// Audio
const (
	AudioSampleRate = 44100

	// AudioBufferDuration is the speaker buffer length
	AudioBufferDuration = 100 * time.Millisecond

	// EngineHumBaseFreq is the idle hum pitch; pitch rises linearly with speed
	EngineHumBaseFreq  = 55.0
	EngineHumSpeedGain = 3.0
	EngineHumVolume    = 0.08

	// BrakeSqueal plays when braking above this horizontal speed
	BrakeSquealMinSpeed = 4.0
	BrakeSquealFreq     = 1400.0
	BrakeSquealDuration = 250 * time.Millisecond

	RespawnBuzzFreq     = 120.0
	RespawnBuzzDuration = 150 * time.Millisecond
)
