package audio

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/vi-drive/parameter"
)

const (
	sampleRate = beep.SampleRate(parameter.AudioSampleRate)
)

// SoundManager manages vehicle audio
// Every method is safe before Initialize and after Cleanup; calls become no-ops
type SoundManager struct {
	mu          sync.Mutex
	hum         *HumGenerator
	humStreamer *beep.Ctrl
	mixer       *beep.Mixer
	initialized bool
	muted       bool

	wasBraking bool
}

// NewSoundManager creates a new sound manager
func NewSoundManager() *SoundManager {
	return &SoundManager{
		mixer: &beep.Mixer{},
		hum:   NewHumGenerator(sampleRate),
	}
}

// Initialize sets up the speaker and starts the idle hum
func (sm *SoundManager) Initialize() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	err := speaker.Init(sampleRate, sampleRate.N(parameter.AudioBufferDuration))
	if err != nil {
		return err
	}

	sm.humStreamer = &beep.Ctrl{Streamer: sm.hum, Paused: sm.muted}
	sm.mixer.Add(sm.humStreamer)
	speaker.Play(sm.mixer)
	sm.initialized = true
	return nil
}

// Cleanup stops all sounds
func (sm *SoundManager) Cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}
	if sm.humStreamer != nil {
		sm.humStreamer.Paused = true
	}
	sm.mixer.Clear()
	speaker.Clear()
	sm.initialized = false
}

// ToggleMute flips mute and returns the new state
func (sm *SoundManager) ToggleMute() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.muted = !sm.muted
	if sm.humStreamer != nil {
		speaker.Lock()
		sm.humStreamer.Paused = sm.muted
		speaker.Unlock()
	}
	return sm.muted
}

// Muted reports the mute state
func (sm *SoundManager) Muted() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.muted
}

// Observe feeds one tick of vehicle state
// Hum pitch follows speed; a squeal plays on brake press at speed
func (sm *SoundManager) Observe(speed float64, braking bool) {
	sm.hum.SetFrequency(parameter.EngineHumBaseFreq + parameter.EngineHumSpeedGain*math.Abs(speed))

	sm.mu.Lock()
	pressed := braking && !sm.wasBraking
	sm.wasBraking = braking
	sm.mu.Unlock()

	if pressed && math.Abs(speed) >= parameter.BrakeSquealMinSpeed {
		sm.PlaySqueal()
	}
}

// PlaySqueal plays a short brake squeal
func (sm *SoundManager) PlaySqueal() {
	sm.play(parameter.BrakeSquealDuration, NewSquealGenerator(sampleRate, parameter.BrakeSquealFreq))
}

// PlayRespawn plays a short low buzz
func (sm *SoundManager) PlayRespawn() {
	sm.play(parameter.RespawnBuzzDuration, NewBuzzGenerator(sampleRate, parameter.RespawnBuzzFreq))
}

func (sm *SoundManager) play(d time.Duration, s beep.Streamer) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized || sm.muted {
		return
	}
	speaker.Lock()
	sm.mixer.Add(beep.Take(sampleRate.N(d), s))
	speaker.Unlock()
}

// HumGenerator generates a continuous engine drone with a retunable pitch
type HumGenerator struct {
	sr    beep.SampleRate
	freq  atomic.Uint64 // float64 bits
	phase float64
}

// NewHumGenerator creates a hum at the idle pitch
func NewHumGenerator(sr beep.SampleRate) *HumGenerator {
	g := &HumGenerator{sr: sr}
	g.SetFrequency(parameter.EngineHumBaseFreq)
	return g
}

// SetFrequency retunes the hum; safe from any goroutine
func (g *HumGenerator) SetFrequency(f float64) {
	g.freq.Store(math.Float64bits(f))
}

// Frequency returns the current pitch
func (g *HumGenerator) Frequency() float64 {
	return math.Float64frombits(g.freq.Load())
}

func (g *HumGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	freq := g.Frequency()
	step := 2 * math.Pi * freq / float64(g.sr)
	for i := range samples {
		// Fundamental plus a softer second harmonic for a motor timbre
		sample := parameter.EngineHumVolume * (math.Sin(g.phase) + 0.4*math.Sin(2*g.phase))
		samples[i][0] = sample
		samples[i][1] = sample
		g.phase += step
		if g.phase > 2*math.Pi {
			g.phase -= 2 * math.Pi
		}
	}
	return len(samples), true
}

func (g *HumGenerator) Err() error {
	return nil
}

// SquealGenerator generates a high, wavering tone with fast decay
type SquealGenerator struct {
	sr   beep.SampleRate
	freq float64
	pos  int
}

// NewSquealGenerator creates a squeal generator
func NewSquealGenerator(sr beep.SampleRate, freq float64) *SquealGenerator {
	return &SquealGenerator{sr: sr, freq: freq}
}

func (g *SquealGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		wobble := 1 + 0.03*math.Sin(2*math.Pi*30*t)
		envelope := math.Exp(-t * 10)
		sample := 0.12 * envelope * math.Sin(2*math.Pi*g.freq*wobble*t)
		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *SquealGenerator) Err() error {
	return nil
}

// BuzzGenerator generates a low-pitch buzz sound
type BuzzGenerator struct {
	sr   beep.SampleRate
	freq float64
	pos  int
}

// NewBuzzGenerator creates a buzz sound generator
func NewBuzzGenerator(sr beep.SampleRate, freq float64) *BuzzGenerator {
	return &BuzzGenerator{
		sr:   sr,
		freq: freq,
	}
}

func (g *BuzzGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)

		// Square-ish wave with harmonics for harsh buzz
		sample := 0.0
		sample += 0.3 * math.Sin(2*math.Pi*g.freq*t)
		sample += 0.15 * math.Sin(2*math.Pi*g.freq*2*t)
		sample += 0.075 * math.Sin(2*math.Pi*g.freq*3*t)

		// Envelope to fade in
		envelope := math.Min(float64(g.pos)/float64(g.sr)/0.02, 1.0)
		sample *= envelope * 0.2

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *BuzzGenerator) Err() error {
	return nil
}
