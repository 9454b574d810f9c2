package server

import (
	"github.com/lixenwraith/vi-drive/input"
	"github.com/lixenwraith/vi-drive/telemetry"
	"github.com/lixenwraith/vi-drive/tuning"
)

// Message types on the websocket
const (
	// Client to server
	TypeTuning  = "tuning"
	TypeInput   = "input"
	TypeRespawn = "respawn"
	TypePing    = "ping"

	// Server to client
	TypeFrame = "frame"
	TypePong  = "pong"
	TypeError = "error"
	TypeHello = "hello"
)

// Message is the single JSON envelope for both directions
type Message struct {
	Type string `json:"type"`

	// Patch carries a sparse tuning update (client → server)
	Patch *tuning.Patch `json:"patch,omitempty"`
	// Input replaces the held controls (client → server)
	Input *input.Snapshot `json:"input,omitempty"`

	// Config echoes the live tuning after hello and tuning messages
	Config  *tuning.Config   `json:"config,omitempty"`
	Version uint64           `json:"version,omitempty"`
	Frame   *telemetry.Frame `json:"frame,omitempty"`
	Error   string           `json:"error,omitempty"`
}
