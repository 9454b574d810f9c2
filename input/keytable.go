package input

import "github.com/gdamore/tcell/v2"

// Binding is what a key resolves to; exactly one of Action or Intent is set
type Binding struct {
	Action Action
	Intent Intent
}

// KeyTable maps terminal keys to bindings
type KeyTable struct {
	// Special keys (arrows, Ctrl+*, Esc)
	SpecialKeys map[tcell.Key]Binding

	// Printable runes, matched case-insensitively for letters
	Runes map[rune]Binding
}

// DefaultKeyTable returns arrows + WASD for driving, space for brake
func DefaultKeyTable() *KeyTable {
	return &KeyTable{
		SpecialKeys: map[tcell.Key]Binding{
			tcell.KeyUp:     {Action: ActionForward},
			tcell.KeyDown:   {Action: ActionBackward},
			tcell.KeyLeft:   {Action: ActionSteerLeft},
			tcell.KeyRight:  {Action: ActionSteerRight},
			tcell.KeyEscape: {Intent: IntentQuit},
			tcell.KeyCtrlC:  {Intent: IntentQuit},
			tcell.KeyCtrlS:  {Intent: IntentToggleMute},
		},
		Runes: map[rune]Binding{
			'w': {Action: ActionForward},
			's': {Action: ActionBackward},
			'a': {Action: ActionSteerLeft},
			'd': {Action: ActionSteerRight},
			' ': {Action: ActionBrake},
			'q': {Intent: IntentQuit},
			'p': {Intent: IntentPause},
			'r': {Intent: IntentRespawn},
			'+': {Intent: IntentZoomIn},
			'=': {Intent: IntentZoomIn},
			'-': {Intent: IntentZoomOut},
			'[': {Intent: IntentOrbitLeft},
			']': {Intent: IntentOrbitRight},
		},
	}
}

// Lookup resolves a key event's key and rune
func (kt *KeyTable) Lookup(key tcell.Key, r rune) (Binding, bool) {
	if key != tcell.KeyRune {
		b, ok := kt.SpecialKeys[key]
		return b, ok
	}
	if b, ok := kt.Runes[r]; ok {
		return b, true
	}
	if r >= 'A' && r <= 'Z' {
		b, ok := kt.Runes[r+('a'-'A')]
		return b, ok
	}
	return Binding{}, false
}

// Merge applies sparse overrides on top of kt
// A zero Binding removes the key
func (kt *KeyTable) Merge(override *KeyTable) {
	if override == nil {
		return
	}
	for k, b := range override.SpecialKeys {
		if b == (Binding{}) {
			delete(kt.SpecialKeys, k)
			continue
		}
		kt.SpecialKeys[k] = b
	}
	for r, b := range override.Runes {
		if b == (Binding{}) {
			delete(kt.Runes, r)
			continue
		}
		kt.Runes[r] = b
	}
}
