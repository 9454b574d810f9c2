package input

// Action is a level-triggered driving control
type Action uint8

const (
	ActionNone Action = iota
	ActionForward
	ActionBackward
	ActionSteerLeft
	ActionSteerRight
	ActionBrake
	actionCount
)

// Intent is an edge-triggered session command
type Intent uint8

const (
	IntentNone Intent = iota
	IntentQuit
	IntentPause
	IntentRespawn
	IntentZoomIn
	IntentZoomOut
	IntentOrbitLeft
	IntentOrbitRight
	IntentToggleMute
)

// actionNames maps config names to actions
// "none" unbinds a key
var actionNames = map[string]Action{
	"none":        ActionNone,
	"forward":     ActionForward,
	"backward":    ActionBackward,
	"steer_left":  ActionSteerLeft,
	"steer_right": ActionSteerRight,
	"brake":       ActionBrake,
}

var intentNames = map[string]Intent{
	"quit":        IntentQuit,
	"pause":       IntentPause,
	"respawn":     IntentRespawn,
	"zoom_in":     IntentZoomIn,
	"zoom_out":    IntentZoomOut,
	"orbit_left":  IntentOrbitLeft,
	"orbit_right": IntentOrbitRight,
	"toggle_mute": IntentToggleMute,
}

// String returns the config name of the action
func (a Action) String() string {
	for name, v := range actionNames {
		if v == a {
			return name
		}
	}
	return "unknown"
}

// ParseAction resolves a config name
func ParseAction(name string) (Action, bool) {
	a, ok := actionNames[name]
	return a, ok
}

// ParseIntent resolves a config name
func ParseIntent(name string) (Intent, bool) {
	i, ok := intentNames[name]
	return i, ok
}
