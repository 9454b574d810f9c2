package input

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
)

// ErrUnknownAction is returned for a binding name that is neither an action nor an intent
var ErrUnknownAction = errors.New("unknown action")

// Aliases for keys that can't be written as a bare character in config
var runeAliases = map[string]rune{
	"space": ' ',
	"plus":  '+',
	"minus": '-',
}

var specialKeyNames = map[string]tcell.Key{
	"up":     tcell.KeyUp,
	"down":   tcell.KeyDown,
	"left":   tcell.KeyLeft,
	"right":  tcell.KeyRight,
	"esc":    tcell.KeyEscape,
	"escape": tcell.KeyEscape,
	"enter":  tcell.KeyEnter,
	"tab":    tcell.KeyTab,
	"ctrl+c": tcell.KeyCtrlC,
	"ctrl+s": tcell.KeyCtrlS,
	"ctrl+q": tcell.KeyCtrlQ,
}

// LoadKeyBindings builds a sparse override table from a name → keys map
// e.g. {"brake": ["space", "b"], "none": ["r"]}
func LoadKeyBindings(raw map[string][]string) (*KeyTable, error) {
	kt := &KeyTable{
		SpecialKeys: make(map[tcell.Key]Binding),
		Runes:       make(map[rune]Binding),
	}

	for name, keys := range raw {
		binding, err := resolveBinding(name)
		if err != nil {
			return nil, err
		}
		for _, keyName := range keys {
			if err := kt.bind(keyName, binding); err != nil {
				return nil, fmt.Errorf("binding %q: %w", name, err)
			}
		}
	}
	return kt, nil
}

func resolveBinding(name string) (Binding, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if a, ok := ParseAction(name); ok {
		return Binding{Action: a}, nil
	}
	if i, ok := ParseIntent(name); ok {
		return Binding{Intent: i}, nil
	}
	return Binding{}, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

func (kt *KeyTable) bind(keyName string, b Binding) error {
	lower := strings.ToLower(strings.TrimSpace(keyName))
	if k, ok := specialKeyNames[lower]; ok {
		kt.SpecialKeys[k] = b
		return nil
	}
	if r, ok := runeAliases[lower]; ok {
		kt.Runes[r] = b
		return nil
	}
	if utf8.RuneCountInString(lower) == 1 {
		r, _ := utf8.DecodeRuneInString(lower)
		kt.Runes[r] = b
		return nil
	}
	return fmt.Errorf("invalid key name %q", keyName)
}
