// Package keypad translates button glyphs and key names into calculator key
// events.
package keypad

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"keypad-calc/internal/calculator"
)

// ErrUnknownKey is returned for glyphs with no binding.
var ErrUnknownKey = errors.New("unknown key")

// named holds the canonical key names. Bindings loaded from a file must
// resolve to one of these or to a single digit.
var named = map[string]calculator.Key{
	"add":       calculator.Op(calculator.OpAdd),
	"subtract":  calculator.Op(calculator.OpSubtract),
	"multiply":  calculator.Op(calculator.OpMultiply),
	"divide":    calculator.Op(calculator.OpDivide),
	"decimal":   calculator.DecimalPoint(),
	"sign":      calculator.SignToggle(),
	"equals":    calculator.Equals(),
	"clear":     calculator.ClearAll(),
	"backspace": calculator.ClearLast(),
}

var defaultGlyphs = map[string]string{
	"+":         "add",
	"-":         "subtract",
	"−":         "subtract",
	"*":         "multiply",
	"×":         "multiply",
	"x":         "multiply",
	"/":         "divide",
	"÷":         "divide",
	".":         "decimal",
	",":         "decimal",
	"±":         "sign",
	"+/-":       "sign",
	"neg":       "sign",
	"=":         "equals",
	"enter":     "equals",
	"c":         "clear",
	"ac":        "clear",
	"esc":       "clear",
	"escape":    "clear",
	"⌫":         "backspace",
	"del":       "backspace",
	"ce":        "backspace",
	"←":         "backspace",
	"backspace": "backspace",
}

// Keymap resolves glyphs to key events. The zero value is not usable; use
// New or Load.
type Keymap struct {
	keys map[string]calculator.Key
}

// New returns the built-in keymap.
func New() *Keymap {
	m := &Keymap{keys: make(map[string]calculator.Key, len(named)+len(defaultGlyphs)+10)}
	for name, k := range named {
		m.keys[name] = k
	}
	for glyph, name := range defaultGlyphs {
		m.keys[glyph] = named[name]
	}
	for d := byte('0'); d <= '9'; d++ {
		m.keys[string(d)] = calculator.Digit(d)
	}
	return m
}

// Lookup resolves a single glyph. Matching ignores case and surrounding
// whitespace.
func (m *Keymap) Lookup(glyph string) (calculator.Key, error) {
	k, ok := m.keys[normalize(glyph)]
	if !ok {
		return calculator.Key{}, fmt.Errorf("%w: %q", ErrUnknownKey, glyph)
	}
	return k, nil
}

// Parse resolves every glyph, failing on the first unknown one.
func (m *Keymap) Parse(glyphs []string) ([]calculator.Key, error) {
	keys := make([]calculator.Key, 0, len(glyphs))
	for i, g := range glyphs {
		k, err := m.Lookup(g)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Bind maps glyph to the key called name ("add", "equals", "7", ...).
func (m *Keymap) Bind(glyph, name string) error {
	glyph = normalize(glyph)
	if glyph == "" {
		return errors.New("empty glyph")
	}

	k, err := m.resolveName(name)
	if err != nil {
		return err
	}
	m.keys[glyph] = k
	return nil
}

func (m *Keymap) resolveName(name string) (calculator.Key, error) {
	name = normalize(name)
	if k, ok := named[name]; ok {
		return k, nil
	}
	if len(name) == 1 && name[0] >= '0' && name[0] <= '9' {
		return calculator.Digit(name[0]), nil
	}
	return calculator.Key{}, fmt.Errorf("%w: binding target %q", ErrUnknownKey, name)
}

type file struct {
	Bindings map[string]string `yaml:"bindings"`
}

// Load returns the built-in keymap extended with the bindings found in the
// YAML file at path. An empty path yields the built-in keymap.
func Load(path string) (*Keymap, error) {
	m := New()
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keymap: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse keymap %s: %w", path, err)
	}

	for glyph, name := range f.Bindings {
		if err := m.Bind(glyph, name); err != nil {
			return nil, fmt.Errorf("keymap %s: bind %q: %w", path, glyph, err)
		}
	}
	return m, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
