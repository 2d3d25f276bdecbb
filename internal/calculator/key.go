package calculator

import "fmt"

// KeyKind classifies a key event.
type KeyKind int

const (
	KeyDigit KeyKind = iota + 1
	KeyOperator
	KeyDecimalPoint
	KeySignToggle
	KeyEquals
	KeyClearAll
	KeyClearLast
)

var keyKindNames = map[KeyKind]string{
	KeyDigit:        "digit",
	KeyOperator:     "operator",
	KeyDecimalPoint: "decimal_point",
	KeySignToggle:   "sign_toggle",
	KeyEquals:       "equals",
	KeyClearAll:     "clear_all",
	KeyClearLast:    "clear_last",
}

func (k KeyKind) String() string {
	if name, ok := keyKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Key is a single key event. Digit is only meaningful for KeyDigit and Op
// only for KeyOperator.
type Key struct {
	Kind  KeyKind
	Digit byte
	Op    Operator
}

// Digit returns the key event for the digit character d ('0'..'9').
func Digit(d byte) Key { return Key{Kind: KeyDigit, Digit: d} }

// Op returns the key event selecting op.
func Op(op Operator) Key { return Key{Kind: KeyOperator, Op: op} }

func DecimalPoint() Key { return Key{Kind: KeyDecimalPoint} }

func SignToggle() Key { return Key{Kind: KeySignToggle} }

func Equals() Key { return Key{Kind: KeyEquals} }

func ClearAll() Key { return Key{Kind: KeyClearAll} }

func ClearLast() Key { return Key{Kind: KeyClearLast} }

func (k Key) String() string {
	switch k.Kind {
	case KeyDigit:
		return fmt.Sprintf("digit(%c)", k.Digit)
	case KeyOperator:
		return fmt.Sprintf("operator(%s)", k.Op)
	}
	return k.Kind.String()
}

func isDigit(d byte) bool {
	return d >= '0' && d <= '9'
}
