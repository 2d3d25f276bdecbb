// Package calculator implements the key-driven calculation state machine: two
// operand buffers, a pending operator and the flags deciding how each key
// event mutates them.
package calculator

import (
	"strconv"
	"strings"
)

const (
	DefaultMaxDigits = 11
	DefaultPrecision = 2
)

// State is the complete mutable state of one engine.
type State struct {
	OperandA string
	OperandB string
	Pending  Operator

	// AwaitingSecondOperand routes digits to OperandB once an operator has
	// been accepted.
	AwaitingSecondOperand bool
	// CanEvaluate is set once OperandB has received a digit.
	CanEvaluate bool
	// JustEvaluated is set after "=" until the next key that edits or
	// replaces the result.
	JustEvaluated   bool
	HasDecimalPoint bool
	IsNegative      bool

	Fault Fault
}

// Outcome describes what a key event did to the engine.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeUpdated
	OutcomeEvaluated
	OutcomeFault
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpdated:
		return "updated"
	case OutcomeEvaluated:
		return "evaluated"
	case OutcomeFault:
		return "fault"
	}
	return "ignored"
}

// Engine is a single calculator session. It is not safe for concurrent use.
type Engine struct {
	maxDigits int
	precision int32

	state State
	// equation is the "{a}{op}{b}=" snapshot shown on the history line
	// after an evaluation, until a later key changes the state.
	equation string
}

type Option func(*Engine)

// WithMaxDigits bounds the number of digits a typed operand may hold.
func WithMaxDigits(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDigits = n
		}
	}
}

// WithPrecision sets the number of decimal places results are rounded to.
func WithPrecision(places int) Option {
	return func(e *Engine) {
		if places >= 0 {
			e.precision = int32(places)
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		maxDigits: DefaultMaxDigits,
		precision: DefaultPrecision,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	return e.state
}

// HandleKey applies one key event. Keys that cannot apply in the current
// state are ignored and leave the engine untouched.
func (e *Engine) HandleKey(k Key) Outcome {
	before := e.state
	equation := e.equation
	e.equation = ""

	var outcome Outcome
	switch k.Kind {
	case KeyDigit:
		outcome = e.digit(k.Digit)
	case KeyOperator:
		outcome = e.operator(k.Op)
	case KeyDecimalPoint:
		outcome = e.decimalPoint()
	case KeySignToggle:
		outcome = e.signToggle()
	case KeyEquals:
		outcome = e.equals()
	case KeyClearAll:
		e.state = State{}
		outcome = OutcomeUpdated
	case KeyClearLast:
		outcome = e.clearLast()
	}

	if outcome == OutcomeUpdated && e.state == before {
		outcome = OutcomeIgnored
	}
	if outcome == OutcomeIgnored {
		e.state = before
		e.equation = equation
	}
	return outcome
}

func (e *Engine) digit(d byte) Outcome {
	if !isDigit(d) {
		return OutcomeIgnored
	}

	// A result never counts against the length limit: the digit replaces it.
	s := &e.state
	if s.JustEvaluated {
		*s = State{OperandA: string(d)}
		return OutcomeUpdated
	}

	active := e.active()
	if digitCount(*active) >= e.maxDigits {
		return OutcomeIgnored
	}

	*active += string(d)
	if s.AwaitingSecondOperand {
		s.CanEvaluate = true
	}
	e.syncFlags()
	return OutcomeUpdated
}

func (e *Engine) operator(op Operator) Outcome {
	if !op.Valid() {
		return OutcomeIgnored
	}

	s := &e.state
	if !s.AwaitingSecondOperand {
		if s.OperandA == "" {
			return OutcomeIgnored
		}
		s.OperandA = strings.TrimSuffix(s.OperandA, ".")
		s.Pending = op
		s.AwaitingSecondOperand = true
		s.JustEvaluated = false
		e.syncFlags()
		return OutcomeUpdated
	}

	// A repeated operator with nothing typed for the right operand keeps
	// the operator already pending.
	if !s.CanEvaluate {
		return OutcomeIgnored
	}

	if outcome := e.evaluate(); outcome == OutcomeFault {
		return outcome
	}
	e.equation = ""
	s.Pending = op
	s.JustEvaluated = false
	e.syncFlags()
	return OutcomeEvaluated
}

func (e *Engine) decimalPoint() Outcome {
	active := e.active()
	if *active == "" {
		return OutcomeIgnored
	}

	e.state.JustEvaluated = false
	if !strings.Contains(*active, ".") {
		*active += "."
	}
	e.syncFlags()
	return OutcomeUpdated
}

func (e *Engine) signToggle() Outcome {
	active := e.active()
	if *active == "" || parseOperand(*active) == 0 {
		return OutcomeIgnored
	}

	if strings.HasPrefix(*active, "-") {
		*active = (*active)[1:]
	} else {
		*active = "-" + *active
	}
	e.syncFlags()
	return OutcomeUpdated
}

func (e *Engine) equals() Outcome {
	s := &e.state
	if !s.CanEvaluate {
		return OutcomeIgnored
	}

	outcome := e.evaluate()
	s.Pending = OpNone
	s.AwaitingSecondOperand = false
	s.CanEvaluate = false
	e.syncFlags()
	return outcome
}

func (e *Engine) clearLast() Outcome {
	s := &e.state
	if s.OperandA == "" {
		return OutcomeIgnored
	}

	switch {
	case !s.AwaitingSecondOperand:
		s.OperandA = trimLast(s.OperandA)
		s.JustEvaluated = false
	case s.OperandB == "":
		s.Pending = OpNone
		s.AwaitingSecondOperand = false
	default:
		s.OperandB = trimLast(s.OperandB)
		s.CanEvaluate = s.OperandB != ""
	}
	e.syncFlags()
	return OutcomeUpdated
}

// evaluate applies the pending operator to both operands and stores the
// rounded result as the left operand. On a fault the state collapses to an
// empty left operand so the next digit starts a fresh expression.
func (e *Engine) evaluate() Outcome {
	s := &e.state
	e.equation = s.OperandA + s.Pending.Glyph() + s.OperandB + "="

	result, fault := s.Pending.Apply(parseOperand(s.OperandA), parseOperand(s.OperandB))
	if fault != FaultNone {
		e.state = State{JustEvaluated: true, Fault: fault}
		return OutcomeFault
	}

	s.OperandA = FormatResult(result, e.precision)
	s.OperandB = ""
	s.CanEvaluate = false
	s.JustEvaluated = true
	return OutcomeEvaluated
}

// active returns the operand currently receiving input.
func (e *Engine) active() *string {
	if e.state.AwaitingSecondOperand {
		return &e.state.OperandB
	}
	return &e.state.OperandA
}

func (e *Engine) syncFlags() {
	active := *e.active()
	e.state.HasDecimalPoint = strings.Contains(active, ".")
	e.state.IsNegative = strings.HasPrefix(active, "-")
}

// parseOperand reads an operand buffer; empty or malformed text reads as 0.
func parseOperand(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func digitCount(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			n++
		}
	}
	return n
}

// trimLast drops the final character; a lone sign left behind goes too.
func trimLast(s string) string {
	if s == "" {
		return s
	}
	s = s[:len(s)-1]
	if s == "-" {
		return ""
	}
	return s
}
