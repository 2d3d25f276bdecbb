package calculator

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Display is the two-line snapshot handed to a display sink.
type Display struct {
	History string `json:"history"`
	Current string `json:"current"`
}

// Render derives the display from the current state. It never mutates the
// engine.
func (e *Engine) Render() Display {
	s := e.state

	d := Display{History: s.OperandA, Current: s.OperandA}
	if s.AwaitingSecondOperand {
		d.History = s.OperandA + s.Pending.Glyph() + s.OperandB
		// The left operand stays on the current line until the right one
		// receives its first glyph.
		if s.OperandB != "" {
			d.Current = s.OperandB
		}
	}
	if e.equation != "" {
		d.History = e.equation
	}
	if s.Fault != FaultNone {
		d.Current = s.Fault.Text()
	}
	return d
}

// FormatResult rounds v half away from zero to the given number of decimal
// places and renders it in plain notation without trailing zeros.
func FormatResult(v float64, places int32) string {
	return decimal.NewFromFloat(v).Round(places).String()
}

// Check reports the first violated state invariant, or nil.
func (s State) Check() error {
	if s.AwaitingSecondOperand && s.OperandA == "" {
		return fmt.Errorf("awaiting second operand without a left operand")
	}
	if s.CanEvaluate && (!s.AwaitingSecondOperand || s.OperandB == "") {
		return fmt.Errorf("can evaluate with incomplete expression %q %s %q", s.OperandA, s.Pending, s.OperandB)
	}
	if s.AwaitingSecondOperand != s.Pending.Valid() {
		return fmt.Errorf("pending operator %s while awaiting=%t", s.Pending, s.AwaitingSecondOperand)
	}
	if !s.AwaitingSecondOperand && s.OperandB != "" {
		return fmt.Errorf("right operand %q without a pending operator", s.OperandB)
	}
	if s.Fault != FaultNone && (s.OperandA != "" || !s.JustEvaluated) {
		return fmt.Errorf("fault %s with left operand %q", s.Fault, s.OperandA)
	}

	for _, operand := range []string{s.OperandA, s.OperandB} {
		if err := checkOperand(operand); err != nil {
			return err
		}
	}

	active := s.OperandA
	if s.AwaitingSecondOperand {
		active = s.OperandB
	}
	if s.HasDecimalPoint != strings.Contains(active, ".") {
		return fmt.Errorf("decimal flag %t does not match operand %q", s.HasDecimalPoint, active)
	}
	if s.IsNegative != strings.HasPrefix(active, "-") {
		return fmt.Errorf("sign flag %t does not match operand %q", s.IsNegative, active)
	}
	return nil
}

func checkOperand(s string) error {
	body := strings.TrimPrefix(s, "-")
	if s != "" && body == "" {
		return fmt.Errorf("operand %q is a bare sign", s)
	}
	if strings.Count(body, ".") > 1 {
		return fmt.Errorf("operand %q has more than one decimal point", s)
	}
	if strings.HasPrefix(body, ".") {
		return fmt.Errorf("operand %q starts with a decimal point", s)
	}
	for i := 0; i < len(body); i++ {
		if body[i] != '.' && !isDigit(body[i]) {
			return fmt.Errorf("operand %q has invalid character %q", s, body[i])
		}
	}
	return nil
}
