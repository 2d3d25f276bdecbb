package calculator

import "math"

// Operator identifies a binary arithmetic operation.
type Operator int

const (
	OpNone Operator = iota
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
)

// Fault is an arithmetic singularity produced by an evaluation.
type Fault int

const (
	FaultNone Fault = iota
	FaultDivideByZero
	FaultOverflow
)

// operation is one entry of the dispatch table.
type operation struct {
	name  string
	glyph string
	apply func(a, b float64) (float64, Fault)
}

var operations = [...]operation{
	OpAdd: {
		name:  "add",
		glyph: "+",
		apply: func(a, b float64) (float64, Fault) { return a + b, FaultNone },
	},
	OpSubtract: {
		name:  "subtract",
		glyph: "-",
		apply: func(a, b float64) (float64, Fault) { return a - b, FaultNone },
	},
	OpMultiply: {
		name:  "multiply",
		glyph: "×",
		apply: func(a, b float64) (float64, Fault) { return a * b, FaultNone },
	},
	OpDivide: {
		name:  "divide",
		glyph: "÷",
		apply: func(a, b float64) (float64, Fault) {
			if b == 0 {
				return 0, FaultDivideByZero
			}
			return a / b, FaultNone
		},
	},
}

// Valid reports whether op names an arithmetic operation.
func (op Operator) Valid() bool {
	return op > OpNone && int(op) < len(operations)
}

// String returns the operator name ("add", "subtract", ...).
func (op Operator) String() string {
	if !op.Valid() {
		return "none"
	}
	return operations[op].name
}

// Glyph returns the symbol shown in the history line.
func (op Operator) Glyph() string {
	if !op.Valid() {
		return ""
	}
	return operations[op].glyph
}

// Apply computes a op b. Non-finite results are reported as FaultOverflow.
func (op Operator) Apply(a, b float64) (float64, Fault) {
	if !op.Valid() {
		return 0, FaultNone
	}
	result, fault := operations[op].apply(a, b)
	if fault != FaultNone {
		return 0, fault
	}
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return 0, FaultOverflow
	}
	return result, FaultNone
}

// Text is the sentinel shown on the current line while the fault is active.
func (f Fault) Text() string {
	switch f {
	case FaultDivideByZero:
		return "Cannot divide by 0"
	case FaultOverflow:
		return "Overflow"
	}
	return ""
}

func (f Fault) String() string {
	switch f {
	case FaultDivideByZero:
		return "divide_by_zero"
	case FaultOverflow:
		return "overflow"
	}
	return "none"
}
