package calculator

import "testing"

func TestFormatResult(t *testing.T) {
	tests := []struct {
		v      float64
		places int32
		want   string
	}{
		{v: 5, places: 2, want: "5"},
		{v: 0.1 + 0.2, places: 2, want: "0.3"},
		{v: 10.0 / 3.0, places: 2, want: "3.33"},
		{v: 1.005, places: 2, want: "1.01"},
		{v: -2.5, places: 0, want: "-3"},
		{v: -0.001, places: 2, want: "0"},
		{v: 1e21, places: 2, want: "1000000000000000000000"},
	}

	for _, tc := range tests {
		if got := FormatResult(tc.v, tc.places); got != tc.want {
			t.Fatalf("FormatResult(%v, %d): expected %q, got %q", tc.v, tc.places, tc.want, got)
		}
	}
}

func TestRenderFreshEngine(t *testing.T) {
	if got := New().Render(); got != (Display{}) {
		t.Fatalf("expected empty display, got %+v", got)
	}
}

func TestStateCheckRejectsBrokenStates(t *testing.T) {
	tests := []struct {
		name  string
		state State
	}{
		{name: "operator without left operand", state: State{Pending: OpAdd, AwaitingSecondOperand: true}},
		{name: "evaluable without right operand", state: State{OperandA: "1", Pending: OpAdd, AwaitingSecondOperand: true, CanEvaluate: true}},
		{name: "awaiting without operator", state: State{OperandA: "1", AwaitingSecondOperand: true}},
		{name: "operator not awaiting", state: State{OperandA: "1", Pending: OpAdd}},
		{name: "two decimal points", state: State{OperandA: "1.2.3", HasDecimalPoint: true}},
		{name: "bare sign", state: State{OperandA: "-", IsNegative: true}},
		{name: "stale decimal flag", state: State{OperandA: "12", HasDecimalPoint: true}},
		{name: "stale sign flag", state: State{OperandA: "12", IsNegative: true}},
		{name: "fault with operand", state: State{OperandA: "1", JustEvaluated: true, Fault: FaultDivideByZero}},
		{name: "invalid character", state: State{OperandA: "1e5"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.state.Check(); err == nil {
				t.Fatalf("expected error for %+v", tc.state)
			}
		})
	}
}

func TestOperatorDispatch(t *testing.T) {
	tests := []struct {
		op    Operator
		a, b  float64
		want  float64
		fault Fault
	}{
		{op: OpAdd, a: 2, b: 3, want: 5},
		{op: OpSubtract, a: 2, b: 3, want: -1},
		{op: OpMultiply, a: 2, b: 3, want: 6},
		{op: OpDivide, a: 3, b: 2, want: 1.5},
		{op: OpDivide, a: 3, b: 0, fault: FaultDivideByZero},
		{op: OpMultiply, a: 1e200, b: 1e200, fault: FaultOverflow},
	}

	for _, tc := range tests {
		got, fault := tc.op.Apply(tc.a, tc.b)
		if fault != tc.fault {
			t.Fatalf("%s(%g, %g): expected fault %s, got %s", tc.op, tc.a, tc.b, tc.fault, fault)
		}
		if got != tc.want {
			t.Fatalf("%s(%g, %g): expected %g, got %g", tc.op, tc.a, tc.b, tc.want, got)
		}
	}
}
