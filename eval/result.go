package eval

import (
	"fmt"

	"github.com/shibukawa/snapgram/ast"
	"github.com/shibukawa/snapgram/value"
)

// State is the shape of a Result.
type State int

const (
	NoValueState State = iota
	PendingState
	ValueState
	ErrorState
)

func (s State) String() string {
	switch s {
	case NoValueState:
		return "no value"
	case PendingState:
		return "pending"
	case ValueState:
		return "value"
	case ErrorState:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is the outcome of evaluating a node.
type Result struct {
	state   State
	node    *ast.Node
	value   value.Value
	message string
}

// NoValue is a successful evaluation without a value, e.g. an assignment.
func NoValue() Result {
	return Result{state: NoValueState}
}

// Pending carries a node that still has to be evaluated.
func Pending(n *ast.Node) Result {
	return Result{state: PendingState, node: n}
}

// Value wraps v. An Error value becomes an Error result.
func Value(v value.Value) Result {
	if v.IsError() {
		return Error(v.Message())
	}

	return Result{state: ValueState, value: v}
}

// Error is a failed evaluation.
func Error(message string) Result {
	return Result{state: ErrorState, message: message}
}

// Errorf is Error with a formatted message.
func Errorf(format string, args ...any) Result {
	return Error(fmt.Sprintf(format, args...))
}

func (r Result) State() State {
	return r.state
}

func (r Result) IsError() bool {
	return r.state == ErrorState
}

// Message returns the message of an Error result.
func (r Result) Message() string {
	return r.message
}

// Node returns the node of a Pending result.
func (r Result) Node() *ast.Node {
	return r.node
}

// Value returns the value of a Value result.
func (r Result) Value() (value.Value, bool) {
	return r.value, r.state == ValueState
}

// String renders the result for display.
func (r Result) String() string {
	switch r.state {
	case NoValueState:
		return "<no value>"
	case PendingState:
		return "<pending node: " + r.node.String() + ">"
	case ValueState:
		return r.value.String()
	default:
		return "error: " + r.message
	}
}

// operand turns r into an arithmetic operand.
func (r Result) operand() value.Value {
	switch r.state {
	case ValueState:
		return r.value
	case ErrorState:
		return value.NewError(r.message)
	case PendingState:
		return value.Errorf("pending node %s is not a value", r.node)
	default:
		return value.NewError("no value")
	}
}

func Add(a, b Result) Result { return binary(value.OpAdd, a, b) }
func Sub(a, b Result) Result { return binary(value.OpSub, a, b) }
func Mul(a, b Result) Result { return binary(value.OpMul, a, b) }
func Div(a, b Result) Result { return binary(value.OpDiv, a, b) }

// Neg negates a single result.
func Neg(a Result) Result {
	if a.IsError() {
		return a
	}

	return Value(value.Neg(a.operand()))
}

func binary(op value.Operator, a, b Result) Result {
	if a.IsError() {
		return a
	}

	if b.IsError() {
		return b
	}

	return Value(value.Apply(op, a.operand(), b.operand()))
}
