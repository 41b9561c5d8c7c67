package value

import (
	"math"
)

// Operator names an arithmetic operation.
type Operator string

const (
	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpMul Operator = "*"
	OpDiv Operator = "/"
)

func Add(a, b Value) Value { return Apply(OpAdd, a, b) }
func Sub(a, b Value) Value { return Apply(OpSub, a, b) }
func Mul(a, b Value) Value { return Apply(OpMul, a, b) }
func Div(a, b Value) Value { return Apply(OpDiv, a, b) }

// Apply runs a binary operator. Error operands are returned as they are, the
// left one first. Numeric operands of different kinds are promoted to the wider
// kind before the operation.
func Apply(op Operator, a, b Value) Value {
	if a.IsError() {
		return a
	}

	if b.IsError() {
		return b
	}

	if a.kind == Text || b.kind == Text {
		if a.kind == Text && b.kind == Text && op == OpAdd {
			return NewText(a.s + b.s)
		}

		return Errorf("cannot apply %s to %s and %s", op, a.kind, b.kind)
	}

	if a.kind != b.kind {
		var err Value

		a, b, err = promote(a, b)
		if err.IsError() {
			return err
		}
	}

	switch a.kind {
	case NarrowInt:
		return narrowInt(op, a.i, b.i)
	case WideInt:
		return wideInt(op, a.i, b.i)
	case NarrowFloat:
		return narrowFloat(op, a.f32, b.f32)
	case WideFloat:
		return wideFloat(op, a.f64, b.f64)
	default:
		return Errorf("cannot apply %s to %s", op, a.kind)
	}
}

// Neg negates a numeric value.
func Neg(a Value) Value {
	switch a.kind {
	case Error:
		return a
	case NarrowInt:
		if a.i == math.MinInt32 {
			return NewError("integer overflow")
		}

		return NewInt(int32(-a.i))
	case WideInt:
		if a.i == math.MinInt64 {
			return NewError("integer overflow")
		}

		return NewLong(-a.i)
	case NarrowFloat:
		return NewFloat(-a.f32)
	case WideFloat:
		return NewDouble(-a.f64)
	default:
		return Errorf("cannot negate %s", a.kind)
	}
}

// promote converts the narrower operand to the kind of the wider one by
// rendering it and parsing the text back.
func promote(a, b Value) (Value, Value, Value) {
	if a.kind < b.kind {
		wider, err := Parse(b.kind, a.String())
		if err != nil {
			return a, b, NewError(err.Error())
		}

		return wider, b, Value{}
	}

	wider, err := Parse(a.kind, b.String())
	if err != nil {
		return a, b, NewError(err.Error())
	}

	return a, wider, Value{}
}

func narrowInt(op Operator, a, b int64) Value {
	var r int64

	switch op {
	case OpAdd:
		r = a + b
	case OpSub:
		r = a - b
	case OpMul:
		r = a * b
	case OpDiv:
		if b == 0 {
			return NewError("division by zero")
		}

		if a%b != 0 {
			return NewFloat(float32(a) / float32(b))
		}

		r = a / b
	default:
		return Errorf("unknown operator %s", op)
	}

	if r < math.MinInt32 || r > math.MaxInt32 {
		return NewError("integer overflow")
	}

	return NewInt(int32(r))
}

func wideInt(op Operator, a, b int64) Value {
	switch op {
	case OpAdd:
		if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
			return NewError("integer overflow")
		}

		return NewLong(a + b)
	case OpSub:
		if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
			return NewError("integer overflow")
		}

		return NewLong(a - b)
	case OpMul:
		if a == 0 || b == 0 {
			return NewLong(0)
		}

		r := a * b
		if r/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return NewError("integer overflow")
		}

		return NewLong(r)
	case OpDiv:
		if b == 0 {
			return NewError("division by zero")
		}

		if a == math.MinInt64 && b == -1 {
			return NewError("integer overflow")
		}

		if a%b != 0 {
			return NewDouble(float64(a) / float64(b))
		}

		return NewLong(a / b)
	default:
		return Errorf("unknown operator %s", op)
	}
}

func narrowFloat(op Operator, a, b float32) Value {
	switch op {
	case OpAdd:
		return NewFloat(a + b)
	case OpSub:
		return NewFloat(a - b)
	case OpMul:
		return NewFloat(a * b)
	case OpDiv:
		if b == 0 {
			return NewError("division by zero")
		}

		return NewFloat(a / b)
	default:
		return Errorf("unknown operator %s", op)
	}
}

func wideFloat(op Operator, a, b float64) Value {
	switch op {
	case OpAdd:
		return NewDouble(a + b)
	case OpSub:
		return NewDouble(a - b)
	case OpMul:
		return NewDouble(a * b)
	case OpDiv:
		if b == 0 {
			return NewError("division by zero")
		}

		return NewDouble(a / b)
	default:
		return Errorf("unknown operator %s", op)
	}
}
