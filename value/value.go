// Package value implements the numeric-or-text values produced by evaluation
// and the coercion lattice used by arithmetic on them.
package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Sentinel errors
var (
	ErrTypeParse   = errors.New("type parse error")
	ErrUnknownKind = errors.New("unknown value kind")
)

// Kind identifies the representation of a Value. The numeric kinds are ordered
// by width: NarrowInt < WideInt < NarrowFloat < WideFloat.
type Kind int

const (
	NarrowInt Kind = iota
	WideInt
	NarrowFloat
	WideFloat
	Text
	Error
)

var kindNames = map[Kind]string{
	NarrowInt:   "int",
	WideInt:     "long",
	NarrowFloat: "float",
	WideFloat:   "double",
	Text:        "text",
	Error:       "error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Numeric reports whether k takes part in the promotion lattice.
func (k Kind) Numeric() bool {
	return k >= NarrowInt && k <= WideFloat
}

// ParseKind resolves the names used by the lambda notation: int, long, float,
// double and text.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name && k != Error {
			return k, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Value is an immutable evaluation value.
type Value struct {
	kind Kind
	i    int64
	f32  float32
	f64  float64
	s    string
}

func NewInt(v int32) Value      { return Value{kind: NarrowInt, i: int64(v)} }
func NewLong(v int64) Value     { return Value{kind: WideInt, i: v} }
func NewFloat(v float32) Value  { return Value{kind: NarrowFloat, f32: v} }
func NewDouble(v float64) Value { return Value{kind: WideFloat, f64: v} }
func NewText(v string) Value    { return Value{kind: Text, s: v} }
func NewError(msg string) Value { return Value{kind: Error, s: msg} }

// Errorf builds an Error value with a formatted message.
func Errorf(format string, args ...any) Value {
	return NewError(fmt.Sprintf(format, args...))
}

// Kind returns the kind of v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsError reports whether v is an Error value.
func (v Value) IsError() bool {
	return v.kind == Error
}

// Message returns the message of an Error value.
func (v Value) Message() string {
	if v.kind != Error {
		return ""
	}

	return v.s
}

// Int64 returns the integer held by an integer kind.
func (v Value) Int64() (int64, bool) {
	switch v.kind {
	case NarrowInt, WideInt:
		return v.i, true
	default:
		return 0, false
	}
}

// Float64 returns any numeric kind as float64.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case NarrowInt, WideInt:
		return float64(v.i), true
	case NarrowFloat:
		return float64(v.f32), true
	case WideFloat:
		return v.f64, true
	default:
		return 0, false
	}
}

// Equal compares kind and payload.
func (v Value) Equal(o Value) bool {
	return v == o
}

// String renders the value. Integers are rendered in decimal, floats in plain
// decimal notation without exponent, text as is and errors as their message.
func (v Value) String() string {
	switch v.kind {
	case NarrowInt, WideInt:
		return strconv.FormatInt(v.i, 10)
	case NarrowFloat:
		f := float64(v.f32)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, 32)
		}

		return decimal.NewFromFloat32(v.f32).String()
	case WideFloat:
		if math.IsNaN(v.f64) || math.IsInf(v.f64, 0) {
			return strconv.FormatFloat(v.f64, 'g', -1, 64)
		}

		return decimal.NewFromFloat(v.f64).String()
	default:
		return v.s
	}
}

// GoString renders the value with its kind, e.g. int(20).
func (v Value) GoString() string {
	return fmt.Sprintf("%s(%s)", v.kind, v.String())
}

// Parse reads text as a value of the given kind.
func Parse(kind Kind, text string) (Value, error) {
	switch kind {
	case NarrowInt:
		i, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return Value{}, parseError(kind, text, err)
		}

		return NewInt(int32(i)), nil
	case WideInt:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, parseError(kind, text, err)
		}

		return NewLong(i), nil
	case NarrowFloat:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return Value{}, parseError(kind, text, err)
		}

		return NewFloat(float32(f)), nil
	case WideFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, parseError(kind, text, err)
		}

		return NewDouble(f), nil
	case Text:
		return NewText(text), nil
	default:
		return Value{}, fmt.Errorf("%w: cannot parse into %s", ErrTypeParse, kind)
	}
}

func parseError(kind Kind, text string, err error) error {
	return fmt.Errorf("%w: %q as %s: %w", ErrTypeParse, text, kind, err)
}
