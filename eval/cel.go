package eval

import (
	"fmt"
	"math"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/shibukawa/snapgram/value"
)

// CELOperation compiles a CEL expression into an operation. The expression
// sees the arguments as a and b (null when absent) and the node text as text.
// Integers enter CEL as int, floats as double; an int result comes back as the
// narrowest integer kind that holds it and a double result as a wide float.
func CELOperation(source string) (Operation, error) {
	env, err := cel.NewEnv(
		cel.Variable("a", cel.DynType),
		cel.Variable("b", cel.DynType),
		cel.Variable("text", cel.StringType),
		cel.HomogeneousAggregateLiterals(),
		cel.EagerlyValidateDeclarations(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCEL, err)
	}

	checked, issues := env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrCEL, source, issues.Err())
	}

	program, err := env.Program(checked)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrCEL, source, err)
	}

	return func(f *Frame) Result {
		vars := map[string]any{"a": nil, "b": nil, "text": f.Node().Text()}

		for i, name := range []string{"a", "b"}[:min(f.Args().Len(), 2)] {
			arg := f.Args().results[i]
			if arg.IsError() {
				return arg
			}

			v, ok := arg.Value()
			if !ok {
				return Errorf("%s: argument %s is %s", source, name, arg.State())
			}

			native, err := toNative(v)
			if err != nil {
				return Error(err.Error())
			}

			vars[name] = native
		}

		out, _, err := program.Eval(vars)
		if err != nil {
			return Errorf("%s: %v", source, err)
		}

		return fromCEL(out)
	}, nil
}

func toNative(v value.Value) (any, error) {
	switch v.Kind() {
	case value.NarrowInt, value.WideInt:
		i, _ := v.Int64()
		return i, nil
	case value.NarrowFloat, value.WideFloat:
		f, _ := v.Float64()
		return f, nil
	case value.Text:
		return v.String(), nil
	default:
		return nil, fmt.Errorf("%w: cannot pass %s to CEL", ErrCEL, v.Kind())
	}
}

func fromCEL(out ref.Val) Result {
	if types.IsError(out) {
		return Errorf("%v", out)
	}

	if _, ok := out.(types.Null); ok {
		return NoValue()
	}

	switch v := out.Value().(type) {
	case int64:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return Value(value.NewInt(int32(v)))
		}

		return Value(value.NewLong(v))
	case uint64:
		if v > math.MaxInt64 {
			return Errorf("CEL result %d overflows", v)
		}

		return fromCEL(types.Int(int64(v)))
	case float64:
		return Value(value.NewDouble(v))
	case string:
		return Value(value.NewText(v))
	case bool:
		if v {
			return Value(value.NewInt(1))
		}

		return Value(value.NewInt(0))
	default:
		return Errorf("unsupported CEL result %s", out.Type())
	}
}
