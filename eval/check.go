package eval

import (
	"fmt"

	"github.com/shibukawa/snapgram/lambda"
)

// Check reports operations named by in that are missing from the registry and
// operations given more than two arguments.
func (r *Registry) Check(in lambda.Instruction) []error {
	var errs []error

	lambda.Walk(in, func(i lambda.Instruction) {
		switch v := i.(type) {
		case lambda.Op:
			if !r.Has(v.Name) {
				errs = append(errs, r.undefinedError(v.Name))
			}

			if len(v.Args) > 2 {
				errs = append(errs, fmt.Errorf("%w: %s", ErrArity, v))
			}
		case lambda.NoArgOp:
			if !r.Has(v.Name) {
				errs = append(errs, r.undefinedError(v.Name))
			}
		}
	})

	return errs
}

func (r *Registry) undefinedError(name string) error {
	if s := r.Suggest(name); s != "" {
		return fmt.Errorf("%w: %s (did you mean %s?)", ErrUndefinedOperation, name, s)
	}

	return fmt.Errorf("%w: %s", ErrUndefinedOperation, name)
}
