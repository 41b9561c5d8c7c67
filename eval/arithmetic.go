package eval

// Arithmetic registers add, sub, mul and div over two arguments and neg over
// one.
func Arithmetic(r *Registry) {
	r.Define("add", binaryOperation("add", Add))
	r.Define("sub", binaryOperation("sub", Sub))
	r.Define("mul", binaryOperation("mul", Mul))
	r.Define("div", binaryOperation("div", Div))
	r.Define("neg", func(f *Frame) Result {
		a, ok := f.Args().One()
		if !ok {
			return Errorf("neg needs one argument, got %d", f.Args().Len())
		}

		return Neg(a)
	})
}

func binaryOperation(name string, fn func(a, b Result) Result) Operation {
	return func(f *Frame) Result {
		a, b, ok := f.Args().Two()
		if !ok {
			return Errorf("%s needs two arguments, got %d", name, f.Args().Len())
		}

		return fn(a, b)
	}
}
