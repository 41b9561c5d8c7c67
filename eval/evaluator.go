// Package eval walks AST nodes and reduces them with the instruction attached
// to each node.
package eval

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shibukawa/snapgram/ast"
	"github.com/shibukawa/snapgram/lambda"
	"github.com/shibukawa/snapgram/suggest"
	"github.com/shibukawa/snapgram/value"
)

// Sentinel errors
var (
	ErrUndefinedOperation = errors.New("undefined operation")
	ErrArity              = errors.New("operations take at most two arguments")
	ErrCEL                = errors.New("invalid CEL operation")
)

// DefaultMaxDepth bounds nested evaluation.
const DefaultMaxDepth = 10000

// Args holds the evaluated arguments of an operation: none, one or two.
type Args struct {
	results []Result
}

// Len returns the number of arguments.
func (a Args) Len() int {
	return len(a.results)
}

// One returns the only argument.
func (a Args) One() (Result, bool) {
	if len(a.results) != 1 {
		return Result{}, false
	}

	return a.results[0], true
}

// Two returns both arguments.
func (a Args) Two() (Result, Result, bool) {
	if len(a.results) != 2 {
		return Result{}, Result{}, false
	}

	return a.results[0], a.results[1], true
}

// Frame is what an operation sees of its evaluation.
type Frame struct {
	ctx  context.Context
	eval *Evaluator
	node *ast.Node
	args Args
}

func (f *Frame) Args() Args               { return f.args }
func (f *Frame) Node() *ast.Node          { return f.node }
func (f *Frame) Context() context.Context { return f.ctx }
func (f *Frame) Evaluator() *Evaluator    { return f.eval }

// Evaluator reduces trees with operations looked up in a Registry.
type Evaluator struct {
	// MaxDepth overrides DefaultMaxDepth when positive.
	MaxDepth int
	// Logger receives debug traces. Nil disables tracing.
	Logger *slog.Logger

	registry *Registry
}

// New creates an evaluator over registry.
func New(registry *Registry) *Evaluator {
	return &Evaluator{registry: registry}
}

// Registry returns the operation registry.
func (e *Evaluator) Registry() *Registry {
	return e.registry
}

// Evaluate reduces n with its own instruction.
func (e *Evaluator) Evaluate(n *ast.Node) Result {
	return e.EvaluateContext(context.Background(), n)
}

// EvaluateContext is Evaluate with a context handed to operations. A cancelled
// context stops the walk with an Error result.
func (e *Evaluator) EvaluateContext(ctx context.Context, n *ast.Node) Result {
	return e.eval(ctx, n, n.Lambda, 0)
}

// EvaluateWith reduces n with in instead of its own instruction.
func (e *Evaluator) EvaluateWith(ctx context.Context, n *ast.Node, in lambda.Instruction) Result {
	return e.eval(ctx, n, in, 0)
}

func (e *Evaluator) maxDepth() int {
	if e.MaxDepth > 0 {
		return e.MaxDepth
	}

	return DefaultMaxDepth
}

func (e *Evaluator) eval(ctx context.Context, n *ast.Node, in lambda.Instruction, depth int) Result {
	if depth > e.maxDepth() {
		return Errorf("evaluation depth limit %d exceeded", e.maxDepth())
	}

	if err := ctx.Err(); err != nil {
		return Error(err.Error())
	}

	if e.Logger != nil && e.Logger.Enabled(ctx, slog.LevelDebug) {
		e.Logger.LogAttrs(ctx, slog.LevelDebug, "evaluate",
			slog.String("node", n.String()),
			slog.String("lambda", instructionString(in)),
			slog.Int("depth", depth))
	}

	switch in := in.(type) {
	case nil, lambda.Default:
		if n.IsLeaf() {
			return Errorf("no literal rule for token %s", n.Token)
		}

		return Errorf("no default reduction for branch %s", n)
	case lambda.Op:
		op, ok := e.registry.Lookup(in.Name)
		if !ok {
			return e.undefined(in.Name)
		}

		if len(in.Args) > 2 {
			return Errorf("operation %s takes at most two arguments, got %d", in.Name, len(in.Args))
		}

		results := make([]Result, 0, len(in.Args))

		for _, index := range in.Args {
			child, ok := n.Child(index)
			if !ok {
				return Errorf("operation %s: %s has no child %d", in.Name, n, index)
			}

			results = append(results, e.eval(ctx, child, child.Lambda, depth+1))
		}

		return op(&Frame{ctx: ctx, eval: e, node: n, args: Args{results: results}})
	case lambda.NoArgOp:
		op, ok := e.registry.Lookup(in.Name)
		if !ok {
			return e.undefined(in.Name)
		}

		return op(&Frame{ctx: ctx, eval: e, node: n})
	case lambda.Descend:
		child, ok := n.Child(in.Index)
		if !ok {
			return Errorf("%s has no child %d", n, in.Index)
		}

		then := in.Then
		if then == nil {
			then = child.Lambda
		}

		return e.eval(ctx, child, then, depth+1)
	case lambda.Literal:
		if !n.IsLeaf() {
			return Errorf("%s needs a token, got branch %s", in, n)
		}

		v, err := value.Parse(in.Kind, n.Token.Value)
		if err != nil {
			return Error(err.Error())
		}

		return Value(v)
	case lambda.Choice:
		return Errorf("unresolved choice instruction %s on %s", in, n)
	default:
		return Errorf("unknown instruction %T", in)
	}
}

func (e *Evaluator) undefined(name string) Result {
	return Errorf("no operation named %s%s", name, suggest.Hint(name, e.registry.Names()))
}

func instructionString(in lambda.Instruction) string {
	if in == nil {
		return "default"
	}

	return in.String()
}
