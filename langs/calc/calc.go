// Package calc is an arithmetic and assignment language built on snapgram.
//
//	x = 2 * (3 + 4)
//	x / 4 - 1.5
package calc

import (
	"errors"

	"github.com/shibukawa/snapgram"
	"github.com/shibukawa/snapgram/eval"
	g "github.com/shibukawa/snapgram/grammar"
	"github.com/shibukawa/snapgram/lambda"
	"github.com/shibukawa/snapgram/store"
	"github.com/shibukawa/snapgram/value"
)

// Name is the builtin language name used in configuration.
const Name = "calc"

var tokens = []struct {
	tokenType string
	pattern   string
}{
	{"float", `[0-9]+\.[0-9]+`},
	{"int", `[0-9]+`},
	{"ident", `[A-Za-z_][A-Za-z0-9_]*`},
	{"op", `[-+*/=()]`},
}

func op(name string, args ...int) lambda.Op {
	return lambda.Op{Name: name, Args: args}
}

func choice(alternatives ...lambda.Instruction) lambda.Choice {
	return lambda.Choice{Alternatives: alternatives}
}

// Define installs the calc tokens, rules and operations into e.
func Define(e *snapgram.Engine) error {
	for _, t := range tokens {
		if err := e.DefineToken(t.tokenType, t.pattern); err != nil {
			return err
		}
	}

	if err := e.SkipPattern(`\s+`); err != nil {
		return err
	}

	e.DefineRule("EXPR", g.Or(
		g.Seq(g.Rule("IDENT"), g.TokValue("op", "="), g.Rule("EXPR")),
		g.Seq(g.Rule("TERM"), g.TokValue("op", "+"), g.Rule("EXPR")),
		g.Seq(g.Rule("TERM"), g.TokValue("op", "-"), g.Rule("EXPR")),
		g.Rule("TERM"),
	), choice(op("assign", 1, 3), op("add", 1, 3), op("sub", 1, 3), lambda.Default{}))

	e.DefineRule("TERM", g.Or(
		g.Seq(g.Rule("FACTOR"), g.TokValue("op", "*"), g.Rule("TERM")),
		g.Seq(g.Rule("FACTOR"), g.TokValue("op", "/"), g.Rule("TERM")),
		g.Rule("FACTOR"),
	), choice(op("mul", 1, 3), op("div", 1, 3), lambda.Default{}))

	e.DefineRule("FACTOR", g.Or(
		g.Seq(g.TokValue("op", "("), g.Rule("EXPR"), g.TokValue("op", ")")),
		g.Seq(g.TokValue("op", "-"), g.Rule("FACTOR")),
		g.Rule("NUM"),
		g.Rule("VAR"),
	), choice(lambda.Descend{Index: 2}, op("neg", 2), lambda.Default{}, lambda.Default{}))

	e.DefineRule("NUM", g.Or(g.Tok("float"), g.Tok("int")),
		choice(lambda.Literal{Kind: value.WideFloat}, lambda.Literal{Kind: value.NarrowInt}))

	e.DefineRule("VAR", g.Tok("ident"), lambda.NoArgOp{Name: "var"})
	e.DefineRule("IDENT", g.Tok("ident"), lambda.Literal{Kind: value.Text})

	eval.Arithmetic(e.Registry())
	Identifiers(e)

	return e.Validate()
}

// Identifiers registers "assign", which stores child 3 under the text of
// child 1, and "var", which reads the identifier named by the node text. Both
// use the engine store.
func Identifiers(e *snapgram.Engine) {
	e.DefineOperation("assign", assign(e.Store()))
	e.DefineOperation("var", lookup(e.Store()))
}

// New creates an engine running calc.
func New(opts ...snapgram.Option) (*snapgram.Engine, error) {
	e := snapgram.NewEngine(opts...)
	if err := Define(e); err != nil {
		return nil, err
	}

	return e, nil
}

// assign stores the value of the right side under the identifier on the left
// side and yields no value.
func assign(s store.Store) eval.Operation {
	return func(f *eval.Frame) eval.Result {
		name, rhs, ok := f.Args().Two()
		if !ok {
			return eval.Errorf("assign needs two arguments, got %d", f.Args().Len())
		}

		if rhs.IsError() {
			return rhs
		}

		ident, ok := name.Value()
		if !ok || ident.Kind() != value.Text {
			return eval.Errorf("cannot assign to %s", f.Node().Children[0])
		}

		v, ok := rhs.Value()
		if !ok {
			return eval.Errorf("cannot assign %s to %s", rhs, ident)
		}

		if err := s.Set(f.Context(), ident.String(), v); err != nil {
			return eval.Error(err.Error())
		}

		return eval.NoValue()
	}
}

// lookup reads the identifier named by the node text.
func lookup(s store.Store) eval.Operation {
	return func(f *eval.Frame) eval.Result {
		name := f.Node().Text()

		v, err := s.Get(f.Context(), name)
		if errors.Is(err, store.ErrNotFound) {
			return eval.Errorf("undefined identifier %s", name)
		}

		if err != nil {
			return eval.Error(err.Error())
		}

		return eval.Value(v)
	}
}
