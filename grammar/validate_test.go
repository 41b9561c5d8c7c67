package grammar

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/snapgram/lambda"
)

func TestValidateOK(t *testing.T) {
	g := New(newLexer(t, "num", "[0-9]+", "op", `[-+()]`))
	g.Define("EXPR", Or(Seq(Rule("TERM"), TokValue("op", "+"), Rule("EXPR")), Rule("TERM")), lambda.Choice{Alternatives: []lambda.Instruction{
		lambda.Op{Name: "add", Args: []int{1, 3}},
		lambda.Default{},
	}})
	g.Define("TERM", Or(Seq(TokValue("op", "("), Rule("EXPR"), TokValue("op", ")")), Tok("num")), nil)

	assert.NoError(t, g.Validate())
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(g *Grammar)
		expected error
		contains string
	}{
		{
			name:     "missing start rule",
			setup:    func(g *Grammar) { g.Define("NUM", Tok("num"), nil) },
			expected: ErrNoStartRule,
		},
		{
			name:     "undefined rule",
			setup:    func(g *Grammar) { g.Define("EXPR", Seq(Tok("num"), Rule("NUMM")), nil) },
			expected: ErrUndefinedRule,
			contains: "NUMM referenced from EXPR",
		},
		{
			name:     "undefined token",
			setup:    func(g *Grammar) { g.Define("EXPR", Tok("nun"), nil) },
			expected: ErrUndefinedToken,
			contains: "did you mean num?",
		},
		{
			name: "direct left recursion",
			setup: func(g *Grammar) {
				g.Define("EXPR", Or(Seq(Rule("EXPR"), TokValue("op", "+"), Tok("num")), Tok("num")), nil)
			},
			expected: ErrLeftRecursion,
			contains: "EXPR -> EXPR",
		},
		{
			name: "indirect left recursion",
			setup: func(g *Grammar) {
				g.Define("EXPR", Or(Seq(Rule("TERM"), TokValue("op", "+")), Tok("num")), nil)
				g.Define("TERM", Seq(Rule("EXPR"), Tok("num")), nil)
			},
			expected: ErrLeftRecursion,
			contains: "EXPR -> TERM -> EXPR",
		},
		{
			name: "left recursion through an empty sequence",
			setup: func(g *Grammar) {
				g.Define("EXPR", Seq(Rule("EMPTY"), Rule("EXPR"), Tok("num")), nil)
				g.Define("EMPTY", Seq(), nil)
			},
			expected: ErrLeftRecursion,
		},
		{
			name: "choice instruction on sequence",
			setup: func(g *Grammar) {
				g.Define("EXPR", Seq(Tok("num"), Tok("num")), lambda.Choice{Alternatives: []lambda.Instruction{lambda.Default{}}})
			},
			expected: ErrInstructionMismatch,
		},
		{
			name: "instruction count",
			setup: func(g *Grammar) {
				g.Define("EXPR", Or(Tok("num"), Tok("op")), lambda.Choice{Alternatives: []lambda.Instruction{lambda.Default{}}})
			},
			expected: ErrInstructionMismatch,
			contains: "2 alternatives and 1 instructions",
		},
		{
			name: "instruction on a rule reference alternative",
			setup: func(g *Grammar) {
				g.Define("EXPR", Or(Seq(Tok("num"), TokValue("op", "+"), Rule("NUM")), Rule("NUM")), lambda.Choice{Alternatives: []lambda.Instruction{
					lambda.Descend{Index: 3},
					lambda.NoArgOp{Name: "outer"},
				}})
				g.Define("NUM", Tok("num"), lambda.Literal{})
			},
			expected: ErrIgnoredInstruction,
			contains: "rule EXPR pairs outer() with NUM",
		},
		{
			name: "instruction on a bare rule reference",
			setup: func(g *Grammar) {
				g.Define("EXPR", Rule("NUM"), lambda.Op{Name: "neg", Args: []int{1}})
				g.Define("NUM", Tok("num"), nil)
			},
			expected: ErrIgnoredInstruction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(newLexer(t, "num", "[0-9]+", "op", `[-+]`))
			tt.setup(g)

			err := g.Validate()
			assert.IsError(t, err, tt.expected)

			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	g := New(newLexer(t, "num", "[0-9]+"))
	g.Define("NUM", Seq(Rule("MISSING"), Tok("unknown")), nil)

	err := g.Validate()
	assert.IsError(t, err, ErrNoStartRule)
	assert.IsError(t, err, ErrUndefinedRule)
	assert.IsError(t, err, ErrUndefinedToken)
}
