package grammar

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/shibukawa/snapgram/lambda"
	"github.com/shibukawa/snapgram/tokenizer"
	"github.com/shibukawa/snapgram/value"
)

func newLexer(t *testing.T, defs ...string) *tokenizer.Lexer {
	t.Helper()

	l := tokenizer.NewLexer()
	for i := 0; i < len(defs); i += 2 {
		assert.NoError(t, l.Define(defs[i], defs[i+1]))
	}

	return l
}

func TestParseChoiceSequentially(t *testing.T) {
	g := New(newLexer(t, "tok:a", "[a-c]+", "tok:b", "[d-f]+", "tok:c", "[g-i]+"))
	g.Define("EXPR", Or(Tok("tok:a"), Tok("tok:b"), Tok("tok:c")), nil)

	c := tokenizer.NewCursor("abcdefghi")

	var actual []string
	for range 3 {
		node, err := g.ParseOne(c)
		assert.NoError(t, err)

		actual = append(actual, node.String())
	}

	assert.Equal(t, []string{"tok:a:abc", "tok:b:def", "tok:c:ghi"}, actual)
	assert.True(t, c.EOF())
}

func TestParseRightNested(t *testing.T) {
	g := New(newLexer(t, "num", "[0-9]+", "op", `\+|\(|\)`))
	g.Define("EXPR", Or(Seq(Rule("NUM"), TokValue("op", "+"), Rule("EXPR")), Rule("NUM")), nil)
	g.Define("NUM", Tok("num"), nil)

	node, err := g.ParseOne(tokenizer.NewCursor("1+2+3"))
	assert.NoError(t, err)
	assert.Equal(t, "( num:1 op:+ ( num:2 op:+ num:3 ) )", node.String())
	assert.Equal(t, "EXPR", node.Rule)
	assert.Equal(t, 0, node.Alternative)

	last, ok := node.Child(3)
	assert.True(t, ok)
	third, ok := last.Child(3)
	assert.True(t, ok)
	assert.Equal(t, 1, third.Alternative)
}

func TestParseRecursion(t *testing.T) {
	g := New(newLexer(t, "tok", "[a-z]+", "op", `\(|\)`))
	g.Define("EXPR", Or(Seq(TokValue("op", "("), Rule("EXPR"), TokValue("op", ")")), Rule("TOK")), nil)
	g.Define("TOK", Tok("tok"), nil)

	node, err := g.ParseOne(tokenizer.NewCursor("((token))"))
	assert.NoError(t, err)
	assert.Equal(t, "( op:( ( op:( tok:token op:) ) op:) )", node.String())
}

func TestParseRefToToken(t *testing.T) {
	g := New(newLexer(t, "tok", "[a-z]+"))
	g.Define("EXPR", Rule("NUM"), nil)
	g.Define("NUM", Tok("tok"), nil)

	node, err := g.ParseOne(tokenizer.NewCursor("token"))
	assert.NoError(t, err)
	assert.True(t, node.IsLeaf())

	expected := tokenizer.Token{
		Type:     "tok",
		Value:    "token",
		Consumed: "token",
		Position: tokenizer.Pointer{StartOffset: 0, EndOffset: 5, EndColumn: 5},
	}
	if diff := cmp.Diff(expected, *node.Token); diff != "" {
		t.Errorf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestFailedParseRestoresCursor(t *testing.T) {
	l := newLexer(t, "word", "[a-z]+", "num", "[0-9]+")
	assert.NoError(t, l.Skip(`\s+`))

	g := New(l)
	g.Define("EXPR", Or(
		Seq(Tok("word"), Tok("word"), Tok("word")),
		Seq(Tok("word"), Rule("INNER")),
	), nil)
	g.Define("INNER", Or(Seq(Tok("num"), Tok("num")), Seq(Tok("word"), Tok("word"))), nil)

	c := tokenizer.NewCursor("first\nsecond third 42")
	assert.NoError(t, c.Advance("first"))
	c.Commit()

	before := c.Pointer()

	_, err := g.ParseOne(c)
	assert.IsError(t, err, ErrNoMatch)
	assert.Equal(t, before, c.Pointer())
	assert.Equal(t, 0, c.Depth())
}

func TestFirstAlternativeWins(t *testing.T) {
	l := newLexer(t, "word", "[a-z]+")
	assert.NoError(t, l.Skip(`\s+`))

	g := New(l)
	g.Define("EXPR", Or(Tok("word"), Seq(Tok("word"), Tok("word"))), nil)

	c := tokenizer.NewCursor("a b")
	node, err := g.ParseOne(c)
	assert.NoError(t, err)
	assert.Equal(t, "word:a", node.String())
	assert.Equal(t, 0, node.Alternative)
	assert.Equal(t, " b", c.Remaining())
}

func TestSequenceAllOrNothing(t *testing.T) {
	l := newLexer(t, "word", "[a-z]+", "num", "[0-9]+")
	assert.NoError(t, l.Skip(`\s+`))

	g := New(l)
	g.Define("EXPR", Or(Seq(Tok("word"), Tok("word"), Tok("word")), Seq(Tok("word"), Tok("word"))), nil)

	c := tokenizer.NewCursor("a b 1")
	node, err := g.ParseOne(c)
	assert.NoError(t, err)
	assert.Equal(t, "( word:a word:b )", node.String())
	assert.Equal(t, 1, node.Alternative)
	assert.Equal(t, " 1", c.Remaining())
}

func TestInstructionPairing(t *testing.T) {
	g := New(newLexer(t, "num", "[0-9]+", "op", `[-+]`))
	g.Define("EXPR", Or(
		Seq(Tok("num"), TokValue("op", "+"), Rule("EXPR")),
		Seq(TokValue("op", "-"), Rule("EXPR")),
		Tok("num"),
	), lambda.Choice{Alternatives: []lambda.Instruction{
		lambda.Op{Name: "add", Args: []int{1, 3}},
		lambda.Op{Name: "neg", Args: []int{2}},
		lambda.Default{},
	}})

	node, err := g.ParseOne(tokenizer.NewCursor("-1+2"))
	assert.NoError(t, err)
	assert.Equal(t, lambda.Instruction(lambda.Op{Name: "neg", Args: []int{2}}), node.Lambda)

	inner, _ := node.Child(2)
	assert.Equal(t, lambda.Instruction(lambda.Op{Name: "add", Args: []int{1, 3}}), inner.Lambda)

	last, _ := inner.Child(3)
	assert.Equal(t, lambda.Instruction(lambda.Default{}), last.Lambda)
	assert.Equal(t, 2, last.Alternative)
}

func TestRefKeepsRuleInstruction(t *testing.T) {
	g := New(newLexer(t, "num", "[0-9]+", "op", `[+]`))
	g.Define("EXPR", Or(Seq(TokValue("op", "+"), Rule("NUM")), Rule("NUM")), lambda.Choice{Alternatives: []lambda.Instruction{
		lambda.Descend{Index: 2},
		lambda.NoArgOp{Name: "outer"},
	}})
	g.Define("NUM", Tok("num"), lambda.Literal{Kind: value.NarrowInt})

	node, err := g.ParseOne(tokenizer.NewCursor("+1"))
	assert.NoError(t, err)
	assert.Equal(t, lambda.Instruction(lambda.Descend{Index: 2}), node.Lambda)

	num, _ := node.Child(2)
	assert.Equal(t, lambda.Instruction(lambda.Literal{Kind: value.NarrowInt}), num.Lambda)
	assert.Equal(t, "NUM", num.Rule)

	node, err = g.ParseOne(tokenizer.NewCursor("7"))
	assert.NoError(t, err)
	assert.Equal(t, lambda.Instruction(lambda.Literal{Kind: value.NarrowInt}), node.Lambda)
	assert.Equal(t, 1, node.Alternative)
}

func TestRefDropsSharedChoiceInstruction(t *testing.T) {
	g := New(newLexer(t, "num", "[0-9]+"))
	g.Define("EXPR", Or(Rule("NUM")), lambda.NoArgOp{Name: "outer"})
	g.Define("NUM", Tok("num"), lambda.Literal{Kind: value.NarrowInt})

	node, err := g.ParseOne(tokenizer.NewCursor("7"))
	assert.NoError(t, err)
	assert.Equal(t, lambda.Instruction(lambda.Literal{Kind: value.NarrowInt}), node.Lambda)
	assert.IsError(t, g.Validate(), ErrIgnoredInstruction)
}

func TestInstructionMismatch(t *testing.T) {
	g := New(newLexer(t, "num", "[0-9]+"))
	g.Define("EXPR", Or(Seq(Tok("num"), Tok("num")), Tok("num")), lambda.Choice{Alternatives: []lambda.Instruction{lambda.Default{}}})

	c := tokenizer.NewCursor("1")
	_, err := g.ParseOne(c)
	assert.IsError(t, err, ErrInstructionMismatch)
	assert.Equal(t, 0, c.Pointer().EndOffset)
}

func TestUndefinedRuleFailsFast(t *testing.T) {
	g := New(newLexer(t, "num", "[0-9]+"))
	g.Define("EXPR", Or(Rule("TREM"), Tok("num")), nil)
	g.Define("TERM", Tok("num"), nil)

	_, err := g.ParseOne(tokenizer.NewCursor("1"))
	assert.IsError(t, err, ErrUndefinedRule)
	assert.Contains(t, err.Error(), "TREM")
	assert.Contains(t, err.Error(), "did you mean TERM?")
}

func TestNoStartRule(t *testing.T) {
	g := New(newLexer(t, "num", "[0-9]+"))
	g.Define("NUM", Tok("num"), nil)

	_, err := g.ParseOne(tokenizer.NewCursor("1"))
	assert.IsError(t, err, ErrNoStartRule)

	node, err := g.Parse(tokenizer.NewCursor("1"), "NUM")
	assert.NoError(t, err)
	assert.Equal(t, "num:1", node.String())

	_, err = g.Parse(tokenizer.NewCursor("1"), "MISSING")
	assert.IsError(t, err, ErrUndefinedRule)
}

func TestRecursionLimit(t *testing.T) {
	g := New(newLexer(t, "num", "[0-9]+"))
	g.MaxDepth = 50
	g.Define("EXPR", Or(Rule("LOOP"), Tok("num")), nil)
	g.Define("LOOP", Rule("EXPR"), nil)

	c := tokenizer.NewCursor("1")
	_, err := g.ParseOne(c)
	assert.IsError(t, err, ErrRecursionLimit)
	assert.Equal(t, 0, c.Depth())
	assert.Equal(t, 0, c.Pointer().EndOffset)
}

func TestFoldedMatch(t *testing.T) {
	g := New(newLexer(t, "kw", "[A-Za-z]+"))
	g.Define("EXPR", TokFold("kw", "select"), nil)

	node, err := g.ParseOne(tokenizer.NewCursor("SeLeCt"))
	assert.NoError(t, err)
	assert.Equal(t, "kw:SeLeCt", node.String())

	g.Define("EXPR", TokValue("kw", "select"), nil)
	_, err = g.ParseOne(tokenizer.NewCursor("SELECT"))
	assert.IsError(t, err, ErrNoMatch)
}

func TestExpressionString(t *testing.T) {
	expr := Or(Seq(Rule("TERM"), TokValue("op", "+"), Rule("EXPR")), Seq(TokFold("kw", "not"), Or(Rule("A"), Rule("B"))), Tok("num"))
	assert.Equal(t, `TERM <op "+"> EXPR | <kw "not" i> (A | B) | <num>`, expr.String())
}

func TestTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	g := New(newLexer(t, "num", "[0-9]+", "op", `\+`))
	g.Logger = logger
	g.Define("EXPR", Or(Seq(Tok("num"), Tok("op"), Rule("EXPR")), Tok("num")), nil)

	_, err := g.ParseOne(tokenizer.NewCursor("1"))
	assert.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.Contains(out, "enter rule"))
	assert.True(t, strings.Contains(out, "alternative failed"))
	assert.True(t, strings.Contains(out, "select alternative"))
}

func TestRulesKeepDefinitionOrder(t *testing.T) {
	g := New(newLexer(t, "num", "[0-9]+"))
	g.Define("EXPR", Tok("num"), nil)
	g.Define("NUM", Tok("num"), nil)
	g.Define("EXPR", Rule("NUM"), nil)

	rules := g.Rules()
	assert.Equal(t, 2, len(rules))
	assert.Equal(t, "EXPR", rules[0].Name)
	assert.Equal(t, "NUM", rules[0].Expr.String())
}
