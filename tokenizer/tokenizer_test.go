package tokenizer

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func newCalcLexer(t *testing.T) *Lexer {
	t.Helper()

	l := NewLexer()
	assert.NoError(t, l.Define("float", `[0-9]+\.[0-9]+`))
	assert.NoError(t, l.Define("int", `[0-9]+`))
	assert.NoError(t, l.Define("ident", `[A-Za-z_][A-Za-z0-9_]*`))
	assert.NoError(t, l.Define("op", `[-+*/=()]`))
	assert.NoError(t, l.Skip(`\s+`))

	return l
}

func TestNewTokenDefAnchored(t *testing.T) {
	def, err := NewTokenDef("num", `[0-9]+`)
	assert.NoError(t, err)

	value, ok := def.find("12ab")
	assert.True(t, ok)
	assert.Equal(t, "12", value)

	_, ok = def.find("ab12")
	assert.False(t, ok)
}

func TestNewTokenDefInvalid(t *testing.T) {
	_, err := NewTokenDef("broken", `[0-9`)
	assert.IsError(t, err, ErrPattern)
	assert.Contains(t, err.Error(), "broken")
}

func TestTokenDefRejectsEmptyMatch(t *testing.T) {
	def := MustTokenDef("maybe", `a*`)

	_, ok := def.find("bbb")
	assert.False(t, ok)
}

func TestLexerTokens(t *testing.T) {
	l := newCalcLexer(t)
	c := NewCursor("x = 1.5 * (y + 42)")

	var actual []string
	for tok, err := range l.Tokens(c) {
		assert.NoError(t, err)

		actual = append(actual, tok.String())
	}

	assert.Equal(t, []string{
		"ident:x", "op:=", "float:1.5", "op:*", "op:(", "ident:y", "op:+", "int:42", "op:)",
	}, actual)
	assert.True(t, c.EOF())
}

func TestLexerFirstMatchWins(t *testing.T) {
	l := NewLexer()
	assert.NoError(t, l.Define("int", `[0-9]+`))
	assert.NoError(t, l.Define("float", `[0-9]+\.[0-9]+`))

	tok, ok := l.MatchAny(NewCursor("1.5"))
	assert.True(t, ok)
	assert.Equal(t, "int", tok.Type)
	assert.Equal(t, "1", tok.Value)
}

func TestLexerRedefineKeepsOrder(t *testing.T) {
	l := NewLexer()
	assert.NoError(t, l.Define("a", `a`))
	assert.NoError(t, l.Define("b", `b`))
	assert.NoError(t, l.Define("a", `aa`))

	assert.Equal(t, []string{"a", "b"}, l.Types())

	def, ok := l.Definition("a")
	assert.True(t, ok)
	assert.Equal(t, "aa", def.Pattern)
}

func TestLexerMatchPosition(t *testing.T) {
	l := newCalcLexer(t)
	c := NewCursor("1 +\n  foo")

	assert.NoError(t, c.Advance("1 +"))
	c.Commit()

	tok, ok := l.Match("ident", c)
	assert.True(t, ok)
	assert.Equal(t, "foo", tok.Value)
	assert.Equal(t, "\n  foo", tok.Consumed)
	assert.Equal(t, Pointer{StartOffset: 6, EndOffset: 9, StartLine: 1, StartColumn: 2, EndLine: 1, EndColumn: 5}, tok.Position)

	// matching does not move the cursor
	assert.Equal(t, 3, c.Pointer().EndOffset)

	_, ok = l.Match("int", c)
	assert.False(t, ok)

	_, ok = l.Match("missing", c)
	assert.False(t, ok)
}

func TestLexerUnexpectedCharacter(t *testing.T) {
	l := newCalcLexer(t)
	c := NewCursor("1 + $")

	tokens, err := l.AllTokens(c)
	assert.IsError(t, err, ErrUnexpectedCharacter)
	assert.Contains(t, err.Error(), `"$"`)
	assert.Equal(t, 2, len(tokens))
}

func TestLexerEarlyTermination(t *testing.T) {
	l := newCalcLexer(t)
	c := NewCursor("1 2 3 4")

	count := 0
	for _, err := range l.Tokens(c) {
		assert.NoError(t, err)

		count++
		if count == 2 {
			break
		}
	}

	assert.Equal(t, 2, count)
	assert.Equal(t, " 3 4", c.Remaining())
}

func TestLexerAtEnd(t *testing.T) {
	l := newCalcLexer(t)

	assert.True(t, l.AtEnd(NewCursor("   \n")))
	assert.False(t, l.AtEnd(NewCursor("  x")))

	assert.NoError(t, l.Skip(""))
	assert.False(t, l.AtEnd(NewCursor(" ")))
}
