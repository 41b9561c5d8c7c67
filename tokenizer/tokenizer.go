package tokenizer

import (
	"fmt"
	"iter"
	"regexp"
)

// TokenIterator uses Go 1.24 iterator pattern
type TokenIterator iter.Seq2[Token, error]

// Lexer is an ordered set of token definitions. Registration order is the
// tie-break when several definitions match at the same position: the first
// one wins, not the longest.
type Lexer struct {
	defs  []TokenDef
	index map[string]int
	skip  *regexp.Regexp
}

// NewLexer creates an empty lexer.
func NewLexer() *Lexer {
	return &Lexer{index: make(map[string]int)}
}

// Define adds or replaces a token definition. A replaced definition keeps its
// original position in the match order.
func (l *Lexer) Define(tokenType, pattern string) error {
	def, err := NewTokenDef(tokenType, pattern)
	if err != nil {
		return err
	}

	l.DefineToken(def)

	return nil
}

// DefineToken takes a compiled definition.
func (l *Lexer) DefineToken(def TokenDef) {
	if i, ok := l.index[def.Type]; ok {
		l.defs[i] = def
		return
	}

	l.index[def.Type] = len(l.defs)
	l.defs = append(l.defs, def)
}

// Skip sets a pattern for text that is ignored before every token (usually
// whitespace). An empty pattern disables skipping.
func (l *Lexer) Skip(pattern string) error {
	if pattern == "" {
		l.skip = nil
		return nil
	}

	regex, err := compileAnchored(pattern)
	if err != nil {
		return fmt.Errorf("%w: skip pattern: %w", ErrPattern, err)
	}

	l.skip = regex

	return nil
}

// Has reports whether tokenType is defined.
func (l *Lexer) Has(tokenType string) bool {
	_, ok := l.index[tokenType]
	return ok
}

// Types returns the defined token types in registration order.
func (l *Lexer) Types() []string {
	types := make([]string, len(l.defs))
	for i, def := range l.defs {
		types[i] = def.Type
	}

	return types
}

// Definition returns the definition registered for tokenType.
func (l *Lexer) Definition(tokenType string) (TokenDef, bool) {
	i, ok := l.index[tokenType]
	if !ok {
		return TokenDef{}, false
	}

	return l.defs[i], true
}

// Match reads a token of tokenType at the pending end of the cursor. The
// cursor is not moved.
func (l *Lexer) Match(tokenType string, c *Cursor) (Token, bool) {
	i, ok := l.index[tokenType]
	if !ok {
		return Token{}, false
	}

	return l.match(l.defs[i], c)
}

// MatchAny reads the first token, in registration order, that matches at the
// pending end of the cursor. The cursor is not moved.
func (l *Lexer) MatchAny(c *Cursor) (Token, bool) {
	for _, def := range l.defs {
		if tok, ok := l.match(def, c); ok {
			return tok, true
		}
	}

	return Token{}, false
}

// AtEnd reports whether only skippable text remains after the cursor.
func (l *Lexer) AtEnd(c *Cursor) bool {
	rest := c.Remaining()
	return len(rest) == l.skipped(rest)
}

// Tokens returns an iterator of tokens. Every yielded token is consumed and
// committed on the cursor. Iteration stops at the end of the input or after the
// first position no definition matches.
func (l *Lexer) Tokens(c *Cursor) TokenIterator {
	return func(yield func(Token, error) bool) {
		for !l.AtEnd(c) {
			tok, ok := l.MatchAny(c)
			if !ok {
				rest := c.Remaining()[l.skipped(c.Remaining()):]
				yield(Token{}, fmt.Errorf("%w %q at %s", ErrUnexpectedCharacter, firstRune(rest), c.Position()))

				return
			}

			if err := c.Advance(tok.Consumed); err != nil {
				yield(Token{}, err)
				return
			}

			c.Commit()

			if !yield(tok, nil) {
				return
			}
		}
	}
}

// AllTokens gets all tokens as a slice (for debugging)
func (l *Lexer) AllTokens(c *Cursor) ([]Token, error) {
	tokens := make([]Token, 0, 16)

	for tok, err := range l.Tokens(c) {
		if err != nil {
			return tokens, err
		}

		tokens = append(tokens, tok)
	}

	return tokens, nil
}

func (l *Lexer) match(def TokenDef, c *Cursor) (Token, bool) {
	rest := c.Remaining()
	n := l.skipped(rest)

	value, ok := def.find(rest[n:])
	if !ok {
		return Token{}, false
	}

	pos := c.Position()
	pos.advance(rest[:n], rest[n:])
	pos.commit()
	pos.advance(value, rest[n+len(value):])

	return Token{
		Type:     def.Type,
		Value:    value,
		Position: pos,
		Consumed: rest[:n+len(value)],
	}, true
}

func (l *Lexer) skipped(s string) int {
	if l.skip == nil {
		return 0
	}

	loc := l.skip.FindStringIndex(s)
	if loc == nil {
		return 0
	}

	return loc[1]
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}

	return ""
}
