package tokenizer

import (
	"errors"
	"fmt"
	"regexp"
)

// Sentinel errors
var (
	ErrPattern             = errors.New("cannot build token definition")
	ErrUnexpectedCharacter = errors.New("unexpected character")
	ErrAdvanceMismatch     = errors.New("advance does not match the remaining input")
	ErrEmptyCursorStack    = errors.New("cursor stack is empty")
)

// Token is a piece of matched input.
type Token struct {
	// Type is the name of the TokenDef that matched.
	Type string
	// Value is the matched text.
	Value string
	// Position spans Value only.
	Position Pointer
	// Consumed is the skipped prefix followed by Value; a cursor is advanced by it.
	Consumed string
}

// String renders the token as "type:value".
func (t Token) String() string {
	return t.Type + ":" + t.Value
}

// TokenDef is a named regular expression anchored at the start of the input.
type TokenDef struct {
	Type    string
	Pattern string
	regex   *regexp.Regexp
}

// NewTokenDef compiles pattern as `\A(?:pattern)`.
func NewTokenDef(tokenType, pattern string) (TokenDef, error) {
	regex, err := compileAnchored(pattern)
	if err != nil {
		return TokenDef{}, fmt.Errorf("%w: type %q: %w", ErrPattern, tokenType, err)
	}

	return TokenDef{Type: tokenType, Pattern: pattern, regex: regex}, nil
}

// MustTokenDef is like NewTokenDef but panics on an invalid pattern.
func MustTokenDef(tokenType, pattern string) TokenDef {
	def, err := NewTokenDef(tokenType, pattern)
	if err != nil {
		panic(err)
	}

	return def
}

// find returns the non-empty prefix of s matched by the definition.
func (d TokenDef) find(s string) (string, bool) {
	if d.regex == nil {
		return "", false
	}

	loc := d.regex.FindStringIndex(s)
	if loc == nil || loc[1] == 0 {
		return "", false
	}

	return s[:loc[1]], true
}

func compileAnchored(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`\A(?:` + pattern + `)`)
}
