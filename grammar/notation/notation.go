// Package notation reads rule bodies and reduction instructions written as
// text, the same notation their String methods produce.
//
//	expression:  TERM <op "+"> EXPR | (<kw "not" i> | <bang>) FACTOR | NUM
//	instruction: [add(1,3) | neg(2) | #1 -> as double | var() | default]
package notation

import (
	"errors"
	"fmt"
	"strconv"

	pc "github.com/shibukawa/parsercombinator"

	"github.com/shibukawa/snapgram/grammar"
	"github.com/shibukawa/snapgram/lambda"
	"github.com/shibukawa/snapgram/tokenizer"
	"github.com/shibukawa/snapgram/value"
)

// ErrSyntax is returned for text that is not valid notation.
var ErrSyntax = errors.New("notation syntax error")

// Entity is either a lexed token or a value built from a run of tokens.
type Entity struct {
	Original    tokenizer.Token
	Expression  grammar.Expression
	Instruction lambda.Instruction
}

const (
	rawType         = "raw"
	expressionType  = "expression"
	instructionType = "instruction"
)

var lexer = newLexer()

func newLexer() *tokenizer.Lexer {
	l := tokenizer.NewLexer()
	l.DefineToken(tokenizer.MustTokenDef("ident", `[A-Za-z_][A-Za-z0-9_]*`))
	l.DefineToken(tokenizer.MustTokenDef("int", `[0-9]+`))
	l.DefineToken(tokenizer.MustTokenDef("string", `"(?:[^"\\]|\\.)*"`))
	l.DefineToken(tokenizer.MustTokenDef("arrow", `->`))
	l.DefineToken(tokenizer.MustTokenDef("punct", `[|()<>\[\],#]`))

	if err := l.Skip(`\s+`); err != nil {
		panic(err)
	}

	return l
}

// ParseExpression reads a rule body.
func ParseExpression(src string) (grammar.Expression, error) {
	match, err := run(expressionRoot, src)
	if err != nil {
		return nil, err
	}

	return match.Expression, nil
}

// MustParseExpression is like ParseExpression but panics on invalid text.
func MustParseExpression(src string) grammar.Expression {
	expr, err := ParseExpression(src)
	if err != nil {
		panic(err)
	}

	return expr
}

// ParseInstruction reads a reduction instruction.
func ParseInstruction(src string) (lambda.Instruction, error) {
	match, err := run(instructionRoot, src)
	if err != nil {
		return nil, err
	}

	return match.Instruction, nil
}

// MustParseInstruction is like ParseInstruction but panics on invalid text.
func MustParseInstruction(src string) lambda.Instruction {
	in, err := ParseInstruction(src)
	if err != nil {
		panic(err)
	}

	return in
}

func run(p pc.Parser[Entity], src string) (Entity, error) {
	raw, err := lexer.AllTokens(tokenizer.NewCursor(src))
	if err != nil {
		return Entity{}, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	if len(raw) == 0 {
		return Entity{}, fmt.Errorf("%w: empty text", ErrSyntax)
	}

	tokens := toParserTokens(raw)

	pctx := pc.NewParseContext[Entity]()
	pctx.OrMode = pc.OrModeTryFast

	consumed, match, err := p(pctx, tokens)
	if err != nil {
		if errors.Is(err, pc.ErrCritical) {
			return Entity{}, fmt.Errorf("%w: %w", ErrSyntax, err)
		}

		return Entity{}, fmt.Errorf("%w at %s: cannot read %q", ErrSyntax, raw[0].Position, src)
	}

	if consumed < len(tokens) {
		rest := tokens[consumed].Val.Original
		return Entity{}, fmt.Errorf("%w at %s: unexpected %q in %q", ErrSyntax, rest.Position, rest.Value, src)
	}

	if len(match) != 1 {
		return Entity{}, fmt.Errorf("%w: cannot read %q", ErrSyntax, src)
	}

	return match[0].Val, nil
}

func toParserTokens(tokens []tokenizer.Token) []pc.Token[Entity] {
	results := make([]pc.Token[Entity], len(tokens))

	for i, token := range tokens {
		results[i] = pc.Token[Entity]{
			Type: rawType,
			Pos: &pc.Pos{
				Line:  token.Position.StartLine + 1,
				Col:   token.Position.StartColumn + 1,
				Index: token.Position.StartOffset,
			},
			Val: Entity{Original: token},
			Raw: token.Value,
		}
	}

	return results
}

// primitive matches one lexed token of tokenType. A non-empty text also
// requires the token text to equal it.
func primitive(tokenType, text string) pc.Parser[Entity] {
	return func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) (int, []pc.Token[Entity], error) {
		if len(tokens) > 0 && tokens[0].Type == rawType {
			t := tokens[0].Val.Original
			if t.Type == tokenType && (text == "" || t.Value == text) {
				return 1, tokens[:1], nil
			}
		}

		return 0, nil, pc.ErrNotMatch
	}
}

func built(kind string, tokens []pc.Token[Entity], val Entity) []pc.Token[Entity] {
	return []pc.Token[Entity]{{Type: kind, Pos: tokens[0].Pos, Val: val, Raw: tokens[0].Raw}}
}

func collect(tokens []pc.Token[Entity], kind string) []Entity {
	var results []Entity

	for _, t := range tokens {
		if t.Type == kind {
			results = append(results, t.Val)
		}
	}

	return results
}

func rawOf(tokens []pc.Token[Entity], tokenType string) []tokenizer.Token {
	var results []tokenizer.Token

	for _, t := range tokens {
		if t.Type == rawType && t.Val.Original.Type == tokenType {
			results = append(results, t.Val.Original)
		}
	}

	return results
}

var (
	ident    = primitive("ident", "")
	integer  = primitive("int", "")
	str      = primitive("string", "")
	arrow    = primitive("arrow", "")
	bar      = primitive("punct", "|")
	open     = primitive("punct", "(")
	closing  = primitive("punct", ")")
	lt       = primitive("punct", "<")
	gt       = primitive("punct", ">")
	lbracket = primitive("punct", "[")
	rbracket = primitive("punct", "]")
	comma    = primitive("punct", ",")
	hash     = primitive("punct", "#")
	fold     = primitive("ident", "i")
	as       = primitive("ident", "as")
	deflt    = primitive("ident", "default")
)

var (
	alternatives pc.Parser[Entity]
	instruction  pc.Parser[Entity]

	expressionRoot  pc.Parser[Entity]
	instructionRoot pc.Parser[Entity]
)

func init() {
	ref := pc.Trans(ident, func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) ([]pc.Token[Entity], error) {
		return built(expressionType, tokens, Entity{Expression: grammar.Rule(tokens[0].Val.Original.Value)}), nil
	})

	match := pc.Trans(
		pc.Seq(lt, ident, pc.Optional(pc.Seq(str, pc.Optional(fold))), gt),
		func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) ([]pc.Token[Entity], error) {
			m := &grammar.Match{Type: tokens[1].Val.Original.Value}

			if quoted := rawOf(tokens, "string"); len(quoted) > 0 {
				text, err := strconv.Unquote(quoted[0].Value)
				if err != nil {
					return nil, fmt.Errorf("%w: bad string %s at %s: %w", pc.ErrCritical, quoted[0].Value, quoted[0].Position, err)
				}

				m.Value = text
				m.Fold = len(tokens) == 5
			}

			return built(expressionType, tokens, Entity{Expression: m}), nil
		},
	)

	group := pc.Trans(
		pc.Seq(open, pc.Lazy(func() pc.Parser[Entity] { return alternatives }), closing),
		func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) ([]pc.Token[Entity], error) {
			return built(expressionType, tokens, collect(tokens, expressionType)[0]), nil
		},
	)

	primary := pc.Or(ref, match, group)

	sequence := pc.Trans(
		pc.Seq(primary, pc.ZeroOrMore("sequence", primary)),
		func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) ([]pc.Token[Entity], error) {
			items := collect(tokens, expressionType)
			if len(items) == 1 {
				return built(expressionType, tokens, items[0]), nil
			}

			exprs := make([]grammar.Expression, len(items))
			for i, item := range items {
				exprs[i] = item.Expression
			}

			return built(expressionType, tokens, Entity{Expression: grammar.Seq(exprs...)}), nil
		},
	)

	alternatives = pc.Trans(
		pc.Seq(sequence, pc.ZeroOrMore("alternatives", pc.Seq(bar, sequence))),
		func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) ([]pc.Token[Entity], error) {
			items := collect(tokens, expressionType)
			if len(items) == 1 {
				return built(expressionType, tokens, items[0]), nil
			}

			exprs := make([]grammar.Expression, len(items))
			for i, item := range items {
				exprs[i] = item.Expression
			}

			return built(expressionType, tokens, Entity{Expression: grammar.Or(exprs...)}), nil
		},
	)

	operation := pc.Trans(
		pc.Seq(ident, open, pc.Optional(pc.Seq(integer, pc.ZeroOrMore("arguments", pc.Seq(comma, integer)))), closing),
		func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) ([]pc.Token[Entity], error) {
			name := tokens[0].Val.Original.Value

			indexes := rawOf(tokens, "int")
			if len(indexes) == 0 {
				return built(instructionType, tokens, Entity{Instruction: lambda.NoArgOp{Name: name}}), nil
			}

			args := make([]int, len(indexes))
			for i, index := range indexes {
				n, err := childIndex(index)
				if err != nil {
					return nil, err
				}

				args[i] = n
			}

			return built(instructionType, tokens, Entity{Instruction: lambda.Op{Name: name, Args: args}}), nil
		},
	)

	descend := pc.Trans(
		pc.Seq(hash, integer, pc.Optional(pc.Seq(arrow, pc.Lazy(func() pc.Parser[Entity] { return instruction })))),
		func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) ([]pc.Token[Entity], error) {
			n, err := childIndex(tokens[1].Val.Original)
			if err != nil {
				return nil, err
			}

			d := lambda.Descend{Index: n}
			if then := collect(tokens, instructionType); len(then) > 0 {
				d.Then = then[0].Instruction
			}

			return built(instructionType, tokens, Entity{Instruction: d}), nil
		},
	)

	literal := pc.Trans(
		pc.Seq(as, ident),
		func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) ([]pc.Token[Entity], error) {
			name := tokens[1].Val.Original

			kind, err := value.ParseKind(name.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: %w at %s", pc.ErrCritical, err, name.Position)
			}

			return built(instructionType, tokens, Entity{Instruction: lambda.Literal{Kind: kind}}), nil
		},
	)

	choice := pc.Trans(
		pc.Seq(
			lbracket,
			pc.Lazy(func() pc.Parser[Entity] { return instruction }),
			pc.ZeroOrMore("choices", pc.Seq(bar, pc.Lazy(func() pc.Parser[Entity] { return instruction }))),
			rbracket,
		),
		func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) ([]pc.Token[Entity], error) {
			items := collect(tokens, instructionType)

			alts := make([]lambda.Instruction, len(items))
			for i, item := range items {
				alts[i] = item.Instruction
			}

			return built(instructionType, tokens, Entity{Instruction: lambda.Choice{Alternatives: alts}}), nil
		},
	)

	defaultInstruction := pc.Trans(deflt, func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) ([]pc.Token[Entity], error) {
		return built(instructionType, tokens, Entity{Instruction: lambda.Default{}}), nil
	})

	// operation comes before the keywords so that "default(1)" is a call
	instruction = pc.Or(operation, literal, defaultInstruction, descend, choice)

	expressionRoot = alternatives
	instructionRoot = instruction
}

func childIndex(t tokenizer.Token) (int, error) {
	n, err := strconv.Atoi(t.Value)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: child index %s at %s must be 1 or more", pc.ErrCritical, t.Value, t.Position)
	}

	return n, nil
}
