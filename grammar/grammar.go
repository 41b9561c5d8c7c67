// Package grammar implements a backtracking grammar engine over ordered choice,
// sequences, rule references and token matches.
package grammar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shibukawa/snapgram/ast"
	"github.com/shibukawa/snapgram/lambda"
	"github.com/shibukawa/snapgram/tokenizer"
)

// Sentinel errors
var (
	ErrNoMatch             = errors.New("no match")
	ErrUndefinedRule       = errors.New("undefined rule")
	ErrUndefinedToken      = errors.New("undefined token type")
	ErrNoStartRule         = errors.New("you need to define an expression for " + StartRule)
	ErrLeftRecursion       = errors.New("left recursion")
	ErrRecursionLimit      = errors.New("rule recursion limit exceeded")
	ErrInstructionMismatch = errors.New("instruction does not fit expression")
	ErrIgnoredInstruction  = errors.New("instruction has no effect on a rule reference")
)

// StartRule is the rule ParseOne starts from.
const StartRule = "EXPR"

// DefaultMaxDepth bounds nested rule references during a parse.
const DefaultMaxDepth = 1000

// RuleDef is a named expression with its default instruction.
type RuleDef struct {
	Name   string
	Expr   Expression
	Lambda lambda.Instruction
}

// Grammar is a rule table over a lexer. It is populated before parsing and
// only read while parsing, so one Grammar can serve several cursors.
type Grammar struct {
	// MaxDepth overrides DefaultMaxDepth when positive.
	MaxDepth int
	// Logger receives debug traces of the backtracking. Nil disables tracing.
	Logger *slog.Logger

	lexer *tokenizer.Lexer
	rules map[string]RuleDef
	order []string
}

// New creates an empty grammar reading tokens with lexer.
func New(lexer *tokenizer.Lexer) *Grammar {
	return &Grammar{
		lexer: lexer,
		rules: make(map[string]RuleDef),
	}
}

// Lexer returns the token matcher used by the grammar.
func (g *Grammar) Lexer() *tokenizer.Lexer {
	return g.lexer
}

// Define adds or replaces a rule. A nil instruction is Default.
func (g *Grammar) Define(name string, expr Expression, in lambda.Instruction) {
	if in == nil {
		in = lambda.Default{}
	}

	if _, ok := g.rules[name]; !ok {
		g.order = append(g.order, name)
	}

	g.rules[name] = RuleDef{Name: name, Expr: expr, Lambda: in}
}

// Rule returns the rule registered as name.
func (g *Grammar) Rule(name string) (RuleDef, bool) {
	rule, ok := g.rules[name]
	return rule, ok
}

// Rules returns all rules in definition order.
func (g *Grammar) Rules() []RuleDef {
	rules := make([]RuleDef, len(g.order))
	for i, name := range g.order {
		rules[i] = g.rules[name]
	}

	return rules
}

// ParseOne reads one EXPR at the cursor. On success the consumed text is
// committed; on failure the cursor is left exactly where it was.
func (g *Grammar) ParseOne(c *tokenizer.Cursor) (*ast.Node, error) {
	return g.Parse(c, StartRule)
}

// Parse reads one start rule at the cursor, as ParseOne does for EXPR.
func (g *Grammar) Parse(c *tokenizer.Cursor, start string) (*ast.Node, error) {
	if _, ok := g.rules[start]; !ok {
		if start == StartRule {
			return nil, ErrNoStartRule
		}

		return nil, fmt.Errorf("%w: %s", ErrUndefinedRule, start)
	}

	p := &parser{grammar: g, cursor: c}

	c.Push()

	node, err := (&Ref{Name: start}).parse(p, lambda.Default{})
	if err != nil {
		if popErr := c.Pop(); popErr != nil {
			return nil, errors.Join(err, popErr)
		}

		return nil, err
	}

	if err := c.Pull(); err != nil {
		return nil, err
	}

	c.Commit()
	p.trace("parsed", slog.String("rule", start), slog.Int("offset", c.Pointer().EndOffset))

	return node, nil
}

func (g *Grammar) maxDepth() int {
	if g.MaxDepth > 0 {
		return g.MaxDepth
	}

	return DefaultMaxDepth
}

// parser is the state of one parse.
type parser struct {
	grammar *Grammar
	cursor  *tokenizer.Cursor
	depth   int
}

func (p *parser) trace(msg string, attrs ...slog.Attr) {
	logger := p.grammar.Logger
	if logger == nil || !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}
