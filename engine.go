// Package snapgram ties a token matcher, a grammar and an operation registry
// into an engine that parses and evaluates text.
package snapgram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/shibukawa/snapgram/ast"
	"github.com/shibukawa/snapgram/eval"
	"github.com/shibukawa/snapgram/grammar"
	"github.com/shibukawa/snapgram/lambda"
	"github.com/shibukawa/snapgram/store"
	"github.com/shibukawa/snapgram/tokenizer"
)

// DefaultPrompt is the prompt of interactive sessions.
const DefaultPrompt = "@> "

// Engine owns the registries of one language. It is set up before use and
// only read while parsing and evaluating.
type Engine struct {
	lexer     *tokenizer.Lexer
	grammar   *grammar.Grammar
	registry  *eval.Registry
	evaluator *eval.Evaluator
	store     store.Store
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostic logger. Nil discards logs.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxDepth bounds nested rule references while parsing.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		e.grammar.MaxDepth = depth
	}
}

// WithMaxEvalDepth bounds nested evaluation.
func WithMaxEvalDepth(depth int) Option {
	return func(e *Engine) {
		e.evaluator.MaxDepth = depth
	}
}

// WithStore sets the identifier store used by assignment-capable languages.
func WithStore(s store.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// NewEngine creates an engine without tokens, rules or operations.
func NewEngine(opts ...Option) *Engine {
	lexer := tokenizer.NewLexer()
	registry := eval.NewRegistry()

	e := &Engine{
		lexer:     lexer,
		grammar:   grammar.New(lexer),
		registry:  registry,
		evaluator: eval.New(registry),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	} else {
		e.grammar.Logger = e.logger.With(slog.String("component", "grammar"))
		e.evaluator.Logger = e.logger.With(slog.String("component", "eval"))
	}

	if e.store == nil {
		e.store = store.NewMemory()
	}

	return e
}

func (e *Engine) Lexer() *tokenizer.Lexer    { return e.lexer }
func (e *Engine) Grammar() *grammar.Grammar  { return e.grammar }
func (e *Engine) Registry() *eval.Registry   { return e.registry }
func (e *Engine) Evaluator() *eval.Evaluator { return e.evaluator }
func (e *Engine) Store() store.Store         { return e.store }
func (e *Engine) Logger() *slog.Logger       { return e.logger }

// DefineToken adds or replaces a token definition.
func (e *Engine) DefineToken(tokenType, pattern string) error {
	return e.lexer.Define(tokenType, pattern)
}

// SkipPattern sets the text ignored before every token.
func (e *Engine) SkipPattern(pattern string) error {
	return e.lexer.Skip(pattern)
}

// DefineRule adds or replaces a rule.
func (e *Engine) DefineRule(name string, expr grammar.Expression, in lambda.Instruction) {
	e.grammar.Define(name, expr, in)
}

// DefineOperation adds or replaces an operation.
func (e *Engine) DefineOperation(name string, op eval.Operation) {
	e.registry.Define(name, op)
}

// Validate checks rules, token types and operations referenced by rule
// instructions. All problems are joined.
func (e *Engine) Validate() error {
	errs := []error{e.grammar.Validate()}

	for _, rule := range e.grammar.Rules() {
		for _, err := range e.registry.Check(rule.Lambda) {
			errs = append(errs, fmt.Errorf("rule %s: %w", rule.Name, err))
		}
	}

	return errors.Join(errs...)
}

// ParseOne reads one EXPR at the cursor.
func (e *Engine) ParseOne(c *tokenizer.Cursor) (*ast.Node, error) {
	return e.grammar.ParseOne(c)
}

// Parse reads text as exactly one EXPR.
func (e *Engine) Parse(text string) (*ast.Node, error) {
	c := tokenizer.NewCursor(text)

	node, err := e.grammar.ParseOne(c)
	if err != nil {
		return nil, err
	}

	if !e.lexer.AtEnd(c) {
		return nil, fmt.Errorf("%w at %s: %q", ErrTrailingInput, c.Position(), c.Remaining())
	}

	return node, nil
}

// Evaluate reduces a tree.
func (e *Engine) Evaluate(node *ast.Node) eval.Result {
	return e.evaluator.Evaluate(node)
}

// EvaluateContext reduces a tree with a context for operations.
func (e *Engine) EvaluateContext(ctx context.Context, node *ast.Node) eval.Result {
	return e.evaluator.EvaluateContext(ctx, node)
}

// Outcome is a parsed and evaluated input.
type Outcome struct {
	Input  string
	Tree   *ast.Node
	Result eval.Result
}

// String renders the result the way Run does, with "error: " in front of
// evaluation errors.
func (o Outcome) String() string {
	return o.Result.String()
}

// Execute parses text as one EXPR and evaluates it. Parse failures are
// returned as errors; evaluation failures are Error results.
func (e *Engine) Execute(ctx context.Context, text string) (Outcome, error) {
	node, err := e.Parse(text)
	if err != nil {
		e.logger.DebugContext(ctx, "parse failed", slog.String("input", text), slog.String("error", err.Error()))
		return Outcome{Input: text}, err
	}

	result := e.evaluator.EvaluateContext(ctx, node)
	e.logger.DebugContext(ctx, "evaluated",
		slog.String("input", text),
		slog.String("tree", node.String()),
		slog.String("state", result.State().String()))

	return Outcome{Input: text, Tree: node, Result: result}, nil
}

// Run parses and evaluates text and renders the value. An Error result is
// returned as an error wrapping ErrEvaluation. A result without a value renders
// as "<no value>" and cannot be told apart from a text value with the same
// contents; use Execute and the result state when that matters.
func (e *Engine) Run(text string) (string, error) {
	outcome, err := e.Execute(context.Background(), text)
	if err != nil {
		return "", err
	}

	if outcome.Result.IsError() {
		return "", fmt.Errorf("%w: %s", ErrEvaluation, outcome.Result.Message())
	}

	return outcome.Result.String(), nil
}

// Close releases the identifier store.
func (e *Engine) Close() error {
	return e.store.Close()
}
