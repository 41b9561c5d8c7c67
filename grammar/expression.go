package grammar

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/shibukawa/snapgram/ast"
	"github.com/shibukawa/snapgram/lambda"
	"github.com/shibukawa/snapgram/suggest"
)

// Expression is a node of a rule body.
type Expression interface {
	String() string
	parse(p *parser, in lambda.Instruction) (*ast.Node, error)
}

// Choice tries its alternatives in order and returns the first success.
type Choice struct {
	Alternatives []Expression
}

// Sequence matches all items one after the other.
type Sequence struct {
	Items []Expression
}

// Ref refers to a rule by name.
type Ref struct {
	Name string
}

// Match reads a single token of Type. A non-empty Value also requires the token
// text to equal it, compared with Unicode case folding when Fold is set.
type Match struct {
	Type  string
	Value string
	Fold  bool
}

func Or(alternatives ...Expression) *Choice   { return &Choice{Alternatives: alternatives} }
func Seq(items ...Expression) *Sequence       { return &Sequence{Items: items} }
func Rule(name string) *Ref                   { return &Ref{Name: name} }
func Tok(tokenType string) *Match             { return &Match{Type: tokenType} }
func TokValue(tokenType, value string) *Match { return &Match{Type: tokenType, Value: value} }
func TokFold(tokenType, value string) *Match {
	return &Match{Type: tokenType, Value: value, Fold: true}
}

func (c *Choice) String() string {
	parts := make([]string, len(c.Alternatives))
	for i, alt := range c.Alternatives {
		parts[i] = alt.String()
	}

	return strings.Join(parts, " | ")
}

func (s *Sequence) String() string {
	parts := make([]string, len(s.Items))
	for i, item := range s.Items {
		if _, ok := item.(*Choice); ok {
			parts[i] = "(" + item.String() + ")"
		} else {
			parts[i] = item.String()
		}
	}

	return strings.Join(parts, " ")
}

func (r *Ref) String() string {
	return r.Name
}

func (m *Match) String() string {
	switch {
	case m.Value == "":
		return "<" + m.Type + ">"
	case m.Fold:
		return "<" + m.Type + " " + strconv.Quote(m.Value) + " i>"
	default:
		return "<" + m.Type + " " + strconv.Quote(m.Value) + ">"
	}
}

func (m *Match) accepts(text string) bool {
	switch {
	case m.Value == "":
		return true
	case m.Fold:
		return cases.Fold().String(text) == cases.Fold().String(m.Value)
	default:
		return text == m.Value
	}
}

func (m *Match) parse(p *parser, in lambda.Instruction) (*ast.Node, error) {
	tok, ok := p.grammar.lexer.Match(m.Type, p.cursor)
	if !ok || !m.accepts(tok.Value) {
		return nil, fmt.Errorf("%w: expected %s at %s", ErrNoMatch, m, p.cursor.Position())
	}

	if err := p.cursor.Advance(tok.Consumed); err != nil {
		return nil, err
	}

	return ast.NewLeaf(tok, in), nil
}

func (s *Sequence) parse(p *parser, in lambda.Instruction) (*ast.Node, error) {
	children := make([]*ast.Node, 0, len(s.Items))

	for _, item := range s.Items {
		child, err := item.parse(p, lambda.Default{})
		if err != nil {
			return nil, err
		}

		children = append(children, child)
	}

	return ast.NewBranch(children, in), nil
}

func (c *Choice) parse(p *parser, in lambda.Instruction) (*ast.Node, error) {
	start := p.cursor.Position()
	paired, isChoice := in.(lambda.Choice)

	for i, alt := range c.Alternatives {
		altIn := in

		if isChoice {
			if i >= len(paired.Alternatives) {
				return nil, fmt.Errorf("%w: alternative %d of %s has no instruction in %s", ErrInstructionMismatch, i+1, c, paired)
			}

			altIn = paired.Alternatives[i]
		}

		p.trace("try alternative", slog.Int("alternative", i), slog.String("expr", alt.String()), slog.Int("offset", start.StartOffset))
		p.cursor.Push()

		node, err := alt.parse(p, altIn)
		if err == nil {
			if err := p.cursor.Pull(); err != nil {
				return nil, err
			}

			node.Alternative = i
			p.trace("select alternative", slog.Int("alternative", i), slog.Int("offset", p.cursor.Pointer().EndOffset))

			return node, nil
		}

		if popErr := p.cursor.Pop(); popErr != nil {
			return nil, popErr
		}

		if !errors.Is(err, ErrNoMatch) {
			return nil, err
		}

		p.trace("alternative failed", slog.Int("alternative", i), slog.String("reason", err.Error()))
	}

	return nil, fmt.Errorf("%w: %s at %s", ErrNoMatch, c, start)
}

// parse always uses the referenced rule's own instruction; whatever the caller
// hands in is dropped.
func (r *Ref) parse(p *parser, _ lambda.Instruction) (*ast.Node, error) {
	rule, ok := p.grammar.rules[r.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s%s", ErrUndefinedRule, r.Name, suggest.Hint(r.Name, p.grammar.order))
	}

	p.depth++
	defer func() { p.depth-- }()

	if p.depth > p.grammar.maxDepth() {
		return nil, fmt.Errorf("%w: %d nested rules at %s (entering %s)", ErrRecursionLimit, p.grammar.maxDepth(), p.cursor.Position(), r.Name)
	}

	p.trace("enter rule", slog.String("rule", r.Name), slog.Int("depth", p.depth), slog.Int("offset", p.cursor.Pointer().EndOffset))

	node, err := rule.Expr.parse(p, rule.Lambda)
	if err != nil {
		return nil, err
	}

	node.Rule = r.Name

	return node, nil
}
