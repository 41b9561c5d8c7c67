package grammar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shibukawa/snapgram/lambda"
	"github.com/shibukawa/snapgram/suggest"
)

// Validate checks the rule table: the start rule exists, every referenced rule
// and token type is defined, choice instructions fit their expressions and no
// rule can reach itself without consuming a token. All problems are returned
// joined.
func (g *Grammar) Validate() error {
	var errs []error

	if _, ok := g.rules[StartRule]; !ok {
		errs = append(errs, ErrNoStartRule)
	}

	for _, name := range g.order {
		rule := g.rules[name]
		errs = append(errs, g.checkExpression(name, rule.Expr)...)
		errs = append(errs, checkInstruction(name, rule.Expr, rule.Lambda)...)
	}

	errs = append(errs, g.checkLeftRecursion()...)

	return errors.Join(errs...)
}

func (g *Grammar) checkExpression(rule string, expr Expression) []error {
	var errs []error

	Walk(expr, func(e Expression) {
		switch v := e.(type) {
		case *Ref:
			if _, ok := g.rules[v.Name]; !ok {
				errs = append(errs, fmt.Errorf("%w: %s referenced from %s%s", ErrUndefinedRule, v.Name, rule, suggest.Hint(v.Name, g.order)))
			}
		case *Match:
			if g.lexer == nil || !g.lexer.Has(v.Type) {
				var types []string
				if g.lexer != nil {
					types = g.lexer.Types()
				}

				errs = append(errs, fmt.Errorf("%w: %s in rule %s%s", ErrUndefinedToken, v.Type, rule, suggest.Hint(v.Type, types)))
			}
		}
	})

	return errs
}

// checkInstruction verifies that every choice instruction is attached to a
// choice with the same number of alternatives, and that no instruction other
// than default lands on a bare rule reference, which always keeps the
// referenced rule's own instruction.
func checkInstruction(rule string, expr Expression, in lambda.Instruction) []error {
	if ref, ok := expr.(*Ref); ok && !lambda.IsDefault(in) {
		return []error{fmt.Errorf("%w: rule %s pairs %s with %s, which keeps the instruction of rule %s", ErrIgnoredInstruction, rule, in, ref, ref.Name)}
	}

	paired, ok := in.(lambda.Choice)
	if !ok {
		choice, isChoice := expr.(*Choice)
		if !isChoice || lambda.IsDefault(in) {
			return nil
		}

		// every alternative receives the same instruction
		var errs []error
		for _, alt := range choice.Alternatives {
			errs = append(errs, checkInstruction(rule, alt, in)...)
		}

		return errs
	}

	choice, ok := expr.(*Choice)
	if !ok {
		return []error{fmt.Errorf("%w: rule %s has %s but its expression is not a choice", ErrInstructionMismatch, rule, in)}
	}

	if len(paired.Alternatives) != len(choice.Alternatives) {
		return []error{fmt.Errorf("%w: rule %s has %d alternatives and %d instructions", ErrInstructionMismatch, rule, len(choice.Alternatives), len(paired.Alternatives))}
	}

	var errs []error
	for i, alt := range choice.Alternatives {
		errs = append(errs, checkInstruction(rule, alt, paired.Alternatives[i])...)
	}

	return errs
}

// checkLeftRecursion finds cycles of rules that reach each other in leftmost
// position.
func (g *Grammar) checkLeftRecursion() []error {
	nullable := g.nullableRules()

	edges := make(map[string][]string, len(g.order))
	for _, name := range g.order {
		edges[name] = leftRefs(g.rules[name].Expr, nullable)
	}

	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[string]int, len(g.order))
	reported := make(map[string]bool)

	var (
		errs  []error
		stack []string
		visit func(name string)
	)

	visit = func(name string) {
		state[name] = visiting
		stack = append(stack, name)

		for _, next := range edges[name] {
			if _, ok := g.rules[next]; !ok {
				continue
			}

			switch state[next] {
			case unvisited:
				visit(next)
			case visiting:
				cycle := cycleFrom(stack, next)
				if !reported[cycle[0]] {
					reported[cycle[0]] = true
					errs = append(errs, fmt.Errorf("%w: %s", ErrLeftRecursion, strings.Join(cycle, " -> ")))
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[name] = done
	}

	for _, name := range g.order {
		if state[name] == unvisited {
			visit(name)
		}
	}

	return errs
}

func cycleFrom(stack []string, start string) []string {
	for i, name := range stack {
		if name == start {
			cycle := append([]string{}, stack[i:]...)
			return append(cycle, start)
		}
	}

	return []string{start, start}
}

// nullableRules returns the rules that can match without consuming a token.
func (g *Grammar) nullableRules() map[string]bool {
	nullable := make(map[string]bool)

	for changed := true; changed; {
		changed = false

		for _, name := range g.order {
			if !nullable[name] && isNullable(g.rules[name].Expr, nullable) {
				nullable[name] = true
				changed = true
			}
		}
	}

	return nullable
}

func isNullable(expr Expression, nullable map[string]bool) bool {
	switch v := expr.(type) {
	case *Match:
		return false
	case *Ref:
		return nullable[v.Name]
	case *Sequence:
		for _, item := range v.Items {
			if !isNullable(item, nullable) {
				return false
			}
		}

		return true
	case *Choice:
		for _, alt := range v.Alternatives {
			if isNullable(alt, nullable) {
				return true
			}
		}

		return false
	default:
		return false
	}
}

// leftRefs lists the rules that can be entered before any token is consumed.
func leftRefs(expr Expression, nullable map[string]bool) []string {
	switch v := expr.(type) {
	case *Ref:
		return []string{v.Name}
	case *Sequence:
		var refs []string

		for _, item := range v.Items {
			refs = append(refs, leftRefs(item, nullable)...)
			if !isNullable(item, nullable) {
				break
			}
		}

		return refs
	case *Choice:
		var refs []string
		for _, alt := range v.Alternatives {
			refs = append(refs, leftRefs(alt, nullable)...)
		}

		return refs
	default:
		return nil
	}
}

// Walk calls fn for expr and every expression nested in it.
func Walk(expr Expression, fn func(Expression)) {
	fn(expr)

	switch v := expr.(type) {
	case *Sequence:
		for _, item := range v.Items {
			Walk(item, fn)
		}
	case *Choice:
		for _, alt := range v.Alternatives {
			Walk(alt, fn)
		}
	}
}
