// Package lambda defines the evaluation instructions attached to AST nodes.
package lambda

import (
	"strconv"
	"strings"

	"github.com/shibukawa/snapgram/value"
)

// Instruction tells the evaluator how to reduce a node.
type Instruction interface {
	String() string
	instruction()
}

// Default uses the node itself: leaves have no literal rule and branches have
// no default reduction, so evaluating Default reports an error.
type Default struct{}

// Op applies a named operation to the children at Args (1-based).
type Op struct {
	Name string
	Args []int
}

// NoArgOp applies a named operation without evaluating any child.
type NoArgOp struct {
	Name string
}

// Descend evaluates child Index (1-based) with Then. A nil Then evaluates the
// child with its own instruction.
type Descend struct {
	Index int
	Then  Instruction
}

// Literal parses the text of a leaf as a value of Kind.
type Literal struct {
	Kind value.Kind
}

// Choice holds one instruction per alternative of a choice expression.
type Choice struct {
	Alternatives []Instruction
}

func (Default) instruction() {}
func (Op) instruction()      {}
func (NoArgOp) instruction() {}
func (Descend) instruction() {}
func (Literal) instruction() {}
func (Choice) instruction()  {}

func (Default) String() string {
	return "default"
}

func (o Op) String() string {
	args := make([]string, len(o.Args))
	for i, a := range o.Args {
		args[i] = strconv.Itoa(a)
	}

	return o.Name + "(" + strings.Join(args, ",") + ")"
}

func (o NoArgOp) String() string {
	return o.Name + "()"
}

func (d Descend) String() string {
	s := "#" + strconv.Itoa(d.Index)
	if d.Then != nil {
		s += " -> " + d.Then.String()
	}

	return s
}

func (l Literal) String() string {
	return "as " + l.Kind.String()
}

func (c Choice) String() string {
	parts := make([]string, len(c.Alternatives))
	for i, alt := range c.Alternatives {
		parts[i] = alt.String()
	}

	return "[" + strings.Join(parts, " | ") + "]"
}

// IsDefault reports whether in is nil or Default.
func IsDefault(in Instruction) bool {
	if in == nil {
		return true
	}

	_, ok := in.(Default)

	return ok
}

// Walk calls fn for in and every instruction nested in it.
func Walk(in Instruction, fn func(Instruction)) {
	if in == nil {
		return
	}

	fn(in)

	switch v := in.(type) {
	case Descend:
		Walk(v.Then, fn)
	case Choice:
		for _, alt := range v.Alternatives {
			Walk(alt, fn)
		}
	}
}
