// Package ast holds the trees produced by the grammar engine.
package ast

import (
	"strings"

	"github.com/shibukawa/snapgram/lambda"
	"github.com/shibukawa/snapgram/tokenizer"
)

// NoAlternative marks a node that was not selected by a choice.
const NoAlternative = -1

// Node is either a leaf carrying a token or a branch carrying children. Every
// node carries the instruction that evaluates it.
type Node struct {
	Token    *tokenizer.Token
	Children []*Node
	Lambda   lambda.Instruction
	// Rule is the name of the rule that produced the node, if any.
	Rule string
	// Alternative is the index of the selected alternative for nodes returned
	// by a choice, NoAlternative otherwise.
	Alternative int
}

// NewLeaf creates a leaf node.
func NewLeaf(tok tokenizer.Token, in lambda.Instruction) *Node {
	return &Node{Token: &tok, Lambda: in, Alternative: NoAlternative}
}

// NewBranch creates a branch node.
func NewBranch(children []*Node, in lambda.Instruction) *Node {
	return &Node{Children: children, Lambda: in, Alternative: NoAlternative}
}

// IsLeaf reports whether n carries a token.
func (n *Node) IsLeaf() bool {
	return n.Token != nil
}

// Len returns the number of children.
func (n *Node) Len() int {
	return len(n.Children)
}

// Child returns the i-th child, counted from 1.
func (n *Node) Child(i int) (*Node, bool) {
	if i < 1 || i > len(n.Children) {
		return nil, false
	}

	return n.Children[i-1], true
}

// Text returns the token value of a leaf, or the values of all leaves below a
// branch joined by a space.
func (n *Node) Text() string {
	if n.IsLeaf() {
		return n.Token.Value
	}

	values := make([]string, 0, len(n.Children))
	n.Leaves(func(leaf *Node) {
		values = append(values, leaf.Token.Value)
	})

	return strings.Join(values, " ")
}

// Leaves calls fn for every leaf, left to right.
func (n *Node) Leaves(fn func(*Node)) {
	if n.IsLeaf() {
		fn(n)
		return
	}

	for _, child := range n.Children {
		child.Leaves(fn)
	}
}

// Position returns the span from the first to the last leaf.
func (n *Node) Position() (tokenizer.Pointer, bool) {
	var (
		first, last tokenizer.Pointer
		found       bool
	)

	n.Leaves(func(leaf *Node) {
		if !found {
			first = leaf.Token.Position
			found = true
		}

		last = leaf.Token.Position
	})

	if !found {
		return tokenizer.Pointer{}, false
	}

	return tokenizer.Span(first, last), true
}

// String renders leaves as "type:value" and branches as "( child child ... )".
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)

	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	if n.IsLeaf() {
		b.WriteString(n.Token.String())
		return
	}

	b.WriteString("(")

	for _, child := range n.Children {
		b.WriteString(" ")
		child.write(b)
	}

	b.WriteString(" )")
}
