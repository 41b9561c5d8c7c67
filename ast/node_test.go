package ast

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/snapgram/lambda"
	"github.com/shibukawa/snapgram/tokenizer"
)

func leaf(tokenType, value string, offset int) *Node {
	return NewLeaf(tokenizer.Token{
		Type:  tokenType,
		Value: value,
		Position: tokenizer.Pointer{
			StartOffset: offset,
			EndOffset:   offset + len(value),
			StartColumn: offset,
			EndColumn:   offset + len(value),
		},
	}, lambda.Default{})
}

// sample builds the tree of "1+2+3" as produced by a right-recursive grammar.
func sample() *Node {
	inner := NewBranch([]*Node{leaf("num", "2", 2), leaf("op", "+", 3), leaf("num", "3", 4)}, lambda.Op{Name: "add", Args: []int{1, 3}})
	inner.Rule = "EXPR"
	inner.Alternative = 0

	root := NewBranch([]*Node{leaf("num", "1", 0), leaf("op", "+", 1), inner}, lambda.Op{Name: "add", Args: []int{1, 3}})
	root.Rule = "EXPR"
	root.Alternative = 0

	return root
}

func TestNodeString(t *testing.T) {
	assert.Equal(t, "( num:1 op:+ ( num:2 op:+ num:3 ) )", sample().String())
	assert.Equal(t, "num:7", leaf("num", "7", 0).String())
}

func TestNodeChild(t *testing.T) {
	root := sample()

	first, ok := root.Child(1)
	assert.True(t, ok)
	assert.Equal(t, "num:1", first.String())

	third, ok := root.Child(3)
	assert.True(t, ok)
	assert.False(t, third.IsLeaf())

	_, ok = root.Child(0)
	assert.False(t, ok)

	_, ok = root.Child(4)
	assert.False(t, ok)
}

func TestNodeText(t *testing.T) {
	assert.Equal(t, "1 + 2 + 3", sample().Text())
	assert.Equal(t, "x", leaf("ident", "x", 0).Text())
}

func TestNodePosition(t *testing.T) {
	pos, ok := sample().Position()
	assert.True(t, ok)
	assert.Equal(t, 0, pos.StartOffset)
	assert.Equal(t, 5, pos.EndOffset)

	_, ok = NewBranch(nil, lambda.Default{}).Position()
	assert.False(t, ok)
}
