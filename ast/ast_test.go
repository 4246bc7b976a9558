// Copyright © 2024 The perlscope authors

package ast

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildAssignment builds the tree for "$x = 1".
func buildAssignment() *Tree {
	t := NewTree("t.pl")
	x := t.Add(Node{Kind: Variable, Span: Span{0, 2}, Sigil: "$", Name: "x"})
	one := t.Add(Node{Kind: Number, Span: Span{5, 6}, Name: "1"})
	asg := t.Add(Node{Kind: Assignment, Span: Span{0, 6}, Op: "=", Kids: []NodeID{x, one}})
	stmt := t.Add(Node{Kind: ExpressionStatement, Span: Span{0, 6}, Kids: []NodeID{asg}})
	t.Root = t.Add(Node{Kind: Program, Span: Span{0, 7}, Kids: []NodeID{stmt}})
	return t
}

func TestTree(t *testing.T) {
	tree := buildAssignment()
	assert.Equal(t, 5, tree.Len())
	stmt := tree.Children(tree.Root)[0]
	asg := tree.Kid(stmt, 0)
	assert.Equal(t, Assignment, tree.Kind(asg))
	assert.Equal(t, "$x", tree.FullName(tree.Left(asg)))
	assert.Equal(t, Number, tree.Kind(tree.Right(asg)))
	assert.Equal(t, NoNode, tree.Kid(asg, 2))
	assert.Equal(t, NoNode, tree.Kid(NoNode, 0))
	assert.Nil(t, tree.Node(NoNode))
	assert.Nil(t, tree.Node(NodeID(100)))
	assert.Equal(t, Invalid, tree.Kind(NodeID(-1)))
	assert.Equal(t, "$x = 1", tree.Text(asg, []byte("$x = 1;")))
	assert.Equal(t, "", tree.Text(NoNode, nil))

	var nilTree *Tree
	assert.Equal(t, 0, nilTree.Len())
	assert.Nil(t, nilTree.Node(1))
}

func TestChildrenSkipsAbsent(t *testing.T) {
	tree := NewTree("")
	v := tree.Add(Node{Kind: Variable, Sigil: "$", Name: "x"})
	decl := tree.Add(Node{Kind: VariableDeclaration, Op: "my", Kids: []NodeID{v, NoNode}})
	assert.Equal(t, []NodeID{v}, tree.Children(decl))
	assert.Len(t, tree.Node(decl).Kids, 2)
}

func TestIsSubscriptOf(t *testing.T) {
	tree := NewTree("")
	h := tree.Add(Node{Kind: Variable, Sigil: "$", Name: "h"})
	k := tree.Add(Node{Kind: Identifier, Name: "k"})
	sub := tree.Add(Node{Kind: Binary, Op: "{}", Kids: []NodeID{h, k}})
	plus := tree.Add(Node{Kind: Binary, Op: "+", Kids: []NodeID{h, k}})
	assert.True(t, tree.IsSubscriptOf(sub, h, Lhs))
	assert.True(t, tree.IsSubscriptOf(sub, k, Rhs))
	assert.False(t, tree.IsSubscriptOf(sub, h, Rhs))
	assert.False(t, tree.IsSubscriptOf(plus, h, Lhs))
	assert.True(t, IsSubscript("[]"))
	assert.False(t, IsSubscript("->"))
}

func TestSpan(t *testing.T) {
	s := Span{Start: 2, End: 5}
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains(2))
	assert.False(t, s.Contains(5))
	assert.Equal(t, "[2,5)", s.String())
}

func TestKindString(t *testing.T) {
	used := make(map[string]bool)
	for k := Kind(0); k < numKinds; k++ {
		str := k.String()
		if str == "" {
			t.Errorf("kind %d has empty string value", k)
		}
		if used[str] {
			t.Errorf("kind string used twice: %v", str)
		}
		used[str] = true
	}
	assert.Equal(t, "invalid", numKinds.String())
}

func TestSExpr(t *testing.T) {
	tree := buildAssignment()
	stmt := tree.Children(tree.Root)[0]
	assert.Equal(t, "(expression-statement (assignment :op = (variable $x) (number 1)))", tree.SExpr(stmt))
	assert.Equal(t, "nil", tree.SExpr(NoNode))

	var buf bytes.Buffer
	require.NoError(t, tree.Dump(&buf))
	assert.Equal(t, tree.SExpr(stmt)+"\n", buf.String())
}
