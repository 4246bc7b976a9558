// Copyright © 2024 The perlscope authors

package astutil

import (
	"testing"

	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/perltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalk_Order(t *testing.T) {
	tree := perltest.Parse(t, "my $x = $y;")
	var kinds []ast.Kind
	var depths []int
	Walk(tree, func(id ast.NodeID, ancestors []ast.NodeID) bool {
		kinds = append(kinds, tree.Kind(id))
		depths = append(depths, len(ancestors))
		return true
	})
	assert.Equal(t, []ast.Kind{
		ast.Program, ast.ExpressionStatement, ast.VariableDeclaration, ast.Variable, ast.Variable,
	}, kinds)
	assert.Equal(t, []int{0, 1, 2, 3, 3}, depths)
}

func TestWalk_Skip(t *testing.T) {
	tree := perltest.Parse(t, "sub f { my $a; } my $b;")
	var names []string
	Walk(tree, func(id ast.NodeID, _ []ast.NodeID) bool {
		if tree.Kind(id) == ast.Subroutine {
			return false
		}
		if tree.Kind(id) == ast.Variable {
			names = append(names, tree.FullName(id))
		}
		return true
	})
	assert.Equal(t, []string{"$b"}, names)
}

func TestWalk_Nil(t *testing.T) {
	Walk(nil, func(ast.NodeID, []ast.NodeID) bool {
		t.Fatal("called on nil tree")
		return true
	})
}

func TestInspect(t *testing.T) {
	tree := perltest.Parse(t, "foo(1); { bar(2); }")
	var depths []int
	Inspect(tree, ast.FunctionCall, func(_ ast.NodeID, depth int) {
		depths = append(depths, depth)
	})
	assert.Equal(t, []int{2, 3}, depths)
}

func TestNodeAt(t *testing.T) {
	src := "my $x = foo($y);"
	tree := perltest.Parse(t, src)
	id, path := NodeAt(tree, 13)
	require.True(t, id.IsValid())
	assert.Equal(t, ast.Variable, tree.Kind(id))
	assert.Equal(t, "$y", tree.FullName(id))
	require.NotEmpty(t, path)
	assert.Equal(t, ast.FunctionCall, tree.Kind(path[len(path)-1]))

	id, _ = NodeAt(tree, 100)
	assert.Equal(t, ast.Program, tree.Kind(id))
}

func TestVariables(t *testing.T) {
	tree := perltest.Parse(t, `my ($a, @b) = (%c, "$d");`)
	var names []string
	for _, v := range Variables(tree, tree.Root) {
		names = append(names, tree.FullName(v))
	}
	assert.Equal(t, []string{"%c", "$d", "$a", "@b"}, names)
}

func TestDeclarator(t *testing.T) {
	tree := perltest.Parse(t, "our $x = $y; my ($p, $q) = @_;")
	got := map[string]string{}
	Walk(tree, func(id ast.NodeID, ancestors []ast.NodeID) bool {
		if tree.Kind(id) == ast.Variable {
			got[tree.FullName(id)] = Declarator(tree, id, ancestors)
		}
		return true
	})
	assert.Equal(t, map[string]string{
		"$x": "our",
		"$y": "",
		"$p": "my",
		"$q": "my",
		"@_": "",
	}, got)
}

func TestUsedModules(t *testing.T) {
	tree := perltest.Parse(t, "use strict; use List::Util qw(max); { use Foo::Bar; } no warnings;")
	assert.Equal(t, []string{"strict", "List::Util", "Foo::Bar"}, UsedModules(tree))
}
