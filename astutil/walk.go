// Copyright © 2024 The perlscope authors

// Package astutil provides shared tree walking utilities for perlscope
// syntax trees.
//
// These helpers are used by the lint, pragma and lsp packages for
// traversing parsed Perl programs.
package astutil

import "github.com/luthersystems/perlscope/ast"

// Walk calls fn for every node in the tree, depth-first in source order.
// ancestors holds the path from the root to the parent of id, closest last;
// fn must not retain it. If fn returns false the children of id are
// skipped.
func Walk(t *ast.Tree, fn func(id ast.NodeID, ancestors []ast.NodeID) bool) {
	if t == nil {
		return
	}
	WalkFrom(t, t.Root, fn)
}

// WalkFrom is Walk starting at root instead of the tree root.
func WalkFrom(t *ast.Tree, root ast.NodeID, fn func(id ast.NodeID, ancestors []ast.NodeID) bool) {
	stack := make([]ast.NodeID, 0, 32)
	walkNode(t, root, &stack, fn)
}

func walkNode(t *ast.Tree, id ast.NodeID, stack *[]ast.NodeID, fn func(ast.NodeID, []ast.NodeID) bool) {
	if t.Node(id) == nil {
		return
	}
	if !fn(id, *stack) {
		return
	}
	*stack = append(*stack, id)
	for _, kid := range t.Children(id) {
		walkNode(t, kid, stack, fn)
	}
	*stack = (*stack)[:len(*stack)-1]
}

// Inspect calls fn for every node of kind k.
func Inspect(t *ast.Tree, k ast.Kind, fn func(id ast.NodeID, depth int)) {
	Walk(t, func(id ast.NodeID, ancestors []ast.NodeID) bool {
		if t.Kind(id) == k {
			fn(id, len(ancestors))
		}
		return true
	})
}

// NodeAt returns the innermost node whose span contains offset together
// with its ancestor path. It returns ast.NoNode when no node covers the
// offset.
func NodeAt(t *ast.Tree, offset int) (ast.NodeID, []ast.NodeID) {
	found := ast.NoNode
	var path []ast.NodeID
	Walk(t, func(id ast.NodeID, ancestors []ast.NodeID) bool {
		n := t.Node(id)
		if n.Kind != ast.Program && !n.Span.Contains(offset) {
			return false
		}
		found = id
		path = append(path[:0], ancestors...)
		return true
	})
	return found, path
}

// Variables returns every Variable node under root in source order.
func Variables(t *ast.Tree, root ast.NodeID) []ast.NodeID {
	var out []ast.NodeID
	WalkFrom(t, root, func(id ast.NodeID, _ []ast.NodeID) bool {
		if t.Kind(id) == ast.Variable {
			out = append(out, id)
		}
		return true
	})
	return out
}

// UsedModules returns the module names of every top-level or nested use
// statement in source order.
func UsedModules(t *ast.Tree) []string {
	var mods []string
	Inspect(t, ast.Use, func(id ast.NodeID, _ int) {
		mods = append(mods, t.Node(id).Name)
	})
	return mods
}

// Declarator returns the declarator keyword of the declaration that
// declares the variable id, or "" when id is not a declared variable.
// ancestors is the path to the parent of id.
func Declarator(t *ast.Tree, id ast.NodeID, ancestors []ast.NodeID) string {
	if len(ancestors) == 0 {
		return ""
	}
	parent := ancestors[len(ancestors)-1]
	switch t.Kind(parent) {
	case ast.VariableDeclaration:
		if t.Kid(parent, 0) == id {
			return t.Node(parent).Op
		}
	case ast.VariableListDeclaration:
		if t.Kid(parent, 0) != id {
			return t.Node(parent).Op
		}
	}
	return ""
}
