// Copyright © 2024 The perlscope authors

package lint

import (
	"slices"

	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/astutil"
)

// WalkKinds calls fn for every node of one of the given kinds, depth-first.
// ancestors holds the path from the root, closest last.
func WalkKinds(t *ast.Tree, fn func(id ast.NodeID, ancestors []ast.NodeID), kinds ...ast.Kind) {
	astutil.Walk(t, func(id ast.NodeID, ancestors []ast.NodeID) bool {
		if slices.Contains(kinds, t.Kind(id)) {
			fn(id, ancestors)
		}
		return true
	})
}

// Conditions returns the condition expressions of an if, elsif, while or
// statement modifier node. Empty conditions are omitted.
func Conditions(t *ast.Tree, id ast.NodeID) []ast.NodeID {
	n := t.Node(id)
	if n == nil {
		return nil
	}
	var conds []ast.NodeID
	switch n.Kind {
	case ast.If:
		// [cond, block] pairs, then an optional else block
		for i := 0; i+1 < len(n.Kids); i += 2 {
			conds = append(conds, n.Kids[i])
		}
	case ast.While:
		conds = append(conds, t.Kid(id, 0))
	case ast.StatementModifier:
		conds = append(conds, t.Kid(id, 1))
	}
	return slices.DeleteFunc(conds, func(c ast.NodeID) bool { return !c.IsValid() })
}

// unwrapParens returns the sole element of a parenthesized list, or id.
func unwrapParens(t *ast.Tree, id ast.NodeID) ast.NodeID {
	n := t.Node(id)
	if n != nil && n.Kind == ast.List && n.Op == "()" && len(n.Kids) == 1 {
		return n.Kids[0]
	}
	return id
}
