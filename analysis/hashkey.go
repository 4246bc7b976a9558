// Copyright © 2024 The perlscope authors

package analysis

import (
	"strings"

	"github.com/luthersystems/perlscope/ast"
)

// Ancestor window sizes for hash key classification. Most keys are direct
// children of their subscript; slices and nested forms need the deeper pass.
const (
	shallowKeyDepth = 1
	deepKeyDepth    = 10
)

// inHashKeyContext reports whether the bareword id sits where Perl accepts
// an unquoted word: a hash subscript key, a hash literal key, a hash slice
// key list or the class name before a method arrow. ancestors is the path
// from the root to the parent of id.
func inHashKeyContext(t *ast.Tree, id ast.NodeID, ancestors []ast.NodeID) bool {
	if hashKeyWithin(t, id, ancestors, 0, shallowKeyDepth) {
		return true
	}
	return hashKeyWithin(t, id, ancestors, shallowKeyDepth, deepKeyDepth)
}

// hashKeyWithin examines ancestors at distances [from, to) above id.
// Distance 0 is the parent.
func hashKeyWithin(t *ast.Tree, id ast.NodeID, ancestors []ast.NodeID, from, to int) bool {
	n := len(ancestors)
	for d := from; d < to && d < n; d++ {
		current := id
		if d > 0 {
			current = ancestors[n-d]
		}
		parent := ancestors[n-1-d]
		grandparent := ast.NoNode
		if d+1 < n {
			grandparent = ancestors[n-2-d]
		}
		if isKeyPosition(t, parent, current, grandparent) {
			return true
		}
	}
	return false
}

func isKeyPosition(t *ast.Tree, parent, current, grandparent ast.NodeID) bool {
	p := t.Node(parent)
	switch p.Kind {
	case ast.Binary:
		switch {
		case isBraceSubscript(p.Op):
			return t.Right(parent) == current
		case p.Op == "->":
			return t.Left(parent) == current
		}
	case ast.HashLiteral:
		for i, kid := range p.Kids {
			if kid == current {
				return i%2 == 0
			}
		}
	case ast.ArrayLiteral:
		g := t.Node(grandparent)
		return g != nil && g.Kind == ast.Binary && isBraceSubscript(g.Op) && t.Right(grandparent) == parent
	case ast.MethodCall:
		return t.Kid(parent, 0) == current
	case ast.IndirectCall:
		if t.Kid(parent, 0) == current {
			return true
		}
		// print $h{key} may parse with $h as the filehandle
		obj := t.Node(t.Kid(parent, 0))
		return obj != nil && obj.Kind == ast.Variable && obj.Sigil == "$"
	}
	return false
}

func isBraceSubscript(op string) bool {
	return op == "{}" || strings.HasPrefix(op, "->") && strings.HasSuffix(op, "{}")
}

// isFilehandleArgument reports whether id is the first argument of a
// function that accepts a bareword filehandle, as in open(FH, ...).
func isFilehandleArgument(t *ast.Tree, id ast.NodeID, ancestors []ast.NodeID) bool {
	for i := len(ancestors) - 1; i >= 0; i-- {
		p := t.Node(ancestors[i])
		switch p.Kind {
		case ast.List:
			if t.Kid(ancestors[i], 0) != id {
				return false
			}
			id = ancestors[i]
			continue
		case ast.FunctionCall:
			return IsFilehandleFunction(p.Name) && t.Kid(ancestors[i], 0) == id
		}
		return false
	}
	return false
}
