// Copyright © 2024 The perlscope authors

package analysis

import (
	"strings"

	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/astutil"
	"github.com/luthersystems/perlscope/parser/importlist"
)

// useVars declares the variables listed by "use vars" as initialized
// package globals. Declaration issues are not reported for them.
func (w *walker) useVars(n *ast.Node, scope ScopeID) {
	for _, word := range importlist.Words(n.Args) {
		sigil, name := splitVariableName(word)
		if sigil == "" || name == "" {
			continue
		}
		w.scopes.Declare(scope, sigil, name, n.Span.Start, true, true)
	}
}

// splitVariableName separates the sigil from a variable spelling such as
// "$x" or "@list". The sigil is "" when full does not start with one.
func splitVariableName(full string) (sigil, name string) {
	if full != "" && strings.IndexByte("$@%&*", full[0]) >= 0 {
		return full[:1], full[1:]
	}
	return "", full
}

// pragmaModules are use targets whose arguments are not imported names.
var pragmaModules = map[string]bool{
	"strict":   true,
	"warnings": true,
	"vars":     true,
	"lib":      true,
	"parent":   true,
	"base":     true,
	"feature":  true,
	"utf8":     true,
}

// declaredFunctions collects the barewords a file makes valid under strict
// subs: named subroutines, constants and explicitly imported functions.
func declaredFunctions(t *ast.Tree) map[string]bool {
	known := make(map[string]bool)
	astutil.Walk(t, func(id ast.NodeID, _ []ast.NodeID) bool {
		n := t.Node(id)
		switch n.Kind {
		case ast.Subroutine:
			if n.Name != "" {
				known[n.Name] = true
				if i := strings.LastIndex(n.Name, "::"); i >= 0 {
					known[n.Name[i+2:]] = true
				}
			}
		case ast.Use:
			switch {
			case n.Name == "constant":
				addConstants(t, id, n, known)
			case n.Name == "subs" || !pragmaModules[n.Name]:
				for _, word := range importlist.Words(n.Args) {
					if isIdentifier(word) {
						known[word] = true
					}
				}
			}
			return false
		}
		return true
	})
	return known
}

// addConstants records the names defined by "use constant NAME => ..." and
// "use constant { A => 1, B => 2 }".
func addConstants(t *ast.Tree, id ast.NodeID, n *ast.Node, known map[string]bool) {
	args := t.Node(t.Kid(id, 0))
	if args != nil && args.Kind == ast.HashLiteral {
		for i, key := range args.Kids {
			if i%2 == 0 {
				if kn := t.Node(key); kn != nil {
					known[kn.Name] = true
				}
			}
		}
		return
	}
	if len(n.Args) == 0 {
		return
	}
	if words, err := importlist.Parse(n.Args[0]); err == nil && len(words) > 0 && isIdentifier(words[0]) {
		known[words[0]] = true
	}
}

func isIdentifier(word string) bool {
	if word == "" || !(word[0] == '_' || 'a' <= word[0] && word[0] <= 'z' || 'A' <= word[0] && word[0] <= 'Z') {
		return false
	}
	for i := 1; i < len(word); i++ {
		c := word[i]
		if c != '_' && c != ':' && !('a' <= c && c <= 'z') && !('A' <= c && c <= 'Z') && !('0' <= c && c <= '9') {
			return false
		}
	}
	return true
}
