// Copyright © 2024 The perlscope authors

package pragma

import (
	"strconv"
	"strings"

	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/parser/importlist"
)

// strictModules enable strict (and warnings) for the importing scope.
var strictModules = map[string]bool{
	"Moose":             true,
	"Moose::Role":       true,
	"Mouse":             true,
	"Moo":               true,
	"Moo::Role":         true,
	"Mojo::Base":        true,
	"Mojolicious::Lite": true,
	"Modern::Perl":      true,
	"strictures":        true,
	"common::sense":     true,
	"Dancer":            true,
	"Dancer2":           true,
	"Test2::V0":         true,
	"Test::Most":        true,
}

// Option configures Build.
type Option func(*tracker)

// WithBase sets the state assumed before any pragma is seen. Use it to
// treat files as strict from the first byte.
func WithBase(state State) Option {
	return func(t *tracker) {
		t.m.Base = state
	}
}

type tracker struct {
	tree *ast.Tree
	m    *Map
	cur  State
	end  int
}

// Build walks tree in source order and returns its pragma map. Pragmas take
// effect after the statement that names them and last until the end of the
// enclosing block.
func Build(tree *ast.Tree, opts ...Option) *Map {
	t := &tracker{tree: tree, m: &Map{}}
	for _, opt := range opts {
		opt(t)
	}
	t.cur = t.m.Base
	if root := tree.Node(tree.Root); root != nil {
		t.end = root.Span.End
		t.visit(tree.Root)
	}
	return t.m
}

func (t *tracker) visit(id ast.NodeID) {
	n := t.tree.Node(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.Use, ast.No:
		t.set(n.Span.End, Apply(t.cur, n.Kind == ast.Use, n.Name, n.Args))
		return
	case ast.Block:
		outer := t.cur
		for _, kid := range t.tree.Children(id) {
			t.visit(kid)
		}
		t.set(n.Span.End, outer)
		return
	}
	for _, kid := range t.tree.Children(id) {
		t.visit(kid)
	}
}

func (t *tracker) set(offset int, state State) {
	if state == t.cur {
		return
	}
	t.cur = state
	n := len(t.m.Ranges)
	if n > 0 && t.m.Ranges[n-1].Start == offset {
		t.m.Ranges[n-1].State = state
		return
	}
	if n > 0 {
		t.m.Ranges[n-1].End = offset
	}
	t.m.Ranges = append(t.m.Ranges, Range{
		Start: offset,
		End:   max(t.end, offset),
		State: state,
	})
}

// Apply returns the state that results from a use (enable) or no statement
// naming module with the raw argument texts args.
func Apply(state State, enable bool, module string, args []string) State {
	switch {
	case module == "strict":
		words := importlist.Words(args)
		if len(words) == 0 {
			state.StrictVars = enable
			state.StrictSubs = enable
			state.StrictRefs = enable
		}
		for _, w := range words {
			switch w {
			case "vars":
				state.StrictVars = enable
			case "subs":
				state.StrictSubs = enable
			case "refs":
				state.StrictRefs = enable
			}
		}
	case module == "warnings":
		// "no warnings 'once'" only silences a category
		if enable || len(importlist.Words(args)) == 0 {
			state.Warnings = enable
		}
	case isVersion(module):
		if !enable {
			break
		}
		major, minor, ok := ParseVersion(module)
		if !ok {
			break
		}
		if major > 5 || minor >= 12 {
			state.StrictVars = true
			state.StrictSubs = true
			state.StrictRefs = true
		}
		if major > 5 || minor >= 35 {
			state.Warnings = true
		}
	case strictModules[module]:
		if enable {
			state = Strict
			state.Warnings = true
		}
	}
	return state
}

func isVersion(s string) bool {
	if strings.HasPrefix(s, "v") {
		s = s[1:]
	}
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// ParseVersion parses a Perl version number in either dotted ("v5.36",
// "5.36.0") or decimal ("5.012", "5.010_001") form.
func ParseVersion(s string) (major, minor int, ok bool) {
	s = strings.ReplaceAll(s, "_", "")
	dotted := strings.HasPrefix(s, "v") || strings.Count(s, ".") > 1
	s = strings.TrimPrefix(s, "v")
	parts := strings.Split(s, ".")
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	if len(parts) == 1 {
		return major, 0, true
	}
	frac := parts[1]
	if !dotted {
		// decimal versions use three digits per component
		frac = (frac + "000")[:3]
	}
	minor, err = strconv.Atoi(frac)
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}
