// Copyright © 2024 The perlscope authors

// Package analysis resolves the lexical scopes of a Perl syntax tree and
// reports scope issues: unused, undeclared, shadowed, redeclared and
// uninitialized variables, signature problems and barewords under strict.
//
// Analysis is a single depth-first walk. It never fails; malformed or partial
// trees produce a best effort set of issues. An Analyzer may be used from
// multiple goroutines as long as each call has its own tree.
package analysis

import (
	"fmt"
	"strings"

	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/parser/token"
	"github.com/luthersystems/perlscope/pragma"
)

// Config controls the behavior of an Analyzer.
type Config struct {
	// KnownFunctions are barewords accepted under strict subs in addition
	// to Perl built-ins and the subroutines and constants of the file.
	KnownFunctions []string

	// Globals are variables, spelled with their sigil, that need no
	// declaration (e.g. package variables exported by other modules).
	Globals []string

	// Lines is an optional precomputed line index of the source.
	Lines *token.Lines
}

// Analyzer performs scope analysis.
type Analyzer struct {
	known   map[string]bool
	globals map[string]bool
	lines   *token.Lines
}

// New returns an Analyzer configured by cfg, which may be nil.
func New(cfg *Config) *Analyzer {
	if cfg == nil {
		cfg = &Config{}
	}
	a := &Analyzer{
		known:   make(map[string]bool, len(cfg.KnownFunctions)),
		globals: make(map[string]bool, len(cfg.Globals)),
		lines:   cfg.Lines,
	}
	for _, name := range cfg.KnownFunctions {
		a.known[name] = true
	}
	for _, name := range cfg.Globals {
		a.globals[name] = true
	}
	return a
}

// Analyze analyzes tree, parsed from source, with a default Analyzer. A nil
// pragma map means no strict mode anywhere.
func Analyze(tree *ast.Tree, source []byte, pragmas *pragma.Map) []ScopeIssue {
	return New(nil).Analyze(tree, source, pragmas)
}

// Analyze returns the scope issues of tree in traversal order.
func (a *Analyzer) Analyze(tree *ast.Tree, source []byte, pragmas *pragma.Map) []ScopeIssue {
	if tree == nil || tree.Node(tree.Root) == nil {
		return nil
	}
	lines := a.lines
	if lines == nil {
		lines = token.NewLines(source)
	}
	w := &walker{
		tree:      tree,
		ctx:       newPragmaContext(pragmas, source, lines),
		scopes:    newScopeTable(),
		known:     declaredFunctions(tree),
		config:    a,
		srcLen:    len(source),
		ancestors: make([]ast.NodeID, 0, 32),
	}
	root := w.scopes.Push(NoScope)
	w.visit(tree.Root, root)
	w.flushUnused(root)
	return w.issues
}

// walker is the state of a single analysis.
type walker struct {
	tree      *ast.Tree
	ctx       *pragmaContext
	scopes    *scopeTable
	ancestors []ast.NodeID
	issues    []ScopeIssue
	known     map[string]bool
	config    *Analyzer
	srcLen    int
}

func (w *walker) push(id ast.NodeID) { w.ancestors = append(w.ancestors, id) }
func (w *walker) pop()               { w.ancestors = w.ancestors[:len(w.ancestors)-1] }

// parent returns the closest ancestor of the node being visited.
func (w *walker) parent() ast.NodeID {
	if len(w.ancestors) == 0 {
		return ast.NoNode
	}
	return w.ancestors[len(w.ancestors)-1]
}

func (w *walker) report(kind IssueKind, name string, span ast.Span, format string) {
	w.issues = append(w.issues, ScopeIssue{
		Kind:        kind,
		Name:        name,
		Line:        w.ctx.Line(span.Start),
		Range:       Range{Start: span.Start, End: span.End},
		Description: fmt.Sprintf(format, name),
	})
}

func (w *walker) visit(id ast.NodeID, scope ScopeID) {
	n := w.tree.Node(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.VariableDeclaration, ast.VariableListDeclaration:
		w.declaration(id, n, scope)
	case ast.Use:
		if n.Name == "vars" {
			w.useVars(n, scope)
		}
	case ast.No:
		// pragmas are resolved by the pragma map
	case ast.Variable:
		w.variable(id, n, scope)
	case ast.Assignment:
		w.push(id)
		w.visit(w.tree.Right(id), scope)
		w.markInitialized(w.tree.Left(id), id, scope)
		w.visit(w.tree.Left(id), scope)
		w.pop()
	case ast.Tie:
		w.tie(id, scope)
	case ast.Identifier:
		w.bareword(id, n)
	case ast.Binary:
		w.subscript(id, n, scope)
		w.children(id, scope)
	case ast.Unary:
		if n.Op == `\` {
			w.markInitialized(w.tree.Kid(id, 0), id, scope)
		}
		w.children(id, scope)
	case ast.FunctionCall:
		if i, ok := argumentWriters[n.Name]; ok && n.Op == "" {
			w.markInitialized(w.tree.Kid(id, i), id, scope)
		}
		w.children(id, scope)
	case ast.Block, ast.For, ast.Foreach, ast.While:
		child := w.scopes.Push(scope)
		if n.Kind == ast.Foreach {
			w.markInitialized(w.tree.Kid(id, 0), id, child)
		}
		w.children(id, child)
		w.flushUnused(child)
		w.scopes.Pop(child)
	case ast.Subroutine:
		w.subroutine(id, n, scope)
	default:
		w.children(id, scope)
	}
}

// children visits the present children of id in scope.
func (w *walker) children(id ast.NodeID, scope ScopeID) {
	w.push(id)
	for _, kid := range w.tree.Children(id) {
		w.visit(kid, scope)
	}
	w.pop()
}

func (w *walker) declaration(id ast.NodeID, n *ast.Node, scope ScopeID) {
	var init ast.NodeID
	var vars []ast.NodeID
	if n.Kind == ast.VariableDeclaration {
		init = w.tree.Kid(id, 1)
		vars = []ast.NodeID{w.tree.Kid(id, 0)}
	} else {
		init = w.tree.Kid(id, 0)
		if len(n.Kids) > 1 {
			vars = n.Kids[1:]
		}
	}
	initialized := init.IsValid() || w.initializedByContext(id)
	global := n.Op == "our"
	w.push(id)
	w.visit(init, scope)
	for _, v := range vars {
		vn := w.tree.Node(v)
		if vn == nil || vn.Kind != ast.Variable {
			w.visit(v, scope)
			continue
		}
		kind, ok := w.scopes.Declare(scope, vn.Sigil, vn.Name, vn.Span.Start, global, initialized)
		if !ok {
			continue
		}
		switch kind {
		case VariableShadowing:
			w.report(kind, vn.Sigil+vn.Name, vn.Span, "Variable '%s' shadows a variable in outer scope")
		case VariableRedeclaration:
			w.report(kind, vn.Sigil+vn.Name, vn.Span, "Variable '%s' is already declared in this scope")
		}
	}
	w.pop()
}

// initializedByContext reports whether a declaration without an initializer
// receives a value from its surroundings: the target of a list assignment,
// a foreach loop variable, a function argument such as open(my $fh, ...) or
// the operand of a reference constructor.
func (w *walker) initializedByContext(id ast.NodeID) bool {
	child := id
	for i := len(w.ancestors) - 1; i >= 0; i-- {
		p := w.ancestors[i]
		pn := w.tree.Node(p)
		switch pn.Kind {
		case ast.List:
			child = p
			continue
		case ast.Assignment:
			return w.tree.Left(p) == child
		case ast.Foreach:
			return w.tree.Kid(p, 0) == child
		case ast.FunctionCall, ast.IndirectCall, ast.MethodCall, ast.Tie:
			return true
		case ast.Unary:
			return pn.Op == `\`
		}
		return false
	}
	return false
}

func (w *walker) variable(id ast.NodeID, n *ast.Node, scope ScopeID) {
	if n.Sigil == "*" || isQualified(n.Name) || IsBuiltinGlobal(n.Sigil, n.Name) {
		return
	}
	if w.config.globals[n.Sigil+n.Name] {
		return
	}
	found, initialized := w.scopes.MarkUsed(scope, n.Sigil, n.Name)
	if !found {
		if sigil := w.elementSigil(id, n, w.parent()); sigil != "" {
			found, initialized = w.scopes.MarkUsed(scope, sigil, n.Name)
		}
	}
	switch {
	case !found:
		if w.ctx.StrictVars(n.Span.Start) {
			w.report(UndeclaredVariable, n.Sigil+n.Name, n.Span, "Variable '%s' is used but not declared")
		}
	case !initialized:
		w.report(UninitializedVariable, n.Sigil+n.Name, n.Span, "Variable '%s' is used before being initialized")
	}
}

// elementSigil returns the sigil of the aggregate accessed when the
// variable id is indexed by its parent: $x{k} and @x{...} access %x, $x[i]
// and @x[...] access @x. It returns "" for any other position.
func (w *walker) elementSigil(id ast.NodeID, n *ast.Node, parent ast.NodeID) string {
	if n.Sigil != "$" && n.Sigil != "@" {
		return ""
	}
	p := w.tree.Node(parent)
	if p == nil || p.Kind != ast.Binary || p.Name == "->" || !w.tree.IsSubscriptOf(parent, id, ast.Lhs) {
		return ""
	}
	if p.Op == "{}" {
		return "%"
	}
	return "@"
}

// subscript marks the aggregate behind $x{...} or $x[...] used when it is
// declared.
func (w *walker) subscript(id ast.NodeID, n *ast.Node, scope ScopeID) {
	if !ast.IsSubscript(n.Op) || n.Name == "->" {
		return
	}
	left := w.tree.Left(id)
	ln := w.tree.Node(left)
	if ln == nil || ln.Kind != ast.Variable || ln.Sigil != "$" {
		return
	}
	sigil := w.elementSigil(left, ln, id)
	if w.scopes.Lookup(scope, sigil, ln.Name) != nil {
		w.scopes.MarkUsed(scope, sigil, ln.Name)
	}
}

// markInitialized flags every variable under id as initialized. parent is
// the node containing id, used to resolve element access to aggregates.
func (w *walker) markInitialized(id, parent ast.NodeID, scope ScopeID) {
	n := w.tree.Node(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.VariableDeclaration, ast.VariableListDeclaration:
		// The declaration initializes its own binding from context.
		return
	case ast.Variable:
		if isQualified(n.Name) {
			return
		}
		if w.scopes.Lookup(scope, n.Sigil, n.Name) != nil {
			w.scopes.MarkInitialized(scope, n.Sigil, n.Name)
		} else if sigil := w.elementSigil(id, n, parent); sigil != "" {
			w.scopes.MarkInitialized(scope, sigil, n.Name)
		}
		return
	}
	for _, kid := range w.tree.Children(id) {
		w.markInitialized(kid, id, scope)
	}
}

// tie analyzes the class and arguments before the tied variable, which is
// initialized by the tie.
func (w *walker) tie(id ast.NodeID, scope ScopeID) {
	kids := w.tree.Children(id)
	if len(kids) == 0 {
		return
	}
	target := w.tree.Kid(id, 0)
	w.push(id)
	for _, kid := range kids {
		if kid != target {
			w.visit(kid, scope)
		}
	}
	switch w.tree.Kind(target) {
	case ast.VariableDeclaration, ast.VariableListDeclaration:
		w.visit(target, scope)
		w.markInitialized(target, id, scope)
	default:
		w.markInitialized(target, id, scope)
		w.visit(target, scope)
	}
	w.pop()
}

func (w *walker) bareword(id ast.NodeID, n *ast.Node) {
	if !w.ctx.StrictSubs(n.Span.Start) {
		return
	}
	if IsKnownFunction(n.Name) || w.known[n.Name] || w.config.known[n.Name] {
		return
	}
	if inHashKeyContext(w.tree, id, w.ancestors) || isFilehandleArgument(w.tree, id, w.ancestors) {
		return
	}
	w.report(UnquotedBareword, n.Name, n.Span, "Bareword '%s' not allowed under 'use strict'")
}

type parameter struct {
	node  ast.NodeID
	sigil string
	name  string
}

func (w *walker) subroutine(id ast.NodeID, n *ast.Node, scope ScopeID) {
	sub := w.scopes.Push(scope)
	w.push(id)
	if n.Op == "method" {
		w.scopes.Declare(sub, "$", "self", n.Span.Start, false, true)
		w.scopes.MarkUsed(sub, "$", "self")
	}
	params := w.signature(w.tree.Kid(id, 0), scope, sub)
	w.visit(w.tree.Kid(id, 1), sub)
	w.pop()
	for _, p := range params {
		if strings.HasPrefix(p.name, "_") {
			continue
		}
		v := w.scopes.Local(sub, p.sigil, p.name)
		if v == nil || v.Used {
			continue
		}
		w.report(UnusedParameter, p.sigil+p.name, w.tree.Node(p.node).Span, "Parameter '%s' is declared but never used")
		// reported once, as a parameter
		v.Used = true
	}
	w.flushUnused(sub)
	w.scopes.Pop(sub)
}

// signature declares the parameters of sig in the subroutine scope sub.
// outer is the scope enclosing the subroutine.
func (w *walker) signature(sig ast.NodeID, outer, sub ScopeID) []parameter {
	if w.tree.Kind(sig) != ast.Signature {
		w.visit(sig, sub)
		return nil
	}
	var params []parameter
	seen := make(map[string]bool)
	w.push(sig)
	for _, pid := range w.tree.Children(sig) {
		pn := w.tree.Node(pid)
		switch pn.Kind {
		case ast.MandatoryParameter, ast.OptionalParameter, ast.SlurpyParameter:
		default:
			w.visit(pid, sub)
			continue
		}
		if def := w.tree.Kid(pid, 1); pn.Kind == ast.OptionalParameter && def.IsValid() {
			w.push(pid)
			w.visit(def, sub)
			w.pop()
		}
		vn := w.tree.Node(w.tree.Kid(pid, 0))
		if vn == nil || vn.Kind != ast.Variable {
			continue
		}
		full := vn.Sigil + vn.Name
		if seen[full] {
			w.report(DuplicateParameter, full, pn.Span, "Duplicate parameter '%s' in subroutine signature")
		}
		seen[full] = true
		if w.scopes.Lookup(outer, vn.Sigil, vn.Name) != nil {
			w.report(ParameterShadowsGlobal, full, pn.Span, "Parameter '%s' shadows a variable from outer scope")
		}
		w.scopes.Declare(sub, vn.Sigil, vn.Name, vn.Span.Start, false, true)
		params = append(params, parameter{node: pid, sigil: vn.Sigil, name: vn.Name})
	}
	w.pop()
	return params
}

// flushUnused reports the unused variables declared directly in scope.
func (w *walker) flushUnused(scope ScopeID) {
	w.scopes.CollectUnused(scope, func(name string, offset int) {
		start := min(offset, w.srcLen)
		end := min(start+len(name), w.srcLen)
		w.report(UnusedVariable, name, ast.Span{Start: start, End: end}, "Variable '%s' is declared but never used")
	})
}

// isQualified reports whether a variable name includes a package.
func isQualified(name string) bool {
	return strings.Contains(name, "::") || strings.Contains(name, "'")
}
