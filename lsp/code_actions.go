// Copyright © 2024 The perlscope authors

package lsp

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/astutil"
	"github.com/luthersystems/perlscope/lint"
	"github.com/luthersystems/perlscope/parser/token"
)

// textDocumentCodeAction handles the textDocument/codeAction request.
// It returns quick-fix actions for diagnostics in the requested range.
func (s *Server) textDocumentCodeAction(_ *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}

	// If the client only wants specific kinds, check we support them.
	if len(params.Context.Only) > 0 && !slices.Contains(params.Context.Only, protocol.CodeActionKindQuickFix) {
		return nil, nil
	}

	snap := doc.snapshot()
	f := &fixer{uri: params.TextDocument.URI, snap: snap, src: []byte(snap.content)}

	var actions []protocol.CodeAction
	for _, diag := range params.Context.Diagnostics {
		if diag.Source == nil || *diag.Source != diagnosticSource || diag.Code == nil {
			continue
		}
		if !rangeOverlaps(diag.Range, params.Range) {
			continue
		}
		check, _ := diag.Code.Value.(string)
		switch check {
		case lint.AnalyzerUnusedVariable.Name, lint.AnalyzerUnusedParameter.Name:
			actions = append(actions, f.prefixUnderscore(diag)...)
		case lint.AnalyzerUndeclaredVariable.Name:
			actions = append(actions, f.declare(diag)...)
		case lint.AnalyzerMissingStrict.Name:
			actions = append(actions, f.addPragma(diag, "use strict;"))
		case lint.AnalyzerMissingWarnings.Name:
			actions = append(actions, f.addPragma(diag, "use warnings;"))
		case lint.AnalyzerAssignmentInCondition.Name:
			actions = append(actions, f.compare(diag)...)
		case lint.AnalyzerDeprecatedDefined.Name:
			actions = append(actions, f.dropDefined(diag)...)
		}
		if check != "" && check != lint.SyntaxAnalyzer {
			actions = append(actions, f.suppress(diag, check))
		}
	}

	if len(actions) == 0 {
		return nil, nil
	}
	return actions, nil
}

// fixer builds quick fixes for one document snapshot.
type fixer struct {
	uri  string
	snap snapshot
	src  []byte
}

func (f *fixer) action(title string, diag protocol.Diagnostic, preferred bool, edits ...protocol.TextEdit) protocol.CodeAction {
	kind := protocol.CodeActionKindQuickFix
	a := protocol.CodeAction{
		Title:       title,
		Kind:        &kind,
		Diagnostics: []protocol.Diagnostic{diag},
		Edit: &protocol.WorkspaceEdit{
			Changes: map[string][]protocol.TextEdit{f.uri: edits},
		},
	}
	if preferred {
		a.IsPreferred = boolPtr(true)
	}
	return a
}

func (f *fixer) insert(offset int, text string) protocol.TextEdit {
	pos := offsetToPosition(f.snap.lines, offset)
	return protocol.TextEdit{Range: protocol.Range{Start: pos, End: pos}, NewText: text}
}

func (f *fixer) replace(span ast.Span, text string) protocol.TextEdit {
	return protocol.TextEdit{Range: spanToRange(f.snap.lines, span.Start, span.End), NewText: text}
}

// variableAt returns the Variable node starting at the diagnostic and its
// ancestors.
func (f *fixer) variableAt(diag protocol.Diagnostic) (ast.NodeID, []ast.NodeID) {
	id, path := f.nodeAt(diag.Range.Start)
	if f.snap.tree.Kind(id) != ast.Variable {
		return ast.NoNode, nil
	}
	return id, path
}

func (f *fixer) nodeAt(pos protocol.Position) (ast.NodeID, []ast.NodeID) {
	if f.snap.tree == nil {
		return ast.NoNode, nil
	}
	return astutil.NodeAt(f.snap.tree, positionToOffset(f.snap.lines, pos))
}

// prefixUnderscore renames an unused variable to mark it intentionally
// unused.
func (f *fixer) prefixUnderscore(diag protocol.Diagnostic) []protocol.CodeAction {
	id, _ := f.variableAt(diag)
	n := f.snap.tree.Node(id)
	if n == nil || strings.HasPrefix(n.Name, "_") {
		return nil
	}
	title := fmt.Sprintf("Prefix '%s' with underscore", n.Sigil+n.Name)
	return []protocol.CodeAction{
		f.action(title, diag, true, f.insert(n.Span.Start+len(n.Sigil), "_")),
	}
}

// declare adds a lexical declaration for an undeclared variable. A plain
// assignment gets "my" in place; any other use gets a declaration on the line
// before the statement.
func (f *fixer) declare(diag protocol.Diagnostic) []protocol.CodeAction {
	id, path := f.variableAt(diag)
	t := f.snap.tree
	n := t.Node(id)
	if n == nil {
		return nil
	}
	name := n.Sigil + n.Name
	stmt := enclosingStatement(t, id, path)
	if stmt == ast.NoNode {
		return nil
	}

	if len(path) > 0 {
		parent := path[len(path)-1]
		p := t.Node(parent)
		if p.Kind == ast.Assignment && p.Op == "=" && t.Left(parent) == id && t.Node(stmt).Span.Start == n.Span.Start {
			return []protocol.CodeAction{
				f.action(fmt.Sprintf("Declare '%s' with 'my'", name), diag, true, f.insert(n.Span.Start, "my ")),
				f.action(fmt.Sprintf("Declare '%s' with 'our'", name), diag, false, f.insert(n.Span.Start, "our ")),
			}
		}
	}

	at := t.Node(stmt).Span.Start
	indent := lineIndent(f.src, f.snap.lines, at)
	lineStart := f.snap.lines.LineStart(f.snap.lines.Line(at))
	return []protocol.CodeAction{
		f.action(fmt.Sprintf("Declare '%s' with 'my'", name), diag, true,
			f.insert(lineStart, fmt.Sprintf("%smy %s;\n", indent, name))),
		f.action(fmt.Sprintf("Declare '%s' with 'our'", name), diag, false,
			f.insert(lineStart, fmt.Sprintf("%sour %s;\n", indent, name))),
	}
}

// addPragma inserts a pragma at the top of the file, after any #! line.
func (f *fixer) addPragma(diag protocol.Diagnostic, pragma string) protocol.CodeAction {
	at := 0
	if strings.HasPrefix(f.snap.content, "#!") {
		at = f.snap.lines.LineStart(2)
	}
	title := fmt.Sprintf("Add '%s'", strings.TrimSuffix(pragma, ";"))
	return f.action(title, diag, true, f.insert(at, pragma+"\n"))
}

// compare rewrites an assignment in a condition as a comparison, or keeps it
// and adds parentheses to show it is intended.
func (f *fixer) compare(diag protocol.Diagnostic) []protocol.CodeAction {
	t := f.snap.tree
	id, path := f.nodeAt(diag.Range.Start)
	assign := ast.NoNode
	for _, cand := range append(slices.Clone(path), id) {
		if t.Kind(cand) == ast.Assignment && t.Node(cand).Span.Start == positionToOffset(f.snap.lines, diag.Range.Start) {
			assign = cand
			break
		}
	}
	if assign == ast.NoNode {
		return nil
	}
	lhs, rhs := t.Node(t.Left(assign)), t.Node(t.Right(assign))
	if lhs == nil || rhs == nil || lhs.Span.End > rhs.Span.Start {
		return nil
	}
	between := string(f.src[lhs.Span.End:rhs.Span.Start])
	eq := strings.IndexByte(between, '=')
	if eq < 0 {
		return nil
	}
	op := "=="
	if rhs.Kind == ast.String || rhs.Kind == ast.Interpolated {
		op = "eq"
	}
	opAt := lhs.Span.End + eq
	span := t.Node(assign).Span
	return []protocol.CodeAction{
		f.action(fmt.Sprintf("Change to comparison (%s)", op), diag, true,
			f.replace(ast.Span{Start: opAt, End: opAt + 1}, op)),
		f.action("Keep assignment (add parentheses)", diag, false,
			f.insert(span.Start, "("), f.insert(span.End, ")")),
	}
}

// dropDefined replaces "defined @a" with "@a".
func (f *fixer) dropDefined(diag protocol.Diagnostic) []protocol.CodeAction {
	t := f.snap.tree
	id, path := f.nodeAt(diag.Range.Start)
	for _, cand := range append(slices.Clone(path), id) {
		n := t.Node(cand)
		if n == nil || n.Kind != ast.FunctionCall || n.Name != "defined" || len(n.Kids) == 0 {
			continue
		}
		arg := n.Kids[0]
		if a := t.Node(arg); a != nil && a.Kind == ast.List && len(a.Kids) == 1 {
			arg = a.Kids[0]
		}
		text := t.Text(arg, f.src)
		return []protocol.CodeAction{
			f.action(fmt.Sprintf("Replace with '%s'", text), diag, true, f.replace(n.Span, text)),
		}
	}
	return nil
}

// suppress adds a "# nolint:check" comment to the end of the diagnostic
// line, or extends a directive already there.
func (f *fixer) suppress(diag protocol.Diagnostic, check string) protocol.CodeAction {
	title := fmt.Sprintf("Suppress with # nolint:%s", check)
	line := int(diag.Range.Start.Line) + 1
	lines := f.snap.lines

	if c, ok := commentOnLine(f.snap.tree, lines, line); ok {
		if names, ok := lint.ParseNolint(c.Text); ok && len(names) > 0 {
			i := strings.Index(c.Text, "nolint:") + len("nolint:")
			end := i + len(c.Text[i:])
			if j := strings.IndexAny(c.Text[i:], " \t"); j >= 0 {
				end = i + j
			}
			return f.action(title, diag, false, f.insert(c.Span.Start+end, ","+check))
		}
		return f.action(title, diag, false, f.insert(c.Span.Start, "# nolint:"+check+" "))
	}

	end := lines.LineStart(line + 1)
	if line < lines.Count() {
		end-- // before the newline
	}
	if end > 0 && end <= len(f.src) && f.src[end-1] == '\r' {
		end--
	}
	return f.action(title, diag, false, f.insert(end, " # nolint:"+check))
}

// enclosingStatement returns the innermost statement, a direct child of a
// block or the program, containing id.
func enclosingStatement(t *ast.Tree, id ast.NodeID, path []ast.NodeID) ast.NodeID {
	chain := append(slices.Clone(path), id)
	stmt := ast.NoNode
	for i := 1; i < len(chain); i++ {
		switch t.Kind(chain[i-1]) {
		case ast.Program, ast.Block:
			stmt = chain[i]
		}
	}
	return stmt
}

func commentOnLine(t *ast.Tree, lines *token.Lines, line int) (ast.Comment, bool) {
	if t == nil {
		return ast.Comment{}, false
	}
	for _, c := range t.Comments {
		if lines.Line(c.Span.Start) == line {
			return c, true
		}
	}
	return ast.Comment{}, false
}

func lineIndent(src []byte, lines *token.Lines, offset int) string {
	start := lines.LineStart(lines.Line(offset))
	end := start
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return string(src[start:end])
}
