// Copyright © 2024 The perlscope authors

package lint

import (
	"slices"
	"strings"

	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/parser/token"
)

// nolint is a "# nolint" or "# nolint:check1,check2" comment. It
// suppresses diagnostics reported on its own line.
type nolint struct {
	span ast.Span
	line int
	// names is empty for a directive suppressing every check.
	names []string
	used  map[string]bool
}

func (n *nolint) suppresses(analyzer string) bool {
	if len(n.names) == 0 {
		n.used[""] = true
		return true
	}
	if slices.Contains(n.names, analyzer) {
		n.used[analyzer] = true
		return true
	}
	return false
}

// ParseNolint parses the text of a comment, including the leading '#'. ok
// reports whether the comment is a nolint directive. names is empty for a
// directive that suppresses every check.
func ParseNolint(comment string) (names []string, ok bool) {
	text := strings.TrimSpace(strings.TrimLeft(comment, "#"))
	rest, ok := strings.CutPrefix(text, "nolint")
	if !ok {
		return nil, false
	}
	if rest == "" || rest[0] == ' ' || rest[0] == '\t' {
		return nil, true
	}
	rest, ok = strings.CutPrefix(rest, ":")
	if !ok {
		return nil, false
	}
	if i := strings.IndexAny(rest, " \t"); i >= 0 {
		rest = rest[:i]
	}
	for _, name := range strings.Split(rest, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names, len(names) > 0
}

// parseNolint returns the directive in comment c, or nil.
func parseNolint(c ast.Comment, lines *token.Lines) *nolint {
	names, ok := ParseNolint(c.Text)
	if !ok {
		return nil
	}
	return &nolint{
		span:  c.Span,
		line:  lines.Line(c.Span.Start),
		names: names,
		used:  make(map[string]bool),
	}
}

func collectNolint(tree *ast.Tree, lines *token.Lines) map[int]*nolint {
	directives := make(map[int]*nolint)
	for _, c := range tree.Comments {
		if n := parseNolint(c, lines); n != nil {
			directives[n.line] = n
		}
	}
	return directives
}

// filterSuppressed removes diagnostics on lines with # nolint comments.
// When the unused-nolint check is enabled, directives which suppress
// nothing are reported in turn.
func (l *Linter) filterSuppressed(diags []Diagnostic, tree *ast.Tree, lines *token.Lines, filename string) []Diagnostic {
	directives := collectNolint(tree, lines)
	if len(directives) == 0 {
		return diags
	}
	filtered := diags[:0]
	for _, d := range diags {
		if n, ok := directives[d.Pos.Line]; ok && n.suppresses(d.Analyzer) {
			continue
		}
		filtered = append(filtered, d)
	}
	if !slices.Contains(l.Analyzers, AnalyzerUnusedNolint) {
		return filtered
	}
	pass := &Pass{Analyzer: AnalyzerUnusedNolint, Filename: filename, Lines: lines}
	known := append(AnalyzerNames(), SyntaxAnalyzer)
	for _, n := range sortedDirectives(directives) {
		reportUnusedNolint(pass, n, known)
	}
	return append(filtered, pass.diagnostics...)
}

func reportUnusedNolint(pass *Pass, n *nolint, known []string) {
	const note = "remove the directive"
	if len(n.names) == 0 {
		if !n.used[""] {
			pass.ReportWithNotes(pass.diagnosticAt(n.span, "nolint directive does not suppress any diagnostic"), note)
		}
		return
	}
	if slices.Contains(n.names, AnalyzerUnusedNolint.Name) {
		return
	}
	for _, name := range n.names {
		switch {
		case !slices.Contains(known, name):
			pass.ReportWithNotes(pass.diagnosticAt(n.span, "nolint directive references unknown analyzer "+quote(name)),
				"known analyzers are listed by 'perlscope checks'")
		case !n.used[name]:
			pass.ReportWithNotes(pass.diagnosticAt(n.span, "nolint directive for "+name+" does not suppress any diagnostic"), note)
		}
	}
}

func sortedDirectives(directives map[int]*nolint) []*nolint {
	out := make([]*nolint, 0, len(directives))
	for _, n := range directives {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b *nolint) int { return a.line - b.line })
	return out
}

func quote(s string) string {
	return "'" + s + "'"
}
