// Copyright © 2024 The perlscope authors

package lint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/luthersystems/perlscope/analysis"
	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/pragma"
)

// issueAnalyzer returns an Analyzer reporting the scope issues of kind.
func issueAnalyzer(kind analysis.IssueKind, severity Severity, doc string) *Analyzer {
	return &Analyzer{
		Name:     kind.String(),
		Doc:      doc,
		Severity: severity,
		Run: func(pass *Pass) error {
			for _, issue := range pass.Issues {
				if issue.Kind == kind {
					pass.ReportIssue(issue)
				}
			}
			return nil
		},
	}
}

// AnalyzerVariableShadowing reports a lexical declaration hiding one of the
// same name from an enclosing scope.
var AnalyzerVariableShadowing = issueAnalyzer(analysis.VariableShadowing, SeverityWarning,
	"Warn when a declaration shadows a variable from an enclosing scope.\n\nAn inner `my $x` hides the outer `$x` until the end of the block. Reads and writes that were meant for the outer variable silently go to the new one.")

// AnalyzerUnusedVariable reports lexical variables that are never read.
var AnalyzerUnusedVariable = issueAnalyzer(analysis.UnusedVariable, SeverityWarning,
	"Warn when a lexical variable is declared but never used.\n\nPackage variables declared with `our` or `use vars` are exempt, as are names starting with an underscore.")

// AnalyzerUndeclaredVariable reports variables used without a declaration
// under `use strict vars`.
var AnalyzerUndeclaredVariable = issueAnalyzer(analysis.UndeclaredVariable, SeverityError,
	"Report variables used without declaration under `use strict`.\n\nPerl refuses to compile such code. Special variables like `$_`, `@ARGV` and `%ENV`, package qualified names and names imported by `use vars` need no declaration.")

// AnalyzerVariableRedeclaration reports a second declaration of a name in
// the same scope.
var AnalyzerVariableRedeclaration = issueAnalyzer(analysis.VariableRedeclaration, SeverityError,
	"Report a variable declared twice in the same scope.\n\nThe second `my` masks the first for the rest of the scope, which Perl warns about and which is rarely intended.")

// AnalyzerDuplicateParameter reports a name repeated in a signature.
var AnalyzerDuplicateParameter = issueAnalyzer(analysis.DuplicateParameter, SeverityError,
	"Report a parameter name repeated in a subroutine signature.")

// AnalyzerParameterShadowsGlobal reports a signature parameter hiding a
// variable of an enclosing scope.
var AnalyzerParameterShadowsGlobal = issueAnalyzer(analysis.ParameterShadowsGlobal, SeverityWarning,
	"Warn when a signature parameter shadows a variable of an enclosing scope.")

// AnalyzerUnusedParameter reports signature parameters the body never uses.
var AnalyzerUnusedParameter = issueAnalyzer(analysis.UnusedParameter, SeverityWarning,
	"Warn when a signature parameter is never used.\n\nPrefix the name with an underscore to mark a parameter as intentionally unused.")

// AnalyzerUnquotedBareword reports barewords under `use strict subs`.
var AnalyzerUnquotedBareword = issueAnalyzer(analysis.UnquotedBareword, SeverityError,
	"Report barewords not allowed under `use strict`.\n\nSubroutines declared in the file, constants, imported functions, Perl built-ins and hash keys are accepted. Anything else must be quoted or called with parentheses.")

// AnalyzerUninitializedVariable reports reads of a variable before anything
// was assigned to it.
var AnalyzerUninitializedVariable = issueAnalyzer(analysis.UninitializedVariable, SeverityWarning,
	"Warn when a scalar is read before it was assigned.\n\nArrays and hashes start out empty and are exempt. Assignment through a reference or a function argument counts as initialization.")

// AnalyzerMissingStrict reports files which never enable strict mode.
var AnalyzerMissingStrict = &Analyzer{
	Name:     "missing-strict",
	Doc:      "Suggest `use strict` in files that never enable it.\n\nModules that imply strict, such as Moose, Moo, Mojo::Base and Modern::Perl, and `use v5.12` or later count as enabling it.",
	Severity: SeverityInfo,
	Run: func(pass *Pass) error {
		if isEmpty(pass.Tree) || pass.Pragmas.Any(pragma.State.StrictAny) {
			return nil
		}
		pass.ReportWithNotes(pass.diagnosticAt(ast.Span{}, "Missing 'use strict' pragma"),
			"Add 'use strict;' near the top of the file")
		return nil
	},
}

// AnalyzerMissingWarnings reports files which never enable warnings.
var AnalyzerMissingWarnings = &Analyzer{
	Name:     "missing-warnings",
	Doc:      "Suggest `use warnings` in files that never enable it.\n\nModules that imply warnings and `use v5.35` or later count as enabling it.",
	Severity: SeverityInfo,
	Run: func(pass *Pass) error {
		if isEmpty(pass.Tree) || pass.Pragmas.Any(func(s pragma.State) bool { return s.Warnings }) {
			return nil
		}
		pass.ReportWithNotes(pass.diagnosticAt(ast.Span{}, "Missing 'use warnings' pragma"),
			"Add 'use warnings;' near the top of the file")
		return nil
	},
}

// AnalyzerAssignmentInCondition reports `if ($x = 1)`, which is usually a
// mistyped comparison.
var AnalyzerAssignmentInCondition = &Analyzer{
	Name:     "assignment-in-condition",
	Doc:      "Warn when the condition of `if`, `unless`, `while` or `until` is a plain assignment.\n\nThe assignment is most likely a mistyped `==` or `eq`. Reading a line or iterating with `each`, `shift` or `readdir` in a `while` loop is idiomatic and exempt, and so is wrapping the assignment in a second pair of parentheses.",
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		t := pass.Tree
		WalkKinds(t, func(id ast.NodeID, _ []ast.NodeID) {
			n := t.Node(id)
			loop := n.Op == "while" || n.Op == "until"
			if !loop && n.Op != "if" && n.Op != "unless" {
				return
			}
			for _, cond := range Conditions(t, id) {
				c := t.Node(cond)
				if c.Kind != ast.Assignment || c.Op != "=" {
					continue
				}
				if loop && isIterator(t, t.Right(cond)) {
					continue
				}
				pass.ReportWithNotes(pass.diagnosticAt(c.Span, fmt.Sprintf("Assignment in %s condition", n.Op)),
					"Use '==' or 'eq' to compare, or wrap the assignment in extra parentheses if it is intended")
			}
		}, ast.If, ast.While, ast.StatementModifier)
		return nil
	},
}

// AnalyzerDeprecatedDefined reports `defined` applied to an aggregate.
var AnalyzerDeprecatedDefined = &Analyzer{
	Name:     "deprecated-defined",
	Doc:      "Warn about `defined @array` and `defined %hash`.\n\nPerl made these a compile error in 5.22. Test the aggregate in boolean context instead.",
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		t := pass.Tree
		WalkKinds(t, func(id ast.NodeID, _ []ast.NodeID) {
			n := t.Node(id)
			if n.Name != "defined" || len(n.Kids) == 0 {
				return
			}
			arg := t.Node(unwrapParens(t, n.Kids[0]))
			if arg == nil || arg.Kind != ast.Variable || (arg.Sigil != "@" && arg.Sigil != "%") {
				return
			}
			pass.ReportWithNotes(pass.diagnosticAt(n.Span, fmt.Sprintf("Use of 'defined' on %s is deprecated", arg.Sigil+arg.Name)),
				fmt.Sprintf("Test the %s directly: 'if (%s)'", aggregateNoun(arg.Sigil), arg.Sigil+arg.Name))
		}, ast.FunctionCall)
		return nil
	},
}

// AnalyzerDeprecatedArrayBase reports use of the `$[` array base variable.
var AnalyzerDeprecatedArrayBase = &Analyzer{
	Name:     "deprecated-array-base",
	Doc:      "Warn about the `$[` array base variable.\n\nAssigning to `$[` has been a no-op since Perl 5.30 and arrays always start at index 0.",
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		t := pass.Tree
		WalkKinds(t, func(id ast.NodeID, _ []ast.NodeID) {
			n := t.Node(id)
			if n.Sigil == "$" && n.Name == "[" {
				pass.ReportWithNotes(pass.diagnosticAt(n.Span, "Use of deprecated variable '$['"),
					"Arrays always start at index 0; remove the assignment")
			}
		}, ast.Variable)
		return nil
	},
}

// AnalyzerUnusedNolint reports nolint directives which suppress nothing.
// The framework applies it after every other analyzer has run.
var AnalyzerUnusedNolint = &Analyzer{
	Name:     "unused-nolint",
	Doc:      "Warn about `# nolint` directives that do not suppress any diagnostic.\n\nStale directives hide future problems on the same line. Directives naming an unknown check are reported too.",
	Severity: SeverityWarning,
	Run:      func(*Pass) error { return nil },
}

// DefaultAnalyzers returns the built-in set of lint checks.
func DefaultAnalyzers() []*Analyzer {
	return []*Analyzer{
		AnalyzerVariableShadowing,
		AnalyzerUnusedVariable,
		AnalyzerUndeclaredVariable,
		AnalyzerVariableRedeclaration,
		AnalyzerDuplicateParameter,
		AnalyzerParameterShadowsGlobal,
		AnalyzerUnusedParameter,
		AnalyzerUnquotedBareword,
		AnalyzerUninitializedVariable,
		AnalyzerMissingStrict,
		AnalyzerMissingWarnings,
		AnalyzerAssignmentInCondition,
		AnalyzerDeprecatedDefined,
		AnalyzerDeprecatedArrayBase,
		AnalyzerUnusedNolint,
	}
}

// iterators assign a fresh value on each pass of a while loop.
var iterators = map[string]bool{
	"readline": true, "each": true, "shift": true, "pop": true,
	"readdir": true, "glob": true, "splice": true, "sysread": true,
}

func isIterator(t *ast.Tree, id ast.NodeID) bool {
	n := t.Node(id)
	if n == nil {
		return false
	}
	switch n.Kind {
	case ast.Readline:
		return true
	case ast.FunctionCall, ast.MethodCall:
		return iterators[n.Name] || n.Kind == ast.MethodCall
	}
	return false
}

func aggregateNoun(sigil string) string {
	if sigil == "%" {
		return "hash"
	}
	return "array"
}

func isEmpty(t *ast.Tree) bool {
	root := t.Node(t.Root)
	return root == nil || len(root.Kids) == 0
}

// AnalyzerNames returns a sorted list of all default analyzer names.
func AnalyzerNames() []string {
	analyzers := DefaultAnalyzers()
	names := make([]string, len(analyzers))
	for i, a := range analyzers {
		names[i] = a.Name
	}
	sort.Strings(names)
	return names
}

// AnalyzerDoc returns a formatted documentation string for all analyzers.
// When verbose is set the full description, wrapped to width, follows each
// summary line.
func AnalyzerDoc(verbose bool, width int) string {
	var b strings.Builder
	for _, a := range DefaultAnalyzers() {
		fmt.Fprintf(&b, "  %s (%s)\n", a.Name, a.Severity)
		summary, rest, _ := strings.Cut(a.Doc, "\n")
		fmt.Fprintf(&b, "%s\n", indent.String(wordwrap.String(summary, width-4), 4))
		if rest = strings.TrimSpace(rest); verbose && rest != "" {
			fmt.Fprintf(&b, "\n%s\n", indent.String(wordwrap.String(rest, width-4), 4))
		}
		b.WriteString("\n")
	}
	return b.String()
}
