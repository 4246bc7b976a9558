// Copyright © 2024 The perlscope authors

package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// codeActionsFor opens text, takes the first published diagnostic with the
// given code and requests the code actions for it.
func codeActionsFor(t *testing.T, text, code string) (string, []protocol.CodeAction) {
	t.Helper()
	s := testServer()
	uri := "file:///test/actions.pl"
	diags := withCode(open(t, s, uri, text), code)
	require.NotEmpty(t, diags, "no %s diagnostic", code)
	diag := diags[0]

	result, err := s.textDocumentCodeAction(mockContext(), &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Range:        diag.Range,
		Context: protocol.CodeActionContext{
			Diagnostics: []protocol.Diagnostic{diag},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	actions, ok := result.([]protocol.CodeAction)
	require.True(t, ok)
	return uri, actions
}

func findAction(t *testing.T, actions []protocol.CodeAction, title string) protocol.CodeAction {
	t.Helper()
	var titles []string
	for _, a := range actions {
		if a.Title == title {
			return a
		}
		titles = append(titles, a.Title)
	}
	require.Failf(t, "action not found", "no %q among %q", title, titles)
	return protocol.CodeAction{}
}

func insertAt(p protocol.Position, text string) protocol.TextEdit {
	return protocol.TextEdit{Range: protocol.Range{Start: p, End: p}, NewText: text}
}

func TestCodeActionPrefixUnderscore(t *testing.T) {
	uri, actions := codeActionsFor(t, header+"my $count = 1;\n", "unused-variable")
	a := findAction(t, actions, "Prefix '$count' with underscore")
	require.NotNil(t, a.IsPreferred)
	assert.True(t, *a.IsPreferred)
	assert.Equal(t, protocol.CodeActionKindQuickFix, *a.Kind)
	assert.Equal(t, []protocol.TextEdit{insertAt(pos(2, 4), "_")}, a.Edit.Changes[uri])
	require.Len(t, a.Diagnostics, 1)
	assert.Equal(t, "unused-variable", a.Diagnostics[0].Code.Value)
}

func TestCodeActionPrefixUnderscoreParameter(t *testing.T) {
	uri, actions := codeActionsFor(t, header+"use feature 'signatures';\nsub f ($x, $y) { return $x; }\n", "unused-parameter")
	a := findAction(t, actions, "Prefix '$y' with underscore")
	assert.Equal(t, []protocol.TextEdit{insertAt(pos(3, 12), "_")}, a.Edit.Changes[uri])
}

func TestCodeActionDeclareAssignment(t *testing.T) {
	uri, actions := codeActionsFor(t, header+"$count = 1;\nprint $count;\n", "undeclared-variable")
	my := findAction(t, actions, "Declare '$count' with 'my'")
	assert.Equal(t, []protocol.TextEdit{insertAt(pos(2, 0), "my ")}, my.Edit.Changes[uri])
	our := findAction(t, actions, "Declare '$count' with 'our'")
	assert.Equal(t, []protocol.TextEdit{insertAt(pos(2, 0), "our ")}, our.Edit.Changes[uri])
	assert.Nil(t, our.IsPreferred)
}

func TestCodeActionDeclareBeforeStatement(t *testing.T) {
	uri, actions := codeActionsFor(t, header+"sub f {\n    return $total + 1;\n}\n", "undeclared-variable")
	a := findAction(t, actions, "Declare '$total' with 'my'")
	assert.Equal(t, []protocol.TextEdit{insertAt(pos(3, 0), "    my $total;\n")}, a.Edit.Changes[uri])
}

func TestCodeActionSuppress(t *testing.T) {
	uri, actions := codeActionsFor(t, header+"my $count = 1;\n", "unused-variable")
	a := findAction(t, actions, "Suppress with # nolint:unused-variable")
	assert.Nil(t, a.IsPreferred)
	assert.Equal(t, []protocol.TextEdit{insertAt(pos(2, 14), " # nolint:unused-variable")}, a.Edit.Changes[uri])
}

func TestCodeActionSuppressLastLine(t *testing.T) {
	uri, actions := codeActionsFor(t, header+"my $count = 1;", "unused-variable")
	a := findAction(t, actions, "Suppress with # nolint:unused-variable")
	assert.Equal(t, []protocol.TextEdit{insertAt(pos(2, 14), " # nolint:unused-variable")}, a.Edit.Changes[uri])
}

func TestCodeActionSuppressExtendsDirective(t *testing.T) {
	uri, actions := codeActionsFor(t, header+"my $count = 1; # nolint:undeclared-variable\n", "unused-variable")
	a := findAction(t, actions, "Suppress with # nolint:unused-variable")
	assert.Equal(t, []protocol.TextEdit{insertAt(pos(2, 43), ",unused-variable")}, a.Edit.Changes[uri])
}

func TestCodeActionSuppressBeforeComment(t *testing.T) {
	uri, actions := codeActionsFor(t, header+"my $count = 1; # counter\n", "unused-variable")
	a := findAction(t, actions, "Suppress with # nolint:unused-variable")
	assert.Equal(t, []protocol.TextEdit{insertAt(pos(2, 15), "# nolint:unused-variable ")}, a.Edit.Changes[uri])
}

func TestCodeActionAddPragma(t *testing.T) {
	t.Run("top of file", func(t *testing.T) {
		uri, actions := codeActionsFor(t, "print 1;\n", "missing-strict")
		a := findAction(t, actions, "Add 'use strict'")
		assert.Equal(t, []protocol.TextEdit{insertAt(pos(0, 0), "use strict;\n")}, a.Edit.Changes[uri])
	})
	t.Run("after shebang", func(t *testing.T) {
		uri, actions := codeActionsFor(t, "#!/usr/bin/perl\nprint 1;\n", "missing-warnings")
		a := findAction(t, actions, "Add 'use warnings'")
		assert.Equal(t, []protocol.TextEdit{insertAt(pos(1, 0), "use warnings;\n")}, a.Edit.Changes[uri])
	})
}

func TestCodeActionAssignmentInCondition(t *testing.T) {
	uri, actions := codeActionsFor(t, header+"my $x = 0;\nif ($x = 1) { $x++; }\n", "assignment-in-condition")

	cmp := findAction(t, actions, "Change to comparison (==)")
	assert.Equal(t, []protocol.TextEdit{{
		Range:   protocol.Range{Start: pos(3, 7), End: pos(3, 8)},
		NewText: "==",
	}}, cmp.Edit.Changes[uri])

	keep := findAction(t, actions, "Keep assignment (add parentheses)")
	assert.Equal(t, []protocol.TextEdit{
		insertAt(pos(3, 4), "("),
		insertAt(pos(3, 10), ")"),
	}, keep.Edit.Changes[uri])
}

func TestCodeActionStringComparison(t *testing.T) {
	_, actions := codeActionsFor(t, header+"my $s = '';\nif ($s = 'a') { $s .= 'b'; }\n", "assignment-in-condition")
	findAction(t, actions, "Change to comparison (eq)")
}

func TestCodeActionDeprecatedDefined(t *testing.T) {
	uri, actions := codeActionsFor(t, header+"my @a = (1);\nprint 1 if defined @a;\n", "deprecated-defined")
	a := findAction(t, actions, "Replace with '@a'")
	edits := a.Edit.Changes[uri]
	require.Len(t, edits, 1)
	assert.Equal(t, "@a", edits[0].NewText)
	assert.Equal(t, protocol.Range{Start: pos(3, 11), End: pos(3, 21)}, edits[0].Range)
}

func TestCodeActionNoDiagnostics(t *testing.T) {
	s := testServer()
	doc := openDoc(s, "file:///test/empty.pl", "print 1;\n")
	result, err := s.textDocumentCodeAction(mockContext(), &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: doc.URI},
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCodeActionOnlyFilter(t *testing.T) {
	s := testServer()
	uri := "file:///test/only.pl"
	diags := open(t, s, uri, header+"my $count = 1;\n")
	require.NotEmpty(t, diags)
	result, err := s.textDocumentCodeAction(mockContext(), &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Range:        diags[0].Range,
		Context: protocol.CodeActionContext{
			Diagnostics: diags,
			Only:        []protocol.CodeActionKind{protocol.CodeActionKindRefactor},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCodeActionForeignDiagnostic(t *testing.T) {
	s := testServer()
	uri := "file:///test/foreign.pl"
	openDoc(s, uri, "my $count = 1;\n")
	diag := protocol.Diagnostic{
		Range:   protocol.Range{Start: pos(0, 3), End: pos(0, 9)},
		Source:  strPtr("perlcritic"),
		Code:    &protocol.IntegerOrString{Value: "unused-variable"},
		Message: "unused",
	}
	result, err := s.textDocumentCodeAction(mockContext(), &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Range:        diag.Range,
		Context:      protocol.CodeActionContext{Diagnostics: []protocol.Diagnostic{diag}},
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCodeActionUnknownDocument(t *testing.T) {
	s := testServer()
	result, err := s.textDocumentCodeAction(mockContext(), &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///missing.pl"},
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}
