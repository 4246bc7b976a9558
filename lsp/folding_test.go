// Copyright © 2024 The perlscope authors

package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func foldingRanges(t *testing.T, s *Server, uri, text string) []protocol.FoldingRange {
	t.Helper()
	doc := openDoc(s, uri, text)
	result, err := s.textDocumentFoldingRange(mockContext(), &protocol.FoldingRangeParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: doc.URI},
	})
	require.NoError(t, err)
	return result
}

func filterFoldKind(ranges []protocol.FoldingRange, kind protocol.FoldingRangeKind) []protocol.FoldingRange {
	var out []protocol.FoldingRange
	for _, r := range ranges {
		if r.Kind != nil && *r.Kind == string(kind) {
			out = append(out, r)
		}
	}
	return out
}

func TestFoldingRange(t *testing.T) {
	s := testServer()

	t.Run("single-line block is not folded", func(t *testing.T) {
		result := foldingRanges(t, s, "file:///test/single.pl", "sub foo { return 42 }\n")
		assert.Empty(t, filterFoldKind(result, protocol.FoldingRangeKindRegion))
	})

	t.Run("multi-line sub is folded", func(t *testing.T) {
		result := foldingRanges(t, s, "file:///test/multi.pl", "sub foo {\n    my $x = shift;\n    return $x + 1;\n}\n")
		regions := filterFoldKind(result, protocol.FoldingRangeKindRegion)
		require.Len(t, regions, 1)
		assert.Equal(t, protocol.UInteger(0), regions[0].StartLine)
		assert.Equal(t, protocol.UInteger(3), regions[0].EndLine)
	})

	t.Run("nested literals produce separate ranges", func(t *testing.T) {
		src := "my $cfg = {\n    name => 'x',\n    list => [\n        1,\n        2,\n    ],\n};\n"
		result := foldingRanges(t, s, "file:///test/nested.pl", src)
		regions := filterFoldKind(result, protocol.FoldingRangeKindRegion)
		require.Len(t, regions, 2)
		assert.Equal(t, protocol.UInteger(0), regions[0].StartLine)
		assert.Equal(t, protocol.UInteger(6), regions[0].EndLine)
		assert.Equal(t, protocol.UInteger(2), regions[1].StartLine)
		assert.Equal(t, protocol.UInteger(5), regions[1].EndLine)
	})

	t.Run("comment runs", func(t *testing.T) {
		src := "# one\n# two\n# three\nmy $x = 1; # trailing\n# alone\n\n# four\n# five\n"
		result := foldingRanges(t, s, "file:///test/comments.pl", src)
		comments := filterFoldKind(result, protocol.FoldingRangeKindComment)
		require.Len(t, comments, 2)
		assert.Equal(t, protocol.UInteger(0), comments[0].StartLine)
		assert.Equal(t, protocol.UInteger(2), comments[0].EndLine)
		assert.Equal(t, protocol.UInteger(6), comments[1].StartLine)
		assert.Equal(t, protocol.UInteger(7), comments[1].EndLine)
	})

	t.Run("unknown document", func(t *testing.T) {
		result, err := s.textDocumentFoldingRange(mockContext(), &protocol.FoldingRangeParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///missing.pl"},
		})
		require.NoError(t, err)
		assert.Nil(t, result)
	})
}

func TestDocumentSymbols(t *testing.T) {
	s := testServer()
	src := "sub helper { 1 }\n" +
		"package Foo;\n" +
		"sub new ($class) { return bless {}, $class }\n" +
		"package Bar {\n" +
		"    sub baz { 2 }\n" +
		"}\n"
	doc := openDoc(s, "file:///test/symbols.pl", src)
	result, err := s.textDocumentDocumentSymbol(mockContext(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: doc.URI},
	})
	require.NoError(t, err)
	syms, ok := result.([]protocol.DocumentSymbol)
	require.True(t, ok)
	require.Len(t, syms, 3)

	helper := syms[0]
	assert.Equal(t, "helper", helper.Name)
	assert.Equal(t, protocol.SymbolKindFunction, helper.Kind)
	assert.Equal(t, protocol.Range{Start: pos(0, 4), End: pos(0, 10)}, helper.SelectionRange)
	assert.Nil(t, helper.Detail)

	foo := syms[1]
	assert.Equal(t, "Foo", foo.Name)
	assert.Equal(t, protocol.SymbolKindNamespace, foo.Kind)
	assert.Equal(t, pos(5, 1), foo.Range.End)
	require.Len(t, foo.Children, 1)
	assert.Equal(t, "new", foo.Children[0].Name)
	require.NotNil(t, foo.Children[0].Detail)
	assert.Contains(t, *foo.Children[0].Detail, "$class")

	bar := syms[2]
	assert.Equal(t, "Bar", bar.Name)
	assert.Equal(t, protocol.Range{Start: pos(3, 0), End: pos(5, 1)}, bar.Range)
	require.Len(t, bar.Children, 1)
	assert.Equal(t, "baz", bar.Children[0].Name)
}

func TestDocumentSymbolsSuccessivePackages(t *testing.T) {
	s := testServer()
	src := "package A;\nsub one { 1 }\n\npackage B;\nsub two { 2 }\n"
	doc := openDoc(s, "file:///test/two.pl", src)
	result, err := s.textDocumentDocumentSymbol(mockContext(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: doc.URI},
	})
	require.NoError(t, err)
	syms := result.([]protocol.DocumentSymbol)
	require.Len(t, syms, 2)
	assert.Equal(t, protocol.Range{Start: pos(0, 0), End: pos(1, 13)}, syms[0].Range)
	require.Len(t, syms[0].Children, 1)
	assert.Equal(t, "one", syms[0].Children[0].Name)
	require.Len(t, syms[1].Children, 1)
	assert.Equal(t, "two", syms[1].Children[0].Name)
}
