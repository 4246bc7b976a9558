// Copyright © 2024 The perlscope authors

package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/astutil"
	"github.com/luthersystems/perlscope/parser/token"
)

// textDocumentFoldingRange handles the textDocument/foldingRange request.
// It returns folding ranges for multi-line blocks and literals and for runs
// of comment lines.
func (s *Server) textDocumentFoldingRange(_ *glsp.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	snap := doc.snapshot()
	if snap.tree == nil {
		return nil, nil
	}
	ranges := collectFoldingRanges(snap.tree, snap.lines)
	return append(ranges, commentFoldingRanges(snap.tree, snap.lines, []byte(snap.content))...), nil
}

// collectFoldingRanges emits a region for every block, anonymous hash and
// anonymous array spanning more than one line.
func collectFoldingRanges(t *ast.Tree, lines *token.Lines) []protocol.FoldingRange {
	var ranges []protocol.FoldingRange
	astutil.Walk(t, func(id ast.NodeID, _ []ast.NodeID) bool {
		n := t.Node(id)
		switch n.Kind {
		case ast.Block, ast.HashLiteral, ast.ArrayLiteral:
		default:
			return true
		}
		if n.Span.Len() == 0 {
			return true
		}
		start := lines.Line(n.Span.Start) - 1
		end := lines.Line(n.Span.End-1) - 1
		if end > start {
			kind := string(protocol.FoldingRangeKindRegion)
			ranges = append(ranges, protocol.FoldingRange{
				StartLine: safeUint(start),
				EndLine:   safeUint(end),
				Kind:      &kind,
			})
		}
		return true
	})
	return ranges
}

// commentFoldingRanges produces a folding range for each run of two or more
// lines holding nothing but a comment.
func commentFoldingRanges(t *ast.Tree, lines *token.Lines, src []byte) []protocol.FoldingRange {
	var ranges []protocol.FoldingRange
	blockStart, prev := -1, -1
	flush := func() {
		if blockStart >= 0 && prev > blockStart {
			kind := string(protocol.FoldingRangeKindComment)
			ranges = append(ranges, protocol.FoldingRange{
				StartLine: safeUint(blockStart - 1),
				EndLine:   safeUint(prev - 1),
				Kind:      &kind,
			})
		}
	}
	for _, c := range t.Comments {
		line := lines.Line(c.Span.Start)
		if !ownLine(lines, src, c) {
			continue
		}
		if line != prev+1 || blockStart < 0 {
			flush()
			blockStart = line
		}
		prev = line
	}
	flush()
	return ranges
}

// ownLine reports whether only whitespace precedes c on its line.
func ownLine(lines *token.Lines, src []byte, c ast.Comment) bool {
	start := lines.LineStart(lines.Line(c.Span.Start))
	return strings.TrimSpace(string(src[start:c.Span.Start])) == ""
}
