// Copyright © 2024 The perlscope authors

package lsp

import (
	"sort"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/astutil"
)

// textDocumentDocumentSymbol handles the textDocument/documentSymbol request.
// Packages are returned with the subroutines they contain as children.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	snap := doc.snapshot()
	if snap.tree == nil {
		return nil, nil
	}
	return documentSymbols(snap), nil
}

// packageScope is the byte range a package declaration applies to.
type packageScope struct {
	span ast.Span
	sym  *protocol.DocumentSymbol
}

func documentSymbols(snap snapshot) []protocol.DocumentSymbol {
	t := snap.tree
	src := []byte(snap.content)

	var packages []*packageScope
	var open *packageScope // a "package Foo;" statement runs until the next one
	astutil.Inspect(t, ast.Package, func(id ast.NodeID, _ int) {
		n := t.Node(id)
		sym := &protocol.DocumentSymbol{
			Name:           n.Name,
			Kind:           protocol.SymbolKindNamespace,
			SelectionRange: nameRange(snap, id, n.Name),
		}
		ps := &packageScope{span: n.Span, sym: sym}
		if !t.Kid(id, 0).IsValid() {
			if open != nil {
				open.span.End = n.Span.Start
			}
			ps.span.End = len(src)
			open = ps
		}
		packages = append(packages, ps)
	})
	for _, ps := range packages {
		ps.sym.Range = spanToRange(snap.lines, ps.span.Start, trimEnd(src, ps.span.End))
	}

	var top []*protocol.DocumentSymbol
	astutil.Inspect(t, ast.Subroutine, func(id ast.NodeID, _ int) {
		n := t.Node(id)
		if n.Name == "" {
			return
		}
		kind := protocol.SymbolKindFunction
		if n.Op == "method" {
			kind = protocol.SymbolKindMethod
		}
		sym := protocol.DocumentSymbol{
			Name:           n.Name,
			Kind:           kind,
			Range:          spanToRange(snap.lines, n.Span.Start, n.Span.End),
			SelectionRange: nameRange(snap, id, n.Name),
		}
		if sig := t.Kid(id, 0); sig.IsValid() {
			detail := t.Text(sig, src)
			sym.Detail = &detail
		}
		if ps := innermostPackage(packages, n.Span.Start); ps != nil {
			ps.sym.Children = append(ps.sym.Children, sym)
			return
		}
		top = append(top, &sym)
	})

	// Merge packages and top-level subs in source order.
	for _, ps := range packages {
		top = append(top, ps.sym)
	}
	out := make([]protocol.DocumentSymbol, 0, len(top))
	for _, sym := range top {
		out = append(out, *sym)
	}
	sortSymbols(out)
	return out
}

func innermostPackage(packages []*packageScope, offset int) *packageScope {
	var best *packageScope
	for _, ps := range packages {
		if !ps.span.Contains(offset) {
			continue
		}
		if best == nil || ps.span.Start >= best.span.Start {
			best = ps
		}
	}
	return best
}

// nameRange locates name within the text of id, falling back to the start of
// the node.
func nameRange(snap snapshot, id ast.NodeID, name string) protocol.Range {
	n := snap.tree.Node(id)
	text := snap.tree.Text(id, []byte(snap.content))
	start := n.Span.Start
	if i := strings.Index(text, name); i >= 0 && name != "" {
		start += i
	}
	return spanToRange(snap.lines, start, start+len(name))
}

// trimEnd backs end up over trailing whitespace.
func trimEnd(src []byte, end int) int {
	end = min(end, len(src))
	for end > 0 && strings.ContainsRune(" \t\r\n", rune(src[end-1])) {
		end--
	}
	return end
}

func sortSymbols(syms []protocol.DocumentSymbol) {
	sort.SliceStable(syms, func(i, j int) bool {
		a, b := syms[i].Range.Start, syms[j].Range.Start
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Character < b.Character
	})
}
