// Copyright © 2024 The perlscope authors

package lsp

import (
	"net/url"
	"path/filepath"
	"strings"

	"fortio.org/safecast"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/perlscope/parser/token"
)

// safeUint converts a non-negative int to protocol.UInteger, clamping
// values out of range.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	v, err := safecast.Conv[protocol.UInteger](n)
	if err != nil {
		return protocol.UInteger(^uint32(0))
	}
	return v
}

// offsetToPosition converts a byte offset to a 0-based LSP position with a
// UTF-16 character column.
func offsetToPosition(lines *token.Lines, offset int) protocol.Position {
	return protocol.Position{
		Line:      safeUint(lines.Line(offset) - 1),
		Character: safeUint(lines.UTF16Col(offset)),
	}
}

// positionToOffset converts an LSP position back to a byte offset.
func positionToOffset(lines *token.Lines, pos protocol.Position) int {
	return lines.OffsetOfUTF16(int(pos.Line)+1, int(pos.Character))
}

// spanToRange converts the byte range [start, end) to an LSP range.
func spanToRange(lines *token.Lines, start, end int) protocol.Range {
	return protocol.Range{
		Start: offsetToPosition(lines, start),
		End:   offsetToPosition(lines, max(start, end)),
	}
}

// rangeOverlaps reports whether two LSP ranges share a line.
func rangeOverlaps(a, b protocol.Range) bool {
	return a.Start.Line <= b.End.Line && b.Start.Line <= a.End.Line
}

// uriToPath converts a file:// URI to a filesystem path. Other input is
// returned unchanged.
func uriToPath(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return strings.TrimPrefix(uri, "file://")
	}
	return filepath.FromSlash(u.Path)
}
