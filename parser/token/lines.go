// Copyright © 2024 The perlscope authors

package token

import (
	"bytes"
	"sort"
	"sync"
	"unicode/utf8"
)

// Lines is an index of line start offsets for a source text. The index is
// built on first use and answers offset to line queries by binary search.
// A Lines may be shared between goroutines.
type Lines struct {
	src    []byte
	once   sync.Once
	starts []int
}

// NewLines returns a line index over src. The index itself is computed
// lazily.
func NewLines(src []byte) *Lines {
	return &Lines{src: src}
}

func (l *Lines) build() {
	l.once.Do(func() {
		starts := make([]int, 1, bytes.Count(l.src, []byte{'\n'})+1)
		for i, c := range l.src {
			if c == '\n' {
				starts = append(starts, i+1)
			}
		}
		l.starts = starts
	})
}

// Line returns the 1-based line containing offset. Offsets beyond the end of
// the source are clamped.
func (l *Lines) Line(offset int) int {
	l.build()
	offset = min(max(offset, 0), len(l.src))
	// The first start strictly greater than offset is one past the line.
	return sort.SearchInts(l.starts, offset+1)
}

// Position returns the 1-based line and 1-based byte column of offset.
func (l *Lines) Position(offset int) (line, col int) {
	line = l.Line(offset)
	offset = min(max(offset, 0), len(l.src))
	return line, offset - l.starts[line-1] + 1
}

// LineStart returns the offset of the first byte of the 1-based line.
func (l *Lines) LineStart(line int) int {
	l.build()
	if line < 1 {
		return 0
	}
	if line > len(l.starts) {
		return len(l.src)
	}
	return l.starts[line-1]
}

// Count returns the number of lines in the source.
func (l *Lines) Count() int {
	l.build()
	return len(l.starts)
}

// UTF16Col returns the 0-based UTF-16 column of offset within its line, the
// unit used by the Language Server Protocol.
func (l *Lines) UTF16Col(offset int) int {
	line := l.Line(offset)
	start := l.starts[line-1]
	offset = min(max(offset, start), len(l.src))
	n := 0
	for b := l.src[start:offset]; len(b) > 0; {
		r, size := utf8.DecodeRune(b)
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
		b = b[size:]
	}
	return n
}

// OffsetOfUTF16 converts a 1-based line and 0-based UTF-16 column back to a
// byte offset.
func (l *Lines) OffsetOfUTF16(line, col int) int {
	pos := l.LineStart(line)
	for n := 0; n < col && pos < len(l.src) && l.src[pos] != '\n'; {
		r, size := utf8.DecodeRune(l.src[pos:])
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
		pos += size
	}
	return pos
}
