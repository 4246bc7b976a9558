// Copyright © 2024 The perlscope authors

package token

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLines(t *testing.T) {
	l := NewLines([]byte("ab\ncd\n\nef"))
	assert.Equal(t, 4, l.Count())

	tests := []struct {
		offset int
		line   int
		col    int
	}{
		{0, 1, 1},
		{2, 1, 3}, // the newline belongs to its line
		{3, 2, 1},
		{6, 3, 1},
		{7, 4, 1},
		{9, 4, 3},
		{100, 4, 3},
		{-5, 1, 1},
	}
	for _, test := range tests {
		line, col := l.Position(test.offset)
		assert.Equal(t, test.line, line, "offset %d", test.offset)
		assert.Equal(t, test.col, col, "offset %d", test.offset)
	}
	assert.Equal(t, 3, l.LineStart(2))
	assert.Equal(t, 0, l.LineStart(0))
	assert.Equal(t, 9, l.LineStart(10))
}

func TestLinesEmpty(t *testing.T) {
	l := NewLines(nil)
	assert.Equal(t, 1, l.Count())
	line, col := l.Position(0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)
}

func TestLinesUTF16(t *testing.T) {
	// "é" is two bytes and one UTF-16 unit, "😀" is four bytes and two units.
	src := []byte("x\n$é = '😀'; $y")
	l := NewLines(src)
	y := len(src) - 2
	assert.Equal(t, 11, l.UTF16Col(y))
	assert.Equal(t, y, l.OffsetOfUTF16(2, 11))
	assert.Equal(t, 2, l.OffsetOfUTF16(2, 0))
	assert.Equal(t, len(src), l.OffsetOfUTF16(2, 500))
}

func TestLinesConcurrent(t *testing.T) {
	src := []byte(strings.Repeat("my $x = 1;\n", 500))
	l := NewLines(src)

	var wg sync.WaitGroup
	lines := make([]int, 8)
	for i := range lines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lines[i] = l.Line(len(src) - 1)
		}()
	}
	wg.Wait()
	for _, line := range lines {
		assert.Equal(t, 500, line)
	}
	assert.Equal(t, 501, l.Count())
}
