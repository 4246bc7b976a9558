// Copyright © 2024 The perlscope authors

package lexer

import (
	"strings"

	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/parser/token"
)

// Interpolations returns the byte ranges of the variables and expressions
// interpolated into the string body src[start:end]. When regex is true the
// body is a pattern, where "$" may be an anchor and "{" may begin a
// quantifier.
func Interpolations(src []byte, start, end int, regex bool) []ast.Span {
	var out []ast.Span
	for i := start; i < end; i++ {
		c := src[i]
		if c == '\\' {
			i++
			continue
		}
		if c != '$' && c != '@' {
			continue
		}
		j := interpolationEnd(src, i, end, regex)
		if j > i+1 {
			out = append(out, ast.Span{Start: i, End: j})
			i = j - 1
		}
	}
	return out
}

func interpolationEnd(src []byte, i, end int, regex bool) int {
	at := func(k int) byte {
		if k < end {
			return src[k]
		}
		return 0
	}
	sigil := src[i]
	j := i + 1
	c := at(j)
	switch {
	case c == '{':
		k := matchBracket(src, j, end)
		if k < 0 {
			return i
		}
		j = k
	case c == '$':
		for at(j) == '$' {
			j++
		}
		switch {
		case at(j) == '{':
			k := matchBracket(src, j, end)
			if k < 0 {
				return i
			}
			j = k
		case token.IsIdentStart(at(j)):
			j = scanName(src, j, end)
		case sigil == '$' && !regex && j == i+2:
			// "$$" is the process id
			return j
		default:
			return i
		}
	case token.IsIdentStart(c) || c == ':' && at(j+1) == ':' && token.IsIdentStart(at(j+2)):
		j = scanName(src, j, end)
	case sigil == '$' && token.IsDigit(c):
		for token.IsDigit(at(j)) {
			j++
		}
		return j
	case sigil == '$' && !regex && strings.IndexByte("&@!", c) >= 0:
		return j + 1
	default:
		return i
	}
	for {
		k := j
		if at(k) == '-' && at(k+1) == '>' && (at(k+2) == '[' || at(k+2) == '{') {
			k += 2
		}
		switch at(k) {
		case '[':
			if regex && !looksLikeIndex(src, k, end) {
				return j
			}
		case '{':
			if regex && (token.IsDigit(at(k+1)) || at(k+1) == ',') {
				return j
			}
		default:
			return j
		}
		m := matchBracket(src, k, end)
		if m < 0 {
			return j
		}
		j = m
	}
}

// scanName scans a possibly package qualified identifier.
func scanName(src []byte, j, end int) int {
	if j+1 < end && src[j] == ':' && src[j+1] == ':' {
		j += 2
	}
	for {
		for j < end && token.IsWordByte(src[j]) {
			j++
		}
		if j+2 < end && src[j] == ':' && src[j+1] == ':' && token.IsIdentStart(src[j+2]) {
			j += 2
			continue
		}
		return j
	}
}

// matchBracket returns the offset just beyond the bracket closing the one at
// src[open], or -1.
func matchBracket(src []byte, open, end int) int {
	closer := closingDelimiter(src[open])
	depth := 0
	for k := open; k < end; k++ {
		switch src[k] {
		case '\\':
			k++
		case src[open]:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return k + 1
			}
		}
	}
	return -1
}

// looksLikeIndex distinguishes an array element inside a pattern from a
// character class.
func looksLikeIndex(src []byte, open, end int) bool {
	k := open + 1
	if k < end && (src[k] == '$' || src[k] == '-') {
		return true
	}
	n := 0
	for k < end && token.IsDigit(src[k]) {
		k++
		n++
	}
	return n > 0 && k < end && src[k] == ']'
}
