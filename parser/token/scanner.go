// Copyright © 2024 The perlscope authors

package token

import (
	"bytes"
	"strings"
)

// Scanner facilitates construction of tokens from an in-memory source. A
// Scanner may be restricted to a sub-range of the source so that embedded
// code (e.g. expressions interpolated into strings) can be scanned with
// offsets that still refer to the enclosing text.
type Scanner struct {
	file  string
	path  string
	src   []byte
	lines *Lines

	start int // start of the current token
	pos   int // next byte to scan
	end   int // scanning limit
}

// NewScanner initializes and returns a new Scanner over all of src.
func NewScanner(file string, src []byte) *Scanner {
	return NewRangeScanner(file, src, 0, len(src), nil)
}

// NewRangeScanner returns a Scanner over src[start:end]. Locations produced
// by the scanner are offsets into src. lines may be shared between scanners
// of the same source, and is created when nil.
func NewRangeScanner(file string, src []byte, start, end int, lines *Lines) *Scanner {
	if lines == nil {
		lines = NewLines(src)
	}
	start = min(max(start, 0), len(src))
	end = min(max(end, start), len(src))
	return &Scanner{
		file:  file,
		src:   src,
		lines: lines,
		start: start,
		pos:   start,
		end:   end,
	}
}

// SetPath associates a physical location (e.g. filesystem path) with s to aid
// in debugging projects which scan many ungrouped files.
func (s *Scanner) SetPath(path string) {
	s.path = path
}

// Src returns the complete source text.
func (s *Scanner) Src() []byte {
	return s.src
}

// Lines returns the line index of the source.
func (s *Scanner) Lines() *Lines {
	return s.lines
}

// EmitToken returns a token containing the text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) EmitToken(typ Type) *Token {
	tok := &Token{
		Type:   typ,
		Text:   s.Text(),
		Source: s.LocStart(),
	}
	s.Ignore()
	return tok
}

// Ignore causes the scanner to skip all text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) Ignore() {
	s.start = s.pos
}

// Text returns a string containing text scanned since the last call to either
// EmitToken or Ignore.
func (s *Scanner) Text() string {
	return string(s.src[s.start:s.pos])
}

// Start returns the offset of the current token.
func (s *Scanner) Start() int {
	return s.start
}

// Pos returns the offset of the next byte to be scanned.
func (s *Scanner) Pos() int {
	return s.pos
}

// End returns the scanning limit.
func (s *Scanner) End() int {
	return s.end
}

// Seek moves the scan position to pos, which must not precede the start of
// the current token.
func (s *Scanner) Seek(pos int) {
	s.pos = min(max(pos, s.start), s.end)
}

// EOF reports whether the scanner has reached its limit.
func (s *Scanner) EOF() bool {
	return s.pos >= s.end
}

// Peek returns the next byte to be scanned, if there is one.
func (s *Scanner) Peek() (byte, bool) {
	return s.PeekAt(0)
}

// PeekAt returns the byte n positions beyond the next byte to be scanned.
func (s *Scanner) PeekAt(n int) (byte, bool) {
	if s.pos+n >= s.end || s.pos+n < 0 {
		return 0, false
	}
	return s.src[s.pos+n], true
}

// Rest returns the unscanned input.
func (s *Scanner) Rest() []byte {
	return s.src[s.pos:s.end]
}

// HasPrefix reports whether the unscanned input begins with lit.
func (s *Scanner) HasPrefix(lit string) bool {
	return bytes.HasPrefix(s.Rest(), []byte(lit))
}

// Next scans one byte unconditionally.
func (s *Scanner) Next() bool {
	if s.EOF() {
		return false
	}
	s.pos++
	return true
}

func (s *Scanner) Accept(fn func(byte) bool) bool {
	c, ok := s.Peek()
	if ok && fn(c) {
		s.pos++
		return true
	}
	return false
}

func (s *Scanner) AcceptByte(c byte) bool {
	peek, ok := s.Peek()
	if ok && peek == c {
		s.pos++
		return true
	}
	return false
}

func (s *Scanner) AcceptAny(charset string) bool {
	peek, ok := s.Peek()
	if ok && strings.IndexByte(charset, peek) >= 0 {
		s.pos++
		return true
	}
	return false
}

func (s *Scanner) AcceptSeq(fn func(byte) bool) int {
	var n int
	for s.Accept(fn) {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqAny(charset string) int {
	var n int
	for s.AcceptAny(charset) {
		n++
	}
	return n
}

// AcceptString scans literal if the unscanned input begins with it. Nothing
// is scanned otherwise.
func (s *Scanner) AcceptString(literal string) bool {
	if !s.HasPrefix(literal) {
		return false
	}
	s.pos += len(literal)
	return true
}

// LocStart returns a Location referencing the current token, from the end of
// the previous token to the scan position.
func (s *Scanner) LocStart() *Location {
	return s.LocRange(s.start, s.pos)
}

// Loc returns a Location referencing the current scanner position.
func (s *Scanner) Loc() *Location {
	return s.LocRange(s.pos, s.pos)
}

// LocRange returns a Location for the byte range [start, end).
func (s *Scanner) LocRange(start, end int) *Location {
	line, col := s.lines.Position(start)
	return &Location{
		File: s.file,
		Path: s.path,
		Pos:  start,
		End:  end,
		Line: line,
		Col:  col,
	}
}

// IsWordByte reports whether c may appear in a Perl identifier.
func IsWordByte(c byte) bool {
	return c == '_' || IsDigit(c) || IsLetter(c) || c >= 0x80
}

// IsIdentStart reports whether c may begin a Perl identifier.
func IsIdentStart(c byte) bool {
	return c == '_' || IsLetter(c) || c >= 0x80
}

func IsLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func IsDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func IsSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
