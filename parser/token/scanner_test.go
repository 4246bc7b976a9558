// Copyright © 2024 The perlscope authors

package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner(t *testing.T) {
	s := NewScanner("", []byte("my $x = 10;"))

	var tokens []*Token
	s.AcceptSeq(IsWordByte)
	tokens = append(tokens, s.EmitToken(IDENT))
	s.AcceptSeq(IsSpace)
	s.Ignore()
	require.True(t, s.AcceptByte('$'))
	s.AcceptSeq(IsWordByte)
	tokens = append(tokens, s.EmitToken(VARIABLE))
	s.AcceptSeq(IsSpace)
	s.Ignore()
	assert.False(t, s.AcceptString("=="))
	assert.True(t, s.AcceptString("="))
	tokens = append(tokens, s.EmitToken(OP))

	assert.Equal(t, "my", tokens[0].Text)
	assert.Equal(t, 0, tokens[0].Source.Pos)
	assert.Equal(t, 2, tokens[0].Source.End)
	assert.Equal(t, "$x", tokens[1].Text)
	assert.Equal(t, 3, tokens[1].Source.Pos)
	assert.Equal(t, "=", tokens[2].Text)
	assert.Equal(t, 6, tokens[2].Source.Pos)
}

func TestScannerEOF(t *testing.T) {
	s := NewScanner("", []byte("xxxxxxxxxx"))
	assert.Equal(t, 10, s.AcceptSeq(func(byte) bool { return true }))
	s.Ignore()
	if s.Accept(func(byte) bool { return true }) {
		t.Fatal("not EOF")
	}
	assert.True(t, s.EOF())
	assert.False(t, s.Next())
	_, ok := s.Peek()
	assert.False(t, ok)
}

func TestScannerRange(t *testing.T) {
	src := []byte(`print "v=$h{key}\n";`)
	s := NewRangeScanner("t.pl", src, 9, 16, nil)
	require.True(t, s.AcceptByte('$'))
	s.AcceptSeq(IsWordByte)
	tok := s.EmitToken(VARIABLE)
	assert.Equal(t, "$h", tok.Text)
	assert.Equal(t, 9, tok.Source.Pos)
	assert.Equal(t, "t.pl:1:10", tok.Source.String())
	assert.Equal(t, "{key}", string(s.Rest()))
	s.AcceptSeq(func(byte) bool { return true })
	assert.True(t, s.EOF())
	assert.Equal(t, 16, s.Pos())
}

func TestScannerLoc(t *testing.T) {
	s := NewScanner("test", []byte("123456789\n123456789\n123456789\n"))

	var tokens []*Token
	for i := 0; i < 10; i++ {
		s.Next()
	}
	tokens = append(tokens, s.EmitToken(0))
	for i := 0; i < 10; i++ {
		s.Next()
	}
	tokens = append(tokens, s.EmitToken(1))
	for i := 0; i < 5; i++ {
		s.Next()
	}
	tokens = append(tokens, s.EmitToken(2))
	for i := 0; i < 5; i++ {
		s.Next()
	}
	tokens = append(tokens, s.EmitToken(3))

	assert.Equal(t, 30, s.Pos())
	assert.Equal(t, 0, tokens[0].Source.Pos)
	assert.Equal(t, 10, tokens[1].Source.Pos)
	assert.Equal(t, 20, tokens[2].Source.Pos)
	assert.Equal(t, 25, tokens[3].Source.Pos)
	assert.Equal(t, "test:1:1", tokens[0].Source.String())
	assert.Equal(t, "test:2:1", tokens[1].Source.String())
	assert.Equal(t, "test:3:1", tokens[2].Source.String())
	assert.Equal(t, "test:3:6", tokens[3].Source.String())
}

func TestByteClasses(t *testing.T) {
	assert.True(t, IsIdentStart('_'))
	assert.False(t, IsIdentStart('1'))
	assert.True(t, IsWordByte('1'))
	assert.False(t, IsWordByte(':'))
	assert.True(t, IsSpace('\f'))
}
