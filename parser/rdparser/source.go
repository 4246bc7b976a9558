// Copyright © 2024 The perlscope authors

package rdparser

import (
	"github.com/luthersystems/perlscope/parser/lexer"
	"github.com/luthersystems/perlscope/parser/token"
)

// TokenStream is an arbitrary sequence of tokens.  Typically, a TokenStream
// will be a *lexer.Lexer but other implementations may be desirable for
// testing or for re-parsing a pre-computed token list.
type TokenStream interface {
	// ReadToken returns a set of token from an input source.  When no more
	// tokens can be generated ReadToken returns a token with type token.EOF.
	// ReadToken never returns an empty slice.
	ReadToken() []*token.Token
}

// TokenGenerator implements TokenStream.  The function will be called any time
// a TokenSource wants a token.
type TokenGenerator func() []*token.Token

// ReadToken implements TokenStream.
func (fn TokenGenerator) ReadToken() []*token.Token {
	return fn()
}

// TokenSlice returns a TokenStream that yields toks in order followed by an
// EOF token.
func TokenSlice(toks []*token.Token) TokenStream {
	eof := &token.Token{Type: token.EOF, Source: &token.Location{}}
	if len(toks) > 0 {
		last := toks[len(toks)-1]
		eof.Source = &token.Location{File: last.Source.File, Pos: last.End(), End: last.End()}
	}
	return TokenGenerator(func() []*token.Token {
		if len(toks) == 0 {
			return []*token.Token{eof}
		}
		tok := toks[0]
		toks = toks[1:]
		return []*token.Token{tok}
	})
}

// TokenSource abstracts a TokenStream by adding arbitrary lookahead.
// Comments are diverted from the stream into Comments and POD is dropped so
// the parser only ever sees significant tokens.
type TokenSource struct {
	lex      TokenStream
	Token    *token.Token
	Comments []*token.Token
	peek     []*token.Token
	lastEnd  int
}

func NewTokenStreamSource(stream TokenStream) *TokenSource {
	return &TokenSource{
		lex: stream,
	}
}

// TokenSource initializes and returns a new token.Source that scans tokens
// from scanner.
func NewTokenSource(scanner *token.Scanner) *TokenSource {
	lex := lexer.New(scanner)
	src := NewTokenStreamSource(lex)
	src.lastEnd = scanner.Pos()
	return src
}

func (s *TokenSource) fill(n int) {
	for len(s.peek) <= n {
		if k := len(s.peek); k > 0 && s.peek[k-1].Type == token.EOF {
			return
		}
		for _, tok := range s.lex.ReadToken() {
			switch tok.Type {
			case token.COMMENT:
				s.Comments = append(s.Comments, tok)
			case token.POD:
			default:
				s.peek = append(s.peek, tok)
			}
		}
	}
}

// PeekAt returns the token n positions after the next one. Beyond the end
// of the stream PeekAt returns the EOF token.
func (s *TokenSource) PeekAt(n int) *token.Token {
	s.fill(n)
	if n < len(s.peek) {
		return s.peek[n]
	}
	return s.peek[len(s.peek)-1]
}

func (s *TokenSource) Peek() *token.Token {
	return s.PeekAt(0)
}

func (s *TokenSource) Accept(fn func(*token.Token) bool) bool {
	if fn(s.Peek()) {
		s.scan()
		return true
	}
	return false
}

func (s *TokenSource) AcceptType(typ ...token.Type) bool {
	for _, typ := range typ {
		if s.Peek().Type == typ {
			s.scan()
			return true
		}
	}
	return false
}

// AcceptOp scans the next token if it is the operator op.
func (s *TokenSource) AcceptOp(op string) bool {
	return s.Accept(func(tok *token.Token) bool { return tok.Is(token.OP, op) })
}

func (s *TokenSource) Scan() bool {
	if s.IsEOF() {
		s.Token = s.Peek()
		return false
	}
	s.scan()
	return true
}

func (s *TokenSource) IsEOF() bool {
	return s.Peek().Type == token.EOF
}

// LastEnd returns the end offset of the most recently scanned token.
func (s *TokenSource) LastEnd() int {
	return s.lastEnd
}

func (s *TokenSource) scan() {
	s.Token = s.Peek()
	if s.Token.Type != token.EOF {
		s.peek = s.peek[1:]
		s.lastEnd = s.Token.End()
	}
}
