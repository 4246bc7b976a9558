// Copyright © 2024 The perlscope authors

// Package rdparser is a recursive descent parser for Perl 5.
//
// The parser never gives up on a file. Syntax errors produce Error nodes in
// the tree and a LocationError in the returned error list, after which
// parsing resumes at the next statement boundary. Expressions interpolated
// into strings and regexes are parsed in place so that variables inside
// them carry real source offsets.
package rdparser

import (
	"fmt"

	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/parser/token"
)

// maxDepth bounds expression nesting to keep pathological input from
// exhausting the stack.
const maxDepth = 500

// Parser is a Perl parser.
type Parser struct {
	src   *TokenSource
	tree  *ast.Tree
	text  []byte
	file  string
	path  string
	lines *token.Lines
	errs  []*token.LocationError
	depth int
	// quiet parsers (for interpolated code) do not report errors.
	quiet      bool
	lastErrPos int
}

// New initializes and returns a new Parser over the named source text.
func New(file string, text []byte) *Parser {
	lines := token.NewLines(text)
	s := token.NewRangeScanner(file, text, 0, len(text), lines)
	return &Parser{
		src:        NewTokenSource(s),
		tree:       ast.NewTree(file),
		text:       text,
		file:       file,
		lines:      lines,
		lastErrPos: -1,
	}
}

// SetPath associates a physical location with the parsed file. Error
// locations carry the path.
func (p *Parser) SetPath(path string) {
	p.path = path
}

// sub returns a parser over text[start:end] that adds its nodes to the tree
// of p.
func (p *Parser) sub(start, end int) *Parser {
	s := token.NewRangeScanner(p.file, p.text, start, end, p.lines)
	return &Parser{
		src:        NewTokenSource(s),
		tree:       p.tree,
		text:       p.text,
		file:       p.file,
		lines:      p.lines,
		depth:      p.depth,
		quiet:      true,
		lastErrPos: -1,
	}
}

// ParseProgram parses the complete source and returns the syntax tree along
// with every syntax error encountered. The tree is usable even when errors
// are returned.
func (p *Parser) ParseProgram() (*ast.Tree, []*token.LocationError) {
	var stmts []ast.NodeID
	for !p.src.IsEOF() {
		before := p.src.Peek()
		if stmt := p.ParseStatement(); stmt.IsValid() {
			stmts = append(stmts, stmt)
		}
		if p.src.Peek() == before {
			// An unmatched closing delimiter at the top level.
			tok := p.ReadToken()
			stmts = append(stmts, p.errorNode(tok, nil, "unexpected %s", describe(tok)))
		}
	}
	p.tree.Root = p.tree.Add(ast.Node{
		Kind: ast.Program,
		Span: ast.Span{Start: 0, End: len(p.text)},
		Kids: stmts,
	})
	for _, c := range p.src.Comments {
		p.tree.Comments = append(p.tree.Comments, ast.Comment{
			Span: ast.Span{Start: c.Pos(), End: c.End()},
			Text: c.Text,
		})
	}
	return p.tree, p.errs
}

// Tree returns the tree nodes are added to.
func (p *Parser) Tree() *ast.Tree {
	return p.tree
}

// Errors returns the syntax errors reported so far.
func (p *Parser) Errors() []*token.LocationError {
	return p.errs
}

// ReadToken scans and returns the next token.
func (p *Parser) ReadToken() *token.Token {
	p.src.Scan()
	return p.src.Token
}

// TokenText returns the text of the current token.
func (p *Parser) TokenText() string {
	return p.src.Token.Text
}

// TokenType returns the type of the current token.
func (p *Parser) TokenType() token.Type {
	return p.src.Token.Type
}

// Location returns the location of the current token.
func (p *Parser) Location() *token.Location {
	return p.src.Token.Source
}

// PeekType returns the type of the next token.
func (p *Parser) PeekType() token.Type {
	return p.src.Peek().Type
}

// PeekLocation returns the location of the next token.
func (p *Parser) PeekLocation() *token.Location {
	return p.src.Peek().Source
}

// Accept scans the next token if its type is one of typ.
func (p *Parser) Accept(typ ...token.Type) bool {
	return p.src.AcceptType(typ...)
}

func (p *Parser) peekPos() int {
	return p.src.Peek().Pos()
}

// finish adds n to the tree spanning from start to the end of the last
// scanned token.
func (p *Parser) finish(start int, n ast.Node) ast.NodeID {
	n.Span = ast.Span{Start: start, End: max(p.src.LastEnd(), start)}
	return p.tree.Add(n)
}

// leaf adds n to the tree spanning tok.
func (p *Parser) leaf(tok *token.Token, n ast.Node) ast.NodeID {
	n.Span = ast.Span{Start: tok.Pos(), End: tok.End()}
	return p.tree.Add(n)
}

func (p *Parser) errorf(tok *token.Token, format string, v ...interface{}) {
	if p.quiet || tok.Pos() == p.lastErrPos {
		return
	}
	p.lastErrPos = tok.Pos()
	loc := *tok.Source
	loc.Path = p.path
	p.errs = append(p.errs, token.Errorf(&loc, format, v...))
}

// errorNode reports an error at tok and returns an Error node covering tok
// and any recovered partial nodes.
func (p *Parser) errorNode(tok *token.Token, kids []ast.NodeID, format string, v ...interface{}) ast.NodeID {
	p.errorf(tok, format, v...)
	start := tok.Pos()
	if len(kids) > 0 {
		start = min(start, p.tree.Node(kids[0]).Span.Start)
	}
	return p.tree.Add(ast.Node{
		Kind: ast.Error,
		Span: ast.Span{Start: start, End: max(tok.End(), p.src.LastEnd(), start)},
		Name: fmt.Sprintf(format, v...),
		Kids: kids,
	})
}

// expect scans a token of type typ, reporting an error if the next token
// has a different type.
func (p *Parser) expect(typ token.Type) bool {
	if p.src.AcceptType(typ) {
		return true
	}
	tok := p.src.Peek()
	p.errorf(tok, "expected '%s' but found %s", typ, describe(tok))
	return false
}

// synchronize skips tokens until a statement boundary. A semicolon is
// consumed, a closing brace is left for the enclosing block.
func (p *Parser) synchronize() {
	depth := 0
	for !p.src.IsEOF() {
		tok := p.src.Peek()
		switch tok.Type {
		case token.SEMI:
			if depth == 0 {
				p.src.Scan()
				return
			}
		case token.BRACE_L, token.PAREN_L, token.BRACKET_L:
			depth++
		case token.BRACE_R:
			if depth == 0 {
				return
			}
			depth--
		case token.PAREN_R, token.BRACKET_R:
			if depth > 0 {
				depth--
			}
		}
		p.src.Scan()
	}
}

func describe(tok *token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of file"
	case token.ERROR:
		return tok.Value
	case token.IDENT, token.VARIABLE, token.NUMBER, token.OP, token.CAST:
		return fmt.Sprintf("%s '%s'", tok.Type, tok.Text)
	default:
		return fmt.Sprintf("'%s'", tok.Type)
	}
}
