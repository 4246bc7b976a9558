// Copyright © 2024 The perlscope authors

package rdparser

import (
	"strings"

	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/parser/lexer"
	"github.com/luthersystems/perlscope/parser/token"
)

// quoteStyle returns the quoting construct used by a string token.
func quoteStyle(text string) string {
	switch {
	case strings.HasPrefix(text, "<<"):
		return "heredoc"
	case strings.HasPrefix(text, "qq"):
		return "qq"
	case strings.HasPrefix(text, "q"):
		return "q"
	case text == "":
		return ""
	default:
		return text[:1]
	}
}

// regexOp returns the normalized operator of a regex-like token and the
// delimiter that opens its pattern.
func regexOp(tok *token.Token) (op string, delim byte) {
	text := tok.Text
	switch {
	case strings.HasPrefix(text, "/"):
		return "m", '/'
	case strings.HasPrefix(text, "qr"):
		op, text = "qr", text[2:]
	case strings.HasPrefix(text, "tr"):
		op, text = "tr", text[2:]
	case strings.HasPrefix(text, "m"), strings.HasPrefix(text, "s"), strings.HasPrefix(text, "y"):
		op, text = text[:1], text[1:]
		if op == "y" {
			op = "tr"
		}
	}
	text = strings.TrimLeft(text, " \t\r\n")
	if text != "" {
		delim = text[0]
	}
	return op, delim
}

func (p *Parser) interpolated(tok *token.Token) ast.NodeID {
	kids := p.interpolate(tok.ValuePos, tok.ValuePos+len(tok.Value), false)
	return p.leaf(tok, ast.Node{
		Kind: ast.Interpolated,
		Op:   quoteStyle(tok.Text),
		Name: tok.Value,
		Kids: kids,
	})
}

// interpolate parses the expressions embedded in text[start:end].
func (p *Parser) interpolate(start, end int, regex bool) []ast.NodeID {
	var kids []ast.NodeID
	for _, span := range lexer.Interpolations(p.text, start, end, regex) {
		sub := p.sub(span.Start, span.End)
		if sub.src.IsEOF() {
			continue
		}
		kids = append(kids, sub.parsePostfix())
	}
	return kids
}

// code parses text[start:end] as a statement list, as in the replacement
// part of s///e.
func (p *Parser) code(start, end int) []ast.NodeID {
	sub := p.sub(start, end)
	var stmts []ast.NodeID
	for !sub.src.IsEOF() {
		before := sub.src.Peek()
		if stmt := sub.ParseStatement(); stmt.IsValid() {
			stmts = append(stmts, stmt)
		}
		if sub.src.Peek() == before {
			sub.src.Scan()
		}
	}
	return stmts
}

func (p *Parser) regex(tok *token.Token) ast.NodeID {
	op, delim := regexOp(tok)
	interp := delim != '\''
	var kids []ast.NodeID
	if interp && op != "tr" {
		kids = p.interpolate(tok.ValuePos, tok.ValuePos+len(tok.Value), true)
	}
	var args []string
	if tok.Type == token.SUBST || tok.Type == token.TRANS {
		args = []string{tok.Extra}
	}
	if tok.Type == token.SUBST {
		end := tok.ExtraPos + len(tok.Extra)
		switch {
		case strings.Contains(tok.Flags, "e"):
			kids = append(kids, p.code(tok.ExtraPos, end)...)
		case interp:
			kids = append(kids, p.interpolate(tok.ExtraPos, end, false)...)
		}
	}
	return p.leaf(tok, ast.Node{
		Kind: ast.Regex,
		Op:   op,
		Name: tok.Value,
		Args: args,
		Kids: kids,
	})
}

// readline returns the node for <FH>, <$fh> or <>.
func (p *Parser) readline(tok *token.Token) ast.NodeID {
	var kids []ast.NodeID
	if strings.HasPrefix(tok.Value, "$") {
		sub := p.sub(tok.ValuePos, tok.ValuePos+len(tok.Value))
		if !sub.src.IsEOF() {
			kids = append(kids, sub.parsePrimary())
		}
	}
	return p.leaf(tok, ast.Node{Kind: ast.Readline, Name: tok.Value, Kids: kids})
}
