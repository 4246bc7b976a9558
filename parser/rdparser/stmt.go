// Copyright © 2024 The perlscope authors

package rdparser

import (
	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/parser/token"
)

// Keywords which turn the preceding expression into a statement modifier.
var modifierKeywords = map[string]bool{
	"if":      true,
	"unless":  true,
	"while":   true,
	"until":   true,
	"for":     true,
	"foreach": true,
}

var phaseBlocks = map[string]bool{
	"BEGIN":     true,
	"END":       true,
	"INIT":      true,
	"CHECK":     true,
	"UNITCHECK": true,
}

// ParseStatement parses one statement. It returns ast.NoNode for an empty
// statement.
func (p *Parser) ParseStatement() ast.NodeID {
	tok := p.src.Peek()
	switch tok.Type {
	case token.SEMI:
		p.src.Scan()
		return ast.NoNode
	case token.BRACE_L:
		return p.parseBlock()
	case token.IDENT:
		next := p.src.PeekAt(1)
		if next.Is(token.OP, ":") && !modifierKeywords[tok.Text] {
			return p.parseLabeled()
		}
		switch tok.Text {
		case "sub", "method":
			if next.Type == token.IDENT {
				return p.parseSub()
			}
		case "package":
			return p.parsePackage()
		case "use", "no":
			return p.parseUse()
		case "if", "unless":
			return p.parseIf()
		case "while", "until":
			return p.parseWhile()
		case "for", "foreach":
			return p.parseFor()
		}
		if phaseBlocks[tok.Text] && next.Type == token.BRACE_L {
			return p.parsePhase()
		}
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseExpressionStatement() ast.NodeID {
	start := p.peekPos()
	expr := p.ParseExpression()
	stmt := p.finish(start, ast.Node{Kind: ast.ExpressionStatement, Kids: []ast.NodeID{expr}})
	if mod := p.src.Peek(); mod.Type == token.IDENT && modifierKeywords[mod.Text] {
		p.src.Scan()
		cond := ast.NoNode
		if p.startsTerm(p.src.Peek(), false) {
			cond = p.ParseExpression()
		} else {
			p.errorf(p.src.Peek(), "expected condition after '%s'", mod.Text)
		}
		stmt = p.finish(start, ast.Node{
			Kind: ast.StatementModifier,
			Op:   mod.Text,
			Kids: []ast.NodeID{stmt, cond},
		})
	}
	p.endStatement()
	return stmt
}

// endStatement consumes the statement terminator. The final statement of a
// block or file may omit it.
func (p *Parser) endStatement() {
	tok := p.src.Peek()
	switch tok.Type {
	case token.SEMI:
		p.src.Scan()
	case token.BRACE_R, token.EOF:
	default:
		p.errorf(tok, "expected ';' but found %s", describe(tok))
		p.synchronize()
	}
}

// parseBlock parses a brace delimited statement list.
func (p *Parser) parseBlock() ast.NodeID {
	open := p.src.Peek()
	if !p.src.AcceptType(token.BRACE_L) {
		return p.errorNode(open, nil, "expected '{' but found %s", describe(open))
	}
	var stmts []ast.NodeID
	for {
		if p.src.IsEOF() {
			p.errorf(open, "unmatched '{'")
			break
		}
		if p.src.AcceptType(token.BRACE_R) {
			break
		}
		before := p.src.Peek()
		if stmt := p.ParseStatement(); stmt.IsValid() {
			stmts = append(stmts, stmt)
		}
		if p.src.Peek() == before {
			tok := p.ReadToken()
			stmts = append(stmts, p.errorNode(tok, nil, "unexpected %s", describe(tok)))
		}
	}
	return p.finish(open.Pos(), ast.Node{Kind: ast.Block, Kids: stmts})
}

func (p *Parser) parseLabeled() ast.NodeID {
	label := p.ReadToken()
	p.src.Scan() // ':'
	stmt := ast.NoNode
	if !p.src.IsEOF() && p.src.Peek().Type != token.BRACE_R {
		stmt = p.ParseStatement()
	}
	return p.finish(label.Pos(), ast.Node{
		Kind: ast.LabeledStatement,
		Name: label.Text,
		Kids: []ast.NodeID{stmt},
	})
}

// parseSub parses a named or anonymous sub or method: the keyword, optional
// name, prototype or signature, attributes and body. A named sub without a
// body is a forward declaration.
func (p *Parser) parseSub() ast.NodeID {
	kw := p.ReadToken()
	var name string
	if p.src.Peek().Type == token.IDENT {
		name = p.ReadToken().Text
	}
	p.src.AcceptType(token.PROTOTYPE)
	p.skipAttributes()
	sig := ast.NoNode
	if p.src.Peek().Type == token.PAREN_L {
		sig = p.parseSignature()
	}
	p.skipAttributes()
	body := ast.NoNode
	switch {
	case p.src.Peek().Type == token.BRACE_L:
		body = p.parseBlock()
	case name == "":
		tok := p.src.Peek()
		body = p.errorNode(tok, nil, "expected '{' but found %s", describe(tok))
	}
	return p.finish(kw.Pos(), ast.Node{
		Kind: ast.Subroutine,
		Name: name,
		Op:   kw.Text,
		Kids: []ast.NodeID{sig, body},
	})
}

// skipAttributes skips a sequence of ":attr" or ":attr(...)" annotations.
func (p *Parser) skipAttributes() {
	for p.src.Peek().Is(token.OP, ":") && p.src.PeekAt(1).Type == token.IDENT {
		p.src.Scan()
		p.src.Scan()
		if p.src.Peek().Type == token.PAREN_L && p.src.Peek().Pos() == p.src.LastEnd() {
			p.skipBalanced()
		}
	}
}

// skipBalanced skips a parenthesized token group.
func (p *Parser) skipBalanced() {
	depth := 0
	for !p.src.IsEOF() {
		switch p.ReadToken().Type {
		case token.PAREN_L:
			depth++
		case token.PAREN_R:
			depth--
			if depth <= 0 {
				return
			}
		}
	}
}

func (p *Parser) parseSignature() ast.NodeID {
	open := p.ReadToken()
	var params []ast.NodeID
	for !p.src.AcceptType(token.PAREN_R) {
		tok := p.src.Peek()
		switch {
		case tok.Type == token.EOF:
			p.errorf(open, "unmatched '('")
			return p.finish(open.Pos(), ast.Node{Kind: ast.Signature, Kids: params})
		case tok.Type == token.COMMA:
			p.src.Scan()
		case tok.Type == token.VARIABLE && (tok.Text == "$," || tok.Text == "$="):
			// Unnamed placeholders, the latter with an optional default.
			p.src.Scan()
			if tok.Text == "$=" && p.startsTerm(p.src.Peek(), false) {
				p.parseAssign()
			}
		case tok.Type == token.VARIABLE:
			p.src.Scan()
			params = append(params, p.parseParameter(tok))
		case tok.Type == token.ERROR, tok.Is(token.OP, "%"), tok.Is(token.OP, "@"):
			// A bare sigil placeholder.
			p.src.Scan()
		default:
			p.errorf(tok, "unexpected %s in signature", describe(tok))
			if tok.Type == token.BRACE_L || tok.Type == token.BRACE_R {
				return p.finish(open.Pos(), ast.Node{Kind: ast.Signature, Kids: params})
			}
			p.src.Scan()
		}
	}
	return p.finish(open.Pos(), ast.Node{Kind: ast.Signature, Kids: params})
}

func (p *Parser) parseParameter(tok *token.Token) ast.NodeID {
	v := p.variable(tok)
	switch {
	case tok.Text[0] == '@' || tok.Text[0] == '%':
		return p.finish(tok.Pos(), ast.Node{Kind: ast.SlurpyParameter, Kids: []ast.NodeID{v}})
	case p.src.AcceptOp("=") || p.src.AcceptOp("//=") || p.src.AcceptOp("||="):
		def := ast.NoNode
		if p.startsTerm(p.src.Peek(), false) {
			def = p.parseAssign()
		}
		return p.finish(tok.Pos(), ast.Node{Kind: ast.OptionalParameter, Kids: []ast.NodeID{v, def}})
	default:
		return p.finish(tok.Pos(), ast.Node{Kind: ast.MandatoryParameter, Kids: []ast.NodeID{v}})
	}
}

func (p *Parser) parsePackage() ast.NodeID {
	kw := p.ReadToken()
	name := p.src.Peek()
	if !p.src.AcceptType(token.IDENT) {
		node := p.errorNode(name, nil, "expected package name but found %s", describe(name))
		p.synchronize()
		return node
	}
	p.src.AcceptType(token.NUMBER)
	block := ast.NoNode
	if p.src.Peek().Type == token.BRACE_L {
		block = p.parseBlock()
	} else {
		p.endStatement()
	}
	return p.finish(kw.Pos(), ast.Node{
		Kind: ast.Package,
		Name: name.Text,
		Kids: []ast.NodeID{block},
	})
}

// parseUse parses use and no statements. The raw text of each top-level
// argument is retained in Args for pragma handling.
func (p *Parser) parseUse() ast.NodeID {
	kw := p.ReadToken()
	kind := ast.Use
	if kw.Text == "no" {
		kind = ast.No
	}
	tok := p.src.Peek()
	var name string
	switch tok.Type {
	case token.IDENT, token.NUMBER:
		name = p.ReadToken().Text
	default:
		node := p.errorNode(tok, nil, "expected module name but found %s", describe(tok))
		p.synchronize()
		return node
	}
	if tok.Type == token.IDENT && p.src.Peek().Type == token.NUMBER {
		if next := p.src.PeekAt(1).Type; next != token.COMMA && next != token.FAT_COMMA {
			p.src.Scan()
		}
	}
	args := ast.NoNode
	var texts []string
	if p.startsTerm(p.src.Peek(), false) {
		args = p.ParseExpression()
		for _, arg := range p.flatten(args) {
			texts = append(texts, p.tree.Text(arg, p.text))
		}
	}
	node := p.finish(kw.Pos(), ast.Node{
		Kind: kind,
		Name: name,
		Args: texts,
		Kids: []ast.NodeID{args},
	})
	p.endStatement()
	return node
}

func (p *Parser) parsePhase() ast.NodeID {
	kw := p.ReadToken()
	block := p.parseBlock()
	return p.finish(kw.Pos(), ast.Node{
		Kind: ast.PhaseBlock,
		Name: kw.Text,
		Kids: []ast.NodeID{block},
	})
}

func (p *Parser) parseIf() ast.NodeID {
	kw := p.ReadToken()
	kids := []ast.NodeID{p.parseCondition(), p.parseBlock()}
	for p.src.Peek().Is(token.IDENT, "elsif") {
		p.src.Scan()
		kids = append(kids, p.parseCondition(), p.parseBlock())
	}
	if p.src.Peek().Is(token.IDENT, "else") {
		p.src.Scan()
		kids = append(kids, p.parseBlock())
	}
	return p.finish(kw.Pos(), ast.Node{Kind: ast.If, Op: kw.Text, Kids: kids})
}

// parseCondition parses a parenthesized condition. An empty condition
// yields ast.NoNode.
func (p *Parser) parseCondition() ast.NodeID {
	p.expect(token.PAREN_L)
	cond := ast.NoNode
	if p.src.Peek().Type != token.PAREN_R {
		cond = p.ParseExpression()
	}
	p.expect(token.PAREN_R)
	return cond
}

func (p *Parser) parseWhile() ast.NodeID {
	kw := p.ReadToken()
	cond := p.parseCondition()
	body := p.parseBlock()
	cont := p.parseContinue()
	return p.finish(kw.Pos(), ast.Node{
		Kind: ast.While,
		Op:   kw.Text,
		Kids: []ast.NodeID{cond, body, cont},
	})
}

func (p *Parser) parseContinue() ast.NodeID {
	if p.src.Peek().Is(token.IDENT, "continue") && p.src.PeekAt(1).Type == token.BRACE_L {
		p.src.Scan()
		return p.parseBlock()
	}
	return ast.NoNode
}

// parseFor parses both C-style for loops and foreach loops, which share
// their keywords.
func (p *Parser) parseFor() ast.NodeID {
	kw := p.ReadToken()
	loopVar := ast.NoNode
	tok := p.src.Peek()
	switch {
	case tok.Type == token.IDENT && isDeclarator(tok.Text):
		loopVar = p.parseDeclaration()
	case tok.Type == token.VARIABLE && p.src.PeekAt(1).Type == token.PAREN_L:
		p.src.Scan()
		loopVar = p.variable(tok)
	}
	open := p.src.Peek()
	p.expect(token.PAREN_L)
	if loopVar.IsValid() {
		list := ast.NoNode
		if p.src.Peek().Type != token.PAREN_R {
			list = p.ParseExpression()
		}
		p.expect(token.PAREN_R)
		body := p.parseBlock()
		return p.finish(kw.Pos(), ast.Node{Kind: ast.Foreach, Kids: []ast.NodeID{loopVar, list, body}})
	}
	init := ast.NoNode
	if p.src.Peek().Type != token.SEMI && p.src.Peek().Type != token.PAREN_R {
		init = p.ParseExpression()
	}
	if !p.src.AcceptType(token.SEMI) {
		p.expect(token.PAREN_R)
		body := p.parseBlock()
		return p.finish(kw.Pos(), ast.Node{Kind: ast.Foreach, Kids: []ast.NodeID{ast.NoNode, init, body}})
	}
	cond := ast.NoNode
	if p.src.Peek().Type != token.SEMI {
		cond = p.ParseExpression()
	}
	p.expect(token.SEMI)
	update := ast.NoNode
	if p.src.Peek().Type != token.PAREN_R {
		update = p.ParseExpression()
	}
	if !p.expect(token.PAREN_R) {
		p.errorf(open, "unterminated for loop header")
	}
	body := p.parseBlock()
	return p.finish(kw.Pos(), ast.Node{Kind: ast.For, Kids: []ast.NodeID{init, cond, update, body}})
}

func isDeclarator(word string) bool {
	switch word {
	case "my", "our", "state":
		return true
	}
	return false
}
