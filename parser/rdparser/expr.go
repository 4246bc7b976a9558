// Copyright © 2024 The perlscope authors

package rdparser

import (
	"strings"

	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/parser/token"
)

// Binary operator precedence for operators between the ternary and the
// unary operators, loosest first. Named unary operators bind between the
// relational and shift operators.
var binaryPrec = map[string]int{
	"..": 1, "...": 1,
	"||": 2, "//": 2,
	"&&": 3,
	"|":  4, "^": 4,
	"&":  5,
	"==": 6, "!=": 6, "<=>": 6, "eq": 6, "ne": 6, "cmp": 6, "~~": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7, "lt": 7, "gt": 7, "le": 7, "ge": 7, "isa": 7,
	"<<": 9, ">>": 9,
	"+": 10, "-": 10, ".": 10,
	"*": 11, "/": 11, "%": 11, "x": 11,
	"=~": 12, "!~": 12,
}

const precNamedUnary = 9

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, ".=": true,
	"%=": true, "**=": true, "x=": true, "&=": true, "|=": true, "^=": true,
	"<<=": true, ">>=": true, "&&=": true, "||=": true, "//=": true,
}

// Functions which take a single argument binding tighter than comparison
// operators.
var namedUnary = map[string]bool{
	"defined": true, "ref": true, "scalar": true, "lc": true, "uc": true,
	"lcfirst": true, "ucfirst": true, "length": true, "chr": true, "ord": true,
	"hex": true, "oct": true, "abs": true, "int": true, "sqrt": true,
	"log": true, "exp": true, "sin": true, "cos": true, "rand": true,
	"srand": true, "exists": true, "delete": true, "each": true, "keys": true,
	"values": true, "chomp": true, "chop": true, "chdir": true, "rmdir": true,
	"readline": true, "close": true, "undef": true, "lock": true, "exit": true,
	"quotemeta": true, "fc": true, "sleep": true, "umask": true, "caller": true,
	"localtime": true, "gmtime": true, "alarm": true, "stat": true,
	"lstat": true, "fileno": true, "readdir": true, "closedir": true,
	"rewinddir": true, "chroot": true, "readlink": true,
	"evalbytes": true, "getpgrp": true,
}

// ParseExpression parses a full expression including low precedence word
// operators and comma lists.
func (p *Parser) ParseExpression() ast.NodeID {
	return p.parseLowOr()
}

func (p *Parser) parseLowOr() ast.NodeID {
	start := p.peekPos()
	left := p.parseLowAnd()
	for {
		op := p.src.Peek()
		if !op.Is(token.OP, "or") && !op.Is(token.OP, "xor") {
			return left
		}
		p.src.Scan()
		right := p.parseLowAnd()
		left = p.finish(start, ast.Node{Kind: ast.Binary, Op: op.Text, Kids: []ast.NodeID{left, right}})
	}
}

func (p *Parser) parseLowAnd() ast.NodeID {
	start := p.peekPos()
	left := p.parseLowNot()
	for p.src.Peek().Is(token.OP, "and") {
		p.src.Scan()
		right := p.parseLowNot()
		left = p.finish(start, ast.Node{Kind: ast.Binary, Op: "and", Kids: []ast.NodeID{left, right}})
	}
	return left
}

func (p *Parser) parseLowNot() ast.NodeID {
	tok := p.src.Peek()
	if !tok.Is(token.OP, "not") {
		return p.parseComma()
	}
	p.src.Scan()
	operand := ast.NoNode
	if p.startsTerm(p.src.Peek(), false) {
		operand = p.parseLowNot()
	}
	return p.finish(tok.Pos(), ast.Node{Kind: ast.Unary, Op: "not", Kids: []ast.NodeID{operand}})
}

func isComma(tok *token.Token) bool {
	return tok.Type == token.COMMA || tok.Type == token.FAT_COMMA
}

// parseComma parses a comma separated list of assignment expressions. A
// single element is returned as is. Otherwise the elements are wrapped in a
// node of the given kind, a List with Op "," by default.
func (p *Parser) parseComma() ast.NodeID {
	return p.parseCommaAs(ast.List, ",")
}

func (p *Parser) parseCommaAs(kind ast.Kind, op string) ast.NodeID {
	start := p.peekPos()
	first := p.parseAssign()
	if !isComma(p.src.Peek()) {
		return first
	}
	elems := []ast.NodeID{first}
	for isComma(p.src.Peek()) {
		p.src.Scan()
		if !p.startsTerm(p.src.Peek(), false) {
			break
		}
		elems = append(elems, p.parseAssign())
	}
	return p.finish(start, ast.Node{Kind: kind, Op: op, Kids: elems})
}

// flatten returns the elements of a bare comma list, or id itself.
func (p *Parser) flatten(id ast.NodeID) []ast.NodeID {
	n := p.tree.Node(id)
	switch {
	case n == nil:
		return nil
	case n.Kind == ast.List && n.Op == ",":
		return n.Kids
	default:
		return []ast.NodeID{id}
	}
}

func (p *Parser) parseAssign() ast.NodeID {
	start := p.peekPos()
	left := p.parseTernary()
	op := p.src.Peek()
	if op.Type != token.OP || !assignOps[op.Text] {
		return left
	}
	p.src.Scan()
	right := p.parseAssignOperand(op)
	return p.finish(start, ast.Node{Kind: ast.Assignment, Op: op.Text, Kids: []ast.NodeID{left, right}})
}

func (p *Parser) parseAssignOperand(op *token.Token) ast.NodeID {
	if !p.startsTerm(p.src.Peek(), false) {
		tok := p.src.Peek()
		return p.errorNode(tok, nil, "expected expression after '%s' but found %s", op.Text, describe(tok))
	}
	return p.parseAssign()
}

func (p *Parser) parseTernary() ast.NodeID {
	start := p.peekPos()
	cond := p.parseBinary(1)
	if !p.src.AcceptOp("?") {
		return cond
	}
	then := p.parseAssign()
	if !p.src.AcceptOp(":") {
		tok := p.src.Peek()
		return p.errorNode(tok, []ast.NodeID{cond, then}, "expected ':' in conditional expression but found %s", describe(tok))
	}
	els := p.parseAssign()
	return p.finish(start, ast.Node{Kind: ast.Ternary, Kids: []ast.NodeID{cond, then, els}})
}

// parseBinary parses left associative binary operators by precedence
// climbing.
func (p *Parser) parseBinary(minPrec int) ast.NodeID {
	start := p.peekPos()
	left := p.parseUnary()
	for {
		op := p.src.Peek()
		prec, ok := binaryPrec[op.Text]
		if op.Type != token.OP || !ok || prec < minPrec {
			return left
		}
		p.src.Scan()
		var right ast.NodeID
		if p.startsTerm(p.src.Peek(), false) {
			right = p.parseBinary(prec + 1)
		} else {
			tok := p.src.Peek()
			right = p.errorNode(tok, nil, "expected expression after '%s' but found %s", op.Text, describe(tok))
		}
		left = p.finish(start, ast.Node{Kind: ast.Binary, Op: op.Text, Kids: []ast.NodeID{left, right}})
	}
}

func (p *Parser) parseUnary() ast.NodeID {
	tok := p.src.Peek()
	switch {
	case tok.Type == token.OP && strings.Contains("!~\\-+", tok.Text) && len(tok.Text) == 1:
		p.src.Scan()
		if tok.Text == "-" && p.src.Peek().Type == token.IDENT && p.src.Peek().Pos() == tok.End() &&
			p.src.PeekAt(1).Type != token.PAREN_L {
			// -bareword is a string
			word := p.ReadToken()
			return p.finish(tok.Pos(), ast.Node{Kind: ast.String, Op: "bare", Name: "-" + word.Text})
		}
		operand := p.parseUnary()
		return p.finish(tok.Pos(), ast.Node{Kind: ast.Unary, Op: tok.Text, Kids: []ast.NodeID{operand}})
	case tok.Is(token.OP, "++"), tok.Is(token.OP, "--"):
		p.src.Scan()
		operand := p.parseUnary()
		return p.finish(tok.Pos(), ast.Node{Kind: ast.Unary, Op: tok.Text, Kids: []ast.NodeID{operand}})
	case tok.Type == token.FILETEST:
		p.src.Scan()
		operand := ast.NoNode
		if p.startsTerm(p.src.Peek(), true) {
			operand = p.parseUnary()
		}
		return p.finish(tok.Pos(), ast.Node{Kind: ast.Unary, Op: tok.Text, Kids: []ast.NodeID{operand}})
	}
	return p.parsePow()
}

func (p *Parser) parsePow() ast.NodeID {
	start := p.peekPos()
	base := p.parsePostfix()
	if !p.src.AcceptOp("**") {
		return base
	}
	exp := p.parseUnary()
	return p.finish(start, ast.Node{Kind: ast.Binary, Op: "**", Kids: []ast.NodeID{base, exp}})
}

// parsePostfix parses a primary expression followed by any number of
// subscripts, arrow dereferences, calls and postfix increments.
func (p *Parser) parsePostfix() ast.NodeID {
	start := p.peekPos()
	e := p.parsePrimary()
	for {
		tok := p.src.Peek()
		switch {
		case tok.Is(token.OP, "++"), tok.Is(token.OP, "--"):
			p.src.Scan()
			e = p.finish(start, ast.Node{Kind: ast.Postfix, Op: tok.Text, Kids: []ast.NodeID{e}})
		case tok.Type == token.ARROW:
			p.src.Scan()
			e = p.parseArrow(start, e)
		case tok.Type == token.BRACKET_L && p.subscriptable(e, true):
			idx := p.parseSubscript(token.BRACKET_R)
			e = p.finish(start, ast.Node{Kind: ast.Binary, Op: "[]", Kids: []ast.NodeID{e, idx}})
		case tok.Type == token.BRACE_L && p.subscriptable(e, false):
			key := p.parseSubscript(token.BRACE_R)
			e = p.finish(start, ast.Node{Kind: ast.Binary, Op: "{}", Kids: []ast.NodeID{e, key}})
		case tok.Type == token.PAREN_L && p.isSubscript(e):
			// $h{cb}(...) is an implicit arrow call
			args := p.parseCallArgs()
			e = p.finish(start, ast.Node{Kind: ast.FunctionCall, Op: "->", Kids: append([]ast.NodeID{e}, args...)})
		default:
			return e
		}
	}
}

func (p *Parser) parseArrow(start int, e ast.NodeID) ast.NodeID {
	tok := p.src.Peek()
	switch {
	case tok.Type == token.BRACKET_L:
		idx := p.parseSubscript(token.BRACKET_R)
		return p.finish(start, ast.Node{Kind: ast.Binary, Name: "->", Op: "[]", Kids: []ast.NodeID{e, idx}})
	case tok.Type == token.BRACE_L:
		key := p.parseSubscript(token.BRACE_R)
		return p.finish(start, ast.Node{Kind: ast.Binary, Name: "->", Op: "{}", Kids: []ast.NodeID{e, key}})
	case tok.Type == token.PAREN_L:
		args := p.parseCallArgs()
		return p.finish(start, ast.Node{Kind: ast.FunctionCall, Op: "->", Kids: append([]ast.NodeID{e}, args...)})
	case tok.Type == token.IDENT:
		p.src.Scan()
		var args []ast.NodeID
		if p.src.Peek().Type == token.PAREN_L {
			args = p.parseCallArgs()
		}
		return p.finish(start, ast.Node{Kind: ast.MethodCall, Name: tok.Text, Kids: append([]ast.NodeID{e}, args...)})
	case tok.Type == token.VARIABLE && tok.Text[0] == '$':
		p.src.Scan()
		method := p.variable(tok)
		dyn := p.finish(start, ast.Node{Kind: ast.Binary, Op: "->", Kids: []ast.NodeID{e, method}})
		if p.src.Peek().Type != token.PAREN_L {
			return dyn
		}
		args := p.parseCallArgs()
		return p.finish(start, ast.Node{Kind: ast.FunctionCall, Op: "->", Kids: append([]ast.NodeID{dyn}, args...)})
	case tok.Type == token.OP && strings.HasSuffix(tok.Text, "*") && len(tok.Text) > 1:
		p.src.Scan()
		return p.finish(start, ast.Node{Kind: ast.Unary, Op: "->" + tok.Text, Kids: []ast.NodeID{e}})
	case tok.Is(token.OP, "@"), tok.Is(token.OP, "%"):
		p.src.Scan()
		next := p.src.Peek()
		closer, op := token.BRACKET_R, "->"+tok.Text+"[]"
		if next.Type == token.BRACE_L {
			closer, op = token.BRACE_R, "->"+tok.Text+"{}"
		}
		idx := p.parseSubscript(closer)
		return p.finish(start, ast.Node{Kind: ast.Binary, Op: op, Kids: []ast.NodeID{e, idx}})
	default:
		return p.errorNode(tok, []ast.NodeID{e}, "unexpected %s after '->'", describe(tok))
	}
}

// subscriptable reports whether a subscript directly following e applies
// to it. List slices only use brackets.
func (p *Parser) subscriptable(e ast.NodeID, bracket bool) bool {
	n := p.tree.Node(e)
	if n == nil {
		return false
	}
	switch n.Kind {
	case ast.Variable:
		return true
	case ast.Binary:
		return ast.IsSubscript(n.Op) || strings.HasPrefix(n.Op, "->@") || strings.HasPrefix(n.Op, "->%")
	case ast.Unary:
		return strings.HasSuffix(n.Op, "{}") || strings.HasPrefix(n.Op, "->")
	case ast.List, ast.QuoteWords:
		return bracket
	case ast.FunctionCall:
		return n.Op == "->"
	case ast.MethodCall:
		return false
	}
	return false
}

func (p *Parser) isSubscript(e ast.NodeID) bool {
	n := p.tree.Node(e)
	return n != nil && n.Kind == ast.Binary && ast.IsSubscript(n.Op)
}

// parseSubscript parses the contents of a subscript through the closing
// delimiter. A bareword hash key becomes an Identifier and a multi-element
// slice becomes an ArrayLiteral.
func (p *Parser) parseSubscript(closer token.Type) ast.NodeID {
	open := p.ReadToken()
	if closer == token.BRACE_R {
		if word := p.src.Peek(); word.Type == token.IDENT && p.src.PeekAt(1).Type == token.BRACE_R {
			p.src.Scan()
			p.src.Scan()
			return p.leaf(word, ast.Node{Kind: ast.Identifier, Name: word.Text})
		}
	}
	if p.src.AcceptType(closer) {
		return p.errorNode(open, nil, "empty subscript")
	}
	e := p.parseLowOrAs(ast.ArrayLiteral)
	if !p.src.AcceptType(closer) {
		tok := p.src.Peek()
		return p.errorNode(tok, []ast.NodeID{e}, "expected '%s' but found %s", closer, describe(tok))
	}
	return e
}

// parseLowOrAs is ParseExpression with comma lists collected into a node of
// the given kind.
func (p *Parser) parseLowOrAs(kind ast.Kind) ast.NodeID {
	start := p.peekPos()
	e := p.ParseExpression()
	if n := p.tree.Node(e); n != nil && n.Kind == ast.List && n.Op == "," && kind != ast.List {
		return p.finish(start, ast.Node{Kind: kind, Kids: n.Kids})
	}
	return e
}

// parseCallArgs parses a parenthesized argument list and returns the
// arguments.
func (p *Parser) parseCallArgs() []ast.NodeID {
	open := p.ReadToken()
	if p.src.AcceptType(token.PAREN_R) {
		return nil
	}
	e := p.ParseExpression()
	if !p.src.AcceptType(token.PAREN_R) {
		tok := p.src.Peek()
		p.errorf(tok, "expected ')' to close '(' at %s but found %s", open.Source, describe(tok))
	}
	return p.flatten(e)
}

// startsTerm reports whether tok can begin an expression. In strict mode
// tokens which could also continue an expression as a binary operator are
// rejected, as is used after unknown barewords.
func (p *Parser) startsTerm(tok *token.Token, strict bool) bool {
	switch tok.Type {
	case token.VARIABLE, token.CAST, token.NUMBER, token.STRING, token.ISTRING,
		token.QW, token.REGEX, token.SUBST, token.TRANS, token.READLINE,
		token.FILETEST, token.BRACKET_L, token.PAREN_L:
		return true
	case token.BRACE_L:
		return !strict
	case token.IDENT:
		return !modifierKeywords[tok.Text]
	case token.OP:
		switch tok.Text {
		case "\\":
			return true
		case "!", "-", "+", "~", "not", "++", "--":
			return !strict
		}
	}
	return false
}
