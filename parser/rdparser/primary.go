// Copyright © 2024 The perlscope authors

package rdparser

import (
	"strings"

	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/parser/token"
)

// Functions whose arguments are a list and which therefore consume
// everything up to the next low precedence operator.
var listOps = map[string]bool{
	"die": true, "warn": true, "push": true, "unshift": true, "splice": true,
	"join": true, "split": true, "sprintf": true, "open": true, "binmode": true,
	"bless": true, "reverse": true, "unlink": true, "mkdir": true, "chmod": true,
	"chown": true, "kill": true, "utime": true, "system": true, "exec": true,
	"pack": true, "unpack": true,
	"sysopen": true, "sysread": true, "syswrite": true, "read": true, "seek": true,
	"opendir": true, "select": true, "substr": true, "index": true, "rindex": true,
	"atan2": true, "crypt": true, "vec": true, "waitpid": true,
	"croak": true, "confess": true, "carp": true, "cluck": true,
	"dbmopen": true, "flock": true, "truncate": true, "rename": true, "link": true,
	"symlink": true, "send": true, "recv": true, "socket": true, "bind": true,
	"connect": true, "listen": true, "accept": true, "shutdown": true,
	"setsockopt": true, "getsockopt": true, "formline": true, "syscall": true,
	"ioctl": true, "fcntl": true, "seekdir": true,
}

// Barewords which never take arguments.
var noArgWords = map[string]bool{
	"__PACKAGE__": true, "__FILE__": true, "__LINE__": true, "__SUB__": true,
	"__CLASS__": true, "wantarray": true, "time": true, "times": true,
	"wait": true, "fork": true, "getppid": true, "getlogin": true,
	"break": true,
}

func (p *Parser) parsePrimary() ast.NodeID {
	tok := p.src.Peek()
	if p.depth >= maxDepth {
		p.src.Scan()
		return p.errorNode(tok, nil, "expression nested too deeply")
	}
	p.depth++
	defer func() { p.depth-- }()

	switch tok.Type {
	case token.VARIABLE:
		p.src.Scan()
		if tok.Text[0] == '&' {
			return p.parseAmpersandCall(tok)
		}
		return p.variable(tok)
	case token.CAST:
		return p.parseCast()
	case token.NUMBER:
		p.src.Scan()
		return p.leaf(tok, ast.Node{Kind: ast.Number, Name: tok.Text})
	case token.STRING:
		p.src.Scan()
		return p.leaf(tok, ast.Node{Kind: ast.String, Op: quoteStyle(tok.Text), Name: tok.Value})
	case token.ISTRING:
		p.src.Scan()
		return p.interpolated(tok)
	case token.QW:
		p.src.Scan()
		return p.leaf(tok, ast.Node{Kind: ast.QuoteWords, Args: strings.Fields(tok.Value)})
	case token.REGEX, token.SUBST, token.TRANS:
		p.src.Scan()
		return p.regex(tok)
	case token.READLINE:
		p.src.Scan()
		return p.readline(tok)
	case token.PAREN_L:
		return p.parseParenList()
	case token.BRACKET_L:
		return p.parseAnonymous(token.BRACKET_R, ast.ArrayLiteral)
	case token.BRACE_L:
		return p.parseAnonymous(token.BRACE_R, ast.HashLiteral)
	case token.IDENT:
		return p.parseWord()
	case token.ERROR:
		p.src.Scan()
		return p.errorNode(tok, nil, "%s", tok.Value)
	case token.EOF, token.SEMI, token.PAREN_R, token.BRACKET_R, token.BRACE_R:
		return p.errorNode(tok, nil, "expected expression but found %s", describe(tok))
	default:
		p.src.Scan()
		return p.errorNode(tok, nil, "unexpected %s", describe(tok))
	}
}

// variable returns the node for a VARIABLE token. The array length form
// $#name becomes a unary "$#" applied to @name.
func (p *Parser) variable(tok *token.Token) ast.NodeID {
	if strings.HasPrefix(tok.Text, "$#") && len(tok.Text) > 2 && tok.Value != "#" {
		v := p.tree.Add(ast.Node{
			Kind:  ast.Variable,
			Span:  ast.Span{Start: tok.Pos() + 2, End: tok.End()},
			Sigil: "@",
			Name:  tok.Value,
		})
		return p.leaf(tok, ast.Node{Kind: ast.Unary, Op: "$#", Kids: []ast.NodeID{v}})
	}
	return p.leaf(tok, ast.Node{Kind: ast.Variable, Sigil: tok.Text[:1], Name: tok.Value})
}

// parseAmpersandCall parses &name and &name(...), which call a sub rather
// than name a variable.
func (p *Parser) parseAmpersandCall(tok *token.Token) ast.NodeID {
	var args []ast.NodeID
	if p.src.Peek().Type == token.PAREN_L {
		args = p.parseCallArgs()
	}
	return p.finish(tok.Pos(), ast.Node{Kind: ast.FunctionCall, Name: tok.Value, Op: "&", Kids: args})
}

// parseCast parses a sigil applied to a block or to another scalar, as in
// @{$ref}, %$ref, $$ref or $#{$ref}.
func (p *Parser) parseCast() ast.NodeID {
	tok := p.ReadToken()
	var inner ast.NodeID
	next := p.src.Peek()
	switch next.Type {
	case token.BRACE_L:
		p.src.Scan()
		if p.src.AcceptType(token.BRACE_R) {
			inner = p.errorNode(next, nil, "empty dereference block")
			break
		}
		inner = p.parseBlockExpr()
		if !p.src.AcceptType(token.BRACE_R) {
			bad := p.src.Peek()
			inner = p.errorNode(bad, []ast.NodeID{inner}, "expected '}' but found %s", describe(bad))
		}
	case token.VARIABLE:
		p.src.Scan()
		inner = p.variable(next)
	case token.CAST:
		inner = p.parseCast()
	default:
		inner = p.errorNode(next, nil, "expected reference after '%s' but found %s", tok.Text, describe(next))
	}
	e := p.finish(tok.Pos(), ast.Node{Kind: ast.Unary, Op: tok.Text + "{}", Kids: []ast.NodeID{inner}})
	if tok.Text == "&" {
		var args []ast.NodeID
		if p.src.Peek().Type == token.PAREN_L {
			args = p.parseCallArgs()
		}
		return p.finish(tok.Pos(), ast.Node{Kind: ast.FunctionCall, Op: "&", Kids: append([]ast.NodeID{e}, args...)})
	}
	return e
}

// parseBlockExpr parses the inside of a dereference block. The block is
// usually a single expression but may hold statements.
func (p *Parser) parseBlockExpr() ast.NodeID {
	start := p.peekPos()
	e := p.ParseExpression()
	if !p.src.AcceptType(token.SEMI) || p.src.Peek().Type == token.BRACE_R {
		return e
	}
	stmts := []ast.NodeID{p.finish(start, ast.Node{Kind: ast.ExpressionStatement, Kids: []ast.NodeID{e}})}
	for !p.src.IsEOF() && p.src.Peek().Type != token.BRACE_R {
		before := p.src.Peek()
		if stmt := p.ParseStatement(); stmt.IsValid() {
			stmts = append(stmts, stmt)
		}
		if p.src.Peek() == before {
			break
		}
	}
	return p.finish(start, ast.Node{Kind: ast.Block, Kids: stmts})
}

// parseParenList parses a parenthesized expression, which always yields a
// List node.
func (p *Parser) parseParenList() ast.NodeID {
	open := p.ReadToken()
	if p.src.AcceptType(token.PAREN_R) {
		return p.finish(open.Pos(), ast.Node{Kind: ast.List, Op: "()"})
	}
	e := p.ParseExpression()
	if !p.src.AcceptType(token.PAREN_R) {
		tok := p.src.Peek()
		return p.errorNode(tok, []ast.NodeID{e}, "expected ')' to close '(' at %s but found %s", open.Source, describe(tok))
	}
	return p.finish(open.Pos(), ast.Node{Kind: ast.List, Op: "()", Kids: p.flatten(e)})
}

// parseAnonymous parses an anonymous array or hash constructor.
func (p *Parser) parseAnonymous(closer token.Type, kind ast.Kind) ast.NodeID {
	open := p.ReadToken()
	if p.src.AcceptType(closer) {
		return p.finish(open.Pos(), ast.Node{Kind: kind})
	}
	e := p.ParseExpression()
	if !p.src.AcceptType(closer) {
		tok := p.src.Peek()
		return p.errorNode(tok, []ast.NodeID{e}, "expected '%s' to close '%s' at %s but found %s", closer, open.Text, open.Source, describe(tok))
	}
	return p.finish(open.Pos(), ast.Node{Kind: kind, Kids: p.flatten(e)})
}

// parseWord parses an expression beginning with a bareword: keywords,
// declarations, function calls, class names and plain barewords.
func (p *Parser) parseWord() ast.NodeID {
	tok := p.src.Peek()
	word := tok.Text
	next := p.src.PeekAt(1)
	if next.Type == token.FAT_COMMA {
		p.src.Scan()
		return p.leaf(tok, ast.Node{Kind: ast.String, Op: "bare", Name: word})
	}
	switch word {
	case "my", "our", "state":
		return p.parseDeclaration()
	case "local":
		p.src.Scan()
		operand := p.parsePostfix()
		return p.finish(tok.Pos(), ast.Node{Kind: ast.Unary, Op: "local", Kids: []ast.NodeID{operand}})
	case "sub":
		return p.parseSub()
	case "method":
		if next.Type == token.BRACE_L || next.Type == token.PAREN_L {
			return p.parseSub()
		}
	case "do", "eval":
		return p.parseDoEval()
	case "return":
		p.src.Scan()
		val := ast.NoNode
		if p.startsTerm(p.src.Peek(), false) {
			val = p.parseComma()
		}
		return p.finish(tok.Pos(), ast.Node{Kind: ast.Return, Kids: []ast.NodeID{val}})
	case "last", "next", "redo":
		p.src.Scan()
		var label string
		if l := p.src.Peek(); l.Type == token.IDENT && !modifierKeywords[l.Text] {
			label = p.ReadToken().Text
		}
		return p.finish(tok.Pos(), ast.Node{Kind: ast.LoopControl, Op: word, Name: label})
	case "tie":
		return p.parseTie()
	case "untie":
		p.src.Scan()
		args := p.parseOperatorArgs()
		return p.finish(tok.Pos(), ast.Node{Kind: ast.Untie, Kids: args})
	case "print", "printf", "say":
		return p.parsePrint()
	case "sort", "map", "grep":
		return p.parseBlockListOp()
	case "require":
		p.src.Scan()
		arg := ast.NoNode
		if mod := p.src.Peek(); mod.Type == token.IDENT {
			p.src.Scan()
			arg = p.leaf(mod, ast.Node{Kind: ast.String, Op: "bare", Name: mod.Text})
		} else if p.startsTerm(mod, false) {
			arg = p.parseBinary(precNamedUnary)
		}
		return p.finish(tok.Pos(), ast.Node{Kind: ast.FunctionCall, Name: word, Kids: nonEmpty(arg)})
	case "shift", "pop":
		p.src.Scan()
		var args []ast.NodeID
		switch arg := p.src.Peek(); {
		case arg.Type == token.PAREN_L:
			args = p.parseCallArgs()
		case arg.Type == token.VARIABLE && arg.Text[0] == '@', arg.Is(token.CAST, "@"):
			args = []ast.NodeID{p.parsePostfix()}
		}
		return p.finish(tok.Pos(), ast.Node{Kind: ast.FunctionCall, Name: word, Kids: args})
	}
	p.src.Scan()
	switch {
	case noArgWords[word]:
		if next.Type == token.PAREN_L && next.Pos() == tok.End() {
			p.parseCallArgs()
		}
		return p.leaf(tok, ast.Node{Kind: ast.Identifier, Name: word})
	case next.Type == token.ARROW:
		return p.leaf(tok, ast.Node{Kind: ast.Identifier, Name: word})
	case next.Type == token.PAREN_L:
		args := p.parseCallArgs()
		return p.finish(tok.Pos(), ast.Node{Kind: ast.FunctionCall, Name: word, Kids: args})
	case namedUnary[word]:
		arg := ast.NoNode
		if p.startsTerm(p.src.Peek(), false) {
			arg = p.parseBinary(precNamedUnary)
		}
		return p.finish(tok.Pos(), ast.Node{Kind: ast.FunctionCall, Name: word, Kids: nonEmpty(arg)})
	case listOps[word]:
		var args []ast.NodeID
		if p.startsTerm(p.src.Peek(), false) {
			args = p.flatten(p.parseComma())
		}
		return p.finish(tok.Pos(), ast.Node{Kind: ast.FunctionCall, Name: word, Kids: args})
	case next.Type == token.BRACE_L:
		return p.parseBlockCall(tok)
	case word == "new" && next.Type == token.IDENT && isClassName(next.Text, p.src.PeekAt(1)):
		// indirect object syntax: new Foo(...)
		class := p.ReadToken()
		obj := p.leaf(class, ast.Node{Kind: ast.Identifier, Name: class.Text})
		var args []ast.NodeID
		if p.src.Peek().Type == token.PAREN_L {
			args = p.parseCallArgs()
		}
		return p.finish(tok.Pos(), ast.Node{Kind: ast.IndirectCall, Name: word, Kids: append([]ast.NodeID{obj}, args...)})
	case p.startsTerm(next, true):
		args := p.flatten(p.parseComma())
		return p.finish(tok.Pos(), ast.Node{Kind: ast.FunctionCall, Name: word, Kids: args})
	}
	return p.leaf(tok, ast.Node{Kind: ast.Identifier, Name: word})
}

// isClassName reports whether word looks like a package name used as an
// invocant: it is capitalized or qualified and followed by an arrow, an
// argument list or the end of the statement.
func isClassName(word string, next *token.Token) bool {
	if word == "" || !(strings.Contains(word, "::") || ('A' <= word[0] && word[0] <= 'Z')) {
		return false
	}
	return next.Type == token.ARROW || next.Type == token.PAREN_L || next.Type == token.SEMI
}

func nonEmpty(id ast.NodeID) []ast.NodeID {
	if !id.IsValid() {
		return nil
	}
	return []ast.NodeID{id}
}

// parseBlockCall parses a call to an unknown function whose first argument
// is a block, such as try/catch/finally from the various try modules.
// Chained block calls become trailing arguments.
func (p *Parser) parseBlockCall(tok *token.Token) ast.NodeID {
	args := []ast.NodeID{p.parseBlock()}
	if next := p.src.Peek(); next.Type == token.IDENT && p.src.PeekAt(1).Type == token.BRACE_L && !modifierKeywords[next.Text] {
		args = append(args, p.parseWord())
	} else if p.src.AcceptType(token.COMMA) || p.startsTerm(p.src.Peek(), true) {
		if p.startsTerm(p.src.Peek(), false) {
			args = append(args, p.flatten(p.parseComma())...)
		}
	}
	return p.finish(tok.Pos(), ast.Node{Kind: ast.FunctionCall, Name: tok.Text, Kids: args})
}

// parseOperatorArgs parses either a parenthesized argument list or a
// single named unary argument.
func (p *Parser) parseOperatorArgs() []ast.NodeID {
	if p.src.Peek().Type == token.PAREN_L {
		return p.parseCallArgs()
	}
	if p.startsTerm(p.src.Peek(), false) {
		return p.flatten(p.parseComma())
	}
	return nil
}

// parseDeclaration parses my, our and state declarations of a single
// variable or a parenthesized list, with an optional initializer.
func (p *Parser) parseDeclaration() ast.NodeID {
	kw := p.ReadToken()
	tok := p.src.Peek()
	switch tok.Type {
	case token.VARIABLE:
		p.src.Scan()
		v := p.variable(tok)
		p.skipAttributes()
		init := ast.NoNode
		if op := p.src.Peek(); op.Is(token.OP, "=") {
			p.src.Scan()
			init = p.parseAssignOperand(op)
		}
		return p.finish(kw.Pos(), ast.Node{Kind: ast.VariableDeclaration, Op: kw.Text, Kids: []ast.NodeID{v, init}})
	case token.PAREN_L:
		p.src.Scan()
		var vars []ast.NodeID
	loop:
		for {
			v := p.src.Peek()
			switch {
			case v.Type == token.PAREN_R:
				p.src.Scan()
				break loop
			case v.Type == token.VARIABLE:
				p.src.Scan()
				vars = append(vars, p.variable(v))
			case v.Type == token.COMMA, v.Is(token.IDENT, "undef"):
				p.src.Scan()
			default:
				p.errorf(v, "expected variable in %s list but found %s", kw.Text, describe(v))
				break loop
			}
		}
		p.skipAttributes()
		init := ast.NoNode
		if op := p.src.Peek(); op.Is(token.OP, "=") {
			p.src.Scan()
			init = p.parseAssignOperand(op)
		}
		return p.finish(kw.Pos(), ast.Node{
			Kind: ast.VariableListDeclaration,
			Op:   kw.Text,
			Kids: append([]ast.NodeID{init}, vars...),
		})
	default:
		return p.errorNode(tok, nil, "expected variable after '%s' but found %s", kw.Text, describe(tok))
	}
}

func (p *Parser) parseDoEval() ast.NodeID {
	kw := p.ReadToken()
	kind := ast.Do
	if kw.Text == "eval" {
		kind = ast.Eval
	}
	arg := ast.NoNode
	switch {
	case p.src.Peek().Type == token.BRACE_L:
		arg = p.parseBlock()
	case p.src.Peek().Type == token.PAREN_L:
		args := p.parseCallArgs()
		if len(args) > 0 {
			arg = args[0]
		}
	case p.startsTerm(p.src.Peek(), false):
		arg = p.parseBinary(precNamedUnary)
	}
	return p.finish(kw.Pos(), ast.Node{Kind: kind, Kids: []ast.NodeID{arg}})
}

// parseTie parses tie VARIABLE, CLASSNAME, LIST.
func (p *Parser) parseTie() ast.NodeID {
	kw := p.ReadToken()
	args := p.parseOperatorArgs()
	if len(args) < 2 {
		return p.errorNode(kw, args, "tie requires a variable and a class")
	}
	return p.finish(kw.Pos(), ast.Node{Kind: ast.Tie, Kids: args})
}

// parsePrint parses print, printf and say, recognizing an optional
// filehandle before the argument list.
func (p *Parser) parsePrint() ast.NodeID {
	kw := p.ReadToken()
	paren := p.src.Peek().Type == token.PAREN_L && p.src.Peek().Pos() <= kw.End()+1
	var open *token.Token
	if paren {
		open = p.ReadToken()
	}
	fh := ast.NoNode
	tok := p.src.Peek()
	next := p.src.PeekAt(1)
	switch {
	case tok.Type == token.BRACE_L:
		fh = p.parseBlock()
	case tok.Type == token.IDENT && isFilehandleName(tok.Text) && !isComma(next) &&
		next.Type != token.PAREN_L && next.Type != token.ARROW && next.Type != token.OP:
		p.src.Scan()
		fh = p.leaf(tok, ast.Node{Kind: ast.Identifier, Name: tok.Text})
	case tok.Type == token.VARIABLE && tok.Text[0] == '$' && !strings.HasPrefix(tok.Text, "$#") && startsFilehandleArg(next):
		p.src.Scan()
		fh = p.variable(tok)
	}
	var args []ast.NodeID
	switch {
	case paren:
		if !p.src.AcceptType(token.PAREN_R) {
			args = p.flatten(p.ParseExpression())
			if !p.src.AcceptType(token.PAREN_R) {
				bad := p.src.Peek()
				p.errorf(bad, "expected ')' to close '(' at %s but found %s", open.Source, describe(bad))
			}
		}
	case p.startsTerm(p.src.Peek(), false):
		args = p.flatten(p.parseComma())
	}
	if fh.IsValid() {
		return p.finish(kw.Pos(), ast.Node{Kind: ast.IndirectCall, Name: kw.Text, Kids: append([]ast.NodeID{fh}, args...)})
	}
	return p.finish(kw.Pos(), ast.Node{Kind: ast.FunctionCall, Name: kw.Text, Kids: args})
}

// isFilehandleName reports whether word is spelled like a bareword
// filehandle (STDERR, OUT, LOG_FH).
func isFilehandleName(word string) bool {
	letter := false
	for i := 0; i < len(word); i++ {
		c := word[i]
		switch {
		case 'A' <= c && c <= 'Z':
			letter = true
		case c == '_' || token.IsDigit(c):
		default:
			return false
		}
	}
	return letter
}

// startsFilehandleArg reports whether tok, following "print $fh", begins
// the argument list, making $fh a filehandle.
func startsFilehandleArg(tok *token.Token) bool {
	switch tok.Type {
	case token.VARIABLE, token.CAST, token.STRING, token.ISTRING, token.NUMBER, token.QW:
		return true
	case token.IDENT:
		return !modifierKeywords[tok.Text]
	}
	return false
}

// parseBlockListOp parses sort, map and grep, whose first argument may be a
// block or, for sort, a comparison sub.
func (p *Parser) parseBlockListOp() ast.NodeID {
	kw := p.ReadToken()
	paren := p.src.AcceptType(token.PAREN_L)
	var args []ast.NodeID
	tok := p.src.Peek()
	switch {
	case tok.Type == token.BRACE_L && p.isBlockArg():
		args = append(args, p.parseBlock())
		p.src.AcceptType(token.COMMA)
	case kw.Text == "sort" && tok.Type == token.IDENT && !modifierKeywords[tok.Text] && !namedUnary[tok.Text] &&
		!listOps[tok.Text] && tok.Text != "map" && tok.Text != "grep" && tok.Text != "sort" && p.startsTerm(p.src.PeekAt(1), true):
		p.src.Scan()
		args = append(args, p.leaf(tok, ast.Node{Kind: ast.FunctionCall, Name: tok.Text, Op: "&"}))
	case kw.Text == "sort" && tok.Type == token.VARIABLE && tok.Text[0] == '$' && p.src.PeekAt(1).Type == token.VARIABLE:
		p.src.Scan()
		args = append(args, p.variable(tok))
	}
	switch {
	case paren:
		if !p.src.AcceptType(token.PAREN_R) {
			args = append(args, p.flatten(p.ParseExpression())...)
			p.expect(token.PAREN_R)
		}
	case p.startsTerm(p.src.Peek(), false):
		args = append(args, p.flatten(p.parseComma())...)
	}
	return p.finish(kw.Pos(), ast.Node{Kind: ast.FunctionCall, Name: kw.Text, Kids: args})
}

// isBlockArg guesses whether the brace after map or grep opens a block
// rather than an anonymous hash: "{ word =>" and "{ 'str' =>" followed by
// a comma after the closing brace are hashes.
func (p *Parser) isBlockArg() bool {
	first, second := p.src.PeekAt(1), p.src.PeekAt(2)
	if (first.Type == token.STRING || first.Type == token.ISTRING) && second.Type == token.FAT_COMMA {
		return !p.closesBeforeComma()
	}
	if first.Type == token.BRACE_R {
		return false
	}
	return true
}

// closesBeforeComma reports whether the brace group opening at the next
// token is directly followed by a comma.
func (p *Parser) closesBeforeComma() bool {
	depth := 0
	for i := 0; ; i++ {
		tok := p.src.PeekAt(i)
		switch tok.Type {
		case token.EOF:
			return false
		case token.BRACE_L, token.PAREN_L, token.BRACKET_L:
			depth++
		case token.BRACE_R, token.PAREN_R, token.BRACKET_R:
			depth--
			if depth == 0 {
				return isComma(p.src.PeekAt(i + 1))
			}
		}
	}
}
