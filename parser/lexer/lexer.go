// Copyright © 2024 The perlscope authors

// Package lexer converts Perl source text into tokens.
//
// Perl cannot be tokenized without some knowledge of the grammar: "/" is a
// division operator after a term and a regex delimiter where a term is
// expected, "%" is a hash sigil or a modulus, "<" starts a readline or
// compares. The lexer tracks whether the next token is expected to begin a
// term from the tokens it has already emitted.
package lexer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/luthersystems/perlscope/parser/token"
)

type LexFn func(*Lexer) []*token.Token

// Barewords after which an operator, not a term, is expected.
var noArgFuncs = map[string]bool{
	"time":        true,
	"wantarray":   true,
	"wait":        true,
	"__FILE__":    true,
	"__LINE__":    true,
	"__PACKAGE__": true,
	"__SUB__":     true,
	"__CLASS__":   true,
	"times":       true,
	"getppid":     true,
	"fork":        true,
	"getlogin":    true,
	"shift":       true,
	"pop":         true,
}

// Word operators recognized by the lexer. "x" is handled separately since
// it is only an operator where an operator is expected.
var wordOps = map[string]bool{
	"lt": true, "gt": true, "le": true, "ge": true, "eq": true, "ne": true,
	"cmp": true, "and": true, "or": true, "xor": true, "not": true, "isa": true,
}

// Punctuation operators, longest first.
var punctOps = []string{
	"<=>", "**=", "||=", "&&=", "//=", "...", "<<=", ">>=",
	"++", "--", "**", "=~", "!~", "==", "!=", "<=", ">=", "&&", "||", "//",
	"..", "::", "+=", "-=", "*=", "/=", ".=", "%=", "&=", "|=", "^=", "<<", ">>",
	"=", "+", "-", "*", "/", ".", "%", "<", ">", "!", "~", "\\", "?", ":",
	"&", "|", "^",
}

// Punctuation variables spelled with a single character after "$".
const specialVarChars = "&`'+!@/\\,;.<>[]|?\"=~%-:0"

// File test operators, as in -e $path.
const fileTestChars = "rwxoRWXOezsfdlpSbcugktTBAMC"

type Lexer struct {
	scanner *token.Scanner
	lex     LexFn

	prev     *token.Token // last significant token
	prevPrev *token.Token

	heredocEnd int // resume offset after pending heredoc bodies
	subState   int // tracks "sub NAME (" for prototype detection
	dataStart  int
}

func New(s *token.Scanner) *Lexer {
	lex := &Lexer{
		scanner:   s,
		lex:       (*Lexer).readToken,
		dataStart: -1,
	}
	return lex
}

// Tokenize lexes all of src and returns the tokens including the terminating
// EOF token.
func Tokenize(file string, src []byte) []*token.Token {
	lex := New(token.NewScanner(file, src))
	var toks []*token.Token
	for {
		for _, tok := range lex.ReadToken() {
			toks = append(toks, tok)
			if tok.Type == token.EOF {
				return toks
			}
		}
	}
}

// DataStart returns the offset of an __END__ or __DATA__ marker, or -1 if
// the lexer has not encountered one.
func (lex *Lexer) DataStart() int {
	return lex.dataStart
}

func (lex *Lexer) ReadToken() []*token.Token {
	toks := lex.lex(lex)
	for _, tok := range toks {
		switch tok.Type {
		case token.COMMENT, token.POD:
		default:
			lex.prevPrev = lex.prev
			lex.prev = tok
		}
	}
	return toks
}

func (lex *Lexer) readToken() []*token.Token {
	lex.skipWhitespace()
	s := lex.scanner
	if s.EOF() {
		return lex.emit(token.EOF, "")
	}
	if lex.atLineStart() && s.HasPrefix("=") {
		if c, _ := s.PeekAt(1); token.IsLetter(c) {
			return lex.readPod()
		}
	}
	c, _ := s.Peek()
	subState := lex.subState
	lex.subState = 0
	term := lex.expectTerm()
	if lex.prev != nil && lex.prev.Type == token.ARROW {
		if toks := lex.readPostfixDeref(); toks != nil {
			return toks
		}
	}
	switch {
	case c == '#':
		s.AcceptSeq(func(c byte) bool { return c != '\n' })
		lex.subState = subState
		return lex.emitText(token.COMMENT)
	case c == '(':
		if subState > 0 {
			if tok := lex.readPrototype(); tok != nil {
				return tok
			}
		}
		return lex.charToken(token.PAREN_L)
	case c == ')':
		return lex.charToken(token.PAREN_R)
	case c == '[':
		return lex.charToken(token.BRACKET_L)
	case c == ']':
		return lex.charToken(token.BRACKET_R)
	case c == '{':
		return lex.charToken(token.BRACE_L)
	case c == '}':
		return lex.charToken(token.BRACE_R)
	case c == ';':
		return lex.charToken(token.SEMI)
	case c == ',':
		return lex.charToken(token.COMMA)
	case c == '=' && s.HasPrefix("=>"):
		s.AcceptString("=>")
		return lex.emitText(token.FAT_COMMA)
	case c == '-' && s.HasPrefix("->"):
		s.AcceptString("->")
		return lex.emitText(token.ARROW)
	case c == '\'':
		return lex.readQuoted(token.STRING, c)
	case c == '"', c == '`':
		return lex.readQuoted(token.ISTRING, c)
	case token.IsDigit(c):
		return lex.readNumber()
	case c == '.' && term && lex.peekIsDigit(1):
		return lex.readNumber()
	case c == '$':
		return lex.readScalar()
	case c == '@':
		return lex.readSigil('@')
	case (c == '%' || c == '&' || c == '*') && term:
		if toks := lex.readSigil(c); toks != nil {
			return toks
		}
		return lex.readOperator()
	case c == '/' && term:
		s.Next()
		return lex.readRegex(token.REGEX, "m", '/')
	case c == '<' && term:
		if toks := lex.readAngle(); toks != nil {
			return toks
		}
		return lex.readOperator()
	case c == '-' && term && lex.isFileTest():
		s.Next()
		s.Next()
		return lex.emitText(token.FILETEST)
	case token.IsIdentStart(c):
		return lex.readWord(term, subState)
	case c == ':' && s.HasPrefix("::"):
		if b, _ := s.PeekAt(2); token.IsIdentStart(b) {
			return lex.readWord(term, subState)
		}
		return lex.readOperator()
	default:
		return lex.readOperator()
	}
}

func (lex *Lexer) atLineStart() bool {
	pos := lex.scanner.Pos()
	return pos == 0 || lex.scanner.Src()[pos-1] == '\n'
}

func (lex *Lexer) peekIsDigit(n int) bool {
	c, ok := lex.scanner.PeekAt(n)
	return ok && token.IsDigit(c)
}

// expectTerm reports whether the next token starts a term rather than
// continuing an expression with an operator.
func (lex *Lexer) expectTerm() bool {
	if lex.prev == nil {
		return true
	}
	switch lex.prev.Type {
	case token.VARIABLE, token.NUMBER, token.STRING, token.ISTRING, token.QW,
		token.READLINE, token.REGEX, token.SUBST, token.TRANS,
		token.PAREN_R, token.BRACKET_R, token.BRACE_R:
		return false
	case token.IDENT:
		if lex.prevPrev != nil && lex.prevPrev.Type == token.ARROW {
			return false
		}
		return !noArgFuncs[lex.prev.Text]
	case token.OP:
		return lex.prev.Text != "++" && lex.prev.Text != "--"
	default:
		return true
	}
}

func (lex *Lexer) readPod() []*token.Token {
	s := lex.scanner
	for !s.EOF() {
		lineStart := s.Pos()
		s.AcceptSeq(func(c byte) bool { return c != '\n' })
		line := s.Src()[lineStart:s.Pos()]
		s.AcceptByte('\n')
		if bytes.HasPrefix(line, []byte("=cut")) {
			rest := line[4:]
			if len(rest) == 0 || token.IsSpace(rest[0]) {
				break
			}
		}
	}
	return lex.emitText(token.POD)
}

func (lex *Lexer) readPrototype() []*token.Token {
	s := lex.scanner
	rest := s.Rest()
	end := bytes.IndexByte(rest, ')')
	if end < 0 {
		return nil
	}
	body := rest[1:end]
	for _, c := range body {
		if !strings.ContainsRune(" \t\n$@%&*;\\[]+_", rune(c)) {
			return nil
		}
	}
	start := s.Pos()
	s.Seek(start + end + 1)
	tok := lex.emitText(token.PROTOTYPE)
	tok[0].Value = string(body)
	tok[0].ValuePos = start + 1
	return tok
}

func (lex *Lexer) isFileTest() bool {
	s := lex.scanner
	c, ok := s.PeekAt(1)
	if !ok || strings.IndexByte(fileTestChars, c) < 0 {
		return false
	}
	next, ok := s.PeekAt(2)
	if !ok {
		return true
	}
	if token.IsWordByte(next) || next == '>' || next == '=' {
		return false
	}
	// "-x => 1" is a hash key.
	after := bytes.TrimLeft(s.Rest()[2:], " \t")
	return !bytes.HasPrefix(after, []byte("=>"))
}

// readPostfixDeref scans the postfix dereference forms that may follow an
// arrow: ->@*, ->%*, ->$*, ->&*, ->**, ->$#* and the slices ->@[...],
// ->@{...}, ->%[...], ->%{...}.
func (lex *Lexer) readPostfixDeref() []*token.Token {
	s := lex.scanner
	for _, op := range []string{"$#*", "$*", "@*", "%*", "&*", "**"} {
		if s.AcceptString(op) {
			return lex.emitText(token.OP)
		}
	}
	c, _ := s.Peek()
	if next, _ := s.PeekAt(1); (c == '@' || c == '%') && (next == '[' || next == '{') {
		s.Next()
		return lex.emitText(token.OP)
	}
	return nil
}

func (lex *Lexer) readOperator() []*token.Token {
	s := lex.scanner
	for _, op := range punctOps {
		if s.AcceptString(op) {
			return lex.emitText(token.OP)
		}
	}
	s.Next()
	tok := lex.emitText(token.INVALID)
	tok[0].Value = fmt.Sprintf("unexpected character %q", tok[0].Text)
	return tok
}

// readWord scans an identifier, possibly package qualified, and classifies
// it as a bareword, word operator, quote-like operator or version literal.
func (lex *Lexer) readWord(term bool, subState int) []*token.Token {
	s := lex.scanner
	start := s.Pos()
	s.AcceptString("::")
	for {
		s.AcceptSeq(token.IsWordByte)
		if !s.HasPrefix("::") {
			break
		}
		s.AcceptString("::")
	}
	word := string(s.Src()[start:s.Pos()])

	if (word == "__END__" || word == "__DATA__") && lex.atWordLineStart(start) {
		lex.dataStart = start
		s.Seek(s.End())
		s.Ignore()
		return lex.emit(token.EOF, "")
	}
	if lex.isHashKeyWord() {
		return lex.emitText(token.IDENT)
	}
	if isVersionWord(word) {
		for s.HasPrefix(".") && lex.peekIsDigit(1) {
			s.Next()
			s.AcceptSeq(func(c byte) bool { return token.IsDigit(c) || c == '_' })
		}
		return lex.emitText(token.NUMBER)
	}
	if !term && word == "x" {
		s.AcceptByte('=')
		return lex.emitText(token.OP)
	}
	if wordOps[word] {
		return lex.emitText(token.OP)
	}
	switch word {
	case "q", "qq", "qw", "qr", "m", "s", "tr", "y":
		if subState == 2 {
			// sub s { ... }
			lex.subState = 1
			break
		}
		if delim, ok := lex.quoteDelimiter(); ok {
			return lex.readQuoteLike(word, delim)
		}
	case "sub", "method":
		lex.subState = 2
	default:
		if subState == 2 {
			lex.subState = 1
		}
	}
	return lex.emitText(token.IDENT)
}

func (lex *Lexer) atWordLineStart(start int) bool {
	return start == 0 || lex.scanner.Src()[start-1] == '\n'
}

// isHashKeyWord reports whether the word just scanned is quoted by context:
// followed by "=>", used as a method name, or alone inside braces.
func (lex *Lexer) isHashKeyWord() bool {
	rest := bytes.TrimLeft(lex.scanner.Rest(), " \t")
	if bytes.HasPrefix(rest, []byte("=>")) {
		return true
	}
	if lex.prev == nil {
		return false
	}
	switch lex.prev.Type {
	case token.ARROW:
		return true
	case token.BRACE_L:
		return bytes.HasPrefix(rest, []byte("}"))
	}
	return false
}

func isVersionWord(word string) bool {
	if len(word) < 2 || word[0] != 'v' {
		return false
	}
	for i := 1; i < len(word); i++ {
		if !token.IsDigit(word[i]) {
			return false
		}
	}
	return true
}

// quoteDelimiter checks whether a quote-like operator is followed by a
// delimiter and consumes any whitespace in between.
func (lex *Lexer) quoteDelimiter() (byte, bool) {
	s := lex.scanner
	n := 0
	for {
		c, ok := s.PeekAt(n)
		if !ok {
			return 0, false
		}
		if !token.IsSpace(c) {
			break
		}
		n++
	}
	c, _ := s.PeekAt(n)
	if token.IsWordByte(c) {
		return 0, false
	}
	switch c {
	case '=', ',', ';', ')':
		return 0, false
	case '#':
		// "q #...#" is allowed but "q #" after whitespace starts a comment.
		if n > 0 {
			return 0, false
		}
	case '-':
		if next, _ := s.PeekAt(n + 1); next == '>' {
			return 0, false
		}
	}
	s.Seek(s.Pos() + n + 1)
	return c, true
}

func closingDelimiter(open byte) byte {
	switch open {
	case '(':
		return ')'
	case '[':
		return ']'
	case '{':
		return '}'
	case '<':
		return '>'
	}
	return open
}

// readDelimited scans up to and including the delimiter closing open. The
// scanner must be positioned just after open. It returns the offsets of the
// body.
func (lex *Lexer) readDelimited(open byte) (int, int, bool) {
	s := lex.scanner
	closer := closingDelimiter(open)
	start := s.Pos()
	depth := 0
	for !s.EOF() {
		c, _ := s.Peek()
		switch {
		case c == '\\':
			s.Next()
		case c == closer && depth == 0:
			end := s.Pos()
			s.Next()
			return start, end, true
		case c == closer:
			depth--
		case c == open && open != closer:
			depth++
		}
		s.Next()
	}
	return start, s.Pos(), false
}

func (lex *Lexer) readQuoted(typ token.Type, delim byte) []*token.Token {
	lex.scanner.Next()
	start, end, ok := lex.readDelimited(delim)
	if !ok {
		return lex.errorf("unterminated string literal")
	}
	return lex.emitBody(typ, start, end)
}

func (lex *Lexer) emitBody(typ token.Type, start, end int) []*token.Token {
	tok := lex.emitText(typ)
	tok[0].Value = string(lex.scanner.Src()[start:end])
	tok[0].ValuePos = start
	return tok
}

func (lex *Lexer) readQuoteLike(op string, delim byte) []*token.Token {
	switch op {
	case "q":
		start, end, ok := lex.readDelimited(delim)
		if !ok {
			return lex.errorf("unterminated q%c string", delim)
		}
		return lex.emitBody(token.STRING, start, end)
	case "qq":
		start, end, ok := lex.readDelimited(delim)
		if !ok {
			return lex.errorf("unterminated qq%c string", delim)
		}
		return lex.emitBody(token.ISTRING, start, end)
	case "qw":
		start, end, ok := lex.readDelimited(delim)
		if !ok {
			return lex.errorf("unterminated qw list")
		}
		return lex.emitBody(token.QW, start, end)
	case "m", "qr":
		return lex.readRegex(token.REGEX, op, delim)
	case "s":
		return lex.readRegex(token.SUBST, op, delim)
	default:
		return lex.readRegex(token.TRANS, op, delim)
	}
}

// readRegex scans a regex-like construct. For s/// and tr/// a second part
// follows the first, either sharing its delimiter or introduced by a new
// bracketing delimiter.
func (lex *Lexer) readRegex(typ token.Type, op string, delim byte) []*token.Token {
	s := lex.scanner
	start, end, ok := lex.readDelimited(delim)
	if !ok {
		return lex.errorf("unterminated %s%c pattern", op, delim)
	}
	extraStart, extraEnd := -1, -1
	if typ == token.SUBST || typ == token.TRANS {
		second := delim
		if closingDelimiter(delim) != delim {
			s.AcceptSeq(token.IsSpace)
			c, ok := s.Peek()
			if !ok {
				return lex.errorf("unterminated %s%c replacement", op, delim)
			}
			second = c
			s.Next()
		}
		extraStart, extraEnd, ok = lex.readDelimited(second)
		if !ok {
			return lex.errorf("unterminated %s%c replacement", op, delim)
		}
	}
	flagStart := s.Pos()
	s.AcceptSeq(token.IsLetter)
	flags := string(s.Src()[flagStart:s.Pos()])
	tok := lex.emitBody(typ, start, end)
	tok[0].Flags = flags
	if extraStart >= 0 {
		tok[0].Extra = string(s.Src()[extraStart:extraEnd])
		tok[0].ExtraPos = extraStart
	}
	return tok
}

// readAngle scans a readline (<FH>, <$fh>, <>) or a heredoc introducer in
// term position. It returns nil when the text is a comparison or shift.
func (lex *Lexer) readAngle() []*token.Token {
	s := lex.scanner
	if s.HasPrefix("<<") {
		return lex.readHeredoc()
	}
	n := 1
	if c, _ := s.PeekAt(n); c == '$' {
		n++
	}
	for {
		c, ok := s.PeekAt(n)
		if !ok {
			return nil
		}
		if c == '>' {
			break
		}
		if !token.IsWordByte(c) && c != ':' {
			return nil
		}
		n++
	}
	s.Seek(s.Pos() + n + 1)
	tok := lex.emitText(token.READLINE)
	tok[0].Value = tok[0].Text[1 : len(tok[0].Text)-1]
	tok[0].ValuePos = tok[0].Source.Pos + 1
	return tok
}

func (lex *Lexer) readHeredoc() []*token.Token {
	s := lex.scanner
	n := 2
	indent := false
	if c, _ := s.PeekAt(n); c == '~' {
		indent = true
		n++
	}
	typ := token.ISTRING
	var tag string
	c, ok := s.PeekAt(n)
	switch {
	case !ok:
		return nil
	case c == '"' || c == '\'' || c == '`':
		rest := s.Rest()[n+1:]
		end := bytes.IndexByte(rest, c)
		if end < 0 || bytes.IndexByte(rest[:end], '\n') >= 0 {
			return nil
		}
		tag = string(rest[:end])
		if c == '\'' {
			typ = token.STRING
		}
		n += end + 2
	case token.IsIdentStart(c):
		rest := s.Rest()[n:]
		end := 0
		for end < len(rest) && token.IsWordByte(rest[end]) {
			end++
		}
		tag = string(rest[:end])
		n += end
	default:
		return nil
	}
	s.Seek(s.Pos() + n)

	src := s.Src()
	bodyStart := lex.heredocEnd
	if bodyStart <= s.Pos() {
		nl := bytes.IndexByte(src[s.Pos():s.End()], '\n')
		if nl < 0 {
			bodyStart = s.End()
		} else {
			bodyStart = s.Pos() + nl + 1
		}
	}
	bodyEnd, resume := s.End(), s.End()
	for line := bodyStart; line < s.End(); {
		nl := bytes.IndexByte(src[line:s.End()], '\n')
		lineEnd := s.End()
		if nl >= 0 {
			lineEnd = line + nl
		}
		text := strings.TrimSuffix(string(src[line:lineEnd]), "\r")
		if indent {
			text = strings.TrimLeft(text, " \t")
		}
		if text == tag {
			bodyEnd = line
			resume = min(lineEnd+1, s.End())
			break
		}
		line = lineEnd + 1
	}
	lex.heredocEnd = resume
	tok := lex.emitBody(typ, bodyStart, bodyEnd)
	if bodyEnd == s.End() && resume == s.End() && tag != "" {
		tok[0].Type = token.ERROR
		tok[0].Value = fmt.Sprintf("can't find heredoc terminator %q", tag)
	}
	return tok
}

func (lex *Lexer) readNumber() []*token.Token {
	s := lex.scanner
	if s.HasPrefix("0x") || s.HasPrefix("0X") {
		s.Next()
		s.Next()
		s.AcceptSeq(func(c byte) bool {
			return token.IsDigit(c) || c == '_' || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
		})
		return lex.emitText(token.NUMBER)
	}
	if s.HasPrefix("0b") || s.HasPrefix("0B") {
		s.Next()
		s.Next()
		s.AcceptSeqAny("01_")
		return lex.emitText(token.NUMBER)
	}
	digits := func(c byte) bool { return token.IsDigit(c) || c == '_' }
	s.AcceptSeq(digits)
	for s.HasPrefix(".") && !s.HasPrefix("..") {
		s.Next()
		s.AcceptSeq(digits)
	}
	if c, _ := s.Peek(); c == 'e' || c == 'E' {
		next, _ := s.PeekAt(1)
		if token.IsDigit(next) || ((next == '+' || next == '-') && lex.peekIsDigit(2)) {
			s.Next()
			s.AcceptAny("+-")
			s.AcceptSeq(digits)
		}
	}
	return lex.emitText(token.NUMBER)
}

// readScalar scans a construct starting with "$": a scalar variable, an
// array length ($#x), or a dereference cast.
func (lex *Lexer) readScalar() []*token.Token {
	s := lex.scanner
	s.Next()
	c, ok := s.Peek()
	if !ok {
		return lex.errorf("unexpected EOF after '$'")
	}
	switch {
	case c == '#':
		next, _ := s.PeekAt(1)
		switch {
		case next == '{' || next == '$':
			s.Next()
			return lex.emitText(token.CAST)
		case token.IsIdentStart(next) || next == ':':
			s.Next()
			return lex.readVarName('$')
		}
		s.Next()
		return lex.emitVar("#")
	case c == '{':
		if name, n := bracedName(s.Rest()); n > 0 {
			s.Seek(s.Pos() + n)
			return lex.emitVar(name)
		}
		return lex.emitText(token.CAST)
	case c == '$':
		next, _ := s.PeekAt(1)
		if token.IsIdentStart(next) || next == '{' || next == '$' || next == ':' {
			return lex.emitText(token.CAST)
		}
		s.Next()
		return lex.emitVar("$")
	case c == '^':
		s.Next()
		if next, ok := s.Peek(); ok && (('A' <= next && next <= 'Z') || strings.IndexByte("[]_?\\", next) >= 0) {
			s.Next()
			return lex.emitVar("^" + string(next))
		}
		return lex.emitVar("^")
	case token.IsIdentStart(c) || c == ':' && s.HasPrefix("::"):
		return lex.readVarName('$')
	case token.IsDigit(c):
		s.AcceptSeq(token.IsDigit)
		return lex.emitVar(s.Text()[1:])
	case strings.IndexByte(specialVarChars, c) >= 0:
		s.Next()
		return lex.emitVar(string(c))
	}
	return lex.errorf("unexpected %q after '$'", c)
}

// readSigil scans an array, hash, code or glob variable or cast. It returns
// nil if the sigil is not followed by a name.
func (lex *Lexer) readSigil(sigil byte) []*token.Token {
	s := lex.scanner
	c, ok := s.PeekAt(1)
	if !ok {
		if sigil == '@' {
			s.Next()
			return lex.errorf("unexpected EOF after '@'")
		}
		return nil
	}
	switch {
	case c == '{' || c == '$':
		if sigil == '&' && s.HasPrefix("&&") {
			return nil
		}
		if c == '{' {
			if name, n := bracedName(s.Rest()[1:]); n > 0 {
				s.Seek(s.Pos() + 1 + n)
				return lex.emitVar(name)
			}
		}
		s.Next()
		return lex.emitText(token.CAST)
	case token.IsIdentStart(c) || c == ':' && bytes.HasPrefix(s.Rest()[1:], []byte("::")):
		s.Next()
		return lex.readVarName(sigil)
	case sigil == '%' && c == '^':
		if next, _ := s.PeekAt(2); next == 'H' {
			s.Seek(s.Pos() + 3)
			return lex.emitVar("^H")
		}
	case (sigil == '@' || sigil == '%') && (c == '-' || c == '+'):
		s.Seek(s.Pos() + 2)
		return lex.emitVar(string(c))
	}
	if sigil == '@' {
		s.Next()
		return lex.errorf("unexpected %q after '@'", c)
	}
	return nil
}

// readVarName scans a possibly package qualified name following a sigil
// which has already been scanned.
func (lex *Lexer) readVarName(sigil byte) []*token.Token {
	s := lex.scanner
	nameStart := s.Pos()
	s.AcceptString("::")
	for {
		s.AcceptSeq(token.IsWordByte)
		if !s.HasPrefix("::") {
			break
		}
		s.AcceptString("::")
	}
	// The old package separator: $main'x.
	if c, _ := s.Peek(); c == '\'' {
		if next, ok := s.PeekAt(1); ok && token.IsIdentStart(next) && sigil != '&' {
			s.Next()
			s.AcceptSeq(token.IsWordByte)
		}
	}
	name := string(s.Src()[nameStart:s.Pos()])
	return lex.emitVar(name)
}

func (lex *Lexer) emitVar(name string) []*token.Token {
	tok := lex.emitText(token.VARIABLE)
	tok[0].Value = name
	tok[0].ValuePos = tok[0].Source.End - len(name)
	if strings.HasSuffix(tok[0].Text, "}") {
		// ${name}
		tok[0].ValuePos = tok[0].Source.End - len(name) - 1
	}
	return tok
}

// bracedName matches "{name}" or "{^NAME}" at the start of b, returning the
// name and the number of bytes matched.
func bracedName(b []byte) (string, int) {
	if len(b) < 3 || b[0] != '{' {
		return "", 0
	}
	i := 1
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	start := i
	if i < len(b) && b[i] == '^' {
		i++
	}
	if i >= len(b) || !token.IsIdentStart(b[i]) {
		return "", 0
	}
	for i < len(b) && (token.IsWordByte(b[i]) || b[i] == ':') {
		i++
	}
	end := i
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	if i >= len(b) || b[i] != '}' {
		return "", 0
	}
	return string(b[start:end]), i + 1
}

// skipWhitespace skips whitespace. Crossing a newline while heredoc bodies
// are pending skips over the bodies.
func (lex *Lexer) skipWhitespace() {
	s := lex.scanner
	for {
		c, ok := s.Peek()
		if !ok || !token.IsSpace(c) {
			break
		}
		s.Next()
		if c == '\n' && lex.heredocEnd > s.Pos() {
			s.Seek(lex.heredocEnd)
			lex.heredocEnd = 0
		}
	}
	s.Ignore()
}

func (lex *Lexer) emit(typ token.Type, text string) []*token.Token {
	tok := []*token.Token{{
		Type:   typ,
		Text:   text,
		Source: lex.scanner.LocStart(),
	}}
	lex.scanner.Ignore()
	return tok
}

func (lex *Lexer) emitText(typ token.Type) []*token.Token {
	return []*token.Token{lex.scanner.EmitToken(typ)}
}

func (lex *Lexer) charToken(typ token.Type) []*token.Token {
	lex.scanner.Next()
	return lex.emitText(typ)
}

// errorf emits an ERROR token covering the text scanned so far. The error
// message is held in the token Value.
func (lex *Lexer) errorf(format string, v ...interface{}) []*token.Token {
	tok := lex.emitText(token.ERROR)
	tok[0].Value = fmt.Sprintf(format, v...)
	return tok
}
