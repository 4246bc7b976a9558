// Copyright © 2024 The perlscope authors

package token

import "fmt"

// Source is an abstract stream of tokens which allows lookahead.
type Source interface {
	// Token returns the current token.  Token returns nil if Scan has not been
	// called.
	Token() *Token
	// Peek returns the next token in the stream.  At the end of the stream
	// Peek should return a value to indicate the lack of a token (EOF).
	Peek() *Token
	// Scan advances the token stream if possible.  If there are no tokens
	// remaining Scan returns false.
	Scan() bool
}

// Token is a lexical token. Quote-like tokens carry their decoded parts in
// Value and Extra along with the byte offsets where those parts start in
// the source, so that interpolated expressions can be parsed in place.
type Token struct {
	Type   Type
	Text   string
	Source *Location

	// Value is the body of a quote-like token (between the delimiters), the
	// name of a variable, or the words of a qw() list.
	Value    string
	ValuePos int
	// Extra is the replacement part of s/// and tr///.
	Extra    string
	ExtraPos int
	// Flags are the trailing modifiers of a regex-like token.
	Flags string
}

// Pos returns the byte offset of the token start.
func (tok *Token) Pos() int {
	if tok == nil || tok.Source == nil {
		return 0
	}
	return tok.Source.Pos
}

// End returns the byte offset just beyond the token.
func (tok *Token) End() int {
	if tok == nil || tok.Source == nil {
		return 0
	}
	return tok.Source.End
}

// Is reports whether tok has type typ and, when text is non-empty, the given
// text.
func (tok *Token) Is(typ Type, text string) bool {
	return tok != nil && tok.Type == typ && (text == "" || tok.Text == text)
}

func (tok *Token) String() string {
	return fmt.Sprintf("%v %q", tok.Type, tok.Text)
}

type Type uint

// Type constants used for the Perl lexer/parser.
const (
	INVALID Type = iota
	ERROR
	EOF

	COMMENT
	POD

	// Atomic expressions & literals
	IDENT
	VARIABLE
	CAST // a sigil applied to an expression: ${...}, @$ref, $#{...}
	NUMBER
	STRING  // non-interpolating string: '...', q(), <<'EOF'
	ISTRING // interpolating string: "...", qq(), `...`, <<"EOF"
	QW
	REGEX // m//, //, qr//
	SUBST // s///
	TRANS // tr///, y///
	READLINE
	PROTOTYPE
	FILETEST

	// Operators
	OP
	ARROW
	COMMA
	FAT_COMMA

	// Delimiters
	PAREN_L
	PAREN_R
	BRACKET_L
	BRACKET_R
	BRACE_L
	BRACE_R
	SEMI

	numTokenTypes
)

func (typ Type) String() string {
	typeStrings := [numTokenTypes]string{
		INVALID:   "invalid",
		ERROR:     "error",
		EOF:       "EOF",
		COMMENT:   "#",
		POD:       "pod",
		IDENT:     "identifier",
		VARIABLE:  "variable",
		CAST:      "cast",
		NUMBER:    "number",
		STRING:    "string",
		ISTRING:   "interpolated-string",
		QW:        "qw",
		REGEX:     "regex",
		SUBST:     "substitution",
		TRANS:     "transliteration",
		READLINE:  "readline",
		PROTOTYPE: "prototype",
		FILETEST:  "filetest",
		OP:        "operator",
		ARROW:     "->",
		COMMA:     ",",
		FAT_COMMA: "=>",
		PAREN_L:   "(",
		PAREN_R:   ")",
		BRACKET_L: "[",
		BRACKET_R: "]",
		BRACE_L:   "{",
		BRACE_R:   "}",
		SEMI:      ";",
	}
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

type Location struct {
	File string // a name representing the source stream
	Path string // a physical location which may differ from File
	Pos  int    // byte offset of the first byte
	End  int    // byte offset just beyond the last byte
	Line int    // line number (starting at 1 when tracked)
	Col  int    // line column number (starting at 1 when tracked)
}

func (loc *Location) String() string {
	switch {
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

type LocationError struct {
	Err    error
	Source *Location
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Err)
}

func (err *LocationError) Unwrap() error {
	return err.Err
}

// Errorf returns a LocationError at loc.
func Errorf(loc *Location, format string, v ...interface{}) *LocationError {
	return &LocationError{
		Err:    fmt.Errorf(format, v...),
		Source: loc,
	}
}
