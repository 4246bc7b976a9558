// Copyright © 2024 The perlscope authors

// Package importlist parses the argument text of use and no statements into
// the words it names.
//
//	list  := '(' <items> ')' | <items>
//	items := <item> ( <sep> <item> )*
//	sep   := ',' | '=>'
//	item  := <qw> | <string> | <number> | <variable> | <word>
//	qw    := 'qw' <delimited words>
//	word  := /-?[A-Za-z_][\w:]*/
//
// Only literal lists are understood. Arbitrary expressions in an import list
// are reported as errors so that callers can fall back to ignoring them.
package importlist

import (
	"fmt"
	"strings"

	parsec "github.com/prataprc/goparsec"
)

// Parse returns the words named by text, the raw source of one import
// list argument such as "qw(max min)", "'vars'" or "-strict".
func Parse(text string) ([]string, error) {
	s := parsec.NewScanner([]byte(text))
	root, s := newParsecParser()(s)
	_, s = s.SkipWS()
	if !s.Endof() {
		b, _ := s.Match(`.{1,16}`)
		if len(b) > 15 {
			b = append(b[:15:15], []byte("...")...)
		}
		return nil, fmt.Errorf("%d: unexpected import list text possibly starting: %s", s.GetCursor(), b)
	}
	var words []string
	collect(root, &words)
	return words, nil
}

// Words parses each argument and returns all of the words in order.
// Arguments which are not literal lists are skipped.
func Words(args []string) []string {
	var words []string
	for _, arg := range args {
		w, err := Parse(arg)
		if err != nil {
			continue
		}
		words = append(words, w...)
	}
	return words
}

func newParsecParser() parsec.Parser {
	openP := parsec.Atom("(", "OPENP")
	closeP := parsec.Atom(")", "CLOSEP")
	sep := parsec.Token(`,|=>`, "SEP")
	qw := parsec.Token(`qw\s*(?:\([^)]*\)|\[[^\]]*\]|\{[^}]*\}|<[^>]*>|/[^/]*/|\|[^|]*\||![^!]*!)`, "QW")
	sq := parsec.Token(`'(?:[^'\\]|\\.)*'`, "SQUOTE")
	dq := parsec.Token(`"(?:[^"\\]|\\.)*"`, "DQUOTE")
	number := parsec.Token(`v?[0-9][0-9._]*`, "NUMBER")
	variable := parsec.Token(`[$@%&*][A-Za-z_:][\w:]*`, "VARIABLE")
	word := parsec.Token(`-?[A-Za-z_][\w:]*`, "WORD")
	// qw comes before word because word swallows it
	item := parsec.OrdChoice(nil, qw, sq, dq, number, variable, word)
	items := parsec.Kleene(nil, item, sep)
	parens := parsec.And(nil, openP, items, closeP)
	return parsec.OrdChoice(nil, parens, items)
}

func collect(node parsec.ParsecNode, words *[]string) {
	switch node := node.(type) {
	case *parsec.Terminal:
		if w, ok := termWords(node); ok {
			*words = append(*words, w...)
		}
	case []parsec.ParsecNode:
		for _, n := range node {
			collect(n, words)
		}
	}
}

func termWords(term *parsec.Terminal) ([]string, bool) {
	switch term.GetName() {
	case "QW":
		body := strings.TrimLeft(term.GetValue()[2:], " \t\r\n")
		return strings.Fields(body[1 : len(body)-1]), true
	case "SQUOTE", "DQUOTE":
		return []string{unquote(term.GetValue())}, true
	case "NUMBER", "VARIABLE", "WORD":
		return []string{term.GetValue()}, true
	}
	return nil, false
}

// unquote strips the quotes from a string literal and resolves backslash
// escapes of the quote and backslash characters.
func unquote(lit string) string {
	body := lit[1 : len(lit)-1]
	if !strings.Contains(body, `\`) {
		return body
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) && (body[i+1] == '\\' || body[i+1] == lit[0]) {
			i++
		}
		b.WriteByte(body[i])
	}
	return b.String()
}
