// Copyright © 2024 The perlscope authors

package rdparser

import (
	"bytes"
	"strings"
	"sync"

	"github.com/luthersystems/perlscope/parser/lexer"
	"github.com/luthersystems/perlscope/parser/token"
)

// Interactive accumulates lines of input until they form a complete chunk
// of source: no bracket, string or heredoc is left open. A REPL feeds it one
// line at a time and analyzes each completed chunk.
type Interactive struct {
	prompt     string
	promptCont string
	buf        bytes.Buffer
	mut        sync.RWMutex
}

// NewInteractive initializes and returns a new Interactive reader.
func NewInteractive() *Interactive {
	return &Interactive{}
}

// SetPrompts configures the string prompts returned by p.Prompt().  The cont
// string is used to prompt the user when a chunk is incomplete.
func (p *Interactive) SetPrompts(prompt, cont string) {
	p.prompt = prompt
	p.promptCont = cont
}

// Prompt returns a simple prompt that can be used by a REPL line reader.
func (p *Interactive) Prompt() string {
	if p.IsParsing() {
		return p.promptCont
	}
	return p.prompt
}

// IsParsing returns true if p holds an incomplete chunk.  IsParsing can be
// called at any time, potentially by concurrent goroutines or when p is
// nil.
func (p *Interactive) IsParsing() bool {
	if p == nil {
		// definitely not parsing right now
		return false
	}
	p.mut.RLock()
	defer p.mut.RUnlock()
	return p.buf.Len() > 0
}

// Feed appends line to the pending input. When the pending input is
// complete it is returned and p is reset.
func (p *Interactive) Feed(line string) (string, bool) {
	p.mut.Lock()
	defer p.mut.Unlock()
	p.buf.WriteString(line)
	if !strings.HasSuffix(line, "\n") {
		p.buf.WriteByte('\n')
	}
	if Incomplete(p.buf.Bytes()) {
		return "", false
	}
	chunk := p.buf.String()
	p.buf.Reset()
	return chunk, true
}

// Reset discards pending input.
func (p *Interactive) Reset() {
	p.mut.Lock()
	defer p.mut.Unlock()
	p.buf.Reset()
}

// Incomplete reports whether src ends inside an unclosed bracket, quoted
// construct or heredoc, so that more input could complete it.
func Incomplete(src []byte) bool {
	depth := 0
	for _, tok := range lexer.Tokenize("", src) {
		switch tok.Type {
		case token.PAREN_L, token.BRACKET_L, token.BRACE_L:
			depth++
		case token.PAREN_R, token.BRACKET_R, token.BRACE_R:
			depth--
		case token.ERROR:
			if strings.HasPrefix(tok.Value, "unterminated") || strings.HasPrefix(tok.Value, "can't find heredoc") {
				return true
			}
		}
	}
	return depth > 0
}
