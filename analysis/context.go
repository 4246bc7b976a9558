// Copyright © 2024 The perlscope authors

package analysis

import (
	"github.com/luthersystems/perlscope/parser/token"
	"github.com/luthersystems/perlscope/pragma"
)

// pragmaContext answers position dependent questions for one analysis.
type pragmaContext struct {
	pragmas *pragma.Map
	lines   *token.Lines
}

func newPragmaContext(pragmas *pragma.Map, src []byte, lines *token.Lines) *pragmaContext {
	if lines == nil {
		lines = token.NewLines(src)
	}
	return &pragmaContext{pragmas: pragmas, lines: lines}
}

// StrictVars reports whether "use strict 'vars'" is in effect at offset.
func (c *pragmaContext) StrictVars(offset int) bool {
	return c.pragmas.StateAt(offset).StrictVars
}

// StrictSubs reports whether "use strict 'subs'" is in effect at offset.
func (c *pragmaContext) StrictSubs(offset int) bool {
	return c.pragmas.StateAt(offset).StrictSubs
}

// Line returns the 1-based line containing offset.
func (c *pragmaContext) Line(offset int) int {
	return c.lines.Line(offset)
}
