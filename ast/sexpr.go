// Copyright © 2024 The perlscope authors

package ast

import (
	"io"
	"strconv"
	"strings"
)

// SExpr renders the subtree rooted at id as an s-expression. It is meant for
// debugging and golden tests, not as a stable format.
func (t *Tree) SExpr(id NodeID) string {
	var b strings.Builder
	t.writeSExpr(&b, id)
	return b.String()
}

// Dump writes one s-expression per top-level statement of the tree.
func (t *Tree) Dump(w io.Writer) error {
	for _, stmt := range t.Children(t.Root) {
		if _, err := io.WriteString(w, t.SExpr(stmt)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) writeSExpr(b *strings.Builder, id NodeID) {
	n := t.Node(id)
	if n == nil {
		b.WriteString("nil")
		return
	}
	b.WriteByte('(')
	b.WriteString(n.Kind.String())
	switch n.Kind {
	case Variable:
		b.WriteByte(' ')
		b.WriteString(n.Sigil + n.Name)
	case String, Interpolated, Regex:
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(n.Name))
	case Number, Identifier, FunctionCall, MethodCall, IndirectCall,
		Package, Use, No, PhaseBlock, LabeledStatement, LoopControl, Readline, Error:
		if n.Name != "" {
			b.WriteByte(' ')
			b.WriteString(n.Name)
		}
	case Subroutine:
		if n.Name != "" {
			b.WriteByte(' ')
			b.WriteString(n.Name)
		}
	}
	if n.Op != "" {
		b.WriteString(" :op ")
		b.WriteString(n.Op)
	}
	for _, arg := range n.Args {
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(arg))
	}
	for _, kid := range n.Kids {
		b.WriteByte(' ')
		t.writeSExpr(b, kid)
	}
	b.WriteByte(')')
}
