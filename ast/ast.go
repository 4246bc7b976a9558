// Copyright © 2024 The perlscope authors

// Package ast defines the syntax tree produced by the perlscope parser.
//
// A Tree is an arena of nodes addressed by NodeID. Trees are built once by
// the parser and are read-only afterwards, so a single Tree may be shared by
// any number of concurrent readers. Node identity is NodeID equality.
package ast

import (
	"fmt"

	"fortio.org/safecast"
)

// NodeID addresses a node within a Tree. The zero value is NoNode.
type NodeID int32

// NoNode marks an absent optional child.
const NoNode NodeID = 0

// IsValid reports whether id refers to a node.
func (id NodeID) IsValid() bool { return id > NoNode }

// Span is a half-open byte range [Start, End) in the source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether offset lies within the span.
func (s Span) Contains(offset int) bool {
	return s.Start <= offset && offset < s.End
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Node is a single syntax tree node. The meaning of Name, Sigil, Op, Args and
// Kids depends on Kind and is documented on the Kind constants.
type Node struct {
	Kind  Kind
	Span  Span
	Name  string
	Sigil string
	Op    string
	Args  []string
	Kids  []NodeID
}

// Comment is a source comment retained by the parser.
type Comment struct {
	Span Span
	Text string // includes the leading '#'
}

// Tree is an arena of nodes. Index 0 is reserved for NoNode.
type Tree struct {
	// Name is the file name the tree was parsed from.
	Name     string
	Root     NodeID
	Nodes    []Node
	Comments []Comment
}

// NewTree returns an empty tree with the NoNode sentinel allocated.
func NewTree(name string) *Tree {
	return &Tree{
		Name:  name,
		Nodes: make([]Node, 1, 64),
	}
}

// Add appends n to the arena and returns its ID.
func (t *Tree) Add(n Node) NodeID {
	value, err := safecast.Conv[int32](len(t.Nodes))
	if err != nil {
		panic(fmt.Errorf("ast arena overflow: %w", err))
	}
	t.Nodes = append(t.Nodes, n)
	return NodeID(value)
}

// Len returns the number of nodes excluding the sentinel.
func (t *Tree) Len() int {
	if t == nil || len(t.Nodes) == 0 {
		return 0
	}
	return len(t.Nodes) - 1
}

// Node returns the node for id or nil if id is not valid in t.
func (t *Tree) Node(id NodeID) *Node {
	if t == nil || !id.IsValid() || int(id) >= len(t.Nodes) {
		return nil
	}
	return &t.Nodes[id]
}

// Kind returns the kind of id, or Invalid.
func (t *Tree) Kind(id NodeID) Kind {
	n := t.Node(id)
	if n == nil {
		return Invalid
	}
	return n.Kind
}

// Kid returns the i-th child slot of id, or NoNode when the slot does not
// exist.
func (t *Tree) Kid(id NodeID, i int) NodeID {
	n := t.Node(id)
	if n == nil || i < 0 || i >= len(n.Kids) {
		return NoNode
	}
	return n.Kids[i]
}

// Children returns the present children of id in source order. It is the
// generic accessor used by traversals for kinds they do not handle
// specially.
func (t *Tree) Children(id NodeID) []NodeID {
	n := t.Node(id)
	if n == nil {
		return nil
	}
	out := make([]NodeID, 0, len(n.Kids))
	for _, k := range n.Kids {
		if t.Node(k) != nil {
			out = append(out, k)
		}
	}
	return out
}

// FullName returns the sigil and name of a Variable node joined together.
func (t *Tree) FullName(id NodeID) string {
	n := t.Node(id)
	if n == nil {
		return ""
	}
	return n.Sigil + n.Name
}

// Text returns the source text covered by id, clamped to src.
func (t *Tree) Text(id NodeID, src []byte) string {
	n := t.Node(id)
	if n == nil {
		return ""
	}
	start := min(max(n.Span.Start, 0), len(src))
	end := min(max(n.Span.End, start), len(src))
	return string(src[start:end])
}

// Lhs and Rhs are the operand slots of Binary and Assignment nodes.
const (
	Lhs = 0
	Rhs = 1
)

// Left returns the left operand of a Binary or Assignment node.
func (t *Tree) Left(id NodeID) NodeID { return t.Kid(id, Lhs) }

// Right returns the right operand of a Binary or Assignment node.
func (t *Tree) Right(id NodeID) NodeID { return t.Kid(id, Rhs) }

// IsSubscriptOf reports whether parent is a subscript binary ("{}" or "[]")
// whose operand in slot side is child.
func (t *Tree) IsSubscriptOf(parent, child NodeID, side int) bool {
	n := t.Node(parent)
	if n == nil || n.Kind != Binary || !IsSubscript(n.Op) {
		return false
	}
	return t.Kid(parent, side) == child
}
