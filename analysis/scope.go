// Copyright © 2024 The perlscope authors

package analysis

import (
	"fmt"

	"fortio.org/safecast"
)

// ScopeID addresses a scope within a scopeTable. The zero value is NoScope.
type ScopeID int32

// NoScope is the parent of the root scope.
const NoScope ScopeID = 0

// Sigil partitions. Each scope keeps one name table per partition so that
// $x, @x and %x never interact.
const (
	sigilScalar = iota
	sigilArray
	sigilHash
	sigilSub
	sigilGlob
	sigilOther

	numSigils
)

var sigilStrings = [numSigils]string{"$", "@", "%", "&", "*", ""}

func sigilIndex(sigil string) int {
	if sigil == "" {
		return sigilOther
	}
	switch sigil[0] {
	case '$':
		return sigilScalar
	case '@':
		return sigilArray
	case '%':
		return sigilHash
	case '&':
		return sigilSub
	case '*':
		return sigilGlob
	default:
		return sigilOther
	}
}

// Variable is a declared name. Used and Initialized only ever change from
// false to true during an analysis.
type Variable struct {
	Offset      int
	Used        bool
	Initialized bool
	// Global is set for package variables (our, use vars), which are never
	// reported as unused.
	Global bool
}

type partition struct {
	index map[string]int
	names []string
	vars  []*Variable
}

func (p *partition) get(name string) *Variable {
	if p == nil {
		return nil
	}
	if i, ok := p.index[name]; ok {
		return p.vars[i]
	}
	return nil
}

type scope struct {
	parent ScopeID
	parts  [numSigils]*partition
}

// scopeTable is an arena of scopes owned by a single analysis. Scopes are
// pushed when the walker enters a construct and popped when it leaves, so
// the arena always holds the chain of open scopes.
type scopeTable struct {
	scopes []scope
}

func newScopeTable() *scopeTable {
	return &scopeTable{scopes: make([]scope, 1, 16)}
}

// Push opens a new scope nested in parent.
func (t *scopeTable) Push(parent ScopeID) ScopeID {
	id, err := safecast.Conv[int32](len(t.scopes))
	if err != nil {
		panic(fmt.Errorf("scope arena overflow: %w", err))
	}
	t.scopes = append(t.scopes, scope{parent: parent})
	return ScopeID(id)
}

// Pop discards id and every scope opened after it.
func (t *scopeTable) Pop(id ScopeID) {
	if t.valid(id) {
		clear(t.scopes[id:])
		t.scopes = t.scopes[:id]
	}
}

// Parent returns the scope enclosing id.
func (t *scopeTable) Parent(id ScopeID) ScopeID {
	if !t.valid(id) {
		return NoScope
	}
	return t.scopes[id].parent
}

func (t *scopeTable) valid(id ScopeID) bool {
	return id > NoScope && int(id) < len(t.scopes)
}

// Declare binds sigil and name in scope id. Redeclaring a name in the same
// scope replaces the previous record and reports VariableRedeclaration.
// Declaring a name visible from an enclosing scope reports
// VariableShadowing.
func (t *scopeTable) Declare(id ScopeID, sigil, name string, offset int, global, initialized bool) (IssueKind, bool) {
	if !t.valid(id) {
		return 0, false
	}
	s := &t.scopes[id]
	idx := sigilIndex(sigil)
	v := &Variable{
		Offset:      offset,
		Used:        global,
		Initialized: initialized,
		Global:      global,
	}
	p := s.parts[idx]
	if p == nil {
		p = &partition{index: make(map[string]int)}
		s.parts[idx] = p
	}
	if i, ok := p.index[name]; ok {
		p.vars[i] = v
		return VariableRedeclaration, true
	}
	shadows := t.Lookup(s.parent, sigil, name) != nil
	p.index[name] = len(p.vars)
	p.names = append(p.names, name)
	p.vars = append(p.vars, v)
	if shadows {
		return VariableShadowing, true
	}
	return 0, false
}

// Local returns the variable bound in scope id itself, ignoring enclosing
// scopes.
func (t *scopeTable) Local(id ScopeID, sigil, name string) *Variable {
	if !t.valid(id) {
		return nil
	}
	return t.scopes[id].parts[sigilIndex(sigil)].get(name)
}

// Lookup resolves sigil and name from scope id outward. The innermost
// binding wins.
func (t *scopeTable) Lookup(id ScopeID, sigil, name string) *Variable {
	idx := sigilIndex(sigil)
	for t.valid(id) {
		s := &t.scopes[id]
		if v := s.parts[idx].get(name); v != nil {
			return v
		}
		id = s.parent
	}
	return nil
}

// MarkUsed flags the visible binding of sigil and name as used and reports
// whether one was found and whether it was initialized.
func (t *scopeTable) MarkUsed(id ScopeID, sigil, name string) (found, initialized bool) {
	v := t.Lookup(id, sigil, name)
	if v == nil {
		return false, false
	}
	v.Used = true
	return true, v.Initialized
}

// MarkInitialized flags the visible binding of sigil and name as
// initialized. It does nothing when there is no such binding.
func (t *scopeTable) MarkInitialized(id ScopeID, sigil, name string) {
	if v := t.Lookup(id, sigil, name); v != nil {
		v.Initialized = true
	}
}

// CollectUnused calls fn with the full name and declaration offset of every
// unused, non-global variable declared directly in scope id. Names starting
// with an underscore are skipped. Variables are visited in sigil order and
// then in declaration order.
func (t *scopeTable) CollectUnused(id ScopeID, fn func(name string, offset int)) {
	if !t.valid(id) {
		return
	}
	for idx, p := range t.scopes[id].parts {
		if p == nil {
			continue
		}
		for i, v := range p.vars {
			if v.Used || v.Global {
				continue
			}
			name := p.names[i]
			if len(name) > 0 && name[0] == '_' {
				continue
			}
			fn(sigilStrings[idx]+name, v.Offset)
		}
	}
}
