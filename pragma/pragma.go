// Copyright © 2024 The perlscope authors

// Package pragma computes which lexical pragmas (strict, warnings) are in
// effect at each byte offset of a Perl source file.
package pragma

import (
	"sort"
	"strings"
)

// State is the set of pragmas in effect at a point in the source.
type State struct {
	StrictVars bool `json:"strict_vars"`
	StrictSubs bool `json:"strict_subs"`
	StrictRefs bool `json:"strict_refs"`
	Warnings   bool `json:"warnings"`
}

// Strict is the state established by a plain "use strict".
var Strict = State{StrictVars: true, StrictSubs: true, StrictRefs: true}

// StrictAll reports whether every strict category is enabled.
func (s State) StrictAll() bool {
	return s.StrictVars && s.StrictSubs && s.StrictRefs
}

// StrictAny reports whether at least one strict category is enabled.
func (s State) StrictAny() bool {
	return s.StrictVars || s.StrictSubs || s.StrictRefs
}

func (s State) String() string {
	var parts []string
	if s.StrictAll() {
		parts = append(parts, "strict")
	} else {
		for _, c := range []struct {
			on   bool
			name string
		}{{s.StrictVars, "vars"}, {s.StrictSubs, "subs"}, {s.StrictRefs, "refs"}} {
			if c.on {
				parts = append(parts, "strict "+c.name)
			}
		}
	}
	if s.Warnings {
		parts = append(parts, "warnings")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// Range is a span of source [Start, End) with a constant State.
type Range struct {
	Start int   `json:"start"`
	End   int   `json:"end"`
	State State `json:"state"`
}

// Map is the pragma state table for one source file. Ranges are sorted by
// Start and do not overlap. Offsets before the first range have the Base
// state.
type Map struct {
	Ranges []Range `json:"ranges"`
	Base   State   `json:"base"`
}

// StateAt returns the pragma state in effect at offset. A nil Map answers
// the zero State, meaning no pragmas anywhere.
func (m *Map) StateAt(offset int) State {
	if m == nil {
		return State{}
	}
	i := sort.Search(len(m.Ranges), func(i int) bool {
		return m.Ranges[i].Start > offset
	})
	if i == 0 {
		return m.Base
	}
	return m.Ranges[i-1].State
}

// Any reports whether pred holds for the base state or for any range.
func (m *Map) Any(pred func(State) bool) bool {
	if m == nil {
		return pred(State{})
	}
	if pred(m.Base) {
		return true
	}
	for _, r := range m.Ranges {
		if pred(r.State) {
			return true
		}
	}
	return false
}
