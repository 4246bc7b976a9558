// Copyright © 2024 The perlscope authors

package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_SigilIsolation(t *testing.T) {
	tab := newScopeTable()
	root := tab.Push(NoScope)
	for _, sigil := range []string{"$", "@", "%", "&", "*", ""} {
		_, ok := tab.Declare(root, sigil, "x", 0, false, true)
		assert.False(t, ok, "sigil %q", sigil)
	}
	child := tab.Push(root)
	kind, ok := tab.Declare(child, "@", "x", 10, false, true)
	require.True(t, ok)
	assert.Equal(t, VariableShadowing, kind)
	_, ok = tab.Declare(child, "$", "y", 12, false, true)
	assert.False(t, ok)
}

func TestScope_RedeclareVsShadow(t *testing.T) {
	tab := newScopeTable()
	root := tab.Push(NoScope)
	_, ok := tab.Declare(root, "$", "x", 0, false, false)
	assert.False(t, ok)

	child := tab.Push(root)
	kind, ok := tab.Declare(child, "$", "x", 5, false, true)
	require.True(t, ok)
	assert.Equal(t, VariableShadowing, kind)

	// a second declaration in the child is a redeclaration only
	kind, ok = tab.Declare(child, "$", "x", 9, false, false)
	require.True(t, ok)
	assert.Equal(t, VariableRedeclaration, kind)

	// last declaration wins
	v := tab.Lookup(child, "$", "x")
	require.NotNil(t, v)
	assert.Equal(t, 9, v.Offset)
	assert.False(t, v.Initialized)
}

func TestScope_LookupOutward(t *testing.T) {
	tab := newScopeTable()
	root := tab.Push(NoScope)
	tab.Declare(root, "%", "opts", 0, false, true)
	child := tab.Push(root)
	grandchild := tab.Push(child)

	assert.NotNil(t, tab.Lookup(grandchild, "%", "opts"))
	assert.Nil(t, tab.Lookup(grandchild, "$", "opts"))
	assert.Nil(t, tab.Local(grandchild, "%", "opts"))
	assert.Equal(t, child, tab.Parent(grandchild))
	assert.Equal(t, NoScope, tab.Parent(root))

	found, initialized := tab.MarkUsed(grandchild, "%", "opts")
	assert.True(t, found)
	assert.True(t, initialized)
	assert.True(t, tab.Local(root, "%", "opts").Used)

	found, _ = tab.MarkUsed(grandchild, "$", "missing")
	assert.False(t, found)
	assert.NotPanics(t, func() { tab.MarkInitialized(grandchild, "$", "missing") })
}

func TestScope_MarkInitialized(t *testing.T) {
	tab := newScopeTable()
	root := tab.Push(NoScope)
	tab.Declare(root, "$", "x", 0, false, false)
	child := tab.Push(root)
	_, initialized := tab.MarkUsed(child, "$", "x")
	assert.False(t, initialized)
	tab.MarkInitialized(child, "$", "x")
	_, initialized = tab.MarkUsed(child, "$", "x")
	assert.True(t, initialized)
}

func TestScope_CollectUnused(t *testing.T) {
	tab := newScopeTable()
	root := tab.Push(NoScope)
	tab.Declare(root, "%", "h", 30, false, true)
	tab.Declare(root, "$", "b", 10, false, true)
	tab.Declare(root, "$", "a", 20, false, true)
	tab.Declare(root, "$", "_ignored", 25, false, true)
	tab.Declare(root, "@", "GLOBAL", 5, true, true)
	tab.Declare(root, "$", "used", 40, false, true)
	tab.MarkUsed(root, "$", "used")

	type unused struct {
		name   string
		offset int
	}
	var got []unused
	tab.CollectUnused(root, func(name string, offset int) {
		got = append(got, unused{name, offset})
	})
	assert.Equal(t, []unused{{"$b", 10}, {"$a", 20}, {"%h", 30}}, got)

	// ancestors are not collected
	child := tab.Push(root)
	tab.CollectUnused(child, func(name string, _ int) {
		t.Errorf("unexpected unused variable %s", name)
	})
}

func TestScope_Pop(t *testing.T) {
	tab := newScopeTable()
	root := tab.Push(NoScope)
	child := tab.Push(root)
	tab.Declare(child, "$", "tmp", 0, false, true)
	tab.Pop(child)
	next := tab.Push(root)
	assert.Equal(t, child, next)
	assert.Nil(t, tab.Lookup(next, "$", "tmp"))
}

func TestSigilIndex(t *testing.T) {
	assert.Equal(t, sigilScalar, sigilIndex("$"))
	assert.Equal(t, sigilArray, sigilIndex("@"))
	assert.Equal(t, sigilHash, sigilIndex("%"))
	assert.Equal(t, sigilSub, sigilIndex("&"))
	assert.Equal(t, sigilGlob, sigilIndex("*"))
	assert.Equal(t, sigilOther, sigilIndex(""))
	assert.Equal(t, sigilOther, sigilIndex("#"))
}
