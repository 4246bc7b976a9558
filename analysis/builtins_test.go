// Copyright © 2024 The perlscope authors

package analysis

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBuiltinGlobal(t *testing.T) {
	builtin := [][2]string{
		{"$", "_"}, {"@", "_"}, {"%", "_"}, {"$", "!"}, {"$", "@"}, {"$", "0"},
		{"$", "12"}, {"$", "^W"}, {"$", "^WARNING_BITS"}, {"%", "ENV"}, {"@", "INC"},
		{"%", "INC"}, {"@", "ARGV"}, {"%", "SIG"}, {"$", "ARGV"}, {"@", "EXPORT_OK"},
		{"%", "EXPORT_TAGS"}, {"@", "ISA"}, {"$", "VERSION"}, {"$", "AUTOLOAD"},
		{"$", "a"}, {"$", "b"}, {"$", "EVAL_ERROR"}, {"$", "PROGRAM_NAME"},
		{"*", "STDOUT"}, {"", "STDERR"},
	}
	for _, v := range builtin {
		assert.True(t, IsBuiltinGlobal(v[0], v[1]), "%s%s", v[0], v[1])
	}
	user := [][2]string{
		{"$", "x"}, {"$", "count"}, {"@", "a"}, {"%", "ARGV"}, {"$", "ISA"},
		{"$", "Config"}, {"$", ""}, {"$", "^w"}, {"&", "VERSION"},
	}
	for _, v := range user {
		assert.False(t, IsBuiltinGlobal(v[0], v[1]), "%s%s", v[0], v[1])
	}
}

func TestIsKnownFunction(t *testing.T) {
	for _, name := range []string{"print", "open", "sprintf", "wantarray", "STDIN", "__PACKAGE__", "__END__", "bless"} {
		assert.True(t, IsKnownFunction(name), name)
	}
	for _, name := range []string{"FOO", "helper", "Foo::Bar", ""} {
		assert.False(t, IsKnownFunction(name), name)
	}
}

func TestKnownFunctions(t *testing.T) {
	names := KnownFunctions()
	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "print")
	for _, name := range names {
		assert.True(t, IsKnownFunction(name), name)
	}
}

func TestIsFilehandleFunction(t *testing.T) {
	assert.True(t, IsFilehandleFunction("open"))
	assert.True(t, IsFilehandleFunction("binmode"))
	assert.False(t, IsFilehandleFunction("push"))
}

func TestSplitVariableName(t *testing.T) {
	sigil, name := splitVariableName("$config")
	assert.Equal(t, "$", sigil)
	assert.Equal(t, "config", name)
	sigil, name = splitVariableName("bare")
	assert.Equal(t, "", sigil)
	assert.Equal(t, "bare", name)
}
