// Copyright © 2024 The perlscope authors

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterExcludes_ByName(t *testing.T) {
	paths := []string{
		"src/main.pl",
		"src/Config.pm",
		"lib/utils.pl",
	}
	result := filterExcludes(paths, []string{"Config.pm"})
	assert.Equal(t, []string{"src/main.pl", "lib/utils.pl"}, result)
}

func TestFilterExcludes_ByDirectory(t *testing.T) {
	paths := []string{
		"src/main.pl",
		"build/output.pl",
		"build/sub/deep.pl",
		"lib/utils.pl",
	}
	result := filterExcludes(paths, []string{"build"})
	assert.Equal(t, []string{"src/main.pl", "lib/utils.pl"}, result)
}

func TestFilterExcludes_GlobPattern(t *testing.T) {
	paths := []string{
		"src/main.pl",
		"src/generated_foo.pl",
		"src/generated_bar.pl",
		"lib/utils.pl",
	}
	result := filterExcludes(paths, []string{"generated_*"})
	assert.Equal(t, []string{"src/main.pl", "lib/utils.pl"}, result)
}

func TestFilterExcludes_MultiplePatterns(t *testing.T) {
	paths := []string{
		"src/main.pl",
		"build/output.pl",
		"src/Config.pm",
		"lib/utils.pl",
	}
	result := filterExcludes(paths, []string{"build", "Config.pm"})
	assert.Equal(t, []string{"src/main.pl", "lib/utils.pl"}, result)
}

func TestFilterExcludes_NoMatches(t *testing.T) {
	paths := []string{
		"src/main.pl",
		"lib/utils.pl",
	}
	result := filterExcludes(paths, []string{"nonexistent"})
	assert.Equal(t, []string{"src/main.pl", "lib/utils.pl"}, result)
}

func TestFilterExcludes_EmptyExcludes(t *testing.T) {
	paths := []string{"src/main.pl"}
	result := filterExcludes(paths, nil)
	assert.Equal(t, []string{"src/main.pl"}, result)
}

func TestMatchesAny_FullPath(t *testing.T) {
	// filepath.Match on the full path
	assert.True(t, matchesAny("src/main.pl", []string{"src/*.pl"}))
	assert.False(t, matchesAny("lib/main.pl", []string{"src/*.pl"}))
}

func TestMatchesAny_BaseName(t *testing.T) {
	assert.True(t, matchesAny("deep/nested/Config.pm", []string{"Config.pm"}))
}

func TestMatchesAny_Component(t *testing.T) {
	assert.True(t, matchesAny("project/build/output.pl", []string{"build"}))
	assert.False(t, matchesAny("project/src/output.pl", []string{"build"}))
}

func TestSplitPath(t *testing.T) {
	components := splitPath("a/b/c.pl")
	assert.Contains(t, components, "c.pl")
	assert.Contains(t, components, "b")
	assert.Contains(t, components, "a")
}

func TestExpandArgs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pl", "lib/B.pm", "t/basic.t", "README.md", "lib/deep/C.pm"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("1;\n"), 0o600))
	}

	got, err := expandArgs([]string{dir + "/..."})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.pl"),
		filepath.Join(dir, "lib/B.pm"),
		filepath.Join(dir, "lib/deep/C.pm"),
		filepath.Join(dir, "t/basic.t"),
	}, got)

	// A plain directory expands the same way; files pass through.
	got, err = expandArgs([]string{filepath.Join(dir, "lib"), "missing.pl"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "lib/B.pm"),
		filepath.Join(dir, "lib/deep/C.pm"),
		"missing.pl",
	}, got)

	_, err = expandArgs([]string{filepath.Join(dir, "nope") + "/..."})
	assert.Error(t, err)
}

func TestIsPerlFile(t *testing.T) {
	assert.True(t, isPerlFile("x.pl"))
	assert.True(t, isPerlFile("lib/X.pm"))
	assert.True(t, isPerlFile("t/x.t"))
	assert.False(t, isPerlFile("x.py"))
	assert.False(t, isPerlFile("Makefile"))
}
