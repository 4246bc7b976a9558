// Copyright © 2024 The perlscope authors

package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/luthersystems/perlscope/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tree, errs := Parse("test.pl", []byte("use strict;\nmy $x = 1;\n"))
	require.Empty(t, errs)
	assert.Equal(t, "test.pl", tree.Name)
	stmts := tree.Children(tree.Root)
	require.Len(t, stmts, 2)
	assert.Equal(t, ast.Use, tree.Kind(stmts[0]))
	assert.Equal(t, ast.ExpressionStatement, tree.Kind(stmts[1]))
}

func TestParseErrors(t *testing.T) {
	tree, errs := Parse("bad.pl", []byte("my $x = (1;\nmy $y;\n"))
	require.NotEmpty(t, errs)
	assert.Equal(t, "bad.pl", errs[0].Source.File)
	assert.NotNil(t, tree)
	assert.Equal(t, ast.Program, tree.Kind(tree.Root))
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.pl")
	require.NoError(t, os.WriteFile(path, []byte("print 'hi';\n"), 0o600))
	tree, src, errs, err := ParseFile(path)
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, "print 'hi';\n", string(src))
	assert.Len(t, tree.Children(tree.Root), 1)

	_, _, _, err = ParseFile(filepath.Join(t.TempDir(), "missing.pl"))
	assert.Error(t, err)
}
