// Copyright © 2024 The perlscope authors

// Package perltest contains helpers for tests that work on parsed Perl
// source.
package perltest

import (
	"os"
	"strings"
	"testing"

	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/parser"
	"github.com/luthersystems/perlscope/parser/token"
)

// Parse parses src and fails the test if it has syntax errors.
func Parse(t testing.TB, src string) *ast.Tree {
	t.Helper()
	tree, errs := parser.Parse("test.pl", []byte(src))
	if len(errs) > 0 {
		t.Fatalf("parse errors in %q:\n%s", src, joinErrors(errs))
	}
	return tree
}

// ParseFile reads and parses the file at path and fails the test if it
// cannot be read or has syntax errors.
func ParseFile(t testing.TB, path string) (*ast.Tree, []byte) {
	t.Helper()
	tree, src, errs, err := parser.ParseFile(path)
	if err != nil {
		t.Fatalf("Unable to read source file %v: %v", path, err)
	}
	if len(errs) > 0 {
		t.Fatalf("parse errors in %s:\n%s", path, joinErrors(errs))
	}
	return tree, src
}

// BenchmarkParse returns a benchmark parsing the file at path.
func BenchmarkParse(path string) func(*testing.B) {
	return func(b *testing.B) {
		buf, err := os.ReadFile(path) //#nosec G304
		if err != nil {
			b.Fatalf("Unable to read source file %v: %v", path, err)
		}
		b.SetBytes(int64(len(buf)))
		for i := 0; i < b.N; i++ {
			_, errs := parser.Parse(path, buf)
			if len(errs) > 0 {
				b.Fatalf("Parse failure: %v", errs[0])
			}
		}
	}
}

func joinErrors(errs []*token.LocationError) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = "  " + err.Error()
	}
	return strings.Join(msgs, "\n")
}
