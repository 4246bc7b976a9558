// Copyright © 2024 The perlscope authors

// Package parser is the entry point for parsing Perl source into an
// ast.Tree.
package parser

import (
	"fmt"
	"os"

	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/parser/rdparser"
	"github.com/luthersystems/perlscope/parser/token"
)

// Parse parses src, naming it name in locations. The returned tree is
// always usable; syntax errors are returned alongside it.
func Parse(name string, src []byte) (*ast.Tree, []*token.LocationError) {
	return rdparser.New(name, src).ParseProgram()
}

// ParseFile reads and parses the file at path. The error is non-nil only
// when the file cannot be read.
func ParseFile(path string) (*ast.Tree, []byte, []*token.LocationError, error) {
	src, err := os.ReadFile(path) //#nosec G304
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	p := rdparser.New(path, src)
	p.SetPath(path)
	tree, errs := p.ParseProgram()
	return tree, src, errs, nil
}
