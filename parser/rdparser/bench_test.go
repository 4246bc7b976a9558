// Copyright © 2024 The perlscope authors

package rdparser_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/luthersystems/perlscope/parser/rdparser"
	"github.com/luthersystems/perlscope/perltest"
)

const fixtureDir = "testdata"

func BenchmarkParser(b *testing.B) {
	files, err := filepath.Glob(filepath.Join(fixtureDir, "*.pl"))
	if err != nil {
		b.Fatalf("Failed to list test fixtures: %v", err)
	}
	sort.Strings(files) // should be redundant
	for _, path := range files {
		b.Run(filepath.Base(path), perltest.BenchmarkParse(path))
	}
}

func TestFixtures(t *testing.T) {
	files, err := filepath.Glob(filepath.Join(fixtureDir, "*.pl"))
	if err != nil {
		t.Fatalf("Failed to list test fixtures: %v", err)
	}
	for _, path := range files {
		buf, err := os.ReadFile(path) //#nosec G304
		if err != nil {
			t.Fatalf("Unable to read source file %v: %v", path, err)
		}
		tree, errs := rdparser.New(path, buf).ParseProgram()
		for _, err := range errs {
			t.Errorf("%v", err)
		}
		if tree.Len() == 0 {
			t.Errorf("%s: empty tree", path)
		}
	}
}
