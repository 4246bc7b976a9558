// Copyright © 2024 The perlscope authors

package perltest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/perlscope/ast"
)

// recordingTB captures Log calls.
type recordingTB struct {
	testing.TB
	logs []string
}

func (r *recordingTB) Log(args ...any) {
	r.logs = append(r.logs, fmt.Sprint(args...))
}

func TestLogger(t *testing.T) {
	rec := &recordingTB{TB: t}
	log := NewLogger(rec)

	n, err := log.Write([]byte("first\nsec"))
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, []string{"first"}, rec.logs)

	_, _ = log.Write([]byte("ond\nthird\nfour"))
	assert.Equal(t, []string{"first", "second", "third"}, rec.logs)

	log.Flush()
	assert.Equal(t, []string{"first", "second", "third", "four"}, rec.logs)
	log.Flush()
	assert.Len(t, rec.logs, 4)
}

func TestLoggerConcurrentWrites(t *testing.T) {
	rec := &recordingTB{TB: t}
	log := NewLogger(rec)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Fprintf(log, "writer %d\n", i)
		}()
	}
	wg.Wait()

	sort.Strings(rec.logs)
	assert.Equal(t, []string{"writer 0", "writer 1", "writer 2", "writer 3"}, rec.logs)
}

func TestParse(t *testing.T) {
	tree := Parse(t, "my $x = 1;\nprint $x;\n")
	assert.Len(t, tree.Children(tree.Root), 2)
	assert.Equal(t, ast.Program, tree.Kind(tree.Root))
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.pl")
	require.NoError(t, os.WriteFile(path, []byte("sub f { 1 }\n"), 0o600))
	tree, src := ParseFile(t, path)
	assert.Equal(t, "sub f { 1 }\n", string(src))
	assert.Equal(t, path, tree.Name)
}
