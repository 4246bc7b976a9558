// Copyright © 2024 The perlscope authors

package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/perlscope/lint"
	"github.com/luthersystems/perlscope/perltest"
)

func TestWatchWithFSNotify(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		batches [][]string
	)
	done := make(chan error, 1)
	started := make(chan struct{})
	go func() {
		close(started)
		done <- watchWithFSNotify(ctx, []string{dir}, 20*time.Millisecond, []string{"*.swp"}, func(changed []string) {
			mu.Lock()
			batches = append(batches, changed)
			mu.Unlock()
		})
	}()
	<-started
	// Give the watcher time to register its directories.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "lib", "A.pm")
	require.NoError(t, os.WriteFile(path, []byte("1;\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "A.pm.swp"), []byte("x"), 0o600))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, b := range batches {
			for _, p := range b {
				if p == path {
					return true
				}
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	for _, b := range batches {
		for _, p := range b {
			assert.NotEqual(t, ".swp", filepath.Ext(p))
		}
	}
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestShouldSkipWatchDir(t *testing.T) {
	assert.True(t, shouldSkipWatchDir(".git", "x/.git", nil))
	assert.True(t, shouldSkipWatchDir("blib", "x/blib", nil))
	assert.True(t, shouldSkipWatchDir("gen", "x/gen", []string{"gen"}))
	assert.False(t, shouldSkipWatchDir("lib", "x/lib", nil))
}

func TestWatcherCheck(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.pl", dirtySource)
	writeFile(t, dir, "README", "text")

	l, err := newCmdConfig([]Option{WithConfig(&lint.Config{})}).linter()
	require.NoError(t, err)
	logger := &syncBuffer{}
	testLog := perltest.NewLogger(t)
	defer testLog.Flush()
	w := &watcher{linter: l, out: io.MultiWriter(logger, testLog)}

	w.check(context.Background(), []string{filepath.Join(dir, "README")})
	assert.Empty(t, logger.String())

	w.check(context.Background(), []string{bad})
	assert.Contains(t, logger.String(), "undeclared-variable")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
