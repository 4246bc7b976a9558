// Copyright © 2024 The perlscope authors

package repl

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/astutil"
	"github.com/luthersystems/perlscope/lint"
	"github.com/luthersystems/perlscope/parser"
)

// SourceName is the file name diagnostics from a session refer to.
const SourceName = "<repl>"

// Session is a scratch buffer of Perl source. Each chunk evaluated is
// appended to the buffer and the whole buffer is analyzed again, so
// declarations from earlier chunks stay in scope.
type Session struct {
	linter *lint.Linter

	mu   sync.Mutex
	src  strings.Builder
	tree *ast.Tree
	seen map[string]struct{}
}

// NewSession returns an empty session analyzed by l. A nil linter selects
// the default REPL linter.
func NewSession(l *lint.Linter) *Session {
	if l == nil {
		l = defaultLinter()
	}
	return &Session{linter: l, seen: make(map[string]struct{})}
}

// defaultLinter runs every check with strict assumed. The pragma checks are
// off since a scratch buffer rarely starts with them.
func defaultLinter() *lint.Linter {
	l, err := lint.NewLinter(&lint.Config{
		AssumeStrict: true,
		Disable: []string{
			lint.AnalyzerMissingStrict.Name,
			lint.AnalyzerMissingWarnings.Name,
		},
	})
	if err != nil {
		panic(err)
	}
	return l
}

// Eval appends chunk to the buffer and analyzes it. Only diagnostics that
// were not returned by an earlier call are returned.
func (s *Session) Eval(ctx context.Context, chunk string) ([]lint.Diagnostic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.WriteString(chunk)
	if !strings.HasSuffix(chunk, "\n") {
		s.src.WriteByte('\n')
	}
	src := []byte(s.src.String())
	tree, errs := parser.Parse(SourceName, src)
	s.tree = tree
	diags, err := s.linter.LintTree(ctx, src, SourceName, tree, errs)
	if err != nil {
		return nil, fmt.Errorf("analyzing buffer: %w", err)
	}
	var fresh []lint.Diagnostic
	for _, d := range diags {
		key := fmt.Sprintf("%s:%d:%d:%s", d.Analyzer, d.Pos.Line, d.Pos.Col, d.Message)
		if _, ok := s.seen[key]; ok {
			continue
		}
		s.seen[key] = struct{}{}
		fresh = append(fresh, d)
	}
	return fresh, nil
}

// Reset discards the buffer and forgets reported diagnostics.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Reset()
	s.tree = nil
	s.seen = make(map[string]struct{})
}

// Source returns the buffer.
func (s *Session) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.String()
}

// DumpAST writes the buffer's syntax tree to w, one statement per line.
func (s *Session) DumpAST(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		return nil
	}
	return s.tree.Dump(w)
}

// Variables returns the variables declared anywhere in the buffer, with
// sigils, sorted.
func (s *Session) Variables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tree
	set := make(map[string]struct{})
	astutil.Inspect(t, ast.VariableDeclaration, func(id ast.NodeID, _ int) {
		astutil.WalkFrom(t, t.Kid(id, 0), func(v ast.NodeID, _ []ast.NodeID) bool {
			if n := t.Node(v); n.Kind == ast.Variable {
				set[n.Sigil+n.Name] = struct{}{}
			}
			return true
		})
	})
	return sortedKeys(set)
}

// Subroutines returns the names of the subs defined in the buffer, sorted.
func (s *Session) Subroutines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tree
	set := make(map[string]struct{})
	astutil.Inspect(t, ast.Subroutine, func(id ast.NodeID, _ int) {
		if name := t.Node(id).Name; name != "" {
			set[name] = struct{}{}
		}
	})
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
