// Copyright © 2024 The perlscope authors

package lsp

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/perlscope/lint"
	"github.com/luthersystems/perlscope/parser/token"
)

const header = "use strict;\nuse warnings;\n"

// testServer creates a server with a short debounce that never exits the
// process.
func testServer(opts ...Option) *Server {
	s := New(append([]Option{WithDebounce(10 * time.Millisecond)}, opts...)...)
	s.exitFn = func(int) {}
	return s
}

// openDoc opens a document in the test server and returns it.
func openDoc(s *Server, uri, content string) *Document {
	return s.docs.Open(uri, 1, content)
}

// mockContext returns a minimal glsp.Context for testing.
func mockContext() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {},
	}
}

// recorder captures published diagnostics. Debounced analysis publishes from
// a timer goroutine, so access is locked.
type recorder struct {
	mu   sync.Mutex
	pubs []*protocol.PublishDiagnosticsParams
}

func (r *recorder) published() []*protocol.PublishDiagnosticsParams {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*protocol.PublishDiagnosticsParams(nil), r.pubs...)
}

func (r *recorder) last(t *testing.T) *protocol.PublishDiagnosticsParams {
	t.Helper()
	pubs := r.published()
	require.NotEmpty(t, pubs, "no diagnostics published")
	return pubs[len(pubs)-1]
}

// capturingContext returns a context that captures published diagnostics.
func capturingContext() (*glsp.Context, *recorder) {
	r := &recorder{}
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			if method == protocol.ServerTextDocumentPublishDiagnostics {
				r.mu.Lock()
				r.pubs = append(r.pubs, params.(*protocol.PublishDiagnosticsParams))
				r.mu.Unlock()
			}
		},
	}
	return ctx, r
}

// open sends didOpen and returns the diagnostics published for it.
func open(t *testing.T, s *Server, uri, text string) []protocol.Diagnostic {
	t.Helper()
	ctx, rec := capturingContext()
	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: "perl",
			Version:    1,
			Text:       text,
		},
	})
	require.NoError(t, err)
	pub := rec.last(t)
	assert.Equal(t, uri, pub.URI)
	return pub.Diagnostics
}

func withCode(diags []protocol.Diagnostic, code string) []protocol.Diagnostic {
	var out []protocol.Diagnostic
	for _, d := range diags {
		if d.Code != nil && d.Code.Value == code {
			out = append(out, d)
		}
	}
	return out
}

func pos(line, char int) protocol.Position {
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(char)}
}

// --- Position conversion tests ---

func TestOffsetToPosition(t *testing.T) {
	src := []byte("my $x;\nprint \"😀é\", $y;\n")
	lines := token.NewLines(src)

	t.Run("start of file", func(t *testing.T) {
		assert.Equal(t, pos(0, 0), offsetToPosition(lines, 0))
	})
	t.Run("ascii", func(t *testing.T) {
		assert.Equal(t, pos(0, 3), offsetToPosition(lines, 3))
	})
	t.Run("astral rune counts two units", func(t *testing.T) {
		// '$y' follows a 4-byte emoji and a 2-byte letter.
		offset := 7 + len(`print "😀é", `)
		assert.Equal(t, "$y", string(src[offset:offset+2]))
		assert.Equal(t, pos(1, 13), offsetToPosition(lines, offset))
	})
	t.Run("end of file", func(t *testing.T) {
		assert.Equal(t, pos(2, 0), offsetToPosition(lines, len(src)))
	})
}

func TestPositionToOffset(t *testing.T) {
	src := []byte("my $x;\nprint \"😀é\", $y;\n")
	lines := token.NewLines(src)
	for _, offset := range []int{0, 3, 7, 7 + len(`print "😀é", `), len(src)} {
		assert.Equal(t, offset, positionToOffset(lines, offsetToPosition(lines, offset)), "offset %d", offset)
	}
}

func TestSpanToRange(t *testing.T) {
	lines := token.NewLines([]byte("my $count = 1;\n"))
	r := spanToRange(lines, 3, 9)
	assert.Equal(t, protocol.Range{Start: pos(0, 3), End: pos(0, 9)}, r)

	// An inverted span collapses to its start.
	r = spanToRange(lines, 5, 2)
	assert.Equal(t, r.Start, r.End)
}

func TestSafeUint(t *testing.T) {
	assert.Equal(t, protocol.UInteger(0), safeUint(-3))
	assert.Equal(t, protocol.UInteger(42), safeUint(42))
}

func TestURIConversion(t *testing.T) {
	assert.Equal(t, "/path/to/file.pl", uriToPath("file:///path/to/file.pl"))
	// Non-URI input returned unchanged.
	assert.Equal(t, "relative/path", uriToPath("relative/path"))
	// Percent-encoded spaces.
	assert.Equal(t, "/path/to/my file.pm", uriToPath("file:///path/to/my%20file.pm"))
	assert.Equal(t, "/path/to/(test).t", uriToPath("file:///path/to/%28test%29.t"))
}

// --- Document tests ---

func TestDocumentStore(t *testing.T) {
	t.Run("Open", func(t *testing.T) {
		store := NewDocumentStore()
		doc := store.Open("file:///test.pl", 1, "print 1;")
		require.NotNil(t, doc)
		assert.Equal(t, "print 1;", doc.Content)
		assert.NotNil(t, doc.tree)
		assert.Empty(t, doc.parseErrors)
	})
	t.Run("Get", func(t *testing.T) {
		store := NewDocumentStore()
		store.Open("file:///test.pl", 1, "print 1;")
		got := store.Get("file:///test.pl")
		require.NotNil(t, got)
		assert.Equal(t, "print 1;", got.Content)
		assert.Nil(t, store.Get("file:///nonexistent.pl"))
	})
	t.Run("Change", func(t *testing.T) {
		s := testServer()
		doc := openDoc(s, "file:///test.pl", "print 1;")
		s.analyze(doc)
		require.True(t, doc.snapshot().linted)

		before := doc.snapshot().tree
		changed := s.docs.Change("file:///test.pl", 2, "print 2;")
		assert.Equal(t, "print 2;", changed.Content)
		assert.Equal(t, int32(2), changed.Version)
		assert.False(t, changed.snapshot().linted, "lint result should be cleared on change")
		assert.NotSame(t, before, changed.snapshot().tree)
	})
	t.Run("ChangeUnknown", func(t *testing.T) {
		store := NewDocumentStore()
		doc := store.Change("file:///new.pl", 3, "print 3;")
		assert.Same(t, doc, store.Get("file:///new.pl"))
	})
	t.Run("Close", func(t *testing.T) {
		store := NewDocumentStore()
		store.Open("file:///test.pl", 1, "print 1;")
		store.Close("file:///test.pl")
		assert.Nil(t, store.Get("file:///test.pl"))
	})
}

func TestDocumentParseError(t *testing.T) {
	store := NewDocumentStore()
	doc := store.Open("file:///test.pl", 1, "my $x = 1;\nfoo(;\n")
	require.Len(t, doc.parseErrors, 1)
	assert.Equal(t, 2, doc.parseErrors[0].Source.Line)
	assert.NotNil(t, doc.tree, "the tree survives syntax errors")
}

func TestStaleLintResultDropped(t *testing.T) {
	s := testServer()
	doc := openDoc(s, "file:///test.pl", "print 1;")
	snap := doc.snapshot()
	s.docs.Change("file:///test.pl", 2, "print 2;")

	snap.linted = true
	doc.store(snap)
	assert.False(t, doc.snapshot().linted, "a result for an old tree must not be stored")
}

// --- Diagnostics tests ---

func TestDiagnosticsOnOpen_Clean(t *testing.T) {
	s := testServer()
	diags := open(t, s, "file:///test.pl", header+"my $x = 1;\nprint $x;\n")
	assert.Empty(t, diags)
}

func TestDiagnosticsOnOpen_Undeclared(t *testing.T) {
	s := testServer()
	diags := open(t, s, "file:///test.pl", header+"$count = 1;\n")
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
	assert.Equal(t, diagnosticSource, *d.Source)
	assert.Equal(t, "undeclared-variable", d.Code.Value)
	assert.Equal(t, protocol.Range{Start: pos(2, 0), End: pos(2, 6)}, d.Range)
	assert.Empty(t, d.Tags)
}

func TestDiagnosticsUTF16Range(t *testing.T) {
	s := testServer()
	diags := open(t, s, "file:///test.pl", header+"print \"😀\", $y;\n")
	undeclared := withCode(diags, "undeclared-variable")
	require.Len(t, undeclared, 1)
	assert.Equal(t, protocol.Range{Start: pos(2, 12), End: pos(2, 14)}, undeclared[0].Range)
}

func TestDiagnosticsUnnecessaryTag(t *testing.T) {
	s := testServer()
	diags := open(t, s, "file:///test.pl", header+"my $unused = 1;\n")
	require.Len(t, diags, 1)
	assert.Equal(t, "unused-variable", diags[0].Code.Value)
	assert.Equal(t, []protocol.DiagnosticTag{protocol.DiagnosticTagUnnecessary}, diags[0].Tags)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *diags[0].Severity)
}

func TestDiagnosticsOnParseError(t *testing.T) {
	s := testServer()
	diags := open(t, s, "file:///test.pl", header+"my $x = 1;\nfoo(;\n")
	syntax := withCode(diags, lint.SyntaxAnalyzer)
	require.Len(t, syntax, 1)
	assert.Equal(t, protocol.DiagnosticSeverityError, *syntax[0].Severity)
	assert.Equal(t, pos(3, 4), syntax[0].Range.Start)
}

func TestDiagnosticsMissingPragmas(t *testing.T) {
	s := testServer()
	diags := open(t, s, "file:///test.pl", "print 1;\n")
	require.Len(t, diags, 2)
	assert.Equal(t, "missing-strict", diags[0].Code.Value)
	assert.Equal(t, "missing-warnings", diags[1].Code.Value)
	assert.Equal(t, protocol.DiagnosticSeverityInformation, *diags[0].Severity)
	assert.Equal(t, protocol.Range{}, diags[0].Range)
}

func TestDiagnosticsVersion(t *testing.T) {
	s := testServer()
	ctx, rec := capturingContext()
	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file:///test.pl", Version: 7, Text: "print 1;"},
	})
	require.NoError(t, err)
	pub := rec.last(t)
	require.NotNil(t, pub.Version)
	assert.Equal(t, protocol.UInteger(7), *pub.Version)
}

func TestDiagnosticsOnChange_Debounced(t *testing.T) {
	s := testServer()
	ctx, rec := capturingContext()
	uri := "file:///test.pl"
	require.NoError(t, s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: header + "print 1;\n"},
	}))
	require.Len(t, rec.published(), 1)

	for v, text := range []string{header + "$first = 1;\n", header + "$second = 1;\n"} {
		err := s.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
				Version:                protocol.Integer(v + 2),
			},
			ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: text}},
		})
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return len(rec.published()) >= 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	pubs := rec.published()
	assert.Len(t, pubs, 2, "rapid edits should be analyzed once")
	last := pubs[len(pubs)-1]
	assert.Equal(t, protocol.UInteger(3), *last.Version)
	require.Len(t, last.Diagnostics, 1)
	assert.Contains(t, last.Diagnostics[0].Message, "$second")
}

func TestDiagnosticsOnChange_RangeEventIgnored(t *testing.T) {
	s := testServer()
	openDoc(s, "file:///test.pl", "print 1;")
	r := protocol.Range{Start: pos(0, 0), End: pos(0, 1)}
	err := s.textDocumentDidChange(mockContext(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///test.pl"},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEvent{Range: &r, Text: "x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "print 1;", s.docs.Get("file:///test.pl").Content)
}

func TestDiagnosticsOnClose_Cleared(t *testing.T) {
	s := testServer()
	open(t, s, "file:///test.pl", "$x = 1;")

	closeCtx, rec := capturingContext()
	s.captureNotify(closeCtx)
	err := s.textDocumentDidClose(closeCtx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///test.pl"},
	})
	require.NoError(t, err)
	require.Len(t, rec.published(), 1)
	assert.Empty(t, rec.last(t).Diagnostics, "close should clear diagnostics")
	assert.Nil(t, s.docs.Get("file:///test.pl"), "document should be removed from store")
}

func TestDiagnosticsOnSave_Immediate(t *testing.T) {
	s := testServer()
	ctx, rec := capturingContext()
	require.NoError(t, s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file:///test.pl", Version: 1, Text: "print 1;"},
	}))

	before := len(rec.published())
	err := s.textDocumentDidSave(ctx, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///test.pl"},
	})
	require.NoError(t, err)
	assert.Greater(t, len(rec.published()), before, "save should trigger immediate diagnostics publish")
}

func TestWithLinter(t *testing.T) {
	cfg := &lint.Config{Disable: []string{"unused-variable"}}
	l, err := lint.NewLinter(cfg)
	require.NoError(t, err)
	s := testServer(WithLinter(l))
	diags := open(t, s, "file:///test.pl", header+"my $unused = 1;\n")
	assert.Empty(t, diags)
}

// --- Lifecycle tests ---

func TestInitializeLifecycle(t *testing.T) {
	s := testServer()

	rootURI := "file:///workspace"
	result, err := s.initialize(mockContext(), &protocol.InitializeParams{
		RootURI: &rootURI,
	})
	require.NoError(t, err)

	initResult, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, initResult.ServerInfo)
	assert.Equal(t, serverName, initResult.ServerInfo.Name)
	assert.Equal(t, "/workspace", s.rootPath)

	syncOpts, ok := initResult.Capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions)
	require.True(t, ok)
	assert.Equal(t, protocol.TextDocumentSyncKindFull, *syncOpts.Change)
	assert.NotNil(t, initResult.Capabilities.CodeActionProvider)

	require.NoError(t, s.initialized(mockContext(), &protocol.InitializedParams{}))
}

func TestExitHandler(t *testing.T) {
	t.Run("without shutdown", func(t *testing.T) {
		s := testServer()
		code := -1
		s.exitFn = func(c int) { code = c }
		require.NoError(t, s.exit(mockContext()))
		assert.Equal(t, 1, code)
	})
	t.Run("after shutdown", func(t *testing.T) {
		s := testServer()
		code := -1
		s.exitFn = func(c int) { code = c }
		require.NoError(t, s.shutdownRequest(mockContext()))
		require.NoError(t, s.exit(mockContext()))
		assert.Equal(t, 0, code)
	})
}

func TestShutdownStopsDebounce(t *testing.T) {
	s := testServer()
	ctx, rec := capturingContext()
	uri := "file:///test.pl"
	openDoc(s, uri, "print 1;")
	s.captureNotify(ctx)
	require.NoError(t, s.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "$x = 1;"}},
	}))
	require.NoError(t, s.shutdownRequest(mockContext()))
	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, rec.published())
}

func TestSnapshotSharedAcrossGoroutines(t *testing.T) {
	s := testServer()
	ctx, rec := capturingContext()
	s.captureNotify(ctx)
	uri := "file:///test/shared.pl"
	text := header + strings.Repeat("{\n    my $unused = 1;\n}\n", 50)
	doc := openDoc(s, uri, text)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.analyzeAndPublish(doc)
	}()
	go func() {
		defer wg.Done()
		_, err := s.textDocumentFoldingRange(mockContext(), &protocol.FoldingRangeParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		})
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := s.textDocumentDocumentSymbol(mockContext(), &protocol.DocumentSymbolParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		})
		assert.NoError(t, err)
	}()
	wg.Wait()

	diags := withCode(rec.last(t).Diagnostics, "unused-variable")
	require.Len(t, diags, 50)
	assert.Equal(t, pos(3, 7), diags[0].Range.Start)
}
