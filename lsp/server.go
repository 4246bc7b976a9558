// Copyright © 2024 The perlscope authors

// Package lsp implements a Language Server Protocol server for Perl. It
// publishes scope diagnostics as documents change and offers quick fixes for
// the problems it reports.
package lsp

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	glspserver "github.com/tliron/glsp/server"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/perlscope/lint"
)

const serverName = "perlscope"

// Version is reported to clients during initialization.
var Version = "0.1.0"

var log = commonlog.GetLogger("perlscope.lsp")

// Server is the Perl language server.
type Server struct {
	handler  protocol.Handler
	glspSrv  *glspserver.Server
	docs     *DocumentStore
	rootPath string

	// linter is shared by all documents. It holds no per-file state.
	linter *lint.Linter

	// Debouncer for didChange notifications.
	debounceMu sync.Mutex
	debounce   map[string]*time.Timer
	delay      time.Duration

	// Context for sending notifications (captured from latest request).
	notifyMu sync.Mutex
	notify   glsp.NotifyFunc

	// exitFn is called on the LSP exit notification. Defaults to os.Exit.
	exitFn   func(int)
	shutdown bool
}

// Option configures the LSP server.
type Option func(*Server)

// WithLinter replaces the default linter, for example one built from a
// user configuration file.
func WithLinter(l *lint.Linter) Option {
	return func(s *Server) { s.linter = l }
}

// WithDebounce sets how long the server waits after the last edit before it
// re-analyzes a document.
func WithDebounce(d time.Duration) Option {
	return func(s *Server) { s.delay = d }
}

// New creates a new language server.
func New(opts ...Option) *Server {
	s := &Server{
		docs:     NewDocumentStore(),
		linter:   &lint.Linter{Analyzers: lint.DefaultAnalyzers()},
		debounce: make(map[string]*time.Timer),
		delay:    debounceDelay,
		exitFn:   os.Exit,
	}
	for _, o := range opts {
		o(s)
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdownRequest,
		Exit:        s.exit,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidSave:   s.textDocumentDidSave,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCodeAction:     s.textDocumentCodeAction,
		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
		TextDocumentFoldingRange:   s.textDocumentFoldingRange,
	}

	s.glspSrv = glspserver.NewServer(&s.handler, serverName, false)
	return s
}

// RunStdio starts the server using stdio transport.
func (s *Server) RunStdio() error {
	log.Infof("starting %s %s on stdio", serverName, Version)
	return s.glspSrv.RunStdio()
}

// RunTCP starts the server listening on the given address.
func (s *Server) RunTCP(addr string) error {
	log.Infof("starting %s %s on %s", serverName, Version, addr)
	return s.glspSrv.RunTCP(addr)
}

// initialize handles the LSP initialize request.
func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.captureNotify(ctx)

	if params.RootURI != nil {
		s.rootPath = uriToPath(*params.RootURI)
	} else if params.RootPath != nil {
		s.rootPath = *params.RootPath
	}

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: boolPtr(false)},
	}
	capabilities.CodeActionProvider = &protocol.CodeActionOptions{
		CodeActionKinds: []protocol.CodeActionKind{protocol.CodeActionKindQuickFix},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &Version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	s.captureNotify(ctx)
	log.Debugf("client initialized, workspace %q", s.rootPath)
	return nil
}

// shutdownRequest handles the LSP shutdown request.
func (s *Server) shutdownRequest(_ *glsp.Context) error {
	s.debounceMu.Lock()
	for _, t := range s.debounce {
		t.Stop()
	}
	s.debounce = make(map[string]*time.Timer)
	s.shutdown = true
	s.debounceMu.Unlock()

	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

// exit terminates the process. The code is 0 after a shutdown request and 1
// otherwise.
func (s *Server) exit(_ *glsp.Context) error {
	s.debounceMu.Lock()
	code := 1
	if s.shutdown {
		code = 0
	}
	s.debounceMu.Unlock()
	s.exitFn(code)
	return nil
}

func (s *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// analyze lints doc if its last result is stale and returns the current
// diagnostics together with the snapshot they describe.
func (s *Server) analyze(doc *Document) snapshot {
	snap := doc.snapshot()
	if snap.linted {
		return snap
	}

	start := time.Now()
	diags, err := s.linter.LintTree(context.Background(), []byte(snap.content), uriToPath(snap.uri), snap.tree, snap.errs)
	if err != nil {
		log.Errorf("%s: %s", snap.uri, err)
		return snap
	}
	log.Debugf("analyzed %s version %d in %s: %d diagnostics", snap.uri, snap.version, time.Since(start), len(diags))

	snap.diags = diags
	snap.linted = true
	doc.store(snap)
	return snap
}

// captureNotify stores the notification function from the context for
// async use (e.g., publishing diagnostics after a debounce).
func (s *Server) captureNotify(ctx *glsp.Context) {
	if ctx == nil || ctx.Notify == nil {
		return
	}
	s.notifyMu.Lock()
	s.notify = ctx.Notify
	s.notifyMu.Unlock()
}

// sendNotification sends a notification to the client.
func (s *Server) sendNotification(method string, params any) {
	s.notifyMu.Lock()
	fn := s.notify
	s.notifyMu.Unlock()
	if fn != nil {
		fn(method, params)
	}
}

func boolPtr(b bool) *bool {
	return &b
}
