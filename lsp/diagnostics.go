// Copyright © 2024 The perlscope authors

package lsp

import (
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/perlscope/lint"
	"github.com/luthersystems/perlscope/parser/token"
)

const (
	debounceDelay    = 300 * time.Millisecond
	diagnosticSource = "perlscope"
)

// textDocumentDidOpen handles the textDocument/didOpen notification.
func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotify(ctx)
	doc := s.docs.Open(
		params.TextDocument.URI,
		params.TextDocument.Version,
		params.TextDocument.Text,
	)
	s.analyzeAndPublish(doc)
	return nil
}

// textDocumentDidChange handles the textDocument/didChange notification.
func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotify(ctx)
	// With full sync, the last content change is the complete document.
	var content string
	var found bool
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content, found = c.Text, true
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				content, found = c.Text, true
			}
		}
	}
	if !found {
		return nil
	}

	doc := s.docs.Change(params.TextDocument.URI, params.TextDocument.Version, content)

	// Debounce: delay analysis to avoid thrashing during rapid edits.
	s.debounceMu.Lock()
	defer s.debounceMu.Unlock()
	if t, ok := s.debounce[doc.URI]; ok {
		t.Stop()
	}
	if s.shutdown {
		return nil
	}
	uri := doc.URI
	s.debounce[uri] = time.AfterFunc(s.delay, func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("analysis of %s panicked: %v", uri, r)
			}
		}()
		if d := s.docs.Get(uri); d != nil {
			s.analyzeAndPublish(d)
		}
	})
	return nil
}

// textDocumentDidSave handles the textDocument/didSave notification.
func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotify(ctx)
	s.cancelDebounce(params.TextDocument.URI)
	if doc := s.docs.Get(params.TextDocument.URI); doc != nil {
		s.analyzeAndPublish(doc)
	}
	return nil
}

// textDocumentDidClose handles the textDocument/didClose notification.
func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.cancelDebounce(params.TextDocument.URI)

	// Clear diagnostics for the closed file.
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})

	s.docs.Close(params.TextDocument.URI)
	return nil
}

func (s *Server) cancelDebounce(uri string) {
	s.debounceMu.Lock()
	if t, ok := s.debounce[uri]; ok {
		t.Stop()
		delete(s.debounce, uri)
	}
	s.debounceMu.Unlock()
}

// analyzeAndPublish lints a document and publishes the resulting diagnostics
// to the client.
func (s *Server) analyzeAndPublish(doc *Document) {
	snap := s.analyze(doc)

	diags := make([]protocol.Diagnostic, 0, len(snap.diags))
	for _, d := range snap.diags {
		diags = append(diags, convertLintDiagnostic(snap.lines, d))
	}

	version := safeUint(int(snap.version))
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         snap.uri,
		Version:     &version,
		Diagnostics: diags,
	})
}

// convertLintDiagnostic converts a lint.Diagnostic to an LSP Diagnostic.
// Byte offsets become UTF-16 positions.
func convertLintDiagnostic(lines *token.Lines, d lint.Diagnostic) protocol.Diagnostic {
	sev := mapLintSeverity(d.Severity)
	pd := protocol.Diagnostic{
		Range:    spanToRange(lines, d.Span.Start, d.Span.End),
		Severity: &sev,
		Source:   strPtr(diagnosticSource),
		Code:     &protocol.IntegerOrString{Value: d.Analyzer},
		Message:  d.Message,
	}
	if d.Unnecessary {
		pd.Tags = []protocol.DiagnosticTag{protocol.DiagnosticTagUnnecessary}
	}
	return pd
}

// mapLintSeverity converts a lint.Severity to a protocol.DiagnosticSeverity.
func mapLintSeverity(sev lint.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case lint.SeverityError:
		return protocol.DiagnosticSeverityError
	case lint.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case lint.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityWarning
	}
}

func strPtr(s string) *string {
	return &s
}
