// Copyright © 2024 The perlscope authors

package lsp

import (
	"sync"

	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/lint"
	"github.com/luthersystems/perlscope/parser"
	"github.com/luthersystems/perlscope/parser/token"
)

// Document represents an open text document tracked by the LSP server. Every
// content change replaces the tree, so a tree read under the lock can be
// used after the lock is released.
type Document struct {
	mu          sync.Mutex
	URI         string
	Version     int32
	Content     string
	lines       *token.Lines
	tree        *ast.Tree
	parseErrors []*token.LocationError

	// diags is the lint result for the current version once linted is set.
	diags  []lint.Diagnostic
	linted bool
}

// snapshot is an immutable view of a document version.
type snapshot struct {
	uri     string
	version int32
	content string
	lines   *token.Lines
	tree    *ast.Tree
	errs    []*token.LocationError
	diags   []lint.Diagnostic
	linted  bool
}

// parse parses the document content. The parser recovers from syntax errors,
// so the tree is usable even when parseErrors is not empty.
func (d *Document) parse() {
	src := []byte(d.Content)
	d.tree, d.parseErrors = parser.Parse(uriToPath(d.URI), src)
	d.lines = token.NewLines(src)
	d.diags = nil
	d.linted = false
}

func (d *Document) snapshot() snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return snapshot{
		uri:     d.URI,
		version: d.Version,
		content: d.Content,
		lines:   d.lines,
		tree:    d.tree,
		errs:    d.parseErrors,
		diags:   d.diags,
		linted:  d.linted,
	}
}

// store records the lint result of snap unless the document changed in the
// meantime.
func (d *Document) store(snap snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tree != snap.tree {
		return
	}
	d.diags = snap.diags
	d.linted = snap.linted
}

// DocumentStore manages open documents with thread-safe access.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Open adds a document to the store and parses it.
func (s *DocumentStore) Open(uri string, version int32, content string) *Document {
	doc := &Document{
		URI:     uri,
		Version: version,
		Content: content,
	}
	doc.parse()
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

// Change updates a document's content (full sync) and re-parses it.
func (s *DocumentStore) Change(uri string, version int32, content string) *Document {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = &Document{URI: uri}
		s.docs[uri] = doc
	}
	s.mu.Unlock()

	doc.mu.Lock()
	doc.Version = version
	doc.Content = content
	doc.parse()
	doc.mu.Unlock()
	return doc
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// Get retrieves a document by URI. Returns nil if not found.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}
