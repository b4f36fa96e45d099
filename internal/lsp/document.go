package lsp

import (
	"slices"
	"sync"
)

// TextDocument represents a document open in the editor. Documents are replaced,
// never mutated, so a *TextDocument can be read without holding the manager lock.
type TextDocument struct {
	URI     string
	Path    string
	Text    []byte
	Version int
}

// DocumentManager manages text documents
type DocumentManager struct {
	documents map[string]*TextDocument
	mu        sync.RWMutex
}

// NewDocumentManager creates a new document manager
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		documents: make(map[string]*TextDocument),
	}
}

// OpenDocument adds or replaces a document
func (m *DocumentManager) OpenDocument(uri string, text string, version int) *TextDocument {
	doc := &TextDocument{
		URI:     uri,
		Path:    URIToPath(uri),
		Text:    []byte(text),
		Version: version,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[uri] = doc
	return doc
}

// UpdateDocument replaces the content of a document, opening it if needed
func (m *DocumentManager) UpdateDocument(uri string, text string, version int) *TextDocument {
	return m.OpenDocument(uri, text, version)
}

// CloseDocument removes a document
func (m *DocumentManager) CloseDocument(uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.documents, uri)
}

// GetDocument returns a document by URI
func (m *DocumentManager) GetDocument(uri string) (*TextDocument, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.documents[uri]
	return doc, ok
}

// URIs returns the URIs of all open documents, sorted
func (m *DocumentManager) URIs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uris := make([]string, 0, len(m.documents))
	for uri := range m.documents {
		uris = append(uris, uri)
	}
	slices.Sort(uris)
	return uris
}
