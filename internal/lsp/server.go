// Package lsp serves phpflow diagnostics over the Language Server Protocol.
package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/shopware/phpflow/internal/config"
	"github.com/shopware/phpflow/internal/lsp/protocol"
	"github.com/shopware/phpflow/internal/project"
)

// Version is reported to the client in the initialize response.
var Version = "dev"

// Server represents the LSP server
type Server struct {
	rootPath string
	cfg      config.Config

	conn   *jsonrpc2.Conn
	connMu sync.RWMutex

	analyzer   *project.Analyzer
	analyzerMu sync.RWMutex

	diagnosticsProviders []DiagnosticsProvider
	providersMu          sync.RWMutex
	documentManager      *DocumentManager

	// publishMu orders the publishing of diagnostics so a late refresh never
	// overwrites the diagnostics of a newer document version.
	publishMu sync.Mutex

	indexCtx    context.Context
	cancelIndex context.CancelFunc
	indexing    sync.WaitGroup
}

// NewServer creates a new LSP server with the flow analysis as diagnostics provider
func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		documentManager: NewDocumentManager(),
		indexCtx:        ctx,
		cancelIndex:     cancel,
	}
	s.RegisterDiagnosticsProvider(flowDiagnostics{server: s})
	return s
}

// RegisterDiagnosticsProvider registers a diagnostics provider with the server
func (s *Server) RegisterDiagnosticsProvider(provider DiagnosticsProvider) {
	s.providersMu.Lock()
	defer s.providersMu.Unlock()
	s.diagnosticsProviders = append(s.diagnosticsProviders, provider)
}

// Analyzer returns the project analyzer, nil before initialize
func (s *Server) Analyzer() *project.Analyzer {
	s.analyzerMu.RLock()
	defer s.analyzerMu.RUnlock()
	return s.analyzer
}

// DocumentManager returns the open documents
func (s *Server) DocumentManager() *DocumentManager {
	return s.documentManager
}

// Start serves the protocol on in and out until the client disconnects
func (s *Server) Start(in io.Reader, out io.Writer) error {
	stream := jsonrpc2.NewBufferedStream(rwc{in, out}, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(context.Background(), stream, jsonrpc2.HandlerWithError(s.handle))
	s.setConn(conn)

	<-conn.DisconnectNotify()
	s.close()
	return nil
}

// rwc combines a reader and writer into a single ReadWriteCloser
type rwc struct {
	io.Reader
	io.Writer
}

// Close implements io.Closer
func (rwc) Close() error {
	return nil
}

func decode(req *jsonrpc2.Request, v any) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params for " + req.Method}
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeParseError, Message: err.Error()}
	}
	return nil
}

// handle processes incoming JSON-RPC requests and notifications
func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	s.setConn(conn)

	if req.Method == "exit" {
		log.Println("Received exit notification, exiting")
		if err := conn.Close(); err != nil {
			log.Printf("error closing connection: %v", err)
		}
		return nil, nil
	}

	switch req.Method {
	case "initialize":
		var params protocol.InitializeParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		return s.initialize(&params)

	case "initialized":
		s.startIndexing()
		return nil, nil

	case "phpflow/reindex":
		s.startIndexing()
		return map[string]any{
			"message": "Reindexing started",
		}, nil

	case "textDocument/didOpen":
		var params struct {
			TextDocument struct {
				URI     string `json:"uri"`
				Text    string `json:"text"`
				Version int    `json:"version"`
			} `json:"textDocument"`
		}
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		s.documentManager.OpenDocument(params.TextDocument.URI, params.TextDocument.Text, params.TextDocument.Version)
		s.publish(ctx, params.TextDocument.URI)
		return nil, nil

	case "textDocument/didChange":
		var params struct {
			TextDocument struct {
				URI     string `json:"uri"`
				Version int    `json:"version"`
			} `json:"textDocument"`
			ContentChanges []struct {
				Text string `json:"text"`
			} `json:"contentChanges"`
		}
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		// full sync: the last change holds the whole document
		if n := len(params.ContentChanges); n > 0 {
			s.documentManager.UpdateDocument(params.TextDocument.URI, params.ContentChanges[n-1].Text, params.TextDocument.Version)
			s.publish(ctx, params.TextDocument.URI)
		}
		return nil, nil

	case "textDocument/didSave":
		var params struct {
			TextDocument struct {
				URI string `json:"uri"`
			} `json:"textDocument"`
		}
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		s.saved(ctx, params.TextDocument.URI)
		return nil, nil

	case "textDocument/didClose":
		var params struct {
			TextDocument struct {
				URI string `json:"uri"`
			} `json:"textDocument"`
		}
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		s.documentManager.CloseDocument(params.TextDocument.URI)
		s.clear(ctx, params.TextDocument.URI)
		return nil, nil

	case "textDocument/diagnostic":
		var params protocol.DiagnosticParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		return s.documentDiagnostics(ctx, params.TextDocument.URI)

	case "shutdown":
		s.close()
		log.Println("Received shutdown request, waiting for exit notification")
		return nil, nil

	case "workspace/didCreateFiles":
		var params protocol.CreateFilesParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		changed := make([]string, len(params.Files))
		for i, file := range params.Files {
			changed[i] = URIToPath(file.URI)
		}
		s.filesChanged(ctx, changed, nil)
		return nil, nil

	case "workspace/didRenameFiles":
		var params protocol.RenameFilesParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		changed := make([]string, len(params.Files))
		removed := make([]string, len(params.Files))
		for i, file := range params.Files {
			changed[i] = URIToPath(file.NewURI)
			removed[i] = URIToPath(file.OldURI)
		}
		s.filesChanged(ctx, changed, removed)
		return nil, nil

	case "workspace/didDeleteFiles":
		var params protocol.DeleteFilesParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		removed := make([]string, len(params.Files))
		for i, file := range params.Files {
			removed[i] = URIToPath(file.URI)
		}
		s.filesChanged(ctx, nil, removed)
		return nil, nil

	case "workspace/didChangeWatchedFiles":
		var params protocol.DidChangeWatchedFilesParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		var changed, removed []string
		for _, change := range params.Changes {
			switch protocol.FileChangeType(change.Type) {
			case protocol.FileCreated, protocol.FileChanged:
				changed = append(changed, URIToPath(change.URI))
			case protocol.FileDeleted:
				removed = append(removed, URIToPath(change.URI))
			}
		}
		s.filesChanged(ctx, changed, removed)
		return nil, nil

	default:
		if req.Notif {
			return nil, nil
		}
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "Method not implemented: " + req.Method}
	}
}

// initialize handles the LSP initialize request
func (s *Server) initialize(params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	s.extractRootPath(params)

	cfg, err := config.Load(s.rootPath)
	if err != nil {
		log.Printf("Using default settings: %v", err)
		cfg = config.Default()
	}
	s.cfg = cfg

	cacheDir := ""
	if !cfg.NoCache {
		if cacheDir, err = cfg.ProjectCacheDir(s.rootPath); err != nil {
			log.Printf("Symbol cache disabled: %v", err)
			cacheDir = ""
		}
	}
	analyzer, err := project.NewAnalyzer(cfg, cacheDir)
	if err != nil {
		log.Printf("Symbol cache disabled: %v", err)
		if analyzer, err = project.NewAnalyzer(cfg, ""); err != nil {
			return nil, err
		}
	}

	s.analyzerMu.Lock()
	s.analyzer = analyzer
	s.analyzerMu.Unlock()

	phpFiles := &protocol.FileOperationRegistrationOptions{
		Filters: []protocol.FileOperationFilter{
			{Scheme: "file", Pattern: protocol.FileOperationPattern{Glob: "**/*.php"}},
		},
	}
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncFull,
				Save:      &protocol.SaveOptions{},
			},
			DiagnosticProvider: &protocol.DiagnosticOptions{
				Identifier:            "phpflow",
				InterFileDependencies: true,
			},
			Workspace: &protocol.WorkspaceCapabilities{
				FileOperations: &protocol.FileOperationOptions{
					DidCreate: phpFiles,
					DidRename: phpFiles,
					DidDelete: phpFiles,
				},
			},
		},
		ServerInfo: &protocol.ServerInfo{Name: "phpflow", Version: Version},
	}, nil
}

// extractRootPath extracts the root path from the initialize params
func (s *Server) extractRootPath(params *protocol.InitializeParams) {
	if params.RootPath != "" {
		s.rootPath = params.RootPath
		return
	}

	if params.RootURI != "" {
		s.rootPath = URIToPath(params.RootURI)
		return
	}

	if len(params.WorkspaceFolders) > 0 {
		s.rootPath = URIToPath(params.WorkspaceFolders[0].URI)
		return
	}

	s.rootPath, _ = os.Getwd()
}

func (s *Server) startIndexing() {
	s.indexing.Add(1)
	go func() {
		defer s.indexing.Done()
		if err := s.indexAll(s.indexCtx); err != nil {
			log.Printf("Error indexing: %v", err)
		}
	}()
}

// indexAll collects the symbols of every PHP file below the root and refreshes
// the diagnostics of the open documents afterwards.
func (s *Server) indexAll(ctx context.Context) error {
	analyzer := s.Analyzer()
	if analyzer == nil {
		return errors.New("server is not initialized")
	}
	startTime := time.Now()

	s.notify(ctx, "phpflow/indexingStarted", map[string]any{
		"message": "Indexing started",
	})

	files, err := project.Scan(s.rootPath, s.cfg)
	if err != nil {
		return err
	}
	if err := analyzer.Collect(ctx, files); err != nil {
		if ctx.Err() != nil {
			return err
		}
		log.Printf("Some files could not be indexed: %v", err)
	}
	if err := analyzer.Prune(files); err != nil {
		log.Printf("Failed to prune symbol cache: %v", err)
	}

	s.refresh(ctx)

	s.notify(ctx, "phpflow/indexingCompleted", map[string]any{
		"message":       "Indexing completed",
		"files":         len(files),
		"timeInSeconds": time.Since(startTime).Seconds(),
	})
	return nil
}

// saved feeds the saved content of a document into the symbol table, since other
// documents may depend on what it declares.
func (s *Server) saved(ctx context.Context, uri string) {
	analyzer := s.Analyzer()
	doc, ok := s.documentManager.GetDocument(uri)
	if analyzer == nil || !ok || !project.IsPHPFile(doc.Path) {
		return
	}
	if err := analyzer.Update(doc.Path, doc.Text); err != nil {
		log.Printf("Error indexing %s: %v", doc.Path, err)
	}
	s.refresh(ctx)
}

// filesChanged updates the symbol table for files changed on disk.
func (s *Server) filesChanged(ctx context.Context, changed, removed []string) {
	analyzer := s.Analyzer()
	if analyzer == nil {
		return
	}

	var phpChanged, phpRemoved []string
	for _, path := range changed {
		if project.IsPHPFile(path) {
			phpChanged = append(phpChanged, path)
		}
	}
	for _, path := range removed {
		if project.IsPHPFile(path) {
			phpRemoved = append(phpRemoved, path)
		}
	}
	if len(phpChanged) == 0 && len(phpRemoved) == 0 {
		return
	}

	if err := analyzer.Forget(phpRemoved...); err != nil {
		log.Printf("Error removing old files: %v", err)
	}
	if err := analyzer.Collect(ctx, phpChanged); err != nil {
		log.Printf("Error indexing new files: %v", err)
	}
	s.refresh(ctx)
}

// diagnostics runs every provider over the content. The result is never nil so it
// encodes as an empty list.
func (s *Server) diagnostics(ctx context.Context, path string, content []byte) []protocol.Diagnostic {
	s.providersMu.RLock()
	providers := append([]DiagnosticsProvider(nil), s.diagnosticsProviders...)
	s.providersMu.RUnlock()

	diagnostics := []protocol.Diagnostic{}
	for _, provider := range providers {
		items, err := provider.GetDiagnostics(ctx, path, content)
		if err != nil {
			log.Printf("Error computing diagnostics for %s: %v", path, err)
			continue
		}
		diagnostics = append(diagnostics, items...)
	}
	return diagnostics
}

// documentDiagnostics answers a pull request. Documents that are not open are read
// from disk.
func (s *Server) documentDiagnostics(ctx context.Context, uri string) (*protocol.DocumentDiagnosticReport, error) {
	var path string
	var content []byte
	if doc, ok := s.documentManager.GetDocument(uri); ok {
		path, content = doc.Path, doc.Text
	} else {
		path = URIToPath(uri)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
		}
		content = data
	}
	return &protocol.DocumentDiagnosticReport{
		Kind:  protocol.DocumentDiagnosticReportFull,
		Items: s.diagnostics(ctx, path, content),
	}, nil
}

// publish sends the diagnostics of the current version of an open document.
func (s *Server) publish(ctx context.Context, uri string) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	doc, ok := s.documentManager.GetDocument(uri)
	if !ok {
		return
	}
	s.notify(ctx, "textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         doc.URI,
		Version:     doc.Version,
		Diagnostics: s.diagnostics(ctx, doc.Path, doc.Text),
	})
}

// refresh republishes the diagnostics of all open documents.
func (s *Server) refresh(ctx context.Context) {
	for _, uri := range s.documentManager.URIs() {
		s.publish(ctx, uri)
	}
}

// clear removes the diagnostics of a closed document from the client.
func (s *Server) clear(ctx context.Context, uri string) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	s.notify(ctx, "textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
}

func (s *Server) setConn(conn *jsonrpc2.Conn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.conn = conn
}

func (s *Server) notify(ctx context.Context, method string, params any) {
	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()
	if conn == nil {
		return
	}
	if err := conn.Notify(ctx, method, params); err != nil {
		log.Printf("Error sending %s: %v", method, err)
	}
}

// close stops indexing and releases the symbol store. It is safe to call twice.
func (s *Server) close() {
	s.cancelIndex()
	s.indexing.Wait()

	s.analyzerMu.Lock()
	defer s.analyzerMu.Unlock()
	if s.analyzer != nil {
		if err := s.analyzer.Close(); err != nil {
			log.Printf("Error closing symbol store: %v", err)
		}
		s.analyzer = nil
	}
}
