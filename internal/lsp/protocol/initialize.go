package protocol

// InitializeParams represents the parameters for the 'initialize' request
type InitializeParams struct {
	RootPath         string            `json:"rootPath,omitempty"`
	RootURI          string            `json:"rootUri,omitempty"`
	WorkspaceFolders []WorkspaceFolder `json:"workspaceFolders,omitempty"`
}

// WorkspaceFolder represents a workspace folder
type WorkspaceFolder struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// TextDocumentSyncKind defines how the client sends document changes
type TextDocumentSyncKind int

const (
	// TextDocumentSyncNone means documents are not synced
	TextDocumentSyncNone TextDocumentSyncKind = 0
	// TextDocumentSyncFull means the full content is sent on every change
	TextDocumentSyncFull TextDocumentSyncKind = 1
)

// TextDocumentSyncOptions describes the document sync the server wants
type TextDocumentSyncOptions struct {
	OpenClose bool                 `json:"openClose"`
	Change    TextDocumentSyncKind `json:"change"`
	Save      *SaveOptions         `json:"save,omitempty"`
}

// SaveOptions describes the didSave notifications the server wants
type SaveOptions struct {
	IncludeText bool `json:"includeText"`
}

// DiagnosticOptions announces support for textDocument/diagnostic requests
type DiagnosticOptions struct {
	Identifier            string `json:"identifier,omitempty"`
	InterFileDependencies bool   `json:"interFileDependencies"`
	WorkspaceDiagnostics  bool   `json:"workspaceDiagnostics"`
}

// WorkspaceCapabilities holds the workspace part of the server capabilities
type WorkspaceCapabilities struct {
	FileOperations *FileOperationOptions `json:"fileOperations,omitempty"`
}

// ServerCapabilities lists what the server supports
type ServerCapabilities struct {
	TextDocumentSync   TextDocumentSyncOptions `json:"textDocumentSync"`
	DiagnosticProvider *DiagnosticOptions      `json:"diagnosticProvider,omitempty"`
	Workspace          *WorkspaceCapabilities  `json:"workspace,omitempty"`
}

// ServerInfo names the server
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializeResult is the response to the 'initialize' request
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}
