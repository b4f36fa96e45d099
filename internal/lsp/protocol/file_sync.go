package protocol

// FileOperationRegistrationOptions represents the options for registering file operations
type FileOperationRegistrationOptions struct {
	Filters []FileOperationFilter `json:"filters"`
}

// FileOperationFilter represents a filter for file operations
type FileOperationFilter struct {
	Scheme  string               `json:"scheme,omitempty"`
	Pattern FileOperationPattern `json:"pattern"`
}

// FileOperationPattern represents a pattern for file operations
type FileOperationPattern struct {
	Glob    string `json:"glob"`
	Matches string `json:"matches,omitempty"`
	Options struct {
		IgnoreCase bool `json:"ignoreCase,omitempty"`
	} `json:"options,omitempty"`
}

// FileEvent represents a file event
type FileEvent struct {
	URI  string `json:"uri"`
	Type int    `json:"type"`
}

// FileChangeType represents the type of file change
type FileChangeType int

const (
	// FileCreated represents a file creation event
	FileCreated FileChangeType = 1
	// FileChanged represents a file change event
	FileChanged FileChangeType = 2
	// FileDeleted represents a file deletion event
	FileDeleted FileChangeType = 3
)

// DidChangeWatchedFilesParams represents the parameters for a didChangeWatchedFiles notification
type DidChangeWatchedFilesParams struct {
	Changes []FileEvent `json:"changes"`
}

// FileOperationOptions represents the options for file operations
type FileOperationOptions struct {
	DidCreate *FileOperationRegistrationOptions `json:"didCreate,omitempty"`
	DidRename *FileOperationRegistrationOptions `json:"didRename,omitempty"`
	DidDelete *FileOperationRegistrationOptions `json:"didDelete,omitempty"`
}

// CreateFilesParams represents the parameters for a workspace/didCreateFiles request
type CreateFilesParams struct {
	Files []FileCreate `json:"files"`
}

// FileCreate represents a file creation operation
type FileCreate struct {
	URI string `json:"uri"`
}

// RenameFilesParams represents the parameters for a workspace/didRenameFiles request
type RenameFilesParams struct {
	Files []FileRename `json:"files"`
}

// FileRename represents a file rename operation
type FileRename struct {
	OldURI string `json:"oldUri"`
	NewURI string `json:"newUri"`
}

// DeleteFilesParams represents the parameters for a workspace/didDeleteFiles request
type DeleteFilesParams struct {
	Files []FileDelete `json:"files"`
}

// FileDelete represents a file deletion operation
type FileDelete struct {
	URI string `json:"uri"`
}
