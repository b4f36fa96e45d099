package lsp

import (
	"context"

	"github.com/shopware/phpflow/internal/lsp/protocol"
	"github.com/shopware/phpflow/internal/project"
	"github.com/shopware/phpflow/internal/report"
)

// DiagnosticsProvider is an interface for providing diagnostics for a document
type DiagnosticsProvider interface {
	// GetDiagnostics returns diagnostics for the document at path with the given content
	GetDiagnostics(ctx context.Context, path string, content []byte) ([]protocol.Diagnostic, error)
}

// flowDiagnostics reports the issues found by the flow analysis.
type flowDiagnostics struct {
	server *Server
}

func (p flowDiagnostics) GetDiagnostics(ctx context.Context, path string, content []byte) ([]protocol.Diagnostic, error) {
	analyzer := p.server.Analyzer()
	if analyzer == nil || !project.IsPHPFile(path) {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := analyzer.AnalyzeSource(path, content)
	if result.Err != nil {
		return nil, result.Err
	}
	return report.ToDiagnostics(result.Issues), nil
}
