// Package report renders analysis results for people, machines and editors.
package report

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/shopware/phpflow/internal/analysis"
	"github.com/shopware/phpflow/internal/lsp/protocol"
	"github.com/shopware/phpflow/internal/project"
)

// Source is the diagnostic source shown by editors.
const Source = "phpflow"

// Summary counts the issues of a run.
type Summary struct {
	Files  int
	Issues int
	Failed int
	ByKind map[analysis.IssueKind]int
}

// Summarize counts the issues and unreadable files of the reports.
func Summarize(reports []project.FileReport) Summary {
	s := Summary{Files: len(reports), ByKind: make(map[analysis.IssueKind]int)}
	for _, r := range reports {
		if r.Err != nil {
			s.Failed++
		}
		for _, issue := range r.Issues {
			s.Issues++
			s.ByKind[issue.Kind]++
		}
	}
	return s
}

// Relative rewrites the report paths relative to base where possible.
func Relative(base string, reports []project.FileReport) []project.FileReport {
	out := make([]project.FileReport, len(reports))
	for i, r := range reports {
		out[i] = r
		if rel, err := filepath.Rel(base, r.Path); err == nil {
			out[i].Path = rel
		}
	}
	return out
}

func sortedByPath(reports []project.FileReport) []project.FileReport {
	sorted := slices.Clone(reports)
	slices.SortStableFunc(sorted, func(a, b project.FileReport) int {
		return cmp.Compare(a.Path, b.Path)
	})
	return sorted
}

// Text writes one line per issue in the form path:line:col: severity: message (kind),
// followed by a summary line.
func Text(w io.Writer, reports []project.FileReport) error {
	bw := bufio.NewWriter(w)
	for _, r := range sortedByPath(reports) {
		if r.Err != nil {
			fmt.Fprintf(bw, "%s: error: %v\n", r.Path, r.Err)
		}
		for _, issue := range r.Issues {
			fmt.Fprintf(bw, "%s:%s: %s: %s (%s)\n", r.Path, issue.Range, issue.Severity, issue.Message, issue.Kind)
		}
	}

	s := Summarize(reports)
	fmt.Fprintf(bw, "%d issues in %d files", s.Issues, s.Files)
	if s.Failed > 0 {
		fmt.Fprintf(bw, ", %d files could not be analysed", s.Failed)
	}
	fmt.Fprintln(bw)
	return bw.Flush()
}

// JSON renders the reports as an indented JSON document:
//
//	{"files": [{"path", "error", "issues": [...]}], "summary": {"files", "issues", "failed", "byKind"}}
//
// Lines and columns are one-based.
func JSON(reports []project.FileReport) ([]byte, error) {
	doc := []byte(`{"files":[]}`)
	var err error
	for _, r := range sortedByPath(reports) {
		file, ferr := fileJSON(r)
		if ferr != nil {
			return nil, ferr
		}
		if doc, err = sjson.SetRawBytes(doc, "files.-1", file); err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", r.Path, err)
		}
	}

	s := Summarize(reports)
	summary := []byte(`{"byKind":{}}`)
	set := func(path string, value any) {
		if err == nil {
			summary, err = sjson.SetBytes(summary, path, value)
		}
	}
	set("files", s.Files)
	set("issues", s.Issues)
	set("failed", s.Failed)
	for _, kind := range analysis.IssueKinds() {
		if n := s.ByKind[kind]; n > 0 {
			set("byKind."+kind.String(), n)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build summary: %w", err)
	}
	if doc, err = sjson.SetRawBytes(doc, "summary", summary); err != nil {
		return nil, fmt.Errorf("failed to add summary: %w", err)
	}
	return pretty.Pretty(doc), nil
}

func fileJSON(r project.FileReport) ([]byte, error) {
	file := []byte(`{"issues":[]}`)
	var err error
	file, err = sjson.SetBytes(file, "path", r.Path)
	if err == nil && r.Err != nil {
		file, err = sjson.SetBytes(file, "error", r.Err.Error())
	}
	for _, issue := range r.Issues {
		if err != nil {
			break
		}
		var item []byte
		if item, err = issueJSON(issue); err == nil {
			file, err = sjson.SetRawBytes(file, "issues.-1", item)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", r.Path, err)
	}
	return file, nil
}

func issueJSON(issue analysis.Issue) ([]byte, error) {
	item := []byte("{}")
	fields := []struct {
		key   string
		value any
	}{
		{"kind", issue.Kind.String()},
		{"severity", issue.Severity.String()},
		{"line", issue.Range.Start.Line + 1},
		{"column", issue.Range.Start.Column + 1},
		{"endLine", issue.Range.End.Line + 1},
		{"endColumn", issue.Range.End.Column + 1},
		{"message", issue.Message},
	}
	var err error
	for _, f := range fields {
		if item, err = sjson.SetBytes(item, f.key, f.value); err != nil {
			return nil, err
		}
	}
	return item, nil
}

// ToDiagnostics converts issues to LSP diagnostics. LSP positions are zero-based
// like issue ranges.
func ToDiagnostics(issues []analysis.Issue) []protocol.Diagnostic {
	diagnostics := make([]protocol.Diagnostic, 0, len(issues))
	for _, issue := range issues {
		d := protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: issue.Range.Start.Line, Character: issue.Range.Start.Column},
				End:   protocol.Position{Line: issue.Range.End.Line, Character: issue.Range.End.Column},
			},
			Severity: severity(issue.Severity),
			Code:     issue.Kind.String(),
			Source:   Source,
			Message:  issue.Message,
		}
		if issue.Kind == analysis.UnusedVariable {
			d.Tags = []protocol.DiagnosticTag{protocol.DiagnosticTagUnnecessary}
		}
		diagnostics = append(diagnostics, d)
	}
	return diagnostics
}

func severity(s analysis.Severity) protocol.DiagnosticSeverity {
	switch s {
	case analysis.SeverityError:
		return protocol.DiagnosticSeverityError
	case analysis.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case analysis.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	}
	return protocol.DiagnosticSeverityHint
}
