package analysis

import (
	"fmt"
	"slices"
	"sync"

	"github.com/shopware/phpflow/internal/ast"
)

// IssueKind classifies an issue.
type IssueKind uint8

const (
	// MissingCapability marks a construct the analyzer does not understand yet.
	MissingCapability IssueKind = iota
	// MissingCoverage marks constant operands an operator could not fold.
	MissingCoverage
	// InternalError marks a broken internal invariant, such as an unknown operator token.
	InternalError
	UndefinedVariable
	PossiblyUndefinedVariable
	UnusedVariable
	DeclaredTypeMismatch
	ConstantCondition
	InstanceofNonObject
	SyntaxError
	UnknownClass
)

var issueKindNames = [...]string{
	MissingCapability:         "MissingCapability",
	MissingCoverage:           "MissingCoverage",
	InternalError:             "InternalError",
	UndefinedVariable:         "UndefinedVariable",
	PossiblyUndefinedVariable: "PossiblyUndefinedVariable",
	UnusedVariable:            "UnusedVariable",
	DeclaredTypeMismatch:      "DeclaredTypeMismatch",
	ConstantCondition:         "ConstantCondition",
	InstanceofNonObject:       "InstanceofNonObject",
	SyntaxError:               "SyntaxError",
	UnknownClass:              "UnknownClass",
}

func (k IssueKind) String() string {
	if int(k) < len(issueKindNames) {
		return issueKindNames[k]
	}
	return fmt.Sprintf("IssueKind(%d)", k)
}

// ParseIssueKind looks up a kind by its name.
func ParseIssueKind(name string) (IssueKind, bool) {
	for i, n := range issueKindNames {
		if n == name {
			return IssueKind(i), true
		}
	}
	return 0, false
}

// IssueKinds returns every kind in declaration order.
func IssueKinds() []IssueKind {
	kinds := make([]IssueKind, len(issueKindNames))
	for i := range issueKindNames {
		kinds[i] = IssueKind(i)
	}
	return kinds
}

// IsNote reports whether the kind tracks analyzer completeness rather than a
// problem in the analyzed code.
func (k IssueKind) IsNote() bool {
	return k == MissingCapability || k == MissingCoverage
}

// Severity orders issues by importance.
type Severity uint8

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	}
	return "unknown"
}

// DefaultSeverity returns the severity issues of the kind are emitted with.
func (k IssueKind) DefaultSeverity() Severity {
	switch k {
	case SyntaxError, UndefinedVariable, DeclaredTypeMismatch, InternalError:
		return SeverityError
	case PossiblyUndefinedVariable, InstanceofNonObject, UnknownClass:
		return SeverityWarning
	case UnusedVariable, ConstantCondition:
		return SeverityInfo
	}
	return SeverityHint
}

// Issue is one finding of the analysis.
type Issue struct {
	Kind     IssueKind
	Severity Severity
	Range    ast.Range
	Message  string
}

func newIssue(kind IssueKind, r ast.Range, format string, args ...any) Issue {
	return Issue{Kind: kind, Severity: kind.DefaultSeverity(), Range: r, Message: fmt.Sprintf(format, args...)}
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s (%s)", i.Range, i.Severity, i.Message, i.Kind)
}

// Emitter receives issues. The analysis never prints; it only emits.
type Emitter interface {
	Emit(Issue)
}

// EmitterFunc adapts a function to an Emitter.
type EmitterFunc func(Issue)

func (f EmitterFunc) Emit(i Issue) { f(i) }

// Collector is an Emitter that keeps issues in emission order. It is safe for
// concurrent use.
type Collector struct {
	mu     sync.Mutex
	issues []Issue
}

func (c *Collector) Emit(i Issue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issues = append(c.issues, i)
}

// Issues returns a copy of the collected issues.
func (c *Collector) Issues() []Issue {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.issues)
}

// Count returns how many issues of the kind were collected.
func (c *Collector) Count(kind IssueKind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, i := range c.issues {
		if i.Kind == kind {
			n++
		}
	}
	return n
}

// Len returns the number of collected issues.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.issues)
}
