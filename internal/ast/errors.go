package ast

import "fmt"

// KindError reports a concrete syntax node that does not have the shape the
// typed tree needs, including tree-sitter ERROR and MISSING nodes.
type KindError struct {
	Range    Range
	Expected string
	Actual   string
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Range, e.Expected, e.Actual)
}
