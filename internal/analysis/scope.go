package analysis

import (
	"slices"
	"strings"

	"github.com/shopware/phpflow/internal/ast"
)

// Scope owns the variables of one lexical or branch context. Branches work on a
// value snapshot and are folded back with Merge, so scopes never alias.
type Scope struct {
	vars map[string]*VarData
	// terminated is set once every path through the scope has returned or thrown.
	terminated bool
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{vars: make(map[string]*VarData)}
}

// Lookup returns the record of the variable, if it was ever seen.
func (s *Scope) Lookup(name string) (*VarData, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Var returns the record of the variable, creating an unbound one on first sight.
func (s *Scope) Var(name string) *VarData {
	if v, ok := s.vars[name]; ok {
		return v
	}
	v := NewVarData(name)
	s.vars[name] = v
	return v
}

// Delete forgets the variable, as unset() does.
func (s *Scope) Delete(name string) {
	delete(s.vars, name)
}

// Names returns the variable names in sorted order.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	slices.SortFunc(names, strings.Compare)
	return names
}

// Terminated reports whether control never leaves the scope normally.
func (s *Scope) Terminated() bool { return s.terminated }

// Terminate marks the rest of the scope as unreachable.
func (s *Scope) Terminate() { s.terminated = true }

// Branch returns a snapshot for analysing one arm of a construct.
func (s *Scope) Branch() *Scope {
	b := &Scope{vars: make(map[string]*VarData, len(s.vars)), terminated: s.terminated}
	for name, v := range s.vars {
		b.vars[name] = v.Clone()
	}
	return b
}

// Merge folds the arms of a construct back into s. Arms that returned or threw do not
// reach the code after the construct and are left out; if none is left, s terminates.
// Callers pass s.Branch() as an extra arm when the construct may run none of its arms.
func (s *Scope) Merge(branches ...*Scope) {
	var reaching, ended []*Scope
	for _, b := range branches {
		if b.terminated {
			ended = append(ended, b)
		} else {
			reaching = append(reaching, b)
		}
	}
	// reads in arms that did not reach the end still count for usage diagnostics
	reads := s.readsIn(ended)

	if len(reaching) == 0 {
		if len(branches) > 0 {
			s.terminated = true
		}
	} else {
		names := make(map[string]bool, len(s.vars))
		for name := range s.vars {
			names[name] = true
		}
		for _, b := range reaching {
			for name := range b.vars {
				names[name] = true
			}
		}

		merged := make(map[string]*VarData, len(names))
		for name := range names {
			arms := make([]*VarData, len(reaching))
			for i, b := range reaching {
				arms[i] = b.vars[name]
			}
			if v := BranchMerge(s.vars[name], arms); v != nil {
				merged[name] = v
			}
		}
		s.vars = merged
	}

	for name, refs := range reads {
		if v, ok := s.vars[name]; ok {
			v.Reads += len(refs)
			v.Refs = append(v.Refs, refs...)
		}
	}
}

// readsIn collects the reads the arms added to variables of s.
func (s *Scope) readsIn(arms []*Scope) map[string][]ast.Range {
	reads := make(map[string][]ast.Range)
	for _, b := range arms {
		for name, bv := range b.vars {
			v, ok := s.vars[name]
			if !ok || !extends(bv, v) {
				continue
			}
			reads[name] = append(reads[name], bv.Refs[len(v.Refs):]...)
		}
	}
	return reads
}

// Absorb adds the reads made in a nested snapshot, such as the body of an arrow
// function, without merging its writes.
func (s *Scope) Absorb(nested *Scope) {
	for name, refs := range s.readsIn([]*Scope{nested}) {
		v := s.vars[name]
		v.Reads += len(refs)
		v.Refs = append(v.Refs, refs...)
	}
}
