package analysis

import (
	"slices"

	"github.com/shopware/phpflow/internal/ast"
	"github.com/shopware/phpflow/internal/phptype"
	"github.com/shopware/phpflow/internal/phpvalue"
)

// Write is one assignment to a variable. Writes are immutable and compared by identity.
type Write struct {
	Type  phptype.UnionType
	Value phpvalue.Value
	// Known is set when Value holds a constant.
	Known bool
	Range ast.Range
	// narrowed marks a refinement from a branch condition rather than an assignment.
	narrowed bool
}

// VarData is the flow record of one variable in one scope.
type VarData struct {
	Name string

	declared phptype.UnionType
	comment  phptype.UnionType
	// Default is the constant default value of a parameter or static variable.
	Default      phpvalue.Value
	DefaultKnown bool

	history []*Write
	live    []*Write

	Writes int
	Reads  int
	Refs   []ast.Range

	IsArgument bool
	// IsPartial is set when some control-flow path left the variable unwritten.
	IsPartial bool
	// Imported marks bindings whose value comes from outside the scope: global,
	// static, closure use and by-reference bindings.
	Imported bool

	reported bool
}

// NewVarData creates the record of an unbound variable.
func NewVarData(name string) *VarData {
	return &VarData{Name: name}
}

// SingleWriteTo records a straight-line assignment: the write is appended to the
// history and becomes the only live write.
func (v *VarData) SingleWriteTo(t phptype.UnionType, value phpvalue.Value, known bool, r ast.Range) *Write {
	w := &Write{Type: t, Value: value, Known: known, Range: r}
	v.history = append(v.history, w)
	v.live = []*Write{w}
	v.Writes++
	v.IsPartial = false
	v.reported = false
	return w
}

// Bind records the type a variable enters its scope with: a parameter, a global, a
// static or an imported closure variable. It is not counted as a write.
func (v *VarData) Bind(t phptype.UnionType, value phpvalue.Value, known bool, r ast.Range) {
	w := &Write{Type: t, Value: value, Known: known, Range: r}
	v.history = append(v.history, w)
	v.live = []*Write{w}
	v.IsPartial = false
}

// Widen forgets the constant value of the live writes while keeping their types.
// Loops widen the variables their body changes before analysing it.
func (v *VarData) Widen() {
	if _, ok := v.LiveValue(); !ok || len(v.live) == 0 {
		return
	}
	w := &Write{Type: v.LiveType(), Range: v.live[len(v.live)-1].Range, narrowed: true}
	v.history = append(v.history, w)
	v.live = []*Write{w}
}

// FirstWrite returns the range of the first assignment, skipping refinements.
func (v *VarData) FirstWrite() (ast.Range, bool) {
	for _, w := range v.history {
		if !w.narrowed {
			return w.Range, true
		}
	}
	return ast.Range{}, false
}

// Narrow replaces the live writes with one refinement of their type. It does not
// count as a write.
func (v *VarData) Narrow(t phptype.UnionType) {
	w := &Write{Type: t, narrowed: true}
	if value, ok := v.LiveValue(); ok {
		w.Value, w.Known = value, true
	}
	if len(v.live) > 0 {
		w.Range = v.live[len(v.live)-1].Range
	}
	v.history = append(v.history, w)
	v.live = []*Write{w}
}

// Define narrows the variable to t on a path where it is known to be set, binding it
// if no write reached this point. An empty t leaves the type unknown.
func (v *VarData) Define(t phptype.UnionType) {
	v.Narrow(t)
	v.IsPartial = false
}

// ReadFrom records a read of the variable at r.
func (v *VarData) ReadFrom(r ast.Range) {
	v.Reads++
	v.Refs = append(v.Refs, r)
}

// SetDeclaredType records the PHP-declared type of a parameter.
func (v *VarData) SetDeclaredType(t phptype.UnionType) { v.declared = t }

// SetCommentType records a doc-comment type.
func (v *VarData) SetCommentType(t phptype.UnionType) { v.comment = t }

// DeclaredType returns the PHP-declared type only.
func (v *VarData) DeclaredType() phptype.UnionType { return v.declared }

// CommentType returns the doc-comment type only.
func (v *VarData) CommentType() phptype.UnionType { return v.comment }

// InferredType flattens the types of every write ever made, live or not.
func (v *VarData) InferredType() phptype.UnionType {
	types := make([]phptype.UnionType, 0, len(v.history))
	for _, w := range v.history {
		types = append(types, w.Type)
	}
	return phptype.Flatten(types...)
}

// BestType picks the declared type, else the comment type, else the inferred type.
func (v *VarData) BestType() phptype.UnionType {
	switch {
	case !v.declared.IsEmpty():
		return v.declared
	case !v.comment.IsEmpty():
		return v.comment
	}
	return v.InferredType()
}

// LiveType flattens the types of the writes reachable at the current program point.
// An empty result means nothing is known.
func (v *VarData) LiveType() phptype.UnionType {
	types := make([]phptype.UnionType, 0, len(v.live))
	for _, w := range v.live {
		if w.Type.IsEmpty() {
			return phptype.UnionType{}
		}
		types = append(types, w.Type)
	}
	return phptype.Flatten(types...)
}

// LiveValue returns the constant shared by every live write, if there is one.
func (v *VarData) LiveValue() (phpvalue.Value, bool) {
	if len(v.live) == 0 || v.IsPartial {
		return phpvalue.Value{}, false
	}
	first := v.live[0]
	if !first.Known {
		return phpvalue.Value{}, false
	}
	for _, w := range v.live[1:] {
		if !w.Known || !w.Value.IdenticalTo(first.Value) {
			return phpvalue.Value{}, false
		}
	}
	return first.Value, true
}

// Live returns the live writes. The slice must not be modified.
func (v *VarData) Live() []*Write { return v.live }

// History returns every write in order. The slice must not be modified.
func (v *VarData) History() []*Write { return v.history }

// IsBound reports whether the variable is written on at least one path.
func (v *VarData) IsBound() bool {
	return len(v.live) > 0 || v.IsArgument || v.Imported
}

// Clone copies the record. Writes are shared because they are immutable.
func (v *VarData) Clone() *VarData {
	c := *v
	c.history = slices.Clone(v.history)
	c.live = slices.Clone(v.live)
	c.Refs = slices.Clone(v.Refs)
	return &c
}

// BranchMerge joins the records one variable has in every arm of a construct.
// base is the record before the construct, nil if the variable did not exist yet;
// a nil branch means the arm never bound it. The live set of the result is the union
// of the live sets of all arms, and the result is partial if any arm left it unwritten.
func BranchMerge(base *VarData, branches []*VarData) *VarData {
	var merged *VarData
	if base != nil {
		merged = base.Clone()
	} else {
		for _, b := range branches {
			if b != nil {
				merged = NewVarData(b.Name)
				break
			}
		}
		if merged == nil {
			return nil
		}
	}
	if len(branches) == 0 {
		return merged
	}

	merged.live = nil
	merged.IsPartial = false
	for _, b := range branches {
		if b == nil {
			merged.IsPartial = true
			continue
		}
		if len(b.live) == 0 || b.IsPartial {
			merged.IsPartial = true
		}
		for _, w := range b.live {
			if !slices.Contains(merged.live, w) {
				merged.live = append(merged.live, w)
			}
		}

		// an arm that unset and rebound the variable no longer extends the base record
		if base != nil && extends(b, base) {
			merged.history = append(merged.history, b.history[len(base.history):]...)
			merged.Refs = append(merged.Refs, b.Refs[len(base.Refs):]...)
			merged.Writes += b.Writes - base.Writes
			merged.Reads += b.Reads - base.Reads
		} else {
			merged.history = append(merged.history, b.history...)
			merged.Refs = append(merged.Refs, b.Refs...)
			merged.Writes += b.Writes
			merged.Reads += b.Reads
		}

		merged.IsArgument = merged.IsArgument || b.IsArgument
		merged.Imported = merged.Imported || b.Imported
		merged.reported = merged.reported || b.reported
		if merged.declared.IsEmpty() {
			merged.declared = b.declared
		}
		if merged.comment.IsEmpty() {
			merged.comment = b.comment
		}
		if !merged.DefaultKnown && b.DefaultKnown {
			merged.Default, merged.DefaultKnown = b.Default, true
		}
	}
	if len(merged.live) == 0 {
		// unbound on every path: undefined rather than partially defined
		merged.IsPartial = false
	}
	return merged
}

// extends reports whether b started as a copy of base.
func extends(b, base *VarData) bool {
	n := len(base.history)
	if len(b.history) < n || len(b.Refs) < len(base.Refs) {
		return false
	}
	return n == 0 || b.history[n-1] == base.history[n-1]
}
