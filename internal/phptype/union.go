package phptype

import (
	"cmp"
	"slices"
	"strings"
)

// UnionType is a canonical, deduplicated set of DiscreteType values.
// The zero value is the empty union, which stands for "nothing known".
type UnionType struct {
	members []DiscreteType
}

// Of builds the canonical union of the given members.
func Of(types ...DiscreteType) UnionType {
	members := make([]DiscreteType, 0, len(types))
	for _, t := range types {
		if t == nil {
			continue
		}
		members = append(members, t)
	}
	return canonicalize(members)
}

// Single returns the union holding one scalar kind.
func Single(kind ScalarKind) UnionType {
	return Of(Scalar{Kind: kind})
}

// MixedType is the union of everything.
func MixedType() UnionType {
	return Single(Mixed)
}

// Flatten merges every member of every input into one canonical union.
// It is commutative, associative and idempotent.
func Flatten(inputs ...UnionType) UnionType {
	var members []DiscreteType
	for _, u := range inputs {
		members = append(members, u.members...)
	}
	return canonicalize(members)
}

func compareTypes(a, b DiscreteType) int {
	if c := cmp.Compare(a.rank(), b.rank()); c != 0 {
		return c
	}
	return strings.Compare(a.key(), b.key())
}

func canonicalize(members []DiscreteType) UnionType {
	if len(members) == 0 {
		return UnionType{}
	}
	sorted := slices.Clone(members)
	for i, m := range sorted {
		if s, ok := m.(Scalar); ok {
			sorted[i] = s.withNullable(s.Nullable)
		}
	}
	// spellings of the same class sort by their text so the kept one is stable
	slices.SortFunc(sorted, func(a, b DiscreteType) int {
		if c := compareTypes(a, b); c != 0 {
			return c
		}
		return strings.Compare(a.String(), b.String())
	})
	sorted = slices.CompactFunc(sorted, func(a, b DiscreteType) bool {
		return compareTypes(a, b) == 0
	})
	return UnionType{members: slices.Clip(sorted)}
}

func sortShapeEntries(entries []ShapeEntry) {
	slices.SortStableFunc(entries, func(a, b ShapeEntry) int {
		if a.Key.IsIndex != b.Key.IsIndex {
			if a.Key.IsIndex {
				return -1
			}
			return 1
		}
		if a.Key.IsIndex {
			return cmp.Compare(a.Key.Index, b.Key.Index)
		}
		return strings.Compare(a.Key.Name, b.Key.Name)
	})
}

// Members returns the canonical members. The slice must not be modified.
func (u UnionType) Members() []DiscreteType {
	return u.members
}

// Len returns the number of distinct members.
func (u UnionType) Len() int {
	return len(u.members)
}

// IsEmpty reports whether nothing is known about the type.
func (u UnionType) IsEmpty() bool {
	return len(u.members) == 0
}

// Equal compares two unions canonically.
func (u UnionType) Equal(other UnionType) bool {
	return slices.EqualFunc(u.members, other.members, func(a, b DiscreteType) bool {
		return compareTypes(a, b) == 0
	})
}

// String joins the members with "|". The empty union renders as "unknown".
func (u UnionType) String() string {
	if u.IsEmpty() {
		return "unknown"
	}
	names := make([]string, len(u.members))
	for i, m := range u.members {
		names[i] = m.String()
	}
	return strings.Join(names, "|")
}

// Has reports whether the union contains the scalar kind, nullable or not.
func (u UnionType) Has(kind ScalarKind) bool {
	for _, m := range u.members {
		if s, ok := m.(Scalar); ok && s.Kind == kind {
			return true
		}
	}
	return false
}

// Is reports whether the union is exactly one non-nullable scalar kind.
func (u UnionType) Is(kind ScalarKind) bool {
	if len(u.members) != 1 {
		return false
	}
	s, ok := u.members[0].(Scalar)
	return ok && s.Kind == kind && !s.Nullable
}

// IsNullable reports whether null is a possible value.
func (u UnionType) IsNullable() bool {
	for _, m := range u.members {
		if m.IsNullable() {
			return true
		}
	}
	return false
}

// MayBeObject reports whether any member can hold an object.
func (u UnionType) MayBeObject() bool {
	for _, m := range u.members {
		switch t := m.(type) {
		case ClassRef, Signature:
			return true
		case Scalar:
			switch t.Kind {
			case Mixed, Object, Self, Static, Parent, Iterable, Callable:
				return true
			}
		}
	}
	return false
}

// Filter keeps the members for which keep returns true.
func (u UnionType) Filter(keep func(DiscreteType) bool) UnionType {
	var members []DiscreteType
	for _, m := range u.members {
		if keep(m) {
			members = append(members, m)
		}
	}
	return canonicalize(members)
}

// Map rewrites every member.
func (u UnionType) Map(fn func(DiscreteType) DiscreteType) UnionType {
	members := make([]DiscreteType, 0, len(u.members))
	for _, m := range u.members {
		members = append(members, fn(m))
	}
	return canonicalize(members)
}

// WithoutNull removes null and clears every nullable flag.
func (u UnionType) WithoutNull() UnionType {
	var members []DiscreteType
	for _, m := range u.members {
		if s, ok := m.(Scalar); ok && s.Kind == Null {
			continue
		}
		members = append(members, m.withNullable(false))
	}
	return canonicalize(members)
}

// OnlyNull returns null if the union admits it, else the empty union.
func (u UnionType) OnlyNull() UnionType {
	if u.IsNullable() {
		return Single(Null)
	}
	return UnionType{}
}

// Nullable returns the union with null added.
func (u UnionType) Nullable() UnionType {
	if u.IsNullable() {
		return u
	}
	return Flatten(u, Single(Null))
}

// Resolve rewrites bare and relative class references into fully qualified ones.
func (u UnionType) Resolve(resolve func(written string) string) UnionType {
	if resolve == nil {
		return u
	}
	return u.Map(func(m DiscreteType) DiscreteType {
		return resolveMember(m, resolve)
	})
}

func resolveMember(m DiscreteType, resolve func(string) string) DiscreteType {
	switch t := m.(type) {
	case ClassRef:
		if t.Form != FullyQualified {
			t.Name = strings.TrimPrefix(resolve(t.Name), "\\")
			t.Form = FullyQualified
		}
		generics := make([]UnionType, len(t.Generics))
		for i, g := range t.Generics {
			generics[i] = g.Resolve(resolve)
		}
		if len(generics) > 0 {
			t.Generics = generics
		}
		return t
	case Shape:
		entries := make([]ShapeEntry, len(t.Entries))
		for i, e := range t.Entries {
			e.Type = e.Type.Resolve(resolve)
			entries[i] = e
		}
		t.Entries = entries
		return t
	case Signature:
		args := make([]UnionType, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.Resolve(resolve)
		}
		t.Args = args
		if t.Return != nil {
			r := t.Return.Resolve(resolve)
			t.Return = &r
		}
		return t
	default:
		return m
	}
}
