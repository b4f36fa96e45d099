// Package phptype implements the PHP static type algebra: discrete type kinds and
// canonical, deduplicated unions of them.
package phptype

import (
	"strconv"
	"strings"
)

// DiscreteType is one concrete PHP static type kind.
// The set of implementations is closed: Scalar, Shape, Signature and ClassRef.
type DiscreteType interface {
	// String renders the type the way it would be written in PHP or a doc comment.
	String() string
	// IsNullable reports whether null is an accepted value of this member.
	IsNullable() bool

	rank() int
	key() string
	withNullable(nullable bool) DiscreteType
}

// ScalarKind names the keyword types of PHP.
type ScalarKind uint8

const (
	Mixed ScalarKind = iota
	Int
	Float
	String
	Bool
	True
	False
	Null
	Void
	Never
	Array
	Iterable
	Object
	Callable
	Resource
	Self
	Static
	Parent
)

var scalarNames = [...]string{
	Mixed:    "mixed",
	Int:      "int",
	Float:    "float",
	String:   "string",
	Bool:     "bool",
	True:     "true",
	False:    "false",
	Null:     "null",
	Void:     "void",
	Never:    "never",
	Array:    "array",
	Iterable: "iterable",
	Object:   "object",
	Callable: "callable",
	Resource: "resource",
	Self:     "self",
	Static:   "static",
	Parent:   "parent",
}

func (k ScalarKind) String() string {
	if int(k) < len(scalarNames) {
		return scalarNames[k]
	}
	return "ScalarKind(" + strconv.Itoa(int(k)) + ")"
}

// nullableKinds can carry an independent nullable flag; the others already include
// null or can never hold a value.
func (k ScalarKind) canBeNullable() bool {
	switch k {
	case Mixed, Null, Void, Never:
		return false
	default:
		return true
	}
}

// Scalar is a keyword type such as int, string or iterable.
type Scalar struct {
	Kind     ScalarKind
	Nullable bool
}

func (s Scalar) String() string {
	if s.Nullable {
		return "?" + s.Kind.String()
	}
	return s.Kind.String()
}

func (s Scalar) IsNullable() bool { return s.Nullable || s.Kind == Null || s.Kind == Mixed }

func (s Scalar) rank() int   { return 0 }
func (s Scalar) key() string { return s.String() }

func (s Scalar) withNullable(nullable bool) DiscreteType {
	s.Nullable = nullable && s.Kind.canBeNullable()
	return s
}

// ShapeKey is the key of an array shape entry: a string or an integer.
type ShapeKey struct {
	Name    string
	Index   int64
	IsIndex bool
}

// StringKey creates a string shape key.
func StringKey(name string) ShapeKey { return ShapeKey{Name: name} }

// IndexKey creates an integer shape key.
func IndexKey(index int64) ShapeKey { return ShapeKey{Index: index, IsIndex: true} }

func (k ShapeKey) String() string {
	if k.IsIndex {
		return strconv.FormatInt(k.Index, 10)
	}
	return k.Name
}

// ShapeEntry is one typed key of an array shape.
type ShapeEntry struct {
	Key      ShapeKey
	Type     UnionType
	Optional bool
}

// Shape is a typed array literal: array{id: int, 0: string}.
type Shape struct {
	Entries  []ShapeEntry
	Nullable bool
}

func (s Shape) String() string {
	var b strings.Builder
	if s.Nullable {
		b.WriteByte('?')
	}
	b.WriteString("array{")
	for i, e := range s.sortedEntries() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.Key.String())
		if e.Optional {
			b.WriteByte('?')
		}
		b.WriteString(": ")
		b.WriteString(e.Type.String())
	}
	b.WriteByte('}')
	return b.String()
}

// Lookup returns the type stored under key.
func (s Shape) Lookup(key ShapeKey) (UnionType, bool) {
	for _, e := range s.Entries {
		if e.Key == key {
			return e.Type, true
		}
	}
	return UnionType{}, false
}

func (s Shape) sortedEntries() []ShapeEntry {
	entries := make([]ShapeEntry, len(s.Entries))
	copy(entries, s.Entries)
	sortShapeEntries(entries)
	return entries
}

func (s Shape) IsNullable() bool { return s.Nullable }
func (s Shape) rank() int        { return 1 }
func (s Shape) key() string      { return s.String() }

func (s Shape) withNullable(nullable bool) DiscreteType {
	s.Nullable = nullable
	return s
}

// Signature is a callable with known argument and return types.
type Signature struct {
	Args     []UnionType
	Return   *UnionType
	Nullable bool
}

func (s Signature) String() string {
	var b strings.Builder
	if s.Nullable {
		b.WriteByte('?')
	}
	b.WriteString("callable(")
	for i, a := range s.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	if s.Return != nil {
		b.WriteString(": ")
		b.WriteString(s.Return.String())
	}
	return b.String()
}

func (s Signature) IsNullable() bool { return s.Nullable }
func (s Signature) rank() int        { return 2 }
func (s Signature) key() string      { return s.String() }

func (s Signature) withNullable(nullable bool) DiscreteType {
	s.Nullable = nullable
	return s
}

// NameForm tells how a class name was written.
type NameForm uint8

const (
	// Bare is a single unqualified identifier: Foo.
	Bare NameForm = iota
	// FullyQualified starts with a namespace separator: \Foo\Bar.
	FullyQualified
	// Relative is qualified but not rooted: Sub\Foo.
	Relative
)

// ClassRef is a reference to a class or interface, optionally parameterised by
// generic arguments from doc comments.
type ClassRef struct {
	Name     string
	Form     NameForm
	Generics []UnionType
	Nullable bool
}

// NewClassRef builds a ClassRef and derives its form from the written name.
func NewClassRef(written string) ClassRef {
	switch {
	case strings.HasPrefix(written, "\\"):
		return ClassRef{Name: strings.TrimPrefix(written, "\\"), Form: FullyQualified}
	case strings.Contains(written, "\\"):
		return ClassRef{Name: written, Form: Relative}
	default:
		return ClassRef{Name: written, Form: Bare}
	}
}

func (c ClassRef) String() string {
	var b strings.Builder
	if c.Nullable {
		b.WriteByte('?')
	}
	if c.Form == FullyQualified {
		b.WriteByte('\\')
	}
	b.WriteString(c.Name)
	if len(c.Generics) > 0 {
		b.WriteByte('<')
		for i, g := range c.Generics {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(g.String())
		}
		b.WriteByte('>')
	}
	return b.String()
}

func (c ClassRef) IsNullable() bool { return c.Nullable }
func (c ClassRef) rank() int        { return 3 }

// key lower-cases the name: PHP class names are case-insensitive.
func (c ClassRef) key() string { return strings.ToLower(c.String()) }

func (c ClassRef) withNullable(nullable bool) DiscreteType {
	c.Nullable = nullable
	return c
}

// SameClass reports whether both refs name the same class, ignoring generics and nullability.
func (c ClassRef) SameClass(other ClassRef) bool {
	return c.Form == other.Form && strings.EqualFold(c.Name, other.Name)
}
