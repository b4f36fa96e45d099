package phptype

import "strings"

// SubtypeFunc reports whether class child extends or implements class parent.
// Both names are fully qualified without a leading separator.
type SubtypeFunc func(child, parent string) bool

// Accepts reports whether a value of type actual may be stored where declared is expected.
// It is deliberately optimistic: the result is false only if no member of actual is
// accepted by any member of declared. Empty unions carry no information and are accepted.
func Accepts(declared, actual UnionType, isSubtype SubtypeFunc) bool {
	if declared.IsEmpty() || actual.IsEmpty() {
		return true
	}
	for _, a := range actual.members {
		for _, d := range declared.members {
			if acceptsMember(d, a, isSubtype) {
				return true
			}
		}
	}
	return false
}

func acceptsMember(declared, actual DiscreteType, isSubtype SubtypeFunc) bool {
	if s, ok := declared.(Scalar); ok && s.Kind == Mixed {
		return true
	}
	if s, ok := actual.(Scalar); ok {
		switch s.Kind {
		case Mixed, Never:
			return true
		case Null:
			return declared.IsNullable() || isScalar(declared, Null, Void)
		}
		if s.Nullable && declared.IsNullable() {
			return true
		}
	}

	switch d := declared.(type) {
	case Scalar:
		return scalarAccepts(d, actual)
	case Shape:
		return isScalar(actual, Array) || isShape(actual)
	case Signature:
		switch a := actual.(type) {
		case Signature:
			return true
		case Scalar:
			return a.Kind == Callable || a.Kind == String || a.Kind == Array
		case ClassRef:
			return strings.EqualFold(a.Name, "Closure")
		}
		return false
	case ClassRef:
		switch a := actual.(type) {
		case ClassRef:
			if strings.EqualFold(d.Name, a.Name) {
				return true
			}
			return isSubtype != nil && isSubtype(a.Name, d.Name)
		case Scalar:
			switch a.Kind {
			case Object, Self, Static, Parent:
				return true
			case Array, Iterable:
				return isIterableClass(d.Name)
			case Callable:
				return strings.EqualFold(d.Name, "Closure")
			}
		case Signature:
			return strings.EqualFold(d.Name, "Closure")
		case Shape:
			return isIterableClass(d.Name)
		}
		return false
	}
	return false
}

func scalarAccepts(d Scalar, actual DiscreteType) bool {
	switch a := actual.(type) {
	case Scalar:
		if a.Kind == d.Kind {
			return true
		}
		switch d.Kind {
		case Float:
			// int is implicitly widened to float, never the other way around
			return a.Kind == Int
		case Bool:
			return a.Kind == True || a.Kind == False
		case Iterable:
			return a.Kind == Array
		case Callable:
			return a.Kind == String || a.Kind == Array
		case Object:
			return a.Kind == Self || a.Kind == Static || a.Kind == Parent
		case Self, Static, Parent:
			return a.Kind == Object || a.Kind == Self || a.Kind == Static || a.Kind == Parent
		case Void:
			return a.Kind == Null
		}
		return false
	case Shape:
		return d.Kind == Array || d.Kind == Iterable
	case Signature:
		return d.Kind == Callable || d.Kind == Object
	case ClassRef:
		switch d.Kind {
		case Object, Self, Static, Parent:
			return true
		case Iterable:
			return isIterableClass(a.Name)
		case Callable:
			return strings.EqualFold(a.Name, "Closure")
		}
	}
	return false
}

func isScalar(t DiscreteType, kinds ...ScalarKind) bool {
	s, ok := t.(Scalar)
	if !ok {
		return false
	}
	for _, k := range kinds {
		if s.Kind == k {
			return true
		}
	}
	return false
}

func isShape(t DiscreteType) bool {
	_, ok := t.(Shape)
	return ok
}

func isIterableClass(name string) bool {
	switch strings.ToLower(strings.TrimPrefix(name, "\\")) {
	case "traversable", "iterator", "iteratoraggregate", "generator", "arrayaccess", "arrayobject":
		return true
	}
	return false
}
