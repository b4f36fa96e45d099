// Package phpvalue models constant PHP values and their comparison and
// truthiness semantics.
package phpvalue

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopware/phpflow/internal/phptype"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

// Value is a constant PHP value. The zero value is null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
}

// Int creates an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float creates a float value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bool creates a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Null returns the null value.
func Null() Value { return Value{} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IntValue returns the integer payload and whether v is an Int.
func (v Value) IntValue() (int64, bool) { return v.i, v.kind == KindInt }

// FloatValue returns the float payload and whether v is a Float.
func (v Value) FloatValue() (float64, bool) { return v.f, v.kind == KindFloat }

// StringValue returns the string payload and whether v is a String.
func (v Value) StringValue() (string, bool) { return v.s, v.kind == KindString }

// BoolValue returns the boolean payload and whether v is a Bool.
func (v Value) BoolValue() (bool, bool) { return v.b, v.kind == KindBool }

// Type returns the static type of the constant.
func (v Value) Type() phptype.UnionType {
	switch v.kind {
	case KindInt:
		return phptype.Single(phptype.Int)
	case KindFloat:
		return phptype.Single(phptype.Float)
	case KindString:
		return phptype.Single(phptype.String)
	case KindBool:
		return phptype.Single(phptype.Bool)
	default:
		return phptype.Single(phptype.Null)
	}
}

// AsBool converts the value with PHP truthiness rules.
// The second result is false when the value has no boolean coercion.
func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case KindNull:
		return false, true
	case KindBool:
		return v.b, true
	case KindInt:
		return v.i != 0, true
	case KindFloat:
		// NaN is truthy
		return v.f != 0, true
	case KindString:
		return v.s != "" && v.s != "0", true
	}
	return false, false
}

// AsNumber converts the value for arithmetic. Non-numeric strings do not convert.
func (v Value) AsNumber() (Value, bool) {
	switch v.kind {
	case KindInt, KindFloat:
		return v, true
	case KindBool:
		if v.b {
			return Int(1), true
		}
		return Int(0), true
	case KindNull:
		return Int(0), true
	case KindString:
		return parseNumeric(v.s)
	}
	return Value{}, false
}

// AsString converts the value the way string concatenation does.
// Floats are not converted because their rendering depends on runtime precision settings.
func (v Value) AsString() (string, bool) {
	switch v.kind {
	case KindString:
		return v.s, true
	case KindInt:
		return strconv.FormatInt(v.i, 10), true
	case KindBool:
		if v.b {
			return "1", true
		}
		return "", true
	case KindNull:
		return "", true
	}
	return "", false
}

// IdenticalTo implements ===.
func (v Value) IdenticalTo(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindBool:
		return v.b == other.b
	}
	return true
}

// EqualTo implements PHP 8 loose equality (==).
// The second result is false when equality is not defined for the pair.
func (v Value) EqualTo(other Value) (bool, bool) {
	a, b := v, other

	// null compared with a string converts null to "".
	if a.kind == KindNull && b.kind == KindString {
		return b.s == "", true
	}
	if b.kind == KindNull && a.kind == KindString {
		return a.s == "", true
	}

	// bool or null on either side compares truthiness.
	if a.kind == KindBool || a.kind == KindNull || b.kind == KindBool || b.kind == KindNull {
		ab, okA := a.AsBool()
		bb, okB := b.AsBool()
		if !okA || !okB {
			return false, false
		}
		return ab == bb, true
	}

	switch {
	case a.kind == KindString && b.kind == KindString:
		na, okA := parseNumeric(a.s)
		nb, okB := parseNumeric(b.s)
		if okA && okB {
			return numericEqual(na, nb), true
		}
		return a.s == b.s, true
	case a.kind == KindString:
		return stringNumberEqual(a.s, b)
	case b.kind == KindString:
		return stringNumberEqual(b.s, a)
	default:
		return numericEqual(a, b), true
	}
}

func stringNumberEqual(s string, n Value) (bool, bool) {
	if parsed, ok := parseNumeric(s); ok {
		return numericEqual(parsed, n), true
	}
	// A non-numeric string compares with the number cast to string.
	rendered, ok := n.AsString()
	if !ok {
		return false, false
	}
	return rendered == s, true
}

// Compare orders two numeric values. Both must be Int or Float.
func Compare(a, b Value) (int, bool) {
	switch {
	case a.kind == KindInt && b.kind == KindInt:
		switch {
		case a.i < b.i:
			return -1, true
		case a.i > b.i:
			return 1, true
		}
		return 0, true
	case (a.kind == KindInt || a.kind == KindFloat) && (b.kind == KindInt || b.kind == KindFloat):
		fa, fb := a.toFloat(), b.toFloat()
		if math.IsNaN(fa) || math.IsNaN(fb) {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func numericEqual(a, b Value) bool {
	if a.kind == KindInt && b.kind == KindInt {
		return a.i == b.i
	}
	return a.toFloat() == b.toFloat()
}

func (v Value) toFloat() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// parseNumeric accepts PHP numeric strings: optional surrounding whitespace,
// integer or float notation.
func parseNumeric(s string) (Value, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Value{}, false
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return Int(i), true
	}
	if strings.ContainsAny(trimmed, "xXpP_") {
		return Value{}, false
	}
	lower := strings.ToLower(trimmed)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") {
		return Value{}, false
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return Float(f), true
	}
	return Value{}, false
}

// String renders the value as PHP source.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		s := strconv.FormatFloat(v.f, 'G', -1, 64)
		if !strings.ContainsAny(s, ".EN") {
			s += ".0"
		}
		return s
	case KindString:
		return strconv.Quote(v.s)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	}
	return "null"
}
