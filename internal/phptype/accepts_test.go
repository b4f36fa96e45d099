package phptype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccepts(t *testing.T) {
	testCases := []struct {
		name     string
		declared string
		actual   string
		expected bool
	}{
		{name: "same scalar", declared: "int", actual: "int", expected: true},
		{name: "int widens to float", declared: "float", actual: "int", expected: true},
		{name: "float does not narrow to int", declared: "int", actual: "float", expected: false},
		{name: "null into nullable", declared: "?string", actual: "null", expected: true},
		{name: "null into non-nullable", declared: "string", actual: "null", expected: false},
		{name: "mixed accepts all", declared: "mixed", actual: "Foo", expected: true},
		{name: "bool accepts true", declared: "bool", actual: "true", expected: true},
		{name: "iterable accepts array", declared: "iterable", actual: "array", expected: true},
		{name: "array accepts shape", declared: "array", actual: "array{id: int}", expected: true},
		{name: "class names ignore case", declared: "\\App\\Foo", actual: "\\app\\foo", expected: true},
		{name: "unrelated classes", declared: "\\App\\Foo", actual: "\\App\\Bar", expected: false},
		{name: "object accepts class", declared: "object", actual: "\\App\\Bar", expected: true},
		{name: "overlap is enough", declared: "int", actual: "int|string", expected: true},
		{name: "string into int", declared: "int", actual: "string", expected: false},
		{name: "closure is callable", declared: "callable", actual: "Closure", expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Accepts(MustParse(tc.declared), MustParse(tc.actual), nil))
		})
	}
}

func TestAcceptsWithSubtypes(t *testing.T) {
	isSubtype := func(child, parent string) bool {
		return child == "App\\Child" && parent == "App\\Base"
	}
	assert.True(t, Accepts(MustParse("\\App\\Base"), MustParse("\\App\\Child"), isSubtype))
	assert.False(t, Accepts(MustParse("\\App\\Child"), MustParse("\\App\\Base"), isSubtype))
}

func TestAcceptsUnknown(t *testing.T) {
	assert.True(t, Accepts(UnionType{}, Single(Int), nil))
	assert.True(t, Accepts(Single(Int), UnionType{}, nil))
}
