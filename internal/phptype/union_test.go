package phptype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	intT := Single(Int)
	strT := Single(String)
	foo := Of(NewClassRef("\\App\\Foo"))

	assert.True(t, Flatten().IsEmpty())
	assert.True(t, Flatten(intT).Equal(intT))

	ab := Flatten(intT, strT)
	assert.True(t, ab.Equal(Flatten(strT, intT)))
	assert.True(t, ab.Equal(Flatten(intT, strT, intT)))
	assert.Equal(t, 2, ab.Len())

	assert.True(t, Flatten(Flatten(intT, strT), foo).Equal(Flatten(intT, Flatten(strT, foo))))
	assert.Equal(t, "int|string|\\App\\Foo", Flatten(foo, strT, intT).String())
}

func TestFlattenKeepsNullabilityPerMember(t *testing.T) {
	u := Flatten(Single(Int), Of(Scalar{Kind: Int, Nullable: true}))
	assert.Equal(t, 2, u.Len())
	assert.True(t, u.IsNullable())

	// null, mixed and void can never carry the flag
	assert.Equal(t, "null", Of(Scalar{Kind: Null, Nullable: true}).String())
	assert.Equal(t, "mixed", Of(Scalar{Kind: Mixed, Nullable: true}).String())
}

func TestClassRefsCompareCaseInsensitively(t *testing.T) {
	a := Of(NewClassRef("\\App\\Foo"))
	b := Of(NewClassRef("\\app\\FOO"))
	assert.True(t, a.Equal(b))
	assert.Equal(t, 1, Flatten(a, b).Len())
}

func TestFlattenKeepsOneSpellingRegardlessOfOrder(t *testing.T) {
	upper := Of(NewClassRef("Foo"))
	lower := Of(NewClassRef("foo"))

	assert.Equal(t, "Foo", Flatten(upper, lower).String())
	assert.Equal(t, "Foo", Flatten(lower, upper).String())
	assert.Equal(t, Flatten(upper, lower).String(), Of(NewClassRef("foo"), NewClassRef("Foo")).String())
}

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected string
	}{
		{name: "scalar", text: "int", expected: "int"},
		{name: "alias keyword", text: "integer", expected: "int"},
		{name: "union sorted", text: "string|int", expected: "int|string"},
		{name: "nullable", text: "?string", expected: "?string"},
		{name: "nullable class", text: "?\\Foo\\Bar", expected: "?\\Foo\\Bar"},
		{name: "list suffix", text: "string[]", expected: "array"},
		{name: "generic array", text: "array<int, string>", expected: "array"},
		{name: "relative class", text: "Sub\\Foo", expected: "Sub\\Foo"},
		{name: "generic class", text: "Collection<int, Foo>", expected: "Collection<int, Foo>"},
		{name: "shape", text: "array{name: string, id: int}", expected: "array{id: int, name: string}"},
		{name: "positional shape", text: "array{int, string}", expected: "array{0: int, 1: string}"},
		{name: "optional shape key", text: "array{id?: int}", expected: "array{id?: int}"},
		{name: "signature", text: "callable(int, string): bool", expected: "callable(int, string): bool"},
		{name: "closure signature", text: "Closure(int $x): void", expected: "callable(int): void"},
		{name: "array-key", text: "array-key", expected: "int|string"},
		{name: "this", text: "$this", expected: "static"},
		{name: "parenthesised", text: "(int|float)|null", expected: "float|int|null"},
		{name: "literal strings", text: "'a'|'b'", expected: "string"},
		{name: "ranged int", text: "int<0, max>", expected: "int"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := Parse(tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, u.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, text := range []string{"", "int|", "array{id: int", "A&B", "Foo<int"} {
		_, err := Parse(text)
		assert.Error(t, err, "expected an error for %q", text)
	}
}

func TestParseIsOrderIndependent(t *testing.T) {
	a := MustParse("int|string")
	b := MustParse("string|int")
	assert.True(t, a.Equal(b))
}

func TestWithoutNull(t *testing.T) {
	u := MustParse("?Foo|null|int")
	assert.Equal(t, "int|Foo", u.WithoutNull().String())
	assert.Equal(t, "null", u.OnlyNull().String())
	assert.True(t, Single(Int).OnlyNull().IsEmpty())
}

func TestResolve(t *testing.T) {
	u := MustParse("Foo|Sub\\Bar|\\Baz|int")
	resolved := u.Resolve(func(written string) string { return "App\\" + written })
	assert.Equal(t, "int|\\App\\Foo|\\App\\Sub\\Bar|\\Baz", resolved.String())
}

func TestMayBeObject(t *testing.T) {
	assert.True(t, MustParse("?Foo").MayBeObject())
	assert.True(t, MustParse("mixed").MayBeObject())
	assert.False(t, MustParse("int|string|null").MayBeObject())
}
