package phpvalue

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsBool(t *testing.T) {
	testCases := []struct {
		value    Value
		expected bool
	}{
		{Int(0), false},
		{Int(-3), true},
		{Float(0), false},
		{Float(0.1), true},
		{Float(math.NaN()), true},
		{String(""), false},
		{String("0"), false},
		{String("0.0"), true},
		{String("a"), true},
		{Null(), false},
		{Bool(false), false},
		{Bool(true), true},
	}

	for _, tc := range testCases {
		t.Run(tc.value.String(), func(t *testing.T) {
			b, ok := tc.value.AsBool()
			assert.True(t, ok)
			assert.Equal(t, tc.expected, b)
		})
	}
}

func TestEqualTo(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     Value
		expected bool
	}{
		{name: "same ints", a: Int(4), b: Int(4), expected: true},
		{name: "different strings", a: String("a"), b: String("b"), expected: false},
		{name: "int and float", a: Int(1), b: Float(1.0), expected: true},
		{name: "numeric strings", a: String("1e3"), b: String("1000"), expected: true},
		{name: "numeric string and int", a: String(" 12"), b: Int(12), expected: true},
		{name: "php8 non-numeric string and zero", a: String("abc"), b: Int(0), expected: false},
		{name: "null and empty string", a: Null(), b: String(""), expected: true},
		{name: "null and zero string", a: Null(), b: String("0"), expected: false},
		{name: "null and false", a: Null(), b: Bool(false), expected: true},
		{name: "true and non-empty string", a: Bool(true), b: String("x"), expected: true},
		{name: "zero and false", a: Int(0), b: Bool(false), expected: true},
		{name: "int and its string", a: Int(5), b: String("5"), expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			eq, ok := tc.a.EqualTo(tc.b)
			assert.True(t, ok)
			assert.Equal(t, tc.expected, eq)

			// loose equality is symmetric
			rev, ok := tc.b.EqualTo(tc.a)
			assert.True(t, ok)
			assert.Equal(t, eq, rev)
		})
	}
}

func TestFloatStringEqualityIsUndefined(t *testing.T) {
	_, ok := Float(1.5).EqualTo(String("x"))
	assert.False(t, ok)
}

func TestIdenticalTo(t *testing.T) {
	assert.True(t, Int(1).IdenticalTo(Int(1)))
	assert.False(t, Int(1).IdenticalTo(Float(1)))
	assert.False(t, String("1").IdenticalTo(Int(1)))
	assert.True(t, Null().IdenticalTo(Null()))
	assert.False(t, Bool(true).IdenticalTo(Bool(false)))
}

func TestCompare(t *testing.T) {
	c, ok := Compare(Int(3), Int(2))
	assert.True(t, ok)
	assert.Equal(t, 1, c)

	c, ok = Compare(Float(1.0), Float(1.0))
	assert.True(t, ok)
	assert.Equal(t, 0, c)

	c, ok = Compare(Int(1), Float(1.5))
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	_, ok = Compare(Int(3), String("x"))
	assert.False(t, ok)
}

func TestAsNumber(t *testing.T) {
	n, ok := String("42").AsNumber()
	assert.True(t, ok)
	assert.True(t, n.IdenticalTo(Int(42)))

	n, ok = String("1.5").AsNumber()
	assert.True(t, ok)
	assert.True(t, n.IdenticalTo(Float(1.5)))

	_, ok = String("12abc").AsNumber()
	assert.False(t, ok)

	n, ok = Bool(true).AsNumber()
	assert.True(t, ok)
	assert.True(t, n.IdenticalTo(Int(1)))
}

func TestTypeAndString(t *testing.T) {
	assert.Equal(t, "int", Int(1).Type().String())
	assert.Equal(t, "bool", Bool(true).Type().String())
	assert.Equal(t, "null", Null().Type().String())

	assert.Equal(t, "1.0", Float(1).String())
	assert.Equal(t, "1.5", Float(1.5).String())
	assert.Equal(t, `"a"`, String("a").String())
	assert.Equal(t, "false", Bool(false).String())
	assert.Equal(t, "null", Null().String())
}
