package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopware/phpflow/internal/ast"
	"github.com/shopware/phpflow/internal/phptype"
	"github.com/shopware/phpflow/internal/phpvalue"
)

func fold(t *testing.T, op Op, left, right Result) (Result, *Collector) {
	t.Helper()
	c := &Collector{}
	return Evaluate(op, resultOperands{left: left, right: right}, c, ast.Range{}), c
}

func TestEvaluateFoldsConstants(t *testing.T) {
	tests := []struct {
		name  string
		op    Op
		left  phpvalue.Value
		right phpvalue.Value
		want  phpvalue.Value
	}{
		{"add", OpAdd, phpvalue.Int(1), phpvalue.Int(2), phpvalue.Int(3)},
		{"add overflows to float", OpAdd, phpvalue.Int(math.MaxInt64), phpvalue.Int(1), phpvalue.Float(float64(math.MaxInt64) + 1)},
		{"numeric string", OpMul, phpvalue.String("3"), phpvalue.Int(2), phpvalue.Int(6)},
		{"exact division stays int", OpDiv, phpvalue.Int(6), phpvalue.Int(3), phpvalue.Int(2)},
		{"inexact division", OpDiv, phpvalue.Int(1), phpvalue.Int(2), phpvalue.Float(0.5)},
		{"modulo", OpMod, phpvalue.Int(7), phpvalue.Int(3), phpvalue.Int(1)},
		{"power", OpPow, phpvalue.Int(2), phpvalue.Int(10), phpvalue.Int(1024)},
		{"concat", OpConcat, phpvalue.String("a"), phpvalue.Int(1), phpvalue.String("a1")},
		{"greater", OpGreater, phpvalue.Int(3), phpvalue.Int(2), phpvalue.Bool(true)},
		{"greater float", OpGreater, phpvalue.Float(1), phpvalue.Float(1), phpvalue.Bool(false)},
		{"spaceship", OpSpaceship, phpvalue.Int(1), phpvalue.Int(2), phpvalue.Int(-1)},
		{"not equal ints", OpNotEqual, phpvalue.Int(4), phpvalue.Int(4), phpvalue.Bool(false)},
		{"not equal strings", OpNotEqual, phpvalue.String("a"), phpvalue.String("b"), phpvalue.Bool(true)},
		{"identical kinds differ", OpIdentical, phpvalue.Int(1), phpvalue.Float(1), phpvalue.Bool(false)},
		{"xor", OpXor, phpvalue.Bool(true), phpvalue.Bool(false), phpvalue.Bool(true)},
		{"xor both", OpXor, phpvalue.Bool(true), phpvalue.Bool(true), phpvalue.Bool(false)},
		{"and", OpAnd, phpvalue.Int(1), phpvalue.String("0"), phpvalue.Bool(false)},
		{"or", OpOr, phpvalue.Null(), phpvalue.Int(2), phpvalue.Bool(true)},
		{"bit and", OpBitAnd, phpvalue.Int(6), phpvalue.Int(3), phpvalue.Int(2)},
		{"shift left", OpShiftLeft, phpvalue.Int(1), phpvalue.Int(4), phpvalue.Int(16)},
		{"coalesce null", OpCoalesce, phpvalue.Null(), phpvalue.Int(5), phpvalue.Int(5)},
		{"coalesce value", OpCoalesce, phpvalue.Int(1), phpvalue.Int(5), phpvalue.Int(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, c := fold(t, tt.op, Const(tt.left), Const(tt.right))
			require.True(t, res.Known, "expected a constant result")
			assert.True(t, res.Value.IdenticalTo(tt.want), "got %s, want %s", res.Value, tt.want)
			assert.True(t, res.Type.Equal(tt.want.Type()))
			assert.Zero(t, c.Len())
		})
	}
}

func TestEvaluateUncoveredConstants(t *testing.T) {
	tests := []struct {
		name  string
		op    Op
		left  phpvalue.Value
		right phpvalue.Value
	}{
		{"compare int with string", OpGreater, phpvalue.Int(3), phpvalue.String("x")},
		{"division by zero", OpDiv, phpvalue.Int(1), phpvalue.Int(0)},
		{"modulo by zero", OpMod, phpvalue.Int(1), phpvalue.Int(0)},
		{"non-numeric string", OpAdd, phpvalue.String("x"), phpvalue.Int(1)},
		{"float concat", OpConcat, phpvalue.Float(1.5), phpvalue.String("a")},
		{"negative shift", OpShiftRight, phpvalue.Int(1), phpvalue.Int(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, c := fold(t, tt.op, Const(tt.left), Const(tt.right))
			assert.False(t, res.Known)
			assert.Equal(t, 1, c.Count(MissingCoverage))
			assert.Equal(t, 1, c.Len())
		})
	}
}

func TestEvaluateTypesWithoutValues(t *testing.T) {
	intR := Typed(phptype.Single(phptype.Int))
	floatR := Typed(phptype.Single(phptype.Float))
	strR := Typed(phptype.Single(phptype.String))

	res, c := fold(t, OpAdd, intR, intR)
	assert.False(t, res.Known)
	assert.Equal(t, "int", res.Type.String())
	assert.Zero(t, c.Len(), "non-constant operands are not a coverage gap")

	res, _ = fold(t, OpMul, intR, floatR)
	assert.Equal(t, "float", res.Type.String())

	res, _ = fold(t, OpDiv, intR, intR)
	assert.Equal(t, "float|int", res.Type.String())

	res, _ = fold(t, OpConcat, intR, strR)
	assert.Equal(t, "string", res.Type.String())

	res, _ = fold(t, OpLess, intR, strR)
	assert.Equal(t, "bool", res.Type.String())

	res, _ = fold(t, OpCoalesce, Typed(phptype.MustParse("?int")), strR)
	assert.Equal(t, "int|string", res.Type.String())

	res, _ = fold(t, OpAdd, Typed(phptype.Single(phptype.Array)), Typed(phptype.Single(phptype.Array)))
	assert.Equal(t, "array", res.Type.String())
}

func TestEvaluateShortCircuit(t *testing.T) {
	unknown := Typed(phptype.Single(phptype.Bool))

	res, _ := fold(t, OpAnd, Const(phpvalue.Bool(false)), unknown)
	require.True(t, res.Known)
	assert.True(t, res.Value.IdenticalTo(phpvalue.Bool(false)))

	res, _ = fold(t, OpOr, Const(phpvalue.Bool(true)), unknown)
	require.True(t, res.Known)
	assert.True(t, res.Value.IdenticalTo(phpvalue.Bool(true)))

	res, _ = fold(t, OpAnd, Const(phpvalue.Bool(true)), unknown)
	assert.False(t, res.Known)
}

func TestEvaluateUnknownOperator(t *testing.T) {
	c := &Collector{}
	res := Evaluate(Op(200), resultOperands{}, c, ast.Range{})
	assert.False(t, res.Known)
	assert.Equal(t, 1, c.Count(InternalError))
}

func TestParseOp(t *testing.T) {
	tests := []struct {
		token string
		want  Op
	}{
		{"+", OpAdd},
		{".", OpConcat},
		{"<>", OpNotEqual},
		{"!=", OpNotEqual},
		{"and", OpAnd},
		{"or", OpOr},
		{"xor", OpXor},
		{"<=>", OpSpaceship},
		{"??", OpCoalesce},
		{"instanceof", OpInstanceof},
	}
	for _, tt := range tests {
		op, ok := ParseOp(tt.token)
		require.True(t, ok, tt.token)
		assert.Equal(t, tt.want, op, tt.token)
	}

	_, ok := ParseOp("===>")
	assert.False(t, ok)
}
