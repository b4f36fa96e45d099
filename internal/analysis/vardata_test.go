package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopware/phpflow/internal/ast"
	"github.com/shopware/phpflow/internal/phptype"
	"github.com/shopware/phpflow/internal/phpvalue"
)

func at(line int) ast.Range {
	return ast.Range{Start: ast.Position{Line: line}, End: ast.Position{Line: line, Column: 1}}
}

func TestSingleWriteTo(t *testing.T) {
	v := NewVarData("x")
	intT := phptype.Single(phptype.Int)
	v.SingleWriteTo(intT, phpvalue.Int(1), true, at(1))

	assert.Equal(t, 1, v.Writes)
	require.Len(t, v.Live(), 1)
	assert.True(t, v.Live()[0].Type.Equal(intT))
	value, ok := v.LiveValue()
	require.True(t, ok)
	assert.True(t, value.IdenticalTo(phpvalue.Int(1)))
	assert.True(t, v.InferredType().Equal(intT))

	strT := phptype.Single(phptype.String)
	v.SingleWriteTo(strT, phpvalue.String("a"), true, at(2))
	assert.Equal(t, 2, v.Writes)
	require.Len(t, v.Live(), 1)
	assert.True(t, v.LiveType().Equal(strT))
	// the history keeps every write, the live set only the last one
	assert.True(t, v.InferredType().Equal(phptype.Flatten(intT, strT)))
}

func TestBestTypePrefersDeclaredThenComment(t *testing.T) {
	v := NewVarData("x")
	v.SingleWriteTo(phptype.Single(phptype.Int), phpvalue.Int(1), true, at(1))
	assert.Equal(t, "int", v.BestType().String())

	v.SetCommentType(phptype.Single(phptype.String))
	assert.Equal(t, "string", v.BestType().String())

	v.SetDeclaredType(phptype.Single(phptype.Float))
	assert.Equal(t, "float", v.BestType().String())
}

func TestBranchMergePartial(t *testing.T) {
	written := NewVarData("x")
	written.SingleWriteTo(phptype.Single(phptype.Int), phpvalue.Int(1), true, at(1))

	merged := BranchMerge(nil, []*VarData{written, nil})
	require.NotNil(t, merged)
	assert.True(t, merged.IsPartial)
	assert.True(t, merged.IsBound())
	assert.Equal(t, "int", merged.LiveType().String())
	_, ok := merged.LiveValue()
	assert.False(t, ok, "a partial variable has no constant value")
}

func TestBranchMergeJoinsLiveWrites(t *testing.T) {
	base := NewVarData("x")
	base.SingleWriteTo(phptype.Single(phptype.Int), phpvalue.Int(0), true, at(1))

	a := base.Clone()
	a.SingleWriteTo(phptype.Single(phptype.String), phpvalue.String("a"), true, at(2))
	b := base.Clone()
	b.ReadFrom(at(3))

	merged := BranchMerge(base, []*VarData{a, b})
	assert.False(t, merged.IsPartial)
	assert.Len(t, merged.Live(), 2)
	assert.Equal(t, "int|string", merged.LiveType().String())
	assert.Equal(t, 2, merged.Writes)
	assert.Equal(t, 1, merged.Reads)
	_, ok := merged.LiveValue()
	assert.False(t, ok)
}

func TestBranchMergeKeepsSharedConstant(t *testing.T) {
	base := NewVarData("x")
	a := base.Clone()
	a.SingleWriteTo(phptype.Single(phptype.Int), phpvalue.Int(7), true, at(1))
	b := base.Clone()
	b.SingleWriteTo(phptype.Single(phptype.Int), phpvalue.Int(7), true, at(2))

	merged := BranchMerge(base, []*VarData{a, b})
	value, ok := merged.LiveValue()
	require.True(t, ok)
	assert.True(t, value.IdenticalTo(phpvalue.Int(7)))
}

func TestBranchMergeUnboundEverywhere(t *testing.T) {
	read := NewVarData("x")
	read.ReadFrom(at(1))

	merged := BranchMerge(nil, []*VarData{read, nil})
	require.NotNil(t, merged)
	assert.False(t, merged.IsBound())
	assert.False(t, merged.IsPartial)
	assert.Nil(t, BranchMerge(nil, []*VarData{nil, nil}))
}

func TestNarrowAndWiden(t *testing.T) {
	v := NewVarData("x")
	v.SingleWriteTo(phptype.Flatten(phptype.Single(phptype.Int), phptype.Single(phptype.Null)), phpvalue.Int(3), true, at(1))

	v.Narrow(phptype.Single(phptype.Int))
	assert.Equal(t, 1, v.Writes, "narrowing is not a write")
	assert.Equal(t, "int", v.LiveType().String())
	_, ok := v.LiveValue()
	assert.True(t, ok)

	v.Widen()
	assert.Equal(t, "int", v.LiveType().String())
	_, ok = v.LiveValue()
	assert.False(t, ok)

	first, ok := v.FirstWrite()
	require.True(t, ok)
	assert.Equal(t, 1, first.Start.Line)
}
