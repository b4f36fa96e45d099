package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopware/phpflow/internal/phptype"
	"github.com/shopware/phpflow/internal/phpvalue"
)

func writeInt(s *Scope, name string, value int64, line int) {
	s.Var(name).SingleWriteTo(phptype.Single(phptype.Int), phpvalue.Int(value), true, at(line))
}

func TestMergeKeepsReadsOfTerminatedArms(t *testing.T) {
	s := NewScope()
	writeInt(s, "x", 1, 1)

	returned := s.Branch()
	rx, _ := returned.Lookup("x")
	rx.ReadFrom(at(2))
	returned.Terminate()

	s.Merge(returned, s.Branch())

	x, ok := s.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 1, x.Reads)
	assert.False(t, s.Terminated())
}

func TestMergeIgnoresWritesOfTerminatedArms(t *testing.T) {
	s := NewScope()

	reaching := s.Branch()
	writeInt(reaching, "y", 1, 1)
	thrown := s.Branch()
	thrown.Terminate()

	s.Merge(reaching, thrown)

	y, ok := s.Lookup("y")
	require.True(t, ok)
	assert.False(t, y.IsPartial)
	value, known := y.LiveValue()
	require.True(t, known)
	assert.True(t, value.IdenticalTo(phpvalue.Int(1)))
}

func TestMergeImplicitArmMakesPartial(t *testing.T) {
	s := NewScope()

	then := s.Branch()
	writeInt(then, "y", 1, 1)
	s.Merge(then, s.Branch())

	y, ok := s.Lookup("y")
	require.True(t, ok)
	assert.True(t, y.IsPartial)
	assert.True(t, y.IsBound())
}

func TestMergeAllArmsTerminated(t *testing.T) {
	s := NewScope()
	writeInt(s, "x", 1, 1)

	a := s.Branch()
	a.Terminate()
	b := s.Branch()
	b.Terminate()
	s.Merge(a, b)

	assert.True(t, s.Terminated())
	_, ok := s.Lookup("x")
	assert.True(t, ok, "variables of the scope survive")
}

func TestMergeJoinsValues(t *testing.T) {
	s := NewScope()

	a := s.Branch()
	writeInt(a, "x", 1, 1)
	b := s.Branch()
	writeInt(b, "x", 2, 2)
	s.Merge(a, b)

	x, _ := s.Lookup("x")
	assert.False(t, x.IsPartial)
	assert.Equal(t, 2, x.Writes)
	_, known := x.LiveValue()
	assert.False(t, known)
	assert.Equal(t, "int", x.LiveType().String())
}

func TestBranchIsASnapshot(t *testing.T) {
	s := NewScope()
	writeInt(s, "x", 1, 1)

	b := s.Branch()
	writeInt(b, "x", 2, 2)
	b.Delete("x")
	writeInt(b, "z", 3, 3)

	x, _ := s.Lookup("x")
	assert.Equal(t, 1, x.Writes)
	assert.Equal(t, []string{"x"}, s.Names())
	assert.Equal(t, []string{"z"}, b.Names())
}

func TestAbsorbAddsReadsOnly(t *testing.T) {
	s := NewScope()
	writeInt(s, "x", 1, 1)

	nested := s.Branch()
	nx, _ := nested.Lookup("x")
	nx.ReadFrom(at(2))
	writeInt(nested, "x", 5, 3)
	writeInt(nested, "local", 1, 4)

	s.Absorb(nested)

	x, _ := s.Lookup("x")
	assert.Equal(t, 1, x.Reads)
	assert.Equal(t, 1, x.Writes)
	_, ok := s.Lookup("local")
	assert.False(t, ok)
}
