package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable() *MemoryTable {
	table := NewMemoryTable()
	table.Add(&FileSymbols{
		Path: "a.php",
		Classes: []*Class{
			{Name: "App\\Base", Kind: "class", Methods: map[string]Method{"save": {Name: "save", ReturnType: "bool"}}, Path: "a.php"},
			{Name: "App\\Child", Kind: "class", Parent: "App\\Base", Interfaces: []Name{"App\\Named"}, Path: "a.php",
				Properties: map[string]Property{"id": {Name: "id", Type: "int"}}},
			{Name: "App\\Named", Kind: "interface", Interfaces: []Name{"Stringable"}, Path: "a.php"},
			// broken code can declare an inheritance cycle
			{Name: "App\\LoopA", Kind: "class", Parent: "App\\LoopB", Path: "a.php"},
			{Name: "App\\LoopB", Kind: "class", Parent: "App\\LoopA", Path: "a.php"},
		},
		Functions: []*Function{{Name: "App\\helper", ReturnType: "void", Path: "a.php"}},
	})
	return table
}

func TestIsSubtype(t *testing.T) {
	table := testTable()

	tests := []struct {
		child, parent Name
		want          bool
	}{
		{"App\\Child", "App\\Base", true},
		{"app\\child", "APP\\BASE", true},
		{"\\App\\Child", "App\\Named", true},
		{"App\\Child", "Stringable", true},
		{"App\\Base", "App\\Child", false},
		{"App\\Child", "App\\Child", true},
		{"App\\LoopA", "App\\Base", false},
		{"App\\Unknown", "App\\Base", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.child)+"<:"+string(tt.parent), func(t *testing.T) {
			assert.Equal(t, tt.want, table.IsSubtype(tt.child, tt.parent))
		})
	}
}

func TestMemoryTableLookup(t *testing.T) {
	table := testTable()
	assert.Equal(t, 6, table.Len())

	c, ok := table.Class("\\APP\\child")
	require.True(t, ok)
	assert.Equal(t, Name("App\\Child"), c.Name)

	f, ok := table.Function("App\\Helper")
	require.True(t, ok)
	assert.Equal(t, "void", f.ReturnType)

	m, owner, ok := FindMethod(table, "App\\Child", "SAVE")
	require.True(t, ok)
	assert.Equal(t, "bool", m.ReturnType)
	assert.Equal(t, Name("App\\Base"), owner.Name)

	_, _, ok = FindMethod(table, "App\\LoopA", "missing")
	assert.False(t, ok)

	p, _, ok := FindProperty(table, "App\\Child", "id")
	require.True(t, ok)
	assert.Equal(t, "int", p.Type)

	names := []Name{}
	for _, c := range table.Classes() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []Name{"App\\Base", "App\\Child", "App\\LoopA", "App\\LoopB", "App\\Named"}, names)
}

func TestMemoryTableReplaceFile(t *testing.T) {
	table := testTable()

	table.Add(&FileSymbols{Path: "a.php", Classes: []*Class{{Name: "App\\Only", Kind: "class", Path: "a.php"}}})
	assert.Equal(t, 1, table.Len())
	_, ok := table.Class("App\\Base")
	assert.False(t, ok)

	table.Remove("a.php")
	assert.Equal(t, 0, table.Len())
}
