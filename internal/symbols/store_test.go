package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopware/phpflow/internal/ast"
)

func countingParser(calls *int) func([]byte) (*ast.File, error) {
	return func(src []byte) (*ast.File, error) {
		*calls++
		return ast.Parse(src)
	}
}

func TestStoreSkipsUnchangedFiles(t *testing.T) {
	cacheDir := t.TempDir()
	calls := 0
	parse := countingParser(&calls)

	store, err := OpenStore(cacheDir)
	require.NoError(t, err)

	src := []byte("<?php\nclass Foo extends Bar {}\nclass Bar {}\n")
	updated, err := store.Update("foo.php", src, parse)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.True(t, store.IsSubtype("Foo", "Bar"))

	updated, err = store.Update("foo.php", src, parse)
	require.NoError(t, err)
	assert.False(t, updated, "unchanged content must not be collected again")
	assert.Equal(t, 1, calls)
	require.NoError(t, store.Close())

	// a new run loads the symbols from disk
	store, err = OpenStore(cacheDir)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	c, ok := store.Class("foo")
	require.True(t, ok)
	assert.Equal(t, Name("Bar"), c.Parent)
	assert.Equal(t, 2, store.Len())

	updated, err = store.Update("foo.php", []byte("<?php\nfunction foo() {}\n"), parse)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, 2, calls)

	_, ok = store.Class("Foo")
	assert.False(t, ok)
	_, ok = store.Function("foo")
	assert.True(t, ok)
}

func TestStorePrune(t *testing.T) {
	store, err := OpenStore(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	calls := 0
	parse := countingParser(&calls)
	_, err = store.Update("a.php", []byte("<?php class A {}"), parse)
	require.NoError(t, err)
	_, err = store.Update("b.php", []byte("<?php class B {}"), parse)
	require.NoError(t, err)

	require.NoError(t, store.Prune([]string{"b.php"}))

	_, ok := store.Class("A")
	assert.False(t, ok)
	_, ok = store.Class("B")
	assert.True(t, ok)
}
