package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopware/phpflow/internal/config"
)

type recorder struct {
	mu      sync.Mutex
	changed []string
	removed []string
}

func (r *recorder) record(changed, removed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed = append(r.changed, changed...)
	r.removed = append(r.removed, removed...)
}

func (r *recorder) snapshot() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.changed...), append([]string(nil), r.removed...)
}

func startWatcher(t *testing.T, root string) *recorder {
	t.Helper()
	w, err := New(root, config.Default())
	require.NoError(t, err)
	w.Debounce = 20 * time.Millisecond

	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, rec.record) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})

	// give the watcher time to register the tree
	time.Sleep(100 * time.Millisecond)
	return rec
}

func TestWatcherReportsPHPChanges(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "old.php")
	require.NoError(t, os.WriteFile(existing, []byte("<?php"), 0o644))

	rec := startWatcher(t, root)

	created := filepath.Join(root, "new.php")
	require.NoError(t, os.WriteFile(created, []byte("<?php"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Remove(existing))

	require.Eventually(t, func() bool {
		changed, removed := rec.snapshot()
		return slices.Contains(changed, created) && slices.Contains(removed, existing)
	}, 5*time.Second, 20*time.Millisecond)

	changed, _ := rec.snapshot()
	assert.NotContains(t, changed, filepath.Join(root, "notes.txt"))
	assert.NotContains(t, changed, existing)
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	rec := startWatcher(t, root)

	dir := filepath.Join(root, "src")
	require.NoError(t, os.Mkdir(dir, 0o755))
	time.Sleep(100 * time.Millisecond)

	file := filepath.Join(dir, "A.php")
	require.NoError(t, os.WriteFile(file, []byte("<?php"), 0o644))

	require.Eventually(t, func() bool {
		changed, _ := rec.snapshot()
		return len(changed) > 0 && changed[len(changed)-1] == file
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcherSkipsExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	excluded := filepath.Join(root, "node_modules")
	require.NoError(t, os.Mkdir(excluded, 0o755))

	w, err := New(root, config.Default())
	require.NoError(t, err)
	assert.True(t, w.skipped(filepath.Join(excluded, "x.php")))
	assert.False(t, w.skipped(filepath.Join(root, "src", "x.php")))
	assert.False(t, w.skipped(excluded), "the directory event itself is handled by addTree")
	require.NoError(t, w.watcher.Close())
}
