// Package watch reports changed PHP files of a project, debounced.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/shopware/phpflow/internal/config"
	"github.com/shopware/phpflow/internal/project"
)

// DefaultDebounce is how long the watcher waits for more events before reporting.
const DefaultDebounce = 200 * time.Millisecond

// ChangeFunc receives the PHP files created or modified and those removed since the
// last call. Both slices are sorted.
type ChangeFunc func(changed, removed []string)

// Watcher watches a project tree.
type Watcher struct {
	root     string
	cfg      config.Config
	Debounce time.Duration

	watcher *fsnotify.Watcher
}

// New creates a watcher for root. Nothing is watched until Run.
func New(root string, cfg config.Config) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{root: root, cfg: cfg, Debounce: DefaultDebounce, watcher: watcher}, nil
}

// Run watches until ctx is done and calls onChange after every quiet period that
// follows at least one relevant event. Pending changes are flushed before it returns.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	defer func() { _ = w.watcher.Close() }()

	if err := w.addTree(w.root); err != nil {
		return err
	}

	pendingChanged := make(map[string]bool)
	pendingRemoved := make(map[string]bool)
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	flush := func() {
		if len(pendingChanged) == 0 && len(pendingRemoved) == 0 {
			return
		}
		changed, removed := keys(pendingChanged), keys(pendingRemoved)
		clear(pendingChanged)
		clear(pendingRemoved)
		onChange(changed, removed)
	}
	restart := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(w.Debounce)
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.skipped(event.Name) {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				// gone: only removals of PHP files matter
				if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && project.IsPHPFile(event.Name) {
					pendingRemoved[event.Name] = true
					delete(pendingChanged, event.Name)
					restart()
				}
				continue
			}
			if info.IsDir() {
				if event.Op&fsnotify.Create != 0 {
					if err := w.addTree(event.Name); err != nil {
						log.Printf("Error adding directory to watcher: %v", err)
					}
				}
				continue
			}
			if !project.IsPHPFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				pendingChanged[event.Name] = true
				delete(pendingRemoved, event.Name)
				restart()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("File watcher error: %v", err)

		case <-timer.C:
			flush()
		}
	}
}

// skipped reports whether the path lies below an excluded directory.
func (w *Watcher) skipped(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	parts := strings.Split(rel, string(os.PathSeparator))
	// the last part is the file itself
	for _, part := range parts[:len(parts)-1] {
		if w.cfg.Excluded(part) {
			return true
		}
	}
	return false
}

// addTree watches dir and every directory below it that is not excluded.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.cfg.Excluded(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			log.Printf("Error watching directory %s: %v", path, err)
		}
		return nil
	})
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
