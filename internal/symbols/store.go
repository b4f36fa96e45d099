package symbols

import (
	"fmt"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/shopware/phpflow/internal/ast"
	"github.com/shopware/phpflow/internal/indexer"
)

const symbolsKey = "symbols"

// Store is a Table persisted in the cache directory. Lookups are served from memory;
// the database lets a later run skip files whose content did not change.
type Store struct {
	db    *indexer.Store[FileSymbols]
	table *MemoryTable
}

// OpenStore opens the symbol cache in cacheDir and loads everything it holds.
func OpenStore(cacheDir string) (*Store, error) {
	db, err := indexer.Open[FileSymbols](filepath.Join(cacheDir, "symbols.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open symbol store: %w", err)
	}

	stored, err := db.Get(symbolsKey)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load symbols: %w", err)
	}

	table := NewMemoryTable()
	for i := range stored {
		table.Add(&stored[i])
	}
	return &Store{db: db, table: table}, nil
}

// Update runs round one for the file unless its content hash is unchanged since the
// last run. It reports whether the file was collected again.
func (s *Store) Update(path string, src []byte, parse func([]byte) (*ast.File, error)) (bool, error) {
	hash := xxhash.Sum64(src)
	if stored, ok, err := s.db.Hash(path); err != nil {
		return false, err
	} else if ok && stored == hash {
		return false, nil
	}

	// a file with syntax errors still yields the symbols of its intact parts
	file, err := parse(src)
	if file == nil {
		return false, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	symbols := Collect(path, file)
	if err := s.db.Replace(path, hash, map[string]FileSymbols{symbolsKey: *symbols}); err != nil {
		return false, fmt.Errorf("failed to store symbols of %s: %w", path, err)
	}
	s.table.Add(symbols)
	return true, nil
}

// Remove forgets the symbols of deleted files.
func (s *Store) Remove(paths ...string) error {
	for _, p := range paths {
		s.table.Remove(p)
	}
	return s.db.Remove(paths...)
}

// Prune removes every stored file that is not in keep.
func (s *Store) Prune(keep []string) error {
	files, err := s.db.Files()
	if err != nil {
		return err
	}
	wanted := make(map[string]bool, len(keep))
	for _, p := range keep {
		wanted[p] = true
	}
	var stale []string
	for _, f := range files {
		if !wanted[f] {
			stale = append(stale, f)
		}
	}
	return s.Remove(stale...)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Class(name Name) (*Class, bool)       { return s.table.Class(name) }
func (s *Store) Function(name Name) (*Function, bool) { return s.table.Function(name) }
func (s *Store) IsSubtype(child, parent Name) bool    { return IsSubtype(s, child, parent) }
func (s *Store) Len() int                             { return s.table.Len() }
