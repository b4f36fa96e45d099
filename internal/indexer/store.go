// Package indexer persists per-file analysis data in a SQLite cache.
package indexer

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

// Store keeps msgpack encoded items grouped by the file that produced them, together
// with the content hash of that file.
type Store[T any] struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Open opens or creates the store database at dbPath.
func Open[T any](dbPath string) (*Store[T], error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	// _txlock=immediate takes the write lock at BEGIN and avoids SQLITE_BUSY upgrades
	db, err := sql.Open("sqlite", dbPath+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS files (
			file_path TEXT PRIMARY KEY,
			hash INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_path TEXT NOT NULL,
			key TEXT NOT NULL,
			value BLOB NOT NULL,
			FOREIGN KEY (file_path) REFERENCES files(file_path) ON DELETE CASCADE
		);
		CREATE INDEX IF NOT EXISTS idx_items_key ON items(key);
		CREATE INDEX IF NOT EXISTS idx_items_file ON items(file_path);
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return &Store[T]{db: db, dbPath: dbPath}, nil
}

// Hash returns the content hash recorded for the file.
func (s *Store[T]) Hash(filePath string) (uint64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hash int64
	err := s.db.QueryRow("SELECT hash FROM files WHERE file_path = ?", filePath).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query hash: %w", err)
	}
	return uint64(hash), true, nil
}

// Replace swaps everything stored for the file with items in one transaction and
// records the new content hash.
func (s *Store[T]) Replace(filePath string, hash uint64, items map[string]T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteFile(tx, filePath); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO files (file_path, hash) VALUES (?, ?)", filePath, int64(hash)); err != nil {
		return fmt.Errorf("failed to save file hash: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO items (file_path, key, value) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare item statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for key, item := range items {
		data, err := msgpack.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal item %s: %w", key, err)
		}
		if _, err := stmt.Exec(filePath, key, data); err != nil {
			return fmt.Errorf("failed to save item %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// Get returns all items stored under key, from any file.
func (s *Store[T]) Get(key string) ([]T, error) {
	return s.query("SELECT value FROM items WHERE key = ? ORDER BY id", key)
}

// All returns every stored item.
func (s *Store[T]) All() ([]T, error) {
	return s.query("SELECT value FROM items ORDER BY id")
}

func (s *Store[T]) query(q string, args ...any) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []T
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var item T
		if err := msgpack.Unmarshal(data, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Files returns the paths of all recorded files.
func (s *Store[T]) Files() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT file_path FROM files ORDER BY file_path")
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, path)
	}
	return files, rows.Err()
}

// Remove deletes the files and their items.
func (s *Store[T]) Remove(filePaths ...string) error {
	if len(filePaths) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, path := range filePaths {
		if err := deleteFile(tx, path); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func deleteFile(tx *sql.Tx, filePath string) error {
	if _, err := tx.Exec("DELETE FROM items WHERE file_path = ?", filePath); err != nil {
		return fmt.Errorf("failed to delete items of %s: %w", filePath, err)
	}
	if _, err := tx.Exec("DELETE FROM files WHERE file_path = ?", filePath); err != nil {
		return fmt.Errorf("failed to delete %s: %w", filePath, err)
	}
	return nil
}

// Clear removes everything.
func (s *Store[T]) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM items; DELETE FROM files;"); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	return nil
}

// Close checkpoints the WAL and closes the database.
func (s *Store[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.db.Exec("PRAGMA optimize")
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")

	return s.db.Close()
}

// Path returns the database file path.
func (s *Store[T]) Path() string {
	return s.dbPath
}
