package indexer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SchemaVersion is the version of everything stored in the cache directory.
// Bump it whenever a stored record changes shape; older caches are then wiped.
const SchemaVersion = 1

const versionFileName = "schema_version"

// CheckVersion wipes the cache directory unless it was written with the current
// SchemaVersion. It reports whether the directory was wiped.
func CheckVersion(cacheDir string) (bool, error) {
	versionFile := filepath.Join(cacheDir, versionFileName)

	data, err := os.ReadFile(versionFile)
	switch {
	case err == nil:
		if v, convErr := strconv.Atoi(strings.TrimSpace(string(data))); convErr == nil && v == SchemaVersion {
			return false, nil
		}
	case !os.IsNotExist(err):
		return false, fmt.Errorf("failed to read version file: %w", err)
	}

	if err := resetDir(cacheDir); err != nil {
		return false, fmt.Errorf("failed to clear cache: %w", err)
	}
	if err := os.WriteFile(versionFile, []byte(strconv.Itoa(SchemaVersion)), 0o644); err != nil {
		return false, fmt.Errorf("failed to write version: %w", err)
	}
	return true, nil
}

func resetDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}
