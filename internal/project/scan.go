// Package project runs the analysis over the files of a PHP project.
package project

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/shopware/phpflow/internal/config"
)

// IsPHPFile reports whether the path is analysed. Phar stubs are skipped.
func IsPHPFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".php") && !strings.HasSuffix(lower, ".phar.php")
}

// Scan walks root and returns the PHP files in lexical order, skipping the directories
// the config excludes. root itself may be a single file.
func Scan(root string, cfg config.Config) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// unreadable entries below the root are skipped
			return nil
		}
		if d.IsDir() {
			if path != root && cfg.Excluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsPHPFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return files, nil
}

// ScanAll scans every root and drops duplicates.
func ScanAll(roots []string, cfg config.Config) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, root := range roots {
		found, err := Scan(root, cfg)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files, nil
}
