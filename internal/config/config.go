// Package config loads the per-project settings of phpflow.
package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/shopware/phpflow/internal/analysis"
)

// FileName is the name of the optional config file in the project root.
const FileName = ".phpflow.json"

var defaultExclude = []string{
	"node_modules",
	"var",
	"vendor-bin",
	"cache",
	".git",
	".github",
	".gitlab",
	".run",
	".idea",
	".vscode",
}

// Config holds the settings of one project.
type Config struct {
	// Exclude lists directory names skipped while scanning, at any depth.
	Exclude []string
	// Suppress lists issue kinds that are never reported.
	Suppress []analysis.IssueKind
	// Workers bounds the number of files analysed at the same time.
	Workers int
	// Notes enables the MissingCapability and MissingCoverage notes.
	Notes bool
	// CacheDir overrides the symbol cache location. Empty means the user config dir.
	CacheDir string
	// NoCache keeps the symbol table in memory only.
	NoCache bool
}

// Default returns the settings used when the project has no config file.
func Default() Config {
	return Config{
		Exclude: append([]string(nil), defaultExclude...),
		Workers: runtime.NumCPU(),
	}
}

// Load reads FileName from the project root. A missing file yields Default.
func Load(root string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(root, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read %s: %w", FileName, err)
	}
	if err := cfg.apply(data); err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	if cfg.CacheDir != "" && !filepath.IsAbs(cfg.CacheDir) {
		cfg.CacheDir = filepath.Join(root, cfg.CacheDir)
	}
	return cfg, nil
}

func (c *Config) apply(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return errors.New("expected a JSON object")
	}

	if exclude := doc.Get("exclude"); exclude.Exists() {
		if !exclude.IsArray() {
			return errors.New("exclude must be an array of directory names")
		}
		c.Exclude = c.Exclude[:0]
		for _, dir := range exclude.Array() {
			if name := strings.TrimSpace(dir.String()); name != "" {
				c.Exclude = append(c.Exclude, name)
			}
		}
	}

	var errs []error
	for _, name := range doc.Get("suppress").Array() {
		kind, ok := analysis.ParseIssueKind(name.String())
		if !ok {
			errs = append(errs, fmt.Errorf("unknown issue kind %q", name.String()))
			continue
		}
		c.Suppress = append(c.Suppress, kind)
	}

	if workers := doc.Get("workers"); workers.Exists() {
		if workers.Int() < 1 {
			errs = append(errs, fmt.Errorf("workers must be at least 1, got %s", workers.Raw))
		} else {
			c.Workers = int(workers.Int())
		}
	}
	c.Notes = doc.Get("notes").Bool()
	c.CacheDir = doc.Get("cache.dir").String()
	c.NoCache = doc.Get("cache.disabled").Bool()
	return errors.Join(errs...)
}

// Excluded reports whether a directory with the given name is skipped.
func (c Config) Excluded(dirName string) bool {
	for _, name := range c.Exclude {
		if name == dirName {
			return true
		}
	}
	return false
}

// Suppressed reports whether issues of the kind are dropped.
func (c Config) Suppressed(kind analysis.IssueKind) bool {
	if kind.IsNote() && !c.Notes {
		return true
	}
	for _, k := range c.Suppress {
		if k == kind {
			return true
		}
	}
	return false
}

// WriteDefault creates FileName in the project root with the default settings.
// An existing file is left alone.
func WriteDefault(root string) (string, error) {
	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("%s already exists", path)
	}

	cfg := Default()
	doc := []byte("{}")
	var err error
	set := func(key string, value any) {
		if err == nil {
			doc, err = sjson.SetBytes(doc, key, value)
		}
	}
	set("exclude", cfg.Exclude)
	set("suppress", []string{})
	set("workers", cfg.Workers)
	set("notes", cfg.Notes)
	set("cache.disabled", cfg.NoCache)
	if err != nil {
		return path, fmt.Errorf("failed to build config: %w", err)
	}

	if err := os.WriteFile(path, pretty.Pretty(doc), 0o644); err != nil {
		return path, fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}

// ProjectCacheDir returns the cache directory of the project, creating it if needed.
func (c Config) ProjectCacheDir(root string) (string, error) {
	if c.CacheDir != "" {
		if err := os.MkdirAll(c.CacheDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
		return c.CacheDir, nil
	}

	configDir, err := userConfigDir()
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project root: %w", err)
	}
	slug := strings.NewReplacer("/", "_", ":", "_", "\\", "_").Replace(abs)

	dir := filepath.Join(configDir, "phpflow", slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	return dir, nil
}

func userConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		usr, err := user.Current()
		if err != nil {
			return "", fmt.Errorf("failed to get current user: %w", err)
		}
		return filepath.Join(usr.HomeDir, ".config"), nil
	}
	return configDir, nil
}
