package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/shopware/phpflow/internal/analysis"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(content), 0o644))
	return root
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.Excluded("node_modules"))
	assert.False(t, cfg.Excluded("src"))
	assert.Positive(t, cfg.Workers)
}

func TestLoad(t *testing.T) {
	root := writeConfig(t, `{
		"exclude": ["vendor", "generated"],
		"suppress": ["UnusedVariable", "ConstantCondition"],
		"workers": 3,
		"notes": true,
		"cache": {"dir": ".cache/phpflow", "disabled": true}
	}`)

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor", "generated"}, cfg.Exclude)
	assert.Equal(t, []analysis.IssueKind{analysis.UnusedVariable, analysis.ConstantCondition}, cfg.Suppress)
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.Notes)
	assert.True(t, cfg.NoCache)
	assert.Equal(t, filepath.Join(root, ".cache/phpflow"), cfg.CacheDir)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"invalid json", `{"exclude": [`, "not valid JSON"},
		{"not an object", `[1, 2]`, "expected a JSON object"},
		{"exclude not an array", `{"exclude": "vendor"}`, "exclude must be an array"},
		{"unknown kind", `{"suppress": ["NoSuchKind"]}`, `unknown issue kind "NoSuchKind"`},
		{"bad workers", `{"workers": 0}`, "workers must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSuppressed(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.Suppressed(analysis.MissingCapability), "notes are off by default")
	assert.True(t, cfg.Suppressed(analysis.MissingCoverage))
	assert.False(t, cfg.Suppressed(analysis.UndefinedVariable))

	cfg.Notes = true
	cfg.Suppress = []analysis.IssueKind{analysis.UnusedVariable}
	assert.False(t, cfg.Suppressed(analysis.MissingCapability))
	assert.True(t, cfg.Suppressed(analysis.UnusedVariable))
}

func TestWriteDefault(t *testing.T) {
	root := t.TempDir()

	path, err := WriteDefault(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, FileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, gjson.ValidBytes(data))
	assert.Equal(t, "node_modules", gjson.GetBytes(data, "exclude.0").String())
	assert.False(t, gjson.GetBytes(data, "notes").Bool())

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, Default().Exclude, cfg.Exclude)

	_, err = WriteDefault(root)
	assert.Error(t, err, "an existing config is not overwritten")
}

func TestProjectCacheDir(t *testing.T) {
	cfg := Default()
	cfg.CacheDir = filepath.Join(t.TempDir(), "cache")

	dir, err := cfg.ProjectCacheDir("/some/project")
	require.NoError(t, err)
	assert.Equal(t, cfg.CacheDir, dir)
	assert.DirExists(t, dir)
}
