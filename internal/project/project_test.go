package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopware/phpflow/internal/analysis"
	"github.com/shopware/phpflow/internal/config"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func kinds(issues []analysis.Issue) []analysis.IssueKind {
	out := make([]analysis.IssueKind, len(issues))
	for i, issue := range issues {
		out[i] = issue.Kind
	}
	return out
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/A.php":              "<?php",
		"src/Sub/B.PHP":          "<?php",
		"src/readme.md":          "",
		"box.phar.php":           "<?php",
		"node_modules/pkg/x.php": "<?php",
		"var/cache/compiled.php": "<?php",
		"lib/node_modules/y.php": "<?php",
		"index.php":              "<?php",
	})

	files, err := Scan(root, config.Default())
	require.NoError(t, err)

	rel := make([]string, len(files))
	for i, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rel[i] = filepath.ToSlash(r)
	}
	assert.Equal(t, []string{"index.php", "src/A.php", "src/Sub/B.PHP"}, rel)
}

func TestScanSingleFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.php": "<?php"})

	files, err := ScanAll([]string{filepath.Join(root, "a.php"), root}, config.Default())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.php")}, files)

	_, err = Scan(filepath.Join(root, "missing"), config.Default())
	assert.Error(t, err)
}

func TestAnalyzerRun(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/Foo.php": "<?php\nnamespace App;\nclass Foo {}\n",
		"src/use.php": "<?php\nnamespace App;\nfunction make() { $a = new Foo(); $b = new Missing(); return [$a, $b]; }\n",
		"src/bad.php": "<?php\nfunction g() { return $undefined; }\n",
	})

	a, err := NewAnalyzer(config.Default(), "")
	require.NoError(t, err)
	defer a.Close()

	reports, err := a.Run(context.Background(), []string{root})
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.Equal(t, filepath.Join(root, "src/Foo.php"), reports[0].Path)
	assert.Empty(t, reports[0].Issues)

	assert.Equal(t, filepath.Join(root, "src/bad.php"), reports[1].Path)
	assert.Equal(t, []analysis.IssueKind{analysis.UndefinedVariable}, kinds(reports[1].Issues))

	assert.Equal(t, filepath.Join(root, "src/use.php"), reports[2].Path)
	assert.Equal(t, []analysis.IssueKind{analysis.UnknownClass}, kinds(reports[2].Issues))
}

func TestAnalyzerSuppression(t *testing.T) {
	cfg := config.Default()
	cfg.Suppress = []analysis.IssueKind{analysis.UnusedVariable}

	a, err := NewAnalyzer(cfg, "")
	require.NoError(t, err)

	src := []byte("<?php\nfunction f() { $unused = 1; return match(1) { default => 2 }; }\n")
	report := a.AnalyzeSource("f.php", src)
	require.NoError(t, report.Err)
	assert.Empty(t, report.Issues, "unused variables are suppressed and notes are off")

	cfg.Suppress = nil
	cfg.Notes = true
	a, err = NewAnalyzer(cfg, "")
	require.NoError(t, err)
	report = a.AnalyzeSource("f.php", src)
	assert.ElementsMatch(t, []analysis.IssueKind{analysis.UnusedVariable, analysis.MissingCapability}, kinds(report.Issues))
}

func TestAnalyzeFilesReportsUnreadableFiles(t *testing.T) {
	a, err := NewAnalyzer(config.Default(), "")
	require.NoError(t, err)

	reports, err := a.AnalyzeFiles(context.Background(), []string{filepath.Join(t.TempDir(), "gone.php")})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Error(t, reports[0].Err)
}

func TestAnalyzeFilesCancelled(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.php": "<?php\n"})

	a, err := NewAnalyzer(config.Default(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.AnalyzeFiles(ctx, []string{filepath.Join(root, "a.php")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzerWithCache(t *testing.T) {
	root := t.TempDir()
	cache := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Foo.php": "<?php\nnamespace App;\nclass Foo {}\n",
		"use.php": "<?php\nnamespace App;\nfunction make() { return new Foo(); }\n",
	})

	a, err := NewAnalyzer(config.Default(), cache)
	require.NoError(t, err)
	reports, err := a.Run(context.Background(), []string{root})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Empty(t, reports[1].Issues)
	require.NoError(t, a.Close())

	// a second run loads the symbols from the cache
	b, err := NewAnalyzer(config.Default(), cache)
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, 2, b.Table().Len())

	require.NoError(t, os.Remove(filepath.Join(root, "Foo.php")))
	reports, err = b.Run(context.Background(), []string{root})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, []analysis.IssueKind{analysis.UnknownClass}, kinds(reports[0].Issues))
}
