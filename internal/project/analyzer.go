package project

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shopware/phpflow/internal/analysis"
	"github.com/shopware/phpflow/internal/ast"
	"github.com/shopware/phpflow/internal/config"
	"github.com/shopware/phpflow/internal/indexer"
	"github.com/shopware/phpflow/internal/symbols"
)

// FileReport holds the issues of one file. Err is set when the file could not be
// read or parsed at all.
type FileReport struct {
	Path   string
	Issues []analysis.Issue
	Err    error
}

// Analyzer owns the project-wide symbol table and runs both rounds over files.
type Analyzer struct {
	cfg    config.Config
	store  *symbols.Store
	memory *symbols.MemoryTable
}

// NewAnalyzer creates an analyzer. With a cache directory the symbol table is backed
// by the sqlite store there, otherwise it lives in memory.
func NewAnalyzer(cfg config.Config, cacheDir string) (*Analyzer, error) {
	a := &Analyzer{cfg: cfg}
	if cacheDir == "" || cfg.NoCache {
		a.memory = symbols.NewMemoryTable()
		return a, nil
	}

	wiped, err := indexer.CheckVersion(cacheDir)
	if err != nil {
		return nil, err
	}
	if wiped {
		log.Printf("Symbol cache in %s was reset", cacheDir)
	}
	store, err := symbols.OpenStore(cacheDir)
	if err != nil {
		return nil, err
	}
	a.store = store
	return a, nil
}

// Table returns the symbol table round two runs against.
func (a *Analyzer) Table() symbols.Table {
	if a.store != nil {
		return a.store
	}
	return a.memory
}

// Close releases the symbol store.
func (a *Analyzer) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

func (a *Analyzer) workers() int {
	return max(a.cfg.Workers, 1)
}

// Collect runs round one over the files. Files that cannot be read are logged and
// skipped; the returned error joins their failures.
func (a *Analyzer) Collect(ctx context.Context, files []string) error {
	start := time.Now()
	errs := make([]error, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(path)
			if err != nil {
				errs[i] = fmt.Errorf("failed to read %s: %w", path, err)
				return nil
			}
			errs[i] = a.update(path, src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Printf("Collected symbols of %d files in %s", len(files), time.Since(start))
	return errors.Join(errs...)
}

// Update runs round one for a single in-memory document.
func (a *Analyzer) Update(path string, src []byte) error {
	return a.update(path, src)
}

func (a *Analyzer) update(path string, src []byte) error {
	if a.store != nil {
		_, err := a.store.Update(path, src, ast.Parse)
		return err
	}
	file, err := ast.Parse(src)
	if file == nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	a.memory.Add(symbols.Collect(path, file))
	return nil
}

// Forget removes the symbols of deleted files.
func (a *Analyzer) Forget(paths ...string) error {
	if a.store != nil {
		return a.store.Remove(paths...)
	}
	for _, p := range paths {
		a.memory.Remove(p)
	}
	return nil
}

// Prune drops cached symbols of files that are no longer part of the project.
func (a *Analyzer) Prune(files []string) error {
	if a.store == nil {
		return nil
	}
	return a.store.Prune(files)
}

// AnalyzeFiles runs round two over the files concurrently. The reports come back in
// the order of files. Each file is analysed on one goroutine with its own state.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, files []string) ([]FileReport, error) {
	start := time.Now()
	reports := make([]FileReport, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(path)
			if err != nil {
				reports[i] = FileReport{Path: path, Err: fmt.Errorf("failed to read %s: %w", path, err)}
				return nil
			}
			reports[i] = a.AnalyzeSource(path, src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Printf("Analysed %d files in %s", len(files), time.Since(start))
	return reports, nil
}

// AnalyzeSource runs round two over one document against the current symbol table.
func (a *Analyzer) AnalyzeSource(path string, src []byte) FileReport {
	report := FileReport{Path: path}
	collector := &analysis.Collector{}
	if _, err := analysis.AnalyzeSource(path, src, a.Table(), collector); err != nil {
		report.Err = fmt.Errorf("failed to parse %s: %w", path, err)
		return report
	}
	report.Issues = a.filter(collector.Issues())
	return report
}

// filter drops suppressed kinds and orders the rest by position.
func (a *Analyzer) filter(issues []analysis.Issue) []analysis.Issue {
	kept := issues[:0]
	for _, issue := range issues {
		if !a.cfg.Suppressed(issue.Kind) {
			kept = append(kept, issue)
		}
	}
	slices.SortStableFunc(kept, func(x, y analysis.Issue) int {
		if c := cmp.Compare(x.Range.Start.Line, y.Range.Start.Line); c != 0 {
			return c
		}
		return cmp.Compare(x.Range.Start.Column, y.Range.Start.Column)
	})
	return kept
}

// Run scans the roots, collects symbols and analyses every file.
func (a *Analyzer) Run(ctx context.Context, roots []string) ([]FileReport, error) {
	files, err := ScanAll(roots, a.cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("Found %d PHP files", len(files))

	if err := a.Collect(ctx, files); err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		log.Printf("Some files could not be collected: %v", err)
	}
	if err := a.Prune(files); err != nil {
		log.Printf("Failed to prune symbol cache: %v", err)
	}
	return a.AnalyzeFiles(ctx, files)
}
