package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/shopware/phpflow/internal/config"
	"github.com/shopware/phpflow/internal/project"
	"github.com/shopware/phpflow/internal/report"
	"github.com/shopware/phpflow/internal/watch"
)

const (
	exitClean  = 0
	exitIssues = 1
	exitFailed = 2
)

func main() {
	log.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	initConfig bool
	asJSON     bool
	watch      bool
	noCache    bool
	notes      bool
	workers    int
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("phpflow", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: phpflow [flags] [path ...]")
		flags.PrintDefaults()
	}

	var opts options
	flags.BoolVar(&opts.initConfig, "init", false, "write a default "+config.FileName+" to the project root and exit")
	flags.BoolVar(&opts.asJSON, "json", false, "print the report as JSON")
	flags.BoolVar(&opts.watch, "watch", false, "re-analyse when PHP files change")
	flags.BoolVar(&opts.noCache, "no-cache", false, "keep the symbol table in memory")
	flags.BoolVar(&opts.notes, "notes", false, "report missing capability and coverage notes")
	flags.IntVar(&opts.workers, "workers", 0, "number of files analysed at the same time")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitClean
		}
		return exitFailed
	}

	paths := flags.Args()
	if len(paths) == 0 {
		paths = []string{"."}
	}
	roots := make([]string, len(paths))
	for i, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			log.Printf("Failed to resolve %s: %v", p, err)
			return exitFailed
		}
		roots[i] = abs
	}
	root := projectRoot(roots[0])

	if opts.initConfig {
		path, err := config.WriteDefault(root)
		if err != nil {
			log.Printf("Failed to write config: %v", err)
			return exitFailed
		}
		fmt.Fprintf(stdout, "Wrote %s\n", path)
		return exitClean
	}

	cfg, err := config.Load(root)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return exitFailed
	}
	if opts.noCache {
		cfg.NoCache = true
	}
	if opts.notes {
		cfg.Notes = true
	}
	if opts.workers > 0 {
		cfg.Workers = opts.workers
	}

	cacheDir := ""
	if !cfg.NoCache {
		if cacheDir, err = cfg.ProjectCacheDir(root); err != nil {
			log.Printf("Symbol cache disabled: %v", err)
			cacheDir = ""
		}
	}
	analyzer, err := project.NewAnalyzer(cfg, cacheDir)
	if err != nil {
		log.Printf("Failed to open symbol cache: %v", err)
		return exitFailed
	}
	defer func() {
		if err := analyzer.Close(); err != nil {
			log.Printf("Failed to close symbol cache: %v", err)
		}
	}()

	reports, err := analyzer.Run(ctx, roots)
	if err != nil {
		log.Printf("Analysis failed: %v", err)
		return exitFailed
	}
	if err := write(stdout, root, reports, opts.asJSON); err != nil {
		log.Printf("Failed to write report: %v", err)
		return exitFailed
	}
	if !opts.watch {
		return exitCode(reports)
	}

	watcher, err := watch.New(root, cfg)
	if err != nil {
		log.Printf("Failed to watch %s: %v", root, err)
		return exitFailed
	}
	log.Printf("Watching %s for changes", root)
	err = watcher.Run(ctx, func(changed, removed []string) {
		reports, err := reanalyse(ctx, analyzer, roots, cfg, changed, removed)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("Analysis failed: %v", err)
			}
			return
		}
		if err := write(stdout, root, reports, opts.asJSON); err != nil {
			log.Printf("Failed to write report: %v", err)
		}
	})
	if err != nil {
		log.Printf("Watching failed: %v", err)
		return exitFailed
	}
	return exitClean
}

// projectRoot is the directory holding the config file: the path itself or, for a
// file, its directory.
func projectRoot(path string) string {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return filepath.Dir(path)
	}
	return path
}

// reanalyse refreshes the symbols of the changed files and analyses the whole
// project again, since any file may depend on what changed.
func reanalyse(ctx context.Context, analyzer *project.Analyzer, roots []string, cfg config.Config, changed, removed []string) ([]project.FileReport, error) {
	log.Printf("%d files changed, %d removed", len(changed), len(removed))
	if err := analyzer.Forget(removed...); err != nil {
		log.Printf("Failed to forget removed files: %v", err)
	}
	if err := analyzer.Collect(ctx, changed); err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		log.Printf("Some files could not be collected: %v", err)
	}

	files, err := project.ScanAll(roots, cfg)
	if err != nil {
		return nil, err
	}
	return analyzer.AnalyzeFiles(ctx, files)
}

func write(w io.Writer, root string, reports []project.FileReport, asJSON bool) error {
	reports = report.Relative(root, reports)
	if !asJSON {
		return report.Text(w, reports)
	}
	data, err := report.JSON(reports)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func exitCode(reports []project.FileReport) int {
	summary := report.Summarize(reports)
	switch {
	case summary.Failed > 0:
		return exitFailed
	case summary.Issues > 0:
		return exitIssues
	}
	return exitClean
}
