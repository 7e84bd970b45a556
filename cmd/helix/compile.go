package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/helix-lang/helix/internal/cache"
	"github.com/helix-lang/helix/internal/config"
	"github.com/helix-lang/helix/internal/debug"
	"github.com/helix-lang/helix/internal/diag"
	"github.com/helix-lang/helix/internal/helix"
	"github.com/helix-lang/helix/internal/pool"
)

const watchInterval = 500 * time.Millisecond

// build holds what one compile run shares across files.
type build struct {
	compiler *helix.Compiler
	store    *cache.Cache // nil when the cache is disabled
	reporter *diag.Reporter
	pool     *pool.Pool
	output   string // -o, single input only
	silent   bool
}

// runCompile implements the compile subcommand.
func runCompile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	output := fs.String("o", "", "output file")
	workers := fs.Int("j", -1, "parallel compiles")
	useDebug := fs.Bool("debug", false, "write a debug log")
	silent := fs.Bool("silent", false, "print nothing on success")
	watch := fs.Bool("watch", false, "recompile on change")
	resetCache := fs.Bool("reset-cache", false, "drop cached artifacts first")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	files, err := inputFiles(fs, positional)
	if err != nil {
		return err
	}
	if *output != "" && len(files) > 1 {
		return argError("A004", "compile: -o needs exactly one input, got %d", len(files))
	}

	if *useDebug {
		if err := debug.Init(os.Getenv(debug.EnvVar)); err != nil {
			return &helix.Error{Kind: helix.KindEnv, Code: "E003", Message: err.Error()}
		}
		defer debug.Close()
	}

	cfg, err := loadConfig(files)
	if err != nil {
		return err
	}
	if *workers >= 0 {
		cfg.Workers.Count = *workers
	}
	b, err := newBuild(cfg, *output, *silent)
	if err != nil {
		return err
	}
	if *resetCache {
		helix.SharedTokens.Reset()
		if b.store != nil {
			if err := b.store.Reset(); err != nil {
				return &helix.Error{Kind: helix.KindIO, Code: "I003", Message: err.Error()}
			}
		}
	}
	debug.Log("compile run %s: %d file(s), %d worker(s), config %q", debug.RunID(), len(files), b.pool.Workers(), cfg.Path)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	failed := b.compileAll(ctx, files)
	if !*watch {
		if failed > 0 {
			return errReported
		}
		return nil
	}
	return b.watch(ctx, files)
}

func newBuild(cfg config.Config, output string, silent bool) (*build, error) {
	comp, err := newCompiler(cfg)
	if err != nil {
		return nil, err
	}
	b := &build{
		compiler: comp,
		reporter: diag.NewReporter(os.Stderr, diag.WithReplacements(comp.Tables().ReverseMap()),
			diag.WithMarkSpellings(comp.Tables().MarkSpellings())),
		pool:   pool.New(cfg.Workers.Count, cfg.Workers.Timeout.Duration),
		output: output,
		silent: silent,
	}
	if cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache.Dir, helix.Version)
		if err != nil {
			debug.Log("artifact cache disabled: %v", err)
		} else {
			b.store = store
		}
	}
	return b, nil
}

// compileAll compiles every file, reporting each failure, and returns the
// number of failures.
func (b *build) compileAll(ctx context.Context, files []string) int {
	results, err := pool.Map(ctx, b.pool, files, 1, func(ctx context.Context, path string) (fileResult, error) {
		return fileResult{path: path, err: b.compileFile(ctx, path)}, nil
	})
	if err != nil {
		b.reporter.Report(err)
		return len(files)
	}
	failed := 0
	for _, r := range results {
		if r.err != nil {
			b.reporter.Report(r.err)
			failed++
		}
	}
	return failed
}

// fileResult carries a per-file failure through pool.Map, which would
// otherwise cancel the remaining files on the first error.
type fileResult struct {
	path string
	err  error
}

func (b *build) target(path string) string {
	if b.output != "" {
		return b.output
	}
	return outputPath(path)
}

func (b *build) compileFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &helix.Error{Kind: helix.KindIO, Code: "I001", Pos: helix.Position{File: path}, Message: err.Error()}
	}
	src := string(data)
	b.reporter.Sources().Add(path, src)
	out := b.target(path)

	if b.store != nil {
		if e, ok := b.store.Lookup(path, data); ok {
			debug.Log("%s: artifact cache hit", path)
			return b.write(path, out, &helix.Output{Source: e.Output, Lines: e.Lines})
		}
	}

	start := time.Now()
	res, err := b.compiler.Compile(ctx, path, src)
	if err != nil {
		return err
	}
	debug.Log("%s: compiled in %s", path, time.Since(start))
	if b.store != nil {
		if err := b.store.Store(path, data, res.Source, res.Lines); err != nil {
			debug.Log("%s: cache store failed: %v", path, err)
		}
	}
	return b.write(path, out, res)
}

func (b *build) write(path, out string, res *helix.Output) error {
	if err := os.WriteFile(out, []byte(res.Source), 0644); err != nil {
		return &helix.Error{Kind: helix.KindIO, Code: "I002", Pos: helix.Position{File: out}, Message: err.Error()}
	}
	lines := helix.LinesFileName(out)
	if err := os.WriteFile(lines, []byte(res.LinesFile()), 0644); err != nil {
		return &helix.Error{Kind: helix.KindIO, Code: "I002", Pos: helix.Position{File: lines}, Message: err.Error()}
	}
	if !b.silent {
		fmt.Printf("%s -> %s\n", path, out)
	}
	return nil
}

// watch polls modification times and recompiles changed files until ctx is
// cancelled.
func (b *build) watch(ctx context.Context, files []string) error {
	seen := make(map[string]time.Time, len(files))
	for _, f := range files {
		seen[f] = modTime(f)
	}
	if !b.silent {
		fmt.Printf("watching %d file(s), press Ctrl-C to stop\n", len(files))
	}

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		var changed []string
		for _, f := range files {
			if m := modTime(f); !m.Equal(seen[f]) {
				seen[f] = m
				changed = append(changed, f)
			}
		}
		if len(changed) == 0 {
			continue
		}
		debug.Log("watch: %d file(s) changed", len(changed))
		b.compileAll(ctx, changed)
	}
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
