package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/helix-lang/helix/internal/diag"
	"github.com/helix-lang/helix/internal/helix"
	"github.com/helix-lang/helix/internal/pool"
)

// runCheck implements the check subcommand. It runs the whole pipeline and
// discards the output.
func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "print each file checked")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	files, err := inputFiles(fs, positional)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(files)
	if err != nil {
		return err
	}
	comp, err := newCompiler(cfg)
	if err != nil {
		return err
	}
	reporter := diag.NewReporter(os.Stderr, diag.WithReplacements(comp.Tables().ReverseMap()),
		diag.WithMarkSpellings(comp.Tables().MarkSpellings()))
	p := pool.New(cfg.Workers.Count, cfg.Workers.Timeout.Duration)

	results, err := pool.Map(context.Background(), p, files, 1, func(ctx context.Context, path string) (fileResult, error) {
		return fileResult{path: path, err: checkFile(ctx, comp, reporter, path)}, nil
	})
	if err != nil {
		return err
	}

	// compile errors are rendered together once every file is checked
	failed := helix.NewErrorList()
	var other int
	for _, r := range results {
		var herr *helix.Error
		switch {
		case errors.As(r.err, &herr):
			failed.Add(herr)
		case r.err != nil:
			reporter.Report(r.err)
			other++
		case *verbose:
			fmt.Printf("%s: ok\n", r.path)
		}
	}
	if err := failed.Err(); err != nil {
		reporter.Report(err)
	}
	if failed.Len()+other > 0 {
		return errReported
	}
	return nil
}

func checkFile(ctx context.Context, comp *helix.Compiler, reporter *diag.Reporter, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &helix.Error{Kind: helix.KindIO, Code: "I001", Pos: helix.Position{File: path}, Message: err.Error()}
	}
	reporter.Sources().Add(path, string(data))
	_, err = comp.Compile(ctx, path, string(data))
	return err
}
