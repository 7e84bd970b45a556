package main

import (
	"flag"
	"io"
	"path/filepath"
	"strings"

	"github.com/helix-lang/helix/internal/config"
	"github.com/helix-lang/helix/internal/helix"
)

// parseInterspersed parses fs allowing flags after positional arguments,
// so "helix compile main.hx -o out.py" works.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	fs.SetOutput(io.Discard)
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, argError("A001", "%s: %v", fs.Name(), err)
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// inputFiles checks that every argument names a .hx file.
func inputFiles(fs *flag.FlagSet, args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, argError("A002", "%s: no input files", fs.Name())
	}
	for _, a := range args {
		if filepath.Ext(a) != ".hx" {
			return nil, argError("A003", "%s: %q is not a .hx file", fs.Name(), a)
		}
	}
	return args, nil
}

// outputPath is main.hx -> main.py, next to the input.
func outputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".py"
}

// loadConfig finds helix.toml in the working directory, then next to the
// first input.
func loadConfig(inputs []string) (config.Config, error) {
	dirs := []string{"."}
	if len(inputs) > 0 {
		if d := filepath.Dir(inputs[0]); d != "." {
			dirs = append(dirs, d)
		}
	}
	cfg, err := config.Find(dirs...)
	if err != nil {
		return cfg, &helix.Error{Kind: helix.KindEnv, Code: "E001", Message: err.Error()}
	}
	return cfg, nil
}

func newCompiler(cfg config.Config) (*helix.Compiler, error) {
	opts := []helix.Option{
		helix.WithIndent(cfg.Formatter.IndentChar),
		helix.WithRegexModule(cfg.Transpiler.RegexModule),
		helix.WithIgnoreMain(cfg.Transpiler.IgnoreMain),
	}
	if cfg.Formatter.Command != "" {
		opts = append(opts, helix.WithFormatter(helix.CommandFormatter{Command: cfg.Formatter.Command}))
	}
	return helix.NewCompiler(opts...)
}
