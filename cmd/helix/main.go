// Package main provides the helix command, which compiles Helix source
// files to Python.
//
// Usage:
//
//	helix compile [flags] file.hx...   Compile to Python
//	helix check file.hx...             Run the compiler without writing output
//	helix repl                         Show the Python for statements as you type
//	helix cache reset|dir              Manage the compiled artifact cache
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/helix-lang/helix/internal/diag"
	"github.com/helix-lang/helix/internal/helix"
)

const usage = `helix - compiler from Helix to Python

Usage:
  helix <command> [options] [file.hx...]

Commands:
  compile     Compile .hx files to .py files
  check       Check .hx files without writing output
  repl        Start an interactive prompt that prints the generated Python
  cache       Manage the compiled artifact cache (reset, dir)
  version     Print version information
  help        Show this help message

Compile options:
  -o <file>         Output file (single input only; default <name>.py)
  -j <n>            Parallel compiles (default from helix.toml, 0 = all CPUs)
  --debug           Write a debug log (HELIX_DEBUG selects the path)
  --silent          Print nothing on success
  --watch           Recompile when an input changes
  --reset-cache     Drop cached artifacts before compiling

Examples:
  helix compile main.hx             Writes main.py and main.py.lines
  helix compile -o out.py main.hx
  helix compile -j 4 src/*.hx
  helix check main.hx
  helix cache reset
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "compile":
		err = runCompile(args)
	case "check":
		err = runCheck(args)
	case "repl":
		err = runRepl(args)
	case "cache":
		err = runCache(args)
	case "version":
		fmt.Printf("helix version %s\n", helix.Version)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", command)
		fmt.Print(usage)
		os.Exit(1)
	}
	if err != nil {
		if !errors.Is(err, errReported) {
			diag.NewReporter(os.Stderr).Report(err)
		}
		os.Exit(1)
	}
}

// errReported means the failure was already printed.
var errReported = errors.New("errors reported")

func argError(code, format string, args ...any) error {
	return &helix.Error{Kind: helix.KindCLI, Code: code, Message: fmt.Sprintf(format, args...)}
}
