package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/helix-lang/helix/internal/diag"
	"github.com/helix-lang/helix/internal/helix"
	"github.com/helix-lang/helix/internal/pool"
)

const (
	promptMain  = "hx> "
	promptCont  = "... "
	historyFile = ".helix_history"
)

// runRepl reads statements and prints the Python they compile to. Input is
// accumulated until its brackets balance.
func runRepl(args []string) error {
	if len(args) > 0 {
		return argError("A005", "repl: unexpected arguments %q", args)
	}
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	comp, err := newCompiler(cfg)
	if err != nil {
		return err
	}
	reporter := diag.NewReporter(os.Stderr, diag.WithReplacements(comp.Tables().ReverseMap()),
		diag.WithMarkSpellings(comp.Tables().MarkSpellings()))
	p := pool.New(1, cfg.Workers.Timeout.Duration)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Printf("helix %s repl, :quit to exit\n", helix.Version)
	for {
		code, ok := readBalanced(ln)
		if !ok {
			fmt.Println()
			return nil
		}
		trimmed := strings.TrimSpace(code)
		switch {
		case trimmed == "":
			continue
		case trimmed == ":quit" || trimmed == ":q":
			return nil
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		reporter.Sources().Add("<repl>", code)
		fut := pool.Submit(context.Background(), p, func(ctx context.Context) (string, error) {
			return comp.Snippet(ctx, code)
		})
		out, err := fut.Result(0)
		if errors.Is(err, pool.ErrTimeout) {
			err = &helix.Error{Kind: helix.KindResource, Code: "R001", Message: "compile did not finish in " + cfg.Workers.Timeout.String()}
		}
		if err != nil {
			reporter.Report(err)
			continue
		}
		fmt.Print(out)
	}
}

// readBalanced prompts until the accumulated input has balanced brackets.
// It returns false on end of input.
func readBalanced(ln *liner.State) (string, bool) {
	var sb strings.Builder
	prompt := promptMain
	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			// io.EOF or a closed terminal
			if sb.Len() > 0 {
				return sb.String(), true
			}
			return "", false
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
		if depth(sb.String()) <= 0 {
			return sb.String(), true
		}
		prompt = promptCont
	}
}

// depth returns the bracket nesting left open at the end of code. Brackets
// inside string literals and // comments are ignored.
func depth(code string) int {
	d := 0
	var quote byte
	for i := 0; i < len(code); i++ {
		c := code[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '/':
			if i+1 < len(code) && code[i+1] == '/' {
				for i < len(code) && code[i] != '\n' {
					i++
				}
			}
		case '{', '(', '[':
			d++
		case '}', ')', ']':
			d--
		}
	}
	return d
}
