package helix

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/helix-lang/helix/internal/debug"
)

// Version is the compiler version stamped into generated files and cache
// entries.
const Version = "v0.3.0"

// NoLine marks output lines that do not come from user source.
const NoLine = -1

// Formatter rewrites generated source. It must not reorder statements.
type Formatter interface {
	Format(ctx context.Context, src string) (string, error)
}

// CommandFormatter pipes source through an external command, e.g.
// "black -q -".
type CommandFormatter struct {
	Command string
}

// Format runs the command with src on stdin and returns its stdout.
func (f CommandFormatter) Format(ctx context.Context, src string) (string, error) {
	fields := strings.Fields(f.Command)
	if len(fields) == 0 {
		return src, nil
	}
	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.Stdin = strings.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if err := cmd.Run(); err != nil {
		return "", &Error{
			Kind:    KindEnv,
			Code:    "E010",
			Message: fmt.Sprintf("formatter %q failed: %v: %s", fields[0], err, strings.TrimSpace(stderr.String())),
		}
	}
	return stdout.String(), nil
}

// EmitOptions controls Assemble.
type EmitOptions struct {
	Indent    string
	Formatter Formatter // optional
	Bare      bool      // omit preamble and postamble
}

// Output is an assembled module and its line map.
type Output struct {
	Source string
	// Lines holds one entry per line of Source: the original line number,
	// or NoLine.
	Lines []int
}

// LinesFile renders the line map, one integer per line.
func (o *Output) LinesFile() string {
	var sb strings.Builder
	for _, n := range o.Lines {
		sb.WriteString(strconv.Itoa(n))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Original returns the source line behind 1-based output line n.
func (o *Output) Original(n int) int {
	if n < 1 || n > len(o.Lines) {
		return NoLine
	}
	return o.Lines[n-1]
}

// LinesFileName returns the line map path for a generated file.
// e.g., "main.py" -> "main.py.lines"
func LinesFileName(out string) string {
	return out + ".lines"
}

// ParseLinesFile reads a line map written by LinesFile.
func ParseLinesFile(data string) ([]int, error) {
	fields := strings.Fields(data)
	out := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("line map entry %d: %w", i+1, err)
		}
		out[i] = n
	}
	return out, nil
}

func preamble(name string) []string {
	return []string{
		fmt.Sprintf("# generated by helix %s from %s; do not edit", Version, name),
		"import sys as __helix_sys__",
		"import os as __helix_os__",
		"__helix_sys__.path.insert(0, __helix_os__.path.dirname(__helix_os__.path.abspath(__file__)))",
		"import helix_runtime as __helix__",
		"from helix_runtime.types import *",
		"from typing import Optional, Any",
		fmt.Sprintf("__helix_sys__.excepthook = __helix__.exception_hook(__file__ + %q, %q)", ".lines", name),
		fmt.Sprintf("__helix_sys__.argv = [%q] + __helix_sys__.argv[1:]", name),
	}
}

func postamble(indent string) []string {
	return []string{
		`if __name__ == "__main__":`,
		indent + "__helix__.run_main(globals())",
	}
}

// Assemble joins the fragments in order, drops blank lines and wraps the body
// in the runtime preamble. Lines has exactly one entry per output line.
func Assemble(ctx context.Context, name string, frags []ProcessedLine, opts EmitOptions) (*Output, error) {
	if opts.Indent == "" {
		opts.Indent = "    "
	}
	var body []string
	var lines []int
	for _, f := range frags {
		nums := f.LineNumbers()
		for i, l := range strings.Split(f.Line, "\n") {
			if strings.TrimSpace(l) == "" {
				continue
			}
			body = append(body, l)
			lines = append(lines, nums[i])
		}
	}

	if opts.Formatter != nil && len(body) > 0 {
		formatted, err := opts.Formatter.Format(ctx, strings.Join(body, "\n")+"\n")
		if err != nil {
			return nil, err
		}
		formatted = strings.TrimRight(formatted, "\n")
		next := strings.Split(formatted, "\n")
		if len(next) != len(body) {
			debug.Log("formatter changed %s from %d to %d lines; line map dropped", name, len(body), len(next))
			lines = make([]int, len(next))
			for i := range lines {
				lines[i] = NoLine
			}
		}
		body = next
	}

	if opts.Bare {
		return &Output{Source: joinLines(body), Lines: lines}, nil
	}
	pre, post := preamble(name), postamble(opts.Indent)
	all := make([]string, 0, len(pre)+len(body)+len(post))
	all = append(append(append(all, pre...), body...), post...)
	nums := make([]int, 0, len(all))
	for range pre {
		nums = append(nums, NoLine)
	}
	nums = append(nums, lines...)
	for range post {
		nums = append(nums, NoLine)
	}
	return &Output{Source: joinLines(all), Lines: nums}, nil
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
