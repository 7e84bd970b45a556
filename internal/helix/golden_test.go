package helix

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"
)

// Golden files are txtar archives with these sections:
//
//	input.hx  the program
//	want      lines that must appear in the output, in order
//	lines     "N text": the first output line equal to text (ignoring
//	          indentation) maps to source line N
//	error     "CODE LINE" when compilation must fail
func TestGolden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no golden files")
	}
	for _, file := range files {
		t.Run(strings.TrimSuffix(filepath.Base(file), ".txtar"), func(t *testing.T) {
			ar, err := txtar.ParseFile(file)
			if err != nil {
				t.Fatal(err)
			}
			sections := map[string]string{}
			for _, f := range ar.Files {
				sections[f.Name] = string(f.Data)
			}
			src, ok := sections["input.hx"]
			if !ok {
				t.Fatal("missing input.hx section")
			}

			c, err := NewCompiler(WithTokenCache(nil))
			if err != nil {
				t.Fatal(err)
			}
			out, err := c.Compile(t.Context(), "input.hx", src)

			if want, ok := sections["error"]; ok {
				checkGoldenError(t, err, strings.TrimSpace(want))
				return
			}
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			got := strings.Split(strings.TrimSuffix(out.Source, "\n"), "\n")
			if len(got) != len(out.Lines) {
				t.Fatalf("%d output lines, %d map entries", len(got), len(out.Lines))
			}
			checkGoldenWant(t, got, sections["want"])
			checkGoldenLines(t, got, out, sections["lines"])
			if t.Failed() {
				t.Logf("output:\n%s", out.Source)
			}
		})
	}
}

func checkGoldenError(t *testing.T, err error, want string) {
	t.Helper()
	code, line, _ := strings.Cut(want, " ")
	var herr *Error
	if !errors.As(err, &herr) || herr.Code != code {
		t.Fatalf("err = %v, want %s", err, code)
	}
	if line == "" {
		return
	}
	n, convErr := strconv.Atoi(line)
	if convErr != nil {
		t.Fatalf("bad error section %q", want)
	}
	if herr.Pos.Line != n {
		t.Errorf("error at line %d, want %d", herr.Pos.Line, n)
	}
}

func checkGoldenWant(t *testing.T, got []string, want string) {
	t.Helper()
	at := 0
	for _, w := range strings.Split(strings.TrimSuffix(want, "\n"), "\n") {
		if w == "" {
			continue
		}
		found := false
		for ; at < len(got); at++ {
			if got[at] == w {
				found = true
				at++
				break
			}
		}
		if !found {
			t.Errorf("missing (or out of order) output line %q", w)
			return
		}
	}
}

func checkGoldenLines(t *testing.T, got []string, out *Output, lines string) {
	t.Helper()
	for _, entry := range strings.Split(strings.TrimSuffix(lines, "\n"), "\n") {
		if entry == "" {
			continue
		}
		num, text, _ := strings.Cut(entry, " ")
		n, err := strconv.Atoi(num)
		if err != nil {
			t.Fatalf("bad lines entry %q", entry)
		}
		idx := -1
		for i, l := range got {
			if strings.TrimSpace(l) == text {
				idx = i
				break
			}
		}
		if idx < 0 {
			t.Errorf("no output line %q", text)
			continue
		}
		if orig := out.Original(idx + 1); orig != n {
			t.Errorf("%q maps to line %d, want %d", text, orig, n)
		}
	}
}
