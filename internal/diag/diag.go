// Package diag renders compile errors as boxed source excerpts with the
// offending tokens underlined.
package diag

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/helix-lang/helix/internal/helix"
)

const (
	defaultWidth = 80
	maxWidth     = 120
	contextLines = 2
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[1;31m"
	ansiBlue  = "\x1b[34m"
	ansiCyan  = "\x1b[36m"
)

// SourceCache keeps source text for excerpts, keyed by file name.
type SourceCache struct {
	mu    sync.Mutex
	files map[string][]string
}

// NewSourceCache creates an empty cache.
func NewSourceCache() *SourceCache {
	return &SourceCache{files: make(map[string][]string)}
}

// Add registers the text of a file that is not on disk (or already read).
func (sc *SourceCache) Add(file, src string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.files[file] = strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
}

// Line returns 1-based line n of file, reading the file on first use.
func (sc *SourceCache) Line(file string, n int) (string, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	lines, ok := sc.files[file]
	if !ok {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", false
		}
		lines = strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
		sc.files[file] = lines
	}
	if n < 1 || n > len(lines) {
		return "", false
	}
	return lines[n-1], true
}

// Reporter prints errors. Concurrent reports never interleave.
type Reporter struct {
	mu        sync.Mutex
	w         io.Writer
	color     bool
	width     int
	reverse   map[string]string
	spellings map[string]string
	sources   *SourceCache
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithColor forces color on or off.
func WithColor(on bool) Option {
	return func(r *Reporter) { r.color = on }
}

// WithWidth sets the panel width.
func WithWidth(w int) Option {
	return func(r *Reporter) {
		if w > 0 {
			r.width = w
		}
	}
}

// WithReplacements sets the host→Helix vocabulary used to rewrite quoted
// names in messages.
func WithReplacements(m map[string]string) Option {
	return func(r *Reporter) { r.reverse = m }
}

// WithMarkSpellings sets the host→Helix spelling of every replaced token,
// used to place the underline when a marked token was rewritten.
func WithMarkSpellings(m map[string]string) Option {
	return func(r *Reporter) { r.spellings = m }
}

// WithSources shares a source cache.
func WithSources(sc *SourceCache) Option {
	return func(r *Reporter) { r.sources = sc }
}

// NewReporter creates a reporter writing to w. When w is a terminal, color
// is enabled and the panel fits the terminal width.
func NewReporter(w io.Writer, opts ...Option) *Reporter {
	r := &Reporter{w: w, width: defaultWidth, sources: NewSourceCache()}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.color = true
		if cols := terminalWidth(int(f.Fd())); cols > 0 {
			r.width = min(cols, maxWidth)
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sources returns the reporter's source cache.
func (r *Reporter) Sources() *SourceCache { return r.sources }

// Report prints err. Compile errors get a panel; other errors one line.
func (r *Reporter) Report(err error) {
	if err == nil {
		return
	}
	var text string
	var list *helix.ErrorList
	var herr *helix.Error
	switch {
	case errors.As(err, &list):
		var sb strings.Builder
		for _, e := range list.Errors() {
			sb.WriteString(r.Render(e))
		}
		text = sb.String()
	case errors.As(err, &herr):
		text = r.Render(herr)
	default:
		text = r.paint(ansiRed, "error") + ": " + err.Error() + "\n"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	io.WriteString(r.w, text)
}

// Render formats one compile error as a panel.
func (r *Reporter) Render(e *helix.Error) string {
	var b strings.Builder
	title := "─ " + e.Kind.String()
	if e.Code != "" {
		title += " [" + e.Code + "]"
	}
	title += " "
	rule := r.width - 1 - utf8.RuneCountInString(title)
	b.WriteString(r.paint(ansiRed, "╭"+title+strings.Repeat("─", max(rule, 3))))
	b.WriteByte('\n')

	bar := r.paint(ansiBlue, "│")
	if e.Pos.File != "" || e.Pos.Line > 0 {
		fmt.Fprintf(&b, "%s %s\n", bar, r.paint(ansiCyan, e.Pos.String()))
	}

	groups := markGroups(e.Marks)
	if len(groups) > 0 {
		b.WriteString(bar + "\n")
		gutter := len(strconv.Itoa(groups[len(groups)-1].line))
		shown := 0
		for _, g := range groups {
			from := max(g.line-contextLines, shown+1, 1)
			for n := from; n < g.line; n++ {
				if text, ok := r.sources.Line(e.Pos.File, n); ok {
					fmt.Fprintf(&b, "%s %*d │ %s\n", bar, gutter, n, text)
				}
			}
			text := g.original
			if cached, ok := r.sources.Line(e.Pos.File, g.line); ok && text == "" {
				text = cached
			}
			fmt.Fprintf(&b, "%s %*d │ %s\n", bar, gutter, g.line, text)
			if under := underline(text, g.values, r.spellings); strings.TrimSpace(under) != "" {
				fmt.Fprintf(&b, "%s %s │ %s\n", bar, strings.Repeat(" ", gutter), r.paint(ansiRed, under))
			}
			shown = g.line
		}
	}

	b.WriteString(bar + "\n")
	fmt.Fprintf(&b, "%s %s\n", bar, r.reverseQuoted(e.Message))
	if e.Hint != "" {
		fmt.Fprintf(&b, "%s hint: %s\n", bar, r.reverseQuoted(e.Hint))
	}
	b.WriteString(r.paint(ansiBlue, "╰"+strings.Repeat("─", r.width-1)))
	b.WriteByte('\n')
	return b.String()
}

type markGroup struct {
	line     int
	original string
	values   []string
}

// markGroups groups marks by source line, in line order.
func markGroups(marks []helix.Token) []markGroup {
	var groups []markGroup
	index := map[int]int{}
	for _, m := range marks {
		if m.Line <= 0 || m.IsMarker() {
			continue
		}
		i, ok := index[m.Line]
		if !ok {
			i = len(groups)
			index[m.Line] = i
			groups = append(groups, markGroup{line: m.Line, original: m.Original})
		}
		groups[i].values = append(groups[i].values, m.Value)
	}
	for i := 1; i < len(groups); i++ {
		for j := i; j > 0 && groups[j].line < groups[j-1].line; j-- {
			groups[j], groups[j-1] = groups[j-1], groups[j]
		}
	}
	return groups
}

// underline places ^ under each value in text, left to right. A value that
// was rewritten by an early replacement is searched under its Helix spelling.
func underline(text string, values []string, spellings map[string]string) string {
	marks := make([]bool, len(text))
	from := 0
	for _, v := range values {
		at := strings.Index(text[from:], v)
		if at < 0 {
			if orig, ok := spellings[v]; ok {
				v = orig
				at = strings.Index(text[from:], v)
			}
		}
		if at < 0 {
			continue
		}
		start := from + at
		for i := start; i < start+len(v); i++ {
			marks[i] = true
		}
		from = start + len(v)
	}
	var sb strings.Builder
	last := -1
	for i, m := range marks {
		if m {
			last = i
		}
	}
	for i := 0; i <= last; i++ {
		switch {
		case marks[i]:
			sb.WriteByte('^')
		case text[i] == '\t':
			sb.WriteByte('\t')
		default:
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

var quotedRe = regexp.MustCompile(`"[^"]*"`)

// reverseQuoted rewrites host vocabulary inside double-quoted fragments.
func (r *Reporter) reverseQuoted(msg string) string {
	if len(r.reverse) == 0 {
		return msg
	}
	return quotedRe.ReplaceAllStringFunc(msg, func(q string) string {
		inner := q[1 : len(q)-1]
		if orig, ok := r.reverse[inner]; ok {
			return `"` + orig + `"`
		}
		return q
	})
}

func (r *Reporter) paint(code, s string) string {
	if !r.color {
		return s
	}
	return code + s + ansiReset
}
