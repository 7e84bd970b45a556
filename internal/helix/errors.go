package helix

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// ErrorKind is the taxonomy bucket of a compile error.
type ErrorKind int

const (
	KindCLI ErrorKind = iota
	KindSyntax
	KindType
	KindName
	KindSemantic
	KindLink
	KindIO
	KindResource
	KindEnv
	KindInternal
)

var errorKindNames = map[ErrorKind]string{
	KindCLI:      "ArgumentError",
	KindSyntax:   "SyntaxError",
	KindType:     "TypeError",
	KindName:     "NameError",
	KindSemantic: "ValueError",
	KindLink:     "ImportError",
	KindIO:       "IOError",
	KindResource: "ResourceError",
	KindEnv:      "EnvironmentError",
	KindInternal: "NotImplementedError",
}

// String returns the conventional error name shown to users.
func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// Error is a fatal compile error with the tokens to underline.
type Error struct {
	Kind    ErrorKind
	Code    string
	Pos     Position
	Marks   []Token
	Message string
	Hint    string // optional suggestion for fixing the error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Pos.String())
	sb.WriteString(": ")
	sb.WriteString(e.Kind.String())
	if e.Code != "" {
		sb.WriteString("[")
		sb.WriteString(e.Code)
		sb.WriteString("]")
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Hint != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Hint)
		sb.WriteString(")")
	}
	return sb.String()
}

// SourceLine returns the original source text of the first marked token.
func (e *Error) SourceLine() string {
	for _, m := range e.Marks {
		if m.Original != "" {
			return m.Original
		}
	}
	return ""
}

// errorAt creates an Error positioned at the first mark.
func errorAt(kind ErrorKind, code, file string, marks []Token, format string, args ...any) *Error {
	e := &Error{
		Kind:    kind,
		Code:    code,
		Pos:     Position{File: file},
		Marks:   marks,
		Message: fmt.Sprintf(format, args...),
	}
	if len(marks) > 0 {
		e.Pos.Line = marks[0].Line
	}
	return e
}

// withHint sets the hint and returns the error for chaining.
func (e *Error) withHint(format string, args ...any) *Error {
	e.Hint = fmt.Sprintf(format, args...)
	return e
}

// ErrorList collects the errors of a batch run across files. Reports are
// kept ordered by file and line, and a report identical to one already held
// (same position, code and message) is dropped, so a file reached through
// two includes reports its errors once.
type ErrorList struct {
	errors []*Error
	seen   map[string]bool
}

// NewErrorList creates an empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{seen: make(map[string]bool)}
}

// Add inserts err in position order unless an identical report is held.
func (el *ErrorList) Add(err *Error) {
	key := err.Pos.String() + "\x00" + err.Code + "\x00" + err.Message
	if el.seen == nil {
		el.seen = make(map[string]bool)
	}
	if el.seen[key] {
		return
	}
	el.seen[key] = true
	i, _ := slices.BinarySearchFunc(el.errors, err, func(a, b *Error) int {
		if c := cmp.Compare(a.Pos.File, b.Pos.File); c != 0 {
			return c
		}
		// equal positions sort after the held ones so arrival order is kept
		if c := cmp.Compare(a.Pos.Line, b.Pos.Line); c != 0 {
			return c
		}
		return -1
	})
	el.errors = slices.Insert(el.errors, i, err)
}

// Len returns the number of distinct errors.
func (el *ErrorList) Len() int {
	return len(el.errors)
}

// Errors returns a copy of the errors in position order.
func (el *ErrorList) Errors() []*Error {
	return slices.Clone(el.errors)
}

// Error implements the error interface, returning all errors joined by newlines.
func (el *ErrorList) Error() string {
	var sb strings.Builder
	for i, err := range el.errors {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap exposes the held errors to errors.Is and errors.As.
func (el *ErrorList) Unwrap() []error {
	out := make([]error, len(el.errors))
	for i, err := range el.errors {
		out[i] = err
	}
	return out
}

// Err returns nil if there are no errors, otherwise the list itself.
func (el *ErrorList) Err() error {
	if len(el.errors) == 0 {
		return nil
	}
	return el
}

// suggest returns a "did you mean" hint for name among candidates, or "".
func suggest(name string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		// fall back to candidates that contain the name's first letters
		for _, c := range candidates {
			if len(name) > 1 && strings.HasPrefix(strings.ToLower(c), strings.ToLower(name[:2])) {
				return fmt.Sprintf("did you mean %q?", c)
			}
		}
		return ""
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return fmt.Sprintf("did you mean %q?", best.Target)
}
