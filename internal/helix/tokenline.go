package helix

import (
	"strings"
)

// TokenLine is one logical statement after normalization. All tokens share
// Indent and File. Handlers never modify a TokenLine in place; the slicing
// helpers return copies.
type TokenLine struct {
	Tokens []Token
	Indent int
	File   string
}

// NewTokenLine builds a line and stamps indent on every token.
func NewTokenLine(file string, indent int, tokens []Token) *TokenLine {
	toks := make([]Token, len(tokens))
	copy(toks, tokens)
	for i := range toks {
		toks[i].Indent = indent
	}
	return &TokenLine{Tokens: toks, Indent: indent, File: file}
}

// Len returns the number of tokens.
func (l *TokenLine) Len() int { return len(l.Tokens) }

// At returns the value of token i, or "" when out of range.
func (l *TokenLine) At(i int) string {
	if i < 0 || i >= len(l.Tokens) {
		return ""
	}
	return l.Tokens[i].Value
}

// First returns the first token value.
func (l *TokenLine) First() string { return l.At(0) }

// Last returns the last token value.
func (l *TokenLine) Last() string { return l.At(len(l.Tokens) - 1) }

// Values returns the token values.
func (l *TokenLine) Values() []string {
	out := make([]string, len(l.Tokens))
	for i, t := range l.Tokens {
		out[i] = t.Value
	}
	return out
}

// Copy returns a deep copy of the line.
func (l *TokenLine) Copy() *TokenLine {
	return l.Slice(0, len(l.Tokens))
}

// Slice returns a copy of tokens [from, to), clamped to the line.
func (l *TokenLine) Slice(from, to int) *TokenLine {
	from = max(0, min(from, len(l.Tokens)))
	to = max(from, min(to, len(l.Tokens)))
	toks := make([]Token, to-from)
	copy(toks, l.Tokens[from:to])
	return &TokenLine{Tokens: toks, Indent: l.Indent, File: l.File}
}

// Index returns the index of the first token with value v, or -1.
func (l *TokenLine) Index(v string) int {
	for i, t := range l.Tokens {
		if t.Value == v {
			return i
		}
	}
	return -1
}

// Contains reports whether any token has value v.
func (l *TokenLine) Contains(v string) bool {
	return l.Index(v) >= 0
}

// ContainsAny reports whether any token value is in set.
func (l *TokenLine) ContainsAny(set map[string]bool) bool {
	for _, t := range l.Tokens {
		if set[t.Value] {
			return true
		}
	}
	return false
}

// After returns the tokens after the first occurrence of v.
func (l *TokenLine) After(v string) *TokenLine {
	i := l.Index(v)
	if i < 0 {
		return l.Slice(0, 0)
	}
	return l.Slice(i+1, len(l.Tokens))
}

// Before returns the tokens before the first occurrence of v, or the whole
// line when v does not occur.
func (l *TokenLine) Before(v string) *TokenLine {
	i := l.Index(v)
	if i < 0 {
		return l.Copy()
	}
	return l.Slice(0, i)
}

// Between returns the tokens between the first open and its balanced close.
// ok is false when open does not occur or is never closed.
func (l *TokenLine) Between(open, close string) (*TokenLine, bool) {
	start := l.Index(open)
	if start < 0 {
		return nil, false
	}
	end := l.matching(start, open, close)
	if end < 0 {
		return nil, false
	}
	return l.Slice(start+1, end), true
}

// matching returns the index of the close balancing the open at start, or -1.
func (l *TokenLine) matching(start int, open, close string) int {
	depth := 0
	for i := start; i < len(l.Tokens); i++ {
		switch l.Tokens[i].Value {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// Split splits the line on top-level occurrences of sep; occurrences nested
// in (), [] or {} are kept.
func (l *TokenLine) Split(sep string) []*TokenLine {
	return l.split(sep, false)
}

// SplitGeneric is like Split but also treats < and > as brackets, for type
// positions such as map<string, int>.
func (l *TokenLine) SplitGeneric(sep string) []*TokenLine {
	return l.split(sep, true)
}

func (l *TokenLine) split(sep string, generic bool) []*TokenLine {
	var parts []*TokenLine
	depth, start := 0, 0
	for i, t := range l.Tokens {
		switch t.Value {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case "<":
			if generic {
				depth++
			}
		case ">":
			if generic {
				depth--
			}
		case ">>":
			if generic {
				depth -= 2
			}
		}
		if depth == 0 && t.Value == sep {
			parts = append(parts, l.Slice(start, i))
			start = i + 1
		}
	}
	return append(parts, l.Slice(start, len(l.Tokens)))
}

// TopLevelCount counts occurrences of v outside any brackets.
func (l *TokenLine) TopLevelCount(v string) int {
	return len(l.Split(v)) - 1
}

// StripParens removes one pair of parentheses wrapping the whole line.
func (l *TokenLine) StripParens() *TokenLine {
	if l.First() == "(" && l.matching(0, "(", ")") == len(l.Tokens)-1 {
		return l.Slice(1, len(l.Tokens)-1)
	}
	return l.Copy()
}

// Text reconstructs the line by joining token values with single spaces.
func (l *TokenLine) Text() string {
	return strings.Join(l.Values(), " ")
}

// Render joins the tokens with host-language spacing.
func (l *TokenLine) Render() string {
	return render(l.Values())
}

// DominantLine returns the most common source line among the tokens; ties go
// to the line seen first.
func (l *TokenLine) DominantLine() int {
	counts := make(map[int]int)
	best, bestCount := -1, 0
	for _, t := range l.Tokens {
		if t.IsMarker() {
			continue
		}
		counts[t.Line]++
	}
	for _, t := range l.Tokens {
		if t.IsMarker() {
			continue
		}
		if c := counts[t.Line]; c > bestCount {
			best, bestCount = t.Line, c
		}
	}
	return best
}

// hostKeywords keep a space before an opening bracket when rendering.
var hostKeywords = setOf("if", "elif", "else", "while", "for", "in", "not", "and", "or", "is",
	"return", "yield", "await", "raise", "del", "assert", "lambda", "with", "as", "from",
	"import", "except", "async", "def", "class", "None", "True", "False")

// render joins values with Python-friendly spacing: no space inside
// brackets, before , : ) ] or around ., and no space between a name and the
// bracket of a call or subscript.
func render(values []string) string {
	var sb strings.Builder
	for i, v := range values {
		if i > 0 && needsSpace(values[i-1], v) {
			sb.WriteByte(' ')
		}
		sb.WriteString(v)
	}
	return sb.String()
}

func needsSpace(prev, cur string) bool {
	switch cur {
	case ")", "]", "}", ",", ":", ".":
		return false
	case "(", "[":
		if hostKeywords[prev] {
			return true
		}
		return !isCallable(prev)
	}
	switch prev {
	case "(", "[", "{", ".", "@":
		return false
	}
	return true
}

// isCallable reports whether a bracket directly after v is a call or subscript.
func isCallable(v string) bool {
	if v == ")" || v == "]" {
		return true
	}
	return isIdent(v) || isStringLiteral(v)
}
