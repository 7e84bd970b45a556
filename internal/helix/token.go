package helix

import (
	"fmt"
	"strconv"
	"strings"
)

// TokenKind classifies a token.
type TokenKind int

const (
	KindIdent    TokenKind = iota // identifier or keyword
	KindNumber                    // 12, 1.5
	KindString                    // "...", '...', f"..."
	KindOperator                  // ==, +=, ->, ...
	KindPunct                     // ( ) [ ] { } , ; : .
	KindOther                     // any other non-space character
	KindEnd                       // synthetic end of statement
	KindIndent                    // synthetic indent tag, depth increased
	KindDedent                    // synthetic indent tag, depth decreased
)

var kindNames = map[TokenKind]string{
	KindIdent:    "Ident",
	KindNumber:   "Number",
	KindString:   "String",
	KindOperator: "Operator",
	KindPunct:    "Punct",
	KindOther:    "Other",
	KindEnd:      "End",
	KindIndent:   "Indent",
	KindDedent:   "Dedent",
}

// String returns a human-readable name for the kind.
func (k TokenKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TokenKind(%d)", k)
}

// Marker values used by the normalizer.
const (
	EndMarker = `<\n>`
)

// IndentMarker returns the indent-tag marker value for depth n.
func IndentMarker(n int) string {
	return `<\t:` + strconv.Itoa(n) + `>`
}

// ParseIndentMarker returns the depth encoded in an indent-tag marker.
func ParseIndentMarker(v string) (int, bool) {
	if !strings.HasPrefix(v, `<\t:`) || !strings.HasSuffix(v, ">") {
		return 0, false
	}
	n, err := strconv.Atoi(v[len(`<\t:`) : len(v)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Token is one lexical unit. Value may be rewritten by the tokenizer's early
// replacements and by the normalizer; Indent is assigned during normalization.
type Token struct {
	Kind     TokenKind
	Value    string
	Original string // full source line the token came from
	Line     int    // 1-based
	Indent   int
}

// String returns a debug representation of the token.
func (t Token) String() string {
	v := t.Value
	if len(v) > 20 {
		v = v[:17] + "..."
	}
	return fmt.Sprintf("%s(%q) at line %d", t.Kind, v, t.Line)
}

// IsMarker reports whether the token is synthetic.
func (t Token) IsMarker() bool {
	return t.Kind == KindEnd || t.Kind == KindIndent || t.Kind == KindDedent
}

// Position is a source location for error reporting.
type Position struct {
	File string
	Line int
}

// String returns a formatted position string.
func (p Position) String() string {
	if p.File == "" {
		return strconv.Itoa(p.Line)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

func isIdent(v string) bool {
	if v == "" {
		return false
	}
	for i, r := range v {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func isStringLiteral(v string) bool {
	v = strings.TrimLeft(v, "fFrRbBuU")
	return len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0]
}

// unquote strips the quotes and any prefix from a string literal token.
func unquote(v string) string {
	v = strings.TrimLeft(v, "fFrRbBuU")
	if len(v) >= 2 {
		return v[1 : len(v)-1]
	}
	return v
}
