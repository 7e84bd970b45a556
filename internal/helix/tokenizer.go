package helix

import (
	"strings"
)

// tokenPattern lists the token shapes in priority order. Alternation is
// leftmost-first in both engines, so multi-character operators must precede
// their single-character prefixes.
const tokenPattern = `(?:[fFrRbBuU]{1,2})?"(?:\\.|[^"\\])*"` +
	`|(?:[fFrRbBuU]{1,2})?'(?:\\.|[^'\\])*'` +
	`|\d+\.\d+|\d+` +
	`|\w+` +
	`|===|!==|\.\.\.|\*\*=|<<=|>>=|//=` +
	`|==|!=|->|<-|<=|>=|&&|\|\||::|\+\+|--|\+=|-=|\*=|/=|%=|&=|\|=|\^=|\*\*|<<|>>|=>` +
	`|[()\[\]{};,.:<>=+\-*/%&|^!~?@#$]` +
	`|\S`

// Tokenizer splits source lines into tokens. A Tokenizer carries the
// block-comment state across the lines of one file; use a fresh one per file.
type Tokenizer struct {
	tables  *Tables
	pattern Pattern
	file    string

	inBlockComment bool
	blockStart     Token // where the open block comment started
}

// NewTokenizer creates a tokenizer for one file.
func NewTokenizer(tables *Tables, engine Engine, file string) *Tokenizer {
	return &Tokenizer{
		tables:  tables,
		pattern: engine.MustCompile(tokenPattern),
		file:    file,
	}
}

// InBlockComment reports whether a block comment is still open.
func (t *Tokenizer) InBlockComment() bool {
	return t.inBlockComment
}

// Line tokenizes one raw source line. lineNo is 1-based.
func (t *Tokenizer) Line(raw string, lineNo int) ([]Token, error) {
	wasOpen := t.inBlockComment
	code, open := StripComments(raw, t.inBlockComment)
	if open && !wasOpen {
		t.blockStart = Token{Kind: KindOther, Value: "~*", Original: raw, Line: lineNo}
	}
	t.inBlockComment = open

	values := t.pattern.FindAll(code)
	tokens := make([]Token, 0, len(values))
	for _, v := range values {
		tok := Token{Kind: classify(v), Value: v, Original: raw, Line: lineNo}
		// a quote only falls through to the catch-all when its literal never closes
		if tok.Kind == KindOther && (v == `"` || v == "'") {
			return nil, errorAt(KindSyntax, "S006", t.file, []Token{tok}, "unterminated string literal").
				withHint("close the string with %s on the same line", v)
		}
		if tok.Kind == KindIdent && t.tables.Reserved[v] {
			return nil, errorAt(KindSyntax, "S001", t.file, []Token{tok},
				"`%s` is a reserved keyword and cannot be used here", v)
		}
		if r, ok := t.tables.Replace(v); ok {
			tok.Value = r
			tok.Kind = classify(r)
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// File tokenizes every line of src and returns the flat token stream. An
// unterminated block comment at EOF is an error reported at its opening line.
func (t *Tokenizer) File(src string) ([]Token, error) {
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	var all []Token
	for i, raw := range lines {
		toks, err := t.Line(raw, i+1)
		if err != nil {
			return nil, err
		}
		all = append(all, toks...)
	}
	if t.inBlockComment {
		return nil, errorAt(KindSyntax, "S002", t.file, []Token{t.blockStart},
			"unterminated block comment").withHint("close it with *~ or ~*~")
	}
	return all, nil
}

// StripComments removes line and block comments from one line. inBlock is the
// block-comment state entering the line; the state at the end of the line is
// returned. Quoted strings are never scanned for comment markers. Applying
// StripComments to its own output is a no-op.
func StripComments(line string, inBlock bool) (string, bool) {
	var sb strings.Builder
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inBlock {
			switch {
			case strings.HasPrefix(line[i:], "~*~"):
				inBlock = false
				i += 2
			case strings.HasPrefix(line[i:], "*~"):
				inBlock = false
				i++
			}
			continue
		}
		if quote != 0 {
			sb.WriteByte(c)
			if c == '\\' && i+1 < len(line) {
				i++
				sb.WriteByte(line[i])
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case c == '"' || c == '\'':
			quote = c
			sb.WriteByte(c)
		case strings.HasPrefix(line[i:], "~~"):
			return strings.TrimRight(sb.String(), " \t"), inBlock
		case strings.HasPrefix(line[i:], "~*~"):
			inBlock = true
			i += 2
		case strings.HasPrefix(line[i:], "~*"):
			inBlock = true
			i++
		default:
			sb.WriteByte(c)
		}
	}
	return strings.TrimRight(sb.String(), " \t"), inBlock
}

func classify(v string) TokenKind {
	c := v[0]
	switch {
	case isStringLiteral(v):
		return KindString
	case c >= '0' && c <= '9':
		return KindNumber
	case isWordByte(c):
		return KindIdent
	case len(v) > 1:
		return KindOperator
	case strings.ContainsRune("()[]{};,.:", rune(c)):
		return KindPunct
	case strings.ContainsRune("<>=+-*/%&|^!~?@#$", rune(c)):
		return KindOperator
	}
	return KindOther
}
