package helix

// frame is one open bracket awaiting its closer.
type frame struct {
	open   Token
	block  bool  // a { that opened an indented body
	opener Token // body-required keyword that owns a block
	outLen int   // stream length right after the block's indent marker
}

var closers = map[string]string{")": "(", "]": "["}

// Normalize restructures the flat token stream of one file into indent-tagged
// logical lines.
func Normalize(tables *Tables, file string, tokens []Token) ([]*TokenLine, error) {
	stream, err := Annotate(tables, file, tokens)
	if err != nil {
		return nil, err
	}
	return Group(file, stream), nil
}

// Annotate rewrites block braces and semicolons into markers. A { that follows
// a body-required keyword at bracket depth zero becomes ":" plus an end marker
// and an indent tag for the new depth; its } becomes an end marker and a
// dedent tag. Semicolons become end markers, except inside a for header where
// they stay literal until the loop's own body opens. A keyword only owns a body
// when it starts its statement, after any #[...] decorators and modifiers, so
// "a if b else {}" keeps its dict literal.
func Annotate(tables *Tables, file string, tokens []Token) ([]Token, error) {
	var (
		out     []Token
		frames  []frame
		indent  int
		pending bool
		opener  Token
		inFor   bool
		start   = true // no statement token seen yet besides decorators and modifiers
	)
	topLevel := func() bool {
		return len(frames) == 0 || frames[len(frames)-1].block
	}

	for i, tok := range tokens {
		v := tok.Value
		switch {
		case tok.Kind == KindIdent && tables.BodyRequired[v] && topLevel():
			if start && !pending {
				pending, opener = true, tok
				inFor = v == "for"
			}
			start = false
			out = append(out, tok)

		case v == "(" || v == "[":
			decorator := v == "[" && i > 0 && tokens[i-1].Value == "#"
			if topLevel() && !decorator {
				start = false
			}
			frames = append(frames, frame{open: tok})
			out = append(out, tok)

		case v == ")" || v == "]":
			if len(frames) == 0 || frames[len(frames)-1].block || frames[len(frames)-1].open.Value != closers[v] {
				return nil, mismatch(file, frames, tok)
			}
			frames = frames[:len(frames)-1]
			out = append(out, tok)

		case v == "{":
			if pending && topLevel() {
				indent++
				out = append(out,
					synthetic(tok, KindPunct, ":"),
					synthetic(tok, KindEnd, EndMarker),
					synthetic(tok, KindIndent, IndentMarker(indent)))
				frames = append(frames, frame{open: tok, block: true, opener: opener, outLen: len(out)})
				pending, inFor, start = false, false, true
				continue
			}
			if topLevel() {
				start = false
			}
			frames = append(frames, frame{open: tok})
			out = append(out, tok)

		case v == "}":
			if len(frames) == 0 {
				return nil, errorAt(KindSyntax, "S003", file, []Token{tok}, "unmatched '}'")
			}
			top := frames[len(frames)-1]
			if !top.block {
				if top.open.Value != "{" {
					return nil, mismatch(file, frames, tok)
				}
				frames = frames[:len(frames)-1]
				out = append(out, tok)
				continue
			}
			frames = frames[:len(frames)-1]
			if len(out) == top.outLen {
				// empty body: give the block a no-op statement
				out = append(out, synthetic(tok, KindOperator, "..."))
			}
			indent--
			out = append(out,
				synthetic(tok, KindEnd, EndMarker),
				synthetic(tok, KindDedent, IndentMarker(indent)))
			pending, start = false, true

		case v == ";":
			if inFor {
				out = append(out, tok)
				continue
			}
			if !topLevel() {
				return nil, mismatch(file, frames, tok)
			}
			out = append(out, synthetic(tok, KindEnd, EndMarker))
			pending, start = false, true

		case v == "..." && topLevel() && trailing(tokens, i):
			out = append(out, tok, synthetic(tok, KindEnd, EndMarker))
			pending, start = false, true

		default:
			if topLevel() && !prefixToken(tables, tok) {
				start = false
			}
			out = append(out, tok)
		}
	}

	if len(frames) > 0 {
		top := frames[len(frames)-1]
		if top.block {
			at := top.opener
			if at.Value == "" {
				at = top.open
			}
			return nil, errorAt(KindSyntax, "S004", file, []Token{at, top.open},
				"block opened here is never closed").withHint("add the missing '}'")
		}
		return nil, errorAt(KindSyntax, "S004", file, []Token{top.open}, "unclosed %q", top.open.Value)
	}
	return out, nil
}

// prefixToken reports whether tok may precede a body keyword in the same
// statement: a decorator mark or a modifier.
func prefixToken(tables *Tables, tok Token) bool {
	if tok.Value == "#" {
		return true
	}
	return tok.Kind == KindIdent && (tables.FunctionModifiers[tok.Value] || tables.ClassModifiers[tok.Value])
}

// trailing reports whether the ... at i ends its statement: it is the last
// token on its source line (or before a closing brace) and no ; follows.
func trailing(tokens []Token, i int) bool {
	if i+1 >= len(tokens) {
		return true
	}
	next := tokens[i+1]
	if next.Value == ";" {
		return false
	}
	return next.Value == "}" || next.Line != tokens[i].Line
}

// mismatch reports a closer that does not balance, at the originating opener
// when there is one.
func mismatch(file string, frames []frame, closer Token) *Error {
	if len(frames) > 0 && !frames[len(frames)-1].block {
		open := frames[len(frames)-1].open
		return errorAt(KindSyntax, "S005", file, []Token{open, closer},
			"%q is never closed before %q", open.Value, closer.Value)
	}
	return errorAt(KindSyntax, "S003", file, []Token{closer}, "unmatched %q", closer.Value)
}

func synthetic(at Token, kind TokenKind, value string) Token {
	return Token{Kind: kind, Value: value, Original: at.Original, Line: at.Line}
}

// Group splits an annotated stream into TokenLines at end markers, tagging
// each line with the depth of the most recent indent tag.
func Group(file string, stream []Token) []*TokenLine {
	var (
		lines  []*TokenLine
		cur    []Token
		indent int
	)
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, NewTokenLine(file, indent, cur))
			cur = nil
		}
	}
	for _, t := range stream {
		switch t.Kind {
		case KindEnd:
			flush()
		case KindIndent, KindDedent:
			flush()
			indent, _ = ParseIndentMarker(t.Value)
		default:
			cur = append(cur, t)
		}
	}
	flush()
	return lines
}
