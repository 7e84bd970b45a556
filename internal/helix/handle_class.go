package helix

import (
	"strings"
)

// builtinBases are the runtime bases implied by the declaring keyword.
var builtinBases = map[string]string{
	"interface": "__helix__.Interface",
	"enum":      "__helix__.Enum",
	"abstract":  "__helix__.Abstract",
}

// hostBases may be extended without being declared in Helix source.
var hostBases = setOf("object", "Exception", "BaseException", "ValueError", "TypeError",
	"RuntimeError", "KeyError", "IndexError", "NotImplementedError", "AttributeError")

// classHeader is a parsed class-like declaration.
type classHeader struct {
	decorators []string
	modifiers  map[string]bool
	keyword    string
	name       Token
	extends    []string
	extendTok  [][]Token
}

func (t *Transpiler) parseClassHeader(c *lineCtx) (*classHeader, error) {
	line := c.line
	if line.Last() != ":" {
		return nil, t.fail(KindSyntax, "S012", line, nil, "expected '{' after the %s header", line.First())
	}
	body := line.Slice(0, line.Len()-1)
	h := &classHeader{modifiers: map[string]bool{}}

	decorators, i, err := t.parseDecorators(body)
	if err != nil {
		return nil, err
	}
	h.decorators = decorators
	for ; i < body.Len() && t.tables.ClassModifiers[body.At(i)]; i++ {
		m := body.Tokens[i]
		if h.modifiers[m.Value] {
			return nil, t.fail(KindSyntax, "S013", line, []Token{m}, "duplicate modifier %q", m.Value)
		}
		h.modifiers[m.Value] = true
	}
	if _, ok := t.tables.ScopeOpening[body.At(i)]; !ok || body.At(i) == "fn" || body.At(i) == "for" {
		return nil, t.fail(KindSyntax, "S010", line, nil, "expected a class declaration")
	}
	h.keyword = body.At(i)
	if i+1 >= body.Len() || body.Tokens[i+1].Kind != KindIdent {
		return nil, t.fail(KindSyntax, "S011", line, nil, "%s declaration without a name", h.keyword)
	}
	h.name = body.Tokens[i+1]

	rest := body.Slice(i+2, body.Len())
	if rest.Len() == 0 {
		return h, nil
	}
	// "::" has become "." by now
	if rest.First() != "." {
		return nil, t.fail(KindSyntax, "S010", line, []Token{rest.Tokens[0]},
			"unexpected %q after the name of %s %q", rest.First(), h.keyword, h.name.Value).
			withHint("extend with %s %s :: Base", h.keyword, h.name.Value)
	}
	for _, part := range rest.Slice(1, rest.Len()).StripParens().Split(",") {
		var name strings.Builder
		var toks []Token
		for _, tok := range part.Tokens {
			if tok.Value == "(" || tok.Value == ")" {
				continue
			}
			name.WriteString(tok.Value)
			toks = append(toks, tok)
		}
		if name.Len() == 0 {
			return nil, t.fail(KindSyntax, "S011", line, nil, "empty base in the extends list of %q", h.name.Value)
		}
		h.extends = append(h.extends, name.String())
		h.extendTok = append(h.extendTok, toks)
	}
	return h, nil
}

// parseDecorators reads leading #[a, b(1)] blocks. It returns the host
// decorator expressions and the index after the last block.
func (t *Transpiler) parseDecorators(line *TokenLine) ([]string, int, error) {
	var out []string
	i := 0
	for line.At(i) == "#" && line.At(i+1) == "[" {
		end := line.matching(i+1, "[", "]")
		if end < 0 {
			return nil, 0, t.fail(KindSyntax, "S005", line, []Token{line.Tokens[i+1]}, "decorator block is never closed")
		}
		for _, d := range line.Slice(i+2, end).Split(",") {
			if d.Len() > 0 {
				out = append(out, "@"+d.Render())
			}
		}
		i = end + 1
	}
	return out, i, nil
}

// handleClass lowers class, struct, union, enum, interface and abstract
// declarations.
func (t *Transpiler) handleClass(c *lineCtx) ([]string, error) {
	h, err := t.parseClassHeader(c)
	if err != nil {
		return nil, err
	}
	name := h.name.Value
	if _, dup := c.parent.Classes[name]; dup {
		return nil, t.fail(KindType, "T002", c.line, []Token{h.name}, "%q is already declared in this scope", name)
	}

	for i, base := range h.extends {
		if err := t.checkBase(c, base, h.extendTok[i]); err != nil {
			return nil, err
		}
	}

	bases := append([]string(nil), h.extends...)
	if b, ok := builtinBases[h.keyword]; ok {
		bases = append(bases, b)
	}
	if h.modifiers["unsafe"] {
		bases = append(bases, "metaclass=__helix__.Permissive")
	}

	out := append([]string(nil), h.decorators...)
	if h.modifiers["static"] {
		out = append(out, "@__helix__.singleton")
	}
	if len(bases) > 0 {
		out = append(out, "class "+name+"("+strings.Join(bases, ", ")+"):")
	} else {
		out = append(out, "class "+name+":")
	}
	// subclasses inherit their base's constructor
	if h.keyword == "class" && len(h.extends) == 0 && !t.declaresFunction(c.current, "__init__") {
		out = append(out,
			t.ind(1)+"def __init__(self, *args, **kwargs):",
			t.ind(2)+"raise NotImplementedError("+quoted(name+" does not define a constructor (fn new)")+")")
	}

	c.parent.Classes[name] = &Decl{
		Name:      name,
		Kind:      h.keyword,
		Modifiers: h.modifiers,
		Extends:   h.extends,
		Line:      h.name.Line,
	}
	return out, nil
}

// checkBase validates one name of an extends list.
func (t *Transpiler) checkBase(c *lineCtx, base string, toks []Token) error {
	if decl, ok := t.lookupClass(base); ok {
		if decl.Modifiers["final"] {
			return t.fail(KindType, "T001", c.line, toks, "cannot extend final %s %q", decl.Kind, base)
		}
		return nil
	}
	if hostBases[base] {
		return nil
	}
	// a dotted base is resolved at runtime through its included module
	if head, _, dotted := strings.Cut(base, "."); dotted {
		if _, ok := t.lookupVariable(head); ok {
			return nil
		}
	}
	err := t.fail(KindName, "N001", c.line, toks, "name %q is not defined", base)
	if hint := suggest(base, t.knownClasses()); hint != "" {
		err = err.withHint("%s", hint)
	} else {
		err = err.withHint("declare %q before extending it", base)
	}
	return err
}

// declaresFunction reports whether scope directly contains fn name.
func (t *Transpiler) declaresFunction(scope *Scope, name string) bool {
	for _, ch := range scope.Children {
		if !ch.IsScope() {
			continue
		}
		s := t.tree.Get(ch.Scope)
		if s.Kind != NamespaceFunction {
			continue
		}
		at := s.Header.Index("fn")
		if at >= 0 && s.Header.At(at+1) == name {
			return true
		}
	}
	return false
}
