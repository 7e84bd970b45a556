package helix

import (
	"strings"
)

// fnHeader is a parsed function declaration.
type fnHeader struct {
	decorators []string
	modifiers  map[string]bool
	modTokens  map[string]Token
	name       string
	nameTok    Token
	params     []string
	returns    string
	noop       bool
}

func (t *Transpiler) parseFnHeader(c *lineCtx) (*fnHeader, error) {
	line := c.line
	h := &fnHeader{modifiers: map[string]bool{}, modTokens: map[string]Token{}}

	decorators, i, err := t.parseDecorators(line)
	if err != nil {
		return nil, err
	}
	h.decorators = decorators
	for ; i < line.Len() && t.tables.FunctionModifiers[line.At(i)]; i++ {
		m := line.Tokens[i]
		if h.modifiers[m.Value] {
			return nil, t.fail(KindSyntax, "S022", line, []Token{m}, "duplicate modifier %q", m.Value)
		}
		h.modifiers[m.Value] = true
		h.modTokens[m.Value] = m
	}
	if line.At(i) != "fn" {
		return nil, t.fail(KindSyntax, "S023", line, nil, "expected 'fn'")
	}
	i++

	if i >= line.Len() {
		return nil, t.fail(KindSyntax, "S024", line, nil, "function without a name")
	}
	h.nameTok = line.Tokens[i]
	name := line.At(i)
	switch {
	case name == "[" && line.At(i+1) == "]":
		name, i = "[]", i+2
	case name == "(" && line.At(i+1) == ")" && line.At(i+2) == "(":
		name, i = "()", i+2
	default:
		i++
	}
	if op, ok := t.tables.Operators[name]; ok {
		if !c.parent.Kind.ClassLike() {
			return nil, t.fail(KindSyntax, "S020", line, []Token{h.nameTok},
				"operator %q can only be overloaded inside a class", name)
		}
		name = op
	} else if !isIdent(name) {
		return nil, t.fail(KindSyntax, "S024", line, []Token{h.nameTok}, "invalid function name %q", name)
	}
	h.name = name

	// generic parameters are erased
	if line.At(i) == "<" {
		depth := 0
		for ; i < line.Len(); i++ {
			switch line.At(i) {
			case "<":
				depth++
			case ">":
				depth--
			case ">>":
				depth -= 2
			}
			if depth <= 0 {
				i++
				break
			}
		}
	}

	if line.At(i) != "(" {
		return nil, t.fail(KindSyntax, "S025", line, nil, "expected '(' after the name of %q", h.name)
	}
	end := line.matching(i, "(", ")")
	if end < 0 {
		return nil, t.fail(KindSyntax, "S005", line, []Token{line.Tokens[i]}, "parameter list is never closed")
	}
	params := line.Slice(i+1, end)
	if params.Len() > 0 {
		for _, p := range params.SplitGeneric(",") {
			s, err := t.parseParam(c, p)
			if err != nil {
				return nil, err
			}
			h.params = append(h.params, s)
		}
	}

	rest := line.Slice(end+1, line.Len())
	switch rest.Last() {
	case ":":
	case "...":
		h.noop = true
	default:
		return nil, t.fail(KindSyntax, "S021", line, nil, "expected '{' or '...' after the signature of %q", h.name)
	}
	rest = rest.Slice(0, rest.Len()-1)
	if rest.Len() > 0 {
		if rest.First() != "->" {
			return nil, t.fail(KindSyntax, "S026", line, []Token{rest.Tokens[0]}, "unexpected %q in the signature", rest.First())
		}
		ti, err := t.typeOf(rest.Slice(1, rest.Len()))
		if err != nil {
			return nil, err
		}
		h.returns = ti.annotation()
	}
	return h, nil
}

// parseParam renders one parameter and registers it in the function scope.
func (t *Transpiler) parseParam(c *lineCtx, p *TokenLine) (string, error) {
	if p.Len() == 0 {
		return "", t.fail(KindSyntax, "S027", c.line, nil, "empty parameter")
	}
	star := ""
	if p.First() == "..." {
		star, p = "*", p.Slice(1, p.Len())
	}
	nameTok := p.Tokens[0]
	name := nameTok.Value
	if nameTok.Kind != KindIdent {
		return "", t.fail(KindSyntax, "S027", c.line, []Token{nameTok}, "invalid parameter name %q", name)
	}

	var def *TokenLine
	if parts := p.Split("="); len(parts) > 1 {
		def = p.Slice(parts[0].Len()+1, p.Len())
		p = parts[0]
	}
	decl := &Decl{Name: name, Kind: "param", Line: nameTok.Line}
	out := star + name
	switch {
	case p.Len() == 1 && t.tables.SelfNames[name]:
	case p.Len() == 1:
		return "", t.fail(KindType, "T010", c.line, []Token{nameTok}, "parameter %q has no type", name).
			withHint("write %s: any to accept any value", name)
	case p.At(1) != ":":
		return "", t.fail(KindSyntax, "S027", c.line, []Token{p.Tokens[1]}, "expected ':' after parameter %q", name)
	default:
		ti, err := t.typeOf(p.Slice(2, p.Len()))
		if err != nil {
			return "", err
		}
		if ti.Void {
			return "", t.fail(KindType, "T011", c.line, p.Tokens[2:], "parameter %q cannot be void", name)
		}
		decl.Type, decl.Generic, decl.Nullable = ti.Text, ti.Generic, ti.Nullable
		out += ": " + ti.annotation()
	}
	if def != nil {
		out += " = " + def.Render()
	}
	c.current.Variables[name] = decl
	return out, nil
}

// handleFunction lowers fn declarations into decorated host functions.
func (t *Transpiler) handleFunction(c *lineCtx) ([]string, error) {
	h, err := t.parseFnHeader(c)
	if err != nil {
		return nil, err
	}
	if err := t.checkModifiers(c, h); err != nil {
		return nil, err
	}

	out := append([]string(nil), h.decorators...)
	if h.modifiers["static"] {
		out = append(out, "@staticmethod")
	}
	if h.modifiers["final"] {
		out = append(out, "@__helix__.final")
	}
	switch {
	case h.modifiers["private"]:
		out = append(out, "@__helix__.private")
	case h.modifiers["protected"]:
		out = append(out, "@__helix__.protected")
	}
	if c.parent.Kind == NamespaceInterface || c.parent.Kind == NamespaceAbstract {
		out = append(out, "@__helix__.abstract_method")
	}
	if !h.modifiers["unsafe"] {
		out = append(out, "@__helix__.type_checked")
	}

	var sig strings.Builder
	if h.modifiers["async"] {
		sig.WriteString("async ")
	}
	sig.WriteString("def ")
	sig.WriteString(h.name)
	sig.WriteString("(")
	sig.WriteString(strings.Join(h.params, ", "))
	sig.WriteString(")")
	if h.returns != "" {
		sig.WriteString(" -> ")
		sig.WriteString(h.returns)
	}
	sig.WriteString(":")
	if h.noop {
		sig.WriteString(" ...")
	}
	out = append(out, sig.String())

	c.parent.Functions[h.name] = &Decl{
		Name:      h.name,
		Kind:      "function",
		Type:      h.returns,
		Modifiers: h.modifiers,
		Signature: sig.String(),
		Line:      h.nameTok.Line,
	}
	return out, nil
}

// checkModifiers enforces the modifier combination rules.
func (t *Transpiler) checkModifiers(c *lineCtx, h *fnHeader) error {
	both := func(a, b string) bool { return h.modifiers[a] && h.modifiers[b] }
	switch {
	case both("static", "private"):
		return t.fail(KindSyntax, "S028", c.line, []Token{h.modTokens["static"], h.modTokens["private"]},
			"a function cannot be both static and private")
	case both("async", "unsafe"):
		return t.fail(KindSyntax, "S028", c.line, []Token{h.modTokens["async"], h.modTokens["unsafe"]},
			"a function cannot be both async and unsafe")
	}
	if c.parent.Kind.ClassLike() {
		return nil
	}
	for _, m := range []string{"static", "final"} {
		if h.modifiers[m] {
			return t.fail(KindSyntax, "S029", c.line, []Token{h.modTokens[m]},
				"%q is only allowed on methods", m)
		}
	}
	return nil
}
