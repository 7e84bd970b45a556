package helix

// declModifiers may prefix each name of a declaration list.
var declModifiers = setOf("let", "var", "const", "unsafe")

// declSpec is one name of a declaration list such as
// let a: int = 1, var b: string?
type declSpec struct {
	Name     Token
	Modifier string
	Type     *TokenLine // nil when untyped
	Value    *TokenLine // nil when not initialized
}

// scoped reports whether the name must be deleted when its loop closes.
func (d declSpec) scoped() bool {
	return d.Modifier == "var" || d.Modifier == "unsafe"
}

type declState int

const (
	declStart declState = iota
	declName
	declType
	declValue
)

// parseDecls reads a comma separated declaration list. A modifier applies to
// the name it precedes and to every later name until the next modifier.
// Inline values are accepted only when inline is set (for-loop headers).
func (t *Transpiler) parseDecls(tl *TokenLine, modifier string, inline bool) ([]declSpec, error) {
	var (
		out   []declSpec
		cur   declSpec
		state = declStart
		from  int
		depth int
	)
	finish := func(end int) {
		switch state {
		case declType:
			cur.Type = tl.Slice(from, end)
		case declValue:
			cur.Value = tl.Slice(from, end)
		}
		out = append(out, cur)
		state = declStart
	}

	for i, tok := range tl.Tokens {
		v := tok.Value
		switch state {
		case declStart:
			switch {
			case declModifiers[v]:
				modifier = v
			case tok.Kind == KindIdent:
				cur = declSpec{Name: tok, Modifier: modifier}
				state = declName
			default:
				return nil, t.fail(KindSyntax, "S061", tl, []Token{tok}, "expected a name, found %q", v)
			}

		case declName:
			switch {
			case v == ",":
				finish(i)
			case v == ":":
				state, from, depth = declType, i+1, 0
			case v == "=" && inline:
				state, from, depth = declValue, i+1, 0
			default:
				return nil, t.fail(KindSyntax, "S062", tl, []Token{tok}, "unexpected %q after %q", v, cur.Name.Value)
			}

		case declType:
			switch v {
			case "<", "(", "[":
				depth++
			case ">", ")", "]":
				depth--
			case ">>":
				depth -= 2
			}
			switch {
			case depth == 0 && v == ",":
				finish(i)
			case depth == 0 && v == "=" && inline:
				cur.Type = tl.Slice(from, i)
				state, from = declValue, i+1
			case depth == 0 && v == "=":
				return nil, t.fail(KindSyntax, "S062", tl, []Token{tok}, "unexpected '=' in declaration list")
			}

		case declValue:
			switch v {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				depth--
			}
			if depth == 0 && v == "," {
				finish(i)
			}
		}
	}

	switch {
	case state == declStart && len(out) > 0:
		last := tl.Tokens[len(tl.Tokens)-1]
		return nil, t.fail(KindSyntax, "S061", tl, []Token{last}, "expected a name after %q", last.Value)
	case state == declStart:
		return nil, t.fail(KindSyntax, "S061", tl, nil, "empty declaration")
	}
	finish(tl.Len())

	for _, d := range out {
		if d.Type != nil && d.Type.Len() == 0 {
			return nil, t.fail(KindSyntax, "S070", tl, []Token{d.Name}, "missing type for %q", d.Name.Value)
		}
		if d.Value != nil && d.Value.Len() == 0 {
			return nil, t.fail(KindSyntax, "S063", tl, []Token{d.Name}, "missing value for %q", d.Name.Value)
		}
	}
	inheritTypes(out)
	return out, nil
}

// inheritTypes gives every untyped name the type of the nearest typed name
// declared after it: in "a, b: int" both are ints.
func inheritTypes(decls []declSpec) {
	var next *TokenLine
	for i := len(decls) - 1; i >= 0; i-- {
		switch {
		case decls[i].Type != nil:
			next = decls[i].Type
		case next != nil:
			decls[i].Type = next.Copy()
		}
	}
}

// declare emits one typed binding and records it in scope.
func (t *Transpiler) declare(scope *Scope, tl *TokenLine, d declSpec, value *TokenLine) (string, error) {
	name := d.Name.Value
	if _, dup := scope.Variables[name]; dup {
		return "", t.fail(KindType, "T020", tl, []Token{d.Name}, "%q is already declared in this scope", name)
	}
	decl := &Decl{
		Name:      name,
		Kind:      "variable",
		Modifiers: map[string]bool{},
		Line:      d.Name.Line,
	}
	if d.Modifier != "" {
		decl.Modifiers[d.Modifier] = true
	}

	val := ""
	if value != nil {
		val = value.Render()
	}
	var line string
	if d.Type == nil {
		if val == "" {
			val = "None"
		}
		line = name + " = " + val
	} else {
		ti, err := t.typeOf(d.Type)
		if err != nil {
			return "", err
		}
		if ti.Void {
			return "", t.fail(KindType, "T021", tl, d.Type.Tokens, "%q cannot have type void", name)
		}
		decl.Type, decl.Generic, decl.Nullable = ti.Text, ti.Generic, ti.Nullable
		line = name + ": " + ti.annotation() + " = " + ti.construct(val)
	}
	scope.Variables[name] = decl
	return line, nil
}

// declNames returns the names of decls matching keep.
func declNames(decls []declSpec, keep func(declSpec) bool) []string {
	var names []string
	for _, d := range decls {
		if keep(d) {
			names = append(names, d.Name.Value)
		}
	}
	return names
}

// lowerIncrement rewrites x++, ++x, x-- and --x into augmented assignments.
func lowerIncrement(tl *TokenLine) (string, bool) {
	if tl.Len() < 2 {
		return "", false
	}
	op, target := "", (*TokenLine)(nil)
	switch {
	case tl.Last() == "++" || tl.Last() == "--":
		op, target = tl.Last(), tl.Slice(0, tl.Len()-1)
	case tl.First() == "++" || tl.First() == "--":
		op, target = tl.First(), tl.Slice(1, tl.Len())
	default:
		return "", false
	}
	if target.Contains("++") || target.Contains("--") {
		return "", false
	}
	if op == "++" {
		return target.Render() + " += 1", true
	}
	return target.Render() + " -= 1", true
}

// assignedNames lists the simple identifiers a statement assigns to.
func assignedNames(tl *TokenLine) []string {
	if tl.Len() == 0 {
		return nil
	}
	var target *TokenLine
	switch {
	case tl.Last() == "++" || tl.Last() == "--":
		target = tl.Slice(0, tl.Len()-1)
	case tl.First() == "++" || tl.First() == "--":
		target = tl.Slice(1, tl.Len())
	default:
		for i, tok := range tl.Tokens {
			if tok.Value == "=" || augmented[tok.Value] {
				target = tl.Slice(0, i)
				break
			}
		}
	}
	if target == nil {
		return nil
	}
	var names []string
	for _, part := range target.Split(",") {
		if part.Len() == 1 && isIdent(part.First()) {
			names = append(names, part.First())
		}
	}
	return names
}

var augmented = setOf("+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "**=", "<<=", ">>=", "//=")
