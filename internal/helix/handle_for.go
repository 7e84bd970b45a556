package helix

import (
	"fmt"
	"strings"
)

// handleFor lowers both loop grammars. A C-style header
//
//	for (var i: int = 0; i < n; i++)
//
// becomes the initial bindings, a condition closure, a step closure and an
// iteration over __helix__.CFor. A header whose top level contains "in" is a
// plain iteration. Names declared with var or unsafe are deleted once the
// loop scope closes.
func (t *Transpiler) handleFor(c *lineCtx) ([]string, error) {
	line := c.line
	if t.atModuleLevel(c.parent) {
		return nil, t.moduleLevel(line)
	}
	at := line.Index("for")
	if line.Last() != ":" {
		return nil, t.fail(KindSyntax, "S032", line, nil, "expected '{' after the for header")
	}
	header := line.Slice(at+1, line.Len()-1).StripParens()
	if header.Len() == 0 {
		return nil, t.fail(KindSyntax, "S031", line, nil, "empty for header")
	}

	switch semis := header.TopLevelCount(";"); {
	case semis == 2:
		return t.cStyleFor(c, header)
	case semis != 0:
		return nil, t.fail(KindSyntax, "S031", line, nil,
			"a C-style for header has three clauses, found %d", semis+1).withHint("for (init; condition; step)")
	case header.TopLevelCount("in") >= 1:
		return t.rangeFor(c, header)
	}
	return nil, t.fail(KindSyntax, "S031", line, nil, "malformed for header").
		withHint("use for (init; condition; step) or for (a in items)")
}

func (t *Transpiler) cStyleFor(c *lineCtx, header *TokenLine) ([]string, error) {
	clauses := header.Split(";")
	init, cond, step := clauses[0], clauses[1].StripParens(), clauses[2]

	var out []string
	var decls []declSpec
	if init.Len() > 0 {
		var err error
		if decls, err = t.parseDecls(init, "", true); err != nil {
			return nil, err
		}
		for _, d := range decls {
			l, err := t.declare(c.current, c.line, d, d.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, l)
		}
	}

	n := t.next()
	condName := fmt.Sprintf("__helix_cond_%d", n)
	stepName := fmt.Sprintf("__helix_step_%d", n)

	condExpr := "True"
	if cond.Len() > 0 {
		condExpr = cond.Render()
	}
	out = append(out,
		"def "+condName+"():",
		t.ind(1)+"return "+condExpr,
		"def "+stepName+"():")

	var stmts, rebound []string
	seen := map[string]bool{}
	for _, part := range step.Split(",") {
		if part.Len() == 0 {
			continue
		}
		if s, ok := lowerIncrement(part); ok {
			stmts = append(stmts, s)
		} else {
			stmts = append(stmts, part.Render())
		}
		for _, name := range assignedNames(part) {
			if !seen[name] {
				seen[name] = true
				rebound = append(rebound, name)
			}
		}
	}
	var locals, globals []string
	for _, name := range rebound {
		if t.rebindKeyword(name) == "global" {
			globals = append(globals, name)
		} else {
			locals = append(locals, name)
		}
	}
	if len(locals) > 0 {
		out = append(out, t.ind(1)+"nonlocal "+nameList(locals))
	}
	if len(globals) > 0 {
		out = append(out, t.ind(1)+"global "+nameList(globals))
	}
	if len(stmts) == 0 {
		stmts = []string{"pass"}
	}
	for _, s := range stmts {
		out = append(out, t.ind(1)+s)
	}
	out = append(out, fmt.Sprintf("for _ in __helix__.CFor(%s, %s):", condName, stepName))

	t.deferDelete(c.current, decls)
	return out, nil
}

func (t *Transpiler) rangeFor(c *lineCtx, header *TokenLine) ([]string, error) {
	names := header.Split("in")[0]
	iterable := header.Slice(names.Len()+1, header.Len())
	if names.Len() == 0 || iterable.Len() == 0 {
		return nil, t.fail(KindSyntax, "S031", c.line, nil, "expected names and an iterable around 'in'")
	}
	for _, tok := range names.Tokens {
		if tok.Value == ":" || tok.Value == "=" {
			return nil, t.fail(KindSyntax, "S030", c.line, []Token{tok},
				"loop variables cannot have a type or an initializer here")
		}
	}
	decls, err := t.parseDecls(names, "", false)
	if err != nil {
		return nil, err
	}
	targets := make([]string, 0, len(decls))
	for _, d := range decls {
		decl := &Decl{Name: d.Name.Value, Kind: "variable", Modifiers: map[string]bool{}, Line: d.Name.Line}
		if d.Modifier != "" {
			decl.Modifiers[d.Modifier] = true
		}
		c.current.Variables[d.Name.Value] = decl
		targets = append(targets, d.Name.Value)
	}

	var out []string
	// the loop may not run; bind the names so the deferred del cannot fail
	if scoped := declNames(decls, declSpec.scoped); len(scoped) > 0 {
		out = append(out, strings.Join(scoped, " = ")+" = None")
	}
	t.deferDelete(c.current, decls)
	return append(out, "for "+nameList(targets)+" in "+iterable.Render()+":"), nil
}

// deferDelete schedules "del" of the block-scoped names for when scope closes.
func (t *Transpiler) deferDelete(scope *Scope, decls []declSpec) {
	names := declNames(decls, declSpec.scoped)
	if len(names) == 0 {
		return
	}
	scope.Deferred = append(scope.Deferred, "del "+nameList(names))
}

// rebindKeyword picks the declaration a closure needs to rebind name. Names
// declared up to the innermost function belong to that function; names only
// the root declares are module globals.
func (t *Transpiler) rebindKeyword(name string) string {
	if !t.inFunction() {
		return "global"
	}
	for _, s := range t.chain() {
		if _, ok := s.Variables[name]; ok {
			return "nonlocal"
		}
		if s.Kind == NamespaceFunction {
			break
		}
	}
	if _, ok := t.tree.Root().Variables[name]; ok {
		return "global"
	}
	return "nonlocal"
}
