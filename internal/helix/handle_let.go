package helix

// handleLet lowers let, var and const declarations:
//
//	let a: int, b: string? = 1, null
//
// becomes one annotated binding per name.
func (t *Transpiler) handleLet(c *lineCtx) ([]string, error) {
	line := c.line
	at := 0
	for at < line.Len() && !declModifiers[line.At(at)] {
		at++
	}
	sides := line.Split("=")
	if len(sides) > 2 {
		return nil, t.fail(KindSyntax, "S060", line, nil, "only one '=' is allowed in a declaration").
			withHint("unpack with comma lists: let a, b = 1, 2")
	}

	left := sides[0].Slice(at+1, sides[0].Len())
	decls, err := t.parseDecls(left, line.At(at), false)
	if err != nil {
		return nil, err
	}

	var values []*TokenLine
	if len(sides) == 2 {
		if sides[1].Len() == 0 {
			return nil, t.fail(KindSyntax, "S063", line, nil, "missing value after '='")
		}
		values = sides[1].Split(",")
		if err := t.checkArity(line, len(decls), len(values)); err != nil {
			return nil, err
		}
	}

	out := make([]string, 0, len(decls))
	for i, d := range decls {
		var v *TokenLine
		if values != nil {
			v = values[i]
		}
		l, err := t.declare(c.current, line, d, v)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// checkArity rejects unbalanced comma unpacking.
func (t *Transpiler) checkArity(line *TokenLine, targets, values int) error {
	switch {
	case values > targets:
		return t.fail(KindSemantic, "V001", line, nil,
			"too many values to unpack (expected %d, got %d)", targets, values)
	case values < targets:
		return t.fail(KindSemantic, "V002", line, nil,
			"not enough values to unpack (expected %d, got %d)", targets, values)
	}
	return nil
}
