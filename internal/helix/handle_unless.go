package helix

// handleUnless rewrites the conditional headers. unless C becomes
// if not (C); else if becomes elif; a bare else keeps its shape.
func (t *Transpiler) handleUnless(c *lineCtx) ([]string, error) {
	line := c.line
	if t.atModuleLevel(c.current) {
		return nil, t.moduleLevel(line)
	}
	if line.Last() != ":" {
		return nil, t.fail(KindSyntax, "S041", line, nil, "expected '{' after %q", line.First())
	}
	cond := line.Slice(1, line.Len()-1)

	switch line.First() {
	case "if":
		if cond.Len() == 0 {
			return nil, t.fail(KindSyntax, "S042", line, nil, "if without a condition")
		}
		return []string{line.Render()}, nil
	case "unless":
		if cond.Len() == 0 {
			return nil, t.fail(KindSyntax, "S042", line, nil, "unless without a condition")
		}
		return []string{"if not (" + cond.StripParens().Render() + "):"}, nil
	case "else":
		switch {
		case line.Len() == 2:
			return []string{"else:"}, nil
		case line.At(1) == "if" && line.Len() > 3:
			return []string{"elif " + line.Slice(2, line.Len()).Render()}, nil
		case line.At(1) == "unless" && line.Len() > 3:
			return []string{"elif not (" + line.Slice(2, line.Len()-1).StripParens().Render() + "):"}, nil
		}
	}
	return nil, t.fail(KindSyntax, "S040", line, nil, "unexpected %q at the start of a conditional", line.First()).
		withHint("conditions start with if, unless or else")
}
