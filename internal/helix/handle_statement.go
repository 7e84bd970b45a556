package helix

// handleStatement passes simple statements through with host spelling:
// throw becomes raise and catch becomes except.
func (t *Transpiler) handleStatement(c *lineCtx) ([]string, error) {
	line := c.line
	kw := line.First()
	if kw != "return" && kw != "yield" && t.atModuleLevel(c.current) {
		return nil, t.moduleLevel(line)
	}
	switch kw {
	case "throw":
		if line.Len() == 1 {
			return []string{"raise"}, nil
		}
		return []string{"raise " + line.Slice(1, line.Len()).Render()}, nil
	case "catch":
		return t.lowerCatch(line)
	case "return", "yield":
		if !t.inFunction() {
			return nil, t.fail(KindSyntax, "S053", line, []Token{line.Tokens[0]}, "%q outside a function", kw)
		}
	case "try", "finally":
		if line.Len() != 2 || line.Last() != ":" {
			return nil, t.fail(KindSyntax, "S054", line, nil, "expected '{' after %q", kw)
		}
	case "while":
		if line.Last() != ":" || line.Len() < 3 {
			return nil, t.fail(KindSyntax, "S054", line, nil, "expected a condition and '{' after 'while'")
		}
	case "break", "continue", "del", "assert":
	default:
		for _, tok := range line.Tokens {
			if t.tables.Keywords[tok.Value] == ConstructStatement {
				return nil, t.fail(KindSyntax, "S055", line, []Token{tok}, "%q must start the statement", tok.Value)
			}
		}
		return nil, t.fail(KindSyntax, "S055", line, nil, "unexpected statement")
	}
	return []string{line.Render()}, nil
}

// lowerCatch accepts catch, catch T, catch (T) and catch (e: T).
func (t *Transpiler) lowerCatch(line *TokenLine) ([]string, error) {
	if line.Last() != ":" {
		return nil, t.fail(KindSyntax, "S054", line, nil, "expected '{' after 'catch'")
	}
	clause := line.Slice(1, line.Len()-1).StripParens()
	if clause.Len() == 0 {
		return []string{"except:"}, nil
	}
	if parts := clause.Split(":"); len(parts) == 2 {
		name, typ := parts[0], parts[1]
		if name.Len() != 1 || !isIdent(name.First()) || typ.Len() == 0 {
			return nil, t.fail(KindSyntax, "S056", line, nil, "expected catch (name: Type)")
		}
		return []string{"except " + typ.Render() + " as " + name.First() + ":"}, nil
	}
	return []string{"except " + clause.Render() + ":"}, nil
}
