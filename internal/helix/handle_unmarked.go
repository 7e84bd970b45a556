package helix

import (
	"fmt"

	"github.com/helix-lang/helix/internal/debug"
)

// handleUnmarked handles lines without a keyword: expressions, assignments
// and increments.
func (t *Transpiler) handleUnmarked(c *lineCtx) ([]string, error) {
	line := c.line
	if t.atModuleLevel(c.current) {
		return nil, t.moduleLevel(line)
	}
	if s, ok := lowerIncrement(line); ok {
		return []string{s}, nil
	}

	sides := line.Split("=")
	switch len(sides) {
	case 1:
		return []string{line.Render()}, nil
	case 2:
	default:
		return nil, t.fail(KindSyntax, "S051", line, nil, "chained assignment is not supported").
			withHint("assign each target separately")
	}
	if sides[0].Len() == 0 || sides[1].Len() == 0 {
		return nil, t.fail(KindSyntax, "S052", line, nil, "assignment needs a target and a value")
	}

	targets := sides[0].Split(",")
	values := sides[1].Split(",")
	if err := t.checkArity(line, len(targets), len(values)); err != nil {
		return nil, err
	}
	for _, tg := range targets {
		if err := t.checkConst(line, tg); err != nil {
			return nil, err
		}
	}

	if len(targets) == 1 {
		return t.assign(targets[0], values[0].Render()), nil
	}
	tmp := fmt.Sprintf("__helix_unpack_%d", t.next())
	rendered := make([]string, len(values))
	for i, v := range values {
		rendered[i] = v.Render()
	}
	out := []string{tmp + " = (" + nameList(rendered) + ")"}
	for i, tg := range targets {
		out = append(out, t.assign(tg, fmt.Sprintf("%s[%d]", tmp, i))...)
	}
	return append(out, "del "+tmp), nil
}

// assign emits one assignment. Outside functions, to self attributes and to
// names no open scope declares it is a plain rebinding; otherwise the value
// goes through the wrapper's __set__ when it has one.
func (t *Transpiler) assign(target *TokenLine, value string) []string {
	tgt := target.Render()
	switch {
	case !t.inFunction():
		return []string{tgt + " = " + value}
	case target.Len() > 2 && t.tables.SelfNames[target.First()] && target.At(1) == ".":
		return []string{tgt + " = " + value}
	case target.Len() == 1 && isIdent(tgt):
		if _, ok := t.lookupVariable(tgt); !ok {
			debug.Log("%s:%d: %q is not declared in an open scope; plain assignment",
				target.File, target.DominantLine(), tgt)
			return []string{tgt + " = " + value}
		}
	}
	return []string{
		"try:",
		t.ind(1) + tgt + ".__set__(" + value + ")",
		"except AttributeError:",
		t.ind(1) + tgt + " = " + value,
		t.ind(1) + "__helix__.warn_rebind(" + quoted(tgt) + ")",
	}
}

// checkConst rejects assignment to a const name.
func (t *Transpiler) checkConst(line *TokenLine, target *TokenLine) error {
	if target.Len() != 1 {
		return nil
	}
	if d, ok := t.lookupVariable(target.First()); ok && d.Modifiers["const"] {
		return t.fail(KindType, "T030", line, target.Tokens, "cannot assign to constant %q", d.Name)
	}
	return nil
}
