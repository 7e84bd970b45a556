package helix

import (
	"fmt"
	"strings"

	"github.com/helix-lang/helix/internal/debug"
)

// lineCtx is what a construct handler sees for one line.
type lineCtx struct {
	line    *TokenLine
	current *Scope
	parent  *Scope
	root    *Scope
}

// handler rewrites one line into host source. The returned lines are relative
// to the line's own indentation.
type handler func(t *Transpiler, c *lineCtx) ([]string, error)

// handlerFor returns the handler bound to a construct.
func handlerFor(c Construct) handler {
	switch c {
	case ConstructClass:
		return (*Transpiler).handleClass
	case ConstructFor:
		return (*Transpiler).handleFor
	case ConstructLet:
		return (*Transpiler).handleLet
	case ConstructUnless:
		return (*Transpiler).handleUnless
	case ConstructFunction:
		return (*Transpiler).handleFunction
	case ConstructInclude:
		return (*Transpiler).handleInclude
	case ConstructStatement:
		return (*Transpiler).handleStatement
	}
	return (*Transpiler).handleUnmarked
}

// ProcessedLine is one rewritten fragment plus the line it came from.
type ProcessedLine struct {
	Line   string
	Source *TokenLine
}

// LineNumbers returns one original line number per output line of Line.
func (p ProcessedLine) LineNumbers() []int {
	n := strings.Count(p.Line, "\n") + 1
	dominant := -1
	if p.Source != nil {
		dominant = p.Source.DominantLine()
	}
	out := make([]int, n)
	for i := range out {
		out[i] = dominant
	}
	return out
}

// Transpiler walks a scope tree and rewrites every line.
type Transpiler struct {
	tables     *Tables
	engine     Engine
	indentUnit string

	// IgnoreMain allows statements at module level (REPL evaluation).
	IgnoreMain bool

	tree     *Tree
	stack    []ScopeID
	out      []ProcessedLine
	counter  int
	includes []includeShape
}

// NewTranspiler creates a transpiler. indentUnit is one level of output
// indentation.
func NewTranspiler(tables *Tables, engine Engine, indentUnit string) *Transpiler {
	if indentUnit == "" {
		indentUnit = "    "
	}
	return &Transpiler{
		tables:     tables,
		engine:     engine,
		indentUnit: indentUnit,
		includes:   compileIncludeShapes(engine),
	}
}

// Transpile rewrites the whole tree in visitation order.
func (t *Transpiler) Transpile(tree *Tree) ([]ProcessedLine, error) {
	t.tree = tree
	t.stack = t.stack[:0]
	t.out = nil
	t.counter = 0

	for _, c := range tree.Root().Children {
		if err := t.visit(c); err != nil {
			return nil, err
		}
	}
	debug.Log("transpile %s: %d scopes, %d fragments", tree.File, tree.Len(), len(t.out))
	return t.out, nil
}

func (t *Transpiler) visit(c Child) error {
	if !c.IsScope() {
		return t.dispatch(c.Line)
	}
	s := t.tree.Get(c.Scope)
	t.stack = append(t.stack, s.ID)
	if err := t.dispatch(s.Header); err != nil {
		return err
	}
	for _, child := range s.Children {
		if err := t.visit(child); err != nil {
			return err
		}
	}
	t.stack = t.stack[:len(t.stack)-1]
	for _, frag := range s.Deferred {
		t.emit(s.Header, s.Indent, []string{frag})
	}
	return nil
}

// current returns the innermost open scope, or the root.
func (t *Transpiler) current() *Scope {
	if len(t.stack) == 0 {
		return t.tree.Root()
	}
	return t.tree.Get(t.stack[len(t.stack)-1])
}

// parent returns the scope enclosing current, or the root.
func (t *Transpiler) parent() *Scope {
	if len(t.stack) < 2 {
		return t.tree.Root()
	}
	return t.tree.Get(t.stack[len(t.stack)-2])
}

// chain returns the open scopes from innermost to the root.
func (t *Transpiler) chain() []*Scope {
	out := make([]*Scope, 0, len(t.stack)+1)
	for i := len(t.stack) - 1; i >= 0; i-- {
		out = append(out, t.tree.Get(t.stack[i]))
	}
	return append(out, t.tree.Root())
}

// inFunction reports whether any open scope is a function.
func (t *Transpiler) inFunction() bool {
	for _, s := range t.chain() {
		if s.Kind == NamespaceFunction {
			return true
		}
	}
	return false
}

// atModuleLevel reports whether code directly in s runs at import time:
// s is the root, no function is open and module statements are not allowed.
func (t *Transpiler) atModuleLevel(s *Scope) bool {
	return !t.IgnoreMain && s.ID == RootID && !t.inFunction()
}

// moduleLevel is the error for executable code outside fn main.
func (t *Transpiler) moduleLevel(line *TokenLine) error {
	return t.fail(KindSyntax, "S050", line, nil, "statements are not allowed at module level").
		withHint("move the statement into fn main()")
}

func (t *Transpiler) dispatch(line *TokenLine) error {
	construct := t.construct(line)
	c := &lineCtx{line: line, current: t.current(), parent: t.parent(), root: t.tree.Root()}
	out, err := handlerFor(construct)(t, c)
	if err != nil {
		return err
	}
	t.emit(line, line.Indent, out)
	return nil
}

// construct finds the first top-level keyword of the line. The scan stops at
// the first top-level "=" and ignores attribute names such as obj.include.
func (t *Transpiler) construct(line *TokenLine) Construct {
	depth := 0
	for i, tok := range line.Tokens {
		switch tok.Value {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case "=":
			if depth == 0 {
				return ConstructUnmarked
			}
		}
		if depth != 0 || tok.Kind != KindIdent || (i > 0 && line.Tokens[i-1].Value == ".") {
			continue
		}
		if c, ok := t.tables.Keywords[tok.Value]; ok {
			return c
		}
	}
	return ConstructUnmarked
}

func (t *Transpiler) emit(src *TokenLine, indent int, lines []string) {
	if len(lines) == 0 {
		return
	}
	prefix := t.ind(indent)
	for i, l := range lines {
		lines[i] = prefix + l
	}
	t.out = append(t.out, ProcessedLine{Line: strings.Join(lines, "\n"), Source: src})
}

// ind returns n indentation units.
func (t *Transpiler) ind(n int) string {
	return strings.Repeat(t.indentUnit, n)
}

// next returns a fresh suffix for synthetic names.
func (t *Transpiler) next() int {
	n := t.counter
	t.counter++
	return n
}

// fail builds a positioned error for the line being handled.
func (t *Transpiler) fail(kind ErrorKind, code string, line *TokenLine, marks []Token, format string, args ...any) *Error {
	if len(marks) == 0 && line != nil {
		marks = line.Tokens
	}
	return errorAt(kind, code, t.tree.File, marks, format, args...)
}

// lookupVariable finds a declared variable in the open scopes.
func (t *Transpiler) lookupVariable(name string) (*Decl, bool) {
	for _, s := range t.chain() {
		if d, ok := s.Variables[name]; ok {
			return d, true
		}
	}
	return nil, false
}

// lookupClass finds a declared class in the open scopes.
func (t *Transpiler) lookupClass(name string) (*Decl, bool) {
	for _, s := range t.chain() {
		if d, ok := s.Classes[name]; ok {
			return d, true
		}
	}
	return nil, false
}

// knownClasses lists every visible class name, for hints.
func (t *Transpiler) knownClasses() []string {
	var names []string
	for _, s := range t.chain() {
		for n := range s.Classes {
			names = append(names, n)
		}
	}
	return names
}

// typeInfo is a Helix type rendered for the host.
type typeInfo struct {
	Text      string // annotation
	Base      string // constructor name
	Generic   string // element type(s) of a generic container
	Nullable  bool
	Ignored   bool
	Void      bool
	Primitive bool
}

// annotation returns the declared annotation including nullability.
func (ti typeInfo) annotation() string {
	switch {
	case ti.Ignored:
		return "Any"
	case ti.Nullable:
		return "Optional[" + ti.Text + "]"
	}
	return ti.Text
}

// construct returns the host expression building a value of this type from
// value, or its default value when value is empty.
func (ti typeInfo) construct(value string) string {
	switch {
	case ti.Ignored:
		if value == "" {
			return "None"
		}
		return value
	case value == "" && ti.Nullable:
		return "None"
	case !ti.Primitive:
		if value == "" {
			return ti.Base + "()"
		}
		return value
	}
	args := value
	if ti.Generic != "" {
		g := ti.Generic
		if strings.Contains(g, ",") {
			g = "(" + g + ")"
		}
		if args != "" {
			args += ", "
		}
		args += "generic=" + g
	}
	return ti.Base + "(" + args + ")"
}

// typeOf renders a type expression such as list<map<string, int>>?.
func (t *Transpiler) typeOf(tl *TokenLine) (typeInfo, error) {
	var ti typeInfo
	if tl.Len() == 0 {
		return ti, t.fail(KindSyntax, "S070", tl, nil, "missing type")
	}
	toks := tl.Tokens
	if toks[len(toks)-1].Value == "?" {
		ti.Nullable = true
		toks = toks[:len(toks)-1]
	}
	if len(toks) == 0 {
		return ti, t.fail(KindSyntax, "S070", tl, tl.Tokens, "missing type before '?'")
	}
	first := toks[0].Value
	if t.tables.IgnoredTypes[first] {
		ti.Ignored = true
		ti.Text, ti.Base = "Any", "Any"
		return ti, nil
	}
	if first == "void" && len(toks) == 1 {
		ti.Void = true
		ti.Text, ti.Base = "None", "None"
		return ti, nil
	}

	values := make([]string, 0, len(toks))
	genericStart := -1
	depth := 0
	for _, tok := range toks {
		switch v := tok.Value; v {
		case "<":
			if depth == 0 {
				genericStart = len(values) + 1
			}
			depth++
			values = append(values, "[")
		case ">":
			depth--
			values = append(values, "]")
		case ">>":
			depth -= 2
			values = append(values, "]", "]")
		default:
			if w, ok := t.tables.WrapperType(v); ok {
				v = w
			}
			values = append(values, v)
		}
		if depth < 0 {
			return ti, t.fail(KindSyntax, "S071", tl, []Token{tok}, "unbalanced '>' in type")
		}
	}
	if depth != 0 {
		return ti, t.fail(KindSyntax, "S071", tl, tl.Tokens, "unbalanced '<' in type")
	}
	ti.Text = render(values)
	ti.Base = values[0]
	_, ti.Primitive = t.tables.WrapperType(first)
	if genericStart > 0 && values[len(values)-1] == "]" {
		ti.Generic = render(values[genericStart : len(values)-1])
		ti.Base = render(values[:genericStart-1])
	}
	return ti, nil
}

// nameList joins names for del/nonlocal statements.
func nameList(names []string) string {
	return strings.Join(names, ", ")
}

func quoted(s string) string {
	return fmt.Sprintf("%q", s)
}
