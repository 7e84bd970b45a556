package helix

import (
	"fmt"
)

// ScopeID addresses a Scope inside its Tree.
type ScopeID int

// RootID is the id of every tree's root scope.
const RootID ScopeID = 0

// Child is either a nested scope or a leaf line, never both.
type Child struct {
	Scope ScopeID
	Line  *TokenLine
}

// IsScope reports whether the child is a nested scope.
func (c Child) IsScope() bool { return c.Line == nil }

// Decl records a declared name inside a scope.
type Decl struct {
	Name      string
	Kind      string // variable, param, function, class, module
	Type      string // host type text
	Generic   string // element type of generic containers
	Nullable  bool
	Modifiers map[string]bool
	Extends   []string
	Signature string
	Line      int
}

// Scope is one node of the lexical scope tree.
type Scope struct {
	ID       ScopeID
	Header   *TokenLine // opening line; nil for the root
	Kind     NamespaceType
	Indent   int
	Children []Child

	Variables map[string]*Decl
	Functions map[string]*Decl
	Classes   map[string]*Decl

	// Deferred holds fragments emitted right after the scope's last line.
	Deferred []string
}

// Name returns the scope's display name.
func (s *Scope) Name() string {
	if s.Header == nil {
		return "root"
	}
	return s.Header.Text()
}

// Tree is an arena of scopes; children refer to nested scopes by index.
type Tree struct {
	File   string
	scopes []*Scope
}

// Root returns the root scope.
func (t *Tree) Root() *Scope { return t.scopes[RootID] }

// Get returns the scope with the given id.
func (t *Tree) Get(id ScopeID) *Scope { return t.scopes[id] }

// Len returns the number of scopes.
func (t *Tree) Len() int { return len(t.scopes) }

func (t *Tree) add(header *TokenLine, kind NamespaceType, indent int) *Scope {
	s := &Scope{
		ID:        ScopeID(len(t.scopes)),
		Header:    header,
		Kind:      kind,
		Indent:    indent,
		Variables: make(map[string]*Decl),
		Functions: make(map[string]*Decl),
		Classes:   make(map[string]*Decl),
	}
	t.scopes = append(t.scopes, s)
	return s
}

// BuildScopes partitions the lines of one file into a scope tree. A header
// line opens a child scope that owns every following line indented deeper
// than the header; the body is classified recursively.
func BuildScopes(tables *Tables, file string, lines []*TokenLine) *Tree {
	t := &Tree{File: file}
	root := t.add(nil, NamespaceRoot, 0)
	t.classify(tables, root.ID, lines)
	return t
}

func (t *Tree) classify(tables *Tables, parent ScopeID, lines []*TokenLine) {
	for i := 0; i < len(lines); {
		line := lines[i]
		kind, ok := HeaderKind(tables, line)
		if !ok {
			t.scopes[parent].Children = append(t.scopes[parent].Children, Child{Line: line})
			i++
			continue
		}
		child := t.add(line, kind, line.Indent)
		end := i + 1
		for end < len(lines) && lines[end].Indent > line.Indent {
			end++
		}
		t.classify(tables, child.ID, lines[i+1:end])
		t.scopes[parent].Children = append(t.scopes[parent].Children, Child{Scope: child.ID})
		i = end
	}
}

// HeaderKind reports whether line opens a scope and of which type. Leading
// #[...] decorator blocks and modifiers are skipped before the keyword.
func HeaderKind(tables *Tables, line *TokenLine) (NamespaceType, bool) {
	i := skipDecorators(line, 0)
	for i < line.Len() && (tables.FunctionModifiers[line.At(i)] || tables.ClassModifiers[line.At(i)]) {
		i++
	}
	kind, ok := tables.ScopeOpening[line.At(i)]
	return kind, ok
}

// skipDecorators returns the index after any #[...] blocks starting at i.
func skipDecorators(line *TokenLine, i int) int {
	for line.At(i) == "#" && line.At(i+1) == "[" {
		end := line.matching(i+1, "[", "]")
		if end < 0 {
			return i
		}
		i = end + 1
	}
	return i
}

// Check verifies the tree invariants: every leaf of a non-root scope is
// indented deeper than its owner, every scope is owned exactly once and every
// namespace type is valid.
func (t *Tree) Check() error {
	owners := make(map[ScopeID]int)
	for _, s := range t.scopes {
		if !s.Kind.Valid() {
			return fmt.Errorf("scope %d: invalid namespace type %d", s.ID, s.Kind)
		}
		for _, c := range s.Children {
			if c.IsScope() {
				owners[c.Scope]++
				continue
			}
			if s.ID != RootID && c.Line.Indent <= s.Indent {
				return fmt.Errorf("scope %d (%s): line %q at indent %d not deeper than %d",
					s.ID, s.Name(), c.Line.Text(), c.Line.Indent, s.Indent)
			}
		}
	}
	for _, s := range t.scopes[1:] {
		if owners[s.ID] != 1 {
			return fmt.Errorf("scope %d (%s) owned %d times", s.ID, s.Name(), owners[s.ID])
		}
	}
	return nil
}

// Walk visits every scope depth first, parents before children.
func (t *Tree) Walk(fn func(s *Scope, depth int)) {
	var visit func(id ScopeID, depth int)
	visit = func(id ScopeID, depth int) {
		s := t.scopes[id]
		fn(s, depth)
		for _, c := range s.Children {
			if c.IsScope() {
				visit(c.Scope, depth+1)
			}
		}
	}
	visit(RootID, 0)
}
