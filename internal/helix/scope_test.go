package helix

import (
	"strings"
	"testing"
)

func buildTree(t *testing.T, src string) *Tree {
	t.Helper()
	lines, err := normalize(t, src)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return BuildScopes(DefaultTables(), "t.hx", lines)
}

func TestBuildScopes_Shape(t *testing.T) {
	src := `include "util.py";

class Point {
    fn new(self, x: int) {
        self.x = x;
    }
    #[cache] static fn origin() -> Point {
        return Point(0);
    }
}

fn main() {
    for (p in points) {
        print(p);
    }
    print("done");
}
`
	tree := buildTree(t, src)
	if err := tree.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}

	var got []string
	tree.Walk(func(s *Scope, depth int) {
		got = append(got, strings.Repeat("  ", depth)+s.Kind.String())
	})
	want := []string{
		"root",
		"  class",
		"    function",
		"    function",
		"  function",
		"    for",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("scopes:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}

	root := tree.Root()
	if len(root.Children) != 3 || root.Children[0].IsScope() {
		t.Fatalf("root children = %d, first is scope %v", len(root.Children), root.Children[0].IsScope())
	}
	main := tree.Get(root.Children[2].Scope)
	if main.Header.At(1) != "main" || len(main.Children) != 2 {
		t.Errorf("main scope = %q with %d children", main.Name(), len(main.Children))
	}
	if tail := main.Children[1]; tail.IsScope() || tail.Line.Text() != `print ( "done" )` {
		t.Errorf("statement after the loop is not owned by main")
	}
}

func TestHeaderKind(t *testing.T) {
	tests := map[string]struct {
		src  string
		want NamespaceType
		ok   bool
	}{
		"function":           {"fn f() {", NamespaceFunction, true},
		"modified function":  {"private static fn f() {", NamespaceFunction, true},
		"decorated function": {"#[a, b(1)] async fn f() {", NamespaceFunction, true},
		"struct":             {"struct S {", NamespaceStruct, true},
		"final class":        {"final class C {", NamespaceClass, true},
		"interface":          {"interface I {", NamespaceInterface, true},
		"loop":               {"for (a in b) {", NamespaceFor, true},
		"conditional":        {"if a {", 0, false},
		"assignment":         {"x = 1", 0, false},
		"unclosed decorator": {"#[a fn f() {", 0, false},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			kind, ok := HeaderKind(DefaultTables(), lineOf(t, tt.src))
			if ok != tt.ok || (ok && kind != tt.want) {
				t.Errorf("HeaderKind = %s, %v; want %s, %v", kind, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestTreeCheck(t *testing.T) {
	tree := &Tree{File: "t.hx"}
	root := tree.add(nil, NamespaceRoot, 0)
	fn := tree.add(lineOf(t, "fn f ( ) :"), NamespaceFunction, 1)
	root.Children = append(root.Children, Child{Scope: fn.ID})

	shallow := NewTokenLine("t.hx", 1, lineOf(t, "x").Tokens)
	fn.Children = append(fn.Children, Child{Line: shallow})
	if err := tree.Check(); err == nil || !strings.Contains(err.Error(), "not deeper") {
		t.Errorf("Check = %v, want an indentation error", err)
	}

	fn.Children = nil
	root.Children = append(root.Children, Child{Scope: fn.ID})
	if err := tree.Check(); err == nil || !strings.Contains(err.Error(), "owned 2 times") {
		t.Errorf("Check = %v, want an ownership error", err)
	}

	root.Children = root.Children[:1]
	fn.Kind = NamespaceType(99)
	if err := tree.Check(); err == nil || !strings.Contains(err.Error(), "invalid namespace type") {
		t.Errorf("Check = %v, want a namespace error", err)
	}
}
