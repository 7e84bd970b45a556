package helix

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func normalize(t *testing.T, src string) ([]*TokenLine, error) {
	t.Helper()
	toks, err := NewTokenizer(DefaultTables(), reEngine{}, "t.hx").File(src)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	return Normalize(DefaultTables(), "t.hx", toks)
}

type wantLine struct {
	indent int
	text   string
}

func TestNormalize_Lines(t *testing.T) {
	type tc struct {
		src  string
		want []wantLine
	}

	tests := map[string]tc{
		"function body": {
			src: "fn main() {\n    let a = 1;\n    print(a);\n}",
			want: []wantLine{
				{0, "fn main ( ) :"},
				{1, "let a = 1"},
				{1, "print ( a )"},
			},
		},
		"braces inside expressions stay literal": {
			src: "fn f() {\n    let m = {1: 2};\n}",
			want: []wantLine{
				{0, "fn f ( ) :"},
				{1, "let m = { 1 : 2 }"},
			},
		},
		"for header keeps its semicolons": {
			src: "fn f() {\n    for (var i: int = 0; i < 3; i++) {\n        print(i);\n    }\n}",
			want: []wantLine{
				{0, "fn f ( ) :"},
				{1, "for ( var i : int = 0 ; i < 3 ; i ++ ) :"},
				{2, "print ( i )"},
			},
		},
		"else if chain": {
			src: "fn f() {\n    if a {\n        x();\n    } else if b {\n        y();\n    } else {\n        z();\n    }\n}",
			want: []wantLine{
				{0, "fn f ( ) :"},
				{1, "if a :"},
				{2, "x ( )"},
				{1, "else if b :"},
				{2, "y ( )"},
				{1, "else :"},
				{2, "z ( )"},
			},
		},
		"empty body gets ellipsis": {
			src: "class A {\n}",
			want: []wantLine{
				{0, "class A :"},
				{1, "..."},
			},
		},
		"trailing ellipsis ends the statement": {
			src: "interface I {\n    fn f() -> int ...\n    fn g() ...\n}",
			want: []wantLine{
				{0, "interface I :"},
				{1, "fn f ( ) -> int ..."},
				{1, "fn g ( ) ..."},
			},
		},
		"dict literal after a conditional expression": {
			src: "fn f() {\n    let d = a if b else {};\n    g();\n}",
			want: []wantLine{
				{0, "fn f ( ) :"},
				{1, "let d = a if b else { }"},
				{1, "g ( )"},
			},
		},
		"decorators and modifiers before the keyword": {
			src: "#[cached] async fn f() {\n    x();\n}",
			want: []wantLine{
				{0, "# [ cached ] async fn f ( ) :"},
				{1, "x ( )"},
			},
		},
		"statement spread over lines": {
			src: "fn f() {\n    call(1,\n         2);\n}",
			want: []wantLine{
				{0, "fn f ( ) :"},
				{1, "call ( 1 , 2 )"},
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			lines, err := normalize(t, tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var got []wantLine
			for _, l := range lines {
				got = append(got, wantLine{l.Indent, l.Text()})
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("lines:\n got %v\nwant %v", got, tt.want)
			}
			for _, l := range lines {
				for _, tok := range l.Tokens {
					if tok.Indent != l.Indent {
						t.Errorf("token %v has indent %d on a line with indent %d", tok, tok.Indent, l.Indent)
					}
					if tok.IsMarker() {
						t.Errorf("marker %v left in line %q", tok, l.Text())
					}
				}
			}
		})
	}
}

func TestNormalize_Errors(t *testing.T) {
	type tc struct {
		src      string
		wantCode string
		wantLine int
		wantMsg  string
	}

	tests := map[string]tc{
		"unmatched close brace": {
			src:      "fn f() {\n}\n}",
			wantCode: "S003",
			wantLine: 3,
		},
		"unclosed block": {
			src:      "fn f() {\n    if a {\n        x();\n}",
			wantCode: "S004",
			wantLine: 1,
			wantMsg:  "never closed",
		},
		"unclosed paren": {
			src:      "fn f() {\n    g(1;\n}",
			wantCode: "S005",
			wantLine: 2,
		},
		"mismatched bracket": {
			src:      "fn f() {\n    g(1];\n}",
			wantCode: "S005",
			wantLine: 2,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := normalize(t, tt.src)
			var herr *Error
			if !errors.As(err, &herr) {
				t.Fatalf("err = %v, want *Error", err)
			}
			if herr.Code != tt.wantCode {
				t.Errorf("code = %s, want %s (%v)", herr.Code, tt.wantCode, herr)
			}
			if herr.Pos.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", herr.Pos.Line, tt.wantLine)
			}
			if !strings.Contains(herr.Message, tt.wantMsg) {
				t.Errorf("message %q does not contain %q", herr.Message, tt.wantMsg)
			}
		})
	}
}

func TestAnnotate_BraceDuality(t *testing.T) {
	toks, err := NewTokenizer(DefaultTables(), reEngine{}, "t.hx").File("fn f() {\n    x = {};\n}")
	if err != nil {
		t.Fatal(err)
	}
	stream, err := Annotate(DefaultTables(), "t.hx", toks)
	if err != nil {
		t.Fatal(err)
	}
	var indents, dedents, literal int
	for _, tok := range stream {
		switch {
		case tok.Kind == KindIndent:
			indents++
		case tok.Kind == KindDedent:
			dedents++
		case tok.Value == "{" || tok.Value == "}":
			literal++
		}
	}
	if indents != 1 || dedents != 1 || literal != 2 {
		t.Errorf("indents=%d dedents=%d literal braces=%d, want 1, 1, 2", indents, dedents, literal)
	}
}
