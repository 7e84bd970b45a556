package helix

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func transpileBody(src string, ignoreMain bool) (string, error) {
	c, err := NewCompiler(WithTokenCache(nil))
	if err != nil {
		return "", err
	}
	frags, err := c.Transpile("t.hx", src, ignoreMain)
	if err != nil {
		return "", err
	}
	out, err := Assemble(context.Background(), "t.hx", frags, EmitOptions{Bare: true})
	if err != nil {
		return "", err
	}
	return out.Source, nil
}

// inMain wraps statements in fn main.
func inMain(stmts ...string) string {
	var sb strings.Builder
	sb.WriteString("fn main() {\n")
	for _, s := range stmts {
		sb.WriteString("    " + s + "\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

// mainBody is the expected output of inMain, lines indented one level.
func mainBody(lines ...string) string {
	var sb strings.Builder
	sb.WriteString("@__helix__.type_checked\ndef main():\n")
	for _, l := range lines {
		sb.WriteString("    " + l + "\n")
	}
	return sb.String()
}

type transpileCase struct {
	src        string
	ignoreMain bool
	want       string // exact body, when wantCode is empty
	wantCode   string
}

func runTranspileCases(t *testing.T, tests map[string]transpileCase) {
	t.Helper()
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := transpileBody(tt.src, tt.ignoreMain)
			if tt.wantCode != "" {
				var herr *Error
				if !errors.As(err, &herr) {
					t.Fatalf("err = %v, want %s\noutput:\n%s", err, tt.wantCode, got)
				}
				if herr.Code != tt.wantCode {
					t.Errorf("code = %s, want %s (%v)", herr.Code, tt.wantCode, herr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("output mismatch\n--- got ---\n%s--- want ---\n%s", got, tt.want)
			}
		})
	}
}

func TestTranspile_Let(t *testing.T) {
	runTranspileCases(t, map[string]transpileCase{
		"typed and untyped": {
			src: inMain(
				"let a: int = 5;",
				`let b = "x";`,
				"let c: string?;",
				"let p: Point;",
			),
			want: mainBody(
				"a: hx_int = hx_int(5)",
				`b = "x"`,
				"c: Optional[hx_string] = None",
				"p: Point = Point()",
			),
		},
		"conditional expression with a dict literal": {
			src:  inMain("let d = a if b else {};"),
			want: mainBody("d = a if b else {}"),
		},
		"type inherited from the next name": {
			src:  inMain("let d, e: float = 1.0, 2.0;"),
			want: mainBody("d: hx_float = hx_float(1.0)", "e: hx_float = hx_float(2.0)"),
		},
		"nested generics": {
			src:  inMain("let m: map<string, list<int>> = {};"),
			want: mainBody("m: hx_map[hx_string, hx_list[hx_int]] = hx_map({}, generic=(hx_string, hx_list[hx_int]))"),
		},
		"single generic": {
			src:  inMain("let l: list<int> = [1, 2];"),
			want: mainBody("l: hx_list[hx_int] = hx_list([1, 2], generic=hx_int)"),
		},
		"any is unchecked": {
			src:  inMain("let f: any = print;"),
			want: mainBody("f: Any = print"),
		},
		"module level": {
			src:  "let LIMIT: int = 10;\n",
			want: "LIMIT: hx_int = hx_int(10)\n",
		},
		"too many values":    {src: inMain("let a = 1, 2;"), wantCode: "V001"},
		"not enough values":  {src: inMain("let a, b = 1;"), wantCode: "V002"},
		"redeclared":         {src: inMain("let a = 1;", "let a = 2;"), wantCode: "T020"},
		"void variable":      {src: inMain("let v: void;"), wantCode: "T021"},
		"two equals":         {src: inMain("let a = b = 1;"), wantCode: "S060"},
		"no name":            {src: inMain("let = 1;"), wantCode: "S061"},
		"missing type":       {src: inMain("let a: = 1;"), wantCode: "S070"},
		"missing value":      {src: inMain("let a =;"), wantCode: "S063"},
		"trailing comma":     {src: inMain("let a, = 1;"), wantCode: "S061"},
		"unbalanced generic": {src: inMain("let a: list<int = 1;"), wantCode: "S071"},
	})
}

func TestTranspile_Function(t *testing.T) {
	runTranspileCases(t, map[string]transpileCase{
		"typed params and default": {
			src: "fn add(a: int, b: int = 2) -> int {\n    return a + b;\n}\n",
			want: "@__helix__.type_checked\n" +
				"def add(a: hx_int, b: hx_int = 2) -> hx_int:\n" +
				"    return a + b\n",
		},
		"variadic and nullable return": {
			src: "unsafe fn all(...xs: int) -> string? {\n    return null;\n}\n",
			want: "def all(*xs: hx_int) -> Optional[hx_string]:\n" +
				"    return None\n",
		},
		"decorators and async": {
			src: "#[cached, trace(1)] async fn load(path: string) {\n    await read(path);\n}\n",
			want: "@cached\n@trace(1)\n@__helix__.type_checked\n" +
				"async def load(path: hx_string):\n" +
				"    await read(path)\n",
		},
		"generic parameters are erased": {
			src:  "fn first<T>(xs: list<T>) -> T ...\n",
			want: "@__helix__.type_checked\ndef first(xs: hx_list[T]) -> T: ...\n",
		},
		"untyped parameter":       {src: "fn f(a) {\n}\n", wantCode: "T010"},
		"void parameter":          {src: "fn f(a: void) {\n}\n", wantCode: "T011"},
		"missing colon":           {src: "fn f(a int) {\n}\n", wantCode: "S027"},
		"operator outside class":  {src: "fn ==(o: int) -> bool {\n}\n", wantCode: "S020"},
		"static outside class":    {src: "static fn f() {\n}\n", wantCode: "S029"},
		"final outside class":     {src: "final fn f() {\n}\n", wantCode: "S029"},
		"duplicate modifier":      {src: "async async fn f() {\n}\n", wantCode: "S022"},
		"async unsafe":            {src: "async unsafe fn f() {\n}\n", wantCode: "S028"},
		"bad return":              {src: "fn f() int {\n}\n", wantCode: "S026"},
		"return outside function": {src: "return 1;\n", ignoreMain: true, wantCode: "S053"},
		"static private in class": {src: "class A {\n    static private fn f() {\n    }\n}\n", wantCode: "S028"},
		"void return is allowed": {
			src:  "fn f() -> void ...\n",
			want: "@__helix__.type_checked\ndef f() -> None: ...\n",
		},
	})
}

func TestTranspile_Class(t *testing.T) {
	runTranspileCases(t, map[string]transpileCase{
		"constructor and method": {
			src: "class Point {\n" +
				"    fn new(self, x: int) {\n" +
				"        self.x = x;\n" +
				"    }\n" +
				"    fn get(self) -> int {\n" +
				"        return self.x;\n" +
				"    }\n" +
				"}\n",
			want: "class Point:\n" +
				"    @__helix__.type_checked\n" +
				"    def __init__(self, x: hx_int):\n" +
				"        self.x = x\n" +
				"    @__helix__.type_checked\n" +
				"    def get(self) -> hx_int:\n" +
				"        return self.x\n",
		},
		"class without constructor": {
			src: "class Empty {\n}\n",
			want: "class Empty:\n" +
				"    def __init__(self, *args, **kwargs):\n" +
				"        raise NotImplementedError(\"Empty does not define a constructor (fn new)\")\n" +
				"    ...\n",
		},
		"extends keeps declared order": {
			src:  "struct A {\n}\nstruct B {\n}\nstruct C :: (B, A) {\n}\n",
			want: "class A:\n    ...\nclass B:\n    ...\nclass C(B, A):\n    ...\n",
		},
		"interface methods are abstract": {
			src: "interface Shape {\n    fn area(self) -> float ...\n}\n",
			want: "class Shape(__helix__.Interface):\n" +
				"    @__helix__.abstract_method\n" +
				"    @__helix__.type_checked\n" +
				"    def area(self) -> hx_float: ...\n",
		},
		"enum members": {
			src:  "enum Color {\n    RED = 1;\n    GREEN = 2;\n}\n",
			want: "class Color(__helix__.Enum):\n    RED = 1\n    GREEN = 2\n",
		},
		"modifiers": {
			src:  "#[dataclass] static unsafe struct Cfg {\n}\n",
			want: "@dataclass\n@__helix__.singleton\nclass Cfg(metaclass=__helix__.Permissive):\n    ...\n",
		},
		"operator overload": {
			src: "struct V {\n    fn +(self, o: V) -> V {\n        return o;\n    }\n    fn [](self, i: int) ...\n}\n",
			want: "class V:\n" +
				"    @__helix__.type_checked\n" +
				"    def __add__(self, o: V) -> V:\n" +
				"        return o\n" +
				"    @__helix__.type_checked\n" +
				"    def __getitem__(self, i: hx_int): ...\n",
		},
		"host exception base": {
			src:  "struct Oops :: Exception {\n}\n",
			want: "class Oops(Exception):\n    ...\n",
		},
		"final base":       {src: "final struct F {\n}\nstruct G :: F {\n}\n", wantCode: "T001"},
		"unknown base":     {src: "struct H :: Nope {\n}\n", wantCode: "N001"},
		"redeclared":       {src: "struct A {\n}\nstruct A {\n}\n", wantCode: "T002"},
		"no name":          {src: "struct {\n}\n", wantCode: "S011"},
		"junk after name":  {src: "struct A B {\n}\n", wantCode: "S010"},
		"duplicate static": {src: "static static struct A {\n}\n", wantCode: "S013"},
	})
}

func TestTranspile_UnknownBaseHint(t *testing.T) {
	_, err := transpileBody("struct Animal {\n}\nstruct Dog :: Animl {\n}\n", false)
	var herr *Error
	if !errors.As(err, &herr) || herr.Code != "N001" {
		t.Fatalf("err = %v, want N001", err)
	}
	if !strings.Contains(herr.Hint, `"Animal"`) {
		t.Errorf("hint = %q, want a suggestion of Animal", herr.Hint)
	}
}

func TestTranspile_For(t *testing.T) {
	runTranspileCases(t, map[string]transpileCase{
		"c style": {
			src: inMain(
				"for (var i: int = 0; i < 3; i++) {",
				"    print(i);",
				"}",
			),
			want: mainBody(
				"i: hx_int = hx_int(0)",
				"def __helix_cond_0():",
				"    return i < 3",
				"def __helix_step_0():",
				"    nonlocal i",
				"    i += 1",
				"for _ in __helix__.CFor(__helix_cond_0, __helix_step_0):",
				"    print(i)",
				"del i",
			),
		},
		"c style with let init and no step": {
			src: inMain(
				"for (let i = 0; i < 3;) {",
				"    break;",
				"}",
			),
			want: mainBody(
				"i = 0",
				"def __helix_cond_0():",
				"    return i < 3",
				"def __helix_step_0():",
				"    pass",
				"for _ in __helix__.CFor(__helix_cond_0, __helix_step_0):",
				"    break",
			),
		},
		"empty clauses": {
			src: inMain(
				"for (;;) {",
				"    break;",
				"}",
			),
			want: mainBody(
				"def __helix_cond_0():",
				"    return True",
				"def __helix_step_0():",
				"    pass",
				"for _ in __helix__.CFor(__helix_cond_0, __helix_step_0):",
				"    break",
			),
		},
		"range with scoped names": {
			src: inMain(
				"for (var k, v in items.items()) {",
				"    print(k, v);",
				"}",
			),
			want: mainBody(
				"k = v = None",
				"for k, v in items.items():",
				"    print(k, v)",
				"del k, v",
			),
		},
		"range without parens": {
			src: inMain(
				"for x in xs {",
				"    print(x);",
				"}",
			),
			want: mainBody(
				"for x in xs:",
				"    print(x)",
			),
		},
		"step rebinds a module global": {
			src: "let count: int = 0;\n" + inMain(
				"for (var i = 0; i < 3; i++, count++) {",
				"    print(i);",
				"}",
			),
			want: "count: hx_int = hx_int(0)\n" + mainBody(
				"i = 0",
				"def __helix_cond_0():",
				"    return i < 3",
				"def __helix_step_0():",
				"    nonlocal i",
				"    global count",
				"    i += 1",
				"    count += 1",
				"for _ in __helix__.CFor(__helix_cond_0, __helix_step_0):",
				"    print(i)",
				"del i",
			),
		},
		"module level with ignore main": {
			src:        "for (var i = 0; i < 2; i++) {\n    print(i);\n}\n",
			ignoreMain: true,
			want: "i = 0\n" +
				"def __helix_cond_0():\n    return i < 2\n" +
				"def __helix_step_0():\n    global i\n    i += 1\n" +
				"for _ in __helix__.CFor(__helix_cond_0, __helix_step_0):\n    print(i)\n" +
				"del i\n",
		},
		"module level":         {src: "for (var i = 0; i < 3; i++) {\n    print(i);\n}\n", wantCode: "S050"},
		"module level range":   {src: "for x in xs {\n}\n", wantCode: "S050"},
		"typed range variable": {src: inMain("for (x: int in xs) {", "}"), wantCode: "S030"},
		"two clauses":          {src: inMain("for (a; b) {", "}"), wantCode: "S031"},
		"no iterable":          {src: inMain("for x {", "}"), wantCode: "S031"},
	})
}

func TestTranspile_Conditionals(t *testing.T) {
	runTranspileCases(t, map[string]transpileCase{
		"if chain with unless": {
			src: inMain(
				"unless (a) {",
				"    b();",
				"} else unless c {",
				"    d();",
				"} else if (e) {",
				"    f();",
				"} else {",
				"    g();",
				"}",
			),
			want: mainBody(
				"if not (a):",
				"    b()",
				"elif not (c):",
				"    d()",
				"elif (e):",
				"    f()",
				"else:",
				"    g()",
			),
		},
		"if with operators": {
			src:  inMain("if a === null && !done {", "    stop();", "}"),
			want: mainBody("if a is None and not done:", "    stop()"),
		},
		"keyword inside call is an expression": {
			src:  inMain("print(a if b else c);"),
			want: mainBody("print(a if b else c)"),
		},
	})
}

func TestTranspile_Statements(t *testing.T) {
	runTranspileCases(t, map[string]transpileCase{
		"try catch finally": {
			src: inMain(
				"try {",
				"    risky();",
				"} catch (e: ValueError) {",
				"    throw;",
				"} catch KeyError {",
				"} catch {",
				"    throw RuntimeError(\"x\");",
				"} finally {",
				"    done();",
				"}",
			),
			want: mainBody(
				"try:",
				"    risky()",
				"except ValueError as e:",
				"    raise",
				"except KeyError:",
				"    ...",
				"except:",
				"    raise RuntimeError(\"x\")",
				"finally:",
				"    done()",
			),
		},
		"while and del": {
			src:  inMain("while (n > 0) {", "    del cache[n];", "    continue;", "}"),
			want: mainBody("while (n > 0):", "    del cache[n]", "    continue"),
		},
		"bad catch":        {src: inMain("try {", "} catch (e: ) {", "}"), wantCode: "S056"},
		"misplaced return": {src: inMain("x return;"), wantCode: "S055"},
		"while without condition": {
			src: inMain("while {", "}"), wantCode: "S054",
		},
	})
}

func TestTranspile_Assignments(t *testing.T) {
	runTranspileCases(t, map[string]transpileCase{
		"undeclared name": {
			src:  inMain("x = 1;"),
			want: mainBody("x = 1"),
		},
		"declared name goes through __set__": {
			src: inMain("let a: int = 1;", "a = 2;"),
			want: mainBody(
				"a: hx_int = hx_int(1)",
				"try:",
				"    a.__set__(2)",
				"except AttributeError:",
				"    a = 2",
				"    __helix__.warn_rebind(\"a\")",
			),
		},
		"unpacking": {
			src: inMain("a, b = b, a;"),
			want: mainBody(
				"__helix_unpack_0 = (b, a)",
				"a = __helix_unpack_0[0]",
				"b = __helix_unpack_0[1]",
				"del __helix_unpack_0",
			),
		},
		"increments": {
			src:  inMain("i++;", "--j;", "obj.n++;"),
			want: mainBody("i += 1", "j -= 1", "obj.n += 1"),
		},
		"module level with ignore main": {
			src:        "x = 5;\nprint(x);\n",
			ignoreMain: true,
			want:       "x = 5\nprint(x)\n",
		},
		"module level statement": {src: "print(1);\n", wantCode: "S050"},
		"module level if":        {src: "if (true) {\n    print(1);\n}\n", wantCode: "S050"},
		"module level unless":    {src: "unless (a) {\n}\n", wantCode: "S050"},
		"module level while":     {src: "while (true) {\n    print(1);\n}\n", wantCode: "S050"},
		"module level try":       {src: "try {\n    x();\n} catch {\n}\n", wantCode: "S050"},
		"module level throw":     {src: "throw;\n", wantCode: "S050"},
		"module level if with ignore main": {
			src:        "if (true) {\n    print(1);\n}\n",
			ignoreMain: true,
			want:       "if (True):\n    print(1)\n",
		},
		"chained":       {src: inMain("a = b = 1;"), wantCode: "S051"},
		"missing value": {src: inMain("a = ;"), wantCode: "S052"},
		"unpack arity":  {src: inMain("a, b = 1;"), wantCode: "V002"},
		"constant":      {src: inMain("const K = 1;", "K = 2;"), wantCode: "T030"},
	})
}

func TestTranspile_Include(t *testing.T) {
	runTranspileCases(t, map[string]transpileCase{
		"python module":          {src: `include "lib.py";`, want: "import lib\n"},
		"python module alias":    {src: `include "pkg/mod.py" as m;`, want: "import pkg.mod as m\n"},
		"c library":              {src: `include C("libm.so");`, want: "libm = __helix__.load_library(\"libm.so\", \"c\")\n"},
		"cpp library alias":      {src: `include CPP("vec.hpp") as vec;`, want: "vec = __helix__.load_library(\"vec.hpp\", \"cpp\")\n"},
		"helix file":             {src: `include "a-b.hx";`, want: "a_b = __helix__.load_helix(\"a-b.hx\")\n"},
		"selective python":       {src: `include "sqrt" from "math.py";`, want: "from math import sqrt\n"},
		"selective list python":  {src: `include ("a", "b") from "m.py";`, want: "from m import a, b\n"},
		"python namespace alias": {src: `include PY::os::path as osp;`, want: "import os.path as osp\n"},
		"selective rust": {
			src:  `include "add" from RS("ops.rs");`,
			want: "__helix_lib_0 = __helix__.load_rust(\"ops.rs\")\nadd = __helix_lib_0.add\ndel __helix_lib_0\n",
		},
		"selective list c": {
			src: `include ("x", "y") from C("l.so");`,
			want: "__helix_lib_0 = __helix__.load_library(\"l.so\", \"c\")\n" +
				"x = __helix_lib_0.x\ny = __helix_lib_0.y\ndel __helix_lib_0\n",
		},
		"helix namespace":      {src: "include std::io;", wantCode: "L003"},
		"c namespace":          {src: "include C::stdio;", wantCode: "L004"},
		"unknown extension":    {src: `include "thing.xyz";`, wantCode: "L002"},
		"empty tagged path":    {src: `include C("");`, wantCode: "L001"},
		"invalid symbol":       {src: `include "a-b" from C("l.so");`, wantCode: "L005"},
		"malformed":            {src: "include 42;", wantCode: "S081"},
		"not at the start":     {src: "print include;", ignoreMain: true, wantCode: "S080"},
		"attribute is ignored": {src: "obj.include = 1;", ignoreMain: true, want: "obj.include = 1\n"},
	})
}

func TestTranspile_IncludedModuleAsBase(t *testing.T) {
	got, err := transpileBody("include \"shapes.py\";\nstruct Sq :: shapes::Base {\n}\n", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "class Sq(shapes.Base):") {
		t.Errorf("output:\n%s", got)
	}
}

func TestTranspile_ErrorPosition(t *testing.T) {
	_, err := transpileBody("fn main() {\n    let a = 1;\n    let a = 2;\n}\n", false)
	var herr *Error
	if !errors.As(err, &herr) {
		t.Fatalf("err = %v", err)
	}
	if herr.Pos.Line != 3 || herr.Pos.File != "t.hx" {
		t.Errorf("position = %s, want t.hx:3", herr.Pos)
	}
	if herr.SourceLine() != "    let a = 2;" {
		t.Errorf("source line = %q", herr.SourceLine())
	}
}
