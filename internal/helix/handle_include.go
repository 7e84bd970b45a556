package helix

import (
	"fmt"
	"path"
	"strings"
)

// Source languages an include can load.
const (
	LangC   = "C"
	LangCPP = "CPP"
	LangPY  = "PY"
	LangRS  = "RS"
	LangHX  = "HX"
)

var extLanguages = map[string]string{
	".h":     LangC,
	".c":     LangC,
	".so":    LangC,
	".dll":   LangC,
	".dylib": LangC,
	".hpp":   LangCPP,
	".cpp":   LangCPP,
	".cc":    LangCPP,
	".cxx":   LangCPP,
	".hh":    LangCPP,
	".py":    LangPY,
	".rs":    LangRS,
	".hx":    LangHX,
	".hlx":   LangHX,
}

// include is one parsed include statement.
type include struct {
	shape     int
	path      string
	lang      string // explicit tag, or "" to infer from path
	alias     string
	names     []string
	namespace []string
}

type includeShape struct {
	pattern Pattern
	build   func(m []string) include
}

const (
	inclStr   = `("(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*')`
	inclLang  = `(C|CPP|PY|RS|HX)`
	inclIdent = `([A-Za-z_]\w*)`
	inclList  = `((?:"[^"]*"|'[^']*')(?:\s*,\s*(?:"[^"]*"|'[^']*'))*)`
	inclNs    = `([A-Za-z_]\w*(?:\s*\.\s*[A-Za-z_]\w*)*)`
	inclCall  = inclLang + `\s*\(\s*` + inclStr + `\s*\)`
	inclAlias = `(?:\s+as\s+` + inclIdent + `)?`
)

// compileIncludeShapes compiles the include grammar. Shapes are tried in
// order on the space-joined line; the first match wins.
func compileIncludeShapes(engine Engine) []includeShape {
	shape := func(expr string, build func(m []string) include) includeShape {
		return includeShape{pattern: engine.MustCompile(`^include\s+` + expr + `\s*$`), build: build}
	}
	return []includeShape{
		shape(inclStr, func(m []string) include {
			return include{shape: 1, path: unquote(m[1])}
		}),
		shape(inclStr+`\s+as\s+`+inclIdent, func(m []string) include {
			return include{shape: 2, path: unquote(m[1]), alias: m[2]}
		}),
		shape(inclCall, func(m []string) include {
			return include{shape: 3, lang: m[1], path: unquote(m[2])}
		}),
		shape(inclCall+`\s+as\s+`+inclIdent, func(m []string) include {
			return include{shape: 4, lang: m[1], path: unquote(m[2]), alias: m[3]}
		}),
		shape(inclStr+`\s+from\s+`+inclStr, func(m []string) include {
			return include{shape: 5, names: []string{unquote(m[1])}, path: unquote(m[2])}
		}),
		shape(inclStr+`\s+from\s+`+inclCall, func(m []string) include {
			return include{shape: 6, names: []string{unquote(m[1])}, lang: m[2], path: unquote(m[3])}
		}),
		shape(`\(\s*`+inclList+`\s*,?\s*\)\s+from\s+`+inclStr, func(m []string) include {
			return include{shape: 7, names: splitQuoted(m[1]), path: unquote(m[2])}
		}),
		shape(`\(\s*`+inclList+`\s*,?\s*\)\s+from\s+`+inclCall, func(m []string) include {
			return include{shape: 8, names: splitQuoted(m[1]), lang: m[2], path: unquote(m[3])}
		}),
		shape(inclLang+`\s*\.\s*`+inclNs+inclAlias, func(m []string) include {
			return include{shape: 9, lang: m[1], namespace: splitNamespace(m[2]), alias: m[3]}
		}),
		shape(inclNs+inclAlias, func(m []string) include {
			return include{shape: 10, namespace: splitNamespace(m[1]), alias: m[2]}
		}),
	}
}

func splitQuoted(list string) []string {
	var out []string
	for _, s := range strings.Split(list, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, unquote(s))
		}
	}
	return out
}

func splitNamespace(ns string) []string {
	parts := strings.Split(ns, ".")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// matchInclude classifies an include line.
func (t *Transpiler) matchInclude(line *TokenLine) (include, bool) {
	text := line.Text()
	for _, s := range t.includes {
		if m, ok := s.pattern.Match(text); ok {
			return s.build(m), true
		}
	}
	return include{}, false
}

// handleInclude lowers include statements into imports or runtime loaders.
func (t *Transpiler) handleInclude(c *lineCtx) ([]string, error) {
	line := c.line
	if line.First() != "include" {
		return nil, t.fail(KindSyntax, "S080", line, nil, "include must start the statement")
	}
	inc, ok := t.matchInclude(line)
	if !ok {
		return nil, t.fail(KindSyntax, "S081", line, nil, "malformed include").
			withHint(`include "path" [as name], include LANG("path"), include ("a", "b") from "path"`)
	}

	if len(inc.namespace) > 0 {
		switch inc.lang {
		case "":
			return nil, t.fail(KindLink, "L003", line, nil, "namespace includes of Helix modules are not supported").
				withHint("include the file by path, or use PY.%s for a Python module", strings.Join(inc.namespace, "."))
		case LangHX:
			return nil, t.fail(KindLink, "L003", line, nil, "namespace includes of Helix modules are not supported").
				withHint("include the file by path")
		case LangPY:
		default:
			return nil, t.fail(KindLink, "L004", line, nil, "namespace includes are not supported for %s", inc.lang).
				withHint(`use %s("path")`, inc.lang)
		}
		mod := strings.Join(inc.namespace, ".")
		bound := inc.namespace[0]
		out := "import " + mod
		if inc.alias != "" {
			out += " as " + inc.alias
			bound = inc.alias
		}
		t.bindModule(c, line, bound)
		return []string{out}, nil
	}

	lang := inc.lang
	if lang == "" {
		ext := strings.ToLower(path.Ext(inc.path))
		if lang, ok = extLanguages[ext]; !ok {
			return nil, t.fail(KindLink, "L002", line, nil, "cannot infer the language of %q", inc.path).
				withHint(`tag it explicitly, e.g. C("%s")`, inc.path)
		}
	}
	if inc.path == "" {
		return nil, t.fail(KindLink, "L001", line, nil, "empty include path")
	}

	if lang == LangPY {
		mod := pythonModule(inc.path)
		switch {
		case len(inc.names) > 0:
			for _, n := range inc.names {
				t.bindModule(c, line, n)
			}
			return []string{"from " + mod + " import " + nameList(inc.names)}, nil
		case inc.alias != "":
			t.bindModule(c, line, inc.alias)
			return []string{"import " + mod + " as " + inc.alias}, nil
		}
		t.bindModule(c, line, strings.Split(mod, ".")[0])
		return []string{"import " + mod}, nil
	}

	loader := loaderCall(lang, inc.path)
	if len(inc.names) == 0 {
		bound := inc.alias
		if bound == "" {
			bound = moduleName(inc.path)
		}
		t.bindModule(c, line, bound)
		return []string{bound + " = " + loader}, nil
	}
	tmp := fmt.Sprintf("__helix_lib_%d", t.next())
	out := []string{tmp + " = " + loader}
	for _, n := range inc.names {
		if !isIdent(n) {
			return nil, t.fail(KindLink, "L005", line, nil, "%q is not a valid symbol name", n)
		}
		out = append(out, n+" = "+tmp+"."+n)
		t.bindModule(c, line, n)
	}
	return append(out, "del "+tmp), nil
}

// bindModule records a name introduced by an include.
func (t *Transpiler) bindModule(c *lineCtx, line *TokenLine, name string) {
	c.current.Variables[name] = &Decl{Name: name, Kind: "module", Line: line.DominantLine()}
}

func loaderCall(lang, p string) string {
	switch lang {
	case LangC:
		return "__helix__.load_library(" + quoted(p) + ", \"c\")"
	case LangCPP:
		return "__helix__.load_library(" + quoted(p) + ", \"cpp\")"
	case LangRS:
		return "__helix__.load_rust(" + quoted(p) + ")"
	}
	return "__helix__.load_helix(" + quoted(p) + ")"
}

// pythonModule turns a file path into a dotted module path.
func pythonModule(p string) string {
	p = strings.TrimSuffix(p, path.Ext(p))
	p = strings.TrimPrefix(p, "./")
	return strings.ReplaceAll(p, "/", ".")
}

// moduleName derives a binding name from a file path.
func moduleName(p string) string {
	base := strings.TrimSuffix(path.Base(p), path.Ext(p))
	b := []byte(base)
	for i := range b {
		if !isWordByte(b[i]) {
			b[i] = '_'
		}
	}
	if len(b) == 0 || b[0] >= '0' && b[0] <= '9' {
		b = append([]byte{'_'}, b...)
	}
	return string(b)
}
