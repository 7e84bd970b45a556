package helix

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// NamespaceType tags a Scope.
type NamespaceType int

const (
	NamespaceRoot NamespaceType = iota
	NamespaceFunction
	NamespaceClass
	NamespaceStruct
	NamespaceUnion
	NamespaceEnum
	NamespaceInterface
	NamespaceAbstract
	NamespaceFor
)

var namespaceNames = map[NamespaceType]string{
	NamespaceRoot:      "root",
	NamespaceFunction:  "function",
	NamespaceClass:     "class",
	NamespaceStruct:    "struct",
	NamespaceUnion:     "union",
	NamespaceEnum:      "enum",
	NamespaceInterface: "interface",
	NamespaceAbstract:  "abstract",
	NamespaceFor:       "for",
}

func (n NamespaceType) String() string {
	if name, ok := namespaceNames[n]; ok {
		return name
	}
	return fmt.Sprintf("NamespaceType(%d)", n)
}

// Valid reports whether n is one of the enumerated namespace types.
func (n NamespaceType) Valid() bool {
	_, ok := namespaceNames[n]
	return ok
}

// ClassLike reports whether functions declared directly inside a scope of
// this type are methods.
func (n NamespaceType) ClassLike() bool {
	switch n {
	case NamespaceClass, NamespaceStruct, NamespaceUnion, NamespaceEnum, NamespaceInterface, NamespaceAbstract:
		return true
	}
	return false
}

// Construct names the handler a keyword dispatches to.
type Construct int

const (
	ConstructUnmarked Construct = iota
	ConstructClass
	ConstructFor
	ConstructLet
	ConstructUnless
	ConstructFunction
	ConstructInclude
	ConstructStatement
)

// Replacement is one early token substitution.
type Replacement struct {
	From string
	To   string
}

// Tables is the immutable vocabulary shared by every stage. Build it with
// DefaultTables and pass it by pointer; nothing mutates it after construction.
type Tables struct {
	Keywords          map[string]Construct
	BodyRequired      map[string]bool
	ScopeOpening      map[string]NamespaceType
	FunctionModifiers map[string]bool
	ClassModifiers    map[string]bool
	Reserved          map[string]bool
	Early             []Replacement
	Primitives        map[string]string
	IgnoredTypes      map[string]bool
	Operators         map[string]string
	SelfNames         map[string]bool

	early   map[string]string
	reverse []Replacement // longest host phrase first
}

// DefaultTables returns the canonical tables, built once per process.
var DefaultTables = sync.OnceValue(newDefaultTables)

func newDefaultTables() *Tables {
	t := &Tables{
		Keywords: map[string]Construct{
			"class":     ConstructClass,
			"struct":    ConstructClass,
			"union":     ConstructClass,
			"enum":      ConstructClass,
			"interface": ConstructClass,
			"abstract":  ConstructClass,
			"fn":        ConstructFunction,
			"for":       ConstructFor,
			"let":       ConstructLet,
			"var":       ConstructLet,
			"const":     ConstructLet,
			"if":        ConstructUnless,
			"unless":    ConstructUnless,
			"else":      ConstructUnless,
			"include":   ConstructInclude,
			"return":    ConstructStatement,
			"yield":     ConstructStatement,
			"break":     ConstructStatement,
			"continue":  ConstructStatement,
			"while":     ConstructStatement,
			"try":       ConstructStatement,
			"catch":     ConstructStatement,
			"finally":   ConstructStatement,
			"throw":     ConstructStatement,
			"del":       ConstructStatement,
			"assert":    ConstructStatement,
		},
		BodyRequired: setOf("if", "else", "unless", "for", "while", "fn", "class", "struct",
			"union", "enum", "interface", "abstract", "try", "catch", "finally"),
		ScopeOpening: map[string]NamespaceType{
			"fn":        NamespaceFunction,
			"class":     NamespaceClass,
			"struct":    NamespaceStruct,
			"union":     NamespaceUnion,
			"enum":      NamespaceEnum,
			"interface": NamespaceInterface,
			"abstract":  NamespaceAbstract,
			"for":       NamespaceFor,
		},
		FunctionModifiers: setOf("async", "private", "protected", "public", "final", "unsafe", "static"),
		ClassModifiers:    setOf("final", "static", "unsafe", "private", "protected", "public"),
		Reserved: setOf("def", "elif", "lambda", "nonlocal", "global", "pass", "is", "and", "or",
			"not", "except", "raise", "None", "True", "False", "import", "exec", "eval"),
		Early: []Replacement{
			{"true", "True"},
			{"false", "False"},
			{"null", "None"},
			{"&&", "and"},
			{"||", "or"},
			{"!", "not"},
			{"===", "is"},
			{"!==", "is not"},
			{"::", "."},
			{"new", "__init__"},
			{"this", "self"},
		},
		Primitives: map[string]string{
			"int":     "hx_int",
			"string":  "hx_string",
			"float":   "hx_float",
			"double":  "hx_double",
			"bool":    "hx_bool",
			"char":    "hx_char",
			"bytes":   "hx_bytes",
			"tuple":   "hx_tuple",
			"list":    "hx_list",
			"array":   "hx_array",
			"set":     "hx_set",
			"map":     "hx_map",
			"unknown": "hx_unknown",
		},
		IgnoredTypes: setOf("fn", "Fn", "callable", "any"),
		Operators: map[string]string{
			"==": "__eq__",
			"!=": "__ne__",
			"<":  "__lt__",
			">":  "__gt__",
			"<=": "__le__",
			">=": "__ge__",
			"+":  "__add__",
			"-":  "__sub__",
			"*":  "__mul__",
			"/":  "__truediv__",
			"%":  "__mod__",
			"**": "__pow__",
			"&":  "__and__",
			"|":  "__or__",
			"^":  "__xor__",
			"<<": "__lshift__",
			">>": "__rshift__",
			"+=": "__iadd__",
			"-=": "__isub__",
			"*=": "__imul__",
			"/=": "__itruediv__",
			"in": "__contains__",
			"[]": "__getitem__",
			"()": "__call__",
		},
		SelfNames: setOf("self", "cls", "super"),
	}

	t.early = make(map[string]string, len(t.Early))
	for _, r := range t.Early {
		t.early[r.From] = r.To
		// punctuation reversal would mangle ordinary sentences
		if isIdent(strings.ReplaceAll(r.To, " ", "_")) {
			t.reverse = append(t.reverse, Replacement{From: r.To, To: r.From})
		}
	}
	sort.SliceStable(t.reverse, func(i, j int) bool {
		return len(t.reverse[i].From) > len(t.reverse[j].From)
	})
	return t
}

func setOf(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Replace returns the early replacement for a token value, if any.
func (t *Tables) Replace(v string) (string, bool) {
	r, ok := t.early[v]
	return r, ok
}

// Reverse rewrites host vocabulary in msg back to Helix vocabulary. It is the
// exact inverse of the early replacement table for word-shaped entries.
func (t *Tables) Reverse(msg string) string {
	for _, r := range t.reverse {
		msg = replaceWord(msg, r.From, r.To)
	}
	return msg
}

// ReverseMap returns the host→Helix vocabulary used by Reverse. It holds the
// word-shaped entries only; see MarkSpellings for the full inverse.
func (t *Tables) ReverseMap() map[string]string {
	m := make(map[string]string, len(t.reverse))
	for _, r := range t.reverse {
		m[r.From] = r.To
	}
	return m
}

// MarkSpellings returns every early replacement inverted, host spelling to
// Helix spelling, punctuation included. Diagnostics use it to find a marked
// token such as "not" in the source line, where it was written "!".
func (t *Tables) MarkSpellings() map[string]string {
	m := make(map[string]string, len(t.Early))
	for _, r := range t.Early {
		m[r.To] = r.From
	}
	return m
}

// WrapperType returns the runtime wrapper name for a Helix primitive.
func (t *Tables) WrapperType(name string) (string, bool) {
	w, ok := t.Primitives[name]
	return w, ok
}

// replaceWord replaces whole-word occurrences of old in s.
func replaceWord(s, old, repl string) string {
	var sb strings.Builder
	for {
		i := strings.Index(s, old)
		if i < 0 {
			sb.WriteString(s)
			return sb.String()
		}
		end := i + len(old)
		before := i == 0 || !isWordByte(s[i-1])
		after := end == len(s) || !isWordByte(s[end])
		sb.WriteString(s[:i])
		if before && after {
			sb.WriteString(repl)
		} else {
			sb.WriteString(old)
		}
		s = s[end:]
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
