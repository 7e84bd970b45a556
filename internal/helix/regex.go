package helix

import (
	"fmt"
	"regexp"

	"github.com/dlclark/regexp2"
)

// Regex engine names accepted by the transpiler.regex_module setting.
const (
	EngineRE      = "re"
	EngineRegexp2 = "regexp2"
)

// Pattern is a compiled expression from either engine.
type Pattern interface {
	// FindAll returns every non-overlapping match, leftmost first.
	FindAll(s string) []string
	// Match returns the submatches of the first match (index 0 is the whole
	// match) and whether there was one. Unmatched groups are "".
	Match(s string) ([]string, bool)
}

// Engine compiles patterns.
type Engine interface {
	Name() string
	Compile(expr string) (Pattern, error)
	MustCompile(expr string) Pattern
}

// NewEngine returns the engine registered under name.
func NewEngine(name string) (Engine, error) {
	switch name {
	case "", EngineRE:
		return reEngine{}, nil
	case EngineRegexp2:
		return regexp2Engine{}, nil
	default:
		return nil, &Error{
			Kind:    KindEnv,
			Code:    "E001",
			Message: fmt.Sprintf("unknown regex module %q", name),
			Hint:    fmt.Sprintf("use %q or %q", EngineRE, EngineRegexp2),
		}
	}
}

type reEngine struct{}

func (reEngine) Name() string { return EngineRE }

func (reEngine) Compile(expr string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return rePattern{re}, nil
}

func (e reEngine) MustCompile(expr string) Pattern {
	p, err := e.Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

type rePattern struct{ re *regexp.Regexp }

func (p rePattern) FindAll(s string) []string {
	return p.re.FindAllString(s, -1)
}

func (p rePattern) Match(s string) ([]string, bool) {
	m := p.re.FindStringSubmatch(s)
	return m, m != nil
}

type regexp2Engine struct{}

func (regexp2Engine) Name() string { return EngineRegexp2 }

func (regexp2Engine) Compile(expr string) (Pattern, error) {
	re, err := regexp2.Compile(expr, regexp2.RE2)
	if err != nil {
		return nil, err
	}
	return regexp2Pattern{re}, nil
}

func (e regexp2Engine) MustCompile(expr string) Pattern {
	p, err := e.Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

type regexp2Pattern struct{ re *regexp2.Regexp }

func (p regexp2Pattern) FindAll(s string) []string {
	var out []string
	m, err := p.re.FindStringMatch(s)
	for err == nil && m != nil {
		out = append(out, m.String())
		m, err = p.re.FindNextMatch(m)
	}
	return out
}

func (p regexp2Pattern) Match(s string) ([]string, bool) {
	m, err := p.re.FindStringMatch(s)
	if err != nil || m == nil {
		return nil, false
	}
	groups := m.Groups()
	out := make([]string, len(groups))
	for i, g := range groups {
		if len(g.Captures) > 0 {
			out[i] = g.String()
		}
	}
	return out, true
}
