package helix

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/helix-lang/helix/internal/debug"
	"github.com/helix-lang/helix/internal/pool"
)

// Option configures a Compiler.
type Option func(*Compiler) error

// WithIndent sets one level of output indentation. Default is four spaces.
func WithIndent(indent string) Option {
	return func(c *Compiler) error {
		if indent == "" || strings.TrimLeft(indent, " \t") != "" {
			return &Error{Kind: KindEnv, Code: "E002", Message: fmt.Sprintf("invalid indent %q", indent),
				Hint: "use spaces or a tab"}
		}
		c.indent = indent
		return nil
	}
}

// WithRegexModule selects the regex engine ("re" or "regexp2").
func WithRegexModule(name string) Option {
	return func(c *Compiler) error {
		e, err := NewEngine(name)
		if err != nil {
			return err
		}
		c.engine = e
		return nil
	}
}

// WithIgnoreMain allows statements at module level.
func WithIgnoreMain(ignore bool) Option {
	return func(c *Compiler) error {
		c.ignoreMain = ignore
		return nil
	}
}

// WithFormatter runs f over every generated body.
func WithFormatter(f Formatter) Option {
	return func(c *Compiler) error {
		c.formatter = f
		return nil
	}
}

// WithTables replaces the default vocabulary.
func WithTables(t *Tables) Option {
	return func(c *Compiler) error {
		c.tables = t
		return nil
	}
}

// WithTokenCache sets the tokenization cache. nil disables caching.
func WithTokenCache(tc *TokenCache) Option {
	return func(c *Compiler) error {
		c.cache = tc
		return nil
	}
}

// Compiler runs the whole pipeline. A Compiler holds no per-file state and
// may be shared by goroutines.
type Compiler struct {
	tables     *Tables
	engine     Engine
	indent     string
	ignoreMain bool
	formatter  Formatter
	cache      *TokenCache
}

// NewCompiler creates a compiler with the default tables, the RE2 engine,
// four-space indentation and the shared token cache.
func NewCompiler(opts ...Option) (*Compiler, error) {
	c := &Compiler{
		tables: DefaultTables(),
		engine: reEngine{},
		indent: "    ",
		cache:  SharedTokens,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Tables returns the compiler's vocabulary.
func (c *Compiler) Tables() *Tables { return c.tables }

func (c *Compiler) tokens(filename, src string) ([]Token, error) {
	if c.cache != nil {
		return c.cache.Tokens(c.tables, c.engine, filename, src)
	}
	return NewTokenizer(c.tables, c.engine, filename).File(src)
}

// Transpile runs the pipeline up to the transpiler and returns the
// rewritten fragments.
func (c *Compiler) Transpile(filename, src string, ignoreMain bool) ([]ProcessedLine, error) {
	toks, err := c.tokens(filename, src)
	if err != nil {
		return nil, err
	}
	lines, err := Normalize(c.tables, filename, toks)
	if err != nil {
		return nil, err
	}
	tree := BuildScopes(c.tables, filename, lines)
	if err := tree.Check(); err != nil {
		return nil, &Error{Kind: KindInternal, Code: "X001", Pos: Position{File: filename}, Message: err.Error()}
	}
	debug.Log("%s: %d tokens, %d lines, %d scopes", filename, len(toks), len(lines), tree.Len())

	tr := NewTranspiler(c.tables, c.engine, c.indent)
	tr.IgnoreMain = ignoreMain
	return tr.Transpile(tree)
}

// Compile turns one source file into a Python module and its line map.
func (c *Compiler) Compile(ctx context.Context, filename, src string) (*Output, error) {
	frags, err := c.Transpile(filename, src, c.ignoreMain)
	if err != nil {
		return nil, err
	}
	return Assemble(ctx, filename, frags, EmitOptions{Indent: c.indent, Formatter: c.formatter})
}

// Snippet transpiles a few statements without the module wrapper, allowing
// module-level statements. The REPL uses it.
func (c *Compiler) Snippet(ctx context.Context, src string) (string, error) {
	frags, err := c.Transpile("<repl>", src, true)
	if err != nil {
		return "", err
	}
	out, err := Assemble(ctx, "<repl>", frags, EmitOptions{Indent: c.indent, Bare: true})
	if err != nil {
		return "", err
	}
	return out.Source, nil
}

// TokenizeFiles reads and tokenizes many files on p. Results keep the order
// of paths; the first failure cancels the rest.
func (c *Compiler) TokenizeFiles(ctx context.Context, p *pool.Pool, paths []string) ([][]Token, error) {
	return pool.Map(ctx, p, paths, 4, func(_ context.Context, path string) ([]Token, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &Error{Kind: KindIO, Code: "I001", Pos: Position{File: path}, Message: err.Error()}
		}
		return c.tokens(path, string(data))
	})
}
