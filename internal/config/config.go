// Package config loads helix.toml.
//
// The file is optional. Missing keys keep their defaults and unknown keys are
// rejected so that typos do not pass silently.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the name searched for by Find.
const FileName = "helix.toml"

// Config is the whole configuration file.
type Config struct {
	Formatter  Formatter  `toml:"formatter"`
	Transpiler Transpiler `toml:"transpiler"`
	Cache      Cache      `toml:"cache"`
	Workers    Workers    `toml:"workers"`

	// Path is the file the config was read from, or "" for defaults.
	Path string `toml:"-"`
}

// Formatter controls the emitted source.
type Formatter struct {
	// IndentChar is one level of indentation.
	IndentChar string `toml:"indent_char"`
	// Command optionally post-processes the output, e.g. "black -q -".
	Command string `toml:"command"`
}

// Transpiler controls the core pipeline.
type Transpiler struct {
	// RegexModule selects the regex engine: "re" or "regexp2".
	RegexModule string `toml:"regex_module"`
	IgnoreMain  bool   `toml:"ignore_main"`
}

// Cache controls the compiled artifact cache.
type Cache struct {
	Dir     string `toml:"dir"`
	Enabled bool   `toml:"enabled"`
}

// Workers controls batch compiles.
type Workers struct {
	// Count is the number of parallel compiles; 0 means GOMAXPROCS.
	Count   int      `toml:"count"`
	Timeout Duration `toml:"timeout"`
}

// Duration is a time.Duration written as a string such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		Formatter:  Formatter{IndentChar: "    "},
		Transpiler: Transpiler{RegexModule: "re"},
		Cache:      Cache{Dir: ".helix-cache", Enabled: true},
		Workers:    Workers{Timeout: Duration{30 * time.Second}},
	}
}

// Load reads path on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return cfg, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Find looks for helix.toml in each directory in order and loads the first
// one found. With none found it returns the defaults.
func Find(dirs ...string) (Config, error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Defaults(), err
		}
		return Load(path)
	}
	return Defaults(), nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Formatter.IndentChar == "" || strings.Trim(c.Formatter.IndentChar, " \t") != "" {
		errs = append(errs, fmt.Errorf("formatter.indent_char must be spaces or tabs, got %q", c.Formatter.IndentChar))
	}
	switch c.Transpiler.RegexModule {
	case "re", "regexp2":
	default:
		errs = append(errs, fmt.Errorf("transpiler.regex_module must be \"re\" or \"regexp2\", got %q", c.Transpiler.RegexModule))
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		errs = append(errs, errors.New("cache.dir must be set when the cache is enabled"))
	}
	if c.Workers.Count < 0 {
		errs = append(errs, fmt.Errorf("workers.count must be >= 0, got %d", c.Workers.Count))
	}
	if c.Workers.Timeout.Duration < 0 {
		errs = append(errs, fmt.Errorf("workers.timeout must be >= 0, got %s", c.Workers.Timeout))
	}
	return errors.Join(errs...)
}
