// Package cache stores compiled artifacts on disk, keyed by the source path
// and revalidated by content hash and compiler version.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/mod/semver"
)

// Entry is one cached compile result.
type Entry struct {
	Source   string    `json:"source"`
	Hash     string    `json:"hash"`
	Version  string    `json:"version"`
	Output   string    `json:"output"`
	Lines    []int     `json:"lines"`
	Compiled time.Time `json:"compiled"`
}

// Cache is a directory of entries. Entries written by a compiler with a
// different major.minor version are stale.
type Cache struct {
	dir     string
	version string
}

// Open creates dir if needed. version must be a valid semantic version such
// as "v0.3.0".
func Open(dir, version string) (*Cache, error) {
	if !semver.IsValid(version) {
		return nil, fmt.Errorf("cache: invalid compiler version %q", version)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &Cache{dir: dir, version: version}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Hash returns the content hash used for validation.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func (c *Cache) path(source string) string {
	abs, err := filepath.Abs(source)
	if err != nil {
		abs = source
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:16])+".json")
}

// Lookup returns the entry for source when content and compiler version
// still match.
func (c *Cache) Lookup(source string, content []byte) (Entry, bool) {
	data, err := os.ReadFile(c.path(source))
	if err != nil {
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false
	}
	if e.Hash != Hash(content) || !c.compatible(e.Version) {
		return Entry{}, false
	}
	return e, true
}

func (c *Cache) compatible(v string) bool {
	return semver.IsValid(v) && semver.MajorMinor(v) == semver.MajorMinor(c.version)
}

// Store writes the entry for source.
func (c *Cache) Store(source string, content []byte, output string, lines []int) error {
	e := Entry{
		Source:   source,
		Hash:     Hash(content),
		Version:  c.version,
		Output:   output,
		Lines:    lines,
		Compiled: time.Now().UTC(),
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, "entry-*")
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: %w", err)
	}
	return os.Rename(tmp.Name(), c.path(source))
}

// Reset removes every entry.
func (c *Cache) Reset() error {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	for _, de := range entries {
		if filepath.Ext(de.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, de.Name())); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}
	return nil
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	matches, _ := filepath.Glob(filepath.Join(c.dir, "*.json"))
	return len(matches)
}
