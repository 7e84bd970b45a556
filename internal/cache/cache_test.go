package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLookup(t *testing.T) {
	type tc struct {
		storeVersion  string
		lookupVersion string
		stored        string
		looked        string
		wantHit       bool
	}

	tests := map[string]tc{
		"same content and version": {
			storeVersion: "v0.3.0", lookupVersion: "v0.3.0",
			stored: "fn main() {}", looked: "fn main() {}", wantHit: true,
		},
		"patch release still valid": {
			storeVersion: "v0.3.0", lookupVersion: "v0.3.4",
			stored: "a", looked: "a", wantHit: true,
		},
		"minor release is stale": {
			storeVersion: "v0.3.0", lookupVersion: "v0.4.0",
			stored: "a", looked: "a", wantHit: false,
		},
		"content changed": {
			storeVersion: "v0.3.0", lookupVersion: "v0.3.0",
			stored: "a", looked: "b", wantHit: false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			w, err := Open(dir, tt.storeVersion)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if err := w.Store("main.hx", []byte(tt.stored), "print(1)\n", []int{-1, 3}); err != nil {
				t.Fatalf("Store: %v", err)
			}

			r, err := Open(dir, tt.lookupVersion)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			e, hit := r.Lookup("main.hx", []byte(tt.looked))
			if hit != tt.wantHit {
				t.Fatalf("hit = %v, want %v", hit, tt.wantHit)
			}
			if hit && (e.Output != "print(1)\n" || len(e.Lines) != 2 || e.Lines[1] != 3) {
				t.Errorf("entry = %+v", e)
			}
		})
	}
}

func TestOpenRejectsBadVersion(t *testing.T) {
	if _, err := Open(t.TempDir(), "0.3"); err == nil {
		t.Fatal("expected an error for a non-semver version")
	}
}

func TestResetAndCorruptEntries(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir, "v1.0.0")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, src := range []string{"a.hx", "b.hx"} {
		if err := c.Store(src, []byte(src), "x", nil); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}

	if err := os.WriteFile(c.path("a.hx"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit := c.Lookup("a.hx", []byte("a.hx")); hit {
		t.Error("corrupt entry reported as a hit")
	}

	if err := os.WriteFile(filepath.Join(dir, "keep.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len after Reset = %d", c.Len())
	}
	if _, err := os.Stat(filepath.Join(dir, "keep.txt")); err != nil {
		t.Errorf("Reset removed a foreign file: %v", err)
	}
}
