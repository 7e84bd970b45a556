package helix

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/helix-lang/helix/internal/debug"
)

// TokenCache memoizes file tokenization for the life of the process. Entries
// are keyed by vocabulary tables, engine and path and revalidated by content
// hash; concurrent
// misses for the same key tokenize once.
type TokenCache struct {
	entries sync.Map // key -> *tokenEntry
	group   singleflight.Group
}

type tokenEntry struct {
	hash   string
	tokens []Token
}

// SharedTokens is the process-global cache used by default.
var SharedTokens = &TokenCache{}

// Tokens returns the tokens of src, tokenizing on a miss. The returned slice
// is a copy the caller may keep.
func (c *TokenCache) Tokens(tables *Tables, engine Engine, path, src string) ([]Token, error) {
	sum := sha256.Sum256([]byte(src))
	hash := hex.EncodeToString(sum[:])
	// tables by identity: two compilers with different vocabularies never
	// share tokens
	key := fmt.Sprintf("%p\x00%s\x00%s", tables, engine.Name(), path)

	if v, ok := c.entries.Load(key); ok {
		if e := v.(*tokenEntry); e.hash == hash {
			return cloneTokens(e.tokens), nil
		}
	}

	v, err, shared := c.group.Do(key+"\x00"+hash, func() (any, error) {
		toks, err := NewTokenizer(tables, engine, path).File(src)
		if err != nil {
			return nil, err
		}
		e := &tokenEntry{hash: hash, tokens: toks}
		c.entries.Store(key, e)
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		debug.Log("token cache: shared tokenization of %s", path)
	}
	return cloneTokens(v.(*tokenEntry).tokens), nil
}

// Len returns the number of cached files.
func (c *TokenCache) Len() int {
	n := 0
	c.entries.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

// Reset drops every entry.
func (c *TokenCache) Reset() {
	c.entries.Clear()
}

func cloneTokens(toks []Token) []Token {
	out := make([]Token, len(toks))
	copy(out, toks)
	return out
}
