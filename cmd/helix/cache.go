package main

import (
	"fmt"

	"github.com/helix-lang/helix/internal/cache"
	"github.com/helix-lang/helix/internal/helix"
)

// runCache implements "cache reset" and "cache dir".
func runCache(args []string) error {
	if len(args) != 1 {
		return argError("A006", "cache: expected one of reset, dir")
	}
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	store, err := cache.Open(cfg.Cache.Dir, helix.Version)
	if err != nil {
		return &helix.Error{Kind: helix.KindIO, Code: "I003", Message: err.Error()}
	}
	switch args[0] {
	case "reset":
		n := store.Len()
		if err := store.Reset(); err != nil {
			return &helix.Error{Kind: helix.KindIO, Code: "I003", Message: err.Error()}
		}
		fmt.Printf("removed %d cached artifact(s) from %s\n", n, store.Dir())
	case "dir":
		fmt.Println(store.Dir())
	default:
		return argError("A006", "cache: unknown action %q, expected reset or dir", args[0])
	}
	return nil
}
