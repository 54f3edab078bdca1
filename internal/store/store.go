// Package store persists the user's settings, profile and toggles. It plays
// the role of the browser's local storage: small JSON records under fixed keys.
package store

import (
	"context"
	"errors"
	"fmt"

	"go-boss-assistant/internal/config"
)

// ErrNotFound is returned by KV.Get for a key that was never set or was
// deleted.
var ErrNotFound = errors.New("store: key not found")

// KV is a minimal key-value store of JSON documents.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns the backend selected by cfg.Store.
func Open(cfg *config.Config) (KV, error) {
	switch cfg.Store {
	case "redis":
		return NewRedisStore(cfg.RedisURL, "")
	case "file", "":
		return NewFileStore(cfg.StorePath)
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}
