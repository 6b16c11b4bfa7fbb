package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrMiss is returned by UpdateJSON when the key does not exist.
	ErrMiss = errors.New("cache: key not found")
	// ErrConflict means concurrent writers kept invalidating an update.
	ErrConflict = errors.New("cache: too many concurrent updates")
)

// Cache stores JSON documents under string keys with an expiry.
// A missing or unreadable key is a miss, not an error.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	// UpdateJSON hands the stored document to fn and writes fn's result
	// back with ttl, atomically with respect to other writers of key. It
	// never creates the key.
	UpdateJSON(ctx context.Context, key string, ttl time.Duration, fn func(raw []byte) (any, error)) error
	Del(ctx context.Context, keys ...string) error
}
