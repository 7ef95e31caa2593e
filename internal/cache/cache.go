// Package cache persists lead lists per (category, location) key with
// read-time TTL expiry. A hit short-circuits the network stages entirely.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/leadradar/leadradar-cli/internal/model"
)

// Store is the result-cache interface injected into the pipeline.
// Get returns (nil, nil) on a miss; entries older than the store's TTL are
// deleted at read time and reported as misses. There is no background
// eviction; correctness depends only on the read-time check.
type Store interface {
	Get(ctx context.Context, category, location string) ([]model.Lead, error)
	Put(ctx context.Context, category, location string, leads []model.Lead) error

	// DeleteExpired removes all stale entries and returns the count.
	DeleteExpired(ctx context.Context) (int, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error

	Close() error
}

// Key returns the stable cache key for a (category, location) pair:
// SHA-256 hex of the lowercased pair joined with "|".
func Key(category, location string) string {
	normalized := strings.ToLower(strings.TrimSpace(category)) + "|" + strings.ToLower(strings.TrimSpace(location))
	return fmt.Sprintf("%x", sha256.Sum256([]byte(normalized)))
}
