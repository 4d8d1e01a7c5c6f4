// Package cache provides byte caches for generated graphs and rendered
// artifacts.
//
// Backends:
//
//   - [FileCache]: one JSON file per entry, for CLI usage
//   - [RedisCache]: a shared Redis instance, for the HTTP service
//   - [NullCache]: stores nothing
//
// Keys come from a [Keyer]. Generated graphs are keyed by their validated
// configuration, so two requests that validate to the same configuration
// share an entry regardless of how their parameters were spelled.
package cache

import (
	"context"
	"time"
)

// Default TTLs.
const (
	GraphTTL    = 7 * 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)

// Cache stores opaque byte values under string keys.
//
// Get reports a miss with hit == false and a nil error; errors are reserved
// for backend failures. A zero ttl means no expiry.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
