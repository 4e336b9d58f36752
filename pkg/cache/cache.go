// Package cache provides the caching primitives shared by the recipe
// resolver and the render pipeline.
//
// Two kinds of cache live here:
//   - [Cache]: a byte-oriented store with TTLs for encoded render artifacts
//     (PNG/SVG). Backends: memory, file, Redis and a null cache.
//   - [Memo]: a typed, process-local memo table used by the resolver for
//     configs, components and resolved props.
//
// Keys are built by a [Keyer] so every backend sees the same key shapes:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.RenderKey("weather", 800, 480, []string{"png"})
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads with an optional time-to-live.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the stored bytes and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
