// Package cache stores computed layouts so that re-laying out an unchanged
// diagram does not call the layout engine again.
//
// Four backends implement [Cache]:
//   - [NullCache]: caching disabled
//   - [MemoryCache]: in-process map, the server default
//   - [FileCache]: one JSON file per entry under ~/.cache/autolayout/, the CLI default
//   - [RedisCache] and [MongoCache]: shared caches for multi-instance servers
//
// Keys are derived by a [Keyer] from a content hash of the abstract graph, so
// any change to node sizes, edges or layout options produces a new key.
package cache

import (
	"context"
	"time"
)

// TTLLayout is the default lifetime of a cached layout.
const TTLLayout = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiry.
// A miss is reported as (nil, false, nil); errors are reserved for backend
// failures. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LayoutKeyOpts are the inputs to a layout key besides the graph hash.
type LayoutKeyOpts struct {
	Engine string `json:"engine"`
}

// Keyer derives cache keys.
type Keyer interface {
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer produces unscoped "layout:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey hashes the graph hash together with opts.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}
