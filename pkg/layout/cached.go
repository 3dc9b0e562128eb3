package layout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/autolayout/pkg/cache"
	"github.com/matzehuels/autolayout/pkg/observability"
)

const cacheKeyType = "layout"

// CachedEngine serves repeated layouts of identical graphs from a cache.
type CachedEngine struct {
	engine Engine
	cache  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
	name   string
	logger *log.Logger
}

// CachedOption configures a CachedEngine.
type CachedOption func(*CachedEngine)

// WithKeyer sets the key derivation. The default is cache.DefaultKeyer.
func WithKeyer(k cache.Keyer) CachedOption {
	return func(c *CachedEngine) {
		if k != nil {
			c.keyer = k
		}
	}
}

// WithEngineName includes name in cache keys so that different engines never
// share entries.
func WithEngineName(name string) CachedOption {
	return func(c *CachedEngine) { c.name = name }
}

// WithCacheLogger sets the logger for cache errors.
func WithCacheLogger(l *log.Logger) CachedOption {
	return func(c *CachedEngine) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCachedEngine wraps engine with c. A nil cache disables caching and a
// non-positive ttl selects cache.TTLLayout.
func NewCachedEngine(engine Engine, c cache.Cache, ttl time.Duration, opts ...CachedOption) *CachedEngine {
	if c == nil {
		c = cache.NewNullCache()
	}
	if ttl <= 0 {
		ttl = cache.TTLLayout
	}
	ce := &CachedEngine{
		engine: engine,
		cache:  c,
		keyer:  cache.NewDefaultKeyer(),
		ttl:    ttl,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(ce)
	}
	return ce
}

type cachedPosition struct {
	ID string   `json:"id"`
	X  *float64 `json:"x,omitempty"`
	Y  *float64 `json:"y,omitempty"`
}

// Layout implements Engine. Cache failures are logged and treated as misses;
// engine errors are returned unchanged and never cached.
func (c *CachedEngine) Layout(ctx context.Context, g *Graph) error {
	hooks := observability.Cache()

	key, err := c.key(g)
	if err != nil {
		c.logger.Warn("layout cache key failed", "error", err)
		return c.engine.Layout(ctx, g)
	}

	data, hit, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("layout cache read failed", "error", err)
	}
	if hit {
		var positions []cachedPosition
		if err := json.Unmarshal(data, &positions); err == nil {
			hooks.OnCacheHit(ctx, cacheKeyType)
			restore(g, positions)
			return nil
		}
		c.logger.Warn("layout cache entry corrupt", "key", key)
	}
	hooks.OnCacheMiss(ctx, cacheKeyType)

	if err := c.engine.Layout(ctx, g); err != nil {
		return err
	}

	positions := make([]cachedPosition, 0, len(g.Children))
	for _, child := range g.Children {
		if child == nil {
			continue
		}
		positions = append(positions, cachedPosition{ID: child.ID, X: child.X, Y: child.Y})
	}
	payload, err := json.Marshal(positions)
	if err != nil {
		c.logger.Warn("layout cache encode failed", "error", err)
		return nil
	}
	if err := c.cache.Set(ctx, key, payload, c.ttl); err != nil {
		c.logger.Warn("layout cache write failed", "error", err)
		return nil
	}
	hooks.OnCacheSet(ctx, cacheKeyType, len(payload))
	return nil
}

// key hashes g without coordinates, so a graph that was already laid out
// maps to the same entry as its unpositioned projection.
func (c *CachedEngine) key(g *Graph) (string, error) {
	stripped := g.Clone()
	for _, child := range stripped.Children {
		child.X, child.Y = nil, nil
	}
	h, err := cache.HashJSON(stripped)
	if err != nil {
		return "", err
	}
	return c.keyer.LayoutKey(h, cache.LayoutKeyOpts{Engine: c.name}), nil
}

// restore applies cached positions to g and drops children the engine had
// dropped when the entry was computed.
func restore(g *Graph, positions []cachedPosition) {
	byID := make(map[string]cachedPosition, len(positions))
	for _, p := range positions {
		byID[p.ID] = p
	}
	kept := g.Children[:0]
	for _, child := range g.Children {
		if child == nil {
			continue
		}
		p, ok := byID[child.ID]
		if !ok {
			continue
		}
		child.X, child.Y = p.X, p.Y
		kept = append(kept, child)
	}
	g.Children = kept
}
