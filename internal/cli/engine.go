package cli

import (
	"context"
	"sync/atomic"

	"github.com/matzehuels/autolayout/pkg/cache"
	"github.com/matzehuels/autolayout/pkg/config"
	"github.com/matzehuels/autolayout/pkg/engine/dot"
	"github.com/matzehuels/autolayout/pkg/engine/remote"
	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/layout"
)

// =============================================================================
// Orchestrator Factory
// =============================================================================

// runOptions are per-command overrides of the loaded config.
type runOptions struct {
	Engine  string
	Cache   string
	NoCache bool
	Spacing float64
}

// runtime bundles an orchestrator with the resources it holds.
type runtime struct {
	Orch   *layout.Orchestrator
	Engine string
	Cache  string

	cache cache.Cache
	calls *atomic.Int64
}

// EngineCalls reports how many times the underlying engine ran; zero after a
// layout means it was served from cache.
func (r *runtime) EngineCalls() int64 { return r.calls.Load() }

// Close releases the cache backend.
func (r *runtime) Close() error { return r.cache.Close() }

// newRuntime wires engine, cache and orchestrator from config and opts.
func (c *CLI) newRuntime(ctx context.Context, opts runOptions) (*runtime, error) {
	cfg := c.Config
	if opts.Engine != "" {
		cfg.Engine.Name = opts.Engine
	}
	if opts.Cache != "" {
		cfg.Cache.Backend = opts.Cache
	}
	if opts.NoCache {
		cfg.Cache.Backend = config.CacheNone
	}
	if opts.Spacing > 0 {
		cfg.Layout.LayerSpacing = opts.Spacing
	}

	engine, err := c.newEngine(cfg)
	if err != nil {
		return nil, err
	}
	store, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	calls := new(atomic.Int64)
	counted := layout.EngineFunc(func(ctx context.Context, g *layout.Graph) error {
		calls.Add(1)
		return engine.Layout(ctx, g)
	})

	var keyer cache.Keyer = cache.NewDefaultKeyer()
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(keyer, cfg.Cache.Prefix)
	}
	cached := layout.NewCachedEngine(counted, store, cfg.Cache.TTL.Duration,
		layout.WithKeyer(keyer),
		layout.WithEngineName(cfg.Engine.Name),
		layout.WithCacheLogger(c.Logger))

	orch := layout.New(cached,
		layout.WithLogger(c.Logger),
		layout.WithLayerSpacing(cfg.Layout.LayerSpacing))

	return &runtime{
		Orch:   orch,
		Engine: cfg.Engine.Name,
		Cache:  cfg.Cache.Backend,
		cache:  store,
		calls:  calls,
	}, nil
}

func (c *CLI) newEngine(cfg config.Config) (layout.Engine, error) {
	if c.engine != nil {
		return c.engine, nil
	}
	switch cfg.Engine.Name {
	case config.EngineDot:
		return dot.New(dot.WithNodeSep(cfg.Engine.Dot.NodeSep), dot.WithLogger(c.Logger)), nil
	case config.EngineRemote:
		r := cfg.Engine.Remote
		return remote.New(r.URL,
			remote.WithTimeout(r.Timeout.Duration),
			remote.WithAttempts(r.Attempts),
			remote.WithBackoff(r.Backoff.Duration),
			remote.WithLogger(c.Logger))
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown engine %q (must be %s or %s)", cfg.Engine.Name, config.EngineDot, config.EngineRemote)
}

func (c *CLI) newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	cc := cfg.Cache
	switch cc.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheMemory:
		return cache.NewMemoryCache(cc.MaxEntries), nil
	case config.CacheFile:
		dir, err := cacheDir(cfg)
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cc.Redis.Addr,
			Password: cc.Redis.Password,
			DB:       cc.Redis.DB,
		})
	case config.CacheMongo:
		return cache.NewMongoCache(ctx, cache.MongoConfig{
			URI:        cc.Mongo.URI,
			Database:   cc.Mongo.Database,
			Collection: cc.Mongo.Collection,
		})
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", cc.Backend)
}

// cacheDir returns the configured cache directory or the XDG default.
func cacheDir(cfg config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return config.CacheDir()
}
