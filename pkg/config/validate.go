package config

import (
	"github.com/matzehuels/autolayout/pkg/diagram"
	"github.com/matzehuels/autolayout/pkg/errors"
)

// Validate checks cross-field constraints. Errors carry
// errors.ErrCodeInvalidConfig.
func (c Config) Validate() error {
	switch c.Engine.Name {
	case EngineDot:
	case EngineRemote:
		if err := errors.ValidateURL(c.Engine.Remote.URL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "engine.remote.url")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown engine %q (must be %s or %s)", c.Engine.Name, EngineDot, EngineRemote)
	}
	if c.Engine.Remote.Attempts < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "engine.remote.attempts must be at least 1")
	}
	if c.Engine.Remote.Timeout.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "engine.remote.timeout cannot be negative")
	}
	if c.Engine.Dot.NodeSep < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "engine.dot.node_sep cannot be negative")
	}

	if c.Layout.LayerSpacing <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.layer_spacing must be positive")
	}
	if c.Layout.Direction != "" {
		if _, err := diagram.ParseDirection(c.Layout.Direction); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "layout.direction")
		}
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory, CacheFile:
	case CacheRedis:
		if c.Cache.Redis.Addr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis.addr is required")
		}
	case CacheMongo:
		if c.Cache.Mongo.URI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.mongo.uri is required")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl cannot be negative")
	}

	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.addr is required")
	}
	return nil
}

// DefaultDirection returns the configured default direction, or
// diagram.DefaultDirection when unset or invalid.
func (c Config) DefaultDirection() diagram.Direction {
	d, err := diagram.ParseDirection(c.Layout.Direction)
	if err != nil {
		return diagram.DefaultDirection
	}
	return d
}
