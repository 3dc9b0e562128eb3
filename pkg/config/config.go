// Package config loads autolayout settings.
//
// Settings are resolved in three layers, later layers winning:
//
//  1. [Default] values
//  2. a TOML file, by default $XDG_CONFIG_HOME/autolayout/config.toml
//  3. AUTOLAYOUT_* environment variables, optionally seeded from a .env file
//
// Example config.toml:
//
//	[engine]
//	name = "remote"
//
//	[engine.remote]
//	url = "http://localhost:7070/layout"
//	timeout = "10s"
//	attempts = 3
//
//	[layout]
//	layer_spacing = 120
//
//	[cache]
//	backend = "redis"
//	ttl = "24h"
//
//	[cache.redis]
//	addr = "localhost:6379"
package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/autolayout/pkg/errors"
)

// AppName names the config and cache directories.
const AppName = "autolayout"

// Engine names.
const (
	EngineDot    = "dot"
	EngineRemote = "remote"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
	CacheMongo  = "mongo"
)

// Config is the complete configuration.
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Layout LayoutConfig `toml:"layout"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// EngineConfig selects and tunes the layout engine.
type EngineConfig struct {
	Name   string       `toml:"name"`
	Dot    DotConfig    `toml:"dot"`
	Remote RemoteConfig `toml:"remote"`
}

// DotConfig tunes the Graphviz engine.
type DotConfig struct {
	NodeSep float64 `toml:"node_sep"`
}

// RemoteConfig points at an ELK JSON layout service.
type RemoteConfig struct {
	URL      string   `toml:"url"`
	Timeout  Duration `toml:"timeout"`
	Attempts int      `toml:"attempts"`
	Backoff  Duration `toml:"backoff"`
}

// LayoutConfig holds orchestrator settings.
type LayoutConfig struct {
	LayerSpacing float64 `toml:"layer_spacing"`
	Direction    string  `toml:"direction"`
}

// CacheConfig selects the layout cache.
type CacheConfig struct {
	Backend    string      `toml:"backend"`
	Dir        string      `toml:"dir"`
	TTL        Duration    `toml:"ttl"`
	MaxEntries int         `toml:"max_entries"`
	Prefix     string      `toml:"prefix"`
	Redis      RedisConfig `toml:"redis"`
	Mongo      MongoConfig `toml:"mongo"`
}

// RedisConfig addresses a Redis server.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoConfig addresses a MongoDB collection.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures `autolayout serve`.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	MaxBodyBytes    int64    `toml:"max_body_bytes"`
}

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct{ time.Duration }

// UnmarshalText parses strings such as "1m30s".
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText writes the duration in Go syntax.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			Name: EngineDot,
			Dot:  DotConfig{NodeSep: 18},
			Remote: RemoteConfig{
				Timeout:  Duration{30 * time.Second},
				Attempts: 1,
				Backoff:  Duration{500 * time.Millisecond},
			},
		},
		Layout: LayoutConfig{
			LayerSpacing: 100,
			Direction:    "LR",
		},
		Cache: CacheConfig{
			Backend:    CacheFile,
			TTL:        Duration{7 * 24 * time.Hour},
			MaxEntries: 10000,
			Redis:      RedisConfig{Addr: "localhost:6379"},
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   AppName,
				Collection: "layouts",
			},
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration{15 * time.Second},
			WriteTimeout:    Duration{60 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
			MaxBodyBytes:    8 << 20,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/autolayout/config.toml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// CacheDir returns the file cache directory using the XDG layout
// (~/.cache/autolayout/).
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// Load reads path on top of Default. An empty path reads DefaultPath and
// tolerates it being absent; an explicit path must exist. Unknown keys are
// rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// Write encodes cfg as TOML.
func Write(cfg Config, w io.Writer) error {
	return toml.NewEncoder(w).Encode(cfg)
}
