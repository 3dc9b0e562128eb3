package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/matzehuels/autolayout/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AUTOLAYOUT_"

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are skipped; with no arguments ".env" in the working directory is
// tried.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "load %s", p)
		}
	}
	return nil
}

// ApplyEnv overrides cfg from AUTOLAYOUT_* variables looked up with getenv.
// Secrets also honour the *_FILE convention: AUTOLAYOUT_REDIS_PASSWORD_FILE
// names a file whose trimmed content is used.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	e := envReader{getenv: getenv}

	e.stringVar("ENGINE", &cfg.Engine.Name)
	e.floatVar("DOT_NODE_SEP", &cfg.Engine.Dot.NodeSep)
	e.stringVar("REMOTE_URL", &cfg.Engine.Remote.URL)
	e.durationVar("REMOTE_TIMEOUT", &cfg.Engine.Remote.Timeout)
	e.intVar("REMOTE_ATTEMPTS", &cfg.Engine.Remote.Attempts)
	e.durationVar("REMOTE_BACKOFF", &cfg.Engine.Remote.Backoff)

	e.floatVar("LAYER_SPACING", &cfg.Layout.LayerSpacing)
	e.stringVar("DIRECTION", &cfg.Layout.Direction)

	e.stringVar("CACHE", &cfg.Cache.Backend)
	e.stringVar("CACHE_DIR", &cfg.Cache.Dir)
	e.durationVar("CACHE_TTL", &cfg.Cache.TTL)
	e.intVar("CACHE_MAX_ENTRIES", &cfg.Cache.MaxEntries)
	e.stringVar("CACHE_PREFIX", &cfg.Cache.Prefix)
	e.stringVar("REDIS_ADDR", &cfg.Cache.Redis.Addr)
	e.secretVar("REDIS_PASSWORD", &cfg.Cache.Redis.Password)
	e.intVar("REDIS_DB", &cfg.Cache.Redis.DB)
	e.secretVar("MONGO_URI", &cfg.Cache.Mongo.URI)
	e.stringVar("MONGO_DATABASE", &cfg.Cache.Mongo.Database)

	e.stringVar("ADDR", &cfg.Server.Addr)
	e.durationVar("SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	return e.err
}

type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) lookup(name string) (string, bool) {
	v := strings.TrimSpace(e.getenv(EnvPrefix + name))
	return v, v != ""
}

func (e *envReader) fail(name string, err error) {
	if e.err == nil {
		e.err = errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s%s", EnvPrefix, name)
	}
}

func (e *envReader) stringVar(name string, dst *string) {
	if v, ok := e.lookup(name); ok {
		*dst = v
	}
}

func (e *envReader) intVar(name string, dst *int) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(name, err)
		return
	}
	*dst = n
}

func (e *envReader) floatVar(name string, dst *float64) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(name, err)
		return
	}
	*dst = f
}

func (e *envReader) durationVar(name string, dst *Duration) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(name, err)
		return
	}
	dst.Duration = d
}

func (e *envReader) secretVar(name string, dst *string) {
	if path, ok := e.lookup(name + "_FILE"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			e.fail(name+"_FILE", err)
			return
		}
		*dst = strings.TrimSpace(string(data))
		return
	}
	e.stringVar(name, dst)
}
