package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/autolayout/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Layout.LayerSpacing != 100 {
		t.Errorf("LayerSpacing = %v, want 100", cfg.Layout.LayerSpacing)
	}
	if cfg.Engine.Remote.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1 (no retry)", cfg.Engine.Remote.Attempts)
	}
	if cfg.Engine.Name != EngineDot {
		t.Errorf("Engine = %q, want %q", cfg.Engine.Name, EngineDot)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[engine]
name = "remote"

[engine.remote]
url = "http://localhost:7070/layout"
timeout = "5s"
attempts = 3

[layout]
layer_spacing = 140
direction = "TB"

[cache]
backend = "memory"
ttl = "1h"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.Name != EngineRemote || cfg.Engine.Remote.URL != "http://localhost:7070/layout" {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.Engine.Remote.Timeout.Duration != 5*time.Second || cfg.Engine.Remote.Attempts != 3 {
		t.Errorf("remote = %+v", cfg.Engine.Remote)
	}
	if cfg.Layout.LayerSpacing != 140 || cfg.DefaultDirection() != "TB" {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	if cfg.Cache.Backend != CacheMemory || cfg.Cache.TTL.Duration != time.Hour {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("unset keys should keep defaults, Server.Addr = %q", cfg.Server.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing explicit file: err = %v, want FILE_NOT_FOUND", err)
	}

	bad := filepath.Join(dir, "bad.toml")
	_ = os.WriteFile(bad, []byte("[engine\nname ="), 0644)
	if _, err := Load(bad); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("malformed file: err = %v, want INVALID_CONFIG", err)
	}

	unknown := filepath.Join(dir, "unknown.toml")
	_ = os.WriteFile(unknown, []byte("[layout]\nspacing = 3\n"), 0644)
	_, err := Load(unknown)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) || !strings.Contains(err.Error(), "layout.spacing") {
		t.Errorf("unknown key: err = %v", err)
	}
}

func TestLoadDefaultPathMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("missing default file should not fail: %v", err)
	}
	if cfg.Engine.Name != EngineDot {
		t.Error("expected defaults")
	}
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")

	p, err := DefaultPath()
	if err != nil || p != filepath.Join("/tmp/xdg-config", "autolayout", "config.toml") {
		t.Errorf("DefaultPath = %q, %v", p, err)
	}
	d, err := CacheDir()
	if err != nil || d != filepath.Join("/tmp/xdg-cache", "autolayout") {
		t.Errorf("CacheDir = %q, %v", d, err)
	}
}

func TestApplyEnv(t *testing.T) {
	secret := filepath.Join(t.TempDir(), "redis-pass")
	_ = os.WriteFile(secret, []byte("s3cret\n"), 0600)

	env := map[string]string{
		"AUTOLAYOUT_ENGINE":              "remote",
		"AUTOLAYOUT_REMOTE_URL":          "https://elk.internal/layout",
		"AUTOLAYOUT_REMOTE_ATTEMPTS":     "2",
		"AUTOLAYOUT_LAYER_SPACING":       "64",
		"AUTOLAYOUT_CACHE":               "redis",
		"AUTOLAYOUT_CACHE_TTL":           "90m",
		"AUTOLAYOUT_REDIS_PASSWORD":      "ignored",
		"AUTOLAYOUT_REDIS_PASSWORD_FILE": secret,
		"AUTOLAYOUT_ADDR":                "  :9000 ",
	}
	cfg := Default()
	if err := ApplyEnv(&cfg, func(k string) string { return env[k] }); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if cfg.Engine.Name != "remote" || cfg.Engine.Remote.URL != "https://elk.internal/layout" || cfg.Engine.Remote.Attempts != 2 {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.Layout.LayerSpacing != 64 {
		t.Errorf("LayerSpacing = %v", cfg.Layout.LayerSpacing)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.TTL.Duration != 90*time.Minute {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Cache.Redis.Password != "s3cret" {
		t.Errorf("password = %q, *_FILE should win", cfg.Cache.Redis.Password)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Cache.Redis.Addr != "localhost:6379" {
		t.Error("unset variables should keep existing values")
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	tests := map[string]string{
		"AUTOLAYOUT_REMOTE_ATTEMPTS": "many",
		"AUTOLAYOUT_LAYER_SPACING":   "wide",
		"AUTOLAYOUT_CACHE_TTL":       "forever",
		"AUTOLAYOUT_MONGO_URI_FILE":  "/does/not/exist",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			cfg := Default()
			err := ApplyEnv(&cfg, func(k string) string {
				if k == key {
					return val
				}
				return ""
			})
			if !errors.Is(err, errors.ErrCodeInvalidConfig) || !strings.Contains(err.Error(), key) {
				t.Errorf("err = %v", err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	_ = os.WriteFile(path, []byte("AUTOLAYOUT_TEST_DOTENV=from-file\nAUTOLAYOUT_TEST_PRESET=from-file\n"), 0644)

	t.Setenv("AUTOLAYOUT_TEST_PRESET", "from-env")
	t.Setenv("AUTOLAYOUT_TEST_DOTENV", "")
	os.Unsetenv("AUTOLAYOUT_TEST_DOTENV")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("AUTOLAYOUT_TEST_DOTENV"); got != "from-file" {
		t.Errorf("AUTOLAYOUT_TEST_DOTENV = %q", got)
	}
	if got := os.Getenv("AUTOLAYOUT_TEST_PRESET"); got != "from-env" {
		t.Errorf("existing variables must not be overridden, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown engine", func(c *Config) { c.Engine.Name = "elk" }},
		{"remote without url", func(c *Config) { c.Engine.Name = EngineRemote }},
		{"remote bad url", func(c *Config) { c.Engine.Name = EngineRemote; c.Engine.Remote.URL = "ftp://x" }},
		{"zero attempts", func(c *Config) { c.Engine.Remote.Attempts = 0 }},
		{"zero spacing", func(c *Config) { c.Layout.LayerSpacing = 0 }},
		{"bad direction", func(c *Config) { c.Layout.Direction = "diagonal" }},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "s3" }},
		{"redis without addr", func(c *Config) { c.Cache.Backend = CacheRedis; c.Cache.Redis.Addr = "" }},
		{"mongo without uri", func(c *Config) { c.Cache.Backend = CacheMongo; c.Cache.Mongo.URI = "" }},
		{"negative ttl", func(c *Config) { c.Cache.TTL.Duration = -time.Second }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Validate() = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(Default(), &buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), `timeout = "30s"`) {
		t.Errorf("durations should encode as strings:\n%s", buf.String())
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	_ = os.WriteFile(path, buf.Bytes(), 0644)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("round trip changed config:\n%+v\n%+v", cfg, Default())
	}
}
