package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/vgdist/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Cap != DefaultCap || cfg.Cache.Backend != "file" || cfg.Server.Listen != ":8080" {
		t.Errorf("Default() = %+v", cfg)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
cap = 500

[cache]
backend = "redis"

[cache.redis]
addr = "redis:6379"
db = 2

[server]
listen = "127.0.0.1:9000"
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Cap != 500 {
		t.Errorf("Cap = %d, want 500", cfg.Cap)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.Redis.Addr != "redis:6379" || cfg.Cache.Redis.DB != 2 {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Server.Listen != "127.0.0.1:9000" {
		t.Errorf("Listen = %q", cfg.Server.Listen)
	}
	// Unset keys keep their defaults
	if cfg.Server.QueryCacheSize != DefaultQueryCacheSize {
		t.Errorf("QueryCacheSize = %d, want %d", cfg.Server.QueryCacheSize, DefaultQueryCacheSize)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", `cap = `},
		{"unknown key", `capp = 5`},
		{"negative cap", `cap = -1`},
		{"huge cap", `cap = 2000000000000`},
		{"bad backend", "[cache]\nbackend = \"s3\""},
		{"redis without addr", "[cache]\nbackend = \"redis\"\n[cache.redis]\naddr = \"\""},
		{"bad listen", "[server]\nlisten = \"nope\""},
		{"negative lru", "[server]\nquery_cache_size = -3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Parse() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	if err != nil || cfg != Default() {
		t.Errorf("Load(\"\") = %+v, %v, want defaults", cfg, err)
	}

	path := filepath.Join(t.TempDir(), "vgdist.toml")
	if err := os.WriteFile(path, []byte("cap = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cap != 0 {
		t.Errorf("Cap = %d, want 0", cfg.Cap)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Load(missing) error = %v, want INVALID_CONFIG", err)
	}
}
