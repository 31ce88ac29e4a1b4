// Package config loads vgdist settings from a TOML file.
//
// A config file sets defaults for the build and serve commands; command
// line flags override it. Every field is optional:
//
//	cap = 10000
//
//	[cache]
//	backend = "redis"    # file, redis or none
//	dir = "/var/cache/vgdist"
//
//	[cache.redis]
//	addr = "localhost:6379"
//	namespace = "vgdist:"
//
//	[server]
//	listen = ":8080"
//	query_cache_size = 4096
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/vgdist/pkg/errors"
)

// Defaults.
const (
	DefaultCap            = 10000
	DefaultBackend        = "file"
	DefaultRedisAddr      = "localhost:6379"
	DefaultListen         = ":8080"
	DefaultQueryCacheSize = 4096
)

// Config holds every setting a config file can carry.
type Config struct {
	// Cap is the max-distance estimator cap; 0 builds without it.
	Cap    int64        `toml:"cap"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects and configures the index cache.
type CacheConfig struct {
	Backend string      `toml:"backend"`
	Dir     string      `toml:"dir"` // empty for the XDG cache directory
	Redis   RedisConfig `toml:"redis"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr      string `toml:"addr"`
	Password  string `toml:"password"`
	DB        int    `toml:"db"`
	Namespace string `toml:"namespace"`
}

// ServerConfig configures the HTTP query service.
type ServerConfig struct {
	Listen         string `toml:"listen"`
	QueryCacheSize int    `toml:"query_cache_size"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Cap: DefaultCap,
		Cache: CacheConfig{
			Backend: DefaultBackend,
			Redis:   RedisConfig{Addr: DefaultRedisAddr},
		},
		Server: ServerConfig{
			Listen:         DefaultListen,
			QueryCacheSize: DefaultQueryCacheSize,
		},
	}
}

// Parse decodes TOML over the defaults and validates the result. Unknown
// keys are rejected so that typos do not pass silently.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the config file at path. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	if err := errors.ValidatePath(path); err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if err := errors.ValidateCap(c.Cap); err != nil {
		return err
	}
	if err := errors.ValidateCacheBackend(c.Cache.Backend); err != nil {
		return err
	}
	if c.Cache.Dir != "" {
		if err := errors.ValidatePath(c.Cache.Dir); err != nil {
			return err
		}
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "redis backend needs cache.redis.addr")
	}
	if err := errors.ValidateListenAddr(c.Server.Listen); err != nil {
		return err
	}
	if c.Server.QueryCacheSize < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "query_cache_size cannot be negative: %d", c.Server.QueryCacheSize)
	}
	return nil
}
