// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/meridian-index/meridian/lib/packages"
)

// StoreMode selects the package store backing.
type StoreMode string

const (
	// StoreDB reads packages from the indexer's objects mirror,
	// read-only.
	StoreDB StoreMode = "db"
	// StoreLocal keeps packages in a durable local table with a
	// remote fetch fallback.
	StoreLocal StoreMode = "local"
)

// Config is the resolver configuration.
type Config struct {
	// Store selects and configures the package store backing.
	Store StoreConfig `yaml:"store"`

	// Cache configures the in-memory package cache.
	Cache CacheConfig `yaml:"cache"`

	// Log configures logging output.
	Log LogConfig `yaml:"log"`
}

// StoreConfig configures the package store.
type StoreConfig struct {
	// Mode is "db" or "local".
	Mode StoreMode `yaml:"mode"`

	// DB configures the db store. Used when Mode is "db".
	DB DBConfig `yaml:"db"`

	// Local configures the local store. Used when Mode is "local".
	Local LocalConfig `yaml:"local"`

	// StrictRuntimeID rejects packages whose modules disagree on
	// their self address.
	StrictRuntimeID bool `yaml:"strict_runtime_id"`
}

// DBConfig configures the db-backed store.
type DBConfig struct {
	// Path is the SQLite file holding the objects mirror. The file
	// must already exist.
	Path string `yaml:"path"`

	// PoolSize is the connection pool size. Zero means the pool's
	// default.
	PoolSize int `yaml:"pool_size"`
}

// LocalConfig configures the local-persistent store.
type LocalConfig struct {
	// Path is the SQLite file for the local package table. Created
	// if it does not exist.
	Path string `yaml:"path"`

	// PoolSize is the connection pool size. Zero means the pool's
	// default.
	PoolSize int `yaml:"pool_size"`

	// FallbackURL is the base URL of the object service used for
	// ids missing from the local table.
	FallbackURL string `yaml:"fallback_url"`

	// Compression selects how stored values are compressed:
	// "none", "lz4", or "zstd". Default: zstd.
	Compression string `yaml:"compression"`
}

// CacheConfig configures the in-memory package cache.
type CacheConfig struct {
	// Size is the maximum number of cached packages. Zero means
	// the cache's default.
	Size int `yaml:"size"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is "debug", "info", "warn", or "error". Default: info.
	Level string `yaml:"level"`
}

// Default returns the default configuration. The defaults give every
// field a sensible zero state; the config file remains the single
// source of truth.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Mode: StoreDB,
			Local: LocalConfig{
				Compression: "zstd",
			},
		},
		Cache: CacheConfig{Size: packages.DefaultCacheSize},
		Log:   LogConfig{Level: "info"},
	}
}

// Load loads configuration from the file named by the
// MERIDIAN_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit
// path. There are no fallbacks and no file discovery — deterministic,
// auditable configuration with no hidden overrides.
func Load() (*Config, error) {
	path := os.Getenv("MERIDIAN_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("MERIDIAN_CONFIG environment variable not set; " +
			"set it to the path of your meridian.yaml config file, or use --config")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path. The single
// expansion performed afterwards is ${VAR} and ${VAR:-default}
// substitution in path fields; environment variables never override
// config values directly.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// path-valued fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Store.DB.Path = expandVars(c.Store.DB.Path, vars)
	c.Store.Local.Path = expandVars(c.Store.Local.Path, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Mode {
	case StoreDB:
		if c.Store.DB.Path == "" {
			errs = append(errs, fmt.Errorf("store.db.path is required in db mode"))
		}
	case StoreLocal:
		if c.Store.Local.Path == "" {
			errs = append(errs, fmt.Errorf("store.local.path is required in local mode"))
		}
		if c.Store.Local.FallbackURL == "" {
			errs = append(errs, fmt.Errorf("store.local.fallback_url is required in local mode"))
		}
		if _, err := packages.ParseCompressionTag(c.Store.Local.Compression); err != nil {
			errs = append(errs, fmt.Errorf("store.local.compression: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("store.mode must be %q or %q, got %q", StoreDB, StoreLocal, c.Store.Mode))
	}

	if c.Cache.Size < 0 {
		errs = append(errs, fmt.Errorf("cache.size must not be negative"))
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// CompressionTag returns the parsed local-store compression tag.
func (c *Config) CompressionTag() (packages.CompressionTag, error) {
	return packages.ParseCompressionTag(c.Store.Local.Compression)
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log.level must be debug, info, warn, or error, got %q", c.Log.Level)
	}
}
