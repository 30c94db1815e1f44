// Package config provides configuration management for the todo server.
//
// Settings come from three layers, later layers winning:
//  1. built-in defaults (DefaultConfig)
//  2. the first config file found:
//     $REMOTETODOS_CONFIG, ./remotetodos.yaml,
//     ~/.config/remotetodos/config.yaml, /etc/remotetodos/config.yaml
//  3. the DATABASE_URL environment variable (ApplyEnv)
//
// Command-line flags are applied on top by the server binary.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"remotetodos/internal/domain"
	"remotetodos/internal/pool"
	"remotetodos/internal/queue"
	"remotetodos/internal/store"
)

// Defaults
const (
	DefaultAddr            = ":8000"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultDialTimeout     = 5 * time.Second
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns the settings used when no config file exists
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(DefaultWriteTimeout)
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = Duration(DefaultIdleTimeout)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}

	if c.Database.URL == "" {
		c.Database.URL = store.DefaultURL
	}
	if c.Database.Key == "" {
		c.Database.Key = domain.ListKey
	}
	if c.Database.DeleteMode == "" {
		c.Database.DeleteMode = string(queue.DeletePositional)
	}
	if c.Database.DialTimeout == 0 {
		c.Database.DialTimeout = Duration(DefaultDialTimeout)
	}

	defaults := pool.DefaultOptions()
	if c.Pool.Size <= 0 {
		c.Pool.Size = defaults.Size
	}
	if c.Pool.Wait == nil {
		wait := defaults.Wait
		c.Pool.Wait = &wait
	}
	if c.Pool.AcquireTimeout == 0 {
		c.Pool.AcquireTimeout = Duration(defaults.AcquireTimeout)
	}
}

// ApplyEnv overrides file settings from the environment
func (c *Config) ApplyEnv() {
	if url := os.Getenv(EnvDatabaseURL); url != "" {
		c.Database.URL = url
	}
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	if _, err := queue.ParseDeleteMode(c.Database.DeleteMode); err != nil {
		return fmt.Errorf("database.delete_mode: %w", err)
	}
	if c.Pool.AcquireTimeout < 0 {
		return fmt.Errorf("pool.acquire_timeout must not be negative")
	}
	return nil
}

// DeleteMode returns the parsed delete mode
func (c *Config) DeleteMode() queue.DeleteMode {
	mode, err := queue.ParseDeleteMode(c.Database.DeleteMode)
	if err != nil {
		return queue.DeletePositional
	}
	return mode
}

// PoolOptions converts the pool section for pool.New
func (c *Config) PoolOptions() pool.Options {
	wait := true
	if c.Pool.Wait != nil {
		wait = *c.Pool.Wait
	}
	return pool.Options{
		Size:           c.Pool.Size,
		Wait:           wait,
		AcquireTimeout: c.Pool.AcquireTimeout.Duration(),
	}
}

// StoreOptions converts the database section for store.Open
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		PoolSize:    c.Pool.Size,
		DialTimeout: c.Database.DialTimeout.Duration(),
	}
}

// Summary returns a human-readable config summary with credentials masked
func (c *Config) Summary() string {
	wait := "fail-fast"
	if c.PoolOptions().Wait {
		wait = fmt.Sprintf("wait %s", c.Pool.AcquireTimeout.Duration())
	}
	return fmt.Sprintf("addr=%s database=%s key=%s delete=%s pool=%d (%s)",
		c.Server.Addr, store.Redact(c.Database.URL), c.Database.Key,
		c.Database.DeleteMode, c.Pool.Size, wait)
}
