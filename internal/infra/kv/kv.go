// Package kv provides the durable key-value store backing the session and the
// fallback cache.
//
// Backends:
//   - bolt: a local bbolt file (default, survives restarts of one installation)
//   - redis: shared store for kiosk deployments
//   - postgres: shared store managed with goose migrations
//   - memory: process-local, for tests and --ephemeral runs
package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("kv: key not found")

// Store is a flat string-keyed byte store.
type Store interface {
	// Get returns the value for key or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes value under key, replacing any previous value
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Keys lists keys starting with prefix, sorted
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases resources
	Close() error
}

// HealthChecker is implemented by backends that depend on a remote server.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Health checks s when it has a remote server. Local backends are always
// reachable and report nil.
func Health(ctx context.Context, s Store) error {
	if hc, ok := s.(HealthChecker); ok {
		return hc.Health(ctx)
	}
	return nil
}

// Driver names accepted by Open.
const (
	DriverBolt     = "bolt"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config selects and configures a backend.
type Config struct {
	Driver string `yaml:"driver"`
	// Path is the bbolt file for the bolt driver.
	Path string `yaml:"path"`
	// Namespace prefixes every key in shared backends.
	Namespace string `yaml:"namespace"`
}

// DefaultPath returns the per-user bbolt location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "vetclinic", "state.db")
}

// Open builds the configured backend. Redis and Postgres settings come from
// their own config sections.
func Open(ctx context.Context, cfg Config, redisCfg RedisConfig, pgCfg PostgresConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", DriverBolt:
		path := cfg.Path
		if path == "" {
			path = DefaultPath()
		}
		return NewBoltStore(path)
	case DriverRedis:
		return NewRedisStore(ctx, redisCfg, cfg.Namespace)
	case DriverPostgres:
		return NewPostgresStore(ctx, pgCfg, cfg.Namespace)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("kv: unknown driver %q", cfg.Driver)
	}
}
