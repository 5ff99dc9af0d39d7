package config

import (
	"strings"
	"time"

	"github.com/vietddude/vetclinic/internal/infra/api/retry"
	"github.com/vietddude/vetclinic/internal/infra/kv"
)

// ModeProduction selects api.base_url_prod.
const ModeProduction = "production"

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Mode      string            `yaml:"mode"`
	API       APIConfig         `yaml:"api"`
	Retry     RetryConfig       `yaml:"retry"`
	Fallback  FallbackConfig    `yaml:"fallback"`
	Store     kv.Config         `yaml:"store"`
	Redis     kv.RedisConfig    `yaml:"redis"`
	Database  kv.PostgresConfig `yaml:"database"`
	Logging   LoggingConfig     `yaml:"logging"`
	DevServer DevServerConfig   `yaml:"devserver"`
}

// APIConfig holds backend endpoint settings.
type APIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	BaseURLProd  string        `yaml:"base_url_prod"`
	Timeout      time.Duration `yaml:"timeout"`
	LoginTimeout time.Duration `yaml:"login_timeout"`
}

// RetryConfig mirrors retry.Policy.
type RetryConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"`
	BaseDelay     time.Duration `yaml:"base_delay"`
	RetryStatuses []int         `yaml:"retry_statuses"`
}

// FallbackConfig controls the last-good-response cache.
type FallbackConfig struct {
	Disabled      bool          `yaml:"disabled"`
	MaxStaleness  time.Duration `yaml:"max_staleness"` // 0 = unbounded
	AnyFailure    bool          `yaml:"any_failure"`   // also fall back on non-retryable failures
	Retention     time.Duration `yaml:"retention"`     // entries older than this are pruned; 0 keeps all
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DevServerConfig holds settings for the local stub backend.
type DevServerConfig struct {
	Addr  string `yaml:"addr"`
	Token string `yaml:"token"`
	Seed  bool   `yaml:"seed"`
}

// BaseURL returns the backend URL for the configured mode.
func (c *AppConfig) BaseURL() string {
	if strings.EqualFold(c.Mode, ModeProduction) && c.API.BaseURLProd != "" {
		return c.API.BaseURLProd
	}
	return c.API.BaseURL
}

// Policy converts the retry section.
func (r RetryConfig) Policy() retry.Policy {
	return retry.Policy{
		MaxAttempts:   r.MaxAttempts,
		BaseDelay:     r.BaseDelay,
		RetryStatuses: r.RetryStatuses,
	}
}
