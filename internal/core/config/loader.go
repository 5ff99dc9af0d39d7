package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/vietddude/vetclinic/internal/infra/api/retry"
	"github.com/vietddude/vetclinic/internal/infra/kv"
)

// envOverrides are read from VETCLINIC_* variables and win over the file.
type envOverrides struct {
	Mode        string `envconfig:"MODE"`
	APIURL      string `envconfig:"API_URL"`
	StoreDriver string `envconfig:"STORE_DRIVER"`
	StorePath   string `envconfig:"STORE_PATH"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
}

// Load reads configuration from a YAML file. An empty path yields the
// defaults; environment overrides apply in both cases.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Expand environment variables in the YAML content
		expandedData := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *AppConfig) error {
	var env envOverrides
	if err := envconfig.Process("vetclinic", &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	if env.Mode != "" {
		cfg.Mode = env.Mode
	}
	if env.APIURL != "" {
		cfg.API.BaseURL = env.APIURL
		cfg.API.BaseURLProd = env.APIURL
	}
	if env.StoreDriver != "" {
		cfg.Store.Driver = env.StoreDriver
	}
	if env.StorePath != "" {
		cfg.Store.Path = env.StorePath
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = env.LogLevel
	}
	return nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Mode == "" {
		cfg.Mode = "development"
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:3000"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 8 * time.Second
	}
	if cfg.API.LoginTimeout == 0 {
		cfg.API.LoginTimeout = 10 * time.Second
	}

	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = retry.DefaultPolicy.MaxAttempts
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = retry.DefaultPolicy.BaseDelay
	}
	if len(cfg.Retry.RetryStatuses) == 0 {
		cfg.Retry.RetryStatuses = retry.DefaultPolicy.RetryStatuses
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = kv.DriverBolt
	}
	if cfg.Store.Driver == kv.DriverBolt && cfg.Store.Path == "" {
		cfg.Store.Path = kv.DefaultPath()
	}
	if cfg.Store.Namespace == "" {
		cfg.Store.Namespace = "vetclinic"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.DevServer.Addr == "" {
		cfg.DevServer.Addr = ":3000"
	}
}

// Validate rejects settings the client cannot run with.
func (c *AppConfig) Validate() error {
	if c.API.Timeout < 0 || c.API.LoginTimeout < 0 {
		return fmt.Errorf("api timeouts must not be negative")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Fallback.Retention < 0 {
		return fmt.Errorf("fallback.retention must not be negative")
	}
	if c.Fallback.MaxStaleness < 0 {
		return fmt.Errorf("fallback.max_staleness must not be negative")
	}
	switch c.Store.Driver {
	case kv.DriverBolt, kv.DriverMemory:
	case kv.DriverRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("store.driver redis requires redis.url")
		}
	case kv.DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("store.driver postgres requires database.url")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	return nil
}
