package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Publish  PublishConfig  `mapstructure:"publish"`
	Viewer   ViewerConfig   `mapstructure:"viewer"`
}

// APIConfig holds everything the catalog client needs to talk to the
// storefront API.
type APIConfig struct {
	BaseURL              string `mapstructure:"base_url"`
	Lang                 string `mapstructure:"lang"`
	Warehouse            string `mapstructure:"warehouse"`
	Timeout              int    `mapstructure:"timeout"`
	MaxAttempts          int    `mapstructure:"max_attempts"`
	RetryWaitMs          int    `mapstructure:"retry_wait_ms"`
	RetryMaxWaitMs       int    `mapstructure:"retry_max_wait_ms"`
	MaxWorkers           int    `mapstructure:"max_workers"`
	MaxRequestsPerSecond int    `mapstructure:"max_requests_per_second"`
	DelayMs              int    `mapstructure:"delay_ms"`
}

// SnapshotConfig controls the on-disk output tree.
type SnapshotConfig struct {
	OutDir        string `mapstructure:"out_dir"`
	SkipUnchanged bool   `mapstructure:"skip_unchanged"`
}

// FilterConfig narrows a run for debugging or partial refreshes.
type FilterConfig struct {
	CategoryIDs []int `mapstructure:"category_ids"`
	MaxProducts int   `mapstructure:"max_products"`
}

// RedisConfig holds the optional run-state checkpoint connection.
type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	Database  int    `mapstructure:"database"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// DatabaseConfig holds the optional Postgres mirror connection.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// PublishConfig drives the dataset upload step after a successful run.
type PublishConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dataset string `mapstructure:"dataset"`
	Message string `mapstructure:"message"`
}

// ViewerConfig toggles generation of the static HTML catalog browser.
type ViewerConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from YAML file with environment variable overrides.
// A missing config.yaml is fine: the crawler runs from CI cron with defaults
// plus env vars.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.API.MaxWorkers < 1 {
		return fmt.Errorf("api.max_workers must be at least 1, got %d", c.API.MaxWorkers)
	}
	if c.API.MaxAttempts < 1 {
		return fmt.Errorf("api.max_attempts must be at least 1, got %d", c.API.MaxAttempts)
	}
	if c.Snapshot.OutDir == "" {
		return fmt.Errorf("snapshot.out_dir must not be empty")
	}
	if c.Publish.Enabled && c.Publish.Dataset == "" {
		return fmt.Errorf("publish.dataset must be set when publish is enabled")
	}
	return nil
}

// RequestTimeout returns the per-request timeout as a duration.
func (c APIConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Delay returns the per-worker inter-request delay as a duration.
func (c APIConfig) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

// RetryWait returns the first backoff step as a duration.
func (c APIConfig) RetryWait() time.Duration {
	return time.Duration(c.RetryWaitMs) * time.Millisecond
}

// RetryMaxWait returns the backoff cap as a duration.
func (c APIConfig) RetryMaxWait() time.Duration {
	return time.Duration(c.RetryMaxWaitMs) * time.Millisecond
}

func setDefaults() {
	viper.SetDefault("api.base_url", "https://tienda.mercadona.es/api")
	viper.SetDefault("api.lang", "")
	viper.SetDefault("api.warehouse", "")
	viper.SetDefault("api.timeout", 20)
	viper.SetDefault("api.max_attempts", 3)
	viper.SetDefault("api.retry_wait_ms", 250)
	viper.SetDefault("api.retry_max_wait_ms", 2000)
	viper.SetDefault("api.max_workers", 4)
	viper.SetDefault("api.max_requests_per_second", 0)
	viper.SetDefault("api.delay_ms", 200)

	viper.SetDefault("snapshot.out_dir", "data")
	viper.SetDefault("snapshot.skip_unchanged", true)

	viper.SetDefault("filter.category_ids", []int{})
	viper.SetDefault("filter.max_products", 0)

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.database", 0)
	viper.SetDefault("redis.key_prefix", "mercadona:snapshot:")

	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "mercadona")
	viper.SetDefault("database.user", "mercadona_user")
	viper.SetDefault("database.password", "mercadona_pass")

	viper.SetDefault("publish.enabled", false)
	viper.SetDefault("publish.dataset", "")
	viper.SetDefault("publish.message", "Weekly catalog snapshot")

	viper.SetDefault("viewer.enabled", true)
}
