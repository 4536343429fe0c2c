package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Paraschamoli/Bindu/pkg/httpclient"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName              string        `mapstructure:"app_name"`
	Env                  string        `mapstructure:"app_env"`
	LogLevel             string        `mapstructure:"log_level"`
	TargetsFile          string        `mapstructure:"targets_file"`
	PublishersFile       string        `mapstructure:"publishers_file"`
	ProbeIntervalSeconds int64         `mapstructure:"probe_interval"`
	ProbeConcurrency     int           `mapstructure:"probe_concurrency"`
	ProbeInterval        time.Duration `mapstructure:"-"`

	BaseURL            string        `mapstructure:"base_url"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPVerifyTLS      bool          `mapstructure:"http_verify_tls"`
	HTTPMaxRetries     int           `mapstructure:"http_max_retries"`
	HTTPBackoffBaseMs  int64         `mapstructure:"http_backoff_base_ms"`
	HTTPUserAgent      string        `mapstructure:"http_user_agent"`
	HTTPTimeout        time.Duration `mapstructure:"-"`
	HTTPBackoffBase    time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("app_name", "bindu-probe")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("targets_file", "./configs/targets.yaml")
	v.SetDefault("publishers_file", "")
	v.SetDefault("probe_interval", 60) // seconds, 0 runs a single pass
	v.SetDefault("probe_concurrency", 4)
	v.SetDefault("base_url", "")
	v.SetDefault("http_timeout_seconds", 10)
	v.SetDefault("http_verify_tls", true)
	v.SetDefault("http_max_retries", 3)
	v.SetDefault("http_backoff_base_ms", 1000)
	v.SetDefault("http_user_agent", "bindu-probe/1.0")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/probe.db")
	v.SetDefault("storage_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base_url is required")
	}

	if cfg.ProbeIntervalSeconds < 0 {
		return nil, fmt.Errorf("invalid probe_interval (must be zero or positive seconds)")
	}
	cfg.ProbeInterval = time.Duration(cfg.ProbeIntervalSeconds) * time.Second
	if cfg.ProbeConcurrency <= 0 {
		return nil, fmt.Errorf("invalid probe_concurrency (must be positive)")
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	if cfg.HTTPMaxRetries < 1 {
		return nil, fmt.Errorf("invalid http_max_retries (must be at least 1)")
	}
	if cfg.HTTPBackoffBaseMs <= 0 {
		return nil, fmt.Errorf("invalid http_backoff_base_ms (must be positive milliseconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	cfg.HTTPBackoffBase = time.Duration(cfg.HTTPBackoffBaseMs) * time.Millisecond

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}

// HTTPClientConfig maps the http_* settings onto the resilient client config.
func (c *Config) HTTPClientConfig() httpclient.Config {
	verify := c.HTTPVerifyTLS
	headers := map[string]string{}
	if ua := strings.TrimSpace(c.HTTPUserAgent); ua != "" {
		headers["User-Agent"] = ua
	}
	return httpclient.Config{
		BaseURL:        c.BaseURL,
		Timeout:        c.HTTPTimeout,
		VerifyTLS:      &verify,
		MaxRetries:     c.HTTPMaxRetries,
		DefaultHeaders: headers,
		BackoffBase:    c.HTTPBackoffBase,
	}
}
