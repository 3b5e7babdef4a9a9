package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Service   ServiceConfig   `yaml:"service"`
	Orderbook OrderbookConfig `yaml:"orderbook"`
	Journal   JournalConfig   `yaml:"journal"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type LogConfig struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"` // json or pretty
	File           string `yaml:"file"`
	RequestLogging bool   `yaml:"request_logging"`
}

type RateLimitConfig struct {
	Disabled    bool          `yaml:"disabled"`
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
}

type ServiceConfig struct {
	MaintenanceMode       bool  `yaml:"maintenance_mode"`
	MaxConcurrentRequests int64 `yaml:"max_concurrent_requests"`
}

type OrderbookConfig struct {
	DefaultDepth int `yaml:"default_depth"`
	MaxDepth     int `yaml:"max_depth"`
}

type JournalConfig struct {
	Capacity int `yaml:"capacity"`
}

type MetricsConfig struct {
	MaxLatencies int `yaml:"max_latencies"`
}

func Default() *Config {
	return &Config{
		Port:            "8080",
		ShutdownTimeout: 10 * time.Second,
		Log: LogConfig{
			Level:          "info",
			Format:         "json",
			RequestLogging: true,
		},
		RateLimit: RateLimitConfig{
			MaxRequests: 100,
			Window:      time.Second,
		},
		Orderbook: OrderbookConfig{
			DefaultDepth: 10,
			MaxDepth:     1000,
		},
		Journal: JournalConfig{
			Capacity: 10000,
		},
		Metrics: MetricsConfig{
			MaxLatencies: 10000,
		},
	}
}

// Load reads defaults, then the yaml file at path (or CONFIG_FILE) if one is
// given, then environment overrides. Environment references inside the file
// are expanded before parsing.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		raw = []byte(os.ExpandEnv(string(raw)))
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.Log.File, "LOG_FILE")

	// edge case: the file sinks accept these as "no file"
	if c.Log.File == "none" || c.Log.File == "disabled" {
		c.Log.File = ""
	}

	if os.Getenv("REQUEST_LOGGING_DISABLED") == "1" {
		c.Log.RequestLogging = false
	}
	if os.Getenv("RATE_LIMIT_DISABLED") == "1" {
		c.RateLimit.Disabled = true
	}
	if os.Getenv("MAINTENANCE_MODE") == "1" {
		c.Service.MaintenanceMode = true
	}

	steps := []func() error{
		func() error { return setDuration(&c.ShutdownTimeout, "SHUTDOWN_TIMEOUT") },
		func() error { return setInt(&c.RateLimit.MaxRequests, "RATE_LIMIT_MAX") },
		func() error { return setDuration(&c.RateLimit.Window, "RATE_LIMIT_WINDOW") },
		func() error { return setInt64(&c.Service.MaxConcurrentRequests, "MAX_CONCURRENT_REQUESTS") },
		func() error { return setInt(&c.Orderbook.DefaultDepth, "ORDERBOOK_DEFAULT_DEPTH") },
		func() error { return setInt(&c.Orderbook.MaxDepth, "ORDERBOOK_MAX_DEPTH") },
		func() error { return setInt(&c.Journal.Capacity, "JOURNAL_CAPACITY") },
		func() error { return setInt(&c.Metrics.MaxLatencies, "METRICS_MAX_LATENCIES") },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

var (
	ErrInvalidPort  = errors.New("port must not be empty")
	ErrInvalidDepth = errors.New("orderbook depths must be positive and default_depth <= max_depth")
	ErrInvalidLimit = errors.New("rate limit needs positive max_requests and a window of at least one second")
)

func (c *Config) Validate() error {
	if c.Port == "" {
		return ErrInvalidPort
	}
	if c.Orderbook.DefaultDepth <= 0 || c.Orderbook.MaxDepth <= 0 || c.Orderbook.DefaultDepth > c.Orderbook.MaxDepth {
		return ErrInvalidDepth
	}
	if !c.RateLimit.Disabled && (c.RateLimit.MaxRequests <= 0 || c.RateLimit.Window < time.Second) {
		return ErrInvalidLimit
	}
	if c.Journal.Capacity <= 0 {
		return fmt.Errorf("journal capacity must be positive, got %d", c.Journal.Capacity)
	}
	if c.Metrics.MaxLatencies <= 0 {
		return fmt.Errorf("metrics max_latencies must be positive, got %d", c.Metrics.MaxLatencies)
	}
	if c.Log.Format != "json" && c.Log.Format != "pretty" {
		return fmt.Errorf("log format must be json or pretty, got %q", c.Log.Format)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func setInt64(dst *int64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = parsed
	return nil
}
