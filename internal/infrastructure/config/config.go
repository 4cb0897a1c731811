package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Upstream  UpstreamConfig
	Catalog   CatalogConfig
	Pricing   PricingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds inbound rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// UpstreamConfig holds the content API client configuration.
type UpstreamConfig struct {
	BaseURL string        `envconfig:"UPSTREAM_BASE_URL" default:"http://localhost:8080/api"`
	Token   string        `envconfig:"UPSTREAM_TOKEN"`
	Timeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"15s"`
	Retries int           `envconfig:"UPSTREAM_RETRIES" default:"2"`
	RPS     float64       `envconfig:"UPSTREAM_RPS" default:"0"`
}

// CatalogConfig locates the service catalog file.
type CatalogConfig struct {
	Path string `envconfig:"CATALOG_PATH"`
}

// PricingConfig tunes the aggregation pipeline.
type PricingConfig struct {
	DefaultPeriod  string `envconfig:"PRICING_DEFAULT_PERIOD" default:"/month"`
	MaxConcurrency int    `envconfig:"PRICING_MAX_CONCURRENCY" default:"12"`
	UnknownShapes  string `envconfig:"PRICING_UNKNOWN_SHAPES" default:"warn"`
	DropEmpty      bool   `envconfig:"PRICING_DROP_EMPTY" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate checks values envconfig cannot constrain.
func (c *Config) Validate() error {
	switch c.Pricing.UnknownShapes {
	case "warn", "silent":
	default:
		return fmt.Errorf("invalid PRICING_UNKNOWN_SHAPES %q: want warn or silent", c.Pricing.UnknownShapes)
	}
	if c.Pricing.MaxConcurrency < 0 {
		return fmt.Errorf("invalid PRICING_MAX_CONCURRENCY %d: must be >= 0", c.Pricing.MaxConcurrency)
	}
	if c.Upstream.Retries < 0 {
		return fmt.Errorf("invalid UPSTREAM_RETRIES %d: must be >= 0", c.Upstream.Retries)
	}
	return nil
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Upstream: UpstreamConfig{
			BaseURL: "http://localhost:8080/api",
			Timeout: 15 * time.Second,
			Retries: 2,
		},
		Pricing: PricingConfig{
			DefaultPeriod:  "/month",
			MaxConcurrency: 12,
			UnknownShapes:  "warn",
		},
	}
}
