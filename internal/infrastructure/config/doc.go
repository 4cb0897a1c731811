// Package config provides 12-factor configuration for the pricing backend.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP listen address and shutdown grace period
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting
//   - Upstream: Content API base URL, bearer token, timeout, retries, rate
//   - Catalog: Optional service catalog file (YAML, TOML or JSON)
//   - Pricing: Default billing period, fan-out limit, unknown-shape policy
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s\n", cfg.Server.Addr())
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - UPSTREAM_BASE_URL, UPSTREAM_TOKEN, UPSTREAM_TIMEOUT, UPSTREAM_RETRIES, UPSTREAM_RPS
//   - CATALOG_PATH
//   - PRICING_DEFAULT_PERIOD, PRICING_MAX_CONCURRENCY, PRICING_UNKNOWN_SHAPES, PRICING_DROP_EMPTY
package config
