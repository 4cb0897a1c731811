// Package main is the entry point for the AgencySite pricing service.
//
// The server aggregates package pricing from every service category of the
// content API and serves it grouped by category.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -upstream https://cms.example.com/api
//
//	# Custom catalog, at most four fetches in flight
//	./server -catalog catalog.toml -concurrency 4
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
