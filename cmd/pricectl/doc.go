// Package main is pricectl, an operator CLI for the pricing pipeline.
//
// Usage:
//
//	# One aggregation run against the content API, printed as a table
//	pricectl fetch --upstream https://cms.example.com/api
//
//	# One category as JSON
//	pricectl fetch --category seo --json
//
//	# Check a catalog file before deploying it
//	pricectl validate-catalog catalog.yaml
package main
