// Package http provides the HTTP handlers of the pricing API.
//
// Endpoints:
//   - Health: / and /health
//   - Registry: /services
//   - Pricing: /pricing and /pricing?category=<service id|all>
//
// Text that originates from content sources is passed through a bluemonday
// strict policy before it is returned.
//
// Example Usage:
//
//	handlers := http.NewHandlers(pricingService, metrics, logger)
//	router.GET("/pricing", handlers.Pricing)
package http
