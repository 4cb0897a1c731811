// Package upstream is the client for the agency's content API, the remote
// side that serves one page payload per service.
//
// Built on go-resty/resty with a retryablehttp transport:
//   - Bearer token authentication
//   - Retries on connection errors, 429 and 5xx
//   - Optional client-side rate limiting
//   - One circuit breaker per source
//   - Trace headers propagated from the request context
//
// Example Usage:
//
//	client := upstream.New(upstream.Config{BaseURL: cfg.Upstream.BaseURL, Token: cfg.Upstream.Token}, logger)
//	reg, err := catalog.Bind(file, client.Factory())
package upstream
