// Package resilience guards calls to upstream content sources with circuit
// breakers.
//
// A Breaker counts outcomes in a rolling window. Once ReadyToTrip says the
// source is unhealthy it opens and rejects calls with ErrCircuitOpen until
// Timeout passes; then up to MaxRequests trial calls run half-open, and the first
// failed trial reopens it. Set hands out one breaker per source id:
//
//	breakers := resilience.NewSet("content", resilience.Settings{Timeout: 30 * time.Second})
//	page, err := resilience.Execute(breakers.Get("seo"), func() (any, error) {
//		return client.FetchPageData(ctx, "seo", "seo/page/")
//	})
package resilience
