// Package monitoring exposes Prometheus metrics for the pricing server:
// HTTP traffic, the outcome and latency of each source fetch, unrecognized
// payloads, aggregation runs and open websocket streams.
//
// Collectors live on their own registry, so a test can build as many
// Metrics as it likes:
//
//	metrics := monitoring.NewMetrics(nil)
//	router.Use(monitoring.Middleware(metrics))
//	router.GET("/metrics", gin.WrapH(metrics.Handler()))
package monitoring
