// Package tracing records spans for HTTP requests, aggregation runs and
// source fetches. Finished spans are queued and written as zap log lines by
// a single exporter goroutine that Close drains.
//
// The X-Trace-ID and X-Span-ID headers carry context in both directions, so
// the content API sees the trace of the run that called it.
package tracing
