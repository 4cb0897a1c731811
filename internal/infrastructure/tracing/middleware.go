package tracing

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// HTTPMiddleware opens one span per routed request, continuing the caller's
// trace when it sent trace headers. Unrouted requests are not traced.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}

		traceID, parentID := ExtractTraceContext(map[string]string{
			HeaderTraceID: c.GetHeader(HeaderTraceID),
			HeaderSpanID:  c.GetHeader(HeaderSpanID),
		})
		span, ctx := tracer.StartSpan(WithTraceContext(c.Request.Context(), traceID, parentID), c.Request.Method+" "+route)
		span.SetTag("http.route", route)
		if category := c.Query("category"); category != "" {
			span.SetTag("pricing.category", category)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderTraceID, string(span.TraceID))
		c.Header(HeaderSpanID, string(span.SpanID))

		c.Next()

		status := c.Writer.Status()
		span.SetStatus(status)
		span.SetTag("http.status", strconv.Itoa(status))
		if err := c.Errors.Last(); err != nil {
			span.SetError(err)
		}
		tracer.Finish(span)
	}
}
