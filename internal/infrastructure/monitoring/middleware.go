package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// metricsRoute is not measured, so scrapes do not show up in HTTP metrics
const metricsRoute = "/metrics"

// Middleware records request count, latency and response size per route
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Route template keeps label cardinality bounded
		route := c.FullPath()
		switch route {
		case metricsRoute:
			return
		case "":
			route = "unmatched"
		}

		metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()),
			time.Since(start), int64(c.Writer.Size()))
	}
}

// Timer measures one source fetch from creation until Stop
type Timer struct {
	metrics *Metrics
	service string
	start   time.Time
}

// NewTimer starts timing a fetch of service. A nil metrics only measures.
func NewTimer(metrics *Metrics, service string) *Timer {
	return &Timer{metrics: metrics, service: service, start: time.Now()}
}

// Stop records the fetch outcome and returns the elapsed time
func (t *Timer) Stop(status string, packages int) time.Duration {
	elapsed := time.Since(t.start)
	if t.metrics != nil {
		t.metrics.RecordSourceFetch(t.service, status, elapsed, packages)
	}
	return elapsed
}
