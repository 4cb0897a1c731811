package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcome labels
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Source metrics
	SourceFetches  *prometheus.CounterVec
	SourceDuration *prometheus.HistogramVec
	SourcePackages *prometheus.GaugeVec
	UnknownShapes  *prometheus.CounterVec

	// Aggregation metrics
	AggregationRuns     prometheus.Counter
	AggregationDuration prometheus.Histogram
	PackagesDisplayed   prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge

	registry  *prometheus.Registry
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for the JSON health view
type Snapshot struct {
	TotalRequests   int64   `json:"total_requests"`
	TotalErrors     int64   `json:"total_errors"`
	AggregationRuns int64   `json:"aggregation_runs"`
	SourceFailures  int64   `json:"source_failures"`
	LastPackages    int     `json:"last_packages"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
}

// NewMetrics registers every collector on reg. A nil reg gets a fresh
// registry, which keeps independent instances from colliding.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agency_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agency_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agency_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		SourceFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricing_source_fetches_total",
				Help: "Source fetch attempts by outcome",
			},
			[]string{"service", "status"},
		),
		SourceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricing_source_fetch_duration_seconds",
				Help:    "Source fetch duration in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"service"},
		),
		SourcePackages: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pricing_source_packages",
				Help: "Packages normalized from each source in the last run",
			},
			[]string{"service"},
		),
		UnknownShapes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricing_unknown_shapes_total",
				Help: "Successful fetches whose payload held no recognizable package array",
			},
			[]string{"service"},
		),

		AggregationRuns: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pricing_aggregation_runs_total",
				Help: "Total number of aggregation runs",
			},
		),
		AggregationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pricing_aggregation_duration_seconds",
				Help:    "Wall time of one aggregation run",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		PackagesDisplayed: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pricing_packages_displayed",
				Help: "Packages in the last aggregation result",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "agency_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "agency_uptime_seconds",
			Help: "Backend uptime in seconds",
		},
		m.GetUptimeSeconds,
	)

	return m
}

// Registry returns the registry the metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordSourceFetch records one settled source
func (m *Metrics) RecordSourceFetch(service, status string, duration time.Duration, packages int) {
	m.SourceFetches.WithLabelValues(service, status).Inc()
	if status == StatusSkipped {
		return
	}
	m.SourceDuration.WithLabelValues(service).Observe(duration.Seconds())
	m.SourcePackages.WithLabelValues(service).Set(float64(packages))

	if status == StatusFailed {
		m.mu.Lock()
		m.snapshot.SourceFailures++
		m.mu.Unlock()
	}
}

// RecordUnknownShape counts a payload no matcher recognized
func (m *Metrics) RecordUnknownShape(service string) {
	m.UnknownShapes.WithLabelValues(service).Inc()
}

// RecordAggregation records a completed aggregation run
func (m *Metrics) RecordAggregation(duration time.Duration, packages int) {
	m.AggregationRuns.Inc()
	m.AggregationDuration.Observe(duration.Seconds())
	m.PackagesDisplayed.Set(float64(packages))

	m.mu.Lock()
	m.snapshot.AggregationRuns++
	m.snapshot.LastPackages = packages
	m.mu.Unlock()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// GetSnapshot returns a copy of the current snapshot
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	s.UptimeSeconds = m.GetUptimeSeconds()
	return s
}

// GetUptimeSeconds returns seconds since the metrics were created
func (m *Metrics) GetUptimeSeconds() float64 {
	return time.Since(m.startTime).Seconds()
}
