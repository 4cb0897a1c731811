package pricing

import (
	"context"
	"time"

	"github.com/GriffinCanCode/AgencySite/backend/internal/catalog"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgencySite/backend/internal/shared/id"
	"go.uber.org/zap"
)

// Service runs the whole pipeline against one registry. It holds no state
// between runs; every Load fetches afresh.
type Service struct {
	registry   *catalog.Registry
	fetcher    *Fetcher
	aggregator *Aggregator
	logger     *zap.Logger
	metrics    *monitoring.Metrics
	tracer     *tracing.Tracer
}

// NewService creates a pricing service
func NewService(reg *catalog.Registry, fetcher *Fetcher, aggregator *Aggregator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fetcher == nil {
		fetcher = NewFetcher(logger, FetcherOptions{MaxConcurrency: DefaultMaxConcurrency})
	}
	if aggregator == nil {
		aggregator = &Aggregator{}
	}
	return &Service{
		registry:   reg,
		fetcher:    fetcher,
		aggregator: aggregator,
		logger:     logger,
	}
}

// WithMetrics records run and per-source metrics on m
func (s *Service) WithMetrics(m *monitoring.Metrics) *Service {
	s.metrics = m
	s.fetcher.WithMetrics(m)
	return s
}

// WithTracer opens one span per run, with the source fetches as children
func (s *Service) WithTracer(t *tracing.Tracer) *Service {
	s.tracer = t
	s.fetcher.WithTracer(t)
	return s
}

// Registry returns the registry the service aggregates
func (s *Service) Registry() *catalog.Registry {
	return s.registry
}

// Load fetches every source and returns the grouped result. Source failures
// never surface here; an error means the registry and results disagree.
func (s *Service) Load(ctx context.Context) (*Result, error) {
	return s.LoadNotify(ctx, nil)
}

// LoadNotify is Load that reports each source as it settles
func (s *Service) LoadNotify(ctx context.Context, notify func(SourceResult)) (*Result, error) {
	start := time.Now()
	runID := id.NewRunID()

	var span *tracing.Span
	if s.tracer != nil {
		span, ctx = s.tracer.StartSpan(ctx, "pricing.load")
		span.SetTag("run_id", runID.String())
		defer s.tracer.Finish(span)
	}

	results := s.fetcher.FetchAllNotify(ctx, s.registry, notify)

	result, err := s.aggregator.Aggregate(results, s.registry)
	if err != nil {
		if span != nil {
			span.SetError(err)
		}
		s.logger.Error("aggregation failed", logging.RunID(runID.String()), zap.Error(err))
		return nil, err
	}

	var failed int
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordAggregation(elapsed, result.TotalCount)
	}

	s.logger.Info("aggregation completed",
		logging.RunID(runID.String()),
		zap.Int("groups", len(result.Groups)),
		zap.Int("packages", result.TotalCount),
		zap.Int("failed_sources", failed),
		zap.Int("warnings", len(result.Warnings)),
		zap.Duration("duration", elapsed),
	)

	return result, nil
}
