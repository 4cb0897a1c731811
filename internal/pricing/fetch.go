package pricing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgencySite/backend/internal/catalog"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgencySite/backend/internal/pricing/envelope"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrSourcePanic wraps a panic raised inside one source's fetch
var ErrSourcePanic = errors.New("source fetch panicked")

// DefaultMaxConcurrency caps in-flight source fetches
const DefaultMaxConcurrency = 12

// UnknownShapePolicy decides how a payload with no recognizable package
// array is reported. Either way the source contributes zero packages.
type UnknownShapePolicy string

const (
	UnknownShapeSilent UnknownShapePolicy = "silent"
	UnknownShapeWarn   UnknownShapePolicy = "warn"
)

// ParseUnknownShapePolicy validates a policy name; empty means warn
func ParseUnknownShapePolicy(s string) (UnknownShapePolicy, error) {
	switch UnknownShapePolicy(s) {
	case "", UnknownShapeWarn:
		return UnknownShapeWarn, nil
	case UnknownShapeSilent:
		return UnknownShapeSilent, nil
	default:
		return "", fmt.Errorf("unknown shape policy %q", s)
	}
}

// SourceResult is the settled outcome of one service. Packages is never nil;
// a failed or skipped source carries an empty list.
type SourceResult struct {
	ServiceID    string         `json:"service_id"`
	Packages     []Package      `json:"packages"`
	Shape        envelope.Shape `json:"shape,omitempty"`
	Skipped      bool           `json:"skipped,omitempty"`
	Unrecognized bool           `json:"unrecognized,omitempty"`
	Err          error          `json:"-"`
	Duration     time.Duration  `json:"-"`
}

// Failed reports whether the fetch errored or panicked
func (r SourceResult) Failed() bool {
	return r.Err != nil
}

// FetcherOptions configures a Fetcher
type FetcherOptions struct {
	// MaxConcurrency caps in-flight fetches; 0 means unlimited
	MaxConcurrency int
	UnknownShapes  UnknownShapePolicy
	Normalizer     *Normalizer
}

// Fetcher fans out one fetch per service and joins once all have settled
type Fetcher struct {
	logger         *zap.Logger
	normalizer     *Normalizer
	maxConcurrency int
	policy         UnknownShapePolicy
	metrics        *monitoring.Metrics
	tracer         *tracing.Tracer
}

// NewFetcher creates a fetcher
func NewFetcher(logger *zap.Logger, opts FetcherOptions) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Normalizer == nil {
		opts.Normalizer = defaultNormalizer
	}
	if opts.UnknownShapes == "" {
		opts.UnknownShapes = UnknownShapeWarn
	}
	if opts.MaxConcurrency < 0 {
		opts.MaxConcurrency = 0
	}

	return &Fetcher{
		logger:         logger,
		normalizer:     opts.Normalizer,
		maxConcurrency: opts.MaxConcurrency,
		policy:         opts.UnknownShapes,
	}
}

// WithMetrics records per-source outcomes on m
func (f *Fetcher) WithMetrics(m *monitoring.Metrics) *Fetcher {
	f.metrics = m
	return f
}

// WithTracer opens one span per source fetch
func (f *Fetcher) WithTracer(t *tracing.Tracer) *Fetcher {
	f.tracer = t
	return f
}

// FetchAll fetches every service of reg concurrently. Results come back in
// registry order, one per service, whatever order the fetches settled in.
func (f *Fetcher) FetchAll(ctx context.Context, reg *catalog.Registry) []SourceResult {
	return f.FetchAllNotify(ctx, reg, nil)
}

// FetchAllNotify is FetchAll that also calls notify as each source settles.
// Calls to notify are serialized and arrive in completion order.
func (f *Fetcher) FetchAllNotify(ctx context.Context, reg *catalog.Registry, notify func(SourceResult)) []SourceResult {
	services := reg.Services()
	results := make([]SourceResult, len(services))

	var notifyMu sync.Mutex
	settle := func(i int, res SourceResult) {
		results[i] = res
		if notify != nil {
			notifyMu.Lock()
			notify(res)
			notifyMu.Unlock()
		}
	}

	var g errgroup.Group
	if f.maxConcurrency > 0 {
		g.SetLimit(f.maxConcurrency)
	}

	for i, svc := range services {
		if !svc.HasPackages {
			settle(i, f.skip(svc))
			continue
		}
		g.Go(func() error {
			settle(i, f.fetchOne(ctx, svc))
			// Source errors live in the result slot and never cancel siblings
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (f *Fetcher) skip(svc catalog.Service) SourceResult {
	if f.metrics != nil {
		f.metrics.RecordSourceFetch(svc.ID, monitoring.StatusSkipped, 0, 0)
	}
	return SourceResult{
		ServiceID: svc.ID,
		Packages:  []Package{},
		Shape:     envelope.ShapeNone,
		Skipped:   true,
	}
}

func (f *Fetcher) fetchOne(ctx context.Context, svc catalog.Service) (res SourceResult) {
	res = SourceResult{ServiceID: svc.ID, Packages: []Package{}, Shape: envelope.ShapeNone}
	logger := f.logger.With(logging.ServiceID(svc.ID))

	var span *tracing.Span
	if f.tracer != nil {
		span, ctx = f.tracer.StartSpan(ctx, "pricing.fetch")
		span.SetTag("service_id", svc.ID)
	}
	timer := monitoring.NewTimer(f.metrics, svc.ID)

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("%w: %v", ErrSourcePanic, r)
			res.Packages = []Package{}
			res.Shape = envelope.ShapeNone
			res.Unrecognized = false
		}

		status := monitoring.StatusOK
		if res.Failed() {
			status = monitoring.StatusFailed
			logger.Warn("source fetch failed, showing no packages", zap.Error(res.Err))
		}
		res.Duration = timer.Stop(status, len(res.Packages))

		if span != nil {
			span.SetTag("shape", string(res.Shape))
			if res.Failed() {
				span.SetError(res.Err)
			}
			f.tracer.Finish(span)
		}
	}()

	raw, err := svc.Fetch(ctx)
	if err != nil {
		res.Err = err
		return res
	}

	match := envelope.Locate(raw)
	res.Shape = match.Shape
	if !match.Found() && f.policy == UnknownShapeWarn {
		res.Unrecognized = true
		logger.Warn("unrecognized payload shape, showing no packages")
		if f.metrics != nil {
			f.metrics.RecordUnknownShape(svc.ID)
		}
	}

	res.Packages = f.normalizer.NormalizeAll(match.Items, svc)
	return res
}
