package pricing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/AgencySite/backend/internal/catalog"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgencySite/backend/internal/pricing/envelope"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func source(id string, fetch catalog.FetchFunc) catalog.Service {
	return catalog.Service{ID: id, DisplayName: id, HasPackages: true, Fetch: fetch}
}

func returns(payload string) catalog.FetchFunc {
	return func(context.Context) (any, error) {
		return envelope.Decode([]byte(payload))
	}
}

func fails(err error) catalog.FetchFunc {
	return func(context.Context) (any, error) {
		return nil, err
	}
}

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func packageNames(pkgs []Package) []string {
	out := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, p.Name)
	}
	return out
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := catalog.MustNew(
		source("a", returns(`{"packages": [{"name": "A1"}, {"name": "A2"}]}`)),
		source("b", fails(errors.New("connection refused"))),
		source("c", returns(`[{"name": "C1"}]`)),
	)
	logger, logs := observed()

	results := NewFetcher(logger, FetcherOptions{}).FetchAll(context.Background(), reg)

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ServiceID)
	assert.Equal(t, []string{"A1", "A2"}, packageNames(results[0].Packages))
	assert.Equal(t, envelope.ShapePackages, results[0].Shape)

	assert.Equal(t, "b", results[1].ServiceID)
	assert.True(t, results[1].Failed())
	assert.NotNil(t, results[1].Packages)
	assert.Empty(t, results[1].Packages)

	assert.Equal(t, "c", results[2].ServiceID)
	assert.Equal(t, []string{"C1"}, packageNames(results[2].Packages))
	assert.Equal(t, envelope.ShapeArray, results[2].Shape)

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "b", warnings[0].ContextMap()["service_id"])
	assert.Equal(t, "connection refused", warnings[0].ContextMap()["error"])
}

func TestFetchAllAllSourcesFail(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := fails(errors.New("boom"))
	reg := catalog.MustNew(source("a", boom), source("b", boom))

	results := NewFetcher(nil, FetcherOptions{}).FetchAll(context.Background(), reg)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Failed())
		assert.Empty(t, r.Packages)
	}
}

func TestFetchAllSkipsRedirectServices(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := catalog.MustNew(
		source("a", returns(`{"packages": [{"name": "A1"}]}`)),
		catalog.Service{ID: "custom", RedirectTarget: "/contact"},
	)
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	results := NewFetcher(nil, FetcherOptions{}).WithMetrics(metrics).FetchAll(context.Background(), reg)

	require.Len(t, results, 2)
	assert.True(t, results[1].Skipped)
	assert.False(t, results[1].Failed())
	assert.Equal(t, []Package{}, results[1].Packages)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SourceFetches.WithLabelValues("custom", monitoring.StatusSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SourceFetches.WithLabelValues("a", monitoring.StatusOK)))
}

func TestFetchAllRecoversPanics(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := catalog.MustNew(
		source("bad", func(context.Context) (any, error) { panic("nil map write") }),
		source("good", returns(`{"packages": [{"name": "G"}]}`)),
	)

	results := NewFetcher(nil, FetcherOptions{}).FetchAll(context.Background(), reg)

	require.Len(t, results, 2)
	assert.ErrorIs(t, results[0].Err, ErrSourcePanic)
	assert.Empty(t, results[0].Packages)
	assert.Equal(t, []string{"G"}, packageNames(results[1].Packages))
}

func TestFetchAllOrderIndependentOfCompletion(t *testing.T) {
	defer goleak.VerifyNone(t)

	// "late" cannot finish until "early" has settled
	earlyDone := make(chan struct{})
	reg := catalog.MustNew(
		source("late", func(ctx context.Context) (any, error) {
			<-earlyDone
			return envelope.Decode([]byte(`{"packages": [{"id": "l1", "name": "L"}]}`))
		}),
		source("early", func(ctx context.Context) (any, error) {
			defer close(earlyDone)
			return envelope.Decode([]byte(`{"packages": [{"id": "e1", "name": "E"}]}`))
		}),
	)

	var settled []string
	results := NewFetcher(nil, FetcherOptions{MaxConcurrency: 2}).
		FetchAllNotify(context.Background(), reg, func(r SourceResult) {
			settled = append(settled, r.ServiceID)
		})

	assert.Equal(t, []string{"early", "late"}, settled)
	require.Len(t, results, 2)
	assert.Equal(t, "late", results[0].ServiceID)
	assert.Equal(t, "early", results[1].ServiceID)
}

func TestFetchAllRespectsConcurrencyLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	var inFlight, peak atomic.Int32
	slow := func(context.Context) (any, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return []any{}, nil
	}

	var services []catalog.Service
	for _, name := range []string{"s1", "s2", "s3", "s4", "s5", "s6"} {
		services = append(services, source(name, slow))
	}
	reg := catalog.MustNew(services...)

	results := NewFetcher(nil, FetcherOptions{MaxConcurrency: 2}).FetchAll(context.Background(), reg)

	assert.Len(t, results, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, int32(0), inFlight.Load())
}

func TestFetchAllUnlimitedConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Every fetch blocks until all of them have started
	const n = 5
	var started sync.WaitGroup
	started.Add(n)
	barrier := func(context.Context) (any, error) {
		started.Done()
		started.Wait()
		return []any{}, nil
	}

	var services []catalog.Service
	for _, name := range []string{"s1", "s2", "s3", "s4", "s5"} {
		services = append(services, source(name, barrier))
	}

	results := NewFetcher(nil, FetcherOptions{MaxConcurrency: 0}).
		FetchAll(context.Background(), catalog.MustNew(services...))
	assert.Len(t, results, n)
}

func TestFetchAllUnknownShapePolicy(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := catalog.MustNew(source("odd", returns(`{"status": "ok", "count": 3, "tags": ["a", "b"]}`)))

	t.Run("warn", func(t *testing.T) {
		logger, logs := observed()
		metrics := monitoring.NewMetrics(prometheus.NewRegistry())

		results := NewFetcher(logger, FetcherOptions{UnknownShapes: UnknownShapeWarn}).
			WithMetrics(metrics).
			FetchAll(context.Background(), reg)

		require.Len(t, results, 1)
		assert.True(t, results[0].Unrecognized)
		assert.False(t, results[0].Failed())
		assert.Equal(t, envelope.ShapeNone, results[0].Shape)
		assert.Empty(t, results[0].Packages)
		assert.Equal(t, 1, logs.FilterMessage("unrecognized payload shape, showing no packages").Len())
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UnknownShapes.WithLabelValues("odd")))
	})

	t.Run("silent", func(t *testing.T) {
		logger, logs := observed()

		results := NewFetcher(logger, FetcherOptions{UnknownShapes: UnknownShapeSilent}).
			FetchAll(context.Background(), reg)

		require.Len(t, results, 1)
		assert.False(t, results[0].Unrecognized)
		assert.Empty(t, results[0].Packages)
		assert.Equal(t, 0, logs.Len())
	})
}

func TestParseUnknownShapePolicy(t *testing.T) {
	p, err := ParseUnknownShapePolicy("")
	require.NoError(t, err)
	assert.Equal(t, UnknownShapeWarn, p)

	p, err = ParseUnknownShapePolicy("silent")
	require.NoError(t, err)
	assert.Equal(t, UnknownShapeSilent, p)

	_, err = ParseUnknownShapePolicy("loud")
	assert.Error(t, err)
}
