package tracing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgencySite/backend/internal/shared/id"
	"go.uber.org/zap"
)

// TraceID identifies one end-to-end request or aggregation run
type TraceID string

// SpanID identifies one timed operation within a trace
type SpanID string

const (
	HeaderTraceID = "X-Trace-ID"
	HeaderSpanID  = "X-Span-ID"
)

// spanBuffer bounds the spans waiting for export; beyond it spans are dropped
const spanBuffer = 1024

// Span is one timed operation. Tag and status setters are safe to call from
// the goroutine running the operation while the tracer exports other spans.
type Span struct {
	TraceID  TraceID
	SpanID   SpanID
	ParentID SpanID
	Name     string

	start time.Time

	mu       sync.Mutex
	duration time.Duration
	tags     map[string]string
	err      error
	status   int
}

// SetTag attaches a key/value annotation
func (s *Span) SetTag(key, value string) {
	s.mu.Lock()
	s.tags[key] = value
	s.mu.Unlock()
}

// SetError marks the span failed; a span without a status becomes 500
func (s *Span) SetError(err error) {
	s.mu.Lock()
	s.err = err
	if s.status == 0 {
		s.status = 500
	}
	s.mu.Unlock()
}

// SetStatus records the HTTP status the operation ended with
func (s *Span) SetStatus(code int) {
	s.mu.Lock()
	s.status = code
	s.mu.Unlock()
}

func (s *Span) end() {
	s.mu.Lock()
	s.duration = time.Since(s.start)
	s.mu.Unlock()
}

// fields renders the span for the log exporter with tags in key order
func (s *Span) fields(service string) ([]zap.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := make([]zap.Field, 0, 6+len(s.tags))
	fields = append(fields,
		zap.String("trace_id", string(s.TraceID)),
		zap.String("span_id", string(s.SpanID)),
		zap.String("operation", s.Name),
		zap.String("service", service),
		zap.Duration("duration", s.duration),
	)
	if s.ParentID != "" {
		fields = append(fields, zap.String("parent_id", string(s.ParentID)))
	}
	if s.status != 0 {
		fields = append(fields, zap.Int("status", s.status))
	}

	keys := make([]string, 0, len(s.tags))
	for k := range s.tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.String("tag."+k, s.tags[k]))
	}
	return fields, s.err
}

// Tracer records spans and exports finished ones through zap from a single
// background goroutine. Close must be called to stop it.
type Tracer struct {
	service string
	logger  *zap.Logger

	queue   chan *Span
	closing chan struct{}
	drained chan struct{}
	once    sync.Once
}

// New starts a tracer exporting to logger
func New(service string, logger *zap.Logger) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &Tracer{
		service: service,
		logger:  logger,
		queue:   make(chan *Span, spanBuffer),
		closing: make(chan struct{}),
		drained: make(chan struct{}),
	}
	go t.run()
	return t
}

// StartSpan opens a span. It joins the trace carried by ctx, or starts a new
// one, and the returned context makes the span the parent of later spans.
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	parent := fromContext(ctx)
	if parent.trace == "" {
		parent.trace = TraceID(id.NewTraceID())
	}

	span := &Span{
		TraceID:  parent.trace,
		SpanID:   SpanID(id.NewSpanID()),
		ParentID: parent.span,
		Name:     name,
		start:    time.Now(),
		tags:     make(map[string]string),
	}
	return span, context.WithValue(ctx, spanContextKey{}, spanContext{trace: span.TraceID, span: span.SpanID})
}

// Finish stops the span clock and queues it for export. Spans finished
// after Close, or while the queue is full, are dropped.
func (t *Tracer) Finish(span *Span) {
	span.end()

	select {
	case <-t.closing:
		return
	default:
	}

	select {
	case t.queue <- span:
	default:
		t.logger.Warn("span buffer full, dropping span",
			zap.String("trace_id", string(span.TraceID)),
			zap.String("operation", span.Name),
		)
	}
}

// Close exports the queued spans and stops the exporter. It is idempotent.
func (t *Tracer) Close() {
	t.once.Do(func() {
		close(t.closing)
		<-t.drained
	})
}

func (t *Tracer) run() {
	defer close(t.drained)
	for {
		select {
		case span := <-t.queue:
			t.export(span)
		case <-t.closing:
			for {
				select {
				case span := <-t.queue:
					t.export(span)
				default:
					return
				}
			}
		}
	}
}

func (t *Tracer) export(span *Span) {
	fields, err := span.fields(t.service)
	if err != nil {
		t.logger.Warn("span completed with error", append(fields, zap.Error(err))...)
		return
	}
	t.logger.Debug("span completed", fields...)
}

type spanContextKey struct{}

type spanContext struct {
	trace TraceID
	span  SpanID
}

func fromContext(ctx context.Context) spanContext {
	sc, _ := ctx.Value(spanContextKey{}).(spanContext)
	return sc
}

// WithTraceContext seeds ctx with a trace received from elsewhere. Empty ids
// leave the corresponding part of ctx unchanged.
func WithTraceContext(ctx context.Context, traceID TraceID, parent SpanID) context.Context {
	sc := fromContext(ctx)
	if traceID != "" {
		sc.trace = traceID
	}
	if parent != "" {
		sc.span = parent
	}
	return context.WithValue(ctx, spanContextKey{}, sc)
}

// GetTraceID returns the trace carried by ctx, if any
func GetTraceID(ctx context.Context) TraceID {
	return fromContext(ctx).trace
}

// GetSpanID returns the innermost span carried by ctx, if any
func GetSpanID(ctx context.Context) SpanID {
	return fromContext(ctx).span
}

// ExtractTraceContext reads trace headers
func ExtractTraceContext(headers map[string]string) (TraceID, SpanID) {
	return TraceID(headers[HeaderTraceID]), SpanID(headers[HeaderSpanID])
}

// InjectTraceContext writes the trace carried by ctx into outgoing headers
func InjectTraceContext(ctx context.Context, headers map[string]string) {
	sc := fromContext(ctx)
	if sc.trace != "" {
		headers[HeaderTraceID] = string(sc.trace)
	}
	if sc.span != "" {
		headers[HeaderSpanID] = string(sc.span)
	}
}
