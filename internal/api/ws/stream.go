package ws

import (
	"net/http"
	"strings"
	"sync"
	"time"

	apihttp "github.com/GriffinCanCode/AgencySite/backend/internal/api/http"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgencySite/backend/internal/pricing"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event types sent on the pricing stream
const (
	EventSourceSettled = "source_settled"
	EventAggregated    = "aggregated"
	EventError         = "error"
)

// Source outcome labels carried by source_settled events
const (
	SourceOK           = "ok"
	SourceFailed       = "failed"
	SourceSkipped      = "skipped"
	SourceUnrecognized = "unrecognized"
)

const writeWait = 10 * time.Second

// Event is one message on the pricing stream
type Event struct {
	Type       string          `json:"type"`
	ServiceID  string          `json:"service_id,omitempty"`
	Status     string          `json:"status,omitempty"`
	Count      int             `json:"count"`
	Shape      string          `json:"shape,omitempty"`
	DurationMs int64           `json:"duration_ms,omitempty"`
	Result     *pricing.Result `json:"result,omitempty"`
	Message    string          `json:"message,omitempty"`
	Timestamp  int64           `json:"timestamp"`
}

// Handler streams one aggregation run per connection: a source_settled event
// as each source finishes, then the aggregated result
type Handler struct {
	pricing   *pricing.Service
	metrics   *monitoring.Metrics
	sanitizer *apihttp.Sanitizer
	logger    *zap.Logger
	upgrader  websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(svc *pricing.Service, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		pricing:   svc,
		metrics:   metrics,
		sanitizer: apihttp.NewSanitizer(),
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(nil),
		},
	}
}

// WithOrigins limits the browser origins that may open a stream. It takes
// the same list as the CORS middleware; empty or "*" allows any origin.
func (h *Handler) WithOrigins(origins []string) *Handler {
	h.upgrader.CheckOrigin = originChecker(origins)
	return h
}

func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	anyOrigin := len(origins) == 0
	for _, o := range origins {
		o = normalizeOrigin(o)
		if o == "*" {
			anyOrigin = true
		}
		if o != "" {
			allowed[o] = true
		}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Non-browser clients send no Origin
		if origin == "" || anyOrigin {
			return true
		}
		return allowed[normalizeOrigin(origin)]
	}
}

func normalizeOrigin(o string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(o), "/"))
}

// HandleConnection upgrades the request and runs the stream
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	s := &stream{conn: conn, logger: h.logger}

	result, err := h.pricing.LoadNotify(c.Request.Context(), func(r pricing.SourceResult) {
		s.send(settledEvent(r))
	})
	if err != nil {
		s.send(Event{Type: EventError, Message: "pricing aggregation failed", Timestamp: time.Now().Unix()})
		s.close(websocket.CloseInternalServerErr, "aggregation failed")
		return
	}

	clean := h.sanitizer.Result(result)
	s.send(Event{
		Type:      EventAggregated,
		Count:     clean.TotalCount,
		Result:    clean,
		Timestamp: time.Now().Unix(),
	})
	s.close(websocket.CloseNormalClosure, "done")
}

func settledEvent(r pricing.SourceResult) Event {
	status := SourceOK
	switch {
	case r.Skipped:
		status = SourceSkipped
	case r.Failed():
		status = SourceFailed
	case r.Unrecognized:
		status = SourceUnrecognized
	}
	return Event{
		Type:       EventSourceSettled,
		ServiceID:  r.ServiceID,
		Status:     status,
		Count:      len(r.Packages),
		Shape:      string(r.Shape),
		DurationMs: r.Duration.Milliseconds(),
		Timestamp:  time.Now().Unix(),
	}
}

// stream serializes writes; a failed write stops further sends
type stream struct {
	conn   *websocket.Conn
	logger *zap.Logger
	mu     sync.Mutex
	broken bool
}

func (s *stream) send(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken {
		return
	}

	data, err := sonic.Marshal(ev)
	if err != nil {
		s.logger.Error("failed to encode stream event", zap.String("type", ev.Type), zap.Error(err))
		return
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Debug("WebSocket write failed", zap.Error(err))
		s.broken = true
	}
}

func (s *stream) close(code int, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken {
		return
	}
	msg := websocket.FormatCloseMessage(code, reason)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
