package http

import (
	"net/http"

	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgencySite/backend/internal/pricing"
	"github.com/GriffinCanCode/AgencySite/backend/internal/shared/utils"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	pricing   *pricing.Service
	metrics   *monitoring.Metrics
	sanitizer *Sanitizer
	hasher    *utils.Hasher
	logger    *zap.Logger
	breakers  func() map[string]resilience.State
}

// NewHandlers creates a new handler set
func NewHandlers(svc *pricing.Service, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		pricing:   svc,
		metrics:   metrics,
		sanitizer: NewSanitizer(),
		hasher:    utils.DefaultHasher(),
		logger:    logger,
	}
}

// WithBreakers reports upstream circuit states on /health
func (h *Handlers) WithBreakers(states func() map[string]resilience.State) *Handlers {
	h.breakers = states
	return h
}

// Root handles the index route
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "AgencySite Pricing",
		"version": "1.0.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":   "healthy",
		"registry": h.pricing.Registry().Stats(),
	}
	if h.metrics != nil {
		body["metrics"] = h.metrics.GetSnapshot()
	}
	if h.breakers != nil {
		circuits := make(map[string]string)
		for id, state := range h.breakers() {
			circuits[id] = state.String()
		}
		body["circuits"] = circuits
	}
	c.JSON(http.StatusOK, body)
}

// ListServices lists the registry in display order
func (h *Handlers) ListServices(c *gin.Context) {
	reg := h.pricing.Registry()
	c.JSON(http.StatusOK, gin.H{
		"services": reg.Services(),
		"stats":    reg.Stats(),
	})
}

// CategoryResponse is the body of /pricing?category=
type CategoryResponse struct {
	Category   string            `json:"category"`
	Count      int               `json:"count"`
	TotalCount int               `json:"total_count"`
	Counts     map[string]int    `json:"counts"`
	Packages   []pricing.Package `json:"packages"`
	Warnings   []pricing.Warning `json:"warnings,omitempty"`
}

// Pricing runs one aggregation. Without a category it returns every group;
// with one it returns that category's packages (or all of them for "all").
func (h *Handlers) Pricing(c *gin.Context) {
	category := c.Query("category")
	if category != "" && category != pricing.AllCategories {
		if _, ok := h.pricing.Registry().Get(category); !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown category: " + category})
			return
		}
	}

	result, err := h.pricing.Load(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "pricing aggregation failed"})
		return
	}
	result = h.sanitizer.Result(result)

	if category == "" {
		h.respond(c, result)
		return
	}

	packages := pricing.SelectCategory(result, category)
	h.respond(c, CategoryResponse{
		Category:   category,
		Count:      len(packages),
		TotalCount: result.TotalCount,
		Counts:     result.Counts(),
		Packages:   packages,
		Warnings:   result.Warnings,
	})
}

// respond writes v as JSON with an entity tag, answering 304 when the client
// already holds the same body
func (h *Handlers) respond(c *gin.Context, v any) {
	body, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode response"})
		return
	}

	etag := h.hasher.ETag(body)
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	if utils.MatchETag(c.GetHeader("If-None-Match"), etag) {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
