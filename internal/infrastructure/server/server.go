package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AgencySite/backend/internal/api/http"
	"github.com/GriffinCanCode/AgencySite/backend/internal/api/middleware"
	"github.com/GriffinCanCode/AgencySite/backend/internal/api/ws"
	"github.com/GriffinCanCode/AgencySite/backend/internal/catalog"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgencySite/backend/internal/pricing"
	"github.com/GriffinCanCode/AgencySite/backend/internal/upstream"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	handler    http.Handler
	httpServer *http.Server
	pricing    *pricing.Service
	upstream   *upstream.Client
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
	tracer     *tracing.Tracer
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing pricing server",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("upstream", cfg.Upstream.BaseURL),
		zap.String("catalog", catalogName(cfg.Catalog.Path)),
	)

	metrics := monitoring.NewMetrics(nil)
	tracer := tracing.New("pricing", logger.Logger)

	client := upstream.New(upstream.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Token:   cfg.Upstream.Token,
		Timeout: cfg.Upstream.Timeout,
		Retries: cfg.Upstream.Retries,
		RPS:     cfg.Upstream.RPS,
	}, logger.Named("upstream"))

	svc, err := BuildPricing(cfg, client, logger)
	if err != nil {
		tracer.Close()
		return nil, err
	}
	svc.WithMetrics(metrics).WithTracer(tracer)

	logger.Info("Service registry loaded",
		zap.Any("stats", svc.Registry().Stats()),
	)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Named("http")))
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	corsConfig := middleware.DefaultCORSConfig().WithOrigins(cfg.Server.CORSOrigins)
	router.Use(middleware.CORS(corsConfig))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			Cost:              fanOutCost(svc.Registry()),
		}))
	}

	handlers := apihttp.NewHandlers(svc, metrics, logger.Named("api")).WithBreakers(client.BreakerStates)
	wsHandler := ws.NewHandler(svc, metrics, logger.Named("ws")).WithOrigins(corsConfig.AllowOrigins)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/services", handlers.ListServices)
	router.GET("/pricing", handlers.Pricing)
	router.GET("/pricing/stream", wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	handler := compress(router)

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		handler: handler,
		httpServer: &http.Server{
			Addr:    cfg.Server.Addr(),
			Handler: handler,
		},
		pricing:  svc,
		upstream: client,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		tracer:   tracer,
	}, nil
}

// fanOutCost charges pricing routes one token per package source, since
// every run fetches all of them regardless of the selected category
func fanOutCost(reg *catalog.Registry) func(*gin.Context) int {
	sources := 0
	for _, svc := range reg.Services() {
		if svc.HasPackages {
			sources++
		}
	}
	return func(c *gin.Context) int {
		if strings.HasPrefix(c.FullPath(), "/pricing") {
			return sources
		}
		return 1
	}
}

// BuildPricing loads the catalog, binds it to the upstream client and
// assembles the pricing pipeline from configuration
func BuildPricing(cfg *config.Config, client *upstream.Client, logger *logging.Logger) (*pricing.Service, error) {
	file, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	reg, err := catalog.Bind(file, client.Factory())
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	policy, err := pricing.ParseUnknownShapePolicy(cfg.Pricing.UnknownShapes)
	if err != nil {
		return nil, err
	}

	fetcher := pricing.NewFetcher(logger.Named("pricing"), pricing.FetcherOptions{
		MaxConcurrency: cfg.Pricing.MaxConcurrency,
		UnknownShapes:  policy,
		Normalizer:     pricing.NewNormalizer(cfg.Pricing.DefaultPeriod, nil),
	})
	aggregator := pricing.NewAggregator(cfg.Pricing.DropEmpty)

	return pricing.NewService(reg, fetcher, aggregator, logger.Named("pricing")), nil
}

// compress gzips responses except WebSocket upgrades, which need the raw
// connection
func compress(next http.Handler) http.Handler {
	gz := gzhttp.GzipHandler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			next.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

func catalogName(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Pricing returns the pricing service
func (s *Server) Pricing() *pricing.Service {
	return s.pricing
}

// Registry returns the Prometheus registry of the server
func (s *Server) Registry() *prometheus.Registry {
	return s.metrics.Registry()
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// Close releases background resources
func (s *Server) Close() error {
	s.tracer.Close()
	_ = s.logger.Sync()
	return nil
}
