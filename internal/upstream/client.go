package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgencySite/backend/internal/catalog"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgencySite/backend/internal/pricing/envelope"
	"github.com/GriffinCanCode/AgencySite/backend/internal/shared/utils"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrStatus is returned when the content API answers with a non-2xx status
var ErrStatus = errors.New("upstream returned error status")

// Config configures the content API client
type Config struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
	// RPS limits outgoing requests per second; 0 means unlimited
	RPS float64
	// TripAfter is the number of consecutive failures that opens a
	// source's circuit
	TripAfter uint32
	// OpenFor is how long an open circuit rejects calls
	OpenFor   time.Duration
	UserAgent string
	// MaxBodySize rejects larger page bodies; 0 means utils.MaxPayloadSize
	MaxBodySize int
}

// Client fetches page payloads from the content API. Each source gets its own
// circuit so one broken service does not block the others.
type Client struct {
	resty    *resty.Client
	limiter  *rate.Limiter
	breakers *resilience.Set
	size     *utils.SizeValidator
	logger   *zap.Logger
	mu       sync.RWMutex
}

// New creates a content API client
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryWait == 0 {
		cfg.RetryWait = 500 * time.Millisecond
	}
	if cfg.TripAfter == 0 {
		cfg.TripAfter = 5
	}
	if cfg.OpenFor == 0 {
		cfg.OpenFor = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "AgencySite-Pricing/1.0"
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = utils.MaxPayloadSize
	}

	// Pooled transport from the retryable client; retries are driven by resty
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil

	restyClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryWait*8).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json").
		SetTransport(retryClient.HTTPClient.Transport).
		AddRetryCondition(shouldRetry)

	if cfg.Token != "" {
		restyClient.SetAuthToken(cfg.Token)
	}

	tripAfter := cfg.TripAfter
	breakers := resilience.NewSet("upstream", resilience.Settings{
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     cfg.OpenFor,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not the source's fault
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("upstream circuit changed state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	c := &Client{
		resty:    restyClient,
		breakers: breakers,
		size:     utils.NewSizeValidator(cfg.MaxBodySize),
		logger:   logger,
	}
	c.SetRateLimit(cfg.RPS)
	return c
}

// shouldRetry applies the retryablehttp policy: connection errors, 429 and
// 5xx other than 501 are retried.
func shouldRetry(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil {
		return err != nil
	}
	retry, _ := retryablehttp.DefaultRetryPolicy(r.Request.Context(), r.RawResponse, err)
	return retry
}

// SetRateLimit configures rate limiting (requests per second)
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// SetBearerAuth replaces the bearer token
func (c *Client) SetBearerAuth(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resty.SetAuthToken(token)
}

// FetchPageData loads the page payload of one source. The body is decoded
// with object key order preserved; its shape is not interpreted here.
func (c *Client) FetchPageData(ctx context.Context, serviceID, endpoint string) (any, error) {
	c.mu.RLock()
	limiter := c.limiter
	c.mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	headers := make(map[string]string, 2)
	tracing.InjectTraceContext(ctx, headers)

	start := time.Now()
	resp, err := resilience.Execute(c.breakers.Get(serviceID), func() (*resty.Response, error) {
		c.mu.RLock()
		req := c.resty.R().SetContext(ctx).SetHeaders(headers)
		c.mu.RUnlock()

		resp, err := req.Get(endpoint)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return resp, statusError(endpoint, resp)
		}
		return resp, nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return nil, fmt.Errorf("source %s unavailable: %w", serviceID, err)
	}
	if err != nil {
		return nil, err
	}

	c.logger.Debug("upstream request",
		logging.ServiceID(serviceID),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode()),
		zap.Int("bytes", len(resp.Body())),
		zap.Duration("duration", time.Since(start)),
	)

	if err := c.size.ValidateSize(resp.Body()); err != nil {
		return nil, fmt.Errorf("GET %s: %w", endpoint, err)
	}

	payload, err := envelope.Decode(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("invalid JSON from %s: %w", endpoint, err)
	}
	return payload, nil
}

// apiError is the error body the content API sends with 4xx/5xx answers
type apiError struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func statusError(endpoint string, resp *resty.Response) error {
	msg := http.StatusText(resp.StatusCode())

	var body apiError
	if err := sonic.Unmarshal(resp.Body(), &body); err == nil {
		for _, s := range []string{body.Detail, body.Message, body.Error} {
			if s != "" {
				msg = s
				break
			}
		}
	}

	return fmt.Errorf("%w: GET %s: %d %s", ErrStatus, endpoint, resp.StatusCode(), msg)
}

// Endpoint returns the page path of a catalog entry
func Endpoint(e catalog.Entry) string {
	if e.Endpoint != "" {
		return e.Endpoint
	}
	return "/" + e.ID + "/page/"
}

// Factory binds catalog entries to this client
func (c *Client) Factory() catalog.FetcherFactory {
	return func(e catalog.Entry) catalog.FetchFunc {
		serviceID, endpoint := e.ID, Endpoint(e)
		return func(ctx context.Context) (any, error) {
			return c.FetchPageData(ctx, serviceID, endpoint)
		}
	}
}

// BreakerStates reports the circuit state of every source contacted so far
func (c *Client) BreakerStates() map[string]resilience.State {
	return c.breakers.States()
}
