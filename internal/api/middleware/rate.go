package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines per-client rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	// IdleTTL evicts limiters of clients not seen for this long
	IdleTTL time.Duration
	// Cost is the number of tokens a request spends; nil means 1. A request
	// that fans out to the content API can charge one token per source.
	Cost func(c *gin.Context) int
}

// DefaultRateLimitConfig returns production-ready rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             200,
		IdleTTL:           10 * time.Minute,
	}
}

// visitors holds one token bucket per client IP
type visitors struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (v *visitors) get(ip string, now time.Time) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()

	if now.Sub(v.lastSweep) > v.ttl {
		for key, b := range v.buckets {
			if now.Sub(b.lastSeen) > v.ttl {
				delete(v.buckets, key)
			}
		}
		v.lastSweep = now
	}

	b, ok := v.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(v.limit, v.burst)}
		v.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter
}

// RateLimit creates a per-IP rate limiting middleware. Rejected requests get
// 429 with a Retry-After hint.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	v := &visitors{
		limit:     rate.Limit(cfg.RequestsPerSecond),
		burst:     cfg.Burst,
		ttl:       cfg.IdleTTL,
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}

	return func(c *gin.Context) {
		now := time.Now()
		limiter := v.get(c.ClientIP(), now)

		if !limiter.AllowN(now, cost(cfg, c)) {
			c.Header("Retry-After", retryAfter(cfg.RequestsPerSecond))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}

// cost clamps the configured cost to [1, Burst] so no request is
// unsatisfiable
func cost(cfg RateLimitConfig, c *gin.Context) int {
	n := 1
	if cfg.Cost != nil {
		n = cfg.Cost(c)
	}
	if n < 1 {
		n = 1
	}
	if cfg.Burst > 0 && n > cfg.Burst {
		n = cfg.Burst
	}
	return n
}

// retryAfter is the whole seconds until one token is back
func retryAfter(rps int) string {
	if rps <= 0 {
		return "60"
	}
	return strconv.Itoa(int(math.Ceil(1 / float64(rps))))
}
