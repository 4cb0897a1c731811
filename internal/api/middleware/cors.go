package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig defines CORS configuration options.
type CORSConfig struct {
	AllowOrigins  []string
	AllowHeaders  []string
	ExposeHeaders []string
	MaxAge        time.Duration
}

// DefaultCORSConfig lets any storefront origin read pricing. The API is
// read-only and carries no cookies, so credentials are never allowed.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{
			"Accept",
			"Cache-Control",
			"If-None-Match",
			HeaderRequestID,
		},
		ExposeHeaders: []string{"ETag", HeaderRequestID, "X-Trace-ID"},
		MaxAge:        12 * time.Hour,
	}
}

// WithOrigins restricts the allowed origins. Blank entries are ignored and
// an empty list keeps the wildcard.
func (c CORSConfig) WithOrigins(origins []string) CORSConfig {
	kept := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			kept = append(kept, o)
		}
	}
	if len(kept) > 0 {
		c.AllowOrigins = kept
	}
	return c
}

// CORS creates a CORS middleware for the GET-only pricing routes.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:  cfg.AllowOrigins,
		AllowMethods:  []string{"GET", "HEAD", "OPTIONS"},
		AllowHeaders:  cfg.AllowHeaders,
		ExposeHeaders: cfg.ExposeHeaders,
		MaxAge:        cfg.MaxAge,
		// The progress stream is opened by browsers with an Origin header
		AllowWebSockets: true,
	})
}
