package http

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/dishbook/backend/internal/domain"
	"github.com/dishbook/backend/internal/logger"
)

// CORSMiddleware handles CORS for the web client
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if isAllowedOrigin(origin, allowedOrigins) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, X-Request-ID")
			c.Writer.Header().Set("Access-Control-Max-Age", "3600")
		}

		// Handle preflight requests
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// isAllowedOrigin checks if the origin is in the allowed list
func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range allowedOrigins {
		// Trailing * matches any suffix, e.g. http://localhost:*
		if strings.HasSuffix(allowed, "*") {
			if strings.HasPrefix(origin, strings.TrimSuffix(allowed, "*")) {
				return true
			}
		} else if origin == allowed {
			return true
		}
	}
	return false
}

// LoggerMiddleware logs one structured line per request
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"request_id", requestid.Get(c),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Logger.Errorw("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Logger.Warnw("request", fields...)
		default:
			logger.Logger.Infow("request", fields...)
		}
	}
}

// RecoveryMiddleware recovers from panics
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.Recovery()
}

// ipLimiter is one client's token bucket
type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out a token bucket per client IP
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*ipLimiter
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	lastScan time.Time
}

// NewRateLimiter allows perMinute requests per client IP, with burst. A
// non-positive perMinute disables limiting.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		clients:  make(map[string]*ipLimiter),
		limit:    limit,
		burst:    burst,
		idleTTL:  10 * time.Minute,
		lastScan: time.Now(),
	}
}

// Allow reports whether ip may make a request now.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastScan) > rl.idleTTL {
		for k, v := range rl.clients {
			if now.Sub(v.lastSeen) > rl.idleTTL {
				delete(rl.clients, k)
			}
		}
		rl.lastScan = now
	}

	client, ok := rl.clients[ip]
	if !ok {
		client = &ipLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = client
	}
	client.lastSeen = now
	return client.limiter.Allow()
}

// RateLimitMiddleware rejects clients over their budget with 429
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": domain.ErrRateLimited.Error(),
			})
			return
		}
		c.Next()
	}
}
