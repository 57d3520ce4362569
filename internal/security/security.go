package security

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/nutrilog/dii-meter/internal/errors"
	"github.com/nutrilog/dii-meter/internal/monitoring"
)

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxBodyBytes      int64         `json:"max_body_bytes"`
	MaxRequestsPerMin int           `json:"max_requests_per_min"`
	AllowedOrigins    []string      `json:"allowed_origins"`
	TrustedProxies    []string      `json:"trusted_proxies"`
	RequestTimeout    time.Duration `json:"request_timeout"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxBodyBytes:      4 << 20, // uploaded CSV logs stay small
		MaxRequestsPerMin: 60,
		AllowedOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
		TrustedProxies:    []string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"},
		RequestTimeout:    30 * time.Second,
	}
}

// SecurityMiddleware provides per-IP rate limiting, body caps and headers
type SecurityMiddleware struct {
	config     SecurityConfig
	metrics    *monitoring.Metrics
	ipLimiters map[string]*rate.Limiter
	mu         sync.Mutex
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(config SecurityConfig, metrics *monitoring.Metrics) *SecurityMiddleware {
	return &SecurityMiddleware{
		config:     config,
		metrics:    metrics,
		ipLimiters: make(map[string]*rate.Limiter),
	}
}

// SecurityHeaders sets standard security headers on every response
func (sm *SecurityMiddleware) SecurityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("X-XSS-Protection", "1; mode=block")
	c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
	c.Header("Cache-Control", "no-store")
	c.Next()
}

// limiterFor returns the token bucket for an IP, creating it on first use
func (sm *SecurityMiddleware) limiterFor(ip string) *rate.Limiter {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	// Bound the map; residential IPs churn
	if len(sm.ipLimiters) > 10000 {
		sm.ipLimiters = make(map[string]*rate.Limiter)
	}

	limiter, ok := sm.ipLimiters[ip]
	if !ok {
		rps := rate.Limit(float64(sm.config.MaxRequestsPerMin) / 60.0)
		limiter = rate.NewLimiter(rps, sm.config.MaxRequestsPerMin/6+1)
		sm.ipLimiters[ip] = limiter
	}
	return limiter
}

// RateLimitByIP enforces a per-IP request budget
func (sm *SecurityMiddleware) RateLimitByIP(c *gin.Context) {
	if !sm.limiterFor(c.ClientIP()).Allow() {
		if sm.metrics != nil {
			sm.metrics.IncrementRateLimitIPBlock()
		}
		appErr := errors.NewRateLimitError("60s")
		errors.LogError(c, appErr)
		c.Header("Retry-After", "60")
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
		return
	}
	c.Next()
}

// RequestTimeout bounds handler time for each request
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

// MaxBodySize caps request body size before handlers read it
func (sm *SecurityMiddleware) MaxBodySize(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, sm.config.MaxBodyBytes)
	c.Next()
}
