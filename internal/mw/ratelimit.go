package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiters stores a rate limiter per client key.
type clientLimiters struct {
	keys map[string]*rate.Limiter
	mu   sync.RWMutex
	r    rate.Limit
	b    int
}

func newClientLimiters(r rate.Limit, b int) *clientLimiters {
	return &clientLimiters{
		keys: make(map[string]*rate.Limiter),
		r:    r,
		b:    b,
	}
}

func (l *clientLimiters) get(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.keys[key]
	l.mu.RUnlock()
	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, exists = l.keys[key]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(l.r, l.b)
	l.keys[key] = limiter
	return limiter
}

// RateLimiter is a middleware for per-client rate limiting. When ipHeader
// is non-empty the named header identifies the client (for deployments
// behind a trusted proxy); otherwise the connection IP is used.
func RateLimiter(r rate.Limit, b int, ipHeader string) gin.HandlerFunc {
	limiters := newClientLimiters(r, b)
	return func(c *gin.Context) {
		key := ""
		if ipHeader != "" {
			key = c.GetHeader(ipHeader)
		}
		if key == "" {
			key = c.ClientIP()
		}
		if !limiters.get(key).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
