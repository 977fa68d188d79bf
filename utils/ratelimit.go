package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// ClientLimiter hands out one token bucket per client key.
// Idle buckets fall out of the LRU after ttl.
type ClientLimiter struct {
	buckets *expirable.LRU[string, *rate.Limiter]
	limit   rate.Limit
	burst   int
}

// NewClientLimiter creates a limiter table. A non-positive perSecond disables limiting.
func NewClientLimiter(perSecond float64, burst, size int, ttl time.Duration) *ClientLimiter {
	if burst <= 0 {
		burst = 1
	}
	if size <= 0 {
		size = 1024
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &ClientLimiter{
		buckets: expirable.NewLRU[string, *rate.Limiter](size, nil, ttl),
		limit:   limit,
		burst:   burst,
	}
}

// Allow reports whether key may make a request now.
func (l *ClientLimiter) Allow(key string) bool {
	if l.limit == rate.Inf {
		return true
	}
	limiter, ok := l.buckets.Get(key)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.buckets.Add(key, limiter)
	}
	return limiter.Allow()
}

// RateLimitMiddleware rejects clients that exceed their bucket with 429.
func RateLimitMiddleware(l *ClientLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
