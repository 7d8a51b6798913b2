package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/pagesift/pagesift/config"
	"github.com/pagesift/pagesift/models"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleEviction  = time.Hour
)

// limiterTable hands out one token bucket per caller identity and forgets
// identities that stay quiet long enough.
type limiterTable struct {
	mu      sync.Mutex
	buckets map[string]*clientBucket
	rps     rate.Limit
	burst   int
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterTable(cfg config.RateLimitConfig) *limiterTable {
	return &limiterTable{
		buckets: make(map[string]*clientBucket),
		rps:     rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
	}
}

// allow consumes one token for the identity, creating its bucket on first
// sight.
func (t *limiterTable) allow(identity string) bool {
	t.mu.Lock()
	b, ok := t.buckets[identity]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(t.rps, t.burst)}
		t.buckets[identity] = b
	}
	b.lastSeen = time.Now()
	t.mu.Unlock()
	return b.limiter.Allow()
}

// sweep drops buckets idle past the eviction window.
func (t *limiterTable) sweep() {
	cutoff := time.Now().Add(-limiterIdleEviction)
	t.mu.Lock()
	for id, b := range t.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(t.buckets, id)
		}
	}
	t.mu.Unlock()
}

// RateLimit returns token-bucket rate limiting middleware. Each caller is
// limited independently, identified by API key when Auth ran before this
// middleware and by client IP otherwise.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	table := newLimiterTable(cfg)

	go func() {
		ticker := time.NewTicker(limiterSweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			table.sweep()
		}
	}()

	return func(c *gin.Context) {
		identity := c.GetString(contextKeyAPIKey)
		if identity == "" {
			identity = c.ClientIP()
		}

		if !table.allow(identity) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}
		c.Next()
	}
}
