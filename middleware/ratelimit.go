package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter is a per-IP token bucket.
type RateLimiter struct {
	tokens         map[string]float64
	lastRefill     map[string]time.Time
	mu             sync.Mutex
	rate           float64 // tokens per second
	bucketSize     float64 // maximum tokens
	refillInterval time.Duration
	now            func() time.Time
}

func NewRateLimiter(rate float64, bucketSize float64) *RateLimiter {
	return &RateLimiter{
		tokens:         make(map[string]float64),
		lastRefill:     make(map[string]time.Time),
		rate:           rate,
		bucketSize:     bucketSize,
		refillInterval: time.Second,
		now:            time.Now,
	}
}

// Allow takes a token from ip's bucket if one is available.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()

	if _, exists := rl.lastRefill[ip]; !exists {
		rl.tokens[ip] = rl.bucketSize
		rl.lastRefill[ip] = now
	}

	elapsed := now.Sub(rl.lastRefill[ip])
	newTokens := float64(elapsed) / float64(rl.refillInterval) * rl.rate
	rl.tokens[ip] = min(rl.bucketSize, rl.tokens[ip]+newTokens)
	rl.lastRefill[ip] = now

	if rl.tokens[ip] < 1 {
		return false
	}
	rl.tokens[ip]--
	return true
}

// Forget drops buckets that have been full for longer than idle.
func (rl *RateLimiter) Forget(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-idle)
	for ip, last := range rl.lastRefill {
		if last.Before(cutoff) {
			delete(rl.lastRefill, ip)
			delete(rl.tokens, ip)
		}
	}
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rl.Allow(ip) {
			zap.L().Debug("rate limit exceeded", zap.String("ip", ip))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
