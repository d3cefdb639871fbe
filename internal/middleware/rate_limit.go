// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jradiance/jradiance-backend/internal/config"
	"github.com/jradiance/jradiance-backend/internal/utils"
)

const (
	pruneInterval = time.Minute
	bucketTTL     = 3 * time.Minute
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP. Buckets idle longer
// than bucketTTL are pruned to bound memory on public endpoints.
type IPRateLimiter struct {
	mtx     sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
}

func NewIPRateLimiter(limit rate.Limit, burst int) *IPRateLimiter {
	l := &IPRateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		burst:   burst,
	}
	go l.prune()
	return l
}

func (l *IPRateLimiter) prune() {
	for range time.Tick(pruneInterval) {
		l.mtx.Lock()
		for ip, b := range l.buckets {
			if time.Since(b.lastSeen) > bucketTTL {
				delete(l.buckets, ip)
			}
		}
		l.mtx.Unlock()
	}
}

func (l *IPRateLimiter) bucketFor(ip string) *rate.Limiter {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}

func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.bucketFor(c.ClientIP()).Allow() {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED",
				"Too many requests, slow down", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimiters bundles the three tiers the router mounts: a broad per-second
// limit on everything, a tight per-minute limit on credential endpoints, and
// a per-minute limit on image uploads. Rates come from configuration so each
// environment can tune them.
type RateLimiters struct {
	General gin.HandlerFunc
	Auth    gin.HandlerFunc
	Upload  gin.HandlerFunc
}

func NewRateLimiters(cfg config.RateLimitConfig) *RateLimiters {
	return &RateLimiters{
		General: NewIPRateLimiter(perSecond(cfg.GeneralPerSecond), max(cfg.GeneralBurst, 1)).Middleware(),
		Auth:    NewIPRateLimiter(perMinute(cfg.AuthPerMinute), max(cfg.AuthPerMinute, 1)).Middleware(),
		Upload:  NewIPRateLimiter(perMinute(cfg.UploadPerMinute), max(cfg.UploadPerMinute, 1)).Middleware(),
	}
}

func perSecond(n int) rate.Limit {
	if n < 1 {
		n = 1
	}
	return rate.Limit(n)
}

func perMinute(n int) rate.Limit {
	if n < 1 {
		n = 1
	}
	return rate.Every(time.Minute / time.Duration(n))
}
