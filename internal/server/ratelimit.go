package server

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"

	"visaocr/internal/metrics"
	"visaocr/internal/response"
)

// rateLimiter gives every client IP a token bucket of `requests` tokens refilled
// over `window`. Idle buckets expire after a window.
type rateLimiter struct {
	requests int
	window   time.Duration
	buckets  *ttlcache.Cache[string, *rate.Limiter]
}

// newRateLimiter returns nil (no limiting) when requests is zero.
func newRateLimiter(requests int, window time.Duration) *rateLimiter {
	if requests <= 0 {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	buckets := ttlcache.New(
		ttlcache.WithTTL[string, *rate.Limiter](window),
	)
	go buckets.Start()
	return &rateLimiter{requests: requests, window: window, buckets: buckets}
}

func (l *rateLimiter) allow(key string) (bool, time.Duration) {
	item := l.buckets.Get(key)
	if item == nil {
		item, _ = l.buckets.GetOrSet(key, l.newBucket())
	}
	bucket := item.Value()

	r := bucket.Reserve()
	if !r.OK() {
		return false, l.window
	}
	if delay := r.Delay(); delay > 0 {
		r.Cancel()
		return false, delay
	}
	return true, 0
}

func (l *rateLimiter) newBucket() *rate.Limiter {
	return rate.NewLimiter(rate.Every(l.window/time.Duration(l.requests)), l.requests)
}

func (l *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		ok, retryAfter := l.allow(c.ClientIP())
		if !ok {
			metrics.RecordRateLimited()
			c.Header("Retry-After", fmt.Sprintf("%d", int(math.Ceil(retryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				response.Reject(response.CodeRateLimited, "Too many requests, please try again later"))
			return
		}
		c.Next()
	}
}

func (l *rateLimiter) close() {
	if l != nil {
		l.buckets.Stop()
	}
}
