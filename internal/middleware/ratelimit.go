package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagecraft/internal/pkg/response"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	defaultRateLimitMax    = 50
	defaultRateLimitWindow = time.Second
	maxLocalLimiters       = 10000
)

// RateLimitOptions configures a fixed window limit per client IP.
type RateLimitOptions struct {
	Name              string
	Max               int
	Window            time.Duration
	SkipAuthenticated bool
}

func normalizeRateLimitOptions(opts RateLimitOptions) RateLimitOptions {
	if opts.Name == "" {
		opts.Name = "global"
	}
	if opts.Max <= 0 {
		opts.Max = defaultRateLimitMax
	}
	if opts.Window <= 0 {
		opts.Window = defaultRateLimitWindow
	}
	return opts
}

// RateLimit limits requests per client IP. Counters live in Redis when rdb is
// set, so every instance shares them; otherwise a per-process token bucket is used.
func RateLimit(rdb *redis.Client, opts RateLimitOptions) gin.HandlerFunc {
	options := normalizeRateLimitOptions(opts)
	var local *limiterCache
	if rdb == nil {
		local = newLimiterCache(rate.Every(options.Window/time.Duration(options.Max)), options.Max)
	}

	return func(c *gin.Context) {
		if options.SkipAuthenticated && IsAuthenticated(c) {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		if local != nil {
			local.clearIfExceeds(maxLocalLimiters)
			if !local.get(ip).Allow() {
				response.TooManyRequests(c)
				return
			}
			c.Next()
			return
		}

		ctx := c.Request.Context()
		windowKey := time.Now().UnixNano() / int64(options.Window)
		key := fmt.Sprintf("pagecraft:rate_limit:%s:%s:%d", options.Name, ip, windowKey)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			rdb.PExpire(ctx, key, options.Window+time.Second)
		}
		if count > int64(options.Max) {
			response.TooManyRequests(c)
			return
		}

		c.Next()
	}
}

type limiterCache struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newLimiterCache(r rate.Limit, burst int) *limiterCache {
	return &limiterCache{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

func (lc *limiterCache) get(key string) *rate.Limiter {
	lc.mu.RLock()
	limiter, ok := lc.limiters[key]
	lc.mu.RUnlock()
	if ok {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()
	if limiter, ok = lc.limiters[key]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

func (lc *limiterCache) clearIfExceeds(maxSize int) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if len(lc.limiters) > maxSize {
		lc.limiters = make(map[string]*rate.Limiter)
	}
}
