package middleware

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	CacheStatusHeader = "X-Pagecraft-Cache"

	responseCachePrefix = "pagecraft:response:"
	defaultCacheTTL     = 15 * time.Second
	defaultCacheMaxBody = 1 << 20
)

// HTTPCacheOptions tunes HTTPCache. A SkipPaths entry ending in * matches
// every path with that prefix.
type HTTPCacheOptions struct {
	TTL          time.Duration
	SkipPaths    []string
	MaxBodyBytes int
}

func (o HTTPCacheOptions) skips(path string) bool {
	for _, pattern := range o.SkipPaths {
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		} else if path == pattern {
			return true
		}
	}
	return false
}

// bodyRecorder tees the response body while it is written, giving up once
// the body grows past limit.
type bodyRecorder struct {
	gin.ResponseWriter
	buf    bytes.Buffer
	limit  int
	tooBig bool
	maxAge string
}

func (r *bodyRecorder) WriteHeader(code int) {
	if code == http.StatusOK && r.Header().Get("Cache-Control") == "" {
		r.Header().Set("Cache-Control", r.maxAge)
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(p []byte) (int, error) {
	r.keep(p)
	return r.ResponseWriter.Write(p)
}

func (r *bodyRecorder) WriteString(s string) (int, error) {
	r.keep([]byte(s))
	return r.ResponseWriter.WriteString(s)
}

func (r *bodyRecorder) keep(p []byte) {
	if r.tooBig {
		return
	}
	if r.buf.Len()+len(p) > r.limit {
		r.tooBig = true
		r.buf.Reset()
		return
	}
	r.buf.Write(p)
}

// HTTPCache stores anonymous GET responses in a Redis hash per request URI.
// Authenticated callers always bypass it, so it must run after OptionalAuth.
func HTTPCache(rdb *redis.Client, opts HTTPCacheOptions) gin.HandlerFunc {
	if opts.TTL <= 0 {
		opts.TTL = defaultCacheTTL
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultCacheMaxBody
	}
	maxAge := "public, max-age=" + strconv.Itoa(int(opts.TTL/time.Second))

	return func(c *gin.Context) {
		if rdb == nil || c.Request.Method != http.MethodGet || opts.skips(c.Request.URL.Path) {
			c.Next()
			return
		}
		if IsAuthenticated(c) {
			c.Header("Cache-Control", "private, no-store")
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := responseCachePrefix + c.Request.URL.RequestURI()
		if status, contentType, body, ok := loadResponse(ctx, rdb, key); ok {
			c.Header(CacheStatusHeader, "hit")
			c.Header("Cache-Control", maxAge)
			c.Data(status, contentType, body)
			c.Abort()
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer, limit: opts.MaxBodyBytes, maxAge: maxAge}
		c.Writer = rec
		c.Header(CacheStatusHeader, "miss")
		c.Next()

		if rec.Status() != http.StatusOK || rec.tooBig || rec.buf.Len() == 0 || !storable(rec.Header()) {
			return
		}
		_, _ = rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key,
				"status", rec.Status(),
				"type", rec.Header().Get("Content-Type"),
				"body", rec.buf.Bytes(),
			)
			p.Expire(ctx, key, opts.TTL)
			return nil
		})
	}
}

func loadResponse(ctx context.Context, rdb *redis.Client, key string) (int, string, []byte, bool) {
	entry, err := rdb.HGetAll(ctx, key).Result()
	if err != nil || len(entry) == 0 {
		return 0, "", nil, false
	}
	status, err := strconv.Atoi(entry["status"])
	if err != nil {
		return 0, "", nil, false
	}
	contentType := entry["type"]
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	return status, contentType, []byte(entry["body"]), true
}

func storable(h http.Header) bool {
	cc := strings.ToLower(h.Get("Cache-Control"))
	for _, directive := range []string{"no-store", "no-cache", "private"} {
		if strings.Contains(cc, directive) {
			return false
		}
	}
	return true
}

// PurgeOnWrite drops every cached response after a successful mutating request.
func PurgeOnWrite(rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if rdb == nil || !isMutating(c.Request.Method) {
			return
		}
		if status := c.Writer.Status(); status < 200 || status >= 300 {
			return
		}
		if err := purgeResponses(c.Request.Context(), rdb); err != nil && logger != nil {
			logger.Warn("purge response cache", zap.Error(err))
		}
	}
}

func purgeResponses(ctx context.Context, rdb *redis.Client) error {
	var keys []string
	iter := rdb.Scan(ctx, 0, responseCachePrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}
