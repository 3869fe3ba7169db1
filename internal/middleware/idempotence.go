package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagecraft/internal/pkg/response"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotenceHeader = "X-Idempotence"
	idempotenceTTL    = 60 * time.Second
	idempotencePrefix = "pagecraft:idempotence:"
)

// Idempotence rejects a repeated mutating request carrying the same
// X-Idempotence key while the first one is running or within 60 seconds
// after it succeeded. Requests without the header pass through.
func Idempotence(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || !isMutating(c.Request.Method) {
			c.Next()
			return
		}

		hdr := strings.TrimSpace(c.GetHeader(IdempotenceHeader))
		if hdr == "" {
			c.Next()
			return
		}

		redisKey := idempotencePrefix + idempotenceKey(c, hdr)
		ctx := c.Request.Context()

		ok, err := rdb.SetNX(ctx, redisKey, "0", idempotenceTTL).Result()
		if err != nil {
			c.Next()
			return
		}
		if !ok {
			val, getErr := rdb.Get(ctx, redisKey).Result()
			if getErr != nil && !errors.Is(getErr, redis.Nil) {
				c.Next()
				return
			}
			msg := "duplicate request, already completed"
			if val == "0" {
				msg = "duplicate request, still in progress"
			}
			response.Conflict(c, msg)
			return
		}

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			rdb.Set(ctx, redisKey, "1", redis.KeepTTL)
		} else {
			rdb.Del(ctx, redisKey)
		}
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func idempotenceKey(c *gin.Context, hdr string) string {
	raw := c.Request.Method + "|" + c.Request.URL.Path + "|" + hdr + "|" + extractToken(c)
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
