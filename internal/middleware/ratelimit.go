package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/campus-site/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	rateLimitMax    = 50
	rateLimitWindow = time.Second
)

// Counter is the windowed counter backing RateLimit.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RateLimit allows 50 anonymous requests per IP per second. Authenticated
// callers are not limited; a counter outage lets traffic through.
func RateLimit(counter Counter, log *zap.Logger, now func() time.Time) gin.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(c *gin.Context) {
		if counter == nil || IsAuthenticated(c) {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		key := fmt.Sprintf("campus:rate_limit:%s:%d", ip, now().Unix())
		count, err := counter.Incr(c.Request.Context(), key, rateLimitWindow+time.Second)
		if err != nil {
			c.Next()
			return
		}

		if count > rateLimitMax {
			if count == rateLimitMax+1 && log != nil {
				log.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			}
			c.Header("Retry-After", "1")
			response.TooManyRequests(c)
			return
		}

		c.Next()
	}
}
