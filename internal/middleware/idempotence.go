package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/campus-site/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	idempotenceHeader = "x-idempotence"
	idempotenceTTL    = 60 * time.Second

	stateInFlight = "0"
	stateDone     = "1"
)

// KeyStore is the shared key space backing Idempotence.
type KeyStore interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Replace(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
}

// IdempotenceOptions configures Idempotence.
type IdempotenceOptions struct {
	// HeaderOnlyPaths are request paths keyed only by an explicit
	// x-idempotence header, never by body hash. Creating the same content
	// twice is a legitimate request there.
	HeaderOnlyPaths []string
}

// Idempotence rejects a repeated POST/PUT with 409 while the first is in
// flight and for 60 seconds after it succeeded. Multipart bodies are only
// keyed by explicit header.
func Idempotence(store KeyStore, opts IdempotenceOptions) gin.HandlerFunc {
	headerOnly := make(map[string]struct{}, len(opts.HeaderOnlyPaths))
	for _, p := range opts.HeaderOnlyPaths {
		headerOnly[strings.TrimRight(p, "/")] = struct{}{}
	}
	return func(c *gin.Context) {
		if store == nil {
			c.Next()
			return
		}
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut:
		default:
			c.Next()
			return
		}

		_, explicitOnly := headerOnly[strings.TrimRight(c.Request.URL.Path, "/")]
		key, err := resolveIdempotenceKey(c, explicitOnly)
		if err != nil || key == "" {
			c.Next()
			return
		}

		redisKey := fmt.Sprintf("campus:idempotence:%s", key)
		ctx := c.Request.Context()

		acquired, err := store.SetNX(ctx, redisKey, stateInFlight, idempotenceTTL)
		if err != nil {
			c.Next()
			return
		}
		if !acquired {
			msg := "identical request already succeeded within the last 60 seconds"
			if val, _ := store.Get(ctx, redisKey); val == stateInFlight {
				msg = "identical request is still being processed"
			}
			response.Conflict(c, msg)
			return
		}

		c.Next()

		// The request context may be cancelled by now.
		done := context.WithoutCancel(ctx)
		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			_ = store.Replace(done, redisKey, stateDone)
		} else {
			_ = store.Del(done, redisKey)
		}
	}
}

// resolveIdempotenceKey returns the idempotence key for the current request.
func resolveIdempotenceKey(c *gin.Context, explicitOnly bool) (string, error) {
	if hdr := strings.TrimSpace(c.GetHeader(idempotenceHeader)); hdr != "" {
		return hdr, nil
	}
	if explicitOnly || strings.HasPrefix(strings.ToLower(c.ContentType()), "multipart/") {
		return "", nil
	}

	var body []byte
	if c.Request.Body != nil {
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return "", err
		}
		body = b
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	ua := c.Request.UserAgent()
	ip := c.ClientIP()
	authToken := extractToken(c)

	if len(body) == 0 && ua == "" && ip == "" && authToken == "" {
		return "", nil
	}

	raw := c.Request.Method + "|" + c.Request.URL.String() + "|" + string(body) + "|" + ua + "|" + ip + "|" + authToken
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:]), nil
}
