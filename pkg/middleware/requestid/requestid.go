// Package requestid tags every request with a correlation ID that is echoed to
// the client, attached to access logs and carried on the request context.
package requestid

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderKey carries the request ID in both directions.
const HeaderKey = "X-Request-ID"

const (
	ginKey    = "request_id"
	maxLength = 128
)

type ctxKey struct{}

// Middleware reuses a well-formed caller supplied X-Request-ID or assigns a UUID.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderKey)
		if !valid(id) {
			id = uuid.NewString()
		}
		c.Set(ginKey, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), ctxKey{}, id))
		c.Header(HeaderKey, id)
		c.Next()
	}
}

// Value returns the request ID stored on the gin context.
func Value(c *gin.Context) string {
	return c.GetString(ginKey)
}

// FromContext returns the request ID carried by ctx, or "" outside a request.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// valid accepts non-empty printable ASCII without spaces, so IDs are safe to log and echo.
func valid(id string) bool {
	if id == "" || len(id) > maxLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}
