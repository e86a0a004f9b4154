package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID     = "X-Request-ID"
	ContextRequestIDKey = "request_id"
)

// RequestID keeps a caller supplied X-Request-ID or assigns a new one, and
// exposes it on the context and the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID returns the id set by RequestID, or "-" when absent.
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(ContextRequestIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "-"
}
