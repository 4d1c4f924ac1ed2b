package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edufund-api/pkg/middleware/requestid"
)

const requestStartKey = "request_start"

// WithResponseMeta stamps the request start so handlers can report processing time.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Next()
	}
}

// ResponseMeta builds the envelope meta block for list responses.
func ResponseMeta(c *gin.Context) map[string]interface{} {
	meta := make(map[string]interface{}, 2)
	if id := requestid.Value(c); id != "" {
		meta["requestId"] = id
	}
	if v, ok := c.Get(requestStartKey); ok {
		if start, ok := v.(time.Time); ok {
			meta["processingTimeMs"] = time.Since(start).Milliseconds()
		}
	}
	return meta
}
