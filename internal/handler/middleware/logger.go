package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"
)

const requestIDHeader = "X-Request-ID"

// LoggerMiddleware logs one line per request and echoes a request id back
// to the client, generating one when the caller sent none.
func LoggerMiddleware() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()

		event := zlog.Logger.Info()
		if c.Writer.Status() >= 500 {
			event = zlog.Logger.Error()
		}
		if id, ok := IdentityFrom(c); ok {
			event = event.Str("user_id", id.UserID)
		}
		event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}
