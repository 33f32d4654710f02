package middleware

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/dto"
)

// ErrorHandlerMiddleware turns a panicking handler into a 500 JSON response.
// Register it before LoggerMiddleware so the request id is already set.
func ErrorHandlerMiddleware() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			zlog.Logger.Error().
				Interface("panic", rec).
				Str("request_id", c.Writer.Header().Get(requestIDHeader)).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:   "internal_error",
				Message: "An internal error occurred",
			})
		}()

		c.Next()
	}
}
