package middleware

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"

	"github.com/yokitheyo/avatarservice/internal/helpers"
)

// CORSMiddleware answers preflights for the account routes. An origin list
// containing "*" allows any origin.
func CORSMiddleware(allowedOrigins []string) ginext.HandlerFunc {
	allowAny := len(allowedOrigins) == 0 || helpers.ContainsFold(allowedOrigins, "*")

	return func(c *ginext.Context) {
		origin := c.GetHeader("Origin")
		h := c.Writer.Header()

		switch {
		case allowAny:
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && helpers.ContainsFold(allowedOrigins, origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, Accept, X-Request-ID")
		h.Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
