package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/domain"
	"github.com/yokitheyo/avatarservice/internal/dto"
)

const identityKey = "identity"

// AuthMiddleware verifies the bearer token and stores the caller's identity
// on the context.
func AuthMiddleware(authn domain.Authenticator) ginext.HandlerFunc {
	return func(c *ginext.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "unauthorized",
				Message: "Unauthorized",
			})
			return
		}

		id, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
					Error:   "unauthorized",
					Message: "Unauthorized",
				})
				return
			}
			zlog.Logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("token verification failed")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.ErrorResponse{
				Error:   "auth_unavailable",
				Message: "Could not verify credentials",
			})
			return
		}

		c.Set(identityKey, *id)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by AuthMiddleware.
func IdentityFrom(c *ginext.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
