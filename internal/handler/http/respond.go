package http

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"

	"github.com/yokitheyo/avatarservice/internal/domain"
	"github.com/yokitheyo/avatarservice/internal/dto"
	"github.com/yokitheyo/avatarservice/internal/handler/middleware"
)

func respondError(c *ginext.Context, status int, code, message string) {
	c.JSON(status, dto.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// identity is set by the auth middleware on every route of these handlers.
func identity(c *ginext.Context) (domain.Identity, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Unauthorized")
	}
	return id, ok
}
