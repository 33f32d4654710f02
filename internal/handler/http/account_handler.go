package http

import (
	"errors"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/domain"
	"github.com/yokitheyo/avatarservice/internal/dto"
)

type AccountHandler struct {
	service domain.AccountService
}

func NewAccountHandler(service domain.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

func (h *AccountHandler) RegisterRoutes(engine *ginext.Engine, auth ginext.HandlerFunc) {
	engine.GET("/account", auth, h.GetAccount)
	engine.PUT("/account", auth, h.UpdateAccount)
}

// GetAccount GET /account
func (h *AccountHandler) GetAccount(c *ginext.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), id)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", id.UserID).Msg("failed to get profile")
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to load profile")
		return
	}

	c.JSON(http.StatusOK, dto.MapProfileToResponse(profile))
}

// UpdateAccount PUT /account
func (h *AccountHandler) UpdateAccount(c *ginext.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Request body must be a JSON object")
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), id, req.ToProfileUpdate())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidProfile) {
			respondError(c, http.StatusBadRequest, "invalid_profile", err.Error())
			return
		}
		zlog.Logger.Error().Err(err).Str("user_id", id.UserID).Msg("failed to update profile")
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, dto.MapProfileToResponse(profile))
}
