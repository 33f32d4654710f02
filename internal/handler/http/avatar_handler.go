package http

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/domain"
	"github.com/yokitheyo/avatarservice/internal/dto"
)

// multipartOverhead leaves room for form fields and boundaries on top of
// the file itself.
const multipartOverhead = 1 << 20

type AvatarHandler struct {
	service       domain.AvatarService
	maxUploadSize int64
}

func NewAvatarHandler(service domain.AvatarService, maxUploadSizeMB int) *AvatarHandler {
	return &AvatarHandler{
		service:       service,
		maxUploadSize: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

func (h *AvatarHandler) RegisterRoutes(engine *ginext.Engine, auth ginext.HandlerFunc) {
	engine.POST("/account/avatar", auth, h.UploadAvatar)
	engine.POST("/account/avatar/jobs", auth, h.SubmitJob)
	engine.GET("/account/avatar/jobs/:id", auth, h.GetJob)
}

// UploadAvatar POST /account/avatar
func (h *AvatarHandler) UploadAvatar(c *ginext.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	upload, closeFile, ok := h.formUpload(c)
	if !ok {
		return
	}
	defer closeFile()

	avatarURL, err := h.service.UploadAvatar(c.Request.Context(), id, upload)
	if err != nil {
		h.respondServiceError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, dto.AvatarUploadResponse{AvatarURL: avatarURL})
}

// SubmitJob POST /account/avatar/jobs
func (h *AvatarHandler) SubmitJob(c *ginext.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	upload, closeFile, ok := h.formUpload(c)
	if !ok {
		return
	}
	defer closeFile()

	params, err := dto.ParseJobParams(c.PostForm)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_job", err.Error())
		return
	}

	job, err := h.service.SubmitJob(c.Request.Context(), id, upload, params)
	if err != nil {
		h.respondServiceError(c, id, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.MapJobToResponse(job))
}

// GetJob GET /account/avatar/jobs/:id
func (h *AvatarHandler) GetJob(c *ginext.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	job, err := h.service.GetJob(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Avatar job not found")
			return
		}
		zlog.Logger.Error().Err(err).Str("job_id", c.Param("id")).Msg("failed to get avatar job")
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to retrieve avatar job")
		return
	}

	c.JSON(http.StatusOK, dto.MapJobToResponse(job))
}

// formUpload reads the multipart "file" field. On failure it has already
// written the response.
func (h *AvatarHandler) formUpload(c *ginext.Context) (domain.Upload, func(), bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+multipartOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondTooLarge(c)
			return domain.Upload{}, nil, false
		}
		zlog.Logger.Warn().Err(err).Msg("failed to get file from request")
		respondError(c, http.StatusBadRequest, "no_file", "No file provided")
		return domain.Upload{}, nil, false
	}

	return uploadFromHeader(file, header), func() { file.Close() }, true
}

func uploadFromHeader(file multipart.File, header *multipart.FileHeader) domain.Upload {
	return domain.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	}
}

func (h *AvatarHandler) respondServiceError(c *ginext.Context, id domain.Identity, err error) {
	switch {
	case errors.Is(err, domain.ErrNoFile):
		respondError(c, http.StatusBadRequest, "no_file", "No file provided")
	case errors.Is(err, domain.ErrInvalidContentType):
		respondError(c, http.StatusBadRequest, "invalid_file_type", "Invalid file type. Only JPEG, PNG, and WebP are allowed.")
	case errors.Is(err, domain.ErrFileTooLarge):
		h.respondTooLarge(c)
	case errors.Is(err, domain.ErrInvalidJob):
		respondError(c, http.StatusBadRequest, "invalid_job", err.Error())
	case errors.Is(err, domain.ErrStorageFailed):
		zlog.Logger.Error().Err(err).Str("user_id", id.UserID).Msg("avatar upload failed")
		msg := strings.TrimPrefix(err.Error(), domain.ErrStorageFailed.Error()+": ")
		respondError(c, http.StatusInternalServerError, "upload_failed", "Failed to upload file: "+msg)
	default:
		zlog.Logger.Error().Err(err).Str("user_id", id.UserID).Msg("avatar request failed")
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to update user avatar")
	}
}

func (h *AvatarHandler) respondTooLarge(c *ginext.Context) {
	respondError(c, http.StatusBadRequest, "file_too_large",
		fmt.Sprintf("File too large. Maximum size is %dMB.", h.maxUploadSize/(1024*1024)))
}
