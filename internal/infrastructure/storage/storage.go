package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/config"
)

var ErrObjectNotFound = errors.New("object not found")

// Storage keeps uploaded sources and rendered avatars. Paths returned by the
// Save methods are relative to the storage root and feed PublicURL.
type Storage interface {
	SaveSource(ctx context.Context, filename string, reader io.Reader, contentType string) (string, error)
	SaveAvatar(ctx context.Context, filename string, reader io.Reader, contentType string) (string, error)
	GetSource(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
	DeleteAll(ctx context.Context, paths ...string) error
	PublicURL(path string) string
}

func New(cfg *config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "local":
		zlog.Logger.Info().Str("path", cfg.LocalPath).Msg("Initializing local storage")
		return NewLocalStorage(cfg)
	case "s3":
		zlog.Logger.Info().Str("endpoint", cfg.S3Endpoint).Str("bucket", cfg.S3Bucket).Msg("Initializing S3 storage")
		return NewS3Storage(cfg)
	default:
		zlog.Logger.Error().Str("type", cfg.Type).Msg("Unsupported storage type, use 'local' or 's3'")
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func deleteAll(ctx context.Context, s Storage, paths []string) error {
	var lastErr error
	for _, p := range paths {
		if err := s.Delete(ctx, p); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
