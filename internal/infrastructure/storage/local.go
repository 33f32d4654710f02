package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/config"
)

const defaultLocalBaseURL = "/media"

type localStorage struct {
	basePath  string
	sourceDir string
	avatarDir string
	baseURL   string
}

func NewLocalStorage(cfg *config.StorageConfig) (Storage, error) {
	if cfg.LocalPath == "" {
		return nil, fmt.Errorf("LocalPath is empty, set storage.local_path in config or env")
	}

	s := &localStorage{
		basePath:  cfg.LocalPath,
		sourceDir: cfg.SourceDir,
		avatarDir: cfg.AvatarDir,
		baseURL:   cfg.PublicBaseURL,
	}
	if s.sourceDir == "" {
		s.sourceDir = "sources"
	}
	if s.avatarDir == "" {
		s.avatarDir = "avatars"
	}
	if s.baseURL == "" {
		s.baseURL = defaultLocalBaseURL
	}

	for _, dir := range []string{s.sourceDir, s.avatarDir} {
		if err := os.MkdirAll(filepath.Join(s.basePath, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}

	return s, nil
}

func (s *localStorage) SaveSource(ctx context.Context, filename string, reader io.Reader, _ string) (string, error) {
	return s.saveFile(ctx, s.sourceDir, filename, reader)
}

func (s *localStorage) SaveAvatar(ctx context.Context, filename string, reader io.Reader, _ string) (string, error) {
	return s.saveFile(ctx, s.avatarDir, filename, reader)
}

func (s *localStorage) saveFile(ctx context.Context, dir, filename string, reader io.Reader) (string, error) {
	if reader == nil {
		zlog.Logger.Error().Str("filename", filename).Msg("reader is nil")
		return "", fmt.Errorf("reader is nil")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if filename == "" || filepath.Base(filename) != filename {
		return "", fmt.Errorf("invalid filename %q", filename)
	}

	relativePath := filepath.ToSlash(filepath.Join(dir, filename))
	fullPath := filepath.Join(s.basePath, dir, filename)

	file, err := os.Create(fullPath)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to create file")
		return "", fmt.Errorf("create file %s: %w", fullPath, err)
	}

	written, err := io.Copy(file, reader)
	if cerr := file.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close: %w", cerr)
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to write file")
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("write file %s: %w", fullPath, err)
	}
	if written == 0 {
		zlog.Logger.Error().Str("path", fullPath).Msg("no bytes written to file")
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("no bytes written to file %s", fullPath)
	}

	zlog.Logger.Info().
		Str("path", relativePath).
		Int64("bytes", written).
		Msg("file saved successfully")

	return relativePath, nil
}

func (s *localStorage) GetSource(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			zlog.Logger.Error().Str("path", fullPath).Msg("file not found")
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, path)
		}
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to open file")
		return nil, fmt.Errorf("open file %s: %w", fullPath, err)
	}
	return file, nil
}

func (s *localStorage) Delete(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			zlog.Logger.Warn().Str("path", fullPath).Msg("file not found, skipping delete")
			return nil
		}
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to delete file")
		return fmt.Errorf("delete file %s: %w", fullPath, err)
	}

	zlog.Logger.Info().Str("path", path).Msg("file deleted successfully")
	return nil
}

func (s *localStorage) DeleteAll(ctx context.Context, paths ...string) error {
	return deleteAll(ctx, s, paths)
}

func (s *localStorage) PublicURL(path string) string {
	return joinURL(s.baseURL, path)
}

// resolve maps a stored relative path to a file under basePath.
func (s *localStorage) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrObjectNotFound, path)
	}
	return filepath.Join(s.basePath, clean), nil
}
