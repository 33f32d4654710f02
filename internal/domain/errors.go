package domain

import "errors"

var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrJobNotFound        = errors.New("avatar job not found")
	ErrNoFile             = errors.New("no file provided")
	ErrInvalidContentType = errors.New("invalid file type")
	ErrFileTooLarge       = errors.New("file size exceeds maximum allowed")
	ErrInvalidProfile     = errors.New("invalid profile data")
	ErrInvalidJob         = errors.New("invalid avatar job parameters")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrProcessingFailed   = errors.New("avatar processing failed")
	ErrStorageFailed      = errors.New("storage operation failed")
	ErrQueueFailed        = errors.New("queue operation failed")
)
