package domain

import (
	"context"
	"io"
)

// Upload is a file received from a client before validation.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Identity, error)
}

type AccountService interface {
	GetProfile(ctx context.Context, id Identity) (*Profile, error)
	UpdateProfile(ctx context.Context, id Identity, update ProfileUpdate) (*Profile, error)
}

type AvatarService interface {
	UploadAvatar(ctx context.Context, id Identity, upload Upload) (string, error)
	SubmitJob(ctx context.Context, id Identity, upload Upload, params JobParams) (*AvatarJob, error)
	GetJob(ctx context.Context, id Identity, jobID string) (*AvatarJob, error)
}

type RenderService interface {
	RenderJob(ctx context.Context, jobID string) error
}

type QueueService interface {
	PublishAvatarJob(ctx context.Context, jobID, userID string) error
	Close() error
}
