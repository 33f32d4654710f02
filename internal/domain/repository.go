package domain

import "context"

type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*Profile, error)
	Create(ctx context.Context, profile *Profile) error
	Update(ctx context.Context, profile *Profile) error
	// UpsertAvatarURL sets avatar_url, creating the profile row when missing.
	UpsertAvatarURL(ctx context.Context, id Identity, avatarURL string) error
}

type AvatarJobRepository interface {
	Create(ctx context.Context, job *AvatarJob) error
	FindByID(ctx context.Context, id string) (*AvatarJob, error)
	Update(ctx context.Context, job *AvatarJob) error
}
