package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/avatar"
	"github.com/yokitheyo/avatarservice/internal/domain"
	"github.com/yokitheyo/avatarservice/internal/helpers"
	"github.com/yokitheyo/avatarservice/internal/infrastructure/storage"
)

type AvatarOptions struct {
	MaxUploadSize       int64
	AllowedContentTypes []string
	MaxDPR              float64
}

type AvatarUsecase struct {
	profiles domain.ProfileRepository
	jobs     domain.AvatarJobRepository
	storage  storage.Storage
	queue    domain.QueueService
	opts     AvatarOptions
	newID    func() string
}

func NewAvatarUsecase(
	profiles domain.ProfileRepository,
	jobs domain.AvatarJobRepository,
	storage storage.Storage,
	queue domain.QueueService,
	opts AvatarOptions,
) *AvatarUsecase {
	if opts.MaxDPR < 1 {
		opts.MaxDPR = 4
	}
	return &AvatarUsecase{
		profiles: profiles,
		jobs:     jobs,
		storage:  storage,
		queue:    queue,
		opts:     opts,
		newID:    func() string { return uuid.New().String() },
	}
}

// UploadAvatar stores an already-cropped avatar as is and points the
// caller's profile at it.
func (u *AvatarUsecase) UploadAvatar(ctx context.Context, id domain.Identity, upload domain.Upload) (string, error) {
	data, err := u.readUpload(upload)
	if err != nil {
		return "", err
	}

	key := u.objectKey(id, helpers.FileExtension(upload.Filename, upload.ContentType))
	path, err := u.storage.SaveAvatar(ctx, key, bytes.NewReader(data), upload.ContentType)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", id.UserID).Str("key", key).Msg("failed to store avatar")
		return "", fmt.Errorf("%w: %v", domain.ErrStorageFailed, err)
	}

	avatarURL := u.storage.PublicURL(path)
	if err := u.profiles.UpsertAvatarURL(ctx, id, avatarURL); err != nil {
		_ = u.storage.Delete(ctx, path)
		return "", fmt.Errorf("save avatar url: %w", err)
	}

	zlog.Logger.Info().
		Str("user_id", id.UserID).
		Str("path", path).
		Int("bytes", len(data)).
		Msg("avatar uploaded")

	return avatarURL, nil
}

// SubmitJob stores the source image and queues a server-side render of the
// given crop.
func (u *AvatarUsecase) SubmitJob(ctx context.Context, id domain.Identity, upload domain.Upload, params domain.JobParams) (*domain.AvatarJob, error) {
	if err := u.validateParams(params); err != nil {
		return nil, err
	}
	data, err := u.readUpload(upload)
	if err != nil {
		return nil, err
	}

	key := u.objectKey(id, helpers.FileExtension(upload.Filename, upload.ContentType))
	sourcePath, err := u.storage.SaveSource(ctx, key, bytes.NewReader(data), upload.ContentType)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", id.UserID).Msg("failed to store avatar source")
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailed, err)
	}

	now := time.Now()
	job := &domain.AvatarJob{
		ID:                u.newID(),
		UserID:            id.UserID,
		SourcePath:        sourcePath,
		SourceContentType: upload.ContentType,
		Crop:              params.Crop,
		DisplayWidth:      params.DisplayWidth,
		DisplayHeight:     params.DisplayHeight,
		Transform:         params.Transform,
		DPR:               params.DPR,
		Status:            domain.StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := u.jobs.Create(ctx, job); err != nil {
		_ = u.storage.Delete(ctx, sourcePath)
		return nil, fmt.Errorf("create avatar job: %w", err)
	}

	if err := u.queue.PublishAvatarJob(ctx, job.ID, job.UserID); err != nil {
		job.MarkAsFailed("could not enqueue job")
		if uerr := u.jobs.Update(ctx, job); uerr != nil {
			zlog.Logger.Error().Err(uerr).Str("job_id", job.ID).Msg("failed to mark unqueued job as failed")
		}
		return nil, fmt.Errorf("publish avatar job: %w", err)
	}

	zlog.Logger.Info().
		Str("job_id", job.ID).
		Str("user_id", id.UserID).
		Float64("dpr", job.DPR).
		Msg("avatar job submitted")

	return job, nil
}

// GetJob returns one of the caller's jobs. Jobs of other users are reported
// as missing.
func (u *AvatarUsecase) GetJob(ctx context.Context, id domain.Identity, jobID string) (*domain.AvatarJob, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, domain.ErrJobNotFound
	}

	job, err := u.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != id.UserID {
		zlog.Logger.Warn().Str("job_id", jobID).Str("user_id", id.UserID).Msg("job belongs to another user")
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

func (u *AvatarUsecase) readUpload(upload domain.Upload) ([]byte, error) {
	if upload.Reader == nil {
		return nil, domain.ErrNoFile
	}
	if !helpers.ContainsFold(u.opts.AllowedContentTypes, upload.ContentType) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidContentType, upload.ContentType)
	}
	if upload.Size > u.opts.MaxUploadSize {
		return nil, domain.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(upload.Reader, u.opts.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > u.opts.MaxUploadSize {
		return nil, domain.ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, domain.ErrNoFile
	}
	return data, nil
}

func (u *AvatarUsecase) validateParams(p domain.JobParams) error {
	if err := p.Crop.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidJob, err)
	}
	if err := p.Transform.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidJob, err)
	}
	for _, v := range []float64{p.DisplayWidth, p.DisplayHeight} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: display size must be a non-negative number", domain.ErrInvalidJob)
		}
	}
	if math.IsNaN(p.DPR) || p.DPR < 1 || p.DPR > u.opts.MaxDPR {
		return fmt.Errorf("%w: dpr must be within 1..%g", domain.ErrInvalidJob, u.opts.MaxDPR)
	}
	if p.Crop.Unit == avatar.UnitPercent && (p.Crop.X+p.Crop.Width > 100 || p.Crop.Y+p.Crop.Height > 100) {
		return fmt.Errorf("%w: percent crop exceeds the image", domain.ErrInvalidJob)
	}
	return nil
}

func (u *AvatarUsecase) objectKey(id domain.Identity, ext string) string {
	return fmt.Sprintf("%s-%s.%s", id.UserID, u.newID(), ext)
}
