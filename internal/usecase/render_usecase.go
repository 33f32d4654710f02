package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/avatar"
	"github.com/yokitheyo/avatarservice/internal/domain"
	"github.com/yokitheyo/avatarservice/internal/infrastructure/storage"
)

// Messages stored on failed jobs. Details stay in the logs.
const (
	msgInvalidImage    = "invalid image"
	msgInvalidEdit     = "invalid crop or transform"
	msgProcessing      = "could not process image"
	msgSourceMissing   = "source image is missing"
	msgStoreFailed     = "could not store avatar"
	msgProfileNotSaved = "could not update profile"
)

type RenderUsecase struct {
	jobs     domain.AvatarJobRepository
	profiles domain.ProfileRepository
	storage  storage.Storage
	cfg      avatar.Config
	newID    func() string
}

func NewRenderUsecase(
	jobs domain.AvatarJobRepository,
	profiles domain.ProfileRepository,
	storage storage.Storage,
	cfg avatar.Config,
) *RenderUsecase {
	cfg.ClampCrop = true
	return &RenderUsecase{
		jobs:     jobs,
		profiles: profiles,
		storage:  storage,
		cfg:      cfg,
		newID:    func() string { return uuid.New().String() },
	}
}

// RenderJob runs the avatar pipeline for a job that has not finished yet.
// Errors wrapping domain.ErrProcessingFailed mean the job has been marked
// failed and must not be retried. Any other error leaves the job resumable:
// the source is kept and a redelivered task renders it again.
func (u *RenderUsecase) RenderJob(ctx context.Context, jobID string) error {
	job, err := u.jobs.FindByID(ctx, jobID)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("job_id", jobID).Msg("failed to find avatar job")
		return fmt.Errorf("find avatar job: %w", err)
	}

	if !job.CanBeProcessed() {
		zlog.Logger.Warn().
			Str("job_id", jobID).
			Str("status", string(job.Status)).
			Msg("avatar job cannot be processed in current status")
		return nil
	}

	resumed := job.Status == domain.StatusProcessing
	job.MarkAsProcessing()
	if err := u.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("update status to processing: %w", err)
	}

	zlog.Logger.Info().
		Str("job_id", jobID).
		Str("user_id", job.UserID).
		Float64("dpr", job.DPR).
		Bool("transformed", !job.Transform.IsIdentity()).
		Bool("resumed", resumed).
		Msg("starting avatar render")

	pipeline, err := avatar.New(u.cfg)
	if err != nil {
		return u.fail(ctx, job, msgProcessing, err)
	}

	src, err := u.storage.GetSource(ctx, job.SourcePath)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return u.fail(ctx, job, msgSourceMissing, err)
	}
	if err != nil {
		return fmt.Errorf("load avatar source: %w", err)
	}
	session, err := pipeline.Initialize(ctx, src, job.Viewport())
	src.Close()
	switch {
	case ctx.Err() != nil:
		return u.release(ctx, job)
	case errors.Is(err, avatar.ErrDecode):
		return u.fail(ctx, job, msgInvalidImage, err)
	case avatar.IsInputError(err):
		return u.fail(ctx, job, msgInvalidEdit, err)
	case err != nil:
		return u.fail(ctx, job, msgProcessing, err)
	}

	if _, err := session.UpdateCrop(job.Crop); err != nil {
		return u.fail(ctx, job, msgInvalidEdit, err)
	}
	if err := session.SetTransform(job.Transform); err != nil {
		return u.fail(ctx, job, msgInvalidEdit, err)
	}

	artifact, err := session.Render(job.DPR)
	if err != nil {
		return u.fail(ctx, job, msgProcessing, err)
	}

	name := fmt.Sprintf("%s-%s%s", job.UserID, u.newID(), filepath.Ext(artifact.Filename))
	avatarPath, err := u.storage.SaveAvatar(ctx, name, artifact.Reader(), artifact.ContentType)
	if err != nil {
		return u.fail(ctx, job, msgStoreFailed, err)
	}

	avatarURL := u.storage.PublicURL(avatarPath)
	if err := u.profiles.UpsertAvatarURL(ctx, domain.Identity{UserID: job.UserID}, avatarURL); err != nil {
		return u.fail(ctx, job, msgProfileNotSaved, err, avatarPath)
	}

	job.MarkAsCompleted(avatarPath, avatarURL, artifact.Width, artifact.Height)
	if err := u.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("update status to completed: %w", err)
	}

	if err := u.storage.Delete(ctx, job.SourcePath); err != nil {
		zlog.Logger.Warn().Err(err).Str("job_id", jobID).Msg("failed to remove avatar source")
	}

	zlog.Logger.Info().
		Str("job_id", jobID).
		Str("avatar_path", avatarPath).
		Int("width", artifact.Width).
		Int("height", artifact.Height).
		Int("bytes", len(artifact.Data)).
		Msg("avatar rendered successfully")

	return nil
}

// release puts an interrupted job back to pending so a redelivered message
// can pick it up again.
func (u *RenderUsecase) release(ctx context.Context, job *domain.AvatarJob) error {
	job.Status = domain.StatusPending
	if err := u.jobs.Update(context.WithoutCancel(ctx), job); err != nil {
		zlog.Logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to release avatar job")
	}
	return ctx.Err()
}

// fail marks the job failed and removes the leftovers of the attempt along
// with the source. When the status cannot be saved the source is kept, so
// the job can still be rendered on redelivery.
func (u *RenderUsecase) fail(ctx context.Context, job *domain.AvatarJob, msg string, cause error, leftovers ...string) error {
	zlog.Logger.Error().Err(cause).Str("job_id", job.ID).Str("reason", msg).Msg("avatar job failed")

	cleanupCtx := context.WithoutCancel(ctx)
	job.MarkAsFailed(msg)
	if err := u.jobs.Update(ctx, job); err != nil {
		zlog.Logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to mark avatar job as failed")
		_ = u.storage.DeleteAll(cleanupCtx, leftovers...)
		return fmt.Errorf("update status to failed: %w", err)
	}

	paths := append([]string{job.SourcePath}, leftovers...)
	if err := u.storage.DeleteAll(cleanupCtx, paths...); err != nil {
		zlog.Logger.Warn().Err(err).Str("job_id", job.ID).Strs("paths", paths).Msg("failed to clean up failed avatar job")
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrProcessingFailed, msg, cause)
}
