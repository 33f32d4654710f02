package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/avatar"
	"github.com/yokitheyo/avatarservice/internal/domain"
)

type avatarJobRepository struct {
	db       *dbpg.DB
	strategy retry.Strategy
}

func NewAvatarJobRepository(db *dbpg.DB, strategy retry.Strategy) domain.AvatarJobRepository {
	return &avatarJobRepository{
		db:       db,
		strategy: strategy,
	}
}

func (r *avatarJobRepository) Create(ctx context.Context, job *domain.AvatarJob) error {
	query := `
		INSERT INTO avatar_jobs (
			id, user_id, source_path, source_content_type,
			crop_unit, crop_x, crop_y, crop_width, crop_height,
			display_width, display_height, scale, rotation, dpr,
			status, avatar_path, avatar_url, width, height,
			error_message, created_at, updated_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		          $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`

	_, err := r.db.ExecWithRetry(ctx, r.strategy, query,
		job.ID,
		job.UserID,
		job.SourcePath,
		job.SourceContentType,
		string(job.Crop.Unit),
		job.Crop.X,
		job.Crop.Y,
		job.Crop.Width,
		job.Crop.Height,
		job.DisplayWidth,
		job.DisplayHeight,
		job.Transform.Scale,
		job.Transform.Rotation,
		job.DPR,
		job.Status,
		nullString(job.AvatarPath),
		nullString(job.AvatarURL),
		nullInt(job.Width),
		nullInt(job.Height),
		nullString(job.ErrorMessage),
		job.CreatedAt,
		job.UpdatedAt,
		nullTime(job.CompletedAt),
	)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to create avatar job")
		return fmt.Errorf("create avatar job: %w", err)
	}

	zlog.Logger.Info().Str("job_id", job.ID).Str("user_id", job.UserID).Msg("avatar job created")
	return nil
}

func (r *avatarJobRepository) FindByID(ctx context.Context, id string) (*domain.AvatarJob, error) {
	query := `
		SELECT id, user_id, source_path, source_content_type,
		       crop_unit, crop_x, crop_y, crop_width, crop_height,
		       display_width, display_height, scale, rotation, dpr,
		       status, avatar_path, avatar_url, width, height,
		       error_message, created_at, updated_at, completed_at
		FROM avatar_jobs
		WHERE id = $1
	`

	var job domain.AvatarJob
	var unit string
	var avatarPath, avatarURL, errorMsg sql.NullString
	var width, height sql.NullInt32
	var completedAt sql.NullTime

	err := r.db.Master.QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&job.UserID,
		&job.SourcePath,
		&job.SourceContentType,
		&unit,
		&job.Crop.X,
		&job.Crop.Y,
		&job.Crop.Width,
		&job.Crop.Height,
		&job.DisplayWidth,
		&job.DisplayHeight,
		&job.Transform.Scale,
		&job.Transform.Rotation,
		&job.DPR,
		&job.Status,
		&avatarPath,
		&avatarURL,
		&width,
		&height,
		&errorMsg,
		&job.CreatedAt,
		&job.UpdatedAt,
		&completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Str("job_id", id).Msg("failed to find avatar job")
		return nil, fmt.Errorf("find avatar job: %w", err)
	}

	job.Crop.Unit = avatar.Unit(unit)
	job.AvatarPath = avatarPath.String
	job.AvatarURL = avatarURL.String
	job.ErrorMessage = errorMsg.String
	if width.Valid {
		job.Width = int(width.Int32)
	}
	if height.Valid {
		job.Height = int(height.Int32)
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}

	return &job, nil
}

func (r *avatarJobRepository) Update(ctx context.Context, job *domain.AvatarJob) error {
	query := `
		UPDATE avatar_jobs
		SET status = $2,
		    avatar_path = $3,
		    avatar_url = $4,
		    width = $5,
		    height = $6,
		    error_message = $7,
		    completed_at = $8,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecWithRetry(ctx, r.strategy, query,
		job.ID,
		job.Status,
		nullString(job.AvatarPath),
		nullString(job.AvatarURL),
		nullInt(job.Width),
		nullInt(job.Height),
		nullString(job.ErrorMessage),
		nullTime(job.CompletedAt),
	)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to update avatar job")
		return fmt.Errorf("update avatar job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrJobNotFound
	}

	zlog.Logger.Info().Str("job_id", job.ID).Str("status", string(job.Status)).Msg("avatar job updated")
	return nil
}
