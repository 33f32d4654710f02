package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/domain"
	"github.com/yokitheyo/avatarservice/internal/dto"
)

// AvatarWorker handles avatar job tasks from the queue.
type AvatarWorker struct {
	renderService domain.RenderService
}

func NewAvatarWorker(renderService domain.RenderService) *AvatarWorker {
	return &AvatarWorker{
		renderService: renderService,
	}
}

// HandleTask returns an error only when the task should be delivered again.
// Jobs that failed for good are acknowledged.
func (w *AvatarWorker) HandleTask(ctx context.Context, task *dto.AvatarJobTask) error {
	if task == nil || task.JobID == "" {
		zlog.Logger.Error().Msg("avatar job task without job id")
		return nil
	}

	zlog.Logger.Info().
		Str("job_id", task.JobID).
		Str("user_id", task.UserID).
		Msg("starting avatar job task")

	err := w.renderService.RenderJob(ctx, task.JobID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrProcessingFailed):
		zlog.Logger.Warn().Err(err).Str("job_id", task.JobID).Msg("avatar job failed permanently")
		return nil
	case errors.Is(err, domain.ErrJobNotFound):
		zlog.Logger.Warn().Str("job_id", task.JobID).Msg("avatar job no longer exists")
		return nil
	default:
		return fmt.Errorf("render avatar job %s: %w", task.JobID, err)
	}
}
