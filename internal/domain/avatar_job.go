package domain

import (
	"time"

	"github.com/yokitheyo/avatarservice/internal/avatar"
)

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// AvatarJob is one server-side render of an uploaded source with the crop
// and transform the user confirmed.
type AvatarJob struct {
	ID                string            `json:"id"`
	UserID            string            `json:"user_id"`
	SourcePath        string            `json:"source_path"`
	SourceContentType string            `json:"source_content_type"`
	Crop              avatar.CropRegion `json:"crop"`
	DisplayWidth      float64           `json:"display_width,omitempty"`
	DisplayHeight     float64           `json:"display_height,omitempty"`
	Transform         avatar.Transform  `json:"transform"`
	DPR               float64           `json:"dpr"`
	Status            JobStatus         `json:"status"`
	AvatarPath        string            `json:"avatar_path,omitempty"`
	AvatarURL         string            `json:"avatar_url,omitempty"`
	Width             int               `json:"width,omitempty"`
	Height            int               `json:"height,omitempty"`
	ErrorMessage      string            `json:"error_message,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
}

func (j *AvatarJob) Viewport() avatar.Viewport {
	return avatar.Viewport{DisplayWidth: j.DisplayWidth, DisplayHeight: j.DisplayHeight}
}

func (j *AvatarJob) IsCompleted() bool {
	return j.Status == StatusCompleted
}

func (j *AvatarJob) IsFailed() bool {
	return j.Status == StatusFailed
}

// CanBeProcessed reports whether the job has not reached a final status. A
// processing job is one whose worker stopped before recording the outcome.
func (j *AvatarJob) CanBeProcessed() bool {
	return j.Status == StatusPending || j.Status == StatusProcessing
}

func (j *AvatarJob) MarkAsProcessing() {
	j.Status = StatusProcessing
	j.UpdatedAt = time.Now()
}

func (j *AvatarJob) MarkAsCompleted(avatarPath, avatarURL string, width, height int) {
	j.Status = StatusCompleted
	j.AvatarPath = avatarPath
	j.AvatarURL = avatarURL
	j.Width = width
	j.Height = height
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
	j.ErrorMessage = ""
}

func (j *AvatarJob) MarkAsFailed(errMsg string) {
	j.Status = StatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now()
}

// JobParams is the edit the client confirmed for a job's source image.
type JobParams struct {
	Crop          avatar.CropRegion
	DisplayWidth  float64
	DisplayHeight float64
	Transform     avatar.Transform
	DPR           float64
}
