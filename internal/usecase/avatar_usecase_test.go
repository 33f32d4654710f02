package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yokitheyo/avatarservice/internal/avatar"
	"github.com/yokitheyo/avatarservice/internal/domain"
)

type avatarFixture struct {
	profiles *fakeProfileRepo
	jobs     *fakeJobRepo
	storage  *fakeStorage
	queue    *fakeQueue
	usecase  *AvatarUsecase
}

func newAvatarFixture() *avatarFixture {
	f := &avatarFixture{
		profiles: newFakeProfileRepo(),
		jobs:     newFakeJobRepo(),
		storage:  newFakeStorage(),
		queue:    &fakeQueue{},
	}
	f.usecase = NewAvatarUsecase(f.profiles, f.jobs, f.storage, f.queue, AvatarOptions{
		MaxUploadSize:       1024,
		AllowedContentTypes: []string{"image/jpeg", "image/jpg", "image/png", "image/webp"},
		MaxDPR:              4,
	})
	n := 0
	f.usecase.newID = func() string {
		n++
		return fmt.Sprintf("00000000-0000-0000-0000-%012d", n)
	}
	return f
}

func upload(name, contentType string, data []byte) domain.Upload {
	return domain.Upload{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Reader:      bytes.NewReader(data),
	}
}

var alice = domain.Identity{UserID: "alice", Email: "alice@example.com"}

func TestAvatarUsecase_UploadAvatar(t *testing.T) {
	f := newAvatarFixture()

	url, err := f.usecase.UploadAvatar(context.Background(), alice, upload("Me.PNG", "image/png", []byte("png-bytes")))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/avatars/alice-00000000-0000-0000-0000-000000000001.png", url)
	assert.Equal(t, url, f.profiles.avatarURL("alice"))

	data, ok := f.storage.get("avatars/alice-00000000-0000-0000-0000-000000000001.png")
	require.True(t, ok)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestAvatarUsecase_UploadAvatarValidation(t *testing.T) {
	tests := []struct {
		name    string
		upload  domain.Upload
		wantErr error
	}{
		{"no file", domain.Upload{ContentType: "image/png"}, domain.ErrNoFile},
		{"empty file", upload("a.png", "image/png", nil), domain.ErrNoFile},
		{"gif", upload("a.gif", "image/gif", []byte("gif")), domain.ErrInvalidContentType},
		{"missing type", upload("a.png", "", []byte("x")), domain.ErrInvalidContentType},
		{"declared too large", upload("a.png", "image/png", make([]byte, 1025)), domain.ErrFileTooLarge},
		{
			"understated size",
			domain.Upload{Filename: "a.jpg", ContentType: "image/jpeg", Size: 10, Reader: bytes.NewReader(make([]byte, 2048))},
			domain.ErrFileTooLarge,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAvatarFixture()
			_, err := f.usecase.UploadAvatar(context.Background(), alice, tt.upload)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, f.storage.count())
			assert.Empty(t, f.profiles.avatarURL("alice"))
		})
	}
}

func TestAvatarUsecase_UploadAvatarStorageFailure(t *testing.T) {
	f := newAvatarFixture()
	f.storage.saveErr = errBackend

	_, err := f.usecase.UploadAvatar(context.Background(), alice, upload("a.webp", "image/webp", []byte("x")))
	assert.ErrorIs(t, err, domain.ErrStorageFailed)
	assert.ErrorContains(t, err, "bucket quota exceeded")
}

func TestAvatarUsecase_UploadAvatarProfileFailureRemovesObject(t *testing.T) {
	f := newAvatarFixture()
	f.profiles.upsertErr = errors.New("db down")

	_, err := f.usecase.UploadAvatar(context.Background(), alice, upload("a.jpg", "image/jpeg", []byte("x")))
	assert.ErrorContains(t, err, "db down")
	assert.Equal(t, 0, f.storage.count())
}

func validParams() domain.JobParams {
	return domain.JobParams{
		Crop:      avatar.CropRegion{Unit: avatar.UnitPixel, X: 10, Y: 10, Width: 100, Height: 100},
		Transform: avatar.Identity,
		DPR:       2,
	}
}

func TestAvatarUsecase_SubmitJob(t *testing.T) {
	f := newAvatarFixture()

	job, err := f.usecase.SubmitJob(context.Background(), alice, upload("a.jpg", "image/jpeg", []byte("jpeg")), validParams())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, job.Status)
	assert.Equal(t, "alice", job.UserID)
	assert.True(t, strings.HasPrefix(job.SourcePath, "sources/alice-"))
	assert.Equal(t, 2.0, job.DPR)
	assert.Equal(t, []string{job.ID}, f.queue.published)

	stored := f.jobs.get(job.ID)
	require.NotNil(t, stored)
	assert.Equal(t, job.Crop, stored.Crop)
	_, ok := f.storage.get(job.SourcePath)
	assert.True(t, ok)
}

func TestAvatarUsecase_SubmitJobRejectsParams(t *testing.T) {
	mutate := map[string]func(p *domain.JobParams){
		"zero width":       func(p *domain.JobParams) { p.Crop.Width = 0 },
		"bad unit":         func(p *domain.JobParams) { p.Crop.Unit = "pt" },
		"zero scale":       func(p *domain.JobParams) { p.Transform.Scale = 0 },
		"dpr below one":    func(p *domain.JobParams) { p.DPR = 0.5 },
		"dpr above max":    func(p *domain.JobParams) { p.DPR = 5 },
		"negative display": func(p *domain.JobParams) { p.DisplayWidth = -1 },
		"percent overflow": func(p *domain.JobParams) {
			p.Crop = avatar.CropRegion{Unit: avatar.UnitPercent, X: 50, Y: 0, Width: 60, Height: 10}
		},
	}
	for name, fn := range mutate {
		t.Run(name, func(t *testing.T) {
			f := newAvatarFixture()
			p := validParams()
			fn(&p)

			_, err := f.usecase.SubmitJob(context.Background(), alice, upload("a.jpg", "image/jpeg", []byte("x")), p)
			assert.ErrorIs(t, err, domain.ErrInvalidJob)
			assert.Equal(t, 0, f.storage.count())
			assert.Empty(t, f.queue.published)
		})
	}
}

func TestAvatarUsecase_SubmitJobRepoFailureRemovesSource(t *testing.T) {
	f := newAvatarFixture()
	f.jobs.createErr = errors.New("insert failed")

	_, err := f.usecase.SubmitJob(context.Background(), alice, upload("a.jpg", "image/jpeg", []byte("x")), validParams())
	assert.ErrorContains(t, err, "insert failed")
	assert.Equal(t, 0, f.storage.count())
	assert.Empty(t, f.queue.published)
}

func TestAvatarUsecase_SubmitJobQueueFailureMarksFailed(t *testing.T) {
	f := newAvatarFixture()
	f.queue.err = errors.New("broker unavailable")

	_, err := f.usecase.SubmitJob(context.Background(), alice, upload("a.jpg", "image/jpeg", []byte("x")), validParams())
	require.Error(t, err)

	require.Len(t, f.jobs.jobs, 1)
	for _, j := range f.jobs.jobs {
		assert.Equal(t, domain.StatusFailed, j.Status)
	}
}

func TestAvatarUsecase_GetJob(t *testing.T) {
	f := newAvatarFixture()
	job, err := f.usecase.SubmitJob(context.Background(), alice, upload("a.jpg", "image/jpeg", []byte("x")), validParams())
	require.NoError(t, err)

	got, err := f.usecase.GetJob(context.Background(), alice, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)

	_, err = f.usecase.GetJob(context.Background(), domain.Identity{UserID: "mallory"}, job.ID)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)

	_, err = f.usecase.GetJob(context.Background(), alice, "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)

	_, err = f.usecase.GetJob(context.Background(), alice, "00000000-0000-0000-0000-000000000099")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}
