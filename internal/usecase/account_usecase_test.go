package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yokitheyo/avatarservice/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestAccountUsecase_GetProfileCreatesMissing(t *testing.T) {
	repo := newFakeProfileRepo()
	u := NewAccountUsecase(repo)
	id := domain.Identity{UserID: "u1", Email: "u1@example.com"}

	p, err := u.GetProfile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "u1@example.com", p.Email)
	assert.Equal(t, 1, repo.creates)

	_, err = u.GetProfile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.creates)
}

func TestAccountUsecase_GetProfileRepoError(t *testing.T) {
	repo := newFakeProfileRepo()
	repo.findErr = errors.New("connection reset")
	u := NewAccountUsecase(repo)

	_, err := u.GetProfile(context.Background(), domain.Identity{UserID: "u1"})
	assert.ErrorContains(t, err, "connection reset")
	assert.Equal(t, 0, repo.creates)
}

func TestAccountUsecase_UpdateProfile(t *testing.T) {
	repo := newFakeProfileRepo()
	u := NewAccountUsecase(repo)
	id := domain.Identity{UserID: "u1", Email: "u1@example.com"}

	p, err := u.UpdateProfile(context.Background(), id, domain.ProfileUpdate{
		FirstName: strPtr("  Ada "),
		Country:   strPtr("UK"),
		Birthday:  strPtr("1990-12-10"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.FirstName)
	assert.Equal(t, "UK", p.Country)
	require.NotNil(t, p.Birthday)
	assert.Equal(t, "1990-12-10", p.Birthday.Format(domain.BirthdayLayout))

	stored, err := repo.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", stored.FirstName)

	p, err = u.UpdateProfile(context.Background(), id, domain.ProfileUpdate{Birthday: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, p.Birthday)
	assert.Equal(t, "Ada", p.FirstName)
}

func TestAccountUsecase_UpdateProfileInvalidBirthday(t *testing.T) {
	repo := newFakeProfileRepo()
	u := NewAccountUsecase(repo)

	_, err := u.UpdateProfile(context.Background(), domain.Identity{UserID: "u1"}, domain.ProfileUpdate{
		Birthday: strPtr("10/12/1990"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidProfile)
}
