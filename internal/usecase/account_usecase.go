package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/domain"
)

type AccountUsecase struct {
	repo domain.ProfileRepository
}

func NewAccountUsecase(repo domain.ProfileRepository) *AccountUsecase {
	return &AccountUsecase{repo: repo}
}

// GetProfile returns the caller's profile, creating an empty one from the
// verified identity on first access.
func (u *AccountUsecase) GetProfile(ctx context.Context, id domain.Identity) (*domain.Profile, error) {
	profile, err := u.repo.FindByUserID(ctx, id.UserID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, fmt.Errorf("find profile: %w", err)
	}

	if err := u.repo.Create(ctx, domain.NewProfile(id)); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	zlog.Logger.Info().Str("user_id", id.UserID).Msg("profile created on first access")

	profile, err = u.repo.FindByUserID(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("find created profile: %w", err)
	}
	return profile, nil
}

func (u *AccountUsecase) UpdateProfile(ctx context.Context, id domain.Identity, update domain.ProfileUpdate) (*domain.Profile, error) {
	profile, err := u.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := profile.Apply(update); err != nil {
		return nil, err
	}

	if err := u.repo.Update(ctx, profile); err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", id.UserID).Msg("failed to update profile")
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return profile, nil
}
