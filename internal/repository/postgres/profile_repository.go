package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/domain"
)

type profileRepository struct {
	db       *dbpg.DB
	strategy retry.Strategy
}

func NewProfileRepository(db *dbpg.DB, strategy retry.Strategy) domain.ProfileRepository {
	return &profileRepository{
		db:       db,
		strategy: strategy,
	}
}

func (r *profileRepository) FindByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	query := `
		SELECT user_id, email, first_name, last_name,
		       phone_country_code, phone_number,
		       whatsapp_country_code, whatsapp_number,
		       birthday, company, country, avatar_url,
		       created_at, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`

	var p domain.Profile
	var birthday sql.NullTime

	err := r.db.Master.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.Email,
		&p.FirstName,
		&p.LastName,
		&p.PhoneCountryCode,
		&p.PhoneNumber,
		&p.WhatsappCountryCode,
		&p.WhatsappNumber,
		&birthday,
		&p.Company,
		&p.Country,
		&p.AvatarURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to find profile")
		return nil, fmt.Errorf("find profile: %w", err)
	}

	if birthday.Valid {
		p.Birthday = &birthday.Time
	}
	return &p, nil
}

// Create inserts the profile unless one already exists for the user.
func (r *profileRepository) Create(ctx context.Context, p *domain.Profile) error {
	query := `
		INSERT INTO user_profiles (
			user_id, email, first_name, last_name,
			phone_country_code, phone_number,
			whatsapp_country_code, whatsapp_number,
			birthday, company, country, avatar_url,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id) DO NOTHING
	`

	_, err := r.db.ExecWithRetry(ctx, r.strategy, query,
		p.UserID,
		p.Email,
		p.FirstName,
		p.LastName,
		p.PhoneCountryCode,
		p.PhoneNumber,
		p.WhatsappCountryCode,
		p.WhatsappNumber,
		nullTime(p.Birthday),
		p.Company,
		p.Country,
		p.AvatarURL,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", p.UserID).Msg("failed to create profile")
		return fmt.Errorf("create profile: %w", err)
	}

	zlog.Logger.Info().Str("user_id", p.UserID).Msg("profile created")
	return nil
}

func (r *profileRepository) Update(ctx context.Context, p *domain.Profile) error {
	query := `
		UPDATE user_profiles
		SET first_name = $2,
		    last_name = $3,
		    phone_country_code = $4,
		    phone_number = $5,
		    whatsapp_country_code = $6,
		    whatsapp_number = $7,
		    birthday = $8,
		    company = $9,
		    country = $10,
		    updated_at = NOW()
		WHERE user_id = $1
	`

	result, err := r.db.ExecWithRetry(ctx, r.strategy, query,
		p.UserID,
		p.FirstName,
		p.LastName,
		p.PhoneCountryCode,
		p.PhoneNumber,
		p.WhatsappCountryCode,
		p.WhatsappNumber,
		nullTime(p.Birthday),
		p.Company,
		p.Country,
	)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", p.UserID).Msg("failed to update profile")
		return fmt.Errorf("update profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrProfileNotFound
	}

	zlog.Logger.Info().Str("user_id", p.UserID).Msg("profile updated")
	return nil
}

func (r *profileRepository) UpsertAvatarURL(ctx context.Context, id domain.Identity, avatarURL string) error {
	query := `
		INSERT INTO user_profiles (user_id, email, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET avatar_url = EXCLUDED.avatar_url,
		    updated_at = NOW()
	`

	if _, err := r.db.ExecWithRetry(ctx, r.strategy, query, id.UserID, id.Email, avatarURL); err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", id.UserID).Msg("failed to upsert avatar url")
		return fmt.Errorf("upsert avatar url: %w", err)
	}

	zlog.Logger.Info().Str("user_id", id.UserID).Str("avatar_url", avatarURL).Msg("avatar url saved")
	return nil
}
