package auth

import (
	"context"
	"fmt"

	"github.com/yokitheyo/avatarservice/internal/config"
	"github.com/yokitheyo/avatarservice/internal/domain"
)

// StaticAuthenticator maps fixed tokens to user ids. Meant for local
// development and tests.
type StaticAuthenticator struct {
	tokens      map[string]string
	emailDomain string
}

func NewStaticAuthenticator(tokens map[string]string, emailDomain string) *StaticAuthenticator {
	if emailDomain == "" {
		emailDomain = "example.com"
	}
	return &StaticAuthenticator{tokens: tokens, emailDomain: emailDomain}
}

func (a *StaticAuthenticator) Authenticate(_ context.Context, token string) (*domain.Identity, error) {
	userID, ok := a.tokens[token]
	if !ok || token == "" {
		return nil, domain.ErrUnauthenticated
	}
	return &domain.Identity{
		UserID: userID,
		Email:  fmt.Sprintf("%s@%s", userID, a.emailDomain),
	}, nil
}

// New builds the authenticator selected by cfg.Mode.
func New(cfg *config.AuthConfig) (domain.Authenticator, error) {
	switch cfg.Mode {
	case "remote":
		return NewRemoteAuthenticator(cfg), nil
	case "static":
		return NewStaticAuthenticator(cfg.StaticTokens, cfg.StaticDomain), nil
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.Mode)
	}
}
