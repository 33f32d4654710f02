package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/config"
	"github.com/yokitheyo/avatarservice/internal/domain"
)

// RemoteAuthenticator verifies bearer tokens by asking the identity backend
// for the token's user.
type RemoteAuthenticator struct {
	client *http.Client
	url    string
	apiKey string
}

func NewRemoteAuthenticator(cfg *config.AuthConfig) *RemoteAuthenticator {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RemoteAuthenticator{
		client: &http.Client{Timeout: timeout},
		url:    cfg.UserInfoURL,
		apiKey: cfg.APIKey,
	}
}

type userInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (a *RemoteAuthenticator) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if a.apiKey != "" {
		req.Header.Set("apikey", a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("url", a.url).Msg("identity backend unreachable")
		return nil, fmt.Errorf("request user info: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.ErrUnauthenticated
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		zlog.Logger.Error().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("identity backend returned unexpected status")
		return nil, fmt.Errorf("user info: unexpected status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	if info.ID == "" {
		return nil, domain.ErrUnauthenticated
	}

	return &domain.Identity{UserID: info.ID, Email: info.Email}, nil
}
