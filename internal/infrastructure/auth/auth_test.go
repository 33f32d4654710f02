package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/config"
	"github.com/yokitheyo/avatarservice/internal/domain"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

func identityBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"8b1c","email":"ada@example.com","role":"authenticated"}`))
		case "Bearer anonymous":
			_, _ = w.Write([]byte(`{"email":"x@example.com"}`))
		case "Bearer broken":
			_, _ = w.Write([]byte(`{"id":`))
		case "Bearer crash":
			http.Error(w, "upstream exploded", http.StatusBadGateway)
		default:
			http.Error(w, `{"msg":"invalid JWT"}`, http.StatusUnauthorized)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteAuthenticator(t *testing.T) {
	srv := identityBackend(t)
	a := NewRemoteAuthenticator(&config.AuthConfig{UserInfoURL: srv.URL, APIKey: "anon-key", TimeoutSec: 2})
	ctx := context.Background()

	id, err := a.Authenticate(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{UserID: "8b1c", Email: "ada@example.com"}, *id)

	_, err = a.Authenticate(ctx, "expired")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = a.Authenticate(ctx, "anonymous")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = a.Authenticate(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = a.Authenticate(ctx, "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = a.Authenticate(ctx, "crash")
	assert.ErrorContains(t, err, "502")
}

func TestRemoteAuthenticator_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	a := NewRemoteAuthenticator(&config.AuthConfig{UserInfoURL: url})
	_, err := a.Authenticate(context.Background(), "good")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestStaticAuthenticator(t *testing.T) {
	a := NewStaticAuthenticator(map[string]string{"dev-token": "dev"}, "")

	id, err := a.Authenticate(context.Background(), "dev-token")
	require.NoError(t, err)
	assert.Equal(t, "dev", id.UserID)
	assert.Equal(t, "dev@example.com", id.Email)

	_, err = a.Authenticate(context.Background(), "other")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestNew(t *testing.T) {
	a, err := New(&config.AuthConfig{Mode: "static", StaticTokens: map[string]string{"t": "u"}, StaticDomain: "corp.test"})
	require.NoError(t, err)
	id, err := a.Authenticate(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "u@corp.test", id.Email)

	a, err = New(&config.AuthConfig{Mode: "remote", UserInfoURL: "http://127.0.0.1:1/user"})
	require.NoError(t, err)
	assert.IsType(t, &RemoteAuthenticator{}, a)

	_, err = New(&config.AuthConfig{Mode: "ldap"})
	assert.Error(t, err)
}
