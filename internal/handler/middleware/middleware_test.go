package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/domain"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

type authFunc func(ctx context.Context, token string) (*domain.Identity, error)

func (f authFunc) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	return f(ctx, token)
}

func serve(engine *ginext.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func whoami(c *ginext.Context) {
	id, ok := IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusTeapot, ginext.H{})
		return
	}
	c.JSON(http.StatusOK, ginext.H{"user_id": id.UserID, "email": id.Email})
}

func TestAuthMiddleware(t *testing.T) {
	var seen string
	authn := authFunc(func(_ context.Context, token string) (*domain.Identity, error) {
		seen = token
		switch token {
		case "good":
			return &domain.Identity{UserID: "u1", Email: "u1@example.com"}, nil
		case "outage":
			return nil, errors.New("identity backend timeout")
		default:
			return nil, domain.ErrUnauthenticated
		}
	})

	engine := ginext.New("")
	engine.GET("/me", AuthMiddleware(authn), whoami)

	tests := []struct {
		name   string
		header string
		status int
		token  string
	}{
		{"valid", "Bearer good", http.StatusOK, "good"},
		{"lowercase scheme", "bearer  good ", http.StatusOK, "good"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Token good", http.StatusUnauthorized, ""},
		{"rejected", "Bearer stolen", http.StatusUnauthorized, "stolen"},
		{"backend down", "Bearer outage", http.StatusServiceUnavailable, "outage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := serve(engine, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.token, seen)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"user_id":"u1","email":"u1@example.com"}`, rec.Body.String())
			}
		})
	}
}

func TestIdentityFromMissing(t *testing.T) {
	engine := ginext.New("")
	engine.GET("/me", whoami)

	rec := serve(engine, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestCORSMiddleware(t *testing.T) {
	ok := func(c *ginext.Context) { c.Status(http.StatusOK) }

	t.Run("any origin", func(t *testing.T) {
		engine := ginext.New("")
		engine.Use(CORSMiddleware([]string{"*"}))
		engine.GET("/x", ok)

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := serve(engine, req)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("listed origin", func(t *testing.T) {
		engine := ginext.New("")
		engine.Use(CORSMiddleware([]string{"https://app.example.com"}))
		engine.GET("/x", ok)

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := serve(engine, req)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec = serve(engine, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		engine := ginext.New("")
		engine.Use(CORSMiddleware(nil))
		engine.GET("/x", ok)

		rec := serve(engine, httptest.NewRequest(http.MethodOptions, "/x", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})
}

func TestLoggerMiddlewareRequestID(t *testing.T) {
	engine := ginext.New("")
	engine.Use(LoggerMiddleware())
	engine.GET("/x", func(c *ginext.Context) { c.Status(http.StatusOK) })

	rec := serve(engine, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec = serve(engine, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestErrorHandlerMiddleware(t *testing.T) {
	engine := ginext.New("")
	engine.Use(ErrorHandlerMiddleware())
	engine.GET("/boom", func(c *ginext.Context) { panic("nil map write") })

	rec := serve(engine, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal_error","message":"An internal error occurred"}`, rec.Body.String())
}
