package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/workshala/server/internal/config"
	"github.com/workshala/server/internal/service"
)

func newMiddleware(t *testing.T) (*AuthMiddleware, *service.TokenService) {
	t.Helper()
	tokens, err := service.NewTokenService(&config.JWTConfig{
		SecretKey:     "0123456789abcdef0123456789abcdef",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
		ResetExpiry:   10 * time.Minute,
	}, logrus.New())
	if err != nil {
		t.Fatalf("NewTokenService error: %v", err)
	}
	return NewAuthMiddleware(tokens, logrus.New()), tokens
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	mw, tokens := newMiddleware(t)

	var gotEmail string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail, _ = EmailFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := mw.RequireAuth(next)

	// No header.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without header, got %d", rec.Code)
	}

	// Malformed header.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed header, got %d", rec.Code)
	}

	// Refresh token is not an access token.
	refresh, err := tokens.SignRefreshToken("a@x.com")
	if err != nil {
		t.Fatalf("SignRefreshToken error: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for refresh token, got %d", rec.Code)
	}

	// Valid access token.
	access, err := tokens.SignAccessToken("a@x.com")
	if err != nil {
		t.Fatalf("SignAccessToken error: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for access token, got %d", rec.Code)
	}
	if gotEmail != "a@x.com" {
		t.Fatalf("email not propagated: got %q", gotEmail)
	}
}
