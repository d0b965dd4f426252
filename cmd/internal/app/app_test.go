package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newMemoryApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("WARDEN_PBKDF2_ITERATIONS", "1000")

	cfg := DefaultConfig()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := New(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestApp_MemoryBackends(t *testing.T) {
	a := newMemoryApp(t)
	require.Equal(t, "memory", a.stores.usersBackend)
	require.Equal(t, "memory", a.stores.volatileStore)
	require.Nil(t, a.stores.pool)
	require.Nil(t, a.stores.redis)
}

func TestApp_HealthAndReadiness(t *testing.T) {
	a := newMemoryApp(t)
	h := a.Handler()

	rec := get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, h, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)

	a.cfg.ReadinessRequireDB = true
	rec = get(t, a.Handler(), "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestApp_RegisterAndMetrics(t *testing.T) {
	a := newMemoryApp(t)
	h := a.Handler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"email":"a@b.com","password":"longenough1"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = get(t, h, "/me")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `warden_registrations_total{outcome="success"} 1`)
	require.Contains(t, body, `warden_session_checks_total{result="anonymous"} 1`)
	require.Contains(t, body, `warden_verification_codes_issued_total{purpose="email"} 1`)
}

func TestApp_RequireTokenHMAC(t *testing.T) {
	t.Setenv("WARDEN_TOKEN_HMAC_KEY", "")
	cfg := DefaultConfig()
	cfg.RequireTokenHMAC = true

	_, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)

	t.Setenv("WARDEN_TOKEN_HMAC_KEY", "short")
	_, err = tokenHasher(DefaultConfig())
	require.Error(t, err)

	t.Setenv("WARDEN_TOKEN_HMAC_KEY", strings.Repeat("k", 32))
	h, err := tokenHasher(cfg)
	require.NoError(t, err)
	require.True(t, h.Keyed())
}

func TestApp_JWTCodecRequiresSecret(t *testing.T) {
	t.Setenv("WARDEN_SESSION_CODEC", "jwt")
	t.Setenv("WARDEN_SESSION_JWT_SECRET", "")

	_, err := New(context.Background(), DefaultConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}
