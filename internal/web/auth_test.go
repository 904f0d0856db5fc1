package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	tok, err := NewSessionToken(secret, "u1", time.Hour)
	require.NoError(t, err)

	sp, err := verifyToken(secret, tok, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "u1", sp.Sub)

	_, err = verifyToken([]byte("other"), tok, time.Now())
	assert.ErrorContains(t, err, "signature")

	_, err = verifyToken(secret, tok, time.Now().Add(2*time.Hour))
	assert.ErrorContains(t, err, "expired")

	_, err = verifyToken(secret, "garbage", time.Now())
	assert.ErrorContains(t, err, "format")

	_, err = NewSessionToken(secret, " ", time.Hour)
	assert.Error(t, err)
}

func TestLoadOrInitSecret(t *testing.T) {
	dir := t.TempDir()
	a, err := LoadOrInitSecret(dir)
	require.NoError(t, err)
	require.NotEmpty(t, a)

	b, err := LoadOrInitSecret(dir)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	info, err := os.Stat(filepath.Join(dir, "web", "secret.key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestTokenAuthMiddleware(t *testing.T) {
	secret := []byte("s3cret")
	srv, _ := newTestServer(t, ServerConfig{AuthMode: "token", Secret: secret})
	h := srv.Handler()

	code, env := do(t, h, http.MethodGet, "/api/view", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthorized", env.Error.Kind)

	other, err := NewSessionToken(secret, "u2", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/view", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := NewSessionToken(secret, "u1", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/view?token="+tok, nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)

	req = httptest.NewRequest(http.MethodGet, "/api/view", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Static assets stay public.
	req = httptest.NewRequest(http.MethodGet, "/static/app.js", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
