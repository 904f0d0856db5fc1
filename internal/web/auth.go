package web

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	sessionCookie = "onbure_session"
	// SessionTTL is the lifetime of tokens minted by `onbure web --auth token`.
	SessionTTL    = 7 * 24 * time.Hour
)

type signedPayload struct {
	Exp int64  `json:"exp"`
	Sub string `json:"sub"` // viewer id
	N   string `json:"n,omitempty"`
}

func secretKeyPath(storeDir string) string {
	return filepath.Join(filepath.Clean(strings.TrimSpace(storeDir)), "web", "secret.key")
}

// LoadOrInitSecret returns the per-store signing key, creating it on first use.
func LoadOrInitSecret(storeDir string) ([]byte, error) {
	path := secretKeyPath(storeDir)
	if b, err := os.ReadFile(path); err == nil && len(strings.TrimSpace(string(b))) > 0 {
		return []byte(strings.TrimSpace(string(b))), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	enc := base64.RawURLEncoding.EncodeToString(raw)
	if err := os.WriteFile(path, []byte(enc+"\n"), 0o600); err != nil {
		return nil, err
	}
	return []byte(enc), nil
}

func signToken(secret []byte, payload signedPayload) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	p := base64.RawURLEncoding.EncodeToString(b)
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(p))
	return p + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

func verifyToken(secret []byte, token string, now time.Time) (signedPayload, error) {
	p, sig, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || p == "" || sig == "" {
		return signedPayload{}, errors.New("invalid token format")
	}
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(p))
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(mac.Sum(nil), got) {
		return signedPayload{}, errors.New("invalid token signature")
	}
	raw, err := base64.RawURLEncoding.DecodeString(p)
	if err != nil {
		return signedPayload{}, errors.New("invalid token payload")
	}
	var sp signedPayload
	if err := json.Unmarshal(raw, &sp); err != nil {
		return signedPayload{}, errors.New("invalid token payload")
	}
	switch {
	case sp.Exp == 0:
		return signedPayload{}, errors.New("token missing exp")
	case now.Unix() > sp.Exp:
		return signedPayload{}, errors.New("token expired")
	case strings.TrimSpace(sp.Sub) == "":
		return signedPayload{}, errors.New("token missing sub")
	}
	return sp, nil
}

// NewSessionToken signs a session for viewerID. `onbure web` prints it in the
// start URL when token auth is on.
func NewSessionToken(secret []byte, viewerID string, ttl time.Duration) (string, error) {
	viewerID = strings.TrimSpace(viewerID)
	if viewerID == "" {
		return "", errors.New("missing viewer")
	}
	n := make([]byte, 16)
	if _, err := rand.Read(n); err != nil {
		return "", err
	}
	return signToken(secret, signedPayload{
		Sub: viewerID,
		N:   base64.RawURLEncoding.EncodeToString(n),
		Exp: time.Now().Add(ttl).Unix(),
	})
}

// withAuth accepts a token from the Authorization header, the session cookie, or a
// ?token= query (which is then moved into the cookie). The token subject must be
// the engine's viewer.
func (s *Server) withAuth(next http.Handler) http.Handler {
	if s.cfg.AuthMode != "token" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/static/app.js" || r.URL.Path == "/static/app.css" {
			next.ServeHTTP(w, r)
			return
		}
		token, fromQuery := requestToken(r)
		sp, err := verifyToken(s.cfg.Secret, token, time.Now())
		if err == nil && sp.Sub != s.eng.Scope().ViewerID {
			err = errors.New("token is for another viewer")
		}
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": apiError{Kind: "unauthorized", Message: err.Error()}})
			return
		}
		if fromQuery {
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Expires:  time.Unix(sp.Exp, 0),
			})
		}
		next.ServeHTTP(w, r)
	})
}

func requestToken(r *http.Request) (token string, fromQuery bool) {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), false
	}
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value, false
	}
	if t := strings.TrimSpace(r.URL.Query().Get("token")); t != "" {
		return t, true
	}
	return "", false
}
