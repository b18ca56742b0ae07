// Package application wires the domain operations: the credential store that
// keeps the two storage backends consistent, the resource managers built on
// the resilient backend client, sign-in/sign-out, and distance estimation.
package application

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cargolink/cargolink/internal/domain/model"
	"github.com/cargolink/cargolink/internal/domain/port/driven"
)

// RememberTTL is the cookie lifetime applied when "remember me" is set and
// when SyncToken rehydrates the cookie from the persistent store.
const RememberTTL = 30 * 24 * time.Hour

// CredentialStore owns the authentication credential across the two storage
// backends: the session cookie and the persistent store. The cookie is the
// source of truth whenever both hold a token.
//
// Storage I/O failures are logged and swallowed, never raised: losing one
// storage must not block the caller.
type CredentialStore struct {
	session    driven.SessionTokenStore
	persistent driven.PersistentTokenStore
	now        func() time.Time
}

// NewCredentialStore creates a CredentialStore over the two backends.
func NewCredentialStore(session driven.SessionTokenStore, persistent driven.PersistentTokenStore) *CredentialStore {
	return &CredentialStore{
		session:    session,
		persistent: persistent,
		now:        time.Now,
	}
}

// SetToken persists the token into the persistent store inside a timestamped
// envelope. An empty or whitespace token is ignored with a log line: a blank
// credential must never be persisted.
func (s *CredentialStore) SetToken(ctx context.Context, token string) {
	if !model.ValidToken(token) {
		slog.Warn("ignoring attempt to store an empty token")
		return
	}
	if err := s.persistent.SetToken(ctx, token); err != nil {
		slog.Error("persist token failed", "error", err)
	}
}

// Token returns the current token, or "" when unauthenticated.
//
// The cookie is read first and wins outright when present. Otherwise the
// persistent envelope is consulted; a record older than the client-side TTL
// is removed on the spot (expiry is only detected on read, never proactively)
// and "" is returned. Legacy plain-string records carry no timestamp and are
// returned as-is.
func (s *CredentialStore) Token(ctx context.Context) string {
	if tok, err := s.session.Token(ctx); err != nil {
		slog.Error("read token cookie failed", "error", err)
	} else if tok != "" {
		return tok
	}

	rec, ok, err := s.persistent.Token(ctx)
	if err != nil {
		slog.Error("read persisted token failed", "error", err)
		return ""
	}
	if !ok {
		return ""
	}

	if !rec.Legacy && s.now().Sub(rec.CapturedAt) > model.TokenTTL {
		slog.Info("stored token exceeded client-side lifetime, removing")
		s.RemoveToken(ctx)
		return ""
	}

	return rec.Value
}

// RemoveToken clears the credential from both storages.
func (s *CredentialStore) RemoveToken(ctx context.Context) {
	if err := s.persistent.ClearToken(ctx); err != nil {
		slog.Error("clear persisted token failed", "error", err)
	}
	if err := s.persistent.ClearUser(ctx); err != nil {
		slog.Error("clear persisted user info failed", "error", err)
	}
	if err := s.session.ClearToken(ctx); err != nil {
		slog.Error("clear token cookie failed", "error", err)
	}
	if err := s.session.ClearUser(ctx); err != nil {
		slog.Error("clear user info cookie failed", "error", err)
	}
}

// IsAuthenticated reports token presence only; the token is never validated
// against the backend here.
func (s *CredentialStore) IsAuthenticated(ctx context.Context) bool {
	return s.Token(ctx) != ""
}

// AuthHeaders builds the headers for every backend call. Authorization is
// omitted entirely when no token is available; callers must treat that as
// "unauthenticated", not as a malformed request.
func (s *CredentialStore) AuthHeaders(ctx context.Context) http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("Content-Type", "application/json;charset=UTF-8")

	if tok := s.Token(ctx); tok != "" {
		h.Set("Authorization", "Bearer "+tok)
	}
	return h
}

// SyncToken converges the two storages onto one token value, with the cookie
// winning when both are present. When only the persistent store holds a
// token, the cookie is rehydrated with a 30-day lifetime. Idempotent: a
// second call finds the storages already converged and writes nothing.
func (s *CredentialStore) SyncToken(ctx context.Context) {
	cookieTok, err := s.session.Token(ctx)
	if err != nil {
		slog.Error("read token cookie failed", "error", err)
		return
	}

	if cookieTok != "" {
		rec, ok, err := s.persistent.Token(ctx)
		if err != nil {
			slog.Error("read persisted token failed", "error", err)
			return
		}
		if ok && rec.Value == cookieTok {
			return
		}
		if err := s.persistent.SetToken(ctx, cookieTok); err != nil {
			slog.Error("sync token to persistent store failed", "error", err)
		}
		return
	}

	rec, ok, err := s.persistent.Token(ctx)
	if err != nil {
		slog.Error("read persisted token failed", "error", err)
		return
	}
	if !ok {
		return
	}
	if err := s.session.SetToken(ctx, rec.Value, RememberTTL); err != nil {
		slog.Error("sync token to cookie failed", "error", err)
	}
}

// CurrentUser resolves the user descriptor: the userInfo cookie first, then
// the persistent store, then -- as a last resort -- the unverified claims of
// the bearer token itself.
func (s *CredentialStore) CurrentUser(ctx context.Context) (model.UserInfo, bool) {
	if user, ok, err := s.session.User(ctx); err != nil {
		slog.Error("read user info cookie failed", "error", err)
	} else if ok {
		return user, true
	}

	if user, ok, err := s.persistent.User(ctx); err != nil {
		slog.Error("read persisted user info failed", "error", err)
	} else if ok {
		return user, true
	}

	if tok := s.Token(ctx); tok != "" {
		if user, ok := userFromClaims(tok); ok {
			return user, true
		}
	}
	return model.UserInfo{}, false
}

// StoreCredential writes a freshly obtained credential into both storages.
// remember controls the cookie lifetime. Used by the sign-in flow.
func (s *CredentialStore) StoreCredential(ctx context.Context, token string, user model.UserInfo, remember bool) {
	if !model.ValidToken(token) {
		slog.Warn("ignoring attempt to store an empty token")
		return
	}

	var ttl time.Duration
	if remember {
		ttl = RememberTTL
	}
	if err := s.session.SetToken(ctx, token, ttl); err != nil {
		slog.Error("store token cookie failed", "error", err)
	}
	if err := s.session.SetUser(ctx, user); err != nil {
		slog.Error("store user info cookie failed", "error", err)
	}
	s.SetToken(ctx, token)
	if err := s.persistent.SetUser(ctx, user); err != nil {
		slog.Error("persist user info failed", "error", err)
	}
}

// userFromClaims extracts a best-effort user descriptor from the token's
// claims without verifying the signature. Verification belongs to the
// backend; this is only a fallback identity source.
func userFromClaims(token string) (model.UserInfo, bool) {
	parser := jwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return model.UserInfo{}, false
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return model.UserInfo{}, false
	}

	var user model.UserInfo
	if v, ok := claims["userId"].(float64); ok {
		user.ID = int64(v)
	} else if v, ok := claims["id"].(float64); ok {
		user.ID = int64(v)
	}
	if v, ok := claims["username"].(string); ok {
		user.Username = v
	} else if v, ok := claims["sub"].(string); ok {
		user.Username = v
	}
	if v, ok := claims["role"].(string); ok {
		user.Role = v
	} else if roles, ok := claims["roles"].([]any); ok && len(roles) > 0 {
		if r, ok := roles[0].(string); ok {
			user.Role = r
		}
	}

	if user.Username == "" && user.ID == 0 {
		return model.UserInfo{}, false
	}
	return user, true
}
