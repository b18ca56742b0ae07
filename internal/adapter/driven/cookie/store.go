// Package cookie implements the session-lived credential storage backend on
// an in-process cookie jar scoped to the backend origin.
package cookie

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/cargolink/cargolink/internal/domain/model"
	"github.com/cargolink/cargolink/internal/domain/port/driven"
)

const (
	tokenCookie    = "authToken"
	userInfoCookie = "userInfo"
)

// RememberTTL is the cookie max age applied when "remember me" is set.
const RememberTTL = 30 * 24 * time.Hour

// Compile-time interface satisfaction check.
var _ driven.SessionTokenStore = (*Store)(nil)

// Store is the cookie jar implementation of the SessionTokenStore port.
// The token lives in the authToken cookie (Path=/, SameSite=Strict,
// session-lived unless a TTL is given) and the user descriptor in the
// userInfo cookie as URL-encoded JSON.
type Store struct {
	jar    http.CookieJar
	origin *url.URL
}

// NewStore creates a Store scoped to the given backend origin.
func NewStore(originURL string) (*Store, error) {
	origin, err := url.Parse(originURL)
	if err != nil {
		return nil, fmt.Errorf("parse cookie origin %q: %w", originURL, err)
	}
	if origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("cookie origin %q must be an absolute URL", originURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Store{jar: jar, origin: origin}, nil
}

// Token returns the authToken cookie value, or "" when absent.
func (s *Store) Token(_ context.Context) (string, error) {
	return s.cookieValue(tokenCookie), nil
}

// SetToken writes the authToken cookie. ttl == 0 leaves it session-lived.
func (s *Store) SetToken(_ context.Context, token string, ttl time.Duration) error {
	s.setCookie(tokenCookie, token, ttl)
	return nil
}

// ClearToken removes the authToken cookie by writing an already-expired one.
func (s *Store) ClearToken(_ context.Context) error {
	s.expireCookie(tokenCookie)
	return nil
}

// User returns the userInfo cookie contents and whether one was present.
func (s *Store) User(_ context.Context) (model.UserInfo, bool, error) {
	raw := s.cookieValue(userInfoCookie)
	if raw == "" {
		return model.UserInfo{}, false, nil
	}

	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return model.UserInfo{}, false, fmt.Errorf("unescape user info cookie: %w", err)
	}

	var user model.UserInfo
	if err := json.Unmarshal([]byte(decoded), &user); err != nil {
		return model.UserInfo{}, false, fmt.Errorf("parse user info cookie: %w", err)
	}
	return user, true, nil
}

// SetUser writes the userInfo cookie as URL-encoded JSON.
func (s *Store) SetUser(_ context.Context, user model.UserInfo) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user info: %w", err)
	}
	s.setCookie(userInfoCookie, url.QueryEscape(string(data)), 0)
	return nil
}

// ClearUser removes the userInfo cookie.
func (s *Store) ClearUser(_ context.Context) error {
	s.expireCookie(userInfoCookie)
	return nil
}

func (s *Store) cookieValue(name string) string {
	for _, c := range s.jar.Cookies(s.origin) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (s *Store) setCookie(name, value string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		SameSite: http.SameSiteStrictMode,
	}
	if ttl > 0 {
		c.MaxAge = int(ttl.Seconds())
		c.Expires = time.Now().Add(ttl)
	}
	s.jar.SetCookies(s.origin, []*http.Cookie{c})
}

func (s *Store) expireCookie(name string) {
	s.jar.SetCookies(s.origin, []*http.Cookie{{
		Name:     name,
		Value:    "",
		Path:     "/",
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	}})
}
