package model

import (
	"strings"
	"time"
)

// TokenTTL is the client-side credential lifetime. A token older than this is
// treated as expired regardless of the backend's own token expiry, which the
// client never inspects.
const TokenTTL = 12 * time.Hour

// UserInfo is the minimal user descriptor captured at sign-in and kept
// alongside the token so every caller agrees on "who is logged in".
type UserInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Credential is the client-held proof of authentication: the bearer token,
// the moment it was captured, and the user it belongs to.
type Credential struct {
	Token      string
	CapturedAt time.Time
	User       UserInfo
}

// Expired reports whether the credential's captured timestamp is older than
// TokenTTL at the given instant. A zero CapturedAt (legacy tokens stored
// without an envelope) never expires client-side.
func (c Credential) Expired(now time.Time) bool {
	if c.CapturedAt.IsZero() {
		return false
	}
	return now.Sub(c.CapturedAt) > TokenTTL
}

// ValidToken reports whether a token value is storable: non-empty after
// trimming whitespace. An empty token must never be persisted.
func ValidToken(token string) bool {
	return strings.TrimSpace(token) != ""
}
