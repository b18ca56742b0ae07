// Package driven defines the outbound ports: the two credential storage
// backends, the logistics backend resource APIs, and the geocoding
// collaborator. Adapters implement these; the application layer depends only
// on the interfaces.
package driven

import (
	"context"
	"time"

	"github.com/cargolink/cargolink/internal/domain/model"
)

// SessionTokenStore is the short-lived credential backend: the authToken and
// userInfo cookies. Values live for the browser session unless an explicit
// TTL is given at write time.
type SessionTokenStore interface {
	// Token returns the stored token, or "" if none is set.
	Token(ctx context.Context) (string, error)

	// SetToken stores the token. ttl == 0 makes it session-lived; a positive
	// ttl sets an explicit max age (the "remember me" path).
	SetToken(ctx context.Context, token string, ttl time.Duration) error

	// ClearToken removes the token by writing an already-expired value.
	ClearToken(ctx context.Context) error

	// User returns the stored user descriptor and whether one was present.
	User(ctx context.Context) (model.UserInfo, bool, error)

	SetUser(ctx context.Context, user model.UserInfo) error
	ClearUser(ctx context.Context) error
}

// TokenRecord is what the persistent backend holds for the token: the value
// and the instant it was captured. Legacy marks a value stored as a plain
// string rather than the {value, timestamp} envelope; such records carry a
// zero CapturedAt.
type TokenRecord struct {
	Value      string
	CapturedAt time.Time
	Legacy     bool
}

// PersistentTokenStore is the long-lived credential backend. It persists the
// token inside a timestamped envelope so reads can apply the client-side
// expiry window.
type PersistentTokenStore interface {
	// Token returns the stored record and whether one was present.
	Token(ctx context.Context) (TokenRecord, bool, error)

	// SetToken persists the token with the current timestamp.
	SetToken(ctx context.Context, token string) error

	ClearToken(ctx context.Context) error

	User(ctx context.Context) (model.UserInfo, bool, error)
	SetUser(ctx context.Context, user model.UserInfo) error
	ClearUser(ctx context.Context) error
}
