package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cargolink/cargolink/internal/domain/model"
	"github.com/cargolink/cargolink/internal/domain/port/driven"
)

const (
	tokenKey    = "authToken"
	userInfoKey = "userInfo"
)

// Compile-time interface satisfaction check.
var _ driven.PersistentTokenStore = (*TokenRepo)(nil)

// TokenRepo is the SQLite implementation of the PersistentTokenStore port.
// The token is stored as a JSON envelope {value, timestamp} so reads can
// apply the client-side expiry window; values written before the envelope
// existed are surfaced as legacy records.
type TokenRepo struct {
	db *DB
}

// NewTokenRepo creates a new TokenRepo.
func NewTokenRepo(db *DB) *TokenRepo {
	return &TokenRepo{db: db}
}

// tokenEnvelope is the persisted shape of the token: the raw value plus the
// capture timestamp in epoch milliseconds.
type tokenEnvelope struct {
	Value     string `json:"value"`
	Timestamp int64  `json:"timestamp"`
}

// Token returns the stored token record and whether one was present.
// A stored value that does not parse as an envelope is treated as a legacy
// plain token with an unknown capture time.
func (r *TokenRepo) Token(ctx context.Context) (driven.TokenRecord, bool, error) {
	raw, ok, err := r.getValue(ctx, tokenKey)
	if err != nil || !ok {
		return driven.TokenRecord{}, false, err
	}

	var envelope tokenEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil || envelope.Value == "" {
		return driven.TokenRecord{Value: raw, Legacy: true}, true, nil
	}

	return driven.TokenRecord{
		Value:      envelope.Value,
		CapturedAt: time.UnixMilli(envelope.Timestamp),
	}, true, nil
}

// SetToken persists the token inside a freshly timestamped envelope.
func (r *TokenRepo) SetToken(ctx context.Context, token string) error {
	envelope, err := json.Marshal(tokenEnvelope{
		Value:     token,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal token envelope: %w", err)
	}
	return r.setValue(ctx, tokenKey, string(envelope))
}

// ClearToken removes the token entry.
func (r *TokenRepo) ClearToken(ctx context.Context) error {
	return r.deleteValue(ctx, tokenKey)
}

// User returns the stored user descriptor and whether one was present.
func (r *TokenRepo) User(ctx context.Context) (model.UserInfo, bool, error) {
	raw, ok, err := r.getValue(ctx, userInfoKey)
	if err != nil || !ok {
		return model.UserInfo{}, false, err
	}

	var user model.UserInfo
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return model.UserInfo{}, false, fmt.Errorf("parse stored user info: %w", err)
	}
	return user, true, nil
}

// SetUser persists the user descriptor as JSON.
func (r *TokenRepo) SetUser(ctx context.Context, user model.UserInfo) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user info: %w", err)
	}
	return r.setValue(ctx, userInfoKey, string(data))
}

// ClearUser removes the user descriptor entry.
func (r *TokenRepo) ClearUser(ctx context.Context) error {
	return r.deleteValue(ctx, userInfoKey)
}

func (r *TokenRepo) getValue(ctx context.Context, key string) (string, bool, error) {
	const query = `SELECT value FROM session_store WHERE key = ?`
	var value string
	err := r.db.Reader.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (r *TokenRepo) setValue(ctx context.Context, key, value string) error {
	const query = `INSERT OR REPLACE INTO session_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`
	if _, err := r.db.Writer.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (r *TokenRepo) deleteValue(ctx context.Context, key string) error {
	const query = `DELETE FROM session_store WHERE key = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}
