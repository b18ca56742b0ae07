package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargolink/cargolink/internal/domain/model"
	"github.com/cargolink/cargolink/internal/domain/port/driven"
)

type fakeAuthAPI struct {
	signInFn    func(ctx context.Context, username, password string) (*driven.SignInResult, error)
	signUpFn    func(ctx context.Context, req driven.SignUpRequest) error
	signInCalls int
}

func (f *fakeAuthAPI) SignIn(ctx context.Context, username, password string) (*driven.SignInResult, error) {
	f.signInCalls++
	if f.signInFn == nil {
		return &driven.SignInResult{Token: "tok"}, nil
	}
	return f.signInFn(ctx, username, password)
}

func (f *fakeAuthAPI) SignUp(ctx context.Context, req driven.SignUpRequest) error {
	if f.signUpFn == nil {
		return nil
	}
	return f.signUpFn(ctx, req)
}

func TestSignIn_Success(t *testing.T) {
	api := &fakeAuthAPI{
		signInFn: func(_ context.Context, username, password string) (*driven.SignInResult, error) {
			assert.Equal(t, "ana", username)
			assert.Equal(t, "secret", password)
			return &driven.SignInResult{
				ID:       9,
				Username: "ana",
				Token:    "tok123",
				Roles:    []string{"ROLE_USER", "ROLE_ADMIN"},
			}, nil
		},
	}
	session := &fakeSessionStore{}
	persistent := &fakePersistentStore{}
	creds := NewCredentialStore(session, persistent)
	svc := NewAuthService(api, creds)

	user, err := svc.SignIn(context.Background(), "ana", "secret", true)

	require.NoError(t, err)
	assert.Equal(t, int64(9), user.ID)
	assert.Equal(t, "ROLE_USER", user.Role, "the first role is the effective one")

	// Credential landed in both storages, cookie with the remember lifetime.
	assert.Equal(t, "tok123", session.token)
	assert.Equal(t, RememberTTL, session.tokenTTL)
	require.NotNil(t, persistent.rec)
	assert.Equal(t, "tok123", persistent.rec.Value)
}

func TestSignIn_MissingFields(t *testing.T) {
	api := &fakeAuthAPI{}
	svc := NewAuthService(api, NewCredentialStore(&fakeSessionStore{}, &fakePersistentStore{}))

	_, err := svc.SignIn(context.Background(), "", "", false)

	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.ElementsMatch(t, []string{"username", "password"}, validationErr.Fields)
	assert.Zero(t, api.signInCalls)
}

func TestSignIn_BackendRejection(t *testing.T) {
	api := &fakeAuthAPI{
		signInFn: func(_ context.Context, _, _ string) (*driven.SignInResult, error) {
			return nil, &model.ValidationError{Message: "invalid username or password"}
		},
	}
	session := &fakeSessionStore{}
	svc := NewAuthService(api, NewCredentialStore(session, &fakePersistentStore{}))

	_, err := svc.SignIn(context.Background(), "ana", "wrong", false)

	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Empty(t, session.token, "a failed sign-in must not store anything")
}

func TestSignOut(t *testing.T) {
	session := &fakeSessionStore{token: "tok", user: &model.UserInfo{ID: 1}}
	persistent := &fakePersistentStore{user: &model.UserInfo{ID: 1}}
	svc := NewAuthService(&fakeAuthAPI{}, NewCredentialStore(session, persistent))

	svc.SignOut(context.Background())

	assert.Empty(t, session.token)
	assert.Nil(t, session.user)
	assert.Nil(t, persistent.user)
}

func TestSignUp_WrapsRole(t *testing.T) {
	var got driven.SignUpRequest
	api := &fakeAuthAPI{
		signUpFn: func(_ context.Context, req driven.SignUpRequest) error {
			got = req
			return nil
		},
	}
	svc := NewAuthService(api, NewCredentialStore(&fakeSessionStore{}, &fakePersistentStore{}))

	require.NoError(t, svc.SignUp(context.Background(), "ana", "secret", "ROLE_USER"))
	assert.Equal(t, []string{"ROLE_USER"}, got.Roles)

	require.NoError(t, svc.SignUp(context.Background(), "ana", "secret", ""))
	assert.Nil(t, got.Roles)
}

func TestSignUp_MissingFields(t *testing.T) {
	svc := NewAuthService(&fakeAuthAPI{}, NewCredentialStore(&fakeSessionStore{}, &fakePersistentStore{}))

	err := svc.SignUp(context.Background(), "ana", "", "")

	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"password"}, validationErr.Fields)
}
