package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargolink/cargolink/internal/domain/model"
	"github.com/cargolink/cargolink/internal/domain/port/driven"
)

func newAuthClient(t *testing.T, handler http.Handler) *AuthClient {
	t.Helper()
	client, _ := newTestClient(t, handler)
	return NewAuthClient(client)
}

func TestSignIn_Success(t *testing.T) {
	var gotPath string
	c := newAuthClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"id":9,"username":"ana","token":"tok123","roles":["ROLE_USER"]}`))
	}))

	res, err := c.SignIn(context.Background(), " ana ", "secret")

	require.NoError(t, err)
	assert.Equal(t, "/authentication/sign-in", gotPath)
	assert.Equal(t, int64(9), res.ID)
	assert.Equal(t, "ana", res.Username)
	assert.Equal(t, "tok123", res.Token)
	assert.Equal(t, []string{"ROLE_USER"}, res.Roles)
}

func TestSignIn_UnauthorizedMeansBadCredentials(t *testing.T) {
	c := newAuthClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.SignIn(context.Background(), "ana", "wrong")

	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "invalid username or password", validationErr.Message)
	assert.NotErrorIs(t, err, model.ErrSessionExpired)
}

func TestSignIn_MissingTokenInResponse(t *testing.T) {
	c := newAuthClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":9,"username":"ana"}`))
	}))

	_, err := c.SignIn(context.Background(), "ana", "secret")

	var serverErr *model.ServerError
	assert.ErrorAs(t, err, &serverErr)
}

func TestSignIn_EmptyBodyIsServerError(t *testing.T) {
	c := newAuthClient(t, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))

	_, err := c.SignIn(context.Background(), "ana", "secret")

	var serverErr *model.ServerError
	assert.ErrorAs(t, err, &serverErr)
}

func TestSignUp_SendsRoles(t *testing.T) {
	var got map[string]any
	c := newAuthClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/authentication/sign-up", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got))
		w.WriteHeader(http.StatusCreated)
	}))

	err := c.SignUp(context.Background(), driven.SignUpRequest{
		Username: "ana",
		Password: "secret",
		Roles:    []string{"ROLE_USER"},
	})

	require.NoError(t, err)
	assert.Equal(t, "ana", got["username"])
	assert.Equal(t, []any{"ROLE_USER"}, got["roles"])
}
