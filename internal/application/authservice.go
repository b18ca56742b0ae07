package application

import (
	"context"
	"fmt"

	"github.com/cargolink/cargolink/internal/domain/model"
	"github.com/cargolink/cargolink/internal/domain/port/driven"
)

// AuthService runs the sign-in/sign-up flow and keeps the credential store
// consistent with its outcome.
type AuthService struct {
	api   driven.AuthAPI
	creds *CredentialStore
}

// NewAuthService creates an AuthService.
func NewAuthService(api driven.AuthAPI, creds *CredentialStore) *AuthService {
	return &AuthService{api: api, creds: creds}
}

// SignIn authenticates against the backend and, on success, stores the token
// and user descriptor in both storage backends. remember extends the cookie
// lifetime to 30 days.
func (s *AuthService) SignIn(ctx context.Context, username, password string, remember bool) (model.UserInfo, error) {
	var missing []string
	if username == "" {
		missing = append(missing, "username")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return model.UserInfo{}, &model.ValidationError{Fields: missing, Message: "missing required fields"}
	}

	res, err := s.api.SignIn(ctx, username, password)
	if err != nil {
		return model.UserInfo{}, fmt.Errorf("sign in: %w", err)
	}

	role := ""
	if len(res.Roles) > 0 {
		role = res.Roles[0]
	}
	user := model.UserInfo{ID: res.ID, Username: res.Username, Role: role}

	s.creds.StoreCredential(ctx, res.Token, user, remember)
	return user, nil
}

// SignOut clears the credential from both storages.
func (s *AuthService) SignOut(ctx context.Context) {
	s.creds.RemoveToken(ctx)
}

// SignUp creates a new account. The caller signs in separately afterwards.
func (s *AuthService) SignUp(ctx context.Context, username, password, role string) error {
	var missing []string
	if username == "" {
		missing = append(missing, "username")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return &model.ValidationError{Fields: missing, Message: "missing required fields"}
	}

	req := driven.SignUpRequest{Username: username, Password: password}
	if role != "" {
		req.Roles = []string{role}
	}

	if err := s.api.SignUp(ctx, req); err != nil {
		return fmt.Errorf("sign up: %w", err)
	}
	return nil
}
