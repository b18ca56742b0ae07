package rest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cargolink/cargolink/internal/domain/model"
	"github.com/cargolink/cargolink/internal/domain/port/driven"
)

const authPath = "/authentication"

// Compile-time interface satisfaction check.
var _ driven.AuthAPI = (*AuthClient)(nil)

// AuthClient implements the AuthAPI port against {base}/authentication.
type AuthClient struct {
	client *Client
}

// NewAuthClient wraps the shared resilient client.
func NewAuthClient(client *Client) *AuthClient {
	return &AuthClient{client: client}
}

type signInDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signInResultDTO struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Token    string   `json:"token"`
	Roles    []string `json:"roles"`
}

type signUpDTO struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

// SignIn exchanges username/password for a token and user descriptor.
// A 401 here means bad credentials, not an expired session.
func (c *AuthClient) SignIn(ctx context.Context, username, password string) (*driven.SignInResult, error) {
	payload := signInDTO{
		Username: strings.TrimSpace(username),
		Password: password,
	}

	body, err := c.client.post(ctx, authPath+"/sign-in", payload)
	if err != nil {
		if errors.Is(err, model.ErrSessionExpired) {
			return nil, &model.ValidationError{Message: "invalid username or password"}
		}
		return nil, err
	}

	if emptyEntityBody(body) {
		return nil, &model.ServerError{StatusCode: 200, Message: "sign-in response carried no body"}
	}

	var dto signInResultDTO
	if err := unmarshalEntity(body, &dto); err != nil {
		return nil, fmt.Errorf("decode sign-in response: %w", err)
	}
	if dto.Token == "" {
		return nil, &model.ServerError{StatusCode: 200, Message: "sign-in response carried no token"}
	}

	return &driven.SignInResult{
		ID:       dto.ID,
		Username: dto.Username,
		Token:    dto.Token,
		Roles:    dto.Roles,
	}, nil
}

// SignUp creates an account. The backend answers with a bare acknowledgment;
// only the status code matters.
func (c *AuthClient) SignUp(ctx context.Context, req driven.SignUpRequest) error {
	payload := signUpDTO{
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
		Roles:    req.Roles,
	}

	if _, err := c.client.post(ctx, authPath+"/sign-up", payload); err != nil {
		return err
	}
	return nil
}
