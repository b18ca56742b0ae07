package driven

import (
	"context"

	"github.com/cargolink/cargolink/internal/domain/model"
)

// RequestServiceAPI is the port for the {base}/requestServices resource.
//
// Create and UpdateStatus return (nil, nil) when the backend acknowledged the
// write with an empty body -- a known quirk of this endpoint. Callers are
// expected to reconcile the true entity state themselves.
type RequestServiceAPI interface {
	List(ctx context.Context) ([]model.RequestService, error)
	Get(ctx context.Context, id int64) (*model.RequestService, error)
	Create(ctx context.Context, req model.RequestService) (*model.RequestService, error)
	UpdateStatus(ctx context.Context, id int64, statusID int) (*model.RequestService, error)
	Delete(ctx context.Context, id int64) error
}

// DriverAPI is the port for the {base}/drivers resource.
type DriverAPI interface {
	List(ctx context.Context) ([]model.Driver, error)
	Get(ctx context.Context, id int64) (*model.Driver, error)
	Create(ctx context.Context, d model.Driver) (*model.Driver, error)
	Update(ctx context.Context, d model.Driver) (*model.Driver, error)
	Delete(ctx context.Context, id int64) error
}

// VehicleAPI is the port for the {base}/vehicles resource.
type VehicleAPI interface {
	List(ctx context.Context) ([]model.Vehicle, error)
	Get(ctx context.Context, id int64) (*model.Vehicle, error)
	Create(ctx context.Context, v model.Vehicle) (*model.Vehicle, error)
	Update(ctx context.Context, v model.Vehicle) (*model.Vehicle, error)
	Delete(ctx context.Context, id int64) error
}

// SignInResult is the backend's answer to a successful sign-in.
type SignInResult struct {
	ID       int64
	Username string
	Token    string
	Roles    []string
}

// SignUpRequest is the payload for account creation.
type SignUpRequest struct {
	Username string
	Password string
	Roles    []string
}

// AuthAPI is the port for {base}/authentication.
type AuthAPI interface {
	SignIn(ctx context.Context, username, password string) (*SignInResult, error)
	SignUp(ctx context.Context, req SignUpRequest) error
}
