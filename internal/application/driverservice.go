package application

import (
	"context"
	"errors"

	"github.com/cargolink/cargolink/internal/domain/model"
	"github.com/cargolink/cargolink/internal/domain/port/driven"
)

// DriverService exposes the driver resource with the same authentication
// precondition and session-expiry handling as the request service manager.
type DriverService struct {
	api   driven.DriverAPI
	creds *CredentialStore
}

// NewDriverService creates a DriverService.
func NewDriverService(api driven.DriverAPI, creds *CredentialStore) *DriverService {
	return &DriverService{api: api, creds: creds}
}

func (s *DriverService) List(ctx context.Context) ([]model.Driver, error) {
	if !s.creds.IsAuthenticated(ctx) {
		return nil, model.ErrUnauthenticated
	}
	drivers, err := s.api.List(ctx)
	if err != nil {
		return nil, s.escalate(ctx, err)
	}
	return drivers, nil
}

func (s *DriverService) GetByID(ctx context.Context, id int64) (*model.Driver, error) {
	if !s.creds.IsAuthenticated(ctx) {
		return nil, model.ErrUnauthenticated
	}
	driver, err := s.api.Get(ctx, id)
	if err != nil {
		return nil, s.escalate(ctx, err)
	}
	return driver, nil
}

func (s *DriverService) Create(ctx context.Context, d model.Driver) (*model.Driver, error) {
	if !s.creds.IsAuthenticated(ctx) {
		return nil, model.ErrUnauthenticated
	}

	var missing []string
	if d.Name == "" {
		missing = append(missing, "name")
	}
	if d.License == "" {
		missing = append(missing, "license")
	}
	if len(missing) > 0 {
		return nil, &model.ValidationError{Fields: missing, Message: "missing required fields"}
	}

	created, err := s.api.Create(ctx, d)
	if err != nil {
		return nil, s.escalate(ctx, err)
	}
	if created == nil {
		// Empty acknowledgment: echo the payload back as the best available view.
		created = &d
	}
	return created, nil
}

func (s *DriverService) Update(ctx context.Context, d model.Driver) (*model.Driver, error) {
	if !s.creds.IsAuthenticated(ctx) {
		return nil, model.ErrUnauthenticated
	}
	updated, err := s.api.Update(ctx, d)
	if err != nil {
		return nil, s.escalate(ctx, err)
	}
	if updated == nil {
		updated = &d
	}
	return updated, nil
}

func (s *DriverService) Delete(ctx context.Context, id int64) error {
	if !s.creds.IsAuthenticated(ctx) {
		return model.ErrUnauthenticated
	}
	if err := s.api.Delete(ctx, id); err != nil {
		return s.escalate(ctx, err)
	}
	return nil
}

func (s *DriverService) escalate(ctx context.Context, err error) error {
	if errors.Is(err, model.ErrSessionExpired) {
		s.creds.RemoveToken(ctx)
	}
	return err
}
