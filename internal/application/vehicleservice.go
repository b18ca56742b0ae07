package application

import (
	"context"
	"errors"

	"github.com/cargolink/cargolink/internal/domain/model"
	"github.com/cargolink/cargolink/internal/domain/port/driven"
)

// VehicleService exposes the vehicle resource, structurally identical to
// DriverService.
type VehicleService struct {
	api   driven.VehicleAPI
	creds *CredentialStore
}

// NewVehicleService creates a VehicleService.
func NewVehicleService(api driven.VehicleAPI, creds *CredentialStore) *VehicleService {
	return &VehicleService{api: api, creds: creds}
}

func (s *VehicleService) List(ctx context.Context) ([]model.Vehicle, error) {
	if !s.creds.IsAuthenticated(ctx) {
		return nil, model.ErrUnauthenticated
	}
	vehicles, err := s.api.List(ctx)
	if err != nil {
		return nil, s.escalate(ctx, err)
	}
	return vehicles, nil
}

func (s *VehicleService) GetByID(ctx context.Context, id int64) (*model.Vehicle, error) {
	if !s.creds.IsAuthenticated(ctx) {
		return nil, model.ErrUnauthenticated
	}
	vehicle, err := s.api.Get(ctx, id)
	if err != nil {
		return nil, s.escalate(ctx, err)
	}
	return vehicle, nil
}

func (s *VehicleService) Create(ctx context.Context, v model.Vehicle) (*model.Vehicle, error) {
	if !s.creds.IsAuthenticated(ctx) {
		return nil, model.ErrUnauthenticated
	}

	var missing []string
	if v.Plate == "" {
		missing = append(missing, "plate")
	}
	if len(missing) > 0 {
		return nil, &model.ValidationError{Fields: missing, Message: "missing required fields"}
	}

	created, err := s.api.Create(ctx, v)
	if err != nil {
		return nil, s.escalate(ctx, err)
	}
	if created == nil {
		created = &v
	}
	return created, nil
}

func (s *VehicleService) Update(ctx context.Context, v model.Vehicle) (*model.Vehicle, error) {
	if !s.creds.IsAuthenticated(ctx) {
		return nil, model.ErrUnauthenticated
	}
	updated, err := s.api.Update(ctx, v)
	if err != nil {
		return nil, s.escalate(ctx, err)
	}
	if updated == nil {
		updated = &v
	}
	return updated, nil
}

func (s *VehicleService) Delete(ctx context.Context, id int64) error {
	if !s.creds.IsAuthenticated(ctx) {
		return model.ErrUnauthenticated
	}
	if err := s.api.Delete(ctx, id); err != nil {
		return s.escalate(ctx, err)
	}
	return nil
}

func (s *VehicleService) escalate(ctx context.Context, err error) error {
	if errors.Is(err, model.ErrSessionExpired) {
		s.creds.RemoveToken(ctx)
	}
	return err
}
