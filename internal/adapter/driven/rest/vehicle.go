package rest

import (
	"context"
	"fmt"
	"strings"

	"github.com/cargolink/cargolink/internal/domain/model"
	"github.com/cargolink/cargolink/internal/domain/port/driven"
)

const vehiclesPath = "/vehicles"

// Compile-time interface satisfaction check.
var _ driven.VehicleAPI = (*VehicleClient)(nil)

// VehicleClient implements the VehicleAPI port against {base}/vehicles with
// the same resilience and shape-normalization contract as request services.
type VehicleClient struct {
	client *Client
}

// NewVehicleClient wraps the shared resilient client.
func NewVehicleClient(client *Client) *VehicleClient {
	return &VehicleClient{client: client}
}

type vehicleDTO struct {
	ID           int64   `json:"id,omitempty"`
	Plate        string  `json:"plate"`
	Brand        string  `json:"brand"`
	Model        string  `json:"model"`
	LoadCapacity float64 `json:"loadCapacity"`
	CompanyID    int64   `json:"companyId"`
}

func (c *VehicleClient) List(ctx context.Context) ([]model.Vehicle, error) {
	body, err := c.client.get(ctx, vehiclesPath)
	if err != nil {
		return nil, err
	}

	dtos, err := decodeItems[vehicleDTO](body)
	if err != nil {
		return nil, fmt.Errorf("listing vehicles: %w", err)
	}

	vehicles := make([]model.Vehicle, 0, len(dtos))
	for _, dto := range dtos {
		vehicles = append(vehicles, dto.toModel())
	}
	return vehicles, nil
}

func (c *VehicleClient) Get(ctx context.Context, id int64) (*model.Vehicle, error) {
	body, err := c.client.get(ctx, resourceURL(vehiclesPath, id))
	if err != nil {
		if asNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return decodeVehicle(body)
}

func (c *VehicleClient) Create(ctx context.Context, v model.Vehicle) (*model.Vehicle, error) {
	body, err := c.client.post(ctx, vehiclesPath, vehicleFromModel(v))
	if err != nil {
		return nil, err
	}
	return decodeVehicle(body)
}

func (c *VehicleClient) Update(ctx context.Context, v model.Vehicle) (*model.Vehicle, error) {
	body, err := c.client.put(ctx, resourceURL(vehiclesPath, v.ID), vehicleFromModel(v))
	if err != nil {
		return nil, err
	}
	return decodeVehicle(body)
}

func (c *VehicleClient) Delete(ctx context.Context, id int64) error {
	return c.client.delete(ctx, resourceURL(vehiclesPath, id))
}

func decodeVehicle(body []byte) (*model.Vehicle, error) {
	if emptyEntityBody(body) {
		return nil, nil
	}
	var dto vehicleDTO
	if err := unmarshalEntity(body, &dto); err != nil {
		return nil, fmt.Errorf("decode vehicle: %w", err)
	}
	m := dto.toModel()
	return &m, nil
}

func (dto vehicleDTO) toModel() model.Vehicle {
	return model.Vehicle{
		ID:           dto.ID,
		Plate:        dto.Plate,
		Brand:        dto.Brand,
		Model:        dto.Model,
		LoadCapacity: dto.LoadCapacity,
		CompanyID:    dto.CompanyID,
	}
}

func vehicleFromModel(v model.Vehicle) vehicleDTO {
	return vehicleDTO{
		ID:           v.ID,
		Plate:        strings.TrimSpace(v.Plate),
		Brand:        strings.TrimSpace(v.Brand),
		Model:        strings.TrimSpace(v.Model),
		LoadCapacity: v.LoadCapacity,
		CompanyID:    v.CompanyID,
	}
}
