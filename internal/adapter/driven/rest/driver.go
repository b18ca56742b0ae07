package rest

import (
	"context"
	"fmt"
	"strings"

	"github.com/cargolink/cargolink/internal/domain/model"
	"github.com/cargolink/cargolink/internal/domain/port/driven"
)

const driversPath = "/drivers"

// Compile-time interface satisfaction check.
var _ driven.DriverAPI = (*DriverClient)(nil)

// DriverClient implements the DriverAPI port against {base}/drivers with the
// same resilience and shape-normalization contract as request services.
type DriverClient struct {
	client *Client
}

// NewDriverClient wraps the shared resilient client.
func NewDriverClient(client *Client) *DriverClient {
	return &DriverClient{client: client}
}

type driverDTO struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	LastName  string `json:"lastName"`
	DNI       string `json:"dni"`
	License   string `json:"license"`
	Phone     string `json:"phone"`
	CompanyID int64  `json:"companyId"`
}

func (c *DriverClient) List(ctx context.Context) ([]model.Driver, error) {
	body, err := c.client.get(ctx, driversPath)
	if err != nil {
		return nil, err
	}

	dtos, err := decodeItems[driverDTO](body)
	if err != nil {
		return nil, fmt.Errorf("listing drivers: %w", err)
	}

	drivers := make([]model.Driver, 0, len(dtos))
	for _, dto := range dtos {
		drivers = append(drivers, dto.toModel())
	}
	return drivers, nil
}

func (c *DriverClient) Get(ctx context.Context, id int64) (*model.Driver, error) {
	body, err := c.client.get(ctx, resourceURL(driversPath, id))
	if err != nil {
		if asNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return decodeDriver(body)
}

func (c *DriverClient) Create(ctx context.Context, d model.Driver) (*model.Driver, error) {
	body, err := c.client.post(ctx, driversPath, driverFromModel(d))
	if err != nil {
		return nil, err
	}
	return decodeDriver(body)
}

func (c *DriverClient) Update(ctx context.Context, d model.Driver) (*model.Driver, error) {
	body, err := c.client.put(ctx, resourceURL(driversPath, d.ID), driverFromModel(d))
	if err != nil {
		return nil, err
	}
	return decodeDriver(body)
}

func (c *DriverClient) Delete(ctx context.Context, id int64) error {
	return c.client.delete(ctx, resourceURL(driversPath, id))
}

func decodeDriver(body []byte) (*model.Driver, error) {
	if emptyEntityBody(body) {
		return nil, nil
	}
	var dto driverDTO
	if err := unmarshalEntity(body, &dto); err != nil {
		return nil, fmt.Errorf("decode driver: %w", err)
	}
	m := dto.toModel()
	return &m, nil
}

func (dto driverDTO) toModel() model.Driver {
	return model.Driver{
		ID:        dto.ID,
		Name:      dto.Name,
		LastName:  dto.LastName,
		DNI:       dto.DNI,
		License:   dto.License,
		Phone:     dto.Phone,
		CompanyID: dto.CompanyID,
	}
}

func driverFromModel(d model.Driver) driverDTO {
	return driverDTO{
		ID:        d.ID,
		Name:      strings.TrimSpace(d.Name),
		LastName:  strings.TrimSpace(d.LastName),
		DNI:       strings.TrimSpace(d.DNI),
		License:   strings.TrimSpace(d.License),
		Phone:     strings.TrimSpace(d.Phone),
		CompanyID: d.CompanyID,
	}
}
