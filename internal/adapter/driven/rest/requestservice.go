package rest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cargolink/cargolink/internal/domain/model"
	"github.com/cargolink/cargolink/internal/domain/port/driven"
)

const requestServicesPath = "/requestServices"

// Compile-time interface satisfaction check.
var _ driven.RequestServiceAPI = (*RequestServiceClient)(nil)

// RequestServiceClient implements the RequestServiceAPI port against
// {base}/requestServices.
type RequestServiceClient struct {
	client *Client
}

// NewRequestServiceClient wraps the shared resilient client.
func NewRequestServiceClient(client *Client) *RequestServiceClient {
	return &RequestServiceClient{client: client}
}

// requestServiceDTO is the wire shape of a service request. Every numeric
// field is a JSON number and every string field is trimmed before send.
type requestServiceDTO struct {
	ID                 int64             `json:"id,omitempty"`
	UnloadDirection    string            `json:"unloadDirection"`
	Type               string            `json:"type"`
	NumberPackages     int               `json:"numberPackages"`
	Country            string            `json:"country"`
	Department         string            `json:"department"`
	District           string            `json:"district"`
	Destination        string            `json:"destination"`
	UnloadLocation     string            `json:"unloadLocation"`
	UnloadDate         string            `json:"unloadDate"`
	Distance           float64           `json:"distance"`
	StatusID           int               `json:"statusId"`
	HolderName         string            `json:"holderName"`
	PickupAddress      string            `json:"pickupAddress"`
	PickupLat          float64           `json:"pickupLat"`
	PickupLng          float64           `json:"pickupLng"`
	DestinationAddress string            `json:"destinationAddress"`
	DestinationLat     float64           `json:"destinationLat"`
	DestinationLng     float64           `json:"destinationLng"`
	LoadDetail         string            `json:"loadDetail"`
	Weight             float64           `json:"weight"`
	UserID             int64             `json:"userId"`
	Statuses           []statusChangeDTO `json:"statuses,omitempty"`
}

type statusChangeDTO struct {
	StatusID int    `json:"statusId"`
	Date     string `json:"date"`
}

// statusUpdateDTO is the partial payload for the status endpoint.
type statusUpdateDTO struct {
	StatusID int `json:"statusId"`
}

// List fetches every service request visible to the current credential.
func (c *RequestServiceClient) List(ctx context.Context) ([]model.RequestService, error) {
	body, err := c.client.get(ctx, requestServicesPath)
	if err != nil {
		return nil, err
	}

	dtos, err := decodeItems[requestServiceDTO](body)
	if err != nil {
		return nil, fmt.Errorf("listing request services: %w", err)
	}

	services := make([]model.RequestService, 0, len(dtos))
	for _, dto := range dtos {
		services = append(services, dto.toModel())
	}
	return services, nil
}

// Get fetches a single service request by id. Returns (nil, nil) when the
// backend reports the entity does not exist.
func (c *RequestServiceClient) Get(ctx context.Context, id int64) (*model.RequestService, error) {
	body, err := c.client.get(ctx, resourceURL(requestServicesPath, id))
	if err != nil {
		if asNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return decodeEntity(body)
}

// Create posts a new service request. Returns (nil, nil) when the backend
// acknowledged the write with an empty body -- the caller reconciles.
func (c *RequestServiceClient) Create(ctx context.Context, req model.RequestService) (*model.RequestService, error) {
	body, err := c.client.post(ctx, requestServicesPath, fromModel(req))
	if err != nil {
		return nil, err
	}
	return decodeEntity(body)
}

// UpdateStatus puts a status-only partial update. Returns (nil, nil) on an
// empty acknowledgment, same as Create.
func (c *RequestServiceClient) UpdateStatus(ctx context.Context, id int64, statusID int) (*model.RequestService, error) {
	path := resourceURL(requestServicesPath, id) + "/status"
	body, err := c.client.put(ctx, path, statusUpdateDTO{StatusID: statusID})
	if err != nil {
		return nil, err
	}
	return decodeEntity(body)
}

// Delete removes a service request. Absence after delete counts as success.
func (c *RequestServiceClient) Delete(ctx context.Context, id int64) error {
	return c.client.delete(ctx, resourceURL(requestServicesPath, id))
}

// decodeEntity parses a single-entity body, tolerating the same envelope
// variability as collections: a bare object, or an object under "data".
// An empty body decodes to (nil, nil).
func decodeEntity(body []byte) (*model.RequestService, error) {
	if emptyEntityBody(body) {
		return nil, nil
	}

	var dto requestServiceDTO
	if err := unmarshalEntity(body, &dto); err != nil {
		return nil, fmt.Errorf("decode request service: %w", err)
	}

	m := dto.toModel()
	return &m, nil
}

func (dto requestServiceDTO) toModel() model.RequestService {
	statuses := make([]model.StatusChange, 0, len(dto.Statuses))
	for _, s := range dto.Statuses {
		statuses = append(statuses, model.StatusChange{
			Status: model.StatusFromWireID(s.StatusID),
			At:     parseWireTime(s.Date),
		})
	}

	return model.RequestService{
		ID:                 dto.ID,
		Type:               dto.Type,
		NumberPackages:     dto.NumberPackages,
		LoadDetail:         dto.LoadDetail,
		Weight:             dto.Weight,
		PickupAddress:      dto.PickupAddress,
		PickupLat:          dto.PickupLat,
		PickupLng:          dto.PickupLng,
		DestinationAddress: dto.DestinationAddress,
		DestinationLat:     dto.DestinationLat,
		DestinationLng:     dto.DestinationLng,
		Country:            dto.Country,
		Department:         dto.Department,
		District:           dto.District,
		Destination:        dto.Destination,
		UnloadDate:         dto.UnloadDate,
		Distance:           dto.Distance,
		HolderName:         dto.HolderName,
		UserID:             dto.UserID,
		Status:             model.StatusFromWireID(dto.StatusID),
		Statuses:           statuses,
	}
}

// fromModel serializes a fully-typed payload: numbers stay numbers and every
// string field is trimmed.
func fromModel(m model.RequestService) requestServiceDTO {
	return requestServiceDTO{
		ID:                 m.ID,
		UnloadDirection:    strings.TrimSpace(m.DestinationAddress),
		Type:               strings.TrimSpace(m.Type),
		NumberPackages:     m.NumberPackages,
		Country:            strings.TrimSpace(m.Country),
		Department:         strings.TrimSpace(m.Department),
		District:           strings.TrimSpace(m.District),
		Destination:        strings.TrimSpace(m.Destination),
		UnloadLocation:     strings.TrimSpace(m.Destination),
		UnloadDate:         strings.TrimSpace(m.UnloadDate),
		Distance:           m.Distance,
		StatusID:           m.Status.WireID(),
		HolderName:         strings.TrimSpace(m.HolderName),
		PickupAddress:      strings.TrimSpace(m.PickupAddress),
		PickupLat:          m.PickupLat,
		PickupLng:          m.PickupLng,
		DestinationAddress: strings.TrimSpace(m.DestinationAddress),
		DestinationLat:     m.DestinationLat,
		DestinationLng:     m.DestinationLng,
		LoadDetail:         strings.TrimSpace(m.LoadDetail),
		Weight:             m.Weight,
		UserID:             m.UserID,
	}
}

// parseWireTime accepts the timestamp formats the backend has been seen to
// emit; a zero time stands in for anything unparseable.
func parseWireTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
