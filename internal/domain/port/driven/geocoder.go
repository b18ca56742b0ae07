package driven

import (
	"context"

	"github.com/cargolink/cargolink/internal/domain/model"
)

// Geocoder resolves a free-form address to coordinates and administrative
// divisions. Implementations never fail: on lookup error or unusable input
// they return a fixed default location, so callers always receive a location,
// possibly wrong, never an error.
type Geocoder interface {
	Geocode(ctx context.Context, address string) model.Location
}
