package application

import (
	"context"

	"github.com/cargolink/cargolink/internal/domain/model"
	"github.com/cargolink/cargolink/internal/domain/port/driven"
)

// DistanceEstimator computes approximate road distances. The closed-form
// estimate needs nothing external and is always available; address
// resolution goes through the geocoding collaborator, which itself degrades
// to a default location rather than failing.
type DistanceEstimator struct {
	geocoder driven.Geocoder
}

// NewDistanceEstimator creates a DistanceEstimator.
func NewDistanceEstimator(geocoder driven.Geocoder) *DistanceEstimator {
	return &DistanceEstimator{geocoder: geocoder}
}

// EstimateDistance returns the approximate road distance in km between two
// coordinate pairs: great-circle distance times the route factor, rounded to
// one decimal. Deterministic for a given pair.
func (e *DistanceEstimator) EstimateDistance(originLat, originLng, destLat, destLng float64) float64 {
	return model.EstimateRoadKm(originLat, originLng, destLat, destLng)
}

// ResolveAddress maps an address to a location. Never fails; an unusable
// address resolves to the geocoder's default location.
func (e *DistanceEstimator) ResolveAddress(ctx context.Context, address string) model.Location {
	return e.geocoder.Geocode(ctx, address)
}

// EstimateBetweenAddresses resolves both addresses and estimates the road
// distance between them.
func (e *DistanceEstimator) EstimateBetweenAddresses(ctx context.Context, origin, destination string) (model.Location, model.Location, float64) {
	from := e.geocoder.Geocode(ctx, origin)
	to := e.geocoder.Geocode(ctx, destination)
	return from, to, model.EstimateRoadKm(from.Lat, from.Lng, to.Lat, to.Lng)
}
