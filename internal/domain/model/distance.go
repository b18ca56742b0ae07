package model

import "math"

// RouteFactor approximates road distance from great-circle distance. Roads
// are not straight lines; 1.3 matches the estimate the backend expects.
const RouteFactor = 1.3

const earthRadiusKm = 6371.0

// Location is a resolved geographic point with its administrative division.
type Location struct {
	Lat        float64
	Lng        float64
	Country    string
	Department string
	District   string
}

// Haversine returns the great-circle distance in kilometers between two
// coordinate pairs.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// EstimateRoadKm returns the approximate road distance between two coordinate
// pairs: great-circle distance multiplied by RouteFactor, rounded to one
// decimal. Deterministic for a given pair and computable with no external
// dependencies, so it is always available as a fallback.
func EstimateRoadKm(lat1, lng1, lat2, lng2 float64) float64 {
	return math.Round(Haversine(lat1, lng1, lat2, lng2)*RouteFactor*10) / 10
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
