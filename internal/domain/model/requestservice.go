// Package model holds the domain types shared by every layer: the service
// request and its status machine, drivers, vehicles, the authentication
// credential, and the distance estimate helpers.
package model

import "time"

// RequestService is the transportable unit of work: a shipper's request for a
// company to move a load from a pickup point to a destination.
type RequestService struct {
	ID             int64
	Type           string
	NumberPackages int
	LoadDetail     string
	Weight         float64

	PickupAddress      string
	PickupLat          float64
	PickupLng          float64
	DestinationAddress string
	DestinationLat     float64
	DestinationLng     float64

	Country     string
	Department  string
	District    string
	Destination string

	UnloadDate string  // YYYY-MM-DD, as carried on the wire.
	Distance   float64 // approximate road km, derived.
	HolderName string
	UserID     int64

	Status   Status
	Statuses []StatusChange

	// Provisional marks an entity synthesized locally after the backend
	// acknowledged a write with an empty body and reconciliation found no
	// match. LocalRef is its locally generated identifier; both are cleared
	// by the next full list refresh.
	Provisional bool
	LocalRef    string
}

// StatusChange is one entry in a request's status history.
type StatusChange struct {
	Status Status
	At     time.Time
}
