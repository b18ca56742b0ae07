package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cargolink/cargolink/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// SessionResponse describes the current session state.
type SessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user,omitempty"`
}

// UserResponse is the JSON representation of the user descriptor.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// SignInRequest is the JSON body for the sign-in endpoint.
type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// SignUpRequest is the JSON body for the sign-up endpoint.
type SignUpRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// RequestServiceResponse is the JSON representation of a service request.
type RequestServiceResponse struct {
	ID                 int64                  `json:"id"`
	Type               string                 `json:"type"`
	NumberPackages     int                    `json:"number_packages"`
	LoadDetail         string                 `json:"load_detail"`
	Weight             float64                `json:"weight"`
	PickupAddress      string                 `json:"pickup_address"`
	PickupLat          float64                `json:"pickup_lat"`
	PickupLng          float64                `json:"pickup_lng"`
	DestinationAddress string                 `json:"destination_address"`
	DestinationLat     float64                `json:"destination_lat"`
	DestinationLng     float64                `json:"destination_lng"`
	Country            string                 `json:"country"`
	Department         string                 `json:"department"`
	District           string                 `json:"district"`
	Destination        string                 `json:"destination"`
	UnloadDate         string                 `json:"unload_date"`
	Distance           float64                `json:"distance"`
	HolderName         string                 `json:"holder_name"`
	Status             string                 `json:"status"`
	Statuses           []StatusChangeResponse `json:"statuses"`
	Provisional        bool                   `json:"provisional,omitempty"`
	LocalRef           string                 `json:"local_ref,omitempty"`
}

// StatusChangeResponse is one entry of a request's status history.
type StatusChangeResponse struct {
	Status string `json:"status"`
	At     string `json:"at"`
}

// CreateRequestServiceRequest is the JSON body for creating a service request.
type CreateRequestServiceRequest struct {
	Type               string  `json:"type"`
	NumberPackages     int     `json:"number_packages"`
	LoadDetail         string  `json:"load_detail"`
	Weight             float64 `json:"weight"`
	PickupAddress      string  `json:"pickup_address"`
	PickupLat          float64 `json:"pickup_lat"`
	PickupLng          float64 `json:"pickup_lng"`
	DestinationAddress string  `json:"destination_address"`
	DestinationLat     float64 `json:"destination_lat"`
	DestinationLng     float64 `json:"destination_lng"`
	Country            string  `json:"country"`
	Department         string  `json:"department"`
	District           string  `json:"district"`
	Destination        string  `json:"destination"`
	UnloadDate         string  `json:"unload_date"`
	Distance           float64 `json:"distance"`
	HolderName         string  `json:"holder_name"`
}

// UpdateStatusRequest is the JSON body for the status endpoint.
type UpdateStatusRequest struct {
	StatusID int `json:"status_id"`
}

// DriverResponse is the JSON representation of a driver.
type DriverResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	LastName  string `json:"last_name"`
	DNI       string `json:"dni"`
	License   string `json:"license"`
	Phone     string `json:"phone"`
	CompanyID int64  `json:"company_id"`
}

// VehicleResponse is the JSON representation of a vehicle.
type VehicleResponse struct {
	ID           int64   `json:"id"`
	Plate        string  `json:"plate"`
	Brand        string  `json:"brand"`
	Model        string  `json:"model"`
	LoadCapacity float64 `json:"load_capacity"`
	CompanyID    int64   `json:"company_id"`
}

// DistanceResponse is the JSON representation of a distance estimate.
type DistanceResponse struct {
	Origin      LocationResponse `json:"origin"`
	Destination LocationResponse `json:"destination"`
	DistanceKm  float64          `json:"distance_km"`
}

// LocationResponse is the JSON representation of a resolved location.
type LocationResponse struct {
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Country    string  `json:"country"`
	Department string  `json:"department"`
	District   string  `json:"district"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toRequestServiceResponse converts a domain RequestService to its JSON
// response representation.
func toRequestServiceResponse(s model.RequestService) RequestServiceResponse {
	statuses := make([]StatusChangeResponse, 0, len(s.Statuses))
	for _, sc := range s.Statuses {
		statuses = append(statuses, StatusChangeResponse{
			Status: string(sc.Status),
			At:     sc.At.UTC().Format(time.RFC3339),
		})
	}

	return RequestServiceResponse{
		ID:                 s.ID,
		Type:               s.Type,
		NumberPackages:     s.NumberPackages,
		LoadDetail:         s.LoadDetail,
		Weight:             s.Weight,
		PickupAddress:      s.PickupAddress,
		PickupLat:          s.PickupLat,
		PickupLng:          s.PickupLng,
		DestinationAddress: s.DestinationAddress,
		DestinationLat:     s.DestinationLat,
		DestinationLng:     s.DestinationLng,
		Country:            s.Country,
		Department:         s.Department,
		District:           s.District,
		Destination:        s.Destination,
		UnloadDate:         s.UnloadDate,
		Distance:           s.Distance,
		HolderName:         s.HolderName,
		Status:             string(s.Status),
		Statuses:           statuses,
		Provisional:        s.Provisional,
		LocalRef:           s.LocalRef,
	}
}

func toDriverResponse(d model.Driver) DriverResponse {
	return DriverResponse{
		ID:        d.ID,
		Name:      d.Name,
		LastName:  d.LastName,
		DNI:       d.DNI,
		License:   d.License,
		Phone:     d.Phone,
		CompanyID: d.CompanyID,
	}
}

func toVehicleResponse(v model.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:           v.ID,
		Plate:        v.Plate,
		Brand:        v.Brand,
		Model:        v.Model,
		LoadCapacity: v.LoadCapacity,
		CompanyID:    v.CompanyID,
	}
}

func toLocationResponse(l model.Location) LocationResponse {
	return LocationResponse{
		Lat:        l.Lat,
		Lng:        l.Lng,
		Country:    l.Country,
		Department: l.Department,
		District:   l.District,
	}
}
