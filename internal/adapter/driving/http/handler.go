// Package httphandler exposes the application services as a local JSON API.
// It is a thin boundary: all resilience, reconciliation, and session
// consistency live below, in the application and adapter layers.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cargolink/cargolink/internal/application"
	"github.com/cargolink/cargolink/internal/domain/model"
)

// Handler holds the application services the API endpoints delegate to.
type Handler struct {
	auth      *application.AuthService
	creds     *application.CredentialStore
	requests  *application.RequestServiceManager
	drivers   *application.DriverService
	vehicles  *application.VehicleService
	distances *application.DistanceEstimator
	logger    *slog.Logger
}

// NewHandler creates a Handler with the required services.
func NewHandler(
	auth *application.AuthService,
	creds *application.CredentialStore,
	requests *application.RequestServiceManager,
	drivers *application.DriverService,
	vehicles *application.VehicleService,
	distances *application.DistanceEstimator,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auth:      auth,
		creds:     creds,
		requests:  requests,
		drivers:   drivers,
		vehicles:  vehicles,
		distances: distances,
		logger:    logger,
	}
}

// RegisterAPIRoutes registers all API endpoints on the given mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/session", h.GetSession)
	mux.HandleFunc("POST /api/v1/session", h.SignIn)
	mux.HandleFunc("DELETE /api/v1/session", h.SignOut)
	mux.HandleFunc("POST /api/v1/accounts", h.SignUp)

	mux.HandleFunc("GET /api/v1/requests", h.ListRequests)
	mux.HandleFunc("POST /api/v1/requests", h.CreateRequest)
	mux.HandleFunc("GET /api/v1/requests/{id}", h.GetRequest)
	mux.HandleFunc("PUT /api/v1/requests/{id}/status", h.UpdateRequestStatus)
	mux.HandleFunc("DELETE /api/v1/requests/{id}", h.DeleteRequest)

	mux.HandleFunc("GET /api/v1/drivers", h.ListDrivers)
	mux.HandleFunc("POST /api/v1/drivers", h.CreateDriver)
	mux.HandleFunc("GET /api/v1/drivers/{id}", h.GetDriver)
	mux.HandleFunc("PUT /api/v1/drivers/{id}", h.UpdateDriver)
	mux.HandleFunc("DELETE /api/v1/drivers/{id}", h.DeleteDriver)

	mux.HandleFunc("GET /api/v1/vehicles", h.ListVehicles)
	mux.HandleFunc("POST /api/v1/vehicles", h.CreateVehicle)
	mux.HandleFunc("GET /api/v1/vehicles/{id}", h.GetVehicle)
	mux.HandleFunc("PUT /api/v1/vehicles/{id}", h.UpdateVehicle)
	mux.HandleFunc("DELETE /api/v1/vehicles/{id}", h.DeleteVehicle)

	mux.HandleFunc("GET /api/v1/distance", h.EstimateDistance)
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// GetSession reports whether a credential is present and for whom. It also
// converges the two credential storages, so any page hitting this endpoint
// sees a consistent session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.creds.SyncToken(ctx)

	resp := SessionResponse{Authenticated: h.creds.IsAuthenticated(ctx)}
	if user, ok := h.creds.CurrentUser(ctx); ok && resp.Authenticated {
		resp.User = &UserResponse{ID: user.ID, Username: user.Username, Role: user.Role}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.auth.SignIn(r.Context(), req.Username, req.Password, req.Remember)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{
		Authenticated: true,
		User:          &UserResponse{ID: user.ID, Username: user.Username, Role: user.Role},
	})
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.auth.SignOut(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.auth.SignUp(r.Context(), req.Username, req.Password, req.Role); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	services, err := h.requests.List(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	resp := make([]RequestServiceResponse, 0, len(services))
	for _, s := range services {
		resp = append(resp, toRequestServiceResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	svc, err := h.requests.GetByID(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if svc == nil {
		writeError(w, http.StatusNotFound, "request service not found")
		return
	}
	writeJSON(w, http.StatusOK, toRequestServiceResponse(*svc))
}

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req CreateRequestServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	created, err := h.requests.Create(r.Context(), model.RequestService{
		Type:               req.Type,
		NumberPackages:     req.NumberPackages,
		LoadDetail:         req.LoadDetail,
		Weight:             req.Weight,
		PickupAddress:      req.PickupAddress,
		PickupLat:          req.PickupLat,
		PickupLng:          req.PickupLng,
		DestinationAddress: req.DestinationAddress,
		DestinationLat:     req.DestinationLat,
		DestinationLng:     req.DestinationLng,
		Country:            req.Country,
		Department:         req.Department,
		District:           req.District,
		Destination:        req.Destination,
		UnloadDate:         req.UnloadDate,
		Distance:           req.Distance,
		HolderName:         req.HolderName,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestServiceResponse(*created))
}

func (h *Handler) UpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	updated, err := h.requests.UpdateStatus(r.Context(), id, req.StatusID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestServiceResponse(*updated))
}

func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.requests.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.drivers.List(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	resp := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		resp = append(resp, toDriverResponse(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	driver, err := h.drivers.GetByID(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if driver == nil {
		writeError(w, http.StatusNotFound, "driver not found")
		return
	}
	writeJSON(w, http.StatusOK, toDriverResponse(*driver))
}

func (h *Handler) CreateDriver(w http.ResponseWriter, r *http.Request) {
	var req DriverResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	created, err := h.drivers.Create(r.Context(), model.Driver{
		Name:      req.Name,
		LastName:  req.LastName,
		DNI:       req.DNI,
		License:   req.License,
		Phone:     req.Phone,
		CompanyID: req.CompanyID,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDriverResponse(*created))
}

func (h *Handler) UpdateDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req DriverResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	updated, err := h.drivers.Update(r.Context(), model.Driver{
		ID:        id,
		Name:      req.Name,
		LastName:  req.LastName,
		DNI:       req.DNI,
		License:   req.License,
		Phone:     req.Phone,
		CompanyID: req.CompanyID,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDriverResponse(*updated))
}

func (h *Handler) DeleteDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.drivers.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.vehicles.List(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	resp := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		resp = append(resp, toVehicleResponse(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	vehicle, err := h.vehicles.GetByID(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if vehicle == nil {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	writeJSON(w, http.StatusOK, toVehicleResponse(*vehicle))
}

func (h *Handler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req VehicleResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	created, err := h.vehicles.Create(r.Context(), model.Vehicle{
		Plate:        req.Plate,
		Brand:        req.Brand,
		Model:        req.Model,
		LoadCapacity: req.LoadCapacity,
		CompanyID:    req.CompanyID,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVehicleResponse(*created))
}

func (h *Handler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req VehicleResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	updated, err := h.vehicles.Update(r.Context(), model.Vehicle{
		ID:           id,
		Plate:        req.Plate,
		Brand:        req.Brand,
		Model:        req.Model,
		LoadCapacity: req.LoadCapacity,
		CompanyID:    req.CompanyID,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVehicleResponse(*updated))
}

func (h *Handler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.vehicles.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EstimateDistance resolves the from/to addresses (or uses explicit
// coordinates when all four are given) and returns the road estimate.
func (h *Handler) EstimateDistance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if hasCoords(q.Get("from_lat"), q.Get("from_lng"), q.Get("to_lat"), q.Get("to_lng")) {
		fromLat, _ := strconv.ParseFloat(q.Get("from_lat"), 64)
		fromLng, _ := strconv.ParseFloat(q.Get("from_lng"), 64)
		toLat, _ := strconv.ParseFloat(q.Get("to_lat"), 64)
		toLng, _ := strconv.ParseFloat(q.Get("to_lng"), 64)

		writeJSON(w, http.StatusOK, DistanceResponse{
			Origin:      LocationResponse{Lat: fromLat, Lng: fromLng},
			Destination: LocationResponse{Lat: toLat, Lng: toLng},
			DistanceKm:  h.distances.EstimateDistance(fromLat, fromLng, toLat, toLng),
		})
		return
	}

	from := q.Get("from")
	to := q.Get("to")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "provide from/to addresses or from_lat/from_lng/to_lat/to_lng")
		return
	}

	origin, dest, km := h.distances.EstimateBetweenAddresses(r.Context(), from, to)
	writeJSON(w, http.StatusOK, DistanceResponse{
		Origin:      toLocationResponse(origin),
		Destination: toLocationResponse(dest),
		DistanceKm:  km,
	})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeDomainError maps the domain error taxonomy onto HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var validationErr *model.ValidationError
	var transitionErr *model.InvalidTransitionError
	var serverErr *model.ServerError
	var netErr *model.NetworkError

	switch {
	case errors.Is(err, model.ErrUnauthenticated), errors.Is(err, model.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &transitionErr):
		writeError(w, http.StatusConflict, transitionErr.Error())
	case errors.As(err, &netErr):
		writeError(w, http.StatusServiceUnavailable, netErr.Error())
	case errors.As(err, &serverErr):
		writeError(w, http.StatusBadGateway, serverErr.Error())
	default:
		h.logger.Error("unhandled error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// pathID parses the {id} path segment, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func hasCoords(values ...string) bool {
	for _, v := range values {
		if v == "" {
			return false
		}
	}
	return true
}
