package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cargolink/cargolink/internal/domain/model"
	"github.com/cargolink/cargolink/internal/domain/port/driven"
)

// defaultReconcileWait is how long to give the backend before re-listing
// after an empty write acknowledgment.
const defaultReconcileWait = 300 * time.Millisecond

// RequestServiceManager exposes the service-request domain operations. Every
// operation checks authentication locally before touching the network, and a
// 401 from the backend clears the credential before surfacing as a
// session-expired error.
//
// The backend sometimes acknowledges a write on this resource with an empty
// body. Create and UpdateStatus then reconcile the true entity state: a brief
// wait, a re-list matched on (holderName, type, destinationAddress), and as a
// last resort a synthesized placeholder the caller must treat as provisional
// until the next full list refresh.
type RequestServiceManager struct {
	api           driven.RequestServiceAPI
	creds         *CredentialStore
	reconcileWait time.Duration

	// lastSeen holds the most recent copy of each entity returned by a
	// read, used only as the final fallback when reconciling a status
	// update. UI lists always get fresh snapshots.
	mu       sync.Mutex
	lastSeen map[int64]model.RequestService
}

// NewRequestServiceManager creates a manager over the resource port.
func NewRequestServiceManager(api driven.RequestServiceAPI, creds *CredentialStore) *RequestServiceManager {
	return &RequestServiceManager{
		api:           api,
		creds:         creds,
		reconcileWait: defaultReconcileWait,
		lastSeen:      make(map[int64]model.RequestService),
	}
}

// SetReconcileWait overrides the pause before the reconciliation re-list.
// Intended for tests.
func (m *RequestServiceManager) SetReconcileWait(d time.Duration) {
	m.reconcileWait = d
}

// List returns a fresh snapshot of every service request.
func (m *RequestServiceManager) List(ctx context.Context) ([]model.RequestService, error) {
	if err := m.requireAuth(ctx); err != nil {
		return nil, err
	}

	services, err := m.api.List(ctx)
	if err != nil {
		return nil, m.escalate(ctx, err)
	}

	m.remember(services...)
	return services, nil
}

// GetByID returns a single service request, or nil when it does not exist.
func (m *RequestServiceManager) GetByID(ctx context.Context, id int64) (*model.RequestService, error) {
	if err := m.requireAuth(ctx); err != nil {
		return nil, err
	}

	svc, err := m.api.Get(ctx, id)
	if err != nil {
		return nil, m.escalate(ctx, err)
	}
	if svc != nil {
		m.remember(*svc)
	}
	return svc, nil
}

// Create submits a new service request owned by the current user.
//
// Preconditions checked before any network call: an authenticated credential
// with a resolvable user id, and non-empty type, destination, and unload
// date. The returned entity is the server's echo when the response carried a
// body, the reconciled entity when it did not, or a provisional placeholder
// when reconciliation found no match.
func (m *RequestServiceManager) Create(ctx context.Context, req model.RequestService) (*model.RequestService, error) {
	if err := m.requireAuth(ctx); err != nil {
		return nil, err
	}

	var missing []string
	if req.Type == "" {
		missing = append(missing, "type")
	}
	if req.Destination == "" {
		missing = append(missing, "destination")
	}
	if req.UnloadDate == "" {
		missing = append(missing, "unloadDate")
	}
	if len(missing) > 0 {
		return nil, &model.ValidationError{Fields: missing, Message: "missing required fields"}
	}

	user, ok := m.creds.CurrentUser(ctx)
	if !ok || user.ID == 0 {
		return nil, fmt.Errorf("cannot resolve request owner: %w", model.ErrUnauthenticated)
	}
	req.UserID = user.ID
	if req.HolderName == "" {
		req.HolderName = user.Username
	}
	req.Status = model.StatusPending

	created, err := m.api.Create(ctx, req)
	if err != nil {
		return nil, m.escalate(ctx, err)
	}
	if created != nil {
		m.remember(*created)
		return created, nil
	}

	return m.reconcileCreate(ctx, req), nil
}

// reconcileCreate recovers the entity state after an empty create
// acknowledgment: wait briefly, re-list, and match the just-created entity.
// When no match is found, a placeholder with a locally generated identifier
// is synthesized from the request payload.
func (m *RequestServiceManager) reconcileCreate(ctx context.Context, req model.RequestService) *model.RequestService {
	m.wait(ctx)

	services, err := m.api.List(ctx)
	if err != nil {
		// A 401 here still has to clear the credential, even though the
		// caller only sees the placeholder.
		m.escalate(ctx, err)
		slog.Warn("reconciliation re-list failed, synthesizing placeholder", "error", err)
	} else {
		m.remember(services...)
		if match := newestMatch(services, req); match != nil {
			return match
		}
		slog.Warn("reconciliation found no matching entity, synthesizing placeholder",
			"holder", req.HolderName, "type", req.Type)
	}

	placeholder := req
	placeholder.ID = 0
	placeholder.Status = model.StatusPending
	placeholder.Provisional = true
	placeholder.LocalRef = uuid.NewString()
	return &placeholder
}

// newestMatch finds the just-created entity by (holderName, type,
// destinationAddress), preferring the highest id when several match.
func newestMatch(services []model.RequestService, req model.RequestService) *model.RequestService {
	var best *model.RequestService
	for i := range services {
		s := &services[i]
		if s.HolderName == req.HolderName && s.Type == req.Type && s.DestinationAddress == req.DestinationAddress {
			if best == nil || s.ID > best.ID {
				best = s
			}
		}
	}
	if best == nil {
		return nil
	}
	found := *best
	return &found
}

// UpdateStatus moves a service request to the status identified by the wire
// id, enforcing the transition table: nothing leaves a terminal state, and
// only declared transitions are allowed.
func (m *RequestServiceManager) UpdateStatus(ctx context.Context, id int64, statusID int) (*model.RequestService, error) {
	if err := m.requireAuth(ctx); err != nil {
		return nil, err
	}

	next := model.StatusFromWireID(statusID)

	current, ok := m.cached(id)
	if !ok {
		svc, err := m.api.Get(ctx, id)
		if err != nil {
			return nil, m.escalate(ctx, err)
		}
		if svc == nil {
			return nil, fmt.Errorf("request service %d not found", id)
		}
		m.remember(*svc)
		current = *svc
	}

	if !current.Status.CanTransition(next) {
		return nil, &model.InvalidTransitionError{From: current.Status, To: next}
	}

	updated, err := m.api.UpdateStatus(ctx, id, next.WireID())
	if err != nil {
		return nil, m.escalate(ctx, err)
	}
	if updated != nil {
		m.remember(*updated)
		return updated, nil
	}

	return m.reconcileStatus(ctx, id, current, next), nil
}

// reconcileStatus recovers the entity state after an empty status-update
// acknowledgment: re-read by id, and failing that, merge the submitted
// status onto the previously cached copy.
func (m *RequestServiceManager) reconcileStatus(ctx context.Context, id int64, cached model.RequestService, next model.Status) *model.RequestService {
	m.wait(ctx)

	svc, err := m.api.Get(ctx, id)
	if err == nil && svc != nil {
		m.remember(*svc)
		return svc
	}
	if err != nil {
		slog.Warn("reconciliation re-read failed, merging onto cached copy", "id", id, "error", err)
	}

	merged := cached
	merged.Status = next
	merged.Statuses = append(append([]model.StatusChange{}, cached.Statuses...), model.StatusChange{
		Status: next,
		At:     time.Now(),
	})
	m.remember(merged)
	return &merged
}

// Delete removes a service request. Absence after delete counts as success.
func (m *RequestServiceManager) Delete(ctx context.Context, id int64) error {
	if err := m.requireAuth(ctx); err != nil {
		return err
	}

	if err := m.api.Delete(ctx, id); err != nil {
		return m.escalate(ctx, err)
	}

	m.mu.Lock()
	delete(m.lastSeen, id)
	m.mu.Unlock()
	return nil
}

// requireAuth fails fast, before any network call, when no credential is
// present.
func (m *RequestServiceManager) requireAuth(ctx context.Context) error {
	if !m.creds.IsAuthenticated(ctx) {
		return model.ErrUnauthenticated
	}
	return nil
}

// escalate clears the credential when the backend rejected it, so a
// subsequent IsAuthenticated reports false everywhere.
func (m *RequestServiceManager) escalate(ctx context.Context, err error) error {
	if errors.Is(err, model.ErrSessionExpired) {
		m.creds.RemoveToken(ctx)
	}
	return err
}

func (m *RequestServiceManager) remember(services ...model.RequestService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range services {
		if s.ID != 0 {
			m.lastSeen[s.ID] = s
		}
	}
}

func (m *RequestServiceManager) cached(id int64) (model.RequestService, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.lastSeen[id]
	return s, ok
}

func (m *RequestServiceManager) wait(ctx context.Context) {
	if m.reconcileWait <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(m.reconcileWait):
	}
}
