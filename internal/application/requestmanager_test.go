package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargolink/cargolink/internal/domain/model"
)

// --- Fake resource API ---

type fakeRequestServiceAPI struct {
	listFn   func(ctx context.Context) ([]model.RequestService, error)
	getFn    func(ctx context.Context, id int64) (*model.RequestService, error)
	createFn func(ctx context.Context, req model.RequestService) (*model.RequestService, error)
	updateFn func(ctx context.Context, id int64, statusID int) (*model.RequestService, error)
	deleteFn func(ctx context.Context, id int64) error

	listCalls   int
	getCalls    int
	createCalls int
	updateCalls int
}

func (f *fakeRequestServiceAPI) List(ctx context.Context) ([]model.RequestService, error) {
	f.listCalls++
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx)
}

func (f *fakeRequestServiceAPI) Get(ctx context.Context, id int64) (*model.RequestService, error) {
	f.getCalls++
	if f.getFn == nil {
		return nil, nil
	}
	return f.getFn(ctx, id)
}

func (f *fakeRequestServiceAPI) Create(ctx context.Context, req model.RequestService) (*model.RequestService, error) {
	f.createCalls++
	if f.createFn == nil {
		return nil, nil
	}
	return f.createFn(ctx, req)
}

func (f *fakeRequestServiceAPI) UpdateStatus(ctx context.Context, id int64, statusID int) (*model.RequestService, error) {
	f.updateCalls++
	if f.updateFn == nil {
		return nil, nil
	}
	return f.updateFn(ctx, id, statusID)
}

func (f *fakeRequestServiceAPI) Delete(ctx context.Context, id int64) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, id)
}

// --- Helpers ---

func authenticatedCreds() (*CredentialStore, *fakeSessionStore) {
	session := &fakeSessionStore{
		token: "tok123",
		user:  &model.UserInfo{ID: 9, Username: "ana", Role: "ROLE_USER"},
	}
	return NewCredentialStore(session, &fakePersistentStore{}), session
}

func newTestManager(api *fakeRequestServiceAPI) (*RequestServiceManager, *fakeSessionStore) {
	creds, session := authenticatedCreds()
	m := NewRequestServiceManager(api, creds)
	m.SetReconcileWait(0)
	return m, session
}

func validCreateRequest() model.RequestService {
	return model.RequestService{
		Type:               "general",
		Destination:        "Arequipa",
		DestinationAddress: "Av. Ejercito 123",
		UnloadDate:         "2026-09-01",
	}
}

// --- Tests ---

func TestList_UnauthenticatedNeverTouchesNetwork(t *testing.T) {
	api := &fakeRequestServiceAPI{}
	creds := NewCredentialStore(&fakeSessionStore{}, &fakePersistentStore{})
	m := NewRequestServiceManager(api, creds)

	_, err := m.List(context.Background())

	require.ErrorIs(t, err, model.ErrUnauthenticated)
	assert.Zero(t, api.listCalls)
}

func TestCreate_UnauthenticatedNeverTouchesNetwork(t *testing.T) {
	api := &fakeRequestServiceAPI{}
	creds := NewCredentialStore(&fakeSessionStore{}, &fakePersistentStore{})
	m := NewRequestServiceManager(api, creds)

	_, err := m.Create(context.Background(), validCreateRequest())

	require.ErrorIs(t, err, model.ErrUnauthenticated)
	assert.Zero(t, api.createCalls)
}

func TestList_SessionExpiryClearsCredential(t *testing.T) {
	api := &fakeRequestServiceAPI{
		listFn: func(_ context.Context) ([]model.RequestService, error) {
			return nil, model.ErrSessionExpired
		},
	}
	m, session := newTestManager(api)

	_, err := m.List(context.Background())

	require.ErrorIs(t, err, model.ErrSessionExpired)
	assert.Empty(t, session.token, "a rejected credential must be cleared everywhere")
}

func TestCreate_MissingFields(t *testing.T) {
	api := &fakeRequestServiceAPI{}
	m, _ := newTestManager(api)

	_, err := m.Create(context.Background(), model.RequestService{})

	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.ElementsMatch(t, []string{"type", "destination", "unloadDate"}, validationErr.Fields)
	assert.Zero(t, api.createCalls, "validation failures must not reach the network")
}

func TestCreate_ServerEcho(t *testing.T) {
	var sent model.RequestService
	api := &fakeRequestServiceAPI{
		createFn: func(_ context.Context, req model.RequestService) (*model.RequestService, error) {
			sent = req
			echoed := req
			echoed.ID = 41
			return &echoed, nil
		},
	}
	m, _ := newTestManager(api)

	created, err := m.Create(context.Background(), validCreateRequest())

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, int64(41), created.ID)
	assert.False(t, created.Provisional)
	// Owner and defaults resolved before sending.
	assert.Equal(t, int64(9), sent.UserID)
	assert.Equal(t, "ana", sent.HolderName)
	assert.Equal(t, model.StatusPending, sent.Status)
}

func TestCreate_KeepsExplicitHolderName(t *testing.T) {
	var sent model.RequestService
	api := &fakeRequestServiceAPI{
		createFn: func(_ context.Context, req model.RequestService) (*model.RequestService, error) {
			sent = req
			return &req, nil
		},
	}
	m, _ := newTestManager(api)

	req := validCreateRequest()
	req.HolderName = "Empresa SAC"
	_, err := m.Create(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "Empresa SAC", sent.HolderName)
}

func TestCreate_EmptyAckReconciledFromList(t *testing.T) {
	api := &fakeRequestServiceAPI{}
	api.createFn = func(_ context.Context, _ model.RequestService) (*model.RequestService, error) {
		return nil, nil // backend acknowledged with an empty body
	}
	api.listFn = func(_ context.Context) ([]model.RequestService, error) {
		return []model.RequestService{
			{ID: 40, HolderName: "ana", Type: "general", DestinationAddress: "Av. Ejercito 123"},
			{ID: 41, HolderName: "ana", Type: "general", DestinationAddress: "Av. Ejercito 123"},
			{ID: 42, HolderName: "otro", Type: "general", DestinationAddress: "Av. Ejercito 123"},
		}, nil
	}
	m, _ := newTestManager(api)

	created, err := m.Create(context.Background(), validCreateRequest())

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, int64(41), created.ID, "the highest matching id is the just-created entity")
	assert.False(t, created.Provisional)
	assert.Equal(t, 1, api.listCalls)
}

func TestCreate_EmptyAckNoMatchSynthesizesPlaceholder(t *testing.T) {
	api := &fakeRequestServiceAPI{}
	api.createFn = func(_ context.Context, _ model.RequestService) (*model.RequestService, error) {
		return nil, nil
	}
	api.listFn = func(_ context.Context) ([]model.RequestService, error) {
		return []model.RequestService{}, nil
	}
	m, _ := newTestManager(api)

	created, err := m.Create(context.Background(), validCreateRequest())

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.True(t, created.Provisional)
	assert.NotEmpty(t, created.LocalRef)
	assert.Zero(t, created.ID)
	assert.Equal(t, model.StatusPending, created.Status)
	assert.Equal(t, "general", created.Type)
}

func TestCreate_EmptyAckListFailureSynthesizesPlaceholder(t *testing.T) {
	api := &fakeRequestServiceAPI{}
	api.createFn = func(_ context.Context, _ model.RequestService) (*model.RequestService, error) {
		return nil, nil
	}
	api.listFn = func(_ context.Context) ([]model.RequestService, error) {
		return nil, &model.NetworkError{Err: errors.New("connection reset")}
	}
	m, _ := newTestManager(api)

	created, err := m.Create(context.Background(), validCreateRequest())

	require.NoError(t, err, "reconciliation failure degrades to a placeholder, not an error")
	require.NotNil(t, created)
	assert.True(t, created.Provisional)
}

func TestCreate_SessionExpiryDuringReconcileClearsCredential(t *testing.T) {
	api := &fakeRequestServiceAPI{}
	api.createFn = func(_ context.Context, _ model.RequestService) (*model.RequestService, error) {
		return nil, nil
	}
	api.listFn = func(_ context.Context) ([]model.RequestService, error) {
		return nil, model.ErrSessionExpired
	}
	m, session := newTestManager(api)

	created, err := m.Create(context.Background(), validCreateRequest())

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.True(t, created.Provisional)
	assert.Empty(t, session.token, "a 401 on the reconciliation re-list still clears the credential")
}

func TestCreate_UnresolvableOwner(t *testing.T) {
	// Token present but no user descriptor anywhere and the token carries no
	// parseable claims.
	session := &fakeSessionStore{token: "opaque-token"}
	creds := NewCredentialStore(session, &fakePersistentStore{})
	api := &fakeRequestServiceAPI{}
	m := NewRequestServiceManager(api, creds)

	_, err := m.Create(context.Background(), validCreateRequest())

	require.ErrorIs(t, err, model.ErrUnauthenticated)
	assert.Zero(t, api.createCalls)
}

func TestUpdateStatus_HappyPath(t *testing.T) {
	var sentStatusID int
	api := &fakeRequestServiceAPI{
		getFn: func(_ context.Context, id int64) (*model.RequestService, error) {
			return &model.RequestService{ID: id, Status: model.StatusPending}, nil
		},
		updateFn: func(_ context.Context, id int64, statusID int) (*model.RequestService, error) {
			sentStatusID = statusID
			return &model.RequestService{ID: id, Status: model.StatusFromWireID(statusID)}, nil
		},
	}
	m, _ := newTestManager(api)

	updated, err := m.UpdateStatus(context.Background(), 7, model.StatusIDAccepted)

	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, model.StatusAccepted, updated.Status)
	assert.Equal(t, model.StatusIDAccepted, sentStatusID)
}

func TestUpdateStatus_RejectsInvalidTransition(t *testing.T) {
	api := &fakeRequestServiceAPI{
		getFn: func(_ context.Context, id int64) (*model.RequestService, error) {
			return &model.RequestService{ID: id, Status: model.StatusCompleted}, nil
		},
	}
	m, _ := newTestManager(api)

	_, err := m.UpdateStatus(context.Background(), 7, model.StatusIDCancelled)

	var transitionErr *model.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, model.StatusCompleted, transitionErr.From)
	assert.Equal(t, model.StatusCancelled, transitionErr.To)
	assert.Zero(t, api.updateCalls, "rejected transitions must not reach the network")
}

func TestUpdateStatus_ChecksTransitionAgainstCachedCopy(t *testing.T) {
	api := &fakeRequestServiceAPI{
		listFn: func(_ context.Context) ([]model.RequestService, error) {
			return []model.RequestService{{ID: 7, Status: model.StatusAccepted}}, nil
		},
		updateFn: func(_ context.Context, id int64, statusID int) (*model.RequestService, error) {
			return &model.RequestService{ID: id, Status: model.StatusFromWireID(statusID)}, nil
		},
	}
	m, _ := newTestManager(api)

	// Prime the cache with a list; the status update must not re-read.
	_, err := m.List(context.Background())
	require.NoError(t, err)

	_, err = m.UpdateStatus(context.Background(), 7, model.StatusIDInProgress)

	require.NoError(t, err)
	assert.Zero(t, api.getCalls)
}

func TestUpdateStatus_UnknownEntity(t *testing.T) {
	api := &fakeRequestServiceAPI{
		getFn: func(_ context.Context, _ int64) (*model.RequestService, error) {
			return nil, nil
		},
	}
	m, _ := newTestManager(api)

	_, err := m.UpdateStatus(context.Background(), 999, model.StatusIDAccepted)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestUpdateStatus_EmptyAckReconciledByReRead(t *testing.T) {
	reads := 0
	api := &fakeRequestServiceAPI{
		getFn: func(_ context.Context, id int64) (*model.RequestService, error) {
			reads++
			if reads == 1 {
				return &model.RequestService{ID: id, Status: model.StatusPending}, nil
			}
			return &model.RequestService{ID: id, Status: model.StatusAccepted}, nil
		},
		updateFn: func(_ context.Context, _ int64, _ int) (*model.RequestService, error) {
			return nil, nil // empty acknowledgment
		},
	}
	m, _ := newTestManager(api)

	updated, err := m.UpdateStatus(context.Background(), 7, model.StatusIDAccepted)

	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, model.StatusAccepted, updated.Status)
	assert.Equal(t, 2, reads)
}

func TestUpdateStatus_EmptyAckMergesOntoCachedCopyWhenReReadFails(t *testing.T) {
	reads := 0
	history := []model.StatusChange{{Status: model.StatusPending, At: time.Now().Add(-time.Hour)}}
	api := &fakeRequestServiceAPI{
		getFn: func(_ context.Context, id int64) (*model.RequestService, error) {
			reads++
			if reads == 1 {
				return &model.RequestService{ID: id, Status: model.StatusPending, HolderName: "ana", Statuses: history}, nil
			}
			return nil, &model.NetworkError{Err: errors.New("timeout")}
		},
		updateFn: func(_ context.Context, _ int64, _ int) (*model.RequestService, error) {
			return nil, nil
		},
	}
	m, _ := newTestManager(api)

	updated, err := m.UpdateStatus(context.Background(), 7, model.StatusIDAccepted)

	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, model.StatusAccepted, updated.Status)
	assert.Equal(t, "ana", updated.HolderName, "everything but the status comes from the cached copy")
	require.Len(t, updated.Statuses, 2)
	assert.Equal(t, model.StatusAccepted, updated.Statuses[1].Status)
}

func TestDelete_Unauthenticated(t *testing.T) {
	creds := NewCredentialStore(&fakeSessionStore{}, &fakePersistentStore{})
	m := NewRequestServiceManager(&fakeRequestServiceAPI{}, creds)

	err := m.Delete(context.Background(), 7)

	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestDelete_DropsCachedCopy(t *testing.T) {
	api := &fakeRequestServiceAPI{
		listFn: func(_ context.Context) ([]model.RequestService, error) {
			return []model.RequestService{{ID: 7, Status: model.StatusPending}}, nil
		},
		getFn: func(_ context.Context, id int64) (*model.RequestService, error) {
			return &model.RequestService{ID: id, Status: model.StatusAccepted}, nil
		},
		updateFn: func(_ context.Context, id int64, statusID int) (*model.RequestService, error) {
			return &model.RequestService{ID: id, Status: model.StatusFromWireID(statusID)}, nil
		},
	}
	m, _ := newTestManager(api)

	_, err := m.List(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.Delete(context.Background(), 7))

	// The cache entry is gone, so the next status update re-reads.
	_, err = m.UpdateStatus(context.Background(), 7, model.StatusIDInProgress)
	require.NoError(t, err)
	assert.Equal(t, 1, api.getCalls)
}
