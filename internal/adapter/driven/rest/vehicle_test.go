package rest

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVehicleClient(t *testing.T, handler http.Handler) *VehicleClient {
	t.Helper()
	client, _ := newTestClient(t, handler)
	return NewVehicleClient(client)
}

func TestVehicleGet_Success(t *testing.T) {
	var gotPath string
	c := newVehicleClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"id":3,"plate":"ABC-123","brand":"Volvo","loadCapacity":12000}`))
	}))

	v, err := c.Get(context.Background(), 3)

	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "/vehicles/3", gotPath)
	assert.Equal(t, int64(3), v.ID)
	assert.Equal(t, "ABC-123", v.Plate)
	assert.Equal(t, 12000.0, v.LoadCapacity)
}

func TestVehicleGet_EmptyBodyIsAMiss(t *testing.T) {
	// The backend sometimes answers 200 with no content instead of 404.
	c := newVehicleClient(t, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))

	v, err := c.Get(context.Background(), 3)

	require.NoError(t, err)
	assert.Nil(t, v)
}
