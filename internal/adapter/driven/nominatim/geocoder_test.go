package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeocoder(t *testing.T, handler http.Handler) *Geocoder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeocoderWithHTTPClient(srv.Client(), srv.URL)
}

func TestGeocode_Success(t *testing.T) {
	g := newTestGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Av. Arequipa 123, Lima", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte(`[{"lat":"-12.0900","lon":"-77.0300","address":{"country":"Peru","state":"Lima","city_district":"Lince"}}]`))
	}))

	loc := g.Geocode(context.Background(), "Av. Arequipa 123, Lima")

	assert.Equal(t, -12.09, loc.Lat)
	assert.Equal(t, -77.03, loc.Lng)
	assert.Equal(t, "Peru", loc.Country)
	assert.Equal(t, "Lima", loc.Department)
	assert.Equal(t, "Lince", loc.District)
}

func TestGeocode_DistrictFallsBackToCity(t *testing.T) {
	g := newTestGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"-16.3989","lon":"-71.5350","address":{"country":"Peru","state":"Arequipa","city":"Arequipa"}}]`))
	}))

	loc := g.Geocode(context.Background(), "Plaza de Armas, Arequipa")

	assert.Equal(t, "Arequipa", loc.District)
}

func TestGeocode_ShortQueryUsesDefault(t *testing.T) {
	var calls atomic.Int32
	g := newTestGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`[]`))
	}))

	assert.Equal(t, DefaultLocation, g.Geocode(context.Background(), "ab"))
	assert.Equal(t, DefaultLocation, g.Geocode(context.Background(), "   "))
	assert.Equal(t, int32(0), calls.Load(), "short queries must not reach the provider")
}

func TestGeocode_ProviderErrorUsesDefault(t *testing.T) {
	g := newTestGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	assert.Equal(t, DefaultLocation, g.Geocode(context.Background(), "Av. Arequipa 123"))
}

func TestGeocode_NoMatchUsesDefault(t *testing.T) {
	g := newTestGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))

	assert.Equal(t, DefaultLocation, g.Geocode(context.Background(), "nowhere at all"))
}

func TestGeocode_UnparseableCoordinatesUseDefault(t *testing.T) {
	g := newTestGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"not-a-number","lon":"-77.03","address":{"country":"Peru"}}]`))
	}))

	assert.Equal(t, DefaultLocation, g.Geocode(context.Background(), "Av. Arequipa 123"))
}

func TestGeocode_TransportFailureUsesDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close()
	g := NewGeocoderWithHTTPClient(&http.Client{}, srv.URL)

	assert.Equal(t, DefaultLocation, g.Geocode(context.Background(), "Av. Arequipa 123"))
}

func TestGeocode_ConcurrentLookupsShareOneRequest(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	g := newTestGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		<-release
		_, _ = w.Write([]byte(`[{"lat":"-12.09","lon":"-77.03","address":{"country":"Peru"}}]`))
	}))

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Same address with varying case and padding: one in-flight
			// request serves them all.
			g.Geocode(context.Background(), "  AV. Arequipa 123 ")
		}()
	}
	// Give the goroutines time to pile onto the singleflight group, then
	// release the single in-flight request.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
}
