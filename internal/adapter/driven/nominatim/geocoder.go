// Package nominatim implements the Geocoder port against a Nominatim-style
// search endpoint. The provider is treated as an opaque, unreliable
// collaborator: any failure degrades to a fixed default location instead of
// an error.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cargolink/cargolink/internal/domain/model"
	"github.com/cargolink/cargolink/internal/domain/port/driven"
)

// DefaultLocation is returned for failed lookups and unusable input. Callers
// always receive a location, possibly wrong, never an error.
var DefaultLocation = model.Location{
	Lat:        -12.0464,
	Lng:        -77.0428,
	Country:    "Peru",
	Department: "Lima",
	District:   "Lima",
}

// minQueryLen is the shortest address worth sending to the provider.
const minQueryLen = 3

// Compile-time interface satisfaction check.
var _ driven.Geocoder = (*Geocoder)(nil)

// Geocoder resolves addresses through the configured provider. Concurrent
// lookups for the same normalized address share a single in-flight request.
type Geocoder struct {
	baseURL    string
	httpClient *http.Client
	group      singleflight.Group
}

// NewGeocoder creates a Geocoder against the given provider base URL.
func NewGeocoder(baseURL string, timeout time.Duration) *Geocoder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Geocoder{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewGeocoderWithHTTPClient creates a Geocoder with a custom http.Client,
// intended for testing.
func NewGeocoderWithHTTPClient(httpClient *http.Client, baseURL string) *Geocoder {
	return &Geocoder{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// resultDTO is the provider's per-match shape.
type resultDTO struct {
	Lat     string `json:"lat"`
	Lon     string `json:"lon"`
	Address struct {
		Country  string `json:"country"`
		State    string `json:"state"`
		City     string `json:"city"`
		Town     string `json:"town"`
		Suburb   string `json:"suburb"`
		District string `json:"city_district"`
	} `json:"address"`
}

// Geocode resolves an address to coordinates and administrative divisions.
// Short input, provider failure, and unparseable responses all return
// DefaultLocation.
func (g *Geocoder) Geocode(ctx context.Context, address string) model.Location {
	query := strings.TrimSpace(address)
	if len([]rune(query)) < minQueryLen {
		return DefaultLocation
	}

	key := strings.ToLower(query)
	v, err, _ := g.group.Do(key, func() (any, error) {
		return g.lookup(ctx, query), nil
	})
	if err != nil {
		return DefaultLocation
	}
	return v.(model.Location)
}

func (g *Geocoder) lookup(ctx context.Context, query string) model.Location {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("addressdetails", "1")

	reqURL := fmt.Sprintf("%s/search?%s", g.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return DefaultLocation
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		slog.Warn("geocode lookup failed, using default location", "error", err)
		return DefaultLocation
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("geocode lookup failed, using default location", "status", resp.StatusCode)
		return DefaultLocation
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return DefaultLocation
	}

	var results []resultDTO
	if err := json.Unmarshal(body, &results); err != nil || len(results) == 0 {
		slog.Warn("geocode returned no usable match, using default location", "query", query)
		return DefaultLocation
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lng, lngErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lngErr != nil {
		return DefaultLocation
	}

	addr := results[0].Address
	district := addr.District
	if district == "" {
		district = firstNonEmpty(addr.City, addr.Town, addr.Suburb)
	}

	loc := model.Location{
		Lat:        lat,
		Lng:        lng,
		Country:    addr.Country,
		Department: addr.State,
		District:   district,
	}
	if loc.Country == "" {
		loc.Country = DefaultLocation.Country
	}
	return loc
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
