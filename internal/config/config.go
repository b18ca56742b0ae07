// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	BackendBaseURL  string
	GeocoderBaseURL string
	ListenAddr      string
	DBPath          string
	ReadTimeout     time.Duration
}

// Load reads configuration from environment variables and returns a validated
// Config. CARGOLINK_BACKEND_URL is required and must be an absolute URL.
// Optional variables with defaults: CARGOLINK_GEOCODER_URL
// (https://nominatim.openstreetmap.org), CARGOLINK_LISTEN_ADDR
// (127.0.0.1:8080), CARGOLINK_DB_PATH (cargolink.db),
// CARGOLINK_READ_TIMEOUT (10s).
func Load() (*Config, error) {
	backendURL := os.Getenv("CARGOLINK_BACKEND_URL")
	if backendURL == "" {
		return nil, fmt.Errorf("CARGOLINK_BACKEND_URL is required")
	}
	if u, err := url.Parse(backendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("CARGOLINK_BACKEND_URL %q must be an absolute URL", backendURL)
	}

	geocoderURL := "https://nominatim.openstreetmap.org"
	if v, ok := os.LookupEnv("CARGOLINK_GEOCODER_URL"); ok {
		geocoderURL = v
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("CARGOLINK_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "cargolink.db"
	if v, ok := os.LookupEnv("CARGOLINK_DB_PATH"); ok {
		dbPath = v
	}

	readTimeout := 10 * time.Second
	if v, ok := os.LookupEnv("CARGOLINK_READ_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("CARGOLINK_READ_TIMEOUT has invalid duration %q: %w", v, err)
		}
		readTimeout = parsed
	}

	return &Config{
		BackendBaseURL:  backendURL,
		GeocoderBaseURL: geocoderURL,
		ListenAddr:      listenAddr,
		DBPath:          dbPath,
		ReadTimeout:     readTimeout,
	}, nil
}
