package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	cookieadapter "github.com/cargolink/cargolink/internal/adapter/driven/cookie"
	"github.com/cargolink/cargolink/internal/adapter/driven/nominatim"
	restadapter "github.com/cargolink/cargolink/internal/adapter/driven/rest"
	sqliteadapter "github.com/cargolink/cargolink/internal/adapter/driven/sqlite"
	httphandler "github.com/cargolink/cargolink/internal/adapter/driving/http"
	"github.com/cargolink/cargolink/internal/application"
	"github.com/cargolink/cargolink/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load optional .env, then configuration (fail fast on bad values).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"backend_base_url", cfg.BackendBaseURL,
		"read_timeout", cfg.ReadTimeout,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire credential storage: cookie jar scoped to the backend origin
	// plus the sqlite-backed persistent store.
	sessionStore, err := cookieadapter.NewStore(cfg.BackendBaseURL)
	if err != nil {
		return err
	}
	tokenRepo := sqliteadapter.NewTokenRepo(db)
	creds := application.NewCredentialStore(sessionStore, tokenRepo)

	// Converge the two storages before serving requests.
	creds.SyncToken(ctx)

	// 6. Create the backend REST client and resource clients.
	restClient := restadapter.NewClient(cfg.BackendBaseURL, func() http.Header {
		return creds.AuthHeaders(context.Background())
	}, cfg.ReadTimeout)

	requestAPI := restadapter.NewRequestServiceClient(restClient)
	driverAPI := restadapter.NewDriverClient(restClient)
	vehicleAPI := restadapter.NewVehicleClient(restClient)
	authAPI := restadapter.NewAuthClient(restClient)

	// 7. Create application services.
	authSvc := application.NewAuthService(authAPI, creds)
	requestSvc := application.NewRequestServiceManager(requestAPI, creds)
	driverSvc := application.NewDriverService(driverAPI, creds)
	vehicleSvc := application.NewVehicleService(vehicleAPI, creds)

	geocoder := nominatim.NewGeocoder(cfg.GeocoderBaseURL, cfg.ReadTimeout)
	distanceSvc := application.NewDistanceEstimator(geocoder)

	// 8. Create HTTP handler and register API routes.
	apiHandler := httphandler.NewHandler(authSvc, creds, requestSvc, driverSvc, vehicleSvc, distanceSvc, slog.Default())
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)

	// Apply middleware.
	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("cargolink started", "listen_addr", cfg.ListenAddr)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
