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

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/coviddash/internal/adapter/driven/localfile"
	"github.com/ericfisherdev/coviddash/internal/adapter/driven/rapidapi"
	sqliteadapter "github.com/ericfisherdev/coviddash/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/coviddash/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/coviddash/internal/adapter/driving/web"
	"github.com/ericfisherdev/coviddash/internal/adapter/driving/ws"
	"github.com/ericfisherdev/coviddash/internal/application"
	"github.com/ericfisherdev/coviddash/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (.env first, then fail fast on invalid values).
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"refresh_interval", cfg.RefreshInterval,
		"snapshot_ttl", cfg.SnapshotTTL,
		"offline", cfg.Offline,
		"stocks", cfg.HasStocks(),
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
	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		return err
	}
	slog.Info("migrations complete", "version", version)

	// 5. Wire storage adapters and resolve API keys.
	snapshotStore := sqliteadapter.NewSnapshotRepo(db)
	credentialStore := sqliteadapter.NewCredentialRepo(db, cfg.SecretKey)

	fileKeys, err := localfile.LoadAPIKeys(cfg.KeyFiles())
	if err != nil {
		return err
	}
	keys := application.NewKeyResolver(fileKeys, credentialStore)
	if err := keys.Load(ctx); err != nil {
		return err
	}
	for _, k := range keys.Services() {
		slog.Info("api key", "service", k.Service, "origin", k.Origin)
	}

	states, err := localfile.LoadStates(cfg.StatesFile)
	if err != nil {
		return err
	}
	slog.Info("states loaded", "path", cfg.StatesFile, "count", states.Len())

	// 6. Create upstream client (cache + 429 back-off transport).
	client, err := rapidapi.NewClient(rapidapi.Endpoints{
		CSSE:     cfg.CSSEURL,
		Vaccovid: cfg.VaccovidURL,
		Stocks:   cfg.StocksURL,
	}, keys, cfg.HTTPTimeout)
	if err != nil {
		return err
	}

	// 7. Create services.
	dashboards := application.NewDashboardService(client, client, client, snapshotStore, states,
		application.DashboardConfig{
			RegionName:   cfg.RegionName,
			ISO:          cfg.ISO,
			DefaultState: cfg.DefaultState,
			StockSymbols: cfg.StockSymbols,
			StockPeriod:  cfg.StockPeriod,
			SnapshotTTL:  cfg.SnapshotTTL,
			Retention:    cfg.SnapshotRetention,
			Offline:      cfg.Offline,
		})
	if _, err := dashboards.ResolveState(""); err != nil {
		return err
	}

	// 7a. Offline mode seeds snapshots from coviddump output.
	if cfg.Offline {
		dump, err := localfile.ReadDump(cfg.DumpDir)
		if err != nil {
			return err
		}
		imported, err := dashboards.ImportDump(ctx, dump)
		if err != nil {
			return err
		}
		slog.Info("dump imported", "dir", cfg.DumpDir, "snapshots", imported)
	}

	// 7b. Start websocket hub and refresh loop.
	hub := ws.NewHub(slog.Default())
	go hub.Run(ctx)

	refreshSvc := application.NewRefreshService(dashboards, hub, cfg.RefreshInterval)
	go refreshSvc.Start(ctx)

	// 8. Register API, web and websocket routes.
	mux := http.NewServeMux()
	apiHandler := httphandler.NewHandler(dashboards, refreshSvc, keys, db, slog.Default())
	httphandler.RegisterAPIRoutes(mux, apiHandler)
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(dashboards, slog.Default()))
	ws.RegisterRoutes(mux, hub)

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
			stop()
		}
	}()

	slog.Info("coviddash started",
		"listen_addr", cfg.ListenAddr,
		"default_state", cfg.DefaultState,
		"states", states.Len(),
	)

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
