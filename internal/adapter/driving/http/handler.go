// Package httphandler implements the REST API driving adapter.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/coviddash/internal/adapter/driving/params"
	"github.com/ericfisherdev/coviddash/internal/application"
	"github.com/ericfisherdev/coviddash/internal/domain/model"
)

// maxBodyBytes caps request bodies; the only body is a credential update.
const maxBodyBytes = 4 << 10

// Refresher triggers and reports refresh cycles.
type Refresher interface {
	Refresh(ctx context.Context) error
	LastRefresh() application.RefreshStatus
}

// Pinger checks a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	dashboards *application.DashboardService
	refresher  Refresher
	keys       *application.KeyResolver
	db         Pinger
	logger     *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. refresher and
// db may be nil.
func NewHandler(
	dashboards *application.DashboardService,
	refresher Refresher,
	keys *application.KeyResolver,
	db Pinger,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		dashboards: dashboards,
		refresher:  refresher,
		keys:       keys,
		db:         db,
		logger:     logger,
	}
}

// RegisterAPIRoutes registers all REST routes on the provided mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/states", h.ListStates)
	mux.HandleFunc("GET /api/v1/dashboard", h.GetDashboard)
	mux.HandleFunc("GET /api/v1/cities", h.GetCities)
	mux.HandleFunc("GET /api/v1/map", h.GetMap)
	mux.HandleFunc("GET /api/v1/series/{metric}", h.GetSeries)
	mux.HandleFunc("GET /api/v1/stocks", h.GetStocks)
	mux.HandleFunc("GET /api/v1/snapshots", h.ListSnapshots)
	mux.HandleFunc("POST /api/v1/refresh", h.Refresh)
	mux.HandleFunc("GET /api/v1/credentials", h.ListCredentials)
	mux.HandleFunc("PUT /api/v1/credentials/{service}", h.SetCredential)
	mux.HandleFunc("DELETE /api/v1/credentials/{service}", h.DeleteCredential)
}

// NewServeMux creates an http.Handler with the API routes registered and
// wrapped with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// Health reports database reachability, the last refresh and key origins.
// It answers 503 only when the database is unreachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Time:     time.Now().UTC().Format(time.RFC3339),
		Database: "ok",
		Offline:  h.dashboards.Offline(),
		Keys:     []KeyStatusResponse{},
	}
	status := http.StatusOK

	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.logger.Error("health check database ping failed", "error", err)
			resp.Status = "unavailable"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	if h.refresher != nil {
		resp.LastRefresh = toLastRefreshResponse(h.refresher.LastRefresh())
		if resp.LastRefresh != nil && resp.LastRefresh.Error != "" && status == http.StatusOK {
			resp.Status = "degraded"
		}
	}

	if h.keys != nil {
		for _, k := range h.keys.Services() {
			resp.Keys = append(resp.Keys, toKeyStatusResponse(k))
		}
	}

	writeJSON(w, status, resp)
}

// ListStates returns the selectable states and the default.
func (h *Handler) ListStates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatesResponse{
		Default: h.dashboards.DefaultState(),
		States:  h.dashboards.States(),
	})
}

// GetDashboard builds the full dashboard for the requested state and stock.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := params.DashboardFrom(r.URL.Query())
	if err != nil {
		respondError(w, h.logger, "dashboard", err)
		return
	}

	d, err := h.dashboards.Build(r.Context(), application.DashboardQuery{
		State:  p.State,
		Symbol: p.Symbol,
		Period: p.Period,
	})
	if err != nil {
		respondError(w, h.logger, "dashboard", err)
		return
	}

	writeJSON(w, http.StatusOK, ToDashboardResponse(d))
}

// GetCities returns the city table of a state.
func (h *Handler) GetCities(w http.ResponseWriter, r *http.Request) {
	p, err := params.CitiesFrom(r.URL.Query())
	if err != nil {
		respondError(w, h.logger, "cities", err)
		return
	}

	table, err := h.dashboards.CityTable(r.Context(), p.State)
	if err != nil {
		respondError(w, h.logger, "cities", err)
		return
	}

	writeJSON(w, http.StatusOK, ToCityTableResponse(table))
}

// GetMap returns the coordinates of every city in the country.
func (h *Handler) GetMap(w http.ResponseWriter, r *http.Request) {
	coords, err := h.dashboards.MapCoordinates(r.Context())
	if err != nil {
		respondError(w, h.logger, "map", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"coordinates": toCoordinateResponses(coords)})
}

// GetSeries returns the daily series of one metric.
func (h *Handler) GetSeries(w http.ResponseWriter, r *http.Request) {
	metric := model.Metric(r.PathValue("metric"))

	series, err := h.dashboards.DailySeries(r.Context(), metric)
	if err != nil {
		respondError(w, h.logger, "series", err)
		return
	}

	writeJSON(w, http.StatusOK, ToSeriesResponse(series))
}

// GetStocks returns the price history of a symbol.
func (h *Handler) GetStocks(w http.ResponseWriter, r *http.Request) {
	p, err := params.StockFrom(r.URL.Query())
	if err != nil {
		respondError(w, h.logger, "stocks", err)
		return
	}

	hist, err := h.dashboards.StockPrices(r.Context(), p.Symbol, p.Period)
	if err != nil {
		respondError(w, h.logger, "stocks", err)
		return
	}

	writeJSON(w, http.StatusOK, ToStockResponse(hist))
}

// ListSnapshots returns the newest stored response of every source/key.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	infos, err := h.dashboards.Snapshots(r.Context())
	if err != nil {
		respondError(w, h.logger, "snapshots", err)
		return
	}

	resp := make([]SnapshotResponse, 0, len(infos))
	for _, info := range infos {
		resp = append(resp, toSnapshotResponse(info))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Refresh runs a refresh cycle and waits for it. Source failures are
// reported with status "partial"; the dashboard is still rebuilt.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "refresh is not running")
		return
	}

	err := h.refresher.Refresh(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, RefreshResponse{Status: "ok"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "refresh did not complete")
	default:
		h.logger.Warn("manual refresh finished with errors", "error", err)
		writeJSON(w, http.StatusOK, RefreshResponse{Status: "partial", Error: err.Error()})
	}
}

// ListCredentials reports the origin of every service's API key.
func (h *Handler) ListCredentials(w http.ResponseWriter, _ *http.Request) {
	statuses := h.keys.Services()
	resp := make([]KeyStatusResponse, 0, len(statuses))
	for _, k := range statuses {
		resp = append(resp, toKeyStatusResponse(k))
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetCredential stores the API key of a service.
func (h *Handler) SetCredential(w http.ResponseWriter, r *http.Request) {
	service := r.PathValue("service")

	var body params.Credential
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := params.Validate(body); err != nil {
		respondError(w, h.logger, "set credential", err)
		return
	}

	if err := h.keys.Set(r.Context(), service, body.APIKey); err != nil {
		respondError(w, h.logger, "set credential", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCredential removes the stored API key of a service.
func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	if err := h.keys.Delete(r.Context(), r.PathValue("service")); err != nil {
		respondError(w, h.logger, "delete credential", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
