// Package web implements the HTML dashboard and chart image driving adapter.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"

	httphandler "github.com/ericfisherdev/coviddash/internal/adapter/driving/http"
	"github.com/ericfisherdev/coviddash/internal/adapter/driving/params"
	"github.com/ericfisherdev/coviddash/internal/application"
	"github.com/ericfisherdev/coviddash/internal/domain/model"
)

// Handler is the web driving adapter that serves the dashboard page and charts.
type Handler struct {
	dashboards *application.DashboardService
	logger     *slog.Logger
	now        func() time.Time
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(dashboards *application.DashboardService, logger *slog.Logger) *Handler {
	return &Handler{dashboards: dashboards, logger: logger, now: time.Now}
}

// Dashboard renders the main dashboard page with the full HTML layout.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := params.DashboardFrom(q)
	if err != nil {
		h.fail(w, "dashboard", err)
		return
	}
	style, err := params.ChartFrom(q)
	if err != nil {
		h.fail(w, "dashboard", err)
		return
	}

	d, err := h.dashboards.Build(r.Context(), application.DashboardQuery{
		State:  p.State,
		Symbol: p.Symbol,
		Period: p.Period,
	})
	if err != nil {
		h.fail(w, "dashboard", err)
		return
	}

	snaps, err := h.dashboards.Snapshots(r.Context())
	if err != nil {
		h.logger.Warn("listing snapshots for dashboard failed", "error", err)
		snaps = nil
	}

	controls := ControlsForm(Controls{
		States:  h.dashboards.States(),
		State:   d.State,
		Symbol:  p.Symbol,
		Period:  p.Period,
		Periods: params.Periods,
		Kind:    style.Kind,
		Color:   style.Color,
	})
	body := RenderMarkdown(DashboardMarkdown(d, snaps, ChartOptions(style), h.now()))
	page := Layout(PageTitle, controls, templ.Raw(body))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render dashboard", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// MetricChart renders /charts/{metric}.png.
func (h *Handler) MetricChart(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok {
		http.NotFound(w, r)
		return
	}
	style, err := params.ChartFrom(r.URL.Query())
	if err != nil {
		h.fail(w, "chart", err)
		return
	}

	series, err := h.dashboards.DailySeries(r.Context(), model.Metric(name))
	if err != nil {
		h.fail(w, "chart", err)
		return
	}

	img, err := RenderMetricChart(series, ChartOptions(style))
	h.writePNG(w, "chart", img, err)
}

// StockChart renders the closing prices of ?symbol= over ?period=.
func (h *Handler) StockChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := params.StockFrom(q)
	if err != nil {
		h.fail(w, "stock chart", err)
		return
	}
	style, err := params.ChartFrom(q)
	if err != nil {
		h.fail(w, "stock chart", err)
		return
	}

	hist, err := h.dashboards.StockPrices(r.Context(), p.Symbol, p.Period)
	if err != nil {
		h.fail(w, "stock chart", err)
		return
	}

	img, err := RenderStockChart(hist, ChartOptions(style))
	h.writePNG(w, "stock chart", img, err)
}

// MapChart plots the country's city coordinates.
func (h *Handler) MapChart(w http.ResponseWriter, r *http.Request) {
	style, err := params.ChartFrom(r.URL.Query())
	if err != nil {
		h.fail(w, "map chart", err)
		return
	}

	coords, err := h.dashboards.MapCoordinates(r.Context())
	if err != nil {
		h.fail(w, "map chart", err)
		return
	}

	img, err := RenderMapChart("Data availability map", coords, ChartOptions(style))
	h.writePNG(w, "map chart", img, err)
}

func (h *Handler) writePNG(w http.ResponseWriter, op string, img []byte, err error) {
	if err != nil {
		h.fail(w, op, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "max-age=60")
	_, _ = w.Write(img)
}

// fail writes a plain text error page with the API's status mapping.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	status := httphandler.StatusFor(err)
	if errors.Is(err, ErrNotEnoughPoints) {
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("web request failed", "op", op, "error", err)
		http.Error(w, "internal server error", status)
		return
	}

	h.logger.Warn("web request failed", "op", op, "status", status, "error", err)
	http.Error(w, err.Error(), status)
}
