package web

import "net/http"

// RegisterRoutes registers the dashboard page and chart image routes.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /{$}", h.Dashboard)
	mux.HandleFunc("GET /charts/stocks.png", h.StockChart)
	mux.HandleFunc("GET /charts/map.png", h.MapChart)
	mux.HandleFunc("GET /charts/{file}", h.MetricChart)
}
