package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fatih/structs"

	"github.com/ericfisherdev/coviddash/internal/application"
	"github.com/ericfisherdev/coviddash/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body. Fields is set for
// validation failures only.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// CityTableResponse is the JSON representation of a province's city table.
// Columns lists the keys of every row in display order.
type CityTableResponse struct {
	Province string           `json:"province"`
	Columns  []string         `json:"columns"`
	Cities   []map[string]any `json:"cities"`
}

// CoordinateResponse is one map point.
type CoordinateResponse struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// SeriesPoint is one dated value.
type SeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// SeriesResponse is the JSON representation of a daily series.
type SeriesResponse struct {
	Name   string        `json:"name"`
	Title  string        `json:"title"`
	Points []SeriesPoint `json:"points"`
}

// PricePointResponse is one OHLC record.
type PricePointResponse struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// StockResponse is the JSON representation of a price history.
type StockResponse struct {
	Symbol string               `json:"symbol"`
	Period string               `json:"period"`
	Points []PricePointResponse `json:"points"`
}

// DashboardResponse is the JSON representation of a full dashboard. It is
// also the payload pushed to websocket subscribers.
type DashboardResponse struct {
	GeneratedAt string               `json:"generated_at"`
	State       string               `json:"state"`
	Table       CityTableResponse    `json:"table"`
	Coordinates []CoordinateResponse `json:"coordinates"`
	Series      []SeriesResponse     `json:"series"`
	Stock       *StockResponse       `json:"stock"`
	Warnings    []string             `json:"warnings"`
}

// SnapshotResponse describes the newest stored response of one source/key.
type SnapshotResponse struct {
	Source     string `json:"source"`
	Key        string `json:"key"`
	FetchedAt  string `json:"fetched_at"`
	AgeSeconds int64  `json:"age_seconds"`
	Size       int    `json:"size"`
	Freshness  string `json:"freshness"`
}

// KeyStatusResponse reports where a service's API key comes from.
type KeyStatusResponse struct {
	Service string `json:"service"`
	Origin  string `json:"origin"`
	Masked  string `json:"masked,omitempty"`
}

// RefreshResponse is the result of a manual refresh.
type RefreshResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// LastRefreshResponse describes the most recent refresh cycle.
type LastRefreshResponse struct {
	At         string `json:"at"`
	DurationMS int64  `json:"duration_ms"`
	Warnings   int    `json:"warnings"`
	Error      string `json:"error,omitempty"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status      string               `json:"status"`
	Time        string               `json:"time"`
	Database    string               `json:"database"`
	Offline     bool                 `json:"offline"`
	LastRefresh *LastRefreshResponse `json:"last_refresh"`
	Keys        []KeyStatusResponse  `json:"keys"`
}

// StatesResponse lists the selectable states.
type StatesResponse struct {
	Default string   `json:"default"`
	States  []string `json:"states"`
}

// cityColumns returns the row keys of a city in field order.
func cityColumns() []string {
	fields := structs.New(model.City{}).Fields()
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, f.Tag("structs"))
	}
	return cols
}

// ToCityTableResponse converts a domain CityTable to its JSON representation.
// Rows are keyed by the struct tags of model.City; nil coordinates become null.
func ToCityTableResponse(t model.CityTable) CityTableResponse {
	rows := make([]map[string]any, 0, len(t.Cities))
	for _, c := range t.Cities {
		rows = append(rows, structs.Map(c))
	}
	return CityTableResponse{
		Province: t.Province,
		Columns:  cityColumns(),
		Cities:   rows,
	}
}

func toCoordinateResponses(coords []model.Coordinate) []CoordinateResponse {
	out := make([]CoordinateResponse, 0, len(coords))
	for _, c := range coords {
		out = append(out, CoordinateResponse{Lat: c.Lat, Long: c.Long})
	}
	return out
}

// ToSeriesResponse converts a domain TimeSeries to its JSON representation.
func ToSeriesResponse(s model.TimeSeries) SeriesResponse {
	points := make([]SeriesPoint, 0, s.Len())
	for i, v := range s.Values {
		points = append(points, SeriesPoint{Date: s.Times[i].Format(time.DateOnly), Value: v})
	}
	return SeriesResponse{
		Name:   s.Name,
		Title:  model.Metric(s.Name).Title(),
		Points: points,
	}
}

// ToStockResponse converts a domain StockHistory to its JSON representation.
func ToStockResponse(h model.StockHistory) StockResponse {
	points := make([]PricePointResponse, 0, len(h.Points))
	for _, p := range h.Points {
		points = append(points, PricePointResponse{
			Time:   p.Time.UTC().Format(time.RFC3339),
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.Volume,
		})
	}
	return StockResponse{Symbol: h.Symbol, Period: h.Period, Points: points}
}

// ToDashboardResponse converts a domain Dashboard to its JSON representation.
func ToDashboardResponse(d model.Dashboard) DashboardResponse {
	series := make([]SeriesResponse, 0, len(d.Series))
	for _, s := range d.Series {
		series = append(series, ToSeriesResponse(s))
	}

	var stock *StockResponse
	if d.Stock != nil {
		sr := ToStockResponse(*d.Stock)
		stock = &sr
	}

	warnings := d.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	return DashboardResponse{
		GeneratedAt: d.GeneratedAt.UTC().Format(time.RFC3339),
		State:       d.State,
		Table:       ToCityTableResponse(d.Table),
		Coordinates: toCoordinateResponses(d.Coordinates),
		Series:      series,
		Stock:       stock,
		Warnings:    warnings,
	}
}

func toSnapshotResponse(s application.SnapshotInfo) SnapshotResponse {
	return SnapshotResponse{
		Source:     s.Source,
		Key:        s.Key,
		FetchedAt:  s.FetchedAt.UTC().Format(time.RFC3339),
		AgeSeconds: int64(s.Age / time.Second),
		Size:       s.Size,
		Freshness:  s.Tier.String(),
	}
}

func toKeyStatusResponse(k model.KeyStatus) KeyStatusResponse {
	return KeyStatusResponse{Service: k.Service, Origin: string(k.Origin), Masked: k.Masked}
}

func toLastRefreshResponse(s application.RefreshStatus) *LastRefreshResponse {
	if s.At.IsZero() {
		return nil
	}
	resp := &LastRefreshResponse{
		At:         s.At.UTC().Format(time.RFC3339),
		DurationMS: s.Duration.Milliseconds(),
		Warnings:   s.Warnings,
	}
	if s.Err != nil {
		resp.Error = s.Err.Error()
	}
	return resp
}
