package web_test

import (
	"bytes"
	"context"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/coviddash/internal/adapter/driving/web"
	"github.com/ericfisherdev/coviddash/internal/application"
	"github.com/ericfisherdev/coviddash/internal/domain/model"
	"github.com/ericfisherdev/coviddash/internal/domain/port/driven"
)

const stateReport = `{"data":[{"region":{"province":"Florida","cities":[
	{"name":"Alachua","date":"2022-03-14","fips":"12001","lat":"29.67866525","long":"-82.35928158","confirmed":64000,"deaths":700,"confirmed_diff":12,"deaths_diff":1,"last_update":"2022-03-15 04:20:47"},
	{"name":"<b>Bay</b>","date":"2022-03-14","fips":"12005","lat":null,"long":null,"confirmed":40000,"deaths":500,"confirmed_diff":3,"deaths_diff":0,"last_update":"2022-03-15 04:20:47"}
]}}]}`

const countryReport = `{"data":[
	{"region":{"province":"Alabama","cities":[{"name":"Autauga","lat":"32.53952745","long":"-86.64408227"}]}},
	{"region":{"province":"Alaska","cities":[{"name":"Anchorage","lat":"61.14986937","long":"-149.1091"}]}}
]}`

const dailyHistory = `[
	{"date":"2022-03-16","new_cases":30000,"total_cases":79000000,"new_deaths":1000,"total_deaths":965000},
	{"date":"2022-03-15","new_cases":28000,"total_cases":78970000,"new_deaths":900,"total_deaths":964000},
	{"date":"2022-03-14","new_cases":25000,"total_cases":78940000,"new_deaths":800,"total_deaths":963100}
]`

const stockHistory = `{"data":[
	{"date":1647302400000,"open":54.1,"high":55.0,"low":53.9,"close":54.8,"volume":1200},
	{"date":1647216000000,"open":53.0,"high":54.2,"low":52.8,"close":54.0,"volume":900}
]}`

type stubCSSE struct{ err error }

func (s *stubCSSE) FetchReports(_ context.Context, q model.ReportQuery) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	if q.Q != "" {
		return []byte(stateReport), nil
	}
	return []byte(countryReport), nil
}

type stubDaily struct{}

func (stubDaily) FetchDailyHistory(_ context.Context, _ string) ([]byte, error) {
	return []byte(dailyHistory), nil
}

type stubStocks struct{ err error }

func (s *stubStocks) FetchPrices(_ context.Context, _ model.StockQuery) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte(stockHistory), nil
}

// noSnapshots stores nothing, so every request goes upstream.
type noSnapshots struct{}

func (noSnapshots) Save(_ context.Context, _ model.Snapshot) (int64, error) { return 1, nil }
func (noSnapshots) Latest(_ context.Context, _, _ string) (*model.Snapshot, error) {
	return nil, nil
}
func (noSnapshots) Prune(_ context.Context, _, _ string, _ int) (int64, error) { return 0, nil }
func (noSnapshots) ListLatest(_ context.Context) ([]model.Snapshot, error) {
	return []model.Snapshot{}, nil
}

type states []string

func (s states) Names() []string { return []string(s) }

func (s states) Canonical(name string) (string, bool) {
	for _, n := range s {
		if strings.EqualFold(n, name) {
			return n, true
		}
	}
	return "", false
}

var (
	_ driven.CovidStatsClient   = (*stubCSSE)(nil)
	_ driven.DailyHistoryClient = stubDaily{}
	_ driven.StockClient        = (*stubStocks)(nil)
	_ driven.SnapshotStore      = noSnapshots{}
)

func newMux(csse *stubCSSE, stocks *stubStocks) http.Handler {
	svc := application.NewDashboardService(csse, stubDaily{}, stocks, noSnapshots{},
		states{"Florida", "Texas"},
		application.DashboardConfig{
			RegionName:   "US",
			ISO:          "USA",
			DefaultState: "Florida",
			StockPeriod:  "1mo",
			SnapshotTTL:  time.Minute,
			Retention:    3,
		})
	mux := http.NewServeMux()
	web.RegisterRoutes(mux, web.NewHandler(svc, slog.Default()))
	return mux
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestDashboardPage(t *testing.T) {
	rec := get(t, newMux(&stubCSSE{}, &stubStocks{}), "/?state=florida&symbol=PFE&kind=bar")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "<title>COVID-19 Dashboard</title>")
	assert.Contains(t, body, "Cases by city: Florida")
	assert.Contains(t, body, "<th>confirmed_diff</th>")
	assert.Contains(t, body, "<td>Alachua</td>")
	assert.Contains(t, body, "<td>64000</td>")
	assert.Contains(t, body, "&lt;b&gt;Bay&lt;/b&gt;")
	assert.NotContains(t, body, "<b>Bay</b>")
	assert.Contains(t, body, `src="/charts/new_cases.png?kind=bar"`)
	assert.Contains(t, body, `/charts/stocks.png?`)
	assert.Contains(t, body, `/charts/map.png`)
	assert.Contains(t, body, `<option value="Florida" selected>Florida</option>`)
	assert.Contains(t, body, `<option value="bar" selected>bar</option>`)
	assert.Contains(t, body, "/ws/dashboard")
	assert.NotContains(t, body, "Warning")
}

func TestDashboardPage_SectionFailureShowsWarning(t *testing.T) {
	rec := get(t, newMux(&stubCSSE{err: driven.ErrMissingCredential}, &stubStocks{}), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<strong>Warning:</strong>")
	assert.Contains(t, body, "no api key configured")
	assert.Contains(t, body, "No city data available.")
	assert.Contains(t, body, "/charts/total_deaths.png")
}

func TestDashboardPage_Errors(t *testing.T) {
	tests := []struct {
		target string
		want   int
	}{
		{"/?state=Atlantis", http.StatusNotFound},
		{"/?state=%3Cscript%3E", http.StatusBadRequest},
		{"/?kind=pie", http.StatusBadRequest},
		{"/?color=red", http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.target, func(t *testing.T) {
			rec := get(t, newMux(&stubCSSE{}, &stubStocks{}), tc.target)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func assertPNG(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	_, err := png.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
}

func TestMetricChart(t *testing.T) {
	h := newMux(&stubCSSE{}, &stubStocks{})

	assertPNG(t, get(t, h, "/charts/new_cases.png"))
	assertPNG(t, get(t, h, "/charts/total_deaths.png?kind=area&color=%23ff0000"))
	assertPNG(t, get(t, h, "/charts/new_deaths.png?kind=bar"))
}

func TestMetricChart_Errors(t *testing.T) {
	h := newMux(&stubCSSE{}, &stubStocks{})

	assert.Equal(t, http.StatusNotFound, get(t, h, "/charts/recovered.png").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/charts/new_cases.svg").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/charts/new_cases.png?kind=pie").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/charts/new_cases.png?color=%23abcd").Code)
}

func TestStockChart(t *testing.T) {
	assertPNG(t, get(t, newMux(&stubCSSE{}, &stubStocks{}), "/charts/stocks.png?symbol=PFE&period=5d"))
}

func TestStockChart_Errors(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest,
		get(t, newMux(&stubCSSE{}, &stubStocks{}), "/charts/stocks.png").Code)
	assert.Equal(t, http.StatusServiceUnavailable,
		get(t, newMux(&stubCSSE{}, &stubStocks{err: driven.ErrSourceDisabled}), "/charts/stocks.png?symbol=PFE").Code)
}

func TestMapChart(t *testing.T) {
	assertPNG(t, get(t, newMux(&stubCSSE{}, &stubStocks{}), "/charts/map.png"))
}
