package web

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/coviddash/internal/application"
	"github.com/ericfisherdev/coviddash/internal/domain/model"
)

func ptr(f float64) *float64 { return &f }

func TestDashboardMarkdown_Sections(t *testing.T) {
	now := time.Date(2022, 3, 16, 12, 0, 0, 0, time.UTC)
	d := model.Dashboard{
		GeneratedAt: now,
		State:       "Florida",
		Table: model.CityTable{Province: "Florida", Cities: []model.City{
			{Name: "Alachua", FIPS: "12001", Lat: ptr(29.5), Long: ptr(-82.25), Confirmed: 64000},
			{Name: "Unassigned", Confirmed: 10},
		}},
		Coordinates: []model.Coordinate{{Lat: 29.5, Long: -82.25}, {Lat: 30, Long: -81}},
		Series: []model.TimeSeries{{
			Name:   string(model.MetricNewCases),
			Times:  []time.Time{now.AddDate(0, 0, -1), now},
			Values: []float64{25000, 30000},
		}},
		Stock:    &model.StockHistory{Symbol: "PFE", Period: "1mo"},
		Warnings: []string{"stock prices for MRNA: unexpected status 403"},
	}
	snaps := []application.SnapshotInfo{{
		Source:    model.SourceVaccovid,
		Key:       "USA",
		FetchedAt: now.Add(-90 * time.Second),
		Size:      2048,
		Tier:      application.TierFresh,
	}}

	md := DashboardMarkdown(d, snaps, ChartOptions{Kind: KindArea, Color: "#ff0000"}, now)

	assert.Contains(t, md, "# COVID-19 Dashboard\n")
	assert.Contains(t, md, "> **Warning:** stock prices for MRNA: unexpected status 403")
	assert.Contains(t, md, "## Cases by city: Florida")
	assert.Contains(t, md, "| name | date | fips | lat | long | confirmed |")
	assert.Contains(t, md, "| Alachua |  | 12001 | 29.5 | -82.25 | 64000 |")
	assert.Contains(t, md, "| Unassigned |  |  |  |  | 10 |")
	assert.Contains(t, md, "**New Cases:** 30000")
	assert.Contains(t, md, "![New Cases](/charts/new_cases.png?color=%23ff0000&kind=area)")
	assert.Contains(t, md, "![Data availability map](/charts/map.png?color=%23ff0000)")
	assert.Contains(t, md, "/charts/stocks.png?color=%23ff0000&kind=area&period=1mo&symbol=PFE")
	assert.Contains(t, md, "| vaccovid | USA | 2022-03-16T11:58:30Z | 1m30s | 2048 | fresh |")
}

func TestDashboardMarkdown_EmptySections(t *testing.T) {
	d := model.Dashboard{State: "Texas", Table: model.CityTable{Province: "Texas"}}

	md := DashboardMarkdown(d, nil, ChartOptions{}, time.Now())

	assert.Contains(t, md, "No city data available.")
	assert.Contains(t, md, "No daily history available.")
	assert.Contains(t, md, "Nothing stored yet.")
	assert.NotContains(t, md, "/charts/map.png")
	assert.NotContains(t, md, "## Stock")
}
