package web

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/structs"

	"github.com/ericfisherdev/coviddash/internal/application"
	"github.com/ericfisherdev/coviddash/internal/domain/model"
)

// PageTitle is the heading and document title of the dashboard.
const PageTitle = "COVID-19 Dashboard"

// DashboardMarkdown composes the dashboard body as GFM markdown. Chart
// images link back to the chart routes with the selected style.
func DashboardMarkdown(d model.Dashboard, snaps []application.SnapshotInfo, style ChartOptions, now time.Time) string {
	var b strings.Builder

	b.WriteString("# " + PageTitle + "\n\n")
	fmt.Fprintf(&b, "Generated %s\n\n", d.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))

	for _, w := range d.Warnings {
		b.WriteString("> **Warning:** " + mdCell(w) + "\n\n")
	}

	writeCitySection(&b, d.Table)

	b.WriteString("## Daily history\n\n")
	if len(d.Series) == 0 {
		b.WriteString("No daily history available.\n\n")
	}
	for _, s := range d.Series {
		title := model.Metric(s.Name).Title()
		if last, ok := s.Last(); ok {
			fmt.Fprintf(&b, "**%s:** %s\n\n", title, formatFloat(last))
		}
		fmt.Fprintf(&b, "![%s](%s)\n\n", title, chartURL("/charts/"+s.Name+".png", nil, style))
	}

	if len(d.Coordinates) > 0 {
		b.WriteString("## Data availability map\n\n")
		fmt.Fprintf(&b, "%d cities with coordinates.\n\n", len(d.Coordinates))
		fmt.Fprintf(&b, "![Data availability map](%s)\n\n", chartURL("/charts/map.png", nil, ChartOptions{Color: style.Color}))
	}

	if d.Stock != nil {
		fmt.Fprintf(&b, "## Stock: %s\n\n", mdCell(d.Stock.Symbol))
		q := url.Values{"symbol": {d.Stock.Symbol}, "period": {d.Stock.Period}}
		fmt.Fprintf(&b, "![%s](%s)\n\n", mdCell(d.Stock.Symbol), chartURL("/charts/stocks.png", q, style))
	}

	writeAvailabilitySection(&b, snaps, now)
	return b.String()
}

func writeCitySection(b *strings.Builder, t model.CityTable) {
	fmt.Fprintf(b, "## Cases by city: %s\n\n", mdCell(t.Province))
	if len(t.Cities) == 0 {
		b.WriteString("No city data available.\n\n")
		return
	}

	fields := structs.New(model.City{}).Fields()
	header := make([]string, 0, len(fields))
	for _, f := range fields {
		header = append(header, f.Tag("structs"))
	}

	rows := make([][]string, 0, len(t.Cities))
	for _, c := range t.Cities {
		m := structs.Map(c)
		row := make([]string, 0, len(header))
		for _, col := range header {
			row = append(row, formatCell(m[col]))
		}
		rows = append(rows, row)
	}
	mdTable(b, header, rows)
}

func writeAvailabilitySection(b *strings.Builder, snaps []application.SnapshotInfo, now time.Time) {
	b.WriteString("## Stored data\n\n")
	if len(snaps) == 0 {
		b.WriteString("Nothing stored yet.\n\n")
		return
	}

	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, []string{
			s.Source,
			s.Key,
			s.FetchedAt.UTC().Format(time.RFC3339),
			now.Sub(s.FetchedAt).Round(time.Second).String(),
			strconv.Itoa(s.Size),
			s.Tier.String(),
		})
	}
	mdTable(b, []string{"source", "query", "fetched", "age", "bytes", "freshness"}, rows)
}

func chartURL(path string, q url.Values, style ChartOptions) string {
	if q == nil {
		q = url.Values{}
	}
	if style.Kind != "" {
		q.Set("kind", style.Kind)
	}
	if style.Color != "" {
		q.Set("color", style.Color)
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case *float64:
		if x == nil {
			return ""
		}
		return formatFloat(*x)
	case float64:
		return formatFloat(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
