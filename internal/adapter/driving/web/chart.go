package web

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ericfisherdev/coviddash/internal/domain/model"
)

// Chart kinds.
const (
	KindLine = "line"
	KindArea = "area"
	KindBar  = "bar"
)

const (
	chartWidth     = 900
	chartHeight    = 360
	defaultColor   = "#1f77b4"
	barLabelEvery  = 30
	minBarWidth    = 2
	barSpacing     = 1
	barChartMargin = 120
)

// ErrNotEnoughPoints is returned when a series has fewer than two points.
var ErrNotEnoughPoints = errors.New("not enough data points to draw a chart")

// ChartOptions controls how a series is drawn. Zero values select a blue line.
type ChartOptions struct {
	Kind  string
	Color string // "#rgb" or "#rrggbb"
}

// color parses Color, falling back to the default for any other form.
func (o ChartOptions) color() drawing.Color {
	hex := strings.TrimPrefix(o.Color, "#")
	if len(hex) != 3 && len(hex) != 6 {
		hex = strings.TrimPrefix(defaultColor, "#")
	}
	return drawing.ColorFromHex(hex)
}

// RenderSeriesChart draws a dated series as a PNG.
func RenderSeriesChart(title string, times []time.Time, values []float64, opts ChartOptions) ([]byte, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("drawing %s: %d dates for %d values", title, len(times), len(values))
	}
	if len(values) < 2 {
		return nil, fmt.Errorf("drawing %s: %w", title, ErrNotEnoughPoints)
	}

	if opts.Kind == KindBar {
		return renderBars(title, times, values, opts.color())
	}

	col := opts.color()
	style := chart.Style{StrokeColor: col, StrokeWidth: 2}
	if opts.Kind == KindArea {
		style.FillColor = col.WithAlpha(96)
	}

	ch := chart.Chart{
		Title:      title,
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 12}},
		XAxis:      chart.XAxis{ValueFormatter: chart.TimeValueFormatterWithFormat(time.DateOnly)},
		YAxis:      chart.YAxis{Range: yRange(values, opts.Kind == KindArea)},
		Series: []chart.Series{
			chart.TimeSeries{Name: title, XValues: times, YValues: values, Style: style},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("drawing %s: %w", title, err)
	}
	return buf.Bytes(), nil
}

// RenderMetricChart draws a daily metric series.
func RenderMetricChart(s model.TimeSeries, opts ChartOptions) ([]byte, error) {
	return RenderSeriesChart(model.Metric(s.Name).Title(), s.Times, s.Values, opts)
}

// RenderStockChart draws the closing prices of a price history.
func RenderStockChart(h model.StockHistory, opts ChartOptions) ([]byte, error) {
	times := make([]time.Time, 0, len(h.Points))
	closes := make([]float64, 0, len(h.Points))
	for _, p := range h.Points {
		times = append(times, p.Time)
		closes = append(closes, p.Close)
	}
	return RenderSeriesChart(fmt.Sprintf("%s close (%s)", h.Symbol, h.Period), times, closes, opts)
}

// RenderMapChart plots city coordinates as points, longitude on X.
func RenderMapChart(title string, coords []model.Coordinate, opts ChartOptions) ([]byte, error) {
	if len(coords) < 2 {
		return nil, fmt.Errorf("drawing %s: %w", title, ErrNotEnoughPoints)
	}

	longs := make([]float64, 0, len(coords))
	lats := make([]float64, 0, len(coords))
	for _, c := range coords {
		longs = append(longs, c.Long)
		lats = append(lats, c.Lat)
	}

	ch := chart.Chart{
		Title:      title,
		Width:      chartWidth,
		Height:     chartWidth / 2,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 12}},
		XAxis:      chart.XAxis{Name: "Longitude", Range: paddedRange(longs)},
		YAxis:      chart.YAxis{Name: "Latitude", Range: paddedRange(lats)},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: title, XValues: longs, YValues: lats, Style: pointStyle(opts.color())},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("drawing %s: %w", title, err)
	}
	return buf.Bytes(), nil
}

// pointStyle renders points only, no connecting line.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    2,
		DotColor:    col,
	}
}

// renderBars draws one bar per day. Only every barLabelEvery-th bar is
// labeled so six months of dates stay readable.
func renderBars(title string, times []time.Time, values []float64, col drawing.Color) ([]byte, error) {
	bars := make([]chart.Value, 0, len(values))
	for i, v := range values {
		label := ""
		if i%barLabelEvery == 0 {
			label = times[i].Format("Jan 02")
		}
		bars = append(bars, chart.Value{
			Value: v,
			Label: label,
			Style: chart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 0},
		})
	}

	barWidth := (chartWidth-barChartMargin)/len(values) - barSpacing
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}

	bc := chart.BarChart{
		Title:      title,
		Width:      max(chartWidth, len(values)*(barWidth+barSpacing)+barChartMargin),
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 12}},
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		YAxis:      chart.YAxis{Range: yRange(values, true)},
		Bars:       bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("drawing %s: %w", title, err)
	}
	return buf.Bytes(), nil
}

// yRange returns an explicit Y range when the automatic one would be empty
// (a flat series) or when the axis must start at zero.
func yRange(values []float64, fromZero bool) chart.Range {
	lo, hi := bounds(values)
	if !fromZero && lo != hi {
		return nil
	}
	if fromZero && lo > 0 {
		lo = 0
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

// paddedRange widens the value bounds by five percent on each side.
func paddedRange(values []float64) *chart.ContinuousRange {
	lo, hi := bounds(values)
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 1
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func bounds(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
