package flatten

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/ericfisherdev/coviddash/internal/domain/model"
)

// The vaccovid history is a top-level array of per-day records.
var dailyRecords = MustPath("*")

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// VaccovidDates returns the date of every daily record in string form.
func VaccovidDates(doc any) ([]string, error) {
	return Strings(doc, dailyRecords.Field("date"))
}

// VaccovidValues returns one integer field of every daily record, skipping nulls.
func VaccovidValues(doc any, field string) ([]int64, error) {
	return Ints(doc, dailyRecords.Field(field))
}

// VaccovidSeries returns the dated values of metric in ascending date order.
// Days where either the date or the value is null are left out.
func VaccovidSeries(doc any, metric model.Metric) (model.TimeSeries, error) {
	rows, err := Columns(doc, dailyRecords, "date", string(metric))
	if err != nil {
		return model.TimeSeries{}, err
	}

	type point struct {
		t time.Time
		v float64
	}
	points := make([]point, 0, len(rows))
	for i, row := range rows {
		ds, err := String(row[0])
		if err != nil {
			return model.TimeSeries{}, fmt.Errorf("day %d date: %w", i, err)
		}
		t, err := ParseDate(ds)
		if err != nil {
			return model.TimeSeries{}, fmt.Errorf("day %d: %w", i, err)
		}
		n, err := Int(row[1])
		if err != nil {
			return model.TimeSeries{}, fmt.Errorf("day %d %s: %w", i, metric, err)
		}
		points = append(points, point{t: t, v: float64(n)})
	}

	slices.SortStableFunc(points, func(a, b point) int {
		return cmp.Compare(a.t.Unix(), b.t.Unix())
	})

	series := model.TimeSeries{
		Name:   string(metric),
		Times:  make([]time.Time, len(points)),
		Values: make([]float64, len(points)),
	}
	for i, p := range points {
		series.Times[i] = p.t
		series.Values[i] = p.v
	}
	return series, nil
}

// ParseDate parses the date formats used by the upstream APIs.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized date %q", ErrBadValue, s)
}
