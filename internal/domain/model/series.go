package model

import "time"

// Metric names a daily field of the vaccovid history.
type Metric string

const (
	MetricTotalCases  Metric = "total_cases"
	MetricNewCases    Metric = "new_cases"
	MetricNewDeaths   Metric = "new_deaths"
	MetricTotalDeaths Metric = "total_deaths"
)

// Metrics lists the charted metrics in display order.
var Metrics = []Metric{MetricNewCases, MetricTotalCases, MetricNewDeaths, MetricTotalDeaths}

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool {
	for _, known := range Metrics {
		if m == known {
			return true
		}
	}
	return false
}

// Title returns a human-readable label, e.g. "New Cases".
func (m Metric) Title() string {
	switch m {
	case MetricTotalCases:
		return "Total Cases"
	case MetricNewCases:
		return "New Cases"
	case MetricNewDeaths:
		return "New Deaths"
	case MetricTotalDeaths:
		return "Total Deaths"
	default:
		return string(m)
	}
}

// TimeSeries is a dated sequence of values. Times and Values always have the
// same length.
type TimeSeries struct {
	Name   string
	Times  []time.Time
	Values []float64
}

// Len returns the number of points.
func (s TimeSeries) Len() int {
	return len(s.Values)
}

// Last returns the most recent value and false if the series is empty.
func (s TimeSeries) Last() (float64, bool) {
	if len(s.Values) == 0 {
		return 0, false
	}
	return s.Values[len(s.Values)-1], true
}
