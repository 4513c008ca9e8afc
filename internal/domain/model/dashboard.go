package model

import "time"

// Dashboard is everything a single dashboard render needs. Sections that
// could not be loaded are left empty and described in Warnings.
type Dashboard struct {
	GeneratedAt time.Time
	State       string
	Table       CityTable
	Coordinates []Coordinate
	Series      []TimeSeries
	Stock       *StockHistory
	Warnings    []string
}

// StockHistory is the price history of one symbol.
type StockHistory struct {
	Symbol string
	Period string
	Points []PricePoint
}

// SeriesByName returns the series with the given name, if present.
func (d Dashboard) SeriesByName(name string) (TimeSeries, bool) {
	for _, s := range d.Series {
		if s.Name == name {
			return s, true
		}
	}
	return TimeSeries{}, false
}
