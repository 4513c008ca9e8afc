package model

import "time"

// PricePoint is one OHLC record of a stock price history.
type PricePoint struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// StockQuery selects a price history.
type StockQuery struct {
	Symbol string
	Period string
}

// Key returns a stable identifier for the query, used to index snapshots.
func (q StockQuery) Key() string {
	return "symbol=" + q.Symbol + "&period=" + q.Period
}
