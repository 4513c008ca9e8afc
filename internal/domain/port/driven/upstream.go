package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/coviddash/internal/domain/model"
)

// ErrMissingCredential is returned when no API key is configured for a service.
var ErrMissingCredential = errors.New("no api key configured")

// ErrSourceDisabled is returned by an upstream client that was not configured
// with an endpoint (for example the optional stock price API).
var ErrSourceDisabled = errors.New("source disabled")

// Upstream clients return the raw response body. Decoding and flattening are
// done by the caller so live responses and stored snapshots share one path.

// CovidStatsClient fetches CSSE case/death reports.
type CovidStatsClient interface {
	FetchReports(ctx context.Context, q model.ReportQuery) ([]byte, error)
}

// DailyHistoryClient fetches the per-day case history of a country.
type DailyHistoryClient interface {
	FetchDailyHistory(ctx context.Context, iso string) ([]byte, error)
}

// StockClient fetches OHLC price history for a symbol.
type StockClient interface {
	FetchPrices(ctx context.Context, q model.StockQuery) ([]byte, error)
}

// KeySource resolves the API key to send for a service. Implementations may
// change the returned key at runtime.
type KeySource interface {
	APIKey(ctx context.Context, service string) (string, error)
}

// UpstreamStatusError is implemented by errors that carry the HTTP status an
// upstream API answered with.
type UpstreamStatusError interface {
	error
	UpstreamStatus() int
}
