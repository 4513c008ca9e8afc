package rapidapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ericfisherdev/coviddash/internal/domain/model"
	"github.com/ericfisherdev/coviddash/internal/domain/port/driven"
)

// FetchPrices posts the symbol and period as a form to the stock endpoint.
// It returns driven.ErrSourceDisabled when no stock endpoint is configured.
func (c *Client) FetchPrices(ctx context.Context, q model.StockQuery) ([]byte, error) {
	if c.stocks == nil {
		return nil, driven.ErrSourceDisabled
	}

	form := url.Values{}
	form.Set("symbol", q.Symbol)
	form.Set("period", q.Period)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.stocks.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building prices request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(ctx, req, model.ServiceStocks)
	if err != nil {
		return nil, fmt.Errorf("fetching prices for %s: %w", q.Symbol, err)
	}
	return body, nil
}
