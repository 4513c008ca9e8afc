package rapidapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ericfisherdev/coviddash/internal/domain/model"
)

// FetchReports retrieves CSSE reports matching q from GET <csse>/reports.
// Empty query fields are omitted.
func (c *Client) FetchReports(ctx context.Context, q model.ReportQuery) ([]byte, error) {
	u := endpoint(c.csse, "reports")

	params := url.Values{}
	for _, p := range []struct{ name, value string }{
		{"region_name", q.RegionName},
		{"iso", q.ISO},
		{"date", q.Date},
		{"region_province", q.Province},
		{"city_name", q.City},
		{"q", q.Q},
	} {
		if p.value != "" {
			params.Set(p.name, p.value)
		}
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building reports request: %w", err)
	}

	body, err := c.do(ctx, req, model.ServiceCSSE)
	if err != nil {
		return nil, fmt.Errorf("fetching reports: %w", err)
	}
	return body, nil
}
