package rapidapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ericfisherdev/coviddash/internal/domain/model"
)

// FetchDailyHistory retrieves the last six months of daily case data for the
// country with the given ISO 3166-1 alpha-3 code.
func (c *Client) FetchDailyHistory(ctx context.Context, iso string) ([]byte, error) {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return nil, fmt.Errorf("fetching daily history: empty iso code")
	}

	u := endpoint(c.vaccovid, "api/covid-ovid-data/sixmonth/"+url.PathEscape(strings.ToUpper(iso)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building daily history request: %w", err)
	}

	body, err := c.do(ctx, req, model.ServiceVaccovid)
	if err != nil {
		return nil, fmt.Errorf("fetching daily history for %s: %w", iso, err)
	}
	return body, nil
}
