// Package rapidapi implements the upstream client ports for the RapidAPI hosted
// COVID statistics, vaccination tracker and stock price APIs.
package rapidapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/coviddash/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.CovidStatsClient   = (*Client)(nil)
	_ driven.DailyHistoryClient = (*Client)(nil)
	_ driven.StockClient        = (*Client)(nil)

	_ driven.UpstreamStatusError = (*StatusError)(nil)
)

// maxBodyBytes caps how much of a response body is read into memory.
const maxBodyBytes = 32 << 20

// Endpoints holds the base URL of each upstream API. An empty Stocks URL
// disables FetchPrices.
type Endpoints struct {
	CSSE     string
	Vaccovid string
	Stocks   string
}

// Client implements the upstream ports over plain HTTP. The API key is resolved
// per request so a key changed at runtime is picked up by the next call.
type Client struct {
	http     *http.Client
	keys     driven.KeySource
	csse     *url.URL
	vaccovid *url.URL
	stocks   *url.URL // nil when disabled
}

// StatusError is returned when an upstream API answers with a non-2xx status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       string // First bytes of the response body, for logs.
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %s", e.Method, e.URL, e.Status)
}

// UpstreamStatus returns the HTTP status code the upstream API answered with.
func (e *StatusError) UpstreamStatus() int {
	return e.StatusCode
}

// NewClient creates a client with the following transport stack:
//  1. httpcache (ETag and Cache-Control aware in-memory caching)
//  2. go-github-ratelimit (sleeps and retries when the API answers 429 with Retry-After)
//  3. http.Client with the given timeout
func NewClient(endpoints Endpoints, keys driven.KeySource, timeout time.Duration) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	rateLimitClient.Timeout = timeout

	return NewClientWithHTTPClient(rateLimitClient, endpoints, keys)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, endpoints Endpoints, keys driven.KeySource) (*Client, error) {
	c := &Client{http: httpClient, keys: keys}

	var err error
	if c.csse, err = parseBaseURL(endpoints.CSSE); err != nil {
		return nil, fmt.Errorf("parsing csse URL: %w", err)
	}
	if c.vaccovid, err = parseBaseURL(endpoints.Vaccovid); err != nil {
		return nil, fmt.Errorf("parsing vaccovid URL: %w", err)
	}
	if endpoints.Stocks != "" {
		if c.stocks, err = parseBaseURL(endpoints.Stocks); err != nil {
			return nil, fmt.Errorf("parsing stocks URL: %w", err)
		}
	}

	return c, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute URL", raw)
	}
	return u, nil
}

// endpoint joins base and path, keeping any path prefix of base.
func endpoint(base *url.URL, path string) *url.URL {
	u := *base
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	u.RawQuery = ""
	return &u
}

// do attaches the RapidAPI headers for service, executes req and returns the
// body of a 2xx response.
func (c *Client) do(ctx context.Context, req *http.Request, service string) ([]byte, error) {
	key, err := c.keys.APIKey(ctx, service)
	if err != nil {
		return nil, fmt.Errorf("resolving %s api key: %w", service, err)
	}

	req.Header.Set("X-RapidAPI-Key", key)
	req.Header.Set("X-RapidAPI-Host", req.URL.Hostname())
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", service, err)
	}

	logRateLimit(resp, service, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &StatusError{
			Method:     req.Method,
			URL:        req.URL.Redacted(),
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       snippet,
		}
	}

	return body, nil
}

// logRateLimit logs the RapidAPI quota headers at debug level and warns when
// the remaining request count is low.
func logRateLimit(resp *http.Response, service string, elapsed time.Duration) {
	remaining := resp.Header.Get("X-RateLimit-Requests-Remaining")
	cached := resp.Header.Get(httpcache.XFromCache) != ""

	slog.Debug("upstream response",
		"service", service,
		"status", resp.StatusCode,
		"elapsed", elapsed,
		"cached", cached,
		"requests_remaining", remaining,
	)

	if remaining == "0" {
		slog.Warn("upstream request quota exhausted", "service", service)
	}
}
