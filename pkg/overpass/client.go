// Package overpass queries the OSM Overpass API for points of interest and
// holds the category-to-tag mapping plus the query builder.
package overpass

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/leadradar/leadradar-cli/internal/resilience"
)

const defaultBaseURL = "https://overpass-api.de/api/interpreter"

// Client executes Overpass QL queries.
type Client interface {
	// Run executes a query and returns the raw result elements.
	Run(ctx context.Context, query string) ([]Element, error)
}

// LatLon is a WGS84 coordinate pair.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Element is a single raw Overpass result (node, way, or relation).
type Element struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`

	// Lat/Lon are set for nodes; ways and relations carry Center instead.
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Center *LatLon  `json:"center"`

	Tags map[string]string `json:"tags"`
}

// Coordinates returns the element's own position or its computed center.
// Returns nils when the element has neither.
func (e Element) Coordinates() (*float64, *float64) {
	if e.Lat != nil && e.Lon != nil {
		return e.Lat, e.Lon
	}
	if e.Center != nil {
		lat, lon := e.Center.Lat, e.Center.Lon
		return &lat, &lon
	}
	return nil, nil
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom interpreter endpoint (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) { c.userAgent = ua }
}

// WithRetryPolicy sets the retry policy for queries.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) { c.retry = p }
}

type httpClient struct {
	http      *http.Client
	baseURL   string
	userAgent string
	retry     resilience.Policy
}

// NewClient creates an Overpass client against the public interpreter.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		http:      &http.Client{Timeout: 90 * time.Second},
		baseURL:   defaultBaseURL,
		userAgent: "leadradar/1.0 (lead research; contact: ops@leadradar.local)",
		retry:     resilience.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type interpreterResponse struct {
	Elements []Element `json:"elements"`
}

func (c *httpClient) Run(ctx context.Context, query string) ([]Element, error) {
	p := c.retry
	if p.OnRetry == nil {
		p.OnRetry = resilience.RetryLogger("overpass", "run_query")
	}

	return resilience.DoVal(ctx, p, func(ctx context.Context) ([]Element, error) {
		return c.post(ctx, query)
	})
}

func (c *httpClient) post(ctx context.Context, query string) ([]Element, error) {
	form := url.Values{"data": {query}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: execute request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: read body")
	}

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(
			eris.Errorf("overpass: status %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("overpass: status %d", resp.StatusCode)
	}

	var parsed interpreterResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "overpass: decode response")
	}
	return parsed.Elements, nil
}
