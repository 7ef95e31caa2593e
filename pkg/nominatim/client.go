// Package nominatim resolves free-text place names to OSM administrative
// area identifiers via the Nominatim geocoding API.
package nominatim

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/leadradar/leadradar-cli/internal/resilience"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Overpass area ids are derived from the OSM id of the matched entity.
// Relations map into the 3.6e9 range, ways into 2.4e9.
const (
	relationAreaOffset = 3600000000
	wayAreaOffset      = 2400000000
)

// ErrNotFound is returned when the location resolves to nothing. Callers
// treat it as "no leads found", not as a failure.
var ErrNotFound = eris.New("nominatim: location not found")

// Client resolves location names to Overpass area ids.
type Client interface {
	// ResolveAreaID resolves a town/municipality name to an area id.
	// Returns ErrNotFound when the lookup yields zero results.
	ResolveAreaID(ctx context.Context, location string) (int64, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithUserAgent sets the User-Agent header. Nominatim's usage policy
// requires an identifying agent.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) { c.userAgent = ua }
}

// WithCountry sets the country appended to every lookup query.
func WithCountry(country string) Option {
	return func(c *httpClient) { c.country = country }
}

// WithRateLimit sets the requests-per-second limit for lookup calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithRetryPolicy sets the retry policy for lookup calls.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) { c.retry = p }
}

type httpClient struct {
	http      *http.Client
	baseURL   string
	userAgent string
	country   string
	limiter   *rate.Limiter
	retry     resilience.Policy
}

// NewClient creates a Nominatim client. Defaults: public endpoint, 1 req/s
// (the public instance's usage policy), Deutschland as lookup country.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		http:      &http.Client{Timeout: 20 * time.Second},
		baseURL:   defaultBaseURL,
		userAgent: "leadradar/1.0 (lead research; contact: ops@leadradar.local)",
		country:   "Deutschland",
		limiter:   rate.NewLimiter(1, 1),
		retry:     resilience.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResult is the subset of a Nominatim /search response entry we use.
type searchResult struct {
	OSMID   int64  `json:"osm_id"`
	OSMType string `json:"osm_type"`
}

func (c *httpClient) ResolveAreaID(ctx context.Context, location string) (int64, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return 0, ErrNotFound
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, eris.Wrap(err, "nominatim: rate limit wait")
	}

	p := c.retry
	if p.OnRetry == nil {
		p.OnRetry = resilience.RetryLogger("nominatim", "resolve_area")
	}

	res, err := resilience.DoVal(ctx, p, func(ctx context.Context) (*searchResult, error) {
		return c.search(ctx, location)
	})
	if err != nil {
		return 0, err
	}

	switch res.OSMType {
	case "relation":
		return relationAreaOffset + res.OSMID, nil
	case "way":
		return wayAreaOffset + res.OSMID, nil
	default:
		// Nodes carry no area of their own; the relation offset is the
		// conventional fallback.
		return relationAreaOffset + res.OSMID, nil
	}
}

func (c *httpClient) search(ctx context.Context, location string) (*searchResult, error) {
	q := url.Values{}
	q.Set("q", location+", "+c.country)
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: execute request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: read body")
	}

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(
			eris.Errorf("nominatim: status %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("nominatim: status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, eris.Wrap(err, "nominatim: decode response")
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return &results[0], nil
}
