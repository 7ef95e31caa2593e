package nominatim

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadradar/leadradar-cli/internal/resilience"
)

func fastPolicy() resilience.Policy {
	return resilience.Policy{
		MaxAttempts: 3,
		Backoff:     []time.Duration{time.Millisecond},
	}
}

func testClient(baseURL string) Client {
	return NewClient(
		WithBaseURL(baseURL),
		WithRateLimit(1000),
		WithRetryPolicy(fastPolicy()),
	)
}

func TestResolveAreaID_OSMTypeMapping(t *testing.T) {
	tests := []struct {
		name    string
		osmType string
		osmID   int64
		want    int64
	}{
		{"relation", "relation", 62499, 3600062499},
		{"way", "way", 12345, 2400012345},
		{"node falls back to relation offset", "node", 777, 3600000777},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/search", r.URL.Path)
				assert.Equal(t, "Arnsberg, Deutschland", r.URL.Query().Get("q"))
				assert.Equal(t, "1", r.URL.Query().Get("limit"))
				fmt.Fprintf(w, `[{"osm_id": %d, "osm_type": %q}]`, tt.osmID, tt.osmType)
			}))
			defer srv.Close()

			got, err := testClient(srv.URL).ResolveAreaID(context.Background(), "Arnsberg")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveAreaID_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ResolveAreaID(context.Background(), "Atlantis")
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestResolveAreaID_EmptyLocationSkipsRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ResolveAreaID(context.Background(), "   ")
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.Zero(t, hits.Load())
}

func TestResolveAreaID_RetriesTransientStatus(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `[{"osm_id": 62499, "osm_type": "relation"}]`)
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).ResolveAreaID(context.Background(), "Arnsberg")
	require.NoError(t, err)
	assert.Equal(t, int64(3600062499), got)
	assert.Equal(t, int32(3), hits.Load())
}

func TestResolveAreaID_FatalStatusDoesNotRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ResolveAreaID(context.Background(), "Arnsberg")
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}
