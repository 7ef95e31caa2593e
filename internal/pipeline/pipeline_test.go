package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadradar/leadradar-cli/internal/cache"
	"github.com/leadradar/leadradar-cli/internal/config"
	"github.com/leadradar/leadradar-cli/internal/model"
	"github.com/leadradar/leadradar-cli/pkg/nominatim"
	"github.com/leadradar/leadradar-cli/pkg/overpass"
)

type fakeResolver struct {
	areaID int64
	err    error
	calls  int
}

func (f *fakeResolver) ResolveAreaID(_ context.Context, _ string) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.areaID, nil
}

type fakeOverpass struct {
	elements  []overpass.Element
	err       error
	calls     int
	lastQuery string
}

func (f *fakeOverpass) Run(_ context.Context, query string) ([]overpass.Element, error) {
	f.calls++
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.elements, nil
}

func ptr(v float64) *float64 { return &v }

func testPipeline(resolver *fakeResolver, ovp *fakeOverpass) (*Pipeline, cache.Store) {
	store := cache.NewMemory(time.Hour)
	enricher := NewEnricher(config.EnrichConfig{PerHostRPS: 1000}, "leadradar-test/1.0")
	return New(store, resolver, ovp, enricher), store
}

func TestRun_FetchesAndScores(t *testing.T) {
	resolver := &fakeResolver{areaID: 3600001234}
	ovp := &fakeOverpass{elements: []overpass.Element{
		{
			Type: "node", ID: 1,
			Lat: ptr(51.4), Lon: ptr(8.06),
			Tags: map[string]string{
				"name":      "Müller GmbH",
				"addr:city": "Arnsberg",
				"phone":     "02932 12345678",
			},
		},
		{
			Type: "way", ID: 2,
			Center: &overpass.LatLon{Lat: 51.41, Lon: 8.07},
			Tags:   map[string]string{"name": "Elektro Schulte"},
		},
	}}
	p, _ := testPipeline(resolver, ovp)

	leads, err := p.Run(context.Background(), Request{Category: "shk", Location: "Arnsberg"})
	require.NoError(t, err)
	require.Len(t, leads, 2)

	first := leads[0]
	assert.Equal(t, "Müller GmbH", first.Company)
	assert.Equal(t, "shk", first.Category)
	assert.Equal(t, "Arnsberg", first.City)
	assert.Equal(t, "osm", first.Source)
	// phone 20 + city 10 + category 10 + source 5 + trade bonus 10
	assert.Equal(t, 55, first.Score)

	second := leads[1]
	// City falls back to the queried location.
	assert.Equal(t, "Arnsberg", second.City)
	require.NotNil(t, second.Lat)
	assert.InDelta(t, 51.41, *second.Lat, 1e-9)

	assert.Contains(t, ovp.lastQuery, "area(3600001234)")
}

func TestRun_SecondCallServedFromCache(t *testing.T) {
	resolver := &fakeResolver{areaID: 3600001234}
	ovp := &fakeOverpass{elements: []overpass.Element{
		{Type: "node", ID: 1, Tags: map[string]string{"name": "Bäcker Brand"}},
	}}
	p, _ := testPipeline(resolver, ovp)

	req := Request{Category: "handel", Location: "Soest"}

	first, err := p.Run(context.Background(), req)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, 1, ovp.calls)
}

func TestRun_UnresolvableLocationIsEmptyNotError(t *testing.T) {
	resolver := &fakeResolver{err: nominatim.ErrNotFound}
	ovp := &fakeOverpass{}
	p, _ := testPipeline(resolver, ovp)

	leads, err := p.Run(context.Background(), Request{Category: "shk", Location: "Atlantis"})
	require.NoError(t, err)
	assert.NotNil(t, leads)
	assert.Empty(t, leads)
	assert.Zero(t, ovp.calls)
}

func TestRun_OverpassFailurePropagates(t *testing.T) {
	resolver := &fakeResolver{areaID: 3600001234}
	ovp := &fakeOverpass{err: eris.New("interpreter busy")}
	p, _ := testPipeline(resolver, ovp)

	_, err := p.Run(context.Background(), Request{Category: "shk", Location: "Arnsberg"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interpreter busy")
}

func TestRun_DeduplicatesFetchedLeads(t *testing.T) {
	resolver := &fakeResolver{areaID: 3600001234}
	ovp := &fakeOverpass{elements: []overpass.Element{
		{Type: "node", ID: 1, Tags: map[string]string{"name": "Doppelt GmbH", "addr:city": "Hamm"}},
		{Type: "node", ID: 2, Tags: map[string]string{"name": "DOPPELT GMBH", "addr:city": "hamm"}},
	}}
	p, _ := testPipeline(resolver, ovp)

	leads, err := p.Run(context.Background(), Request{Category: "elektro", Location: "Hamm"})
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestRun_CachesPreEnrichmentResult(t *testing.T) {
	resolver := &fakeResolver{areaID: 3600001234}
	ovp := &fakeOverpass{elements: []overpass.Element{
		{Type: "node", ID: 1, Tags: map[string]string{"name": "Ohne Netz", "addr:city": "Hamm"}},
	}}
	p, store := testPipeline(resolver, ovp)

	// Enrichment runs (the lead has no website, so no network happens) but
	// its output must not land in the cache.
	leads, err := p.Run(context.Background(), Request{Category: "elektro", Location: "Hamm", Enrich: true})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "osm/enriched", leads[0].Source)

	cached, err := store.Get(context.Background(), "elektro", "Hamm")
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "osm", cached[0].Source)
}

func TestRun_CachedLeadsAreRescored(t *testing.T) {
	store := cache.NewMemory(time.Hour)
	enricher := NewEnricher(config.EnrichConfig{}, "")
	resolver := &fakeResolver{}
	ovp := &fakeOverpass{}
	p := New(store, resolver, ovp, enricher)

	// Seed the cache with a stale score.
	seeded := []model.Lead{{Company: "Alt GmbH", Category: "shk", City: "Soest", Source: "osm", Score: 1}}
	require.NoError(t, store.Put(context.Background(), "shk", "Soest", seeded))

	leads, err := p.Run(context.Background(), Request{Category: "shk", Location: "Soest"})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	// city 10 + category 10 + source 5 + trade bonus 10
	assert.Equal(t, 35, leads[0].Score)
	assert.Zero(t, resolver.calls)
}
