package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/leadradar/leadradar-cli/internal/cache"
	"github.com/leadradar/leadradar-cli/internal/config"
	"github.com/leadradar/leadradar-cli/internal/pipeline"
	"github.com/leadradar/leadradar-cli/internal/resilience"
	"github.com/leadradar/leadradar-cli/pkg/nominatim"
	"github.com/leadradar/leadradar-cli/pkg/overpass"
)

// newCacheStore builds the configured cache store backend.
func newCacheStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Driver {
	case "", "sqlite":
		return cache.NewSQLite(cfg.Cache.Path, cfg.Cache.TTL())
	case "postgres":
		return cache.NewPostgres(ctx, cfg.Cache.DatabaseURL, cfg.Cache.TTL())
	case "memory":
		return cache.NewMemory(cfg.Cache.TTL()), nil
	default:
		return nil, eris.Errorf("unknown cache driver: %s", cfg.Cache.Driver)
	}
}

// newPipeline wires the pipeline collaborators from config.
func newPipeline(cfg *config.Config, store cache.Store) *pipeline.Pipeline {
	policy := resilience.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Backoff:     cfg.Retry.Backoff(),
	}

	resolver := nominatim.NewClient(
		nominatim.WithBaseURL(cfg.Geo.NominatimURL),
		nominatim.WithCountry(cfg.Geo.Country),
		nominatim.WithUserAgent(cfg.Geo.UserAgent),
		nominatim.WithRateLimit(cfg.Geo.NominatimRPS),
		nominatim.WithRetryPolicy(policy),
	)
	ovp := overpass.NewClient(
		overpass.WithBaseURL(cfg.Geo.OverpassURL),
		overpass.WithUserAgent(cfg.Geo.UserAgent),
		overpass.WithRetryPolicy(policy),
	)
	enricher := pipeline.NewEnricher(cfg.Enrich, cfg.Geo.UserAgent)

	return pipeline.New(store, resolver, ovp, enricher)
}
