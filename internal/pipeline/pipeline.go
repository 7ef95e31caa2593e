// Package pipeline implements the lead acquisition flow: cache lookup, area
// resolution, POI fetch, dedupe, enrichment, and scoring.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadradar/leadradar-cli/internal/cache"
	"github.com/leadradar/leadradar-cli/internal/model"
	"github.com/leadradar/leadradar-cli/pkg/nominatim"
	"github.com/leadradar/leadradar-cli/pkg/overpass"
)

// Request describes a single lead hunt.
type Request struct {
	Category string
	Location string
	Enrich   bool
}

// Pipeline wires the stage collaborators. The cache store is injected so
// tests can swap in the in-memory implementation.
type Pipeline struct {
	cache    cache.Store
	resolver nominatim.Client
	overpass overpass.Client
	enricher *Enricher
}

// New creates a Pipeline from its collaborators.
func New(cacheStore cache.Store, resolver nominatim.Client, ovp overpass.Client, enricher *Enricher) *Pipeline {
	return &Pipeline{
		cache:    cacheStore,
		resolver: resolver,
		overpass: ovp,
		enricher: enricher,
	}
}

// Run executes the pipeline for one request. An unresolvable location yields
// an empty list and no error; a fetch failure (after retries) propagates so
// the caller can degrade gracefully. Output order follows fetch order;
// display sorting is the caller's concern.
func (p *Pipeline) Run(ctx context.Context, req Request) ([]model.Lead, error) {
	leads, err := p.cache.Get(ctx, req.Category, req.Location)
	if err != nil {
		zap.L().Warn("pipeline: cache lookup failed",
			zap.String("category", req.Category),
			zap.String("location", req.Location),
			zap.Error(err),
		)
	}
	fromCache := leads != nil
	if fromCache {
		zap.L().Info("pipeline: cache hit",
			zap.String("category", req.Category),
			zap.String("location", req.Location),
			zap.Int("leads", len(leads)),
		)
	}

	if !fromCache {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "pipeline: cancelled")
		}

		leads, err = p.fetchLeads(ctx, req.Category, req.Location)
		if err != nil {
			return nil, err
		}
		if leads == nil {
			// Location did not resolve: a valid empty result.
			return []model.Lead{}, nil
		}

		leads = Dedupe(leads)
		scoreAll(leads)

		// The cache holds the pre-enrichment result; enrichment output is
		// intentionally never cached.
		if err := p.cache.Put(ctx, req.Category, req.Location, leads); err != nil {
			zap.L().Warn("pipeline: cache store failed",
				zap.String("category", req.Category),
				zap.String("location", req.Location),
				zap.Error(err),
			)
		}
	}

	if req.Enrich && len(leads) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "pipeline: cancelled")
		}

		leads = p.enricher.Enrich(ctx, leads)
		// Enrichment may have collapsed former near-duplicates into exact
		// ones; dedupe again, then rescore so scores are never stale.
		leads = Dedupe(leads)
	}

	scoreAll(leads)

	return leads, nil
}
