package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadradar/leadradar-cli/internal/model"
	"github.com/leadradar/leadradar-cli/pkg/nominatim"
	"github.com/leadradar/leadradar-cli/pkg/overpass"
)

// fetchLeads resolves the location to an area, builds and runs the Overpass
// query, and normalizes raw elements into leads. A location that resolves to
// nothing returns (nil, nil): no leads is a valid outcome, not a failure.
func (p *Pipeline) fetchLeads(ctx context.Context, category, location string) ([]model.Lead, error) {
	areaID, err := p.resolver.ResolveAreaID(ctx, location)
	if err != nil {
		if eris.Is(err, nominatim.ErrNotFound) {
			zap.L().Info("fetch: location did not resolve",
				zap.String("location", location),
			)
			return nil, nil
		}
		return nil, eris.Wrapf(err, "fetch: resolve area for %q", location)
	}

	query := overpass.BuildQuery(category, areaID)
	elements, err := p.overpass.Run(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: overpass query for %q in %q", category, location)
	}

	leads := make([]model.Lead, 0, len(elements))
	for _, el := range elements {
		leads = append(leads, leadFromElement(el, category, location))
	}

	zap.L().Info("fetch: normalized elements",
		zap.String("category", category),
		zap.String("location", location),
		zap.Int64("area_id", areaID),
		zap.Int("leads", len(leads)),
	)
	return leads, nil
}

// leadFromElement maps a raw Overpass element to a Lead. Missing tags
// default to empty strings; the city falls back to the queried location.
func leadFromElement(el overpass.Element, category, location string) model.Lead {
	tags := el.Tags
	lat, lon := el.Coordinates()

	lead := model.Lead{
		Company:     firstTag(tags, "name", "operator"),
		Category:    category,
		Street:      tags["addr:street"],
		Housenumber: tags["addr:housenumber"],
		Postcode:    tags["addr:postcode"],
		City:        tags["addr:city"],
		Phone:       firstTag(tags, "phone", "contact:phone"),
		Email:       firstTag(tags, "email", "contact:email"),
		Website:     firstTag(tags, "website", "contact:website", "url"),
		Source:      "osm",
		Lat:         lat,
		Lon:         lon,
	}
	lead.Normalize(location)
	return lead
}

// firstTag returns the first non-empty tag value, in priority order.
func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := tags[k]; v != "" {
			return v
		}
	}
	return ""
}
