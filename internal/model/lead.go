// Package model defines the lead record shared by every pipeline stage.
package model

import (
	"strings"
	"time"
)

// Lead is a discovered organization with identity, address, contact, and
// score fields. Every field is always present; missing upstream data is
// defaulted to "" (strings), nil (coordinates), or 0 (score). The JSON field
// names are the stable contract the exporters and the HTTP API depend on.
type Lead struct {
	Company     string `json:"company"`
	Category    string `json:"category"`
	Street      string `json:"street"`
	Housenumber string `json:"housenumber"`
	Postcode    string `json:"postcode"`
	City        string `json:"city"`

	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Website string `json:"website"`

	// Source is the provenance tag, e.g. "osm" or "osm/enriched".
	Source string `json:"source"`

	// Proof URLs point at the pages that produced enriched contact data.
	ProofContactURL   string `json:"proof_contact_url"`
	ProofImpressumURL string `json:"proof_impressum_url"`

	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`

	// Score is the outreach-relevance score, always in [0,100].
	Score int `json:"score"`
}

// Normalize fills defaulted fields so a Lead has a uniform shape:
// city falls back to the queried location and the score is clamped to [0,100].
func (l *Lead) Normalize(defaultCity string) {
	if strings.TrimSpace(l.City) == "" {
		l.City = defaultCity
	}
	if l.Score < 0 {
		l.Score = 0
	}
	if l.Score > 100 {
		l.Score = 100
	}
}

// FieldCount returns the number of populated fields. Used as the
// deterministic dedupe tie-break: the record carrying more data wins.
func (l *Lead) FieldCount() int {
	n := 0
	for _, s := range []string{
		l.Company, l.Category, l.Street, l.Housenumber, l.Postcode, l.City,
		l.Phone, l.Email, l.Website, l.Source,
		l.ProofContactURL, l.ProofImpressumURL,
	} {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	if l.Lat != nil {
		n++
	}
	if l.Lon != nil {
		n++
	}
	return n
}

// Enriched reports whether the lead went through the enrichment stage.
func (l *Lead) Enriched() bool {
	return strings.Contains(strings.ToLower(l.Source), "enriched")
}

// Address renders the postal address as a single display line.
func (l *Lead) Address() string {
	street := strings.TrimSpace(l.Street + " " + l.Housenumber)
	town := strings.TrimSpace(l.Postcode + " " + l.City)
	switch {
	case street == "":
		return town
	case town == "":
		return street
	default:
		return street + ", " + town
	}
}

// CacheEntry is the serialized payload stored per (category, location) key.
type CacheEntry struct {
	CachedAt time.Time `json:"cached_at"`
	Leads    []Lead    `json:"leads"`
}
