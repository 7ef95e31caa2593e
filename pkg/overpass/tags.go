package overpass

import (
	"sort"
	"strings"
)

// Tag is a single OSM tag predicate, e.g. craft=hvac. A Value of "*" matches
// any value for the key.
type Tag struct {
	Key   string
	Value string
}

// categoryTags maps a business category to the OSM tag predicates used to
// find it. Multiple predicates per category are ORed in the query.
var categoryTags = map[string][]Tag{
	"shk": {
		{Key: "craft", Value: "hvac"},
		{Key: "craft", Value: "plumber"},
		{Key: "shop", Value: "hvac"},
		{Key: "shop", Value: "bathroom_furnishing"},
		{Key: "shop", Value: "plumbing"},
	},
	"elektro": {
		{Key: "craft", Value: "electrician"},
		{Key: "shop", Value: "electronics"},
		{Key: "shop", Value: "electrical"},
	},
	"aerzte": {
		{Key: "amenity", Value: "doctors"},
		{Key: "healthcare", Value: "doctor"},
		{Key: "amenity", Value: "clinic"},
	},
	"steuerberater": {
		{Key: "office", Value: "accountant"},
		{Key: "office", Value: "tax_advisor"},
	},
	"makler": {
		{Key: "office", Value: "estate_agent"},
		{Key: "office", Value: "real_estate_agent"},
	},
	"handel": {
		{Key: "shop", Value: "hardware"},
		{Key: "shop", Value: "building_materials"},
		{Key: "shop", Value: "doityourself"},
	},
	"galabau": {
		{Key: "craft", Value: "gardener"},
		{Key: "shop", Value: "garden_centre"},
		{Key: "shop", Value: "garden_furniture"},
	},
}

// fallbackTags matches any shop when the category is unknown.
var fallbackTags = []Tag{{Key: "shop", Value: "*"}}

// TagsFor returns the tag predicates for a category (case-insensitive).
// Unknown categories fall back to a generic any-shop predicate.
func TagsFor(category string) []Tag {
	if tags, ok := categoryTags[strings.ToLower(strings.TrimSpace(category))]; ok {
		return tags
	}
	return fallbackTags
}

// Known reports whether the category has a dedicated tag mapping.
func Known(category string) bool {
	_, ok := categoryTags[strings.ToLower(strings.TrimSpace(category))]
	return ok
}

// Categories returns the known category names, sorted.
func Categories() []string {
	out := make([]string, 0, len(categoryTags))
	for c := range categoryTags {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
