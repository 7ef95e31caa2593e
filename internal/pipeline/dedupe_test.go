package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadradar/leadradar-cli/internal/model"
)

func TestDedupe_CasefoldedGrouping(t *testing.T) {
	leads := []model.Lead{
		{Company: "Müller GmbH", City: "Arnsberg"},
		{Company: "MÜLLER GMBH", City: "arnsberg"},
		{Company: "  müller gmbh ", City: "Arnsberg "},
	}

	out := Dedupe(leads)
	require.Len(t, out, 1)
	assert.Equal(t, "Müller GmbH", out[0].Company)
}

func TestDedupe_DistinctCitiesStaySeparate(t *testing.T) {
	leads := []model.Lead{
		{Company: "Müller GmbH", City: "Arnsberg"},
		{Company: "Müller GmbH", City: "Soest"},
	}

	out := Dedupe(leads)
	assert.Len(t, out, 2)
}

func TestDedupe_EnrichedBeatsScore(t *testing.T) {
	leads := []model.Lead{
		{Company: "A", City: "X", Source: "osm", Score: 90},
		{Company: "a", City: "x", Source: "osm/enriched", Score: 10},
	}

	out := Dedupe(leads)
	require.Len(t, out, 1)
	assert.Equal(t, "osm/enriched", out[0].Source)
}

func TestDedupe_ScoreBreaksTie(t *testing.T) {
	leads := []model.Lead{
		{Company: "A", City: "X", Source: "osm", Score: 40},
		{Company: "a", City: "x", Source: "osm", Score: 70},
	}

	out := Dedupe(leads)
	require.Len(t, out, 1)
	assert.Equal(t, 70, out[0].Score)
}

func TestDedupe_FieldCountBreaksScoreTie(t *testing.T) {
	leads := []model.Lead{
		{Company: "A", City: "X", Source: "osm", Score: 40},
		{Company: "a", City: "x", Source: "osm", Score: 40, Street: "Hauptstraße", Phone: "+49123456789"},
	}

	out := Dedupe(leads)
	require.Len(t, out, 1)
	assert.Equal(t, "Hauptstraße", out[0].Street)
}

func TestDedupe_InputPositionIsFinalTieBreak(t *testing.T) {
	leads := []model.Lead{
		{Company: "A", City: "X", Source: "osm", Score: 40, Street: "First"},
		{Company: "a", City: "x", Source: "osm", Score: 40, Street: "Second"},
	}

	out := Dedupe(leads)
	require.Len(t, out, 1)
	assert.Equal(t, "First", out[0].Street)
}

func TestDedupe_GroupOrderFollowsFirstAppearance(t *testing.T) {
	leads := []model.Lead{
		{Company: "Beta", City: "X"},
		{Company: "Alpha", City: "X"},
		{Company: "beta", City: "x"},
		{Company: "Gamma", City: "X"},
	}

	out := Dedupe(leads)
	require.Len(t, out, 3)
	assert.Equal(t, "Beta", out[0].Company)
	assert.Equal(t, "Alpha", out[1].Company)
	assert.Equal(t, "Gamma", out[2].Company)
}

func TestDedupe_SmallInputsPassThrough(t *testing.T) {
	assert.Empty(t, Dedupe(nil))
	one := []model.Lead{{Company: "Solo"}}
	assert.Equal(t, one, Dedupe(one))
}
