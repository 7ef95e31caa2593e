package pipeline

import (
	"strings"

	"github.com/leadradar/leadradar-cli/internal/model"
)

// Presence weights for the transparent outreach-relevance score.
var scoreWeights = []struct {
	field  func(model.Lead) string
	points int
}{
	{func(l model.Lead) string { return l.Email }, 25},
	{func(l model.Lead) string { return l.Phone }, 20},
	{func(l model.Lead) string { return l.Website }, 15},
	{func(l model.Lead) string { return l.City }, 10},
	{func(l model.Lead) string { return l.Category }, 10},
	{func(l model.Lead) string { return l.Source }, 5},
}

// tradeKeywords earn a category bonus: the trades this tool is pointed at.
var tradeKeywords = []string{"shk", "elektro", "heizung", "sanit", "install"}

// Score computes the 0..100 relevance score: additive presence weights plus
// a trade-keyword bonus, capped at 100.
func Score(l model.Lead) int {
	s := 0
	for _, w := range scoreWeights {
		if strings.TrimSpace(w.field(l)) != "" {
			s += w.points
		}
	}

	cat := strings.ToLower(l.Category)
	for _, kw := range tradeKeywords {
		if strings.Contains(cat, kw) {
			s += 10
			break
		}
	}

	if s > 100 {
		s = 100
	}
	return s
}

// scoreAll recomputes the score on every lead in place.
func scoreAll(leads []model.Lead) {
	for i := range leads {
		leads[i].Score = Score(leads[i])
	}
}
