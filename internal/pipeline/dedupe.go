package pipeline

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/leadradar/leadradar-cli/internal/model"
)

var foldCaser = cases.Fold()

// dedupeKey normalizes a name fragment for duplicate grouping: trimmed and
// Unicode-casefolded (so "MÜLLER" and "müller" collide).
func dedupeKey(s string) string {
	return foldCaser.String(strings.TrimSpace(s))
}

type dupeGroupKey struct {
	company string
	city    string
}

// Dedupe collapses records that represent the same organization, keyed by
// casefolded (company, city). Within a group the survivor is chosen by:
// enriched source first, then higher score, then more populated fields, then
// earliest input position. Group order follows first appearance in the
// input, so the result is deterministic for a given input.
func Dedupe(leads []model.Lead) []model.Lead {
	if len(leads) <= 1 {
		return leads
	}

	type member struct {
		lead model.Lead
		pos  int
	}

	order := make([]dupeGroupKey, 0, len(leads))
	groups := make(map[dupeGroupKey][]member, len(leads))

	for i, l := range leads {
		key := dupeGroupKey{company: dedupeKey(l.Company), city: dedupeKey(l.City)}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], member{lead: l, pos: i})
	}

	out := make([]model.Lead, 0, len(order))
	for _, key := range order {
		members := groups[key]
		if len(members) == 1 {
			out = append(out, members[0].lead)
			continue
		}

		sort.SliceStable(members, func(i, j int) bool {
			a, b := members[i], members[j]
			if ae, be := a.lead.Enriched(), b.lead.Enriched(); ae != be {
				return ae
			}
			if a.lead.Score != b.lead.Score {
				return a.lead.Score > b.lead.Score
			}
			if af, bf := a.lead.FieldCount(), b.lead.FieldCount(); af != bf {
				return af > bf
			}
			return a.pos < b.pos
		})
		out = append(out, members[0].lead)
	}
	return out
}
