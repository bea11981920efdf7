package ledger

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// AvailableDraftees drops every prospect whose id is in drafted. Input order is kept.
func AvailableDraftees(draftees []models.Draftee, drafted map[int]struct{}) []models.Draftee {
	out := make([]models.Draftee, 0, len(draftees))
	for _, d := range draftees {
		if _, taken := drafted[d.ID]; !taken {
			out = append(out, d)
		}
	}
	return out
}

// SearchDraftees matches query against first, last and full names. A
// case-insensitive substring always matches; otherwise the closest name must
// be within maxDistance edits. Results are ordered by distance, then id.
func SearchDraftees(draftees []models.Draftee, query string, maxDistance int) []models.Draftee {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return draftees
	}

	type match struct {
		draftee  models.Draftee
		distance int
	}
	var matches []match
	for _, d := range draftees {
		best := -1
		for _, name := range []string{d.FullName(), d.FirstName, d.LastName} {
			name = strings.ToLower(name)
			if name == "" {
				continue
			}
			dist := levenshtein.ComputeDistance(q, name)
			if strings.Contains(name, q) {
				dist = 0
			}
			if best < 0 || dist < best {
				best = dist
			}
		}
		if best >= 0 && best <= maxDistance {
			matches = append(matches, match{draftee: d, distance: best})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].draftee.ID < matches[j].draftee.ID
	})
	out := make([]models.Draftee, len(matches))
	for i, m := range matches {
		out[i] = m.draftee
	}
	return out
}
