package recommend

import (
	"alcyxob/gym-app/internal/domain"
	"sort"
)

type tally struct {
	key   string
	count int
}

// RankCategories returns the user's most used equipment categories, most
// used first, at most limit entries. Every workout item counts once toward
// the category of its equipment. Items whose equipment is missing from the
// catalog are dropped; equipment without a category contributes nothing.
// Ties keep the order in which categories were first seen.
func RankCategories(workouts []domain.Workout, catalog Catalog, limit int) ([]string, Stats) {
	var stats Stats
	counts := make(map[string]*tally)
	order := make([]*tally, 0)

	for _, w := range workouts {
		for _, it := range w.Items {
			stats.Considered++
			eq, ok := catalog.Lookup(it.Equipment.ID)
			if !ok {
				stats.Dropped++
				continue
			}
			if eq.Category == "" {
				continue
			}
			t, seen := counts[eq.Category]
			if !seen {
				t = &tally{key: eq.Category}
				counts[eq.Category] = t
				order = append(order, t)
			}
			t.count++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].count > order[j].count
	})
	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}

	categories := make([]string, len(order))
	for i, t := range order {
		categories[i] = t.key
	}
	return categories, stats
}
