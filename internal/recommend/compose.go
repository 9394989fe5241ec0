package recommend

import (
	"alcyxob/gym-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result is the final recommendation set returned to callers.
type Result struct {
	CategoriesLiked []string           `json:"categoriesLiked"`
	Recommendations []domain.Equipment `json:"recommendations"`
}

// Compose walks the popularity ranking in order and keeps only ACTIVE
// equipment. When the affinity list is non-empty, only equipment whose
// category is in it survives. An empty affinity list disables the category
// filter so users without history still get popularity-based results. A
// non-nil gymID also drops equipment owned by any other gym. At most limit
// records are returned.
func Compose(affinity []string, ranking []PopularEquipment, catalog Catalog, gymID *primitive.ObjectID, limit int) Result {
	liked := make(map[string]struct{}, len(affinity))
	for _, c := range affinity {
		liked[c] = struct{}{}
	}

	recs := make([]domain.Equipment, 0)
	for _, p := range ranking {
		if limit > 0 && len(recs) >= limit {
			break
		}
		eq, ok := catalog.Lookup(p.EquipmentID)
		if !ok || !eq.IsActive() {
			continue
		}
		if gymID != nil && eq.GymID != *gymID {
			continue
		}
		if len(liked) > 0 {
			if _, ok := liked[eq.Category]; !ok {
				continue
			}
		}
		recs = append(recs, *eq)
	}

	categories := affinity
	if categories == nil {
		categories = []string{}
	}
	return Result{CategoriesLiked: categories, Recommendations: recs}
}
