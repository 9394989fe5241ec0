package recommend

import (
	"alcyxob/gym-app/internal/domain"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PopularEquipment is one entry of a popularity ranking.
type PopularEquipment struct {
	EquipmentID primitive.ObjectID `json:"equipmentId"`
	Uses        int                `json:"uses"`
}

// RankPopularity counts how many workout items reference each piece of
// equipment and returns the top limit entries, most used first. When gymID
// is non-nil only workouts logged at that gym are counted. A nil catalog
// counts every reference; otherwise references missing from it are dropped.
// Ties keep the order in which equipment was first seen.
func RankPopularity(workouts []domain.Workout, gymID *primitive.ObjectID, catalog Catalog, limit int) ([]PopularEquipment, Stats) {
	var stats Stats
	index := make(map[primitive.ObjectID]int)
	ranking := make([]PopularEquipment, 0)

	for _, w := range workouts {
		if gymID != nil && w.Gym.ID != *gymID {
			continue
		}
		for _, it := range w.Items {
			stats.Considered++
			id := it.Equipment.ID
			if catalog != nil {
				if _, ok := catalog.Lookup(id); !ok {
					stats.Dropped++
					continue
				}
			}
			i, seen := index[id]
			if !seen {
				i = len(ranking)
				index[id] = i
				ranking = append(ranking, PopularEquipment{EquipmentID: id})
			}
			ranking[i].Uses++
		}
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Uses > ranking[j].Uses
	})
	if limit > 0 && len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking, stats
}
