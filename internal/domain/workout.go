package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutItem is one equipment usage inside a workout. Optional measures are
// pointers: nil means "not tracked for this item", not zero.
type WorkoutItem struct {
	Equipment   Ref      `bson:"equipment" json:"equipment"`
	Sets        *int     `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps        *int     `bson:"reps,omitempty" json:"reps,omitempty"`
	DurationMin *float64 `bson:"durationMin,omitempty" json:"durationMin,omitempty"`
	WeightKg    *float64 `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
	Notes       string   `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Workout represents a single logged session at a gym.
type Workout struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"user"` // Immutable after creation
	Gym       Ref                `bson:"gym" json:"gym"`
	Items     []WorkoutItem      `bson:"items" json:"items"` // Insertion order = exercise order
	StartedAt time.Time          `bson:"startedAt" json:"startedAt"`
	EndedAt   *time.Time         `bson:"endedAt,omitempty" json:"endedAt,omitempty"` // nil while in progress
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// EquipmentIDs returns the distinct equipment ids referenced by the given
// workouts, in order of first occurrence.
func EquipmentIDs(workouts []Workout) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{})
	ids := make([]primitive.ObjectID, 0)
	for _, w := range workouts {
		for _, it := range w.Items {
			if _, ok := seen[it.Equipment.ID]; ok {
				continue
			}
			seen[it.Equipment.ID] = struct{}{}
			ids = append(ids, it.Equipment.ID)
		}
	}
	return ids
}
