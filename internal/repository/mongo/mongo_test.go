package mongo

import (
	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/repository"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEquipmentSearchFilter(t *testing.T) {
	gymID := primitive.NewObjectID()

	t.Run("gym only", func(t *testing.T) {
		f := equipmentSearchFilter(gymID, repository.EquipmentFilter{Query: "  "})
		if len(f) != 1 || f["gym"] != gymID {
			t.Errorf("expected gym-only filter, got %v", f)
		}
	})

	t.Run("all fields", func(t *testing.T) {
		f := equipmentSearchFilter(gymID, repository.EquipmentFilter{
			Query:    "leg press (v2)",
			Category: "Strength",
			Brand:    "life",
			Status:   domain.StatusActive,
		})

		or, ok := f["$or"].(bson.A)
		if !ok || len(or) != 2 {
			t.Fatalf("expected $or over name and brand, got %v", f["$or"])
		}
		name := or[0].(bson.M)["name"].(primitive.Regex)
		if name.Pattern != `leg press \(v2\)` || name.Options != "i" {
			t.Errorf("expected escaped case-insensitive pattern, got %+v", name)
		}
		if f["category"] != "Strength" {
			t.Errorf("expected exact category, got %v", f["category"])
		}
		if f["status"] != domain.StatusActive {
			t.Errorf("expected status filter, got %v", f["status"])
		}
		if brand := f["brand"].(primitive.Regex); brand.Pattern != "life" || brand.Options != "i" {
			t.Errorf("unexpected brand pattern %+v", brand)
		}
	})
}

func TestApplyPopulated(t *testing.T) {
	known := primitive.NewObjectID()
	deleted := primitive.NewObjectID()
	workouts := []domain.Workout{{
		Items: []domain.WorkoutItem{
			{Equipment: domain.NewRef(known)},
			{Equipment: domain.NewRef(deleted)},
		},
	}}

	applyPopulated(workouts, map[primitive.ObjectID]map[string]interface{}{
		known: {"name": "Rower", "category": "Cardio"},
	})

	if got := workouts[0].Items[0].Equipment; !got.IsPopulated() || got.Field("category") != "Cardio" {
		t.Errorf("expected populated ref, got %+v", got)
	}
	if got := workouts[0].Items[1].Equipment; got.IsPopulated() || got.ID != deleted {
		t.Errorf("expected bare ref for deleted equipment, got %+v", got)
	}
}
