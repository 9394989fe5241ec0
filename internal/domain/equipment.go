// internal/domain/equipment.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EquipmentStatus tracks the lifecycle of a piece of equipment.
type EquipmentStatus string

const (
	StatusActive      EquipmentStatus = "ACTIVE"
	StatusMaintenance EquipmentStatus = "MAINTENANCE"
	StatusRetired     EquipmentStatus = "RETIRED"
)

// Valid reports whether s is one of the known statuses.
func (s EquipmentStatus) Valid() bool {
	switch s {
	case StatusActive, StatusMaintenance, StatusRetired:
		return true
	}
	return false
}

// EquipmentImage points at an image stored in the object store.
type EquipmentImage struct {
	URL    string `bson:"url" json:"url"`
	Key    string `bson:"key" json:"key"`
	Bucket string `bson:"bucket" json:"bucket"`
}

// Equipment is a single machine or station registered at a gym.
type Equipment struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	GymID     primitive.ObjectID     `bson:"gym" json:"gym"`
	Name      string                 `bson:"name" json:"name"`
	Category  string                 `bson:"category,omitempty" json:"category,omitempty"` // e.g., "Cardio", "Strength"
	Brand     string                 `bson:"brand,omitempty" json:"brand,omitempty"`
	Status    EquipmentStatus        `bson:"status" json:"status"`
	Images    []string               `bson:"images" json:"images"`     // Public URLs, parallel to S3Images
	S3Images  []EquipmentImage       `bson:"s3Images" json:"s3Images"` // Object store details
	Meta      map[string]interface{} `bson:"meta,omitempty" json:"meta,omitempty"`
	CreatedBy *primitive.ObjectID    `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt time.Time              `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time              `bson:"updatedAt" json:"updatedAt"`
}

// IsActive reports whether the equipment can be recommended.
func (e *Equipment) IsActive() bool {
	return e.Status == StatusActive
}
