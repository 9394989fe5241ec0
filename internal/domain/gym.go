package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Gym is a physical location whose equipment is tracked.
type Gym struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string               `bson:"name" json:"name"`
	Address   string               `bson:"address,omitempty" json:"address,omitempty"`
	Managers  []primitive.ObjectID `bson:"managers" json:"managers"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// IsManagedBy reports whether userID is listed among the gym's managers.
func (g *Gym) IsManagedBy(userID primitive.ObjectID) bool {
	for _, m := range g.Managers {
		if m == userID {
			return true
		}
	}
	return false
}
