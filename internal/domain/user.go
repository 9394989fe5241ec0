package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleManager Role = "MANAGER"
	RoleMember  Role = "MEMBER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleManager || r == RoleMember
}

// User represents a user in the system (either a gym Manager or a Member).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"` // Unique
	Name         string             `bson:"name" json:"name"`
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Manager-specific ---
	// Gyms this user manages. Kept in sync with Gym.Managers.
	GymsManaged []primitive.ObjectID `bson:"gymsManaged,omitempty" json:"gymsManaged,omitempty"`
}

func (u *User) IsManager() bool {
	return u.Role == RoleManager
}

func (u *User) IsMember() bool {
	return u.Role == RoleMember
}
