package repository

import (
	"alcyxob/gym-app/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	// AddManagedGym adds gymID to the user's gymsManaged set.
	AddManagedGym(ctx context.Context, userID, gymID primitive.ObjectID) error
	// RemoveManagedGym pulls gymID from every user's gymsManaged.
	RemoveManagedGym(ctx context.Context, gymID primitive.ObjectID) error
}

// GymRepository defines the interface for interacting with gym data.
type GymRepository interface {
	Create(ctx context.Context, gym *domain.Gym) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Gym, error)
	List(ctx context.Context) ([]domain.Gym, error)
	Update(ctx context.Context, gym *domain.Gym) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// AddManager adds userID to the gym's managers (set semantics).
	AddManager(ctx context.Context, gymID, userID primitive.ObjectID) (*domain.Gym, error)
}

// EquipmentFilter narrows an equipment search. Zero values are ignored.
type EquipmentFilter struct {
	Query    string // case-insensitive match on name or brand
	Category string
	Brand    string
	Status   domain.EquipmentStatus
}

// EquipmentRepository defines the interface for interacting with the equipment catalog.
type EquipmentRepository interface {
	Create(ctx context.Context, equipment *domain.Equipment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Equipment, error)
	// GetByIDs resolves a set of ids. Unknown ids are simply absent from the result.
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Equipment, error)
	ListByGym(ctx context.Context, gymID primitive.ObjectID) ([]domain.Equipment, error)
	Search(ctx context.Context, gymID primitive.ObjectID, filter EquipmentFilter) ([]domain.Equipment, error)
	// Update replaces the mutable fields (name, category, brand, status, images, meta).
	Update(ctx context.Context, equipment *domain.Equipment) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.EquipmentStatus) (*domain.Equipment, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// WorkoutRepository defines the interface for interacting with the workout log.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	// GetByID loads a workout regardless of owner; callers check ownership.
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	// UpdateOwned replaces items and endedAt of a workout owned by userID.
	// A missing or foreign workout yields ErrNotFound.
	UpdateOwned(ctx context.Context, id, userID primitive.ObjectID, items []domain.WorkoutItem, endedAt *time.Time) (*domain.Workout, error)
	// ListByUser returns every workout logged by userID.
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Workout, error)
	// ListByGym returns the workouts logged at gymID, or all workouts when gymID is nil.
	ListByGym(ctx context.Context, gymID *primitive.ObjectID) ([]domain.Workout, error)
	// ListHistory returns a page of the user's workouts, most recent first,
	// with item equipment populated with {name, category}.
	ListHistory(ctx context.Context, userID primitive.ObjectID, skip, limit int64) ([]domain.Workout, error)
}
