package service

import (
	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/logging"
	"alcyxob/gym-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrGymNotFound      = errors.New("gym not found")
	ErrNotGymManager    = errors.New("only managers of this gym can perform this action")
)

// GymUpdate carries optional gym changes; nil fields are left untouched.
type GymUpdate struct {
	Name    *string
	Address *string
}

// GymService defines the interface for gym management.
type GymService interface {
	Create(ctx context.Context, managerID primitive.ObjectID, name, address string) (*domain.Gym, error)
	List(ctx context.Context) ([]domain.Gym, error)
	Get(ctx context.Context, gymID primitive.ObjectID) (*domain.Gym, error)
	Update(ctx context.Context, actorID, gymID primitive.ObjectID, update GymUpdate) (*domain.Gym, error)
	Delete(ctx context.Context, actorID, gymID primitive.ObjectID) error
	AddManager(ctx context.Context, actorID, gymID, userID primitive.ObjectID) (*domain.Gym, error)
	// RequireManager returns the gym when actorID manages it.
	RequireManager(ctx context.Context, actorID, gymID primitive.ObjectID) (*domain.Gym, error)
}

// gymService implements GymService.
type gymService struct {
	gymRepo  repository.GymRepository
	userRepo repository.UserRepository
}

// NewGymService creates a new gym service.
func NewGymService(gymRepo repository.GymRepository, userRepo repository.UserRepository) GymService {
	return &gymService{gymRepo: gymRepo, userRepo: userRepo}
}

// Create registers a gym with the creator as its first manager.
func (s *gymService) Create(ctx context.Context, managerID primitive.ObjectID, name, address string) (*domain.Gym, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: gym name is required", ErrValidationFailed)
	}

	gym := &domain.Gym{
		Name:     name,
		Address:  strings.TrimSpace(address),
		Managers: []primitive.ObjectID{managerID},
	}
	gymID, err := s.gymRepo.Create(ctx, gym)
	if err != nil {
		return nil, err
	}
	gym.ID = gymID

	if err := s.userRepo.AddManagedGym(ctx, managerID, gymID); err != nil {
		// The gym exists either way; the user's back-reference is secondary.
		logging.Ctx(ctx).Warn().Err(err).Str("gym_id", gymID.Hex()).Str("user_id", managerID.Hex()).
			Msg("failed to add gym to manager's gymsManaged")
	}

	logging.Ctx(ctx).Info().Str("gym_id", gymID.Hex()).Str("manager_id", managerID.Hex()).Msg("gym created")
	return gym, nil
}

// List returns every gym.
func (s *gymService) List(ctx context.Context) ([]domain.Gym, error) {
	return s.gymRepo.List(ctx)
}

// Get returns a single gym.
func (s *gymService) Get(ctx context.Context, gymID primitive.ObjectID) (*domain.Gym, error) {
	gym, err := s.gymRepo.GetByID(ctx, gymID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGymNotFound
		}
		return nil, err
	}
	return gym, nil
}

// RequireManager loads the gym and checks that actorID is one of its managers.
func (s *gymService) RequireManager(ctx context.Context, actorID, gymID primitive.ObjectID) (*domain.Gym, error) {
	gym, err := s.Get(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if !gym.IsManagedBy(actorID) {
		return nil, ErrNotGymManager
	}
	return gym, nil
}

// Update changes the gym's name and/or address.
func (s *gymService) Update(ctx context.Context, actorID, gymID primitive.ObjectID, update GymUpdate) (*domain.Gym, error) {
	gym, err := s.RequireManager(ctx, actorID, gymID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: gym name cannot be empty", ErrValidationFailed)
		}
		gym.Name = name
	}
	if update.Address != nil {
		gym.Address = strings.TrimSpace(*update.Address)
	}

	if err := s.gymRepo.Update(ctx, gym); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGymNotFound
		}
		return nil, err
	}
	return gym, nil
}

// Delete removes the gym and drops it from every manager's gymsManaged.
func (s *gymService) Delete(ctx context.Context, actorID, gymID primitive.ObjectID) error {
	if _, err := s.RequireManager(ctx, actorID, gymID); err != nil {
		return err
	}

	if err := s.userRepo.RemoveManagedGym(ctx, gymID); err != nil {
		return err
	}
	if err := s.gymRepo.Delete(ctx, gymID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrGymNotFound
		}
		return err
	}

	logging.Ctx(ctx).Info().Str("gym_id", gymID.Hex()).Str("actor_id", actorID.Hex()).Msg("gym deleted")
	return nil
}

// AddManager lets an existing manager add another user as manager.
func (s *gymService) AddManager(ctx context.Context, actorID, gymID, userID primitive.ObjectID) (*domain.Gym, error) {
	if _, err := s.RequireManager(ctx, actorID, gymID); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	gym, err := s.gymRepo.AddManager(ctx, gymID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGymNotFound
		}
		return nil, err
	}
	if err := s.userRepo.AddManagedGym(ctx, userID, gymID); err != nil {
		return nil, err
	}
	return gym, nil
}
