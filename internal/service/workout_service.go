package service

import (
	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/logging"
	"alcyxob/gym-app/internal/recommend"
	"alcyxob/gym-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrWorkoutNotFound = errors.New("workout not found")
)

// Paging bounds for history and advice.
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
	DefaultAdviceLimit  = 50
	MaxAdviceLimit      = 200
)

// WorkoutAdvisor produces training advice from compacted history. It never fails.
type WorkoutAdvisor interface {
	Advise(ctx context.Context, workouts []domain.Workout) domain.AdviceDocument
}

// WorkoutInput is a workout submission. A non-nil WorkoutID updates the
// caller's existing workout (items and endedAt only) instead of creating one.
type WorkoutInput struct {
	WorkoutID *primitive.ObjectID
	GymID     primitive.ObjectID
	Items     []domain.WorkoutItem
	StartedAt *time.Time
	EndedAt   *time.Time
}

// AdviceResult is returned by GetWorkoutAdvice.
type AdviceResult struct {
	UserID        primitive.ObjectID    `json:"userId"`
	CountAnalyzed int                   `json:"countAnalyzed"`
	Advice        domain.AdviceDocument `json:"advice"`
}

// WorkoutService defines the interface for the workout log.
type WorkoutService interface {
	LogWorkout(ctx context.Context, userID primitive.ObjectID, input WorkoutInput) (*domain.Workout, error)
	GetWorkoutHistory(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]domain.Workout, error)
	GetWorkoutAdvice(ctx context.Context, userID primitive.ObjectID, limit int) (*AdviceResult, error)
}

// workoutService implements WorkoutService.
type workoutService struct {
	workoutRepo    repository.WorkoutRepository
	equipmentRepo  repository.EquipmentRepository
	gyms           GymService
	advisor        WorkoutAdvisor
	adviceLimit    int
	maxAdviceLimit int
}

// NewWorkoutService creates a new workout service. adviceLimit and
// maxAdviceLimit fall back to DefaultAdviceLimit and MaxAdviceLimit when zero.
func NewWorkoutService(
	workoutRepo repository.WorkoutRepository,
	equipmentRepo repository.EquipmentRepository,
	gyms GymService,
	advisor WorkoutAdvisor,
	adviceLimit, maxAdviceLimit int,
) WorkoutService {
	if adviceLimit <= 0 {
		adviceLimit = DefaultAdviceLimit
	}
	if maxAdviceLimit <= 0 {
		maxAdviceLimit = MaxAdviceLimit
	}
	if adviceLimit > maxAdviceLimit {
		adviceLimit = maxAdviceLimit
	}
	return &workoutService{
		workoutRepo:    workoutRepo,
		equipmentRepo:  equipmentRepo,
		gyms:           gyms,
		advisor:        advisor,
		adviceLimit:    adviceLimit,
		maxAdviceLimit: maxAdviceLimit,
	}
}

// LogWorkout creates a workout or updates one the user already owns.
func (s *workoutService) LogWorkout(ctx context.Context, userID primitive.ObjectID, input WorkoutInput) (*domain.Workout, error) {
	if input.StartedAt != nil && input.EndedAt != nil && input.EndedAt.Before(*input.StartedAt) {
		return nil, fmt.Errorf("%w: endedAt is before startedAt", ErrValidationFailed)
	}
	if input.WorkoutID != nil {
		return s.updateWorkout(ctx, userID, *input.WorkoutID, input)
	}

	if input.GymID == primitive.NilObjectID {
		return nil, fmt.Errorf("%w: gym is required", ErrValidationFailed)
	}
	if _, err := s.gyms.Get(ctx, input.GymID); err != nil {
		return nil, err
	}
	items, err := s.normalizeItems(ctx, input.Items, input.GymID)
	if err != nil {
		return nil, err
	}

	workout := &domain.Workout{
		UserID:  userID,
		Gym:     domain.NewRef(input.GymID),
		Items:   items,
		EndedAt: input.EndedAt,
	}
	if items == nil {
		workout.Items = []domain.WorkoutItem{}
	}
	if input.StartedAt != nil {
		workout.StartedAt = input.StartedAt.UTC()
	}

	id, err := s.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, err
	}
	workout.ID = id

	logging.Ctx(ctx).Info().
		Str("workout_id", id.Hex()).
		Str("user_id", userID.Hex()).
		Int("items", len(workout.Items)).
		Msg("workout logged")
	return workout, nil
}

// updateWorkout replaces items and endedAt of the user's own workout. The
// stored record decides which gym the items must belong to and when the
// workout started.
func (s *workoutService) updateWorkout(ctx context.Context, userID, workoutID primitive.ObjectID, input WorkoutInput) (*domain.Workout, error) {
	existing, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	if existing.UserID != userID {
		return nil, ErrWorkoutNotFound
	}
	if input.EndedAt != nil && input.EndedAt.Before(existing.StartedAt) {
		return nil, fmt.Errorf("%w: endedAt is before startedAt", ErrValidationFailed)
	}

	items, err := s.normalizeItems(ctx, input.Items, existing.Gym.ID)
	if err != nil {
		return nil, err
	}

	workout, err := s.workoutRepo.UpdateOwned(ctx, workoutID, userID, items, input.EndedAt)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return workout, nil
}

// normalizeItems checks every item names existing equipment of gymID and
// stores bare references only. Nil stays nil so an update can leave items
// untouched.
func (s *workoutService) normalizeItems(ctx context.Context, items []domain.WorkoutItem, gymID primitive.ObjectID) ([]domain.WorkoutItem, error) {
	if items == nil {
		return nil, nil
	}

	for i, it := range items {
		if it.Equipment.ID == primitive.NilObjectID {
			return nil, fmt.Errorf("%w: item %d has no equipment", ErrValidationFailed, i)
		}
		if (it.Sets != nil && *it.Sets < 0) || (it.Reps != nil && *it.Reps < 0) ||
			(it.DurationMin != nil && *it.DurationMin < 0) || (it.WeightKg != nil && *it.WeightKg < 0) {
			return nil, fmt.Errorf("%w: item %d has a negative measure", ErrValidationFailed, i)
		}
	}

	compacted := recommend.Compact([]domain.Workout{{Items: items}})[0].Items

	ids := domain.EquipmentIDs([]domain.Workout{{Items: compacted}})
	found, err := s.equipmentRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		return nil, ErrEquipmentNotFound
	}
	for _, eq := range found {
		if eq.GymID != gymID {
			return nil, fmt.Errorf("%w: equipment %s belongs to another gym", ErrValidationFailed, eq.ID.Hex())
		}
	}
	return compacted, nil
}

// GetWorkoutHistory returns one page of the user's workouts, most recent first.
func (s *workoutService) GetWorkoutHistory(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]domain.Workout, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	skip := int64(page-1) * int64(limit)
	return s.workoutRepo.ListHistory(ctx, userID, skip, int64(limit))
}

// GetWorkoutAdvice sends the user's most recent workouts, compacted, to the
// advisor. Advisor problems come back as a degraded document, never an error.
func (s *workoutService) GetWorkoutAdvice(ctx context.Context, userID primitive.ObjectID, limit int) (*AdviceResult, error) {
	if limit < 1 {
		limit = s.adviceLimit
	}
	if limit > s.maxAdviceLimit {
		limit = s.maxAdviceLimit
	}

	history, err := s.workoutRepo.ListHistory(ctx, userID, 0, int64(limit))
	if err != nil {
		return nil, err
	}
	compacted := recommend.Compact(history)

	advice := s.advisor.Advise(ctx, compacted)

	logging.Ctx(ctx).Debug().
		Str("user_id", userID.Hex()).
		Int("analyzed", len(compacted)).
		Int("recommendations", len(advice.Recommendations)).
		Msg("workout advice generated")

	return &AdviceResult{
		UserID:        userID,
		CountAnalyzed: len(compacted),
		Advice:        advice,
	}, nil
}
