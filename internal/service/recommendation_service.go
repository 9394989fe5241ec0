package service

import (
	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/logging"
	"alcyxob/gym-app/internal/metrics"
	"alcyxob/gym-app/internal/recommend"
	"alcyxob/gym-app/internal/repository"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// RecommendationService defines the interface for equipment recommendations.
type RecommendationService interface {
	// GetRecommendations ranks equipment for userID, restricted to gymID when non-nil.
	GetRecommendations(ctx context.Context, userID primitive.ObjectID, gymID *primitive.ObjectID) (*recommend.Result, error)
}

// recommendationService implements RecommendationService.
type recommendationService struct {
	workoutRepo   repository.WorkoutRepository
	equipmentRepo repository.EquipmentRepository
	gyms          GymService
	limits        recommend.Limits
}

// NewRecommendationService creates a new recommendation service.
func NewRecommendationService(
	workoutRepo repository.WorkoutRepository,
	equipmentRepo repository.EquipmentRepository,
	gyms GymService,
	limits recommend.Limits,
) RecommendationService {
	return &recommendationService{
		workoutRepo:   workoutRepo,
		equipmentRepo: equipmentRepo,
		gyms:          gyms,
		limits:        limits.WithDefaults(),
	}
}

// snapshot is one side of the recommendation pipeline: a set of workouts
// and the catalog entries their items reference.
type snapshot struct {
	workouts []domain.Workout
	catalog  recommend.MapCatalog
}

// GetRecommendations runs the affinity and popularity rankers concurrently
// over fresh reads, then composes the final list.
func (s *recommendationService) GetRecommendations(ctx context.Context, userID primitive.ObjectID, gymID *primitive.ObjectID) (*recommend.Result, error) {
	if gymID != nil {
		if _, err := s.gyms.Get(ctx, *gymID); err != nil {
			return nil, err
		}
	}

	var user, popular snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		workouts, err := s.workoutRepo.ListByUser(gctx, userID)
		if err != nil {
			return err
		}
		user, err = s.load(gctx, workouts)
		return err
	})
	g.Go(func() error {
		workouts, err := s.workoutRepo.ListByGym(gctx, gymID)
		if err != nil {
			return err
		}
		popular, err = s.load(gctx, workouts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	affinity, affinityStats := recommend.RankCategories(user.workouts, user.catalog, s.limits.TopCategories)
	ranking, popularityStats := recommend.RankPopularity(popular.workouts, gymID, popular.catalog, s.limits.PopularLimit)
	result := recommend.Compose(affinity, ranking, popular.catalog, gymID, s.limits.ResultLimit)

	metrics.RecordDropped("affinity", affinityStats.Dropped)
	metrics.RecordDropped("popularity", popularityStats.Dropped)
	metrics.RecommendationsServed.Observe(float64(len(result.Recommendations)))

	logging.Ctx(ctx).Debug().
		Str("user_id", userID.Hex()).
		Bool("gym_scoped", gymID != nil).
		Strs("categories", affinity).
		Int("ranked", len(ranking)).
		Int("affinity_dropped", affinityStats.Dropped).
		Int("popularity_dropped", popularityStats.Dropped).
		Int("returned", len(result.Recommendations)).
		Msg("recommendations composed")

	return &result, nil
}

// load resolves the equipment referenced by workouts into a catalog.
func (s *recommendationService) load(ctx context.Context, workouts []domain.Workout) (snapshot, error) {
	records, err := s.equipmentRepo.GetByIDs(ctx, domain.EquipmentIDs(workouts))
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{workouts: workouts, catalog: recommend.NewCatalog(records)}, nil
}
