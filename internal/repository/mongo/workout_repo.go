// internal/repository/mongo/workout_repo.go
package mongo

import (
	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/logging"
	"alcyxob/gym-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const workoutCollectionName = "workouts"

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
	// equipment is read to populate item references in ListHistory.
	equipment *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
		equipment:  db.Collection(equipmentCollectionName),
	}
}

// Create inserts a new workout. StartedAt defaults to now.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.UserID == primitive.NilObjectID || workout.Gym.ID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("workout requires user and gym")
	}
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now
	if workout.StartedAt.IsZero() {
		workout.StartedAt = now
	}
	if workout.Items == nil {
		workout.Items = []domain.WorkoutItem{}
	}

	result, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted workout ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single workout by its ID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// UpdateOwned replaces the items and end time of a workout the user owns.
// Nil items or endedAt leave the stored value untouched.
func (r *mongoWorkoutRepository) UpdateOwned(ctx context.Context, id, userID primitive.ObjectID, items []domain.WorkoutItem, endedAt *time.Time) (*domain.Workout, error) {
	// The user filter makes a foreign workout indistinguishable from a missing one.
	filter := bson.M{"_id": id, "user": userID}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if items != nil {
		set["items"] = items
	}
	if endedAt != nil {
		set["endedAt"] = endedAt.UTC()
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var workout domain.Workout
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// ListByUser returns every workout the user logged.
func (r *mongoWorkoutRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Workout, error) {
	return r.find(ctx, bson.M{"user": userID}, nil)
}

// ListByGym returns workouts logged at a gym, or every workout for a nil gym.
func (r *mongoWorkoutRepository) ListByGym(ctx context.Context, gymID *primitive.ObjectID) ([]domain.Workout, error) {
	filter := bson.M{}
	if gymID != nil {
		filter["gym"] = *gymID
	}
	return r.find(ctx, filter, nil)
}

// ListHistory returns one page of the user's workouts, most recent first,
// with item equipment populated with name and category.
func (r *mongoWorkoutRepository) ListHistory(ctx context.Context, userID primitive.ObjectID, skip, limit int64) ([]domain.Workout, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	workouts, err := r.find(ctx, bson.M{"user": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	if err := r.populateEquipment(ctx, workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (r *mongoWorkoutRepository) find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]domain.Workout, error) {
	opts := []*options.FindOptions{}
	if findOptions != nil {
		opts = append(opts, findOptions)
	}

	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	workouts := []domain.Workout{}
	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return workouts, nil
}

// populateEquipment resolves item equipment references in place with one
// $in query. References to deleted equipment stay bare.
func (r *mongoWorkoutRepository) populateEquipment(ctx context.Context, workouts []domain.Workout) error {
	ids := domain.EquipmentIDs(workouts)
	if len(ids) == 0 {
		return nil
	}

	projection := options.Find().SetProjection(bson.M{"name": 1, "category": 1})
	cursor, err := r.equipment.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, projection)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID       primitive.ObjectID `bson:"_id"`
		Name     string             `bson:"name"`
		Category string             `bson:"category"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return err
	}

	resolved := make(map[primitive.ObjectID]map[string]interface{}, len(docs))
	for _, d := range docs {
		resolved[d.ID] = map[string]interface{}{"name": d.Name, "category": d.Category}
	}
	applyPopulated(workouts, resolved)
	return nil
}

func applyPopulated(workouts []domain.Workout, resolved map[primitive.ObjectID]map[string]interface{}) {
	for i := range workouts {
		for j := range workouts[i].Items {
			ref := &workouts[i].Items[j].Equipment
			if doc, ok := resolved[ref.ID]; ok {
				ref.Doc = doc
			}
		}
	}
}

// EnsureWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// History pages, most recent first
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			// Gym popularity rankings
			Keys:    bson.D{{Key: "gym", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "items.equipment", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("collection", collection.Name()).Msg("failed to create indexes")
	}
	return err
}
