// internal/repository/mongo/gym_repo.go
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

const gymCollectionName = "gyms"

// mongoGymRepository implements repository.GymRepository
type mongoGymRepository struct {
	collection *mongo.Collection
}

// NewMongoGymRepository creates a new Gym repository.
func NewMongoGymRepository(db *mongo.Database) repository.GymRepository {
	return &mongoGymRepository{
		collection: db.Collection(gymCollectionName),
	}
}

// Create inserts a new gym.
func (r *mongoGymRepository) Create(ctx context.Context, gym *domain.Gym) (primitive.ObjectID, error) {
	if gym.Name == "" {
		return primitive.NilObjectID, errors.New("gym requires a name")
	}
	gym.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	gym.CreatedAt = now
	gym.UpdatedAt = now
	if gym.Managers == nil {
		gym.Managers = []primitive.ObjectID{}
	}

	result, err := r.collection.InsertOne(ctx, gym)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted gym ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single gym by its ID.
func (r *mongoGymRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Gym, error) {
	var gym domain.Gym
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&gym)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &gym, nil
}

// List returns all gyms, newest first.
func (r *mongoGymRepository) List(ctx context.Context) ([]domain.Gym, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	gyms := []domain.Gym{}
	if err = cursor.All(ctx, &gyms); err != nil {
		return nil, err
	}
	return gyms, nil
}

// Update sets the gym's name and address.
func (r *mongoGymRepository) Update(ctx context.Context, gym *domain.Gym) error {
	if gym.ID == primitive.NilObjectID {
		return errors.New("gym ID is required for update")
	}
	gym.UpdatedAt = time.Now().UTC()

	update := bson.M{
		"$set": bson.M{
			"name":      gym.Name,
			"address":   gym.Address,
			"updatedAt": gym.UpdatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": gym.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a gym.
func (r *mongoGymRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddManager adds a user to the gym's managers and returns the updated gym.
func (r *mongoGymRepository) AddManager(ctx context.Context, gymID, userID primitive.ObjectID) (*domain.Gym, error) {
	update := bson.M{
		"$addToSet": bson.M{"managers": userID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var gym domain.Gym
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": gymID}, update, opts).Decode(&gym)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &gym, nil
}

// EnsureGymIndexes creates necessary indexes. Call during startup.
func EnsureGymIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "managers", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("collection", collection.Name()).Msg("failed to create indexes")
	}
	return err
}
