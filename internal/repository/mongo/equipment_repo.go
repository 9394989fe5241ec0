// internal/repository/mongo/equipment_repo.go
package mongo

import (
	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/logging"
	"alcyxob/gym-app/internal/repository"
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const equipmentCollectionName = "equipment"

// mongoEquipmentRepository implements repository.EquipmentRepository
type mongoEquipmentRepository struct {
	collection *mongo.Collection
}

// NewMongoEquipmentRepository creates a new Equipment repository.
func NewMongoEquipmentRepository(db *mongo.Database) repository.EquipmentRepository {
	return &mongoEquipmentRepository{
		collection: db.Collection(equipmentCollectionName),
	}
}

// Create inserts a new piece of equipment. Status defaults to ACTIVE.
func (r *mongoEquipmentRepository) Create(ctx context.Context, equipment *domain.Equipment) (primitive.ObjectID, error) {
	if equipment.GymID == primitive.NilObjectID || equipment.Name == "" {
		return primitive.NilObjectID, errors.New("equipment requires gym and name")
	}
	if equipment.Status == "" {
		equipment.Status = domain.StatusActive
	}
	if equipment.Images == nil {
		equipment.Images = []string{}
	}
	if equipment.S3Images == nil {
		equipment.S3Images = []domain.EquipmentImage{}
	}

	equipment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	equipment.CreatedAt = now
	equipment.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, equipment)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted equipment ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single piece of equipment by its ID.
func (r *mongoEquipmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Equipment, error) {
	var equipment domain.Equipment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&equipment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &equipment, nil
}

// GetByIDs resolves a batch of ids with a single $in query.
func (r *mongoEquipmentRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Equipment, error) {
	if len(ids) == 0 {
		return []domain.Equipment{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

// ListByGym returns the gym's equipment, newest first.
func (r *mongoEquipmentRepository) ListByGym(ctx context.Context, gymID primitive.ObjectID) ([]domain.Equipment, error) {
	return r.find(ctx, bson.M{"gym": gymID}, newestFirst())
}

// Search filters the gym's equipment, newest first.
func (r *mongoEquipmentRepository) Search(ctx context.Context, gymID primitive.ObjectID, filter repository.EquipmentFilter) ([]domain.Equipment, error) {
	return r.find(ctx, equipmentSearchFilter(gymID, filter), newestFirst())
}

// equipmentSearchFilter builds the Mongo filter for Search. User input is
// matched literally, case-insensitively.
func equipmentSearchFilter(gymID primitive.ObjectID, f repository.EquipmentFilter) bson.M {
	filter := bson.M{"gym": gymID}

	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"brand": pattern},
		}
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		filter["category"] = c
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if b := strings.TrimSpace(f.Brand); b != "" {
		filter["brand"] = primitive.Regex{Pattern: regexp.QuoteMeta(b), Options: "i"}
	}
	return filter
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

func (r *mongoEquipmentRepository) find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]domain.Equipment, error) {
	opts := []*options.FindOptions{}
	if findOptions != nil {
		opts = append(opts, findOptions)
	}

	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	equipment := []domain.Equipment{}
	if err = cursor.All(ctx, &equipment); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return equipment, nil
}

// Update modifies the mutable fields of a piece of equipment.
// The owning gym and creator are never changed here.
func (r *mongoEquipmentRepository) Update(ctx context.Context, equipment *domain.Equipment) error {
	if equipment.ID == primitive.NilObjectID {
		return errors.New("equipment ID is required for update")
	}
	if equipment.Name == "" {
		return errors.New("equipment name cannot be empty")
	}
	equipment.UpdatedAt = time.Now().UTC()

	images := equipment.Images
	if images == nil {
		images = []string{}
	}
	s3Images := equipment.S3Images
	if s3Images == nil {
		s3Images = []domain.EquipmentImage{}
	}

	update := bson.M{
		"$set": bson.M{
			"name":      equipment.Name,
			"category":  equipment.Category,
			"brand":     equipment.Brand,
			"status":    equipment.Status,
			"images":    images,
			"s3Images":  s3Images,
			"meta":      equipment.Meta,
			"updatedAt": equipment.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": equipment.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateStatus sets the lifecycle status and returns the updated record.
func (r *mongoEquipmentRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.EquipmentStatus) (*domain.Equipment, error) {
	update := bson.M{
		"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var equipment domain.Equipment
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&equipment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &equipment, nil
}

// Delete removes a piece of equipment.
func (r *mongoEquipmentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureEquipmentIndexes creates necessary indexes for the equipment collection.
func EnsureEquipmentIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Listing and searching a gym's equipment, newest first
			Keys:    bson.D{{Key: "gym", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "gym", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("collection", collection.Name()).Msg("failed to create indexes")
	}
	return err
}
