package service

import (
	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/logging"
	"alcyxob/gym-app/internal/repository"
	"alcyxob/gym-app/internal/storage"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrEquipmentNotFound  = errors.New("equipment not found")
	ErrInvalidStatus      = errors.New("invalid equipment status")
	ErrImageRequired      = errors.New("image required")
	ErrInvalidImage       = errors.New("only image uploads are allowed")
	ErrImageTooLarge      = errors.New("image exceeds the maximum upload size")
	ErrInvalidImageIndex  = errors.New("invalid image index")
	ErrStorageUnavailable = errors.New("image storage is not configured")
)

// DefaultMaxImageBytes bounds a single uploaded photo.
const DefaultMaxImageBytes int64 = 5 << 20

// EquipmentClassifier labels a photo of a piece of equipment. It never fails.
type EquipmentClassifier interface {
	Classify(ctx context.Context, image []byte, contentType, filename string) domain.EquipmentClassification
}

// ImageUpload is an in-memory uploaded photo.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EquipmentInput holds the fields of a manually registered piece of equipment.
type EquipmentInput struct {
	Name     string
	Category string
	Brand    string
	Meta     map[string]interface{}
}

// EquipmentUpdate carries optional changes; nil fields are left untouched.
type EquipmentUpdate struct {
	Name     *string
	Category *string
	Brand    *string
	Status   *domain.EquipmentStatus
	Meta     map[string]interface{}
}

// AutoAddResult is what the image-driven creation reports back.
type AutoAddResult struct {
	Equipment      *domain.Equipment              `json:"created"`
	Classification domain.EquipmentClassification `json:"ai"`
	Image          domain.EquipmentImage          `json:"s3Result"`
}

// EquipmentService defines the interface for the equipment catalog.
type EquipmentService interface {
	Create(ctx context.Context, actorID, gymID primitive.ObjectID, input EquipmentInput) (*domain.Equipment, error)
	CreateWithImage(ctx context.Context, actorID, gymID primitive.ObjectID, input EquipmentInput, image *ImageUpload) (*domain.Equipment, *domain.EquipmentImage, error)
	AutoAdd(ctx context.Context, actorID, gymID primitive.ObjectID, image *ImageUpload) (*AutoAddResult, error)
	ListByGym(ctx context.Context, gymID primitive.ObjectID) ([]domain.Equipment, error)
	Search(ctx context.Context, gymID primitive.ObjectID, filter repository.EquipmentFilter) ([]domain.Equipment, error)
	Get(ctx context.Context, equipmentID primitive.ObjectID) (*domain.Equipment, error)
	Update(ctx context.Context, actorID, equipmentID primitive.ObjectID, update EquipmentUpdate) (*domain.Equipment, error)
	UpdateStatus(ctx context.Context, actorID, equipmentID primitive.ObjectID, status domain.EquipmentStatus) (*domain.Equipment, error)
	Delete(ctx context.Context, actorID, equipmentID primitive.ObjectID) error
	DeleteImage(ctx context.Context, actorID, equipmentID primitive.ObjectID, index int) (*domain.Equipment, error)
	ImageURL(ctx context.Context, equipmentID primitive.ObjectID, index int) (string, error)
}

// equipmentService implements EquipmentService.
type equipmentService struct {
	equipmentRepo repository.EquipmentRepository
	gyms          GymService
	fileStorage   storage.FileStorage // nil when object storage is not configured
	classifier    EquipmentClassifier
	maxImageBytes int64
	presignExpiry time.Duration
}

// NewEquipmentService creates a new equipment service.
func NewEquipmentService(
	equipmentRepo repository.EquipmentRepository,
	gyms GymService,
	fileStorage storage.FileStorage,
	classifier EquipmentClassifier,
	maxImageBytes int64,
	presignExpiry time.Duration,
) EquipmentService {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &equipmentService{
		equipmentRepo: equipmentRepo,
		gyms:          gyms,
		fileStorage:   fileStorage,
		classifier:    classifier,
		maxImageBytes: maxImageBytes,
		presignExpiry: presignExpiry,
	}
}

// Create registers equipment without images.
func (s *equipmentService) Create(ctx context.Context, actorID, gymID primitive.ObjectID, input EquipmentInput) (*domain.Equipment, error) {
	eq, _, err := s.CreateWithImage(ctx, actorID, gymID, input, nil)
	return eq, err
}

// CreateWithImage registers equipment with an optional photo.
func (s *equipmentService) CreateWithImage(ctx context.Context, actorID, gymID primitive.ObjectID, input EquipmentInput, image *ImageUpload) (*domain.Equipment, *domain.EquipmentImage, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, nil, fmt.Errorf("%w: equipment name is required", ErrValidationFailed)
	}
	if _, err := s.gyms.RequireManager(ctx, actorID, gymID); err != nil {
		return nil, nil, err
	}

	var stored *domain.EquipmentImage
	if image != nil {
		img, err := s.storeImage(ctx, image)
		if err != nil {
			return nil, nil, err
		}
		stored = &img
	}

	eq := newEquipment(actorID, gymID, input, stored)
	if err := s.insert(ctx, eq, stored); err != nil {
		return nil, nil, err
	}
	return eq, stored, nil
}

// AutoAdd stores the photo, classifies it and registers the result.
func (s *equipmentService) AutoAdd(ctx context.Context, actorID, gymID primitive.ObjectID, image *ImageUpload) (*AutoAddResult, error) {
	if image == nil || len(image.Data) == 0 {
		return nil, ErrImageRequired
	}
	if _, err := s.gyms.RequireManager(ctx, actorID, gymID); err != nil {
		return nil, err
	}

	img, err := s.storeImage(ctx, image)
	if err != nil {
		return nil, err
	}

	classification := s.classifier.Classify(ctx, image.Data, image.ContentType, image.Filename)

	name := strings.TrimSpace(classification.Label)
	if name == "" {
		name = image.Filename
	}
	meta := map[string]interface{}{"aiConfidence": classification.Confidence}
	for k, v := range classification.Meta {
		meta[k] = v
	}

	eq := newEquipment(actorID, gymID, EquipmentInput{
		Name:     name,
		Category: classification.Category,
		Brand:    classification.Brand,
		Meta:     meta,
	}, &img)
	if err := s.insert(ctx, eq, &img); err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Str("equipment_id", eq.ID.Hex()).
		Str("label", classification.Label).
		Float64("confidence", classification.Confidence).
		Msg("equipment auto-added from image")

	return &AutoAddResult{Equipment: eq, Classification: classification, Image: img}, nil
}

func newEquipment(actorID, gymID primitive.ObjectID, input EquipmentInput, image *domain.EquipmentImage) *domain.Equipment {
	creator := actorID
	eq := &domain.Equipment{
		GymID:     gymID,
		Name:      input.Name,
		Category:  strings.TrimSpace(input.Category),
		Brand:     strings.TrimSpace(input.Brand),
		Status:    domain.StatusActive,
		Images:    []string{},
		S3Images:  []domain.EquipmentImage{},
		Meta:      input.Meta,
		CreatedBy: &creator,
	}
	if image != nil {
		eq.Images = append(eq.Images, image.URL)
		eq.S3Images = append(eq.S3Images, *image)
	}
	return eq
}

// insert persists eq, removing the already uploaded image if that fails.
func (s *equipmentService) insert(ctx context.Context, eq *domain.Equipment, uploaded *domain.EquipmentImage) error {
	id, err := s.equipmentRepo.Create(ctx, eq)
	if err != nil {
		if uploaded != nil {
			s.deleteObjectBestEffort(ctx, uploaded.Key)
		}
		return err
	}
	eq.ID = id
	return nil
}

func (s *equipmentService) storeImage(ctx context.Context, image *ImageUpload) (domain.EquipmentImage, error) {
	if len(image.Data) == 0 {
		return domain.EquipmentImage{}, ErrImageRequired
	}
	if !strings.HasPrefix(strings.ToLower(image.ContentType), "image/") {
		return domain.EquipmentImage{}, ErrInvalidImage
	}
	if int64(len(image.Data)) > s.maxImageBytes {
		return domain.EquipmentImage{}, ErrImageTooLarge
	}
	if s.fileStorage == nil {
		return domain.EquipmentImage{}, ErrStorageUnavailable
	}
	return s.fileStorage.Upload(ctx, storage.EquipmentFolder, image.Filename, image.ContentType,
		bytes.NewReader(image.Data), int64(len(image.Data)))
}

func (s *equipmentService) deleteObjectBestEffort(ctx context.Context, key string) {
	if s.fileStorage == nil || key == "" {
		return
	}
	if err := s.fileStorage.DeleteObject(ctx, key); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to delete image from storage")
	}
}

// ListByGym returns the gym's equipment.
func (s *equipmentService) ListByGym(ctx context.Context, gymID primitive.ObjectID) ([]domain.Equipment, error) {
	if _, err := s.gyms.Get(ctx, gymID); err != nil {
		return nil, err
	}
	return s.equipmentRepo.ListByGym(ctx, gymID)
}

// Search filters the gym's equipment.
func (s *equipmentService) Search(ctx context.Context, gymID primitive.ObjectID, filter repository.EquipmentFilter) ([]domain.Equipment, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if _, err := s.gyms.Get(ctx, gymID); err != nil {
		return nil, err
	}
	return s.equipmentRepo.Search(ctx, gymID, filter)
}

// Get returns a single piece of equipment.
func (s *equipmentService) Get(ctx context.Context, equipmentID primitive.ObjectID) (*domain.Equipment, error) {
	eq, err := s.equipmentRepo.GetByID(ctx, equipmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, err
	}
	return eq, nil
}

// requireEquipmentManager loads the equipment and checks the actor manages its gym.
func (s *equipmentService) requireEquipmentManager(ctx context.Context, actorID, equipmentID primitive.ObjectID) (*domain.Equipment, error) {
	eq, err := s.Get(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.gyms.RequireManager(ctx, actorID, eq.GymID); err != nil {
		return nil, err
	}
	return eq, nil
}

// Update applies the provided field changes.
func (s *equipmentService) Update(ctx context.Context, actorID, equipmentID primitive.ObjectID, update EquipmentUpdate) (*domain.Equipment, error) {
	eq, err := s.requireEquipmentManager(ctx, actorID, equipmentID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: equipment name cannot be empty", ErrValidationFailed)
		}
		eq.Name = name
	}
	if update.Category != nil {
		eq.Category = strings.TrimSpace(*update.Category)
	}
	if update.Brand != nil {
		eq.Brand = strings.TrimSpace(*update.Brand)
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		eq.Status = *update.Status
	}
	if update.Meta != nil {
		eq.Meta = update.Meta
	}

	if err := s.equipmentRepo.Update(ctx, eq); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, err
	}
	return eq, nil
}

// UpdateStatus moves the equipment through its lifecycle.
func (s *equipmentService) UpdateStatus(ctx context.Context, actorID, equipmentID primitive.ObjectID, status domain.EquipmentStatus) (*domain.Equipment, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if _, err := s.requireEquipmentManager(ctx, actorID, equipmentID); err != nil {
		return nil, err
	}

	eq, err := s.equipmentRepo.UpdateStatus(ctx, equipmentID, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, err
	}

	logging.Ctx(ctx).Info().Str("equipment_id", equipmentID.Hex()).Str("status", string(status)).Msg("equipment status changed")
	return eq, nil
}

// Delete removes the equipment. Stored images are deleted best-effort first.
func (s *equipmentService) Delete(ctx context.Context, actorID, equipmentID primitive.ObjectID) error {
	eq, err := s.requireEquipmentManager(ctx, actorID, equipmentID)
	if err != nil {
		return err
	}

	for _, img := range eq.S3Images {
		s.deleteObjectBestEffort(ctx, img.Key)
	}

	if err := s.equipmentRepo.Delete(ctx, equipmentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEquipmentNotFound
		}
		return err
	}
	return nil
}

// DeleteImage removes the image at index from storage and from the record.
func (s *equipmentService) DeleteImage(ctx context.Context, actorID, equipmentID primitive.ObjectID, index int) (*domain.Equipment, error) {
	eq, err := s.requireEquipmentManager(ctx, actorID, equipmentID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(eq.S3Images) {
		return nil, ErrInvalidImageIndex
	}
	if s.fileStorage == nil {
		return nil, ErrStorageUnavailable
	}

	if err := s.fileStorage.DeleteObject(ctx, eq.S3Images[index].Key); err != nil {
		return nil, err
	}

	eq.S3Images = append(eq.S3Images[:index:index], eq.S3Images[index+1:]...)
	if index < len(eq.Images) {
		eq.Images = append(eq.Images[:index:index], eq.Images[index+1:]...)
	}

	if err := s.equipmentRepo.Update(ctx, eq); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, err
	}
	return eq, nil
}

// ImageURL returns a short-lived download URL for the image at index.
func (s *equipmentService) ImageURL(ctx context.Context, equipmentID primitive.ObjectID, index int) (string, error) {
	eq, err := s.Get(ctx, equipmentID)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(eq.S3Images) {
		return "", ErrInvalidImageIndex
	}
	if s.fileStorage == nil {
		return "", ErrStorageUnavailable
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, eq.S3Images[index].Key, s.presignExpiry)
}
