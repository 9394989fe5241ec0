package storage

import (
	"alcyxob/gym-app/internal/domain"
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// EquipmentFolder is the key prefix for equipment photos.
const EquipmentFolder = "equipment"

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// Upload stores body under a fresh key inside folder and returns where it landed.
	Upload(ctx context.Context, folder, filename, contentType string, body io.Reader, size int64) (domain.EquipmentImage, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}

// ObjectKey builds a unique key "<folder>/<uuid>.<ext>" keeping the
// extension of the uploaded file name.
func ObjectKey(folder, filename string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, `\`, "/")))
	folder = strings.Trim(folder, "/")
	key := uuid.NewString() + ext
	if folder == "" {
		return key
	}
	return folder + "/" + key
}

// ObjectURL returns the public URL of key. A configured public base URL wins;
// otherwise custom endpoints use path-style addressing and AWS uses the
// virtual-hosted form.
func ObjectURL(publicBaseURL, endpoint, region, bucket, key string) string {
	switch {
	case publicBaseURL != "":
		return strings.TrimRight(publicBaseURL, "/") + "/" + key
	case endpoint != "":
		return strings.TrimRight(endpoint, "/") + "/" + bucket + "/" + key
	default:
		return "https://" + bucket + ".s3." + region + ".amazonaws.com/" + key
	}
}
