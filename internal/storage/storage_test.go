package storage

import (
	"strings"
	"testing"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("equipment/", "Leg Press.JPG")
	if !strings.HasPrefix(key, "equipment/") || !strings.HasSuffix(key, ".jpg") {
		t.Errorf("unexpected key %q", key)
	}
	if key == ObjectKey("equipment", "Leg Press.JPG") {
		t.Error("expected unique keys")
	}
	if k := ObjectKey("", `C:\photos\rower`); strings.Contains(k, "/") || strings.Contains(k, ".") {
		t.Errorf("expected bare uuid key without folder or extension, got %q", k)
	}
}

func TestObjectURL(t *testing.T) {
	tests := []struct {
		name                     string
		public, endpoint, region string
		want                     string
	}{
		{"public base", "https://cdn.example.com/", "http://minio:9000", "us-east-1", "https://cdn.example.com/equipment/a.jpg"},
		{"custom endpoint", "", "http://minio:9000/", "us-east-1", "http://minio:9000/gym-images/equipment/a.jpg"},
		{"aws", "", "", "eu-west-1", "https://gym-images.s3.eu-west-1.amazonaws.com/equipment/a.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ObjectURL(tt.public, tt.endpoint, tt.region, "gym-images", "equipment/a.jpg")
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
