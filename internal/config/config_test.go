package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Address != ":8080" {
		t.Errorf("expected default address :8080, got %q", cfg.Server.Address)
	}
	if cfg.JWT.Expiration != 15*time.Minute {
		t.Errorf("expected 15m access expiry, got %v", cfg.JWT.Expiration)
	}
	if cfg.JWT.RefreshExpiration != 168*time.Hour {
		t.Errorf("expected 168h refresh expiry, got %v", cfg.JWT.RefreshExpiration)
	}
	if cfg.AI.MaxRetries != 0 {
		t.Errorf("expected no AI retries by default, got %d", cfg.AI.MaxRetries)
	}
	if cfg.Recommend.TopCategories != 3 || cfg.Recommend.PopularLimit != 20 || cfg.Recommend.ResultLimit != 10 {
		t.Errorf("unexpected recommend defaults: %+v", cfg.Recommend)
	}
	if cfg.Upload.MaxImageBytes != 5<<20 {
		t.Errorf("expected 5MiB upload limit, got %d", cfg.Upload.MaxImageBytes)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  address: ":9090"
database:
  name: "gyms_test"
jwt:
  secret: "from-file"
  expiration: "30m"
recommend:
  result_limit: 5
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Address != ":9090" {
		t.Errorf("expected address from file, got %q", cfg.Server.Address)
	}
	if cfg.Database.Name != "gyms_test" {
		t.Errorf("expected database name from file, got %q", cfg.Database.Name)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Errorf("expected env to override file, got %q", cfg.JWT.Secret)
	}
	if cfg.JWT.Expiration != 30*time.Minute {
		t.Errorf("expected 30m, got %v", cfg.JWT.Expiration)
	}
	if cfg.Recommend.ResultLimit != 5 || cfg.Recommend.PopularLimit != 20 {
		t.Errorf("expected file override merged with defaults, got %+v", cfg.Recommend)
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(dir); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}
