package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"skladik/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
app:
  name: "skladik-test"
api:
  http:
    port: 9999
items:
  - id: 1
    name: "Item 1"
    price: 9.99
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	// No .env file around: loading must still succeed
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "skladik-test" {
		t.Errorf("expected app name skladik-test, got %s", cfg.App.Name)
	}
	if cfg.API.HTTP.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.API.HTTP.Port)
	}
	if len(cfg.Items) != 1 || cfg.Items[0].ID != 1 {
		t.Errorf("expected 1 item with ID 1")
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("SKLADIK_TEST_KEY", "secret-key")

	yamlContent := `
api:
  auth:
    api_keys:
      - key: "${SKLADIK_TEST_KEY}"
        name: "ops"
        permissions: ["read:items"]
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if len(cfg.API.Auth.APIKeys) != 1 || cfg.API.Auth.APIKeys[0].Key != "secret-key" {
		t.Errorf("expected expanded api key, got %+v", cfg.API.Auth.APIKeys)
	}
	if !cfg.API.Auth.Enabled {
		t.Errorf("expected auth to be enabled when keys are configured")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Items: []models.Item{{ID: 1, Name: "Item 1", Price: 10}},
			},
			wantErr: false,
		},
		{
			name: "auth enabled without keys",
			cfg: Config{
				API: APIConfig{Auth: APIAuthConfig{Enabled: true}},
			},
			wantErr: true,
		},
		{
			name: "empty key value",
			cfg: Config{
				API: APIConfig{Auth: APIAuthConfig{
					Enabled: true,
					APIKeys: []APIClientKey{{Key: "", Name: "ops"}},
				}},
			},
			wantErr: true,
		},
		{
			name: "negative rate limit",
			cfg: Config{
				API: APIConfig{RateLimit: APIRateLimitConfig{Requests: -1}},
			},
			wantErr: true,
		},
		{
			name: "duplicate item id",
			cfg: Config{
				Items: []models.Item{
					{ID: 1, Name: "Item 1", Price: 1},
					{ID: 1, Name: "Item 2", Price: 2},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.App.Name != "skladik" {
		t.Errorf("expected default app name skladik, got %s", cfg.App.Name)
	}
	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default HTTP port 8080, got %d", cfg.API.HTTP.Port)
	}
	if cfg.API.Auth.HeaderAPIKey != "x-api-key" {
		t.Errorf("expected default api key header, got %s", cfg.API.Auth.HeaderAPIKey)
	}
	if cfg.API.Auth.Enabled {
		t.Errorf("auth should stay off when no keys are configured")
	}
	if cfg.API.RateLimit.Requests != 100 || cfg.API.RateLimit.WindowSeconds != 60 {
		t.Errorf("unexpected rate limit defaults: %+v", cfg.API.RateLimit)
	}
	if cfg.API.RateLimit.Window() != time.Minute {
		t.Errorf("expected 1m window, got %s", cfg.API.RateLimit.Window())
	}
}

func TestValidateItems(t *testing.T) {
	tests := []struct {
		name    string
		items   []models.Item
		wantErr bool
	}{
		{
			name: "Valid items",
			items: []models.Item{
				{ID: 1, Name: "Item 1", Price: 10},
				{ID: 2, Name: "Item 2", Price: 0},
			},
			wantErr: false,
		},
		{
			name: "Duplicate ID",
			items: []models.Item{
				{ID: 1, Name: "Item 1", Price: 1},
				{ID: 1, Name: "Item 2", Price: 2},
			},
			wantErr: true,
		},
		{
			name: "ID 0",
			items: []models.Item{
				{ID: 0, Name: "Item 1", Price: 1},
			},
			wantErr: true,
		},
		{
			name: "Empty name",
			items: []models.Item{
				{ID: 1, Name: "  ", Price: 1},
			},
			wantErr: true,
		},
		{
			name: "Negative price",
			items: []models.Item{
				{ID: 1, Name: "Item 1", Price: -5},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItems(tt.items)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateItems() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
