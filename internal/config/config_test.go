package config

import (
	"os"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// Initialize with empty config
	err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if AppConfig == nil {
		t.Fatal("AppConfig is nil")
	}

	// Check defaults
	if AppConfig.Server.Port != 8311 {
		t.Errorf("Expected default port 8311, got %d", AppConfig.Server.Port)
	}
	if AppConfig.Server.Mode != "release" {
		t.Errorf("Expected default mode 'release', got %s", AppConfig.Server.Mode)
	}
	if AppConfig.Database.Path != "data/catalog.db" {
		t.Errorf("Expected default db path 'data/catalog.db', got %s", AppConfig.Database.Path)
	}
	if AppConfig.Refresh.IntervalHours != 0 {
		t.Errorf("Expected refresh disabled by default, got %d", AppConfig.Refresh.IntervalHours)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	// Set environment variable
	os.Setenv("RAREFINDS_SERVER_PORT", "9999")
	defer os.Unsetenv("RAREFINDS_SERVER_PORT")

	err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if AppConfig.Server.Port != 9999 {
		t.Errorf("Expected port 9999 from env, got %d", AppConfig.Server.Port)
	}
}

func TestLoadConfig_TMDBKeyFromEnv(t *testing.T) {
	os.Setenv("RAREFINDS_TMDB_API_KEY", "test-key-123")
	defer os.Unsetenv("RAREFINDS_TMDB_API_KEY")

	err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if AppConfig.TMDB.APIKey != "test-key-123" {
		t.Errorf("Expected tmdb key from env, got %q", AppConfig.TMDB.APIKey)
	}
}
