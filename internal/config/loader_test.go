package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Version != "1" {
		t.Errorf("Expected version '1', got '%s'", cfg.Version)
	}

	if cfg.Pipeline.AcceptanceThreshold != 0.7 {
		t.Errorf("Expected acceptance threshold 0.7, got %v", cfg.Pipeline.AcceptanceThreshold)
	}

	if !cfg.Pipeline.StrictMode {
		t.Error("Expected strict mode enabled by default")
	}

	if cfg.Providers.TimeoutSeconds != 30 {
		t.Errorf("Expected 30s provider timeout, got %d", cfg.Providers.TimeoutSeconds)
	}

	want := []string{"anthropic", "openai", "gemini"}
	if len(cfg.Providers.Order) != len(want) {
		t.Fatalf("Expected provider order %v, got %v", want, cfg.Providers.Order)
	}
	for i, id := range want {
		if cfg.Providers.Order[i] != id {
			t.Errorf("Expected provider %d to be %s, got %s", i, id, cfg.Providers.Order[i])
		}
	}
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}

	if !strings.Contains(string(content), "acceptance_threshold") {
		t.Error("Expected acceptance_threshold in default config")
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "config.yaml")
	content := `version: "1"
pipeline:
  acceptance_threshold: 0.85
  strict_mode: false
providers:
  order: [openai]
  timeout_seconds: 10
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Pipeline.AcceptanceThreshold != 0.85 {
		t.Errorf("Expected threshold 0.85, got %v", cfg.Pipeline.AcceptanceThreshold)
	}
	if cfg.Pipeline.StrictMode {
		t.Error("Expected strict mode disabled")
	}
	if len(cfg.Providers.Order) != 1 || cfg.Providers.Order[0] != "openai" {
		t.Errorf("Expected provider order [openai], got %v", cfg.Providers.Order)
	}
	if cfg.Providers.TimeoutSeconds != 10 {
		t.Errorf("Expected 10s timeout, got %d", cfg.Providers.TimeoutSeconds)
	}
	// Untouched fields keep their defaults
	if cfg.Providers.RatePerSecond != 1 {
		t.Errorf("Expected default rate 1, got %v", cfg.Providers.RatePerSecond)
	}
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Expected error for missing explicit config file")
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := LoadCredentials(); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("Expected ErrNoCredentials, got %v", err)
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	creds, err := LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials failed: %v", err)
	}
	if creds.OpenAI != "sk-test" {
		t.Errorf("Expected OpenAI key, got %+v", creds)
	}

	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gm-test")
	creds, err = LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials failed: %v", err)
	}
	if creds.Google != "gm-test" {
		t.Errorf("Expected GEMINI_API_KEY to populate Google credential, got %+v", creds)
	}
}
