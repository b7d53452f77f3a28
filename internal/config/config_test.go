package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadRequiresBackendURL(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "")
	t.Setenv("PORTAL_CONFIG", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without BACKEND_BASE_URL")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://api.barangay.test/")
	t.Setenv("PORTAL_CONFIG", "")
	t.Setenv("PORT", "9090")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("SESSION_TTL", "not-a-duration")
	t.Setenv("TIMEZONE", "Nowhere/Invalid")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BackendBaseURL != "https://api.barangay.test" {
		t.Fatalf("base url = %q", cfg.BackendBaseURL)
	}
	if cfg.Port != "9090" || cfg.BackendTimeout != 3*time.Second || cfg.JWTSecret != "s3cret" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("invalid duration should fall back, got %s", cfg.SessionTTL)
	}
	if len(cfg.DocumentTypes) != 4 {
		t.Fatalf("expected default catalog, got %d types", len(cfg.DocumentTypes))
	}
	if _, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, cfg.Location).Zone(); offset != 8*60*60 {
		t.Fatalf("expected UTC+8 fallback, offset = %d", offset)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	data := []byte(`
port: "7070"
screen_timeout: 30s
cache_ttl: 5m
document_types:
  - code: first_time_jobseeker
    name: First Time Jobseeker Certificate
    requires_purpose: false
  - code: barangay_clearance
    name: Barangay Clearance
    requires_purpose: true
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("BACKEND_BASE_URL", "http://localhost:5000")
	t.Setenv("PORTAL_CONFIG", path)
	t.Setenv("PORT", "8081")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("yaml should win over env, port = %q", cfg.Port)
	}
	if cfg.ScreenTimeout != 30*time.Second || cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("durations = %s %s", cfg.ScreenTimeout, cfg.CacheTTL)
	}
	if len(cfg.DocumentTypes) != 2 || cfg.DocumentTypes[0].Code != "first_time_jobseeker" || !cfg.DocumentTypes[1].RequiresPurpose {
		t.Fatalf("document types = %+v", cfg.DocumentTypes)
	}
}

func TestLoadRejectsMissingYAML(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://localhost:5000")
	t.Setenv("PORTAL_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
