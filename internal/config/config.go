package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/barangay-portal/resident-gateway/internal/models"
)

// Config is the gateway's runtime configuration.
type Config struct {
	Port           string        `yaml:"port"`
	BackendBaseURL string        `yaml:"backend_base_url"`
	BackendTimeout time.Duration `yaml:"backend_timeout"`
	BackendRPS     float64       `yaml:"backend_rps"`
	BackendBurst   int           `yaml:"backend_burst"`

	// JWTSecret verifies resident tokens locally. When empty every new token
	// is confirmed against the backend before it is trusted.
	JWTSecret string `yaml:"jwt_secret"`

	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`

	SessionTTL    time.Duration `yaml:"session_ttl"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	ScreenTimeout time.Duration `yaml:"screen_timeout"`
	Timezone      string        `yaml:"timezone"`
	LogLevel      string        `yaml:"log_level"`

	DocumentTypes []models.DocumentType `yaml:"document_types"`

	Location *time.Location `yaml:"-"`
}

// DefaultDocumentTypes is the catalog offered when none is configured.
func DefaultDocumentTypes() []models.DocumentType {
	return []models.DocumentType{
		{Code: "barangay_clearance", Name: "Barangay Clearance", RequiresPurpose: true},
		{Code: "certificate_of_residency", Name: "Certificate of Residency", RequiresPurpose: true},
		{Code: "certificate_of_indigency", Name: "Certificate of Indigency", RequiresPurpose: true},
		{Code: "business_clearance", Name: "Business Clearance", RequiresPurpose: false},
	}
}

// Load reads .env, the environment and the optional YAML file named by
// PORTAL_CONFIG, in that order of precedence (YAML wins).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Info: no .env file loaded, relying on environment: %v", err)
	}

	cfg := &Config{
		Port:           getenvDefault("PORT", "8080"),
		BackendBaseURL: os.Getenv("BACKEND_BASE_URL"),
		BackendTimeout: getenvDurationDefault("BACKEND_TIMEOUT", 10*time.Second),
		BackendRPS:     getenvFloatDefault("BACKEND_RPS", 20),
		BackendBurst:   getenvIntDefault("BACKEND_BURST", 40),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		MongoURI:       os.Getenv("MONGOURI"),
		MongoDatabase:  getenvDefault("MONGO_DATABASE", "barangay_portal"),
		SessionTTL:     getenvDurationDefault("SESSION_TTL", 24*time.Hour),
		CacheTTL:       getenvDurationDefault("CACHE_TTL", time.Minute),
		ScreenTimeout:  getenvDurationDefault("SCREEN_TIMEOUT", 15*time.Second),
		Timezone:       getenvDefault("TIMEZONE", "Asia/Manila"),
		LogLevel:       getenvDefault("LOG_LEVEL", "info"),
	}

	if path := os.Getenv("PORTAL_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) finalize() error {
	c.BackendBaseURL = strings.TrimRight(strings.TrimSpace(c.BackendBaseURL), "/")
	if c.BackendBaseURL == "" {
		return errors.New("config: BACKEND_BASE_URL is required")
	}
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.BackendRPS <= 0 {
		c.BackendRPS = 20
	}
	if c.BackendBurst <= 0 {
		c.BackendBurst = 1
	}
	if len(c.DocumentTypes) == 0 {
		c.DocumentTypes = DefaultDocumentTypes()
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("WARNING: unknown TIMEZONE %q, falling back to UTC+8: %v", c.Timezone, err)
		loc = time.FixedZone("PHT", 8*60*60)
	}
	c.Location = loc
	return nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDurationDefault(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("WARNING: invalid %s %q, using %s: %v", key, value, fallback, err)
		return fallback
	}
	return parsed
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
