// Package config loads application configuration from environment variables,
// with recognition tuning defaults embedded from defaults.yaml.
package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config is the full application configuration.
type Config struct {
	Database    DatabaseConfig
	Detector    DetectorConfig
	Storage     StorageConfig
	Web         WebConfig
	Recognition RecognitionConfig `yaml:"recognition"`
	Thumbnails  ThumbnailConfig   `yaml:"thumbnails"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// DetectorConfig holds the face detector sidecar settings.
type DetectorConfig struct {
	URL string // base URL of the detection service; empty enables the fake detector
}

// StorageConfig holds file storage locations.
type StorageConfig struct {
	UploadDir string // directory for uploaded originals; thumbnails go to <dir>/thumbs
}

// WebConfig holds HTTP server settings.
type WebConfig struct {
	AdminToken string // bearer token required for admin operations; empty disables them
}

// RecognitionConfig tunes the identity resolution engine.
type RecognitionConfig struct {
	Tolerance      float64 `yaml:"tolerance"`
	EmbeddingDim   int     `yaml:"embedding_dim"`
	HNSWCandidates int     `yaml:"hnsw_candidates"`
}

// ThumbnailConfig tunes thumbnail generation.
type ThumbnailConfig struct {
	MaxSize     int `yaml:"max_size"`
	JPEGQuality int `yaml:"jpeg_quality"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// Load builds the configuration from embedded defaults and the environment.
func Load() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// Embedded file, so this only fires on a build-time mistake.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	cfg.Database = DatabaseConfig{
		URL:          os.Getenv("DATABASE_URL"),
		MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
		MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
	}
	cfg.Detector = DetectorConfig{
		URL: os.Getenv("DETECTOR_URL"),
	}
	cfg.Storage = StorageConfig{
		UploadDir: envString("UPLOAD_DIR", "uploads"),
	}
	cfg.Web = WebConfig{
		AdminToken: os.Getenv("ADMIN_TOKEN"),
	}

	cfg.Recognition.Tolerance = envFloat("FACE_TOLERANCE", cfg.Recognition.Tolerance)
	cfg.Recognition.EmbeddingDim = envInt("FACE_EMBEDDING_DIM", cfg.Recognition.EmbeddingDim)

	return &cfg
}
