// Package config loads process configuration from the environment.
// Values are read once at startup; there is no hot reload.
package config

import (
	"os"
	"strconv"
)

// Cloudinary holds credentials for the external image store.
type Cloudinary struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
}

// Config is the full service configuration.
type Config struct {
	Port        string
	DBPath      string
	FrontendURL string
	Cloudinary  Cloudinary

	// AllowLocalFallback lets a failed upload of an already-hosted URL
	// degrade to using that URL directly. Development only; never
	// enable in production.
	AllowLocalFallback bool

	// Share endpoint rate limit, per client IP.
	ShareRequestsPerHour int
	ShareBurst           int
}

// Load reads configuration from environment variables, applying
// defaults that mirror a local development setup.
func Load() *Config {
	return &Config{
		Port:        envOr("PORT", "3000"),
		DBPath:      envOr("DB_PATH", "arshare.db"),
		FrontendURL: envOr("FRONTEND_URL", "http://localhost:3000"),
		Cloudinary: Cloudinary{
			CloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:       os.Getenv("CLOUDINARY_API_KEY"),
			APISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
			UploadPreset: envOr("CLOUDINARY_UPLOAD_PRESET", "ml_default"),
		},
		AllowLocalFallback:   envBool("ALLOW_LOCAL_FALLBACK"),
		ShareRequestsPerHour: envInt("SHARE_REQUESTS_PER_HOUR", 100),
		ShareBurst:           envInt("SHARE_BURST", 10),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}
