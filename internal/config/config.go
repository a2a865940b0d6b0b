package config

import (
	"os"
	"strconv"
	"time"
)

type AppConfig struct {
	// Remote API
	APIBaseURL  string
	DevToken    string
	HTTPTimeout time.Duration

	// Local map viewer
	ViewerAddr string

	// Session slot (empty means ~/.rtx/session.json)
	SessionFile string

	// Fallback map center when geolocation is unavailable (Joinville-SC)
	DefaultLat float64
	DefaultLng float64

	// Third-party geo endpoints
	GeocodeURL    string
	LocateURL     string
	LocateTimeout time.Duration
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		APIBaseURL:  getEnv("RTX_API_BASE_URL", "http://localhost:8080"),
		DevToken:    getEnv("RTX_DEV_TOKEN", ""),
		HTTPTimeout: getEnvDuration("RTX_HTTP_TIMEOUT", 15*time.Second),

		ViewerAddr: getEnv("RTX_VIEWER_ADDR", "127.0.0.1:7455"),

		SessionFile: getEnv("RTX_SESSION_FILE", ""),

		DefaultLat: getEnvFloat("RTX_DEFAULT_LAT", -26.3045),
		DefaultLng: getEnvFloat("RTX_DEFAULT_LNG", -48.8487),

		GeocodeURL:    getEnv("RTX_GEOCODE_URL", "https://nominatim.openstreetmap.org"),
		LocateURL:     getEnv("RTX_LOCATE_URL", "http://ip-api.com/json"),
		LocateTimeout: getEnvDuration("RTX_LOCATE_TIMEOUT", 7*time.Second),
	}
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
