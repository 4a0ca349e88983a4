package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

type AppConfig struct {
	// OpenWeatherAPIKey may be empty: the service still starts and every fetch
	// reports a configuration error.
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string

	// DefaultCity is used until the viewer saves one.
	DefaultCity string

	// PreferencesDB is the SQLite file for preferences ("" = in memory only).
	PreferencesDB string

	HTTPTimeout     time.Duration
	CacheTTL        time.Duration
	RefreshInterval time.Duration // 0 disables the background refresh

	DayBoundary weather.ZoneMode

	// Client-side limit on provider calls.
	ProviderRPS   float64
	ProviderBurst int

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = os.Getenv("OPENWEATHER_BASE_URL")
	cfg.DefaultCity = getenvDefault("DEFAULT_CITY", store.DefaultCity)
	cfg.PreferencesDB = os.Getenv("PREFERENCES_DB")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", "5m"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	cfg.DayBoundary, err = weather.ParseZoneMode(os.Getenv("DAY_BOUNDARY"))
	if err != nil {
		return nil, fmt.Errorf("invalid DAY_BOUNDARY: %w", err)
	}

	cfg.ProviderRPS, err = getenvFloat("PROVIDER_RPS", 1)
	if err != nil {
		return nil, err
	}
	cfg.ProviderBurst = getenvInt("PROVIDER_BURST", 5)

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return f, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
