package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/climecapsule/climecapsule/internal/common"
)

var validate = validator.New()

// AppConfig holds everything the process needs at startup: the station's
// provider credentials, the archive location and the serving/ingest knobs.
type AppConfig struct {
	// Weather Underground PWS API.
	BaseURL             string `validate:"required,url"`
	APIKey              string `validate:"required"`
	StationID           string `validate:"required"`
	EarliestObservation string `validate:"required"`

	DBPath string `validate:"required"`

	// HTTPTimeout bounds each outbound provider call.
	HTTPTimeout time.Duration `validate:"gt=0"`

	// FetchInterval controls the periodic current-conditions ingest.
	FetchInterval time.Duration `validate:"gt=0"`

	Port     string
	AppEnv   string
	LogLevel string
}

// Load reads configuration from the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		BaseURL:             getenvDefault("WU_BASE_URL", "https://api.weather.com/v2/pws"),
		APIKey:              os.Getenv("WU_API_KEY"),
		StationID:           os.Getenv("WU_STATION_ID"),
		EarliestObservation: os.Getenv("WU_EARLIEST_OBSERVATION"),
		DBPath:              getenvDefault("DB_PATH", "weather.db"),
		Port:                getenvDefault("PORT", "8080"),
		AppEnv:              getenvDefault("APP_ENV", "dev"),
		LogLevel:            getenvDefault("LOG_LEVEL", "info"),
	}

	var err error
	cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := common.ParseDay(cfg.EarliestObservation); err != nil {
		return nil, fmt.Errorf("invalid WU_EARLIEST_OBSERVATION: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	s := getenvDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
