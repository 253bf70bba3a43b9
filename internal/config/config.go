package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all service settings, populated from environment variables.
type AppConfig struct {
	// Serial ingestion.
	SerialEnabled    bool
	SerialPort       string
	SerialBaud       int
	SerialRetryDelay time.Duration

	// SQLite reading store.
	DBPath string

	// WeatherAPI.com upstream.
	WeatherAPIKey   string
	WeatherLocation string // passed verbatim as the "q" query parameter

	// HTTPTimeout bounds outbound upstream calls.
	HTTPTimeout time.Duration

	// RetrainInterval controls how often the forecast model is refit.
	RetrainInterval time.Duration

	Port     string
	LogLevel string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &AppConfig{
		SerialEnabled:   getenvBool("SERIAL_ENABLED", true),
		SerialPort:      getenvDefault("SERIAL_PORT", "/dev/ttyUSB0"),
		SerialBaud:      getenvInt("SERIAL_BAUD", 115200),
		DBPath:          getenvDefault("DB_PATH", "weather.db"),
		WeatherAPIKey:   os.Getenv("WEATHERAPI_API_KEY"),
		WeatherLocation: getenvDefault("WEATHER_LOCATION", "New Town,West Bengal"),
		Port:            getenvDefault("PORT", "8080"),
		LogLevel:        getenvDefault("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.SerialRetryDelay, err = getenvDuration("SERIAL_RETRY_DELAY", "2s"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.RetrainInterval, err = getenvDuration("RETRAIN_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	if cfg.SerialBaud <= 0 {
		return nil, fmt.Errorf("SERIAL_BAUD must be positive")
	}

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

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	v := getenvDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
