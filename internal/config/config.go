// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the API server and the
// notification worker. Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// RedisAddr enables the coverage snapshot cache and no-coverage signals.
	// Empty disables both.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// KafkaBrokers enables operator and requester notifications. Empty
	// disables them; publish and quote flows still succeed.
	KafkaBrokers       []string
	NotificationsTopic string
	KafkaGroupID       string

	// GoogleMapsAPIKey enables geocoding of operator base locations.
	// Without it coverage is saved as not geocoded unless coordinates are given.
	GoogleMapsAPIKey string
	GeocodeRegion    string

	CoverageCacheTTL time.Duration
	MaxBodyBytes     int64
	RateLimitRPS     float64
	RateLimitBurst   int
}

// Load reads configuration from environment variables, after preloading
// any .env file in the working directory. Variables already set in the
// environment win over .env entries.
func Load() (Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit env file path. A missing file is not an error.
// Returns an error listing any required variables that are not set or any
// values that fail to parse.
func LoadFrom(envFile string) (Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config.Load: read %s: %w", envFile, err)
	}

	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSOrigins:        splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers:       splitCSV(os.Getenv("KAFKA_BROKERS")),
		NotificationsTopic: getEnv("KAFKA_NOTIFICATIONS_TOPIC", "charter.notifications"),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "charter-notifier"),
		GoogleMapsAPIKey:   os.Getenv("GOOGLE_MAPS_API_KEY"),
		GeocodeRegion:      os.Getenv("GEOCODE_REGION"),
	}

	var missing, invalid []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	parse := func(key, fallback string, fn func(string) error) {
		if err := fn(getEnv(key, fallback)); err != nil {
			invalid = append(invalid, key)
		}
	}
	parse("REDIS_DB", "0", func(s string) (err error) {
		cfg.RedisDB, err = strconv.Atoi(s)
		return err
	})
	parse("COVERAGE_CACHE_TTL", "60s", func(s string) (err error) {
		cfg.CoverageCacheTTL, err = time.ParseDuration(s)
		return err
	})
	parse("MAX_BODY_BYTES", "1048576", func(s string) (err error) {
		cfg.MaxBodyBytes, err = strconv.ParseInt(s, 10, 64)
		if err == nil && cfg.MaxBodyBytes <= 0 {
			err = errors.New("must be positive")
		}
		return err
	})
	parse("RATE_LIMIT_RPS", "10", func(s string) (err error) {
		cfg.RateLimitRPS, err = strconv.ParseFloat(s, 64)
		if err == nil && cfg.RateLimitRPS <= 0 {
			err = errors.New("must be positive")
		}
		return err
	})
	parse("RATE_LIMIT_BURST", "20", func(s string) (err error) {
		cfg.RateLimitBurst, err = strconv.Atoi(s)
		if err == nil && cfg.RateLimitBurst < 1 {
			err = errors.New("must be at least 1")
		}
		return err
	})

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
