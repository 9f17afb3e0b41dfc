package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the CLI and the dashboard server need.
type Config struct {
	// Database
	DatabasePath string

	// HTTP
	Port           string
	AllowedOrigins []string

	// Tracker polling
	PollInterval     time.Duration
	TrackerTimeout   time.Duration
	TrackerStatusURL string
	TrackerFeedURL   string
	RunnerLabel      string

	// Course geometry
	GPXPath            string
	GPXElevationUnit   string
	ProfilePointsPerKm int

	// Plan defaults
	RaceStart         string
	TargetFinish      string
	TransitionMinutes float64

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and then the environment, falling back to defaults.
func Load() *Config {
	_ = godotenv.Load(".env")

	return &Config{
		DatabasePath: getEnv("SQLITE_DATABASE", ":memory:"),

		Port:           getEnv("PORT", "8222"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		PollInterval:     time.Duration(getEnvInt("POLL_INTERVAL", 30)) * time.Second,
		TrackerTimeout:   time.Duration(getEnvInt("TRACKER_TIMEOUT", 15)) * time.Second,
		TrackerStatusURL: getEnv("TRACKER_STATUS_URL", "https://trackleaders.com/spot/tahoe200-25/Jorge_Combe-status.json"),
		TrackerFeedURL:   getEnv("TRACKER_FEED_URL", "https://trackleaders.com/spot/tahoe200-25/Jorge_Combe.js"),
		RunnerLabel:      getEnv("RUNNER_LABEL", "Jorge Combe (57)"),

		GPXPath:            getEnv("GPX_PATH", ""),
		GPXElevationUnit:   getEnv("GPX_ELEVATION_UNIT", "ft"),
		ProfilePointsPerKm: getEnvInt("PROFILE_POINTS_PER_KM", 5),

		RaceStart:         getEnv("RACE_START", "2025-06-13T09:00:00-07:00"),
		TargetFinish:      getEnv("TARGET_FINISH", "85h"),
		TransitionMinutes: getEnvFloat("TRANSITION_MINUTES", 15),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
