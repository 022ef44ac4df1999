package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                  string
	YouTubeAPIKey         string
	YouTubeBaseURL        string
	DefaultVideoID        string
	DefaultGoalMaxResults int
	AllowedOrigins        []string
	RequestTimeout        time.Duration
	UpstreamTimeout       time.Duration
	MongoURI              string
	MongoDatabase         string
	NATSUrl               string
	FetchInterval         time.Duration
	RateLimit             time.Duration
	WatchVideoIDs         []string
	LogLevel              string
	LogFormat             string
}

var ErrMissingAPIKey = errors.New("YOUTUBE_API_KEY is required")

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded environment from .env")
	}

	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		YouTubeAPIKey:         getEnv("YOUTUBE_API_KEY", ""),
		YouTubeBaseURL:        getEnv("YOUTUBE_API_BASE_URL", ""),
		DefaultVideoID:        getEnv("DEFAULT_VIDEO_ID", "nCtoOJeXmdY"),
		DefaultGoalMaxResults: getIntEnv("DEFAULT_GOAL_MAX_RESULTS", 1000),
		AllowedOrigins:        getListEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000"),
		RequestTimeout:        getDurationEnv("REQUEST_TIMEOUT", "60s"),
		UpstreamTimeout:       getDurationEnv("UPSTREAM_TIMEOUT", "30s"),
		MongoURI:              getEnv("MONGO_URI", ""),
		MongoDatabase:         getEnv("MONGO_DATABASE", "commentsdb"),
		NATSUrl:               getEnv("NATS_URL", ""),
		FetchInterval:         getDurationEnv("FETCH_INTERVAL", "1h"),
		RateLimit:             getDurationEnv("RATE_LIMIT", "1s"),
		WatchVideoIDs:         getListEnv("WATCH_VIDEO_IDS", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "json"),
	}

	if cfg.YouTubeAPIKey == "" {
		return nil, ErrMissingAPIKey
	}

	log.Info().
		Str("port", cfg.Port).
		Int("default_goal", cfg.DefaultGoalMaxResults).
		Bool("storage", cfg.StorageEnabled()).
		Bool("worker", cfg.WorkerEnabled()).
		Dur("fetch_interval", cfg.FetchInterval).
		Msg("Config loaded")

	return cfg, nil
}

func (c *Config) StorageEnabled() bool { return c.MongoURI != "" }

func (c *Config) WorkerEnabled() bool { return c.NATSUrl != "" }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid duration, using default")
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid integer, using default")
	}
	return defaultValue
}

func getListEnv(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
