package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Config struct {
	Port            string
	UpstreamBaseURL string
	SosWSURL        string
	MongoURI        string
	JWTSecret       string
	JWTExpiry       string
	AllowedOrigins  []string

	// AdminUsername/AdminPassword seed a bootstrap operator account when the
	// operators collection is empty. Leave unset to skip seeding.
	AdminUsername string
	AdminPassword string

	// RequestTimeout bounds every upstream REST call; backend calls should
	// fail, not hang.
	RequestTimeout time.Duration

	// ReconnectDelay is the fixed wait between push-channel reconnect
	// attempts. There is no retry cap.
	ReconnectDelay time.Duration

	// SummaryRefreshInterval drives the dashboard background refresh.
	SummaryRefreshInterval time.Duration

	// SimulateMovement enables the fake live-position feed when the fleet
	// has no real telemetry source.
	SimulateMovement bool

	// ArchiveRetention is how long resolved alerts stay in the archive.
	// CleanupInterval is how often the pruning job runs.
	ArchiveRetention time.Duration
	CleanupInterval  time.Duration

	Redis RedisConfig
}

func Load() *Config {
	// .env is optional; plain environment variables are fine in deployment
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	upstreamBaseURL := os.Getenv("UPSTREAM_BASE_URL")
	if upstreamBaseURL == "" {
		log.Fatal("UPSTREAM_BASE_URL environment variable is not set")
	}

	sosWSURL := os.Getenv("SOS_WS_URL")
	if sosWSURL == "" {
		log.Fatal("SOS_WS_URL environment variable is not set")
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		log.Fatal("MONGO_URI environment variable is not set")
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173"
	}

	return &Config{
		Port:                   getEnv("PORT", "8080"),
		UpstreamBaseURL:        strings.TrimRight(upstreamBaseURL, "/"),
		SosWSURL:               sosWSURL,
		MongoURI:               mongoURI,
		JWTSecret:              os.Getenv("JWT_SECRET"),
		JWTExpiry:              os.Getenv("JWT_EXPIRY"),
		AllowedOrigins:         splitAndTrim(allowedOrigins),
		AdminUsername:          getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:          os.Getenv("ADMIN_PASSWORD"),
		RequestTimeout:         getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ReconnectDelay:         getDuration("RECONNECT_DELAY", 5*time.Second),
		SummaryRefreshInterval: getDuration("SUMMARY_REFRESH_INTERVAL", 60*time.Second),
		SimulateMovement:       getBool("SIMULATE_MOVEMENT", false),
		ArchiveRetention:       getDuration("ARCHIVE_RETENTION", 90*24*time.Hour),
		CleanupInterval:        getDuration("CLEANUP_INTERVAL", 12*time.Hour),
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     os.Getenv("REDIS_PASSWORD"),
			DB:           getInt("REDIS_DB", 0),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %d", key, value, fallback)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %v", key, value, fallback)
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %v", key, value, fallback)
		return fallback
	}
	return d
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
