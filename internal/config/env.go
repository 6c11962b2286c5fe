package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Env struct {
	AppAddr string
	GinMode string

	Storage      string
	DBDSN        string
	RedisURL     string
	TripCacheTTL time.Duration

	JWTSecret string

	MaxSeatsPerTrip     int
	DefaultSeatsPerRow  int
	StorageRetries      int
	StorageRetryBackoff time.Duration
	CascadeWorkers      int

	CORSAllowedOrigins []string

	// SeedUsers lists "id:role" accounts loaded into the in-memory user store.
	SeedUsers []string
}

const defaultDSN = "root:@tcp(127.0.0.1:3306)/bus_booking?parseTime=true&loc=UTC&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s"

func LoadEnv() Env {
	appAddr := strings.TrimSpace(os.Getenv("APP_ADDR"))
	if appAddr == "" {
		appAddr = ":8080"
	}

	storage := strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE")))
	if storage != "memory" {
		storage = "mysql"
	}

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = defaultDSN
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Println("[CONFIG] JWT_SECRET is empty, using development secret")
		secret = "dev-secret-change-me"
	}

	return Env{
		AppAddr:             appAddr,
		GinMode:             strings.TrimSpace(os.Getenv("GIN_MODE")),
		Storage:             storage,
		DBDSN:               dsn,
		RedisURL:            strings.TrimSpace(os.Getenv("REDIS_URL")),
		TripCacheTTL:        envDuration("TRIP_CACHE_TTL", 5*time.Minute),
		JWTSecret:           secret,
		MaxSeatsPerTrip:     envInt("MAX_SEATS_PER_TRIP", 60),
		DefaultSeatsPerRow:  envInt("DEFAULT_SEATS_PER_ROW", 4),
		StorageRetries:      envInt("STORAGE_RETRIES", 3),
		StorageRetryBackoff: envDuration("STORAGE_RETRY_BACKOFF", 50*time.Millisecond),
		CascadeWorkers:      envInt("CASCADE_WORKERS", 4),
		CORSAllowedOrigins:  envList("CORS_ALLOWED_ORIGINS"),
		SeedUsers:           envList("SEED_USERS"),
	}
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("[CONFIG] %s=%q is invalid, using default %d", key, raw, def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Printf("[CONFIG] %s=%q is invalid, using default %s", key, raw, def)
		return def
	}
	return d
}

func envList(key string) []string {
	out := []string{}
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
