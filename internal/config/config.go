package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	DBURL       string
	ServiceName string

	// Postgres start-up wait
	DBWaitAttempts int

	// Redis token cache; empty RedisAddr selects the in-process cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TokenCacheTTL time.Duration

	BcryptCost int

	OTLPEndpoint string

	// Optional superuser provisioned at start-up
	SuperuserEmail    string
	SuperuserPassword string

	CORSAllowedOrigins []string
	MaxBodyBytes       int64
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real env vars take precedence.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:                getEnv("APP_ENV", "dev"),
		Port:               getEnvInt("PORT", 8080),
		DBURL:              buildDBURL(),
		ServiceName:        getEnv("SERVICE_NAME", "accounts-api"),
		DBWaitAttempts:     getEnvInt("DB_WAIT_ATTEMPTS", 10),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		TokenCacheTTL:      time.Duration(getEnvInt("TOKEN_CACHE_TTL_SECONDS", 300)) * time.Second,
		BcryptCost:         getEnvInt("BCRYPT_COST", 10),
		OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		SuperuserEmail:     getEnv("SUPERUSER_EMAIL", ""),
		SuperuserPassword:  getEnv("SUPERUSER_PASSWORD", ""),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
	}
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "accounts")
	pass := getEnv("DB_PASSWORD", "accounts")
	name := getEnv("DB_NAME", "accounts")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
