package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"hotel-booking-server/storage"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	LogLevel string

	Store storage.Options

	RequestTimeout    time.Duration
	BookingMaxRetries int

	AccessTokenSecret string
	JWKSURL           string
	AdminKeyHash      string

	MailjetAPIKey    string
	MailjetSecretKey string
	NotifyEmailFrom  string
	NotifyEmailTo    string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads a .env file when present, then the process environment.
func Load() (*Config, error) {
	if os.Getenv("RENDER") == "" {
		if err := godotenv.Load(); err != nil {
			slog.Warn("could not load .env file, using process environment only")
		}
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:     getenv("PORT", "8080"),
		LogLevel: getenv("LOG_LEVEL", "info"),
		Store: storage.Options{
			Backend:       getenv("STORE_BACKEND", storage.BackendPostgres),
			DatabaseURL:   os.Getenv("DB_CONNECTION_STRING"),
			RedisURL:      getenv("REDIS_URL", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
		},
		AccessTokenSecret: os.Getenv("ACCESS_TOKEN_SECRET"),
		JWKSURL:           os.Getenv("JWKS_URL"),
		AdminKeyHash:      os.Getenv("ADMIN_KEY_HASH"),
		MailjetAPIKey:     os.Getenv("MAILJET_API_KEY"),
		MailjetSecretKey:  os.Getenv("MAILJET_SECRET_KEY"),
		NotifyEmailFrom:   os.Getenv("NOTIFY_EMAIL_FROM"),
		NotifyEmailTo:     os.Getenv("NOTIFY_EMAIL_TO"),
	}

	var err error
	if cfg.RequestTimeout, err = durationEnv("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.BookingMaxRetries, err = intEnv("BOOKING_MAX_RETRIES", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = intEnv("RATE_LIMIT_BURST", 4); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = floatEnv("RATE_LIMIT_RPS", 2); err != nil {
		return nil, err
	}

	switch cfg.Store.Backend {
	case storage.BackendMemory, storage.BackendRedis:
	case storage.BackendPostgres:
		if cfg.Store.DatabaseURL == "" {
			return nil, fmt.Errorf("DB_CONNECTION_STRING environment variable is required for the %s backend", storage.BackendPostgres)
		}
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be one of memory, postgres, redis; got %q", cfg.Store.Backend)
	}
	if cfg.BookingMaxRetries < 0 {
		return nil, fmt.Errorf("BOOKING_MAX_RETRIES must not be negative")
	}
	return cfg, nil
}

func (c *Config) MailjetEnabled() bool {
	return c.MailjetAPIKey != "" && c.MailjetSecretKey != "" && c.NotifyEmailTo != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 10s: %w", key, err)
	}
	return d, nil
}
