package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("PORT", "")
	t.Setenv("REQUEST_TIMEOUT", "")
	t.Setenv("BOOKING_MAX_RETRIES", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" || cfg.RequestTimeout != 10*time.Second || cfg.BookingMaxRetries != 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.MailjetEnabled() {
		t.Fatal("mailjet must be disabled without keys")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "cache:6379")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("BOOKING_MAX_RETRIES", "5")
	t.Setenv("RATE_LIMIT_RPS", "0.5")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.RedisURL != "cache:6379" || cfg.RequestTimeout != 3*time.Second || cfg.BookingMaxRetries != 5 || cfg.RateLimitRPS != 0.5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"unknown backend":  {"STORE_BACKEND", "dynamo"},
		"bad timeout":      {"REQUEST_TIMEOUT", "soon"},
		"bad retries":      {"BOOKING_MAX_RETRIES", "many"},
		"negative retries": {"BOOKING_MAX_RETRIES", "-2"},
		"bad rate":         {"RATE_LIMIT_RPS", "fast"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("STORE_BACKEND", "memory")
			t.Setenv(kv[0], kv[1])
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error for %s=%s", kv[0], kv[1])
			}
		})
	}
}

func TestFromEnvPostgresNeedsDSN(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DB_CONNECTION_STRING", "")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error without DB_CONNECTION_STRING")
	}
}
