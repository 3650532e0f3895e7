package storage

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Options struct {
	Backend       string
	DatabaseURL   string
	RedisURL      string
	RedisPassword string
}

// Open builds the Store selected by opts.Backend and verifies it is reachable.
func Open(ctx context.Context, opts Options, log *slog.Logger) (Store, error) {
	switch opts.Backend {
	case BackendMemory:
		log.Warn("using in-memory store, bookings will not survive a restart")
		return NewMemoryStore(), nil
	case BackendPostgres:
		db, err := InitializeDB(opts.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(db), nil
	case BackendRedis:
		client := InitializeRedis(opts.RedisURL, opts.RedisPassword)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("pinging redis at %s: %w", opts.RedisURL, err)
		}
		log.Info("redis initialized", "addr", opts.RedisURL)
		return NewRedisStore(client), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
}
