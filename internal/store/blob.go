package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Blob is a string-keyed store for serialized values.
type Blob interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config selects and configures a Blob backend.
type Config struct {
	Driver        string // "sqlite" (default) or "redis"
	Path          string // sqlite database path
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open returns the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Blob, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite":
		slog.Debug("opening sqlite storage", "path", cfg.Path)
		s, err := New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		slog.Debug("opening redis storage", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		r, err := NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
