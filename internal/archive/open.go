package archive

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Options struct {
	DatabaseURL string
	RedisURL    string
	TTL         time.Duration
	History     int
}

// Open picks the backend: Postgres when a database URL is set, otherwise
// Redis when a Redis URL is set, otherwise memory.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch {
	case strings.TrimSpace(opts.DatabaseURL) != "":
		repo, err := OpenPostgres(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("archive backend", zap.String("backend", "postgres"))
		return repo, nil
	case strings.TrimSpace(opts.RedisURL) != "":
		repo, err := OpenRedis(ctx, opts.RedisURL, opts.TTL, opts.History)
		if err != nil {
			return nil, err
		}
		logger.Info("archive backend", zap.String("backend", "redis"), zap.Duration("ttl", opts.TTL))
		return repo, nil
	default:
		logger.Info("archive backend", zap.String("backend", "memory"))
		return NewMemoryRepository(), nil
	}
}
