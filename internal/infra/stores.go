package infra

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/milkrun/storefront/internal/config"
)

const (
	connectTimeout = 5 * time.Second
	poolIdleTime   = 5 * time.Minute
	poolHealthTick = 30 * time.Second
)

// Stores holds the backing stores named in the configuration. A nil field
// means the store is not configured and callers fall back to memory.
type Stores struct {
	DB    *pgxpool.Pool
	Cache *redis.Client
}

// Open connects to Postgres and Redis when their URLs are set, migrates the
// schema, and verifies both with a ping. On error nothing is left open.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (Stores, error) {
	var s Stores

	if cfg.DatabaseURL != "" {
		db, err := openPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return Stores{}, err
		}
		s.DB = db
		if err := Migrate(ctx, db); err != nil {
			s.Close(logger)
			return Stores{}, err
		}
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	if cfg.RedisURL != "" {
		cache, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			s.Close(logger)
			return Stores{}, err
		}
		s.Cache = cache
	} else {
		logger.Warn("REDIS_URL not set, rate limiting, idempotency and geocode caching disabled")
	}
	return s, nil
}

// Close releases whatever Open connected.
func (s Stores) Close(logger *slog.Logger) {
	if s.Cache != nil {
		if err := s.Cache.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			logger.Warn("close redis", slog.Any("error", err))
		}
	}
	if s.DB != nil {
		s.DB.Close()
	}
}

func openPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	cfg.MaxConnIdleTime = poolIdleTime
	cfg.HealthCheckPeriod = poolHealthTick

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := ping(ctx, pool.Ping); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.DialTimeout = connectTimeout
	client := redis.NewClient(opt)

	if err := ping(ctx, func(ctx context.Context) error { return client.Ping(ctx).Err() }); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	return fn(ctx)
}
