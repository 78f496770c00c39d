// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/secretbox/internal/platform/config"
	pgstore "github.com/taibuivan/secretbox/internal/platform/postgres"
	redisstore "github.com/taibuivan/secretbox/internal/platform/redis"
	"github.com/taibuivan/secretbox/internal/users/auth"
)

// infrastructure holds the connections shared by every command.
type infrastructure struct {
	cfg   *config.Config
	log   *slog.Logger
	pool  *pgxpool.Pool
	redis *redis.Client
}

// connect loads configuration and opens PostgreSQL and Redis.
func connect(parent context.Context) (*infrastructure, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := slog.Default()
	if cfg.Debug {
		log = newLogger(true)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	pool, err := pgstore.NewPool(parent, cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	client, err := redisstore.NewClient(parent, cfg.RedisURL, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &infrastructure{cfg: cfg, log: log, pool: pool, redis: client}, nil
}

// revocations returns the Redis-fronted PostgreSQL revocation store.
func (infra *infrastructure) revocations() *auth.CachedRevocationRepository {
	return auth.NewCachedRevocationRepository(auth.NewRevocationRepository(infra.pool), infra.redis, infra.log)
}

// Close releases the connections in reverse order of opening.
func (infra *infrastructure) Close() {
	infra.log.Info("closing_redis_client")
	if err := infra.redis.Close(); err != nil {
		infra.log.Error("redis_close_failed", slog.Any("error", err))
	}

	infra.log.Info("closing_postgres_pool")
	infra.pool.Close()
}
