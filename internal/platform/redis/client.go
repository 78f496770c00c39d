// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis opens the client backing the revocation cache.

Every request that passes the authentication gate performs one point lookup
("is this jti revoked?"), and every logout writes one key whose TTL matches the
durable revocation record. The workload is many tiny, short-lived commands, so
the pool is sized for concurrency and the per-command deadlines are kept below
the gate's own budget: a slow cache must fail fast and let the gate fall back
to PostgreSQL.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// # Revocation Cache Profile

const (
	// Lookups run on the request path; keep them well under a second.
	dialTimeout  = 2 * time.Second
	readTimeout  = 500 * time.Millisecond
	writeTimeout = 500 * time.Millisecond
	pingTimeout  = 2 * time.Second

	// One lookup per authenticated request.
	poolSize     = 20
	minIdleConns = 4
	maxIdleConns = 10

	// A failed lookup is retried once before the gate falls back.
	maxRetries = 1
)

// NewClient parses redisURL, applies the revocation cache profile and
// verifies connectivity.
//
// # Parameters
//   - context: Bounds the initial ping.
//   - redisURL: redis:// or rediss:// connection URL.
//   - logger: Receives the connection event.
func NewClient(context stdctx.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	applyProfile(options)

	client := redis.NewClient(options)
	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_connected",
		slog.String("addr", options.Addr),
		slog.Int("db", options.DB),
		slog.Int("pool_size", options.PoolSize),
	)

	return client, nil
}

// applyProfile overrides pool and deadline settings from the URL.
func applyProfile(options *redis.Options) {
	options.PoolSize = poolSize
	options.MinIdleConns = minIdleConns
	options.MaxIdleConns = maxIdleConns
	options.MaxRetries = maxRetries
	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout
}

// Ping reports whether the cache answers within [pingTimeout]. The readiness
// probe uses it directly.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}
