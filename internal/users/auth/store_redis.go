// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/secretbox/internal/platform/constants"
)

// # Revocation Cache

// CachedRevocationRepository fronts a durable [RevocationRepository] with Redis.
//
// The durable store stays authoritative. A Redis failure degrades to a
// database lookup and is only logged.
type CachedRevocationRepository struct {
	durable RevocationRepository
	client  *redis.Client
	logger  *slog.Logger
	now     func() time.Time
}

// NewCachedRevocationRepository wraps durable with a Redis read-through cache.
func NewCachedRevocationRepository(durable RevocationRepository, client *redis.Client, logger *slog.Logger) *CachedRevocationRepository {
	return &CachedRevocationRepository{
		durable: durable,
		client:  client,
		logger:  logger,
		now:     time.Now,
	}
}

/*
Revoke writes the record to the durable store, then marks the jti in Redis
until the record expires.

Parameters:
  - context: context.Context
  - record: RevokedToken

Returns:
  - error: ErrDuplicateRevocation or durable store failures
*/
func (repository *CachedRevocationRepository) Revoke(context context.Context, record RevokedToken) error {
	if err := repository.durable.Revoke(context, record); err != nil {
		return err
	}

	repository.remember(context, record)
	return nil
}

/*
IsRevoked consults Redis first and falls back to the durable store.

Description: A durable hit is written back to Redis so the next lookup of the
same jti stays in memory.

Returns:
  - bool: True when the jti is revoked
  - error: Durable store failures only
*/
func (repository *CachedRevocationRepository) IsRevoked(context context.Context, jti string) (bool, error) {
	key := constants.RedisPrefixRevokedToken + jti

	err := repository.client.Get(context, key).Err()
	switch {
	case err == nil:
		return true, nil
	case !errors.Is(err, redis.Nil):
		repository.logger.WarnContext(context, "revocation_cache_get_failed", slog.String("jti", jti), slog.Any("error", err))
	}

	record, err := repository.durable.Find(context, jti)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}

	repository.remember(context, *record)
	return true, nil
}

// Find delegates to the durable store.
func (repository *CachedRevocationRepository) Find(context context.Context, jti string) (*RevokedToken, error) {
	return repository.durable.Find(context, jti)
}

// PurgeExpired delegates to the durable store. Cached keys expire on their own.
func (repository *CachedRevocationRepository) PurgeExpired(context context.Context, now time.Time) (int64, error) {
	return repository.durable.PurgeExpired(context, now)
}

// remember caches record until its retention instant. Expired records are skipped.
func (repository *CachedRevocationRepository) remember(context context.Context, record RevokedToken) {
	ttl := time.Unix(record.ExpiresIn, 0).Sub(repository.now())
	if ttl <= 0 {
		return
	}

	key := constants.RedisPrefixRevokedToken + record.JTI
	if err := repository.client.Set(context, key, record.UserID, ttl).Err(); err != nil {
		repository.logger.WarnContext(context, "revocation_cache_set_failed", slog.String("jti", record.JTI), slog.Any("error", err))
	}
}
