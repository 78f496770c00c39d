// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/secretbox/internal/platform/ctxkey"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Actor Slot

// Actor is filled by the authentication gate once the caller is known.
//
// The access logger installs an empty Actor before calling downstream handlers
// and reads it back after they return, so the slot must be a pointer.
type Actor struct {
	UserID string
	Role   string
}

// WithActor returns a new context carrying an empty [Actor] slot.
func WithActor(ctx context.Context) (context.Context, *Actor) {
	actor := &Actor{}
	return context.WithValue(ctx, ctxkey.KeyActor, actor), actor
}

// SetActor records the authenticated caller in the slot installed by [WithActor].
// It is a no-op when no slot exists.
func SetActor(ctx context.Context, userID, role string) {
	if actor, ok := ctx.Value(ctxkey.KeyActor).(*Actor); ok && actor != nil {
		actor.UserID = userID
		actor.Role = role
	}
}
