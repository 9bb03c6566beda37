// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/gigly/internal/platform/ctxkey"
	"github.com/taibuivan/gigly/internal/platform/sec"
)

// # Request Tracing

// WithRequestID returns a copy of ctx carrying the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID returns the request ID, or "" when none is attached.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger returns the request logger, falling back to [slog.Default].
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok || logger == nil {
		return slog.Default()
	}
	return logger
}

// # Caller Identity

// WithAccount returns a copy of ctx carrying the verified token claims.
func WithAccount(ctx context.Context, claims *sec.AuthClaims) context.Context {
	return context.WithValue(ctx, ctxkey.KeyAccount, claims)
}

// GetAccount returns the verified token claims, or nil for anonymous calls.
func GetAccount(ctx context.Context) *sec.AuthClaims {
	claims, ok := ctx.Value(ctxkey.KeyAccount).(*sec.AuthClaims)
	if !ok {
		return nil
	}
	return claims
}
