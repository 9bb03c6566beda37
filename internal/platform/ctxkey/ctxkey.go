// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey defines typed context keys shared by the sandbox middleware
// and its handlers.
//
// Keys use an unexported type, so a plain string key stored by another
// package can never collide with them.
package ctxkey

type key string

const (
	// KeyRequestID carries the X-Request-ID correlation value.
	KeyRequestID key = "request_id"

	// KeyAccount carries the verified access-token claims ([sec.AuthClaims]).
	KeyAccount key = "account"

	// KeyLogger carries the per-request [*log/slog.Logger].
	KeyLogger key = "logger"
)
