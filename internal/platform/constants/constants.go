// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, OTP policy, persisted key names, and cross-cutting
header names that are shared between the client orchestrator and the sandbox
identity service.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the sandbox HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Challenge Policy: OTP length, resend cooldown, code lifetime.
  - Persisted State: The key names of the durable client key/value store.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "gigly"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// DefaultClientTimeout bounds a single call from the client transport.
	DefaultClientTimeout = 15 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Challenge Policy

const (
	// OTPLength is the exact number of digits a one-time code has.
	OTPLength = 6

	// ResendCooldown is the fixed window during which a challenge cannot be re-issued.
	ResendCooldown = 60 * time.Second

	// CooldownTick is the decrement step of the resend countdown.
	CooldownTick = 1 * time.Second

	// OTPCodeTTL is how long an issued code stays valid on the identity service.
	OTPCodeTTL = 5 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "gigly.app"

	// AccessTokenTTL is the lifetime of an access token issued by the sandbox.
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL is the lifetime of a refresh token issued by the sandbox.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// RefreshTokenLength is the byte length of the random refresh token.
	RefreshTokenLength = 32
)

// # Persisted State Keys

// Session keys are owned by the session store, NavPage by the navigation gate.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyAuthRoute    = "auth_route"
	KeyUserData     = "user_data"
	KeyNavPage      = "navPage"
)

// SessionKeys lists every key the session store writes.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyAuthRoute, KeyUserData}

// # HTTP Headers

const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"

	ContentTypeJSON = "application/json; charset=utf-8"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldChecks  = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixOTP    = "auth:otp:"
	RedisPrefixDevice = "gigly:device:"
)
