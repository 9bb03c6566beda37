// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sandbox implements a local identity service that speaks the same wire
protocol as the production one.

It exists so the client orchestrator can be exercised end to end (CLI runs,
integration tests) without a real SMS or email provider: issued codes are
handed to a [Notifier] instead of being delivered, and can be pinned to a fixed
value.

# Architecture

  - [Account], [RefreshSession], [Code]: domain entities.
  - Repositories: in-memory by default, PostgreSQL for accounts and sessions,
    Redis for codes.
  - [Service]: the challenge, onboarding and token rules.
  - [Handler]: the `/api/v1/{role}` routes.
*/
package sandbox

import (
	"time"

	"github.com/taibuivan/gigly/internal/platform/sec"
)

// # Domain Entities

// Account is one phone number registered under one role. The same phone may
// hold a client and a helper account independently.
type Account struct {
	ID               string    `json:"id"`
	Role             sec.Role  `json:"role"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email,omitempty"`
	PhoneVerified    bool      `json:"phone_verified"`
	EmailVerified    bool      `json:"email_verified"`
	ProfileCompleted bool      `json:"profile_completed"`
	ProfileType      string    `json:"profile_type,omitempty"`
	Name             string    `json:"name,omitempty"`
	Bio              string    `json:"bio,omitempty"`
	Institution      string    `json:"institution,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RefreshSession is one issued refresh token, stored by digest only.
type RefreshSession struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Role      sec.Role  `json:"role"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	IsRevoked bool      `json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// Usable reports whether the session can still be exchanged at now.
func (session *RefreshSession) Usable(now time.Time) bool {
	return !session.IsRevoked && now.Before(session.ExpiresAt)
}

// Code is an outstanding one-time code, stored hashed.
type Code struct {
	Hash     string    `json:"hash"`
	Purpose  Purpose   `json:"purpose"`
	IssuedAt time.Time `json:"issued_at"`
}

// Purpose records why a phone code was issued.
type Purpose string

const (
	PurposeSignIn Purpose = "signin"
	PurposeSignUp Purpose = "signup"
	PurposeEmail  Purpose = "email"
)

// Profile types assigned when an account completes onboarding.
const (
	ProfileTypePersonal = "personal"
	ProfileTypeStudent  = "student"
)

// Channel is the medium a code is delivered over.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// # Field Identifiers

const (
	FieldPhone        = "phone"
	FieldEmail        = "email"
	FieldOTP          = "otp"
	FieldName         = "name"
	FieldRefreshToken = "refresh_token"
)
