// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity is the client side of the remote identity service boundary.

It knows the routes and wire shapes of the service and nothing else: it holds
no session, no tokens, and makes no decisions. The OTP flow, the session store,
the profile resolver and the refresh manager each consume only the slice of
[Client] they need, through small interfaces declared next to them.

# Routes

Every route lives under `/api/v1/{role}`, where role is `client` or `helper`.
*/
package identity

import (
	"github.com/taibuivan/gigly/internal/platform/sec"
)

// # Wire Types

// Ack is the `{success, message}` acknowledgement most routes return.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Verification is the result of a successful phone code verification.
//
// Tokens and the user id are optional on the wire; an account-creating call
// is the one that carries the identifier.
type Verification struct {
	Success      bool    `json:"success"`
	Message      string  `json:"message,omitempty"`
	AccessToken  *string `json:"access_token,omitempty"`
	RefreshToken *string `json:"refresh_token,omitempty"`
	UserID       *string `json:"user_id,omitempty"`
}

// Completion is the answer of the profile completion check.
type Completion struct {
	Exists    bool `json:"exists"`
	Completed bool `json:"completed"`
}

// ProfileStatusPayload is the raw `profile-status` document.
type ProfileStatusPayload struct {
	ProfileCompleted bool   `json:"profile_completed"`
	EmailVerified    bool   `json:"email_verified"`
	PhoneVerified    bool   `json:"phone_verified"`
	UserType         string `json:"user_type"`
	ProfileType      string `json:"profile_type"`
}

// TokenPair is the result of a refresh call. The refresh token is present
// only when the service rotates it.
type TokenPair struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken *string `json:"refresh_token,omitempty"`
}

// ProfileInput is the mutable profile submitted by the completion page.
type ProfileInput struct {
	Name        string `json:"name"`
	Bio         string `json:"bio,omitempty"`
	Institution string `json:"institution,omitempty"`
}

// # Request Payloads

type phoneRequest struct {
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type verifyRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type codeRequest struct {
	OTP string `json:"otp"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// # Route Helpers

// base returns the route prefix for role.
func base(role sec.Role) string {
	return "/api/v1/" + role.String()
}
