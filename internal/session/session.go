// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session owns the client's authenticated state.

It holds the identity, the access/refresh tokens and the role, persists them
across restarts, restores them at start-up, and recovers from an expired
access token with a single refresh-and-retry cycle.

# Architecture

  - [Store]: the one owner of the session. Every other component receives it
    by explicit reference; there is no package-level state.
  - [Refresher]: the refresh protocol. It writes tokens only through
    the store's rotation, so the store stays the single writer of its keys.

# Ownership

The transport keeps a copy of the access token in its slot. Only the store
and the refresher write that slot, and they always write it before issuing a
request that depends on it.
*/
package session

import (
	"errors"
	"net/http"

	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/sec"
)

// # Domain Entities

// Identity is the serialized account identity persisted under `user_data`.
type Identity struct {
	ID    string   `json:"id,omitempty"`
	Phone string   `json:"phone,omitempty"`
	Email string   `json:"email,omitempty"`
	Role  sec.Role `json:"role"`
}

// Session is the authenticated state of the client.
type Session struct {
	AccessToken  string
	RefreshToken string // Empty when the service issued none.
	Identity     Identity
	Role         sec.Role
}

// AccountID returns the account identifier, empty when the service never sent one.
func (session Session) AccountID() string {
	return session.Identity.ID
}

// LoginInput carries what a successful verification hands to [Store.Login].
type LoginInput struct {
	AccessToken  string
	RefreshToken string
	Identity     Identity
	Role         sec.Role
}

// # Events

// EventKind names a session lifecycle transition.
type EventKind int

const (
	EventLoggedIn EventKind = iota
	EventLoggedOut
	EventTokenRotated
	EventStatusChanged

	// EventRestored follows a session loaded from storage by Rehydrate.
	EventRestored
)

// String implements [fmt.Stringer].
func (kind EventKind) String() string {
	switch kind {
	case EventLoggedIn:
		return "logged_in"
	case EventLoggedOut:
		return "logged_out"
	case EventTokenRotated:
		return "token_rotated"
	case EventStatusChanged:
		return "status_changed"
	case EventRestored:
		return "restored"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners registered with [Store.Subscribe].
type Event struct {
	Kind EventKind
	Role sec.Role
}

// # Errors

// CodeNoSession is the [apperr.AppError] code of [ErrNoSession].
const CodeNoSession = "NO_SESSION"

// ErrNoSession is returned by operations that need an authenticated session.
var ErrNoSession = &apperr.AppError{
	Code:       CodeNoSession,
	Message:    "No active session",
	HTTPStatus: http.StatusUnauthorized,
}

// ErrSessionReplaced is returned when a login or logout lands while a
// rotation for the previous session is in flight.
var ErrSessionReplaced = errors.New("session_replaced")
