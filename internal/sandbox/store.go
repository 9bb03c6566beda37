// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sandbox

import (
	"context"
	"time"

	"github.com/taibuivan/gigly/internal/platform/sec"
)

// # Repository Interfaces

// AccountRepository persists [Account] records.
type AccountRepository interface {

	/*
		FindByPhone retrieves the account registered for phone under role.

		Returns:
		  - *Account: The account
		  - error: apperr.NotFound if no account exists
	*/
	FindByPhone(context context.Context, role sec.Role, phone string) (*Account, error)

	/*
		FindByID retrieves an account by its identifier.

		Returns:
		  - error: apperr.NotFound if no account exists
	*/
	FindByID(context context.Context, id string) (*Account, error)

	/*
		Create inserts a new account.

		Returns:
		  - error: apperr.Conflict if the phone is already registered for the role
	*/
	Create(context context.Context, account *Account) error

	// Update overwrites the mutable fields of an existing account.
	Update(context context.Context, account *Account) error
}

// SessionRepository persists refresh-token sessions.
type SessionRepository interface {

	// Create stores a new session.
	Create(context context.Context, session *RefreshSession) error

	/*
		FindByTokenHash retrieves a session by its token digest, revoked or not.

		Returns:
		  - error: apperr.NotFound if the digest is unknown
	*/
	FindByTokenHash(context context.Context, tokenHash string) (*RefreshSession, error)

	/*
		Revoke marks a session as unusable. Revoking twice is not an error.

		Returns:
		  - bool: true only for the call that moved the session from live to revoked
	*/
	Revoke(context context.Context, sessionID string) (bool, error)
}

// CodeRepository stores outstanding one-time codes under an opaque key.
type CodeRepository interface {

	// Save stores code under key, replacing any previous code, for ttl.
	Save(context context.Context, key string, code Code, ttl time.Duration) error

	/*
		Find retrieves the code stored under key.

		Returns:
		  - error: apperr.NotFound if no live code exists
	*/
	Find(context context.Context, key string) (*Code, error)

	// Delete removes the code stored under key.
	Delete(context context.Context, key string) error
}

// # Code Keys

// phoneCodeKey addresses the phone challenge of a role.
func phoneCodeKey(role sec.Role, phone string) string {
	return role.String() + ":phone:" + phone
}

// emailCodeKey addresses the email challenge of an account.
func emailCodeKey(accountID string) string {
	return "email:" + accountID
}
