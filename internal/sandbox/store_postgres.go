// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sandbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/gigly/internal/platform/dberr"
	"github.com/taibuivan/gigly/internal/platform/sec"
)

// # Accounts

// PostgresAccountRepository implements [AccountRepository] on the identity.account table.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAccountRepository creates a PostgreSQL-backed account repository.
func NewPostgresAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

const accountColumns = `id, role, phone, email, phoneverified, emailverified,
	profilecompleted, profiletype, name, bio, institution, createdat, updatedat`

func scanAccount(row pgx.Row) (*Account, error) {
	account := &Account{}
	var role string
	err := row.Scan(
		&account.ID,
		&role,
		&account.Phone,
		&account.Email,
		&account.PhoneVerified,
		&account.EmailVerified,
		&account.ProfileCompleted,
		&account.ProfileType,
		&account.Name,
		&account.Bio,
		&account.Institution,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	account.Role = sec.Role(role)
	return account, nil
}

/*
FindByPhone retrieves the account registered for phone under role.

Returns:
  - error: apperr.NotFound if no row matches
*/
func (repository *PostgresAccountRepository) FindByPhone(context context.Context, role sec.Role, phone string) (*Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM identity.account WHERE role = $1 AND phone = $2`

	account, err := scanAccount(repository.pool.QueryRow(context, query, role.String(), phone))
	if err != nil {
		return nil, dberr.Wrap(err, "Account")
	}
	return account, nil
}

// FindByID retrieves an account by its identifier.
func (repository *PostgresAccountRepository) FindByID(context context.Context, id string) (*Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM identity.account WHERE id = $1`

	account, err := scanAccount(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "Account")
	}
	return account, nil
}

/*
Create inserts a new account.

Returns:
  - error: apperr.Conflict on the (role, phone) unique index
*/
func (repository *PostgresAccountRepository) Create(context context.Context, account *Account) error {
	const query = `INSERT INTO identity.account (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		account.ID,
		account.Role.String(),
		account.Phone,
		account.Email,
		account.PhoneVerified,
		account.EmailVerified,
		account.ProfileCompleted,
		account.ProfileType,
		account.Name,
		account.Bio,
		account.Institution,
		account.CreatedAt,
		account.UpdatedAt,
	)
	return dberr.Wrap(err, "Account")
}

// Update overwrites the mutable fields of an account.
func (repository *PostgresAccountRepository) Update(context context.Context, account *Account) error {
	const query = `
		UPDATE identity.account SET
			email = $2, phoneverified = $3, emailverified = $4, profilecompleted = $5,
			profiletype = $6, name = $7, bio = $8, institution = $9, updatedat = $10
		WHERE id = $1`

	account.UpdatedAt = time.Now()

	tag, err := repository.pool.Exec(context, query,
		account.ID,
		account.Email,
		account.PhoneVerified,
		account.EmailVerified,
		account.ProfileCompleted,
		account.ProfileType,
		account.Name,
		account.Bio,
		account.Institution,
		account.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "Account")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Account")
	}
	return nil
}

// # Sessions

// PostgresSessionRepository implements [SessionRepository] on the identity.refreshsession table.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSessionRepository creates a PostgreSQL-backed session repository.
func NewPostgresSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

// Create stores a new refresh session.
func (repository *PostgresSessionRepository) Create(context context.Context, session *RefreshSession) error {
	const query = `
		INSERT INTO identity.refreshsession (
			id, accountid, role, tokenhash, expiresat, isrevoked, createdat
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		session.ID,
		session.AccountID,
		session.Role.String(),
		session.TokenHash,
		session.ExpiresAt,
		session.IsRevoked,
		session.CreatedAt,
	)
	return dberr.Wrap(err, "Session")
}

/*
FindByTokenHash retrieves a session by its token digest.

Returns:
  - error: apperr.NotFound if the digest is unknown
*/
func (repository *PostgresSessionRepository) FindByTokenHash(context context.Context, tokenHash string) (*RefreshSession, error) {
	const query = `
		SELECT id, accountid, role, tokenhash, expiresat, isrevoked, createdat
		FROM identity.refreshsession
		WHERE tokenhash = $1`

	session := &RefreshSession{}
	var role string
	err := repository.pool.QueryRow(context, query, tokenHash).Scan(
		&session.ID,
		&session.AccountID,
		&role,
		&session.TokenHash,
		&session.ExpiresAt,
		&session.IsRevoked,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Session")
	}

	session.Role = sec.Role(role)
	return session, nil
}

// Revoke marks a live session as revoked. Only one concurrent caller sees true.
func (repository *PostgresSessionRepository) Revoke(context context.Context, sessionID string) (bool, error) {
	const query = "UPDATE identity.refreshsession SET isrevoked = TRUE WHERE id = $1 AND isrevoked = FALSE"
	tag, err := repository.pool.Exec(context, query, sessionID)
	if err != nil {
		return false, dberr.Wrap(err, "Session")
	}
	return tag.RowsAffected() == 1, nil
}
