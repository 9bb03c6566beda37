// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr maps PostgreSQL driver errors onto [apperr.AppError] values.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/gigly/internal/platform/apperr"
)

/*
Wrap classifies a database error.

Parameters:
  - err: error (nil passes through)
  - resource: string (used in NOT_FOUND and CONFLICT messages, e.g. "Account")

Returns:
  - error: NOT_FOUND for a missing row, CONFLICT for a unique violation,
    INTERNAL_ERROR otherwise
*/
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	var pgError *pgconn.PgError
	if errors.As(err, &pgError) && pgError.Code == pgerrcode.UniqueViolation {
		conflict := apperr.Conflict(fmt.Sprintf("%s already exists", resource))
		conflict.Cause = err
		return conflict
	}

	return apperr.Internal(err)
}
