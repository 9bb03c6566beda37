// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/pkg/pointer"
)

// ErrRefreshFailed wraps every failure of the refresh call itself, so callers
// can tell "the retry never happened" apart from "the retry failed".
var ErrRefreshFailed = errors.New("session_refresh_failed")

const refreshKey = "refresh"

// Refresher exchanges the refresh token for a new access token.
//
// # Concurrency
//
// Concurrent callers share one in-flight refresh: the first caller's context
// drives the call and everyone receives its outcome.
type Refresher struct {
	store  *Store
	remote Remote
	logger *slog.Logger
	group  singleflight.Group
}

func newRefresher(store *Store, remote Remote, logger *slog.Logger) *Refresher {
	return &Refresher{store: store, remote: remote, logger: logger}
}

/*
Refresh obtains and installs a new access token.

Without a refresh token no remote call is made. The new pair is installed
before Refresh returns, and only on the session it was requested for: a
login or logout that lands during the call makes Refresh fail with
[ErrSessionReplaced].

Returns:
  - string: The new access token
  - error: Wraps ErrRefreshFailed on every failure
*/
func (refresher *Refresher) Refresh(context context.Context) (string, error) {
	value, err, shared := refresher.group.Do(refreshKey, func() (any, error) {
		return refresher.refresh(context)
	})
	if shared {
		refresher.logger.Debug("session_refresh_shared")
	}
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

/*
Do runs op and, if it is rejected as unauthorized, refreshes once and runs it
again. The second outcome is final: Do never refreshes twice.

Parameters:
  - context: context.Context
  - op: func(context.Context) error (must be safe to run twice)

Returns:
  - error: The op error, or a refresh failure wrapping ErrRefreshFailed
*/
func (refresher *Refresher) Do(context context.Context, op func(context.Context) error) error {
	err := op(context)
	if !apperr.IsUnauthorized(err) {
		return err
	}

	refresher.logger.Info("session_access_token_rejected")

	if _, err := refresher.Refresh(context); err != nil {
		return err
	}
	return op(context)
}

func (refresher *Refresher) refresh(context context.Context) (string, error) {
	current, generation, ok := refresher.store.snapshot()
	if !ok {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, ErrNoSession)
	}
	if current.RefreshToken == "" {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, apperr.Unauthorized("No refresh token available"))
	}

	pair, err := refresher.remote.RefreshToken(context, current.Role, current.RefreshToken)
	if err != nil {
		refresher.logger.Warn("session_refresh_rejected",
			slog.String("role", current.Role.String()),
			slog.Any("error", err),
		)
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	// The pair belongs to the session it was requested for, never to a later login.
	if err := refresher.store.rotate(context, generation, pair.AccessToken, pointer.Val(pair.RefreshToken)); err != nil {
		refresher.logger.Info("session_refresh_discarded",
			slog.String("role", current.Role.String()),
			slog.Any("error", err),
		)
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	return pair.AccessToken, nil
}
