// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/taibuivan/gigly/internal/identity"
	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/constants"
	"github.com/taibuivan/gigly/internal/platform/sec"
	"github.com/taibuivan/gigly/internal/profile"
	"github.com/taibuivan/gigly/internal/storage"
)

// # Contracts

// TokenSlot is the transport's bearer token holder.
type TokenSlot interface {
	SetToken(token string)
}

// StatusResolver resolves the onboarding status of the current account.
type StatusResolver interface {
	Resolve(context context.Context, role sec.Role) (profile.Status, error)
}

// Remote is the identity-service slice the store and its refresher call.
type Remote interface {
	Logout(context context.Context, role sec.Role, refreshToken string) error
	RefreshToken(context context.Context, role sec.Role, refreshToken string) (*identity.TokenPair, error)
}

// # Store

// Store is the single owner of the authenticated session.
//
// Every method is safe for concurrent use. The mutex guards memory only and is
// never held across a network or storage call.
type Store struct {
	slot      TokenSlot
	kv        storage.Store
	resolver  StatusResolver
	remote    Remote
	refresher *Refresher
	logger    *slog.Logger

	mu         sync.RWMutex
	current    *Session
	status     *profile.Status
	generation uint64
	listeners  map[int]func(Event)
	nextID     int
}

// NewStore constructs a logged-out [Store] and its [Refresher].
func NewStore(slot TokenSlot, kv storage.Store, resolver StatusResolver, remote Remote, logger *slog.Logger) *Store {
	store := &Store{
		slot:      slot,
		kv:        kv,
		resolver:  resolver,
		remote:    remote,
		logger:    logger,
		listeners: make(map[int]func(Event)),
	}
	store.refresher = newRefresher(store, remote, logger)
	return store
}

// Refresher returns the refresh manager bound to this store.
func (store *Store) Refresher() *Refresher {
	return store.refresher
}

// # Read Accessors

// Current returns a copy of the session and whether one exists.
func (store *Store) Current() (Session, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.current == nil {
		return Session{}, false
	}
	return *store.current, true
}

// IsAuthenticated reports whether an identity is present.
func (store *Store) IsAuthenticated() bool {
	_, ok := store.Current()
	return ok
}

// Identity returns the session identity, zero when logged out.
func (store *Store) Identity() Identity {
	current, _ := store.Current()
	return current.Identity
}

// Role returns the session role, empty when logged out.
func (store *Store) Role() sec.Role {
	current, _ := store.Current()
	return current.Role
}

// AccessToken returns the current access token, empty when logged out.
func (store *Store) AccessToken() string {
	current, _ := store.Current()
	return current.AccessToken
}

// RefreshToken returns the current refresh token, empty when none was issued.
func (store *Store) RefreshToken() string {
	current, _ := store.Current()
	return current.RefreshToken
}

// ProfileStatus returns the last resolved status of the current session.
func (store *Store) ProfileStatus() (profile.Status, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.status == nil {
		return profile.Status{}, false
	}
	return *store.status, true
}

// # Lifecycle

/*
Login installs a freshly verified session.

The token reaches the transport slot and the identity reaches memory before
Login returns, so any status resolution issued afterwards is authenticated.
Persistence failures are logged and do not fail the login.

Parameters:
  - context: context.Context
  - input: LoginInput (access token and role are required)

Returns:
  - error: ValidationError on a malformed input
*/
func (store *Store) Login(context context.Context, input LoginInput) error {
	if input.AccessToken == "" {
		return apperr.ValidationError("Access token is required")
	}
	if !input.Role.Valid() {
		return apperr.ValidationError(fmt.Sprintf("Unknown account role %q", input.Role))
	}

	next := Session{
		AccessToken:  input.AccessToken,
		RefreshToken: input.RefreshToken,
		Identity:     input.Identity,
		Role:         input.Role,
	}
	next.Identity.Role = input.Role

	store.slot.SetToken(next.AccessToken)

	store.mu.Lock()
	store.current = &next
	store.status = nil
	store.generation++
	store.mu.Unlock()

	store.persist(context, next)

	store.logger.Info("session_logged_in",
		slog.String("role", next.Role.String()),
		slog.String("account_id", next.AccountID()),
	)
	store.emit(Event{Kind: EventLoggedIn, Role: next.Role})

	return nil
}

/*
Logout ends the session.

The remote logout is best-effort: its failure is logged and the local session
is cleared regardless. All four session keys are removed from storage; the
navigation key is not touched here.
*/
func (store *Store) Logout(context context.Context) {
	store.mu.Lock()
	previous := store.end()
	store.mu.Unlock()

	store.teardown(context, previous)
}

/*
Rehydrate restores a persisted session at start-up and resolves its status.

An in-memory session wins over storage and is written back. A persisted
session with an unknown role or unreadable identity is discarded. When the
status call is rejected as unauthorized, one refresh is attempted; if that
also fails the restored session is logged out, unless a login has replaced it
in the meantime. Other failures keep the session and are returned to the
caller.

Returns:
  - error: PersistenceError when storage cannot be read, or the resolution error
*/
func (store *Store) Rehydrate(context context.Context) error {
	if current, ok := store.Current(); ok {
		store.persist(context, current)
		_, err := store.resolveStatus(context, true)
		return err
	}

	loaded, found, err := store.load(context)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	store.slot.SetToken(loaded.AccessToken)

	store.mu.Lock()
	store.current = &loaded
	store.status = nil
	store.generation++
	store.mu.Unlock()

	store.logger.Info("session_rehydrated", slog.String("role", loaded.Role.String()))
	store.emit(Event{Kind: EventRestored, Role: loaded.Role})

	_, err = store.resolveStatus(context, true)
	return err
}

// RefreshProfileStatus re-resolves and caches the status of the current session.
// An unauthorized rejection goes through one refresh-and-retry cycle.
func (store *Store) RefreshProfileStatus(context context.Context) (profile.Status, error) {
	return store.resolveStatus(context, false)
}

/*
Rotate installs a new token pair on the current session.

The transport slot is written first so a retried request carries the new
token. An empty refresh token keeps the previous one.

Returns:
  - error: ErrNoSession when the session ended before the rotation landed,
    ErrSessionReplaced when another login replaced it
*/
func (store *Store) Rotate(context context.Context, accessToken, refreshToken string) error {
	store.mu.RLock()
	generation := store.generation
	store.mu.RUnlock()

	return store.rotate(context, generation, accessToken, refreshToken)
}

// Subscribe registers a listener for session events and returns its removal
// function. Listeners run on the caller's goroutine, outside the store lock.
func (store *Store) Subscribe(listener func(Event)) func() {
	store.mu.Lock()
	id := store.nextID
	store.nextID++
	store.listeners[id] = listener
	store.mu.Unlock()

	return func() {
		store.mu.Lock()
		delete(store.listeners, id)
		store.mu.Unlock()
	}
}

// # Internal

func (store *Store) resolveStatus(ctx context.Context, fatal bool) (profile.Status, error) {
	store.mu.RLock()
	if store.current == nil {
		store.mu.RUnlock()
		return profile.Status{}, ErrNoSession
	}
	role := store.current.Role
	generation := store.generation
	store.mu.RUnlock()

	var status profile.Status
	err := store.refresher.Do(ctx, func(ctx context.Context) error {
		resolved, err := store.resolver.Resolve(ctx, role)
		if err != nil {
			return err
		}
		status = resolved
		return nil
	})

	if err != nil {
		if fatal && (errors.Is(err, ErrRefreshFailed) || apperr.IsUnauthorized(err)) {
			store.logoutRejected(ctx, generation, err)
		}
		return profile.Status{}, err
	}

	// A login or logout during the call makes the result belong to someone else.
	store.mu.Lock()
	if store.generation != generation || store.current == nil {
		store.mu.Unlock()
		return status, nil
	}
	store.status = &status
	store.mu.Unlock()

	store.logger.Debug("session_status_resolved",
		slog.String("role", role.String()),
		slog.String("stage", profile.StageOf(status).String()),
	)
	store.emit(Event{Kind: EventStatusChanged, Role: role})

	return status, nil
}

// logoutRejected ends the session whose restore was rejected, unless a login
// or logout has replaced it in the meantime.
func (store *Store) logoutRejected(context context.Context, generation uint64, cause error) {
	store.mu.Lock()
	if store.generation != generation {
		store.mu.Unlock()
		store.logger.Info("session_rehydrate_rejection_ignored", slog.Any("error", cause))
		return
	}
	previous := store.end()
	store.mu.Unlock()

	store.logger.Warn("session_rehydrate_rejected", slog.Any("error", cause))
	store.teardown(context, previous)
}

// rotate installs the pair only if generation still names the current session.
func (store *Store) rotate(context context.Context, generation uint64, accessToken, refreshToken string) error {
	if accessToken == "" {
		return apperr.ValidationError("Access token is required")
	}

	store.mu.Lock()
	if store.current == nil {
		store.mu.Unlock()
		return ErrNoSession
	}
	if store.generation != generation {
		store.mu.Unlock()
		return ErrSessionReplaced
	}
	store.slot.SetToken(accessToken)
	store.current.AccessToken = accessToken
	if refreshToken != "" {
		store.current.RefreshToken = refreshToken
	}
	next := *store.current
	store.mu.Unlock()

	store.persist(context, next)

	store.logger.Info("session_token_rotated", slog.String("role", next.Role.String()))
	store.emit(Event{Kind: EventTokenRotated, Role: next.Role})

	return nil
}

// snapshot returns a copy of the session together with its generation.
func (store *Store) snapshot() (Session, uint64, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.current == nil {
		return Session{}, store.generation, false
	}
	return *store.current, store.generation, true
}

// end detaches the current session. The caller holds store.mu.
func (store *Store) end() *Session {
	previous := store.current
	store.current = nil
	store.status = nil
	store.generation++
	return previous
}

// teardown revokes previous remotely and clears the slot and the session keys.
func (store *Store) teardown(context context.Context, previous *Session) {
	if previous != nil {
		if err := store.remote.Logout(context, previous.Role, previous.RefreshToken); err != nil {
			store.logger.Warn("session_remote_logout_failed",
				slog.String("role", previous.Role.String()),
				slog.Any("error", err),
			)
		}
	}

	store.slot.SetToken("")

	if err := store.kv.Delete(context, constants.SessionKeys...); err != nil {
		store.logger.Warn("session_clear_failed", slog.Any("error", apperr.Persistence(err)))
	}

	role := sec.Role("")
	if previous != nil {
		role = previous.Role
	}

	store.logger.Info("session_logged_out", slog.String("role", role.String()))
	store.emit(Event{Kind: EventLoggedOut, Role: role})
}

func (store *Store) load(context context.Context) (Session, bool, error) {
	access, found, err := store.kv.Get(context, constants.KeyAccessToken)
	if err != nil {
		return Session{}, false, apperr.Persistence(err)
	}
	if !found || access == "" {
		return Session{}, false, nil
	}

	rawRole, _, err := store.kv.Get(context, constants.KeyAuthRoute)
	if err != nil {
		return Session{}, false, apperr.Persistence(err)
	}
	rawIdentity, _, err := store.kv.Get(context, constants.KeyUserData)
	if err != nil {
		return Session{}, false, apperr.Persistence(err)
	}
	refresh, _, err := store.kv.Get(context, constants.KeyRefreshToken)
	if err != nil {
		return Session{}, false, apperr.Persistence(err)
	}

	role, err := sec.ParseRole(rawRole)
	if err != nil {
		store.discard(context, "unknown_role", err)
		return Session{}, false, nil
	}

	var ident Identity
	if err := json.Unmarshal([]byte(rawIdentity), &ident); err != nil {
		store.discard(context, "corrupt_identity", err)
		return Session{}, false, nil
	}
	ident.Role = role

	return Session{
		AccessToken:  access,
		RefreshToken: refresh,
		Identity:     ident,
		Role:         role,
	}, true, nil
}

func (store *Store) discard(context context.Context, reason string, cause error) {
	store.logger.Warn("session_persisted_state_discarded",
		slog.String("reason", reason),
		slog.Any("error", cause),
	)
	if err := store.kv.Delete(context, constants.SessionKeys...); err != nil {
		store.logger.Warn("session_clear_failed", slog.Any("error", apperr.Persistence(err)))
	}
}

func (store *Store) persist(context context.Context, current Session) {
	payload, err := json.Marshal(current.Identity)
	if err != nil {
		store.logger.Warn("session_persist_failed", slog.Any("error", err))
		return
	}

	errs := []error{
		store.kv.Set(context, constants.KeyAccessToken, current.AccessToken),
		store.kv.Set(context, constants.KeyAuthRoute, current.Role.String()),
		store.kv.Set(context, constants.KeyUserData, string(payload)),
	}
	if current.RefreshToken != "" {
		errs = append(errs, store.kv.Set(context, constants.KeyRefreshToken, current.RefreshToken))
	} else {
		errs = append(errs, store.kv.Delete(context, constants.KeyRefreshToken))
	}

	if err := errors.Join(errs...); err != nil {
		store.logger.Warn("session_persist_failed", slog.Any("error", apperr.Persistence(err)))
	}
}

func (store *Store) emit(event Event) {
	store.mu.RLock()
	listeners := make([]func(Event), 0, len(store.listeners))
	for _, listener := range store.listeners {
		listeners = append(listeners, listener)
	}
	store.mu.RUnlock()

	for _, listener := range listeners {
		listener(event)
	}
}
