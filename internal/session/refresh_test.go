// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gigly/internal/identity"
	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/constants"
	"github.com/taibuivan/gigly/internal/platform/sec"
	"github.com/taibuivan/gigly/internal/session"
	"github.com/taibuivan/gigly/pkg/pointer"
)

/*
TestRefresher_NoRefreshToken fails without calling the identity service.
*/
func TestRefresher_NoRefreshToken(t *testing.T) {
	f := newFixture(nil)
	require.NoError(t, f.store.Login(context.Background(), session.LoginInput{
		AccessToken: "access-1",
		Role:        sec.RoleClient,
	}))

	_, err := f.store.Refresher().Refresh(context.Background())

	assert.ErrorIs(t, err, session.ErrRefreshFailed)
	assert.True(t, apperr.IsUnauthorized(err))
	assert.Equal(t, int32(0), f.remote.refreshCalls.Load())
}

/*
TestRefresher_KeepsRefreshToken keeps the old refresh token when none is rotated in.
*/
func TestRefresher_KeepsRefreshToken(t *testing.T) {
	f := newFixture(nil)
	login(t, f, sec.RoleHelper)

	token, err := f.store.Refresher().Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "rotated", token)
	assert.Equal(t, "rotated", f.slot.Token())
	assert.Equal(t, "refresh-1", f.store.RefreshToken())
}

/*
TestRefresher_Do covers the single retry contract.
*/
func TestRefresher_Do(t *testing.T) {
	t.Run("success_skips_refresh", func(t *testing.T) {
		f := newFixture(nil)
		login(t, f, sec.RoleClient)

		calls := 0
		err := f.store.Refresher().Do(context.Background(), func(context.Context) error {
			calls++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, int32(0), f.remote.refreshCalls.Load())
	})

	t.Run("other_errors_pass_through", func(t *testing.T) {
		f := newFixture(nil)
		login(t, f, sec.RoleClient)

		err := f.store.Refresher().Do(context.Background(), func(context.Context) error {
			return apperr.NotFound("Account")
		})

		assert.True(t, apperr.IsNotFound(err))
		assert.Equal(t, int32(0), f.remote.refreshCalls.Load())
	})

	t.Run("retries_once", func(t *testing.T) {
		f := newFixture(nil)
		login(t, f, sec.RoleClient)

		calls := 0
		err := f.store.Refresher().Do(context.Background(), func(context.Context) error {
			calls++
			return apperr.Unauthorized("Token expired")
		})

		assert.True(t, apperr.IsUnauthorized(err))
		assert.NotErrorIs(t, err, session.ErrRefreshFailed)
		assert.Equal(t, 2, calls)
		assert.Equal(t, int32(1), f.remote.refreshCalls.Load())
	})
}

/*
TestRefresher_SharesInFlightRefresh collapses concurrent refreshes into one call.
*/
func TestRefresher_SharesInFlightRefresh(t *testing.T) {
	f := newFixture(nil)
	login(t, f, sec.RoleClient)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.remote.refresh = func(context.Context, sec.Role, string) (*identity.TokenPair, error) {
		once.Do(func() { close(entered) })
		<-release
		return &identity.TokenPair{AccessToken: "access-2"}, nil
	}

	const callers = 8
	tokens := make([]string, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := f.store.Refresher().Refresh(context.Background())
			assert.NoError(t, err)
			tokens[i] = token
		}()
	}

	<-entered
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), f.remote.refreshCalls.Load())
	for _, token := range tokens {
		assert.Equal(t, "access-2", token)
	}
}

/*
TestRefresher_LoginDuringRefresh discards a pair that was requested for the
previous session instead of installing it under the new identity.
*/
func TestRefresher_LoginDuringRefresh(t *testing.T) {
	f := newFixture(nil)
	login(t, f, sec.RoleClient)

	f.remote.refresh = func(ctx context.Context, _ sec.Role, refreshToken string) (*identity.TokenPair, error) {
		assert.Equal(t, "refresh-1", refreshToken)
		require.NoError(t, f.store.Login(ctx, session.LoginInput{
			AccessToken:  "access-b",
			RefreshToken: "refresh-b",
			Identity:     session.Identity{ID: "acc-b"},
			Role:         sec.RoleHelper,
		}))
		return &identity.TokenPair{AccessToken: "access-2", RefreshToken: pointer.To("refresh-2")}, nil
	}

	_, err := f.store.Refresher().Refresh(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrRefreshFailed)
	assert.ErrorIs(t, err, session.ErrSessionReplaced)

	assert.Equal(t, "acc-b", f.store.Identity().ID)
	assert.Equal(t, "access-b", f.store.AccessToken())
	assert.Equal(t, "refresh-b", f.store.RefreshToken())
	assert.Equal(t, "access-b", f.slot.Token())

	snapshot := f.kv.Snapshot()
	assert.Equal(t, "access-b", snapshot[constants.KeyAccessToken])
	assert.Equal(t, "refresh-b", snapshot[constants.KeyRefreshToken])
}

/*
TestRefresher_LogoutDuringRefresh does not resurrect a session that ended
while its refresh was in flight.
*/
func TestRefresher_LogoutDuringRefresh(t *testing.T) {
	f := newFixture(nil)
	login(t, f, sec.RoleClient)

	f.remote.refresh = func(ctx context.Context, _ sec.Role, _ string) (*identity.TokenPair, error) {
		f.store.Logout(ctx)
		return &identity.TokenPair{AccessToken: "access-2"}, nil
	}

	_, err := f.store.Refresher().Refresh(context.Background())

	assert.ErrorIs(t, err, session.ErrNoSession)
	assert.False(t, f.store.IsAuthenticated())
	assert.Empty(t, f.slot.Token())
	assert.NotContains(t, f.kv.Snapshot(), constants.KeyAccessToken)
}
