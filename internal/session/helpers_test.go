// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/taibuivan/gigly/internal/identity"
	"github.com/taibuivan/gigly/internal/platform/sec"
	"github.com/taibuivan/gigly/internal/profile"
	"github.com/taibuivan/gigly/internal/session"
	"github.com/taibuivan/gigly/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// # Fakes

type fakeSlot struct {
	mu    sync.Mutex
	token string
}

func (slot *fakeSlot) SetToken(token string) {
	slot.mu.Lock()
	defer slot.mu.Unlock()
	slot.token = token
}

func (slot *fakeSlot) Token() string {
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.token
}

type fakeRemote struct {
	logoutErr    error
	logoutCalls  atomic.Int32
	refreshCalls atomic.Int32
	refresh      func(ctx context.Context, role sec.Role, refreshToken string) (*identity.TokenPair, error)
}

func (remote *fakeRemote) Logout(_ context.Context, _ sec.Role, _ string) error {
	remote.logoutCalls.Add(1)
	return remote.logoutErr
}

func (remote *fakeRemote) RefreshToken(ctx context.Context, role sec.Role, refreshToken string) (*identity.TokenPair, error) {
	remote.refreshCalls.Add(1)
	if remote.refresh == nil {
		return &identity.TokenPair{AccessToken: "rotated"}, nil
	}
	return remote.refresh(ctx, role, refreshToken)
}

type resolverFunc func(ctx context.Context, role sec.Role) (profile.Status, error)

func (f resolverFunc) Resolve(ctx context.Context, role sec.Role) (profile.Status, error) {
	return f(ctx, role)
}

func readyStatus(role sec.Role) profile.Status {
	status := profile.Status{PhoneVerified: true, ProfileCompleted: true}
	if role == sec.RoleHelper {
		status.Account = profile.HelperAccount{EmailVerified: true}
	} else {
		status.Account = profile.ClientAccount{}
	}
	return status
}

// fixture bundles a store with its collaborators.
type fixture struct {
	store    *session.Store
	slot     *fakeSlot
	kv       *storage.MemoryStore
	remote   *fakeRemote
	resolver resolverFunc
}

func newFixture(resolver resolverFunc) *fixture {
	f := &fixture{
		slot:   &fakeSlot{},
		kv:     storage.NewMemoryStore(),
		remote: &fakeRemote{},
	}
	if resolver == nil {
		resolver = func(_ context.Context, role sec.Role) (profile.Status, error) {
			return readyStatus(role), nil
		}
	}
	f.resolver = resolver
	f.store = session.NewStore(f.slot, f.kv, f.resolver, f.remote, testLogger())
	return f
}
