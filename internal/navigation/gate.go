// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package navigation holds the current dashboard page of the authenticated shell.

The [Gate] is the only writer of the `navPage` key. It seeds itself from
storage once the role is known, and only after that seeding completes does it
start persisting, so a returning user's saved page is never overwritten by the
default.
*/
package navigation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/constants"
	"github.com/taibuivan/gigly/internal/platform/sec"
	"github.com/taibuivan/gigly/internal/session"
	"github.com/taibuivan/gigly/internal/storage"
)

// Gate is the navigation store of one client process.
type Gate struct {
	kv     storage.Store
	logger *slog.Logger

	mu       sync.Mutex
	role     sec.Role
	stage    Stage
	hydrated bool
}

// NewGate constructs an un-hydrated [Gate].
func NewGate(kv storage.Store, logger *slog.Logger) *Gate {
	return &Gate{kv: kv, logger: logger}
}

/*
Hydrate seeds the gate for a role from storage.

An unreadable, unknown, or foreign-role value falls back to the role default.
The gate is marked hydrated first and then writes its value back, so the
fallback is what storage holds afterwards. Calling Hydrate with another role
re-seeds.

Parameters:
  - context: context.Context
  - role: sec.Role

Returns:
  - Stage: The seeded stage
*/
func (gate *Gate) Hydrate(context context.Context, role sec.Role) Stage {
	stage := Default(role)

	raw, found, err := gate.kv.Get(context, constants.KeyNavPage)
	switch {
	case err != nil:
		gate.logger.Warn("navigation_load_failed", slog.Any("error", apperr.Persistence(err)))
	case found:
		if parsed, ok := ParseStage(role, raw); ok {
			stage = parsed
		} else {
			gate.logger.Info("navigation_stage_reset",
				slog.String("role", role.String()),
				slog.String("stored", raw),
			)
		}
	}

	gate.mu.Lock()
	gate.role = role
	gate.stage = stage
	gate.hydrated = true
	gate.mu.Unlock()

	gate.save(context, stage)
	return stage
}

/*
SetStage moves the gate to another stage of the current role.

Before hydration the change stays in memory; afterwards it is persisted
immediately.

Returns:
  - error: ValidationError for a stage outside the role's set
*/
func (gate *Gate) SetStage(context context.Context, stage Stage) error {
	gate.mu.Lock()
	if !Permits(gate.role, stage) {
		role := gate.role
		gate.mu.Unlock()
		return apperr.ValidationError(fmt.Sprintf("Stage %q is not available to %q accounts", stage, role))
	}
	gate.stage = stage
	hydrated := gate.hydrated
	gate.mu.Unlock()

	if hydrated {
		gate.save(context, stage)
	}
	return nil
}

// Stage returns the current stage.
func (gate *Gate) Stage() Stage {
	gate.mu.Lock()
	defer gate.mu.Unlock()
	return gate.stage
}

// Role returns the role the gate was seeded for.
func (gate *Gate) Role() sec.Role {
	gate.mu.Lock()
	defer gate.mu.Unlock()
	return gate.role
}

// Hydrated reports whether seeding from storage has completed.
func (gate *Gate) Hydrated() bool {
	gate.mu.Lock()
	defer gate.mu.Unlock()
	return gate.hydrated
}

// Reset forgets the role and stage. The persisted value is kept for the next login.
func (gate *Gate) Reset() {
	gate.mu.Lock()
	defer gate.mu.Unlock()
	gate.role = ""
	gate.stage = ""
	gate.hydrated = false
}

// # Session Binding

// EventSource is the session-store slice the gate follows.
type EventSource interface {
	Subscribe(listener func(session.Event)) func()
}

// Follow re-seeds the gate on every login or restore and resets it on logout.
// It returns the unsubscribe function.
func (gate *Gate) Follow(context context.Context, source EventSource) func() {
	return source.Subscribe(func(event session.Event) {
		switch event.Kind {
		case session.EventLoggedIn, session.EventRestored:
			gate.Hydrate(context, event.Role)
		case session.EventLoggedOut:
			gate.Reset()
		}
	})
}

func (gate *Gate) save(context context.Context, stage Stage) {
	if err := gate.kv.Set(context, constants.KeyNavPage, encode(stage)); err != nil {
		gate.logger.Warn("navigation_persist_failed", slog.Any("error", apperr.Persistence(err)))
	}
}
