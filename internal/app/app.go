// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package app assembles the client orchestrator from configuration.

Wiring order:

 1. Durable storage (memory, file or Redis, per [config.Config.Storage]).
 2. Transport, then the identity client over it.
 3. Session store (the transport is its token slot), then the navigation gate
    following its events.
 4. Rehydration of any persisted session.

OTP flows are created on demand through [App.NewFlow]; each one owns a
countdown goroutine and must be closed.
*/
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/taibuivan/gigly/internal/identity"
	"github.com/taibuivan/gigly/internal/navigation"
	"github.com/taibuivan/gigly/internal/otp"
	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/config"
	redisstore "github.com/taibuivan/gigly/internal/platform/redis"
	"github.com/taibuivan/gigly/internal/platform/sec"
	"github.com/taibuivan/gigly/internal/platform/transport"
	"github.com/taibuivan/gigly/internal/profile"
	"github.com/taibuivan/gigly/internal/session"
	"github.com/taibuivan/gigly/internal/storage"
)

// App is the assembled client runtime.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Transport *transport.Client
	Identity  *identity.Client
	Storage   storage.Store
	Session   *session.Store
	Gate      *navigation.Gate

	unfollow func()
	closers  []func() error
}

/*
New wires the runtime and restores any persisted session.

Description: A remote failure while resolving the restored session's status
is logged and tolerated; the session stays and the status can be resolved
later. Storage failures are fatal.

Parameters:
  - ctx: context.Context
  - cfg: *config.Config
  - logger: *slog.Logger

Returns:
  - *App: the runtime; call [App.Close] when done
  - error: storage could not be opened or read
*/
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	application := &App{Config: cfg, Logger: logger}

	kv, err := application.openStorage(ctx)
	if err != nil {
		return nil, err
	}
	application.Storage = kv

	application.Transport = transport.New(cfg.APIURL, logger, transport.WithTimeout(cfg.HTTPTimeout))
	application.Identity = identity.NewClient(application.Transport)
	application.Session = session.NewStore(
		application.Transport,
		kv,
		profile.NewResolver(application.Identity),
		application.Identity,
		logger,
	)
	application.Gate = navigation.NewGate(kv, logger)
	application.unfollow = application.Gate.Follow(ctx, application.Session)

	if err := application.Session.Rehydrate(ctx); err != nil {
		if apperr.IsPersistence(err) {
			_ = application.Close()
			return nil, err
		}
		logger.Warn("app_status_unresolved", slog.String("code", errorCode(err)), slog.Any("error", err))
	}

	return application, nil
}

// NewFlow starts an OTP flow for role bound to this runtime's session.
func (application *App) NewFlow(role sec.Role, options ...otp.Option) *otp.Flow {
	return otp.NewFlow(
		role,
		application.Config.EmailSuffixes,
		application.Identity,
		application.Session,
		application.Session.Refresher(),
		application.Logger,
		options...,
	)
}

// CompleteProfile submits the profile form and re-resolves the onboarding status.
func (application *App) CompleteProfile(ctx context.Context, input identity.ProfileInput) (profile.Status, error) {
	role := application.Session.Role()
	if role == "" {
		return profile.Status{}, session.ErrNoSession
	}

	err := application.Session.Refresher().Do(ctx, func(ctx context.Context) error {
		_, err := application.Identity.CompleteProfile(ctx, role, input)
		return err
	})
	if err != nil {
		return profile.Status{}, err
	}

	return application.Session.RefreshProfileStatus(ctx)
}

// Close releases storage connections and stops following session events.
func (application *App) Close() error {
	if application.unfollow != nil {
		application.unfollow()
		application.unfollow = nil
	}

	var errs []error
	for i := len(application.closers) - 1; i >= 0; i-- {
		if err := application.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	application.closers = nil

	return errors.Join(errs...)
}

// openStorage opens the configured backend.
func (application *App) openStorage(ctx context.Context) (storage.Store, error) {
	cfg := application.Config

	switch cfg.Storage {
	case config.StorageMemory:
		return storage.NewMemoryStore(), nil

	case config.StorageRedis:
		client, err := redisstore.NewClient(ctx, cfg.RedisURL, application.Logger)
		if err != nil {
			return nil, apperr.Persistence(err)
		}
		application.closers = append(application.closers, client.Close)
		return storage.NewRedisStore(client, deviceID(cfg.DeviceID)), nil

	default:
		path, err := expandHome(cfg.StateFile)
		if err != nil {
			return nil, apperr.Persistence(err)
		}
		store, err := storage.OpenFileStore(path)
		if err != nil {
			return nil, apperr.Persistence(err)
		}
		return store, nil
	}
}

// deviceID namespaces Redis keys: the configured id, else the host name.
func deviceID(configured string) string {
	if configured != "" {
		return configured
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return uuid.NewString()
}

func expandHome(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("app_home_dir_failed: %w", err)
	}
	return filepath.Join(home, rest), nil
}

func errorCode(err error) string {
	if appError := apperr.As(err); appError != nil {
		return appError.Code
	}
	return apperr.CodeInternal
}
