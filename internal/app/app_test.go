// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package app_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gigly/internal/api"
	"github.com/taibuivan/gigly/internal/app"
	"github.com/taibuivan/gigly/internal/identity"
	"github.com/taibuivan/gigly/internal/navigation"
	"github.com/taibuivan/gigly/internal/otp"
	"github.com/taibuivan/gigly/internal/platform/config"
	"github.com/taibuivan/gigly/internal/platform/constants"
	"github.com/taibuivan/gigly/internal/platform/sec"
	"github.com/taibuivan/gigly/internal/profile"
	"github.com/taibuivan/gigly/internal/sandbox"
	"github.com/taibuivan/gigly/internal/session"
)

const fixedCode = "135790"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSandbox(t *testing.T) *httptest.Server {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tokenService, err := sec.NewEphemeralTokenService(constants.AuthIssuer)
	require.NoError(t, err)

	policy := sandbox.DefaultPolicy()
	policy.ResendInterval = 0
	policy.FixedOTP = fixedCode
	policy.EmailSuffixes = []string{".edu"}

	service := sandbox.NewService(
		sandbox.NewMemoryAccountRepository(),
		sandbox.NewMemorySessionRepository(),
		sandbox.NewMemoryCodeRepository(),
		tokenService,
		sandbox.NewLogNotifier(testLogger()),
		policy,
		testLogger(),
	)

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{}, testLogger())
	server := api.NewServer(ctx, &config.SandboxConfig{ServerPort: "0", Environment: "test"}, testLogger(), api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Roles: []*sandbox.Handler{
			sandbox.NewHandler(service, tokenService, sec.RoleClient),
			sandbox.NewHandler(service, tokenService, sec.RoleHelper),
		},
	})

	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(httpServer.Close)
	return httpServer
}

func fileConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	return &config.Config{
		APIURL:        baseURL,
		HTTPTimeout:   5 * time.Second,
		Storage:       config.StorageFile,
		StateFile:     filepath.Join(t.TempDir(), "nested", "state.json"),
		EmailSuffixes: []string{".edu"},
		Environment:   "test",
	}
}

func signIn(t *testing.T, application *app.App, role sec.Role, phone string) otp.State {
	t.Helper()

	ctx := context.Background()
	flow := application.NewFlow(role, otp.WithTick(time.Millisecond))
	defer flow.Close()

	state := flow.Dispatch(ctx, otp.SubmitPhone{Phone: phone})
	require.Equal(t, otp.PhaseChallengeSent, state.Phase, "err: %v", state.Err)

	state = flow.Dispatch(ctx, otp.EnterCode{Code: fixedCode})
	require.NoError(t, state.Err)
	return state
}

/*
TestNew_FreshStorage starts with no persisted session.
*/
func TestNew_FreshStorage(t *testing.T) {
	server := newSandbox(t)

	application, err := app.New(context.Background(), fileConfig(t, server.URL), testLogger())
	require.NoError(t, err)
	defer application.Close()

	assert.False(t, application.Session.IsAuthenticated())
	assert.False(t, application.Gate.Hydrated())
}

/*
TestNew_RestoresPersistedSession logs in, closes the runtime and opens a new
one on the same state file.
*/
func TestNew_RestoresPersistedSession(t *testing.T) {
	server := newSandbox(t)
	cfg := fileConfig(t, server.URL)
	ctx := context.Background()

	first, err := app.New(ctx, cfg, testLogger())
	require.NoError(t, err)

	state := signIn(t, first, sec.RoleClient, "08011112222")
	assert.Equal(t, otp.PhaseDone, state.Phase)
	assert.Equal(t, otp.DestinationProfileCompletion, state.Destination)

	require.NoError(t, first.Gate.SetStage(ctx, navigation.StageSearchHelpers))
	accountID := first.Session.Identity().ID
	require.NoError(t, first.Close())

	second, err := app.New(ctx, cfg, testLogger())
	require.NoError(t, err)
	defer second.Close()

	require.True(t, second.Session.IsAuthenticated())
	assert.Equal(t, accountID, second.Session.Identity().ID)
	assert.Equal(t, sec.RoleClient, second.Session.Role())
	assert.Equal(t, second.Session.AccessToken(), second.Transport.Token())

	assert.True(t, second.Gate.Hydrated())
	assert.Equal(t, navigation.StageSearchHelpers, second.Gate.Stage())

	status, ok := second.Session.ProfileStatus()
	require.True(t, ok)
	assert.Equal(t, profile.StageAwaitingProfileCompletion, profile.StageOf(status))
}

/*
TestCompleteProfile submits the form and re-resolves the stage.
*/
func TestCompleteProfile(t *testing.T) {
	server := newSandbox(t)
	ctx := context.Background()

	application, err := app.New(ctx, fileConfig(t, server.URL), testLogger())
	require.NoError(t, err)
	defer application.Close()

	t.Run("Anonymous", func(t *testing.T) {
		_, err := application.CompleteProfile(ctx, identity.ProfileInput{Name: "Ren"})
		assert.ErrorIs(t, err, session.ErrNoSession)
	})

	t.Run("Client", func(t *testing.T) {
		signIn(t, application, sec.RoleClient, "08033334444")

		status, err := application.CompleteProfile(ctx, identity.ProfileInput{Name: "Ren", Bio: "Moving house"})
		require.NoError(t, err)
		assert.Equal(t, profile.StageReady, profile.StageOf(status))
	})
}

/*
TestNew_MemoryStorage keeps nothing between runtimes.
*/
func TestNew_MemoryStorage(t *testing.T) {
	server := newSandbox(t)
	cfg := fileConfig(t, server.URL)
	cfg.Storage = config.StorageMemory
	ctx := context.Background()

	first, err := app.New(ctx, cfg, testLogger())
	require.NoError(t, err)
	signIn(t, first, sec.RoleClient, "08055556666")
	require.NoError(t, first.Close())

	second, err := app.New(ctx, cfg, testLogger())
	require.NoError(t, err)
	defer second.Close()

	assert.False(t, second.Session.IsAuthenticated())
}
