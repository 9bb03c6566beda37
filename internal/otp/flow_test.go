// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/taibuivan/gigly/internal/identity"
	"github.com/taibuivan/gigly/internal/otp"
	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/sec"
	"github.com/taibuivan/gigly/internal/profile"
	"github.com/taibuivan/gigly/internal/session"
	"github.com/taibuivan/gigly/internal/storage"
	"github.com/taibuivan/gigly/pkg/pointer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// # Fakes

// fakeIdentity is an in-memory identity service with call counters.
type fakeIdentity struct {
	mu sync.Mutex

	registered    bool
	completed     bool
	emailVerified bool
	calls         map[string]int
	codes         []string
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{calls: make(map[string]int)}
}

func (api *fakeIdentity) count(op string) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.calls[op]++
}

func (api *fakeIdentity) Calls(op string) int {
	api.mu.Lock()
	defer api.mu.Unlock()
	return api.calls[op]
}

func (api *fakeIdentity) SignIn(_ context.Context, _ sec.Role, _ string) (*identity.Ack, error) {
	api.count("signin")
	api.mu.Lock()
	defer api.mu.Unlock()
	if !api.registered {
		return nil, apperr.NotFound("Account")
	}
	return &identity.Ack{Success: true}, nil
}

func (api *fakeIdentity) SignUp(_ context.Context, _ sec.Role, _, _ string) (*identity.Ack, error) {
	api.count("signup")
	api.mu.Lock()
	defer api.mu.Unlock()
	api.registered = true
	return &identity.Ack{Success: true}, nil
}

func (api *fakeIdentity) VerifyOTP(_ context.Context, _ sec.Role, _, code string) (*identity.Verification, error) {
	api.count("verify")
	api.mu.Lock()
	defer api.mu.Unlock()
	api.codes = append(api.codes, code)
	if code != "123456" {
		return nil, apperr.ValidationError("Invalid code")
	}
	return &identity.Verification{
		Success:      true,
		AccessToken:  pointer.To("access-1"),
		RefreshToken: pointer.To("refresh-1"),
		UserID:       pointer.To("acc-1"),
	}, nil
}

func (api *fakeIdentity) CheckCompletion(_ context.Context, _ sec.Role) (*identity.Completion, error) {
	api.count("completion")
	api.mu.Lock()
	defer api.mu.Unlock()
	return &identity.Completion{Exists: true, Completed: api.completed}, nil
}

func (api *fakeIdentity) UpdateEmail(_ context.Context, _ string) (*identity.Ack, error) {
	api.count("update_email")
	return &identity.Ack{Success: true}, nil
}

func (api *fakeIdentity) ResendEmailVerification(_ context.Context) (*identity.Ack, error) {
	api.count("resend_email")
	return &identity.Ack{Success: true}, nil
}

func (api *fakeIdentity) VerifyEmailOTP(_ context.Context, code string) (*identity.Ack, error) {
	api.count("verify_email")
	if code != "654321" {
		return nil, apperr.ValidationError("Invalid code")
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	api.emailVerified = true
	return &identity.Ack{Success: true}, nil
}

func (api *fakeIdentity) ProfileStatus(_ context.Context, role sec.Role) (*identity.ProfileStatusPayload, error) {
	api.count("status")
	api.mu.Lock()
	defer api.mu.Unlock()
	return &identity.ProfileStatusPayload{
		ProfileCompleted: api.completed,
		EmailVerified:    api.emailVerified,
		PhoneVerified:    true,
		UserType:         role.String(),
	}, nil
}

func (api *fakeIdentity) Logout(context.Context, sec.Role, string) error { return nil }

func (api *fakeIdentity) RefreshToken(context.Context, sec.Role, string) (*identity.TokenPair, error) {
	return nil, apperr.Unauthorized("Refresh token revoked")
}

type tokenSlot struct {
	mu    sync.Mutex
	token string
}

func (slot *tokenSlot) SetToken(token string) {
	slot.mu.Lock()
	defer slot.mu.Unlock()
	slot.token = token
}

// harness wires a flow to a real session store over the fake service.
type harness struct {
	api          *fakeIdentity
	store        *session.Store
	flow         *otp.Flow
	mu           sync.Mutex
	destinations []otp.Destination
}

func newHarness(t *testing.T, role sec.Role, api *fakeIdentity) *harness {
	t.Helper()
	h := &harness{api: api}
	h.store = session.NewStore(&tokenSlot{}, storage.NewMemoryStore(), profile.NewResolver(api), api, testLogger())
	h.flow = otp.NewFlow(role, suffixes, api, h.store, h.store.Refresher(), testLogger(),
		otp.WithTick(time.Millisecond),
		otp.WithNavigator(func(destination otp.Destination) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.destinations = append(h.destinations, destination)
		}),
	)
	t.Cleanup(h.flow.Close)
	return h
}

func (h *harness) Destinations() []otp.Destination {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]otp.Destination(nil), h.destinations...)
}

/*
TestFlow_VerifyYieldsSessionOfRole verifies that a phone verification logs in
with the role the flow was started for.
*/
func TestFlow_VerifyYieldsSessionOfRole(t *testing.T) {
	for _, role := range []sec.Role{sec.RoleClient, sec.RoleHelper} {
		t.Run(role.String(), func(t *testing.T) {
			api := newFakeIdentity()
			api.registered = true
			api.completed = true
			h := newHarness(t, role, api)
			ctx := context.Background()

			state := h.flow.Dispatch(ctx, otp.SubmitPhone{Phone: "+819012345678"})
			require.Equal(t, otp.PhaseChallengeSent, state.Phase)

			state = h.flow.Dispatch(ctx, otp.EnterCode{Code: "123456"})

			assert.Equal(t, otp.PhaseDone, state.Phase)
			assert.Equal(t, otp.DestinationDashboard, state.Destination)
			assert.Equal(t, role, h.store.Role())
			assert.Equal(t, "acc-1", h.store.Identity().ID)
			assert.Equal(t, []otp.Destination{otp.DestinationDashboard}, h.Destinations())
		})
	}
}

/*
TestFlow_PasteCode triggers exactly one verification for a full code and none otherwise.
*/
func TestFlow_PasteCode(t *testing.T) {
	api := newFakeIdentity()
	api.registered = true
	h := newHarness(t, sec.RoleClient, api)
	ctx := context.Background()

	h.flow.Dispatch(ctx, otp.SubmitPhone{Phone: "+819012345678"})

	state := h.flow.Dispatch(ctx, otp.PasteCode{Text: "12345"})
	assert.Equal(t, 0, api.Calls("verify"))
	assert.Equal(t, otp.PhaseChallengeSent, state.Phase)

	h.flow.Dispatch(ctx, otp.PasteCode{Text: "123456"})
	assert.Equal(t, 1, api.Calls("verify"))
	assert.Equal(t, []string{"123456"}, api.codes)
}

/*
TestFlow_HelperSignupNeedsEmail walks an unregistered helper to the email stage
and through the email challenge.
*/
func TestFlow_HelperSignupNeedsEmail(t *testing.T) {
	api := newFakeIdentity()
	h := newHarness(t, sec.RoleHelper, api)
	ctx := context.Background()

	state := h.flow.Dispatch(ctx, otp.SubmitPhone{Phone: "+819012345678"})
	require.Equal(t, otp.PhaseAwaitingSignupEmail, state.Phase)
	assert.Equal(t, 1, api.Calls("signin"))
	assert.Equal(t, 0, api.Calls("signup"))

	state = h.flow.Dispatch(ctx, otp.SubmitSignupEmail{Email: "aiko@uni.edu"})
	require.Equal(t, otp.PhaseChallengeSent, state.Phase)
	assert.Equal(t, otp.PurposeSignUp, state.Challenge.Purpose)

	state = h.flow.Dispatch(ctx, otp.EnterCode{Code: "123456"})
	require.Equal(t, otp.PhaseNeedsEmail, state.Phase)
	assert.Equal(t, otp.DestinationEmailVerification, state.Destination)
	assert.Equal(t, []otp.Destination{otp.DestinationEmailVerification}, h.Destinations())
	assert.Equal(t, sec.RoleHelper, h.store.Role())

	state = h.flow.Dispatch(ctx, otp.SubmitEmail{Email: "aiko@uni.edu"})
	require.Equal(t, otp.PhaseEmailChallengeSent, state.Phase)

	state = h.flow.Dispatch(ctx, otp.EnterCode{Code: "000000"})
	assert.Equal(t, otp.PhaseEmailChallengeSent, state.Phase)
	assert.Equal(t, "000000", state.Code)
	assert.True(t, apperr.IsValidation(state.Err))

	state = h.flow.Dispatch(ctx, otp.EnterCode{Code: "654321"})
	assert.Equal(t, otp.PhaseDone, state.Phase)
	assert.Equal(t, otp.DestinationProfileCompletion, state.Destination)

	status, ok := h.store.ProfileStatus()
	require.True(t, ok)
	assert.True(t, status.EmailVerified())
}

/*
TestFlow_CooldownRunsDown lets the flow's own countdown re-enable resend.
*/
func TestFlow_CooldownRunsDown(t *testing.T) {
	api := newFakeIdentity()
	api.registered = true
	h := newHarness(t, sec.RoleClient, api)
	ctx := context.Background()

	state := h.flow.Dispatch(ctx, otp.SubmitPhone{Phone: "+819012345678"})
	require.Equal(t, 60, state.Cooldown)

	state = h.flow.Dispatch(ctx, otp.Resend{})
	assert.True(t, apperr.HasCode(state.Err, apperr.CodeRateLimited))
	assert.Equal(t, 1, api.Calls("signin"))

	require.Eventually(t, func() bool {
		return h.flow.State().CanResend()
	}, 2*time.Second, 5*time.Millisecond)

	state = h.flow.Dispatch(ctx, otp.Resend{})
	assert.Equal(t, 2, api.Calls("signin"))
	assert.NoError(t, state.Err)
	assert.Positive(t, state.Cooldown)
}

/*
TestFlow_CloseDiscardsLateOutcomes ignores everything after Close.
*/
func TestFlow_CloseDiscardsLateOutcomes(t *testing.T) {
	api := newFakeIdentity()
	api.registered = true
	h := newHarness(t, sec.RoleClient, api)
	ctx := context.Background()

	before := h.flow.Dispatch(ctx, otp.SubmitPhone{Phone: "+819012345678"})
	h.flow.Close()

	after := h.flow.Dispatch(ctx, otp.PasteCode{Text: "123456"})

	assert.Equal(t, before.Phase, after.Phase)
	assert.Equal(t, 0, api.Calls("verify"))
}
