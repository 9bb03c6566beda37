// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gigly/internal/identity"
	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/sec"
	"github.com/taibuivan/gigly/internal/profile"
)

type fetcherFunc func(ctx context.Context, role sec.Role) (*identity.ProfileStatusPayload, error)

func (f fetcherFunc) ProfileStatus(ctx context.Context, role sec.Role) (*identity.ProfileStatusPayload, error) {
	return f(ctx, role)
}

/*
TestStageOf walks the onboarding ordering for both roles.
*/
func TestStageOf(t *testing.T) {
	tests := []struct {
		name   string
		status profile.Status
		want   profile.Stage
	}{
		{
			name:   "phone_first",
			status: profile.Status{Account: profile.HelperAccount{}},
			want:   profile.StageAwaitingPhoneVerification,
		},
		{
			name:   "helper_email_before_profile",
			status: profile.Status{PhoneVerified: true, Account: profile.HelperAccount{EmailVerified: false}},
			want:   profile.StageAwaitingEmailVerification,
		},
		{
			name:   "client_skips_email",
			status: profile.Status{PhoneVerified: true, Account: profile.ClientAccount{}},
			want:   profile.StageAwaitingProfileCompletion,
		},
		{
			name:   "helper_profile_after_email",
			status: profile.Status{PhoneVerified: true, Account: profile.HelperAccount{EmailVerified: true}},
			want:   profile.StageAwaitingProfileCompletion,
		},
		{
			name:   "client_ready",
			status: profile.Status{PhoneVerified: true, ProfileCompleted: true, Account: profile.ClientAccount{}},
			want:   profile.StageReady,
		},
		{
			name:   "helper_ready",
			status: profile.Status{PhoneVerified: true, ProfileCompleted: true, Account: profile.HelperAccount{EmailVerified: true}},
			want:   profile.StageReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, profile.StageOf(tt.status))
		})
	}
}

/*
TestDecode verifies that the account variant is resolved from the session role.
*/
func TestDecode(t *testing.T) {
	payload := &identity.ProfileStatusPayload{
		ProfileCompleted: false,
		EmailVerified:    true,
		PhoneVerified:    true,
		UserType:         "helper",
		ProfileType:      "student",
	}

	status, err := profile.Decode(sec.RoleHelper, payload)
	require.NoError(t, err)

	helper, ok := status.Account.(profile.HelperAccount)
	require.True(t, ok)
	assert.True(t, helper.EmailVerified)
	assert.Equal(t, "student", helper.ProfileType)
	assert.Equal(t, sec.RoleHelper, status.Role())

	// The same flags under a client session are a mismatch.
	_, err = profile.Decode(sec.RoleClient, payload)
	assert.True(t, apperr.HasCode(err, apperr.CodeRemote))

	// A client ignores email_verified entirely.
	status, err = profile.Decode(sec.RoleClient, &identity.ProfileStatusPayload{PhoneVerified: true, UserType: "client"})
	require.NoError(t, err)
	assert.True(t, status.EmailVerified())
	assert.IsType(t, profile.ClientAccount{}, status.Account)
}

/*
TestResolver_PassesErrorsThrough verifies the resolver neither retries nor wraps.
*/
func TestResolver_PassesErrorsThrough(t *testing.T) {
	calls := 0
	resolver := profile.NewResolver(fetcherFunc(func(context.Context, sec.Role) (*identity.ProfileStatusPayload, error) {
		calls++
		return nil, apperr.Unauthorized("Session expired")
	}))

	_, err := resolver.Resolve(context.Background(), sec.RoleClient)
	assert.True(t, apperr.IsUnauthorized(err))
	assert.Equal(t, 1, calls)
}
