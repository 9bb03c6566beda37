// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gigly/internal/identity"
	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/sec"
)

type call struct {
	Method string
	Path   string
	Body   string
}

// recordingDoer records every call and decodes a canned reply into out.
type recordingDoer struct {
	calls []call
	reply string
	err   error
}

func (doer *recordingDoer) record(method, path string, body, out any) error {
	encoded := ""
	if body != nil {
		raw, _ := json.Marshal(body)
		encoded = string(raw)
	}
	doer.calls = append(doer.calls, call{Method: method, Path: path, Body: encoded})

	if doer.err != nil {
		return doer.err
	}
	if out != nil && doer.reply != "" {
		return json.Unmarshal([]byte(doer.reply), out)
	}
	return nil
}

func (doer *recordingDoer) Get(_ context.Context, path string, out any) error {
	return doer.record("GET", path, nil, out)
}

func (doer *recordingDoer) Post(_ context.Context, path string, body, out any) error {
	return doer.record("POST", path, body, out)
}

func (doer *recordingDoer) Put(_ context.Context, path string, body, out any) error {
	return doer.record("PUT", path, body, out)
}

/*
TestClient_Routes checks the route and payload of every call.
*/
func TestClient_Routes(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		run  func(client *identity.Client) error
		want call
	}{
		{
			name: "SignIn",
			run: func(client *identity.Client) error {
				_, err := client.SignIn(ctx, sec.RoleClient, "09012345678")
				return err
			},
			want: call{"POST", "/api/v1/client/signin", `{"phone":"09012345678"}`},
		},
		{
			name: "SignUpClientDropsEmail",
			run: func(client *identity.Client) error {
				_, err := client.SignUp(ctx, sec.RoleClient, "09012345678", "a@uni.edu")
				return err
			},
			want: call{"POST", "/api/v1/client/signup", `{"phone":"09012345678"}`},
		},
		{
			name: "SignUpHelperKeepsEmail",
			run: func(client *identity.Client) error {
				_, err := client.SignUp(ctx, sec.RoleHelper, "09012345678", "a@uni.edu")
				return err
			},
			want: call{"POST", "/api/v1/helper/signup", `{"phone":"09012345678","email":"a@uni.edu"}`},
		},
		{
			name: "ProfileStatus",
			run: func(client *identity.Client) error {
				_, err := client.ProfileStatus(ctx, sec.RoleHelper)
				return err
			},
			want: call{"GET", "/api/v1/helper/profile-status", ""},
		},
		{
			name: "CompleteProfile",
			run: func(client *identity.Client) error {
				_, err := client.CompleteProfile(ctx, sec.RoleClient, identity.ProfileInput{Name: "Aiko"})
				return err
			},
			want: call{"PUT", "/api/v1/client/profile", `{"name":"Aiko"}`},
		},
		{
			name: "VerifyEmailOTP",
			run: func(client *identity.Client) error {
				_, err := client.VerifyEmailOTP(ctx, "123456")
				return err
			},
			want: call{"POST", "/api/v1/helper/verify-email-otp", `{"otp":"123456"}`},
		},
		{
			name: "Logout",
			run: func(client *identity.Client) error {
				return client.Logout(ctx, sec.RoleHelper, "refresh-1")
			},
			want: call{"POST", "/api/v1/helper/logout", `{"refresh_token":"refresh-1"}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &recordingDoer{reply: `{"success":true}`}
			require.NoError(t, tt.run(identity.NewClient(doer)))
			require.Len(t, doer.calls, 1)
			assert.Equal(t, tt.want, doer.calls[0])
		})
	}
}

/*
TestClient_VerifyOTP rejects an acknowledgement that carries no access token.
*/
func TestClient_VerifyOTP(t *testing.T) {
	ctx := context.Background()

	t.Run("Tokens", func(t *testing.T) {
		doer := &recordingDoer{reply: `{"success":true,"access_token":"a","refresh_token":"r","user_id":"u"}`}
		verification, err := identity.NewClient(doer).VerifyOTP(ctx, sec.RoleClient, "09012345678", "123456")
		require.NoError(t, err)
		assert.Equal(t, "a", *verification.AccessToken)
		assert.Equal(t, "u", *verification.UserID)
	})

	t.Run("NoToken", func(t *testing.T) {
		doer := &recordingDoer{reply: `{"success":true,"message":"Pending review"}`}
		_, err := identity.NewClient(doer).VerifyOTP(ctx, sec.RoleClient, "09012345678", "123456")
		require.True(t, apperr.HasCode(err, apperr.CodeRemote))
		assert.Equal(t, "Pending review", apperr.Message(err))
	})

	t.Run("Rejected", func(t *testing.T) {
		doer := &recordingDoer{err: apperr.ValidationError("Invalid code")}
		_, err := identity.NewClient(doer).VerifyOTP(ctx, sec.RoleClient, "09012345678", "000000")
		assert.True(t, apperr.IsValidation(err))
	})
}

func TestClient_RefreshToken(t *testing.T) {
	ctx := context.Background()

	doer := &recordingDoer{reply: `{"access_token":"a2","refresh_token":"r2"}`}
	pair, err := identity.NewClient(doer).RefreshToken(ctx, sec.RoleClient, "r1")
	require.NoError(t, err)
	assert.Equal(t, "a2", pair.AccessToken)
	assert.Equal(t, "r2", *pair.RefreshToken)

	empty := &recordingDoer{reply: `{}`}
	_, err = identity.NewClient(empty).RefreshToken(ctx, sec.RoleClient, "r1")
	assert.True(t, apperr.HasCode(err, apperr.CodeRemote))
}
