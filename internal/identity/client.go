// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"

	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/sec"
)

// # Contracts

// Doer is the transport slice the identity client needs.
type Doer interface {
	Get(context context.Context, path string, out any) error
	Post(context context.Context, path string, body, out any) error
	Put(context context.Context, path string, body, out any) error
}

// Client calls the remote identity service.
type Client struct {
	transport Doer
}

// NewClient constructs a [Client] over the shared transport.
func NewClient(transport Doer) *Client {
	return &Client{transport: transport}
}

// # Phone Challenge

/*
SignIn issues a sign-in challenge to phone.

Returns:
  - error: NOT_FOUND when no account exists for this phone and role
*/
func (client *Client) SignIn(context context.Context, role sec.Role, phone string) (*Ack, error) {
	var ack Ack
	if err := client.transport.Post(context, base(role)+"/signin", phoneRequest{Phone: phone}, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

/*
SignUp creates an account and issues a sign-up challenge to phone.

Description: Helper accounts must carry an email at creation time; client
accounts ignore it.
*/
func (client *Client) SignUp(context context.Context, role sec.Role, phone, email string) (*Ack, error) {
	request := phoneRequest{Phone: phone}
	if role.RequiresEmail() {
		request.Email = email
	}

	var ack Ack
	if err := client.transport.Post(context, base(role)+"/signup", request, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

/*
VerifyOTP submits a phone code and returns the issued tokens.

Returns:
  - *Verification: tokens (and user id for an account-creating call)
  - error: a RemoteError when the service acknowledges without an access token
*/
func (client *Client) VerifyOTP(context context.Context, role sec.Role, phone, code string) (*Verification, error) {
	var verification Verification
	if err := client.transport.Post(context, base(role)+"/verify-otp", verifyRequest{Phone: phone, OTP: code}, &verification); err != nil {
		return nil, err
	}

	if !verification.Success || verification.AccessToken == nil || *verification.AccessToken == "" {
		message := verification.Message
		if message == "" {
			message = "Verification failed"
		}
		return nil, apperr.Remote(message, fmt.Errorf("identity_verify_without_token"))
	}

	return &verification, nil
}

// # Onboarding

// CheckCompletion asks whether the authenticated account finished its profile.
func (client *Client) CheckCompletion(context context.Context, role sec.Role) (*Completion, error) {
	var completion Completion
	if err := client.transport.Get(context, base(role)+"/check-completion", &completion); err != nil {
		return nil, err
	}
	return &completion, nil
}

// ProfileStatus fetches the onboarding flags of the authenticated account.
func (client *Client) ProfileStatus(context context.Context, role sec.Role) (*ProfileStatusPayload, error) {
	var payload ProfileStatusPayload
	if err := client.transport.Get(context, base(role)+"/profile-status", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// CompleteProfile submits the profile form. Onboarding status is stale after
// this call until it is resolved again.
func (client *Client) CompleteProfile(context context.Context, role sec.Role, input ProfileInput) (*Ack, error) {
	var ack Ack
	if err := client.transport.Put(context, base(role)+"/profile", input, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// # Email Challenge (helper only)

// UpdateEmail sets the helper's email and issues an email challenge to it.
func (client *Client) UpdateEmail(context context.Context, email string) (*Ack, error) {
	var ack Ack
	if err := client.transport.Post(context, base(sec.RoleHelper)+"/update-email", emailRequest{Email: email}, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// ResendEmailVerification re-issues the email challenge.
func (client *Client) ResendEmailVerification(context context.Context) (*Ack, error) {
	var ack Ack
	if err := client.transport.Post(context, base(sec.RoleHelper)+"/resend-email-verification", struct{}{}, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// VerifyEmailOTP submits the email code.
func (client *Client) VerifyEmailOTP(context context.Context, code string) (*Ack, error) {
	var ack Ack
	if err := client.transport.Post(context, base(sec.RoleHelper)+"/verify-email-otp", codeRequest{OTP: code}, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// # Session

// Logout revokes the refresh token server-side.
func (client *Client) Logout(context context.Context, role sec.Role, refreshToken string) error {
	return client.transport.Post(context, base(role)+"/logout", refreshRequest{RefreshToken: refreshToken}, nil)
}

// RefreshToken exchanges a refresh token for a new access token.
func (client *Client) RefreshToken(context context.Context, role sec.Role, refreshToken string) (*TokenPair, error) {
	var pair TokenPair
	if err := client.transport.Post(context, base(role)+"/refresh-token", refreshRequest{RefreshToken: refreshToken}, &pair); err != nil {
		return nil, err
	}
	if pair.AccessToken == "" {
		return nil, apperr.Remote("Refresh returned no access token", fmt.Errorf("identity_refresh_without_token"))
	}
	return &pair, nil
}
