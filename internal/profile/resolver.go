// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"fmt"

	"github.com/taibuivan/gigly/internal/identity"
	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/sec"
)

// # Contracts

// StatusFetcher is the identity-service slice the resolver needs.
type StatusFetcher interface {
	ProfileStatus(context context.Context, role sec.Role) (*identity.ProfileStatusPayload, error)
}

// Resolver fetches and decodes the onboarding status of the current account.
//
// It makes exactly one remote call per [Resolver.Resolve] and never retries;
// retry belongs to the refresh manager. It never logs anyone out either: only
// the session rehydrate path treats a failure as fatal.
type Resolver struct {
	fetcher StatusFetcher
}

// NewResolver constructs a [Resolver].
func NewResolver(fetcher StatusFetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

/*
Resolve fetches the status of the authenticated account of the given role.

Parameters:
  - context: context.Context
  - role: sec.Role (the session role; the payload must agree with it)

Returns:
  - Status: Decoded tagged status
  - error: Transport errors as-is, RemoteError on a role mismatch
*/
func (resolver *Resolver) Resolve(context context.Context, role sec.Role) (Status, error) {
	payload, err := resolver.fetcher.ProfileStatus(context, role)
	if err != nil {
		return Status{}, err
	}
	return Decode(role, payload)
}

// Decode turns the wire payload into a [Status], resolving the account variant
// from the session role. A payload that names the other role is rejected.
func Decode(role sec.Role, payload *identity.ProfileStatusPayload) (Status, error) {
	if payload == nil {
		return Status{}, apperr.Remote("Profile status is empty", nil)
	}

	if payload.UserType != "" && payload.UserType != role.String() {
		return Status{}, apperr.Remote("Profile status belongs to another account type",
			fmt.Errorf("profile_role_mismatch: session=%s payload=%s", role, payload.UserType))
	}

	status := Status{
		ProfileCompleted: payload.ProfileCompleted,
		PhoneVerified:    payload.PhoneVerified,
	}

	switch role {
	case sec.RoleClient:
		status.Account = ClientAccount{ProfileType: payload.ProfileType}
	case sec.RoleHelper:
		status.Account = HelperAccount{ProfileType: payload.ProfileType, EmailVerified: payload.EmailVerified}
	default:
		return Status{}, apperr.ValidationError(fmt.Sprintf("Unknown account role %q", role))
	}

	return status, nil
}
