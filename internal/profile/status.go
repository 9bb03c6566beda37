// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package profile resolves an account's onboarding status and derives the single
next stage it must complete.

# Architecture

The wire document is shared by both roles and only some of its flags mean
something for each. [Status] resolves that once, at decode time, into a tagged
union ([ClientAccount] or [HelperAccount]); nothing downstream inspects fields to
guess which kind of account it is holding.
*/
package profile

import (
	"github.com/taibuivan/gigly/internal/platform/sec"
)

// # Account Variants

// Account is the role-specific part of a [Status]. It is sealed: only
// [ClientAccount] and [HelperAccount] implement it.
type Account interface {
	Role() sec.Role
	sealed()
}

// ClientAccount carries what only client accounts have.
type ClientAccount struct {
	ProfileType string
}

// Role implements [Account].
func (ClientAccount) Role() sec.Role { return sec.RoleClient }

func (ClientAccount) sealed() {}

// HelperAccount carries what only helper accounts have.
type HelperAccount struct {
	ProfileType   string
	EmailVerified bool
}

// Role implements [Account].
func (HelperAccount) Role() sec.Role { return sec.RoleHelper }

func (HelperAccount) sealed() {}

// # Status

// Status is the resolved onboarding status of an account.
//
// It is transient: never persisted, and stale as soon as any mutating auth or
// profile call returns.
type Status struct {
	ProfileCompleted bool
	PhoneVerified    bool
	Account          Account
}

// Role returns the role of the account the status belongs to.
func (status Status) Role() sec.Role {
	if status.Account == nil {
		return ""
	}
	return status.Account.Role()
}

// EmailVerified reports whether the account satisfied its email requirement.
// Client accounts have none, so they always satisfy it.
func (status Status) EmailVerified() bool {
	switch account := status.Account.(type) {
	case HelperAccount:
		return account.EmailVerified
	case ClientAccount:
		return true
	default:
		return false
	}
}

// # Onboarding Stage

// Stage is the derived onboarding checkpoint of an account.
type Stage int

const (
	StageAwaitingPhoneVerification Stage = iota
	StageAwaitingEmailVerification
	StageAwaitingProfileCompletion
	StageReady
)

// String implements [fmt.Stringer].
func (stage Stage) String() string {
	switch stage {
	case StageAwaitingPhoneVerification:
		return "awaiting_phone_verification"
	case StageAwaitingEmailVerification:
		return "awaiting_email_verification"
	case StageAwaitingProfileCompletion:
		return "awaiting_profile_completion"
	case StageReady:
		return "ready"
	default:
		return "unknown"
	}
}

// StageOf derives the next required stage from a status.
//
// # Ordering
//
// Phone, then email (helpers only), then profile. The first unmet requirement wins.
func StageOf(status Status) Stage {
	switch {
	case !status.PhoneVerified:
		return StageAwaitingPhoneVerification
	case !status.EmailVerified():
		return StageAwaitingEmailVerification
	case !status.ProfileCompleted:
		return StageAwaitingProfileCompletion
	default:
		return StageReady
	}
}
