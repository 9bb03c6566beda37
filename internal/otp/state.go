// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package otp drives the one-time-code challenge of sign-in, sign-up and the
helper email verification.

# Architecture

  - [Transition]: a pure function from (State, Event) to (State, []Effect).
    It performs no I/O and is tested without a network or a clock.
  - [Flow]: the runner. It executes effects against the identity service and
    the session store, feeds their outcomes back as events, and owns the
    resend countdown goroutine.

Every remote failure is recorded in [State.Err] and leaves the phase at the
last stable one; entered digits are kept for correction.
*/
package otp

import (
	"slices"

	"github.com/taibuivan/gigly/internal/platform/constants"
	"github.com/taibuivan/gigly/internal/platform/sec"
)

// # Phases

// Phase is a named state of the challenge flow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingSignupEmail
	PhaseChallengeSent
	PhaseVerifying
	PhaseCheckingCompletion
	PhaseNeedsEmail
	PhaseEmailChallengeSent
	PhaseEmailVerifying
	PhaseDone
)

var phaseNames = [...]string{
	"idle",
	"awaiting_signup_email",
	"challenge_sent",
	"verifying",
	"checking_completion",
	"needs_email",
	"email_challenge_sent",
	"email_verifying",
	"done",
}

// String implements [fmt.Stringer].
func (phase Phase) String() string {
	if phase < 0 || int(phase) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[phase]
}

// # Challenge

// Channel is where a code was delivered.
type Channel int

const (
	ChannelPhone Channel = iota
	ChannelEmail
)

// Purpose is the identity call that issued a phone challenge.
type Purpose int

const (
	PurposeSignIn Purpose = iota
	PurposeSignUp
)

// Challenge is the outstanding code round trip.
type Challenge struct {
	Channel     Channel
	Destination string
	Purpose     Purpose
}

// # Destinations

// Destination is the screen the flow hands off to.
type Destination int

const (
	DestinationNone Destination = iota
	DestinationDashboard
	DestinationProfileCompletion
	DestinationEmailVerification
)

// String implements [fmt.Stringer].
func (destination Destination) String() string {
	switch destination {
	case DestinationDashboard:
		return "dashboard"
	case DestinationProfileCompletion:
		return "profile_completion"
	case DestinationEmailVerification:
		return "email_verification"
	default:
		return "none"
	}
}

// # State

// State is the full, copyable state of one flow.
type State struct {
	Role     sec.Role
	Suffixes []string

	Phase     Phase
	Phone     string
	Email     string
	Challenge Challenge
	Code      string

	// Cooldown is the number of ticks left before a resend is allowed.
	Cooldown int

	// Busy is set while a challenge or status call is in flight.
	Busy bool

	// Epoch changes on every reset; outcomes of an older epoch are dropped.
	Epoch int

	Destination Destination
	Err         error
}

// NewState returns the idle state of a role. Suffixes lists the institutional
// email endings accepted for helper emails; an empty list accepts any.
func NewState(role sec.Role, suffixes []string) State {
	return State{Role: role, Suffixes: slices.Clone(suffixes)}
}

// CanResend reports whether a resend would be accepted now.
func (state State) CanResend() bool {
	return (state.Phase == PhaseChallengeSent || state.Phase == PhaseEmailChallengeSent) &&
		!state.Busy && state.Cooldown == 0
}

// cooldownTicks is the resend window expressed in countdown ticks.
var cooldownTicks = int(constants.ResendCooldown / constants.CooldownTick)
