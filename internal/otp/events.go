// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"github.com/taibuivan/gigly/internal/profile"
	"github.com/taibuivan/gigly/internal/session"
)

// # Events

// Event is an input of [Transition]: a user action, a countdown tick, or the
// outcome of an effect.
type Event interface {
	event()
}

// SubmitPhone starts a challenge for a phone number.
type SubmitPhone struct{ Phone string }

// SubmitSignupEmail supplies the email a helper sign-up requires.
type SubmitSignupEmail struct{ Email string }

// SubmitEmail starts the institutional email challenge of a helper.
type SubmitEmail struct{ Email string }

// EnterCode submits typed digits.
type EnterCode struct{ Code string }

// PasteCode submits clipboard text; it is used only if it holds exactly one full code.
type PasteCode struct{ Text string }

// Resend re-issues the outstanding challenge.
type Resend struct{}

// Retry re-runs a failed post-verification status check.
type Retry struct{}

// Abandon discards the challenge and returns to idle.
type Abandon struct{}

// Tick advances the resend countdown by one step.
type Tick struct{}

// Outcome is embedded by every effect result.
type Outcome struct {
	Epoch int
	Err   error
}

func (outcome Outcome) outcome() Outcome { return outcome }

// ChallengeIssued is the result of a sign-in, sign-up, update-email or resend call.
type ChallengeIssued struct {
	Outcome
	Channel Channel
	Purpose Purpose
	Resend  bool
}

// PhoneVerified is the result of verify-otp.
type PhoneVerified struct {
	Outcome
	AccessToken  string
	RefreshToken string
	AccountID    string
}

// LoggedIn is the result of installing the session.
type LoggedIn struct{ Outcome }

// CompletionChecked is the result of check-completion.
type CompletionChecked struct {
	Outcome
	Completed bool
}

// StatusResolved is the result of a profile-status resolution.
type StatusResolved struct {
	Outcome
	Status profile.Status
}

// EmailVerified is the result of verify-email-otp.
type EmailVerified struct{ Outcome }

func (SubmitPhone) event()       {}
func (SubmitSignupEmail) event() {}
func (SubmitEmail) event()       {}
func (EnterCode) event()         {}
func (PasteCode) event()         {}
func (Resend) event()            {}
func (Retry) event()             {}
func (Abandon) event()           {}
func (Tick) event()              {}
func (ChallengeIssued) event()   {}
func (PhoneVerified) event()     {}
func (LoggedIn) event()          {}
func (CompletionChecked) event() {}
func (StatusResolved) event()    {}
func (EmailVerified) event()     {}

// # Effects

// Effect is a side effect requested by [Transition] and executed by [Flow].
type Effect interface {
	effect()
}

// IssueSignIn calls the sign-in challenge endpoint.
type IssueSignIn struct {
	Phone  string
	Resend bool
}

// IssueSignUp calls the sign-up challenge endpoint.
type IssueSignUp struct {
	Phone  string
	Email  string
	Resend bool
}

// IssueEmail registers the helper email and sends its code.
type IssueEmail struct{ Email string }

// ReissueEmail resends the email code.
type ReissueEmail struct{}

// VerifyPhone calls verify-otp.
type VerifyPhone struct {
	Phone string
	Code  string
}

// VerifyEmail calls verify-email-otp.
type VerifyEmail struct{ Code string }

// Login installs the verified session. It runs before any other post-verify call.
type Login struct{ Input session.LoginInput }

// CheckCompletion calls check-completion.
type CheckCompletion struct{}

// ResolveStatus resolves the profile status after a phone verification.
type ResolveStatus struct{}

// RefreshStatus re-resolves the profile status after an email verification.
type RefreshStatus struct{}

// StartCooldown (re)starts the resend countdown.
type StartCooldown struct{ Ticks int }

// StopCooldown stops the resend countdown.
type StopCooldown struct{}

// Navigate hands control to another screen.
type Navigate struct{ To Destination }

func (IssueSignIn) effect()     {}
func (IssueSignUp) effect()     {}
func (IssueEmail) effect()      {}
func (ReissueEmail) effect()    {}
func (VerifyPhone) effect()     {}
func (VerifyEmail) effect()     {}
func (Login) effect()           {}
func (CheckCompletion) effect() {}
func (ResolveStatus) effect()   {}
func (RefreshStatus) effect()   {}
func (StartCooldown) effect()   {}
func (StopCooldown) effect()    {}
func (Navigate) effect()        {}
