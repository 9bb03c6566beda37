// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"strings"

	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/constants"
	"github.com/taibuivan/gigly/internal/platform/sec"
	"github.com/taibuivan/gigly/internal/platform/validate"
	"github.com/taibuivan/gigly/internal/session"
	"github.com/taibuivan/gigly/pkg/digits"
)

/*
Transition computes the next state and the effects to run for one event.

Inputs that do not apply to the current phase, or arrive while a call is in
flight, leave the state untouched. Outcomes of an older epoch are dropped.

Parameters:
  - state: State (the current state, not modified)
  - event: Event

Returns:
  - State: The next state
  - []Effect: Effects to run, in order
*/
func Transition(state State, event Event) (State, []Effect) {
	if result, ok := event.(interface{ outcome() Outcome }); ok && result.outcome().Epoch != state.Epoch {
		return state, nil
	}

	switch event := event.(type) {
	case SubmitPhone:
		return submitPhone(state, event)
	case SubmitSignupEmail:
		return submitSignupEmail(state, event)
	case SubmitEmail:
		return submitEmail(state, event)
	case EnterCode:
		return enterCode(state, event.Code)
	case PasteCode:
		return pasteCode(state, event)
	case Resend:
		return resend(state)
	case Retry:
		return retry(state)
	case Abandon:
		return abandon(state)
	case Tick:
		return tick(state)
	case ChallengeIssued:
		return challengeIssued(state, event)
	case PhoneVerified:
		return phoneVerified(state, event)
	case LoggedIn:
		return loggedIn(state, event)
	case CompletionChecked:
		return completionChecked(state, event)
	case StatusResolved:
		return statusResolved(state, event)
	case EmailVerified:
		return emailVerified(state, event)
	default:
		return state, nil
	}
}

// # User Inputs

func submitPhone(state State, event SubmitPhone) (State, []Effect) {
	if state.Busy || (state.Phase != PhaseIdle && state.Phase != PhaseAwaitingSignupEmail) {
		return state, nil
	}

	phone := digits.Phone(event.Phone)
	v := &validate.Validator{}
	v.Required("phone", phone).Phone("phone", phone)
	if err := v.Err(); err != nil {
		state.Err = err
		return state, nil
	}

	state.Phase = PhaseIdle
	state.Phone = phone
	state.Email = ""
	state.Busy = true
	state.Err = nil
	return state, []Effect{IssueSignIn{Phone: phone}}
}

func submitSignupEmail(state State, event SubmitSignupEmail) (State, []Effect) {
	if state.Busy || state.Phase != PhaseAwaitingSignupEmail {
		return state, nil
	}

	email, err := checkEmail(state, event.Email)
	if err != nil {
		state.Err = err
		return state, nil
	}

	state.Email = email
	state.Busy = true
	state.Err = nil
	return state, []Effect{IssueSignUp{Phone: state.Phone, Email: email}}
}

func submitEmail(state State, event SubmitEmail) (State, []Effect) {
	if state.Busy || state.Phase != PhaseNeedsEmail {
		return state, nil
	}

	email, err := checkEmail(state, event.Email)
	if err != nil {
		state.Err = err
		return state, nil
	}

	state.Email = email
	state.Busy = true
	state.Err = nil
	return state, []Effect{IssueEmail{Email: email}}
}

func enterCode(state State, raw string) (State, []Effect) {
	if state.Busy || (state.Phase != PhaseChallengeSent && state.Phase != PhaseEmailChallengeSent) {
		return state, nil
	}

	code := strings.TrimSpace(digits.Narrow(raw))
	state.Code = code

	v := &validate.Validator{}
	v.Digits("otp", code, constants.OTPLength)
	if err := v.Err(); err != nil {
		state.Err = err
		return state, nil
	}

	state.Err = nil
	if state.Phase == PhaseChallengeSent {
		state.Phase = PhaseVerifying
		return state, []Effect{VerifyPhone{Phone: state.Phone, Code: code}}
	}
	state.Phase = PhaseEmailVerifying
	return state, []Effect{VerifyEmail{Code: code}}
}

func pasteCode(state State, event PasteCode) (State, []Effect) {
	code := digits.Only(event.Text)
	if len(code) != constants.OTPLength {
		return state, nil
	}
	return enterCode(state, code)
}

func resend(state State) (State, []Effect) {
	if state.Busy || (state.Phase != PhaseChallengeSent && state.Phase != PhaseEmailChallengeSent) {
		return state, nil
	}
	if state.Cooldown > 0 {
		state.Err = apperr.RateLimited(state.Cooldown)
		return state, nil
	}

	state.Busy = true
	state.Err = nil

	if state.Challenge.Channel == ChannelEmail {
		return state, []Effect{ReissueEmail{}}
	}
	if state.Challenge.Purpose == PurposeSignUp {
		return state, []Effect{IssueSignUp{Phone: state.Phone, Email: state.Email, Resend: true}}
	}
	return state, []Effect{IssueSignIn{Phone: state.Phone, Resend: true}}
}

func retry(state State) (State, []Effect) {
	if state.Busy || state.Phase != PhaseCheckingCompletion || state.Err == nil {
		return state, nil
	}
	state.Busy = true
	state.Err = nil
	return state, []Effect{CheckCompletion{}}
}

func abandon(state State) (State, []Effect) {
	next := NewState(state.Role, state.Suffixes)
	next.Epoch = state.Epoch + 1
	return next, []Effect{StopCooldown{}}
}

func tick(state State) (State, []Effect) {
	if state.Cooldown == 0 {
		return state, []Effect{StopCooldown{}}
	}
	state.Cooldown--
	if state.Cooldown == 0 {
		return state, []Effect{StopCooldown{}}
	}
	return state, nil
}

// # Outcomes

func challengeIssued(state State, event ChallengeIssued) (State, []Effect) {
	if !state.Busy {
		return state, nil
	}
	state.Busy = false

	// A resend restarts the countdown whatever its outcome.
	if event.Resend {
		state.Err = event.Err
		state.Cooldown = cooldownTicks
		return state, []Effect{StartCooldown{Ticks: cooldownTicks}}
	}

	if event.Err != nil {
		if event.Channel == ChannelPhone && event.Purpose == PurposeSignIn && apperr.IsNotFound(event.Err) {
			return signupFallback(state)
		}
		state.Err = event.Err
		return state, nil
	}

	state.Err = nil
	state.Code = ""
	state.Cooldown = cooldownTicks

	if event.Channel == ChannelEmail {
		state.Phase = PhaseEmailChallengeSent
		state.Challenge = Challenge{Channel: ChannelEmail, Destination: state.Email}
	} else {
		state.Phase = PhaseChallengeSent
		state.Challenge = Challenge{Channel: ChannelPhone, Destination: state.Phone, Purpose: event.Purpose}
	}
	return state, []Effect{StartCooldown{Ticks: cooldownTicks}}
}

// signupFallback handles a sign-in for an unknown phone. Clients sign up
// straight away; helpers must supply an email first.
func signupFallback(state State) (State, []Effect) {
	if state.Role.RequiresEmail() {
		state.Phase = PhaseAwaitingSignupEmail
		state.Err = nil
		return state, nil
	}
	state.Busy = true
	state.Err = nil
	return state, []Effect{IssueSignUp{Phone: state.Phone}}
}

func phoneVerified(state State, event PhoneVerified) (State, []Effect) {
	if state.Phase != PhaseVerifying {
		return state, nil
	}
	if event.Err != nil {
		state.Phase = PhaseChallengeSent
		state.Err = event.Err
		return state, nil
	}

	state.Phase = PhaseCheckingCompletion
	state.Busy = true
	state.Err = nil
	return state, []Effect{Login{Input: session.LoginInput{
		AccessToken:  event.AccessToken,
		RefreshToken: event.RefreshToken,
		Identity: session.Identity{
			ID:    event.AccountID,
			Phone: state.Phone,
			Email: state.Email,
			Role:  state.Role,
		},
		Role: state.Role,
	}}}
}

func loggedIn(state State, event LoggedIn) (State, []Effect) {
	if state.Phase != PhaseCheckingCompletion || !state.Busy {
		return state, nil
	}
	if event.Err != nil {
		state.Phase = PhaseChallengeSent
		state.Busy = false
		state.Err = event.Err
		return state, nil
	}
	return state, []Effect{CheckCompletion{}}
}

func completionChecked(state State, event CompletionChecked) (State, []Effect) {
	if state.Phase != PhaseCheckingCompletion || !state.Busy {
		return state, nil
	}
	if event.Err != nil {
		state.Busy = false
		state.Err = event.Err
		return state, nil
	}

	switch {
	case event.Completed:
		return done(state, DestinationDashboard)
	case state.Role == sec.RoleClient:
		return done(state, DestinationProfileCompletion)
	default:
		return state, []Effect{ResolveStatus{}}
	}
}

func statusResolved(state State, event StatusResolved) (State, []Effect) {
	switch {
	case state.Phase == PhaseCheckingCompletion && state.Busy:
		if event.Err != nil {
			state.Busy = false
			state.Err = event.Err
			return state, nil
		}
		if event.Status.EmailVerified() {
			return done(state, DestinationProfileCompletion)
		}
		state.Phase = PhaseNeedsEmail
		state.Busy = false
		state.Code = ""
		state.Cooldown = 0
		state.Destination = DestinationEmailVerification
		return state, []Effect{StopCooldown{}, Navigate{To: DestinationEmailVerification}}

	case state.Phase == PhaseEmailVerifying && state.Busy:
		// The email is verified either way; a failed refresh only loses the shortcut to the dashboard.
		if event.Err != nil || !event.Status.ProfileCompleted {
			next, effects := done(state, DestinationProfileCompletion)
			next.Err = event.Err
			return next, effects
		}
		return done(state, DestinationDashboard)

	default:
		return state, nil
	}
}

func emailVerified(state State, event EmailVerified) (State, []Effect) {
	if state.Phase != PhaseEmailVerifying || state.Busy {
		return state, nil
	}
	if event.Err != nil {
		state.Phase = PhaseEmailChallengeSent
		state.Err = event.Err
		return state, nil
	}
	state.Busy = true
	state.Err = nil
	return state, []Effect{RefreshStatus{}}
}

// # Helpers

func done(state State, destination Destination) (State, []Effect) {
	state.Phase = PhaseDone
	state.Busy = false
	state.Err = nil
	state.Code = ""
	state.Cooldown = 0
	state.Destination = destination
	return state, []Effect{StopCooldown{}, Navigate{To: destination}}
}

func checkEmail(state State, raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))

	v := &validate.Validator{}
	v.Required("email", email).Email("email", email).Suffix("email", email, state.Suffixes...)
	if err := v.Err(); err != nil {
		return "", err
	}
	return email, nil
}
