// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/gigly/internal/identity"
	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/constants"
	"github.com/taibuivan/gigly/internal/platform/sec"
	"github.com/taibuivan/gigly/internal/profile"
	"github.com/taibuivan/gigly/internal/session"
	"github.com/taibuivan/gigly/pkg/pointer"
)

// # Contracts

// IdentityAPI is the identity-service slice the flow calls.
type IdentityAPI interface {
	SignIn(context context.Context, role sec.Role, phone string) (*identity.Ack, error)
	SignUp(context context.Context, role sec.Role, phone, email string) (*identity.Ack, error)
	VerifyOTP(context context.Context, role sec.Role, phone, code string) (*identity.Verification, error)
	CheckCompletion(context context.Context, role sec.Role) (*identity.Completion, error)
	UpdateEmail(context context.Context, email string) (*identity.Ack, error)
	ResendEmailVerification(context context.Context) (*identity.Ack, error)
	VerifyEmailOTP(context context.Context, code string) (*identity.Ack, error)
}

// Sessions is the session-store slice the flow calls.
type Sessions interface {
	Login(context context.Context, input session.LoginInput) error
	RefreshProfileStatus(context context.Context) (profile.Status, error)
}

// Authorizer runs an authenticated call with one refresh-and-retry.
type Authorizer interface {
	Do(context context.Context, op func(context.Context) error) error
}

// # Options

// Option configures a [Flow].
type Option func(*Flow)

// WithTick overrides the countdown step.
func WithTick(step time.Duration) Option {
	return func(flow *Flow) { flow.tick = step }
}

// WithNavigator registers the hand-off to another screen.
func WithNavigator(navigate func(Destination)) Option {
	return func(flow *Flow) { flow.navigate = navigate }
}

// WithObserver registers a listener called after every transition.
func WithObserver(observe func(State)) Option {
	return func(flow *Flow) { flow.observe = observe }
}

// # Flow

// Flow runs the challenge state machine for one role.
//
// # Concurrency
//
// Transitions are serialized by a mutex that is never held across a remote
// call. Countdown ticks arrive from the flow's own goroutine; [Flow.Close]
// stops it and discards any outcome that lands afterwards.
type Flow struct {
	api        IdentityAPI
	sessions   Sessions
	authorizer Authorizer
	logger     *slog.Logger

	tick     time.Duration
	navigate func(Destination)
	observe  func(State)

	mu         sync.Mutex
	state      State
	closed     bool
	stopTicker context.CancelFunc
	tickers    sync.WaitGroup
}

// NewFlow constructs an idle [Flow].
func NewFlow(role sec.Role, suffixes []string, api IdentityAPI, sessions Sessions, authorizer Authorizer, logger *slog.Logger, options ...Option) *Flow {
	flow := &Flow{
		api:        api,
		sessions:   sessions,
		authorizer: authorizer,
		logger:     logger.With(slog.String("role", role.String())),
		tick:       constants.CooldownTick,
		state:      NewState(role, suffixes),
	}
	for _, option := range options {
		option(flow)
	}
	return flow
}

// State returns a copy of the current state.
func (flow *Flow) State() State {
	flow.mu.Lock()
	defer flow.mu.Unlock()
	return flow.state
}

/*
Dispatch applies an event and runs the resulting effects until the flow
settles, feeding every outcome back into the machine.

Parameters:
  - context: context.Context (bounds the remote calls)
  - event: Event

Returns:
  - State: The state once no effect is pending
*/
func (flow *Flow) Dispatch(context context.Context, event Event) State {
	queue := []Event{event}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		flow.mu.Lock()
		if flow.closed {
			state := flow.state
			flow.mu.Unlock()
			return state
		}
		next, effects := Transition(flow.state, current)
		flow.state = next
		flow.mu.Unlock()

		if flow.observe != nil {
			flow.observe(next)
		}

		for _, effect := range effects {
			if outcome := flow.run(context, next, effect); outcome != nil {
				queue = append(queue, outcome)
			}
		}
	}

	return flow.State()
}

// Close stops the countdown and waits for its goroutine to exit.
// Events dispatched after Close are ignored.
func (flow *Flow) Close() {
	flow.mu.Lock()
	flow.closed = true
	stop := flow.stopTicker
	flow.stopTicker = nil
	flow.mu.Unlock()

	if stop != nil {
		stop()
	}
	flow.tickers.Wait()
}

// # Effect Execution

func (flow *Flow) run(ctx context.Context, state State, effect Effect) Event {
	role := state.Role
	base := Outcome{Epoch: state.Epoch}

	switch effect := effect.(type) {
	case IssueSignIn:
		ack, err := flow.api.SignIn(ctx, role, effect.Phone)
		base.Err = flow.checkAck("signin", ack, err)
		return ChallengeIssued{Outcome: base, Channel: ChannelPhone, Purpose: PurposeSignIn, Resend: effect.Resend}

	case IssueSignUp:
		ack, err := flow.api.SignUp(ctx, role, effect.Phone, effect.Email)
		base.Err = flow.checkAck("signup", ack, err)
		return ChallengeIssued{Outcome: base, Channel: ChannelPhone, Purpose: PurposeSignUp, Resend: effect.Resend}

	case IssueEmail:
		base.Err = flow.authorizer.Do(ctx, func(ctx context.Context) error {
			ack, err := flow.api.UpdateEmail(ctx, effect.Email)
			return flow.checkAck("update_email", ack, err)
		})
		return ChallengeIssued{Outcome: base, Channel: ChannelEmail}

	case ReissueEmail:
		base.Err = flow.authorizer.Do(ctx, func(ctx context.Context) error {
			ack, err := flow.api.ResendEmailVerification(ctx)
			return flow.checkAck("resend_email", ack, err)
		})
		return ChallengeIssued{Outcome: base, Channel: ChannelEmail, Resend: true}

	case VerifyPhone:
		verification, err := flow.api.VerifyOTP(ctx, role, effect.Phone, effect.Code)
		if err != nil {
			flow.logger.Info("otp_verify_failed", slog.String("code", errorCode(err)))
			base.Err = err
			return PhoneVerified{Outcome: base}
		}
		return PhoneVerified{
			Outcome:      base,
			AccessToken:  pointer.Val(verification.AccessToken),
			RefreshToken: pointer.Val(verification.RefreshToken),
			AccountID:    pointer.Val(verification.UserID),
		}

	case VerifyEmail:
		base.Err = flow.authorizer.Do(ctx, func(ctx context.Context) error {
			ack, err := flow.api.VerifyEmailOTP(ctx, effect.Code)
			return flow.checkAck("verify_email", ack, err)
		})
		return EmailVerified{Outcome: base}

	case Login:
		base.Err = flow.sessions.Login(ctx, effect.Input)
		return LoggedIn{Outcome: base}

	case CheckCompletion:
		var completion *identity.Completion
		base.Err = flow.authorizer.Do(ctx, func(ctx context.Context) error {
			var err error
			completion, err = flow.api.CheckCompletion(ctx, role)
			return err
		})
		if base.Err != nil {
			return CompletionChecked{Outcome: base}
		}
		return CompletionChecked{Outcome: base, Completed: completion.Exists && completion.Completed}

	case ResolveStatus, RefreshStatus:
		status, err := flow.sessions.RefreshProfileStatus(ctx)
		base.Err = err
		return StatusResolved{Outcome: base, Status: status}

	case StartCooldown:
		flow.startTicker()
		return nil

	case StopCooldown:
		flow.haltTicker()
		return nil

	case Navigate:
		flow.logger.Info("otp_flow_navigate", slog.String("destination", effect.To.String()))
		if flow.navigate != nil {
			flow.navigate(effect.To)
		}
		return nil

	default:
		return nil
	}
}

// checkAck turns a negative acknowledgement into a RemoteError.
func (flow *Flow) checkAck(op string, ack *identity.Ack, err error) error {
	if err != nil {
		flow.logger.Info("otp_call_failed", slog.String("op", op), slog.String("code", errorCode(err)))
		return err
	}
	if ack != nil && !ack.Success {
		message := ack.Message
		if message == "" {
			message = "The identity service rejected the request"
		}
		flow.logger.Info("otp_call_rejected", slog.String("op", op))
		return apperr.Remote(message, nil)
	}
	return nil
}

func errorCode(err error) string {
	if appErr := apperr.As(err); appErr != nil {
		return appErr.Code
	}
	return "unknown"
}

// # Countdown

func (flow *Flow) startTicker() {
	flow.mu.Lock()
	if flow.closed {
		flow.mu.Unlock()
		return
	}
	if flow.stopTicker != nil {
		flow.stopTicker()
	}
	ctx, cancel := context.WithCancel(context.Background())
	flow.stopTicker = cancel
	flow.tickers.Add(1)
	flow.mu.Unlock()

	go func() {
		defer flow.tickers.Done()

		ticker := time.NewTicker(flow.tick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				flow.Dispatch(ctx, Tick{})
			}
		}
	}()
}

func (flow *Flow) haltTicker() {
	flow.mu.Lock()
	stop := flow.stopTicker
	flow.stopTicker = nil
	flow.mu.Unlock()

	if stop != nil {
		stop()
	}
}
