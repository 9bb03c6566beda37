// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/taibuivan/gigly/internal/identity"
	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/constants"
	"github.com/taibuivan/gigly/internal/platform/sec"
	"github.com/taibuivan/gigly/internal/platform/validate"
	"github.com/taibuivan/gigly/pkg/digits"
	"github.com/taibuivan/gigly/pkg/uuidv7"
)

// # Contracts & Types

// TokenProvider signs access tokens.
type TokenProvider interface {
	GenerateAccessToken(userID, phone, role string, timeToLive time.Duration) (string, error)
}

// Notifier hands an issued code to whoever delivers it.
type Notifier interface {
	Deliver(context context.Context, channel Channel, destination, code string) error
}

// Policy holds the tunables of the service.
type Policy struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	CodeTTL         time.Duration

	// ResendInterval is the minimum gap between two codes for the same key.
	// Zero disables the check.
	ResendInterval time.Duration

	// FixedOTP replaces every generated code when non-empty.
	FixedOTP string

	// EmailSuffixes restricts helper emails. Empty accepts any address.
	EmailSuffixes []string
}

// DefaultPolicy returns the production-like policy.
func DefaultPolicy() Policy {
	return Policy{
		AccessTokenTTL:  constants.AccessTokenTTL,
		RefreshTokenTTL: constants.RefreshTokenTTL,
		CodeTTL:         constants.OTPCodeTTL,
		ResendInterval:  constants.ResendCooldown,
	}
}

// Service implements the identity use cases behind the sandbox routes.
type Service struct {
	accounts AccountRepository
	sessions SessionRepository
	codes    CodeRepository
	tokens   TokenProvider
	notifier Notifier
	policy   Policy
	logger   *slog.Logger
}

// NewService constructs a [Service].
func NewService(
	accounts AccountRepository,
	sessions SessionRepository,
	codes CodeRepository,
	tokens TokenProvider,
	notifier Notifier,
	policy Policy,
	logger *slog.Logger,
) *Service {
	return &Service{
		accounts: accounts,
		sessions: sessions,
		codes:    codes,
		tokens:   tokens,
		notifier: notifier,
		policy:   policy,
		logger:   logger,
	}
}

// # Phone Challenge

/*
SignIn issues a sign-in code to an existing account.

Parameters:
  - context: context.Context
  - role: sec.Role
  - rawPhone: string (normalized here)

Returns:
  - error: NOT_FOUND when no account is registered for this phone and role
*/
func (service *Service) SignIn(context context.Context, role sec.Role, rawPhone string) error {
	phone, err := normalizePhone(rawPhone)
	if err != nil {
		return err
	}

	if _, err := service.accounts.FindByPhone(context, role, phone); err != nil {
		return err
	}

	return service.issue(context, phoneCodeKey(role, phone), PurposeSignIn, ChannelSMS, phone)
}

/*
SignUp registers a phone under role and issues a sign-up code.

Description: Helpers must supply an institutional email. An account whose
phone was never verified may sign up again (the email is replaced); a verified
one is a conflict.

Returns:
  - error: CONFLICT when the account already completed phone verification
*/
func (service *Service) SignUp(context context.Context, role sec.Role, rawPhone, rawEmail string) error {
	phone, err := normalizePhone(rawPhone)
	if err != nil {
		return err
	}

	email := ""
	if role.RequiresEmail() {
		if email, err = service.normalizeEmail(rawEmail); err != nil {
			return err
		}
	}

	account, err := service.accounts.FindByPhone(context, role, phone)
	switch {
	case err == nil && account.PhoneVerified:
		return apperr.Conflict("Account already exists")

	case err == nil:
		account.Email = email
		if err := service.accounts.Update(context, account); err != nil {
			return fmt.Errorf("sandbox_service_signup_update_failed: %w", err)
		}

	case apperr.IsNotFound(err):
		account = &Account{
			ID:    uuidv7.New(),
			Role:  role,
			Phone: phone,
			Email: email,
		}
		if err := service.accounts.Create(context, account); err != nil {
			return err
		}
		service.logger.InfoContext(context, "sandbox_account_created",
			slog.String("account_id", account.ID),
			slog.String("role", role.String()),
		)

	default:
		return fmt.Errorf("sandbox_service_signup_lookup_failed: %w", err)
	}

	return service.issue(context, phoneCodeKey(role, phone), PurposeSignUp, ChannelSMS, phone)
}

/*
VerifyOTP checks a phone code and opens a session.

Returns:
  - *identity.Verification: tokens; the user id only for a sign-up code
  - error: VALIDATION_ERROR for a wrong, expired or missing code
*/
func (service *Service) VerifyOTP(context context.Context, role sec.Role, rawPhone, code string) (*identity.Verification, error) {
	phone, err := normalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}

	key := phoneCodeKey(role, phone)
	stored, err := service.consume(context, key, code)
	if err != nil {
		return nil, err
	}

	account, err := service.accounts.FindByPhone(context, role, phone)
	if err != nil {
		return nil, err
	}

	if !account.PhoneVerified {
		account.PhoneVerified = true
		if err := service.accounts.Update(context, account); err != nil {
			return nil, fmt.Errorf("sandbox_service_verify_update_failed: %w", err)
		}
	}

	accessToken, refreshToken, err := service.openSession(context, account)
	if err != nil {
		return nil, err
	}

	verification := &identity.Verification{
		Success:      true,
		Message:      "Phone verified",
		AccessToken:  &accessToken,
		RefreshToken: &refreshToken,
	}
	if stored.Purpose == PurposeSignUp {
		verification.UserID = &account.ID
	}
	return verification, nil
}

// # Onboarding

// CheckCompletion reports whether the account finished its profile. A token
// whose account no longer exists yields `exists: false`.
func (service *Service) CheckCompletion(context context.Context, accountID string) (*identity.Completion, error) {
	account, err := service.accounts.FindByID(context, accountID)
	if apperr.IsNotFound(err) {
		return &identity.Completion{Exists: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &identity.Completion{Exists: true, Completed: account.ProfileCompleted}, nil
}

// ProfileStatus returns the onboarding flags of the account.
func (service *Service) ProfileStatus(context context.Context, accountID string) (*identity.ProfileStatusPayload, error) {
	account, err := service.accounts.FindByID(context, accountID)
	if err != nil {
		return nil, err
	}

	return &identity.ProfileStatusPayload{
		ProfileCompleted: account.ProfileCompleted,
		EmailVerified:    account.EmailVerified,
		PhoneVerified:    account.PhoneVerified,
		UserType:         account.Role.String(),
		ProfileType:      account.ProfileType,
	}, nil
}

/*
CompleteProfile stores the profile form and marks onboarding complete.

Returns:
  - error: FORBIDDEN for a helper whose email is not verified yet
*/
func (service *Service) CompleteProfile(context context.Context, accountID string, input identity.ProfileInput) error {
	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 100)
	validator.MaxLen("bio", input.Bio, 500)
	validator.MaxLen("institution", input.Institution, 200)
	if err := validator.Err(); err != nil {
		return err
	}

	account, err := service.accounts.FindByID(context, accountID)
	if err != nil {
		return err
	}

	if account.Role.RequiresEmail() && !account.EmailVerified {
		return apperr.Forbidden("Email verification required")
	}

	account.Name = strings.TrimSpace(input.Name)
	account.Bio = strings.TrimSpace(input.Bio)
	account.Institution = strings.TrimSpace(input.Institution)
	account.ProfileCompleted = true
	account.ProfileType = ProfileTypePersonal
	if account.Role == sec.RoleHelper {
		account.ProfileType = ProfileTypeStudent
	}

	if err := service.accounts.Update(context, account); err != nil {
		return fmt.Errorf("sandbox_service_profile_update_failed: %w", err)
	}
	return nil
}

// # Email Challenge

// UpdateEmail replaces the account email, clears its verified flag, and issues
// an email code to the new address.
func (service *Service) UpdateEmail(context context.Context, accountID, rawEmail string) error {
	email, err := service.normalizeEmail(rawEmail)
	if err != nil {
		return err
	}

	account, err := service.accounts.FindByID(context, accountID)
	if err != nil {
		return err
	}

	account.Email = email
	account.EmailVerified = false
	if err := service.accounts.Update(context, account); err != nil {
		return fmt.Errorf("sandbox_service_email_update_failed: %w", err)
	}

	return service.issue(context, emailCodeKey(account.ID), PurposeEmail, ChannelEmail, email)
}

/*
ResendEmailVerification re-issues the email code.

Returns:
  - error: VALIDATION_ERROR when no email is on file, CONFLICT when it is already verified
*/
func (service *Service) ResendEmailVerification(context context.Context, accountID string) error {
	account, err := service.accounts.FindByID(context, accountID)
	if err != nil {
		return err
	}

	if account.Email == "" {
		return validate.RequiredError(FieldEmail, "No email address on file")
	}
	if account.EmailVerified {
		return apperr.Conflict("Email already verified")
	}

	return service.issue(context, emailCodeKey(account.ID), PurposeEmail, ChannelEmail, account.Email)
}

// VerifyEmailOTP checks the email code and marks the email verified.
func (service *Service) VerifyEmailOTP(context context.Context, accountID, code string) error {
	if _, err := service.consume(context, emailCodeKey(accountID), code); err != nil {
		return err
	}

	account, err := service.accounts.FindByID(context, accountID)
	if err != nil {
		return err
	}

	account.EmailVerified = true
	if err := service.accounts.Update(context, account); err != nil {
		return fmt.Errorf("sandbox_service_email_verify_failed: %w", err)
	}
	return nil
}

// # Session Management

// Logout revokes the refresh token. Unknown or empty tokens succeed.
func (service *Service) Logout(context context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	session, err := service.sessions.FindByTokenHash(context, sec.HashToken(refreshToken))
	if err != nil {
		return nil
	}

	if _, err := service.sessions.Revoke(context, session.ID); err != nil {
		return fmt.Errorf("sandbox_service_logout_failed: %w", err)
	}
	return nil
}

/*
Refresh rotates a refresh token issued for role.

Description: The presented token is revoked and a new pair is issued, so a
replayed token fails.

Returns:
  - *identity.TokenPair: the new access token and the rotated refresh token
  - error: UNAUTHORIZED for an unknown, revoked, expired or foreign-role token
*/
func (service *Service) Refresh(context context.Context, role sec.Role, refreshToken string) (*identity.TokenPair, error) {
	if refreshToken == "" {
		return nil, validate.RequiredError(FieldRefreshToken, "This field is required")
	}

	session, err := service.sessions.FindByTokenHash(context, sec.HashToken(refreshToken))
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Invalid or expired refresh token")
		}
		return nil, err
	}

	if !session.Usable(time.Now()) || session.Role != role {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// The revoke is the claim: a concurrent refresh with the same token loses it.
	revoked, err := service.sessions.Revoke(context, session.ID)
	if err != nil {
		return nil, fmt.Errorf("sandbox_service_refresh_revoke_failed: %w", err)
	}
	if !revoked {
		service.logger.WarnContext(context, "sandbox_refresh_token_replayed", slog.String("account_id", session.AccountID))
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	account, err := service.accounts.FindByID(context, session.AccountID)
	if err != nil {
		return nil, apperr.Unauthorized("Account no longer exists")
	}

	accessToken, rotated, err := service.openSession(context, account)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "sandbox_session_refreshed", slog.String("account_id", account.ID))
	return &identity.TokenPair{AccessToken: accessToken, RefreshToken: &rotated}, nil
}

// # Internals

// issue generates, stores and delivers a code under key.
func (service *Service) issue(context context.Context, key string, purpose Purpose, channel Channel, destination string) error {
	now := time.Now()

	if service.policy.ResendInterval > 0 {
		existing, err := service.codes.Find(context, key)
		switch {
		case err == nil:
			if wait := service.policy.ResendInterval - now.Sub(existing.IssuedAt); wait > 0 {
				return apperr.RateLimited(int(math.Ceil(wait.Seconds())))
			}
		case !apperr.IsNotFound(err):
			return fmt.Errorf("sandbox_service_code_lookup_failed: %w", err)
		}
	}

	code := service.policy.FixedOTP
	if code == "" {
		generated, err := sec.GenerateNumericCode(constants.OTPLength)
		if err != nil {
			return fmt.Errorf("sandbox_service_code_generation_failed: %w", err)
		}
		code = generated
	}

	hash, err := sec.HashCode(code)
	if err != nil {
		return fmt.Errorf("sandbox_service_code_hash_failed: %w", err)
	}

	if err := service.codes.Save(context, key, Code{Hash: hash, Purpose: purpose, IssuedAt: now}, service.policy.CodeTTL); err != nil {
		return fmt.Errorf("sandbox_service_code_save_failed: %w", err)
	}

	if err := service.notifier.Deliver(context, channel, destination, code); err != nil {
		return fmt.Errorf("sandbox_service_code_delivery_failed: %w", err)
	}
	return nil
}

// consume checks code against the one stored under key and deletes it on success.
func (service *Service) consume(context context.Context, key, code string) (*Code, error) {
	code = digits.Only(code)
	if err := (&validate.Validator{}).Digits(FieldOTP, code, constants.OTPLength).Err(); err != nil {
		return nil, err
	}

	stored, err := service.codes.Find(context, key)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, validate.RequiredError(FieldOTP, "Invalid or expired code")
		}
		return nil, fmt.Errorf("sandbox_service_code_lookup_failed: %w", err)
	}

	if !sec.CheckCodeHash(code, stored.Hash) {
		return nil, validate.RequiredError(FieldOTP, "Invalid or expired code")
	}

	if err := service.codes.Delete(context, key); err != nil {
		return nil, fmt.Errorf("sandbox_service_code_delete_failed: %w", err)
	}
	return stored, nil
}

// openSession signs an access token and stores a fresh refresh session.
func (service *Service) openSession(context context.Context, account *Account) (string, string, error) {
	accessToken, err := service.tokens.GenerateAccessToken(account.ID, account.Phone, account.Role.String(), service.policy.AccessTokenTTL)
	if err != nil {
		return "", "", fmt.Errorf("sandbox_service_token_generation_failed: %w", err)
	}

	refreshToken, err := sec.GenerateSecureToken(constants.RefreshTokenLength)
	if err != nil {
		return "", "", fmt.Errorf("sandbox_service_refresh_token_failed: %w", err)
	}

	session := &RefreshSession{
		ID:        uuidv7.New(),
		AccountID: account.ID,
		Role:      account.Role,
		TokenHash: sec.HashToken(refreshToken),
		ExpiresAt: time.Now().Add(service.policy.RefreshTokenTTL),
	}
	if err := service.sessions.Create(context, session); err != nil {
		return "", "", fmt.Errorf("sandbox_service_session_creation_failed: %w", err)
	}

	return accessToken, refreshToken, nil
}

func normalizePhone(raw string) (string, error) {
	phone := digits.Phone(raw)
	validator := &validate.Validator{}
	validator.Required(FieldPhone, phone).Phone(FieldPhone, phone)
	return phone, validator.Err()
}

func (service *Service) normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).Email(FieldEmail, email).Suffix(FieldEmail, email, service.policy.EmailSuffixes...)
	return email, validator.Err()
}
