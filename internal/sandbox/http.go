// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sandbox

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/gigly/internal/identity"
	"github.com/taibuivan/gigly/internal/platform/middleware"
	requestutil "github.com/taibuivan/gigly/internal/platform/request"
	"github.com/taibuivan/gigly/internal/platform/respond"
	"github.com/taibuivan/gigly/internal/platform/sec"
)

// # Request Payloads

type phoneRequest struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type verifyRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type codeRequest struct {
	OTP string `json:"otp"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// # Handler

// Handler serves the routes of one role under `/api/v1/{role}`.
type Handler struct {
	service  *Service
	verifier middleware.TokenVerifier
	role     sec.Role
}

// NewHandler creates the handler for role.
func NewHandler(service *Service, verifier middleware.TokenVerifier, role sec.Role) *Handler {
	return &Handler{service: service, verifier: verifier, role: role}
}

// Role returns the role this handler serves.
func (handler *Handler) Role() sec.Role {
	return handler.role
}

/*
Routes returns the router of the role.

Challenge and token routes are public: the refresh call must work while the
access token is expired. Everything else requires a token issued for this role.
*/
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/signin", handler.signIn)
	router.Post("/signup", handler.signUp)
	router.Post("/verify-otp", handler.verifyOTP)
	router.Post("/logout", handler.logout)
	router.Post("/refresh-token", handler.refreshToken)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.Authenticate(handler.verifier))
		protected.Use(middleware.RequireRole(handler.role))

		protected.Get("/check-completion", handler.checkCompletion)
		protected.Get("/profile-status", handler.profileStatus)
		protected.Put("/profile", handler.completeProfile)

		if handler.role.RequiresEmail() {
			protected.Post("/update-email", handler.updateEmail)
			protected.Post("/resend-email-verification", handler.resendEmailVerification)
			protected.Post("/verify-email-otp", handler.verifyEmailOTP)
		}
	})

	return router
}

// # Phone Challenge

func (handler *Handler) signIn(writer http.ResponseWriter, request *http.Request) {
	var input phoneRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.SignIn(request.Context(), handler.role, input.Phone); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, identity.Ack{Success: true, Message: "Verification code sent"})
}

func (handler *Handler) signUp(writer http.ResponseWriter, request *http.Request) {
	var input phoneRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.SignUp(request.Context(), handler.role, input.Phone, input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, identity.Ack{Success: true, Message: "Verification code sent"})
}

func (handler *Handler) verifyOTP(writer http.ResponseWriter, request *http.Request) {
	var input verifyRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	verification, err := handler.service.VerifyOTP(request.Context(), handler.role, input.Phone, input.OTP)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, verification)
}

// # Onboarding

func (handler *Handler) checkCompletion(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	completion, err := handler.service.CheckCompletion(request.Context(), claims.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, completion)
}

func (handler *Handler) profileStatus(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	status, err := handler.service.ProfileStatus(request.Context(), claims.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, status)
}

func (handler *Handler) completeProfile(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input identity.ProfileInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.CompleteProfile(request.Context(), claims.UserID, input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, identity.Ack{Success: true, Message: "Profile saved"})
}

// # Email Challenge

func (handler *Handler) updateEmail(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input emailRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.UpdateEmail(request.Context(), claims.UserID, input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, identity.Ack{Success: true, Message: "Verification email sent"})
}

func (handler *Handler) resendEmailVerification(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ResendEmailVerification(request.Context(), claims.UserID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, identity.Ack{Success: true, Message: "Verification email sent"})
}

func (handler *Handler) verifyEmailOTP(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input codeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.VerifyEmailOTP(request.Context(), claims.UserID, input.OTP); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, identity.Ack{Success: true, Message: "Email verified"})
}

// # Session Management

func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Logout(request.Context(), input.RefreshToken); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, identity.Ack{Success: true, Message: "Logged out"})
}

func (handler *Handler) refreshToken(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.service.Refresh(request.Context(), handler.role, input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pair)
}
