// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"
	"strings"

	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/constants"
	"github.com/taibuivan/gigly/internal/platform/ctxutil"
	"github.com/taibuivan/gigly/internal/platform/respond"
	"github.com/taibuivan/gigly/internal/platform/sec"
)

// TokenVerifier verifies an access token and returns its claims.
type TokenVerifier interface {
	VerifyToken(token string) (*sec.AuthClaims, error)
}

// Authenticate verifies the bearer token when one is present.
//
// # Flow
//  1. No Authorization header: the request proceeds anonymously.
//  2. A malformed header or an invalid token is rejected with 401.
//  3. Otherwise the claims are injected into the request context.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			header := request.Header.Get(constants.HeaderAuthorization)
			if header == "" {
				next.ServeHTTP(writer, request)
				return
			}

			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			next.ServeHTTP(writer, request.WithContext(ctxutil.WithAccount(request.Context(), claims)))
		})
	}
}

// RequireRole rejects anonymous requests with 401 and requests whose token
// was issued for another role with 403. Mount it after [Authenticate].
func RequireRole(role sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetAccount(request.Context())
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			if sec.Role(claims.Role) != role {
				respond.Error(writer, request, apperr.Forbidden("Token was issued for another role"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
