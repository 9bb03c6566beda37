// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/ctxutil"
	"github.com/taibuivan/gigly/internal/platform/middleware"
	"github.com/taibuivan/gigly/internal/platform/respond"
	"github.com/taibuivan/gigly/internal/platform/sec"
)

type stubVerifier map[string]*sec.AuthClaims

func (verifier stubVerifier) VerifyToken(token string) (*sec.AuthClaims, error) {
	if claims, ok := verifier[token]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid")
}

type devConfig bool

func (dev devConfig) IsDevelopment() bool { return bool(dev) }

// ok echoes the authenticated account id.
var ok = http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
	id := ""
	if claims := ctxutil.GetAccount(request.Context()); claims != nil {
		id = claims.UserID
	}
	respond.OK(writer, map[string]string{"account": id})
})

func decodeCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope respond.ErrorEnvelope
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))
	return envelope.Code
}

/*
TestAuthorization covers Authenticate followed by RequireRole.
*/
func TestAuthorization(t *testing.T) {
	verifier := stubVerifier{
		"client-token": {UserID: "c-1", Role: "client"},
		"helper-token": {UserID: "h-1", Role: "helper"},
	}
	handler := middleware.Authenticate(verifier)(middleware.RequireRole(sec.RoleClient)(ok))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"Anonymous", "", http.StatusUnauthorized, apperr.CodeUnauthorized},
		{"Malformed", "Token client-token", http.StatusUnauthorized, apperr.CodeUnauthorized},
		{"Invalid", "Bearer nope", http.StatusUnauthorized, apperr.CodeUnauthorized},
		{"OtherRole", "Bearer helper-token", http.StatusForbidden, apperr.CodeForbidden},
		{"Allowed", "bearer client-token", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeCode(t, recorder))
			} else {
				assert.Contains(t, recorder.Body.String(), `"account":"c-1"`)
			}
		})
	}
}

func TestAuthenticate_Anonymous(t *testing.T) {
	recorder := httptest.NewRecorder()
	middleware.Authenticate(stubVerifier{})(ok).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"account":""`)
}

func TestRequestID(t *testing.T) {
	handler := middleware.RequestID()(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = io.WriteString(writer, ctxutil.GetRequestID(request.Context()))
	}))

	t.Run("Generated", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, recorder.Body.String())
		assert.Equal(t, recorder.Body.String(), recorder.Header().Get("X-Request-ID"))
	})

	t.Run("Propagated", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("X-Request-ID", "req-42")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		assert.Equal(t, "req-42", recorder.Body.String())
	})
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := middleware.RateLimit(ctx, 0.001, 2)(ok)
	call := func(ip string) int {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("X-Real-IP", ip)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2"))
}

func TestPanicRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := middleware.PanicRecovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, apperr.CodeInternal, decodeCode(t, recorder))
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name      string
		dev       bool
		origin    string
		wantAllow string
	}{
		{"DevelopmentAnyOrigin", true, "http://localhost:3000", "http://localhost:3000"},
		{"ProductionOwnOrigin", false, "https://web.gigly.app", "https://web.gigly.app"},
		{"ProductionForeignOrigin", false, "https://evil.example", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodOptions, "/", nil)
			request.Header.Set("Origin", tt.origin)
			recorder := httptest.NewRecorder()

			middleware.CORS(devConfig(tt.dev))(ok).ServeHTTP(recorder, request)

			assert.Equal(t, http.StatusNoContent, recorder.Code)
			assert.Equal(t, tt.wantAllow, recorder.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRealIP(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", middleware.RealIP(request))

	request.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", middleware.RealIP(request))

	request.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", middleware.RealIP(request))
}
