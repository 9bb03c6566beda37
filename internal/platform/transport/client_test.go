// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package transport_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/transport"
)

func newClient(t *testing.T, handler http.HandlerFunc) *transport.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return transport.New(server.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeJSON(writer http.ResponseWriter, status int, payload any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(payload)
}

/*
TestClient_BearerToken verifies that the current token slot value is attached.
*/
func TestClient_BearerToken(t *testing.T) {
	var seen []string
	client := newClient(t, func(writer http.ResponseWriter, request *http.Request) {
		seen = append(seen, request.Header.Get("Authorization"))
		assert.NotEmpty(t, request.Header.Get("X-Request-ID"))
		writeJSON(writer, http.StatusOK, map[string]any{"data": map[string]bool{"success": true}})
	})

	ctx := context.Background()

	// 1. No token: no header
	require.NoError(t, client.Get(ctx, "/ping", nil))

	// 2. Token installed
	client.SetToken("access-1")
	assert.Equal(t, "access-1", client.Token())
	require.NoError(t, client.Get(ctx, "/ping", nil))

	// 3. Token swapped at runtime
	client.SetToken("access-2")
	require.NoError(t, client.Get(ctx, "/ping", nil))

	assert.Equal(t, []string{"", "Bearer access-1", "Bearer access-2"}, seen)
}

/*
TestClient_DecodeSuccess verifies unwrapping of the data envelope and the JSON body.
*/
func TestClient_DecodeSuccess(t *testing.T) {
	client := newClient(t, func(writer http.ResponseWriter, request *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(request.Body).Decode(&body))
		assert.Equal(t, "+819012345678", body["phone"])
		writeJSON(writer, http.StatusOK, map[string]any{
			"data": map[string]any{"success": true, "message": "OTP sent"},
		})
	})

	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	err := client.Post(context.Background(), "/signin", map[string]string{"phone": "+819012345678"}, &out)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "OTP sent", out.Message)
}

/*
TestClient_ErrorMapping verifies that failures become structured AppErrors.
*/
func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "structured_not_found",
			status:   http.StatusNotFound,
			body:     `{"error":"Account not found","code":"NOT_FOUND"}`,
			wantCode: apperr.CodeNotFound,
			check: func(t *testing.T, err error) {
				assert.True(t, apperr.IsNotFound(err))
				assert.Equal(t, "Account not found", err.Error())
			},
		},
		{
			name:     "router_404_is_not_account_not_found",
			status:   http.StatusNotFound,
			body:     "404 page not found",
			wantCode: apperr.CodeRemote,
			check: func(t *testing.T, err error) {
				assert.False(t, apperr.IsNotFound(err))
			},
		},
		{
			name:     "bare_401",
			status:   http.StatusUnauthorized,
			body:     "",
			wantCode: apperr.CodeUnauthorized,
			check: func(t *testing.T, err error) {
				assert.True(t, apperr.IsUnauthorized(err))
			},
		},
		{
			name:     "validation_details",
			status:   http.StatusBadRequest,
			body:     `{"error":"Validation failed","code":"VALIDATION_ERROR","details":[{"field":"otp","message":"Must be exactly 6 digits"}]}`,
			wantCode: apperr.CodeValidation,
			check: func(t *testing.T, err error) {
				ae := apperr.As(err)
				require.NotNil(t, ae)
				require.Len(t, ae.Details, 1)
				assert.Equal(t, "otp", ae.Details[0].Field)
			},
		},
		{
			name:     "server_error_without_code",
			status:   http.StatusBadGateway,
			body:     `{"error":"upstream down"}`,
			wantCode: apperr.CodeRemote,
			check: func(t *testing.T, err error) {
				assert.Equal(t, "upstream down", err.Error())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t, func(writer http.ResponseWriter, _ *http.Request) {
				writer.WriteHeader(tt.status)
				_, _ = writer.Write([]byte(tt.body))
			})

			err := client.Get(context.Background(), "/profile-status", nil)
			require.Error(t, err)

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, tt.wantCode, ae.Code)
			assert.Equal(t, tt.status, ae.HTTPStatus)
			tt.check(t, err)
		})
	}
}

/*
TestClient_Malformed verifies that an unusable success body is a RemoteError.
*/
func TestClient_Malformed(t *testing.T) {
	client := newClient(t, func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte("<html>"))
	})

	var out map[string]any
	err := client.Get(context.Background(), "/profile-status", &out)
	assert.True(t, apperr.HasCode(err, apperr.CodeRemote))
}

/*
TestClient_Unreachable verifies that a connection failure is a RemoteError.
*/
func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client := transport.New(server.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := client.Get(context.Background(), "/profile-status", nil)

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeRemote))
}
