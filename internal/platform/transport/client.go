// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package transport provides the single HTTP client every identity call goes through.

Responsibilities:

  - Bearer: attaches the current access token to every request.
  - Token Slot: exposes [Client.SetToken] so the session store and the refresh
    manager can swap the token at runtime. The client holds a copy, never the
    session itself.
  - Envelopes: decodes the `{"data": ...}` success envelope and rebuilds
    [apperr.AppError] from the `{"error", "code"}` error envelope, so callers
    branch on structured codes instead of message text.
  - Tracing: stamps an X-Request-ID on each call for log correlation with the
    identity service.
*/
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/constants"
)

// maxErrorBody caps how much of an unexpected error body is read.
const maxErrorBody = 64 << 10

// # Client Definition

// Client is the bearer-token HTTP client for the identity service.
//
// # Concurrency
//
// Safe for concurrent use. The token slot is guarded by an RWMutex and is read
// once per request, before the request is built.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.RWMutex
	token string
}

// Option customizes a [Client].
type Option func(*Client)

// WithHTTPClient replaces the underlying [http.Client].
func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) {
		client.httpClient = httpClient
	}
}

// WithTimeout sets the per-call timeout of the default [http.Client].
func WithTimeout(timeout time.Duration) Option {
	return func(client *Client) {
		client.httpClient.Timeout = timeout
	}
}

// New constructs a [Client] for the identity service at baseURL.
func New(baseURL string, logger *slog.Logger, options ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: constants.DefaultClientTimeout},
		logger:     logger,
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// # Token Slot

// SetToken replaces the bearer token attached to subsequent requests.
// An empty token sends requests unauthenticated.
func (client *Client) SetToken(token string) {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.token = token
}

// Token returns the bearer token currently attached to requests.
func (client *Client) Token() string {
	client.mu.RLock()
	defer client.mu.RUnlock()
	return client.token
}

// # Envelopes

type successEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// # Requests

// Get issues a GET request and decodes the data envelope into out.
func (client *Client) Get(context context.Context, path string, out any) error {
	return client.Do(context, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON body and decodes the data envelope into out.
func (client *Client) Post(context context.Context, path string, body, out any) error {
	return client.Do(context, http.MethodPost, path, body, out)
}

// Put issues a PUT request with a JSON body and decodes the data envelope into out.
func (client *Client) Put(context context.Context, path string, body, out any) error {
	return client.Do(context, http.MethodPut, path, body, out)
}

/*
Do performs one request against the identity service.

Description: Serializes body as JSON (when non-nil), attaches the bearer token
captured at call time, and maps the response onto either out or an
[apperr.AppError]. Do never retries; that is the refresh manager's job.

Parameters:
  - context: context.Context
  - method: string
  - path: string (joined to the base URL)
  - body: any (nil for no body)
  - out: any (nil to discard the data envelope)

Returns:
  - error: *apperr.AppError for every failure
*/
func (client *Client) Do(context context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperr.Internal(fmt.Errorf("transport_encode_failed: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(context, method, client.baseURL+path, reader)
	if err != nil {
		return apperr.Internal(fmt.Errorf("transport_build_request_failed: %w", err))
	}

	requestID := uuid.NewString()
	request.Header.Set(constants.HeaderXRequestID, requestID)
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	}
	if token := client.Token(); token != "" {
		request.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}

	startTime := time.Now()
	response, err := client.httpClient.Do(request)
	if err != nil {
		client.logger.WarnContext(context, "identity_request_failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("request_id", requestID),
			slog.Any("error", err),
		)
		return apperr.Remote("Identity service is unreachable", err)
	}
	defer response.Body.Close()

	client.logger.DebugContext(context, "identity_request_finished",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("request_id", requestID),
		slog.Int("status", response.StatusCode),
		slog.Int64("latency_ms", time.Since(startTime).Milliseconds()),
	)

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return decodeSuccess(response, out)
	}

	return decodeError(response)
}

// decodeSuccess unwraps the data envelope into out.
func decodeSuccess(response *http.Response, out any) error {
	if out == nil || response.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}

	var envelope successEnvelope
	if err := json.NewDecoder(response.Body).Decode(&envelope); err != nil {
		return apperr.Remote("Identity service returned a malformed response", err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return apperr.Remote("Identity service returned an empty response", nil)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return apperr.Remote("Identity service returned a malformed response", err)
	}
	return nil
}

// decodeError rebuilds an [apperr.AppError] from an error response.
//
// # Classification
//
// The structured code wins. Without one (a proxy page, a router 404), the
// status decides: 401 is still an authorization failure, everything else is
// a RemoteError. A bare 404 is deliberately NOT treated as "account not found".
func decodeError(response *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))

	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Code != "" {
		message := envelope.Error
		if message == "" {
			message = http.StatusText(response.StatusCode)
		}
		return &apperr.AppError{
			Code:       envelope.Code,
			Message:    message,
			HTTPStatus: response.StatusCode,
			Details:    envelope.Details,
		}
	}

	if response.StatusCode == http.StatusUnauthorized {
		return apperr.Unauthorized("Session expired")
	}

	message := strings.TrimSpace(envelope.Error)
	if message == "" {
		message = fmt.Sprintf("Identity service error (%d)", response.StatusCode)
	}
	remote := apperr.Remote(message, fmt.Errorf("transport_unexpected_status: %d", response.StatusCode))
	remote.HTTPStatus = response.StatusCode
	return remote
}
