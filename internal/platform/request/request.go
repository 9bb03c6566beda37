// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil provides helpers for reading sandbox HTTP requests.

It keeps body decoding and caller extraction consistent across handlers so
every malformed body and every anonymous call yields the same error.
*/
package requestutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/ctxutil"
	"github.com/taibuivan/gigly/internal/platform/sec"
	"github.com/taibuivan/gigly/internal/platform/validate"
)

// maxBodyBytes caps request bodies; every sandbox payload is a handful of fields.
const maxBodyBytes = 16 << 10

/*
DecodeJSON reads the request body into target.

An empty body decodes to the zero value so body-less POSTs (resend, logout
without a token) are accepted.

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target any) error {
	decoder := json.NewDecoder(io.LimitReader(request.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return validate.ErrInvalidJSON
	}
	return nil
}

// Claims returns the caller's token claims, or nil for an anonymous request.
func Claims(request *http.Request) *sec.AuthClaims {
	return ctxutil.GetAccount(request.Context())
}

/*
RequiredClaims returns the caller's token claims.

Returns:
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredClaims(request *http.Request) (*sec.AuthClaims, error) {
	claims := ctxutil.GetAccount(request.Context())
	if claims == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return claims, nil
}
