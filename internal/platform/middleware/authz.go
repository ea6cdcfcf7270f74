// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package middleware provides the HTTP middleware chain for the Manhwaru API server.
//
// # Architecture
//
// Middleware intercepts incoming HTTP requests to apply global policies
// before they reach the domain handlers. This includes cross-cutting concerns
// like Logging, AuthZ, Rate Limiting, and CORS.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/taibuivan/manhwaru/internal/platform/apperr"
	"github.com/taibuivan/manhwaru/internal/platform/constants"
	"github.com/taibuivan/manhwaru/internal/platform/respond"
)

// RequireAdminToken blocks requests that do not carry the static operator
// bearer token.
//
// # Usage
//
// Mounted on the /admin route group only. The public catalogue surface stays
// anonymous.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent or malformed, abort with HTTP 401 Unauthorized.
//  3. Compare against the configured token in constant time.
//  4. If the token does not match, abort with HTTP 403 Forbidden.
//
// An empty configured token disables the admin surface entirely: every
// request is rejected rather than silently allowed.
func RequireAdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Header Presence ────────────────────────────────────────────
			if authHeader == "" {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Token Comparison ───────────────────────────────────────────
			if token == "" || subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
				respond.Error(writer, request, apperr.Forbidden("Invalid admin token"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
