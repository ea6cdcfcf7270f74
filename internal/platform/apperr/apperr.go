// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for Manhwaru.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing a machine-readable appCode and a client-safe message.
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.
  - Upstream passthrough: errors from the external catalogue keep their origin status.

Every error that leaves the service layer should be wrapped as an [AppError] to ensure
consistent API responses.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable application codes. These are part of the wire contract:
// clients branch on them, so the strings are stable.
const (
	CodeNotFound        = "manhwa_not_found"
	CodeSearchFailed    = "manhwa_search_failed"
	CodeExternalAPI     = "external_api_error"
	CodeRateLimited     = "rate_limit_exceeded"
	CodeInvalidData     = "invalid_manhwa_data"
	CodeSyncFailed      = "sync_failed"
	CodePaginationLimit = "pagination_limit_exceeded"
	CodeBadInput        = "bad_input"
	CodeValidation      = "validation_failed"
	CodeConflict        = "conflict"
	CodeUnauthorized    = "unauthorized"
	CodeForbidden       = "forbidden"
	CodeInternal        = "internal_error"
	CodeUnavailable     = "service_unavailable"
)

// AppError is the canonical error type for the Manhwaru API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "manhwa_not_found").
	Code string `json:"appCode"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"message"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for validation_failed responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Manhwa") // Returns "Manhwa not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// BadInput creates a 400 [AppError] for a request the server understood but
// cannot act on (unknown identifiers, duplicate imports, malformed filters).
func BadInput(msg string) *AppError {
	return &AppError{
		Code:       CodeBadInput,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
	}
}

// InvalidData creates a 400 [AppError] for manhwa payloads that fail entity
// validation on create or import.
func InvalidData(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       CodeInvalidData,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates a 403 [AppError].
func Forbidden(msg string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// CaptchaRequired creates a 403 [AppError] with the rate_limit_exceeded code.
// The external catalogue answers sustained abuse with a captcha challenge;
// clients treat it like a hard rate limit, so it shares the code.
func CaptchaRequired() *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    "Upstream requires a captcha. Reduce request frequency and try again later.",
		HTTPStatus: http.StatusForbidden,
	}
}

// PaginationLimit creates a 400 [AppError] for page windows the external
// catalogue refuses to serve (offset + limit beyond its hard ceiling).
func PaginationLimit(msg string) *AppError {
	return &AppError{
		Code:       CodePaginationLimit,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
	}
}

// # Server Errors (5xx)

// External creates an [AppError] for a failed call to the external catalogue.
// The upstream HTTP status is preserved when it is an error status; otherwise
// the error maps to 502.
func External(msg string, upstreamStatus int, cause error) *AppError {
	status := http.StatusBadGateway
	if upstreamStatus >= 400 {
		status = upstreamStatus
	}
	return &AppError{
		Code:       CodeExternalAPI,
		Message:    msg,
		HTTPStatus: status,
		Cause:      cause,
	}
}

// SearchFailed creates a 500 [AppError] for catalogue search failures.
func SearchFailed(cause error) *AppError {
	return &AppError{
		Code:       CodeSearchFailed,
		Message:    "Search failed",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// SyncFailed creates a 500 [AppError] for a failed upstream synchronisation.
func SyncFailed(msg string, cause error) *AppError {
	return &AppError{
		Code:       CodeSyncFailed,
		Message:    msg,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// ServiceUnavailable creates a 503 [AppError] for features whose backing
// dependency is not configured or temporarily unreachable.
func ServiceUnavailable(msg string) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    msg,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// Is reports whether err's chain contains an [*AppError] with the given code.
func Is(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
