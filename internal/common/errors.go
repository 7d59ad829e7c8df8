// Package common holds small utilities shared across packages: env helpers,
// typed HTTP errors and runtime tuning.
package common

import (
	"fmt"
	"net/http"
)

// HttpError carries an HTTP status through error-returning call chains so the
// transport layer can map it back without string matching.
type HttpError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s %s", e.StatusCode, e.Code, e.Message)
}

func newHttpError(status int, code, msg, fallback string) *HttpError {
	if msg == "" {
		msg = fallback
	}
	return &HttpError{StatusCode: status, Code: code, Message: msg}
}

// The quote API is read-only, so only the statuses it can actually produce
// get constructors.

func HTTPErrorBadRequest(msg string) *HttpError {
	return newHttpError(http.StatusBadRequest, "BAD_REQUEST", msg, "Bad request")
}

func HTTPErrorNotFound(msg string) *HttpError {
	return newHttpError(http.StatusNotFound, "NOT_FOUND", msg, "Not found")
}

func HTTPErrorInternalError(msg string) *HttpError {
	return newHttpError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", msg, "Internal server error")
}
