// Package apperr defines the error taxonomy shared by services and
// handlers. Services wrap these sentinels with context; the HTTP layer
// maps them to status codes in one place.
package apperr

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")

	// The gateway processed the charge request and declined it.
	ErrChargeDeclined = errors.New("charge declined")

	// External payment gateway failures. Timeout is kept distinct so
	// callers can tell a slow provider from an unreachable one.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayTimeout     = errors.New("payment gateway timeout")

	// Malformed or unidentifiable webhook payload. Acknowledged to the
	// provider without any state change.
	ErrInvalidCallback = errors.New("invalid callback payload")

	// A record references another record that does not exist, e.g. a
	// payment whose order is missing. Logged as an integrity violation.
	ErrInconsistentState = errors.New("inconsistent state")
)
