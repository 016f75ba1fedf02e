// Package apperr defines the error taxonomy shared by all services and the
// mapping from errors to HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound marks a referenced account, team or task as absent.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks missing or malformed request fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict marks duplicate usernames/emails and second pending
	// withdrawals.
	ErrConflict = errors.New("conflict")

	// ErrAlreadyProcessed marks a repeated one-time operation, such as a
	// reward flag that is already set or a task already completed.
	ErrAlreadyProcessed = errors.New("already processed")

	// ErrNoRewardingMember is the soft condition reported when a referral
	// chain cannot produce a payout: no parent, a flag already set, or a
	// chain deeper than the traversal bound. It is reported to the caller,
	// not treated as a server error.
	ErrNoRewardingMember = errors.New("no rewarding member found")
)

// Status returns the HTTP status code for err. Unknown errors map to 500.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadyProcessed):
		return http.StatusConflict
	case errors.Is(err, ErrNoRewardingMember):
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
