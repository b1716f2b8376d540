package registration

import (
	"errors"
	"net/http"
)

// Rejection reasons for an admission attempt, checked in a fixed order:
// existence, active flag, payload validity, capacity, duplicate membership.
// The first failing check decides the error; later checks are not
// evaluated. All of them are detected before any mutation, so a rejected
// attempt leaves no partial state.
var (
	// ErrNotFound: the target resource id does not resolve.
	ErrNotFound = errors.New("resource not found")

	// ErrInactive: an admin has deactivated the target; no admissions are
	// accepted regardless of remaining capacity.
	ErrInactive = errors.New("resource is no longer active")

	// ErrInvalidInput: malformed payload (bad option index, empty or
	// non-yes/no answer). Retryable after the client corrects the input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCapacityExceeded: the target (or targeted option) is full.
	ErrCapacityExceeded = errors.New("capacity limit reached")

	// ErrAlreadyRegistered: the acting user already holds a membership or
	// response for this target. A duplicate attempt is a user-visible
	// rejection, never a silent no-op.
	ErrAlreadyRegistered = errors.New("already registered")
)

// HTTPStatus maps an admission error to the status code and message the
// API returns for it. Unknown errors map to a generic 500; the caller
// should log those with full detail.
func HTTPStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.Is(err, ErrInactive),
		errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrAlreadyRegistered),
		errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, userMessage(err)
	default:
		return http.StatusInternalServerError, "registration failed"
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrInactive):
		return "this item is no longer active"
	case errors.Is(err, ErrCapacityExceeded):
		return "registration limit reached"
	case errors.Is(err, ErrAlreadyRegistered):
		return "you are already registered"
	default:
		return err.Error()
	}
}
