package auth

import (
	"errors"
	"fmt"
)

// Login and two-factor outcomes exposed to the API layer. All of these are
// recoverable, user-facing results; anything else bubbling out of the
// service is a store failure and maps to a generic 500.
var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password so the response never reveals whether the account exists.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidSecondFactor is returned for a wrong or malformed TOTP code.
	ErrInvalidSecondFactor = errors.New("invalid two-factor code")

	// ErrNoPendingSecondFactor is returned when a code is submitted without
	// a prior successful password verification in the same session.
	ErrNoPendingSecondFactor = errors.New("no pending two-factor login")

	// ErrTwoFactorAlreadyEnabled is returned by enrollment confirmation on
	// an account that already has two-factor auth active.
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication already enabled")

	// ErrTwoFactorNotEnabled is returned by disable on an account without
	// two-factor auth active.
	ErrTwoFactorNotEnabled = errors.New("two-factor authentication not enabled")
)

// AccountLockedError reports an active lockout together with the whole
// minutes remaining until it expires.
type AccountLockedError struct {
	RemainingMinutes int
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account is locked, try again in %d minutes", e.RemainingMinutes)
}
