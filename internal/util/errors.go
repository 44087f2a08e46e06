// internal/util/errors.go
package util

import (
	"errors"
	"fmt"
)

// Common application-specific errors.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input provided")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrTransactionConflict is returned once the store gave up retrying a contended atomic unit.
	ErrTransactionConflict = errors.New("transaction conflict")
	ErrPreconditionFailed  = errors.New("precondition failed")
	ErrActiveEventExists   = fmt.Errorf("user already has an active event: %w", ErrPreconditionFailed)

	// ErrIdempotencyKeyReused means a client sent a known Idempotency-Key with a different body.
	ErrIdempotencyKeyReused = errors.New("idempotency key reused with a different request")
)

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// DefaultUserMessage is shown for anything we don't recognise.
const DefaultUserMessage = "Something went wrong, please try again later."

// UserMessage maps an error to a message that is safe to show to end users.
// Order matters: ErrActiveEventExists must be matched before ErrPreconditionFailed.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "The request is invalid. Check the submitted values."
	case errors.Is(err, ErrUnauthorized):
		return "You need to sign in to continue."
	case errors.Is(err, ErrForbidden):
		return "You are not allowed to perform this action."
	case errors.Is(err, ErrNotFound):
		return "Resource not found."
	case errors.Is(err, ErrInsufficientFunds):
		return "Fondos insuficientes en TochCoin."
	case errors.Is(err, ErrActiveEventExists):
		return "Ya tienes un evento activo. Debes esperar a que finalice para crear otro y ganar más TCN."
	case errors.Is(err, ErrPreconditionFailed):
		return "This action is not allowed right now."
	case errors.Is(err, ErrTransactionConflict):
		return "The wallet is busy, please retry."
	case errors.Is(err, ErrDuplicateEntry):
		return "This resource already exists."
	case errors.Is(err, ErrStorageUnavailable):
		return "The service is temporarily unavailable, please retry."
	case errors.Is(err, ErrIdempotencyKeyReused):
		return "This Idempotency-Key was already used for a different request."
	default:
		return DefaultUserMessage
	}
}
