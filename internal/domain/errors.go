package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the broad failure categories. Callers branch on these with
// errors.Is; the HTTP layer maps them to status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state transition")
	ErrUnavailable  = errors.New("resource unavailable")
	ErrExternal     = errors.New("external dependency failed")
)

// Fine-grained sentinels. Each wraps one of the categories above so both
// errors.Is(err, ErrInvalidDateRange) and errors.Is(err, ErrValidation) hold.
var (
	ErrInvalidDateRange          = fmt.Errorf("%w: check-out must be after check-in", ErrValidation)
	ErrInvalidPersons            = fmt.Errorf("%w: persons must be positive", ErrValidation)
	ErrBelowMinimumRedemption    = fmt.Errorf("%w: below minimum loyalty redemption", ErrValidation)
	ErrInsufficientLoyaltyPoints = fmt.Errorf("%w: insufficient loyalty points", ErrValidation)
	ErrDiscountMismatch          = fmt.Errorf("%w: discount does not match redeemed points", ErrValidation)
	ErrRoomUnavailable           = fmt.Errorf("%w: room is not available for the requested dates", ErrConflict)
	ErrAvailabilityCheckFailed   = fmt.Errorf("%w: availability check failed", ErrExternal)
	ErrBookingLocked             = fmt.Errorf("%w: booking is locked", ErrConflict)
	ErrCancellationWindowClosed  = fmt.Errorf("%w: cancellation window has closed", ErrConflict)
	ErrPaymentInitiationFailed   = fmt.Errorf("%w: payment initiation failed", ErrExternal)
	ErrPaymentVerificationFailed = fmt.Errorf("%w: payment verification failed", ErrExternal)
	ErrPaymentRequired           = fmt.Errorf("%w: booking must be paid first", ErrConflict)
)

// DomainError carries a category sentinel plus a human-readable message.
type DomainError struct {
	Err     error
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewNotFoundError reports a missing entity by type and id.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

// NewValidationError reports a request rejected before touching storage.
func NewValidationError(msg string) *DomainError {
	return &DomainError{Err: ErrValidation, Message: msg}
}

// NewForbiddenError reports a principal acting on a booking it does not own.
func NewForbiddenError(msg string) *DomainError {
	return &DomainError{Err: ErrForbidden, Message: msg}
}

// NewConflictError reports a write that lost to concurrent state.
func NewConflictError(msg string) *DomainError {
	return &DomainError{Err: ErrConflict, Message: msg}
}

// NewInvalidStateError reports an illegal status transition.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}
