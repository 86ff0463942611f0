package domain

import "errors"

var (
	ErrCodeNotFound        = errors.New("verification code not found")
	ErrCodeExpired         = errors.New("verification code expired")
	ErrCodeAlreadyConsumed = errors.New("verification code already consumed")
	ErrCodeMismatch        = errors.New("verification code mismatch")

	ErrTicketNotFound    = errors.New("ticket not found")
	ErrTicketExpired     = errors.New("ticket expired")
	ErrTicketAlreadyUsed = errors.New("ticket already used")

	ErrSubjectMismatch = errors.New("subject mismatch")
	ErrSubjectNotFound = errors.New("subject not found")

	ErrUnknownKind       = errors.New("unknown booking kind")
	ErrValidationFailed  = errors.New("validation failed")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidTransition = errors.New("invalid transition")

	ErrPersistenceConflict = errors.New("persistence conflict")
	ErrNotifierUnavailable = errors.New("notifier unavailable")
	ErrInvalidID           = errors.New("invalid id")
)
