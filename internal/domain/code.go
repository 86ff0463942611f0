package domain

import "time"

// VerificationCode is a short-lived one-time code proving control of an
// email address for a single workflow. At most one unconsumed, unexpired
// code exists per (identity, purpose); issuing a new one replaces it.
type VerificationCode struct {
	Identity     string
	Purpose      string
	Code         string
	BoundSubject string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	Consumed     bool
}

// VerificationTicket is the ephemeral proof returned by a successful code
// verification. It authorizes exactly one booking creation.
type VerificationTicket struct {
	ID           string
	Identity     string
	Purpose      string
	BoundSubject string
	IssuedAt     time.Time
	UsedAt       *time.Time
}
