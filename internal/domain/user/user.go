package user

import (
	"context"

	"github.com/google/uuid"
)

// Profile is the slice of the user record the booking core reads: identity,
// contact address for notifications, and the loyalty balance.
type Profile struct {
	ID            uuid.UUID
	Name          string
	Email         string
	LoyaltyPoints int
}

// Ledger is the contract for loyalty point balances. Increments and decrements
// are single atomic statements at the storage layer; the booking-side
// award-once guard lives on the booking record itself.
type Ledger interface {
	// FindProfile returns the user's profile.
	FindProfile(ctx context.Context, id uuid.UUID) (*Profile, error)

	// AddLoyaltyPoints atomically adjusts the balance by delta (may be negative).
	// The balance never goes below zero; an over-drawing decrement fails.
	AddLoyaltyPoints(ctx context.Context, id uuid.UUID, delta int) error
}
