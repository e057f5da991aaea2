package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SearchFilter narrows owner-side booking listings.
type SearchFilter struct {
	Status        Status
	PaymentMethod PaymentMethod
	IsPaid        *bool
}

// Repository defines the persistence contract for Booking aggregates.
type Repository interface {
	// FindByID retrieves a booking by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByPaymentReference retrieves a booking by its gateway correlation key.
	FindByPaymentReference(ctx context.Context, reference string) (*Booking, error)

	// CountOverlapping counts non-cancelled bookings for the room whose
	// [checkIn, checkOut) interval overlaps the given half-open interval.
	CountOverlapping(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (int64, error)

	// Reserve atomically re-checks availability and inserts the pending
	// booking under a per-room lock. Returns ErrRoomUnavailable when another
	// booking holds an overlapping interval.
	Reserve(ctx context.Context, b *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, b *Booking) error

	// TryMarkLoyaltyAwarded flips loyalty_point_awarded from false to true in a
	// single conditional statement. It reports whether this call won the flip;
	// only the winner may increment the user's point balance.
	TryMarkLoyaltyAwarded(ctx context.Context, id uuid.UUID) (bool, error)

	// RevertLoyaltyAwarded flips the flag back after a won flip whose point
	// credit failed, so a later award path can retry.
	RevertLoyaltyAwarded(ctx context.Context, id uuid.UUID) error

	// ListByUser returns a user's bookings, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Booking, error)

	// ListByHotels returns bookings across the given hotels, filtered, newest first.
	ListByHotels(ctx context.Context, hotelIDs []uuid.UUID, filter SearchFilter) ([]*Booking, error)

	// FindDueAutoConfirm returns paid pending bookings whose check-in falls
	// within the calendar day of now.
	FindDueAutoConfirm(ctx context.Context, now time.Time) ([]*Booking, error)

	// FindDueNoShow returns confirmed, paid, never-checked-in bookings whose
	// check-in is before the given cutoff.
	FindDueNoShow(ctx context.Context, before time.Time) ([]*Booking, error)

	// FindDueLock returns confirmed or checked-in bookings past the lock cutoff
	// that are not yet locked.
	FindDueLock(ctx context.Context, before time.Time) ([]*Booking, error)

	// FindDueExpire returns unpaid pending bookings whose check-in has passed.
	FindDueExpire(ctx context.Context, now time.Time) ([]*Booking, error)
}
