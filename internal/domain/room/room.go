package room

import (
	"time"

	"github.com/google/uuid"
)

// Discount is an optional time-bounded price reduction on a room. Nil start or
// end dates leave that side of the window unbounded.
type Discount struct {
	HasDiscount     bool
	Percentage      float64 // 0-90
	DiscountedPrice float64
	StartDate       *time.Time
	EndDate         *time.Time
}

// ActiveAt reports whether the discount window covers the given instant.
// The window is evaluated at booking time, not at check-in.
func (d Discount) ActiveAt(now time.Time) bool {
	if !d.HasDiscount {
		return false
	}
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return false
	}
	return true
}

// Snapshot is the read-only view of a room the booking core needs: identity,
// ownership, and everything pricing depends on. The catalog service owns the
// full room record.
type Snapshot struct {
	ID            uuid.UUID
	HotelID       uuid.UUID
	OwnerID       uuid.UUID
	PricePerNight float64
	Discount      Discount
}

// EffectiveNightlyRate returns the discounted price while the discount window
// is active, and the base nightly price otherwise.
func (s Snapshot) EffectiveNightlyRate(now time.Time) float64 {
	if s.Discount.ActiveAt(now) {
		return s.Discount.DiscountedPrice
	}
	return s.PricePerNight
}
