// Package pricing computes booking totals. Everything here is pure: given a
// room snapshot, the requested stay, and a fixed "now", the same quote always
// comes out, with no I/O and no side effects.
package pricing

import (
	"math"
	"time"

	"github.com/anonstay/service-booking/internal/domain"
	"github.com/anonstay/service-booking/internal/domain/room"
)

// discountTolerance is the maximum difference allowed between a client-supplied
// discount percentage and the server-derived one.
const discountTolerance = 0.01

// LoyaltyPolicy carries the configurable redemption rules.
type LoyaltyPolicy struct {
	MinRedemption      int     // minimum points per redemption
	PercentPerPoint    float64 // discount percent granted per point
	MaxDiscountPercent float64 // cap on the loyalty discount
}

// Redemption is an optional loyalty redemption attached to a booking request.
// SubmittedPercent is what the client claims the discount is; it is re-derived
// server-side and never trusted.
type Redemption struct {
	PointsUsed       int
	SubmittedPercent float64
	AvailablePoints  int
}

// Quote is the result of pricing a stay.
type Quote struct {
	Nights            int
	EffectiveNightly  float64
	OriginalPrice     float64
	TotalPrice        float64
	DiscountPercent   float64
	LoyaltyPointsUsed int
}

// Engine prices stays under a loyalty policy.
type Engine struct {
	policy LoyaltyPolicy
}

// NewEngine creates a pricing engine.
func NewEngine(policy LoyaltyPolicy) *Engine {
	return &Engine{policy: policy}
}

// Nights returns the stay length in whole nights, rounding partial days up.
func Nights(checkIn, checkOut time.Time) int {
	return int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))
}

// PriceStay computes the quote for a stay. The room discount is evaluated
// against now (booking time), and the loyalty discount is applied on top of the
// already-discounted room rate.
func (e *Engine) PriceStay(snap room.Snapshot, checkIn, checkOut time.Time, persons int, redemption *Redemption, now time.Time) (Quote, error) {
	if !checkOut.After(checkIn) {
		return Quote{}, domain.ErrInvalidDateRange
	}
	if persons <= 0 {
		return Quote{}, domain.ErrInvalidPersons
	}

	nights := Nights(checkIn, checkOut)
	if nights < 1 {
		return Quote{}, domain.ErrInvalidDateRange
	}

	nightly := snap.EffectiveNightlyRate(now)
	original := nightly * float64(nights) * float64(persons)

	q := Quote{
		Nights:           nights,
		EffectiveNightly: nightly,
		OriginalPrice:    original,
		TotalPrice:       original,
	}

	if redemption == nil || redemption.PointsUsed == 0 {
		return q, nil
	}

	percent, err := e.redemptionPercent(*redemption)
	if err != nil {
		return Quote{}, err
	}

	q.DiscountPercent = percent
	q.LoyaltyPointsUsed = redemption.PointsUsed
	q.TotalPrice = original * (1 - percent/100)
	return q, nil
}

// redemptionPercent validates a redemption and derives the discount percentage
// server-side. A submitted percentage off by more than the tolerance is
// rejected outright.
func (e *Engine) redemptionPercent(r Redemption) (float64, error) {
	if r.PointsUsed < e.policy.MinRedemption {
		return 0, domain.ErrBelowMinimumRedemption
	}
	if r.PointsUsed > r.AvailablePoints {
		return 0, domain.ErrInsufficientLoyaltyPoints
	}

	percent := math.Min(float64(r.PointsUsed)*e.policy.PercentPerPoint, e.policy.MaxDiscountPercent)
	if r.SubmittedPercent != 0 && math.Abs(r.SubmittedPercent-percent) > discountTolerance {
		return 0, domain.ErrDiscountMismatch
	}
	return percent, nil
}

// MinorUnits converts a major-unit amount to the gateway's integer minor units
// (kobo). Rounding is deterministic half-away-from-zero, never truncation.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
