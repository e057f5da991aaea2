package application

import (
	"time"

	"github.com/anonstay/service-booking/internal/config"
)

// RefundPercent returns the refund percentage a cancellation earns given who
// cancels and how far before check-in the cancellation lands. Owners get a
// third tier; guests below their full-refund threshold all land on the
// partial percentage (the guest cutoff itself is enforced before this runs).
func RefundPercent(policy config.RefundPolicy, cancelledByOwner bool, untilCheckIn time.Duration) float64 {
	if cancelledByOwner {
		switch {
		case untilCheckIn > policy.OwnerFullThreshold:
			return policy.OwnerFullPercent
		case untilCheckIn > policy.OwnerPartialThreshold:
			return policy.OwnerPartialPercent
		default:
			return policy.OwnerBasePercent
		}
	}

	if untilCheckIn > policy.GuestFullThreshold {
		return policy.GuestFullPercent
	}
	return policy.GuestPartialPercent
}
