package application

import (
	"context"
	"time"

	"github.com/anonstay/service-booking/internal/domain/booking"
	"github.com/anonstay/service-booking/internal/domain/user"
	"github.com/anonstay/service-booking/internal/events"
	"go.uber.org/zap"
)

// LoyaltyService owns the award-once routine shared by every path that can
// confirm a booking: payment verification, owner confirmation, check-in, and
// the auto-confirm sweep.
type LoyaltyService struct {
	bookings  booking.Repository
	users     user.Ledger
	publisher *events.Publisher
	logger    *zap.Logger
}

// NewLoyaltyService creates a new LoyaltyService.
func NewLoyaltyService(
	bookings booking.Repository,
	users user.Ledger,
	publisher *events.Publisher,
	logger *zap.Logger,
) *LoyaltyService {
	return &LoyaltyService{
		bookings:  bookings,
		users:     users,
		publisher: publisher,
		logger:    logger,
	}
}

// AwardPoint credits one loyalty point for the booking's stay, at most once
// per booking. The conditional flag update is the arbiter: whichever caller
// wins the flip performs the increment, every other caller is a no-op. Safe
// to call redundantly from any award path, including concurrently.
func (s *LoyaltyService) AwardPoint(ctx context.Context, b *booking.Booking, now time.Time) error {
	if b.LoyaltyPointAwarded() {
		return nil
	}

	won, err := s.bookings.TryMarkLoyaltyAwarded(ctx, b.ID())
	if err != nil {
		return err
	}
	if !won {
		b.MarkLoyaltyAwarded(now)
		return nil
	}

	if err := s.users.AddLoyaltyPoints(ctx, b.UserID(), 1); err != nil {
		s.logger.Error("loyalty point increment failed after flag flip",
			zap.String("booking_id", b.ID().String()),
			zap.String("user_id", b.UserID().String()),
			zap.Error(err),
		)
		// Give the flip back so a later award path retries the credit.
		if revertErr := s.bookings.RevertLoyaltyAwarded(ctx, b.ID()); revertErr != nil {
			s.logger.Error("award flag left set after failed credit",
				zap.String("booking_id", b.ID().String()),
				zap.Error(revertErr),
			)
		}
		return err
	}

	b.MarkLoyaltyAwarded(now)

	s.publisher.Publish(ctx, events.LoyaltyPointsAwarded, events.LoyaltyPointsAwardedEvent{
		BookingID:  b.ID(),
		UserID:     b.UserID(),
		Points:     1,
		OccurredAt: now,
	})
	return nil
}
