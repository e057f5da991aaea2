package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anonstay/service-booking/internal/adapter"
	"github.com/anonstay/service-booking/internal/clock"
	"github.com/anonstay/service-booking/internal/config"
	"github.com/anonstay/service-booking/internal/domain"
	"github.com/anonstay/service-booking/internal/domain/booking"
	"github.com/anonstay/service-booking/internal/domain/pricing"
	"github.com/anonstay/service-booking/internal/domain/user"
	"github.com/anonstay/service-booking/internal/events"
	"github.com/anonstay/service-booking/internal/notification"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService reconciles bookings with the payment gateway: initiation,
// verification, and refunds.
type PaymentService struct {
	bookings  booking.Repository
	users     user.Ledger
	gateway   adapter.PaymentGateway
	loyalty   *LoyaltyService
	publisher *events.Publisher
	notifier  notification.Sender
	policy    config.RefundPolicy
	callback  string
	clk       clock.Clock
	logger    *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	bookings booking.Repository,
	users user.Ledger,
	gateway adapter.PaymentGateway,
	loyalty *LoyaltyService,
	publisher *events.Publisher,
	notifier notification.Sender,
	policy config.RefundPolicy,
	callbackURL string,
	clk clock.Clock,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		bookings:  bookings,
		users:     users,
		gateway:   gateway,
		loyalty:   loyalty,
		publisher: publisher,
		notifier:  notifier,
		policy:    policy,
		callback:  callbackURL,
		clk:       clk,
		logger:    logger,
	}
}

// InitiatePayment creates a gateway charge for a pending online booking and
// returns the checkout URL. The reference is persisted before the gateway is
// called, so a crash between the two leaves a reference that verification can
// still resolve.
func (s *PaymentService) InitiatePayment(ctx context.Context, userID, bookingID uuid.UUID) (*PaymentInitDTO, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID() != userID {
		return nil, domain.NewForbiddenError("booking belongs to another user")
	}
	if b.PaymentMethod() != booking.OnlineGateway {
		return nil, domain.NewValidationError("booking is not payable online")
	}
	if b.IsPaid() {
		return nil, domain.NewConflictError("booking is already paid")
	}
	if b.Status() != booking.StatusPending {
		return nil, domain.NewInvalidStateError(string(b.Status()), string(booking.StatusConfirmed))
	}

	now := s.clk.Now()
	amountMinor := pricing.MinorUnits(b.TotalPrice())

	reference := b.PaymentReference()
	if reference == "" {
		reference = fmt.Sprintf("booking_%s_%s", b.ID(), uuid.NewString()[:8])
		if err := b.SetPaymentReference(reference, now); err != nil {
			return nil, err
		}
		b.IncrementVersion()
		if err := s.bookings.Update(ctx, b); err != nil {
			return nil, err
		}
	}

	guest, err := s.users.FindProfile(ctx, b.UserID())
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.InitializeTransaction(ctx, guest.Email, amountMinor, reference, s.callback, map[string]string{
		"bookingId": b.ID().String(),
	})
	if err != nil {
		s.logger.Error("gateway initialization failed",
			zap.String("booking_id", b.ID().String()),
			zap.String("reference", reference),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentInitiationFailed, err)
	}

	return &PaymentInitDTO{
		AuthorizationURL: result.AuthorizationURL,
		AccessCode:       result.AccessCode,
		Reference:        reference,
		AmountMinor:      amountMinor,
	}, nil
}

// VerifyPayment asks the gateway for the authoritative status of a reference
// and reconciles the booking: a successful transaction marks the booking paid,
// confirms it if still pending, and awards the loyalty point. The operation is
// idempotent; re-verifying an already-settled reference returns the same end
// state without a second award.
func (s *PaymentService) VerifyPayment(ctx context.Context, reference string) (*VerifyResultDTO, error) {
	result, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		s.logger.Error("gateway verification failed",
			zap.String("reference", reference),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentVerificationFailed, err)
	}

	b, err := s.resolveBooking(ctx, reference, result.Metadata)
	if err != nil {
		return nil, err
	}

	if result.Status != adapter.TransactionSuccess {
		s.logger.Warn("transaction not successful",
			zap.String("reference", reference),
			zap.String("status", string(result.Status)),
		)
		return nil, &domain.DomainError{
			Err: domain.ErrPaymentVerificationFailed,
			Message: fmt.Sprintf("transaction %s settled as %s, not successful",
				reference, result.Status),
		}
	}

	if expected := pricing.MinorUnits(b.TotalPrice()); result.AmountMinor != expected {
		return nil, &domain.DomainError{
			Err: domain.ErrPaymentVerificationFailed,
			Message: fmt.Sprintf("amount mismatch for reference %s: gateway settled %d, booking expects %d",
				reference, result.AmountMinor, expected),
		}
	}

	// Already reconciled: same answer, no further side effects.
	if b.IsPaid() && b.Status() != booking.StatusPending {
		return &VerifyResultDTO{
			Reference: reference,
			Status:    string(result.Status),
			Booking:   toBookingDTO(b),
		}, nil
	}

	now := s.clk.Now()

	// Late settlement: the money was captured but the booking reached a
	// terminal state first (cancelled, expired). The settlement must not
	// resurrect it; the captured amount is flagged for refund instead, and no
	// loyalty point is awarded for a stay that never happens.
	if st := b.Status(); st != booking.StatusPending && st != booking.StatusConfirmed {
		if !b.RefundInitiated() && !b.RefundFailed() {
			s.logger.Warn("successful settlement for terminal booking, flagging refund",
				zap.String("booking_id", b.ID().String()),
				zap.String("reference", reference),
				zap.String("status", string(st)),
			)
			b.RecordRefundManual(b.TotalPrice(), now)
			b.IncrementVersion()
			if err := s.bookings.Update(ctx, b); err != nil {
				return nil, err
			}
			s.publishRefund(ctx, b, now)
		}
		return &VerifyResultDTO{
			Reference: reference,
			Status:    string(result.Status),
			Booking:   toBookingDTO(b),
		}, nil
	}

	b.MarkPaid(now)
	if err := b.SetPaymentReference(result.Reference, now); err != nil {
		return nil, err
	}

	confirmed := false
	if b.Status() == booking.StatusPending {
		if err := b.Confirm(now); err != nil {
			return nil, err
		}
		confirmed = true
	}

	b.IncrementVersion()
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	if err := s.loyalty.AwardPoint(ctx, b, now); err != nil {
		s.logger.Error("loyalty award failed during verification",
			zap.String("booking_id", b.ID().String()),
			zap.Error(err),
		)
	}

	s.publisher.Publish(ctx, events.PaymentVerified, events.PaymentVerifiedEvent{
		BookingID:   b.ID(),
		UserID:      b.UserID(),
		Reference:   result.Reference,
		AmountMinor: result.AmountMinor,
		OccurredAt:  now,
	})

	if confirmed {
		s.publisher.Publish(ctx, events.BookingConfirmed, events.BookingStatusChangedEvent{
			BookingID:  b.ID(),
			UserID:     b.UserID(),
			HotelID:    b.HotelID(),
			FromStatus: string(booking.StatusPending),
			ToStatus:   string(booking.StatusConfirmed),
			OccurredAt: now,
		})
		if guest, err := s.users.FindProfile(ctx, b.UserID()); err == nil {
			s.notifier.BookingConfirmed(ctx, guest, b)
		}
	}

	return &VerifyResultDTO{
		Reference: reference,
		Status:    string(result.Status),
		Booking:   toBookingDTO(b),
	}, nil
}

// resolveBooking locates the booking for a gateway reference, falling back to
// the booking id the initiation stashed in the transaction metadata.
func (s *PaymentService) resolveBooking(ctx context.Context, reference string, metadata map[string]string) (*booking.Booking, error) {
	b, err := s.bookings.FindByPaymentReference(ctx, reference)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if raw, ok := metadata["bookingId"]; ok {
		id, parseErr := uuid.Parse(strings.TrimSpace(raw))
		if parseErr == nil {
			return s.bookings.FindByID(ctx, id)
		}
	}
	return nil, err
}

// ProcessRefund computes the tiered refund for a cancellation and initiates
// it. The booking aggregate is mutated but not persisted; the caller owns the
// write. A gateway failure is recorded on the booking and logged, never
// returned: a refund that cannot go through must not block the cancellation.
func (s *PaymentService) ProcessRefund(ctx context.Context, b *booking.Booking, cancelledByOwner bool, now time.Time) {
	if !b.IsPaid() || b.RefundInitiated() {
		return
	}

	untilCheckIn := b.CheckIn().Sub(now)
	percent := RefundPercent(s.policy, cancelledByOwner, untilCheckIn)
	amount := b.TotalPrice() * percent / 100

	if amount <= 0 {
		return
	}

	if b.PaymentMethod() == booking.PayAtHotel || b.PaymentReference() == "" {
		b.RecordRefundManual(amount, now)
		s.publishRefund(ctx, b, now)
		return
	}

	result, err := s.gateway.RefundTransaction(ctx, b.PaymentReference(), pricing.MinorUnits(amount))
	if err != nil {
		s.logger.Error("gateway refund failed, flagging for manual processing",
			zap.String("booking_id", b.ID().String()),
			zap.String("reference", b.PaymentReference()),
			zap.Float64("amount", amount),
			zap.Error(err),
		)
		b.RecordRefundFailure(err.Error(), now)
		return
	}

	b.RecordRefundInitiated(amount, result.RefundReference, booking.RefundInitiated, now)
	s.publishRefund(ctx, b, now)

	if guest, err := s.users.FindProfile(ctx, b.UserID()); err == nil {
		s.notifier.RefundProcessed(ctx, guest, b)
	}
}

func (s *PaymentService) publishRefund(ctx context.Context, b *booking.Booking, now time.Time) {
	s.publisher.Publish(ctx, events.PaymentRefundInitiated, events.RefundInitiatedEvent{
		BookingID:       b.ID(),
		UserID:          b.UserID(),
		Amount:          b.RefundAmount(),
		RefundReference: b.RefundReference(),
		RefundStatus:    string(b.RefundStatus()),
		OccurredAt:      now,
	})
}
