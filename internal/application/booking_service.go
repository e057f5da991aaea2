package application

import (
	"context"
	"fmt"
	"time"

	"github.com/anonstay/service-booking/internal/clock"
	"github.com/anonstay/service-booking/internal/config"
	"github.com/anonstay/service-booking/internal/domain"
	"github.com/anonstay/service-booking/internal/domain/booking"
	"github.com/anonstay/service-booking/internal/domain/pricing"
	"github.com/anonstay/service-booking/internal/domain/room"
	"github.com/anonstay/service-booking/internal/domain/user"
	"github.com/anonstay/service-booking/internal/events"
	"github.com/anonstay/service-booking/internal/notification"
	"github.com/anonstay/service-booking/internal/saga"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingService is the application service that orchestrates the booking
// lifecycle: availability, creation, cancellation, owner actions, and queries.
type BookingService struct {
	bookings  booking.Repository
	rooms     room.Catalog
	users     user.Ledger
	pricer    *pricing.Engine
	sagaSvc   *saga.BookingSagaService
	payments  *PaymentService
	loyalty   *LoyaltyService
	publisher *events.Publisher
	notifier  notification.Sender
	policy    config.RefundPolicy
	clk       clock.Clock
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings booking.Repository,
	rooms room.Catalog,
	users user.Ledger,
	pricer *pricing.Engine,
	sagaSvc *saga.BookingSagaService,
	payments *PaymentService,
	loyalty *LoyaltyService,
	publisher *events.Publisher,
	notifier notification.Sender,
	policy config.RefundPolicy,
	clk clock.Clock,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:  bookings,
		rooms:     rooms,
		users:     users,
		pricer:    pricer,
		sagaSvc:   sagaSvc,
		payments:  payments,
		loyalty:   loyalty,
		publisher: publisher,
		notifier:  notifier,
		policy:    policy,
		clk:       clk,
		logger:    logger,
	}
}

// CheckAvailability reports whether the room is free for the half-open
// [checkIn, checkOut) interval. A storage failure is an error, never a
// "room is free" answer.
func (s *BookingService) CheckAvailability(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (bool, error) {
	if !checkOut.After(checkIn) {
		return false, domain.ErrInvalidDateRange
	}

	cnt, err := s.bookings.CountOverlapping(ctx, roomID, checkIn, checkOut)
	if err != nil {
		s.logger.Error("availability query failed",
			zap.String("room_id", roomID.String()),
			zap.Error(err),
		)
		return false, fmt.Errorf("%w: %v", domain.ErrAvailabilityCheckFailed, err)
	}
	return cnt == 0, nil
}

// CreateBooking prices the stay, validates any loyalty redemption, and
// reserves the room atomically through the booking saga.
func (s *BookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	method := booking.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		return nil, domain.NewValidationError("unknown payment method: " + req.PaymentMethod)
	}

	snap, err := s.rooms.FindSnapshot(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()

	var redemption *pricing.Redemption
	if req.LoyaltyPointsUsed > 0 {
		profile, err := s.users.FindProfile(ctx, userID)
		if err != nil {
			return nil, err
		}
		redemption = &pricing.Redemption{
			PointsUsed:       req.LoyaltyPointsUsed,
			SubmittedPercent: req.DiscountPercent,
			AvailablePoints:  profile.LoyaltyPoints,
		}
	}

	quote, err := s.pricer.PriceStay(*snap, req.CheckIn, req.CheckOut, req.Persons, redemption, now)
	if err != nil {
		return nil, err
	}

	b := booking.NewBooking(
		userID, snap.HotelID, snap.ID,
		req.CheckIn, req.CheckOut,
		req.Persons,
		method,
		quote.TotalPrice, quote.OriginalPrice,
		quote.LoyaltyPointsUsed,
		quote.DiscountPercent,
		now,
	)

	if err := s.sagaSvc.CreateBookingSaga(ctx, b, now); err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", b.ID().String()),
		zap.String("room_id", snap.ID.String()),
		zap.Float64("total_price", quote.TotalPrice),
		zap.Int("loyalty_points_used", quote.LoyaltyPointsUsed),
	)

	dto := toBookingDTO(b)
	return &dto, nil
}

// GetUserBooking returns one of the guest's own bookings.
func (s *BookingService) GetUserBooking(ctx context.Context, userID, bookingID uuid.UUID) (*BookingDTO, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID() != userID {
		return nil, domain.NewForbiddenError("booking belongs to another user")
	}
	dto := toBookingDTO(b)
	return &dto, nil
}

// GetUserBookings returns all bookings of the guest, newest first.
func (s *BookingService) GetUserBookings(ctx context.Context, userID uuid.UUID) ([]BookingDTO, error) {
	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toBookingDTOs(bookings), nil
}

// GetHotelBookings returns all bookings across the owner's hotels.
func (s *BookingService) GetHotelBookings(ctx context.Context, ownerID uuid.UUID) ([]BookingDTO, error) {
	return s.SearchHotelBookings(ctx, ownerID, SearchBookingsRequest{})
}

// SearchHotelBookings returns the owner's bookings filtered by status,
// payment method and/or paid flag.
func (s *BookingService) SearchHotelBookings(ctx context.Context, ownerID uuid.UUID, req SearchBookingsRequest) ([]BookingDTO, error) {
	filter := booking.SearchFilter{IsPaid: req.IsPaid}
	if req.Status != "" {
		st := booking.Status(req.Status)
		if !st.IsValid() {
			return nil, domain.NewValidationError("unknown status: " + req.Status)
		}
		filter.Status = st
	}
	if req.PaymentMethod != "" {
		m := booking.PaymentMethod(req.PaymentMethod)
		if !m.IsValid() {
			return nil, domain.NewValidationError("unknown payment method: " + req.PaymentMethod)
		}
		filter.PaymentMethod = m
	}

	hotelIDs, err := s.rooms.HotelIDsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(hotelIDs) == 0 {
		return []BookingDTO{}, nil
	}

	bookings, err := s.bookings.ListByHotels(ctx, hotelIDs, filter)
	if err != nil {
		return nil, err
	}
	return toBookingDTOs(bookings), nil
}

// CancelAsGuest cancels the guest's own booking, subject to the cancellation
// cutoff. Redeemed loyalty points return to the guest and a tiered refund is
// initiated; a refund that fails is flagged for manual processing but the
// cancellation stands.
func (s *BookingService) CancelAsGuest(ctx context.Context, userID, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID() != userID {
		return nil, domain.NewForbiddenError("booking belongs to another user")
	}

	now := s.clk.Now()
	if b.CheckIn().Sub(now) <= s.policy.GuestCancellationCutoff {
		return nil, &domain.DomainError{
			Err:     domain.ErrCancellationWindowClosed,
			Message: fmt.Sprintf("bookings cannot be cancelled within %s of check-in", s.policy.GuestCancellationCutoff),
		}
	}

	return s.cancel(ctx, b, reason, false, now)
}

// cancel runs the shared cancellation flow for guest and owner paths.
func (s *BookingService) cancel(ctx context.Context, b *booking.Booking, reason string, byOwner bool, now time.Time) (*BookingDTO, error) {
	fromStatus := b.Status()

	if err := b.Cancel(reason, now); err != nil {
		return nil, err
	}

	// Commit the cancellation before any money moves. When a concurrent sweep
	// already advanced the booking (no-show, expiry), the version check fails
	// here and no refund is ever issued for it.
	b.IncrementVersion()
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	if b.LoyaltyPointsUsed() > 0 {
		if err := s.users.AddLoyaltyPoints(ctx, b.UserID(), b.LoyaltyPointsUsed()); err != nil {
			s.logger.Error("loyalty point restoration failed",
				zap.String("booking_id", b.ID().String()),
				zap.Int("points", b.LoyaltyPointsUsed()),
				zap.Error(err),
			)
		}
	}

	s.payments.ProcessRefund(ctx, b, byOwner, now)

	if b.RefundInitiated() || b.RefundFailed() {
		b.IncrementVersion()
		if err := s.bookings.Update(ctx, b); err != nil {
			s.logger.Error("failed to persist refund outcome",
				zap.String("booking_id", b.ID().String()),
				zap.Error(err),
			)
		}
	}

	s.publisher.Publish(ctx, events.BookingCancelled, events.BookingStatusChangedEvent{
		BookingID:  b.ID(),
		UserID:     b.UserID(),
		HotelID:    b.HotelID(),
		FromStatus: string(fromStatus),
		ToStatus:   string(booking.StatusCancelled),
		Reason:     reason,
		OccurredAt: now,
	})

	if guest, err := s.users.FindProfile(ctx, b.UserID()); err == nil {
		s.notifier.BookingCancelled(ctx, guest, b)
	}

	dto := toBookingDTO(b)
	return &dto, nil
}

// OwnerUpdateStatus applies the owner's update to a booking of one of their
// hotels: a status transition, a manual paid toggle, or both. Marking a
// pay-at-hotel booking paid on an already-confirmed booking completes the
// confirmed+paid pair and awards the loyalty point.
func (s *BookingService) OwnerUpdateStatus(ctx context.Context, ownerID, bookingID uuid.UUID, req OwnerUpdateRequest) (*BookingDTO, error) {
	b, err := s.ownedBooking(ctx, ownerID, bookingID)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	fromStatus := b.Status()

	if req.IsPaid != nil && *req.IsPaid {
		b.MarkPaid(now)
	}

	if req.Status != nil {
		target := booking.Status(*req.Status)
		if !target.IsValid() {
			return nil, domain.NewValidationError("unknown status: " + *req.Status)
		}

		switch target {
		case booking.StatusConfirmed:
			if err := b.Confirm(now); err != nil {
				return nil, err
			}
		case booking.StatusCheckedIn:
			if err := b.CheckInGuest(now); err != nil {
				return nil, err
			}
		case booking.StatusCancelled:
			return s.cancel(ctx, b, "cancelled by hotel owner", true, now)
		case booking.StatusNoShow:
			if err := b.MarkNoShow(now); err != nil {
				return nil, err
			}
		default:
			return nil, domain.NewValidationError("status " + *req.Status + " cannot be set directly")
		}
	}

	b.IncrementVersion()
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	if b.IsPaid() && (b.Status() == booking.StatusConfirmed || b.Status() == booking.StatusCheckedIn) {
		if err := s.loyalty.AwardPoint(ctx, b, now); err != nil {
			s.logger.Error("loyalty award failed during owner update",
				zap.String("booking_id", b.ID().String()),
				zap.Error(err),
			)
		}
	}

	if b.Status() != fromStatus {
		s.publishStatusChange(ctx, b, fromStatus, now)
	}

	dto := toBookingDTO(b)
	return &dto, nil
}

// ConfirmCheckIn records the guest's arrival. A paid booking still pending
// (e.g. pay-at-hotel marked paid moments earlier) is confirmed first, then
// checked in; an unpaid booking is rejected.
func (s *BookingService) ConfirmCheckIn(ctx context.Context, ownerID, bookingID uuid.UUID) (*BookingDTO, error) {
	b, err := s.ownedBooking(ctx, ownerID, bookingID)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	fromStatus := b.Status()

	if b.Status() == booking.StatusPending {
		if !b.IsPaid() {
			return nil, &domain.DomainError{
				Err:     domain.ErrPaymentRequired,
				Message: "booking must be paid before check-in",
			}
		}
		if err := b.Confirm(now); err != nil {
			return nil, err
		}
	}

	if err := b.CheckInGuest(now); err != nil {
		return nil, err
	}

	b.IncrementVersion()
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	if err := s.loyalty.AwardPoint(ctx, b, now); err != nil {
		s.logger.Error("loyalty award failed during check-in",
			zap.String("booking_id", b.ID().String()),
			zap.Error(err),
		)
	}

	s.publishStatusChange(ctx, b, fromStatus, now)

	dto := toBookingDTO(b)
	return &dto, nil
}

// ownedBooking loads a booking and verifies it belongs to one of the owner's hotels.
func (s *BookingService) ownedBooking(ctx context.Context, ownerID, bookingID uuid.UUID) (*booking.Booking, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	hotelIDs, err := s.rooms.HotelIDsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, id := range hotelIDs {
		if id == b.HotelID() {
			return b, nil
		}
	}
	return nil, domain.NewForbiddenError("booking belongs to another owner's hotel")
}

func (s *BookingService) publishStatusChange(ctx context.Context, b *booking.Booking, from booking.Status, now time.Time) {
	var eventType string
	switch b.Status() {
	case booking.StatusConfirmed:
		eventType = events.BookingConfirmed
	case booking.StatusCheckedIn:
		eventType = events.BookingCheckedIn
	case booking.StatusCancelled:
		eventType = events.BookingCancelled
	case booking.StatusNoShow:
		eventType = events.BookingNoShow
	case booking.StatusExpired:
		eventType = events.BookingExpired
	default:
		return
	}

	s.publisher.Publish(ctx, eventType, events.BookingStatusChangedEvent{
		BookingID:  b.ID(),
		UserID:     b.UserID(),
		HotelID:    b.HotelID(),
		FromStatus: string(from),
		ToStatus:   string(b.Status()),
		OccurredAt: now,
	})
}
