package booking

import (
	"time"

	"github.com/anonstay/service-booking/internal/domain"
	"github.com/google/uuid"
)

// Booking is the aggregate root for the reservation lifecycle. The status field
// is mutated only through the transition methods below; identity, dates, party
// size and pricing are fixed at creation.
type Booking struct {
	id            uuid.UUID
	userID        uuid.UUID
	hotelID       uuid.UUID
	roomID        uuid.UUID
	checkIn       time.Time
	checkOut      time.Time
	persons       int
	status        Status
	totalPrice    float64
	originalPrice float64
	paymentMethod PaymentMethod

	isPaid           bool
	paymentReference string

	loyaltyPointsUsed   int
	discountApplied     float64
	loyaltyPointAwarded bool

	isLocked bool
	lockedAt *time.Time

	cancelledAt        *time.Time
	cancellationReason string
	checkedInAt        *time.Time
	noShowMarkedAt     *time.Time
	expiredAt          *time.Time
	autoConfirmedAt    *time.Time

	refundInitiated  bool
	refundAmount     float64
	refundReference  string
	refundDate       *time.Time
	refundStatus     RefundStatus
	refundFailed     bool
	refundFailReason string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a pending booking from a priced request.
// The caller is responsible for having validated dates and pricing beforehand.
func NewBooking(
	userID, hotelID, roomID uuid.UUID,
	checkIn, checkOut time.Time,
	persons int,
	method PaymentMethod,
	totalPrice, originalPrice float64,
	loyaltyPointsUsed int,
	discountApplied float64,
	now time.Time,
) *Booking {
	return &Booking{
		id:                uuid.New(),
		userID:            userID,
		hotelID:           hotelID,
		roomID:            roomID,
		checkIn:           checkIn,
		checkOut:          checkOut,
		persons:           persons,
		status:            StatusPending,
		totalPrice:        totalPrice,
		originalPrice:     originalPrice,
		paymentMethod:     method,
		loyaltyPointsUsed: loyaltyPointsUsed,
		discountApplied:   discountApplied,
		version:           1,
		createdAt:         now,
		updatedAt:         now,
	}
}

// --- Getters ---

func (b *Booking) ID() uuid.UUID                { return b.id }
func (b *Booking) UserID() uuid.UUID            { return b.userID }
func (b *Booking) HotelID() uuid.UUID           { return b.hotelID }
func (b *Booking) RoomID() uuid.UUID            { return b.roomID }
func (b *Booking) CheckIn() time.Time           { return b.checkIn }
func (b *Booking) CheckOut() time.Time          { return b.checkOut }
func (b *Booking) Persons() int                 { return b.persons }
func (b *Booking) Status() Status               { return b.status }
func (b *Booking) TotalPrice() float64          { return b.totalPrice }
func (b *Booking) OriginalPrice() float64       { return b.originalPrice }
func (b *Booking) PaymentMethod() PaymentMethod { return b.paymentMethod }
func (b *Booking) IsPaid() bool                 { return b.isPaid }
func (b *Booking) PaymentReference() string     { return b.paymentReference }
func (b *Booking) LoyaltyPointsUsed() int       { return b.loyaltyPointsUsed }
func (b *Booking) DiscountApplied() float64     { return b.discountApplied }
func (b *Booking) LoyaltyPointAwarded() bool    { return b.loyaltyPointAwarded }
func (b *Booking) IsLocked() bool               { return b.isLocked }
func (b *Booking) LockedAt() *time.Time         { return b.lockedAt }
func (b *Booking) CancelledAt() *time.Time      { return b.cancelledAt }
func (b *Booking) CancellationReason() string   { return b.cancellationReason }
func (b *Booking) CheckedInAt() *time.Time      { return b.checkedInAt }
func (b *Booking) NoShowMarkedAt() *time.Time   { return b.noShowMarkedAt }
func (b *Booking) ExpiredAt() *time.Time        { return b.expiredAt }
func (b *Booking) AutoConfirmedAt() *time.Time  { return b.autoConfirmedAt }
func (b *Booking) RefundInitiated() bool        { return b.refundInitiated }
func (b *Booking) RefundAmount() float64        { return b.refundAmount }
func (b *Booking) RefundReference() string      { return b.refundReference }
func (b *Booking) RefundDate() *time.Time       { return b.refundDate }
func (b *Booking) RefundStatus() RefundStatus   { return b.refundStatus }
func (b *Booking) RefundFailed() bool           { return b.refundFailed }
func (b *Booking) RefundFailReason() string     { return b.refundFailReason }
func (b *Booking) Version() int64               { return b.version }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }

// --- Behavior / State Transitions ---

func (b *Booking) guardTransition(target Status) error {
	if b.isLocked {
		return &domain.DomainError{Err: domain.ErrBookingLocked, Message: "booking " + b.id.String() + " is locked"}
	}
	if !b.status.CanTransitionTo(target) {
		return domain.NewInvalidStateError(string(b.status), string(target))
	}
	return nil
}

// Confirm transitions pending to confirmed. The loyalty award that accompanies
// confirmation is persisted separately through a conditional update; this method
// only mutates status.
func (b *Booking) Confirm(now time.Time) error {
	if err := b.guardTransition(StatusConfirmed); err != nil {
		return err
	}
	b.status = StatusConfirmed
	b.updatedAt = now
	return nil
}

// AutoConfirm is Confirm driven by the sweeper; it additionally stamps autoConfirmedAt.
func (b *Booking) AutoConfirm(now time.Time) error {
	if err := b.Confirm(now); err != nil {
		return err
	}
	b.autoConfirmedAt = &now
	return nil
}

// MarkPaid sets isPaid. The flag is monotonic: marking an already-paid booking
// is a no-op, never an error, so verification retries stay idempotent.
func (b *Booking) MarkPaid(now time.Time) {
	if b.isPaid {
		return
	}
	b.isPaid = true
	b.updatedAt = now
}

// SetPaymentReference records the gateway correlation key. It is written once,
// before any gateway response is trusted.
func (b *Booking) SetPaymentReference(ref string, now time.Time) error {
	if b.paymentReference != "" && b.paymentReference != ref {
		return domain.NewConflictError("payment reference already set for booking " + b.id.String())
	}
	b.paymentReference = ref
	b.updatedAt = now
	return nil
}

// CheckInGuest transitions confirmed to checked-in. Payment must be present.
func (b *Booking) CheckInGuest(now time.Time) error {
	if !b.isPaid {
		return &domain.DomainError{Err: domain.ErrPaymentRequired, Message: "booking must be paid before check-in"}
	}
	if err := b.guardTransition(StatusCheckedIn); err != nil {
		return err
	}
	b.status = StatusCheckedIn
	b.checkedInAt = &now
	b.updatedAt = now
	return nil
}

// Cancel transitions pending or confirmed to cancelled. Refund bookkeeping is
// recorded afterwards via RecordRefund*; cancellation never depends on it.
func (b *Booking) Cancel(reason string, now time.Time) error {
	if err := b.guardTransition(StatusCancelled); err != nil {
		return err
	}
	b.status = StatusCancelled
	b.cancelledAt = &now
	b.cancellationReason = reason
	b.updatedAt = now
	return nil
}

// MarkNoShow transitions confirmed to no-show and locks the booking.
func (b *Booking) MarkNoShow(now time.Time) error {
	if err := b.guardTransition(StatusNoShow); err != nil {
		return err
	}
	b.status = StatusNoShow
	b.noShowMarkedAt = &now
	b.lock(now)
	return nil
}

// Expire transitions an unpaid pending booking to expired and locks it.
func (b *Booking) Expire(now time.Time) error {
	if b.isPaid {
		return domain.NewConflictError("paid booking cannot expire")
	}
	if err := b.guardTransition(StatusExpired); err != nil {
		return err
	}
	b.status = StatusExpired
	b.expiredAt = &now
	b.lock(now)
	return nil
}

// Lock freezes the booking against any further status-changing action.
// Locking an already-locked booking is a no-op; the flag is never unset.
func (b *Booking) Lock(now time.Time) {
	b.lock(now)
}

func (b *Booking) lock(now time.Time) {
	if b.isLocked {
		return
	}
	b.isLocked = true
	b.lockedAt = &now
	b.updatedAt = now
}

// MarkLoyaltyAwarded flips the award-once guard. It reports whether this call
// performed the flip; callers must only increment the user's balance when true.
func (b *Booking) MarkLoyaltyAwarded(now time.Time) bool {
	if b.loyaltyPointAwarded {
		return false
	}
	b.loyaltyPointAwarded = true
	b.updatedAt = now
	return true
}

// RecordRefundInitiated stores the outcome of a successful gateway refund call.
func (b *Booking) RecordRefundInitiated(amount float64, reference string, status RefundStatus, now time.Time) {
	b.refundInitiated = true
	b.refundAmount = amount
	b.refundReference = reference
	b.refundStatus = status
	b.refundDate = &now
	b.updatedAt = now
}

// RecordRefundManual marks a refund that must be settled outside the gateway
// (pay-at-hotel bookings, where no money was captured online).
func (b *Booking) RecordRefundManual(amount float64, now time.Time) {
	b.refundInitiated = true
	b.refundAmount = amount
	b.refundStatus = RefundManualRequired
	b.refundDate = &now
	b.updatedAt = now
}

// RecordRefundFailure marks a failed gateway refund for operator follow-up.
// The cancellation that triggered it stands regardless.
func (b *Booking) RecordRefundFailure(reason string, now time.Time) {
	b.refundFailed = true
	b.refundFailReason = reason
	b.refundStatus = RefundManualRequired
	b.updatedAt = now
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
}

// Reconstitute rebuilds a Booking from persisted data.
func Reconstitute(
	id, userID, hotelID, roomID uuid.UUID,
	checkIn, checkOut time.Time,
	persons int,
	status Status,
	totalPrice, originalPrice float64,
	method PaymentMethod,
	isPaid bool,
	paymentReference string,
	loyaltyPointsUsed int,
	discountApplied float64,
	loyaltyPointAwarded bool,
	isLocked bool,
	lockedAt *time.Time,
	cancelledAt *time.Time,
	cancellationReason string,
	checkedInAt, noShowMarkedAt, expiredAt, autoConfirmedAt *time.Time,
	refundInitiated bool,
	refundAmount float64,
	refundReference string,
	refundDate *time.Time,
	refundStatus RefundStatus,
	refundFailed bool,
	refundFailReason string,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                  id,
		userID:              userID,
		hotelID:             hotelID,
		roomID:              roomID,
		checkIn:             checkIn,
		checkOut:            checkOut,
		persons:             persons,
		status:              status,
		totalPrice:          totalPrice,
		originalPrice:       originalPrice,
		paymentMethod:       method,
		isPaid:              isPaid,
		paymentReference:    paymentReference,
		loyaltyPointsUsed:   loyaltyPointsUsed,
		discountApplied:     discountApplied,
		loyaltyPointAwarded: loyaltyPointAwarded,
		isLocked:            isLocked,
		lockedAt:            lockedAt,
		cancelledAt:         cancelledAt,
		cancellationReason:  cancellationReason,
		checkedInAt:         checkedInAt,
		noShowMarkedAt:      noShowMarkedAt,
		expiredAt:           expiredAt,
		autoConfirmedAt:     autoConfirmedAt,
		refundInitiated:     refundInitiated,
		refundAmount:        refundAmount,
		refundReference:     refundReference,
		refundDate:          refundDate,
		refundStatus:        refundStatus,
		refundFailed:        refundFailed,
		refundFailReason:    refundFailReason,
		version:             version,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
	}
}
