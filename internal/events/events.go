package events

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics.
const (
	TopicBookingEvents = "booking.events"
)

// Event type identifiers (CloudEvent "type" attribute).
const (
	BookingCreated         = "booking.created"
	BookingConfirmed       = "booking.confirmed"
	BookingCheckedIn       = "booking.checked_in"
	BookingCancelled       = "booking.cancelled"
	BookingNoShow          = "booking.no_show"
	BookingExpired         = "booking.expired"
	BookingFailed          = "booking.failed"
	PaymentVerified        = "payment.verified"
	PaymentRefundInitiated = "payment.refund_initiated"
	LoyaltyPointsAwarded   = "loyalty.points_awarded"
)

// BookingCreatedEvent is published when a pending booking has been reserved.
type BookingCreatedEvent struct {
	BookingID     uuid.UUID `json:"bookingId"`
	UserID        uuid.UUID `json:"userId"`
	HotelID       uuid.UUID `json:"hotelId"`
	RoomID        uuid.UUID `json:"roomId"`
	CheckIn       time.Time `json:"checkIn"`
	CheckOut      time.Time `json:"checkOut"`
	TotalPrice    float64   `json:"totalPrice"`
	PaymentMethod string    `json:"paymentMethod"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// BookingStatusChangedEvent carries any lifecycle transition of a booking.
type BookingStatusChangedEvent struct {
	BookingID  uuid.UUID `json:"bookingId"`
	UserID     uuid.UUID `json:"userId"`
	HotelID    uuid.UUID `json:"hotelId"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// BookingFailedEvent is published when booking creation could not complete.
type BookingFailedEvent struct {
	BookingID  uuid.UUID `json:"bookingId"`
	UserID     uuid.UUID `json:"userId"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurredAt"`
}

// PaymentVerifiedEvent is published when a gateway transaction is confirmed.
type PaymentVerifiedEvent struct {
	BookingID   uuid.UUID `json:"bookingId"`
	UserID      uuid.UUID `json:"userId"`
	Reference   string    `json:"reference"`
	AmountMinor int64     `json:"amountMinor"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// RefundInitiatedEvent is published when a refund has been requested at the
// gateway or queued for manual processing.
type RefundInitiatedEvent struct {
	BookingID       uuid.UUID `json:"bookingId"`
	UserID          uuid.UUID `json:"userId"`
	Amount          float64   `json:"amount"`
	RefundReference string    `json:"refundReference,omitempty"`
	RefundStatus    string    `json:"refundStatus"`
	OccurredAt      time.Time `json:"occurredAt"`
}

// LoyaltyPointsAwardedEvent is published when a stay earns loyalty points.
type LoyaltyPointsAwardedEvent struct {
	BookingID  uuid.UUID `json:"bookingId"`
	UserID     uuid.UUID `json:"userId"`
	Points     int       `json:"points"`
	OccurredAt time.Time `json:"occurredAt"`
}
