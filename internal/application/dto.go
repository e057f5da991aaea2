package application

import (
	"time"

	"github.com/anonstay/service-booking/internal/domain/booking"
	"github.com/google/uuid"
)

// CreateBookingRequest is the DTO for creating a new booking.
type CreateBookingRequest struct {
	RoomID            uuid.UUID `json:"room_id" binding:"required"`
	CheckIn           time.Time `json:"check_in" binding:"required"`
	CheckOut          time.Time `json:"check_out" binding:"required"`
	Persons           int       `json:"persons" binding:"required,gt=0"`
	PaymentMethod     string    `json:"payment_method" binding:"required"`
	LoyaltyPointsUsed int       `json:"loyalty_points_used"`
	DiscountPercent   float64   `json:"discount_percent"`
}

// OwnerUpdateRequest is the DTO for the owner's booking update endpoint.
// Both fields are optional; a nil field leaves that aspect untouched.
type OwnerUpdateRequest struct {
	Status *string `json:"status"`
	IsPaid *bool   `json:"is_paid"`
}

// CancelBookingRequest carries the guest's cancellation reason.
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// SearchBookingsRequest filters the owner's booking search.
type SearchBookingsRequest struct {
	Status        string `form:"status"`
	PaymentMethod string `form:"payment_method"`
	IsPaid        *bool  `form:"is_paid"`
}

// BookingDTO is the API response DTO for booking data.
type BookingDTO struct {
	ID                  uuid.UUID  `json:"id"`
	UserID              uuid.UUID  `json:"user_id"`
	HotelID             uuid.UUID  `json:"hotel_id"`
	RoomID              uuid.UUID  `json:"room_id"`
	CheckIn             time.Time  `json:"check_in"`
	CheckOut            time.Time  `json:"check_out"`
	Persons             int        `json:"persons"`
	Status              string     `json:"status"`
	TotalPrice          float64    `json:"total_price"`
	OriginalPrice       float64    `json:"original_price"`
	PaymentMethod       string     `json:"payment_method"`
	IsPaid              bool       `json:"is_paid"`
	PaymentReference    string     `json:"payment_reference,omitempty"`
	LoyaltyPointsUsed   int        `json:"loyalty_points_used"`
	DiscountApplied     float64    `json:"discount_applied"`
	LoyaltyPointAwarded bool       `json:"loyalty_point_awarded"`
	IsLocked            bool       `json:"is_locked"`
	CancelledAt         *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason  string     `json:"cancellation_reason,omitempty"`
	CheckedInAt         *time.Time `json:"checked_in_at,omitempty"`
	AutoConfirmedAt     *time.Time `json:"auto_confirmed_at,omitempty"`
	RefundInitiated     bool       `json:"refund_initiated"`
	RefundAmount        float64    `json:"refund_amount,omitempty"`
	RefundStatus        string     `json:"refund_status,omitempty"`
	Version             int64      `json:"version"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// AvailabilityDTO is the API response for an availability check.
type AvailabilityDTO struct {
	RoomID    uuid.UUID `json:"room_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Available bool      `json:"available"`
}

// PaymentInitDTO is the API response for a payment initiation.
type PaymentInitDTO struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
	AmountMinor      int64  `json:"amount_minor"`
}

// VerifyResultDTO is the API response for a payment verification.
type VerifyResultDTO struct {
	Reference string     `json:"reference"`
	Status    string     `json:"status"`
	Booking   BookingDTO `json:"booking"`
}

// SweepReport summarizes one sweeper pass.
type SweepReport struct {
	AutoConfirmed int `json:"auto_confirmed"`
	NoShows       int `json:"no_shows"`
	Locked        int `json:"locked"`
	Expired       int `json:"expired"`
}

// toBookingDTO maps a domain Booking to a BookingDTO.
func toBookingDTO(b *booking.Booking) BookingDTO {
	return BookingDTO{
		ID:                  b.ID(),
		UserID:              b.UserID(),
		HotelID:             b.HotelID(),
		RoomID:              b.RoomID(),
		CheckIn:             b.CheckIn(),
		CheckOut:            b.CheckOut(),
		Persons:             b.Persons(),
		Status:              string(b.Status()),
		TotalPrice:          b.TotalPrice(),
		OriginalPrice:       b.OriginalPrice(),
		PaymentMethod:       string(b.PaymentMethod()),
		IsPaid:              b.IsPaid(),
		PaymentReference:    b.PaymentReference(),
		LoyaltyPointsUsed:   b.LoyaltyPointsUsed(),
		DiscountApplied:     b.DiscountApplied(),
		LoyaltyPointAwarded: b.LoyaltyPointAwarded(),
		IsLocked:            b.IsLocked(),
		CancelledAt:         b.CancelledAt(),
		CancellationReason:  b.CancellationReason(),
		CheckedInAt:         b.CheckedInAt(),
		AutoConfirmedAt:     b.AutoConfirmedAt(),
		RefundInitiated:     b.RefundInitiated(),
		RefundAmount:        b.RefundAmount(),
		RefundStatus:        string(b.RefundStatus()),
		Version:             b.Version(),
		CreatedAt:           b.CreatedAt(),
		UpdatedAt:           b.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*booking.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, b := range bookings {
		dtos[i] = toBookingDTO(b)
	}
	return dtos
}
