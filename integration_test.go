//go:build integration

package main_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/anonstay/service-booking/internal/application"
	"github.com/anonstay/service-booking/internal/clock"
	"github.com/anonstay/service-booking/internal/domain"
	"github.com/anonstay/service-booking/internal/domain/booking"
	"github.com/anonstay/service-booking/internal/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentReserve_OneWins fires two identical booking requests at the
// same room and dates and expects exactly one to win the reservation.
func TestConcurrentReserve_OneWins(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers, clock.NewSystem())
	defer stack.CleanupProducer()

	ownerID := uuid.New()
	_, roomID := seedHotelRoom(t, infra.DB, ownerID, 10000)
	guestA := seedGuest(t, infra.DB, 0)
	guestB := seedGuest(t, infra.DB, 0)

	checkIn := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Hour)
	req := application.CreateBookingRequest{
		RoomID:        roomID,
		CheckIn:       checkIn,
		CheckOut:      checkIn.Add(48 * time.Hour),
		Persons:       2,
		PaymentMethod: string(booking.OnlineGateway),
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, guest := range []uuid.UUID{guestA, guestB} {
		wg.Add(1)
		go func(i int, guest uuid.UUID) {
			defer wg.Done()
			_, results[i] = stack.Bookings.CreateBooking(context.Background(), guest, req)
		}(i, guest)
	}
	wg.Wait()

	var wins, unavailable int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case assert.ErrorIs(t, err, domain.ErrRoomUnavailable):
			unavailable++
		}
	}
	assert.Equal(t, 1, wins, "exactly one request should win the room")
	assert.Equal(t, 1, unavailable, "the loser should see room-unavailable")

	// Back-to-back stay starting on the losing checkout date is legal.
	followOn := req
	followOn.CheckIn = req.CheckOut
	followOn.CheckOut = req.CheckOut.Add(24 * time.Hour)
	_, err := stack.Bookings.CreateBooking(context.Background(), guestB, followOn)
	assert.NoError(t, err, "half-open ranges must allow back-to-back bookings")
}

// TestVerifyPayment_IdempotentAward runs the initiate/verify flow twice and
// expects one confirmation, one paid flag, and exactly one loyalty point.
func TestVerifyPayment_IdempotentAward(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers, clock.NewSystem())
	defer stack.CleanupProducer()

	ownerID := uuid.New()
	_, roomID := seedHotelRoom(t, infra.DB, ownerID, 10000)
	guestID := seedGuest(t, infra.DB, 0)

	checkIn := time.Now().UTC().Add(96 * time.Hour).Truncate(time.Hour)
	dto, err := stack.Bookings.CreateBooking(context.Background(), guestID, application.CreateBookingRequest{
		RoomID:        roomID,
		CheckIn:       checkIn,
		CheckOut:      checkIn.Add(24 * time.Hour),
		Persons:       1,
		PaymentMethod: string(booking.OnlineGateway),
	})
	require.NoError(t, err)

	initDTO, err := stack.Payments.InitiatePayment(context.Background(), guestID, dto.ID)
	require.NoError(t, err)
	require.Contains(t, initDTO.Reference, "booking_"+dto.ID.String())

	first, err := stack.Payments.VerifyPayment(context.Background(), initDTO.Reference)
	require.NoError(t, err)
	assert.Equal(t, string(booking.StatusConfirmed), first.Booking.Status)
	assert.True(t, first.Booking.IsPaid)

	second, err := stack.Payments.VerifyPayment(context.Background(), initDTO.Reference)
	require.NoError(t, err)
	assert.Equal(t, first.Booking.Status, second.Booking.Status)
	assert.Equal(t, first.Booking.Version, second.Booking.Version, "second verify must not write")

	assert.Equal(t, 1, loyaltyBalance(t, infra.DB, guestID), "exactly one point awarded")

	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicBookingEvents,
		events.BookingConfirmed, 15*time.Second)
	var confirmed events.BookingStatusChangedEvent
	require.NoError(t, ce.ParseData(&confirmed))
	assert.Equal(t, dto.ID, confirmed.BookingID)
}

// TestCancelAsGuest_RefundsAndRestoresPoints books with a redemption, pays,
// cancels well before check-in, and expects a full refund plus the redeemed
// points back (on top of the point the stay earned at confirmation).
func TestCancelAsGuest_RefundsAndRestoresPoints(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers, clock.NewSystem())
	defer stack.CleanupProducer()

	ownerID := uuid.New()
	_, roomID := seedHotelRoom(t, infra.DB, ownerID, 10000)
	guestID := seedGuest(t, infra.DB, 20)

	checkIn := time.Now().UTC().Add(120 * time.Hour).Truncate(time.Hour)
	dto, err := stack.Bookings.CreateBooking(context.Background(), guestID, application.CreateBookingRequest{
		RoomID:            roomID,
		CheckIn:           checkIn,
		CheckOut:          checkIn.Add(48 * time.Hour),
		Persons:           1,
		PaymentMethod:     string(booking.OnlineGateway),
		LoyaltyPointsUsed: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, loyaltyBalance(t, infra.DB, guestID), "redeemed points deducted at creation")

	initDTO, err := stack.Payments.InitiatePayment(context.Background(), guestID, dto.ID)
	require.NoError(t, err)
	_, err = stack.Payments.VerifyPayment(context.Background(), initDTO.Reference)
	require.NoError(t, err)

	cancelled, err := stack.Bookings.CancelAsGuest(context.Background(), guestID, dto.ID, "change of plans")
	require.NoError(t, err)
	assert.Equal(t, string(booking.StatusCancelled), cancelled.Status)
	assert.True(t, cancelled.RefundInitiated)
	assert.InDelta(t, cancelled.TotalPrice, cancelled.RefundAmount, 0.01, "more than 48h out earns a full refund")

	// 10 redeemed points restored + 1 earned at confirmation.
	assert.Equal(t, 21, loyaltyBalance(t, infra.DB, guestID))

	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicBookingEvents,
		events.PaymentRefundInitiated, 15*time.Second)
	var refund events.RefundInitiatedEvent
	require.NoError(t, ce.ParseData(&refund))
	assert.Equal(t, dto.ID, refund.BookingID)
}

// TestSweep_AutoConfirm_RerunIsNoop pays a pending booking checking in today,
// sweeps, and expects confirmation with one point; a second sweep changes nothing.
func TestSweep_AutoConfirm_RerunIsNoop(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	now := time.Now().UTC()
	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers, clock.NewFixed(now))
	defer stack.CleanupProducer()

	ownerID := uuid.New()
	_, roomID := seedHotelRoom(t, infra.DB, ownerID, 5000)
	guestID := seedGuest(t, infra.DB, 0)

	// Pay-at-hotel booking checking in later today, marked paid by the owner.
	checkIn := now.Add(1 * time.Hour)
	dto, err := stack.Bookings.CreateBooking(context.Background(), guestID, application.CreateBookingRequest{
		RoomID:        roomID,
		CheckIn:       checkIn,
		CheckOut:      checkIn.Add(24 * time.Hour),
		Persons:       1,
		PaymentMethod: string(booking.PayAtHotel),
	})
	require.NoError(t, err)

	require.NoError(t, infra.DB.Exec(`UPDATE bookings SET is_paid = true WHERE id = ?`, dto.ID).Error)

	report, err := stack.Sweep.RunSweepOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.AutoConfirmed)
	assert.Equal(t, 1, loyaltyBalance(t, infra.DB, guestID))

	b, err := stack.BookingRepo.FindByID(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, b.Status())
	assert.NotNil(t, b.AutoConfirmedAt())

	rerun, err := stack.Sweep.RunSweepOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, application.SweepReport{}, rerun, "immediate re-run must be a no-op")
	assert.Equal(t, 1, loyaltyBalance(t, infra.DB, guestID), "no double award")
}

// TestSweep_NoShowLocksBooking confirms a paid booking 30h past check-in is
// marked no-show, locked, and rejects further transitions.
func TestSweep_NoShowLocksBooking(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	now := time.Now().UTC()
	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers, clock.NewFixed(now))
	defer stack.CleanupProducer()

	ownerID := uuid.New()
	_, roomID := seedHotelRoom(t, infra.DB, ownerID, 5000)
	guestID := seedGuest(t, infra.DB, 0)

	checkIn := now.Add(-30 * time.Hour)
	require.NoError(t, infra.DB.Exec(`
		INSERT INTO bookings (id, user_id, hotel_id, room_id, check_in, check_out, persons,
			status, total_price, original_price, payment_method, is_paid, version, created_at, updated_at)
		VALUES (?, ?, (SELECT hotel_id FROM rooms WHERE id = ?), ?, ?, ?, 1,
			'confirmed', 5000, 5000, ?, true, 1, now(), now())`,
		uuid.New(), guestID, roomID, roomID, checkIn, checkIn.Add(48*time.Hour), string(booking.OnlineGateway),
	).Error)

	report, err := stack.Sweep.RunSweepOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.NoShows)

	var got []*struct {
		Status   string
		IsLocked bool
	}
	require.NoError(t, infra.DB.Raw(`SELECT status, is_locked FROM bookings WHERE user_id = ?`, guestID).Scan(&got).Error)
	require.Len(t, got, 1)
	assert.Equal(t, string(booking.StatusNoShow), got[0].Status)
	assert.True(t, got[0].IsLocked, "no-show locks the booking")
}
