package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anonstay/service-booking/internal/domain/booking"
	"github.com/anonstay/service-booking/internal/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func awardableBooking(now time.Time) *booking.Booking {
	return booking.NewBooking(
		uuid.New(), uuid.New(), uuid.New(),
		now.Add(96*time.Hour), now.Add(144*time.Hour),
		2, booking.OnlineGateway, 40000, 40000, 0, 0, now,
	)
}

func TestAwardPoint_FailedCreditRevertsFlagForRetry(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	b := awardableBooking(now)

	repo := new(MockBookingRepository)
	ledger := new(MockUserLedger)
	logger := zap.NewNop()
	svc := NewLoyaltyService(repo, ledger, events.NewPublisher(nil, logger), logger)

	repo.On("TryMarkLoyaltyAwarded", mock.Anything, b.ID()).Return(true, nil)
	ledger.On("AddLoyaltyPoints", mock.Anything, b.UserID(), 1).
		Return(errors.New("ledger unavailable")).Once()
	repo.On("RevertLoyaltyAwarded", mock.Anything, b.ID()).Return(nil).Once()

	err := svc.AwardPoint(context.Background(), b, now)

	require.Error(t, err)
	assert.False(t, b.LoyaltyPointAwarded())
	repo.AssertExpectations(t)

	// With the flag given back, a later award path wins the flip again and
	// the credit lands.
	ledger.On("AddLoyaltyPoints", mock.Anything, b.UserID(), 1).Return(nil).Once()

	require.NoError(t, svc.AwardPoint(context.Background(), b, now))
	assert.True(t, b.LoyaltyPointAwarded())
	ledger.AssertExpectations(t)
}

func TestAwardPoint_LoserSyncsFlagWithoutCredit(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	b := awardableBooking(now)

	repo := new(MockBookingRepository)
	ledger := new(MockUserLedger)
	logger := zap.NewNop()
	svc := NewLoyaltyService(repo, ledger, events.NewPublisher(nil, logger), logger)

	repo.On("TryMarkLoyaltyAwarded", mock.Anything, b.ID()).Return(false, nil).Once()

	require.NoError(t, svc.AwardPoint(context.Background(), b, now))

	assert.True(t, b.LoyaltyPointAwarded())
	ledger.AssertNotCalled(t, "AddLoyaltyPoints", mock.Anything, mock.Anything, mock.Anything)
}
