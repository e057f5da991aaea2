package application

import (
	"context"
	"time"

	"github.com/anonstay/service-booking/internal/adapter"
	"github.com/anonstay/service-booking/internal/clock"
	"github.com/anonstay/service-booking/internal/domain/booking"
	"github.com/anonstay/service-booking/internal/domain/room"
	"github.com/anonstay/service-booking/internal/domain/user"
	"github.com/anonstay/service-booking/internal/events"
	"github.com/anonstay/service-booking/internal/notification"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// Mock repositories and gateways

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByPaymentReference(ctx context.Context, reference string) (*booking.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) CountOverlapping(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (int64, error) {
	args := m.Called(ctx, roomID, checkIn, checkOut)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingRepository) Reserve(ctx context.Context, b *booking.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) TryMarkLoyaltyAwarded(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) RevertLoyaltyAwarded(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*booking.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByHotels(ctx context.Context, hotelIDs []uuid.UUID, filter booking.SearchFilter) ([]*booking.Booking, error) {
	args := m.Called(ctx, hotelIDs, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindDueAutoConfirm(ctx context.Context, now time.Time) ([]*booking.Booking, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindDueNoShow(ctx context.Context, before time.Time) ([]*booking.Booking, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindDueLock(ctx context.Context, before time.Time) ([]*booking.Booking, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindDueExpire(ctx context.Context, now time.Time) ([]*booking.Booking, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

type MockUserLedger struct {
	mock.Mock
}

func (m *MockUserLedger) FindProfile(ctx context.Context, id uuid.UUID) (*user.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.Profile), args.Error(1)
}

func (m *MockUserLedger) AddLoyaltyPoints(ctx context.Context, id uuid.UUID, delta int) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

type MockRoomCatalog struct {
	mock.Mock
}

func (m *MockRoomCatalog) FindSnapshot(ctx context.Context, roomID uuid.UUID) (*room.Snapshot, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*room.Snapshot), args.Error(1)
}

func (m *MockRoomCatalog) HotelIDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) InitializeTransaction(ctx context.Context, email string, amountMinor int64, reference, callbackURL string, metadata map[string]string) (*adapter.InitializeResult, error) {
	args := m.Called(ctx, email, amountMinor, reference, callbackURL, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*adapter.InitializeResult), args.Error(1)
}

func (m *MockPaymentGateway) VerifyTransaction(ctx context.Context, reference string) (*adapter.VerifyResult, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*adapter.VerifyResult), args.Error(1)
}

func (m *MockPaymentGateway) RefundTransaction(ctx context.Context, originalReference string, amountMinor int64) (*adapter.RefundResult, error) {
	args := m.Called(ctx, originalReference, amountMinor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*adapter.RefundResult), args.Error(1)
}

func newTestPaymentService(repo *MockBookingRepository, ledger *MockUserLedger, gw *MockPaymentGateway, clk clock.Clock) *PaymentService {
	logger := zap.NewNop()
	publisher := events.NewPublisher(nil, logger)
	loyalty := NewLoyaltyService(repo, ledger, publisher, logger)
	return NewPaymentService(
		repo, ledger, gw, loyalty, publisher, notification.NoopSender{},
		policyForTest(), "https://example.test/callback", clk, logger,
	)
}
