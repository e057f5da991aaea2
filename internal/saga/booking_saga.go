package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/anonstay/service-booking/internal/domain/booking"
	"github.com/anonstay/service-booking/internal/domain/user"
	"github.com/anonstay/service-booking/internal/events"
	"go.uber.org/zap"
)

// SagaStep represents a single step in a saga with execute and compensate actions.
type SagaStep struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga orchestrates a sequence of steps with compensating transactions on failure.
type Saga struct {
	name   string
	steps  []SagaStep
	logger *zap.Logger
}

// NewSaga creates a new saga orchestrator.
func NewSaga(name string, logger *zap.Logger) *Saga {
	return &Saga{
		name:   name,
		steps:  make([]SagaStep, 0),
		logger: logger,
	}
}

// AddStep appends a step to the saga.
func (s *Saga) AddStep(step SagaStep) {
	s.steps = append(s.steps, step)
}

// Execute runs all saga steps in order. On failure, it compensates executed steps in reverse order.
func (s *Saga) Execute(ctx context.Context) error {
	s.logger.Info("saga started", zap.String("saga", s.name))

	executedSteps := make([]SagaStep, 0, len(s.steps))

	for _, step := range s.steps {
		s.logger.Info("executing saga step",
			zap.String("saga", s.name),
			zap.String("step", step.Name),
		)

		if err := step.Execute(ctx); err != nil {
			s.logger.Error("saga step failed, starting compensation",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)

			// Compensate executed steps in reverse order
			for i := len(executedSteps) - 1; i >= 0; i-- {
				compensateStep := executedSteps[i]
				if compensateStep.Compensate != nil {
					s.logger.Info("compensating saga step",
						zap.String("saga", s.name),
						zap.String("step", compensateStep.Name),
					)
					if compErr := compensateStep.Compensate(ctx); compErr != nil {
						s.logger.Error("compensation failed",
							zap.String("saga", s.name),
							zap.String("step", compensateStep.Name),
							zap.Error(compErr),
						)
					}
				}
			}

			return fmt.Errorf("saga '%s' failed at step '%s': %w", s.name, step.Name, err)
		}

		executedSteps = append(executedSteps, step)
	}

	s.logger.Info("saga completed successfully", zap.String("saga", s.name))
	return nil
}

// BookingSagaService orchestrates multi-resource booking workflows.
type BookingSagaService struct {
	bookings  booking.Repository
	users     user.Ledger
	publisher *events.Publisher
	logger    *zap.Logger
}

// NewBookingSagaService creates a new BookingSagaService.
func NewBookingSagaService(
	bookings booking.Repository,
	users user.Ledger,
	publisher *events.Publisher,
	logger *zap.Logger,
) *BookingSagaService {
	return &BookingSagaService{
		bookings:  bookings,
		users:     users,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateBookingSaga reserves the room, deducts redeemed loyalty points, and
// publishes a created event. A failed step rolls back the ones before it:
// a points deduction that fails releases the reservation, and a reservation
// released that way cancels the booking row rather than deleting it, keeping
// an audit trail of the attempt.
func (s *BookingSagaService) CreateBookingSaga(ctx context.Context, b *booking.Booking, now time.Time) error {
	saga := NewSaga("create_booking", s.logger)

	// Step 1: Reserve the room (atomic overlap check + insert)
	saga.AddStep(SagaStep{
		Name: "reserve_room",
		Execute: func(ctx context.Context) error {
			return s.bookings.Reserve(ctx, b)
		},
		Compensate: func(ctx context.Context) error {
			if err := b.Cancel("booking creation failed", now); err != nil {
				return err
			}
			b.IncrementVersion()
			return s.bookings.Update(ctx, b)
		},
	})

	// Step 2: Deduct redeemed loyalty points
	if b.LoyaltyPointsUsed() > 0 {
		saga.AddStep(SagaStep{
			Name: "deduct_loyalty_points",
			Execute: func(ctx context.Context) error {
				return s.users.AddLoyaltyPoints(ctx, b.UserID(), -b.LoyaltyPointsUsed())
			},
			Compensate: func(ctx context.Context) error {
				return s.users.AddLoyaltyPoints(ctx, b.UserID(), b.LoyaltyPointsUsed())
			},
		})
	}

	// Step 3: Publish BookingCreatedEvent
	saga.AddStep(SagaStep{
		Name: "publish_booking_created_event",
		Execute: func(ctx context.Context) error {
			s.publisher.Publish(ctx, events.BookingCreated, events.BookingCreatedEvent{
				BookingID:     b.ID(),
				UserID:        b.UserID(),
				HotelID:       b.HotelID(),
				RoomID:        b.RoomID(),
				CheckIn:       b.CheckIn(),
				CheckOut:      b.CheckOut(),
				TotalPrice:    b.TotalPrice(),
				PaymentMethod: string(b.PaymentMethod()),
				OccurredAt:    now,
			})
			return nil
		},
		Compensate: nil, // Event publishing has no compensating action
	})

	if err := saga.Execute(ctx); err != nil {
		s.publisher.Publish(ctx, events.BookingFailed, events.BookingFailedEvent{
			BookingID:  b.ID(),
			UserID:     b.UserID(),
			Reason:     err.Error(),
			OccurredAt: now,
		})
		return err
	}

	return nil
}
