package notification

import (
	"context"
	"time"

	"github.com/anonstay/service-booking/internal/domain/booking"
	"github.com/anonstay/service-booking/internal/domain/user"
	"github.com/anonstay/service-booking/internal/pkg/kafka"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sender delivers guest-facing notifications. Implementations are
// fire-and-forget: a delivery failure is logged by the implementation and
// never interrupts the booking operation that triggered it.
type Sender interface {
	BookingConfirmed(ctx context.Context, guest *user.Profile, b *booking.Booking)
	BookingCancelled(ctx context.Context, guest *user.Profile, b *booking.Booking)
	RefundProcessed(ctx context.Context, guest *user.Profile, b *booking.Booking)
}

const notificationTopic = "notification.requests"

// Template names resolved by the downstream notification service.
const (
	templateBookingConfirmed = "booking_confirmed"
	templateBookingCancelled = "booking_cancelled"
	templateRefundProcessed  = "refund_processed"
)

// Request is the payload handed to the downstream notification service.
type Request struct {
	RecipientID    uuid.UUID         `json:"recipientId"`
	RecipientEmail string            `json:"recipientEmail"`
	RecipientName  string            `json:"recipientName"`
	Template       string            `json:"template"`
	Params         map[string]string `json:"params"`
	RequestedAt    time.Time         `json:"requestedAt"`
}

// KafkaSender hands notification requests to the notification service over
// Kafka. Delivery itself (email, push) is the downstream service's concern.
type KafkaSender struct {
	producer *kafka.Producer
	logger   *zap.Logger
}

// NewKafkaSender creates a Kafka-backed notification sender.
func NewKafkaSender(producer *kafka.Producer, logger *zap.Logger) *KafkaSender {
	return &KafkaSender{producer: producer, logger: logger}
}

func (s *KafkaSender) BookingConfirmed(ctx context.Context, guest *user.Profile, b *booking.Booking) {
	s.send(ctx, guest, templateBookingConfirmed, map[string]string{
		"bookingId": b.ID().String(),
		"checkIn":   b.CheckIn().Format(time.RFC3339),
		"checkOut":  b.CheckOut().Format(time.RFC3339),
	})
}

func (s *KafkaSender) BookingCancelled(ctx context.Context, guest *user.Profile, b *booking.Booking) {
	s.send(ctx, guest, templateBookingCancelled, map[string]string{
		"bookingId": b.ID().String(),
		"reason":    b.CancellationReason(),
	})
}

func (s *KafkaSender) RefundProcessed(ctx context.Context, guest *user.Profile, b *booking.Booking) {
	s.send(ctx, guest, templateRefundProcessed, map[string]string{
		"bookingId":    b.ID().String(),
		"refundStatus": string(b.RefundStatus()),
	})
}

func (s *KafkaSender) send(ctx context.Context, guest *user.Profile, template string, params map[string]string) {
	if s.producer == nil {
		return
	}

	req := Request{
		RecipientID:    guest.ID,
		RecipientEmail: guest.Email,
		RecipientName:  guest.Name,
		Template:       template,
		Params:         params,
		RequestedAt:    time.Now().UTC(),
	}

	event, err := kafka.NewCloudEvent("service-booking", "notification.requested", req)
	if err != nil {
		s.logger.Error("failed to create notification event", zap.Error(err))
		return
	}

	if err := s.producer.PublishEvent(ctx, notificationTopic, event); err != nil {
		s.logger.Warn("failed to enqueue notification",
			zap.String("template", template),
			zap.Error(err),
		)
	}
}

// NoopSender discards all notifications. Used in tests and when the broker
// is not configured.
type NoopSender struct{}

func (NoopSender) BookingConfirmed(context.Context, *user.Profile, *booking.Booking) {}
func (NoopSender) BookingCancelled(context.Context, *user.Profile, *booking.Booking) {}
func (NoopSender) RefundProcessed(context.Context, *user.Profile, *booking.Booking)  {}
