//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/anonstay/service-booking/internal/adapter"
	"github.com/anonstay/service-booking/internal/application"
	"github.com/anonstay/service-booking/internal/clock"
	"github.com/anonstay/service-booking/internal/config"
	"github.com/anonstay/service-booking/internal/domain/pricing"
	"github.com/anonstay/service-booking/internal/events"
	"github.com/anonstay/service-booking/internal/notification"
	"github.com/anonstay/service-booking/internal/pkg/database"
	"github.com/anonstay/service-booking/internal/pkg/kafka"
	"github.com/anonstay/service-booking/internal/repository"
	"github.com/anonstay/service-booking/internal/saga"
	"github.com/anonstay/service-booking/internal/sweeper"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// bookingStack holds the wired-up booking service components.
type bookingStack struct {
	Bookings        *application.BookingService
	Payments        *application.PaymentService
	Sweep           *application.SweepService
	Gateway         *adapter.MockGateway
	BookingRepo     *repository.BookingRepositoryImpl
	UserRepo        *repository.UserRepositoryImpl
	CleanupProducer func()
}

func testRefundPolicy() config.RefundPolicy {
	return config.RefundPolicy{
		OwnerFullThreshold:      48 * time.Hour,
		OwnerFullPercent:        100,
		OwnerPartialThreshold:   24 * time.Hour,
		OwnerPartialPercent:     70,
		OwnerBasePercent:        30,
		GuestFullThreshold:      48 * time.Hour,
		GuestFullPercent:        100,
		GuestPartialPercent:     70,
		GuestCancellationCutoff: 24 * time.Hour,
	}
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_booking",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_booking sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(
		&repository.BookingModel{},
		&repository.HotelModel{},
		&repository.RoomModel{},
		&repository.UserModel{},
	))
	require.NoError(t, database.EnsureBookingConstraints(db))

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, events.TopicBookingEvents, "notification.requests")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupBookingStack wires the full booking service stack against the mock gateway.
func setupBookingStack(t *testing.T, db *gorm.DB, brokers []string, clk clock.Clock) *bookingStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	bookingRepo := repository.NewBookingRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	userRepo := repository.NewUserRepository(db)

	producer := kafka.NewProducer(brokers, logger)
	publisher := events.NewPublisher(producer, logger)
	notifier := notification.NewKafkaSender(producer, logger)

	gateway := adapter.NewMockGateway(logger)

	pricer := pricing.NewEngine(pricing.LoyaltyPolicy{
		MinRedemption:      5,
		PercentPerPoint:    1,
		MaxDiscountPercent: 50,
	})

	policy := testRefundPolicy()
	loyaltySvc := application.NewLoyaltyService(bookingRepo, userRepo, publisher, logger)
	sagaSvc := saga.NewBookingSagaService(bookingRepo, userRepo, publisher, logger)
	paymentSvc := application.NewPaymentService(
		bookingRepo, userRepo, gateway, loyaltySvc,
		publisher, notifier,
		policy, "https://app.test/payments/callback",
		clk, logger,
	)
	bookingSvc := application.NewBookingService(
		bookingRepo, roomRepo, userRepo,
		pricer, sagaSvc, paymentSvc, loyaltySvc,
		publisher, notifier,
		policy,
		clk, logger,
	)
	sweepSvc := application.NewSweepService(
		bookingRepo, userRepo, loyaltySvc, notifier,
		sweeper.Thresholds{NoShowAfter: 24 * time.Hour, LockAfter: 48 * time.Hour},
		clk, logger,
	)

	return &bookingStack{
		Bookings:        bookingSvc,
		Payments:        paymentSvc,
		Sweep:           sweepSvc,
		Gateway:         gateway,
		BookingRepo:     bookingRepo,
		UserRepo:        userRepo,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// seedGuest inserts a user with the given loyalty balance.
func seedGuest(t *testing.T, db *gorm.DB, points int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	model := repository.UserModel{
		ID:            id,
		Name:          "Test Guest",
		Email:         fmt.Sprintf("guest-%s@test.local", id.String()[:8]),
		LoyaltyPoints: points,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed user")
	return id
}

// seedHotelRoom inserts a hotel and one room, returning both ids.
func seedHotelRoom(t *testing.T, db *gorm.DB, ownerID uuid.UUID, pricePerNight float64) (uuid.UUID, uuid.UUID) {
	t.Helper()
	hotelID := uuid.New()
	roomID := uuid.New()
	require.NoError(t, db.Create(&repository.HotelModel{
		ID:      hotelID,
		OwnerID: ownerID,
		Name:    "Test Hotel",
	}).Error, "failed to seed hotel")
	require.NoError(t, db.Create(&repository.RoomModel{
		ID:            roomID,
		HotelID:       hotelID,
		PricePerNight: pricePerNight,
	}).Error, "failed to seed room")
	return hotelID, roomID
}

// loyaltyBalance reads a user's current loyalty balance.
func loyaltyBalance(t *testing.T, db *gorm.DB, userID uuid.UUID) int {
	t.Helper()
	var model repository.UserModel
	require.NoError(t, db.Where("id = ?", userID).First(&model).Error)
	return model.LoyaltyPoints
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
