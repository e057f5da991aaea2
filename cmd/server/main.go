package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonstay/service-booking/internal/adapter"
	"github.com/anonstay/service-booking/internal/application"
	"github.com/anonstay/service-booking/internal/clock"
	"github.com/anonstay/service-booking/internal/config"
	"github.com/anonstay/service-booking/internal/domain/pricing"
	"github.com/anonstay/service-booking/internal/events"
	"github.com/anonstay/service-booking/internal/handler"
	"github.com/anonstay/service-booking/internal/notification"
	"github.com/anonstay/service-booking/internal/pkg/auth"
	"github.com/anonstay/service-booking/internal/pkg/database"
	"github.com/anonstay/service-booking/internal/pkg/kafka"
	"github.com/anonstay/service-booking/internal/pkg/logger"
	"github.com/anonstay/service-booking/internal/pkg/middleware"
	"github.com/anonstay/service-booking/internal/repository"
	"github.com/anonstay/service-booking/internal/saga"
	"github.com/anonstay/service-booking/internal/sweeper"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewNamed(cfg.AppEnv, "service-booking")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting service-booking",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.BookingModel{},
			&repository.HotelModel{},
			&repository.RoomModel{},
			&repository.UserModel{},
		); err != nil {
			zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		zapLogger.Info("database migration completed (dev auto-migrate)")
	}
	if err := database.EnsureBookingConstraints(db); err != nil {
		zapLogger.Fatal("failed to ensure booking constraints", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.TokenTTL)

	// Initialize Kafka producer and event publisher
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, zapLogger)
	defer kafkaProducer.Close()

	publisher := events.NewPublisher(kafkaProducer, zapLogger)
	notifier := notification.NewKafkaSender(kafkaProducer, zapLogger)

	// Initialize payment gateway (mock for development)
	var gateway adapter.PaymentGateway
	if cfg.PaystackConfig.UseMock {
		gateway = adapter.NewMockGateway(zapLogger)
	} else {
		gateway = adapter.NewPaystackGateway(
			cfg.PaystackConfig.BaseURL,
			cfg.PaystackConfig.SecretKey,
			cfg.PaystackConfig.Timeout,
			zapLogger,
		)
	}

	// Initialize repositories
	bookingRepo := repository.NewBookingRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Initialize domain and application services
	clk := clock.NewSystem()
	pricer := pricing.NewEngine(pricing.LoyaltyPolicy{
		MinRedemption:      cfg.LoyaltyConfig.MinRedemption,
		PercentPerPoint:    cfg.LoyaltyConfig.PercentPerPoint,
		MaxDiscountPercent: cfg.LoyaltyConfig.MaxDiscountPercent,
	})

	loyaltyService := application.NewLoyaltyService(bookingRepo, userRepo, publisher, zapLogger)
	sagaService := saga.NewBookingSagaService(bookingRepo, userRepo, publisher, zapLogger)
	paymentService := application.NewPaymentService(
		bookingRepo, userRepo, gateway, loyaltyService,
		publisher, notifier,
		cfg.RefundPolicy, cfg.PaystackConfig.CallbackURL,
		clk, zapLogger,
	)
	bookingService := application.NewBookingService(
		bookingRepo, roomRepo, userRepo,
		pricer, sagaService, paymentService, loyaltyService,
		publisher, notifier,
		cfg.RefundPolicy,
		clk, zapLogger,
	)
	sweepService := application.NewSweepService(
		bookingRepo, userRepo, loyaltyService, notifier,
		sweeper.Thresholds{
			NoShowAfter: cfg.SweepConfig.NoShowAfter,
			LockAfter:   cfg.SweepConfig.LockAfter,
		},
		clk, zapLogger,
	)

	// Start the sweep scheduler
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	defer schedulerCancel()

	scheduler := sweeper.NewScheduler(sweepService.Run, zapLogger)
	if err := scheduler.Start(schedulerCtx); err != nil {
		zapLogger.Fatal("failed to start sweep scheduler", zap.Error(err))
	}

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService)
	ownerHandler := handler.NewOwnerHandler(bookingService)
	paymentHandler := handler.NewPaymentHandler(paymentService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(middleware.RequestIDMiddleware())

	// Health check
	router.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "service-booking"})
	})

	// Register routes
	apiV1 := router.Group("/api/v1")
	bookingHandler.RegisterRoutes(apiV1, jwtManager)
	ownerHandler.RegisterRoutes(apiV1, jwtManager)
	paymentHandler.RegisterRoutes(apiV1, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down service-booking...")

	schedulerCancel()
	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("service-booking stopped")
}
