package config

import (
	"strings"
	"time"

	"github.com/anonstay/service-booking/internal/pkg/database"
	"github.com/spf13/viper"
)

// JWTConfig holds token verification settings.
type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
}

// KafkaConfig holds broker settings for event publishing.
type KafkaConfig struct {
	Brokers []string
}

// PaystackConfig holds gateway settings.
type PaystackConfig struct {
	SecretKey   string
	BaseURL     string
	CallbackURL string
	Timeout     time.Duration
	UseMock     bool
}

// LoyaltyConfig holds the redemption policy applied at pricing time.
type LoyaltyConfig struct {
	MinRedemption      int
	PercentPerPoint    float64
	MaxDiscountPercent float64
}

// RefundPolicy holds tiered refund percentages keyed by how far before
// check-in the cancellation lands. Breakpoints are durations before check-in.
type RefundPolicy struct {
	OwnerFullThreshold      time.Duration
	OwnerFullPercent        float64
	OwnerPartialThreshold   time.Duration
	OwnerPartialPercent     float64
	OwnerBasePercent        float64
	GuestFullThreshold      time.Duration
	GuestFullPercent        float64
	GuestPartialPercent     float64
	GuestCancellationCutoff time.Duration
}

// SweepConfig holds the background sweeper thresholds.
type SweepConfig struct {
	NoShowAfter time.Duration
	LockAfter   time.Duration
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	DBConfig       database.PostgresConfig
	JWTConfig      JWTConfig
	KafkaConfig    KafkaConfig
	PaystackConfig PaystackConfig
	LoyaltyConfig  LoyaltyConfig
	RefundPolicy   RefundPolicy
	SweepConfig    SweepConfig
}

// Load reads configuration from environment variables and returns a ServiceConfig.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	setDefaults(v)

	return &ServiceConfig{
		Port:   v.GetString("SERVICE_PORT"),
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWTConfig: JWTConfig{
			Secret:   v.GetString("JWT_SECRET"),
			TokenTTL: v.GetDuration("JWT_TOKEN_TTL"),
		},
		KafkaConfig: KafkaConfig{
			Brokers: strings.Split(v.GetString("KAFKA_BROKERS"), ","),
		},
		PaystackConfig: PaystackConfig{
			SecretKey:   v.GetString("PAYSTACK_SECRET_KEY"),
			BaseURL:     v.GetString("PAYSTACK_BASE_URL"),
			CallbackURL: v.GetString("PAYSTACK_CALLBACK_URL"),
			Timeout:     v.GetDuration("PAYSTACK_TIMEOUT"),
			UseMock:     v.GetBool("PAYSTACK_USE_MOCK"),
		},
		LoyaltyConfig: LoyaltyConfig{
			MinRedemption:      v.GetInt("LOYALTY_MIN_REDEMPTION"),
			PercentPerPoint:    v.GetFloat64("LOYALTY_PERCENT_PER_POINT"),
			MaxDiscountPercent: v.GetFloat64("LOYALTY_MAX_DISCOUNT_PERCENT"),
		},
		RefundPolicy: RefundPolicy{
			OwnerFullThreshold:      v.GetDuration("REFUND_OWNER_FULL_THRESHOLD"),
			OwnerFullPercent:        v.GetFloat64("REFUND_OWNER_FULL_PERCENT"),
			OwnerPartialThreshold:   v.GetDuration("REFUND_OWNER_PARTIAL_THRESHOLD"),
			OwnerPartialPercent:     v.GetFloat64("REFUND_OWNER_PARTIAL_PERCENT"),
			OwnerBasePercent:        v.GetFloat64("REFUND_OWNER_BASE_PERCENT"),
			GuestFullThreshold:      v.GetDuration("REFUND_GUEST_FULL_THRESHOLD"),
			GuestFullPercent:        v.GetFloat64("REFUND_GUEST_FULL_PERCENT"),
			GuestPartialPercent:     v.GetFloat64("REFUND_GUEST_PARTIAL_PERCENT"),
			GuestCancellationCutoff: v.GetDuration("CANCELLATION_CUTOFF"),
		},
		SweepConfig: SweepConfig{
			NoShowAfter: v.GetDuration("SWEEP_NO_SHOW_AFTER"),
			LockAfter:   v.GetDuration("SWEEP_LOCK_AFTER"),
		},
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "booking")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("JWT_TOKEN_TTL", "24h")

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")

	v.SetDefault("PAYSTACK_BASE_URL", "https://api.paystack.co")
	v.SetDefault("PAYSTACK_TIMEOUT", "15s")
	v.SetDefault("PAYSTACK_USE_MOCK", false)

	v.SetDefault("LOYALTY_MIN_REDEMPTION", 5)
	v.SetDefault("LOYALTY_PERCENT_PER_POINT", 1.0)
	v.SetDefault("LOYALTY_MAX_DISCOUNT_PERCENT", 50.0)

	v.SetDefault("REFUND_OWNER_FULL_THRESHOLD", "48h")
	v.SetDefault("REFUND_OWNER_FULL_PERCENT", 100.0)
	v.SetDefault("REFUND_OWNER_PARTIAL_THRESHOLD", "24h")
	v.SetDefault("REFUND_OWNER_PARTIAL_PERCENT", 70.0)
	v.SetDefault("REFUND_OWNER_BASE_PERCENT", 30.0)
	v.SetDefault("REFUND_GUEST_FULL_THRESHOLD", "48h")
	v.SetDefault("REFUND_GUEST_FULL_PERCENT", 100.0)
	v.SetDefault("REFUND_GUEST_PARTIAL_PERCENT", 70.0)
	v.SetDefault("CANCELLATION_CUTOFF", "24h")

	v.SetDefault("SWEEP_NO_SHOW_AFTER", "24h")
	v.SetDefault("SWEEP_LOCK_AFTER", "48h")
}
