package application

import (
	"testing"
	"time"

	"github.com/anonstay/service-booking/internal/config"
	"github.com/stretchr/testify/assert"
)

func policyForTest() config.RefundPolicy {
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

func TestRefundPercent(t *testing.T) {
	policy := policyForTest()

	tests := []struct {
		name         string
		byOwner      bool
		untilCheckIn time.Duration
		want         float64
	}{
		{"owner 50h out", true, 50 * time.Hour, 100},
		{"owner 30h out", true, 30 * time.Hour, 70},
		{"owner 10h out", true, 10 * time.Hour, 30},
		{"owner exactly 48h", true, 48 * time.Hour, 70},
		{"owner exactly 24h", true, 24 * time.Hour, 30},
		{"owner after check-in", true, -2 * time.Hour, 30},
		{"guest 50h out", false, 50 * time.Hour, 100},
		{"guest 30h out", false, 30 * time.Hour, 70},
		{"guest exactly 48h", false, 48 * time.Hour, 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RefundPercent(policy, tt.byOwner, tt.untilCheckIn)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}
