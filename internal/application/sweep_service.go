package application

import (
	"context"
	"time"

	"github.com/anonstay/service-booking/internal/clock"
	"github.com/anonstay/service-booking/internal/domain/booking"
	"github.com/anonstay/service-booking/internal/domain/user"
	"github.com/anonstay/service-booking/internal/notification"
	"github.com/anonstay/service-booking/internal/sweeper"
	"go.uber.org/zap"
)

// SweepService applies the time-driven lifecycle transitions: auto-confirm,
// no-show, lock, and expiry. One failing booking never aborts the pass.
type SweepService struct {
	bookings   booking.Repository
	users      user.Ledger
	loyalty    *LoyaltyService
	notifier   notification.Sender
	thresholds sweeper.Thresholds
	clk        clock.Clock
	logger     *zap.Logger
}

// NewSweepService creates a new SweepService.
func NewSweepService(
	bookings booking.Repository,
	users user.Ledger,
	loyalty *LoyaltyService,
	notifier notification.Sender,
	thresholds sweeper.Thresholds,
	clk clock.Clock,
	logger *zap.Logger,
) *SweepService {
	return &SweepService{
		bookings:   bookings,
		users:      users,
		loyalty:    loyalty,
		notifier:   notifier,
		thresholds: thresholds,
		clk:        clk,
		logger:     logger,
	}
}

// Run executes one sweep with the service clock, logging the report. Used as
// the scheduler's run function.
func (s *SweepService) Run(ctx context.Context) {
	report, err := s.RunSweepOnce(ctx, s.clk.Now())
	if err != nil {
		s.logger.Error("sweep pass failed", zap.Error(err))
		return
	}
	s.logger.Info("sweep pass completed",
		zap.Int("auto_confirmed", report.AutoConfirmed),
		zap.Int("no_shows", report.NoShows),
		zap.Int("locked", report.Locked),
		zap.Int("expired", report.Expired),
	)
}

// RunSweepOnce loads due candidates, computes their transitions, and applies
// them one by one. Conditional writes make each application idempotent, so an
// immediate re-run over the same state is a no-op.
func (s *SweepService) RunSweepOnce(ctx context.Context, now time.Time) (SweepReport, error) {
	var report SweepReport

	candidates, err := s.loadCandidates(ctx, now)
	if err != nil {
		return report, err
	}

	due := sweeper.ComputeDueTransitions(candidates, now, s.thresholds)
	for _, d := range due {
		if err := s.apply(ctx, d, now); err != nil {
			s.logger.Error("sweep transition failed",
				zap.String("booking_id", d.Booking.ID().String()),
				zap.String("action", string(d.Action)),
				zap.Error(err),
			)
			continue
		}

		switch d.Action {
		case sweeper.ActionAutoConfirm:
			report.AutoConfirmed++
		case sweeper.ActionMarkNoShow:
			report.NoShows++
		case sweeper.ActionLock:
			report.Locked++
		case sweeper.ActionExpire:
			report.Expired++
		}
	}

	return report, nil
}

func (s *SweepService) loadCandidates(ctx context.Context, now time.Time) ([]*booking.Booking, error) {
	seen := make(map[string]struct{})
	var out []*booking.Booking

	add := func(bookings []*booking.Booking) {
		for _, b := range bookings {
			key := b.ID().String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, b)
		}
	}

	autoConfirm, err := s.bookings.FindDueAutoConfirm(ctx, now)
	if err != nil {
		return nil, err
	}
	add(autoConfirm)

	noShow, err := s.bookings.FindDueNoShow(ctx, now.Add(-s.thresholds.NoShowAfter))
	if err != nil {
		return nil, err
	}
	add(noShow)

	lock, err := s.bookings.FindDueLock(ctx, now.Add(-s.thresholds.LockAfter))
	if err != nil {
		return nil, err
	}
	add(lock)

	expire, err := s.bookings.FindDueExpire(ctx, now)
	if err != nil {
		return nil, err
	}
	add(expire)

	return out, nil
}

func (s *SweepService) apply(ctx context.Context, d sweeper.DueTransition, now time.Time) error {
	b := d.Booking

	switch d.Action {
	case sweeper.ActionAutoConfirm:
		if err := b.AutoConfirm(now); err != nil {
			return err
		}
	case sweeper.ActionMarkNoShow:
		if err := b.MarkNoShow(now); err != nil {
			return err
		}
	case sweeper.ActionLock:
		b.Lock(now)
	case sweeper.ActionExpire:
		if err := b.Expire(now); err != nil {
			return err
		}
	}

	b.IncrementVersion()
	if err := s.bookings.Update(ctx, b); err != nil {
		return err
	}

	if d.Action == sweeper.ActionAutoConfirm {
		if err := s.loyalty.AwardPoint(ctx, b, now); err != nil {
			s.logger.Error("loyalty award failed during auto-confirm",
				zap.String("booking_id", b.ID().String()),
				zap.Error(err),
			)
		}
		if guest, err := s.users.FindProfile(ctx, b.UserID()); err == nil {
			s.notifier.BookingConfirmed(ctx, guest, b)
		}
	}

	return nil
}
