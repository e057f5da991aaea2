// Package sweeper decides which bookings are due a lifecycle transition at a
// given instant. The decision logic is a pure function over booking state and
// time; scheduling and persistence live elsewhere.
package sweeper

import (
	"time"

	"github.com/anonstay/service-booking/internal/domain/booking"
)

// Action is a sweep transition kind.
type Action string

const (
	ActionAutoConfirm Action = "auto_confirm"
	ActionMarkNoShow  Action = "mark_no_show"
	ActionLock        Action = "lock"
	ActionExpire      Action = "expire"
)

// Thresholds carries the time windows the sweep rules compare against.
type Thresholds struct {
	NoShowAfter time.Duration
	LockAfter   time.Duration
}

// DueTransition pairs a booking with the action the sweep owes it.
type DueTransition struct {
	Booking *booking.Booking
	Action  Action
}

// ComputeDueTransitions returns at most one due action per booking:
//
//   - paid pending bookings checking in today (UTC day of now) auto-confirm
//   - unpaid pending bookings past check-in expire
//   - confirmed, paid, never-checked-in bookings past the no-show window are
//     marked no-show (which also locks them)
//   - confirmed or checked-in bookings past the lock window are locked
//
// The function never mutates its inputs and is deterministic in now, so a
// sweep re-run over the same state computes the same set.
func ComputeDueTransitions(bookings []*booking.Booking, now time.Time, th Thresholds) []DueTransition {
	now = now.UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	var due []DueTransition
	for _, b := range bookings {
		if a, ok := dueAction(b, now, dayStart, dayEnd, th); ok {
			due = append(due, DueTransition{Booking: b, Action: a})
		}
	}
	return due
}

func dueAction(b *booking.Booking, now, dayStart, dayEnd time.Time, th Thresholds) (Action, bool) {
	switch b.Status() {
	case booking.StatusPending:
		if b.IsPaid() {
			if !b.CheckIn().Before(dayStart) && b.CheckIn().Before(dayEnd) {
				return ActionAutoConfirm, true
			}
			return "", false
		}
		if b.CheckIn().Before(now) {
			return ActionExpire, true
		}

	case booking.StatusConfirmed:
		if b.IsPaid() && b.CheckedInAt() == nil && b.CheckIn().Before(now.Add(-th.NoShowAfter)) {
			return ActionMarkNoShow, true
		}
		if !b.IsLocked() && b.CheckIn().Before(now.Add(-th.LockAfter)) {
			return ActionLock, true
		}

	case booking.StatusCheckedIn:
		if !b.IsLocked() && b.CheckIn().Before(now.Add(-th.LockAfter)) {
			return ActionLock, true
		}
	}
	return "", false
}
