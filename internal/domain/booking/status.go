package booking

// Status represents the current state of a booking in its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCheckedIn Status = "checked-in"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no-show"
	StatusExpired   Status = "expired"
)

// validTransitions defines the authoritative state machine for booking status.
// Every status mutation in the codebase goes through CanTransitionTo; no call
// site decides legality on its own.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled, StatusExpired},
	StatusConfirmed: {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn: {},
	StatusCancelled: {},
	StatusNoShow:    {},
	StatusExpired:   {},
}

// IsValid returns true if the status is a recognized booking status.
func (s Status) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s Status) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// CanBeCancelled returns true if the booking can be cancelled from this status.
func (s Status) CanBeCancelled() bool {
	return s.CanTransitionTo(StatusCancelled)
}

// PaymentMethod identifies how a guest intends to pay.
type PaymentMethod string

const (
	PayAtHotel    PaymentMethod = "Pay At Hotel"
	OnlineGateway PaymentMethod = "Paystack"
)

// IsValid returns true for a recognized payment method.
func (m PaymentMethod) IsValid() bool {
	return m == PayAtHotel || m == OnlineGateway
}

// RefundStatus tracks the outcome of a refund attempt during cancellation.
type RefundStatus string

const (
	RefundInitiated      RefundStatus = "initiated"
	RefundCompleted      RefundStatus = "completed"
	RefundManualRequired RefundStatus = "manual_required"
)
