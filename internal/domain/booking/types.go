package booking

// Status is the booking lifecycle state. Transitions are restricted to the
// edges in validTransitions; terminal states have no outgoing edges.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
	StatusNoShow    Status = "no_show"
	StatusExpired   Status = "expired"
)

var validTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled, StatusExpired, StatusFailed},
	StatusConfirmed: {StatusActive, StatusCancelled, StatusFailed, StatusNoShow},
	StatusActive:    {StatusCompleted},
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusActive, StatusCompleted,
		StatusCancelled, StatusFailed, StatusNoShow, StatusExpired:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return len(validTransitions[s]) == 0 && s.IsValid()
}

// HoldsClaim reports whether a booking in this status still occupies its slot
// in the interval index.
func (s Status) HoldsClaim() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusActive:
		return true
	default:
		return false
	}
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range validTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// PaymentStatus tracks the payment collaborator's view of a booking.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPending, PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	default:
		return false
	}
}

// CancelActor records who initiated a cancellation.
type CancelActor string

const (
	CancelledByRenter CancelActor = "renter"
	CancelledByHost   CancelActor = "host"
	CancelledBySystem CancelActor = "system"
)
