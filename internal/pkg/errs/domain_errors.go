package errs

import "errors"

// Sentinel errors shared across the engine, re-exported by the command layer.
// Grouped by how callers must react: pick another slot (conflict), respect
// the lifecycle (state), or retry later (persistence). Validation sentinels
// live with the domain packages that enforce them.
var (
	// Conflict errors
	ErrSlotConflict     = errors.New("time slot already claimed")
	ErrDuplicateRequest = errors.New("duplicate request with different parameters")

	// Lifecycle and lookup errors
	ErrInvalidTimeSlot   = errors.New("invalid time slot")
	ErrInvalidTransition = errors.New("transition not permitted from current status")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrSessionNotFound   = errors.New("open session not found")
	ErrChargerNotFound   = errors.New("charger not found")

	// Idempotency errors
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrIdempotencyInProgress  = errors.New("idempotency in progress")
	ErrIdempotencyCheckFailed = errors.New("idempotency check failed")

	// Operation errors
	ErrDatabaseOperationFailed = errors.New("database operation failed")
	ErrReconciliationRequired  = errors.New("compensation failed; operator reconciliation required")
)
