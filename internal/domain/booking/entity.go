package booking

import (
	"errors"
	"fmt"
	"time"

	"voltshare/internal/domain/pricing"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition = errors.New("transition not permitted from current status")
	ErrStartTooEarly     = errors.New("session cannot start before the grace window opens")
	ErrSlotLapsed        = errors.New("booked slot has lapsed")
	ErrOverstayExceeded  = errors.New("extension would exceed the overstay cap")
	ErrShrinkingSlot     = errors.New("extension must move the end time forward")
)

// Booking is the durable record of a committed slot claim. Status moves only
// along the lifecycle edges; the price snapshot changes only through
// amendments. Charger and renter are referenced by id, never held directly.
type Booking struct {
	id            uuid.UUID
	chargerID     uuid.UUID
	renterID      uuid.UUID
	slot          TimeSlot
	status        Status
	paymentStatus PaymentStatus
	price         PriceSnapshot
	rule          pricing.Rule
	bookingCode   string
	accessHash    string

	confirmedAt *time.Time
	startedAt   *time.Time
	completedAt *time.Time
	cancelledAt *time.Time
	cancelledBy CancelActor
	cancelNote  string

	extendedTimes   int
	overstayMinutes int

	createdAt time.Time
	updatedAt time.Time
}

func newBooking(
	chargerID, renterID uuid.UUID,
	slot TimeSlot,
	status Status,
	price PriceSnapshot,
	rule pricing.Rule,
	bookingCode, accessHash string,
	now time.Time,
) *Booking {
	return &Booking{
		id:            uuid.New(),
		chargerID:     chargerID,
		renterID:      renterID,
		slot:          slot,
		status:        status,
		paymentStatus: PaymentPending,
		price:         price,
		rule:          rule,
		bookingCode:   bookingCode,
		accessHash:    accessHash,
		createdAt:     now,
		updatedAt:     now,
	}
}

func ReconstructBooking(
	id, chargerID, renterID uuid.UUID,
	slot TimeSlot,
	status Status,
	paymentStatus PaymentStatus,
	price PriceSnapshot,
	rule pricing.Rule,
	bookingCode, accessHash string,
	extendedTimes, overstayMinutes int,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		chargerID:       chargerID,
		renterID:        renterID,
		slot:            slot,
		status:          status,
		paymentStatus:   paymentStatus,
		price:           price,
		rule:            rule,
		bookingCode:     bookingCode,
		accessHash:      accessHash,
		extendedTimes:   extendedTimes,
		overstayMinutes: overstayMinutes,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

func (b *Booking) transition(to Status, now time.Time) error {
	if !b.status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.status, to)
	}
	b.status = to
	b.updatedAt = now
	return nil
}

// Confirm moves pending -> confirmed (host acceptance or auto-accept).
func (b *Booking) Confirm(now time.Time) error {
	if err := b.transition(StatusConfirmed, now); err != nil {
		return err
	}
	t := now
	b.confirmedAt = &t
	return nil
}

// Activate moves confirmed -> active on a session-start signal. Starting is
// only allowed inside [start - graceBefore, end); a signal after the end
// means the slot lapsed and the caller should record a no-show instead.
func (b *Booking) Activate(now time.Time, graceBefore time.Duration) error {
	if b.status == StatusConfirmed {
		if now.Before(b.slot.Start().Add(-graceBefore)) {
			return ErrStartTooEarly
		}
		if !now.Before(b.slot.End()) {
			return ErrSlotLapsed
		}
	}
	if err := b.transition(StatusActive, now); err != nil {
		return err
	}
	t := now
	b.startedAt = &t
	return nil
}

func (b *Booking) Complete(now time.Time) error {
	if err := b.transition(StatusCompleted, now); err != nil {
		return err
	}
	t := now
	b.completedAt = &t
	return nil
}

// Cancel releases the slot claim. When the cancellation lands inside the
// rule's late-cancellation window before start, the fee is appended as an
// amendment rather than folded into the base snapshot.
func (b *Booking) Cancel(now time.Time, actor CancelActor, reason string) error {
	if err := b.transition(StatusCancelled, now); err != nil {
		return err
	}
	t := now
	b.cancelledAt = &t
	b.cancelledBy = actor
	b.cancelNote = reason

	if b.rule.LateCancellationFeeCents > 0 &&
		now.After(b.slot.Start().Add(-b.rule.LateCancellationWindow())) {
		b.price = b.price.withAmendment(Amendment{
			Kind:        AmendmentLateCancellation,
			AmountCents: b.rule.LateCancellationFeeCents,
			AppliedAt:   now,
		})
	}
	return nil
}

// Expire handles a host that never responded within the policy window.
func (b *Booking) Expire(now time.Time) error {
	return b.transition(StatusExpired, now)
}

// Fail records a payment failure reported by the payment collaborator.
func (b *Booking) Fail(now time.Time) error {
	if err := b.transition(StatusFailed, now); err != nil {
		return err
	}
	b.paymentStatus = PaymentFailed
	return nil
}

// MarkNoShow applies when no session started by the grace deadline.
func (b *Booking) MarkNoShow(now time.Time) error {
	return b.transition(StatusNoShow, now)
}

// Extend pushes the end time forward during an overstay. The price delta is
// appended as an extension amendment; the cap is total overstay past the
// originally booked window.
func (b *Booking) Extend(newEnd time.Time, deltaCents int64, now time.Time) error {
	if b.status != StatusActive {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.status, b.status)
	}
	if !newEnd.After(b.slot.End()) {
		return ErrShrinkingSlot
	}
	slot, err := b.slot.WithEnd(newEnd)
	if err != nil {
		return err
	}
	b.slot = slot
	b.extendedTimes++
	b.updatedAt = now
	if deltaCents > 0 {
		b.price = b.price.withAmendment(Amendment{
			Kind:        AmendmentExtension,
			AmountCents: deltaCents,
			AppliedAt:   now,
		})
	}
	return nil
}

// ApplyOverstayFee appends the force-close penalty computed by the monitor.
func (b *Booking) ApplyOverstayFee(feeCents int64, overstayMinutes int, now time.Time) {
	b.overstayMinutes = overstayMinutes
	if feeCents <= 0 {
		return
	}
	b.price = b.price.withAmendment(Amendment{
		Kind:        AmendmentOverstayFee,
		AmountCents: feeCents,
		AppliedAt:   now,
	})
	b.updatedAt = now
}

func (b *Booking) SetPaymentStatus(ps PaymentStatus, now time.Time) {
	b.paymentStatus = ps
	b.updatedAt = now
}

func (b *Booking) ID() uuid.UUID                { return b.id }
func (b *Booking) ChargerID() uuid.UUID         { return b.chargerID }
func (b *Booking) RenterID() uuid.UUID          { return b.renterID }
func (b *Booking) Slot() TimeSlot               { return b.slot }
func (b *Booking) Status() Status               { return b.status }
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }
func (b *Booking) Price() PriceSnapshot         { return b.price }
func (b *Booking) Rule() pricing.Rule           { return b.rule }
func (b *Booking) BookingCode() string          { return b.bookingCode }
func (b *Booking) AccessHash() string           { return b.accessHash }
func (b *Booking) ConfirmedAt() *time.Time      { return b.confirmedAt }
func (b *Booking) StartedAt() *time.Time        { return b.startedAt }
func (b *Booking) CompletedAt() *time.Time      { return b.completedAt }
func (b *Booking) CancelledAt() *time.Time      { return b.cancelledAt }
func (b *Booking) CancelledBy() CancelActor     { return b.cancelledBy }
func (b *Booking) CancelNote() string           { return b.cancelNote }
func (b *Booking) ExtendedTimes() int           { return b.extendedTimes }
func (b *Booking) OverstayMinutes() int         { return b.overstayMinutes }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }
