package booking

import (
	"errors"
	"time"

	"voltshare/internal/domain/charger"
	"voltshare/internal/domain/pricing"
	"voltshare/internal/pkg/bookingcode"
	"voltshare/internal/pkg/clock"

	"github.com/google/uuid"
)

var (
	ErrStartInPast     = errors.New("start time is in the past")
	ErrDurationBounds  = errors.New("duration outside the charger's session bounds")
	ErrChargerInactive = errors.New("charger is not active")
	ErrTooFarAhead     = errors.New("start time exceeds the advance-booking horizon")
	ErrSameDayBlocked  = errors.New("charger does not accept same-day bookings")
)

// Policy carries the engine-level knobs the factory needs beyond the
// charger's own rule.
type Policy struct {
	ClockSkewTolerance time.Duration
}

type Factory struct {
	Clock      clock.Clock
	Calculator *pricing.Calculator
	Policy     Policy
}

func NewFactory(clk clock.Clock, calc *pricing.Calculator, policy Policy) *Factory {
	return &Factory{
		Clock:      clk,
		Calculator: calc,
		Policy:     policy,
	}
}

// CreateBooking validates the request against the charger's current rule,
// prices the slot, and returns a booking in pending status (confirmed
// immediately when the charger auto-accepts). The plaintext access code is
// returned alongside; only its hash lives on the entity.
func (f *Factory) CreateBooking(
	ch *charger.Charger,
	renterID uuid.UUID,
	slot TimeSlot,
) (*Booking, string, error) {
	now := f.Clock.Now()

	if !ch.IsActive() {
		return nil, "", ErrChargerInactive
	}
	if slot.Start().Before(now.Add(-f.Policy.ClockSkewTolerance)) {
		return nil, "", ErrStartInPast
	}

	rule := ch.Rule()
	if slot.Duration() < rule.MinSession() || slot.Duration() > rule.MaxSession() {
		return nil, "", ErrDurationBounds
	}
	if rule.AdvanceBookingHours > 0 &&
		slot.Start().After(now.Add(time.Duration(rule.AdvanceBookingHours)*time.Hour)) {
		return nil, "", ErrTooFarAhead
	}
	if !rule.SameDayBooking && sameDay(now, slot.Start()) {
		return nil, "", ErrSameDayBlocked
	}

	breakdown, err := f.Calculator.Quote(slot.Start(), slot.End(), rule, ch.MaxPowerKw())
	if err != nil {
		return nil, "", err
	}

	code, err := bookingcode.NewBookingCode()
	if err != nil {
		return nil, "", err
	}
	accessPlain, err := bookingcode.NewAccessCode()
	if err != nil {
		return nil, "", err
	}
	accessHash, err := bookingcode.HashAccessCode(accessPlain)
	if err != nil {
		return nil, "", err
	}

	status := StatusPending
	if ch.AutoAccept() {
		status = StatusConfirmed
	}

	price := PriceSnapshot{
		SubtotalCents:    breakdown.SubtotalCents,
		PlatformFeeCents: breakdown.PlatformFeeCents,
		BookingFeeCents:  breakdown.BookingFeeCents,
	}

	b := newBooking(ch.ID(), renterID, slot, status, price, rule, code, accessHash, now)
	if status == StatusConfirmed {
		t := now
		b.confirmedAt = &t
	}
	return b, accessPlain, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
